// Package testfixtures provides deterministic clocks, identifier generators,
// and domain fixtures shared by the service and repository tests.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/room-reservations/internal/persistence"
)

var (
	userCounter        uint64
	roomCounter        uint64
	reservationCounter uint64
)

// ReferenceTime is a Monday at 12:00 UTC, chosen so fixtures land inside a
// single work week unless a test moves them.
var referenceTime = time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// UserOption configures a generated user fixture.
type UserOption func(*persistence.User)

// NewUserFixture returns a deterministic student account with optional
// overrides.
func NewUserFixture(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(-time.Duration(idx) * time.Hour)
	user := persistence.User{
		ID:           id,
		Email:        fmt.Sprintf("%s@ufro.cl", id),
		DisplayName:  fmt.Sprintf("Usuario %03d", idx),
		Role:         "STUDENT",
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// AsAdmin marks the fixture account as an administrator.
func AsAdmin() UserOption {
	return func(user *persistence.User) {
		user.Role = "ADMIN"
	}
}

// WithEmail overrides the fixture email.
func WithEmail(email string) UserOption {
	return func(user *persistence.User) {
		user.Email = email
	}
}

// WithPasswordHash overrides the stored password hash.
func WithPasswordHash(hash string) UserOption {
	return func(user *persistence.User) {
		user.PasswordHash = hash
	}
}

// RoomOption configures a generated room fixture.
type RoomOption func(*persistence.Room)

// NewRoomFixture returns a deterministic room with optional overrides.
func NewRoomFixture(opts ...RoomOption) persistence.Room {
	idx := atomic.AddUint64(&roomCounter, 1)
	created := referenceTime.Add(-time.Duration(idx) * time.Hour)
	room := persistence.Room{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      fmt.Sprintf("Sala %03d", idx),
		Capacity:  6,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&room)
	}
	return room
}

// WithCapacity overrides the fixture capacity.
func WithCapacity(capacity int) RoomOption {
	return func(room *persistence.Room) {
		room.Capacity = capacity
	}
}

// ReservationOption configures a generated reservation fixture.
type ReservationOption func(*persistence.Reservation)

// NewReservationFixture returns a deterministic active reservation owned by
// the given user in the given room, starting one hour after ReferenceTime.
func NewReservationFixture(roomID, userID string, opts ...ReservationOption) persistence.Reservation {
	idx := atomic.AddUint64(&reservationCounter, 1)
	start := referenceTime.Add(time.Hour)
	reservation := persistence.Reservation{
		ID:        fmt.Sprintf("res-%03d", idx),
		RoomID:    roomID,
		UserID:    userID,
		StartAt:   start,
		EndAt:     start.Add(time.Hour),
		Status:    "active",
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&reservation)
	}
	return reservation
}

// StartingAt moves the reservation to the given start, keeping its duration.
func StartingAt(start time.Time) ReservationOption {
	return func(reservation *persistence.Reservation) {
		duration := reservation.EndAt.Sub(reservation.StartAt)
		reservation.StartAt = start
		reservation.EndAt = start.Add(duration)
	}
}

// Lasting overrides the reservation duration.
func Lasting(duration time.Duration) ReservationOption {
	return func(reservation *persistence.Reservation) {
		reservation.EndAt = reservation.StartAt.Add(duration)
	}
}

// Cancelled marks the reservation cancelled at the given instant.
func Cancelled(at time.Time) ReservationOption {
	return func(reservation *persistence.Reservation) {
		reservation.Status = "cancelled"
		reservation.CancelledAt = &at
	}
}
