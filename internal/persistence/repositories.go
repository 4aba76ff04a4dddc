package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// ReservationFilter narrows reservation queries. StartsBefore/EndsAfter
// together select rows whose half-open interval overlaps a window.
type ReservationFilter struct {
	RoomID          string
	UserID          string
	ActiveOnly      bool
	StartsAtOrAfter *time.Time
	StartsBefore    *time.Time
	EndsAfter       *time.Time
	EndedBefore     *time.Time
}

// ReservationRepository stores booking rows. CreateReservation re-checks
// interval disjointness against committed active rows inside its own
// transaction and fails with a ConflictError rather than ever committing an
// overlap.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	CountReservations(ctx context.Context, filter ReservationFilter) (int, error)
	CancelReservation(ctx context.Context, id string, cancelledAt time.Time) error
	SetCalendarEventID(ctx context.Context, id, eventID string) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) (int64, error)
}
