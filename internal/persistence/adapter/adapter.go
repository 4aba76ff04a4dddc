// Package adapter bridges the persistence repositories to the application
// service interfaces, converting between the two model layers.
package adapter

import (
	"context"
	"time"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/persistence"
)

// Reservations adapts a persistence.ReservationRepository to the interfaces
// consumed by the reservation and availability services.
type Reservations struct {
	Repo persistence.ReservationRepository
}

var (
	_ application.ReservationRepository = Reservations{}
	_ application.AvailabilityReader    = Reservations{}
)

// CreateReservation persists a new booking.
func (a Reservations) CreateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	if err := a.Repo.CreateReservation(ctx, toStoredReservation(reservation)); err != nil {
		return application.Reservation{}, err
	}
	return reservation, nil
}

// GetReservation loads one reservation by id.
func (a Reservations) GetReservation(ctx context.Context, id string) (application.Reservation, error) {
	stored, err := a.Repo.GetReservation(ctx, id)
	if err != nil {
		return application.Reservation{}, err
	}
	return toAppReservation(stored), nil
}

// ListActiveForRoom returns the active reservations of a room overlapping
// the [from, to) window.
func (a Reservations) ListActiveForRoom(ctx context.Context, roomID string, from, to time.Time) ([]application.Reservation, error) {
	return a.list(ctx, persistence.ReservationFilter{
		RoomID:       roomID,
		ActiveOnly:   true,
		StartsBefore: &to,
		EndsAfter:    &from,
	})
}

// ListActiveForUser returns all active reservations owned by a user.
func (a Reservations) ListActiveForUser(ctx context.Context, userID string) ([]application.Reservation, error) {
	return a.list(ctx, persistence.ReservationFilter{UserID: userID, ActiveOnly: true})
}

// ListForRoom returns a room's full history including cancelled rows.
func (a Reservations) ListForRoom(ctx context.Context, roomID string) ([]application.Reservation, error) {
	return a.list(ctx, persistence.ReservationFilter{RoomID: roomID})
}

// ListActiveBetween returns the active reservations overlapping the
// [from, to) window across all rooms.
func (a Reservations) ListActiveBetween(ctx context.Context, from, to time.Time) ([]application.Reservation, error) {
	return a.list(ctx, persistence.ReservationFilter{
		ActiveOnly:   true,
		StartsBefore: &to,
		EndsAfter:    &from,
	})
}

// CountActiveForUserBetween counts a user's active reservations starting in
// the [from, to) window.
func (a Reservations) CountActiveForUserBetween(ctx context.Context, userID string, from, to time.Time) (int, error) {
	return a.Repo.CountReservations(ctx, persistence.ReservationFilter{
		UserID:          userID,
		ActiveOnly:      true,
		StartsAtOrAfter: &from,
		StartsBefore:    &to,
	})
}

// CancelReservation marks a reservation cancelled and returns the updated
// row.
func (a Reservations) CancelReservation(ctx context.Context, id string, cancelledAt time.Time) (application.Reservation, error) {
	if err := a.Repo.CancelReservation(ctx, id, cancelledAt); err != nil {
		return application.Reservation{}, err
	}
	return a.GetReservation(ctx, id)
}

// SetCalendarEventID records the external calendar event id.
func (a Reservations) SetCalendarEventID(ctx context.Context, id, eventID string) error {
	return a.Repo.SetCalendarEventID(ctx, id, eventID)
}

func (a Reservations) list(ctx context.Context, filter persistence.ReservationFilter) ([]application.Reservation, error) {
	stored, err := a.Repo.ListReservations(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]application.Reservation, 0, len(stored))
	for _, row := range stored {
		out = append(out, toAppReservation(row))
	}
	return out, nil
}

// Rooms adapts a persistence.RoomRepository to the catalog interfaces.
type Rooms struct {
	Repo persistence.RoomRepository
}

var (
	_ application.RoomCatalog    = Rooms{}
	_ application.RoomRepository = Rooms{}
)

// CreateRoom persists a new room.
func (a Rooms) CreateRoom(ctx context.Context, params application.CreateRoomParams) (application.Room, error) {
	room := persistence.Room{
		ID:        params.ID,
		Name:      params.Name,
		Capacity:  params.Capacity,
		Equipment: params.Equipment,
		Floor:     params.Floor,
		CreatedAt: params.CreatedAt,
		UpdatedAt: params.UpdatedAt,
	}
	if err := a.Repo.CreateRoom(ctx, room); err != nil {
		return application.Room{}, err
	}
	return toAppRoom(room), nil
}

// GetRoom loads one room by id.
func (a Rooms) GetRoom(ctx context.Context, id string) (application.Room, error) {
	stored, err := a.Repo.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toAppRoom(stored), nil
}

// ListRooms returns the catalog.
func (a Rooms) ListRooms(ctx context.Context) ([]application.Room, error) {
	stored, err := a.Repo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]application.Room, 0, len(stored))
	for _, row := range stored {
		out = append(out, toAppRoom(row))
	}
	return out, nil
}

// UpdateRoom replaces a room's attributes.
func (a Rooms) UpdateRoom(ctx context.Context, params application.UpdateRoomParams) (application.Room, error) {
	existing, err := a.Repo.GetRoom(ctx, params.ID)
	if err != nil {
		return application.Room{}, err
	}
	existing.Name = params.Name
	existing.Capacity = params.Capacity
	existing.Equipment = params.Equipment
	existing.Floor = params.Floor
	existing.UpdatedAt = params.UpdatedAt
	if err := a.Repo.UpdateRoom(ctx, existing); err != nil {
		return application.Room{}, err
	}
	return toAppRoom(existing), nil
}

// DeleteRoom removes a room.
func (a Rooms) DeleteRoom(ctx context.Context, id string) error {
	return a.Repo.DeleteRoom(ctx, id)
}

// Users adapts a persistence.UserRepository to the directory, account, and
// credential interfaces.
type Users struct {
	Repo persistence.UserRepository
}

var (
	_ application.UserDirectory     = Users{}
	_ application.UserRepository    = Users{}
	_ application.CredentialsReader = Users{}
)

// CreateUser persists a new account.
func (a Users) CreateUser(ctx context.Context, params application.CreateUserParams) (application.User, error) {
	user := persistence.User{
		ID:           params.ID,
		Email:        params.Email,
		DisplayName:  params.DisplayName,
		Role:         string(params.Role),
		PasswordHash: params.PasswordHash,
		CreatedAt:    params.CreatedAt,
		UpdatedAt:    params.UpdatedAt,
	}
	if err := a.Repo.CreateUser(ctx, user); err != nil {
		return application.User{}, err
	}
	return toAppUser(user), nil
}

// GetUser loads one account by id.
func (a Users) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.Repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toAppUser(stored), nil
}

// GetUserByEmail loads one account by email.
func (a Users) GetUserByEmail(ctx context.Context, email string) (application.User, error) {
	stored, err := a.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.User{}, err
	}
	return toAppUser(stored), nil
}

// GetCredentialsByEmail loads the stored credentials for authentication.
func (a Users) GetCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:         toAppUser(stored),
		PasswordHash: stored.PasswordHash,
		Disabled:     stored.Disabled,
	}, nil
}

// ListUsers returns all accounts.
func (a Users) ListUsers(ctx context.Context) ([]application.User, error) {
	stored, err := a.Repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]application.User, 0, len(stored))
	for _, row := range stored {
		out = append(out, toAppUser(row))
	}
	return out, nil
}

// UpdateUser replaces an account's profile, keeping the stored password hash
// unless a new one is supplied.
func (a Users) UpdateUser(ctx context.Context, params application.UpdateUserParams) (application.User, error) {
	existing, err := a.Repo.GetUser(ctx, params.ID)
	if err != nil {
		return application.User{}, err
	}
	existing.Email = params.Email
	existing.DisplayName = params.DisplayName
	existing.Role = string(params.Role)
	existing.UpdatedAt = params.UpdatedAt
	if params.PasswordHash != nil {
		existing.PasswordHash = *params.PasswordHash
	}
	if err := a.Repo.UpdateUser(ctx, existing); err != nil {
		return application.User{}, err
	}
	return toAppUser(existing), nil
}

// DeleteUser removes an account.
func (a Users) DeleteUser(ctx context.Context, id string) error {
	return a.Repo.DeleteUser(ctx, id)
}

// Sessions adapts a persistence.SessionRepository to the session store
// interface.
type Sessions struct {
	Repo persistence.SessionRepository
}

var _ application.SessionStore = Sessions{}

// CreateSession persists a new session.
func (a Sessions) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.Repo.CreateSession(ctx, persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		RevokedAt: session.RevokedAt,
	})
	if err != nil {
		return application.Session{}, err
	}
	return toAppSession(stored), nil
}

// GetSessionByToken loads one session by token.
func (a Sessions) GetSessionByToken(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.Repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toAppSession(stored), nil
}

// RevokeSession marks a session revoked.
func (a Sessions) RevokeSession(ctx context.Context, token string, revokedAt time.Time) error {
	_, err := a.Repo.RevokeSession(ctx, token, revokedAt)
	return err
}

// DeleteExpiredSessions removes sessions past their expiry.
func (a Sessions) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	return a.Repo.DeleteExpiredSessions(ctx, before)
}

func toStoredReservation(reservation application.Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:              reservation.ID,
		RoomID:          reservation.RoomID,
		UserID:          reservation.UserID,
		StartAt:         reservation.StartAt,
		EndAt:           reservation.EndAt,
		Status:          string(reservation.Status),
		CalendarEventID: reservation.CalendarEventID,
		CreatedAt:       reservation.CreatedAt,
		UpdatedAt:       reservation.UpdatedAt,
		CancelledAt:     reservation.CancelledAt,
	}
}

func toAppReservation(stored persistence.Reservation) application.Reservation {
	return application.Reservation{
		ID:              stored.ID,
		RoomID:          stored.RoomID,
		UserID:          stored.UserID,
		StartAt:         stored.StartAt,
		EndAt:           stored.EndAt,
		Status:          application.ReservationStatus(stored.Status),
		CalendarEventID: stored.CalendarEventID,
		CreatedAt:       stored.CreatedAt,
		UpdatedAt:       stored.UpdatedAt,
		CancelledAt:     stored.CancelledAt,
	}
}

func toAppRoom(stored persistence.Room) application.Room {
	return application.Room{
		ID:        stored.ID,
		Name:      stored.Name,
		Capacity:  stored.Capacity,
		Equipment: stored.Equipment,
		Floor:     stored.Floor,
		CreatedAt: stored.CreatedAt,
		UpdatedAt: stored.UpdatedAt,
	}
}

func toAppUser(stored persistence.User) application.User {
	return application.User{
		ID:          stored.ID,
		Email:       stored.Email,
		DisplayName: stored.DisplayName,
		Role:        application.Role(stored.Role),
		CreatedAt:   stored.CreatedAt,
		UpdatedAt:   stored.UpdatedAt,
	}
}

func toAppSession(stored persistence.Session) application.Session {
	return application.Session{
		ID:        stored.ID,
		UserID:    stored.UserID,
		Token:     stored.Token,
		ExpiresAt: stored.ExpiresAt,
		CreatedAt: stored.CreatedAt,
		RevokedAt: stored.RevokedAt,
	}
}
