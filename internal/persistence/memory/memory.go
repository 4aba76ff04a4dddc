// Package memory provides an in-process implementation of the persistence
// repositories, used by tests and as a fallback when no database is
// configured.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/room-reservations/internal/persistence"
)

// Storage keeps all repository state in maps guarded by a single RWMutex. It
// implements every persistence repository interface.
type Storage struct {
	mu           sync.RWMutex
	users        map[string]persistence.User
	rooms        map[string]persistence.Room
	reservations map[string]persistence.Reservation
	sessions     map[string]persistence.Session
}

// NewStorage returns an empty storage.
func NewStorage() *Storage {
	return &Storage{
		users:        make(map[string]persistence.User),
		rooms:        make(map[string]persistence.Room),
		reservations: make(map[string]persistence.Reservation),
		sessions:     make(map[string]persistence.Session),
	}
}

var (
	_ persistence.UserRepository        = (*Storage)(nil)
	_ persistence.RoomRepository        = (*Storage)(nil)
	_ persistence.ReservationRepository = (*Storage)(nil)
	_ persistence.SessionRepository     = (*Storage)(nil)
)

// CreateUser stores a new user, enforcing email uniqueness.
func (s *Storage) CreateUser(_ context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return persistence.ErrDuplicate
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return persistence.ErrDuplicate
		}
	}
	s.users[user.ID] = user
	return nil
}

// UpdateUser replaces a stored user.
func (s *Storage) UpdateUser(_ context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; !exists {
		return persistence.ErrNotFound
	}
	for id, existing := range s.users {
		if id != user.ID && strings.EqualFold(existing.Email, user.Email) {
			return persistence.ErrDuplicate
		}
	}
	s.users[user.ID] = user
	return nil
}

// GetUser returns a user by id.
func (s *Storage) GetUser(_ context.Context, id string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

// GetUserByEmail returns a user by email, case-insensitively.
func (s *Storage) GetUserByEmail(_ context.Context, email string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

// ListUsers returns all users ordered by email.
func (s *Storage) ListUsers(_ context.Context) ([]persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]persistence.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

// DeleteUser removes a user. Users with reservations are protected.
func (s *Storage) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[id]; !exists {
		return persistence.ErrNotFound
	}
	for _, reservation := range s.reservations {
		if reservation.UserID == id {
			return persistence.ErrForeignKeyViolation
		}
	}
	delete(s.users, id)
	return nil
}

// CreateRoom stores a new room, enforcing name uniqueness.
func (s *Storage) CreateRoom(_ context.Context, room persistence.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[room.ID]; exists {
		return persistence.ErrDuplicate
	}
	for _, existing := range s.rooms {
		if strings.EqualFold(existing.Name, room.Name) {
			return persistence.ErrDuplicate
		}
	}
	s.rooms[room.ID] = room
	return nil
}

// UpdateRoom replaces a stored room.
func (s *Storage) UpdateRoom(_ context.Context, room persistence.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[room.ID]; !exists {
		return persistence.ErrNotFound
	}
	for id, existing := range s.rooms {
		if id != room.ID && strings.EqualFold(existing.Name, room.Name) {
			return persistence.ErrDuplicate
		}
	}
	s.rooms[room.ID] = room
	return nil
}

// GetRoom returns a room by id.
func (s *Storage) GetRoom(_ context.Context, id string) (persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, exists := s.rooms[id]
	if !exists {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return room, nil
}

// ListRooms returns all rooms ordered by name.
func (s *Storage) ListRooms(_ context.Context) ([]persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]persistence.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms, nil
}

// DeleteRoom removes a room. Rooms with reservations are protected.
func (s *Storage) DeleteRoom(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[id]; !exists {
		return persistence.ErrNotFound
	}
	for _, reservation := range s.reservations {
		if reservation.RoomID == id {
			return persistence.ErrForeignKeyViolation
		}
	}
	delete(s.rooms, id)
	return nil
}

// CreateReservation stores a booking after re-checking interval disjointness
// against the committed active rows. The check and the insert run under the
// same lock, so an overlap can never be committed through this storage.
func (s *Storage) CreateReservation(_ context.Context, reservation persistence.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reservations[reservation.ID]; exists {
		return persistence.ErrDuplicate
	}
	if _, exists := s.rooms[reservation.RoomID]; !exists {
		return persistence.ErrForeignKeyViolation
	}
	if _, exists := s.users[reservation.UserID]; !exists {
		return persistence.ErrForeignKeyViolation
	}
	for _, existing := range s.reservations {
		if existing.RoomID != reservation.RoomID || existing.Status != "active" {
			continue
		}
		if reservation.StartAt.Before(existing.EndAt) && existing.StartAt.Before(reservation.EndAt) {
			return &persistence.ConflictError{ConflictingID: existing.ID}
		}
	}
	s.reservations[reservation.ID] = reservation
	return nil
}

// GetReservation returns a reservation by id.
func (s *Storage) GetReservation(_ context.Context, id string) (persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reservation, exists := s.reservations[id]
	if !exists {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	return reservation, nil
}

// ListReservations returns the reservations matching the filter, ordered by
// start time then id.
func (s *Storage) ListReservations(_ context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]persistence.Reservation, 0)
	for _, reservation := range s.reservations {
		if matchesFilter(reservation, filter) {
			matches = append(matches, reservation)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].StartAt.Equal(matches[j].StartAt) {
			return matches[i].StartAt.Before(matches[j].StartAt)
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

// CountReservations counts the reservations matching the filter.
func (s *Storage) CountReservations(_ context.Context, filter persistence.ReservationFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, reservation := range s.reservations {
		if matchesFilter(reservation, filter) {
			count++
		}
	}
	return count, nil
}

func matchesFilter(reservation persistence.Reservation, filter persistence.ReservationFilter) bool {
	if filter.RoomID != "" && reservation.RoomID != filter.RoomID {
		return false
	}
	if filter.UserID != "" && reservation.UserID != filter.UserID {
		return false
	}
	if filter.ActiveOnly && reservation.Status != "active" {
		return false
	}
	if filter.StartsAtOrAfter != nil && reservation.StartAt.Before(*filter.StartsAtOrAfter) {
		return false
	}
	if filter.StartsBefore != nil && !reservation.StartAt.Before(*filter.StartsBefore) {
		return false
	}
	if filter.EndsAfter != nil && !reservation.EndAt.After(*filter.EndsAfter) {
		return false
	}
	if filter.EndedBefore != nil && !reservation.EndAt.Before(*filter.EndedBefore) {
		return false
	}
	return true
}

// CancelReservation marks a reservation cancelled, keeping the row.
func (s *Storage) CancelReservation(_ context.Context, id string, cancelledAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, exists := s.reservations[id]
	if !exists {
		return persistence.ErrNotFound
	}
	reservation.Status = "cancelled"
	reservation.CancelledAt = &cancelledAt
	reservation.UpdatedAt = cancelledAt
	s.reservations[id] = reservation
	return nil
}

// SetCalendarEventID records the external calendar event id on a reservation.
func (s *Storage) SetCalendarEventID(_ context.Context, id, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, exists := s.reservations[id]
	if !exists {
		return persistence.ErrNotFound
	}
	reservation.CalendarEventID = &eventID
	s.reservations[id] = reservation
	return nil
}

// CreateSession stores a session, enforcing token uniqueness.
func (s *Storage) CreateSession(_ context.Context, session persistence.Session) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.Token]; exists {
		return persistence.Session{}, persistence.ErrDuplicate
	}
	s.sessions[session.Token] = session
	return session, nil
}

// GetSession returns a session by token.
func (s *Storage) GetSession(_ context.Context, token string) (persistence.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[token]
	if !exists {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

// RevokeSession marks a session revoked.
func (s *Storage) RevokeSession(_ context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[token]
	if !exists {
		return persistence.Session{}, persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	s.sessions[token] = session
	return session, nil
}

// DeleteExpiredSessions removes sessions whose expiry is at or before the
// reference instant.
func (s *Storage) DeleteExpiredSessions(_ context.Context, reference time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for token, session := range s.sessions {
		if !session.ExpiresAt.After(reference) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed, nil
}
