package persistence

import "time"

// User represents an account in the reservation domain.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	Role         string
	PasswordHash string
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Room represents a reservable room catalog entry.
type Room struct {
	ID        string
	Name      string
	Capacity  int
	Equipment *string
	Floor     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reservation represents a booking row. Cancelled rows are kept for history
// and excluded from conflict checks.
type Reservation struct {
	ID              string
	RoomID          string
	UserID          string
	StartAt         time.Time
	EndAt           time.Time
	Status          string
	CalendarEventID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CancelledAt     *time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}
