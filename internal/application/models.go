package application

import (
	"fmt"
	"time"

	"github.com/example/room-reservations/internal/booking"
	"github.com/example/room-reservations/internal/timegrid"
)

// Role is the closed set of account roles. Every policy decision switches over
// it exhaustively so that adding a role forces an audit of each switch site.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleAdmin   Role = "ADMIN"
)

// ParseRole validates a wire-format role value.
func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleStudent:
		return RoleStudent, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

// CanManageCatalog reports whether the role may mutate rooms and users.
func (r Role) CanManageCatalog() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleStudent:
		return false
	}
	return false
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the principal holds the administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// User represents an account exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	Role        Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	Email       string
	DisplayName string
	Role        Role
	Password    string
}

// CreateUserParams is the repository payload for a new account.
type CreateUserParams struct {
	ID           string
	Email        string
	DisplayName  string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UpdateUserParams is the repository payload for a profile update. A nil
// PasswordHash leaves the stored hash untouched.
type UpdateUserParams struct {
	ID           string
	Email        string
	DisplayName  string
	Role         Role
	PasswordHash *string
	UpdatedAt    time.Time
}

// Room represents a catalog entry for a reservable room.
type Room struct {
	ID        string
	Name      string
	Capacity  int
	Equipment *string
	Floor     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name      string
	Capacity  int
	Equipment *string
	Floor     *string
}

// CreateRoomParams is the repository payload for a new room.
type CreateRoomParams struct {
	ID        string
	Name      string
	Capacity  int
	Equipment *string
	Floor     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UpdateRoomParams is the repository payload for a room update.
type UpdateRoomParams struct {
	ID        string
	Name      string
	Capacity  int
	Equipment *string
	Floor     *string
	UpdatedAt time.Time
}

// ReservationStatus is the stored lifecycle state of a reservation. Completion
// is a read-time classification, never a stored transition.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Reservation is a committed booking owned by the ledger.
type Reservation struct {
	ID              string
	RoomID          string
	UserID          string
	StartAt         time.Time
	EndAt           time.Time
	Status          ReservationStatus
	CalendarEventID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CancelledAt     *time.Time
}

// ReservationInput captures a caller's proposed reservation.
type ReservationInput struct {
	RoomID        string
	StartAt       time.Time
	EndAt         time.Time
	AddToCalendar bool
}

// AdmitParams wraps a reservation request made by the principal on their own
// behalf.
type AdmitParams struct {
	Principal Principal
	Input     ReservationInput
}

// AdmitOnBehalfParams wraps an administrator's request to book for another
// account, identified by email.
type AdmitOnBehalfParams struct {
	Principal  Principal
	OwnerEmail string
	Input      ReservationInput
}

// ReservationDetail pairs a reservation with its room and owner.
type ReservationDetail struct {
	Reservation Reservation
	Room        Room
	User        User
}

// MyReservationsView partitions a user's active reservations relative to the
// query instant. Current is nil when nothing is in progress.
type MyReservationsView struct {
	Current *ReservationDetail
	Future  []ReservationDetail
	Past    []ReservationDetail
}

// Warning is a non-fatal problem attached to an otherwise successful
// operation, such as a failed calendar sync.
type Warning struct {
	Code    string
	Message string
}

// DailyAvailability is the derived availability grid for one date.
type DailyAvailability struct {
	Date  time.Time
	Rooms []Room
	Slots []timegrid.Slot
	Cells []booking.Cell
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
	Disabled     bool
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication.
type AuthenticateResult struct {
	User    User
	Session Session
}
