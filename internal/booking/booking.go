// Package booking contains the pure reservation-consistency core: interval
// overlap, availability derivation, request validation, and the
// current/future/past partition. It performs no I/O; callers supply the
// committed reservation state and the reference time.
package booking

import "time"

// Reservation is the minimal committed booking fact the core reasons about.
// Only active reservations belong here; cancelled ones free their interval.
type Reservation struct {
	ID      string
	RoomID  string
	UserID  string
	StartAt time.Time
	EndAt   time.Time
}

// Request is a proposed reservation awaiting admission.
type Request struct {
	RoomID  string
	StartAt time.Time
	EndAt   time.Time
}
