package booking

import "fmt"

// Reason is the machine-readable classification of a rejected operation.
type Reason string

const (
	ReasonInvalidInterval Reason = "INVALID_INTERVAL"
	ReasonPastBooking     Reason = "PAST_BOOKING"
	ReasonUnknownRoom     Reason = "UNKNOWN_ROOM"
	ReasonConflict        Reason = "CONFLICT"
	ReasonNotFound        Reason = "NOT_FOUND"
	ReasonNotOwner        Reason = "NOT_OWNER"
	ReasonAlreadyPast     Reason = "ALREADY_PAST"
	ReasonTimeout         Reason = "TIMEOUT"
)

// Rejection is a recoverable refusal of a reservation operation. It always
// carries a reason code alongside the human-readable message; conflict
// rejections additionally identify the reservation that blocked admission.
type Rejection struct {
	Reason     Reason
	Message    string
	ConflictID string
}

func (e *Rejection) Error() string {
	if e.ConflictID != "" {
		return fmt.Sprintf("booking: %s (conflicts with %s)", e.Reason, e.ConflictID)
	}
	return fmt.Sprintf("booking: %s", e.Reason)
}

// Reject builds a rejection with the given reason and message.
func Reject(reason Reason, message string) *Rejection {
	return &Rejection{Reason: reason, Message: message}
}

// RejectConflict builds a conflict rejection identifying the blocking
// reservation.
func RejectConflict(conflictID string) *Rejection {
	return &Rejection{
		Reason:     ReasonConflict,
		Message:    "la sala ya está reservada en ese horario",
		ConflictID: conflictID,
	}
}
