package booking

import "time"

// ValidateRequest checks a proposed reservation against the committed state.
// Rules run in a fixed order and the first failure wins:
//
//  1. the interval must be well formed (startAt < endAt)
//  2. the interval must not start in the past (startAt >= now)
//  3. the room must exist in the active catalog
//  4. no existing reservation on the room may overlap the interval
//
// Role and capacity policy is deliberately out of scope here; it is applied by
// the caller through its own hook. A nil return means the request passed.
func ValidateRequest(req Request, existing []Reservation, roomExists bool, now time.Time) *Rejection {
	if !req.StartAt.Before(req.EndAt) {
		return Reject(ReasonInvalidInterval, "la fecha de inicio debe ser anterior a la fecha de fin")
	}

	if req.StartAt.Before(now) {
		return Reject(ReasonPastBooking, "no se pueden crear reservas para un horario que ya pasó")
	}

	if !roomExists {
		return Reject(ReasonUnknownRoom, "la sala indicada no existe")
	}

	if blocking, found := FindConflict(existing, req.RoomID, req.StartAt, req.EndAt); found {
		return RejectConflict(blocking.ID)
	}

	return nil
}
