package booking

import "time"

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Adjacent intervals (aEnd == bStart) do not.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// FindConflict returns the first existing reservation on the room whose
// interval intersects [startAt, endAt). Reservations on other rooms never
// conflict.
func FindConflict(existing []Reservation, roomID string, startAt, endAt time.Time) (Reservation, bool) {
	for _, res := range existing {
		if res.RoomID != roomID {
			continue
		}
		if Overlaps(res.StartAt, res.EndAt, startAt, endAt) {
			return res, true
		}
	}
	return Reservation{}, false
}
