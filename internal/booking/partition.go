package booking

import (
	"sort"
	"time"
)

// Partitioned is a user's reservation set split relative to a reference time.
// The three groups are disjoint and together cover the input exactly; Current
// is absent when no reservation contains the reference instant.
type Partitioned struct {
	Current *Reservation
	Future  []Reservation
	Past    []Reservation
}

// Partition classifies reservations against now:
//
//   - past:    endAt <= now (a reservation ending exactly now is past)
//   - current: startAt <= now < endAt (one starting exactly now is current)
//   - future:  startAt > now
//
// Future and past come back ordered by start time. The per-room no-overlap
// invariant allows at most one in-progress reservation per room; should a user
// hold in-progress reservations on several rooms at once, the earliest-started
// one is Current and the others lead the Future group so no reservation is
// ever dropped from the view.
func Partition(reservations []Reservation, now time.Time) Partitioned {
	ordered := make([]Reservation, len(reservations))
	copy(ordered, reservations)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].StartAt.Equal(ordered[j].StartAt) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].StartAt.Before(ordered[j].StartAt)
	})

	var out Partitioned
	var extraCurrent []Reservation
	for _, res := range ordered {
		switch {
		case !res.EndAt.After(now):
			out.Past = append(out.Past, res)
		case res.StartAt.After(now):
			out.Future = append(out.Future, res)
		case out.Current == nil:
			current := res
			out.Current = &current
		default:
			extraCurrent = append(extraCurrent, res)
		}
	}
	if len(extraCurrent) > 0 {
		out.Future = append(extraCurrent, out.Future...)
	}
	return out
}
