package booking

import (
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, time.March, 9, hour, minute, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"identical intervals", at(9, 0), at(10, 0), at(9, 0), at(10, 0), true},
		{"partial overlap", at(9, 0), at(10, 0), at(9, 30), at(10, 30), true},
		{"containment", at(9, 0), at(12, 0), at(10, 0), at(11, 0), true},
		{"back to back is not a conflict", at(9, 0), at(10, 0), at(10, 0), at(11, 0), false},
		{"reverse back to back", at(10, 0), at(11, 0), at(9, 0), at(10, 0), false},
		{"disjoint", at(9, 0), at(10, 0), at(14, 0), at(15, 0), false},
		{"one minute shared", at(9, 0), at(10, 1), at(10, 0), at(11, 0), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
				t.Fatalf("Overlaps(%v) = %v, want %v", tc.name, got, tc.want)
			}
			// Overlap is symmetric.
			if got := Overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd); got != tc.want {
				t.Fatalf("Overlaps is not symmetric for %v", tc.name)
			}
		})
	}
}

func TestFindConflict(t *testing.T) {
	existing := []Reservation{
		{ID: "r1", RoomID: "room-a", StartAt: at(9, 0), EndAt: at(10, 0)},
		{ID: "r2", RoomID: "room-b", StartAt: at(9, 0), EndAt: at(12, 0)},
	}

	t.Run("reports the blocking reservation", func(t *testing.T) {
		blocking, found := FindConflict(existing, "room-a", at(9, 30), at(10, 30))
		if !found {
			t.Fatal("expected a conflict")
		}
		if blocking.ID != "r1" {
			t.Fatalf("expected conflict with r1, got %s", blocking.ID)
		}
	})

	t.Run("other rooms never conflict", func(t *testing.T) {
		if _, found := FindConflict(existing, "room-c", at(9, 0), at(12, 0)); found {
			t.Fatal("unexpected conflict on an unrelated room")
		}
	})

	t.Run("adjacent interval is free", func(t *testing.T) {
		if _, found := FindConflict(existing, "room-a", at(10, 0), at(11, 0)); found {
			t.Fatal("back-to-back booking must not conflict")
		}
	})
}
