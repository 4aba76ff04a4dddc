package booking

import (
	"math/rand"
	"testing"
	"time"
)

func TestPartition(t *testing.T) {
	now := at(12, 0)

	t.Run("classifies around now", func(t *testing.T) {
		parts := Partition([]Reservation{
			{ID: "past", StartAt: at(9, 0), EndAt: at(10, 0)},
			{ID: "current", StartAt: at(11, 30), EndAt: at(12, 30)},
			{ID: "future", StartAt: at(15, 0), EndAt: at(16, 0)},
		}, now)

		if parts.Current == nil || parts.Current.ID != "current" {
			t.Fatalf("expected current reservation, got %+v", parts.Current)
		}
		if len(parts.Past) != 1 || parts.Past[0].ID != "past" {
			t.Fatalf("unexpected past group: %+v", parts.Past)
		}
		if len(parts.Future) != 1 || parts.Future[0].ID != "future" {
			t.Fatalf("unexpected future group: %+v", parts.Future)
		}
	})

	t.Run("ending exactly now is past", func(t *testing.T) {
		parts := Partition([]Reservation{{ID: "r", StartAt: at(11, 0), EndAt: now}}, now)
		if parts.Current != nil || len(parts.Past) != 1 {
			t.Fatalf("reservation ending at now must be past, got %+v", parts)
		}
	})

	t.Run("starting exactly now is current", func(t *testing.T) {
		parts := Partition([]Reservation{{ID: "r", StartAt: now, EndAt: at(13, 0)}}, now)
		if parts.Current == nil || parts.Current.ID != "r" {
			t.Fatalf("reservation starting at now must be current, got %+v", parts)
		}
	})

	t.Run("no current when nothing is in progress", func(t *testing.T) {
		parts := Partition([]Reservation{{ID: "r", StartAt: at(13, 0), EndAt: at(14, 0)}}, now)
		if parts.Current != nil {
			t.Fatalf("expected absent current, got %+v", parts.Current)
		}
	})

	t.Run("groups are ordered by start", func(t *testing.T) {
		parts := Partition([]Reservation{
			{ID: "late", StartAt: at(16, 0), EndAt: at(17, 0)},
			{ID: "early", StartAt: at(13, 0), EndAt: at(14, 0)},
		}, now)
		if parts.Future[0].ID != "early" || parts.Future[1].ID != "late" {
			t.Fatalf("future group out of order: %+v", parts.Future)
		}
	})

	t.Run("partition law holds for random sets", func(t *testing.T) {
		rng := rand.New(rand.NewSource(29))
		for round := 0; round < 50; round++ {
			input := make([]Reservation, 0, 20)
			ids := make(map[string]struct{})
			for i := 0; i < 20; i++ {
				start := at(0, 0).Add(time.Duration(rng.Intn(24*60)) * time.Minute)
				id := string(rune('a'+i)) + "-" + start.Format("1504")
				input = append(input, Reservation{
					ID:      id,
					StartAt: start,
					EndAt:   start.Add(time.Duration(1+rng.Intn(120)) * time.Minute),
				})
				ids[id] = struct{}{}
			}

			parts := Partition(input, now)

			seen := make(map[string]int)
			if parts.Current != nil {
				seen[parts.Current.ID]++
			}
			for _, res := range parts.Past {
				seen[res.ID]++
			}
			for _, res := range parts.Future {
				seen[res.ID]++
			}

			if len(seen) != len(ids) {
				t.Fatalf("partition dropped reservations: got %d of %d", len(seen), len(ids))
			}
			for id, count := range seen {
				if count != 1 {
					t.Fatalf("reservation %s appears %d times", id, count)
				}
			}
			for _, res := range parts.Past {
				if res.EndAt.After(now) {
					t.Fatalf("past reservation %s ends after now", res.ID)
				}
			}
		}
	})
}
