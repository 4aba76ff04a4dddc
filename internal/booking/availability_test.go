package booking

import (
	"math/rand"
	"reflect"
	"testing"
	"time"
)

func morningSlots() []SlotWindow {
	return []SlotWindow{
		{SlotID: "09:00-10:00", Start: at(9, 0), End: at(10, 0)},
		{SlotID: "10:00-11:00", Start: at(10, 0), End: at(11, 0)},
		{SlotID: "11:00-12:00", Start: at(11, 0), End: at(12, 0)},
	}
}

func cellFor(t *testing.T, cells []Cell, roomID, slotID string) Cell {
	t.Helper()
	for _, cell := range cells {
		if cell.RoomID == roomID && cell.SlotID == slotID {
			return cell
		}
	}
	t.Fatalf("no cell for room %s slot %s", roomID, slotID)
	return Cell{}
}

func TestComputeAvailability(t *testing.T) {
	rooms := []string{"room-a", "room-b"}

	t.Run("empty state leaves every cell free", func(t *testing.T) {
		cells := ComputeAvailability(rooms, morningSlots(), nil)
		if len(cells) != 6 {
			t.Fatalf("expected 6 cells, got %d", len(cells))
		}
		for _, cell := range cells {
			if !cell.Available {
				t.Fatalf("cell %v should be available", cell)
			}
		}
	})

	t.Run("a reservation blocks only its room and slot", func(t *testing.T) {
		cells := ComputeAvailability(rooms, morningSlots(), []Reservation{
			{ID: "r1", RoomID: "room-a", StartAt: at(9, 0), EndAt: at(10, 0)},
		})
		if cellFor(t, cells, "room-a", "09:00-10:00").Available {
			t.Fatal("occupied slot reported available")
		}
		if !cellFor(t, cells, "room-a", "10:00-11:00").Available {
			t.Fatal("adjacent slot must stay free")
		}
		if !cellFor(t, cells, "room-b", "09:00-10:00").Available {
			t.Fatal("other room must stay free")
		}
	})

	t.Run("a spanning reservation blocks every intersected slot", func(t *testing.T) {
		cells := ComputeAvailability(rooms, morningSlots(), []Reservation{
			{ID: "r1", RoomID: "room-b", StartAt: at(9, 30), EndAt: at(11, 30)},
		})
		for _, slotID := range []string{"09:00-10:00", "10:00-11:00", "11:00-12:00"} {
			if cellFor(t, cells, "room-b", slotID).Available {
				t.Fatalf("slot %s should be blocked by the spanning reservation", slotID)
			}
		}
	})

	t.Run("a mid-slot reservation still blocks the slot", func(t *testing.T) {
		cells := ComputeAvailability(rooms, morningSlots(), []Reservation{
			{ID: "r1", RoomID: "room-a", StartAt: at(9, 15), EndAt: at(9, 45)},
		})
		if cellFor(t, cells, "room-a", "09:00-10:00").Available {
			t.Fatal("partially occupied slot reported available")
		}
	})

	t.Run("recomputation is deterministic", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		reservations := make([]Reservation, 0, 40)
		for i := 0; i < 40; i++ {
			start := at(8, 0).Add(time.Duration(rng.Intn(10*60)) * time.Minute)
			reservations = append(reservations, Reservation{
				ID:      string(rune('a' + i%26)),
				RoomID:  rooms[rng.Intn(len(rooms))],
				StartAt: start,
				EndAt:   start.Add(time.Duration(15+rng.Intn(90)) * time.Minute),
			})
		}

		first := ComputeAvailability(rooms, morningSlots(), reservations)
		second := ComputeAvailability(rooms, morningSlots(), reservations)
		if !reflect.DeepEqual(first, second) {
			t.Fatal("identical inputs produced different grids")
		}
	})
}
