package booking

import (
	"sort"
	"time"
)

// SlotWindow is a grid slot resolved to absolute bounds for the queried day.
type SlotWindow struct {
	SlotID string
	Start  time.Time
	End    time.Time
}

// Cell is one derived availability fact. It is recomputed on every query and
// never stored.
type Cell struct {
	RoomID    string
	SlotID    string
	Available bool
}

// ComputeAvailability derives the (room × slot) availability matrix from the
// active reservations. A cell is unavailable iff any reservation for that room
// intersects the slot's half-open window, including reservations that span
// several slots or are not aligned to slot boundaries. Cells come back in
// room-major, slot-minor order.
func ComputeAvailability(roomIDs []string, slots []SlotWindow, reservations []Reservation) []Cell {
	byRoom := make(map[string][]Reservation, len(roomIDs))
	for _, res := range reservations {
		byRoom[res.RoomID] = append(byRoom[res.RoomID], res)
	}
	for _, group := range byRoom {
		sort.Slice(group, func(i, j int) bool { return group[i].StartAt.Before(group[j].StartAt) })
	}

	cells := make([]Cell, 0, len(roomIDs)*len(slots))
	for _, roomID := range roomIDs {
		group := byRoom[roomID]
		for _, slot := range slots {
			occupied := false
			for _, res := range group {
				if !res.StartAt.Before(slot.End) {
					// Reservations are sorted by start; nothing later can reach
					// back into this slot.
					break
				}
				if Overlaps(res.StartAt, res.EndAt, slot.Start, slot.End) {
					occupied = true
					break
				}
			}
			cells = append(cells, Cell{RoomID: roomID, SlotID: slot.SlotID, Available: !occupied})
		}
	}
	return cells
}
