// Package timegrid holds the fixed catalog of daily reservation periods and
// resolves them to absolute windows for a given date.
package timegrid

import (
	"fmt"
	"time"
)

// ConfigError reports a malformed slot catalog. It is fatal at startup and is
// never produced per-request.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "timegrid: " + e.Reason
}

// Clock is a wall-clock time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses an HH:MM value.
func ParseClock(value string) (Clock, error) {
	var c Clock
	if _, err := fmt.Sscanf(value, "%d:%d", &c.Hour, &c.Minute); err != nil {
		return Clock{}, fmt.Errorf("timegrid: invalid clock value %q: %w", value, err)
	}
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return Clock{}, fmt.Errorf("timegrid: clock value %q out of range", value)
	}
	return c, nil
}

func (c Clock) minutes() int {
	return c.Hour*60 + c.Minute
}

// String renders the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Slot is one named period of the daily grid.
type Slot struct {
	ID    string
	Label string
	Start Clock
	End   Clock
}

// Window is a slot resolved against a concrete date.
type Window struct {
	Slot  Slot
	Start time.Time
	End   time.Time
}

// Grid is an immutable, ordered, non-overlapping slot catalog bound to a zone.
type Grid struct {
	slots []Slot
	loc   *time.Location
}

// New validates the catalog and returns a grid. The slots must be non-empty,
// ordered by start, internally consistent (start < end), and pairwise
// non-overlapping; back-to-back slots are allowed.
func New(slots []Slot, loc *time.Location) (*Grid, error) {
	if loc == nil {
		loc = time.UTC
	}
	if len(slots) == 0 {
		return nil, &ConfigError{Reason: "slot catalog is empty"}
	}

	seen := make(map[string]struct{}, len(slots))
	for i, slot := range slots {
		if slot.ID == "" {
			return nil, &ConfigError{Reason: fmt.Sprintf("slot %d has no id", i)}
		}
		if _, ok := seen[slot.ID]; ok {
			return nil, &ConfigError{Reason: fmt.Sprintf("duplicate slot id %q", slot.ID)}
		}
		seen[slot.ID] = struct{}{}

		if slot.Start.minutes() >= slot.End.minutes() {
			return nil, &ConfigError{Reason: fmt.Sprintf("slot %q does not start before it ends", slot.ID)}
		}
		if i > 0 && slots[i-1].End.minutes() > slot.Start.minutes() {
			return nil, &ConfigError{Reason: fmt.Sprintf("slot %q overlaps slot %q", slot.ID, slots[i-1].ID)}
		}
	}

	copied := make([]Slot, len(slots))
	copy(copied, slots)
	return &Grid{slots: copied, loc: loc}, nil
}

// Slots returns the catalog in grid order.
func (g *Grid) Slots() []Slot {
	out := make([]Slot, len(g.slots))
	copy(out, g.slots)
	return out
}

// Location returns the zone slots are resolved in.
func (g *Grid) Location() *time.Location {
	return g.loc
}

// SlotsFor resolves every slot against the calendar date of the given instant,
// interpreted in the grid's zone. The result is deterministic for a date.
func (g *Grid) SlotsFor(date time.Time) []Window {
	local := date.In(g.loc)
	year, month, day := local.Date()

	windows := make([]Window, 0, len(g.slots))
	for _, slot := range g.slots {
		windows = append(windows, Window{
			Slot:  slot,
			Start: time.Date(year, month, day, slot.Start.Hour, slot.Start.Minute, 0, 0, g.loc),
			End:   time.Date(year, month, day, slot.End.Hour, slot.End.Minute, 0, 0, g.loc),
		})
	}
	return windows
}

// DayBounds returns the half-open [start, end) of the calendar day containing
// the given instant in the grid's zone.
func (g *Grid) DayBounds(date time.Time) (time.Time, time.Time) {
	local := date.In(g.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, g.loc)
	return start, start.AddDate(0, 0, 1)
}

// DefaultSlots returns the eleven university periods the service ships with,
// including the lunch block.
func DefaultSlots() []Slot {
	entries := []struct {
		start, end, period string
	}{
		{"08:30", "09:30", "1°"},
		{"09:40", "10:40", "2°"},
		{"10:50", "11:50", "3°"},
		{"12:00", "13:00", "4°"},
		{"13:10", "14:10", "Alm."},
		{"14:30", "15:30", "5°"},
		{"15:40", "16:40", "6°"},
		{"16:50", "17:50", "7°"},
		{"18:00", "19:00", "8°"},
		{"19:10", "20:10", "9°"},
		{"20:20", "21:20", "10°"},
	}

	slots := make([]Slot, 0, len(entries))
	for _, entry := range entries {
		start, _ := ParseClock(entry.start)
		end, _ := ParseClock(entry.end)
		slots = append(slots, Slot{
			// The id keeps the HH:MM-HH:MM form so clients sort cells naturally.
			ID:    entry.start + "-" + entry.end,
			Label: fmt.Sprintf("%s (%s-%s)", entry.period, entry.start, entry.end),
			Start: start,
			End:   end,
		})
	}
	return slots
}
