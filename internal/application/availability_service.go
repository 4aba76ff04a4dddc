package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/room-reservations/internal/booking"
	"github.com/example/room-reservations/internal/timegrid"
)

// AvailabilityReader supplies the committed reservations intersecting a
// window. Implemented by ReservationRepository adapters.
type AvailabilityReader interface {
	ListActiveBetween(ctx context.Context, from, to time.Time) ([]Reservation, error)
}

// AvailabilityService projects the committed ledger onto the institutional
// time grid. It holds no state of its own: every call derives the matrix
// fresh, so two calls with no intervening commit return identical results.
type AvailabilityService struct {
	grid         *timegrid.Grid
	rooms        RoomCatalog
	reservations AvailabilityReader
	logger       *slog.Logger
}

// NewAvailabilityService constructs the read-side projection over the grid.
func NewAvailabilityService(grid *timegrid.Grid, rooms RoomCatalog, reservations AvailabilityReader, logger *slog.Logger) *AvailabilityService {
	return &AvailabilityService{
		grid:         grid,
		rooms:        rooms,
		reservations: reservations,
		logger:       defaultLogger(logger),
	}
}

// Location returns the zone the grid resolves calendar dates in. Callers
// parsing a plain date must interpret it here, not in UTC.
func (s *AvailabilityService) Location() *time.Location {
	if s == nil || s.grid == nil {
		return time.UTC
	}
	return s.grid.Location()
}

// ForDate computes the full room-by-slot availability matrix for one
// calendar date, resolved in the grid's zone.
func (s *AvailabilityService) ForDate(ctx context.Context, date time.Time) (view DailyAvailability, err error) {
	if s == nil || s.reservations == nil {
		return DailyAvailability{}, fmt.Errorf("reservation reader not configured")
	}

	logger := serviceLogger(ctx, s.logger, "AvailabilityService", "ForDate", "date", date.Format("2006-01-02"))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute availability", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "availability computed", "room_count", len(view.Rooms), "slot_count", len(view.Slots))
	}()

	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return DailyAvailability{}, err
	}

	windows := s.grid.SlotsFor(date)
	dayStart, dayEnd := s.grid.DayBounds(date)

	reservations, err := s.reservations.ListActiveBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return DailyAvailability{}, err
	}

	roomIDs := make([]string, 0, len(rooms))
	for _, room := range rooms {
		roomIDs = append(roomIDs, room.ID)
	}

	slots := make([]booking.SlotWindow, 0, len(windows))
	for _, window := range windows {
		slots = append(slots, booking.SlotWindow{
			SlotID: window.Slot.ID,
			Start:  window.Start,
			End:    window.End,
		})
	}

	cells := booking.ComputeAvailability(roomIDs, slots, toBookingReservations(reservations))

	return DailyAvailability{
		Date:  date,
		Rooms: rooms,
		Slots: s.grid.Slots(),
		Cells: cells,
	}, nil
}
