package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/room-reservations/internal/application"
)

type availabilityService interface {
	ForDate(ctx context.Context, date time.Time) (application.DailyAvailability, error)
	Location() *time.Location
}

// AvailabilityHandler serves the daily room-by-slot availability matrix.
type AvailabilityHandler struct {
	service   availabilityService
	responder responder
	logger    *slog.Logger
}

// NewAvailabilityHandler constructs the handler.
func NewAvailabilityHandler(service availabilityService, logger *slog.Logger) *AvailabilityHandler {
	base := defaultLogger(logger)
	return &AvailabilityHandler{service: service, responder: newResponder(base), logger: base}
}

// Get handles GET /availability?date=YYYY-MM-DD. Without a date parameter it
// answers for today.
func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	// A bare date names a calendar day in the grid's zone; parsing it in UTC
	// would shift it onto the previous day west of Greenwich.
	zone := h.service.Location()
	date := time.Now().In(zone)
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, zone)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
			return
		}
		date = parsed
	}

	view, err := h.service.ForDate(r.Context(), date)
	if err != nil {
		handlerLogger(r.Context(), h.logger, "AvailabilityHandler", "Get").ErrorContext(r.Context(), "failed to compute availability", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAvailabilityResponse(view))
}

type availabilityResponse struct {
	Date         string            `json:"date"`
	Rooms        []roomDTO         `json:"rooms"`
	Slots        []slotDTO         `json:"slots"`
	Availability []availabilityDTO `json:"availability"`
}

type slotDTO struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type availabilityDTO struct {
	RoomID    string `json:"roomId"`
	SlotID    string `json:"slotId"`
	Available bool   `json:"available"`
}

func toAvailabilityResponse(view application.DailyAvailability) availabilityResponse {
	response := availabilityResponse{
		Date:         view.Date.Format("2006-01-02"),
		Rooms:        make([]roomDTO, 0, len(view.Rooms)),
		Slots:        make([]slotDTO, 0, len(view.Slots)),
		Availability: make([]availabilityDTO, 0, len(view.Cells)),
	}
	for _, room := range view.Rooms {
		response.Rooms = append(response.Rooms, toRoomDTO(room))
	}
	for _, slot := range view.Slots {
		response.Slots = append(response.Slots, slotDTO{
			ID:    slot.ID,
			Label: slot.Label,
			Start: slot.Start.String(),
			End:   slot.End.String(),
		})
	}
	for _, cell := range view.Cells {
		response.Availability = append(response.Availability, availabilityDTO{
			RoomID:    cell.RoomID,
			SlotID:    cell.SlotID,
			Available: cell.Available,
		})
	}
	return response
}
