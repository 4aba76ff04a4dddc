package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/room-reservations/internal/application"
)

type reservationService interface {
	Admit(ctx context.Context, params application.AdmitParams) (application.ReservationDetail, []application.Warning, error)
	AdmitOnBehalf(ctx context.Context, params application.AdmitOnBehalfParams) (application.ReservationDetail, []application.Warning, error)
	Cancel(ctx context.Context, principal application.Principal, reservationID string) error
	MyReservations(ctx context.Context, principal application.Principal) (application.MyReservationsView, error)
	GetReservation(ctx context.Context, principal application.Principal, reservationID string) (application.ReservationDetail, error)
	ListForRoom(ctx context.Context, principal application.Principal, roomID string) ([]application.ReservationDetail, error)
}

// ReservationHandler serves reservation creation, cancellation, and listing.
type ReservationHandler struct {
	service   reservationService
	responder responder
	logger    *slog.Logger
}

// NewReservationHandler constructs the handler.
func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	return &ReservationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

// Create handles POST /reservations.
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	input, err := decodeReservationRequest(r)
	if err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Create", "room_id", input.RoomID)

	detail, warnings, err := h.service.Admit(r.Context(), application.AdmitParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("reservation_id", detail.Reservation.ID).InfoContext(r.Context(), "reservation created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationCreatedResponse{
		ID:       detail.Reservation.ID,
		Warnings: toWarningDTOs(warnings),
	})
}

// CreateOnBehalf handles POST /reservations/on-behalf.
func (h *ReservationHandler) CreateOnBehalf(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req onBehalfRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreateOnBehalf", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "CreateOnBehalf", "room_id", input.RoomID, "owner_email", req.UserEmail)

	detail, warnings, err := h.service.AdmitOnBehalf(r.Context(), application.AdmitOnBehalfParams{
		Principal:  principal,
		OwnerEmail: strings.TrimSpace(req.UserEmail),
		Input:      input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("reservation_id", detail.Reservation.ID).InfoContext(r.Context(), "reservation created on behalf")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationCreatedResponse{
		ID:       detail.Reservation.ID,
		Warnings: toWarningDTOs(warnings),
	})
}

// My handles GET /reservations/my.
func (h *ReservationHandler) My(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	view, err := h.service.MyReservations(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "My").ErrorContext(r.Context(), "failed to list reservations", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	response := myReservationsResponse{
		Future: toReservationDTOs(view.Future),
		Past:   toReservationDTOs(view.Past),
	}
	if view.Current != nil {
		dto := toReservationDTO(*view.Current)
		response.Current = &dto
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, response)
}

// Get handles GET /reservations/{id}.
func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	id := mux.Vars(r)["id"]
	detail, err := h.service.GetReservation(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(detail))
}

// Cancel handles DELETE /reservations/{id}.
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	id := mux.Vars(r)["id"]
	logger := h.log(r.Context(), "Cancel", "reservation_id", id)

	if err := h.service.Cancel(r.Context(), principal, id); err != nil {
		logger.ErrorContext(r.Context(), "cancellation rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation cancelled")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// ListForRoom handles GET /rooms/{id}/reservations.
func (h *ReservationHandler) ListForRoom(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	roomID := mux.Vars(r)["id"]
	details, err := h.service.ListForRoom(r.Context(), principal, roomID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTOs(details))
}

type reservationRequest struct {
	RoomID              string `json:"roomId"`
	StartAt             string `json:"startAt"`
	EndAt               string `json:"endAt"`
	AddToGoogleCalendar bool   `json:"addToGoogleCalendar"`
}

type onBehalfRequest struct {
	reservationRequest
	UserEmail string `json:"userEmail"`
}

// ReservationRequest exposes the embedded payload for tests.
func (r onBehalfRequest) toInput() (application.ReservationInput, error) {
	return r.reservationRequest.toInput()
}

func (r reservationRequest) toInput() (application.ReservationInput, error) {
	startAt, err := time.Parse(time.RFC3339, r.StartAt)
	if err != nil {
		return application.ReservationInput{}, errors.New("startAt debe tener formato RFC3339")
	}
	endAt, err := time.Parse(time.RFC3339, r.EndAt)
	if err != nil {
		return application.ReservationInput{}, errors.New("endAt debe tener formato RFC3339")
	}
	return application.ReservationInput{
		RoomID:        strings.TrimSpace(r.RoomID),
		StartAt:       startAt,
		EndAt:         endAt,
		AddToCalendar: r.AddToGoogleCalendar,
	}, nil
}

func decodeReservationRequest(r *http.Request) (application.ReservationInput, error) {
	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return application.ReservationInput{}, errBadRequestBody
	}
	return req.toInput()
}

type reservationCreatedResponse struct {
	ID       string       `json:"id"`
	Warnings []warningDTO `json:"warnings,omitempty"`
}

type warningDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toWarningDTOs(warnings []application.Warning) []warningDTO {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]warningDTO, 0, len(warnings))
	for _, warning := range warnings {
		out = append(out, warningDTO{Code: warning.Code, Message: warning.Message})
	}
	return out
}

type myReservationsResponse struct {
	Current *reservationDTO  `json:"current"`
	Future  []reservationDTO `json:"future"`
	Past    []reservationDTO `json:"past"`
}

type reservationDTO struct {
	ID      string   `json:"id"`
	StartAt string   `json:"startAt"`
	EndAt   string   `json:"endAt"`
	Status  string   `json:"status"`
	Room    roomDTO  `json:"room"`
	User    *userDTO `json:"user,omitempty"`
}

func toReservationDTO(detail application.ReservationDetail) reservationDTO {
	user := toUserDTO(detail.User)
	return reservationDTO{
		ID:      detail.Reservation.ID,
		StartAt: detail.Reservation.StartAt.UTC().Format(time.RFC3339),
		EndAt:   detail.Reservation.EndAt.UTC().Format(time.RFC3339),
		Status:  string(detail.Reservation.Status),
		Room:    toRoomDTO(detail.Room),
		User:    &user,
	}
}

func toReservationDTOs(details []application.ReservationDetail) []reservationDTO {
	out := make([]reservationDTO, 0, len(details))
	for _, detail := range details {
		out = append(out, toReservationDTO(detail))
	}
	return out
}
