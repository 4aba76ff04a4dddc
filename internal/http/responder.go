package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/booking"
)

var (
	errBadRequestBody      = errors.New("el formato de la solicitud no es válido")
	errInvalidDate         = errors.New("la fecha debe tener el formato AAAA-MM-DD")
	errMissingSessionToken = errors.New("debes incluir el token de sesión")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := statusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError translates application and ledger errors into HTTP
// responses. Rejections reuse their reason as the machine-readable code.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var rejection *booking.Rejection
	if errors.As(err, &rejection) {
		r.writeJSON(ctx, w, rejectionStatus(rejection.Reason), errorResponse{
			ErrorCode:  string(rejection.Reason),
			Message:    rejection.Message,
			ConflictID: rejection.ConflictID,
		})
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "no tienes permisos para realizar esta operación",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "el recurso solicitado no existe"})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "el recurso ya existe"})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "hay errores en los datos enviados",
				Errors:  vErr.FieldErrors,
			})
			return
		}

		r.loggerFor(ctx).ErrorContext(ctx, "unhandled service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "ocurrió un error interno, intenta nuevamente"})
	}
}

func rejectionStatus(reason booking.Reason) int {
	switch reason {
	case booking.ReasonConflict, booking.ReasonAlreadyPast:
		return http.StatusConflict
	case booking.ReasonInvalidInterval, booking.ReasonPastBooking:
		return http.StatusUnprocessableEntity
	case booking.ReasonUnknownRoom, booking.ReasonNotFound:
		return http.StatusNotFound
	case booking.ReasonNotOwner:
		return http.StatusForbidden
	case booking.ReasonTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "la solicitud no es válida"
	case http.StatusUnauthorized:
		return "debes iniciar sesión"
	case http.StatusForbidden:
		return "no tienes permisos para realizar esta operación"
	case http.StatusNotFound:
		return "el recurso solicitado no existe"
	case http.StatusConflict:
		return "la operación entra en conflicto con el estado actual"
	case http.StatusUnprocessableEntity:
		return "hay errores en los datos enviados"
	default:
		return "ocurrió un error interno, intenta nuevamente"
	}
}

type errorResponse struct {
	ErrorCode  string            `json:"error_code,omitempty"`
	Message    string            `json:"message"`
	ConflictID string            `json:"conflict_id,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
}
