package http

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// RouterConfig wires the handlers and middleware into the API router.
type RouterConfig struct {
	Auth         *AuthHandler
	Availability *AvailabilityHandler
	Reservations *ReservationHandler
	Rooms        *RoomHandler
	Users        *UserHandler
	// RequireSession guards every route except session creation.
	RequireSession func(http.Handler) http.Handler
	// Middleware wraps the whole router, outermost first.
	Middleware []func(http.Handler) http.Handler
	// AllowedOrigins enables CORS for the given origins when non-empty.
	AllowedOrigins []string
}

// NewRouter builds the API router.
func NewRouter(cfg RouterConfig) http.Handler {
	router := mux.NewRouter()

	if cfg.Auth != nil {
		router.HandleFunc("/sessions", cfg.Auth.CreateSession).Methods(http.MethodPost)
	}

	authed := router.PathPrefix("/").Subrouter()
	if cfg.RequireSession != nil {
		authed.Use(mux.MiddlewareFunc(cfg.RequireSession))
	}

	if cfg.Auth != nil {
		authed.HandleFunc("/sessions/current", cfg.Auth.DeleteCurrentSession).Methods(http.MethodDelete)
	}

	if cfg.Availability != nil {
		authed.HandleFunc("/availability", cfg.Availability.Get).Methods(http.MethodGet)
	}

	if cfg.Reservations != nil {
		authed.HandleFunc("/reservations", cfg.Reservations.Create).Methods(http.MethodPost)
		authed.HandleFunc("/reservations/my", cfg.Reservations.My).Methods(http.MethodGet)
		authed.HandleFunc("/reservations/on-behalf", cfg.Reservations.CreateOnBehalf).Methods(http.MethodPost)
		authed.HandleFunc("/reservations/{id}", cfg.Reservations.Get).Methods(http.MethodGet)
		authed.HandleFunc("/reservations/{id}", cfg.Reservations.Cancel).Methods(http.MethodDelete)
	}

	if cfg.Rooms != nil {
		authed.HandleFunc("/rooms", cfg.Rooms.List).Methods(http.MethodGet)
		authed.HandleFunc("/rooms", cfg.Rooms.Create).Methods(http.MethodPost)
		authed.HandleFunc("/rooms/{id}", cfg.Rooms.Get).Methods(http.MethodGet)
		authed.HandleFunc("/rooms/{id}", cfg.Rooms.Update).Methods(http.MethodPut)
		authed.HandleFunc("/rooms/{id}", cfg.Rooms.Delete).Methods(http.MethodDelete)
		if cfg.Reservations != nil {
			authed.HandleFunc("/rooms/{id}/reservations", cfg.Reservations.ListForRoom).Methods(http.MethodGet)
		}
	}

	if cfg.Users != nil {
		authed.HandleFunc("/users", cfg.Users.List).Methods(http.MethodGet)
		authed.HandleFunc("/users", cfg.Users.Create).Methods(http.MethodPost)
		authed.HandleFunc("/users/{id}", cfg.Users.Get).Methods(http.MethodGet)
		authed.HandleFunc("/users/{id}", cfg.Users.Update).Methods(http.MethodPut)
		authed.HandleFunc("/users/{id}", cfg.Users.Delete).Methods(http.MethodDelete)
	}

	var handler http.Handler = router

	if len(cfg.AllowedOrigins) > 0 {
		handler = handlers.CORS(
			handlers.AllowedOrigins(cfg.AllowedOrigins),
			handlers.AllowedMethods([]string{
				http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
			}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
			handlers.AllowCredentials(),
		)(handler)
	}

	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}
