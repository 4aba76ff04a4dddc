package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/calendar"
	"github.com/example/room-reservations/internal/config"
	httptransport "github.com/example/room-reservations/internal/http"
	"github.com/example/room-reservations/internal/jobs"
	"github.com/example/room-reservations/internal/notify"
	"github.com/example/room-reservations/internal/persistence/adapter"
	"github.com/example/room-reservations/internal/persistence/sqlite"
	"github.com/example/room-reservations/internal/timegrid"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	timezone, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("failed to load timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	grid, err := timegrid.New(timegrid.DefaultSlots(), timezone)
	if err != nil {
		logger.Error("failed to build time grid", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.NewConnectionPool(sqlite.DefaultConfig(cfg.SQLitePath))
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	reservationRepo := sqlite.NewReservationRepository(pool)
	sessionRepo := sqlite.NewSessionRepository(pool)

	reservations := adapter.Reservations{Repo: reservationRepo}
	rooms := adapter.Rooms{Repo: sqlite.NewRoomRepository(pool)}
	users := adapter.Users{Repo: sqlite.NewUserRepository(pool)}
	sessions := adapter.Sessions{Repo: sessionRepo}

	var calendarSync application.CalendarSync
	if cfg.CalendarEnabled() {
		calendarSync = calendar.NewGoogleClient(calendar.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RefreshToken: cfg.GoogleRefreshToken,
			CalendarID:   cfg.GoogleCalendarID,
		})
		logger.Info("calendar sync enabled", "calendar_id", cfg.GoogleCalendarID)
	}

	var notifier application.Notifier
	if cfg.EmailEnabled() {
		notifier = notify.NewEmailNotifier(notify.Config{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFrom,
			FromName:  cfg.SendGridName,
		}, timezone, logger)
		logger.Info("email notifications enabled", "from", cfg.SendGridFrom)
	}

	policy := application.NewDefaultPolicy(application.DefaultPolicyConfig{
		ReservationRepo: reservations,
	})

	reservationService := application.NewReservationService(application.ReservationServiceConfig{
		Reservations: reservations,
		Rooms:        rooms,
		Users:        users,
		Policy:       policy,
		Calendar:     calendarSync,
		Notifier:     notifier,
		IDGenerator:  idGenerator,
		Now:          now,
		AdmitTimeout: cfg.AdmitTimeout,
		Logger:       logger,
	})
	availabilityService := application.NewAvailabilityService(grid, rooms, reservations, logger)
	roomService := application.NewRoomService(rooms, idGenerator, now, logger)
	userService := application.NewUserService(users, idGenerator, now, logger)
	authService := application.NewAuthService(users, sessions, idGenerator, now, cfg.SessionTTL, logger)

	runner, err := jobs.NewRunner(authService, reservationRepo, logger)
	if err != nil {
		logger.Error("failed to register jobs", "error", err)
		os.Exit(1)
	}
	runner.Start()
	defer runner.Stop()

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:           httptransport.NewAuthHandler(authService, logger),
		Availability:   httptransport.NewAvailabilityHandler(availabilityService, logger),
		Reservations:   httptransport.NewReservationHandler(reservationService, logger),
		Rooms:          httptransport.NewRoomHandler(roomService, logger),
		Users:          httptransport.NewUserHandler(userService, logger),
		RequireSession: httptransport.RequireSession(authService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
		AllowedOrigins: cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("reservations API listening", "addr", server.Addr, "timezone", cfg.Timezone)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
