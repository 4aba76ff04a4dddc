package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/persistence/adapter"
	"github.com/example/room-reservations/internal/persistence/memory"
	"github.com/example/room-reservations/internal/timegrid"
)

// Env bundles an in-memory storage with application services built on
// deterministic clocks and identifiers, ready for service-level tests.
type Env struct {
	Storage      *memory.Storage
	Clock        *Clock
	IDs          *IDGenerator
	Grid         *timegrid.Grid
	Reservations *application.ReservationService
	Availability *application.AvailabilityService
	Rooms        *application.RoomService
	Users        *application.UserService
	Auth         *application.AuthService
}

// EnvOption customises the assembled environment.
type EnvOption func(*envConfig)

type envConfig struct {
	clock        *Clock
	ids          *IDGenerator
	policy       application.AdmissionPolicy
	calendar     application.CalendarSync
	notifier     application.Notifier
	admitTimeout time.Duration
	logger       *slog.Logger
}

// WithClock overrides the environment clock.
func WithClock(clock *Clock) EnvOption {
	return func(cfg *envConfig) { cfg.clock = clock }
}

// WithIDGenerator overrides the identifier generator.
func WithIDGenerator(ids *IDGenerator) EnvOption {
	return func(cfg *envConfig) { cfg.ids = ids }
}

// WithPolicy installs an admission policy.
func WithPolicy(policy application.AdmissionPolicy) EnvOption {
	return func(cfg *envConfig) { cfg.policy = policy }
}

// WithCalendar installs a calendar sync collaborator.
func WithCalendar(calendar application.CalendarSync) EnvOption {
	return func(cfg *envConfig) { cfg.calendar = calendar }
}

// WithNotifier installs a notifier.
func WithNotifier(notifier application.Notifier) EnvOption {
	return func(cfg *envConfig) { cfg.notifier = notifier }
}

// WithAdmitTimeout overrides the admission lock timeout.
func WithAdmitTimeout(timeout time.Duration) EnvOption {
	return func(cfg *envConfig) { cfg.admitTimeout = timeout }
}

// NewEnv assembles the full service stack over a fresh in-memory storage.
func NewEnv(opts ...EnvOption) *Env {
	cfg := envConfig{
		clock: NewClock(time.Time{}),
		ids:   NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	storage := memory.NewStorage()
	reservations := adapter.Reservations{Repo: storage}
	rooms := adapter.Rooms{Repo: storage}
	users := adapter.Users{Repo: storage}
	sessions := adapter.Sessions{Repo: storage}

	grid, err := timegrid.New(timegrid.DefaultSlots(), time.UTC)
	if err != nil {
		panic(err)
	}

	env := &Env{
		Storage: storage,
		Clock:   cfg.clock,
		IDs:     cfg.ids,
		Grid:    grid,
	}

	env.Reservations = application.NewReservationService(application.ReservationServiceConfig{
		Reservations: reservations,
		Rooms:        rooms,
		Users:        users,
		Policy:       cfg.policy,
		Calendar:     cfg.calendar,
		Notifier:     cfg.notifier,
		IDGenerator:  cfg.ids.NextFunc(),
		Now:          cfg.clock.NowFunc(),
		AdmitTimeout: cfg.admitTimeout,
		Logger:       cfg.logger,
	})
	env.Availability = application.NewAvailabilityService(grid, rooms, reservations, cfg.logger)
	env.Rooms = application.NewRoomService(rooms, cfg.ids.NextFunc(), cfg.clock.NowFunc(), cfg.logger)
	env.Users = application.NewUserService(users, cfg.ids.NextFunc(), cfg.clock.NowFunc(), cfg.logger)
	env.Auth = application.NewAuthService(users, sessions, cfg.ids.NextFunc(), cfg.clock.NowFunc(), 12*time.Hour, cfg.logger)

	return env
}
