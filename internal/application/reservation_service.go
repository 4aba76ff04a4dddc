package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/room-reservations/internal/booking"
	"github.com/example/room-reservations/internal/persistence"
)

// ReservationRepository captures the persistence interactions needed by the
// ledger.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListActiveForRoom(ctx context.Context, roomID string, from, to time.Time) ([]Reservation, error)
	ListActiveForUser(ctx context.Context, userID string) ([]Reservation, error)
	ListForRoom(ctx context.Context, roomID string) ([]Reservation, error)
	CountActiveForUserBetween(ctx context.Context, userID string, from, to time.Time) (int, error)
	CancelReservation(ctx context.Context, id string, cancelledAt time.Time) (Reservation, error)
	SetCalendarEventID(ctx context.Context, id, eventID string) error
}

// RoomCatalog exposes room lookup operations.
type RoomCatalog interface {
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
}

// UserDirectory exposes user lookup operations.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

// CalendarSync is the external calendar collaborator. It is invoked only
// after a successful commit and strictly best-effort: a failure becomes a
// warning, never a rollback.
type CalendarSync interface {
	CreateEvent(ctx context.Context, detail ReservationDetail) (string, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// Notifier delivers reservation lifecycle notifications asynchronously.
type Notifier interface {
	ReservationConfirmed(detail ReservationDetail)
	ReservationCancelled(detail ReservationDetail)
}

// AdmissionPolicy is the pluggable rule hook applied after structural
// validation and before the room's critical section. Implementations return
// nil, a *ValidationError, or ErrUnauthorized.
type AdmissionPolicy interface {
	Authorize(ctx context.Context, user User, input ReservationInput, now time.Time) error
}

// roomLocks serializes admission per room. Acquisition honours the context so
// a caller stuck behind a slow admission times out instead of blocking
// indefinitely.
type roomLocks struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newRoomLocks() *roomLocks {
	return &roomLocks{slots: make(map[string]chan struct{})}
}

func (l *roomLocks) acquire(ctx context.Context, roomID string) error {
	l.mu.Lock()
	slot, ok := l.slots[roomID]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[roomID] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *roomLocks) release(roomID string) {
	l.mu.Lock()
	slot := l.slots[roomID]
	l.mu.Unlock()
	if slot != nil {
		<-slot
	}
}

// ReservationService is the authoritative ledger: it admits validated
// requests atomically, owns cancellation, and derives the per-user view.
type ReservationService struct {
	reservations ReservationRepository
	rooms        RoomCatalog
	users        UserDirectory
	policy       AdmissionPolicy
	calendar     CalendarSync
	notifier     Notifier
	locks        *roomLocks
	idGenerator  func() string
	now          func() time.Time
	admitTimeout time.Duration
	logger       *slog.Logger
}

// ReservationServiceConfig wires the ledger's collaborators. Calendar,
// Notifier, and Policy are optional.
type ReservationServiceConfig struct {
	Reservations ReservationRepository
	Rooms        RoomCatalog
	Users        UserDirectory
	Policy       AdmissionPolicy
	Calendar     CalendarSync
	Notifier     Notifier
	IDGenerator  func() string
	Now          func() time.Time
	AdmitTimeout time.Duration
	Logger       *slog.Logger
}

// NewReservationService constructs the ledger with the provided dependencies.
func NewReservationService(cfg ReservationServiceConfig) *ReservationService {
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = func() string { return "" }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.AdmitTimeout <= 0 {
		cfg.AdmitTimeout = 5 * time.Second
	}
	return &ReservationService{
		reservations: cfg.Reservations,
		rooms:        cfg.Rooms,
		users:        cfg.Users,
		policy:       cfg.Policy,
		calendar:     cfg.Calendar,
		notifier:     cfg.Notifier,
		locks:        newRoomLocks(),
		idGenerator:  cfg.IDGenerator,
		now:          cfg.Now,
		admitTimeout: cfg.AdmitTimeout,
		logger:       defaultLogger(cfg.Logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// Admit validates and commits a reservation for the acting principal.
// Validation runs twice: once up front against a possibly stale read, and
// again inside the room's critical section against the latest committed state
// immediately before the insert.
func (s *ReservationService) Admit(ctx context.Context, params AdmitParams) (detail ReservationDetail, warnings []Warning, err error) {
	if s == nil || s.reservations == nil {
		return ReservationDetail{}, nil, fmt.Errorf("reservation repository not configured")
	}

	logger := s.loggerWith(ctx, "Admit",
		"principal_id", params.Principal.UserID,
		"room_id", params.Input.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to admit reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", detail.Reservation.ID).InfoContext(ctx, "reservation admitted")
	}()

	owner, err := s.users.GetUser(ctx, params.Principal.UserID)
	if err != nil {
		return ReservationDetail{}, nil, mapReservationRepoError(err)
	}

	return s.admit(ctx, logger, owner, params.Input, params.Input.AddToCalendar)
}

// AdmitOnBehalf lets an administrator commit a reservation owned by another
// account. The owner's calendar is never touched.
func (s *ReservationService) AdmitOnBehalf(ctx context.Context, params AdmitOnBehalfParams) (detail ReservationDetail, warnings []Warning, err error) {
	if s == nil || s.reservations == nil {
		return ReservationDetail{}, nil, fmt.Errorf("reservation repository not configured")
	}

	logger := s.loggerWith(ctx, "AdmitOnBehalf",
		"principal_id", params.Principal.UserID,
		"owner_email", params.OwnerEmail,
		"room_id", params.Input.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to admit reservation on behalf", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", detail.Reservation.ID).InfoContext(ctx, "reservation admitted on behalf")
	}()

	if !params.Principal.IsAdmin() {
		return ReservationDetail{}, nil, ErrUnauthorized
	}

	owner, err := s.users.GetUserByEmail(ctx, params.OwnerEmail)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrNotFound) {
			vErr := &ValidationError{}
			vErr.add("email", "no existe un usuario con ese correo")
			return ReservationDetail{}, nil, vErr
		}
		return ReservationDetail{}, nil, err
	}

	return s.admit(ctx, logger, owner, params.Input, false)
}

func (s *ReservationService) admit(ctx context.Context, logger *slog.Logger, owner User, input ReservationInput, syncCalendar bool) (ReservationDetail, []Warning, error) {
	now := s.now()
	req := booking.Request{RoomID: input.RoomID, StartAt: input.StartAt, EndAt: input.EndAt}

	// Structural rules first; they need no committed state.
	if rej := booking.ValidateRequest(req, nil, true, now); rej != nil {
		return ReservationDetail{}, nil, rej
	}

	room, err := s.rooms.GetRoom(ctx, input.RoomID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrNotFound) {
			return ReservationDetail{}, nil, booking.Reject(booking.ReasonUnknownRoom, "la sala indicada no existe")
		}
		return ReservationDetail{}, nil, err
	}

	if s.policy != nil {
		if err := s.policy.Authorize(ctx, owner, input, now); err != nil {
			return ReservationDetail{}, nil, err
		}
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.admitTimeout)
	defer cancel()
	if err := s.locks.acquire(lockCtx, input.RoomID); err != nil {
		return ReservationDetail{}, nil, booking.Reject(booking.ReasonTimeout, "no se pudo confirmar la reserva a tiempo, intenta nuevamente")
	}
	defer s.locks.release(input.RoomID)

	// Re-validate against the latest committed state inside the critical
	// section; the availability the caller saw may be stale by now.
	existing, err := s.reservations.ListActiveForRoom(ctx, input.RoomID, input.StartAt, input.EndAt)
	if err != nil {
		return ReservationDetail{}, nil, mapReservationRepoError(err)
	}
	if rej := booking.ValidateRequest(req, toBookingReservations(existing), true, now); rej != nil {
		return ReservationDetail{}, nil, rej
	}

	reservation := Reservation{
		ID:        s.idGenerator(),
		RoomID:    input.RoomID,
		UserID:    owner.ID,
		StartAt:   input.StartAt.UTC(),
		EndAt:     input.EndAt.UTC(),
		Status:    ReservationActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	persisted, err := s.reservations.CreateReservation(ctx, reservation)
	if err != nil {
		return ReservationDetail{}, nil, mapReservationRepoError(err)
	}

	detail := ReservationDetail{Reservation: persisted, Room: room, User: owner}

	var warnings []Warning
	if syncCalendar {
		warnings = s.syncToCalendar(ctx, logger, detail)
	}

	if s.notifier != nil {
		s.notifier.ReservationConfirmed(detail)
	}

	return detail, warnings, nil
}

// syncToCalendar runs the best-effort calendar sync with its own deadline,
// detached from admission: the reservation is already committed and a sync
// failure only produces a warning on the response.
func (s *ReservationService) syncToCalendar(ctx context.Context, logger *slog.Logger, detail ReservationDetail) []Warning {
	if s.calendar == nil {
		return nil
	}

	syncCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.admitTimeout)
	defer cancel()

	eventID, err := s.calendar.CreateEvent(syncCtx, detail)
	if err != nil {
		logger.WarnContext(ctx, "calendar sync failed", "reservation_id", detail.Reservation.ID, "error", err)
		return []Warning{{
			Code:    "CALENDAR_SYNC_FAILED",
			Message: "la reserva fue creada, pero no se pudo agregar al calendario",
		}}
	}

	if err := s.reservations.SetCalendarEventID(syncCtx, detail.Reservation.ID, eventID); err != nil {
		logger.WarnContext(ctx, "failed to store calendar event id", "reservation_id", detail.Reservation.ID, "error", err)
	}
	return nil
}

// Cancel marks a reservation terminally cancelled. History is kept; the
// interval becomes reservable again. Only the owner or an administrator may
// cancel, and only before the reservation has ended.
func (s *ReservationService) Cancel(ctx context.Context, principal Principal, reservationID string) (err error) {
	if s == nil || s.reservations == nil {
		return fmt.Errorf("reservation repository not configured")
	}

	logger := s.loggerWith(ctx, "Cancel",
		"principal_id", principal.UserID,
		"reservation_id", reservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation cancelled")
	}()

	reservation, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrNotFound) {
			return booking.Reject(booking.ReasonNotFound, "la reserva no existe")
		}
		return err
	}

	if reservation.UserID != principal.UserID && !principal.IsAdmin() {
		return booking.Reject(booking.ReasonNotOwner, "solo el dueño o un administrador pueden cancelar esta reserva")
	}

	if reservation.Status == ReservationCancelled {
		return booking.Reject(booking.ReasonNotFound, "la reserva ya fue cancelada")
	}

	now := s.now()
	if !reservation.EndAt.After(now) {
		return booking.Reject(booking.ReasonAlreadyPast, "no se puede cancelar una reserva que ya terminó")
	}

	cancelled, err := s.reservations.CancelReservation(ctx, reservationID, now)
	if err != nil {
		return mapReservationRepoError(err)
	}

	if cancelled.CalendarEventID != nil && s.calendar != nil {
		eventID := *cancelled.CalendarEventID
		go func() {
			deleteCtx, cancelFn := context.WithTimeout(context.Background(), s.admitTimeout)
			defer cancelFn()
			if err := s.calendar.DeleteEvent(deleteCtx, eventID); err != nil {
				s.logger.Warn("failed to delete calendar event", "reservation_id", reservationID, "event_id", eventID, "error", err)
			}
		}()
	}

	if s.notifier != nil {
		if detail, derr := s.detailFor(ctx, cancelled); derr == nil {
			s.notifier.ReservationCancelled(detail)
		}
	}

	return nil
}

// MyReservations partitions the principal's active reservations relative to
// the query instant. The view is derived on every call and never cached.
func (s *ReservationService) MyReservations(ctx context.Context, principal Principal) (view MyReservationsView, err error) {
	if s == nil || s.reservations == nil {
		return MyReservationsView{}, fmt.Errorf("reservation repository not configured")
	}

	logger := s.loggerWith(ctx, "MyReservations", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservations listed",
			"future_count", len(view.Future),
			"past_count", len(view.Past),
			"has_current", view.Current != nil,
		)
	}()

	reservations, err := s.reservations.ListActiveForUser(ctx, principal.UserID)
	if err != nil {
		return MyReservationsView{}, mapReservationRepoError(err)
	}

	parts := booking.Partition(toBookingReservations(reservations), s.now())

	byID := make(map[string]Reservation, len(reservations))
	for _, res := range reservations {
		byID[res.ID] = res
	}

	details := func(group []booking.Reservation) ([]ReservationDetail, error) {
		out := make([]ReservationDetail, 0, len(group))
		for _, res := range group {
			detail, err := s.detailFor(ctx, byID[res.ID])
			if err != nil {
				return nil, err
			}
			out = append(out, detail)
		}
		return out, nil
	}

	if parts.Current != nil {
		detail, err := s.detailFor(ctx, byID[parts.Current.ID])
		if err != nil {
			return MyReservationsView{}, err
		}
		view.Current = &detail
	}
	if view.Future, err = details(parts.Future); err != nil {
		return MyReservationsView{}, err
	}
	if view.Past, err = details(parts.Past); err != nil {
		return MyReservationsView{}, err
	}

	return view, nil
}

// GetReservation returns one reservation's detail to its owner or an
// administrator.
func (s *ReservationService) GetReservation(ctx context.Context, principal Principal, reservationID string) (ReservationDetail, error) {
	if s == nil || s.reservations == nil {
		return ReservationDetail{}, fmt.Errorf("reservation repository not configured")
	}

	reservation, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return ReservationDetail{}, mapReservationRepoError(err)
	}

	if reservation.UserID != principal.UserID && !principal.IsAdmin() {
		return ReservationDetail{}, ErrUnauthorized
	}

	return s.detailFor(ctx, reservation)
}

// ListForRoom returns a room's full reservation history, administrators only.
func (s *ReservationService) ListForRoom(ctx context.Context, principal Principal, roomID string) (details []ReservationDetail, err error) {
	if s == nil || s.reservations == nil {
		return nil, fmt.Errorf("reservation repository not configured")
	}

	logger := s.loggerWith(ctx, "ListForRoom", "principal_id", principal.UserID, "room_id", roomID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list room reservations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(details)).InfoContext(ctx, "room reservations listed")
	}()

	if !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}

	reservations, err := s.reservations.ListForRoom(ctx, roomID)
	if err != nil {
		return nil, mapReservationRepoError(err)
	}

	details = make([]ReservationDetail, 0, len(reservations))
	for _, res := range reservations {
		detail, err := s.detailFor(ctx, res)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	return details, nil
}

func (s *ReservationService) detailFor(ctx context.Context, reservation Reservation) (ReservationDetail, error) {
	room, err := s.rooms.GetRoom(ctx, reservation.RoomID)
	if err != nil && !errors.Is(err, persistence.ErrNotFound) && !errors.Is(err, ErrNotFound) {
		return ReservationDetail{}, err
	}
	user, err := s.users.GetUser(ctx, reservation.UserID)
	if err != nil && !errors.Is(err, persistence.ErrNotFound) && !errors.Is(err, ErrNotFound) {
		return ReservationDetail{}, err
	}
	return ReservationDetail{Reservation: reservation, Room: room, User: user}, nil
}

func toBookingReservations(reservations []Reservation) []booking.Reservation {
	out := make([]booking.Reservation, 0, len(reservations))
	for _, res := range reservations {
		out = append(out, booking.Reservation{
			ID:      res.ID,
			RoomID:  res.RoomID,
			UserID:  res.UserID,
			StartAt: res.StartAt,
			EndAt:   res.EndAt,
		})
	}
	return out
}

func mapReservationRepoError(err error) error {
	if err == nil {
		return nil
	}
	var conflict *persistence.ConflictError
	if errors.As(err, &conflict) {
		return booking.RejectConflict(conflict.ConflictingID)
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("room_id", "la sala indicada no existe")
		return vErr
	}
	return err
}
