package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/room-reservations/internal/persistence"
)

func seedStorage(t *testing.T) *Storage {
	t.Helper()
	storage := NewStorage()
	ctx := context.Background()

	if err := storage.CreateUser(ctx, persistence.User{ID: "user-1", Email: "ana@ufro.cl", DisplayName: "Ana", Role: "STUDENT"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := storage.CreateRoom(ctx, persistence.Room{ID: "room-1", Name: "Sala 101", Capacity: 6}); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	return storage
}

func TestCreateReservationRejectsOverlap(t *testing.T) {
	storage := seedStorage(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 9, 12, 30, 0, 0, time.UTC)

	first := persistence.Reservation{
		ID: "res-1", RoomID: "room-1", UserID: "user-1",
		StartAt: start, EndAt: start.Add(time.Hour), Status: "active",
	}
	if err := storage.CreateReservation(ctx, first); err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}

	second := persistence.Reservation{
		ID: "res-2", RoomID: "room-1", UserID: "user-1",
		StartAt: start.Add(30 * time.Minute), EndAt: start.Add(90 * time.Minute), Status: "active",
	}
	err := storage.CreateReservation(ctx, second)
	if !errors.Is(err, persistence.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	var conflict *persistence.ConflictError
	if !errors.As(err, &conflict) || conflict.ConflictingID != "res-1" {
		t.Fatalf("expected conflict with res-1, got %v", err)
	}
}

func TestCreateReservationAllowsBackToBack(t *testing.T) {
	storage := seedStorage(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 9, 12, 30, 0, 0, time.UTC)

	first := persistence.Reservation{
		ID: "res-1", RoomID: "room-1", UserID: "user-1",
		StartAt: start, EndAt: start.Add(time.Hour), Status: "active",
	}
	if err := storage.CreateReservation(ctx, first); err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}

	adjacent := persistence.Reservation{
		ID: "res-2", RoomID: "room-1", UserID: "user-1",
		StartAt: start.Add(time.Hour), EndAt: start.Add(2 * time.Hour), Status: "active",
	}
	if err := storage.CreateReservation(ctx, adjacent); err != nil {
		t.Fatalf("expected back to back reservation to succeed, got %v", err)
	}
}

func TestCancelledReservationFreesInterval(t *testing.T) {
	storage := seedStorage(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 9, 12, 30, 0, 0, time.UTC)

	first := persistence.Reservation{
		ID: "res-1", RoomID: "room-1", UserID: "user-1",
		StartAt: start, EndAt: start.Add(time.Hour), Status: "active",
	}
	if err := storage.CreateReservation(ctx, first); err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	if err := storage.CancelReservation(ctx, "res-1", start.Add(-time.Hour)); err != nil {
		t.Fatalf("CancelReservation: %v", err)
	}

	replacement := persistence.Reservation{
		ID: "res-2", RoomID: "room-1", UserID: "user-1",
		StartAt: start, EndAt: start.Add(time.Hour), Status: "active",
	}
	if err := storage.CreateReservation(ctx, replacement); err != nil {
		t.Fatalf("expected interval to be free after cancel, got %v", err)
	}

	cancelled, err := storage.GetReservation(ctx, "res-1")
	if err != nil {
		t.Fatalf("GetReservation: %v", err)
	}
	if cancelled.Status != "cancelled" || cancelled.CancelledAt == nil {
		t.Fatalf("expected cancelled row to be kept, got %+v", cancelled)
	}
}

func TestListReservationsFilters(t *testing.T) {
	storage := seedStorage(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)

	rows := []persistence.Reservation{
		{ID: "res-1", RoomID: "room-1", UserID: "user-1", StartAt: base, EndAt: base.Add(time.Hour), Status: "active"},
		{ID: "res-2", RoomID: "room-1", UserID: "user-1", StartAt: base.Add(2 * time.Hour), EndAt: base.Add(3 * time.Hour), Status: "active"},
	}
	for _, row := range rows {
		if err := storage.CreateReservation(ctx, row); err != nil {
			t.Fatalf("CreateReservation %s: %v", row.ID, err)
		}
	}
	if err := storage.CancelReservation(ctx, "res-2", base); err != nil {
		t.Fatalf("CancelReservation: %v", err)
	}

	active, err := storage.ListReservations(ctx, persistence.ReservationFilter{RoomID: "room-1", ActiveOnly: true})
	if err != nil {
		t.Fatalf("ListReservations: %v", err)
	}
	if len(active) != 1 || active[0].ID != "res-1" {
		t.Fatalf("expected only res-1 active, got %+v", active)
	}

	windowStart := base.Add(30 * time.Minute)
	windowEnd := base.Add(45 * time.Minute)
	overlapping, err := storage.ListReservations(ctx, persistence.ReservationFilter{
		StartsBefore: &windowEnd,
		EndsAfter:    &windowStart,
	})
	if err != nil {
		t.Fatalf("ListReservations: %v", err)
	}
	if len(overlapping) != 1 || overlapping[0].ID != "res-1" {
		t.Fatalf("expected res-1 to overlap window, got %+v", overlapping)
	}
}

func TestDeleteRoomWithReservationsFails(t *testing.T) {
	storage := seedStorage(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 9, 12, 30, 0, 0, time.UTC)

	reservation := persistence.Reservation{
		ID: "res-1", RoomID: "room-1", UserID: "user-1",
		StartAt: start, EndAt: start.Add(time.Hour), Status: "active",
	}
	if err := storage.CreateReservation(ctx, reservation); err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	if err := storage.DeleteRoom(ctx, "room-1"); !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected foreign key violation, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	storage := seedStorage(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	session := persistence.Session{ID: "sess-1", UserID: "user-1", Token: "tok-1", ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	if _, err := storage.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	revoked, err := storage.RevokeSession(ctx, "tok-1", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("RevokeSession: %v", err)
	}
	if revoked.RevokedAt == nil {
		t.Fatal("expected revoked session to carry revocation time")
	}

	expired := persistence.Session{ID: "sess-2", UserID: "user-1", Token: "tok-2", ExpiresAt: now.Add(-time.Minute), CreatedAt: now.Add(-time.Hour)}
	if _, err := storage.CreateSession(ctx, expired); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	removed, err := storage.DeleteExpiredSessions(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 expired session removed, got %d", removed)
	}
	if _, err := storage.GetSession(ctx, "tok-2"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected tok-2 to be gone, got %v", err)
	}
}
