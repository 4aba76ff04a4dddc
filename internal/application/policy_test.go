package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/persistence/adapter"
	"github.com/example/room-reservations/internal/testfixtures"
)

func policyEnv(t *testing.T) (*testfixtures.Env, *application.DefaultPolicy) {
	t.Helper()
	env := testfixtures.NewEnv()
	policy := application.NewDefaultPolicy(application.DefaultPolicyConfig{
		ReservationRepo: adapter.Reservations{Repo: env.Storage},
	})
	return env, policy
}

func fieldError(t *testing.T, err error, field string) string {
	t.Helper()
	var vErr *application.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	message, ok := vErr.FieldErrors[field]
	if !ok {
		t.Fatalf("expected field error on %q, got %v", field, vErr.FieldErrors)
	}
	return message
}

func TestDefaultPolicyDurationBounds(t *testing.T) {
	env, policy := policyEnv(t)
	user, _ := seedAccount(t, env)
	owner := application.User{ID: user.ID, Role: application.RoleStudent}
	now := env.Clock.Now()
	start := now.Add(time.Hour)

	t.Run("too short", func(t *testing.T) {
		err := policy.Authorize(context.Background(), owner, application.ReservationInput{
			RoomID:  "room-x",
			StartAt: start,
			EndAt:   start.Add(10 * time.Minute),
		}, now)
		fieldError(t, err, "end_at")
	})

	t.Run("too long", func(t *testing.T) {
		err := policy.Authorize(context.Background(), owner, application.ReservationInput{
			RoomID:  "room-x",
			StartAt: start,
			EndAt:   start.Add(90 * time.Minute),
		}, now)
		fieldError(t, err, "end_at")
	})

	t.Run("bounds are inclusive", func(t *testing.T) {
		for _, duration := range []time.Duration{15 * time.Minute, time.Hour} {
			if err := policy.Authorize(context.Background(), owner, application.ReservationInput{
				RoomID:  "room-x",
				StartAt: start,
				EndAt:   start.Add(duration),
			}, now); err != nil {
				t.Fatalf("duration %v should be allowed: %v", duration, err)
			}
		}
	})
}

func TestDefaultPolicyAdvanceHorizon(t *testing.T) {
	env, policy := policyEnv(t)
	user, _ := seedAccount(t, env)
	owner := application.User{ID: user.ID, Role: application.RoleStudent}
	now := env.Clock.Now()

	farStart := now.Add(4 * 30 * 24 * time.Hour)
	err := policy.Authorize(context.Background(), owner, application.ReservationInput{
		RoomID:  "room-x",
		StartAt: farStart,
		EndAt:   farStart.Add(time.Hour),
	}, now)
	fieldError(t, err, "start_at")
}

func TestDefaultPolicyWeeklyQuota(t *testing.T) {
	env, policy := policyEnv(t)
	user, principal := seedAccount(t, env)
	room := seedRoom(t, env)
	owner := application.User{ID: user.ID, Role: application.RoleStudent}
	now := env.Clock.Now()

	// Occupy this work week with an admitted reservation.
	start := now.Add(time.Hour)
	if _, _, err := env.Reservations.Admit(context.Background(), application.AdmitParams{
		Principal: principal,
		Input:     application.ReservationInput{RoomID: room.ID, StartAt: start, EndAt: start.Add(time.Hour)},
	}); err != nil {
		t.Fatalf("Admit returned error: %v", err)
	}

	t.Run("second booking in the same week is refused", func(t *testing.T) {
		sameWeek := start.Add(24 * time.Hour)
		err := policy.Authorize(context.Background(), owner, application.ReservationInput{
			RoomID:  room.ID,
			StartAt: sameWeek,
			EndAt:   sameWeek.Add(time.Hour),
		}, now)
		message := fieldError(t, err, "start_at")
		if message != "ya tienes una reserva activa en esa semana" {
			t.Fatalf("unexpected message %q", message)
		}
	})

	t.Run("next work week is open", func(t *testing.T) {
		nextWeek := start.Add(7 * 24 * time.Hour)
		if err := policy.Authorize(context.Background(), owner, application.ReservationInput{
			RoomID:  room.ID,
			StartAt: nextWeek,
			EndAt:   nextWeek.Add(time.Hour),
		}, now); err != nil {
			t.Fatalf("next week should be allowed: %v", err)
		}
	})

	t.Run("cancelled reservations do not count", func(t *testing.T) {
		env, policy := policyEnv(t)
		user, principal := seedAccount(t, env)
		room := seedRoom(t, env)
		owner := application.User{ID: user.ID, Role: application.RoleStudent}
		now := env.Clock.Now()
		start := now.Add(time.Hour)

		detail, _, err := env.Reservations.Admit(context.Background(), application.AdmitParams{
			Principal: principal,
			Input:     application.ReservationInput{RoomID: room.ID, StartAt: start, EndAt: start.Add(time.Hour)},
		})
		if err != nil {
			t.Fatalf("Admit returned error: %v", err)
		}
		if err := env.Reservations.Cancel(context.Background(), principal, detail.Reservation.ID); err != nil {
			t.Fatalf("Cancel returned error: %v", err)
		}

		sameWeek := start.Add(24 * time.Hour)
		if err := policy.Authorize(context.Background(), owner, application.ReservationInput{
			RoomID:  room.ID,
			StartAt: sameWeek,
			EndAt:   sameWeek.Add(time.Hour),
		}, now); err != nil {
			t.Fatalf("cancelled reservation must not consume the quota: %v", err)
		}
	})
}

func TestDefaultPolicyExemptsAdministrators(t *testing.T) {
	env, policy := policyEnv(t)
	user, _ := seedAccount(t, env, testfixtures.AsAdmin())
	room := seedRoom(t, env)
	owner := application.User{ID: user.ID, Role: application.RoleAdmin}
	now := env.Clock.Now()

	// Two bookings in the same week, each longer than the student maximum.
	for _, offset := range []time.Duration{time.Hour, 26 * time.Hour} {
		start := now.Add(offset)
		if err := policy.Authorize(context.Background(), owner, application.ReservationInput{
			RoomID:  room.ID,
			StartAt: start,
			EndAt:   start.Add(2 * time.Hour),
		}, now); err != nil {
			t.Fatalf("administrators are exempt from policy rules: %v", err)
		}
	}
}

func TestDefaultPolicyRejectsUnknownRole(t *testing.T) {
	_, policy := policyEnv(t)
	now := testfixtures.ReferenceTime()
	start := now.Add(time.Hour)

	err := policy.Authorize(context.Background(), application.User{ID: "u-1", Role: "JANITOR"}, application.ReservationInput{
		RoomID:  "room-x",
		StartAt: start,
		EndAt:   start.Add(time.Hour),
	}, now)
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
}
