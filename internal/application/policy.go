package application

import (
	"context"
	"fmt"
	"time"
)

// DefaultPolicyConfig tunes the built-in admission policy. Zero values fall
// back to the campus defaults.
type DefaultPolicyConfig struct {
	MinDuration     time.Duration
	MaxDuration     time.Duration
	MaxAdvance      time.Duration
	WeeklyLimit     int
	ReservationRepo ReservationRepository
}

// DefaultPolicy enforces the campus booking rules: bounded duration, a
// maximum advance horizon, and a per-work-week quota for students.
// Administrators are exempt from all three.
type DefaultPolicy struct {
	minDuration  time.Duration
	maxDuration  time.Duration
	maxAdvance   time.Duration
	weeklyLimit  int
	reservations ReservationRepository
}

// NewDefaultPolicy constructs the standard policy.
func NewDefaultPolicy(cfg DefaultPolicyConfig) *DefaultPolicy {
	if cfg.MinDuration <= 0 {
		cfg.MinDuration = 15 * time.Minute
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = time.Hour
	}
	if cfg.MaxAdvance <= 0 {
		cfg.MaxAdvance = 3 * 30 * 24 * time.Hour
	}
	if cfg.WeeklyLimit <= 0 {
		cfg.WeeklyLimit = 1
	}
	return &DefaultPolicy{
		minDuration:  cfg.MinDuration,
		maxDuration:  cfg.MaxDuration,
		maxAdvance:   cfg.MaxAdvance,
		weeklyLimit:  cfg.WeeklyLimit,
		reservations: cfg.ReservationRepo,
	}
}

// Authorize applies the policy for the given owner. Rule failures are
// reported as validation errors so the caller can surface them field by
// field.
func (p *DefaultPolicy) Authorize(ctx context.Context, user User, input ReservationInput, now time.Time) error {
	switch user.Role {
	case RoleAdmin:
		return nil
	case RoleStudent:
		// rules below
	default:
		return fmt.Errorf("unknown role %q", user.Role)
	}

	validationErr := &ValidationError{}

	duration := input.EndAt.Sub(input.StartAt)
	if duration < p.minDuration {
		validationErr.add("end_at", fmt.Sprintf("la reserva debe durar al menos %d minutos", int(p.minDuration.Minutes())))
	} else if duration > p.maxDuration {
		validationErr.add("end_at", fmt.Sprintf("la reserva no puede durar más de %d minutos", int(p.maxDuration.Minutes())))
	}

	if input.StartAt.Sub(now) > p.maxAdvance {
		validationErr.add("start_at", "la reserva está demasiado lejos en el futuro")
	}

	if validationErr.HasErrors() {
		return validationErr
	}

	if p.reservations != nil && p.weeklyLimit > 0 {
		weekStart, weekEnd := workWeekBounds(input.StartAt)
		count, err := p.reservations.CountActiveForUserBetween(ctx, user.ID, weekStart, weekEnd)
		if err != nil {
			return err
		}
		if count >= p.weeklyLimit {
			validationErr.add("start_at", "ya tienes una reserva activa en esa semana")
			return validationErr
		}
	}

	return nil
}

// workWeekBounds returns the Monday 00:00 UTC start and the following
// Saturday 00:00 UTC end of the work week containing t. The quota counts
// Monday through Friday.
func workWeekBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	day := t.Truncate(24 * time.Hour)
	weekday := int(day.Weekday())
	// Sunday belongs to the following work week.
	var monday time.Time
	if weekday == 0 {
		monday = day.Add(24 * time.Hour)
	} else {
		monday = day.Add(-time.Duration(weekday-1) * 24 * time.Hour)
	}
	return monday, monday.Add(5 * 24 * time.Hour)
}
