package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/room-reservations/internal/persistence"
)

// ReservationRepository implements persistence.ReservationRepository using
// SQLite.
type ReservationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewReservationRepository creates a new SQLite reservation repository.
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const reservationColumns = "id, room_id, user_id, start_at, end_at, status, calendar_event_id, created_at, updated_at, cancelled_at"

// CreateReservation inserts a booking after re-checking interval
// disjointness against committed active rows. The check and the insert share
// a write transaction that takes the database lock up front, so no other
// writer can commit an overlapping row in between.
func (r *ReservationRepository) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if reservation.ID == "" {
		return persistence.ErrConstraintViolation
	}

	startStr := reservation.StartAt.UTC().Format(time.RFC3339)
	endStr := reservation.EndAt.UTC().Format(time.RFC3339)

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		// Half-open overlap on the RFC3339 strings; the fixed-width UTC
		// format makes lexicographic order equal temporal order.
		var conflictingID string
		err := r.helper.QueryRowTx(tx, `
			SELECT id FROM reservations
			WHERE room_id = ? AND status = 'active'
			  AND start_at < ? AND ? < end_at
			ORDER BY start_at ASC
			LIMIT 1
		`, reservation.RoomID, endStr, startStr).Scan(&conflictingID)
		if err == nil {
			return &persistence.ConflictError{ConflictingID: conflictingID}
		}
		if err != sql.ErrNoRows {
			return r.mapper.MapError(err)
		}

		_, err = r.helper.ExecTx(tx, `
			INSERT INTO reservations (`+reservationColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			reservation.ID,
			reservation.RoomID,
			reservation.UserID,
			startStr,
			endStr,
			reservation.Status,
			nullableString(reservation.CalendarEventID),
			reservation.CreatedAt.UTC().Format(time.RFC3339),
			reservation.UpdatedAt.UTC().Format(time.RFC3339),
			nullableTime(reservation.CancelledAt),
		)
		if err != nil {
			return mapConstraintError(r.mapper, err)
		}
		return nil
	})
}

// GetReservation retrieves a reservation by ID.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	reservation, err := scanReservation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Reservation{}, persistence.ErrNotFound
		}
		return persistence.Reservation{}, r.mapper.MapError(err)
	}
	return reservation, nil
}

// ListReservations returns the reservations matching the filter ordered by
// start time then ID.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	query, args := buildFilterQuery(`SELECT `+reservationColumns+` FROM reservations`, filter)
	query += " ORDER BY start_at ASC, id ASC"

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var reservations []persistence.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return reservations, nil
}

// CountReservations counts the reservations matching the filter.
func (r *ReservationRepository) CountReservations(ctx context.Context, filter persistence.ReservationFilter) (int, error) {
	query, args := buildFilterQuery(`SELECT COUNT(*) FROM reservations`, filter)

	var count int
	if err := r.helper.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

// CancelReservation marks a reservation cancelled, keeping the row for
// history.
func (r *ReservationRepository) CancelReservation(ctx context.Context, id string, cancelledAt time.Time) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	cancelledStr := cancelledAt.UTC().Format(time.RFC3339)
	result, err := r.helper.Exec(ctx, `
		UPDATE reservations
		SET status = 'cancelled', cancelled_at = ?, updated_at = ?
		WHERE id = ?
	`, cancelledStr, cancelledStr, id)
	if err != nil {
		return mapConstraintError(r.mapper, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// SetCalendarEventID records the external calendar event id on a
// reservation.
func (r *ReservationRepository) SetCalendarEventID(ctx context.Context, id, eventID string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `UPDATE reservations SET calendar_event_id = ? WHERE id = ?`, eventID, id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func buildFilterQuery(base string, filter persistence.ReservationFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.RoomID != "" {
		clauses = append(clauses, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.ActiveOnly {
		clauses = append(clauses, "status = 'active'")
	}
	if filter.StartsAtOrAfter != nil {
		clauses = append(clauses, "start_at >= ?")
		args = append(args, filter.StartsAtOrAfter.UTC().Format(time.RFC3339))
	}
	if filter.StartsBefore != nil {
		clauses = append(clauses, "start_at < ?")
		args = append(args, filter.StartsBefore.UTC().Format(time.RFC3339))
	}
	if filter.EndsAfter != nil {
		clauses = append(clauses, "end_at > ?")
		args = append(args, filter.EndsAfter.UTC().Format(time.RFC3339))
	}
	if filter.EndedBefore != nil {
		clauses = append(clauses, "end_at < ?")
		args = append(args, filter.EndedBefore.UTC().Format(time.RFC3339))
	}

	if len(clauses) > 0 {
		base += " WHERE " + strings.Join(clauses, " AND ")
	}
	return base, args
}

func scanReservation(scanner rowScanner) (persistence.Reservation, error) {
	var reservation persistence.Reservation
	var calendarEventID sql.NullString
	var startStr, endStr, createdAtStr, updatedAtStr string
	var cancelledAtStr sql.NullString

	err := scanner.Scan(
		&reservation.ID,
		&reservation.RoomID,
		&reservation.UserID,
		&startStr,
		&endStr,
		&reservation.Status,
		&calendarEventID,
		&createdAtStr,
		&updatedAtStr,
		&cancelledAtStr,
	)
	if err != nil {
		return persistence.Reservation{}, err
	}

	if calendarEventID.Valid {
		reservation.CalendarEventID = &calendarEventID.String
	}
	if reservation.StartAt, err = time.Parse(time.RFC3339, startStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("parse start_at: %w", err)
	}
	if reservation.EndAt, err = time.Parse(time.RFC3339, endStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("parse end_at: %w", err)
	}
	if reservation.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("parse created_at: %w", err)
	}
	if reservation.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("parse updated_at: %w", err)
	}
	if cancelledAtStr.Valid {
		cancelledAt, err := time.Parse(time.RFC3339, cancelledAtStr.String)
		if err != nil {
			return persistence.Reservation{}, fmt.Errorf("parse cancelled_at: %w", err)
		}
		reservation.CancelledAt = &cancelledAt
	}
	return reservation, nil
}

func nullableTime(value *time.Time) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: value.UTC().Format(time.RFC3339), Valid: true}
}
