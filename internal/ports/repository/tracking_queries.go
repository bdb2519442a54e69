package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"payroll.service/internal/core/model"
)

const sessionColumns = `track_id, user_id, login_time, logout_time, late_reason, early_logout_reason`

func scanSession(row *sql.Row) (*model.TimeTrackingRecord, error) {
	rec := &model.TimeTrackingRecord{}
	var logout sql.NullTime
	var late, early sql.NullString

	err := row.Scan(&rec.TrackID, &rec.UserID, &rec.LoginTime, &logout, &late, &early)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if logout.Valid {
		rec.LogoutTime = &logout.Time
	}
	if late.Valid {
		r := model.Reason(late.String)
		rec.LateReason = &r
	}
	if early.Valid {
		r := model.Reason(early.String)
		rec.EarlyLogoutReason = &r
	}
	return rec, nil
}

// FindOpenSession returns the open record for a user on the given calendar
// day, or nil when there is none.
func (r *HRRepository) FindOpenSession(ctx context.Context, userID int64, day time.Time) (*model.TimeTrackingRecord, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("app.userId", userID))

	query := `SELECT ` + sessionColumns + `
              FROM time_tracking
              WHERE user_id = $1 AND logout_time IS NULL AND login_time::date = $2::date
              ORDER BY login_time DESC
              LIMIT 1`

	return scanSession(r.DB.QueryRowContext(ctx, query, userID, day))
}

// FindAnyOpenSession returns the user's open record regardless of the day it
// was started on. Used by the forced-termination path.
func (r *HRRepository) FindAnyOpenSession(ctx context.Context, userID int64) (*model.TimeTrackingRecord, error) {
	query := `SELECT ` + sessionColumns + `
              FROM time_tracking
              WHERE user_id = $1 AND logout_time IS NULL
              ORDER BY login_time DESC
              LIMIT 1`

	return scanSession(r.DB.QueryRowContext(ctx, query, userID))
}

// InsertSession opens a session. The partial unique index on
// (user_id) WHERE logout_time IS NULL backs the one-open-session invariant;
// a violation surfaces as ErrConflict.
func (r *HRRepository) InsertSession(ctx context.Context, userID int64, loginTime time.Time, lateReason *model.Reason) (int64, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("app.userId", userID))

	var id int64
	query := `INSERT INTO time_tracking (user_id, login_time, late_reason)
              VALUES ($1, $2, $3) RETURNING track_id`

	err := r.DB.QueryRowContext(ctx, query, userID, loginTime, reasonValue(lateReason)).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrConflict
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CloseSession records the logout in a single mutation; closed records are
// never reopened.
func (r *HRRepository) CloseSession(ctx context.Context, trackID int64, logoutTime time.Time, reason *model.Reason) error {
	query := `UPDATE time_tracking
              SET logout_time = $1,
                  early_logout_reason = $2
              WHERE track_id = $3 AND logout_time IS NULL`

	_, err := r.DB.ExecContext(ctx, query, logoutTime, reasonValue(reason), trackID)
	return err
}

// FindActiveShift returns the shift assignment whose week window covers asOf,
// or nil when the user has none.
func (r *HRRepository) FindActiveShift(ctx context.Context, userID int64, asOf time.Time) (*model.ShiftAssignment, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("app.userId", userID))

	a := &model.ShiftAssignment{UserID: userID}

	query := `SELECT shift_code, week_start_date, week_end_date, assigned_by
              FROM employee_shifts
              WHERE user_id = $1 AND $2::date BETWEEN week_start_date AND week_end_date
              ORDER BY week_start_date DESC
              LIMIT 1`

	err := r.DB.QueryRowContext(ctx, query, userID, asOf).
		Scan(&a.ShiftCode, &a.WeekStart, &a.WeekEnd, &a.AssignedBy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// UpsertShiftAssignment assigns a shift for a week; reassigning the same
// (user, week) overwrites the shift code.
func (r *HRRepository) UpsertShiftAssignment(ctx context.Context, a model.ShiftAssignment) error {
	query := `INSERT INTO employee_shifts (user_id, shift_code, week_start_date, week_end_date, assigned_by)
              VALUES ($1, $2, $3, $4, $5)
              ON CONFLICT (user_id, week_start_date)
              DO UPDATE SET shift_code = EXCLUDED.shift_code,
                            week_end_date = EXCLUDED.week_end_date,
                            assigned_by = EXCLUDED.assigned_by`

	_, err := r.DB.ExecContext(ctx, query, a.UserID, a.ShiftCode, a.WeekStart, a.WeekEnd, a.AssignedBy)
	return err
}

// CountNightShifts counts the user's night-shift assignments across all weeks.
func (r *HRRepository) CountNightShifts(ctx context.Context, userID int64) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM employee_shifts WHERE user_id = $1 AND shift_code = 'N'`

	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func reasonValue(reason *model.Reason) interface{} {
	if reason == nil {
		return nil
	}
	return string(*reason)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
