package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"payroll.service/internal/core/model"
)

// SumHoursByDay aggregates closed-session hours per calendar day for the week
// window. Days without closed sessions produce no row; an empty result means
// the user is skipped by the payroll run.
func (r *HRRepository) SumHoursByDay(ctx context.Context, userID int64, weekStart, weekEnd time.Time) ([]model.DayHours, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("app.userId", userID))

	query := `SELECT login_time::date AS day,
                     SUM(EXTRACT(EPOCH FROM (logout_time - login_time)) / 3600.0) AS hours
              FROM time_tracking
              WHERE user_id = $1
                AND logout_time IS NOT NULL
                AND login_time::date BETWEEN $2::date AND $3::date
              GROUP BY login_time::date
              ORDER BY day`

	rows, err := r.DB.QueryContext(ctx, query, userID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.DayHours
	for rows.Next() {
		var dh model.DayHours
		if err := rows.Scan(&dh.Day, &dh.Hours); err != nil {
			return nil, err
		}
		result = append(result, dh)
	}
	return result, rows.Err()
}

// CountMatchingHolidays counts calendar holidays in the week that apply to
// the user: each of region, nationality and ethnicity must match exactly or
// be the 'All' wildcard.
func (r *HRRepository) CountMatchingHolidays(ctx context.Context, weekStart, weekEnd time.Time, region, nationality, ethnicity string) (int, error) {
	var n int
	query := `SELECT COUNT(*)
              FROM holiday_calendar
              WHERE holiday_date BETWEEN $1::date AND $2::date
                AND (region = 'All' OR region = $3)
                AND (nationality = 'All' OR nationality = $4)
                AND (ethnicity = 'All' OR ethnicity = $5)`

	err := r.DB.QueryRowContext(ctx, query, weekStart, weekEnd, region, nationality, ethnicity).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

const insertPayrollQuery = `INSERT INTO payroll
              (user_id, week_start_date, week_end_date, hourly_rate, total_hours,
               regular_pay, overtime_pay, holiday_pay, ethnicity_bonus, night_shift_allowance,
               total_earnings, tax_deductions, final_salary, payslip_status, payslip_retry_count)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 0)`

// InsertPayrollRecords writes the whole weekly batch inside one transaction:
// a database error rolls back every record of the run.
func (r *HRRepository) InsertPayrollRecords(ctx context.Context, records []model.PayrollRecord) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, rec := range records {
		_, err := tx.ExecContext(ctx, insertPayrollQuery,
			rec.UserID, rec.WeekStart, rec.WeekEnd, rec.HourlyRate, rec.TotalHours,
			rec.RegularPay, rec.OvertimePay, rec.HolidayPay, rec.EthnicityBonus, rec.NightShiftAllowance,
			rec.TotalEarnings, rec.TaxDeductions, rec.FinalSalary, model.PayslipPending,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: payroll for user %d week %s", ErrConflict, rec.UserID, rec.WeekStart.Format("2006-01-02"))
		}
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

const payrollColumns = `user_id, week_start_date, week_end_date, hourly_rate, total_hours,
               regular_pay, overtime_pay, holiday_pay, ethnicity_bonus, night_shift_allowance,
               total_earnings, tax_deductions, final_salary, payslip_status, payslip_retry_count`

func scanPayroll(scan func(dest ...any) error) (*model.PayrollRecord, error) {
	rec := &model.PayrollRecord{}
	err := scan(
		&rec.UserID, &rec.WeekStart, &rec.WeekEnd, &rec.HourlyRate, &rec.TotalHours,
		&rec.RegularPay, &rec.OvertimePay, &rec.HolidayPay, &rec.EthnicityBonus, &rec.NightShiftAllowance,
		&rec.TotalEarnings, &rec.TaxDeductions, &rec.FinalSalary, &rec.PayslipStatus, &rec.PayslipRetryCount,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetPayrollRecord fetches one (user, week) payroll record.
func (r *HRRepository) GetPayrollRecord(ctx context.Context, userID int64, weekStart time.Time) (*model.PayrollRecord, error) {
	query := `SELECT ` + payrollColumns + `
              FROM payroll
              WHERE user_id = $1 AND week_start_date = $2::date`

	rec, err := scanPayroll(r.DB.QueryRowContext(ctx, query, userID, weekStart).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// ListPayrollHistory returns the user's most recent weekly records.
func (r *HRRepository) ListPayrollHistory(ctx context.Context, userID int64, weeks int) ([]model.PayrollRecord, error) {
	query := `SELECT ` + payrollColumns + `
              FROM payroll
              WHERE user_id = $1
              ORDER BY week_start_date DESC
              LIMIT $2`

	rows, err := r.DB.QueryContext(ctx, query, userID, weeks)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.PayrollRecord
	for rows.Next() {
		rec, err := scanPayroll(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// UpdatePayslipStatus updates the delivery status and retry count for a
// payslip job. The computed pay columns are never touched.
func (r *HRRepository) UpdatePayslipStatus(ctx context.Context, userID int64, weekStart time.Time, status model.PayslipStatus, retryCount int) error {
	query := `UPDATE payroll
              SET payslip_status = $1,
                  payslip_retry_count = $2
              WHERE user_id = $3 AND week_start_date = $4::date`

	_, err := r.DB.ExecContext(ctx, query, status, retryCount, userID, weekStart)
	return err
}
