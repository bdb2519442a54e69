package repository

import (
	"context"
	"database/sql"
	"time"

	"payroll.service/internal/core/model"
)

const userColumns = `user_id, name, email, designation, annual_salary, ethnicity,
               nationality, region, reporting_manager_id, ird_number, bank_account, password_hash`

func scanUser(scan func(dest ...any) error) (*model.User, error) {
	u := &model.User{}
	var managerID sql.NullInt64
	err := scan(
		&u.ID, &u.Name, &u.Email, &u.Role, &u.AnnualSalary, &u.Ethnicity,
		&u.Nationality, &u.Region, &managerID, &u.IRDNumber, &u.BankAccount, &u.PasswordHash,
	)
	if err != nil {
		return nil, err
	}
	if managerID.Valid {
		u.ReportingManagerID = &managerID.Int64
	}
	return u, nil
}

// ListAllUsers returns every user on the books; the payroll run iterates this.
func (r *HRRepository) ListAllUsers(ctx context.Context) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY user_id`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// FindUser fetches a user by ID, nil when absent.
func (r *HRRepository) FindUser(ctx context.Context, userID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	u, err := scanUser(r.DB.QueryRowContext(ctx, query, userID).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// CreateUser inserts an onboarded user and returns the generated ID.
func (r *HRRepository) CreateUser(ctx context.Context, u model.User) (int64, error) {
	var id int64
	query := `INSERT INTO users
              (name, email, designation, annual_salary, ethnicity, nationality, region,
               reporting_manager_id, ird_number, bank_account, password_hash)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
              RETURNING user_id`

	var managerID interface{}
	if u.ReportingManagerID != nil {
		managerID = *u.ReportingManagerID
	}

	err := r.DB.QueryRowContext(ctx, query,
		u.Name, u.Email, u.Role, u.AnnualSalary, u.Ethnicity, u.Nationality, u.Region,
		managerID, u.IRDNumber, u.BankAccount, u.PasswordHash,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// DeleteUser removes the user row. Time tracking and payroll rows are
// append-only history and are deliberately left in place.
func (r *HRRepository) DeleteUser(ctx context.Context, userID int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddHoliday inserts a holiday calendar entry.
func (r *HRRepository) AddHoliday(ctx context.Context, h model.Holiday) (int64, error) {
	var id int64
	query := `INSERT INTO holiday_calendar (holiday_name, holiday_date, region, nationality, ethnicity)
              VALUES ($1, $2, $3, $4, $5) RETURNING holiday_id`

	err := r.DB.QueryRowContext(ctx, query, h.Name, h.Date, h.Region, h.Nationality, h.Ethnicity).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// DeleteHoliday removes a holiday calendar entry.
func (r *HRRepository) DeleteHoliday(ctx context.Context, holidayID int64) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM holiday_calendar WHERE holiday_id = $1`, holidayID)
	return err
}

// ListHolidays returns upcoming holidays applicable to the given ethnicity
// (or to everyone).
func (r *HRRepository) ListHolidays(ctx context.Context, ethnicity string) ([]model.Holiday, error) {
	query := `SELECT holiday_id, holiday_name, holiday_date, region, nationality, ethnicity
              FROM holiday_calendar
              WHERE ethnicity = 'All' OR ethnicity = $1
              ORDER BY holiday_date`

	rows, err := r.DB.QueryContext(ctx, query, ethnicity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []model.Holiday
	for rows.Next() {
		var h model.Holiday
		if err := rows.Scan(&h.ID, &h.Name, &h.Date, &h.Region, &h.Nationality, &h.Ethnicity); err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// SubmitLeaveRequest files a new leave request in Pending state.
func (r *HRRepository) SubmitLeaveRequest(ctx context.Context, lr model.LeaveRequest) (int64, error) {
	var id int64
	query := `INSERT INTO leave_requests (user_id, start_date, end_date, reason, status)
              VALUES ($1, $2, $3, $4, $5) RETURNING request_id`

	err := r.DB.QueryRowContext(ctx, query, lr.UserID, lr.StartDate, lr.EndDate, lr.Reason, model.LeavePending).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// SetLeaveStatus records a manager's approve/reject decision.
func (r *HRRepository) SetLeaveStatus(ctx context.Context, requestID int64, status model.LeaveStatus) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE leave_requests SET status = $1, decided_at = $2 WHERE request_id = $3`,
		status, time.Now().UTC(), requestID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
