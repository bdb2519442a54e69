package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"payroll.service/internal/core/model"
)

// ErrConflict is returned when a write collides with a uniqueness constraint
// (an already-open session, a duplicate payroll week).
var ErrConflict = errors.New("repository: conflicting row already exists")

// Repository is the session-store contract the core engines depend on.
type Repository interface {
	// Time tracking
	FindOpenSession(ctx context.Context, userID int64, day time.Time) (*model.TimeTrackingRecord, error)
	FindAnyOpenSession(ctx context.Context, userID int64) (*model.TimeTrackingRecord, error)
	InsertSession(ctx context.Context, userID int64, loginTime time.Time, lateReason *model.Reason) (int64, error)
	CloseSession(ctx context.Context, trackID int64, logoutTime time.Time, reason *model.Reason) error

	// Shifts
	FindActiveShift(ctx context.Context, userID int64, asOf time.Time) (*model.ShiftAssignment, error)
	UpsertShiftAssignment(ctx context.Context, a model.ShiftAssignment) error
	CountNightShifts(ctx context.Context, userID int64) (int, error)

	// Payroll
	SumHoursByDay(ctx context.Context, userID int64, weekStart, weekEnd time.Time) ([]model.DayHours, error)
	CountMatchingHolidays(ctx context.Context, weekStart, weekEnd time.Time, region, nationality, ethnicity string) (int, error)
	InsertPayrollRecords(ctx context.Context, records []model.PayrollRecord) error
	GetPayrollRecord(ctx context.Context, userID int64, weekStart time.Time) (*model.PayrollRecord, error)
	ListPayrollHistory(ctx context.Context, userID int64, weeks int) ([]model.PayrollRecord, error)
	UpdatePayslipStatus(ctx context.Context, userID int64, weekStart time.Time, status model.PayslipStatus, retryCount int) error

	// Users
	ListAllUsers(ctx context.Context) ([]model.User, error)
	FindUser(ctx context.Context, userID int64) (*model.User, error)
	CreateUser(ctx context.Context, u model.User) (int64, error)
	DeleteUser(ctx context.Context, userID int64) error

	// Holiday calendar
	AddHoliday(ctx context.Context, h model.Holiday) (int64, error)
	DeleteHoliday(ctx context.Context, holidayID int64) error
	ListHolidays(ctx context.Context, ethnicity string) ([]model.Holiday, error)

	// Leave
	SubmitLeaveRequest(ctx context.Context, lr model.LeaveRequest) (int64, error)
	SetLeaveStatus(ctx context.Context, requestID int64, status model.LeaveStatus) error
}

// HRRepository is the concrete implementation for a PostgreSQL database.
type HRRepository struct {
	DB *sql.DB
}

// NewHRRepository create new instance
func NewHRRepository(db *sql.DB) Repository {
	return &HRRepository{DB: db}
}
