package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"payroll.service/internal/core/model"
	"payroll.service/internal/ports/repository"
)

// payHistoryWeeks is how far back the self-service pay view reaches.
const payHistoryWeeks = 3

// HRService covers the staff-lifecycle collaborators around the two engines:
// onboarding/offboarding, authentication, shift assignment, the holiday
// calendar and leave requests.
type HRService struct {
	repo   repository.Repository
	mailer EmailService
	now    func() time.Time
}

func NewHRService(repo repository.Repository, mailer EmailService) *HRService {
	return &HRService{repo: repo, mailer: mailer, now: time.Now}
}

// OnboardInput is the data HR captures for a new staff member.
type OnboardInput struct {
	Name               string          `json:"name"`
	Email              string          `json:"email"`
	Role               model.Role      `json:"role"`
	AnnualSalary       decimal.Decimal `json:"annualSalary"`
	Ethnicity          string          `json:"ethnicity"`
	Nationality        string          `json:"nationality"`
	Region             string          `json:"region"`
	ReportingManagerID *int64          `json:"reportingManagerId,omitempty"`
	IRDNumber          string          `json:"irdNumber"`
	BankAccount        string          `json:"bankAccount"`
	TempPassword       string          `json:"tempPassword"`
}

// Onboard hashes the temporary password, creates the user and sends a welcome
// mail. The mail is best-effort; onboarding succeeds without it.
func (s *HRService) Onboard(ctx context.Context, in OnboardInput) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.TempPassword), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	user := model.User{
		Name:               in.Name,
		Email:              in.Email,
		Role:               in.Role,
		AnnualSalary:       in.AnnualSalary,
		Ethnicity:          in.Ethnicity,
		Nationality:        in.Nationality,
		Region:             in.Region,
		ReportingManagerID: in.ReportingManagerID,
		IRDNumber:          in.IRDNumber,
		BankAccount:        in.BankAccount,
		PasswordHash:       string(hash),
	}

	userID, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	if s.mailer != nil && in.Email != "" {
		user.ID = userID
		if err := s.mailer.SendWelcome(ctx, in.Email, user); err != nil {
			log.Ctx(ctx).Warn().Err(err).Int64("user_id", userID).Msg("Failed to send welcome email")
		}
	}
	return userID, nil
}

// Offboard deletes the user. Historical time tracking and payroll rows stay
// behind as immutable records keyed by the old user ID.
func (s *HRService) Offboard(ctx context.Context, userID int64) error {
	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// Authenticate verifies a user's credentials. Every failure mode collapses
// into the same generic error so callers cannot tell which part was wrong.
func (s *HRService) Authenticate(ctx context.Context, userID int64, password string) (*model.User, error) {
	user, err := s.repo.FindUser(ctx, userID)
	if err != nil || user == nil {
		log.Ctx(ctx).Debug().Err(err).Int64("user_id", userID).Msg("Authentication lookup failed")
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// PayHistory returns the user's last few weekly payroll records.
func (s *HRService) PayHistory(ctx context.Context, userID int64) ([]model.PayrollRecord, error) {
	records, err := s.repo.ListPayrollHistory(ctx, userID, payHistoryWeeks)
	if err != nil {
		return nil, fmt.Errorf("failed to load payroll history: %w", err)
	}
	return records, nil
}

// ShiftSchedule returns the user's assignment for the current week.
func (s *HRService) ShiftSchedule(ctx context.Context, userID int64) (*model.ShiftAssignment, error) {
	assignment, err := s.repo.FindActiveShift(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to look up shift assignment: %w", err)
	}
	if assignment == nil {
		return nil, ErrNoShiftAssigned
	}
	return assignment, nil
}

// AssignShift puts an employee on a shift for the week containing weekStart.
// The window is Monday-aligned; reassigning the same week overwrites the code.
func (s *HRService) AssignShift(ctx context.Context, managerID, userID int64, code model.ShiftCode, weekStart time.Time) error {
	if _, ok := model.ShiftCatalog[code]; !ok {
		return ErrInvalidShiftCode
	}

	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	monday, _ := payrollWeek(weekStart)
	assignment := model.ShiftAssignment{
		UserID:     userID,
		ShiftCode:  code,
		WeekStart:  monday,
		WeekEnd:    monday.AddDate(0, 0, 6),
		AssignedBy: managerID,
	}
	if err := s.repo.UpsertShiftAssignment(ctx, assignment); err != nil {
		return fmt.Errorf("failed to assign shift: %w", err)
	}
	return nil
}

// AddHoliday inserts a holiday calendar entry; empty scope fields widen to 'All'.
func (s *HRService) AddHoliday(ctx context.Context, h model.Holiday) (int64, error) {
	if h.Region == "" {
		h.Region = "All"
	}
	if h.Nationality == "" {
		h.Nationality = "All"
	}
	if h.Ethnicity == "" {
		h.Ethnicity = "All"
	}
	id, err := s.repo.AddHoliday(ctx, h)
	if err != nil {
		return 0, fmt.Errorf("failed to add holiday: %w", err)
	}
	return id, nil
}

// DeleteHoliday removes a holiday calendar entry.
func (s *HRService) DeleteHoliday(ctx context.Context, holidayID int64) error {
	return s.repo.DeleteHoliday(ctx, holidayID)
}

// HolidayCalendar lists holidays visible to the user (their ethnicity or 'All').
func (s *HRService) HolidayCalendar(ctx context.Context, userID int64) ([]model.Holiday, error) {
	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.repo.ListHolidays(ctx, user.Ethnicity)
}

// ApplyLeave files a leave request in Pending state.
func (s *HRService) ApplyLeave(ctx context.Context, userID int64, start, end time.Time, reason string) (int64, error) {
	id, err := s.repo.SubmitLeaveRequest(ctx, model.LeaveRequest{
		UserID:    userID,
		StartDate: start,
		EndDate:   end,
		Reason:    reason,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to submit leave request: %w", err)
	}
	return id, nil
}

// DecideLeave records a manager's approve/reject decision.
func (s *HRService) DecideLeave(ctx context.Context, requestID int64, approve bool) error {
	status := model.LeaveRejected
	if approve {
		status = model.LeaveApproved
	}
	if err := s.repo.SetLeaveStatus(ctx, requestID, status); err != nil {
		return fmt.Errorf("failed to update leave request: %w", err)
	}
	return nil
}
