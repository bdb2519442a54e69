package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"payroll.service/internal/core/model"
	"payroll.service/internal/ports/messaging"
	"payroll.service/internal/ports/repository"
)

var (
	hoursPerYear       = decimal.NewFromInt(52 * 40)
	standardWeekHours  = decimal.NewFromInt(40)
	overtimeMultiplier = decimal.NewFromFloat(1.5)
	holidayDayHours    = decimal.NewFromInt(8)
	taxRate            = decimal.NewFromFloat(0.15)
	nightShiftRate     = decimal.NewFromFloat(0.25)
)

// BonusPolicy is the pluggable pay-equity rule: an uplift rate keyed by
// ethnicity category, matched case-insensitively.
type BonusPolicy struct {
	rates map[string]decimal.Decimal
}

// NewBonusPolicy grants the same rate to every listed ethnicity group.
func NewBonusPolicy(rate decimal.Decimal, groups []string) BonusPolicy {
	rates := make(map[string]decimal.Decimal, len(groups))
	for _, g := range groups {
		g = strings.TrimSpace(g)
		if g != "" {
			rates[strings.ToLower(g)] = rate
		}
	}
	return BonusPolicy{rates: rates}
}

// DefaultBonusPolicy is the standing policy: 5% uplift for Māori employees,
// with and without the macron spelling.
func DefaultBonusPolicy() BonusPolicy {
	return NewBonusPolicy(decimal.NewFromFloat(0.05), []string{"Māori", "Maori"})
}

// RateFor returns the uplift rate for an ethnicity, zero when none applies.
func (p BonusPolicy) RateFor(ethnicity string) decimal.Decimal {
	if rate, ok := p.rates[strings.ToLower(strings.TrimSpace(ethnicity))]; ok {
		return rate
	}
	return decimal.Zero
}

// PayrollService computes and persists one weekly payroll record per eligible
// user, then queues payslip delivery.
type PayrollService struct {
	repo     repository.Repository
	producer messaging.QueueProducer
	bonus    BonusPolicy
	now      func() time.Time
}

// NewPayrollService creates a new instance of the payroll computation engine.
func NewPayrollService(repo repository.Repository, p messaging.QueueProducer, bonus BonusPolicy) *PayrollService {
	return &PayrollService{
		repo:     repo,
		producer: p,
		bonus:    bonus,
		now:      time.Now,
	}
}

// payrollWeek is Monday of the processing date's week through the processing
// date itself, both at midnight.
func payrollWeek(t time.Time) (time.Time, time.Time) {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	end := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	start := end.AddDate(0, 0, -(weekday - 1))
	return start, end
}

// RunWeeklyPayroll processes the current payroll week for every user with
// recorded hours. Users without any closed session that week are skipped
// outright. The whole batch is persisted in one transaction; payslip events
// are published afterwards, fire-and-forget.
func (s *PayrollService) RunWeeklyPayroll(ctx context.Context, requestedBy int64) (*model.PayrollSummary, error) {
	now := s.now()
	weekStart, weekEnd := payrollWeek(now)
	runID := uuid.NewString()

	logger := log.Ctx(ctx).With().
		Str("run_id", runID).
		Int64("requested_by", requestedBy).
		Str("week_start", weekStart.Format("2006-01-02")).
		Logger()

	users, err := s.repo.ListAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var records []model.PayrollRecord
	skipped := 0
	for _, u := range users {
		rec, err := s.computeRecord(ctx, u, weekStart, weekEnd)
		if err != nil {
			// A storage error aborts the whole run; nothing has been
			// committed yet.
			return nil, err
		}
		if rec == nil {
			skipped++
			continue
		}
		records = append(records, *rec)
	}

	if len(records) == 0 {
		return nil, ErrNothingProcessed
	}

	if err := s.repo.InsertPayrollRecords(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to persist payroll batch: %w", err)
	}

	for _, rec := range records {
		event := messaging.PayslipEvent{
			RunID:      runID,
			UserID:     rec.UserID,
			WeekStart:  rec.WeekStart,
			WeekEnd:    rec.WeekEnd,
			OccurredAt: now,
		}
		if err := s.producer.PublishPayslip(ctx, event); err != nil {
			logger.Warn().Err(err).Int64("user_id", rec.UserID).Msg("Failed to queue payslip delivery")
		}
	}

	logger.Info().Int("processed", len(records)).Int("skipped", skipped).Msg("Weekly payroll run completed")

	return &model.PayrollSummary{
		RunID:     runID,
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
		Processed: len(records),
		Skipped:   skipped,
	}, nil
}

// computeRecord builds one user's payroll record, or nil when the user had no
// closed sessions in the week and is excluded from the run.
func (s *PayrollService) computeRecord(ctx context.Context, u model.User, weekStart, weekEnd time.Time) (*model.PayrollRecord, error) {
	days, err := s.repo.SumHoursByDay(ctx, u.ID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate hours for user %d: %w", u.ID, err)
	}
	if len(days) == 0 {
		return nil, nil
	}

	hourlyRate := u.AnnualSalary.Div(hoursPerYear).Round(2)

	totalHours := decimal.Zero
	for _, d := range days {
		totalHours = totalHours.Add(decimal.NewFromFloat(d.Hours))
	}

	regularHours := decimal.Min(totalHours, standardWeekHours)
	overtimeHours := decimal.Max(totalHours.Sub(standardWeekHours), decimal.Zero)

	regularPay := regularHours.Mul(hourlyRate).Round(2)
	overtimePay := overtimeHours.Mul(hourlyRate).Mul(overtimeMultiplier).Round(2)

	holidayCount, err := s.repo.CountMatchingHolidays(ctx, weekStart, weekEnd, u.Region, u.Nationality, u.Ethnicity)
	if err != nil {
		return nil, fmt.Errorf("failed to count holidays for user %d: %w", u.ID, err)
	}
	holidayPay := decimal.NewFromInt(int64(holidayCount)).Mul(hourlyRate).Mul(holidayDayHours).Round(2)

	bonus := regularPay.Add(overtimePay).Add(holidayPay).Mul(s.bonus.RateFor(u.Ethnicity)).Round(2)

	// Night-shift allowance applies to the Employee role only and counts
	// night assignments across all weeks, matching the standing payroll
	// calculation.
	allowance := decimal.Zero
	if u.Role == model.RoleEmployee {
		nights, err := s.repo.CountNightShifts(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count night shifts for user %d: %w", u.ID, err)
		}
		allowance = decimal.NewFromInt(int64(nights)).Mul(nightShiftRate)
	}

	totalEarnings := regularPay.Add(overtimePay).Add(holidayPay).Add(bonus).Add(allowance)
	tax := totalEarnings.Mul(taxRate).Round(2)
	finalSalary := totalEarnings.Sub(tax).Round(2)

	return &model.PayrollRecord{
		UserID:              u.ID,
		WeekStart:           weekStart,
		WeekEnd:             weekEnd,
		HourlyRate:          hourlyRate,
		TotalHours:          totalHours,
		RegularPay:          regularPay,
		OvertimePay:         overtimePay,
		HolidayPay:          holidayPay,
		EthnicityBonus:      bonus,
		NightShiftAllowance: allowance,
		TotalEarnings:       totalEarnings,
		TaxDeductions:       tax,
		FinalSalary:         finalSalary,
		PayslipStatus:       model.PayslipPending,
	}, nil
}
