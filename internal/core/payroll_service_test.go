package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"payroll.service/internal/core/model"
)

// Wednesday noon; the payroll week runs Monday 2026-03-02 through 2026-03-04.
var payrollNow = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

func newPayrollFixture(repo *fakeRepo, producer *fakeProducer) *PayrollService {
	s := NewPayrollService(repo, producer, DefaultBonusPolicy())
	s.now = func() time.Time { return payrollNow }
	return s
}

func standardUser(id int64) model.User {
	return model.User{
		ID:           id,
		Name:         "Test Employee",
		Email:        "employee@example.co.nz",
		Role:         model.RoleEmployee,
		AnnualSalary: decimal.NewFromInt(52000),
		Ethnicity:    "European",
	}
}

func hoursForWeek(total float64) []model.DayHours {
	days := make([]model.DayHours, 0, 5)
	for i := 0; i < 5; i++ {
		days = append(days, model.DayHours{
			Day:   time.Date(2026, 3, 2+i, 0, 0, 0, 0, time.UTC),
			Hours: total / 5,
		})
	}
	return days
}

func assertAmount(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if got.StringFixed(2) != want {
		t.Fatalf("%s = %s, want %s", name, got.StringFixed(2), want)
	}
}

func TestRunWeeklyPayrollStandardWeek(t *testing.T) {
	repo := newFakeRepo()
	repo.users[1] = standardUser(1)
	repo.dayHours[1] = hoursForWeek(40)

	producer := &fakeProducer{}
	summary, err := newPayrollFixture(repo, producer).RunWeeklyPayroll(context.Background(), 99)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Processed != 1 || summary.Skipped != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(repo.batches) != 1 || len(repo.batches[0]) != 1 {
		t.Fatalf("expected one persisted batch with one record, got %d", len(repo.batches))
	}

	rec := repo.batches[0][0]
	assertAmount(t, "hourly rate", rec.HourlyRate, "25.00")
	assertAmount(t, "regular pay", rec.RegularPay, "1000.00")
	assertAmount(t, "overtime pay", rec.OvertimePay, "0.00")
	assertAmount(t, "tax", rec.TaxDeductions, "150.00")
	assertAmount(t, "final salary", rec.FinalSalary, "850.00")
	if rec.PayslipStatus != model.PayslipPending {
		t.Fatalf("new record should be pending delivery, got %s", rec.PayslipStatus)
	}
}

func TestRunWeeklyPayrollEthnicityBonus(t *testing.T) {
	repo := newFakeRepo()
	u := standardUser(1)
	u.Ethnicity = "Māori"
	repo.users[1] = u
	repo.dayHours[1] = hoursForWeek(40)

	producer := &fakeProducer{}
	if _, err := newPayrollFixture(repo, producer).RunWeeklyPayroll(context.Background(), 99); err != nil {
		t.Fatal(err)
	}

	rec := repo.batches[0][0]
	assertAmount(t, "ethnicity bonus", rec.EthnicityBonus, "50.00")
	assertAmount(t, "total earnings", rec.TotalEarnings, "1050.00")
	assertAmount(t, "tax", rec.TaxDeductions, "157.50")
	assertAmount(t, "final salary", rec.FinalSalary, "892.50")
}

func TestRunWeeklyPayrollOvertime(t *testing.T) {
	repo := newFakeRepo()
	repo.users[1] = standardUser(1)
	repo.dayHours[1] = hoursForWeek(45)

	producer := &fakeProducer{}
	if _, err := newPayrollFixture(repo, producer).RunWeeklyPayroll(context.Background(), 99); err != nil {
		t.Fatal(err)
	}

	rec := repo.batches[0][0]
	assertAmount(t, "regular pay", rec.RegularPay, "1000.00")
	assertAmount(t, "overtime pay", rec.OvertimePay, "187.50")
}

func TestRunWeeklyPayrollHolidayPay(t *testing.T) {
	repo := newFakeRepo()
	repo.users[1] = standardUser(1)
	repo.dayHours[1] = hoursForWeek(40)
	repo.holidays = 1

	producer := &fakeProducer{}
	if _, err := newPayrollFixture(repo, producer).RunWeeklyPayroll(context.Background(), 99); err != nil {
		t.Fatal(err)
	}

	// One holiday pays a full 8-hour day at the base rate.
	assertAmount(t, "holiday pay", repo.batches[0][0].HolidayPay, "200.00")
}

func TestRunWeeklyPayrollNightAllowanceEmployeeOnly(t *testing.T) {
	repo := newFakeRepo()
	repo.users[1] = standardUser(1)
	repo.dayHours[1] = hoursForWeek(40)
	repo.nightShifts[1] = 4

	manager := standardUser(2)
	manager.Role = model.RoleProjectManager
	repo.users[2] = manager
	repo.dayHours[2] = hoursForWeek(40)
	repo.nightShifts[2] = 4

	producer := &fakeProducer{}
	if _, err := newPayrollFixture(repo, producer).RunWeeklyPayroll(context.Background(), 99); err != nil {
		t.Fatal(err)
	}

	for _, rec := range repo.batches[0] {
		want := "0.00"
		if rec.UserID == 1 {
			want = "1.00"
		}
		assertAmount(t, "night shift allowance", rec.NightShiftAllowance, want)
	}
}

func TestRunWeeklyPayrollSkipsUsersWithoutHours(t *testing.T) {
	repo := newFakeRepo()
	repo.users[1] = standardUser(1)
	repo.users[2] = standardUser(2)
	repo.dayHours[1] = hoursForWeek(40)

	producer := &fakeProducer{}
	summary, err := newPayrollFixture(repo, producer).RunWeeklyPayroll(context.Background(), 99)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Processed != 1 || summary.Skipped != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRunWeeklyPayrollNothingProcessed(t *testing.T) {
	repo := newFakeRepo()
	repo.users[1] = standardUser(1)

	producer := &fakeProducer{}
	_, err := newPayrollFixture(repo, producer).RunWeeklyPayroll(context.Background(), 99)
	if !errors.Is(err, ErrNothingProcessed) {
		t.Fatalf("expected ErrNothingProcessed, got %v", err)
	}
	if len(repo.batches) != 0 {
		t.Fatal("no batch should be persisted when nothing was processed")
	}
	if len(producer.payslips) != 0 {
		t.Fatal("no payslip events should be published when nothing was processed")
	}
}

func TestRunWeeklyPayrollQueuesPayslips(t *testing.T) {
	repo := newFakeRepo()
	repo.users[1] = standardUser(1)
	repo.users[2] = standardUser(2)
	repo.dayHours[1] = hoursForWeek(40)
	repo.dayHours[2] = hoursForWeek(38)

	producer := &fakeProducer{}
	summary, err := newPayrollFixture(repo, producer).RunWeeklyPayroll(context.Background(), 99)
	if err != nil {
		t.Fatal(err)
	}
	if len(producer.payslips) != summary.Processed {
		t.Fatalf("expected %d payslip events, got %d", summary.Processed, len(producer.payslips))
	}
	for _, ev := range producer.payslips {
		if ev.RunID != summary.RunID {
			t.Fatalf("event run ID %s does not match summary %s", ev.RunID, summary.RunID)
		}
	}
}

func TestRunWeeklyPayrollPublishFailureDoesNotFailRun(t *testing.T) {
	repo := newFakeRepo()
	repo.users[1] = standardUser(1)
	repo.dayHours[1] = hoursForWeek(40)

	producer := &fakeProducer{payslipErr: errors.New("sqs unavailable")}
	summary, err := newPayrollFixture(repo, producer).RunWeeklyPayroll(context.Background(), 99)
	if err != nil {
		t.Fatalf("run should survive publish failures, got %v", err)
	}
	if summary.Processed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestPayrollWeekMondayAlignment(t *testing.T) {
	cases := []struct {
		in        time.Time
		wantStart string
	}{
		{time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), "2026-03-02"},  // Monday
		{time.Date(2026, 3, 4, 23, 0, 0, 0, time.UTC), "2026-03-02"}, // Wednesday
		{time.Date(2026, 3, 8, 1, 0, 0, 0, time.UTC), "2026-03-02"},  // Sunday stays in the same week
	}
	for _, c := range cases {
		start, end := payrollWeek(c.in)
		if start.Format("2006-01-02") != c.wantStart {
			t.Fatalf("week start for %v = %v, want %s", c.in, start, c.wantStart)
		}
		if end.Before(start) {
			t.Fatalf("week end %v precedes start %v", end, start)
		}
	}
}

func TestBonusPolicyMatching(t *testing.T) {
	policy := DefaultBonusPolicy()
	if !policy.RateFor("Māori").Equal(decimal.NewFromFloat(0.05)) {
		t.Fatal("macron spelling should match")
	}
	if !policy.RateFor("maori").Equal(decimal.NewFromFloat(0.05)) {
		t.Fatal("matching should be case-insensitive")
	}
	if !policy.RateFor("European").IsZero() {
		t.Fatal("unlisted ethnicity should get no uplift")
	}
}
