package payslip

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/shopspring/decimal"

	"payroll.service/internal/core/model"
	payslipPDF "payroll.service/internal/payslip"
	"payroll.service/internal/ports/messaging"
	"payroll.service/internal/ports/repository"
)

var weekStart = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

// stubRepo overrides only what the processor touches; anything else panics.
type stubRepo struct {
	repository.Repository
	record        *model.PayrollRecord
	user          *model.User
	statusUpdates []model.PayslipStatus
	retryCounts   []int
}

func (s *stubRepo) GetPayrollRecord(ctx context.Context, userID int64, ws time.Time) (*model.PayrollRecord, error) {
	return s.record, nil
}

func (s *stubRepo) FindUser(ctx context.Context, userID int64) (*model.User, error) {
	return s.user, nil
}

func (s *stubRepo) UpdatePayslipStatus(ctx context.Context, userID int64, ws time.Time, status model.PayslipStatus, retryCount int) error {
	s.statusUpdates = append(s.statusUpdates, status)
	s.retryCounts = append(s.retryCounts, retryCount)
	return nil
}

type stubMailer struct {
	sent    int
	sendErr error
}

func (m *stubMailer) SendPayslip(ctx context.Context, to string, rec model.PayrollRecord, pdf []byte) error {
	m.sent++
	return m.sendErr
}

func (m *stubMailer) SendEarlyLogoutAlert(ctx context.Context, to, employeeName string, reason model.Reason) error {
	return nil
}

func (m *stubMailer) SendWelcome(ctx context.Context, to string, user model.User) error {
	return nil
}

func pendingRecord() *model.PayrollRecord {
	return &model.PayrollRecord{
		UserID:        1,
		WeekStart:     weekStart,
		WeekEnd:       weekStart.AddDate(0, 0, 6),
		HourlyRate:    decimal.NewFromFloat(25),
		FinalSalary:   decimal.NewFromFloat(850),
		PayslipStatus: model.PayslipPending,
	}
}

func eventMessage(t *testing.T) types.Message {
	t.Helper()
	body, err := json.Marshal(messaging.PayslipEvent{
		RunID:     "run-1",
		UserID:    1,
		WeekStart: weekStart,
		WeekEnd:   weekStart.AddDate(0, 0, 6),
	})
	if err != nil {
		t.Fatal(err)
	}
	return types.Message{Body: aws.String(string(body))}
}

func newFixture(t *testing.T, repo *stubRepo, mailer *stubMailer) *Processor {
	t.Helper()
	renderer, err := payslipPDF.NewRenderer("Aotearoa Holdings Ltd", "")
	if err != nil {
		t.Fatal(err)
	}
	return NewProcessor(repo, renderer, mailer)
}

func TestProcessMalformedMessage(t *testing.T) {
	p := newFixture(t, &stubRepo{}, &stubMailer{})

	retry, _, err := p.Process(context.Background(), types.Message{Body: aws.String("not json")})
	if err == nil {
		t.Fatal("expected an error")
	}
	if retry {
		t.Fatal("malformed messages must not be retried")
	}
}

func TestProcessDeliversAndMarksCompleted(t *testing.T) {
	repo := &stubRepo{
		record: pendingRecord(),
		user:   &model.User{ID: 1, Name: "Aroha Ngata", Email: "aroha@example.co.nz"},
	}
	mailer := &stubMailer{}
	p := newFixture(t, repo, mailer)

	retry, _, err := p.Process(context.Background(), eventMessage(t))
	if err != nil {
		t.Fatal(err)
	}
	if retry {
		t.Fatal("successful delivery must not request a retry")
	}
	if mailer.sent != 1 {
		t.Fatalf("expected one delivery, got %d", mailer.sent)
	}
	if len(repo.statusUpdates) != 1 || repo.statusUpdates[0] != model.PayslipCompleted {
		t.Fatalf("expected a completed status update, got %v", repo.statusUpdates)
	}
}

func TestProcessSkipsAlreadyDelivered(t *testing.T) {
	rec := pendingRecord()
	rec.PayslipStatus = model.PayslipCompleted
	repo := &stubRepo{record: rec, user: &model.User{ID: 1, Email: "aroha@example.co.nz"}}
	mailer := &stubMailer{}
	p := newFixture(t, repo, mailer)

	retry, _, err := p.Process(context.Background(), eventMessage(t))
	if err != nil || retry {
		t.Fatalf("redelivery of a completed job should be a no-op, retry=%v err=%v", retry, err)
	}
	if mailer.sent != 0 {
		t.Fatal("a completed payslip must not be sent twice")
	}
}

func TestProcessRetriesOnDeliveryFailure(t *testing.T) {
	repo := &stubRepo{
		record: pendingRecord(),
		user:   &model.User{ID: 1, Email: "aroha@example.co.nz"},
	}
	p := newFixture(t, repo, &stubMailer{sendErr: errors.New("ses throttled")})

	retry, delay, err := p.Process(context.Background(), eventMessage(t))
	if err == nil {
		t.Fatal("expected the delivery error to propagate")
	}
	if !retry {
		t.Fatal("delivery failures must be retried")
	}
	if delay <= 0 {
		t.Fatalf("expected a positive backoff, got %d", delay)
	}
	if len(repo.retryCounts) != 1 || repo.retryCounts[0] != 1 {
		t.Fatalf("expected retry count bumped to 1, got %v", repo.retryCounts)
	}
}

func TestProcessDropsWhenUserGone(t *testing.T) {
	repo := &stubRepo{record: pendingRecord(), user: nil}
	mailer := &stubMailer{}
	p := newFixture(t, repo, mailer)

	retry, _, err := p.Process(context.Background(), eventMessage(t))
	if err != nil || retry {
		t.Fatalf("an offboarded user should drop the job, retry=%v err=%v", retry, err)
	}
	if mailer.sent != 0 {
		t.Fatal("nothing should be sent for a vanished user")
	}
}

func TestProcessDropsWhenRecordMissing(t *testing.T) {
	p := newFixture(t, &stubRepo{}, &stubMailer{})

	retry, _, err := p.Process(context.Background(), eventMessage(t))
	if err == nil {
		t.Fatal("a missing record should surface an error")
	}
	if retry {
		t.Fatal("a missing record is unrecoverable and must not be retried")
	}
}
