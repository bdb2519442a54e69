package alert

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"payroll.service/internal/core/model"
	"payroll.service/internal/ports/messaging"
)

type stubMailer struct {
	alerts  []string
	sendErr error
}

func (m *stubMailer) SendPayslip(ctx context.Context, to string, rec model.PayrollRecord, pdf []byte) error {
	return nil
}

func (m *stubMailer) SendEarlyLogoutAlert(ctx context.Context, to, employeeName string, reason model.Reason) error {
	m.alerts = append(m.alerts, to)
	return m.sendErr
}

func (m *stubMailer) SendWelcome(ctx context.Context, to string, user model.User) error {
	return nil
}

func alertMessage(t *testing.T, managerEmail string) types.Message {
	t.Helper()
	body, err := json.Marshal(messaging.EarlyLogoutEvent{
		TrackID:      7,
		UserID:       1,
		EmployeeName: "Aroha Ngata",
		ManagerEmail: managerEmail,
		Reason:       model.ReasonPersonalEmergency,
	})
	if err != nil {
		t.Fatal(err)
	}
	return types.Message{Body: aws.String(string(body))}
}

func TestProcessDeliversAlert(t *testing.T) {
	mailer := &stubMailer{}
	p := NewProcessor(mailer)

	retry, _, err := p.Process(context.Background(), alertMessage(t, "manager@example.co.nz"))
	if err != nil || retry {
		t.Fatalf("unexpected outcome: retry=%v err=%v", retry, err)
	}
	if len(mailer.alerts) != 1 || mailer.alerts[0] != "manager@example.co.nz" {
		t.Fatalf("expected one alert to the manager, got %v", mailer.alerts)
	}
}

func TestProcessDropsWithoutManagerEmail(t *testing.T) {
	mailer := &stubMailer{}
	p := NewProcessor(mailer)

	retry, _, err := p.Process(context.Background(), alertMessage(t, ""))
	if err != nil || retry {
		t.Fatalf("unexpected outcome: retry=%v err=%v", retry, err)
	}
	if len(mailer.alerts) != 0 {
		t.Fatal("no alert should be attempted without a recipient")
	}
}

func TestProcessRetriesOnDeliveryFailure(t *testing.T) {
	p := NewProcessor(&stubMailer{sendErr: errors.New("ses down")})

	retry, delay, err := p.Process(context.Background(), alertMessage(t, "manager@example.co.nz"))
	if err == nil || !retry {
		t.Fatalf("delivery failure should be retried, retry=%v err=%v", retry, err)
	}
	if delay != retryDelaySeconds {
		t.Fatalf("delay = %d, want %d", delay, retryDelaySeconds)
	}
}

func TestProcessMalformedMessage(t *testing.T) {
	p := NewProcessor(&stubMailer{})

	retry, _, err := p.Process(context.Background(), types.Message{Body: aws.String("{")})
	if err == nil {
		t.Fatal("expected an error")
	}
	if retry {
		t.Fatal("malformed messages must not be retried")
	}
}
