package core

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"payroll.service/internal/core/model"
	"payroll.service/pkg/telemetry"
)

// EmailService is the outbound mail contract. Delivery is best-effort; the
// engines never block on it.
type EmailService interface {
	SendPayslip(ctx context.Context, to string, rec model.PayrollRecord, pdf []byte) error
	SendEarlyLogoutAlert(ctx context.Context, to, employeeName string, reason model.Reason) error
	SendWelcome(ctx context.Context, to string, user model.User) error
}

type SESEmailService struct {
	client *ses.Client
	sender string
}

func NewSESEmailService(client *ses.Client, sender string) *SESEmailService {
	return &SESEmailService{client: client, sender: sender}
}

// SendPayslip delivers the rendered payslip PDF as a MIME attachment via
// SendRawEmail.
func (s *SESEmailService) SendPayslip(ctx context.Context, to string, rec model.PayrollRecord, pdf []byte) error {
	ctx, span := s.startSpan(ctx, "send_payslip_email")
	defer span.End()

	period := fmt.Sprintf("%s to %s", rec.WeekStart.Format("2006-01-02"), rec.WeekEnd.Format("2006-01-02"))
	subject := "Your payslip for " + period
	body := fmt.Sprintf("Hello,\n\nYour payslip for the week %s is attached.\nNet pay: %s.\n", period, rec.FinalSalary.StringFixed(2))

	raw := buildRawMessage(s.sender, to, subject, body, "payslip.pdf", pdf)

	_, err := s.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		Source:       aws.String(s.sender),
		Destinations: []string{to},
		RawMessage:   &types.RawMessage{Data: raw},
	})
	return err
}

// SendEarlyLogoutAlert notifies a reporting manager that their report logged
// out before shift end.
func (s *SESEmailService) SendEarlyLogoutAlert(ctx context.Context, to, employeeName string, reason model.Reason) error {
	ctx, span := s.startSpan(ctx, "send_early_logout_alert")
	defer span.End()

	return s.sendText(ctx, to,
		"Early logout: "+employeeName,
		fmt.Sprintf("Hello,\n\n%s logged out before the end of their shift.\nReason given: %s.\n", employeeName, reason))
}

// SendWelcome greets a newly onboarded staff member.
func (s *SESEmailService) SendWelcome(ctx context.Context, to string, user model.User) error {
	ctx, span := s.startSpan(ctx, "send_welcome_email")
	defer span.End()

	return s.sendText(ctx, to,
		"Welcome to the organisation",
		fmt.Sprintf("Dear %s,\n\nYou have been onboarded.\nPosition: %s\nStaff ID: %d\n\nPlease log in with your temporary password and change it on first use.\n\nBest regards,\nHR Team\n",
			user.Name, user.Role, user.ID))
}

func (s *SESEmailService) sendText(ctx context.Context, to, subject, body string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(body),
				},
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	return err
}

func (s *SESEmailService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	tracer := otel.Tracer("ses-email-service")
	ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	if userID := telemetry.GetUserIDFromContext(ctx); userID != 0 {
		span.SetAttributes(attribute.Int64("app.userId", userID))
	}
	return ctx, span
}

// buildRawMessage assembles a multipart/mixed RFC822 message with one text
// part and one PDF attachment, as SendRawEmail expects.
func buildRawMessage(from, to, subject, body, filename string, attachment []byte) []byte {
	const boundary = "payslip-part-boundary"

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(body)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: application/pdf\r\n")
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n\r\n", filename)

	encoded := base64.StdEncoding.EncodeToString(attachment)
	// RFC 2045 line-length limit.
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}
