package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Producer struct {
	sender          MessageSender
	payslipQueueURL string
	alertQueueURL   string
}

func NewProducer(sender MessageSender, payslipQueueURL, alertQueueURL string) *Producer {
	return &Producer{
		sender:          sender,
		payslipQueueURL: payslipQueueURL,
		alertQueueURL:   alertQueueURL,
	}
}

func NewSQSProducer(client SQSClient, payslipQueueURL, alertQueueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, payslipQueueURL, alertQueueURL)
}

func (p *Producer) PublishPayslip(ctx context.Context, body interface{}) error {
	return p.publish(ctx, p.payslipQueueURL, body)
}

func (p *Producer) PublishAlert(ctx context.Context, body interface{}) error {
	return p.publish(ctx, p.alertQueueURL, body)
}

func (p *Producer) publish(ctx context.Context, destination string, body interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	// Enrich the current span with user_id if available
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		var payload struct {
			UserID int64 `json:"userId"`
		}
		if err := json.Unmarshal(b, &payload); err == nil && payload.UserID != 0 {
			span.SetAttributes(attribute.Int64("app.userId", payload.UserID))
		}
	}

	if err := p.sender.SendMessage(ctx, destination, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
