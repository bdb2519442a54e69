package payslip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"payroll.service/internal/core"
	"payroll.service/internal/core/model"
	"payroll.service/internal/payslip"
	"payroll.service/internal/ports/messaging"
	"payroll.service/internal/ports/repository"
	"payroll.service/internal/worker"
)

// Processor handles jobs from the payslip queue: it renders the payslip PDF
// and delivers it by email. A circuit breaker protects the mail provider from
// being hammered when it is struggling.
type Processor struct {
	repo     repository.Repository
	renderer *payslip.Renderer
	mailer   core.EmailService
	cb       *gobreaker.CircuitBreaker
}

// NewProcessor creates a new processor for the payslip queue.
func NewProcessor(repo repository.Repository, renderer *payslip.Renderer, mailer core.EmailService) *Processor {
	settings := gobreaker.Settings{
		Name:        "SES-Payslip",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate exceeds 50% after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
	}

	return &Processor{
		repo:     repo,
		renderer: renderer,
		mailer:   mailer,
		cb:       gobreaker.NewCircuitBreaker(settings),
	}
}

// Process is the main entry point for handling a message from the payslip
// queue. Delivery failures are retried with exponential backoff; anything
// unrecoverable (malformed message, vanished user) is dropped.
func (p *Processor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.PayslipEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal payslip event")
		return false, 0, err // Do not retry on malformed message
	}

	record, err := p.repo.GetPayrollRecord(ctx, event.UserID, event.WeekStart)
	if err != nil {
		return true, 10, fmt.Errorf("failed to load payroll record: %w", err)
	}
	if record == nil {
		return false, 0, fmt.Errorf("no payroll record for user %d week %s", event.UserID, event.WeekStart.Format("2006-01-02"))
	}

	if record.PayslipStatus == model.PayslipCompleted {
		log.Ctx(ctx).Info().Int64("user_id", event.UserID).Msg("Payslip already delivered. Skipping.")
		return false, 0, nil
	}

	user, err := p.repo.FindUser(ctx, event.UserID)
	if err != nil {
		return true, 10, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || user.Email == "" {
		// Offboarded or contactless user; nothing to deliver to.
		log.Ctx(ctx).Warn().Int64("user_id", event.UserID).Msg("No recipient for payslip. Dropping.")
		return false, 0, nil
	}

	pdf, err := p.renderer.Render(*record, *user)
	if err != nil {
		// Rendering is deterministic; retrying the same input cannot help.
		return false, 0, err
	}

	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.mailer.SendPayslip(ctx, user.Email, *record, pdf)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			log.Ctx(ctx).Warn().Msg("Circuit breaker is OPEN; skipping SES call")
		}
		newCount := record.PayslipRetryCount + 1
		p.repo.UpdatePayslipStatus(ctx, event.UserID, event.WeekStart, model.PayslipPending, newCount)

		return true, worker.CalculateBackoff(newCount), err
	}

	err = p.repo.UpdatePayslipStatus(ctx, event.UserID, event.WeekStart, model.PayslipCompleted, 0)
	return false, 0, err
}
