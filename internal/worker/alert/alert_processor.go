package alert

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"

	"payroll.service/internal/core"
	"payroll.service/internal/ports/messaging"
)

// retryDelaySeconds is the flat redelivery delay for failed alerts; they are
// best-effort and carry no database state, so there is no backoff bookkeeping.
const retryDelaySeconds = 30

// Processor delivers early-logout alerts to reporting managers.
type Processor struct {
	mailer core.EmailService
}

func NewProcessor(mailer core.EmailService) *Processor {
	return &Processor{mailer: mailer}
}

// Process handles one message from the alert queue.
func (p *Processor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.EarlyLogoutEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal early-logout event")
		return false, 0, err // Do not retry on malformed message
	}

	if event.ManagerEmail == "" {
		return false, 0, nil
	}

	if err := p.mailer.SendEarlyLogoutAlert(ctx, event.ManagerEmail, event.EmployeeName, event.Reason); err != nil {
		return true, retryDelaySeconds, err
	}
	return false, 0, nil
}
