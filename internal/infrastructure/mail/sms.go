package mail

import (
	"context"

	"procura/internal/domain/notification"
	"procura/pkg/logger"
)

// LogSMSSender is a gateway stub that records outbound SMS in the log.
// Swap in a real gateway implementation behind notification.SMSSender
// when one is provisioned.
type LogSMSSender struct{}

var _ notification.SMSSender = LogSMSSender{}

// SendSMS logs the message instead of sending it.
func (LogSMSSender) SendSMS(ctx context.Context, to, body string) error {
	logger.Info(ctx, "sms dispatched via log gateway", "to", to, "length", len(body))
	return nil
}
