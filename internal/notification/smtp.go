package notification

import (
	"context"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/Im-Moazzam/Ticketing-System/internal/config"
	"github.com/Im-Moazzam/Ticketing-System/internal/observability"
)

// SMTPSink delivers mail through an SMTP relay via gomail.
type SMTPSink struct {
	cfg     config.MailConfig
	dialer  *gomail.Dialer
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewSMTPSink constructs the sink from mail configuration.
func NewSMTPSink(cfg config.MailConfig, logger *zap.Logger, metrics *observability.Metrics) *SMTPSink {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPSink{cfg: cfg, dialer: dialer, logger: logger, metrics: metrics}
}

// Send delivers the message, bounded by ctx. gomail has no context support,
// so the dial-and-send runs in its own goroutine and is abandoned on timeout;
// the SMTP connection is torn down when the goroutine finishes.
func (s *SMTPSink) Send(ctx context.Context, subject string, recipients []string, body string) {
	if len(recipients) == 0 {
		return
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.FromAddress, s.cfg.FromName)
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			s.metrics.RecordMailDelivery(false)
			s.logger.Warn("email delivery failed",
				zap.String("subject", subject),
				zap.Strings("recipients", recipients),
				zap.Error(err),
			)
			return
		}
		s.metrics.RecordMailDelivery(true)
		s.logger.Debug("email delivered",
			zap.String("subject", subject),
			zap.Strings("recipients", recipients),
		)
	case <-ctx.Done():
		s.metrics.RecordMailDelivery(false)
		s.logger.Warn("email delivery timed out",
			zap.String("subject", subject),
			zap.Strings("recipients", recipients),
		)
	}
}
