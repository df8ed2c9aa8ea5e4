// Package notification delivers outbound email. Delivery is best-effort:
// failures are logged for operator visibility and never surface to the
// triggering operation.
package notification

import (
	"context"

	"go.uber.org/zap"
)

// Sink accepts a message for delivery. Implementations never return an
// error; a failed send is logged and dropped.
type Sink interface {
	Send(ctx context.Context, subject string, recipients []string, body string)
}

// LogSink is the fallback used when SMTP is not configured. Every message is
// written to the log instead of being delivered.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink builds the logging sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Send logs the would-be delivery.
func (s *LogSink) Send(_ context.Context, subject string, recipients []string, body string) {
	s.logger.Info("email delivery skipped (smtp not configured)",
		zap.String("subject", subject),
		zap.Strings("recipients", recipients),
		zap.Int("body_bytes", len(body)),
	)
}
