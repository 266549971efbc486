package email

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/application/auth"
)

// LogSender writes messages to the log instead of delivering them.
// Used when EMAIL_TRANSPORT=log; the last message is kept for inspection.
type LogSender struct {
	lg zerolog.Logger

	mu   sync.Mutex
	last *auth.EmailMessage
}

func NewLogSender(lg zerolog.Logger) *LogSender {
	return &LogSender{lg: lg.With().Str("component", "log_sender").Logger()}
}

func (s *LogSender) Send(ctx context.Context, msg auth.EmailMessage) error {
	s.mu.Lock()
	m := msg
	s.last = &m
	s.mu.Unlock()

	s.lg.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.HTMLBody).
		Msg("FAKE send email")
	return nil
}

func (s *LogSender) Last() (auth.EmailMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return auth.EmailMessage{}, false
	}
	return *s.last, true
}
