package email

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/application/auth"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
	Insecure bool
}

// SMTPSender delivers account emails over SMTP.
type SMTPSender struct {
	lg  zerolog.Logger
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig, lg zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		lg:  lg.With().Str("component", "smtp_sender").Logger(),
		cfg: cfg,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg auth.EmailMessage) error {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	m, err := buildMsg(s.cfg.From, msg)
	if err != nil {
		return err
	}

	tlsPolicy := mail.TLSMandatory
	if s.cfg.Insecure {
		tlsPolicy = mail.TLSOpportunistic
	}
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(tlsPolicy),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	c, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return PermanentError{msg: "smtp client init failed: " + err.Error()}
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		s.lg.Error().Err(err).Str("subject", msg.Subject).Msg("smtp send failed")
		return classifySendError(err)
	}

	s.lg.Info().Str("subject", msg.Subject).Msg("smtp send ok")
	return nil
}

func buildMsg(from string, msg auth.EmailMessage) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, PermanentError{msg: "invalid from address: " + err.Error()}
	}
	if err := m.To(msg.To); err != nil {
		return nil, PermanentError{msg: "invalid to address: " + err.Error()}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
	return m, nil
}

func classifySendError(err error) error {
	s := err.Error()
	if containsAny(s, "535", "5.7.8", "authentication", "Username and Password not accepted") {
		return PermanentError{msg: "smtp auth failed: " + s}
	}
	return TemporaryError{msg: "smtp transient failure: " + s}
}

func containsAny(s string, subs ...string) bool {
	for _, x := range subs {
		if x != "" && strings.Contains(s, x) {
			return true
		}
	}
	return false
}
