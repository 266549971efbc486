package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

type Service struct {
	users  UserRepo
	hasher PasswordHasher
	issuer SessionTokenIssuer
	tokens PurposeTokenStore
	mailer Mailer

	passwords PasswordPolicy
	links     LinkConfig

	confirmTTL time.Duration
	resetTTL   time.Duration

	now   func() time.Time
	audit func(action string, fields map[string]string)
}

// LinkConfig builds the client-side URLs embedded in emails.
type LinkConfig struct {
	ClientURL         string // e.g. http://localhost:4200
	ConfirmEmailPath  string // e.g. account/confirm-email
	ResetPasswordPath string // e.g. account/reset-password
	ApplicationName   string
}

type Config struct {
	Links           LinkConfig
	ConfirmTokenTTL time.Duration
	ResetTokenTTL   time.Duration
	MinPasswordLen  int
}

func NewService(
	users UserRepo,
	hasher PasswordHasher,
	issuer SessionTokenIssuer,
	tokens PurposeTokenStore,
	mailer Mailer,
	cfg Config,
) *Service {
	confirmTTL := cfg.ConfirmTokenTTL
	if confirmTTL <= 0 {
		confirmTTL = 24 * time.Hour
	}
	resetTTL := cfg.ResetTokenTTL
	if resetTTL <= 0 {
		resetTTL = 30 * time.Minute
	}
	links := cfg.Links
	links.ClientURL = strings.TrimRight(links.ClientURL, "/")
	links.ConfirmEmailPath = strings.Trim(links.ConfirmEmailPath, "/")
	links.ResetPasswordPath = strings.Trim(links.ResetPasswordPath, "/")

	return &Service{
		users:  users,
		hasher: hasher,
		issuer: issuer,
		tokens: tokens,
		mailer: mailer,

		passwords: NewPasswordPolicy(cfg.MinPasswordLen),
		links:     links,

		confirmTTL: confirmTTL,
		resetTTL:   resetTTL,

		now:   time.Now,
		audit: func(string, map[string]string) {},
	}
}

func (s *Service) WithAudit(fn func(action string, fields map[string]string)) *Service {
	if fn != nil {
		s.audit = fn
	}
	return s
}

// WithClock overrides the time source used for lockout checks.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// SessionResult is returned by login and refresh.
type SessionResult struct {
	FirstName string
	LastName  string
	JWT       string
}

// MessageResult is the title/message pair shown to the user after an account action.
type MessageResult struct {
	Title   string
	Message string
}

// newOpaqueToken returns a URL-safe opaque token.
func newOpaqueToken(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		return "", errors.New("invalid token length")
	}
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// EncodeTransportToken wraps a stored token for use in a link query string.
func EncodeTransportToken(raw string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeTransportToken reverses EncodeTransportToken. Padded input is accepted.
func DecodeTransportToken(s string) (string, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "=")
	if s == "" {
		return "", errors.New("empty token")
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
