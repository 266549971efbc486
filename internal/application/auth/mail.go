package auth

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"time"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
)

const (
	subjectConfirmEmail = "Confirm your email."
	subjectForgot       = "Forgot username or password."
)

func (s *Service) sendConfirmEmail(ctx context.Context, u domain.User) error {
	link, err := s.issueLink(ctx, PurposeConfirmEmail, u, s.links.ConfirmEmailPath, s.confirmTTL)
	if err != nil {
		return err
	}
	body := fmt.Sprintf(
		"<p>Hello: %s %s</p><p>Please confirm your email address by clicking on the following link.</p>"+
			"<p><a href=\"%s\">Click here</a></p><br>%s",
		html.EscapeString(u.FirstName), html.EscapeString(u.LastName),
		html.EscapeString(link), s.signature(),
	)
	return s.mailer.Send(ctx, EmailMessage{To: u.Email, Subject: subjectConfirmEmail, HTMLBody: body})
}

func (s *Service) sendResetEmail(ctx context.Context, u domain.User) error {
	link, err := s.issueLink(ctx, PurposeResetPassword, u, s.links.ResetPasswordPath, s.resetTTL)
	if err != nil {
		return err
	}
	body := fmt.Sprintf(
		"<p>Hello: %s %s</p><p>Username: %s.</p><p>In order to reset your password, please click on the following link.</p>"+
			"<p><a href=\"%s\">Click here</a></p><br>%s",
		html.EscapeString(u.FirstName), html.EscapeString(u.LastName), html.EscapeString(u.UserName),
		html.EscapeString(link), s.signature(),
	)
	return s.mailer.Send(ctx, EmailMessage{To: u.Email, Subject: subjectForgot, HTMLBody: body})
}

func (s *Service) signature() string {
	return "<p>Thank you,</p><p>" + html.EscapeString(s.links.ApplicationName) + "</p>"
}

// issueLink saves a fresh purpose token for u and returns the client URL carrying it.
func (s *Service) issueLink(ctx context.Context, purpose TokenPurpose, u domain.User, path string, ttl time.Duration) (string, error) {
	raw, err := newOpaqueToken(32)
	if err != nil {
		return "", domain.ErrRandomFailed(err)
	}
	if err := s.tokens.Save(ctx, purpose, raw, u.ID, ttl); err != nil {
		return "", err
	}
	return s.buildLink(path, EncodeTransportToken(raw), u.Email), nil
}

// buildLink renders {ClientURL}/{path}?token={token}&email={email}.
func (s *Service) buildLink(path, token, email string) string {
	return fmt.Sprintf("%s/%s?token=%s&email=%s",
		s.links.ClientURL, path, url.QueryEscape(token), url.QueryEscape(email))
}
