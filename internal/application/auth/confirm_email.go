package auth

import (
	"context"
	"errors"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
)

var errTokenUserMismatch = errors.New("token issued for another user")

// ConfirmEmail consumes a confirm_email token and marks the email confirmed.
// Every token failure surfaces as the same invalid_token error.
func (s *Service) ConfirmEmail(ctx context.Context, transportToken, email string) (MessageResult, error) {
	u, err := s.findRegistered(ctx, email)
	if err != nil {
		return MessageResult{}, err
	}
	if u.EmailConfirmed {
		return MessageResult{}, domain.ErrAlreadyConfirmed()
	}

	if err := s.consumeFor(ctx, PurposeConfirmEmail, transportToken, u.ID); err != nil {
		return MessageResult{}, domain.ErrInvalidToken(err)
	}

	if err := s.users.SetEmailConfirmed(ctx, u.ID); err != nil {
		return MessageResult{}, domain.ErrInvalidToken(err)
	}
	s.audit("email_confirmed", map[string]string{"user_id": u.ID})

	return MessageResult{
		Title:   "Email confirmed",
		Message: "Your email address is confirmed. You can login now.",
	}, nil
}

// ResendConfirmationLink issues a fresh confirm_email token for an unconfirmed principal.
func (s *Service) ResendConfirmationLink(ctx context.Context, email string) (MessageResult, error) {
	if domain.NormalizeIdentity(email) == "" {
		return MessageResult{}, domain.ErrInvalidEmail()
	}

	u, err := s.findRegistered(ctx, email)
	if err != nil {
		return MessageResult{}, err
	}
	if u.EmailConfirmed {
		return MessageResult{}, domain.ErrAlreadyConfirmed()
	}

	if err := s.sendConfirmEmail(ctx, u); err != nil {
		return MessageResult{}, domain.ErrEmailSendFailed(err)
	}
	s.audit("confirmation_resent", map[string]string{"user_id": u.ID})

	return MessageResult{
		Title:   "Confirmation link sent",
		Message: "Please, confirm your email address.",
	}, nil
}

// findRegistered resolves a principal by email. Unknown emails are unauthorized.
func (s *Service) findRegistered(ctx context.Context, email string) (domain.User, error) {
	email = domain.NormalizeIdentity(email)
	if email == "" {
		return domain.User{}, domain.ErrEmailNotRegistered()
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.Is(err, domain.ErrUserNotFound().Code) {
			return domain.User{}, domain.ErrEmailNotRegistered()
		}
		return domain.User{}, err
	}
	return u, nil
}

// consumeFor decodes a transport token and consumes it for purpose, bound to userID.
func (s *Service) consumeFor(ctx context.Context, purpose TokenPurpose, transportToken, userID string) error {
	raw, err := DecodeTransportToken(transportToken)
	if err != nil {
		return err
	}
	owner, err := s.tokens.Consume(ctx, purpose, raw)
	if err != nil {
		return err
	}
	if owner != userID {
		return errTokenUserMismatch
	}
	return nil
}
