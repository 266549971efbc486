package auth

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
)

// ForgotUsernameOrPassword emails a reset_password link that also reminds
// the principal of their user name.
func (s *Service) ForgotUsernameOrPassword(ctx context.Context, email string) (MessageResult, error) {
	if domain.NormalizeIdentity(email) == "" {
		return MessageResult{}, domain.ErrInvalidEmail()
	}

	u, err := s.findRegistered(ctx, email)
	if err != nil {
		return MessageResult{}, err
	}
	if !u.EmailConfirmed {
		return MessageResult{}, domain.ErrEmailConfirmationRequired()
	}

	if err := s.sendResetEmail(ctx, u); err != nil {
		return MessageResult{}, domain.ErrEmailSendFailed(err)
	}
	s.audit("password_reset_requested", map[string]string{"user_id": u.ID})

	return MessageResult{
		Title:   "Forgot username or password email sent.",
		Message: "Please, check your email.",
	}, nil
}

type ResetPasswordInput struct {
	Token       string
	Email       string
	NewPassword string
}

// ResetPassword consumes a reset_password token and replaces the password hash.
// The token is only consumed once the new password passes the policy. After a
// successful reset every other reset link sent to the principal stops working.
func (s *Service) ResetPassword(ctx context.Context, in ResetPasswordInput) (MessageResult, error) {
	u, err := s.findRegistered(ctx, in.Email)
	if err != nil {
		return MessageResult{}, err
	}
	if !u.EmailConfirmed {
		return MessageResult{}, domain.ErrEmailConfirmationRequired()
	}

	if errs := s.passwords.Validate(in.NewPassword); len(errs) > 0 {
		return MessageResult{}, domain.ErrPasswordPolicy(errs)
	}

	if err := s.consumeFor(ctx, PurposeResetPassword, in.Token, u.ID); err != nil {
		return MessageResult{}, domain.ErrInvalidToken(err)
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return MessageResult{}, domain.ErrInvalidToken(err)
	}
	if err := s.users.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
		return MessageResult{}, domain.ErrInvalidToken(err)
	}
	if err := s.tokens.RevokeAll(ctx, PurposeResetPassword, u.ID); err != nil {
		s.audit("password_reset_links_revoke", map[string]string{"user_id": u.ID, "result": "error", "error": err.Error()})
	}
	s.audit("password_reset", map[string]string{"user_id": u.ID})

	return MessageResult{
		Title:   "Password reset success",
		Message: "Your password has been reset.",
	}, nil
}
