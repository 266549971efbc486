package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
)

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register creates an unconfirmed principal and sends the confirmation email.
// The account is kept when the email cannot be sent.
func (s *Service) Register(ctx context.Context, in RegisterInput) (MessageResult, error) {
	email := domain.NormalizeIdentity(in.Email)
	if email == "" {
		return MessageResult{}, domain.ErrMissingField("email")
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return MessageResult{}, err
	}
	if exists {
		return MessageResult{}, domain.ErrDuplicateEmail(email)
	}

	if errs := s.passwords.Validate(in.Password); len(errs) > 0 {
		return MessageResult{}, domain.ErrPasswordPolicy(errs)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return MessageResult{}, domain.ErrHashFailed(err)
	}

	u := domain.User{
		ID:             uuid.NewString(),
		UserName:       email,
		Email:          email,
		FirstName:      domain.NormalizeIdentity(in.FirstName),
		LastName:       domain.NormalizeIdentity(in.LastName),
		PasswordHash:   hash,
		EmailConfirmed: false,
		CreatedAt:      s.now().UTC(),
	}

	created, err := s.users.Create(ctx, u)
	if err != nil {
		return MessageResult{}, err
	}
	s.audit("register", map[string]string{"user_id": created.ID, "email": created.Email})

	if err := s.sendConfirmEmail(ctx, created); err != nil {
		return MessageResult{}, domain.ErrEmailSendFailed(err)
	}

	return MessageResult{
		Title:   "New Account Created!",
		Message: "Your account has been created, please confirm your email address.",
	}, nil
}
