package auth

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
)

// Login authenticates by user name and password and issues a session token.
// IMPORTANT: unknown user and wrong password share one error to avoid enumeration.
func (s *Service) Login(ctx context.Context, userName, password string) (SessionResult, error) {
	userName = domain.NormalizeIdentity(userName)
	if userName == "" || password == "" {
		return SessionResult{}, domain.ErrInvalidCredentials()
	}

	u, err := s.users.GetByUserName(ctx, userName)
	if err != nil {
		return SessionResult{}, domain.ErrInvalidCredentials().WithCause(err)
	}

	if !u.EmailConfirmed {
		return SessionResult{}, domain.ErrEmailNotConfirmed()
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		derr := domain.ErrInvalidCredentials()
		s.audit("login_failed", map[string]string{"user_id": u.ID, "reason": domainCode(derr)})
		return SessionResult{}, derr
	}

	// Lockout is only reported once the password is known to be right.
	if u.IsLockedOut(s.now()) {
		s.audit("login_locked_out", map[string]string{"user_id": u.ID})
		return SessionResult{}, domain.ErrLockedOut()
	}

	res, err := s.session(u)
	if err != nil {
		s.audit("login_failed", map[string]string{"user_id": u.ID, "reason": domainCode(err)})
		return SessionResult{}, err
	}
	s.audit("login", map[string]string{"user_id": u.ID})
	return res, nil
}

func (s *Service) session(u domain.User) (SessionResult, error) {
	tok, err := s.issuer.CreateSessionToken(u)
	if err != nil {
		return SessionResult{}, domain.ErrTokenSignFailed(err)
	}
	return SessionResult{FirstName: u.FirstName, LastName: u.LastName, JWT: tok}, nil
}
