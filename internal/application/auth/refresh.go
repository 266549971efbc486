package auth

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
)

// RefreshSession re-resolves the caller by the email claim of a still-valid
// session token and issues a fresh one. Password and confirmation are not re-checked.
func (s *Service) RefreshSession(ctx context.Context, p domain.Principal) (SessionResult, error) {
	email := domain.NormalizeIdentity(p.Email)
	if email == "" {
		if vals := p.ClaimValues(domain.ClaimEmail); len(vals) > 0 {
			email = domain.NormalizeIdentity(vals[0])
		}
	}
	if email == "" {
		return SessionResult{}, domain.ErrInvalidCredentials()
	}

	// The principal may have been deleted since the token was issued.
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return SessionResult{}, domain.ErrInvalidCredentials().WithCause(err)
	}

	if u.IsLockedOut(s.now()) {
		return SessionResult{}, domain.ErrLockedOut()
	}

	res, err := s.session(u)
	if err != nil {
		return SessionResult{}, err
	}
	s.audit("session_refreshed", map[string]string{"user_id": u.ID})
	return res, nil
}
