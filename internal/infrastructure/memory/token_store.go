package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/application/auth"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
)

type tokenEntry struct {
	purpose   auth.TokenPurpose
	userID    string
	expiresAt time.Time
}

// PurposeTokenStore keeps single-use tokens in process. Expired entries are
// swept on every Save.
type PurposeTokenStore struct {
	mu   sync.Mutex
	data map[string]tokenEntry // purpose|token -> entry
	now  func() time.Time
}

func NewPurposeTokenStore() *PurposeTokenStore {
	return &PurposeTokenStore{data: make(map[string]tokenEntry), now: time.Now}
}

func tokenKey(purpose auth.TokenPurpose, token string) string {
	return string(purpose) + "|" + token
}

func (s *PurposeTokenStore) Save(ctx context.Context, purpose auth.TokenPurpose, token string, userID string, ttl time.Duration) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ErrMissingField("token")
	}
	if strings.TrimSpace(userID) == "" {
		return domain.ErrMissingField("user_id")
	}
	if ttl <= 0 {
		return domain.ErrMissingField("ttl")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)
	s.data[tokenKey(purpose, token)] = tokenEntry{purpose: purpose, userID: userID, expiresAt: now.Add(ttl)}
	return nil
}

func (s *PurposeTokenStore) Consume(ctx context.Context, purpose auth.TokenPurpose, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := tokenKey(purpose, strings.TrimSpace(token))
	e, ok := s.data[k]
	if !ok {
		return "", domain.ErrTokenInvalid()
	}
	delete(s.data, k)
	if !s.now().Before(e.expiresAt) {
		return "", domain.ErrTokenInvalid()
	}
	return e.userID, nil
}

func (s *PurposeTokenStore) RevokeAll(ctx context.Context, purpose auth.TokenPurpose, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, e := range s.data {
		if e.purpose == purpose && e.userID == userID {
			delete(s.data, k)
		}
	}
	return nil
}

// Len reports how many entries are held, expired ones included.
func (s *PurposeTokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

func (s *PurposeTokenStore) sweepLocked(now time.Time) {
	for k, e := range s.data {
		if !now.Before(e.expiresAt) {
			delete(s.data, k)
		}
	}
}
