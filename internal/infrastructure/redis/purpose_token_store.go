package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/application/auth"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
)

var errStoreNotConfigured = errors.New("redis purpose token store not configured")

// consumeScript reads and deletes a key in one step so a token can only be used once.
var consumeScript = goredis.NewScript(`
local v = redis.call("GET", KEYS[1])
if not v then
  return false
end
redis.call("DEL", KEYS[1])
return v
`)

// revokeScript deletes every token listed in a user's index set, then the set.
// ARGV[1] is the token key prefix for the purpose.
var revokeScript = goredis.NewScript(`
local toks = redis.call("SMEMBERS", KEYS[1])
for _, t in ipairs(toks) do
  redis.call("DEL", ARGV[1] .. t)
end
redis.call("DEL", KEYS[1])
return #toks
`)

// PurposeTokenStore keeps single-use tokens under ptok:{purpose}:{token} with a TTL.
// Tokens are also indexed per user under ptokidx:{purpose}:{userID} so they can be revoked together.
type PurposeTokenStore struct {
	rdb       *goredis.Client
	prefix    string
	idxPrefix string
}

func NewPurposeTokenStore(c *Client) *PurposeTokenStore {
	var rdb *goredis.Client
	if c != nil {
		rdb = c.rdb
	}
	return &PurposeTokenStore{rdb: rdb, prefix: "ptok:", idxPrefix: "ptokidx:"}
}

func (s *PurposeTokenStore) Save(ctx context.Context, purpose auth.TokenPurpose, token string, userID string, ttl time.Duration) error {
	token = strings.TrimSpace(token)
	userID = strings.TrimSpace(userID)
	if token == "" {
		return domain.ErrMissingField("token")
	}
	if userID == "" {
		return domain.ErrMissingField("user_id")
	}
	if ttl <= 0 {
		return domain.ErrMissingField("ttl")
	}
	if s.rdb == nil {
		return errStoreNotConfigured
	}

	idx := s.indexKey(purpose, userID)
	_, err := s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, s.key(purpose, token), userID, ttl)
		p.SAdd(ctx, idx, token)
		p.Expire(ctx, idx, ttl)
		return nil
	})
	if err != nil {
		return domain.ErrRedisUnavailable(err)
	}
	return nil
}

func (s *PurposeTokenStore) Consume(ctx context.Context, purpose auth.TokenPurpose, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.ErrMissingField("token")
	}
	if s.rdb == nil {
		return "", errStoreNotConfigured
	}

	uid, err := consumeScript.Run(ctx, s.rdb, []string{s.key(purpose, token)}).Text()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			// not found, expired or already consumed
			return "", domain.ErrTokenInvalid()
		}
		return "", domain.ErrRedisUnavailable(err)
	}

	uid = strings.TrimSpace(uid)
	if uid == "" {
		return "", domain.ErrTokenInvalid()
	}
	return uid, nil
}

func (s *PurposeTokenStore) RevokeAll(ctx context.Context, purpose auth.TokenPurpose, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.ErrMissingField("user_id")
	}
	if s.rdb == nil {
		return errStoreNotConfigured
	}

	keyPrefix := s.prefix + string(purpose) + ":"
	if err := revokeScript.Run(ctx, s.rdb, []string{s.indexKey(purpose, userID)}, keyPrefix).Err(); err != nil {
		return domain.ErrRedisUnavailable(err)
	}
	return nil
}

func (s *PurposeTokenStore) indexKey(purpose auth.TokenPurpose, userID string) string {
	return s.idxPrefix + string(purpose) + ":" + userID
}

func (s *PurposeTokenStore) key(purpose auth.TokenPurpose, token string) string {
	return s.prefix + string(purpose) + ":" + token
}
