package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Key prefixes written by this package.
const (
	PurposeTokenPattern = "ptok:*"
	RateLimitPattern    = "rl:*"
)

type KeyInfo struct {
	Key     string
	TTL     time.Duration
	Value   string
	Deleted bool
}

// Inspect walks keys matching pattern with SCAN and reports each one to fn.
// With del set every visited key is removed after it is reported.
func (c *Client) Inspect(ctx context.Context, pattern string, count int64, del bool, fn func(KeyInfo)) (int, error) {
	if count <= 0 {
		count = 200
	}

	var cursor uint64
	total := 0
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, count).Result()
		if err != nil {
			return total, err
		}

		for _, k := range keys {
			info := KeyInfo{Key: k}

			v, err := c.rdb.Get(ctx, k).Result()
			if err != nil && !errors.Is(err, goredis.Nil) {
				return total, err
			}
			info.Value = v
			info.TTL, _ = c.rdb.TTL(ctx, k).Result()

			if del {
				if err := c.rdb.Del(ctx, k).Err(); err != nil {
					return total, err
				}
				info.Deleted = true
			}

			total++
			fn(info)
		}

		cursor = next
		if cursor == 0 {
			return total, nil
		}
	}
}
