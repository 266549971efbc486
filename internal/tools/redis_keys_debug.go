// Command redis_keys_debug lists, and optionally deletes, the purpose tokens
// and rate-limit windows the identity service keeps in Redis.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/infrastructure/redis"
)

func main() {
	var (
		addr    = flag.String("addr", "127.0.0.1:6379", "redis address host:port")
		pass    = flag.String("pass", "", "redis password")
		db      = flag.Int("db", 0, "redis db")
		pattern = flag.String("pattern", redis.PurposeTokenPattern, "scan pattern (ptok:* or rl:*)")
		doDel   = flag.Bool("del", false, "delete matched keys")
		count   = flag.Int64("count", 200, "SCAN COUNT hint")
		timeout = flag.Duration("timeout", 10*time.Second, "overall timeout")
	)
	flag.Parse()

	c := redis.New(*addr, *pass, *db)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := c.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "redis ping failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Connected: addr=%s db=%d pattern=%q\n", *addr, *db, *pattern)

	total, err := c.Inspect(ctx, *pattern, *count, *doDel, func(k redis.KeyInfo) {
		fmt.Printf("%s\n   ttl=%s\n   val=%q\n", k.Key, k.TTL, k.Value)
		if k.Deleted {
			fmt.Println("   deleted")
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
		os.Exit(1)
	}
	if total == 0 {
		fmt.Println("No keys matched.")
	}
}
