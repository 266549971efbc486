package redis

import (
	"context"
	"testing"
	"time"
)

func TestFixedWindowLimiter_RedisNil_Allows(t *testing.T) {
	l := NewFixedWindowLimiter(nil)

	d, err := l.AllowFixedWindow(context.Background(), "k", 10, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("expected allowed when redis disabled")
	}
	if d.Remaining != 10 {
		t.Fatalf("unexpected remaining: %d", d.Remaining)
	}
}

func TestFixedWindowLimiter_LimitZero_Allows(t *testing.T) {
	l := NewFixedWindowLimiter(nil)

	d, _ := l.AllowFixedWindow(context.Background(), "k", 0, time.Minute)
	if !d.Allowed {
		t.Fatalf("limit=0 should allow")
	}
}

func TestFixedWindowLimiter_Miniredis_BlocksAfterLimit(t *testing.T) {
	t.Parallel()

	mr, c := newMiniClient(t)
	l := NewFixedWindowLimiter(c)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d, err := l.AllowFixedWindow(ctx, "rl:login:1.2.3.4:0", 3, time.Minute)
		if err != nil {
			t.Fatalf("hit %d: %v", i, err)
		}
		if !d.Allowed || d.Remaining != 3-i || d.Count != i {
			t.Fatalf("hit %d: unexpected decision %+v", i, d)
		}
	}

	d, err := l.AllowFixedWindow(ctx, "rl:login:1.2.3.4:0", 3, time.Minute)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if d.Allowed || d.RetryAfter <= 0 || d.Remaining != 0 {
		t.Fatalf("expected blocked with retry-after, got %+v", d)
	}

	mr.FastForward(time.Minute + time.Second)
	d, _ = l.AllowFixedWindow(ctx, "rl:login:1.2.3.4:0", 3, time.Minute)
	if !d.Allowed || d.Count != 1 {
		t.Fatalf("expected new window, got %+v", d)
	}
}

func TestFixedWindowLimiter_RedisDown_ReturnsError(t *testing.T) {
	t.Parallel()

	mr, c := newMiniClient(t)
	l := NewFixedWindowLimiter(c)
	mr.Close()

	if _, err := l.AllowFixedWindow(context.Background(), "k", 1, time.Minute); err == nil {
		t.Fatalf("expected error when redis is down")
	}
}
