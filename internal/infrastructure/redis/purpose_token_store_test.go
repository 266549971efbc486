package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/application/auth"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
)

func newMiniClient(t *testing.T) (*miniredis.Miniredis, *Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestPurposeTokens_Save_Validation(t *testing.T) {
	t.Parallel()

	s := NewPurposeTokenStore(nil)
	ctx := context.Background()

	if err := s.Save(ctx, auth.PurposeConfirmEmail, "", "u1", time.Minute); !isMissingField(err, "token") {
		t.Fatalf("expected missing_field(token), got %v", err)
	}
	if err := s.Save(ctx, auth.PurposeConfirmEmail, "tok", "", time.Minute); !isMissingField(err, "user_id") {
		t.Fatalf("expected missing_field(user_id), got %v", err)
	}
	if err := s.Save(ctx, auth.PurposeConfirmEmail, "tok", "u1", 0); !isMissingField(err, "ttl") {
		t.Fatalf("expected missing_field(ttl), got %v", err)
	}
	if _, err := s.Consume(ctx, auth.PurposeConfirmEmail, " "); !isMissingField(err, "token") {
		t.Fatalf("expected missing_field(token), got %v", err)
	}
}

func TestPurposeTokens_NotConfigured(t *testing.T) {
	t.Parallel()

	s := NewPurposeTokenStore(nil)
	if err := s.Save(context.Background(), auth.PurposeConfirmEmail, "tok", "u1", time.Minute); err != errStoreNotConfigured {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Consume(context.Background(), auth.PurposeConfirmEmail, "tok"); err != errStoreNotConfigured {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPurposeTokens_SaveConsume_SingleUse(t *testing.T) {
	t.Parallel()

	mr, c := newMiniClient(t)
	s := NewPurposeTokenStore(c)
	ctx := context.Background()

	if err := s.Save(ctx, auth.PurposeConfirmEmail, "tok", "u1", time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("ptok:confirm_email:tok") {
		t.Fatalf("expected key stored under purpose prefix")
	}
	if ttl := mr.TTL("ptok:confirm_email:tok"); ttl != time.Hour {
		t.Fatalf("expected ttl 1h, got %v", ttl)
	}

	uid, err := s.Consume(ctx, auth.PurposeConfirmEmail, "tok")
	if err != nil || uid != "u1" {
		t.Fatalf("expected u1, got %q (%v)", uid, err)
	}

	_, err = s.Consume(ctx, auth.PurposeConfirmEmail, "tok")
	if !domain.Is(err, "token_invalid") {
		t.Fatalf("expected token_invalid on reuse, got %v", err)
	}
}

func TestPurposeTokens_PurposeIsolation(t *testing.T) {
	t.Parallel()

	_, c := newMiniClient(t)
	s := NewPurposeTokenStore(c)
	ctx := context.Background()

	if err := s.Save(ctx, auth.PurposeResetPassword, "tok", "u1", time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := s.Consume(ctx, auth.PurposeConfirmEmail, "tok"); !domain.Is(err, "token_invalid") {
		t.Fatalf("expected token_invalid across purposes, got %v", err)
	}
	if uid, err := s.Consume(ctx, auth.PurposeResetPassword, "tok"); err != nil || uid != "u1" {
		t.Fatalf("expected reset token still valid, got %q (%v)", uid, err)
	}
}

func TestPurposeTokens_Expired(t *testing.T) {
	t.Parallel()

	mr, c := newMiniClient(t)
	s := NewPurposeTokenStore(c)
	ctx := context.Background()

	if err := s.Save(ctx, auth.PurposeResetPassword, "tok", "u1", 30*time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	mr.FastForward(31 * time.Minute)

	if _, err := s.Consume(ctx, auth.PurposeResetPassword, "tok"); !domain.Is(err, "token_invalid") {
		t.Fatalf("expected token_invalid after expiry, got %v", err)
	}
}

func TestPurposeTokens_ConcurrentConsume_OnlyOneWins(t *testing.T) {
	t.Parallel()

	_, c := newMiniClient(t)
	s := NewPurposeTokenStore(c)
	ctx := context.Background()

	if err := s.Save(ctx, auth.PurposeConfirmEmail, "tok", "u1", time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Consume(ctx, auth.PurposeConfirmEmail, "tok"); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one successful consume, got %d", wins)
	}
}

func TestPurposeTokens_RedisDown(t *testing.T) {
	t.Parallel()

	mr, c := newMiniClient(t)
	s := NewPurposeTokenStore(c)
	mr.Close()

	err := s.Save(context.Background(), auth.PurposeConfirmEmail, "tok", "u1", time.Minute)
	if !domain.Is(err, "redis_unavailable") {
		t.Fatalf("expected redis_unavailable, got %v", err)
	}
}

func TestPurposeTokens_RevokeAll(t *testing.T) {
	t.Parallel()

	mr, c := newMiniClient(t)
	s := NewPurposeTokenStore(c)
	ctx := context.Background()

	for _, tok := range []string{"r1", "r2"} {
		if err := s.Save(ctx, auth.PurposeResetPassword, tok, "u1", 30*time.Minute); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	_ = s.Save(ctx, auth.PurposeResetPassword, "r3", "u2", 30*time.Minute)
	_ = s.Save(ctx, auth.PurposeConfirmEmail, "c1", "u1", time.Hour)

	if ttl := mr.TTL("ptokidx:reset_password:u1"); ttl != 30*time.Minute {
		t.Fatalf("expected index ttl 30m, got %v", ttl)
	}

	if err := s.RevokeAll(ctx, auth.PurposeResetPassword, "u1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if mr.Exists("ptok:reset_password:r1") || mr.Exists("ptok:reset_password:r2") || mr.Exists("ptokidx:reset_password:u1") {
		t.Fatalf("expected u1 reset tokens and index removed")
	}
	if uid, err := s.Consume(ctx, auth.PurposeResetPassword, "r3"); err != nil || uid != "u2" {
		t.Fatalf("other user's token should survive, got %q (%v)", uid, err)
	}
	if uid, err := s.Consume(ctx, auth.PurposeConfirmEmail, "c1"); err != nil || uid != "u1" {
		t.Fatalf("other purpose should survive, got %q (%v)", uid, err)
	}

	// nothing left to revoke
	if err := s.RevokeAll(ctx, auth.PurposeResetPassword, "u1"); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
}

func TestPurposeTokens_RevokeAll_Errors(t *testing.T) {
	t.Parallel()

	if err := NewPurposeTokenStore(nil).RevokeAll(context.Background(), auth.PurposeResetPassword, "u1"); err != errStoreNotConfigured {
		t.Fatalf("unexpected error: %v", err)
	}

	mr, c := newMiniClient(t)
	s := NewPurposeTokenStore(c)
	if err := s.RevokeAll(context.Background(), auth.PurposeResetPassword, " "); !isMissingField(err, "user_id") {
		t.Fatalf("expected missing_field(user_id), got %v", err)
	}
	mr.Close()
	if err := s.RevokeAll(context.Background(), auth.PurposeResetPassword, "u1"); !domain.Is(err, "redis_unavailable") {
		t.Fatalf("expected redis_unavailable, got %v", err)
	}
}
