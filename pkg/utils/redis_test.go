package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestAcquireLock_SingleOwner(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	token, ok, err := AcquireLock(ctx, rdb, "classify:c1", time.Minute)
	if err != nil || !ok || token == "" {
		t.Fatalf("expected first acquire to succeed, got %q %v %v", token, ok, err)
	}
	if _, ok, err := AcquireLock(ctx, rdb, "classify:c1", time.Minute); err != nil || ok {
		t.Fatalf("expected second acquire to be rejected, got %v %v", ok, err)
	}

	released, err := ReleaseLock(ctx, rdb, "classify:c1", token)
	if err != nil || !released {
		t.Fatalf("release: %v %v", released, err)
	}
	if _, ok, err := AcquireLock(ctx, rdb, "classify:c1", time.Minute); err != nil || !ok {
		t.Fatalf("expected acquire after release, got %v %v", ok, err)
	}
}

func TestReleaseLock_KeepsLockTakenAfterExpiry(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()

	stale, ok, err := AcquireLock(ctx, rdb, "classify:c1", time.Second)
	if err != nil || !ok {
		t.Fatalf("acquire: %v %v", ok, err)
	}
	mr.FastForward(2 * time.Second)

	current, ok, err := AcquireLock(ctx, rdb, "classify:c1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected acquire after expiry, got %v %v", ok, err)
	}

	released, err := ReleaseLock(ctx, rdb, "classify:c1", stale)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if released {
		t.Fatalf("stale owner must not release the current lock")
	}
	if got, _ := mr.Get("classify:c1"); got != current {
		t.Fatalf("expected lock to stay with current owner, got %q", got)
	}
	if _, ok, _ := AcquireLock(ctx, rdb, "classify:c1", time.Minute); ok {
		t.Fatalf("expected lock to still be held")
	}
}

func TestAcquireLock_RejectsBadArgs(t *testing.T) {
	ctx := context.Background()
	if _, _, err := AcquireLock(ctx, nil, "k", time.Second); err != ErrNilRedis {
		t.Fatalf("expected ErrNilRedis, got %v", err)
	}
	_, rdb := newTestRedis(t)
	if _, _, err := AcquireLock(ctx, rdb, "", time.Second); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, _, err := AcquireLock(ctx, rdb, "k", 0); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
	if _, err := ReleaseLock(ctx, rdb, "k", ""); err == nil {
		t.Fatalf("expected error for empty token")
	}
}
