package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"realty-crm/pkg/utils"
)

// Guard lets only one classification pass run per call at a time.
// Acquire returns an owner token; Release frees the call only for that token.
type Guard interface {
	Acquire(ctx context.Context, callID string) (token string, ok bool, err error)
	Release(ctx context.Context, callID, token string) error
}

// RedisGuard holds an owner-token lock in Redis, shared by every process.
// A pass that outlives the TTL cannot release a lock another pass took since.
type RedisGuard struct {
	rdb    utils.LockClient
	prefix string
	ttl    time.Duration
}

func NewRedisGuard(rdb utils.LockClient, prefix string, ttl time.Duration) *RedisGuard {
	if prefix == "" {
		prefix = defaultRedisPrefix + ":lock"
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisGuard{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (g *RedisGuard) Acquire(ctx context.Context, callID string) (string, bool, error) {
	return utils.AcquireLock(ctx, g.rdb, g.key(callID), g.ttl)
}

func (g *RedisGuard) Release(ctx context.Context, callID, token string) error {
	_, err := utils.ReleaseLock(ctx, g.rdb, g.key(callID), token)
	return err
}

func (g *RedisGuard) key(callID string) string {
	return g.prefix + ":" + callID
}

// LocalGuard is a process-local Guard for single-instance and test setups.
type LocalGuard struct {
	mu   sync.Mutex
	held map[string]string
}

func NewLocalGuard() *LocalGuard {
	return &LocalGuard{held: make(map[string]string)}
}

func (g *LocalGuard) Acquire(ctx context.Context, callID string) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[callID]; ok {
		return "", false, nil
	}
	token := uuid.NewString()
	g.held[callID] = token
	return token, true, nil
}

func (g *LocalGuard) Release(ctx context.Context, callID, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held[callID] == token {
		delete(g.held, callID)
	}
	return nil
}

var _ Guard = (*RedisGuard)(nil)
var _ Guard = (*LocalGuard)(nil)
