package schedule

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"realty-crm/pkg/utils"
)

const defaultRedisPrefix = "crm:classify"

var doneScript = redis.NewScript(`
-- KEYS[1] = due set, KEYS[2] = task hash
-- ARGV[1] = call id
if redis.call('ZSCORE', KEYS[1], ARGV[1]) then
  return 0
end
return redis.call('HDEL', KEYS[2], ARGV[1])
`)

// RedisStore keeps due times in a sorted set and task bodies in a hash.
// Removing a call from the sorted set is what claims it.
type RedisStore struct {
	rdb    redis.Cmdable
	dueKey string
	setKey string
}

func NewRedisStore(rdb redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{rdb: rdb, dueKey: prefix + ":due", setKey: prefix + ":tasks"}
}

func (s *RedisStore) Put(ctx context.Context, t Task) error {
	if s.rdb == nil {
		return utils.ErrNilRedis
	}
	if !t.valid() {
		return ErrInvalidTask
	}
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, s.setKey, t.CallID, b)
		p.ZAdd(ctx, s.dueKey, redis.Z{Score: float64(t.DueAt.UnixMilli()), Member: t.CallID})
		return nil
	})
	return err
}

func (s *RedisStore) Delete(ctx context.Context, callID string) (bool, error) {
	if s.rdb == nil {
		return false, utils.ErrNilRedis
	}
	var removed *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRem(ctx, s.dueKey, callID)
		removed = p.HDel(ctx, s.setKey, callID)
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed.Val() > 0, nil
}

func (s *RedisStore) Claim(ctx context.Context, callID string) (bool, error) {
	if s.rdb == nil {
		return false, utils.ErrNilRedis
	}
	n, err := s.rdb.ZRem(ctx, s.dueKey, callID).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *RedisStore) Done(ctx context.Context, callID string) error {
	if s.rdb == nil {
		return utils.ErrNilRedis
	}
	return doneScript.Run(ctx, s.rdb, []string{s.dueKey, s.setKey}, callID).Err()
}

func (s *RedisStore) List(ctx context.Context) ([]Task, error) {
	if s.rdb == nil {
		return nil, utils.ErrNilRedis
	}
	ids, err := s.rdb.ZRange(ctx, s.dueKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	vals, err := s.rdb.HMGet(ctx, s.setKey, ids...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Task, 0, len(ids))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// due entry without a body; the hash is authoritative
			continue
		}
		var t Task
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("schedule: decode task %s: %w", ids[i], err)
		}
		out = append(out, t)
	}
	return out, nil
}

var _ Store = (*RedisStore)(nil)
var _ Store = (*MemoryStore)(nil)
