package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const redisKeyPattern = "contact:ratelimit:%s"

type RedisLedgerOpts struct {
	UUIDProvider func() uuid.UUID
}

// RedisLedger keeps one sorted set per key, scored by unix milliseconds, so
// several instances can share a quota.
type RedisLedger struct {
	redis        *redis.Client
	uuidProvider func() uuid.UUID
}

func NewRedisLedger(client *redis.Client, opts *RedisLedgerOpts) *RedisLedger {
	uuidProvider := uuid.New
	if opts != nil && opts.UUIDProvider != nil {
		uuidProvider = opts.UUIDProvider
	}
	return &RedisLedger{redis: client, uuidProvider: uuidProvider}
}

func RedisKey(key string) string {
	return fmt.Sprintf(redisKeyPattern, key)
}

func (r *RedisLedger) Timestamps(ctx context.Context, key string, since time.Time) ([]time.Time, error) {
	rk := RedisKey(key)
	sinceMs := strconv.FormatInt(since.UnixMilli(), 10)

	if err := r.redis.ZRemRangeByScore(ctx, rk, "-inf", sinceMs).Err(); err != nil {
		return nil, fmt.Errorf("prune %s: %w", rk, err)
	}

	members, err := r.redis.ZRangeByScoreWithScores(ctx, rk, &redis.ZRangeBy{
		Min: "(" + sinceMs,
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("range %s: %w", rk, err)
	}

	out := make([]time.Time, 0, len(members))
	for _, m := range members {
		out = append(out, time.UnixMilli(int64(m.Score)))
	}
	return out, nil
}

func (r *RedisLedger) Record(ctx context.Context, key string, at time.Time, ttl time.Duration) error {
	rk := RedisKey(key)
	ms := at.UnixMilli()

	pipe := r.redis.TxPipeline()
	pipe.ZAdd(ctx, rk, &redis.Z{
		Score:  float64(ms),
		Member: fmt.Sprintf("%d:%s", ms, r.uuidProvider().String()),
	})
	if ttl > 0 {
		pipe.Expire(ctx, rk, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record %s: %w", rk, err)
	}
	return nil
}

// Ping checks connectivity; used at startup.
func (r *RedisLedger) Ping(ctx context.Context) error {
	return r.redis.Ping(ctx).Err()
}
