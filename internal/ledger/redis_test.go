package ledger_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/aryanraj/portfolio-contact/internal/ledger"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLedger_Timestamps(t *testing.T) {
	client, mock := redismock.NewClientMock()
	l := ledger.NewRedisLedger(client, nil)

	since := time.UnixMilli(1740730536000)
	sinceMs := strconv.FormatInt(since.UnixMilli(), 10)
	key := ledger.RedisKey("198.51.100.4")

	mock.ExpectZRemRangeByScore(key, "-inf", sinceMs).SetVal(2)
	mock.ExpectZRangeByScoreWithScores(key, &redis.ZRangeBy{Min: "(" + sinceMs, Max: "+inf"}).SetVal([]redis.Z{
		{Score: float64(since.Add(time.Minute).UnixMilli()), Member: "a"},
		{Score: float64(since.Add(2 * time.Minute).UnixMilli()), Member: "b"},
	})

	got, err := l.Timestamps(context.Background(), "198.51.100.4", since)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		time.UnixMilli(since.Add(time.Minute).UnixMilli()),
		time.UnixMilli(since.Add(2 * time.Minute).UnixMilli()),
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLedger_TimestampsError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	l := ledger.NewRedisLedger(client, nil)

	since := time.UnixMilli(1740730536000)
	mock.ExpectZRemRangeByScore(ledger.RedisKey("k"), "-inf", strconv.FormatInt(since.UnixMilli(), 10)).
		SetErr(errors.New("connection refused"))

	_, err := l.Timestamps(context.Background(), "k", since)
	assert.ErrorContains(t, err, "connection refused")
}

func TestRedisLedger_Record(t *testing.T) {
	client, mock := redismock.NewClientMock()
	uid := uuid.New()
	l := ledger.NewRedisLedger(client, &ledger.RedisLedgerOpts{
		UUIDProvider: func() uuid.UUID { return uid },
	})

	at := time.UnixMilli(1740730536123)
	key := ledger.RedisKey("k")
	ms := strconv.FormatInt(at.UnixMilli(), 10)

	mock.ExpectTxPipeline()
	mock.ExpectZAdd(key, &redis.Z{Score: float64(at.UnixMilli()), Member: ms + ":" + uid.String()}).SetVal(1)
	mock.ExpectExpire(key, time.Hour).SetVal(true)
	mock.ExpectTxPipelineExec()

	require.NoError(t, l.Record(context.Background(), "k", at, time.Hour))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLedger_WithLimiter(t *testing.T) {
	client, mock := redismock.NewClientMock()
	uid := uuid.New()
	l := ledger.NewRedisLedger(client, &ledger.RedisLedgerOpts{
		UUIDProvider: func() uuid.UUID { return uid },
	})

	now := time.UnixMilli(1740730536000)
	window := time.Hour
	since := strconv.FormatInt(now.Add(-window).UnixMilli(), 10)
	key := ledger.RedisKey("k")

	limiter := ledger.NewLimiter(l, 2, window, &ledger.LimiterOpts{
		TimeProvider: func() time.Time { return now },
	})

	mock.ExpectZRemRangeByScore(key, "-inf", since).SetVal(0)
	mock.ExpectZRangeByScoreWithScores(key, &redis.ZRangeBy{Min: "(" + since, Max: "+inf"}).SetVal([]redis.Z{
		{Score: float64(now.Add(-30 * time.Minute).UnixMilli()), Member: "x"},
		{Score: float64(now.Add(-10 * time.Minute).UnixMilli()), Member: "y"},
	})

	d, err := limiter.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 30*time.Minute, d.RetryAfter)
	assert.NoError(t, mock.ExpectationsWereMet())
}
