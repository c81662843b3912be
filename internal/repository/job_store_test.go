package repository

import (
	"context"
	"testing"
	"time"

	"MarketWhisperer/internal/domain/models"
	"MarketWhisperer/pkg/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisJobStore(t *testing.T, ttl time.Duration) (*CacheJobStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := cache.NewRedisCacheFromClient(client, "whisperer")
	return NewCacheJobStore(c, ttl).(*CacheJobStore), mr
}

func TestCacheJobStoreRoundTrip(t *testing.T) {
	store, mr := newRedisJobStore(t, time.Hour)
	ctx := context.Background()

	job := &models.AnalysisJob{
		ID:    "job-1",
		State: models.JobSuccess,
		Result: []models.Whisper{{
			Symbol: "ACME", Category: models.CategoryNews, Severity: models.SeverityHigh,
			Message: "[Reuters] ACME wins major contract", Reasoning: "r", Action: models.ActionBuy,
		}},
	}
	require.NoError(t, store.Save(ctx, job))
	assert.True(t, mr.Exists("whisperer:job:job-1"))

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobSuccess, got.State)
	require.Len(t, got.Result, 1)
	assert.Equal(t, job.Result[0], got.Result[0])
}

func TestCacheJobStoreMissAndExpiry(t *testing.T) {
	store, mr := newRedisJobStore(t, time.Minute)
	ctx := context.Background()

	_, err := store.Get(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrJobNotFound)

	require.NoError(t, store.Save(ctx, &models.AnalysisJob{ID: "old", State: models.JobRunning}))
	mr.FastForward(2 * time.Minute)

	_, err = store.Get(ctx, "old")
	assert.ErrorIs(t, err, models.ErrJobNotFound)
}

func TestCacheJobStoreMemoryBackend(t *testing.T) {
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })
	store := NewCacheJobStore(mc, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &models.AnalysisJob{ID: "a", State: models.JobPending}))
	require.NoError(t, store.Save(ctx, &models.AnalysisJob{ID: "a", State: models.JobFailure, Error: "boom"}))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.JobFailure, got.State)
	assert.Equal(t, "boom", got.Error)
}
