package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MarketWhisperer/internal/domain/models"
	"MarketWhisperer/internal/domain/repository"
	"MarketWhisperer/pkg/cache"
)

const jobKeyPrefix = "job"

// CacheJobStore persists job snapshots in a cache.Service with a retention TTL.
// Use a Redis or memory cache here; a layered cache would serve stale states across processes.
type CacheJobStore struct {
	cache cache.Service
	ttl   time.Duration
}

func NewCacheJobStore(c cache.Service, ttl time.Duration) repository.JobStore {
	return &CacheJobStore{cache: c, ttl: ttl}
}

func (s *CacheJobStore) Save(ctx context.Context, job *models.AnalysisJob) error {
	if err := s.cache.Set(ctx, cache.GenerateKey(jobKeyPrefix, job.ID), job, s.ttl); err != nil {
		return fmt.Errorf("store job %s: %w", job.ID, err)
	}
	return nil
}

func (s *CacheJobStore) Get(ctx context.Context, id string) (*models.AnalysisJob, error) {
	var job models.AnalysisJob
	err := s.cache.Get(ctx, cache.GenerateKey(jobKeyPrefix, id), &job)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, models.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", id, err)
	}
	return &job, nil
}
