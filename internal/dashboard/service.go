package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"jam/internal/cache"
	"jam/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	DB    *gorm.DB
	Log   *zap.Logger
	Opts  Options
	Cache *cache.Cache // optional
	TTL   time.Duration
}

func cacheKey(ownerID uint64) string {
	return "jam:dashboard:" + strconv.FormatUint(ownerID, 10)
}

// Snapshot loads the owner's jobs and builds the dashboard, consulting the cache first.
func (s *Service) Snapshot(ctx context.Context, ownerID uint64, now time.Time) (Snapshot, error) {
	if s.Cache != nil {
		var cached Snapshot
		err := s.Cache.Get(ctx, cacheKey(ownerID), &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.Log.Warn("dashboard cache read failed", zap.Uint64("owner_id", ownerID), zap.Error(err))
		}
	}

	var jobs []models.Job
	err := s.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Preload("Company").
		Preload("Application.Updates").
		Preload("Application.Interviews.Location").
		Order("id asc").
		Find(&jobs).Error
	if err != nil {
		return Snapshot{}, fmt.Errorf("load dashboard jobs: %w", err)
	}

	snap := Build(jobs, now, s.Opts)

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, cacheKey(ownerID), snap, s.TTL); err != nil {
			s.Log.Warn("dashboard cache write failed", zap.Uint64("owner_id", ownerID), zap.Error(err))
		}
	}
	return snap, nil
}

// Invalidate drops the cached snapshot after the owner's data changed.
func (s *Service) Invalidate(ctx context.Context, ownerID uint64) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Delete(ctx, cacheKey(ownerID)); err != nil {
		s.Log.Warn("dashboard cache invalidation failed", zap.Uint64("owner_id", ownerID), zap.Error(err))
	}
}
