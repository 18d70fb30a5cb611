package dashboard

import (
	"context"
	"fmt"
	"time"
)

// Repository exposes the aggregate queries behind the dashboard.
type Repository interface {
	GetSummary(ctx context.Context) (*Summary, error)
	GetTopSuppliers(ctx context.Context, limit int, since time.Time) ([]TopSupplier, error)
	GetMonthlyVolume(ctx context.Context, months int) ([]MonthlyVolumePoint, error)
}

// Trailing window for supplier rankings.
const topSupplierWindow = 90 * 24 * time.Hour

// Service coordinates dashboard query execution with the cache layer.
type Service struct {
	repo  Repository
	cache *Cache
}

// NewService wires a Repository with a Cache helper.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// GetSummary returns the headline workflow counters.
func (s *Service) GetSummary(ctx context.Context) (*Summary, error) {
	loader := func(ctx context.Context) (any, error) {
		summary, err := s.repo.GetSummary(ctx)
		if err != nil {
			return nil, fmt.Errorf("load summary: %w", err)
		}
		summary.GeneratedAt = time.Now().UTC()
		return summary, nil
	}

	key, err := s.cache.BuildKey(ctx, keySummary())
	if err != nil {
		return nil, err
	}
	var summary Summary
	if err := s.cache.FetchJSON(ctx, key, &summary, loader); err != nil {
		return nil, err
	}
	return &summary, nil
}

// GetTopSuppliers ranks suppliers by allocated quantity and performance
// over the trailing 90 days.
func (s *Service) GetTopSuppliers(ctx context.Context, limit int) ([]TopSupplier, error) {
	if limit <= 0 {
		limit = 5
	}
	if limit > 50 {
		limit = 50
	}

	loader := func(ctx context.Context) (any, error) {
		since := time.Now().UTC().Add(-topSupplierWindow)
		rows, err := s.repo.GetTopSuppliers(ctx, limit, since)
		if err != nil {
			return nil, fmt.Errorf("load top suppliers: %w", err)
		}
		return rows, nil
	}

	key, err := s.cache.BuildKey(ctx, keyTopSuppliers(limit))
	if err != nil {
		return nil, err
	}
	var rows []TopSupplier
	if err := s.cache.FetchJSON(ctx, key, &rows, loader); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetMonthlyVolume returns the ordered/delivered trend for the trailing
// months, oldest first.
func (s *Service) GetMonthlyVolume(ctx context.Context, months int) ([]MonthlyVolumePoint, error) {
	if months <= 0 {
		months = 12
	}
	if months > 36 {
		months = 36
	}

	loader := func(ctx context.Context) (any, error) {
		points, err := s.repo.GetMonthlyVolume(ctx, months)
		if err != nil {
			return nil, fmt.Errorf("load monthly volume: %w", err)
		}
		return points, nil
	}

	key, err := s.cache.BuildKey(ctx, keyMonthlyVolume(months))
	if err != nil {
		return nil, err
	}
	var points []MonthlyVolumePoint
	if err := s.cache.FetchJSON(ctx, key, &points, loader); err != nil {
		return nil, err
	}
	return points, nil
}

// Invalidate bumps the cache version after a workflow mutation.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
