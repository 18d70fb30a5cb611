package dashboard

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"procura/internal/core/id"
	"procura/internal/core/types"
)

type mockRepo struct {
	summary      Summary
	summaryCalls int

	top      []TopSupplier
	topCalls int
	topLimit int
	topSince time.Time

	volume      []MonthlyVolumePoint
	volumeCalls int
}

func (m *mockRepo) GetSummary(ctx context.Context) (*Summary, error) {
	m.summaryCalls++
	cp := m.summary
	return &cp, nil
}

func (m *mockRepo) GetTopSuppliers(ctx context.Context, limit int, since time.Time) ([]TopSupplier, error) {
	m.topCalls++
	m.topLimit = limit
	m.topSince = since
	return m.top, nil
}

func (m *mockRepo) GetMonthlyVolume(ctx context.Context, months int) ([]MonthlyVolumePoint, error) {
	m.volumeCalls++
	return m.volume, nil
}

func newTestService(t *testing.T, repo Repository) (*Service, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	svc := NewService(repo, cache)
	return svc, func() {
		_ = client.Close()
		mr.Close()
	}
}

func TestGetSummaryCachesUntilBump(t *testing.T) {
	repo := &mockRepo{
		summary: Summary{
			OrdersByStatus:       []StatusCount{{Status: "created", Count: 4}},
			PendingConfirmations: 3,
			LatePurchaseOrders:   1,
			OpenOrders:           7,
		},
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	summary, err := svc.GetSummary(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.OpenOrders != 7 {
		t.Fatalf("expected 7 open orders, got %d", summary.OpenOrders)
	}
	if repo.summaryCalls != 1 {
		t.Fatalf("expected 1 repo call, got %d", repo.summaryCalls)
	}

	// Second call should hit cache.
	if _, err := svc.GetSummary(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.summaryCalls != 1 {
		t.Fatalf("expected cached result, repo called %d times", repo.summaryCalls)
	}

	// Bumping the cache should trigger reload.
	if err := svc.Invalidate(ctx); err != nil {
		t.Fatalf("bump failed: %v", err)
	}
	repo.summary.OpenOrders = 9
	summary, err = svc.GetSummary(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.OpenOrders != 9 {
		t.Fatalf("expected refreshed value 9, got %d", summary.OpenOrders)
	}
	if repo.summaryCalls != 2 {
		t.Fatalf("expected repo to refresh, calls %d", repo.summaryCalls)
	}
}

func TestGetTopSuppliersWindowAndLimits(t *testing.T) {
	repo := &mockRepo{
		top: []TopSupplier{{
			SupplierID:        id.New(),
			SupplierName:      "Acme Metals",
			AllocatedQuantity: types.NewQuantityFromFloat64(500),
			Score:             0.87,
		}},
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	rows, err := svc.GetTopSuppliers(ctx, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].SupplierName != "Acme Metals" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if repo.topLimit != 5 {
		t.Fatalf("expected default limit 5, got %d", repo.topLimit)
	}

	wantSince := time.Now().UTC().Add(-90 * 24 * time.Hour)
	if repo.topSince.Before(wantSince.Add(-time.Hour)) || repo.topSince.After(wantSince.Add(time.Hour)) {
		t.Errorf("since = %v, want about 90 days ago", repo.topSince)
	}

	// Oversized limit is capped, producing a distinct cache key.
	if _, err := svc.GetTopSuppliers(ctx, 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.topLimit != 50 {
		t.Fatalf("expected capped limit 50, got %d", repo.topLimit)
	}
}

func TestGetMonthlyVolumeCachesPerWindow(t *testing.T) {
	repo := &mockRepo{
		volume: []MonthlyVolumePoint{
			{Month: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), Ordered: types.NewQuantityFromFloat64(100), Delivered: types.NewQuantityFromFloat64(80)},
			{Month: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), Ordered: types.NewQuantityFromFloat64(120), Delivered: types.NewQuantityFromFloat64(90)},
		},
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	points, err := svc.GetMonthlyVolume(ctx, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if repo.volumeCalls != 1 {
		t.Fatalf("expected 1 repo call, got %d", repo.volumeCalls)
	}

	if _, err := svc.GetMonthlyVolume(ctx, 12); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.volumeCalls != 1 {
		t.Fatalf("expected cached result, repo called %d times", repo.volumeCalls)
	}

	// A different window loads separately.
	if _, err := svc.GetMonthlyVolume(ctx, 6); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.volumeCalls != 2 {
		t.Fatalf("expected second repo call for new window, got %d", repo.volumeCalls)
	}
}

func TestNilCacheFallsThroughToLoader(t *testing.T) {
	repo := &mockRepo{summary: Summary{OpenOrders: 2}}
	svc := NewService(repo, nil)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		summary, err := svc.GetSummary(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.OpenOrders != 2 {
			t.Fatalf("expected 2 open orders, got %d", summary.OpenOrders)
		}
	}
	if repo.summaryCalls != 2 {
		t.Fatalf("expected loader on every call without redis, got %d", repo.summaryCalls)
	}
	if err := svc.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate without redis should be a no-op, got %v", err)
	}
}
