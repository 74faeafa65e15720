package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/berean-labs/berean/internal/domain"
)

// AnalyticsStore persists event batches. Pending batches are restart
// carry-over that has not been flushed yet.
type AnalyticsStore interface {
	SaveBatch(ctx context.Context, batch domain.AnalyticsBatch, pending bool) error
	LoadPending(ctx context.Context) ([]domain.AnalyticsBatch, error)
	DeletePending(ctx context.Context, key string) error
}

// Analytics records AI usage, cache, and rate-limit events into an in-memory
// buffer flushed in batches. It is best effort throughout: nothing it does
// can block or fail the request path.
type Analytics struct {
	mu     sync.Mutex
	store  AnalyticsStore
	events []domain.AnalyticsEvent
	hits   int64
	misses int64

	threshold int
	now       func() time.Time
}

func NewAnalytics(store AnalyticsStore, flushThreshold int) *Analytics {
	return &Analytics{
		store:     store,
		threshold: flushThreshold,
		now:       time.Now,
	}
}

// Init merges batches persisted by a previous run into the buffer in
// chronological order and removes them from the pending store, so they can
// never replay twice. A buffer pushed over threshold flushes immediately.
func (a *Analytics) Init(ctx context.Context) error {
	batches, err := a.store.LoadPending(ctx)
	if err != nil {
		return fmt.Errorf("load pending batches: %w", err)
	}

	a.mu.Lock()
	for _, b := range batches {
		a.events = append(a.events, b.Events...)
		for _, ev := range b.Events {
			a.countCacheLocked(ev)
		}
	}
	a.mu.Unlock()

	for _, b := range batches {
		if err := a.store.DeletePending(ctx, b.Key); err != nil {
			slog.Error("delete pending analytics batch", "error", err, "key", b.Key)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.events) >= a.threshold {
		a.flushLocked(ctx)
	}
	return nil
}

// RecordAIRequest appends an AI request event. Cost is estimated from the
// price table when the request was freshly generated and usage is known.
func (a *Analytics) RecordAIRequest(ctx context.Context, provider string, fromCache bool, usage *domain.TokenUsage, latency time.Duration, status string) {
	cost := decimal.Zero
	if !fromCache && usage != nil && provider != "" {
		cost = UsageCost(provider, usage)
	}
	a.append(ctx, domain.AnalyticsEvent{
		Type:      domain.EventAIRequest,
		Timestamp: a.now(),
		AIRequest: &domain.AIRequestMeta{
			Provider:  provider,
			FromCache: fromCache,
			Usage:     usage,
			LatencyMs: latency.Milliseconds(),
			Status:    status,
			Cost:      cost,
		},
	})
}

// RecordCacheOperation appends a cache event and maintains hit/miss counters.
func (a *Analytics) RecordCacheOperation(ctx context.Context, operation, key string) {
	a.append(ctx, domain.AnalyticsEvent{
		Type:      domain.EventCacheOperation,
		Timestamp: a.now(),
		Cache:     &domain.CacheMeta{Operation: operation, Key: key},
	})
}

// RecordRateLimit appends a rate limit event. No derived state.
func (a *Analytics) RecordRateLimit(ctx context.Context, chatID int64, limit int) {
	a.append(ctx, domain.AnalyticsEvent{
		Type:      domain.EventRateLimit,
		Timestamp: a.now(),
		RateLimit: &domain.RateLimitMeta{ChatID: chatID, Limit: limit},
	})
}

func (a *Analytics) append(ctx context.Context, ev domain.AnalyticsEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
	a.countCacheLocked(ev)
	if len(a.events) >= a.threshold {
		a.flushLocked(ctx)
	}
}

func (a *Analytics) countCacheLocked(ev domain.AnalyticsEvent) {
	if ev.Type != domain.EventCacheOperation || ev.Cache == nil {
		return
	}
	switch ev.Cache.Operation {
	case "hit":
		a.hits++
	case "miss":
		a.misses++
	}
}

// Flush writes the buffered events now. Both the threshold and timer triggers
// funnel here, so a flush can never run twice over the same events.
func (a *Analytics) Flush(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.flushLocked(ctx)
}

// flushLocked must be called with the mutex held. The buffer clears after the
// attempt whether or not it succeeded: analytics are best effort, and a
// failed batch is dropped rather than retried.
func (a *Analytics) flushLocked(ctx context.Context) {
	if len(a.events) == 0 {
		return
	}
	flushedAt := a.now()
	batch := domain.AnalyticsBatch{
		Key:       fmt.Sprintf("analytics_batch_%d", flushedAt.UnixMilli()),
		FlushedAt: flushedAt,
		Events:    a.events,
	}
	if err := a.store.SaveBatch(ctx, batch, false); err != nil {
		slog.Error("flush analytics batch, dropping", "error", err, "events", len(batch.Events))
	}
	a.events = nil
}

// Run flushes on a fixed interval until the context is cancelled.
func (a *Analytics) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Flush(context.WithoutCancel(ctx))
		}
	}
}

// Shutdown persists any unflushed events as a pending batch for the next run.
func (a *Analytics) Shutdown(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.events) == 0 {
		return
	}
	flushedAt := a.now()
	batch := domain.AnalyticsBatch{
		Key:       fmt.Sprintf("analytics_batch_%d", flushedAt.UnixMilli()),
		FlushedAt: flushedAt,
		Events:    a.events,
	}
	if err := a.store.SaveBatch(ctx, batch, true); err != nil {
		slog.Error("persist pending analytics batch, dropping", "error", err, "events", len(batch.Events))
	}
	a.events = nil
}

// Summary derives aggregate totals from the in-memory buffer without
// mutating it. Savings for cache hits without token usage are estimated at
// the mean cost of the freshly generated requests in the buffer.
func (a *Analytics) Summary() domain.AnalyticsSummary {
	a.mu.Lock()
	defer a.mu.Unlock()

	sum := domain.AnalyticsSummary{
		CacheHits:    a.hits,
		CacheMisses:  a.misses,
		TotalCost:    decimal.Zero,
		CacheSavings: decimal.Zero,
		ByProvider:   make(map[string]domain.ProviderStats),
	}
	if total := a.hits + a.misses; total > 0 {
		sum.HitRatio = float64(a.hits) / float64(total)
	}

	now := a.now()
	day := now.Add(-24 * time.Hour)
	week := now.Add(-7 * 24 * time.Hour)
	month := now.Add(-30 * 24 * time.Hour)

	freshCount := int64(0)
	freshCost := decimal.Zero
	for _, ev := range a.events {
		if ev.Type != domain.EventAIRequest || ev.AIRequest == nil {
			continue
		}
		meta := ev.AIRequest
		sum.TotalRequests++
		if ev.Timestamp.After(day) {
			sum.LastDay++
		}
		if ev.Timestamp.After(week) {
			sum.LastWeek++
		}
		if ev.Timestamp.After(month) {
			sum.LastMonth++
		}

		stats := sum.ByProvider[meta.Provider]
		stats.Requests++
		stats.Cost = stats.Cost.Add(meta.Cost)
		sum.ByProvider[meta.Provider] = stats
		sum.TotalCost = sum.TotalCost.Add(meta.Cost)

		if !meta.FromCache {
			freshCount++
			freshCost = freshCost.Add(meta.Cost)
		}
	}

	meanCost := decimal.Zero
	if freshCount > 0 {
		meanCost = freshCost.Div(decimal.NewFromInt(freshCount))
	}
	for _, ev := range a.events {
		if ev.Type != domain.EventAIRequest || ev.AIRequest == nil || !ev.AIRequest.FromCache {
			continue
		}
		if ev.AIRequest.Usage != nil {
			sum.CacheSavings = sum.CacheSavings.Add(UsageCost(ev.AIRequest.Provider, ev.AIRequest.Usage))
		} else {
			sum.CacheSavings = sum.CacheSavings.Add(meanCost)
		}
	}
	return sum
}

// BufferLen reports the current in-memory event count.
func (a *Analytics) BufferLen() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.events)
}
