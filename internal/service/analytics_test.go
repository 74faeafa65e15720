package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berean-labs/berean/internal/domain"
	"github.com/berean-labs/berean/internal/repository"
)

func TestCalculateCostDeterministic(t *testing.T) {
	first := CalculateCost("openai", 1000, 1000)
	for i := 0; i < 10; i++ {
		assert.True(t, first.Equal(CalculateCost("openai", 1000, 1000)))
	}
	// 1000 in at $0.0025/1k plus 1000 out at $0.01/1k.
	assert.True(t, first.Equal(decimal.RequireFromString("0.0125")), "got %s", first)
}

func TestCalculateCostUnknownProviderUsesDefaultTier(t *testing.T) {
	unknown := CalculateCost("no-such-provider", 500, 500)
	def := CalculateCost(DefaultPriceTier, 500, 500)
	assert.True(t, unknown.Equal(def))
	assert.True(t, unknown.GreaterThan(decimal.Zero))
}

func TestCalculateCostZeroTokens(t *testing.T) {
	assert.True(t, CalculateCost("openai", 0, 0).Equal(decimal.Zero))
}

func TestRecordAIRequestAttachesCost(t *testing.T) {
	a := NewAnalytics(repository.NewMemAnalyticsStore(), 100)
	ctx := context.Background()

	a.RecordAIRequest(ctx, "openai", false, &domain.TokenUsage{PromptTokens: 1000, CompletionTokens: 1000}, time.Second, "success")
	a.RecordAIRequest(ctx, "openai", true, nil, time.Millisecond, "success")

	sum := a.Summary()
	assert.Equal(t, 2, sum.TotalRequests)
	assert.True(t, sum.TotalCost.Equal(decimal.RequireFromString("0.0125")), "cache hits cost nothing, got %s", sum.TotalCost)
}

func TestThresholdFlushClearsBuffer(t *testing.T) {
	store := repository.NewMemAnalyticsStore()
	a := NewAnalytics(store, 3)
	ctx := context.Background()

	a.RecordCacheOperation(ctx, "hit", "q1")
	a.RecordCacheOperation(ctx, "miss", "q2")
	assert.Equal(t, 2, a.BufferLen())
	assert.Empty(t, store.Flushed())

	a.RecordCacheOperation(ctx, "hit", "q3")
	assert.Equal(t, 0, a.BufferLen(), "reaching the threshold flushes")

	flushed := store.Flushed()
	require.Len(t, flushed, 1)
	assert.Len(t, flushed[0].Events, 3)
	assert.Contains(t, flushed[0].Key, "analytics_batch_")
}

func TestFlushFailureDropsBatch(t *testing.T) {
	a := NewAnalytics(failingAnalyticsStore{}, 100)
	ctx := context.Background()

	a.RecordRateLimit(ctx, 1, 6)
	a.Flush(ctx)
	assert.Equal(t, 0, a.BufferLen(), "buffer clears even when the flush attempt fails")
}

func TestPendingBatchesReplayOnceOnInit(t *testing.T) {
	store := repository.NewMemAnalyticsStore()
	ctx := context.Background()

	// A previous run left unflushed events behind.
	first := NewAnalytics(store, 100)
	first.RecordCacheOperation(ctx, "hit", "q1")
	first.RecordAIRequest(ctx, "openai", false, &domain.TokenUsage{PromptTokens: 100, CompletionTokens: 100}, time.Second, "success")
	first.Shutdown(ctx)

	pending, err := store.LoadPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	second := NewAnalytics(store, 100)
	require.NoError(t, second.Init(ctx))
	assert.Equal(t, 2, second.BufferLen(), "carried events merge into the buffer")

	pending, err = store.LoadPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "replayed batches are removed so they cannot replay twice")

	// The carried hit is still reflected in derived counters.
	assert.Equal(t, int64(1), second.Summary().CacheHits)

	// A third recorder sees nothing: no re-flush of already-consumed batches.
	third := NewAnalytics(store, 100)
	require.NoError(t, third.Init(ctx))
	assert.Equal(t, 0, third.BufferLen())
}

func TestInitFlushesWhenOverThreshold(t *testing.T) {
	store := repository.NewMemAnalyticsStore()
	ctx := context.Background()

	first := NewAnalytics(store, 100)
	for i := 0; i < 5; i++ {
		first.RecordCacheOperation(ctx, "miss", "q")
	}
	first.Shutdown(ctx)

	second := NewAnalytics(store, 3)
	require.NoError(t, second.Init(ctx))
	assert.Equal(t, 0, second.BufferLen(), "replayed events over threshold flush immediately")
	require.Len(t, store.Flushed(), 1)
	assert.Len(t, store.Flushed()[0].Events, 5)
}

func TestSummaryDerivesWithoutMutating(t *testing.T) {
	a := NewAnalytics(repository.NewMemAnalyticsStore(), 100)
	ctx := context.Background()

	usage := &domain.TokenUsage{PromptTokens: 1000, CompletionTokens: 1000}
	a.RecordAIRequest(ctx, "openai", false, usage, time.Second, "success")
	a.RecordAIRequest(ctx, "deepseek", false, usage, time.Second, "success")
	a.RecordAIRequest(ctx, "openai", true, usage, time.Millisecond, "success")
	a.RecordCacheOperation(ctx, "hit", "q1")
	a.RecordCacheOperation(ctx, "miss", "q2")

	before := a.BufferLen()
	sum := a.Summary()
	assert.Equal(t, before, a.BufferLen(), "summary must not mutate the buffer")

	assert.Equal(t, 3, sum.TotalRequests)
	assert.Equal(t, 3, sum.LastDay)
	assert.Equal(t, 3, sum.LastWeek)
	assert.Equal(t, 3, sum.LastMonth)
	assert.InDelta(t, 0.5, sum.HitRatio, 1e-9)

	require.Contains(t, sum.ByProvider, "openai")
	require.Contains(t, sum.ByProvider, "deepseek")
	assert.Equal(t, 2, sum.ByProvider["openai"].Requests)

	// The cached openai request saves what it would have cost fresh.
	expectedSavings := CalculateCost("openai", 1000, 1000)
	assert.True(t, sum.CacheSavings.Equal(expectedSavings), "got %s", sum.CacheSavings)
}

func TestRecorderNeverPanicsOnFailingStore(t *testing.T) {
	a := NewAnalytics(failingAnalyticsStore{}, 1)
	ctx := context.Background()

	// Threshold of one forces a failing flush on every record.
	assert.NotPanics(t, func() {
		a.RecordAIRequest(ctx, "openai", false, nil, time.Second, "error")
		a.RecordCacheOperation(ctx, "set", "k")
		a.RecordRateLimit(ctx, 9, 6)
		a.Shutdown(ctx)
	})
}

type failingAnalyticsStore struct{}

func (failingAnalyticsStore) SaveBatch(context.Context, domain.AnalyticsBatch, bool) error {
	return assert.AnError
}
func (failingAnalyticsStore) LoadPending(context.Context) ([]domain.AnalyticsBatch, error) {
	return nil, nil
}
func (failingAnalyticsStore) DeletePending(context.Context, string) error { return nil }
