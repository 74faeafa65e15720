package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventAIRequest      EventType = "ai_request"
	EventCacheOperation EventType = "cache_operation"
	EventRateLimit      EventType = "rate_limit"
)

// AnalyticsEvent is a tagged union keyed by Type; exactly one metadata
// pointer is set, matching the tag.
type AnalyticsEvent struct {
	Type      EventType      `json:"eventType"`
	Timestamp time.Time      `json:"timestamp"`
	AIRequest *AIRequestMeta `json:"aiRequest,omitempty"`
	Cache     *CacheMeta     `json:"cache,omitempty"`
	RateLimit *RateLimitMeta `json:"rateLimit,omitempty"`
}

type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

type AIRequestMeta struct {
	Provider  string          `json:"provider"`
	FromCache bool            `json:"fromCache"`
	Usage     *TokenUsage     `json:"usage,omitempty"`
	LatencyMs int64           `json:"latencyMs"`
	Status    string          `json:"status"`
	Cost      decimal.Decimal `json:"cost"`
}

type CacheMeta struct {
	Operation string `json:"operation"` // hit, miss, set, delete
	Key       string `json:"key"`
}

type RateLimitMeta struct {
	ChatID int64 `json:"chatId"`
	Limit  int   `json:"limit"`
}

// AnalyticsBatch is a flushed (or restart-pending) group of events. The key
// embeds the flush timestamp so batches replay in chronological order.
type AnalyticsBatch struct {
	Key       string           `json:"key"`
	FlushedAt time.Time        `json:"flushedAt"`
	Events    []AnalyticsEvent `json:"events"`
}

// AnalyticsSummary is derived read-only from the in-memory event buffer.
type AnalyticsSummary struct {
	TotalRequests int
	CacheHits     int64
	CacheMisses   int64
	HitRatio      float64
	TotalCost     decimal.Decimal
	CacheSavings  decimal.Decimal
	ByProvider    map[string]ProviderStats
	LastDay       int
	LastWeek      int
	LastMonth     int
}

type ProviderStats struct {
	Requests int
	Cost     decimal.Decimal
}
