package config

import "time"

const (
	// Primary AI answer timeout; exceeding it triggers the fallback provider
	AnswerTimeout = 20 * time.Second

	// Outbound HTTP client timeout (Bible text, vector, gateway)
	ClientTimeout = 30 * time.Second

	// Verse explanation timeout; exceeding it yields the deterministic mock
	ExplainTimeout = 10 * time.Second

	// Analytics batching
	FlushThreshold = 50
	FlushInterval  = 5 * time.Minute

	// Session title length limit (runes)
	MaxTitleLen = 50

	// Rate limit (messages per minute per chat)
	RateLimitPerMinute = 6

	// Sessions per page in the /sessions keyboard
	SessionsPerPage = 5

	// Vector index batch size for /reindex
	IndexBatchSize = 100

	// Max chapters probed per book during /reindex
	MaxChaptersPerBook = 150
)
