package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/berean-labs/berean/internal/domain"
)

// AnswerProvider is what the orchestrator needs from the answers client.
type AnswerProvider interface {
	Ask(ctx context.Context, question string, fallback bool) (*AnswerResult, error)
}

// Status values reported through the OnStatus callback while a request runs.
type Status string

const (
	StatusPrimary  Status = "primary"
	StatusFallback Status = "fallback"
)

type ContentType string

const (
	ContentTopic     ContentType = "topic"
	ContentCharacter ContentType = "character"
	ContentVerse     ContentType = "verse"
	ContentGeneral   ContentType = "general"
)

// AskOutcome is the normalized result of one submission.
type AskOutcome struct {
	Response     domain.ChatResponse
	ContentType  ContentType
	Provider     string
	UsedFallback bool
}

// Orchestrator turns a question into a normalized answer, handling the
// primary timeout and the single fallback attempt.
type Orchestrator struct {
	answers   AnswerProvider
	analytics *Analytics
	timeout   time.Duration
	primary   string
	fallback  string
	busy      atomic.Bool
}

func NewOrchestrator(answers AnswerProvider, analytics *Analytics, timeout time.Duration, primaryProvider, fallbackProvider string) *Orchestrator {
	return &Orchestrator{
		answers:   answers,
		analytics: analytics,
		timeout:   timeout,
		primary:   primaryProvider,
		fallback:  fallbackProvider,
	}
}

// Ask runs one submission. Empty questions are rejected before any network
// call, and a second submission while one is loading is refused rather than
// queued. onStatus may be nil.
func (o *Orchestrator) Ask(ctx context.Context, question string, onStatus func(Status)) (*AskOutcome, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}

	if !o.busy.CompareAndSwap(false, true) {
		return nil, domain.ErrRequestInFlight
	}
	defer o.busy.Store(false)

	notify := func(s Status) {
		if onStatus != nil {
			onStatus(s)
		}
	}

	notify(StatusPrimary)
	start := time.Now()
	primaryCtx, cancel := context.WithTimeout(ctx, o.timeout)
	result, err := o.answers.Ask(primaryCtx, question, false)
	cancel()

	if err == nil {
		o.record(ctx, o.primary, result, time.Since(start), "success")
		return o.outcome(question, o.primary, false, result), nil
	}

	// Only a timeout moves to the fallback path; once the primary context is
	// cancelled its result is discarded even if the request later resolves.
	if !isTimeout(primaryCtx, err) || ctx.Err() != nil {
		o.record(ctx, o.primary, nil, time.Since(start), "error")
		return nil, fmt.Errorf("primary provider: %w", err)
	}
	o.record(ctx, o.primary, nil, time.Since(start), "timeout")
	slog.Warn("primary answer timed out, trying fallback", "timeout", o.timeout)
	notify(StatusFallback)

	start = time.Now()
	fallbackCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	result, err = o.answers.Ask(fallbackCtx, question, true)
	if err != nil {
		o.record(ctx, o.fallback, nil, time.Since(start), "error")
		return nil, fmt.Errorf("%w: %w", domain.ErrBothProvidersFailed, err)
	}

	o.record(ctx, o.fallback, result, time.Since(start), "success")
	return o.outcome(question, o.fallback, true, result), nil
}

func (o *Orchestrator) outcome(question, provider string, usedFallback bool, result *AnswerResult) *AskOutcome {
	return &AskOutcome{
		Response:     result.Response,
		ContentType:  ClassifyQuestion(question),
		Provider:     provider,
		UsedFallback: usedFallback,
	}
}

// record reports the request outcome to analytics, fire and forget.
func (o *Orchestrator) record(ctx context.Context, provider string, result *AnswerResult, latency time.Duration, status string) {
	if o.analytics == nil {
		return
	}
	fromCache := false
	var usage *domain.TokenUsage
	if result != nil {
		fromCache = result.FromCache
		usage = result.Usage
	}
	o.analytics.RecordAIRequest(context.WithoutCancel(ctx), provider, fromCache, usage, latency, status)
}

func isTimeout(reqCtx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(reqCtx.Err(), context.DeadlineExceeded)
}

var verseRefPattern = regexp.MustCompile(`^(\d\s+)?[A-Za-z]+\s+\d+:\d+`)

// ClassifyQuestion buckets a question with lightweight textual heuristics.
// Keyword checks take precedence over the verse-reference pattern.
func ClassifyQuestion(question string) ContentType {
	q := strings.ToLower(strings.TrimSpace(question))
	switch {
	case strings.Contains(q, "topic") || strings.Contains(q, "theme"):
		return ContentTopic
	case strings.Contains(q, "character") || strings.Contains(q, "person"):
		return ContentCharacter
	case verseRefPattern.MatchString(strings.TrimSpace(question)):
		return ContentVerse
	default:
		return ContentGeneral
	}
}
