package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/berean-labs/berean/internal/domain"
)

// MemSessionStore is the in-memory twin of PGSessionStore, used in tests and
// when running without a database.
type MemSessionStore struct {
	mu       sync.Mutex
	sessions map[int64]map[string]domain.ChatSession
	active   map[int64]string
}

func NewMemSessionStore() *MemSessionStore {
	return &MemSessionStore{
		sessions: make(map[int64]map[string]domain.ChatSession),
		active:   make(map[int64]string),
	}
}

func (s *MemSessionStore) Load(_ context.Context, chatID int64) ([]domain.ChatSession, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ChatSession
	for _, sess := range s.sessions[chatID] {
		out = append(out, *sess.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, s.active[chatID], nil
}

func (s *MemSessionStore) Save(_ context.Context, chatID int64, sess *domain.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[chatID] == nil {
		s.sessions[chatID] = make(map[string]domain.ChatSession)
	}
	s.sessions[chatID][sess.ID] = *sess.Clone()
	return nil
}

func (s *MemSessionStore) Delete(_ context.Context, chatID int64, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions[chatID], sessionID)
	return nil
}

func (s *MemSessionStore) DeleteAll(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
	return nil
}

func (s *MemSessionStore) SetActive(_ context.Context, chatID int64, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sessionID == "" {
		delete(s.active, chatID)
		return nil
	}
	s.active[chatID] = sessionID
	return nil
}

// MemAnalyticsStore is the in-memory twin of PGAnalyticsStore.
type MemAnalyticsStore struct {
	mu      sync.Mutex
	flushed map[string]domain.AnalyticsBatch
	pending map[string]domain.AnalyticsBatch
}

func NewMemAnalyticsStore() *MemAnalyticsStore {
	return &MemAnalyticsStore{
		flushed: make(map[string]domain.AnalyticsBatch),
		pending: make(map[string]domain.AnalyticsBatch),
	}
}

func (s *MemAnalyticsStore) SaveBatch(_ context.Context, batch domain.AnalyticsBatch, pending bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pending {
		s.pending[batch.Key] = batch
	} else {
		s.flushed[batch.Key] = batch
	}
	return nil
}

func (s *MemAnalyticsStore) LoadPending(_ context.Context) ([]domain.AnalyticsBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AnalyticsBatch, 0, len(s.pending))
	for _, b := range s.pending {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FlushedAt.Before(out[j].FlushedAt) })
	return out, nil
}

func (s *MemAnalyticsStore) DeletePending(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
	return nil
}

// Flushed returns flushed batches in flush order (test helper).
func (s *MemAnalyticsStore) Flushed() []domain.AnalyticsBatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AnalyticsBatch, 0, len(s.flushed))
	for _, b := range s.flushed {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FlushedAt.Before(out[j].FlushedAt) })
	return out
}
