package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/berean-labs/berean/internal/config"
	"github.com/berean-labs/berean/internal/domain"
)

// SessionStore is the durable layer beneath the session manager. Store
// failures never surface to chat flow; the manager degrades to memory only.
type SessionStore interface {
	Load(ctx context.Context, chatID int64) ([]domain.ChatSession, string, error)
	Save(ctx context.Context, chatID int64, sess *domain.ChatSession) error
	Delete(ctx context.Context, chatID int64, sessionID string) error
	DeleteAll(ctx context.Context, chatID int64) error
	SetActive(ctx context.Context, chatID int64, sessionID string) error
}

// SessionManager is the single source of truth for one chat's sessions and
// which one is active. Mutations are serialized by the manager mutex and
// written through the store before returning.
type SessionManager struct {
	mu       sync.Mutex
	chatID   int64
	store    SessionStore
	sessions []*domain.ChatSession // newest created first
	activeID string
}

func NewSessionManager(chatID int64, store SessionStore) *SessionManager {
	return &SessionManager{chatID: chatID, store: store}
}

// load populates the manager from the store. An empty store is not an error.
func (m *SessionManager) load(ctx context.Context) {
	sessions, activeID, err := m.store.Load(ctx, m.chatID)
	if err != nil {
		slog.Error("load sessions, starting empty", "error", err, "chat_id", m.chatID)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make([]*domain.ChatSession, len(sessions))
	for i := range sessions {
		m.sessions[i] = sessions[i].Clone()
	}
	// The active id must reference an existing session or be cleared.
	if m.find(activeID) != nil {
		m.activeID = activeID
	}
}

// Create inserts a new empty session at the front of the collection and marks
// it active. It never fails: persistence errors degrade to memory only.
func (m *SessionManager) Create(ctx context.Context) string {
	m.mu.Lock()
	now := time.Now()
	sess := &domain.ChatSession{
		ID:        uuid.NewString(),
		Messages:  []domain.ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.sessions = append([]*domain.ChatSession{sess}, m.sessions...)
	m.activeID = sess.ID
	snapshot := sess.Clone()
	m.mu.Unlock()

	m.persistSave(ctx, snapshot)
	m.persistActive(ctx, snapshot.ID)
	return snapshot.ID
}

// AddMessage prepends a question/answer exchange to the active session,
// creating one first if none is active.
func (m *SessionManager) AddMessage(ctx context.Context, question string, resp domain.ChatResponse) {
	m.mu.Lock()
	sess := m.find(m.activeID)
	created := false
	if sess == nil {
		now := time.Now()
		sess = &domain.ChatSession{
			ID:        uuid.NewString(),
			Messages:  []domain.ChatMessage{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		m.sessions = append([]*domain.ChatSession{sess}, m.sessions...)
		m.activeID = sess.ID
		created = true
	}
	msg := domain.ChatMessage{
		ID:        uuid.NewString(),
		Question:  question,
		Response:  resp,
		CreatedAt: time.Now(),
	}
	sess.Messages = append([]domain.ChatMessage{msg}, sess.Messages...)
	if len(sess.Messages) == 1 {
		sess.Title = domain.DeriveTitle(question, config.MaxTitleLen)
		sess.FullPrompt = question
	}
	sess.UpdatedAt = time.Now()
	snapshot := sess.Clone()
	m.mu.Unlock()

	if created {
		m.persistActive(ctx, snapshot.ID)
	}
	m.persistSave(ctx, snapshot)
}

// Switch sets the active session id. Unknown ids and the already-active id
// are silent no-ops, so re-entrant activation cannot loop.
func (m *SessionManager) Switch(ctx context.Context, sessionID string) {
	m.mu.Lock()
	if sessionID == m.activeID || m.find(sessionID) == nil {
		m.mu.Unlock()
		return
	}
	m.activeID = sessionID
	m.mu.Unlock()

	m.persistActive(ctx, sessionID)
}

// Rename updates a session title. Silent no-op if the session is absent.
func (m *SessionManager) Rename(ctx context.Context, sessionID, newTitle string) {
	m.mu.Lock()
	sess := m.find(sessionID)
	if sess == nil {
		m.mu.Unlock()
		return
	}
	sess.Title = domain.DeriveTitle(newTitle, config.MaxTitleLen)
	sess.UpdatedAt = time.Now()
	snapshot := sess.Clone()
	m.mu.Unlock()

	m.persistSave(ctx, snapshot)
}

// Delete removes a session. If it was active, the most recently updated
// survivor becomes active, or the active id is cleared when none remain.
func (m *SessionManager) Delete(ctx context.Context, sessionID string) {
	m.mu.Lock()
	idx := -1
	for i, s := range m.sessions {
		if s.ID == sessionID {
			idx = i
			break
		}
	}
	if idx == -1 {
		m.mu.Unlock()
		return
	}
	m.sessions = append(m.sessions[:idx], m.sessions[idx+1:]...)

	activeChanged := false
	if m.activeID == sessionID {
		m.activeID = ""
		var latest *domain.ChatSession
		for _, s := range m.sessions {
			if latest == nil || s.UpdatedAt.After(latest.UpdatedAt) {
				latest = s
			}
		}
		if latest != nil {
			m.activeID = latest.ID
		}
		activeChanged = true
	}
	newActive := m.activeID
	m.mu.Unlock()

	if err := m.store.Delete(ctx, m.chatID, sessionID); err != nil {
		slog.Error("delete session", "error", err, "chat_id", m.chatID, "session_id", sessionID)
	}
	if activeChanged {
		m.persistActive(ctx, newActive)
	}
}

// ClearAll empties the collection and clears the active id.
func (m *SessionManager) ClearAll(ctx context.Context) {
	m.mu.Lock()
	m.sessions = nil
	m.activeID = ""
	m.mu.Unlock()

	if err := m.store.DeleteAll(ctx, m.chatID); err != nil {
		slog.Error("clear sessions", "error", err, "chat_id", m.chatID)
	}
	m.persistActive(ctx, "")
}

// Active returns a copy of the active session, or nil when none is active.
func (m *SessionManager) Active() *domain.ChatSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess := m.find(m.activeID); sess != nil {
		return sess.Clone()
	}
	return nil
}

func (m *SessionManager) ActiveID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeID
}

// List returns copies of all sessions, newest created first.
func (m *SessionManager) List() []domain.ChatSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ChatSession, len(m.sessions))
	for i, s := range m.sessions {
		out[i] = *s.Clone()
	}
	return out
}

func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// find must be called with the mutex held.
func (m *SessionManager) find(sessionID string) *domain.ChatSession {
	if sessionID == "" {
		return nil
	}
	for _, s := range m.sessions {
		if s.ID == sessionID {
			return s
		}
	}
	return nil
}

func (m *SessionManager) persistSave(ctx context.Context, sess *domain.ChatSession) {
	if err := m.store.Save(ctx, m.chatID, sess); err != nil {
		slog.Error("persist session, continuing in memory", "error", err, "chat_id", m.chatID, "session_id", sess.ID)
	}
}

func (m *SessionManager) persistActive(ctx context.Context, sessionID string) {
	if err := m.store.SetActive(ctx, m.chatID, sessionID); err != nil {
		slog.Error("persist active session", "error", err, "chat_id", m.chatID)
	}
}

// Sessions hands out one SessionManager per chat, loading existing state from
// the store on first access.
type Sessions struct {
	mu     sync.Mutex
	store  SessionStore
	byChat map[int64]*SessionManager
}

func NewSessions(store SessionStore) *Sessions {
	return &Sessions{store: store, byChat: make(map[int64]*SessionManager)}
}

func (s *Sessions) ForChat(ctx context.Context, chatID int64) *SessionManager {
	s.mu.Lock()
	m, ok := s.byChat[chatID]
	if !ok {
		m = NewSessionManager(chatID, s.store)
		s.byChat[chatID] = m
		s.mu.Unlock()
		m.load(ctx)
		return m
	}
	s.mu.Unlock()
	return m
}
