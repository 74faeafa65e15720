package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berean-labs/berean/internal/domain"
	"github.com/berean-labs/berean/internal/repository"
)

func newTestManager(t *testing.T) (*SessionManager, *repository.MemSessionStore) {
	t.Helper()
	store := repository.NewMemSessionStore()
	return NewSessionManager(42, store), store
}

func testResponse(answer string) domain.ChatResponse {
	return domain.ChatResponse{
		AIAnswer: answer,
		ReferencedVerses: []domain.Verse{
			{Reference: "John 3:16", Text: "For God so loved the world...", Translation: "web"},
		},
	}
}

func TestCreateSessionUniqueAndActive(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id := m.Create(ctx)
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "duplicate session id %s", id)
		seen[id] = true
		assert.Equal(t, id, m.ActiveID(), "new session must become active")
	}
	assert.Equal(t, 20, m.Count())
}

func TestAddMessageAutoHeals(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	require.Equal(t, 0, m.Count())
	m.AddMessage(ctx, "What is grace?", testResponse("Unmerited favor."))

	require.Equal(t, 1, m.Count(), "exactly one session must exist afterward")
	active := m.Active()
	require.NotNil(t, active)
	require.Len(t, active.Messages, 1)
	assert.Equal(t, "What is grace?", active.Messages[0].Question)
	assert.Equal(t, "What is grace?", active.Title)
	assert.Equal(t, "What is grace?", active.FullPrompt)
}

func TestAddMessagePrependsAndKeepsTitle(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	m.Create(ctx)
	m.AddMessage(ctx, "first question", testResponse("a1"))
	m.AddMessage(ctx, "second question", testResponse("a2"))

	active := m.Active()
	require.Len(t, active.Messages, 2)
	assert.Equal(t, "second question", active.Messages[0].Question, "newest first")
	assert.Equal(t, "first question", active.Title, "title derives from the first question only")
}

func TestTitleTruncationKeepsFullPrompt(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	long := strings.Repeat("faith and works ", 10)
	m.AddMessage(ctx, long, testResponse("a"))

	active := m.Active()
	assert.LessOrEqual(t, len([]rune(active.Title)), 50)
	assert.Equal(t, long, active.FullPrompt)
}

func TestSwitchUnknownIsNoOp(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	id := m.Create(ctx)
	m.Switch(ctx, "no-such-session")

	assert.Equal(t, id, m.ActiveID(), "active id unchanged")
	assert.Equal(t, 1, m.Count(), "no session created")
}

func TestSwitchBetweenSessions(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	first := m.Create(ctx)
	second := m.Create(ctx)
	require.Equal(t, second, m.ActiveID())

	m.Switch(ctx, first)
	assert.Equal(t, first, m.ActiveID())

	// Switching to the already-active id stays put.
	m.Switch(ctx, first)
	assert.Equal(t, first, m.ActiveID())
}

func TestDeleteActivePromotesMostRecentlyUpdated(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	oldest := m.Create(ctx)
	middle := m.Create(ctx)
	newest := m.Create(ctx)

	// Touch the oldest so it carries the latest UpdatedAt.
	time.Sleep(5 * time.Millisecond)
	m.Switch(ctx, oldest)
	m.AddMessage(ctx, "touch", testResponse("a"))

	m.Delete(ctx, oldest)
	assert.NotEqual(t, oldest, m.ActiveID())
	assert.Contains(t, []string{middle, newest}, m.ActiveID())

	// Now make middle the most recently updated and delete the active one.
	time.Sleep(5 * time.Millisecond)
	m.Switch(ctx, middle)
	m.AddMessage(ctx, "touch middle", testResponse("a"))
	m.Delete(ctx, middle)
	assert.Equal(t, newest, m.ActiveID(), "most recently updated survivor wins")
}

func TestDeleteLastSessionClearsActive(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	id := m.Create(ctx)
	m.Delete(ctx, id)

	assert.Equal(t, "", m.ActiveID())
	assert.Equal(t, 0, m.Count())
	assert.Nil(t, m.Active())
}

func TestDeleteInactiveKeepsActive(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	first := m.Create(ctx)
	second := m.Create(ctx)

	m.Delete(ctx, first)
	assert.Equal(t, second, m.ActiveID())
}

func TestClearAllSessions(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	m.Create(ctx)
	m.Create(ctx)
	m.ClearAll(ctx)

	assert.Equal(t, 0, m.Count())
	assert.Equal(t, "", m.ActiveID())

	sessions, active, err := store.Load(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.Equal(t, "", active)
}

func TestRenameMissingIsNoOp(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	id := m.Create(ctx)
	m.Rename(ctx, "missing", "New Title")
	m.Rename(ctx, id, "Study of Romans")

	assert.Equal(t, "Study of Romans", m.Active().Title)
}

func TestManagerPersistsAcrossReload(t *testing.T) {
	store := repository.NewMemSessionStore()
	ctx := context.Background()

	hub := NewSessions(store)
	m := hub.ForChat(ctx, 7)
	m.AddMessage(ctx, "Who wrote Hebrews?", testResponse("Authorship is debated."))
	activeID := m.ActiveID()

	// A fresh hub simulates a restart over the same store.
	reloaded := NewSessions(store).ForChat(ctx, 7)
	require.Equal(t, 1, reloaded.Count())
	assert.Equal(t, activeID, reloaded.ActiveID())
	active := reloaded.Active()
	require.NotNil(t, active)
	require.Len(t, active.Messages, 1)
	assert.Equal(t, "Who wrote Hebrews?", active.Messages[0].Question)
}

func TestForChatReturnsSameManager(t *testing.T) {
	hub := NewSessions(repository.NewMemSessionStore())
	ctx := context.Background()

	a := hub.ForChat(ctx, 1)
	b := hub.ForChat(ctx, 1)
	c := hub.ForChat(ctx, 2)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

// A failing store must never break session operations.
type failingSessionStore struct{}

func (failingSessionStore) Load(context.Context, int64) ([]domain.ChatSession, string, error) {
	return nil, "", assert.AnError
}
func (failingSessionStore) Save(context.Context, int64, *domain.ChatSession) error {
	return assert.AnError
}
func (failingSessionStore) Delete(context.Context, int64, string) error  { return assert.AnError }
func (failingSessionStore) DeleteAll(context.Context, int64) error       { return assert.AnError }
func (failingSessionStore) SetActive(context.Context, int64, string) error {
	return assert.AnError
}

func TestManagerDegradesToMemoryOnStoreFailure(t *testing.T) {
	m := NewSessionManager(1, failingSessionStore{})
	ctx := context.Background()

	id := m.Create(ctx)
	m.AddMessage(ctx, "still works", testResponse("yes"))

	assert.Equal(t, id, m.ActiveID())
	require.NotNil(t, m.Active())
	assert.Len(t, m.Active().Messages, 1)
}
