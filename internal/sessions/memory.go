package sessions

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// MemoryStore is an in-memory Store used by sub-agent scratch sessions and
// tests. It never touches disk; history does not survive process restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string]*models.Session{}}
}

func (m *MemoryStore) Create(ctx context.Context, session *models.Session) error {
	if session == nil {
		return errors.New("sessions: session is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = session.CreatedAt
	m.sessions[session.ID] = cloneSession(session)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(session), nil
}

func (m *MemoryStore) AppendHistory(ctx context.Context, sessionID string, items ...models.ConversationItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	session.ConversationHistory = append(session.ConversationHistory, items...)
	session.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) Save(ctx context.Context, session *models.Session) error {
	if session == nil {
		return errors.New("sessions: session is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.sessions[session.ID]
	if !ok {
		return ErrNotFound
	}
	clone := cloneSession(session)
	clone.ConversationHistory = existing.ConversationHistory
	clone.CreatedAt = existing.CreatedAt
	clone.UpdatedAt = time.Now()
	m.sessions[session.ID] = clone
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) ListSessions(ctx context.Context) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Summary
	for _, session := range m.sessions {
		if !session.IsRoot() {
			continue
		}
		out = append(out, summarize(session))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt > out[j].UpdatedAt })
	return out, nil
}

func (m *MemoryStore) MostRecentSessionID(ctx context.Context) (string, error) {
	summaries, err := m.ListSessions(ctx)
	if err != nil {
		return "", err
	}
	if len(summaries) == 0 {
		return "", nil
	}
	return summaries[0].ID, nil
}

func summarize(session *models.Session) Summary {
	preview := ""
	for _, item := range session.ConversationHistory {
		if item.Type == models.ItemUserMessage && item.UserMessage != nil {
			preview = item.UserMessage.Content
			break
		}
	}
	return Summary{
		ID:        session.ID,
		WorkDir:   session.WorkDir,
		Preview:   preview,
		ModelName: session.ModelName,
		CreatedAt: session.CreatedAt.Format(time.RFC3339),
		UpdatedAt: session.UpdatedAt.Format(time.RFC3339),
	}
}

// deepCloneMap creates a deep copy of a map[string]time.Time tracker.
func deepCloneTimeMap(m map[string]time.Time) map[string]time.Time {
	if m == nil {
		return nil
	}
	clone := make(map[string]time.Time, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

func deepCloneBoolMap(m map[string]bool) map[string]bool {
	if m == nil {
		return nil
	}
	clone := make(map[string]bool, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

// cloneSession returns a deep copy so callers never share mutable backing
// arrays/maps with the store's own copy.
func cloneSession(session *models.Session) *models.Session {
	if session == nil {
		return nil
	}
	clone := *session
	clone.ConversationHistory = append([]models.ConversationItem{}, session.ConversationHistory...)
	clone.Todos = append([]models.TodoItem{}, session.Todos...)
	clone.FileTracker = deepCloneTimeMap(session.FileTracker)
	clone.LoadedMemory = deepCloneBoolMap(session.LoadedMemory)
	if session.SubAgentState != nil {
		state := *session.SubAgentState
		clone.SubAgentState = &state
	}
	return &clone
}
