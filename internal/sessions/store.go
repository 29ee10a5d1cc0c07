// Package sessions implements the Session Store (C1): the append-only
// history of conversation items, keyed by session id, with a per-project
// on-disk layout on top of FileStore and an in-memory MemoryStore for tests
// and sub-agent scratch sessions.
package sessions

import (
	"context"
	"errors"

	"github.com/haasonsaas/agentcore/pkg/models"
)

// ErrNotFound is returned by Get/Load when no session matches the id.
var ErrNotFound = errors.New("sessions: not found")

// Summary is the lightweight listing entry returned by ListSessions: enough
// to render a "resume session" picker without replaying full history.
type Summary struct {
	ID        string
	WorkDir   string
	Preview   string
	ModelName string
	CreatedAt string
	UpdatedAt string
}

// Store is the persistence contract for sessions. AppendHistory is the only
// mutating path for conversation history; callers must not append directly
// to a Session's ConversationHistory and expect durability.
type Store interface {
	// Create persists a brand new session and returns it with any
	// generated fields (ID, timestamps) filled in.
	Create(ctx context.Context, session *models.Session) error

	// Get loads a session by id, replaying its full history.
	Get(ctx context.Context, id string) (*models.Session, error)

	// AppendHistory appends items to the session's history and persists
	// them durably before returning. Implementations must make this
	// crash-safe: a process death mid-write must leave the store
	// recoverable by skipping the partial tail on the next load.
	AppendHistory(ctx context.Context, sessionID string, items ...models.ConversationItem) error

	// Save rewrites the session's metadata snapshot (todos, file tracker,
	// model name, timestamps) without touching the JSONL history log.
	Save(ctx context.Context, session *models.Session) error

	// Delete removes a session and its history.
	Delete(ctx context.Context, id string) error

	// ListSessions enumerates root sessions (SubAgentState == nil), sorted
	// by UpdatedAt descending, with a preview of the first user message.
	ListSessions(ctx context.Context) ([]Summary, error)

	// MostRecentSessionID returns the id of the most recently updated root
	// session, or "" if none exist.
	MostRecentSessionID(ctx context.Context) (string, error)
}
