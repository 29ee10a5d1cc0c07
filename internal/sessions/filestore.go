package sessions

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/haasonsaas/agentcore/internal/observability"
	"github.com/haasonsaas/agentcore/pkg/models"
)

const stemTimeFormat = "2006-01-02-15-04-05"

// metadataDoc is the on-disk shape of sessions/<stem>.json: everything
// about a session except its conversation history, which lives solely in
// messages/<stem>.jsonl. MessagesCount here is an advisory cache; replay of
// the JSONL is always authoritative (spec invariant: metadata never
// outranks a replay count).
type metadataDoc struct {
	ID            string                   `json:"id"`
	WorkDir       string                   `json:"work_dir"`
	Todos         []models.TodoItem        `json:"todos,omitempty"`
	FileTracker   map[string]time.Time     `json:"file_tracker,omitempty"`
	LoadedMemory  map[string]bool          `json:"loaded_memory,omitempty"`
	SubAgentState *models.SubAgentState    `json:"sub_agent_state,omitempty"`
	ModelName     string                   `json:"model_name,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
	MessagesCount int                      `json:"messages_count"`
}

// FileStore is the on-disk Session Store (C1): a per-project directory of
// metadata snapshots and append-only JSONL message logs, laid out per
// spec §4.1 under $HOME/.agentcore/projects/<project-key>/.
type FileStore struct {
	sessionsDir string
	messagesDir string
	logger      *observability.Logger

	mu    sync.Mutex
	stems map[string]string // session id -> file stem, cached after first lookup/create
}

// ProjectKey turns a working directory into the directory-safe key used
// under $HOME/.agentcore/projects/.
func ProjectKey(cwd string) string {
	return strings.ReplaceAll(cwd, string(filepath.Separator), "-")
}

// BaseDir returns $HOME/.agentcore/projects/<project-key> for cwd.
func BaseDir(home, cwd string) string {
	return filepath.Join(home, ".agentcore", "projects", ProjectKey(cwd))
}

// NewFileStore creates a FileStore rooted at baseDir, creating the
// sessions/ and messages/ subdirectories if they do not exist. logger may
// be nil; when set, malformed JSONL lines are logged as warnings rather
// than silently dropped.
func NewFileStore(baseDir string, logger *observability.Logger) (*FileStore, error) {
	sessionsDir := filepath.Join(baseDir, "sessions")
	messagesDir := filepath.Join(baseDir, "messages")
	if err := os.MkdirAll(sessionsDir, 0o755); err != nil {
		return nil, fmt.Errorf("sessions: create sessions dir: %w", err)
	}
	if err := os.MkdirAll(messagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("sessions: create messages dir: %w", err)
	}
	return &FileStore{
		sessionsDir: sessionsDir,
		messagesDir: messagesDir,
		logger:      logger,
		stems:       map[string]string{},
	}, nil
}

func (f *FileStore) stemFor(id string, createdAt time.Time) string {
	return createdAt.Format(stemTimeFormat) + "-" + id
}

func (f *FileStore) metaPath(stem string) string {
	return filepath.Join(f.sessionsDir, stem+".json")
}

func (f *FileStore) messagesPath(stem string) string {
	return filepath.Join(f.messagesDir, stem+".jsonl")
}

// findStem scans sessions/ for a file whose stem (name minus ".json")
// ends in "-<id>", per spec §4.1 load(id).
func (f *FileStore) findStem(id string) (string, error) {
	f.mu.Lock()
	if stem, ok := f.stems[id]; ok {
		f.mu.Unlock()
		return stem, nil
	}
	f.mu.Unlock()

	entries, err := os.ReadDir(f.sessionsDir)
	if err != nil {
		return "", fmt.Errorf("sessions: list sessions dir: %w", err)
	}
	suffix := "-" + id + ".json"
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), suffix) {
			stem := strings.TrimSuffix(entry.Name(), ".json")
			f.mu.Lock()
			f.stems[id] = stem
			f.mu.Unlock()
			return stem, nil
		}
	}
	return "", ErrNotFound
}

func (f *FileStore) Create(ctx context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("sessions: session is required")
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = session.CreatedAt

	stem := f.stemFor(session.ID, session.CreatedAt)
	f.mu.Lock()
	f.stems[session.ID] = stem
	f.mu.Unlock()

	if err := f.writeMetadata(stem, docFromSession(session, session.MessagesCount())); err != nil {
		return err
	}
	// Touch an empty messages file so a subsequent load sees zero history
	// rather than a missing-file error.
	file, err := os.OpenFile(f.messagesPath(stem), os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("sessions: create messages file: %w", err)
	}
	return file.Close()
}

func (f *FileStore) writeMetadata(stem string, doc metadataDoc) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("sessions: marshal metadata: %w", err)
	}
	tmp := f.metaPath(stem) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("sessions: write metadata: %w", err)
	}
	return os.Rename(tmp, f.metaPath(stem))
}

func docFromSession(session *models.Session, messagesCount int) metadataDoc {
	return metadataDoc{
		ID:            session.ID,
		WorkDir:       session.WorkDir,
		Todos:         session.Todos,
		FileTracker:   session.FileTracker,
		LoadedMemory:  session.LoadedMemory,
		SubAgentState: session.SubAgentState,
		ModelName:     session.ModelName,
		CreatedAt:     session.CreatedAt,
		UpdatedAt:     session.UpdatedAt,
		MessagesCount: messagesCount,
	}
}

func (f *FileStore) Get(ctx context.Context, id string) (*models.Session, error) {
	stem, err := f.findStem(id)
	if err != nil {
		return nil, err
	}

	metaBytes, err := os.ReadFile(f.metaPath(stem))
	if err != nil {
		return nil, fmt.Errorf("sessions: read metadata: %w", err)
	}
	var doc metadataDoc
	if err := json.Unmarshal(metaBytes, &doc); err != nil {
		return nil, fmt.Errorf("sessions: parse metadata: %w", err)
	}

	history, err := f.replay(ctx, stem)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:                  doc.ID,
		WorkDir:             doc.WorkDir,
		ConversationHistory: history,
		Todos:               doc.Todos,
		FileTracker:         doc.FileTracker,
		LoadedMemory:        doc.LoadedMemory,
		SubAgentState:       doc.SubAgentState,
		ModelName:           doc.ModelName,
		CreatedAt:           doc.CreatedAt,
		UpdatedAt:           doc.UpdatedAt,
	}
	if session.FileTracker == nil {
		session.FileTracker = map[string]time.Time{}
	}
	if session.LoadedMemory == nil {
		session.LoadedMemory = map[string]bool{}
	}
	return session, nil
}

// replay reads the JSONL message log, skipping malformed or partial lines
// (the tail of an interrupted write) rather than failing the whole load.
func (f *FileStore) replay(ctx context.Context, stem string) ([]models.ConversationItem, error) {
	file, err := os.Open(f.messagesPath(stem))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sessions: open messages file: %w", err)
	}
	defer file.Close()

	var items []models.ConversationItem
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var item models.ConversationItem
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			if f.logger != nil {
				f.logger.Warn(ctx, "sessions: skipping malformed history line", "stem", stem, "line", lineNum, "error", err.Error())
			}
			continue
		}
		if item.Type == "" {
			// Unknown type tag; ConversationItem.UnmarshalJSON already
			// logged nothing, so note it here.
			if f.logger != nil {
				f.logger.Warn(ctx, "sessions: skipping unknown history item type", "stem", stem, "line", lineNum)
			}
			continue
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		if f.logger != nil {
			f.logger.Warn(ctx, "sessions: history scan stopped early", "stem", stem, "error", err.Error())
		}
	}
	return items, nil
}

func (f *FileStore) AppendHistory(ctx context.Context, sessionID string, items ...models.ConversationItem) error {
	if len(items) == 0 {
		return nil
	}
	stem, err := f.findStem(sessionID)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(f.messagesPath(stem), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("sessions: open messages file for append: %w", err)
	}
	writer := bufio.NewWriter(file)
	for _, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			file.Close()
			return fmt.Errorf("sessions: marshal history item: %w", err)
		}
		if _, err := writer.Write(raw); err != nil {
			file.Close()
			return fmt.Errorf("sessions: write history item: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			file.Close()
			return fmt.Errorf("sessions: write history item: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("sessions: flush history: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("sessions: sync history: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("sessions: close history file: %w", err)
	}

	// Metadata is rewritten only after the JSONL append durably lands, so
	// the JSONL always reflects at least as much as the metadata claims.
	metaBytes, err := os.ReadFile(f.metaPath(stem))
	if err != nil {
		return fmt.Errorf("sessions: read metadata: %w", err)
	}
	var doc metadataDoc
	if err := json.Unmarshal(metaBytes, &doc); err != nil {
		return fmt.Errorf("sessions: parse metadata: %w", err)
	}
	for _, item := range items {
		if item.Type == models.ItemUserMessage || item.Type == models.ItemAssistantMessage {
			doc.MessagesCount++
		}
	}
	doc.UpdatedAt = time.Now()
	return f.writeMetadata(stem, doc)
}

func (f *FileStore) Save(ctx context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("sessions: session is required")
	}
	stem, err := f.findStem(session.ID)
	if err != nil {
		return err
	}
	session.UpdatedAt = time.Now()
	return f.writeMetadata(stem, docFromSession(session, session.MessagesCount()))
}

func (f *FileStore) Delete(ctx context.Context, id string) error {
	stem, err := f.findStem(id)
	if err != nil {
		return err
	}
	if err := os.Remove(f.metaPath(stem)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("sessions: delete metadata: %w", err)
	}
	if err := os.Remove(f.messagesPath(stem)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("sessions: delete messages: %w", err)
	}
	f.mu.Lock()
	delete(f.stems, id)
	f.mu.Unlock()
	return nil
}

func (f *FileStore) ListSessions(ctx context.Context) ([]Summary, error) {
	entries, err := os.ReadDir(f.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("sessions: list sessions dir: %w", err)
	}

	var out []Summary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		metaBytes, err := os.ReadFile(filepath.Join(f.sessionsDir, entry.Name()))
		if err != nil {
			if f.logger != nil {
				f.logger.Warn(ctx, "sessions: skipping unreadable metadata file", "file", entry.Name(), "error", err.Error())
			}
			continue
		}
		var doc metadataDoc
		if err := json.Unmarshal(metaBytes, &doc); err != nil {
			if f.logger != nil {
				f.logger.Warn(ctx, "sessions: skipping malformed metadata file", "file", entry.Name(), "error", err.Error())
			}
			continue
		}
		if doc.SubAgentState != nil {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), ".json")
		preview, err := f.firstUserMessagePreview(ctx, stem)
		if err != nil {
			if f.logger != nil {
				f.logger.Warn(ctx, "sessions: failed reading preview", "file", entry.Name(), "error", err.Error())
			}
		}
		out = append(out, Summary{
			ID:        doc.ID,
			WorkDir:   doc.WorkDir,
			Preview:   preview,
			ModelName: doc.ModelName,
			CreatedAt: doc.CreatedAt.Format(time.RFC3339),
			UpdatedAt: doc.UpdatedAt.Format(time.RFC3339),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt > out[j].UpdatedAt })
	return out, nil
}

func (f *FileStore) firstUserMessagePreview(ctx context.Context, stem string) (string, error) {
	items, err := f.replay(ctx, stem)
	if err != nil {
		return "", err
	}
	for _, item := range items {
		if item.Type == models.ItemUserMessage && item.UserMessage != nil {
			return item.UserMessage.Content, nil
		}
	}
	return "", nil
}

func (f *FileStore) MostRecentSessionID(ctx context.Context) (string, error) {
	summaries, err := f.ListSessions(ctx)
	if err != nil {
		return "", err
	}
	if len(summaries) == 0 {
		return "", nil
	}
	return summaries[0].ID, nil
}
