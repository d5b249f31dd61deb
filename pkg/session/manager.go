package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aetherlabs/aether/pkg/providers"
)

// Session is one persisted conversation transcript.
type Session struct {
	Key      string              `json:"key"`
	Messages []providers.Message `json:"messages"`
	Created  time.Time           `json:"created"`
	Updated  time.Time           `json:"updated"`
}

// Manager keeps sessions in memory and mirrors them to one JSON file per
// session under the storage directory. An empty storage path disables
// persistence.
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	storage  string
}

func NewManager(storage string) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		storage:  storage,
	}

	if storage != "" {
		os.MkdirAll(storage, 0o755)
		m.loadSessions()
	}

	return m
}

func (m *Manager) GetOrCreate(key string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[key]
	if ok {
		return session
	}

	session = &Session{
		Key:      key,
		Messages: []providers.Message{},
		Created:  time.Now(),
		Updated:  time.Now(),
	}
	m.sessions[key] = session

	return session
}

func (m *Manager) AddMessage(sessionKey, role, content string) {
	m.AddFullMessage(sessionKey, providers.Message{
		Role:    role,
		Content: content,
	})
}

// AddFullMessage appends a complete message, including tool calls and tool
// call IDs, preserving the conversation flow for later replay.
func (m *Manager) AddFullMessage(sessionKey string, msg providers.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionKey]
	if !ok {
		session = &Session{
			Key:      sessionKey,
			Messages: []providers.Message{},
			Created:  time.Now(),
		}
		m.sessions[sessionKey] = session
	}

	session.Messages = append(session.Messages, msg)
	session.Updated = time.Now()
}

func (m *Manager) GetHistory(key string) []providers.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[key]
	if !ok {
		return []providers.Message{}
	}

	history := make([]providers.Message, len(session.Messages))
	copy(history, session.Messages)
	return history
}

func (m *Manager) Save(key string) error {
	if m.storage == "" {
		return nil
	}

	// Snapshot under read lock, then perform slow file I/O after unlock.
	m.mu.RLock()
	stored, ok := m.sessions[key]
	if !ok {
		m.mu.RUnlock()
		return nil
	}

	snapshot := cloneSession(stored)
	m.mu.RUnlock()

	return m.writeSessionSnapshot(snapshot)
}

func (m *Manager) loadSessions() {
	files, err := os.ReadDir(m.storage)
	if err != nil {
		return
	}

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(m.storage, file.Name()))
		if err != nil {
			continue
		}

		var session Session
		if err := json.Unmarshal(data, &session); err != nil {
			continue
		}
		if session.Key == "" {
			continue
		}

		m.sessions[session.Key] = &session
	}
}

// sanitizeFilename converts a session key into a cross-platform safe
// filename. Session keys use "surface:id" (e.g. "cli:direct") but ':' is
// the volume separator on Windows, so it is replaced with '_'. The original
// key is preserved inside the JSON file, so loadSessions still maps back to
// the right in-memory key.
func sanitizeFilename(key string) string {
	return strings.ReplaceAll(key, ":", "_")
}

func (m *Manager) writeSessionSnapshot(snapshot Session) error {
	filename := sanitizeFilename(snapshot.Key)

	// filepath.IsLocal rejects empty names, "..", absolute paths, and
	// OS-reserved device names. The extra checks reject "." and any
	// directory separators so that the session file is always written
	// directly inside m.storage.
	if filename == "." || !filepath.IsLocal(filename) || strings.ContainsAny(filename, `/\`) {
		return os.ErrInvalid
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	sessionPath := filepath.Join(m.storage, filename+".json")
	tmpFile, err := os.CreateTemp(m.storage, "session-*.tmp")
	if err != nil {
		return err
	}

	tmpPath := tmpFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Chmod(0o644); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, sessionPath); err != nil {
		return err
	}
	cleanup = false
	return nil
}

func cloneSession(stored *Session) Session {
	snapshot := Session{
		Key:     stored.Key,
		Created: stored.Created,
		Updated: stored.Updated,
	}
	if len(stored.Messages) > 0 {
		snapshot.Messages = make([]providers.Message, len(stored.Messages))
		copy(snapshot.Messages, stored.Messages)
	} else {
		snapshot.Messages = []providers.Message{}
	}
	return snapshot
}
