package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"placesbot/internal/models"
)

// ErrResultSetExpired is returned when a button refers to a result set that
// has since been replaced by a newer search
var ErrResultSetExpired = errors.New("result set expired")

// Store persists sessions and the data their carousels page through.
// Every write overwrites the previous value under the same key.
type Store interface {
	// Load returns the chat's session, or a fresh Idle one when none is stored
	Load(ctx context.Context, chatID int64) (*Session, error)
	Save(ctx context.Context, s *Session) error
	// Reset drops everything stored for the chat
	Reset(ctx context.Context, chatID int64) error

	// SaveResults replaces the chat's result set
	SaveResults(ctx context.Context, chatID int64, setID string, results []models.RankedResult) error
	// LoadResults returns the result set setID, or ErrResultSetExpired when
	// the chat's current set has another id or none is stored
	LoadResults(ctx context.Context, chatID int64, setID string) ([]models.RankedResult, error)

	// SaveList stores v (JSON encoded) as the named carousel list
	SaveList(ctx context.Context, chatID int64, name string, v any) error
	// LoadList decodes the named list into dst; false when nothing is stored
	LoadList(ctx context.Context, chatID int64, name string, dst any) (bool, error)
}

// StoredResults is the encoded form of a result set
type StoredResults struct {
	ID      string                `json:"id"`
	Results []models.RankedResult `json:"results"`
}

// MemoryStore keeps sessions in process memory
type MemoryStore struct {
	mu            sync.RWMutex
	defaultRadius int
	sessions      map[int64][]byte
	results       map[int64][]byte
	lists         map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store whose fresh sessions use defaultRadius
func NewMemoryStore(defaultRadius int) *MemoryStore {
	return &MemoryStore{
		defaultRadius: defaultRadius,
		sessions:      make(map[int64][]byte),
		results:       make(map[int64][]byte),
		lists:         make(map[string][]byte),
	}
}

// Load returns the chat's session or a fresh one. Values are stored JSON
// encoded, the same as in Redis.
func (m *MemoryStore) Load(ctx context.Context, chatID int64) (*Session, error) {
	m.mu.RLock()
	data, ok := m.sessions[chatID]
	m.mu.RUnlock()

	if !ok {
		return New(chatID, m.defaultRadius), nil
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %d: %w", chatID, err)
	}
	return &s, nil
}

func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %d: %w", s.ChatID, err)
	}

	m.mu.Lock()
	m.sessions[s.ChatID] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Reset(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, chatID)
	delete(m.results, chatID)
	prefix := listKey(chatID, "")
	for k := range m.lists {
		if strings.HasPrefix(k, prefix) {
			delete(m.lists, k)
		}
	}
	return nil
}

func (m *MemoryStore) SaveResults(ctx context.Context, chatID int64, setID string, results []models.RankedResult) error {
	data, err := json.Marshal(StoredResults{ID: setID, Results: results})
	if err != nil {
		return fmt.Errorf("encode results %d: %w", chatID, err)
	}

	m.mu.Lock()
	m.results[chatID] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) LoadResults(ctx context.Context, chatID int64, setID string) ([]models.RankedResult, error) {
	m.mu.RLock()
	data, ok := m.results[chatID]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrResultSetExpired
	}
	return DecodeResults(data, setID)
}

func (m *MemoryStore) SaveList(ctx context.Context, chatID int64, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode list %s: %w", name, err)
	}

	m.mu.Lock()
	m.lists[listKey(chatID, name)] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) LoadList(ctx context.Context, chatID int64, name string, dst any) (bool, error) {
	m.mu.RLock()
	data, ok := m.lists[listKey(chatID, name)]
	m.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode list %s: %w", name, err)
	}
	return true, nil
}

// DecodeResults unpacks a StoredResults value and checks its id
func DecodeResults(data []byte, setID string) ([]models.RankedResult, error) {
	var stored StoredResults
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	if stored.ID != setID {
		return nil, ErrResultSetExpired
	}
	if stored.Results == nil {
		stored.Results = []models.RankedResult{}
	}
	return stored.Results, nil
}

func listKey(chatID int64, name string) string {
	return fmt.Sprintf("%d:%s", chatID, name)
}
