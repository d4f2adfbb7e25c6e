// Package export stores finalized CV artifacts (rendered HTML and the
// canonical JSON document) so they can be fetched or shared after the
// conversation ends.
package export

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned when no artifact exists for the key.
var ErrNotFound = errors.New("export: artifact not found")

// Store persists finalized artifacts keyed by session and filename.
type Store interface {
	Put(ctx context.Context, sessionID, name string, content []byte) error
	Get(ctx context.Context, sessionID, name string) ([]byte, error)
	GetURL(ctx context.Context, sessionID, name string) (string, error)
	List(ctx context.Context, sessionID string) ([]string, error)
}

// contentType maps an artifact filename to its MIME type.
func contentType(name string) string {
	switch path.Ext(name) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".json":
		return "application/json"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// MemoryStore keeps artifacts in process memory. The default when no
// object storage is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, sessionID, name string, content []byte) error {
	key, err := artifactKey(sessionID, name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), content...)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID, name string) ([]byte, error) {
	key, err := artifactKey(sessionID, name)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (s *MemoryStore) List(_ context.Context, sessionID string) ([]string, error) {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return nil, fmt.Errorf("export: session id is required")
	}
	prefix := sid + "/"
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, 8)
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			out = append(out, strings.TrimPrefix(key, prefix))
		}
	}
	sort.Strings(out)
	return out, nil
}

// GetURL is unsupported for the in-memory backend.
func (s *MemoryStore) GetURL(context.Context, string, string) (string, error) {
	return "", nil
}

func artifactKey(sessionID, name string) (string, error) {
	sid := strings.TrimSpace(sessionID)
	n := strings.TrimLeft(strings.TrimSpace(name), "/")
	if sid == "" {
		return "", fmt.Errorf("export: session id is required")
	}
	if n == "" {
		return "", fmt.Errorf("export: artifact name is required")
	}
	return sid + "/" + n, nil
}
