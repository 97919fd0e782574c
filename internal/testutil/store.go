package testutil

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// MemoryStore is an in-memory storage.ObjectStore for tests.
type MemoryStore struct {
	mu      sync.Mutex
	BaseURL string
	Objects map[string][]byte
	Types   map[string]string
	Deleted []string
	// FailPut makes every Put fail when set.
	FailPut bool
}

// NewMemoryStore returns an empty MemoryStore rooted at https://cdn.test.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		BaseURL: "https://cdn.test",
		Objects: map[string][]byte{},
		Types:   map[string]string{},
	}
}

// Put stores the object and returns its URL.
func (m *MemoryStore) Put(_ context.Context, objectName, contentType string, r io.Reader, _ int64) (string, error) {
	if m.FailPut {
		return "", errors.New("store unavailable")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	url := m.BaseURL + "/" + objectName
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[url] = data
	m.Types[url] = contentType
	return url, nil
}

// Delete forgets the object and records the call.
func (m *MemoryStore) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, url)
	m.Deleted = append(m.Deleted, url)
	return nil
}

// ObjectName strips BaseURL from url.
func (m *MemoryStore) ObjectName(url string) (string, bool) {
	prefix := m.BaseURL + "/"
	if !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}
