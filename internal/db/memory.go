package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/privacy-lens/internal/types"
)

// MemoryStore keeps sites in process memory. Values are copied on the way in
// and out.
type MemoryStore struct {
	mu    sync.RWMutex
	sites map[string]*types.Site
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sites: make(map[string]*types.Site)}
}

// FindByURL returns the stored site or nil.
func (m *MemoryStore) FindByURL(_ context.Context, url string) (*types.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sites[url].Clone(), nil
}

// UpsertByURL stores site under url, keeping the existing ID.
func (m *MemoryStore) UpsertByURL(_ context.Context, url string, site *types.Site) (*types.Site, error) {
	if site == nil {
		return nil, fmt.Errorf("site is nil")
	}
	stored := site.Clone()
	stored.URL = url
	if stored.Trackers == nil {
		stored.Trackers = []string{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sites[url]; ok {
		stored.ID = existing.ID
	} else if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	m.sites[url] = stored
	return stored.Clone(), nil
}

// Len returns the number of stored sites.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sites)
}
