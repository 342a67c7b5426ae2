package content

import (
	"context"
	"sync"

	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

// MemoryStore локальный кеш процесса.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]models.ContentArtifact
}

// NewMemoryStore создаёт пустой MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]models.ContentArtifact)}
}

func (m *MemoryStore) Name() string { return "local" }

func (m *MemoryStore) Get(_ context.Context, key string) (*models.ContentArtifact, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	return &a, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, artifact *models.ContentArtifact) error {
	if artifact == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = *artifact
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

// Len количество записей, для тестов и диагностики.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
