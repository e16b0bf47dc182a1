package storage

import (
	"sort"
	"strings"
	"sync"
)

// MemoryStorage is a process-local StorageInterface
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// Ensure MemoryStorage implements StorageInterface
var _ StorageInterface = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (m *MemoryStorage) Store(filename string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[filename] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStorage) Retrieve(filename string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[filename]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStorage) List(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var names []string
	for name := range m.data {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryStorage) Delete(filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, filename)
	return nil
}
