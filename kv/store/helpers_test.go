package store

import (
	"errors"
	"sync"
)

// memItemStore is an in-memory ItemStore fake. It records the number of
// SetItem calls so tests can assert that redundant blob writes are skipped.
type memItemStore struct {
	mu     sync.Mutex
	items  map[string]string
	writes int
}

func newMemItemStore() *memItemStore {
	return &memItemStore{items: map[string]string{}}
}

func (m *memItemStore) GetItem(name string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.items[name]

	return value, ok, nil
}

func (m *memItemStore) SetItem(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[name] = value
	m.writes++

	return nil
}

func (m *memItemStore) RemoveItem(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, name)

	return nil
}

func (m *memItemStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.writes
}

func (m *memItemStore) item(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.items[name]

	return value, ok
}

var errEngineDown = errors.New("engine down")

// failingItemStore rejects every call, for exercising error propagation.
type failingItemStore struct{}

func (failingItemStore) GetItem(string) (string, bool, error) { return "", false, errEngineDown }
func (failingItemStore) SetItem(string, string) error         { return errEngineDown }
func (failingItemStore) RemoveItem(string) error              { return errEngineDown }
