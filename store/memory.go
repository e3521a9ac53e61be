package store

import (
	"context"
	"sync"
)

// Memory keeps the credential in process memory. It does not survive
// restarts and is meant for tests and ephemeral sessions.
type Memory struct {
	mu         sync.Mutex
	credential string
	present    bool
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Save implements Store.
func (m *Memory) Save(_ context.Context, credential string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.credential = credential
	m.present = true
	return nil
}

// Load implements Store.
func (m *Memory) Load(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.present {
		return "", ErrNotFound
	}
	return m.credential, nil
}

// Clear implements Store.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.credential = ""
	m.present = false
	return nil
}
