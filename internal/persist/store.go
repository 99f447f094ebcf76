// Package persist saves the latest program text outside the process.
package persist

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("program not found")

// Store saves and loads the latest program text.
type Store interface {
	Save(ctx context.Context, text string) error
	Load(ctx context.Context) (string, error)
}

// Memory is a Store keeping the text in memory.
type Memory struct {
	mu    sync.RWMutex
	text  string
	saved bool
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Save(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.text = text
	m.saved = true

	return nil
}

func (m *Memory) Load(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.saved {
		return "", ErrNotFound
	}

	return m.text, nil
}

var _ Store = (*Memory)(nil)
