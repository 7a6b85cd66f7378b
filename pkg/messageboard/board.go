// Package messageboard holds the per-message boards bracketed by the
// sync and clear tasks of each iteration: producers post onto an
// incoming buffer, sync publishes it to readers, clear wipes the board.
package messageboard

import (
	"fmt"
	"sync"
)

// Board is the store for one message type.
type Board struct {
	mu       sync.RWMutex
	name     string
	incoming []any
	current  []any
	synced   bool
}

// Name returns the message name the board serves.
func (b *Board) Name() string { return b.name }

// Post appends a message to the incoming buffer. Legal until the
// board's sync runs in the current iteration.
func (b *Board) Post(msg any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.synced {
		return fmt.Errorf("message board %q already synced this iteration", b.name)
	}
	b.incoming = append(b.incoming, msg)
	return nil
}

// Sync publishes the incoming buffer to readers.
func (b *Board) Sync() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.incoming
	b.incoming = nil
	b.synced = true
}

// Clear wipes the board for the next iteration.
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = nil
	b.synced = false
}

// Len returns the number of readable messages.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.current)
}

// Iterator returns a read iterator over the synced messages.
func (b *Board) Iterator() *Iterator {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return &Iterator{messages: b.current}
}

// Iterator walks the messages published by the last sync.
type Iterator struct {
	messages []any
	pos      int
}

// Next returns the next message, or false when exhausted.
func (it *Iterator) Next() (any, bool) {
	if it.pos >= len(it.messages) {
		return nil, false
	}
	msg := it.messages[it.pos]
	it.pos++
	return msg, true
}

// Rewind resets the iterator to the first message.
func (it *Iterator) Rewind() { it.pos = 0 }

// Manager owns every registered message board.
type Manager struct {
	mu     sync.RWMutex
	boards map[string]*Board
}

// NewManager creates an empty board manager.
func NewManager() *Manager {
	return &Manager{boards: make(map[string]*Board)}
}

// RegisterMessage creates the board for a message type.
func (m *Manager) RegisterMessage(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.boards[name]; ok {
		return fmt.Errorf("message %q already registered", name)
	}
	m.boards[name] = &Board{name: name}
	return nil
}

// Board returns the named board, or an error when unregistered.
func (m *Manager) Board(name string) (*Board, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.boards[name]
	if !ok {
		return nil, fmt.Errorf("message %q not registered", name)
	}
	return b, nil
}

// Sync publishes the named board.
func (m *Manager) Sync(name string) error {
	b, err := m.Board(name)
	if err != nil {
		return err
	}
	b.Sync()
	return nil
}

// Clear wipes the named board.
func (m *Manager) Clear(name string) error {
	b, err := m.Board(name)
	if err != nil {
		return err
	}
	b.Clear()
	return nil
}
