package session

import (
	"context"
	"sync"
)

// Store guarda el estado de cada conversación, aislado por id
type Store interface {
	// Get devuelve el estado guardado, o uno vacío si no existe
	Get(ctx context.Context, id string) (State, error)
	// Save reemplaza el estado completo
	Save(ctx context.Context, id string, state State) error
	// Update lee, modifica y guarda; los campos que fn no toca se conservan
	Update(ctx context.Context, id string, fn func(*State)) error
	// Clear deja la conversación vacía
	Clear(ctx context.Context, id string) error
	Close() error
}

// MemoryStore store en memoria, útil para desarrollo y tests
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewMemoryStore crea un store en memoria vacío
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

func (m *MemoryStore) Get(_ context.Context, id string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.states[id].Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, id string, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[id] = state.Clone()
	return nil
}

func (m *MemoryStore) Update(_ context.Context, id string, fn func(*State)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.states[id].Clone()
	fn(&state)
	m.states[id] = state
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, id)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
