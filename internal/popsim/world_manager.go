package popsim

import (
	"fmt"
	"slices"
	"sync"
)

// WorldManager manages multiple worlds, each isolated from the others.
type WorldManager struct {
	mu     sync.RWMutex
	worlds map[WorldID]*World
}

// NewWorldManager creates an empty manager.
func NewWorldManager() *WorldManager {
	return &WorldManager{
		worlds: make(map[WorldID]*World),
	}
}

// Add registers w under id, which is also set as the world's ID.
// Returns ErrWorldExists if the id is taken.
func (wm *WorldManager) Add(id WorldID, w *World) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	if _, exists := wm.worlds[id]; exists {
		return fmt.Errorf("%w: %s", ErrWorldExists, id)
	}
	w.SetID(id)
	wm.worlds[id] = w
	return nil
}

// CreateWorld builds a world from schema and cfg and registers it under id.
func (wm *WorldManager) CreateWorld(id WorldID, schema *Schema, cfg Config) (*World, error) {
	cfg.ID = id
	w, err := NewWorld(schema, cfg)
	if err != nil {
		return nil, err
	}
	if err := wm.Add(id, w); err != nil {
		return nil, err
	}
	return w, nil
}

// Replace registers w under id, stopping and returning any world it
// replaces (nil if there was none).
func (wm *WorldManager) Replace(id WorldID, w *World) *World {
	w.SetID(id)
	wm.mu.Lock()
	old := wm.worlds[id]
	wm.worlds[id] = w
	wm.mu.Unlock()

	if old != nil {
		old.Stop()
	}
	return old
}

// GetWorld retrieves a world by ID.
func (wm *WorldManager) GetWorld(id WorldID) (*World, bool) {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	w, exists := wm.worlds[id]
	return w, exists
}

// DeleteWorld stops and removes a world.
// Returns ErrWorldNotFound if the world doesn't exist.
func (wm *WorldManager) DeleteWorld(id WorldID) error {
	wm.mu.Lock()
	w, exists := wm.worlds[id]
	delete(wm.worlds, id)
	wm.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrWorldNotFound, id)
	}
	w.Stop()
	return nil
}

// ListWorlds returns the IDs of all worlds, sorted.
func (wm *WorldManager) ListWorlds() []WorldID {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	ids := make([]WorldID, 0, len(wm.worlds))
	for id := range wm.worlds {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// StopAll stops every running world.
func (wm *WorldManager) StopAll() {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	for _, w := range wm.worlds {
		w.Stop()
	}
}
