package popsim

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Snapshot is a point-in-time capture of a world's occupancy. Counts holds,
// for each species in Species order, the flattened per-site counts.
type Snapshot struct {
	WorldID  WorldID       `json:"world_id"`
	Step     int64         `json:"step"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	Capacity int           `json:"capacity"`
	Species  []SpeciesName `json:"species"`
	Counts   [][]uint32    `json:"counts"`
}

// ValidateSnapshot checks that snapshot is well formed and, when w is not
// nil, that it fits w: same dimensions, capacity and species, and no site
// above capacity. Each species may appear only once, and a site total must
// fit in a uint32 even when capacity is unbounded.
func ValidateSnapshot(snapshot Snapshot, w *World) error {
	if snapshot.Width < 1 || snapshot.Height < 1 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidSnapshot, snapshot.Width, snapshot.Height)
	}
	if len(snapshot.Counts) != len(snapshot.Species) {
		return fmt.Errorf("%w: %d species but %d count arrays", ErrInvalidSnapshot, len(snapshot.Species), len(snapshot.Counts))
	}
	n := snapshot.Width * snapshot.Height
	for i, c := range snapshot.Counts {
		if len(c) != n {
			return fmt.Errorf("%w: species %s has %d sites, want %d", ErrInvalidSnapshot, snapshot.Species[i], len(c), n)
		}
	}
	seen := make(map[SpeciesName]bool, len(snapshot.Species))
	for _, name := range snapshot.Species {
		if seen[name] {
			return fmt.Errorf("%w: species %s listed twice", ErrInvalidSnapshot, name)
		}
		seen[name] = true
	}
	limit := uint64(math.MaxUint32)
	if snapshot.Capacity > 0 {
		limit = uint64(snapshot.Capacity)
	}
	for site := range n {
		var total uint64
		for _, c := range snapshot.Counts {
			total += uint64(c[site])
		}
		if total > limit {
			return fmt.Errorf("%w: site %d holds %d, limit %d", ErrInvalidSnapshot, site, total, limit)
		}
	}
	if w == nil {
		return nil
	}

	l := w.lattice
	if snapshot.Width != l.width || snapshot.Height != l.height {
		return fmt.Errorf("%w: size %dx%d does not match world %dx%d", ErrInvalidSnapshot,
			snapshot.Width, snapshot.Height, l.width, l.height)
	}
	if snapshot.Capacity != int(l.capacity) {
		return fmt.Errorf("%w: capacity %d does not match world %d", ErrInvalidSnapshot, snapshot.Capacity, l.capacity)
	}
	if len(snapshot.Species) != w.registry.len() {
		return fmt.Errorf("%w: %d species, world has %d", ErrInvalidSnapshot, len(snapshot.Species), w.registry.len())
	}
	for _, name := range snapshot.Species {
		if _, ok := w.registry.lookup(name); !ok {
			return fmt.Errorf("%w: species %s not found in world", ErrInvalidSnapshot, name)
		}
	}
	return nil
}

// EncodeSnapshotJSON encodes a snapshot to JSON format.
func EncodeSnapshotJSON(snapshot Snapshot) ([]byte, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshotJSON decodes a snapshot from JSON format.
func DecodeSnapshotJSON(data []byte) (Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snapshot, nil
}

// Snapshot captures the current occupancy and step count.
func (w *World) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshotLocked()
}

func (w *World) snapshotLocked() Snapshot {
	l := w.lattice
	s := Snapshot{
		WorldID:  w.id,
		Step:     w.steps,
		Width:    l.width,
		Height:   l.height,
		Capacity: int(l.capacity),
		Species:  w.registry.names(),
		Counts:   make([][]uint32, l.nspecies),
	}
	for sp := range s.Counts {
		c := make([]uint32, l.Len())
		for i := range c {
			c[i] = l.counts[i*l.nspecies+sp]
		}
		s.Counts[sp] = c
	}
	return s
}

// Restore replaces the world's occupancy and step count with the snapshot's.
// Species are matched by name, so the snapshot may list them in any order.
// The random generator is not part of a snapshot and keeps its state.
func (w *World) Restore(snapshot Snapshot) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := ValidateSnapshot(snapshot, w); err != nil {
		return err
	}

	l := w.lattice
	l.reset()
	for i, name := range snapshot.Species {
		sp, _ := w.registry.lookup(name)
		for site, c := range snapshot.Counts[i] {
			l.counts[site*l.nspecies+sp] = c
			l.totals[site] += c
			l.abundance[sp] += uint64(c)
		}
	}
	w.steps = snapshot.Step
	return nil
}

// SetSnapshotDir sets the directory SaveSnapshot writes to. An empty dir
// disables snapshots.
func (w *World) SetSnapshotDir(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.snapshotDir = dir
}

// SetSnapshotEveryNSteps makes the world save a snapshot after every n-th
// step. n <= 0 disables periodic snapshots.
func (w *World) SetSnapshotEveryNSteps(n int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.snapshotEvery = n
}

// SnapshotPath returns the file SaveSnapshot writes, or "" when no snapshot
// directory is configured.
func (w *World) SnapshotPath() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshotPathLocked()
}

func (w *World) snapshotPathLocked() string {
	if w.snapshotDir == "" {
		return ""
	}
	id := w.id
	if id == "" {
		id = "world"
	}
	return filepath.Join(w.snapshotDir, string(id)+".snapshot.json")
}

// SaveSnapshot writes the current snapshot to SnapshotPath. The file is
// written to a temporary name first and renamed into place.
func (w *World) SaveSnapshot() error {
	w.mu.RLock()
	path := w.snapshotPathLocked()
	snap := w.snapshotLocked()
	w.mu.RUnlock()

	if path == "" {
		return ErrNoSnapshotDir
	}
	data, err := EncodeSnapshotJSON(snap)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads the snapshot at SnapshotPath and restores it.
func (w *World) LoadSnapshot() error {
	path := w.SnapshotPath()
	if path == "" {
		return ErrNoSnapshotDir
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	snap, err := DecodeSnapshotJSON(data)
	if err != nil {
		return err
	}
	return w.Restore(snap)
}
