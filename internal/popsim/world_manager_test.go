package popsim

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"
)

func TestWorldManager_CreateGetDelete(t *testing.T) {
	wm := NewWorldManager()
	cfg := Config{Width: 4, Height: 4, Seed: 1}

	w, err := wm.CreateWorld("w1", lotkaVolterra(), cfg)
	if err != nil {
		t.Fatalf("CreateWorld returned error: %v", err)
	}
	if w.ID() != "w1" {
		t.Errorf("Expected world id w1, got %s", w.ID())
	}

	got, ok := wm.GetWorld("w1")
	if !ok || got != w {
		t.Fatal("Expected to find the created world")
	}

	if _, err := wm.CreateWorld("w1", lotkaVolterra(), cfg); !errors.Is(err, ErrWorldExists) {
		t.Errorf("Expected ErrWorldExists, got %v", err)
	}

	if err := wm.DeleteWorld("w1"); err != nil {
		t.Fatalf("DeleteWorld returned error: %v", err)
	}
	if _, ok := wm.GetWorld("w1"); ok {
		t.Error("Expected world to be gone")
	}
	if err := wm.DeleteWorld("w1"); !errors.Is(err, ErrWorldNotFound) {
		t.Errorf("Expected ErrWorldNotFound, got %v", err)
	}
}

func TestWorldManager_CreateInvalid(t *testing.T) {
	wm := NewWorldManager()
	if _, err := wm.CreateWorld("bad", lotkaVolterra(), Config{Width: 0, Height: 1}); err == nil {
		t.Fatal("Expected error for invalid config")
	}
	if len(wm.ListWorlds()) != 0 {
		t.Error("Invalid world was registered")
	}
}

func TestWorldManager_DeleteStopsWorld(t *testing.T) {
	wm := NewWorldManager()
	w, _ := wm.CreateWorld("running", lotkaVolterra(), Config{Width: 4, Height: 4})
	w.Start(time.Millisecond)
	if err := wm.DeleteWorld("running"); err != nil {
		t.Fatalf("DeleteWorld returned error: %v", err)
	}
	if w.IsRunning() {
		t.Error("Expected deleted world to be stopped")
	}
}

func TestWorldManager_Replace(t *testing.T) {
	wm := NewWorldManager()
	first := seededWorld(t, 1)
	if old := wm.Replace("x", first); old != nil {
		t.Error("Expected no previous world")
	}
	first.Start(time.Millisecond)

	second := seededWorld(t, 2)
	if old := wm.Replace("x", second); old != first {
		t.Error("Expected the first world to be returned")
	}
	if first.IsRunning() {
		t.Error("Expected the replaced world to be stopped")
	}
	if second.ID() != "x" {
		t.Errorf("Expected id x, got %s", second.ID())
	}
}

func TestWorldManager_ListWorlds(t *testing.T) {
	wm := NewWorldManager()
	for _, id := range []WorldID{"c", "a", "b"} {
		if _, err := wm.CreateWorld(id, lotkaVolterra(), Config{Width: 2, Height: 2}); err != nil {
			t.Fatalf("CreateWorld returned error: %v", err)
		}
	}
	if got := wm.ListWorlds(); !slices.Equal(got, []WorldID{"a", "b", "c"}) {
		t.Errorf("Expected sorted ids, got %v", got)
	}
}

func TestWorldManager_Concurrent(t *testing.T) {
	wm := NewWorldManager()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := WorldID(fmt.Sprintf("w%d", i))
			w, err := wm.CreateWorld(id, lotkaVolterra(), Config{
				Width:            4,
				Height:           4,
				InitialDensities: map[SpeciesName]float64{"A": 0.5, "B": 0.5},
				Seed:             uint64(i),
			})
			if err != nil {
				t.Errorf("CreateWorld returned error: %v", err)
				return
			}
			w.Step()
			wm.ListWorlds()
		}()
	}
	wg.Wait()
	if len(wm.ListWorlds()) != 20 {
		t.Errorf("Expected 20 worlds, got %d", len(wm.ListWorlds()))
	}
}
