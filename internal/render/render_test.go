package render

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/daniacca/popsim/internal/popsim"
)

func testWorld(t *testing.T, k int) *popsim.World {
	t.Helper()
	schema := popsim.NewSchema("lv").
		WithSpeciesNames("A", "B").
		WithReactions(popsim.PredationBirth("A", "B", 0.5), popsim.Birth("B", 0.3)).
		WithHops(popsim.Hop{Species: "B", Rate: 0.2})
	w, err := popsim.NewWorld(schema, popsim.Config{
		Width:            6,
		Height:           4,
		CarryingCapacity: k,
		Seed:             1,
	})
	if err != nil {
		t.Fatalf("NewWorld returned error: %v", err)
	}
	return w
}

func TestFrame_DominantSpecies(t *testing.T) {
	w := testWorld(t, 2)
	_ = w.CreateOccupant("A", popsim.Site{X: 1, Y: 0})
	_ = w.CreateOccupant("B", popsim.Site{X: 3, Y: 2})
	_ = w.CreateOccupant("B", popsim.Site{X: 3, Y: 2})

	img := WorldFrame(w, FrameOptions{CellSize: 3})
	if b := img.Bounds(); b.Dx() != 18 || b.Dy() != 12 {
		t.Fatalf("Unexpected frame size %v", b)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{A: 255}) {
		t.Errorf("Expected empty site to be black, got %v", got)
	}
	// full site at capacity gets the unshaded species colour
	if got, want := img.RGBAAt(3*3+1, 2*3+1), DefaultPalette.Color(1); got != want {
		t.Errorf("Expected %v for a full B site, got %v", want, got)
	}
	// half-full site is darker than the palette colour
	a := img.RGBAAt(1*3, 0)
	if a.R == 0 || a.R >= DefaultPalette.Color(0).R {
		t.Errorf("Expected a shaded A colour, got %v", a)
	}
}

func TestFrame_Label(t *testing.T) {
	w := testWorld(t, 0)
	plain := WorldFrame(w, FrameOptions{CellSize: 10})
	labelled := WorldFrame(w, FrameOptions{CellSize: 10, Label: "step 0"})
	if plain.RGBAAt(3, 3) == labelled.RGBAAt(3, 3) {
		t.Error("Expected the label box to change the corner pixels")
	}
}

func TestMovie(t *testing.T) {
	w := testWorld(t, 1)
	_ = w.CreateOccupant("B", popsim.Site{X: 0, Y: 0})
	path := filepath.Join(t.TempDir(), "run.avi")

	first := WorldFrame(w, FrameOptions{CellSize: 8})
	b := first.Bounds()
	m, err := NewMovie(path, b.Dx(), b.Dy(), 10)
	if err != nil {
		t.Fatalf("NewMovie returned error: %v", err)
	}
	if err := m.AddFrame(first); err != nil {
		t.Fatalf("AddFrame returned error: %v", err)
	}
	for range 3 {
		w.Step()
		if err := m.AddFrame(WorldFrame(w, FrameOptions{CellSize: 8})); err != nil {
			t.Fatalf("AddFrame returned error: %v", err)
		}
	}
	if err := m.AddFrame(WorldFrame(w, FrameOptions{CellSize: 4})); err == nil {
		t.Error("Expected an error for a frame of the wrong size")
	}
	if m.Frames() != 4 {
		t.Errorf("Expected 4 frames, got %d", m.Frames())
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Second Close returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile returned error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) || !bytes.Contains(data[:16], []byte("AVI ")) {
		t.Error("Expected an AVI file")
	}
}

func TestTrajectory_CSV(t *testing.T) {
	tr := NewTrajectory([]popsim.SpeciesName{"A", "B"})
	tr.Record(popsim.StepEvent{Step: 1, Abundances: map[popsim.SpeciesName]uint64{"A": 3, "B": 10}})
	tr.RecordCounts(2, map[popsim.SpeciesName]uint64{"A": 4})

	var buf bytes.Buffer
	if err := tr.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV returned error: %v", err)
	}
	want := "step,A,B\n1,3,10\n2,4,0\n"
	if buf.String() != want {
		t.Errorf("Unexpected CSV:\n%s\nwant:\n%s", buf.String(), want)
	}
	if s := tr.Series(1); len(s) != 2 || s[0] != 10 || s[1] != 0 {
		t.Errorf("Unexpected series: %v", s)
	}
}

func TestTrajectory_RenderChart(t *testing.T) {
	w := testWorld(t, 0)
	_ = w.CreateOccupant("A", popsim.Site{})
	_ = w.CreateOccupant("B", popsim.Site{X: 1})

	tr := NewTrajectory(w.Species())
	var buf bytes.Buffer
	if err := tr.RenderChart(&buf, 640, 320, nil); !errors.Is(err, ErrTooFewSamples) {
		t.Errorf("Expected ErrTooFewSamples, got %v", err)
	}

	tr.RecordCounts(0, w.Abundances())
	for range 10 {
		w.Step()
		tr.RecordCounts(w.StepCount(), w.Abundances())
	}
	if err := tr.RenderChart(&buf, 640, 320, nil); err != nil {
		t.Fatalf("RenderChart returned error: %v", err)
	}
	cfg, err := png.DecodeConfig(&buf)
	if err != nil {
		t.Fatalf("Chart is not a PNG: %v", err)
	}
	if cfg.Width != 640 || cfg.Height != 320 {
		t.Errorf("Unexpected chart size %dx%d", cfg.Width, cfg.Height)
	}
}

func TestRadialAverage(t *testing.T) {
	w := testWorld(t, 0)
	for range 4 {
		_ = w.CreateOccupant("A", popsim.Site{X: 2, Y: 2})
	}
	for _, s := range []popsim.Site{{X: 3, Y: 2}, {X: 1, Y: 2}, {X: 2, Y: 1}, {X: 2, Y: 3}} {
		_ = w.CreateOccupant("A", s)
	}
	g := w.AsArrays()["A"]

	avg := RadialAverage(g, 2, 2)
	if avg[0] != 4 {
		t.Errorf("Expected 4 at the centre, got %g", avg[0])
	}
	// ring 1 holds the four neighbours and the four diagonals
	if math.Abs(avg[1]-0.5) > 1e-9 {
		t.Errorf("Expected 0.5 on the first ring, got %g", avg[1])
	}
	for r := 2; r < len(avg); r++ {
		if avg[r] != 0 {
			t.Errorf("Expected 0 at radius %d, got %g", r, avg[r])
		}
	}
}

func TestRadialAverage_Periodic(t *testing.T) {
	w := testWorld(t, 0)
	// (5,0) is one site west of (0,0) on a 6-wide ring
	_ = w.CreateOccupant("B", popsim.Site{X: 5, Y: 0})
	avg := RadialAverage(w.AsArrays()["B"], 0, 0)
	if len(avg) < 2 || avg[1] == 0 {
		t.Errorf("Expected the wrapped neighbour on ring 1, got %v", avg)
	}
	if periodicDelta(5, 6) != -1 || periodicDelta(-4, 6) != 2 || periodicDelta(3, 6) != 3 {
		t.Error("Unexpected periodic deltas")
	}
}

func TestWriteSummary(t *testing.T) {
	w := testWorld(t, 1)
	_ = w.CreateOccupant("A", popsim.Site{})
	_ = w.CreateOccupant("B", popsim.Site{X: 1})
	_ = w.CreateOccupant("B", popsim.Site{X: 2})

	var buf bytes.Buffer
	if err := WriteSummary(&buf, w, 1500*time.Millisecond, false); err != nil {
		t.Fatalf("WriteSummary returned error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"World: lv", "Dimension: 6 x 4", "Capacity: 1", "Seed: 1", "A: 1 (33.3%)", "B: 2 (66.7%)"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected summary to contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("Expected no escape codes with colours disabled")
	}

	buf.Reset()
	_ = WriteSummary(&buf, w, 0, true)
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Error("Expected escape codes with colours enabled")
	}
}

func TestWriteSummary_Descriptions(t *testing.T) {
	schema := popsim.NewSchema("lv").WithSpecies(
		popsim.Species{Name: "A", Description: "predator"},
		popsim.Species{Name: "B"},
	)
	w, err := popsim.NewWorld(schema, popsim.Config{Width: 2, Height: 2, Seed: 3})
	if err != nil {
		t.Fatalf("NewWorld returned error: %v", err)
	}
	_ = w.CreateOccupant("A", popsim.Site{})

	var buf bytes.Buffer
	if err := WriteSummary(&buf, w, 0, false); err != nil {
		t.Fatalf("WriteSummary returned error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "A: 1 (100.0%) predator") {
		t.Errorf("Expected the description after the predator count:\n%s", out)
	}
	if !strings.Contains(out, "B: 0 (0.0%)\n") {
		t.Errorf("Expected no description for B:\n%s", out)
	}
}
