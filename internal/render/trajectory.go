package render

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/daniacca/popsim/internal/popsim"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrTooFewSamples is returned when a chart is requested for fewer than two
// samples.
var ErrTooFewSamples = errors.New("render: a chart needs at least two samples")

// Trajectory records species abundances over time.
type Trajectory struct {
	Species []popsim.SpeciesName
	Steps   []int64
	// Counts is indexed [sample][species] in Species order.
	Counts [][]uint64
}

// NewTrajectory creates an empty trajectory for species.
func NewTrajectory(species []popsim.SpeciesName) *Trajectory {
	return &Trajectory{Species: species}
}

// Record appends one sample from a step event.
func (t *Trajectory) Record(ev popsim.StepEvent) {
	t.RecordCounts(ev.Step, ev.Abundances)
}

// RecordCounts appends one sample taken at step.
func (t *Trajectory) RecordCounts(step int64, abundances map[popsim.SpeciesName]uint64) {
	row := make([]uint64, len(t.Species))
	for i, name := range t.Species {
		row[i] = abundances[name]
	}
	t.Steps = append(t.Steps, step)
	t.Counts = append(t.Counts, row)
}

// Len returns the number of samples.
func (t *Trajectory) Len() int {
	return len(t.Steps)
}

// Series returns the abundance of one species across samples.
func (t *Trajectory) Series(species int) []float64 {
	out := make([]float64, len(t.Counts))
	for i, row := range t.Counts {
		out[i] = float64(row[species])
	}
	return out
}

// WriteCSV writes a header "step,<species>..." and one row per sample.
func (t *Trajectory) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(t.Species)+1)
	header = append(header, "step")
	for _, name := range t.Species {
		header = append(header, string(name))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	record := make([]string, len(header))
	for i, step := range t.Steps {
		record[0] = strconv.FormatInt(step, 10)
		for j, c := range t.Counts[i] {
			record[j+1] = strconv.FormatUint(c, 10)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderChart draws the abundance time series as a PNG line chart.
func (t *Trajectory) RenderChart(w io.Writer, width, height int, palette Palette) error {
	if t.Len() < 2 {
		return ErrTooFewSamples
	}
	xs := make([]float64, t.Len())
	for i, step := range t.Steps {
		xs[i] = float64(step)
	}

	series := make([]chart.Series, 0, len(t.Species))
	for i, name := range t.Species {
		c := palette.Color(i)
		series = append(series, chart.ContinuousSeries{
			Name:    string(name),
			XValues: xs,
			YValues: t.Series(i),
			Style: chart.Style{
				StrokeColor: drawing.Color{R: c.R, G: c.G, B: c.B, A: 255},
				StrokeWidth: 2.0,
			},
		})
	}

	graph := chart.Chart{
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			Name:  "step",
			Style: chart.Style{FontSize: 10.0},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name:  "occupants",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: 0, Max: t.peak()},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func (t *Trajectory) peak() float64 {
	var m uint64 = 1
	for _, row := range t.Counts {
		for _, c := range row {
			m = max(m, c)
		}
	}
	return float64(m) * 1.05
}
