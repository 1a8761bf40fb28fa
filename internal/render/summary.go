package render

import (
	"fmt"
	"io"
	"time"

	"github.com/daniacca/popsim/internal/popsim"
	"github.com/logrusorgru/aurora"
)

// WriteSummary prints the configuration and final abundances of w. Colours
// are emitted only when colors is true.
func WriteSummary(out io.Writer, w *popsim.World, elapsed time.Duration, colors bool) error {
	au := aurora.NewAurora(colors)
	l := w.Lattice()

	capacity := "unbounded"
	if k := w.CarryingCapacity(); k > 0 {
		capacity = fmt.Sprint(k)
	}
	lines := []string{
		renderProp(au, "World", "%s", w.Schema().Name),
		renderProp(au, "Dimension", "%v x %v", l.Width(), l.Height()),
		renderProp(au, "Capacity", "%s", capacity),
		renderProp(au, "Seed", "%d", w.Seed()),
		renderProp(au, "Steps", "%d in %v", w.StepCount(), elapsed.Round(time.Millisecond)),
	}
	abundances := w.Abundances()
	total := w.TotalOccupants()
	for i, sp := range w.Schema().SpeciesList() {
		n := abundances[sp.Name]
		share := 0.0
		if total > 0 {
			share = 100 * float64(n) / float64(total)
		}
		line := fmt.Sprintf(" %s: %d (%.1f%%)",
			au.Colorize(string(sp.Name), consoleColor(i)).Bold(), n, share)
		if sp.Description != "" {
			line += " " + au.Faint(sp.Description).String()
		}
		lines = append(lines, line)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

func renderProp(au aurora.Aurora, name string, valueformat string, values ...interface{}) string {
	return fmt.Sprintf(" "+au.Colorize(name, aurora.GreenFg).String()+": "+valueformat, values...)
}
