package render

import (
	"context"
	"fmt"
	"time"

	"github.com/daniacca/popsim/internal/popsim"
	"github.com/gdamore/tcell/v2"
)

// Viewer shows a world in the terminal, one character cell per site, with a
// status line on top. Space pauses, "n" steps once while paused, "q", Esc
// and Ctrl-C quit.
type Viewer struct {
	screen  tcell.Screen
	world   *popsim.World
	palette Palette
	paused  bool
}

// NewViewer creates a viewer on an initialised screen.
func NewViewer(screen tcell.Screen, world *popsim.World, palette Palette) *Viewer {
	return &Viewer{screen: screen, world: world, palette: palette}
}

// Paused reports whether automatic stepping is paused.
func (v *Viewer) Paused() bool {
	return v.paused
}

// Draw renders the current state. Sites outside the screen are clipped.
func (v *Viewer) Draw() {
	v.screen.Clear()
	species := v.world.Species()
	arrays := v.world.AsArrays()

	status := fmt.Sprintf("step %d", v.world.StepCount())
	if v.paused {
		status += " [paused]"
	}
	x := drawText(v.screen, 0, 0, status, tcell.StyleDefault.Bold(true))
	abundances := v.world.Abundances()
	for i, name := range species {
		style := tcell.StyleDefault.Foreground(v.palette.TerminalColor(i))
		x = drawText(v.screen, x+2, 0, fmt.Sprintf("%s=%d", name, abundances[name]), style)
	}

	sw, sh := v.screen.Size()
	l := v.world.Lattice()
	for y := 0; y < l.Height() && y+1 < sh; y++ {
		for x := 0; x < l.Width() && x < sw; x++ {
			best, count := -1, uint32(0)
			for i, name := range species {
				if c := arrays[name].At(x, y); c > count {
					best, count = i, c
				}
			}
			if best < 0 {
				v.screen.SetContent(x, y+1, ' ', nil, tcell.StyleDefault)
				continue
			}
			style := tcell.StyleDefault.Foreground(v.palette.TerminalColor(best))
			v.screen.SetContent(x, y+1, '█', nil, style)
		}
	}
	v.screen.Show()
}

// HandleEvent applies one terminal event. It returns false when the viewer
// should quit.
func (v *Viewer) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				v.paused = !v.paused
			case 'n':
				if v.paused {
					v.world.Step()
				}
			}
		}
		v.Draw()
	case *tcell.EventResize:
		v.screen.Sync()
		v.Draw()
	}
	return true
}

// Run steps the world every interval and redraws until the user quits, the
// context is cancelled, or maxSteps steps have run (0 means no limit).
func (v *Viewer) Run(ctx context.Context, interval time.Duration, maxSteps int64) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				// screen finalised
				return
			}
			select {
			case eventChan <- ev:
			case <-quit:
				return
			}
		}
	}()

	v.Draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-eventChan:
			if !v.HandleEvent(ev) {
				return nil
			}
		case <-ticker.C:
			if v.paused || (maxSteps > 0 && v.world.StepCount() >= maxSteps) {
				continue
			}
			v.world.Step()
			v.Draw()
		}
	}
}

func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) int {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}
