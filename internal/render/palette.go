// Package render turns world state into things people look at: lattice
// frames and movies, population charts and CSV, a terminal viewer and a
// coloured console summary.
package render

import (
	"image/color"

	"github.com/gdamore/tcell/v2"
	"github.com/logrusorgru/aurora"
)

// Palette holds one colour per species index; it wraps around when there
// are more species than colours.
type Palette []color.RGBA

// DefaultPalette is used when no palette is given.
var DefaultPalette = Palette{
	{R: 220, G: 50, B: 47, A: 255},
	{R: 38, G: 139, B: 210, A: 255},
	{R: 133, G: 153, B: 0, A: 255},
	{R: 181, G: 137, B: 0, A: 255},
	{R: 108, G: 113, B: 196, A: 255},
	{R: 42, G: 161, B: 152, A: 255},
	{R: 211, G: 54, B: 130, A: 255},
	{R: 203, G: 75, B: 22, A: 255},
}

// Color returns the colour of species index i.
func (p Palette) Color(i int) color.RGBA {
	if len(p) == 0 {
		p = DefaultPalette
	}
	return p[i%len(p)]
}

// Shade scales the colour of species i by intensity in [0, 1].
func (p Palette) Shade(i int, intensity float64) color.RGBA {
	c := p.Color(i)
	intensity = min(max(intensity, 0), 1)
	return color.RGBA{
		R: uint8(float64(c.R) * intensity),
		G: uint8(float64(c.G) * intensity),
		B: uint8(float64(c.B) * intensity),
		A: 255,
	}
}

// TerminalColor returns the tcell colour of species i.
func (p Palette) TerminalColor(i int) tcell.Color {
	c := p.Color(i)
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

var consoleColors = []aurora.Color{
	aurora.RedFg,
	aurora.BlueFg,
	aurora.GreenFg,
	aurora.YellowFg,
	aurora.MagentaFg,
	aurora.CyanFg,
}

// consoleColor returns the aurora colour of species i, matching the hue
// order of DefaultPalette as closely as ANSI allows.
func consoleColor(i int) aurora.Color {
	return consoleColors[i%len(consoleColors)]
}
