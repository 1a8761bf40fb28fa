package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/daniacca/popsim/internal/popsim"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// FrameOptions controls lattice rasterisation.
type FrameOptions struct {
	// CellSize is the side of one site in pixels; values below 1 mean 1.
	CellSize int
	// Capacity normalises intensities. 0 uses the largest count in the frame.
	Capacity int
	Palette  Palette
	// Label, when set, is drawn in the top-left corner.
	Label string
}

// Frame rasterises one lattice state. Each site takes the colour of its most
// abundant species (lowest index on ties), shaded by that species' count.
// Empty sites are black.
func Frame(species []popsim.SpeciesName, arrays map[popsim.SpeciesName]popsim.Grid, opts FrameOptions) *image.RGBA {
	cell := max(opts.CellSize, 1)
	grids := make([]popsim.Grid, len(species))
	width, height := 0, 0
	var peak uint32
	for i, name := range species {
		grids[i] = arrays[name]
		width, height = max(width, grids[i].Width), max(height, grids[i].Height)
		peak = max(peak, grids[i].Max())
	}
	norm := float64(opts.Capacity)
	if norm <= 0 {
		norm = float64(max(peak, 1))
	}

	img := image.NewRGBA(image.Rect(0, 0, width*cell, height*cell))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.Black}, image.Point{}, draw.Src)
	for y := range height {
		for x := range width {
			best, count := -1, uint32(0)
			for i, g := range grids {
				if g.Height > y && g.Width > x && g.At(x, y) > count {
					best, count = i, g.At(x, y)
				}
			}
			if best < 0 {
				continue
			}
			// keep faint sites visible
			c := opts.Palette.Shade(best, 0.35+0.65*float64(count)/norm)
			rect := image.Rect(x*cell, y*cell, (x+1)*cell, (y+1)*cell)
			draw.Draw(img, rect, &image.Uniform{c}, image.Point{}, draw.Src)
		}
	}
	if opts.Label != "" {
		addLabel(img, 4, 4, opts.Label)
	}
	return img
}

// WorldFrame rasterises the current state of w.
func WorldFrame(w *popsim.World, opts FrameOptions) *image.RGBA {
	if opts.Capacity == 0 {
		opts.Capacity = w.CarryingCapacity()
	}
	return Frame(w.Species(), w.AsArrays(), opts)
}

// addLabel draws text on a white box at (x, y).
func addLabel(img *image.RGBA, x, y int, label string) {
	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, label).Ceil()
	textHeight := face.Metrics().Ascent.Ceil()

	bg := image.Rect(x-2, y-2, x+textWidth+2, y+textHeight+4)
	draw.Draw(img, bg, &image.Uniform{color.White}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y + textHeight)},
	}
	d.DrawString(label)
}
