package render

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/icza/mjpeg"
)

// Movie writes lattice frames to an MJPEG AVI file. All frames must have the
// dimensions given to NewMovie.
type Movie struct {
	aw     mjpeg.AviWriter
	buf    bytes.Buffer
	opts   jpeg.Options
	width  int
	height int
	frames int
	closed bool
}

// NewMovie creates the AVI file at path.
func NewMovie(path string, width, height, fps int) (*Movie, error) {
	if fps < 1 {
		fps = 1
	}
	aw, err := mjpeg.New(path, int32(width), int32(height), int32(fps))
	if err != nil {
		return nil, fmt.Errorf("failed to create movie: %w", err)
	}
	return &Movie{
		aw:     aw,
		opts:   jpeg.Options{Quality: 90},
		width:  width,
		height: height,
	}, nil
}

// AddFrame encodes img as JPEG and appends it.
func (m *Movie) AddFrame(img image.Image) error {
	if m.closed {
		return fmt.Errorf("movie is closed")
	}
	b := img.Bounds()
	if b.Dx() != m.width || b.Dy() != m.height {
		return fmt.Errorf("frame is %dx%d, movie is %dx%d", b.Dx(), b.Dy(), m.width, m.height)
	}
	m.buf.Reset()
	if err := jpeg.Encode(&m.buf, img, &m.opts); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if err := m.aw.AddFrame(m.buf.Bytes()); err != nil {
		return fmt.Errorf("failed to add frame: %w", err)
	}
	m.frames++
	return nil
}

// Frames returns the number of frames written so far.
func (m *Movie) Frames() int {
	return m.frames
}

// Close finalises the AVI index. It is safe to call more than once.
func (m *Movie) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	return m.aw.Close()
}
