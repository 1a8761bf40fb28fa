package popsim

import "fmt"

// Site is a lattice coordinate. Its flattened index is Y*width + X.
type Site struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (s Site) String() string {
	return fmt.Sprintf("%dx%d", s.X, s.Y)
}

// Neighbour directions, in the order returned by Lattice.Neighbors.
const (
	North = iota
	South
	East
	West
)

// Lattice is a periodic 2D grid holding, for every site and species, an
// occupant count. When capacity is non-zero the total count of a site never
// exceeds it.
type Lattice struct {
	width    int
	height   int
	nspecies int
	capacity uint32 // 0 means unbounded

	counts    []uint32 // site*nspecies + species
	totals    []uint32 // per site
	abundance []uint64 // per species
	neighbors [][4]int32
}

func newLattice(width, height, nspecies int, capacity uint32) *Lattice {
	n := width * height
	l := &Lattice{
		width:     width,
		height:    height,
		nspecies:  nspecies,
		capacity:  capacity,
		counts:    make([]uint32, n*nspecies),
		totals:    make([]uint32, n),
		abundance: make([]uint64, nspecies),
		neighbors: make([][4]int32, n),
	}
	for i := range l.neighbors {
		x, y := i%width, i/width
		l.neighbors[i] = [4]int32{
			North: int32(((y-1+height)%height)*width + x),
			South: int32(((y+1)%height)*width + x),
			East:  int32(y*width + (x+1)%width),
			West:  int32(y*width + (x-1+width)%width),
		}
	}
	return l
}

// Width returns the number of columns.
func (l *Lattice) Width() int { return l.width }

// Height returns the number of rows.
func (l *Lattice) Height() int { return l.height }

// Len returns the number of sites.
func (l *Lattice) Len() int { return l.width * l.height }

// Capacity returns the carrying capacity, 0 when unbounded.
func (l *Lattice) Capacity() int { return int(l.capacity) }

// Contains reports whether s lies on the lattice.
func (l *Lattice) Contains(s Site) bool {
	return s.X >= 0 && s.Y >= 0 && s.X < l.width && s.Y < l.height
}

// Index returns the flattened index of s. s must lie on the lattice.
func (l *Lattice) Index(s Site) int {
	return s.Y*l.width + s.X
}

// SiteAt returns the site with flattened index i.
func (l *Lattice) SiteAt(i int) Site {
	return Site{X: i % l.width, Y: i / l.width}
}

// Sites returns every site in flattened order.
func (l *Lattice) Sites() []Site {
	out := make([]Site, l.Len())
	for i := range out {
		out[i] = l.SiteAt(i)
	}
	return out
}

// Neighbors returns the four periodic neighbours of s: north, south, east, west.
func (l *Lattice) Neighbors(s Site) [4]Site {
	var out [4]Site
	for d, n := range l.neighbors[l.Index(s)] {
		out[d] = l.SiteAt(int(n))
	}
	return out
}

// SiteCount returns the number of occupants of species at s.
func (l *Lattice) SiteCount(s Site, species int) uint32 {
	return l.counts[l.Index(s)*l.nspecies+species]
}

// TotalCount returns the number of occupants of all species at s.
func (l *Lattice) TotalCount(s Site) uint32 {
	return l.totals[l.Index(s)]
}

// Abundance returns the number of occupants of species over the whole lattice.
func (l *Lattice) Abundance(species int) uint64 {
	return l.abundance[species]
}

// Add changes the count of species at s by delta. The mutation is validated
// first and nothing changes when it fails.
func (l *Lattice) Add(s Site, species int, delta int) error {
	if !l.Contains(s) {
		return fmt.Errorf("%w: %v", ErrSiteOutOfRange, s)
	}
	if species < 0 || species >= l.nspecies {
		return fmt.Errorf("%w: index %d", ErrUnknownSpecies, species)
	}
	i := l.Index(s)
	cell := i*l.nspecies + species
	count := int64(l.counts[cell]) + int64(delta)
	total := int64(l.totals[i]) + int64(delta)
	if count < 0 {
		return fmt.Errorf("%w: site %v species %d", ErrNegativeCount, s, species)
	}
	if l.capacity > 0 && total > int64(l.capacity) {
		return fmt.Errorf("%w: site %v holds %d of %d", ErrCapacityExceeded, s, l.totals[i], l.capacity)
	}
	l.counts[cell] = uint32(count)
	l.totals[i] = uint32(total)
	l.abundance[species] = uint64(int64(l.abundance[species]) + int64(delta))
	return nil
}

// Snapshot copies the occupancy of every species into grids shaped like the
// lattice, indexed by species.
func (l *Lattice) Snapshot() []Grid {
	grids := make([]Grid, l.nspecies)
	for sp := range grids {
		g := newGrid(l.width, l.height)
		for i := 0; i < l.Len(); i++ {
			g.flat[i] = l.counts[i*l.nspecies+sp]
		}
		grids[sp] = g
	}
	return grids
}

// hot-path helpers used by the step algorithm; callers guarantee validity.

func (l *Lattice) count(site, species int) uint32 {
	return l.counts[site*l.nspecies+species]
}

func (l *Lattice) hasRoom(site int) bool {
	return l.capacity == 0 || l.totals[site] < l.capacity
}

func (l *Lattice) inc(site, species int) {
	l.counts[site*l.nspecies+species]++
	l.totals[site]++
	l.abundance[species]++
}

func (l *Lattice) dec(site, species int) {
	l.counts[site*l.nspecies+species]--
	l.totals[site]--
	l.abundance[species]--
}

func (l *Lattice) move(from, to, species int) {
	l.dec(from, species)
	l.inc(to, species)
}

func (l *Lattice) reset() {
	clear(l.counts)
	clear(l.totals)
	clear(l.abundance)
}

// Grid is the occupancy of one species shaped like the lattice. Cells is
// indexed [y][x] and all rows share one backing array.
type Grid struct {
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Cells  [][]uint32 `json:"cells"`
	flat   []uint32
}

func newGrid(width, height int) Grid {
	g := Grid{Width: width, Height: height, Cells: make([][]uint32, height)}
	g.flat = make([]uint32, width*height)
	for y := range g.Cells {
		start := y * width
		g.Cells[y] = g.flat[start : start+width : start+width]
	}
	return g
}

// At returns the count at (x, y).
func (g Grid) At(x, y int) uint32 {
	return g.Cells[y][x]
}

// Sum returns the total count over the grid.
func (g Grid) Sum() uint64 {
	var sum uint64
	for _, row := range g.Cells {
		for _, c := range row {
			sum += uint64(c)
		}
	}
	return sum
}

// Max returns the largest count in the grid.
func (g Grid) Max() uint32 {
	var m uint32
	for _, row := range g.Cells {
		for _, c := range row {
			m = max(m, c)
		}
	}
	return m
}
