package geom

import (
	"math"
)

// Grid provides an interface for reasoning over a 1D slice as if it were a
// square 2D grid of cells laid out in the transverse plane. The grid is
// centered on the propagation axis: the lower edge of cell Cells/2 sits at
// zero.
type Grid struct {
	Cells int     // Number of cells "on one side"
	Width float64 // Width of a single cell
	Length, Area int

	origin int
}

// NewGrid returns a new Grid instance.
func NewGrid(cells int, width float64) *Grid {
	g := &Grid{}
	g.Init(cells, width)
	return g
}

// Init initializes a Grid instance.
func (g *Grid) Init(cells int, width float64) {
	g.Cells = cells
	g.Width = width

	g.Length = cells
	g.Area = cells * cells

	g.origin = cells / 2
}

// Idx returns the grid index corresponding to a set of cell coordinates.
// Rows are indexed by y, so the layout matches a [y][x] array.
func (g *Grid) Idx(x, y int) int {
	return x + y*g.Length
}

// IdxCheck returns an index and true if the given coordinates are valid and
// false otherwise.
func (g *Grid) IdxCheck(x, y int) (idx int, ok bool) {
	if !g.BoundsCheck(x, y) {
		return -1, false
	}

	return g.Idx(x, y), true
}

// BoundsCheck returns true if the given coordinates are within the Grid and
// false otherwise.
func (g *Grid) BoundsCheck(x, y int) bool {
	return 0 <= x && 0 <= y && x < g.Length && y < g.Length
}

// Coords returns the x, y coordinates of a cell from its grid index.
func (g *Grid) Coords(idx int) (x, y int) {
	x = idx % g.Length
	y = idx / g.Length
	return x, y
}

// Extent returns the transverse range covered by the grid along either axis.
func (g *Grid) Extent() (low, high float64) {
	low = -float64(g.origin) * g.Width
	high = float64(g.Cells-g.origin) * g.Width
	return low, high
}

// CellIndex returns the cell coordinate containing u along one axis, or -1 if
// u is outside the grid. A coordinate sitting exactly on a cell edge belongs
// to the cell that a particle moving with direction component d is entering.
func (g *Grid) CellIndex(u, d float64) int {
	f := u / g.Width
	i := math.Floor(f)
	if f == i && d < 0 {
		i--
	}

	i += float64(g.origin)
	if i < 0 || i >= float64(g.Cells) || math.IsNaN(i) {
		return -1
	}
	return int(i)
}

// Locate returns the grid index of the cell containing the transverse point
// (x, y) and true, or false if the point falls outside the grid.
func (g *Grid) Locate(x, y, dx, dy float64) (idx int, ok bool) {
	ix, iy := g.CellIndex(x, dx), g.CellIndex(y, dy)
	if ix < 0 || iy < 0 {
		return -1, false
	}
	return g.Idx(ix, iy), true
}
