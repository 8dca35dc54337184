// Package systems provides the grid, ground and rabbit systems for the simulation.
package systems

import "github.com/pthm-cable/warren/components"

// Grid describes the fixed simulation bounds. Adjacency is the 3x3 Moore
// block clipped at the edges; there is no wraparound.
type Grid struct {
	W, H int
}

// NewGrid returns a grid with the given dimensions (minimum 1x1).
func NewGrid(w, h int) Grid {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return Grid{W: w, H: h}
}

// Cells returns the number of cells in the grid.
func (g Grid) Cells() int { return g.W * g.H }

// InBounds reports whether (x, y) lies inside the grid.
func (g Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.W && y >= 0 && y < g.H
}

// Index returns the linear slice index for coordinates (x, y).
func (g Grid) Index(x, y int) int { return y*g.W + x }

// Coord is the inverse of Index.
func (g Grid) Coord(i int) (int, int) { return i % g.W, i / g.W }

// Neighbors returns the adjacent cells of (x, y) in row-major order.
// Corners have 3 neighbors, edges 5, interior cells 8.
func (g Grid) Neighbors(x, y int) []components.Position {
	return g.AppendNeighbors(make([]components.Position, 0, 8), x, y)
}

// AppendNeighbors appends the adjacent cells of (x, y) to dst and returns it.
// Reuse dst across calls to avoid allocations.
func (g Grid) AppendNeighbors(dst []components.Position, x, y int) []components.Position {
	for dy := -1; dy <= 1; dy++ {
		ny := y + dy
		if ny < 0 || ny >= g.H {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			nx := x + dx
			if nx < 0 || nx >= g.W {
				continue
			}
			if dx == 0 && dy == 0 {
				continue
			}
			dst = append(dst, components.Position{X: nx, Y: ny})
		}
	}
	return dst
}

// NeighborSum adds up vals over the neighbors of (x, y). vals is a row-major
// slice covering the whole grid.
func (g Grid) NeighborSum(vals []float64, x, y int) float64 {
	var sum float64
	for dy := -1; dy <= 1; dy++ {
		ny := y + dy
		if ny < 0 || ny >= g.H {
			continue
		}
		row := ny * g.W
		for dx := -1; dx <= 1; dx++ {
			nx := x + dx
			if nx < 0 || nx >= g.W {
				continue
			}
			if dx == 0 && dy == 0 {
				continue
			}
			sum += vals[row+nx]
		}
	}
	return sum
}
