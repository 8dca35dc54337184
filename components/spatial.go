package components

// Position is the grid cell a rabbit occupies.
type Position struct {
	X, Y int
}

// Index returns the row-major cell index for a grid of the given width.
func (p Position) Index(width int) int {
	return p.Y*width + p.X
}
