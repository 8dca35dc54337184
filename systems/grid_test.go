package systems

import (
	"testing"

	"github.com/pthm-cable/warren/components"
)

func TestNeighborsCounts(t *testing.T) {
	g := NewGrid(5, 4)

	tests := []struct {
		name string
		x, y int
		want int
	}{
		{"top-left corner", 0, 0, 3},
		{"bottom-right corner", 4, 3, 3},
		{"top edge", 2, 0, 5},
		{"left edge", 0, 2, 5},
		{"interior", 2, 2, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Neighbors(tt.x, tt.y)
			if len(got) != tt.want {
				t.Fatalf("expected %d neighbors, got %d: %v", tt.want, len(got), got)
			}
			for _, n := range got {
				if !g.InBounds(n.X, n.Y) {
					t.Errorf("neighbor %v out of bounds", n)
				}
				if n.X == tt.x && n.Y == tt.y {
					t.Errorf("center included in neighbors")
				}
			}
		})
	}
}

func TestNeighborsRowMajorOrder(t *testing.T) {
	g := NewGrid(3, 3)
	want := []components.Position{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0},
		{X: 0, Y: 1}, {X: 2, Y: 1},
		{X: 0, Y: 2}, {X: 1, Y: 2}, {X: 2, Y: 2},
	}
	got := g.Neighbors(1, 1)
	if len(got) != len(want) {
		t.Fatalf("expected %d neighbors, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("neighbor %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestNeighborsSingleCell(t *testing.T) {
	g := NewGrid(1, 1)
	if n := g.Neighbors(0, 0); len(n) != 0 {
		t.Errorf("1x1 grid should have no neighbors, got %v", n)
	}
}

func TestAppendNeighborsReusesBuffer(t *testing.T) {
	g := NewGrid(4, 4)
	buf := make([]components.Position, 0, 8)
	buf = g.AppendNeighbors(buf[:0], 1, 1)
	buf = g.AppendNeighbors(buf[:0], 0, 0)
	if len(buf) != 3 {
		t.Errorf("expected buffer reset to 3 entries, got %d", len(buf))
	}
}

func TestNeighborSum(t *testing.T) {
	g := NewGrid(3, 3)
	vals := []float64{
		1, 2, 3,
		4, 100, 6,
		7, 8, 9,
	}
	if got := g.NeighborSum(vals, 1, 1); got != 40 {
		t.Errorf("interior sum: expected 40, got %v", got)
	}
	if got := g.NeighborSum(vals, 0, 0); got != 2+4+100 {
		t.Errorf("corner sum: expected 106, got %v", got)
	}
}

func TestIndexCoordRoundTrip(t *testing.T) {
	g := NewGrid(7, 3)
	for i := 0; i < g.Cells(); i++ {
		x, y := g.Coord(i)
		if g.Index(x, y) != i {
			t.Fatalf("index %d -> (%d,%d) -> %d", i, x, y, g.Index(x, y))
		}
	}
}
