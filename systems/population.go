package systems

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/warren/components"
)

// Population owns the rabbit entities and a coordinate index that keeps at
// most one rabbit per cell.
type Population struct {
	Grid

	world *ecs.World

	mapper *ecs.Map3[components.Position, components.Energy, components.Organism]
	filter *ecs.Filter3[components.Position, components.Energy, components.Organism]

	// Coordinate index, keyed by y*W+x
	index map[int]ecs.Entity

	nextID uint32
}

// NewPopulation creates an empty population on the given world.
func NewPopulation(world *ecs.World, grid Grid) *Population {
	return &Population{
		Grid:   grid,
		world:  world,
		mapper: ecs.NewMap3[components.Position, components.Energy, components.Organism](world),
		filter: ecs.NewFilter3[components.Position, components.Energy, components.Organism](world),
		index:  make(map[int]ecs.Entity),
		nextID: 1,
	}
}

// Len returns the number of live rabbits.
func (p *Population) Len() int { return len(p.index) }

// Occupied reports whether a rabbit sits at (x, y).
func (p *Population) Occupied(x, y int) bool {
	_, ok := p.At(x, y)
	return ok
}

// At returns the rabbit at (x, y), if any.
func (p *Population) At(x, y int) (ecs.Entity, bool) {
	if !p.InBounds(x, y) {
		return ecs.Entity{}, false
	}
	e, ok := p.index[p.Index(x, y)]
	return e, ok
}

// Spawn places a rabbit at (x, y). It fails if the cell is out of bounds or
// already occupied.
func (p *Population) Spawn(x, y int, life float64, parentID uint32, tick int32) (ecs.Entity, bool) {
	if !p.InBounds(x, y) || p.Occupied(x, y) {
		return ecs.Entity{}, false
	}

	pos := components.Position{X: x, Y: y}
	energy := components.Energy{Life: life}
	org := components.Organism{
		ID:        p.nextID,
		ParentID:  parentID,
		BirthTick: tick,
	}
	p.nextID++

	e := p.mapper.NewEntity(&pos, &energy, &org)
	p.index[pos.Index(p.W)] = e
	return e, true
}

// Get returns the components of a live rabbit.
func (p *Population) Get(e ecs.Entity) (*components.Position, *components.Energy, *components.Organism) {
	return p.mapper.Get(e)
}

// Alive reports whether e is still in the world.
func (p *Population) Alive(e ecs.Entity) bool {
	return p.world.Alive(e)
}

// Move relocates a rabbit to (x, y). The destination must be free.
func (p *Population) Move(e ecs.Entity, x, y int) bool {
	if !p.InBounds(x, y) || p.Occupied(x, y) || !p.world.Alive(e) {
		return false
	}
	pos, _, _ := p.mapper.Get(e)
	delete(p.index, pos.Index(p.W))
	pos.X, pos.Y = x, y
	p.index[pos.Index(p.W)] = e
	return true
}

// Remove deletes a rabbit from the world and the index.
func (p *Population) Remove(e ecs.Entity) {
	if !p.world.Alive(e) {
		return
	}
	pos, _, _ := p.mapper.Get(e)
	key := pos.Index(p.W)
	if cur, ok := p.index[key]; ok && cur == e {
		delete(p.index, key)
	}
	p.mapper.Remove(e)
}

// Snapshot appends every live rabbit to dst. Structural changes are not
// allowed while a query is open, so callers iterate the returned slice.
func (p *Population) Snapshot(dst []ecs.Entity) []ecs.Entity {
	query := p.filter.Query()
	for query.Next() {
		dst = append(dst, query.Entity())
	}
	return dst
}

// Each calls fn for every live rabbit. fn must not add or remove rabbits.
func (p *Population) Each(fn func(e ecs.Entity, pos *components.Position, energy *components.Energy, org *components.Organism)) {
	query := p.filter.Query()
	for query.Next() {
		pos, energy, org := query.Get()
		fn(query.Entity(), pos, energy, org)
	}
}

// Clear removes every rabbit.
func (p *Population) Clear() {
	for _, e := range p.Snapshot(nil) {
		p.mapper.Remove(e)
	}
	clear(p.index)
}

// Validate checks that the coordinate index and the world agree.
func (p *Population) Validate() error {
	seen := 0
	var err error
	p.Each(func(e ecs.Entity, pos *components.Position, _ *components.Energy, _ *components.Organism) {
		seen++
		if err != nil {
			return
		}
		if !p.InBounds(pos.X, pos.Y) {
			err = fmt.Errorf("rabbit out of bounds at (%d,%d)", pos.X, pos.Y)
			return
		}
		if cur, ok := p.index[pos.Index(p.W)]; !ok || cur != e {
			err = fmt.Errorf("index mismatch at (%d,%d)", pos.X, pos.Y)
		}
	})
	if err != nil {
		return err
	}
	if seen != len(p.index) {
		return fmt.Errorf("index holds %d rabbits, world holds %d", len(p.index), seen)
	}
	return nil
}
