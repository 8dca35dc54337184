package components

// Energy tracks a rabbit's life and behavior throttle.
// Life is not capped from above; a rabbit dies once Life drops below zero.
type Energy struct {
	Life      float64 // remaining life; foraging adds, decay subtracts
	LastMoved float64 // seconds since the last behavior decision
}

// Alive reports whether the rabbit should stay in the population.
func (e Energy) Alive() bool {
	return e.Life >= 0
}

// Organism bundles identity and lineage.
type Organism struct {
	ID        uint32
	ParentID  uint32 // 0 for rabbits placed at setup
	BirthTick int32
}
