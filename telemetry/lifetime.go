package telemetry

// LifetimeStats tracks per-rabbit statistics over its lifetime.
type LifetimeStats struct {
	BirthTick       int32
	BirthTime       float64 // simulation seconds
	SurvivalTimeSec float64

	// Lineage
	ParentID  uint32
	FounderID uint32 // setup rabbit at the root of this lineage

	Children     int
	Forages      int
	TotalForaged float64
	Moves        int
	PeakLife     float64
}

// LifetimeRecord is the flattened CSV row written when a rabbit dies.
type LifetimeRecord struct {
	ID              uint32  `csv:"id"`
	ParentID        uint32  `csv:"parent_id"`
	FounderID       uint32  `csv:"founder_id"`
	BirthTick       int32   `csv:"birth_tick"`
	DeathTick       int32   `csv:"death_tick"`
	SurvivalTimeSec float64 `csv:"survival_sec"`
	Children        int     `csv:"children"`
	Forages         int     `csv:"forages"`
	TotalForaged    float64 `csv:"total_foraged"`
	Moves           int     `csv:"moves"`
	PeakLife        float64 `csv:"peak_life"`
}

// Record flattens the stats for output.
func (s *LifetimeStats) Record(id uint32, deathTick int32) LifetimeRecord {
	return LifetimeRecord{
		ID:              id,
		ParentID:        s.ParentID,
		FounderID:       s.FounderID,
		BirthTick:       s.BirthTick,
		DeathTick:       deathTick,
		SurvivalTimeSec: s.SurvivalTimeSec,
		Children:        s.Children,
		Forages:         s.Forages,
		TotalForaged:    s.TotalForaged,
		Moves:           s.Moves,
		PeakLife:        s.PeakLife,
	}
}

// LifetimeTracker manages per-rabbit lifetime statistics.
type LifetimeTracker struct {
	stats map[uint32]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint32]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new rabbit. Children inherit their
// parent's founder; setup rabbits (parentID 0) found their own lineage.
func (lt *LifetimeTracker) Register(entityID, parentID uint32, birthTick int32, birthTime, life float64) {
	founder := entityID
	if parentID != 0 {
		founder = parentID
		if p := lt.stats[parentID]; p != nil {
			founder = p.FounderID
		}
	}
	lt.stats[entityID] = &LifetimeStats{
		BirthTick: birthTick,
		BirthTime: birthTime,
		ParentID:  parentID,
		FounderID: founder,
		PeakLife:  life,
	}
}

// Get returns the lifetime stats for a rabbit, or nil if not found.
func (lt *LifetimeTracker) Get(entityID uint32) *LifetimeStats {
	return lt.stats[entityID]
}

// Remove removes a rabbit's stats and returns them.
func (lt *LifetimeTracker) Remove(entityID uint32) *LifetimeStats {
	stats := lt.stats[entityID]
	delete(lt.stats, entityID)
	return stats
}

// RecordChild increments children count.
func (lt *LifetimeTracker) RecordChild(parentID uint32) {
	if s := lt.stats[parentID]; s != nil {
		s.Children++
	}
}

// RecordForage adds foraging gain to cumulative total.
func (lt *LifetimeTracker) RecordForage(entityID uint32, amount float64) {
	if s := lt.stats[entityID]; s != nil {
		s.Forages++
		s.TotalForaged += amount
	}
}

// RecordMove increments the relocation count.
func (lt *LifetimeTracker) RecordMove(entityID uint32) {
	if s := lt.stats[entityID]; s != nil {
		s.Moves++
	}
}

// UpdateLife tracks peak life.
func (lt *LifetimeTracker) UpdateLife(entityID uint32, life float64) {
	if s := lt.stats[entityID]; s != nil {
		if life > s.PeakLife {
			s.PeakLife = life
		}
	}
}

// UpdateSurvivalTime sets survival time from the simulation clock.
func (lt *LifetimeTracker) UpdateSurvivalTime(entityID uint32, now float64) {
	if s := lt.stats[entityID]; s != nil {
		s.SurvivalTimeSec = now - s.BirthTime
	}
}

// Count returns the number of tracked rabbits.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}

// ActiveLineageCount returns the number of distinct founders among living rabbits.
func (lt *LifetimeTracker) ActiveLineageCount() int {
	seen := make(map[uint32]struct{})
	for _, stats := range lt.stats {
		seen[stats.FounderID] = struct{}{}
	}
	return len(seen)
}

// Reset drops every tracked rabbit.
func (lt *LifetimeTracker) Reset() {
	clear(lt.stats)
}
