// Package telemetry provides population tracking, windowed stats, bookmarks and CSV output.
package telemetry

// EventType identifies telemetry events.
type EventType uint8

const (
	EventBirth EventType = iota
	EventDeath
	EventForage
	EventMove
	EventBreedBlocked
	EventStuck
)

var eventNames = [...]string{"birth", "death", "forage", "move", "breed_blocked", "stuck"}

func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "unknown"
}

// Event represents a single telemetry event.
type Event struct {
	Type     EventType
	Tick     int32
	EntityID uint32

	// Optional fields depending on event type
	TargetID uint32  // parent for births
	Amount   float64 // ground eaten (forage) or final life (death)
}

// NewBirthEvent creates a birth event.
func NewBirthEvent(tick int32, childID, parentID uint32) Event {
	return Event{
		Type:     EventBirth,
		Tick:     tick,
		EntityID: childID,
		TargetID: parentID, // parent ID stored in TargetID
	}
}

// NewDeathEvent creates a death event.
func NewDeathEvent(tick int32, entityID uint32, life float64) Event {
	return Event{
		Type:     EventDeath,
		Tick:     tick,
		EntityID: entityID,
		Amount:   life,
	}
}

// NewForageEvent creates a foraging event.
func NewForageEvent(tick int32, entityID uint32, amount float64) Event {
	return Event{
		Type:     EventForage,
		Tick:     tick,
		EntityID: entityID,
		Amount:   amount,
	}
}

// NewMoveEvent creates a relocation event.
func NewMoveEvent(tick int32, entityID uint32) Event {
	return Event{Type: EventMove, Tick: tick, EntityID: entityID}
}

// NewBreedBlockedEvent records a breeding attempt with no free neighbor.
func NewBreedBlockedEvent(tick int32, entityID uint32) Event {
	return Event{Type: EventBreedBlocked, Tick: tick, EntityID: entityID}
}

// NewStuckEvent records a rabbit that wanted to move but was boxed in.
func NewStuckEvent(tick int32, entityID uint32) Event {
	return Event{Type: EventStuck, Tick: tick, EntityID: entityID}
}
