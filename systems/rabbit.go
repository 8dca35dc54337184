package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/warren/components"
	"github.com/pthm-cable/warren/config"
)

// Action is what a rabbit did during one cycle.
type Action uint8

const (
	ActionNone         Action = iota // dead, or waiting out its move interval
	ActionBreed                      // placed a child on a free neighbor
	ActionBreedBlocked               // wanted to breed but no neighbor was free
	ActionForage                     // ate from its own cell
	ActionMove                       // relocated to the richest free neighbor
	ActionStuck                      // wanted to move but no neighbor was free
)

var actionNames = [...]string{"none", "breed", "breed_blocked", "forage", "move", "stuck"}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// Outcome describes a single rabbit cycle.
type Outcome struct {
	Action Action
	Child  ecs.Entity // set for ActionBreed
	Eaten  float64    // set for ActionForage
	From   components.Position
	To     components.Position // destination for ActionMove, child cell for ActionBreed
}

// RabbitSystem applies the per-rabbit decision rule.
type RabbitSystem struct {
	pop    *Population
	ground *GroundField
	rng    *rand.Rand

	// Scratch buffers reused across cycles
	neighbors []components.Position
	free      []components.Position
}

// NewRabbitSystem creates a rabbit system bound to a population and ground.
func NewRabbitSystem(pop *Population, ground *GroundField, rng *rand.Rand) *RabbitSystem {
	return &RabbitSystem{
		pop:       pop,
		ground:    ground,
		rng:       rng,
		neighbors: make([]components.Position, 0, 8),
		free:      make([]components.Position, 0, 8),
	}
}

// Cycle advances one rabbit by dt seconds.
//
// Life decays every cycle. Once the move interval has elapsed a rabbit above
// the breed threshold breeds if a neighbor is occupied. Below the threshold
// it eats if its cell has enough ground and moves to the free neighbor with
// the most ground if not. A rabbit whose life reaches zero does nothing
// further; removal happens in the caller's cleanup pass.
func (s *RabbitSystem) Cycle(e ecs.Entity, cfg *config.RabbitConfig, dt float64, tick int32) Outcome {
	pos, energy, org := s.pop.Get(e)
	out := Outcome{From: *pos, To: *pos}

	energy.Life -= cfg.LifeInterval * dt
	energy.LastMoved += dt
	if energy.Life <= 0 {
		return out
	}
	if energy.LastMoved <= cfg.MoveInterval {
		return out
	}
	energy.LastMoved = 0

	s.neighbors = s.pop.AppendNeighbors(s.neighbors[:0], pos.X, pos.Y)
	s.free = s.free[:0]
	crowded := false
	for _, n := range s.neighbors {
		if s.pop.Occupied(n.X, n.Y) {
			crowded = true
		} else {
			s.free = append(s.free, n)
		}
	}

	// Well-fed rabbits only ever try to breed, and only with company.
	if energy.Life > cfg.BreedThreshold {
		if !crowded {
			return out
		}
		return s.breed(out, org.ID, cfg, tick)
	}

	if s.ground.At(pos.X, pos.Y) > cfg.MinEatInterval {
		out.Action = ActionForage
		out.Eaten = s.ground.Extract(pos.X, pos.Y, cfg.EatInterval)
		energy.Life += out.Eaten
		return out
	}

	return s.relocate(e, out)
}

func (s *RabbitSystem) breed(out Outcome, parentID uint32, cfg *config.RabbitConfig, tick int32) Outcome {
	if len(s.free) == 0 {
		out.Action = ActionBreedBlocked
		return out
	}
	cell := s.free[s.rng.Intn(len(s.free))]
	child, ok := s.pop.Spawn(cell.X, cell.Y, cfg.ChildLife, parentID, tick)
	if !ok {
		out.Action = ActionBreedBlocked
		return out
	}
	out.Action = ActionBreed
	out.Child = child
	out.To = cell
	return out
}

// relocate picks the free neighbor with the most ground. Ties go to the
// first candidate in neighbor order.
func (s *RabbitSystem) relocate(e ecs.Entity, out Outcome) Outcome {
	if len(s.free) == 0 {
		out.Action = ActionStuck
		return out
	}
	best := s.free[0]
	bestLife := s.ground.At(best.X, best.Y)
	for _, c := range s.free[1:] {
		if v := s.ground.At(c.X, c.Y); v > bestLife {
			best, bestLife = c, v
		}
	}
	s.pop.Move(e, best.X, best.Y)
	out.Action = ActionMove
	out.To = best
	return out
}
