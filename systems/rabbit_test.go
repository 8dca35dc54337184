package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/warren/components"
	"github.com/pthm-cable/warren/config"
)

type rabbitFixture struct {
	pop    *Population
	ground *GroundField
	sys    *RabbitSystem
	cfg    config.RabbitConfig
}

func newRabbitFixture(w, h int, seed int64) *rabbitFixture {
	grid := NewGrid(w, h)
	pop := NewPopulation(ecs.NewWorld(), grid)
	ground := newTestGround(w, h)
	return &rabbitFixture{
		pop:    pop,
		ground: ground,
		sys:    NewRabbitSystem(pop, ground, rand.New(rand.NewSource(seed))),
		cfg:    config.Default().Rabbit,
	}
}

func (f *rabbitFixture) spawn(t *testing.T, x, y int, life float64) ecs.Entity {
	t.Helper()
	e, ok := f.pop.Spawn(x, y, life, 0, 0)
	if !ok {
		t.Fatalf("spawn at (%d,%d) failed", x, y)
	}
	return e
}

// ---------- decay and throttling ----------

func TestRabbitDecayAndIdle(t *testing.T) {
	f := newRabbitFixture(3, 3, 1)
	e := f.spawn(t, 1, 1, 0.5)
	f.ground.Fill(0.5)

	out := f.sys.Cycle(e, &f.cfg, 0.05, 1)
	if out.Action != ActionNone {
		t.Errorf("expected idle before move interval, got %v", out.Action)
	}
	_, energy, _ := f.pop.Get(e)
	want := 0.5 - f.cfg.LifeInterval*0.05
	if math.Abs(energy.Life-want) > eps {
		t.Errorf("expected life %v, got %v", want, energy.Life)
	}
	if energy.LastMoved != 0.05 {
		t.Errorf("expected lastMoved 0.05, got %v", energy.LastMoved)
	}
	if f.ground.At(1, 1) != 0.5 {
		t.Error("idle rabbit should not eat")
	}
}

func TestRabbitDeadTakesNoAction(t *testing.T) {
	f := newRabbitFixture(3, 3, 1)
	e := f.spawn(t, 1, 1, 0.01)
	f.ground.Fill(0.5)

	out := f.sys.Cycle(e, &f.cfg, 1, 1)
	if out.Action != ActionNone {
		t.Errorf("expected no action once life is exhausted, got %v", out.Action)
	}
	_, energy, _ := f.pop.Get(e)
	if energy.Alive() {
		t.Errorf("expected life below zero, got %v", energy.Life)
	}
	if f.ground.At(1, 1) != 0.5 {
		t.Error("dead rabbit should not eat")
	}
}

func TestRabbitDecayMonotonic(t *testing.T) {
	f := newRabbitFixture(3, 3, 1)
	e := f.spawn(t, 1, 1, 0.5)
	f.ground.Fill(0)

	prev := 0.5
	for i := 0; i < 10; i++ {
		f.sys.Cycle(e, &f.cfg, 0.01, int32(i))
		_, energy, _ := f.pop.Get(e)
		if energy.Life >= prev {
			t.Fatalf("cycle %d: life did not decay (%v -> %v)", i, prev, energy.Life)
		}
		prev = energy.Life
	}
}

// ---------- breeding ----------

func TestRabbitBreedsIntoFreeNeighbor(t *testing.T) {
	f := newRabbitFixture(3, 3, 5)
	f.cfg.MoveInterval = 0
	f.cfg.LifeInterval = 0.05
	f.ground.Fill(0.2)

	companion := components.Position{X: 0, Y: 0}
	f.spawn(t, companion.X, companion.Y, 0.5)

	hits := make(map[components.Position]int)
	for trial := 0; trial < 200; trial++ {
		e := f.spawn(t, 1, 1, 1.0)
		out := f.sys.Cycle(e, &f.cfg, 1, 1)
		if out.Action != ActionBreed {
			t.Fatalf("trial %d: expected breed, got %v", trial, out.Action)
		}
		if out.To == companion || out.To == (components.Position{X: 1, Y: 1}) {
			t.Fatalf("child placed on occupied cell %v", out.To)
		}

		pos, energy, org := f.pop.Get(e)
		if pos.X != 1 || pos.Y != 1 {
			t.Errorf("parent moved to %+v", *pos)
		}
		if math.Abs(energy.Life-0.95) > eps {
			t.Errorf("parent life should only decay, got %v", energy.Life)
		}
		if f.ground.At(1, 1) != 0.2 {
			t.Error("breeding rabbit should not eat")
		}

		childPos, childEnergy, childOrg := f.pop.Get(out.Child)
		if *childPos != out.To || childEnergy.Life != f.cfg.ChildLife || childEnergy.LastMoved != 0 {
			t.Errorf("unexpected child state: %+v %+v", *childPos, *childEnergy)
		}
		if childOrg.ParentID != org.ID {
			t.Errorf("expected parent %d, got %d", org.ID, childOrg.ParentID)
		}
		hits[out.To]++

		f.pop.Remove(out.Child)
		f.pop.Remove(e)
	}

	if len(hits) != 7 {
		t.Errorf("expected all 7 free neighbors to be chosen over 200 trials, got %d: %v", len(hits), hits)
	}
	if err := f.pop.Validate(); err != nil {
		t.Error(err)
	}
}

func TestRabbitNoBreedWithoutCompany(t *testing.T) {
	f := newRabbitFixture(3, 3, 1)
	f.cfg.MoveInterval = 0
	f.cfg.LifeInterval = 0
	f.ground.Fill(0.8)
	e := f.spawn(t, 1, 1, 1.0)

	out := f.sys.Cycle(e, &f.cfg, 1, 1)
	if out.Action != ActionNone {
		t.Errorf("lone well-fed rabbit should do nothing, got %v", out.Action)
	}
	if f.pop.Len() != 1 {
		t.Errorf("expected no child, population %d", f.pop.Len())
	}
	if f.ground.At(1, 1) != 0.8 {
		t.Error("well-fed rabbit should not forage")
	}
}

func TestRabbitBreedBlockedWhenSurrounded(t *testing.T) {
	f := newRabbitFixture(2, 2, 1)
	f.cfg.MoveInterval = 0
	f.cfg.LifeInterval = 0
	e := f.spawn(t, 0, 0, 1.0)
	f.spawn(t, 1, 0, 0.5)
	f.spawn(t, 0, 1, 0.5)
	f.spawn(t, 1, 1, 0.5)

	out := f.sys.Cycle(e, &f.cfg, 1, 1)
	if out.Action != ActionBreedBlocked {
		t.Errorf("expected breed blocked, got %v", out.Action)
	}
	if f.pop.Len() != 4 {
		t.Errorf("expected no child, population %d", f.pop.Len())
	}
}

func TestRabbitBelowThresholdNeverBreeds(t *testing.T) {
	f := newRabbitFixture(5, 5, 9)
	f.cfg.MoveInterval = 0
	f.ground.Fill(0)

	// Packed population, nobody above the threshold after decay
	for y := 0; y < 5; y += 2 {
		for x := 0; x < 5; x++ {
			f.spawn(t, x, y, f.cfg.BreedThreshold)
		}
	}
	for _, e := range f.pop.Snapshot(nil) {
		if out := f.sys.Cycle(e, &f.cfg, 0.2, 1); out.Action == ActionBreed {
			t.Fatal("rabbit at or below threshold bred")
		}
	}
}

// ---------- foraging ----------

func TestRabbitForages(t *testing.T) {
	f := newRabbitFixture(3, 3, 1)
	f.ground.Fill(0.5)
	e := f.spawn(t, 1, 1, 0.5)

	dt := 0.2
	out := f.sys.Cycle(e, &f.cfg, dt, 1)
	if out.Action != ActionForage {
		t.Fatalf("expected forage, got %v", out.Action)
	}

	_, energy, _ := f.pop.Get(e)
	want := 0.5 - f.cfg.LifeInterval*dt + 0.1
	if math.Abs(energy.Life-want) > eps {
		t.Errorf("expected life %v, got %v", want, energy.Life)
	}
	if math.Abs(f.ground.At(1, 1)-0.4) > eps {
		t.Errorf("expected ground 0.4, got %v", f.ground.At(1, 1))
	}
	if math.Abs(out.Eaten-0.1) > eps {
		t.Errorf("expected 0.1 eaten, got %v", out.Eaten)
	}
}

func TestRabbitForageTakesRemainder(t *testing.T) {
	f := newRabbitFixture(1, 1, 1)
	f.ground.Set(0, 0, 0.07)
	e := f.spawn(t, 0, 0, 0.5)

	f.sys.Cycle(e, &f.cfg, 0.2, 1)
	if f.ground.At(0, 0) != 0 {
		t.Errorf("expected ground emptied, got %v", f.ground.At(0, 0))
	}
	_, energy, _ := f.pop.Get(e)
	want := 0.5 - f.cfg.LifeInterval*0.2 + 0.07
	if math.Abs(energy.Life-want) > eps {
		t.Errorf("expected life %v, got %v", want, energy.Life)
	}
}

func TestRabbitLifeNotCappedByForaging(t *testing.T) {
	f := newRabbitFixture(1, 1, 1)
	f.cfg.BreedThreshold = 10
	f.cfg.EatInterval = 1
	f.cfg.LifeInterval = 0
	f.ground.Fill(1)
	e := f.spawn(t, 0, 0, 0.9)

	f.sys.Cycle(e, &f.cfg, 0.2, 1)
	_, energy, _ := f.pop.Get(e)
	if math.Abs(energy.Life-1.9) > eps {
		t.Errorf("expected unbounded life 1.9, got %v", energy.Life)
	}
}

// ---------- relocation ----------

func TestRabbitRelocatesToRichestNeighbor(t *testing.T) {
	f := newRabbitFixture(3, 3, 1)
	f.ground.Fill(0)
	f.ground.Set(1, 1, 0.02)
	f.ground.Set(2, 0, 0.9)
	e := f.spawn(t, 1, 1, 0.5)

	dt := 0.2
	out := f.sys.Cycle(e, &f.cfg, dt, 1)
	if out.Action != ActionMove {
		t.Fatalf("expected move, got %v", out.Action)
	}
	pos, energy, _ := f.pop.Get(e)
	if pos.X != 2 || pos.Y != 0 {
		t.Errorf("expected (2,0), got (%d,%d)", pos.X, pos.Y)
	}
	if math.Abs(energy.Life-(0.5-f.cfg.LifeInterval*dt)) > eps {
		t.Errorf("relocating should only decay life, got %v", energy.Life)
	}
	if f.pop.Occupied(1, 1) {
		t.Error("old cell still occupied")
	}
	if err := f.pop.Validate(); err != nil {
		t.Error(err)
	}
}

func TestRabbitRelocateTieTakesFirst(t *testing.T) {
	f := newRabbitFixture(3, 3, 1)
	f.ground.Fill(0.3)
	f.ground.Set(1, 1, 0)
	e := f.spawn(t, 1, 1, 0.5)
	f.spawn(t, 0, 0, 0.5)

	f.sys.Cycle(e, &f.cfg, 0.2, 1)
	pos, _, _ := f.pop.Get(e)
	if pos.X != 1 || pos.Y != 0 {
		t.Errorf("expected first free neighbor (1,0), got (%d,%d)", pos.X, pos.Y)
	}
}

func TestRabbitRelocateSkipsOccupied(t *testing.T) {
	f := newRabbitFixture(3, 3, 1)
	f.ground.Fill(0)
	f.ground.Set(2, 0, 0.9)
	f.ground.Set(0, 2, 0.4)
	e := f.spawn(t, 1, 1, 0.5)
	f.spawn(t, 2, 0, 0.5)

	f.sys.Cycle(e, &f.cfg, 0.2, 1)
	pos, _, _ := f.pop.Get(e)
	if pos.X != 0 || pos.Y != 2 {
		t.Errorf("expected (0,2), got (%d,%d)", pos.X, pos.Y)
	}
}

func TestRabbitStuck(t *testing.T) {
	f := newRabbitFixture(1, 1, 1)
	f.ground.Fill(0)
	e := f.spawn(t, 0, 0, 0.5)

	out := f.sys.Cycle(e, &f.cfg, 0.2, 1)
	if out.Action != ActionStuck {
		t.Errorf("expected stuck, got %v", out.Action)
	}
}

func TestActionString(t *testing.T) {
	if ActionBreedBlocked.String() != "breed_blocked" {
		t.Errorf("unexpected name %q", ActionBreedBlocked.String())
	}
	if Action(99).String() != "unknown" {
		t.Error("expected unknown for out-of-range action")
	}
}
