package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"
)

func newTestPopulation(w, h int) *Population {
	return NewPopulation(ecs.NewWorld(), NewGrid(w, h))
}

func TestPopulationSpawnUniqueCells(t *testing.T) {
	pop := newTestPopulation(3, 3)

	if _, ok := pop.Spawn(1, 1, 1.0, 0, 0); !ok {
		t.Fatal("expected spawn on empty cell")
	}
	if _, ok := pop.Spawn(1, 1, 1.0, 0, 0); ok {
		t.Error("second spawn on the same cell should fail")
	}
	if _, ok := pop.Spawn(3, 0, 1.0, 0, 0); ok {
		t.Error("spawn out of bounds should fail")
	}
	if pop.Len() != 1 {
		t.Errorf("expected 1 rabbit, got %d", pop.Len())
	}
	if err := pop.Validate(); err != nil {
		t.Error(err)
	}
}

func TestPopulationSpawnAssignsIdentity(t *testing.T) {
	pop := newTestPopulation(4, 4)
	a, _ := pop.Spawn(0, 0, 1.0, 0, 0)
	b, _ := pop.Spawn(1, 0, 0.5, 1, 7)

	_, energyA, orgA := pop.Get(a)
	_, energyB, orgB := pop.Get(b)
	if orgA.ID == orgB.ID {
		t.Error("expected distinct IDs")
	}
	if orgB.ParentID != orgA.ID || orgB.BirthTick != 7 {
		t.Errorf("unexpected lineage: %+v", *orgB)
	}
	if energyA.Life != 1.0 || energyB.Life != 0.5 || energyB.LastMoved != 0 {
		t.Errorf("unexpected energy: %+v %+v", *energyA, *energyB)
	}
}

func TestPopulationMoveUpdatesIndex(t *testing.T) {
	pop := newTestPopulation(3, 3)
	e, _ := pop.Spawn(0, 0, 1.0, 0, 0)
	pop.Spawn(2, 2, 1.0, 0, 0)

	if !pop.Move(e, 1, 0) {
		t.Fatal("expected move to free cell")
	}
	if pop.Occupied(0, 0) {
		t.Error("old cell still indexed")
	}
	if got, ok := pop.At(1, 0); !ok || got != e {
		t.Error("new cell not indexed")
	}
	pos, _, _ := pop.Get(e)
	if pos.X != 1 || pos.Y != 0 {
		t.Errorf("position component not updated: %+v", *pos)
	}

	if pop.Move(e, 2, 2) {
		t.Error("move onto occupied cell should fail")
	}
	if err := pop.Validate(); err != nil {
		t.Error(err)
	}
}

func TestPopulationRemove(t *testing.T) {
	pop := newTestPopulation(3, 3)
	e, _ := pop.Spawn(1, 2, 1.0, 0, 0)

	pop.Remove(e)
	if pop.Alive(e) {
		t.Error("entity still alive after Remove")
	}
	if pop.Occupied(1, 2) {
		t.Error("cell still indexed after Remove")
	}
	pop.Remove(e) // no-op
	if pop.Len() != 0 {
		t.Errorf("expected empty population, got %d", pop.Len())
	}
	if err := pop.Validate(); err != nil {
		t.Error(err)
	}
}

func TestPopulationSnapshotAndClear(t *testing.T) {
	pop := newTestPopulation(5, 5)
	for x := 0; x < 5; x++ {
		pop.Spawn(x, x, 1.0, 0, 0)
	}

	snap := pop.Snapshot(nil)
	if len(snap) != 5 {
		t.Fatalf("expected 5 entities in snapshot, got %d", len(snap))
	}

	pop.Clear()
	if pop.Len() != 0 {
		t.Errorf("expected empty population after Clear, got %d", pop.Len())
	}
	for _, e := range snap {
		if pop.Alive(e) {
			t.Error("entity survived Clear")
		}
	}
	if _, ok := pop.Spawn(2, 2, 1.0, 0, 0); !ok {
		t.Error("expected cell to be reusable after Clear")
	}
}
