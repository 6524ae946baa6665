package state

import (
	"testing"

	"github.com/signalsfoundry/burial-clock/model"
)

func TestScenarioCacheEvictsOldest(t *testing.T) {
	c := NewScenarioCache(2)
	a := model.Settings{ExposureMyr: 1}
	b := model.Settings{ExposureMyr: 2}
	d := model.Settings{ExposureMyr: 3}
	c.Put(a, model.NewScenario("a", a, nil))
	c.Put(b, model.NewScenario("b", b, nil))
	c.Put(d, model.NewScenario("d", d, nil))

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	if _, ok := c.Get(a); ok {
		t.Fatalf("oldest entry was not evicted")
	}
	if sc, ok := c.Get(d); !ok || sc.ID() != "d" {
		t.Fatalf("Get(d) = %v, %v", sc, ok)
	}
	hits, misses, _ := c.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("Stats() = %d/%d, want 1/1", hits, misses)
	}
}

func TestScenarioCacheZeroCapacityStoresNothing(t *testing.T) {
	c := NewScenarioCache(0)
	s := model.Settings{BurialMyr: 1}
	c.Put(s, model.NewScenario("x", s, nil))
	if _, ok := c.Get(s); ok {
		t.Fatalf("zero-capacity cache returned an entry")
	}
}

func TestScenarioCacheDefaultsAndNil(t *testing.T) {
	if got := NewScenarioCache(-1).Capacity(); got != defaultScenarioCacheSize {
		t.Fatalf("Capacity() = %d, want %d", got, defaultScenarioCacheSize)
	}
	var c *ScenarioCache
	c.Put(model.Settings{}, nil)
	c.InvalidateAll()
	if _, ok := c.Get(model.Settings{}); ok {
		t.Fatalf("nil cache returned an entry")
	}
}
