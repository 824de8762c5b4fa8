package plancache_test

import (
	"testing"

	"github.com/n9te9/hive-query-router/internal/plancache"
	"github.com/n9te9/hive-query-router/internal/planserialize"
)

func TestCache_PutThenGet(t *testing.T) {
	c := plancache.New[planserialize.Plan](10)
	plan := planserialize.Plan{Node: planserialize.Fetch{ServiceName: "a", Operation: "{ok}"}}

	c.Put("query{ok}", plan)

	got, ok := c.Get("query{ok}")
	if !ok {
		t.Fatal("expected a hit after Put")
	}
	fetch, ok := got.Node.(planserialize.Fetch)
	if !ok {
		t.Fatalf("expected a Fetch node, got %#v", got.Node)
	}
	if fetch.ServiceName != "a" || fetch.Operation != "{ok}" {
		t.Errorf("unexpected fetch contents: %#v", fetch)
	}
}

func TestCache_MissOnUnknownKey(t *testing.T) {
	c := plancache.New[planserialize.Plan](10)
	if _, ok := c.Get("query{nope}"); ok {
		t.Fatal("expected a miss for a key that was never Put")
	}
}

func TestCache_EvictsOldestWhenFull(t *testing.T) {
	c := plancache.New[planserialize.Plan](2)
	c.Put("a", planserialize.Plan{})
	c.Put("b", planserialize.Plan{})
	c.Put("c", planserialize.Plan{})

	if c.Len() != 2 {
		t.Fatalf("expected exactly 2 entries retained, got %d", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("expected the oldest entry ('a') to have been evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected the newest entry ('c') to still be present")
	}
}

func TestCache_ReinsertingExistingKeyDoesNotGrowOrder(t *testing.T) {
	c := plancache.New[planserialize.Plan](2)
	c.Put("a", planserialize.Plan{})
	c.Put("a", planserialize.Plan{})
	c.Put("b", planserialize.Plan{})

	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected 'a' to still be present after re-insertion")
	}
}

func TestCache_UnboundedWhenMaxItemsNonPositive(t *testing.T) {
	c := plancache.New[planserialize.Plan](0)
	for i := 0; i < 50; i++ {
		c.Put(plancache.Key(string(rune('a'+i%26))), planserialize.Plan{})
	}
	if c.Len() == 0 {
		t.Fatal("expected entries to accumulate with no eviction")
	}
}

func TestCache_GenericOverNonPlanValues(t *testing.T) {
	c := plancache.New[int](10)
	c.Put("k", 42)
	got, ok := c.Get("k")
	if !ok || got != 42 {
		t.Fatalf("expected (42, true), got (%d, %v)", got, ok)
	}
}
