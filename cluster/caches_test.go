package cluster

import "testing"

func TestFormatCacheCopiesOnSet(t *testing.T) {
	f, _ := NewFormat(1, 2)
	FormatCache.Set(f)
	defer FormatCache.Invalidate()

	// caller keeps ownership of its argument; mutating it afterwards must
	// not affect the cached copy
	f.XL.Sets[0][0] = "mutated"
	cached := FormatCache.Get()
	if cached == nil || cached.XL.Sets[0][0] == "mutated" {
		t.Error("format cache did not copy on set")
	}
}

func TestTopoCacheOwnership(t *testing.T) {
	f, _ := NewFormat(1, 2)
	topo := TopologyFromFormat(f)
	TopoCache.Set(topo)
	defer TopoCache.Invalidate()

	if got := TopoCache.Get(); got != topo {
		t.Error("topology cache must take ownership of the stored value")
	}
}

func TestCacheInvalidate(t *testing.T) {
	f, _ := NewFormat(1, 1)
	FormatCache.Set(f)
	FormatCache.Invalidate()
	if FormatCache.Get() != nil {
		t.Error("format cache not invalidated")
	}

	TopoCache.Set(TopologyFromFormat(f))
	TopoCache.Invalidate()
	if TopoCache.Get() != nil {
		t.Error("topology cache not invalidated")
	}
}
