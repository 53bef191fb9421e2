package cluster

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/stratastore/strata/cmn"
	"github.com/stratastore/strata/cmn/debug"
)

// ChangeCb is invoked with the now-visible topology after every accepted
// mutation. Callbacks must not call back into the manager.
type ChangeCb func(topo *Topology)

// Manager is the process-wide coordinator of topology evolution. All
// mutations are serialised by its mutex and follow the same discipline:
// snapshot from the cache, mutate a deep clone, persist with quorum, then
// install the result into the cache and notify.
type Manager struct {
	mu    sync.Mutex
	disks []string
	cb    ChangeCb
}

var (
	tm   *Manager
	tmMu sync.Mutex
)

// InitManager configures the singleton with the disk-path list used for
// quorum persistence. Double-init fails with INVALID_ARG.
func InitManager(diskRoots []string) error {
	if len(diskRoots) == 0 {
		return cmn.NewInvalidArgError("no disks")
	}
	tmMu.Lock()
	defer tmMu.Unlock()
	if tm != nil {
		return cmn.NewInvalidArgError("topology manager already initialized")
	}
	disks := make([]string, len(diskRoots))
	copy(disks, diskRoots)
	tm = &Manager{disks: disks}
	return nil
}

// CleanupManager tears down the singleton and drops the cached topology.
func CleanupManager() {
	tmMu.Lock()
	tm = nil
	tmMu.Unlock()
	TopoCache.Invalidate()
}

func manager() (*Manager, error) {
	tmMu.Lock()
	m := tm
	tmMu.Unlock()
	if m == nil {
		return nil, cmn.NewInvalidArgError("topology manager not initialized")
	}
	return m, nil
}

// SetTopoCallback registers the change-notification callback.
func SetTopoCallback(cb ChangeCb) error {
	m, err := manager()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.cb = cb
	m.mu.Unlock()
	return nil
}

// LoadTopo performs a quorum read and installs the result into the cache.
func LoadTopo() error {
	m, err := manager()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	topo, err := LoadTopology(m.disks)
	if err != nil {
		return err
	}
	TopoCache.Set(topo)
	return nil
}

// GetTopo returns the cached topology snapshot. The snapshot must not be
// mutated by the caller.
func GetTopo() (*Topology, error) {
	if _, err := manager(); err != nil {
		return nil, err
	}
	topo := TopoCache.Get()
	if topo == nil {
		return nil, cmn.NewNotFoundError("no topology loaded")
	}
	return topo, nil
}

// InstallTopo persists a brand-new topology (cluster format time) and
// makes it visible.
func InstallTopo(topo *Topology) error {
	m, err := manager()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := SaveTopology(m.disks, topo); err != nil {
		return err
	}
	visible := topo.Clone()
	TopoCache.Set(visible)
	m.notify(visible)
	return nil
}

// mutate applies fn to a deep clone of the cached topology, persists the
// clone with quorum, and only then installs it. If persistence fails the
// cache is untouched and callers keep observing the pre-mutation state.
func (m *Manager) mutate(fn func(*Topology) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := TopoCache.Get()
	if snapshot == nil {
		return cmn.NewNotFoundError("no topology loaded")
	}
	work := snapshot.Clone()
	if err := fn(work); err != nil {
		return err
	}
	if work.Generation == snapshot.Generation {
		return nil // no-op mutation; nothing to persist
	}
	debug.Assert(work.Generation == snapshot.Generation+1)
	if err := SaveTopology(m.disks, work); err != nil {
		return err
	}
	visible := work.Clone()
	TopoCache.Set(visible)
	log.Info().Int64("generation", visible.Generation).Msg("topology updated")
	m.notify(visible)
	return nil
}

func (m *Manager) notify(topo *Topology) {
	if m.cb != nil {
		m.cb(topo)
	}
}

// AddPool appends a new empty pool.
func AddPool() error {
	m, err := manager()
	if err != nil {
		return err
	}
	return m.mutate(func(t *Topology) error {
		t.AddPool()
		return nil
	})
}

// AddSet appends an active set with the given disk slots to a pool.
func AddSet(poolIdx int, disks []DiskInfo) error {
	m, err := manager()
	if err != nil {
		return err
	}
	return m.mutate(func(t *Topology) error {
		return t.AddSet(poolIdx, disks)
	})
}

// MarkDraining transitions a set active -> draining.
func MarkDraining(poolIdx, setIdx int) error {
	m, err := manager()
	if err != nil {
		return err
	}
	return m.mutate(func(t *Topology) error {
		return t.MarkDraining(poolIdx, setIdx)
	})
}

// MarkRemoved transitions a set draining -> removed.
func MarkRemoved(poolIdx, setIdx int) error {
	m, err := manager()
	if err != nil {
		return err
	}
	return m.mutate(func(t *Topology) error {
		return t.MarkRemoved(poolIdx, setIdx)
	})
}
