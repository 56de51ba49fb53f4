package sim

import (
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/manager"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/utils"
)

// SafeManager serializes writers of a PartitionManager and lets readers in
// only between operations.
type SafeManager struct {
	lock *utils.LooseLock
	m    *manager.PartitionManager
}

func NewSafeManager(m *manager.PartitionManager) *SafeManager {
	return &SafeManager{lock: utils.NewLooseLock(), m: m}
}

func (s *SafeManager) Read(f func(m *manager.PartitionManager)) {
	s.lock.WithRead(func() { f(s.m) })
}

func (s *SafeManager) Write(f func(m *manager.PartitionManager)) {
	s.lock.WithWrite(func() { f(s.m) })
}

// WriteBatch keeps other writers out for the whole of f. Readers get in
// whenever f calls yield, which it must only do between operations.
func (s *SafeManager) WriteBatch(f func(m *manager.PartitionManager, yield func())) {
	s.lock.LockWrite()
	defer s.lock.UnlockWrite()
	f(s.m, func() {
		s.lock.AllowRead()
		s.lock.DisallowRead()
	})
}
