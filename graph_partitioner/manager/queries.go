package manager

import (
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/model"
)

func (m *PartitionManager) PartitionToMastersMap() map[model.PartitionId]model.VertexSet {
	ans := make(map[model.PartitionId]model.VertexSet)
	for _, pid := range m.PartitionIds() {
		ans[pid] = m.mustGetPartition(pid).MasterIds.Clone()
	}
	return ans
}

func (m *PartitionManager) PartitionToReplicasMap() map[model.PartitionId]model.VertexSet {
	ans := make(map[model.PartitionId]model.VertexSet)
	for _, pid := range m.PartitionIds() {
		ans[pid] = m.mustGetPartition(pid).ReplicaIds.Clone()
	}
	return ans
}

func (m *PartitionManager) FriendshipsMap() map[model.VertexId]model.VertexSet {
	ans := make(map[model.VertexId]model.VertexSet)
	for id, v := range m.vertices {
		ans[id] = v.FriendIds.Clone()
	}
	return ans
}

// EdgeCut counts friendships whose ends are mastered on different partitions.
func (m *PartitionManager) EdgeCut() int {
	ans := 0
	for id, v := range m.vertices {
		for f := range v.FriendIds {
			if id < f && m.vertices[f].MasterPid != v.MasterPid {
				ans++
			}
		}
	}
	return ans
}

// ReplicationCount is the total number of replicas over all partitions.
func (m *PartitionManager) ReplicationCount() int {
	ans := 0
	for _, v := range m.vertices {
		ans += v.ReplicaCount()
	}
	return ans
}

func (m *PartitionManager) MasterCounts() map[model.PartitionId]int {
	ans := make(map[model.PartitionId]int)
	for _, pid := range m.PartitionIds() {
		ans[pid] = m.mustGetPartition(pid).NumMasters()
	}
	return ans
}

// SeenFrom returns a copy of vid as pid holds it, nil if pid has neither the
// master nor a replica.
func (m *PartitionManager) SeenFrom(pid model.PartitionId, vid model.VertexId) (*model.VertexRecord, bool) {
	v, ok := m.vertices[vid]
	if !ok || !v.PresentOn(pid) {
		return nil, false
	}
	return v.Clone(), true
}
