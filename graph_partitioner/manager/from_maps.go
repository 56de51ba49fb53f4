package manager

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/logging"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/model"
)

func sortedPartitionKeys(input map[model.PartitionId]model.VertexSet) []model.PartitionId {
	ans := make([]model.PartitionId, 0, len(input))
	for pid := range input {
		ans = append(ans, pid)
	}
	sort.Slice(ans, func(i, j int) bool { return ans[i] < ans[j] })
	return ans
}

func sortedVertexKeys(input map[model.VertexId]model.VertexSet) []model.VertexId {
	ans := make([]model.VertexId, 0, len(input))
	for id := range input {
		ans = append(ans, id)
	}
	sort.Slice(ans, func(i, j int) bool { return ans[i] < ans[j] })
	return ans
}

func inconsistent(format string, args ...interface{}) error {
	return errors.Wrapf(model.ErrInconsistentInput, format, args...)
}

// NewPartitionManagerFromMaps loads an existing assignment. A nil replicas
// map lets the manager place replicas itself: the ones locality requires,
// topped up with random partitions to the replication floor.
func NewPartitionManagerFromMaps(
	opts *Options,
	masters map[model.PartitionId]model.VertexSet,
	friendships map[model.VertexId]model.VertexSet,
	replicas map[model.PartitionId]model.VertexSet,
) (*PartitionManager, error) {
	m := NewPartitionManager(opts)
	if err := m.loadMasters(masters); err != nil {
		return nil, err
	}
	if err := m.loadFriendships(friendships); err != nil {
		return nil, err
	}
	if replicas != nil {
		if err := m.loadReplicas(replicas); err != nil {
			return nil, err
		}
	} else if err := m.deriveReplicas(); err != nil {
		return nil, err
	}
	if err := m.Verify(); err != nil {
		return nil, inconsistent("%s", err.Error())
	}
	logging.Info(
		"%s: loaded %d users on %d partitions, %d replicas, edge cut %d",
		m.logName, m.NumUsers(), m.NumPartitions(), m.ReplicationCount(), m.EdgeCut(),
	)
	return m, nil
}

func (m *PartitionManager) loadMasters(masters map[model.PartitionId]model.VertexSet) error {
	for _, pid := range sortedPartitionKeys(masters) {
		if pid <= model.InvalidPartition {
			return inconsistent("invalid partition id %d", pid)
		}
		p := model.NewPartitionRecord(pid)
		m.partitions.Put(pid, p)
		for _, id := range masters[pid].Sorted() {
			if id <= model.InvalidVertex {
				return inconsistent("invalid vertex id %d", id)
			}
			if v, ok := m.vertices[id]; ok {
				return inconsistent("vertex %d mastered on both p%d and p%d", id, v.MasterPid, pid)
			}
			m.vertices[id] = model.NewVertexRecord(id, pid)
			p.AddMaster(id)
		}
	}
	return nil
}

func (m *PartitionManager) loadFriendships(friendships map[model.VertexId]model.VertexSet) error {
	for _, id := range sortedVertexKeys(friendships) {
		v, ok := m.vertices[id]
		if !ok {
			return inconsistent("friendships of unmastered vertex %d", id)
		}
		for _, f := range friendships[id].Sorted() {
			if f == id {
				return inconsistent("vertex %d befriends itself", id)
			}
			if _, ok := m.vertices[f]; !ok {
				return inconsistent("vertex %d befriends unmastered vertex %d", id, f)
			}
			if !friendships[f][id] {
				return inconsistent("friendship %d-%d isn't symmetric", id, f)
			}
			v.AddFriend(f)
		}
	}
	return nil
}

func (m *PartitionManager) loadReplicas(replicas map[model.PartitionId]model.VertexSet) error {
	for _, pid := range sortedPartitionKeys(replicas) {
		p := m.GetPartition(pid)
		if p == nil {
			return inconsistent("replicas on unknown partition %d", pid)
		}
		for _, id := range replicas[pid].Sorted() {
			v, ok := m.vertices[id]
			if !ok {
				return inconsistent("replica of unmastered vertex %d on p%d", id, pid)
			}
			if v.MasterPid == pid {
				return inconsistent("vertex %d replicated on its master partition %d", id, pid)
			}
			p.AddReplica(id)
			v.ReplicaPids[pid] = true
		}
	}
	return nil
}

func (m *PartitionManager) deriveReplicas() error {
	if len(m.vertices) > 0 {
		if err := m.checkCanHostUser(); err != nil {
			return err
		}
	}
	for _, id := range m.VertexIds() {
		v := m.vertices[id]
		for _, pid := range model.RequiredReplicas(m, v).Sorted() {
			m.addReplica(v, pid)
		}
		m.topUpReplicas(v)
	}
	return nil
}
