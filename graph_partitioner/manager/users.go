package manager

import (
	"github.com/pkg/errors"

	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/logging"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/model"
)

func (m *PartitionManager) allocVertexId() model.VertexId {
	ans := model.InvalidVertex
	for id := range m.vertices {
		if id > ans {
			ans = id
		}
	}
	return ans + 1
}

func (m *PartitionManager) checkCanHostUser() error {
	if m.partitions.Empty() {
		return errors.Wrap(model.ErrNoPartition, "can't place a user")
	}
	if m.partitions.Size() < m.minNumReplicas+1 {
		return errors.Wrapf(
			model.ErrNotEnoughPartitions,
			"%d partitions can't hold a master and %d replicas",
			m.partitions.Size(), m.minNumReplicas,
		)
	}
	return nil
}

// AddUser places a new vertex on the least loaded partition.
func (m *PartitionManager) AddUser() (model.VertexId, error) {
	if err := m.checkCanHostUser(); err != nil {
		return model.InvalidVertex, err
	}
	id := m.allocVertexId()
	if err := m.AddUserWithId(id, model.InvalidPartition); err != nil {
		return model.InvalidVertex, err
	}
	return id, nil
}

// AddUserWithId places vertex id on pid, or on the least loaded partition if
// pid is InvalidPartition, and seeds MinNumReplicas random replicas for it.
func (m *PartitionManager) AddUserWithId(id model.VertexId, pid model.PartitionId) error {
	if err := m.checkCanHostUser(); err != nil {
		return err
	}
	if id <= model.InvalidVertex {
		return errors.Wrapf(model.ErrInconsistentInput, "invalid vertex id %d", id)
	}
	if _, ok := m.vertices[id]; ok {
		return errors.Wrapf(model.ErrVertexExists, "vertex %d", id)
	}
	if pid == model.InvalidPartition {
		pid = m.leastLoadedPartition()
	} else if _, err := m.lookupPartition(pid); err != nil {
		return err
	}

	m.startOp("add_user")
	defer m.finishOp()

	v := model.NewVertexRecord(id, pid)
	m.vertices[id] = v
	m.mustGetPartition(pid).AddMaster(id)
	m.touch(id)
	m.topUpReplicas(v)
	logging.Info("%s: add user %s", m.logName, v.LogStr())
	return nil
}

// RemoveUser drops the master, replicas and edges of id. Replicas friends
// kept for id stay where they are.
func (m *PartitionManager) RemoveUser(id model.VertexId) error {
	v, err := m.lookupVertex(id)
	if err != nil {
		return err
	}

	m.startOp("remove_user")
	defer m.finishOp()

	for _, f := range v.FriendIds.Sorted() {
		m.mustGetVertex(f).RemoveFriend(id)
		m.touch(f)
	}
	for _, pid := range v.ReplicaPids.Sorted() {
		m.mustGetPartition(pid).RemoveReplica(id)
	}
	m.mustGetPartition(v.MasterPid).RemoveMaster(id)
	delete(m.vertices, id)
	logging.Info("%s: remove user %s with %d friends", m.logName, v.LogStr(), len(v.FriendIds))
	return nil
}
