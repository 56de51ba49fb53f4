package manager

import (
	"github.com/pkg/errors"

	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/logging"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/model"
)

func (m *PartitionManager) addReplica(v *model.VertexRecord, pid model.PartitionId) {
	logging.Assert(
		v.MasterPid != pid,
		"%s: can't replicate %s onto its master partition",
		m.logName, v.LogStr(),
	)
	if v.HasReplicaOn(pid) {
		return
	}
	m.mustGetPartition(pid).AddReplica(v.Id)
	v.ReplicaPids[pid] = true
	m.touch(v.Id)
	logging.Verbose(1, "%s: add replica of v%d on p%d", m.logName, v.Id, pid)
}

func (m *PartitionManager) removeReplica(v *model.VertexRecord, pid model.PartitionId) {
	logging.Assert(
		v.ReplicaCount()-1 >= m.minNumReplicas,
		"%s: removing replica on p%d of %s drops it under %d replicas",
		m.logName, pid, v.LogStr(), m.minNumReplicas,
	)
	m.mustGetPartition(pid).RemoveReplica(v.Id)
	delete(v.ReplicaPids, pid)
	m.touch(v.Id)
	logging.Verbose(1, "%s: remove replica of v%d on p%d", m.logName, v.Id, pid)
}

// removeIfRedundant drops v's replica on pid if no friend is mastered there
// and the replication floor still holds afterwards.
func (m *PartitionManager) removeIfRedundant(v *model.VertexRecord, pid model.PartitionId) bool {
	if !v.HasReplicaOn(pid) {
		return false
	}
	if model.NeededOn(m, v, pid, model.InvalidVertex) {
		return false
	}
	if v.ReplicaCount()-1 < m.minNumReplicas {
		return false
	}
	m.removeReplica(v, pid)
	return true
}

func (m *PartitionManager) topUpReplicas(v *model.VertexRecord) {
	for v.ReplicaCount() < m.minNumReplicas {
		pid, ok := m.randomAbsentPartition(v)
		logging.Assert(ok, "%s: no partition left to replicate %s", m.logName, v.LogStr())
		m.addReplica(v, pid)
	}
}

func (m *PartitionManager) moveMaster(
	v *model.VertexRecord,
	dest model.PartitionId,
	replicasToAdd, replicasToRemove model.VertexSet,
) {
	src := v.MasterPid
	if src == dest {
		return
	}
	m.touch(v.Id)
	for f := range v.FriendIds {
		m.touch(f)
	}

	m.mustGetPartition(src).RemoveMaster(v.Id)
	hadReplicaOnDest := v.HasReplicaOn(dest)
	if hadReplicaOnDest {
		m.mustGetPartition(dest).RemoveReplica(v.Id)
		delete(v.ReplicaPids, dest)
	}
	m.mustGetPartition(dest).AddMaster(v.Id)
	v.MasterPid = dest
	logging.Info("%s: move master of v%d p%d -> p%d", m.logName, v.Id, src, dest)

	if model.NeededOn(m, v, src, model.InvalidVertex) {
		m.addReplica(v, src)
	}

	for _, f := range replicasToAdd.Sorted() {
		fr := m.mustGetVertex(f)
		if !fr.PresentOn(dest) {
			m.addReplica(fr, dest)
		}
	}

	if hadReplicaOnDest && v.ReplicaCount() < m.minNumReplicas {
		logging.Verbose(1, "%s: v%d lost replica on p%d, place a substitute", m.logName, v.Id, dest)
		m.topUpReplicas(v)
	}

	for _, f := range replicasToRemove.Sorted() {
		fr := m.mustGetVertex(f)
		m.touch(f)
		if !m.removeIfRedundant(fr, src) {
			logging.Verbose(1, "%s: keep replica of v%d on p%d", m.logName, f, src)
		}
	}
}

// promote turns v's replica on pid into its master. The old master partition
// is left without any copy of v, callers fix that up if it survives.
func (m *PartitionManager) promote(v *model.VertexRecord, pid model.PartitionId) {
	logging.Assert(v.HasReplicaOn(pid), "%s: %s has no replica on p%d to promote", m.logName, v.LogStr(), pid)
	old := v.MasterPid
	m.mustGetPartition(old).RemoveMaster(v.Id)
	m.mustGetPartition(pid).PromoteReplica(v.Id)
	delete(v.ReplicaPids, pid)
	v.MasterPid = pid
	m.touch(v.Id)
	logging.Info("%s: promote replica of v%d on p%d, old master p%d", m.logName, v.Id, pid, old)

	for _, f := range v.FriendIds.Sorted() {
		fr := m.mustGetVertex(f)
		m.touch(f)
		if !fr.PresentOn(pid) {
			m.addReplica(fr, pid)
		}
	}
}

func (m *PartitionManager) AddReplica(id model.VertexId, pid model.PartitionId) error {
	v, err := m.lookupVertex(id)
	if err != nil {
		return err
	}
	if _, err := m.lookupPartition(pid); err != nil {
		return err
	}
	m.startOp("add_replica")
	defer m.finishOp()
	m.addReplica(v, pid)
	return nil
}

// RemoveReplica is a raw primitive: removing a replica locality still needs,
// or one which drops the vertex under the replication floor, is fatal.
func (m *PartitionManager) RemoveReplica(id model.VertexId, pid model.PartitionId) error {
	v, err := m.lookupVertex(id)
	if err != nil {
		return err
	}
	if _, err := m.lookupPartition(pid); err != nil {
		return err
	}
	if !v.HasReplicaOn(pid) {
		return errors.Wrapf(model.ErrVertexNotFound, "replica of vertex %d on partition %d", id, pid)
	}
	m.startOp("remove_replica")
	defer m.finishOp()
	m.removeReplica(v, pid)
	return nil
}

// MoveMaster moves the master of id onto newPid. replicasToAddAtDest is
// extended with every friend locality requires on newPid; members of
// replicasToRemoveAtSrc are only dropped while still redundant.
func (m *PartitionManager) MoveMaster(
	id model.VertexId,
	newPid model.PartitionId,
	replicasToAddAtDest, replicasToRemoveAtSrc model.VertexSet,
) error {
	v, err := m.lookupVertex(id)
	if err != nil {
		return err
	}
	if _, err := m.lookupPartition(newPid); err != nil {
		return err
	}
	toAdd := model.VertexSet{}
	for f := range replicasToAddAtDest {
		if _, err := m.lookupVertex(f); err != nil {
			return err
		}
		toAdd[f] = true
	}
	for f := range replicasToRemoveAtSrc {
		if _, err := m.lookupVertex(f); err != nil {
			return err
		}
	}
	for f := range v.FriendIds {
		if m.mustGetVertex(f).MasterPid != newPid {
			toAdd[f] = true
		}
	}

	m.startOp("move_master")
	defer m.finishOp()
	m.moveMaster(v, newPid, toAdd, replicasToRemoveAtSrc)
	return nil
}

// PromoteReplicaToMaster makes the replica of id on pid its master. Outside
// of partition removal the old master partition survives, so id keeps a
// replica there if a friend is still mastered on it.
func (m *PartitionManager) PromoteReplicaToMaster(id model.VertexId, pid model.PartitionId) error {
	v, err := m.lookupVertex(id)
	if err != nil {
		return err
	}
	if _, err := m.lookupPartition(pid); err != nil {
		return err
	}
	if !v.HasReplicaOn(pid) {
		return errors.Wrapf(model.ErrVertexNotFound, "replica of vertex %d on partition %d", id, pid)
	}

	m.startOp("promote_replica")
	defer m.finishOp()
	old := v.MasterPid
	for f := range v.FriendIds {
		m.touch(f)
	}
	m.promote(v, pid)
	if model.NeededOn(m, v, old, model.InvalidVertex) {
		m.addReplica(v, old)
	}
	m.topUpReplicas(v)
	return nil
}
