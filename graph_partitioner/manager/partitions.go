package manager

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/logging"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/model"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/third_party"
)

func (m *PartitionManager) AddPartition() model.PartitionId {
	pid := model.PartitionId(1)
	if key, _ := m.partitions.Max(); key != nil {
		pid = key.(model.PartitionId) + 1
	}
	m.partitions.Put(pid, model.NewPartitionRecord(pid))
	logging.Info("%s: add partition p%d, %d partitions now", m.logName, pid, m.partitions.Size())
	third_party.PerfLog1("spar", m.logName, "add_partition", int64(m.partitions.Size()))
	return pid
}

// RemovePartition migrates every master off pid, keeps all vertices at the
// replication floor and then drops pid.
func (m *PartitionManager) RemovePartition(pid model.PartitionId) error {
	doomed, err := m.lookupPartition(pid)
	if err != nil {
		return err
	}
	survivors := m.partitions.Size() - 1
	if len(m.vertices) > 0 {
		if survivors == 0 {
			return errors.Wrapf(model.ErrLastPartition, "partition %d still hosts %d users", pid, len(m.vertices))
		}
		if survivors < m.minNumReplicas+1 {
			return errors.Wrapf(
				model.ErrNotEnoughPartitions,
				"removing partition %d leaves %d partitions for %d replicas",
				pid, survivors, m.minNumReplicas,
			)
		}
	}

	plan, err := m.planner.Plan(pid)
	if err != nil {
		return err
	}
	topUps := m.planner.PlanTopUps(pid, plan)

	m.startOp("remove_partition")
	defer m.finishOp()

	var topUpIds []model.VertexId
	for id := range topUps {
		topUpIds = append(topUpIds, id)
	}
	sort.Slice(topUpIds, func(i, j int) bool { return topUpIds[i] < topUpIds[j] })
	for _, id := range topUpIds {
		v := m.mustGetVertex(id)
		for _, target := range topUps[id] {
			m.addReplica(v, target)
		}
	}

	migrated := make([]model.VertexId, 0, len(plan))
	for id := range plan {
		migrated = append(migrated, id)
	}
	sort.Slice(migrated, func(i, j int) bool { return migrated[i] < migrated[j] })
	for _, id := range migrated {
		v := m.mustGetVertex(id)
		target := plan[id]
		if !v.HasReplicaOn(target) {
			m.addReplica(v, target)
		}
		m.promote(v, target)
	}

	logging.Assert(
		doomed.NumMasters() == 0,
		"%s: p%d still has %d masters after migration",
		m.logName, pid, doomed.NumMasters(),
	)
	for _, id := range doomed.ReplicaIds.Sorted() {
		m.removeReplica(m.mustGetVertex(id), pid)
	}
	m.partitions.Remove(pid)

	logging.Info(
		"%s: removed p%d, migrated %d masters, topped up %d users",
		m.logName, pid, len(migrated), len(topUps),
	)
	third_party.PerfLog1("spar", m.logName, "migrated_masters", int64(len(migrated)))
	return nil
}
