package manager

import (
	"github.com/pkg/errors"

	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/befriend"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/logging"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/model"
)

func (m *PartitionManager) lookupPair(u, v model.VertexId) (*model.VertexRecord, *model.VertexRecord, error) {
	if u == v {
		return nil, nil, errors.Wrapf(model.ErrSelfFriendship, "vertex %d", u)
	}
	ur, err := m.lookupVertex(u)
	if err != nil {
		return nil, nil, err
	}
	vr, err := m.lookupVertex(v)
	if err != nil {
		return nil, nil, err
	}
	if u > v {
		return vr, ur, nil
	}
	return ur, vr, nil
}

func colocated(u, v *model.VertexRecord) bool {
	if u.MasterPid == v.MasterPid {
		return true
	}
	return u.HasReplicaOn(v.MasterPid) && v.HasReplicaOn(u.MasterPid)
}

func (m *PartitionManager) link(u, v *model.VertexRecord) {
	u.AddFriend(v.Id)
	v.AddFriend(u.Id)
	m.touch(u.Id, v.Id)
}

func (m *PartitionManager) addCrossReplicas(u, v *model.VertexRecord) {
	if u.MasterPid == v.MasterPid {
		return
	}
	m.addReplica(u, v.MasterPid)
	m.addReplica(v, u.MasterPid)
}

// Befriend records the edge u-v, moving at most one master if that hosts
// fewer replicas than keeping both in place.
func (m *PartitionManager) Befriend(u, v model.VertexId) error {
	small, large, err := m.lookupPair(u, v)
	if err != nil {
		return err
	}
	if small.HasFriend(large.Id) {
		logging.Verbose(1, "%s: v%d and v%d are friends already", m.logName, small.Id, large.Id)
		return nil
	}

	m.startOp("befriend")
	defer m.finishOp()

	if colocated(small, large) {
		m.link(small, large)
		return nil
	}

	decision := m.decider.Decide(small.Id, large.Id)
	m.link(small, large)
	logging.Info(
		"%s: befriend v%d(p%d) v%d(p%d) by %s",
		m.logName, small.Id, small.MasterPid, large.Id, large.MasterPid, decision.Strategy.String(),
	)
	switch decision.Strategy {
	case befriend.NoChange:
		m.addCrossReplicas(small, large)
	case befriend.SmallToLarge, befriend.LargeToSmall:
		plan := decision.Plan
		logging.Verbose(1, "%s: apply %s", m.logName, plan.String())
		m.moveMaster(
			m.mustGetVertex(plan.Mover),
			plan.Dest,
			decision.ReplicasToAdd(),
			decision.ReplicasToRemove(),
		)
	default:
		logging.Fatal("%s: unknown strategy %d", m.logName, int(decision.Strategy))
	}
	return nil
}

// Unfriend removes the edge u-v and the cross replicas only it needed, as
// long as the replication floor holds.
func (m *PartitionManager) Unfriend(u, v model.VertexId) error {
	small, large, err := m.lookupPair(u, v)
	if err != nil {
		return err
	}
	if !small.HasFriend(large.Id) {
		logging.Verbose(1, "%s: v%d and v%d aren't friends", m.logName, small.Id, large.Id)
		return nil
	}

	m.startOp("unfriend")
	defer m.finishOp()

	small.RemoveFriend(large.Id)
	large.RemoveFriend(small.Id)
	m.touch(small.Id, large.Id)
	if small.MasterPid == large.MasterPid {
		return nil
	}
	m.removeIfRedundant(small, large.MasterPid)
	m.removeIfRedundant(large, small.MasterPid)
	logging.Info("%s: unfriend %s %s", m.logName, small.LogStr(), large.LogStr())
	return nil
}
