package manager

import (
	"testing"

	"gotest.tools/assert"

	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/logging"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/model"
)

func TestMoveMasterTowardsHub(t *testing.T) {
	m := newMultiReplicaManager(t)
	replicas := m.PartitionToReplicasMap()

	plan := m.decider.PlanMove(1, 19)
	assert.DeepEqual(t, plan.ReplicasToAdd, model.NewVertexSet(4, 6, 10))
	assert.DeepEqual(t, plan.ReplicasToRemove, model.NewVertexSet(14))

	assert.NilError(t, m.MoveMaster(1, plan.Dest, plan.ReplicasToAdd, plan.ReplicasToRemove))
	assertValid(t, m)

	assert.Equal(t, m.GetVertex(1).MasterPid, model.PartitionId(4))
	assert.DeepEqual(t, m.GetVertex(1).ReplicaPids, model.NewPartitionSet(1, 2, 3))
	assert.DeepEqual(t, m.GetVertex(14).ReplicaPids, model.NewPartitionSet(2, 4))

	added, removed := diffReplicas(replicas, m.PartitionToReplicasMap())
	assert.DeepEqual(t, added, []placement{
		{Vertex: 1, Pid: 1},
		{Vertex: 4, Pid: 4},
		{Vertex: 6, Pid: 4},
		{Vertex: 10, Pid: 4},
	})
	assert.DeepEqual(t, removed, []placement{
		{Vertex: 14, Pid: 1},
		{Vertex: 1, Pid: 4},
	})
	assert.DeepEqual(t, m.MasterCounts(), map[model.PartitionId]int{1: 4, 2: 5, 3: 5, 4: 6})
}

func TestMoveMasterKeepsNeededReplicas(t *testing.T) {
	m := newMultiReplicaManager(t)
	// 16 and 20 would fall under the floor, 6 is still needed by 2 and 5
	assert.NilError(t, m.MoveMaster(1, 4, nil, model.NewVertexSet(6, 16, 20)))
	assertValid(t, m)
	assert.Assert(t, m.GetVertex(6).HasReplicaOn(1))
	assert.Assert(t, m.GetVertex(16).HasReplicaOn(1))
	assert.Assert(t, m.GetVertex(20).HasReplicaOn(1))
	// friends on other partitions get replicas on p4 without being asked
	assert.Assert(t, m.GetVertex(4).HasReplicaOn(4))
	assert.Assert(t, m.GetVertex(10).HasReplicaOn(4))
}

func TestMoveMasterPlacesSubstitute(t *testing.T) {
	m := newMultiReplicaManager(t)
	// 3 loses its copy on p3, the one left behind on p1 keeps it at the floor
	assert.NilError(t, m.MoveMaster(3, 3, nil, nil))
	assertValid(t, m)
	v := m.GetVertex(3)
	assert.Equal(t, v.MasterPid, model.PartitionId(3))
	assert.DeepEqual(t, v.ReplicaPids, model.NewPartitionSet(1, 2))
	assert.Assert(t, m.GetVertex(8).HasReplicaOn(3))

	// without friends nothing is left behind, so a substitute is placed
	assert.NilError(t, m.AddUserWithId(21, 1))
	pids := m.GetVertex(21).ReplicaPids.Sorted()
	assert.Equal(t, len(pids), 2)
	assert.NilError(t, m.MoveMaster(21, pids[0], nil, nil))
	assertValid(t, m)
	v = m.GetVertex(21)
	assert.Equal(t, v.MasterPid, pids[0])
	assert.Equal(t, v.ReplicaCount(), 2)
	assert.Assert(t, v.HasReplicaOn(pids[1]))
}

func TestAddRemoveReplica(t *testing.T) {
	m := newMultiReplicaManager(t)
	assert.NilError(t, m.AddReplica(3, 4))
	assert.Assert(t, m.GetVertex(3).HasReplicaOn(4))
	assert.Assert(t, m.GetPartition(4).HasReplica(3))
	assert.NilError(t, m.AddReplica(3, 4))
	assert.Equal(t, m.GetPartition(4).NumReplicas(), 10)

	assert.NilError(t, m.RemoveReplica(3, 4))
	assert.Assert(t, !m.GetVertex(3).HasReplicaOn(4))
	assertValid(t, m)
}

func TestRemoveReplicaUnderFloorIsFatal(t *testing.T) {
	m := newMultiReplicaManager(t)
	exited := 0
	prev := logging.SetExitFunc(func(code int) {
		exited = code
		panic("exit")
	})
	defer logging.SetExitFunc(prev)

	func() {
		defer func() {
			assert.Equal(t, recover(), "exit")
		}()
		m.RemoveReplica(3, 2)
	}()
	assert.Equal(t, exited, 255)
}

func TestPromoteReplicaToMaster(t *testing.T) {
	m := newMultiReplicaManager(t)
	assert.NilError(t, m.PromoteReplicaToMaster(1, 2))
	assertValid(t, m)

	v := m.GetVertex(1)
	assert.Equal(t, v.MasterPid, model.PartitionId(2))
	// 2 and 4 still live on p1, 12 and 14 on p3, 16 18 20 on p4
	assert.DeepEqual(t, v.ReplicaPids, model.NewPartitionSet(1, 3, 4))
	assert.Assert(t, m.GetPartition(2).HasMaster(1))
	assert.Assert(t, !m.GetPartition(1).HasMaster(1))
	for f := range v.FriendIds {
		assert.Assert(t, m.GetVertex(f).PresentOn(2), "friend %d", f)
	}
}
