package befriend_test

import (
	"math/rand"
	"testing"

	"gotest.tools/assert"

	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/befriend"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/manager"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/model"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/topology"
)

func newMultiReplica(t *testing.T) *manager.PartitionManager {
	topo := topology.MultiReplica()
	m, err := manager.NewPartitionManagerFromMaps(
		&manager.Options{
			LogName:        "test",
			MinNumReplicas: topology.MultiReplicaMinReplicas,
			Rand:           rand.New(rand.NewSource(1)),
		},
		topo.Masters,
		topo.Friendships,
		topo.Replicas,
	)
	assert.NilError(t, err)
	return m
}

func TestStrategyString(t *testing.T) {
	assert.Equal(t, befriend.NoChange.String(), "no_change")
	assert.Equal(t, befriend.SmallToLarge.String(), "small_to_large")
	assert.Equal(t, befriend.LargeToSmall.String(), "large_to_small")
}

func TestDecideKeepsMastersOfBusyPair(t *testing.T) {
	m := newMultiReplica(t)
	d := befriend.NewDecider("test", m)

	assert.Equal(t, d.StayCost(3, 19), 24)
	assert.Equal(t, d.PlanMove(3, 19).Eligible, false)
	assert.Equal(t, d.PlanMove(19, 3).Eligible, false)

	decision := d.Decide(3, 19)
	assert.Equal(t, decision.Strategy, befriend.NoChange)
	assert.Equal(t, decision.StayCost, 24)
	assert.Assert(t, decision.Plan == nil)
	assert.Equal(t, len(decision.ReplicasToAdd()), 0)
	assert.Equal(t, len(decision.ReplicasToRemove()), 0)
}

func TestPlanMoveTowardsHub(t *testing.T) {
	m := newMultiReplica(t)
	d := befriend.NewDecider("test", m)

	plan := d.PlanMove(1, 19)
	assert.DeepEqual(t, plan, &befriend.MovePlan{
		Mover:            1,
		Target:           19,
		Src:              1,
		Dest:             4,
		ReplicasToAdd:    model.NewVertexSet(4, 6, 10),
		ReplicasToRemove: model.NewVertexSet(14),
		AddMoverOnSrc:    true,
		DropMoverOnDest:  true,
		Cost:             24,
		Eligible:         true,
	})

	// 1 takes 4, 6 and 10 to p4 and needs a back replica on p1, which is
	// more than dropping 14 and its own p4 replica saves, so both stay
	decision := d.Decide(1, 19)
	assert.Equal(t, decision.StayCost, 23)
	assert.Equal(t, decision.Strategy, befriend.NoChange)
}

func TestDecideMovesLonelyVertex(t *testing.T) {
	m := manager.NewPartitionManager(&manager.Options{LogName: "test"})
	p1, p2 := m.AddPartition(), m.AddPartition()
	assert.NilError(t, m.AddUserWithId(1, p1))
	assert.NilError(t, m.AddUserWithId(2, p2))
	assert.NilError(t, m.AddUserWithId(3, p2))
	assert.NilError(t, m.Befriend(2, 3))

	d := befriend.NewDecider("test", m)
	decision := d.Decide(1, 2)
	assert.Equal(t, decision.StayCost, 2)
	assert.Equal(t, decision.Strategy, befriend.SmallToLarge)
	assert.Equal(t, decision.Plan.Cost, 0)
	assert.Equal(t, decision.Plan.Dest, p2)
	assert.Equal(t, len(decision.ReplicasToAdd()), 0)
}

func TestDecideFallsBackOnImbalance(t *testing.T) {
	m, err := manager.NewPartitionManagerFromMaps(
		&manager.Options{LogName: "test"},
		map[model.PartitionId]model.VertexSet{
			1: model.NewVertexSet(1),
			2: model.NewVertexSet(2, 3),
			3: model.NewVertexSet(4),
		},
		map[model.VertexId]model.VertexSet{
			1: model.NewVertexSet(4),
			2: model.NewVertexSet(3),
			3: model.NewVertexSet(2),
			4: model.NewVertexSet(1),
		},
		map[model.PartitionId]model.VertexSet{
			1: model.NewVertexSet(4),
			3: model.NewVertexSet(1),
		},
	)
	assert.NilError(t, err)

	d := befriend.NewDecider("test", m)
	move := d.PlanMove(1, 2)
	assert.Equal(t, move.Cost, 1)
	assert.Assert(t, move.Eligible)
	assert.DeepEqual(t, move.ReplicasToAdd, model.NewVertexSet(4))
	assert.DeepEqual(t, move.ReplicasToRemove, model.NewVertexSet(4))

	// 1 -> p2 saves 3/1 replicas but p2 would hold 3 masters against 1
	decision := d.Decide(1, 2)
	assert.Equal(t, decision.StayCost, 3)
	assert.Equal(t, decision.Strategy, befriend.NoChange)
}

func TestDecideTieKeepsMasters(t *testing.T) {
	m, err := manager.NewPartitionManagerFromMaps(
		&manager.Options{LogName: "test"},
		map[model.PartitionId]model.VertexSet{
			1: model.NewVertexSet(1, 3),
			2: model.NewVertexSet(2, 4),
		},
		map[model.VertexId]model.VertexSet{
			1: model.NewVertexSet(3),
			2: model.NewVertexSet(4),
			3: model.NewVertexSet(1),
			4: model.NewVertexSet(2),
		},
		nil,
	)
	assert.NilError(t, err)

	d := befriend.NewDecider("test", m)
	assert.Equal(t, d.StayCost(1, 2), 2)
	// either mover drags a replica of its friend along and leaves one behind
	assert.Equal(t, d.PlanMove(1, 2).Cost, 2)
	assert.Equal(t, d.PlanMove(2, 1).Cost, 2)

	decision := d.Decide(1, 2)
	assert.Equal(t, decision.Strategy, befriend.NoChange)
	assert.Assert(t, decision.Plan == nil)
}

func TestDecideTieMovesTowardsLessLoaded(t *testing.T) {
	m := manager.NewPartitionManager(&manager.Options{LogName: "test"})
	p1, p2 := m.AddPartition(), m.AddPartition()
	assert.NilError(t, m.AddUserWithId(1, p1))
	assert.NilError(t, m.AddUserWithId(2, p2))
	assert.NilError(t, m.AddUserWithId(3, p1))

	d := befriend.NewDecider("test", m)
	assert.Equal(t, d.PlanMove(1, 2).Cost, 0)
	assert.Equal(t, d.PlanMove(2, 1).Cost, 0)

	decision := d.Decide(1, 2)
	assert.Equal(t, decision.StayCost, 2)
	assert.Equal(t, decision.Strategy, befriend.SmallToLarge)
	assert.Equal(t, decision.Plan.Mover, model.VertexId(1))
	assert.Equal(t, decision.Plan.Dest, p2)
}

func TestDecideTieOnEvenLoad(t *testing.T) {
	m := manager.NewPartitionManager(&manager.Options{LogName: "test"})
	p1, p2 := m.AddPartition(), m.AddPartition()
	assert.NilError(t, m.AddUserWithId(1, p1))
	assert.NilError(t, m.AddUserWithId(2, p2))

	d := befriend.NewDecider("test", m)
	decision := d.Decide(1, 2)
	assert.Equal(t, decision.StayCost, 2)
	assert.Equal(t, decision.Strategy, befriend.LargeToSmall)
	assert.Equal(t, decision.Plan.Cost, 0)
	assert.Equal(t, decision.Plan.Mover, model.VertexId(2))
	assert.Equal(t, decision.Plan.Dest, p1)
}
