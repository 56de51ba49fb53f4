package migration_test

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"gotest.tools/assert"

	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/manager"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/migration"
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

func TestPromotionScore(t *testing.T) {
	m := newMultiReplica(t)
	assert.Equal(t, migration.PromotionScore(m, m.GetVertex(1), 2), 0.9)
	assert.Equal(t, migration.PromotionScore(m, m.GetVertex(3), 3), 0.25)
	assert.Equal(t, migration.PromotionScore(m, m.GetVertex(3), 4), 0.0)

	assert.NilError(t, m.AddUserWithId(21, 1))
	assert.Equal(t, migration.PromotionScore(m, m.GetVertex(21), 2), 0.0)
}

func TestPlanBalancesSurvivors(t *testing.T) {
	m := newMultiReplica(t)
	planner := migration.NewPlanner("test", m, rand.New(rand.NewSource(1)))
	plan, err := planner.Plan(1)
	assert.NilError(t, err)
	assert.DeepEqual(t, plan, map[model.VertexId]model.PartitionId{
		1: 2,
		2: 2,
		3: 3,
		4: 2,
		5: 3,
	})

	counts := m.MasterCounts()
	for _, target := range plan {
		counts[target]++
	}
	delete(counts, 1)
	// ceil(20/3) = 7, v4 only has replicas on the two full partitions
	assert.DeepEqual(t, counts, map[model.PartitionId]int{2: 8, 3: 7, 4: 5})
}

func TestPlanPrefersExistingReplicas(t *testing.T) {
	m, err := manager.NewPartitionManagerFromMaps(
		&manager.Options{LogName: "test", MinNumReplicas: 1, Rand: rand.New(rand.NewSource(1))},
		map[model.PartitionId]model.VertexSet{
			1: model.NewVertexSet(1, 2, 3),
			2: model.NewVertexSet(),
			3: model.NewVertexSet(4, 5, 6),
		},
		map[model.VertexId]model.VertexSet{
			1: {}, 2: {}, 3: {}, 4: {}, 5: {}, 6: {},
		},
		map[model.PartitionId]model.VertexSet{
			2: model.NewVertexSet(4, 5, 6),
			3: model.NewVertexSet(1, 2, 3),
		},
	)
	assert.NilError(t, err)

	// p3 is at the ceiling already, but the empty p2 holds no copy of 1-3
	planner := migration.NewPlanner("test", m, rand.New(rand.NewSource(1)))
	plan, err := planner.Plan(1)
	assert.NilError(t, err)
	assert.DeepEqual(t, plan, map[model.VertexId]model.PartitionId{1: 3, 2: 3, 3: 3})

	topUps := planner.PlanTopUps(1, plan)
	assert.DeepEqual(t, topUps, map[model.VertexId][]model.PartitionId{
		1: {2},
		2: {2},
		3: {2},
	})
}

func TestPlanTopUps(t *testing.T) {
	m := newMultiReplica(t)
	planner := migration.NewPlanner("test", m, rand.New(rand.NewSource(1)))
	plan, err := planner.Plan(1)
	assert.NilError(t, err)

	// every survivor but the master and the remaining replica is taken,
	// so no choice is left to the random source
	topUps := planner.PlanTopUps(1, plan)
	assert.DeepEqual(t, topUps, map[model.VertexId][]model.PartitionId{
		3:  {4},
		4:  {4},
		6:  {4},
		7:  {3},
		8:  {3},
		9:  {3},
		10: {4},
		12: {2},
		13: {4},
		15: {4},
		16: {3},
		17: {3},
		18: {3},
		20: {3},
	})
}

func TestPlanEdgeCases(t *testing.T) {
	m := newMultiReplica(t)
	planner := migration.NewPlanner("test", m, rand.New(rand.NewSource(1)))

	_, err := planner.Plan(9)
	assert.Assert(t, errors.Is(err, model.ErrPartitionNotFound))

	empty := m.AddPartition()
	plan, err := planner.Plan(empty)
	assert.NilError(t, err)
	assert.Equal(t, len(plan), 0)

	single := manager.NewPartitionManager(&manager.Options{LogName: "single"})
	pid := single.AddPartition()
	_, err = single.AddUser()
	assert.NilError(t, err)
	_, err = migration.NewPlanner("single", single, rand.New(rand.NewSource(1))).Plan(pid)
	assert.Assert(t, errors.Is(err, model.ErrLastPartition))
}

func TestPlanWaterFillsWithoutReplicas(t *testing.T) {
	m := manager.NewPartitionManager(&manager.Options{LogName: "test"})
	p1, p2, p3 := m.AddPartition(), m.AddPartition(), m.AddPartition()
	for i := 1; i <= 4; i++ {
		assert.NilError(t, m.AddUserWithId(model.VertexId(i), p1))
	}
	assert.NilError(t, m.AddUserWithId(5, p2))

	plan, err := migration.NewPlanner("test", m, rand.New(rand.NewSource(1))).Plan(p1)
	assert.NilError(t, err)
	assert.DeepEqual(t, plan, map[model.VertexId]model.PartitionId{
		1: p3,
		2: p2,
		3: p3,
		4: p2,
	})
}
