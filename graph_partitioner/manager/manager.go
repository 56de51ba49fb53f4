package manager

import (
	"math/rand"
	"sort"

	"github.com/emirpasic/gods/maps/treemap"

	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/befriend"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/logging"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/migration"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/model"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/utils"
)

type Options struct {
	LogName        string
	MinNumReplicas int
	// all random choices are drawn from here, nil means a source seeded by 0
	Rand *rand.Rand
}

// PartitionManager owns every vertex and partition record. It is not safe for
// concurrent use: each exported mutation is a transaction which only promises
// the locality and replication invariants on return.
type PartitionManager struct {
	logName        string
	minNumReplicas int
	rng            *rand.Rand

	vertices map[model.VertexId]*model.VertexRecord
	// model.PartitionId -> *model.PartitionRecord
	partitions *treemap.Map

	decider *befriend.Decider
	planner *migration.Planner

	// vertices mutated by the running operation
	touched model.VertexSet
	opName  string
}

func NewPartitionManager(opts *Options) *PartitionManager {
	if opts == nil {
		opts = &Options{}
	}
	ans := &PartitionManager{
		logName:        opts.LogName,
		minNumReplicas: opts.MinNumReplicas,
		rng:            opts.Rand,
		vertices:       make(map[model.VertexId]*model.VertexRecord),
		partitions:     treemap.NewWith(model.PartitionIdComparator),
	}
	if ans.logName == "" {
		ans.logName = "spar"
	}
	if ans.minNumReplicas < 0 {
		logging.Warning("%s: negative min replicas %d, use 0", ans.logName, ans.minNumReplicas)
		ans.minNumReplicas = 0
	}
	if ans.rng == nil {
		ans.rng = rand.New(rand.NewSource(0))
	}
	ans.decider = befriend.NewDecider(ans.logName, ans)
	ans.planner = migration.NewPlanner(ans.logName, ans, ans.rng)
	return ans
}

func (m *PartitionManager) MinNumReplicas() int {
	return m.minNumReplicas
}

func (m *PartitionManager) GetVertex(id model.VertexId) *model.VertexRecord {
	return m.vertices[id]
}

func (m *PartitionManager) GetPartition(id model.PartitionId) *model.PartitionRecord {
	val, ok := m.partitions.Get(id)
	if !ok {
		return nil
	}
	return val.(*model.PartitionRecord)
}

func (m *PartitionManager) PartitionIds() []model.PartitionId {
	ans := make([]model.PartitionId, 0, m.partitions.Size())
	for _, key := range m.partitions.Keys() {
		ans = append(ans, key.(model.PartitionId))
	}
	return ans
}

func (m *PartitionManager) VertexIds() []model.VertexId {
	ans := make([]model.VertexId, 0, len(m.vertices))
	for id := range m.vertices {
		ans = append(ans, id)
	}
	sort.Slice(ans, func(i, j int) bool { return ans[i] < ans[j] })
	return ans
}

func (m *PartitionManager) NumUsers() int {
	return len(m.vertices)
}

func (m *PartitionManager) NumPartitions() int {
	return m.partitions.Size()
}

func (m *PartitionManager) mustGetVertex(id model.VertexId) *model.VertexRecord {
	v, ok := m.vertices[id]
	logging.Assert(ok, "%s: can't find v%d", m.logName, id)
	return v
}

func (m *PartitionManager) mustGetPartition(id model.PartitionId) *model.PartitionRecord {
	p := m.GetPartition(id)
	logging.Assert(p != nil, "%s: can't find p%d", m.logName, id)
	return p
}

func (m *PartitionManager) lookupVertex(id model.VertexId) (*model.VertexRecord, error) {
	if v, ok := m.vertices[id]; ok {
		return v, nil
	}
	return nil, model.VertexNotFound(id)
}

func (m *PartitionManager) lookupPartition(id model.PartitionId) (*model.PartitionRecord, error) {
	if p := m.GetPartition(id); p != nil {
		return p, nil
	}
	return nil, model.PartitionNotFound(id)
}

// leastLoadedPartition returns the partition with fewest masters, lowest id
// on ties.
func (m *PartitionManager) leastLoadedPartition() model.PartitionId {
	pids := m.PartitionIds()
	idx := utils.FindMinIndex(len(pids), func(i, j int) bool {
		return m.mustGetPartition(pids[i]).NumMasters() < m.mustGetPartition(pids[j]).NumMasters()
	})
	logging.Assert(idx >= 0, "%s: no partition", m.logName)
	return pids[idx]
}

// randomAbsentPartition picks a partition holding neither the master nor a
// replica of v and not listed in exclude.
func (m *PartitionManager) randomAbsentPartition(
	v *model.VertexRecord,
	exclude ...model.PartitionId,
) (model.PartitionId, bool) {
	skip := model.NewPartitionSet(exclude...)
	var free []model.PartitionId
	for _, pid := range m.PartitionIds() {
		if !v.PresentOn(pid) && !skip[pid] {
			free = append(free, pid)
		}
	}
	if len(free) == 0 {
		return model.InvalidPartition, false
	}
	return free[m.rng.Intn(len(free))], true
}
