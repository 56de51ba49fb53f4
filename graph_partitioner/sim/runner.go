package sim

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/checker"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/logging"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/manager"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/model"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/third_party"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/topology"
)

const (
	OpAddUser         = "add_user"
	OpRemoveUser      = "remove_user"
	OpBefriend        = "befriend"
	OpUnfriend        = "unfriend"
	OpAddPartition    = "add_partition"
	OpRemovePartition = "remove_partition"

	kPerfNamespace = "spar_sim"
)

type Stats struct {
	Step         int                       `json:"step"`
	Users        int                       `json:"users"`
	Partitions   int                       `json:"partitions"`
	EdgeCut      int                       `json:"edge_cut"`
	Replicas     int                       `json:"replicas"`
	MasterCounts map[model.PartitionId]int `json:"master_counts"`
	// per op name
	Applied  map[string]int `json:"applied"`
	Rejected map[string]int `json:"rejected"`
}

type weightedOp struct {
	name   string
	weight int
}

type Runner struct {
	logName string
	config  *Config
	rng     *rand.Rand
	safe    *SafeManager
	ops     []weightedOp

	step     int
	applied  map[string]int
	rejected map[string]int
}

func NewRunner(logName string, cfg *Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	updateValue(cfg)

	rng := rand.New(rand.NewSource(cfg.Seed))
	topo := topology.Random(rng, cfg.InitialPartitions, cfg.InitialUsers, cfg.AvgFriends)
	m, err := manager.NewPartitionManagerFromMaps(
		&manager.Options{LogName: logName, MinNumReplicas: cfg.MinNumReplicas, Rand: rng},
		topo.Masters,
		topo.Friendships,
		nil,
	)
	if err != nil {
		return nil, errors.Wrap(err, "build initial topology")
	}

	w := &cfg.OpWeights
	ans := &Runner{
		logName: logName,
		config:  cfg,
		rng:     rng,
		safe:    NewSafeManager(m),
		ops: []weightedOp{
			{OpAddUser, w.AddUser},
			{OpRemoveUser, w.RemoveUser},
			{OpBefriend, w.Befriend},
			{OpUnfriend, w.Unfriend},
			{OpAddPartition, w.AddPartition},
			{OpRemovePartition, w.RemovePartition},
		},
		applied:  make(map[string]int),
		rejected: make(map[string]int),
	}
	logging.Info(
		"%s: start with %d users %d friendships on %d partitions, seed %d",
		logName, topo.NumUsers(), topo.NumFriendships(), cfg.InitialPartitions, cfg.Seed,
	)
	return ans, nil
}

func (r *Runner) Manager() *SafeManager {
	return r.safe
}

func (r *Runner) pickOp() string {
	total := r.config.OpWeights.total()
	n := r.rng.Intn(total)
	for _, op := range r.ops {
		if n < op.weight {
			return op.name
		}
		n -= op.weight
	}
	logging.Fatal("%s: op weights changed under the runner", r.logName)
	return ""
}

func (r *Runner) randomUser(m *manager.PartitionManager) (model.VertexId, bool) {
	ids := m.VertexIds()
	if len(ids) == 0 {
		return model.InvalidVertex, false
	}
	return ids[r.rng.Intn(len(ids))], true
}

func (r *Runner) randomPartition(m *manager.PartitionManager) (model.PartitionId, bool) {
	pids := m.PartitionIds()
	if len(pids) == 0 {
		return model.InvalidPartition, false
	}
	return pids[r.rng.Intn(len(pids))], true
}

// rejectable errors are the outcome of a random operation which doesn't fit
// the current state, anything else is a bug.
func rejectable(err error) bool {
	for _, target := range []error{
		model.ErrNoPartition,
		model.ErrNotEnoughPartitions,
		model.ErrLastPartition,
		model.ErrSelfFriendship,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (r *Runner) apply(m *manager.PartitionManager, op string) error {
	switch op {
	case OpAddUser:
		_, err := m.AddUser()
		return err
	case OpRemoveUser:
		if u, ok := r.randomUser(m); ok {
			return m.RemoveUser(u)
		}
	case OpBefriend:
		u, ok := r.randomUser(m)
		if !ok {
			return nil
		}
		v, _ := r.randomUser(m)
		return m.Befriend(u, v)
	case OpUnfriend:
		u, ok := r.randomUser(m)
		if !ok {
			return nil
		}
		friends := m.GetVertex(u).FriendIds.Sorted()
		if len(friends) == 0 {
			return nil
		}
		return m.Unfriend(u, friends[r.rng.Intn(len(friends))])
	case OpAddPartition:
		m.AddPartition()
	case OpRemovePartition:
		if pid, ok := r.randomPartition(m); ok {
			return m.RemovePartition(pid)
		}
	default:
		logging.Fatal("%s: unknown op %s", r.logName, op)
	}
	return nil
}

func (r *Runner) runStep(m *manager.PartitionManager) error {
	op := r.pickOp()
	r.step++
	err := r.apply(m, op)
	if err != nil {
		if !rejectable(err) {
			return errors.Wrapf(err, "step %d %s", r.step, op)
		}
		r.rejected[op]++
		logging.Verbose(1, "%s: step %d %s rejected: %s", r.logName, r.step, op, err.Error())
	} else {
		r.applied[op]++
	}

	if every := r.config.CheckEvery; every > 0 && r.step%every == 0 {
		if err := checker.CheckView(m); err != nil {
			return errors.Wrapf(err, "check after step %d", r.step)
		}
		logging.Verbose(1, "%s: step %d checked", r.logName, r.step)
	}
	return nil
}

// Run executes steps random operations, letting status readers in between
// them.
func (r *Runner) Run(steps int) error {
	var err error
	r.safe.WriteBatch(func(m *manager.PartitionManager, yield func()) {
		for i := 0; i < steps; i++ {
			if err = r.runStep(m); err != nil {
				return
			}
			yield()
		}
		if err = checker.CheckView(m); err != nil {
			err = errors.Wrapf(err, "final check after step %d", r.step)
			return
		}
		r.report(r.sample(m))
	})
	return err
}

func (r *Runner) sample(m *manager.PartitionManager) *Stats {
	ans := &Stats{
		Step:         r.step,
		Users:        m.NumUsers(),
		Partitions:   m.NumPartitions(),
		EdgeCut:      m.EdgeCut(),
		Replicas:     m.ReplicationCount(),
		MasterCounts: m.MasterCounts(),
		Applied:      make(map[string]int),
		Rejected:     make(map[string]int),
	}
	for op, count := range r.applied {
		ans.Applied[op] = count
	}
	for op, count := range r.rejected {
		ans.Rejected[op] = count
	}
	return ans
}

func (r *Runner) report(stats *Stats) {
	third_party.PerfLog1(kPerfNamespace, r.logName, "users", int64(stats.Users))
	third_party.PerfLog1(kPerfNamespace, r.logName, "partitions", int64(stats.Partitions))
	third_party.PerfLog1(kPerfNamespace, r.logName, "edge_cut", int64(stats.EdgeCut))
	third_party.PerfLog1(kPerfNamespace, r.logName, "replicas", int64(stats.Replicas))
	for op, count := range stats.Applied {
		third_party.PerfLog2(kPerfNamespace, r.logName, "applied", op, int64(count))
	}
	logging.Info(
		"%s: step %d users %d partitions %d edge cut %d replicas %d",
		r.logName, stats.Step, stats.Users, stats.Partitions, stats.EdgeCut, stats.Replicas,
	)
}

// Stats samples the current state under the read lock.
func (r *Runner) Stats() *Stats {
	var ans *Stats
	r.safe.Read(func(m *manager.PartitionManager) {
		ans = r.sample(m)
	})
	return ans
}
