package befriend

import (
	"math"
	"sort"

	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/logging"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/model"
)

type Strategy int

const (
	NoChange Strategy = iota
	// master of the smaller id goes to the partition of the larger id
	SmallToLarge
	// master of the larger id goes to the partition of the smaller id
	LargeToSmall
)

var strategyRep = []string{
	"no_change",
	"small_to_large",
	"large_to_small",
}

func (s Strategy) String() string {
	if s < NoChange || s > LargeToSmall {
		return "unknown"
	}
	return strategyRep[s]
}

type Decision struct {
	Strategy Strategy
	StayCost int
	// nil for NoChange
	Plan *MovePlan
}

func (d *Decision) ReplicasToAdd() model.VertexSet {
	if d.Plan == nil {
		return model.VertexSet{}
	}
	return d.Plan.ReplicasToAdd
}

func (d *Decision) ReplicasToRemove() model.VertexSet {
	if d.Plan == nil {
		return model.VertexSet{}
	}
	return d.Plan.ReplicasToRemove
}

type Decider struct {
	logName string
	view    model.GraphView
}

func NewDecider(logName string, view model.GraphView) *Decider {
	return &Decider{logName: logName, view: view}
}

type option struct {
	strategy Strategy
	cost     int
	plan     *MovePlan
}

// Decide is called for a new edge small-large before it is recorded, and
// both vertices must exist.
func (d *Decider) Decide(small, large model.VertexId) *Decision {
	sv, lv := d.view.GetVertex(small), d.view.GetVertex(large)
	logging.Assert(sv != nil && lv != nil, "%s: decide on missing vertex %d or %d", d.logName, small, large)

	stay := d.StayCost(small, large)
	if sv.MasterPid == lv.MasterPid {
		return &Decision{Strategy: NoChange, StayCost: stay}
	}

	options := []*option{{strategy: NoChange, cost: stay}}
	if plan := d.PlanMove(small, large); plan.Eligible {
		options = append(options, &option{strategy: SmallToLarge, cost: plan.Cost, plan: plan})
	}
	if plan := d.PlanMove(large, small); plan.Eligible {
		options = append(options, &option{strategy: LargeToSmall, cost: plan.Cost, plan: plan})
	}
	sort.SliceStable(options, func(i, j int) bool {
		return d.better(options[i], options[j])
	})

	best := options[0]
	if best.plan != nil && len(options) > 1 {
		second := options[1]
		imbalance := d.imbalanceRatio(best.plan)
		if imbalance > 1 {
			gain := math.Inf(1)
			if best.cost > 0 {
				gain = float64(second.cost) / float64(best.cost)
			}
			if gain <= imbalance {
				logging.Verbose(
					1,
					"%s: v%d-v%d %s saves too little (gain %.3f, imbalance %.3f), use %s",
					d.logName, small, large,
					best.strategy.String(), gain, imbalance, second.strategy.String(),
				)
				best = second
			}
		}
	}

	logging.Verbose(
		1,
		"%s: v%d-v%d stay:%d options:%d choose %s(%d)",
		d.logName, small, large, stay, len(options), best.strategy.String(), best.cost,
	)
	return &Decision{Strategy: best.strategy, StayCost: stay, Plan: best.plan}
}

func (d *Decider) better(left, right *option) bool {
	if left.cost != right.cost {
		return left.cost < right.cost
	}
	if left.plan == nil || right.plan == nil {
		return left.plan == nil
	}
	lm := d.view.GetPartition(left.plan.Dest).NumMasters()
	rm := d.view.GetPartition(right.plan.Dest).NumMasters()
	if lm != rm {
		return lm < rm
	}
	return left.strategy == LargeToSmall
}

// (masters(dest)+1)/masters(src) before the move, src holds the mover so it
// is never empty.
func (d *Decider) imbalanceRatio(plan *MovePlan) float64 {
	src := d.view.GetPartition(plan.Src).NumMasters()
	dest := d.view.GetPartition(plan.Dest).NumMasters()
	return float64(dest+1) / float64(src)
}
