package migration

import (
	"math/rand"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/pkg/errors"

	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/logging"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/model"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/utils"
)

// Planner decides where the masters of a decommissioned partition go.
type Planner struct {
	logName string
	view    model.GraphView
	rng     *rand.Rand
}

func NewPlanner(logName string, view model.GraphView, rng *rand.Rand) *Planner {
	return &Planner{logName: logName, view: view, rng: rng}
}

type candidate struct {
	vertex model.VertexId
	pid    model.PartitionId
	score  float64
}

func cmpCandidate(left, right interface{}) int {
	l, r := left.(*candidate), right.(*candidate)
	if l.score != r.score {
		if l.score > r.score {
			return -1
		}
		return 1
	}
	if l.vertex != r.vertex {
		return model.VertexIdComparator(l.vertex, r.vertex)
	}
	return model.PartitionIdComparator(l.pid, r.pid)
}

// PromotionScore is |friends(v) ∩ masters(pid)|^2 / |friends(v)|.
func PromotionScore(view model.GraphView, v *model.VertexRecord, pid model.PartitionId) float64 {
	if len(v.FriendIds) == 0 {
		return 0
	}
	n := float64(model.FriendsMasteredOn(view, v, pid))
	return n * n / float64(len(v.FriendIds))
}

func (p *Planner) survivors(doomed model.PartitionId) []model.PartitionId {
	var ans []model.PartitionId
	for _, pid := range p.view.PartitionIds() {
		if pid != doomed {
			ans = append(ans, pid)
		}
	}
	return ans
}

// Plan maps every master on doomed to a surviving partition.
func (p *Planner) Plan(doomed model.PartitionId) (map[model.VertexId]model.PartitionId, error) {
	part := p.view.GetPartition(doomed)
	if part == nil {
		return nil, model.PartitionNotFound(doomed)
	}
	plan := make(map[model.VertexId]model.PartitionId)
	if part.NumMasters() == 0 {
		return plan, nil
	}
	survivors := p.survivors(doomed)
	if len(survivors) == 0 {
		return nil, errors.Wrapf(model.ErrLastPartition, "partition %d", doomed)
	}

	total := 0
	for _, pid := range p.view.PartitionIds() {
		total += p.view.GetPartition(pid).NumMasters()
	}
	ceiling := utils.CeilDiv(total, len(survivors))
	remaining := make(map[model.PartitionId]int)
	for _, pid := range survivors {
		remaining[pid] = ceiling - p.view.GetPartition(pid).NumMasters()
	}

	candidates := treeset.NewWith(cmpCandidate)
	for id := range part.MasterIds {
		v := p.view.GetVertex(id)
		for pid := range v.ReplicaPids {
			candidates.Add(&candidate{vertex: id, pid: pid, score: PromotionScore(p.view, v, pid)})
		}
	}

	tracker := newLoadTracker(p.view, survivors)
	iter := candidates.Iterator()
	for iter.Next() {
		c := iter.Value().(*candidate)
		if _, ok := plan[c.vertex]; ok {
			continue
		}
		if remaining[c.pid] <= 0 {
			continue
		}
		plan[c.vertex] = c.pid
		remaining[c.pid]--
		tracker.assign(c.pid)
		logging.Verbose(1, "%s: promote v%d on p%d by score %.3f", p.logName, c.vertex, c.pid, c.score)
	}

	for _, id := range part.MasterIds.Sorted() {
		if _, ok := plan[id]; ok {
			continue
		}
		target, ok := tracker.leastLoadedOf(p.view.GetVertex(id).ReplicaPids)
		if !ok {
			logging.Verbose(1, "%s: v%d has no replica on any survivor", p.logName, id)
			target = tracker.leastLoaded()
		}
		plan[id] = target
		tracker.assign(target)
		logging.Verbose(1, "%s: water-fill v%d onto p%d", p.logName, id, target)
	}

	logging.Info(
		"%s: plan to migrate %d masters out of p%d, ceiling %d per partition",
		p.logName, len(plan), doomed, ceiling,
	)
	return plan, nil
}

// PlanTopUps picks fresh replica locations for vertices which would drop
// under the replication floor once doomed is gone and plan is promoted.
func (p *Planner) PlanTopUps(
	doomed model.PartitionId,
	plan map[model.VertexId]model.PartitionId,
) map[model.VertexId][]model.PartitionId {
	minReplicas := p.view.MinNumReplicas()
	survivors := p.survivors(doomed)
	output := make(map[model.VertexId][]model.PartitionId)

	for _, id := range p.view.VertexIds() {
		v := p.view.GetVertex(id)
		master := v.MasterPid
		after := v.ReplicaCount() - utils.Bool2Int(v.HasReplicaOn(doomed))
		if target, ok := plan[id]; ok {
			master = target
			after -= utils.Bool2Int(v.HasReplicaOn(target))
		}
		if after >= minReplicas {
			continue
		}

		chosen := model.PartitionSet{}
		for after < minReplicas {
			var free []model.PartitionId
			for _, pid := range survivors {
				if pid != master && !v.HasReplicaOn(pid) && !chosen[pid] {
					free = append(free, pid)
				}
			}
			logging.Assert(
				len(free) > 0,
				"%s: no partition left to top up %s while removing p%d",
				p.logName, v.LogStr(), doomed,
			)
			pid := free[p.rng.Intn(len(free))]
			chosen[pid] = true
			output[id] = append(output[id], pid)
			after++
		}
		logging.Verbose(1, "%s: top up v%d with replicas on %v", p.logName, id, output[id])
	}
	return output
}
