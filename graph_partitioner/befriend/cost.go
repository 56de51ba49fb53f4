package befriend

import (
	"fmt"

	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/logging"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/model"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/utils"
)

// MovePlan describes moving Mover's master onto the partition of Target.
type MovePlan struct {
	Mover  model.VertexId
	Target model.VertexId
	Src    model.PartitionId
	Dest   model.PartitionId

	// friends of Mover which need a new replica on Dest
	ReplicasToAdd model.VertexSet
	// vertices whose replica on Src is only kept for Mover
	ReplicasToRemove model.VertexSet
	// Mover still has friends mastered on Src
	AddMoverOnSrc bool
	// Mover's replica on Dest goes away without a substitute
	DropMoverOnDest bool

	// total replicas hosted by Src and Dest after the move
	Cost int
	// the move can't end with a larger edge cut than keeping both masters
	Eligible bool
}

func (p *MovePlan) String() string {
	return fmt.Sprintf(
		"v%d p%d->p%d add:%s remove:%s back:%v drop_self:%v cost:%d eligible:%v",
		p.Mover, p.Src, p.Dest,
		p.ReplicasToAdd.String(), p.ReplicasToRemove.String(),
		p.AddMoverOnSrc, p.DropMoverOnDest, p.Cost, p.Eligible,
	)
}

// StayCost counts replicas on both master partitions if no master moves and
// the missing cross replicas are added.
func (d *Decider) StayCost(u, v model.VertexId) int {
	ur, vr := d.view.GetVertex(u), d.view.GetVertex(v)
	ans := d.view.GetPartition(ur.MasterPid).NumReplicas()
	if ur.MasterPid == vr.MasterPid {
		return ans
	}
	ans += d.view.GetPartition(vr.MasterPid).NumReplicas()
	ans += utils.Bool2Int(!ur.HasReplicaOn(vr.MasterPid))
	ans += utils.Bool2Int(!vr.HasReplicaOn(ur.MasterPid))
	return ans
}

// PlanMove evaluates moving mover's master to target's partition, as if the
// edge mover-target already existed.
func (d *Decider) PlanMove(mover, target model.VertexId) *MovePlan {
	mr, tr := d.view.GetVertex(mover), d.view.GetVertex(target)
	logging.Assert(mr != nil && tr != nil, "%s: plan move of missing vertex %d or %d", d.logName, mover, target)

	minReplicas := d.view.MinNumReplicas()
	plan := &MovePlan{
		Mover:            mover,
		Target:           target,
		Src:              mr.MasterPid,
		Dest:             tr.MasterPid,
		ReplicasToAdd:    model.VertexSet{},
		ReplicasToRemove: model.VertexSet{},
	}

	friendsOnSrc, friendsOnDest := 0, 0
	for f := range mr.FriendIds {
		fr := d.view.GetVertex(f)
		switch fr.MasterPid {
		case plan.Src:
			friendsOnSrc++
		case plan.Dest:
			friendsOnDest++
		}
		if fr.MasterPid != plan.Dest && !fr.HasReplicaOn(plan.Dest) {
			plan.ReplicasToAdd[f] = true
		}
	}
	plan.AddMoverOnSrc = friendsOnSrc > 0

	candidates := mr.FriendIds.Clone()
	candidates[target] = true
	for c := range candidates {
		cr := d.view.GetVertex(c)
		if !cr.HasReplicaOn(plan.Src) {
			continue
		}
		if model.NeededOn(d.view, cr, plan.Src, mover) {
			continue
		}
		after := cr.ReplicaCount() - 1 + utils.Bool2Int(plan.ReplicasToAdd[c])
		if after >= minReplicas {
			plan.ReplicasToRemove[c] = true
		}
	}

	if mr.HasReplicaOn(plan.Dest) {
		after := mr.ReplicaCount() - 1 + utils.Bool2Int(plan.AddMoverOnSrc)
		plan.DropMoverOnDest = after >= minReplicas
	}

	plan.Cost = d.view.GetPartition(plan.Src).NumReplicas() +
		d.view.GetPartition(plan.Dest).NumReplicas() +
		len(plan.ReplicasToAdd) +
		utils.Bool2Int(plan.AddMoverOnSrc) -
		len(plan.ReplicasToRemove) -
		utils.Bool2Int(plan.DropMoverOnDest)

	// keeping both masters cuts the new edge, moving cuts every friend left
	// on Src and heals every friend already on Dest
	plan.Eligible = friendsOnSrc-friendsOnDest <= 1

	logging.Verbose(2, "%s: plan %s", d.logName, plan.String())
	return plan
}
