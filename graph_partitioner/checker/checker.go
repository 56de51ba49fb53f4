// Package checker re-derives the partitioning invariants from plain maps,
// independent of the bookkeeping the manager keeps.
package checker

import (
	"fmt"
	"sort"

	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/model"
)

type ViolationKind int

const (
	DuplicateMaster ViolationKind = iota
	UnknownPartition
	UnknownVertex
	NotDisjoint
	SelfFriendship
	AsymmetricFriendship
	UnderReplicated
	LocalityBroken
)

var kindRep = map[ViolationKind]string{
	DuplicateMaster:      "duplicate_master",
	UnknownPartition:     "unknown_partition",
	UnknownVertex:        "unknown_vertex",
	NotDisjoint:          "not_disjoint",
	SelfFriendship:       "self_friendship",
	AsymmetricFriendship: "asymmetric_friendship",
	UnderReplicated:      "under_replicated",
	LocalityBroken:       "locality_broken",
}

func (k ViolationKind) String() string {
	if rep, ok := kindRep[k]; ok {
		return rep
	}
	return fmt.Sprintf("unknown_%d", int(k))
}

type Violation struct {
	Kind      ViolationKind
	Vertex    model.VertexId
	Other     model.VertexId
	Partition model.PartitionId
	Detail    string
}

func (v *Violation) Error() string {
	return fmt.Sprintf(
		"%s: vertex %d other %d partition %d: %s",
		v.Kind.String(), v.Vertex, v.Other, v.Partition, v.Detail,
	)
}

type Input struct {
	Masters        map[model.PartitionId]model.VertexSet
	Replicas       map[model.PartitionId]model.VertexSet
	Friendships    map[model.VertexId]model.VertexSet
	MinNumReplicas int
}

// FromView snapshots a view into plain maps.
func FromView(view model.GraphView) *Input {
	ans := &Input{
		Masters:        make(map[model.PartitionId]model.VertexSet),
		Replicas:       make(map[model.PartitionId]model.VertexSet),
		Friendships:    make(map[model.VertexId]model.VertexSet),
		MinNumReplicas: view.MinNumReplicas(),
	}
	for _, pid := range view.PartitionIds() {
		p := view.GetPartition(pid)
		ans.Masters[pid] = p.MasterIds.Clone()
		ans.Replicas[pid] = p.ReplicaIds.Clone()
	}
	for _, id := range view.VertexIds() {
		ans.Friendships[id] = view.GetVertex(id).FriendIds.Clone()
	}
	return ans
}

func CheckView(view model.GraphView) error {
	return Check(FromView(view))
}

func sortedPartitions(input map[model.PartitionId]model.VertexSet) []model.PartitionId {
	ans := make([]model.PartitionId, 0, len(input))
	for pid := range input {
		ans = append(ans, pid)
	}
	sort.Slice(ans, func(i, j int) bool { return ans[i] < ans[j] })
	return ans
}

type derived struct {
	masterOf   map[model.VertexId]model.PartitionId
	replicasOf map[model.VertexId]model.PartitionSet
}

// Check returns the first violation as a *Violation, nil if the input is a
// valid partitioning. It doesn't modify the input.
func Check(input *Input) error {
	d := &derived{
		masterOf:   make(map[model.VertexId]model.PartitionId),
		replicasOf: make(map[model.VertexId]model.PartitionSet),
	}
	if v := d.collectMasters(input); v != nil {
		return v
	}
	if v := d.collectReplicas(input); v != nil {
		return v
	}

	vertices := make([]model.VertexId, 0, len(d.masterOf))
	for id := range d.masterOf {
		vertices = append(vertices, id)
	}
	sort.Slice(vertices, func(i, j int) bool { return vertices[i] < vertices[j] })

	if v := d.checkFriendships(input, vertices); v != nil {
		return v
	}
	for _, id := range vertices {
		if got := len(d.replicasOf[id]); got < input.MinNumReplicas {
			return &Violation{
				Kind:   UnderReplicated,
				Vertex: id,
				Detail: fmt.Sprintf("%d replicas, need %d", got, input.MinNumReplicas),
			}
		}
	}
	for _, id := range vertices {
		for _, f := range input.Friendships[id].Sorted() {
			fpid := d.masterOf[f]
			if fpid == d.masterOf[id] {
				continue
			}
			if !d.replicasOf[id][fpid] {
				return &Violation{
					Kind:      LocalityBroken,
					Vertex:    id,
					Other:     f,
					Partition: fpid,
					Detail:    "no replica on friend's master partition",
				}
			}
		}
	}
	return nil
}

func (d *derived) collectMasters(input *Input) *Violation {
	for _, pid := range sortedPartitions(input.Masters) {
		for _, id := range input.Masters[pid].Sorted() {
			if prev, ok := d.masterOf[id]; ok {
				return &Violation{
					Kind:      DuplicateMaster,
					Vertex:    id,
					Partition: pid,
					Detail:    fmt.Sprintf("already mastered on partition %d", prev),
				}
			}
			d.masterOf[id] = pid
			d.replicasOf[id] = model.PartitionSet{}
		}
	}
	return nil
}

func (d *derived) collectReplicas(input *Input) *Violation {
	for _, pid := range sortedPartitions(input.Replicas) {
		if _, ok := input.Masters[pid]; !ok {
			return &Violation{Kind: UnknownPartition, Partition: pid, Detail: "replicas on unknown partition"}
		}
		for _, id := range input.Replicas[pid].Sorted() {
			master, ok := d.masterOf[id]
			if !ok {
				return &Violation{Kind: UnknownVertex, Vertex: id, Partition: pid, Detail: "replica without master"}
			}
			if master == pid {
				return &Violation{Kind: NotDisjoint, Vertex: id, Partition: pid, Detail: "replica on master partition"}
			}
			d.replicasOf[id][pid] = true
		}
	}
	return nil
}

func (d *derived) checkFriendships(input *Input, vertices []model.VertexId) *Violation {
	var owners []model.VertexId
	for id := range input.Friendships {
		owners = append(owners, id)
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })
	for _, id := range owners {
		if _, ok := d.masterOf[id]; !ok {
			return &Violation{Kind: UnknownVertex, Vertex: id, Detail: "friendships of vertex without master"}
		}
	}
	for _, id := range vertices {
		for _, f := range input.Friendships[id].Sorted() {
			if f == id {
				return &Violation{Kind: SelfFriendship, Vertex: id, Other: f, Detail: "befriends itself"}
			}
			if _, ok := d.masterOf[f]; !ok {
				return &Violation{Kind: UnknownVertex, Vertex: id, Other: f, Detail: "friend without master"}
			}
			if !input.Friendships[f][id] {
				return &Violation{Kind: AsymmetricFriendship, Vertex: id, Other: f, Detail: "friendship one way"}
			}
		}
	}
	return nil
}
