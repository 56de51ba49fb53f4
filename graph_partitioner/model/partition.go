package model

import (
	"fmt"

	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/logging"
)

type PartitionRecord struct {
	Id         PartitionId
	MasterIds  VertexSet
	ReplicaIds VertexSet
}

func NewPartitionRecord(id PartitionId) *PartitionRecord {
	return &PartitionRecord{
		Id:         id,
		MasterIds:  VertexSet{},
		ReplicaIds: VertexSet{},
	}
}

func (p *PartitionRecord) HasMaster(id VertexId) bool {
	return p.MasterIds[id]
}

func (p *PartitionRecord) HasReplica(id VertexId) bool {
	return p.ReplicaIds[id]
}

func (p *PartitionRecord) NumMasters() int {
	return len(p.MasterIds)
}

func (p *PartitionRecord) NumReplicas() int {
	return len(p.ReplicaIds)
}

func (p *PartitionRecord) AddMaster(id VertexId) {
	logging.Assert(!p.MasterIds[id], "p%d: master of v%d already exists", p.Id, id)
	logging.Assert(!p.ReplicaIds[id], "p%d: v%d is a replica, can't add as master", p.Id, id)
	p.MasterIds[id] = true
}

func (p *PartitionRecord) RemoveMaster(id VertexId) {
	logging.Assert(p.MasterIds[id], "p%d: can't find master of v%d", p.Id, id)
	delete(p.MasterIds, id)
}

func (p *PartitionRecord) AddReplica(id VertexId) {
	logging.Assert(!p.MasterIds[id], "p%d: v%d is a master, can't add as replica", p.Id, id)
	logging.Assert(!p.ReplicaIds[id], "p%d: replica of v%d already exists", p.Id, id)
	p.ReplicaIds[id] = true
}

func (p *PartitionRecord) RemoveReplica(id VertexId) {
	logging.Assert(p.ReplicaIds[id], "p%d: can't find replica of v%d", p.Id, id)
	delete(p.ReplicaIds, id)
}

// PromoteReplica turns the local replica of id into its master.
func (p *PartitionRecord) PromoteReplica(id VertexId) {
	p.RemoveReplica(id)
	p.AddMaster(id)
}

func (p *PartitionRecord) Clone() *PartitionRecord {
	return &PartitionRecord{
		Id:         p.Id,
		MasterIds:  p.MasterIds.Clone(),
		ReplicaIds: p.ReplicaIds.Clone(),
	}
}

func (p *PartitionRecord) LogStr() string {
	return fmt.Sprintf("p%d(masters:%d, replicas:%d)", p.Id, len(p.MasterIds), len(p.ReplicaIds))
}
