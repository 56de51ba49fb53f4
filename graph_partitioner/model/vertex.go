package model

import (
	"fmt"

	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/logging"
)

// VertexRecord is the only copy of a vertex. A replica on partition p is the
// marker p in ReplicaPids (mirrored by PartitionRecord.ReplicaIds), whatever
// partition p "sees" of the vertex is read from this record.
type VertexRecord struct {
	Id          VertexId
	FriendIds   VertexSet
	MasterPid   PartitionId
	ReplicaPids PartitionSet
}

func NewVertexRecord(id VertexId, master PartitionId) *VertexRecord {
	return &VertexRecord{
		Id:          id,
		FriendIds:   VertexSet{},
		MasterPid:   master,
		ReplicaPids: PartitionSet{},
	}
}

func (v *VertexRecord) HasFriend(id VertexId) bool {
	return v.FriendIds[id]
}

func (v *VertexRecord) AddFriend(id VertexId) {
	logging.Assert(id != v.Id, "vertex %d can't befriend itself", id)
	v.FriendIds[id] = true
}

func (v *VertexRecord) RemoveFriend(id VertexId) {
	delete(v.FriendIds, id)
}

func (v *VertexRecord) HasReplicaOn(pid PartitionId) bool {
	return v.ReplicaPids[pid]
}

// PresentOn reports whether pid holds the master or a replica of v.
func (v *VertexRecord) PresentOn(pid PartitionId) bool {
	return v.MasterPid == pid || v.ReplicaPids[pid]
}

func (v *VertexRecord) ReplicaCount() int {
	return len(v.ReplicaPids)
}

func (v *VertexRecord) Clone() *VertexRecord {
	return &VertexRecord{
		Id:          v.Id,
		FriendIds:   v.FriendIds.Clone(),
		MasterPid:   v.MasterPid,
		ReplicaPids: v.ReplicaPids.Clone(),
	}
}

func (v *VertexRecord) LogStr() string {
	return fmt.Sprintf("v%d(master:p%d, replicas:%s)", v.Id, v.MasterPid, v.ReplicaPids.String())
}
