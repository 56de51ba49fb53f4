package model

// GraphView is the read only surface the rebalancing strategies plan against.
// Records returned by it must not be mutated.
type GraphView interface {
	MinNumReplicas() int
	GetVertex(id VertexId) *VertexRecord
	GetPartition(id PartitionId) *PartitionRecord
	// ascending
	PartitionIds() []PartitionId
	// ascending
	VertexIds() []VertexId
}

func FriendsMasteredOn(view GraphView, v *VertexRecord, pid PartitionId) int {
	ans := 0
	for f := range v.FriendIds {
		if fr := view.GetVertex(f); fr != nil && fr.MasterPid == pid {
			ans++
		}
	}
	return ans
}

// NeededOn reports whether locality requires a replica of v on pid when the
// friend except is left out. Only direct friends are considered.
func NeededOn(view GraphView, v *VertexRecord, pid PartitionId, except VertexId) bool {
	if v.MasterPid == pid {
		return false
	}
	for f := range v.FriendIds {
		if f == except {
			continue
		}
		if fr := view.GetVertex(f); fr != nil && fr.MasterPid == pid {
			return true
		}
	}
	return false
}

// RequiredReplicas returns the partitions locality forces v to be replicated on.
func RequiredReplicas(view GraphView, v *VertexRecord) PartitionSet {
	ans := PartitionSet{}
	for f := range v.FriendIds {
		if fr := view.GetVertex(f); fr != nil && fr.MasterPid != v.MasterPid {
			ans[fr.MasterPid] = true
		}
	}
	return ans
}
