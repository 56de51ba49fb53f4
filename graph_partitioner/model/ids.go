package model

import (
	"fmt"
	"sort"
	"strings"
)

type VertexId int32
type PartitionId int32

// ids start from 1, 0 is never allocated
const (
	InvalidVertex    VertexId    = 0
	InvalidPartition PartitionId = 0
)

type VertexSet map[VertexId]bool
type PartitionSet map[PartitionId]bool

func NewVertexSet(ids ...VertexId) VertexSet {
	ans := VertexSet{}
	for _, id := range ids {
		ans[id] = true
	}
	return ans
}

func (s VertexSet) Contains(id VertexId) bool {
	return s[id]
}

func (s VertexSet) Clone() VertexSet {
	ans := make(VertexSet, len(s))
	for id := range s {
		ans[id] = true
	}
	return ans
}

func (s VertexSet) Sorted() []VertexId {
	ans := make([]VertexId, 0, len(s))
	for id := range s {
		ans = append(ans, id)
	}
	sort.Slice(ans, func(i, j int) bool { return ans[i] < ans[j] })
	return ans
}

func (s VertexSet) String() string {
	var items []string
	for _, id := range s.Sorted() {
		items = append(items, fmt.Sprint(id))
	}
	return "[" + strings.Join(items, ",") + "]"
}

func NewPartitionSet(ids ...PartitionId) PartitionSet {
	ans := PartitionSet{}
	for _, id := range ids {
		ans[id] = true
	}
	return ans
}

func (s PartitionSet) Contains(id PartitionId) bool {
	return s[id]
}

func (s PartitionSet) Clone() PartitionSet {
	ans := make(PartitionSet, len(s))
	for id := range s {
		ans[id] = true
	}
	return ans
}

func (s PartitionSet) Sorted() []PartitionId {
	ans := make([]PartitionId, 0, len(s))
	for id := range s {
		ans = append(ans, id)
	}
	sort.Slice(ans, func(i, j int) bool { return ans[i] < ans[j] })
	return ans
}

func (s PartitionSet) String() string {
	var items []string
	for _, id := range s.Sorted() {
		items = append(items, fmt.Sprint(id))
	}
	return "[" + strings.Join(items, ",") + "]"
}

// comparators for gods containers keyed by ids
func VertexIdComparator(a, b interface{}) int {
	l, r := a.(VertexId), b.(VertexId)
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	}
	return 0
}

func PartitionIdComparator(a, b interface{}) int {
	l, r := a.(PartitionId), b.(PartitionId)
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	}
	return 0
}
