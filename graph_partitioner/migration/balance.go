package migration

import (
	"github.com/emirpasic/gods/sets/treeset"

	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/logging"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/model"
)

type partitionLoad struct {
	pid     model.PartitionId
	masters int
}

func cmpPartitionLoad(left, right interface{}) int {
	l, r := left.(*partitionLoad), right.(*partitionLoad)
	if l.masters != r.masters {
		return l.masters - r.masters
	}
	return model.PartitionIdComparator(l.pid, r.pid)
}

// loadTracker orders surviving partitions by master count, including the
// masters already planned onto them.
type loadTracker struct {
	loads map[model.PartitionId]*partitionLoad
	order *treeset.Set
}

func newLoadTracker(view model.GraphView, survivors []model.PartitionId) *loadTracker {
	ans := &loadTracker{
		loads: make(map[model.PartitionId]*partitionLoad),
		order: treeset.NewWith(cmpPartitionLoad),
	}
	for _, pid := range survivors {
		l := &partitionLoad{pid: pid, masters: view.GetPartition(pid).NumMasters()}
		ans.loads[pid] = l
		ans.order.Add(l)
	}
	return ans
}

func (t *loadTracker) leastLoaded() model.PartitionId {
	iter := t.order.Iterator()
	logging.Assert(iter.First(), "shouldn't get here if no partition survives")
	return iter.Value().(*partitionLoad).pid
}

// leastLoadedOf returns the least loaded survivor in pids, lowest id on ties.
func (t *loadTracker) leastLoadedOf(pids model.PartitionSet) (model.PartitionId, bool) {
	var ans *partitionLoad
	for pid := range pids {
		l, ok := t.loads[pid]
		if !ok {
			continue
		}
		if ans == nil || cmpPartitionLoad(l, ans) < 0 {
			ans = l
		}
	}
	if ans == nil {
		return model.InvalidPartition, false
	}
	return ans.pid, true
}

func (t *loadTracker) assign(pid model.PartitionId) {
	l := t.loads[pid]
	t.order.Remove(l)
	l.masters++
	t.order.Add(l)
}
