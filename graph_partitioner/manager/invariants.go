package manager

import (
	"github.com/pkg/errors"

	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/logging"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/model"
)

func (m *PartitionManager) startOp(name string) {
	logging.Assert(m.touched == nil, "%s: %s started inside %s", m.logName, name, m.opName)
	m.touched = model.VertexSet{}
	m.opName = name
}

func (m *PartitionManager) touch(ids ...model.VertexId) {
	if m.touched == nil {
		return
	}
	for _, id := range ids {
		m.touched[id] = true
	}
}

// finishOp re-verifies every touched vertex and its friends, which are the
// only ones an operation can affect.
func (m *PartitionManager) finishOp() {
	toCheck := model.VertexSet{}
	for id := range m.touched {
		v, ok := m.vertices[id]
		if !ok {
			continue
		}
		toCheck[id] = true
		for f := range v.FriendIds {
			toCheck[f] = true
		}
	}
	for _, id := range toCheck.Sorted() {
		if err := m.checkVertex(m.vertices[id]); err != nil {
			logging.Fatal("%s: %s broke invariant: %s", m.logName, m.opName, err.Error())
		}
	}
	logging.Verbose(2, "%s: %s verified %d vertices", m.logName, m.opName, len(toCheck))
	m.touched = nil
	m.opName = ""
}

func (m *PartitionManager) checkVertex(v *model.VertexRecord) error {
	master := m.GetPartition(v.MasterPid)
	if master == nil {
		return errors.Errorf("%s mastered on missing partition", v.LogStr())
	}
	if !master.HasMaster(v.Id) {
		return errors.Errorf("%s not recorded as master by p%d", v.LogStr(), v.MasterPid)
	}
	if v.HasReplicaOn(v.MasterPid) {
		return errors.Errorf("%s has a replica on its master partition", v.LogStr())
	}
	for pid := range v.ReplicaPids {
		p := m.GetPartition(pid)
		if p == nil {
			return errors.Errorf("%s replicated on missing p%d", v.LogStr(), pid)
		}
		if !p.HasReplica(v.Id) {
			return errors.Errorf("%s not recorded as replica by p%d", v.LogStr(), pid)
		}
	}
	if v.ReplicaCount() < m.minNumReplicas {
		return errors.Errorf("%s has less than %d replicas", v.LogStr(), m.minNumReplicas)
	}
	for f := range v.FriendIds {
		fr, ok := m.vertices[f]
		if !ok {
			return errors.Errorf("%s befriends missing v%d", v.LogStr(), f)
		}
		if !fr.HasFriend(v.Id) {
			return errors.Errorf("%s befriends %s one way", v.LogStr(), fr.LogStr())
		}
		if fr.MasterPid == v.MasterPid {
			continue
		}
		if !v.HasReplicaOn(fr.MasterPid) || !fr.HasReplicaOn(v.MasterPid) {
			return errors.Errorf("%s and friend %s not replicated locally", v.LogStr(), fr.LogStr())
		}
	}
	return nil
}

// Verify checks every record, including partition records pointing at
// vertices which don't point back.
func (m *PartitionManager) Verify() error {
	for _, id := range m.VertexIds() {
		if err := m.checkVertex(m.vertices[id]); err != nil {
			return err
		}
	}
	for _, pid := range m.PartitionIds() {
		p := m.mustGetPartition(pid)
		for id := range p.MasterIds {
			v, ok := m.vertices[id]
			if !ok || v.MasterPid != pid {
				return errors.Errorf("p%d holds stale master v%d", pid, id)
			}
		}
		for id := range p.ReplicaIds {
			v, ok := m.vertices[id]
			if !ok || !v.HasReplicaOn(pid) {
				return errors.Errorf("p%d holds stale replica v%d", pid, id)
			}
		}
	}
	return nil
}
