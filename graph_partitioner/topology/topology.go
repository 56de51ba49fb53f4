package topology

import (
	"math/rand"

	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/logging"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/model"
)

// Topology is a partition assignment in the plain map form accepted by
// manager.NewPartitionManagerFromMaps. A nil Replicas lets the manager place
// replicas by itself.
type Topology struct {
	Masters     map[model.PartitionId]model.VertexSet
	Friendships map[model.VertexId]model.VertexSet
	Replicas    map[model.PartitionId]model.VertexSet
}

func (t *Topology) NumUsers() int {
	ans := 0
	for _, masters := range t.Masters {
		ans += len(masters)
	}
	return ans
}

func (t *Topology) NumFriendships() int {
	ans := 0
	for _, friends := range t.Friendships {
		ans += len(friends)
	}
	return ans / 2
}

func symmetric(adjacency map[model.VertexId][]model.VertexId) map[model.VertexId]model.VertexSet {
	ans := make(map[model.VertexId]model.VertexSet)
	for id, friends := range adjacency {
		if _, ok := ans[id]; !ok {
			ans[id] = model.VertexSet{}
		}
		for _, f := range friends {
			if _, ok := ans[f]; !ok {
				ans[f] = model.VertexSet{}
			}
			ans[id][f] = true
			ans[f][id] = true
		}
	}
	return ans
}

const MultiReplicaMinReplicas = 2

// MultiReplica is a 20 users 4 partitions graph, 5 masters each, valid with
// at least MultiReplicaMinReplicas replicas per user.
func MultiReplica() *Topology {
	masters := map[model.PartitionId]model.VertexSet{
		1: model.NewVertexSet(1, 2, 3, 4, 5),
		2: model.NewVertexSet(6, 7, 8, 9, 10),
		3: model.NewVertexSet(11, 12, 13, 14, 15),
		4: model.NewVertexSet(16, 17, 18, 19, 20),
	}
	friendships := symmetric(map[model.VertexId][]model.VertexId{
		1:  {2, 4, 6, 8, 10, 12, 14, 16, 18, 20},
		2:  {1, 3, 6, 9, 12, 15, 18},
		3:  {2, 4, 8, 12},
		4:  {1, 3, 5, 10, 15},
		5:  {4, 6, 12, 18},
		6:  {1, 2, 5, 7, 14},
		7:  {6, 8, 16},
		8:  {1, 3, 7, 9, 18},
		9:  {2, 8, 10, 20},
		10: {1, 4, 9, 11},
		11: {10, 12},
		12: {1, 2, 3, 5, 11, 13},
		13: {12, 14},
		14: {1, 6, 13, 15},
		15: {2, 4, 14},
		16: {1, 7, 17},
		17: {16, 18},
		18: {1, 2, 5, 8, 17, 19},
		19: {18, 20},
		20: {1, 9, 19},
	})
	replicas := map[model.PartitionId]model.VertexSet{
		1: model.NewVertexSet(6, 7, 8, 9, 10, 12, 13, 14, 15, 16, 17, 18, 20),
		2: model.NewVertexSet(1, 2, 3, 4, 5, 11, 13, 14, 15, 16, 17, 18, 19, 20),
		3: model.NewVertexSet(1, 2, 3, 4, 5, 6, 10, 19),
		4: model.NewVertexSet(1, 2, 5, 7, 8, 9, 11, 12, 14),
	}
	return &Topology{Masters: masters, Friendships: friendships, Replicas: replicas}
}

// Random masters users on uniformly chosen partitions and links about
// users*avgFriends/2 distinct random pairs.
func Random(rng *rand.Rand, partitions, users int, avgFriends float64) *Topology {
	logging.Assert(partitions > 0, "random topology needs partitions, got %d", partitions)
	ans := &Topology{
		Masters:     make(map[model.PartitionId]model.VertexSet),
		Friendships: make(map[model.VertexId]model.VertexSet),
	}
	for i := 1; i <= partitions; i++ {
		ans.Masters[model.PartitionId(i)] = model.VertexSet{}
	}
	for i := 1; i <= users; i++ {
		id := model.VertexId(i)
		pid := model.PartitionId(rng.Intn(partitions) + 1)
		ans.Masters[pid][id] = true
		ans.Friendships[id] = model.VertexSet{}
	}
	if users < 2 {
		return ans
	}

	maxEdges := users * (users - 1) / 2
	edges := int(float64(users) * avgFriends / 2)
	if edges > maxEdges {
		edges = maxEdges
	}
	for added := 0; added < edges; {
		u := model.VertexId(rng.Intn(users) + 1)
		v := model.VertexId(rng.Intn(users) + 1)
		if u == v || ans.Friendships[u][v] {
			continue
		}
		ans.Friendships[u][v] = true
		ans.Friendships[v][u] = true
		added++
	}
	return ans
}
