package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gotest.tools/assert"

	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/manager"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/model"
)

func getJson(t *testing.T, url string, output interface{}) int {
	resp, err := http.Get(url)
	assert.NilError(t, err)
	defer resp.Body.Close()
	data, err := ioutil.ReadAll(resp.Body)
	assert.NilError(t, err)
	if output != nil {
		assert.NilError(t, json.Unmarshal(data, output), string(data))
	}
	return resp.StatusCode
}

func TestStatusServer(t *testing.T) {
	cfg := smallConfig()
	runner, err := NewRunner("test", cfg)
	assert.NilError(t, err)
	assert.NilError(t, runner.Run(50))

	server := httptest.NewServer(NewStatusServer("test", runner, 0).Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	assert.NilError(t, err)
	body, _ := ioutil.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, string(body), "ok")

	stats := &Stats{}
	assert.Equal(t, getJson(t, server.URL+"/v1/stats", stats), http.StatusOK)
	assert.DeepEqual(t, stats, runner.Stats())

	var partitions []*PartitionStatus
	assert.Equal(t, getJson(t, server.URL+"/v1/partitions", &partitions), http.StatusOK)
	assert.Equal(t, len(partitions), stats.Partitions)
	masters := 0
	for _, p := range partitions {
		assert.Equal(t, len(p.Masters), stats.MasterCounts[p.Id])
		masters += len(p.Masters)
	}
	assert.Equal(t, masters, stats.Users)

	var id model.VertexId
	var expected *VertexStatus
	runner.Manager().Read(func(m *manager.PartitionManager) {
		id = m.VertexIds()[0]
		v := m.GetVertex(id)
		expected = &VertexStatus{
			Id:       id,
			Master:   v.MasterPid,
			Replicas: v.ReplicaPids.Sorted(),
			Friends:  v.FriendIds.Sorted(),
		}
	})
	vertex := &VertexStatus{}
	url := fmt.Sprintf("%s/v1/vertex/%d", server.URL, id)
	assert.Equal(t, getJson(t, url, vertex), http.StatusOK)
	assert.DeepEqual(t, vertex, expected)

	errOutput := &errorStatus{}
	assert.Equal(t, getJson(t, server.URL+"/v1/vertex/100000", errOutput), http.StatusNotFound)
	assert.Assert(t, strings.Contains(errOutput.Error, "vertex not found"), errOutput.Error)
	assert.Equal(t, getJson(t, server.URL+"/v1/vertex/abc", nil), http.StatusBadRequest)
}

func TestStatusServerStop(t *testing.T) {
	runner, err := NewRunner("test", smallConfig())
	assert.NilError(t, err)
	server := NewStatusServer("test", runner, 0)

	done := make(chan bool)
	go func() {
		server.Start()
		done <- true
	}()
	assert.NilError(t, server.Stop(context.Background()))
	<-done
}
