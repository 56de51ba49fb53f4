package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/logging"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/manager"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/model"
)

type PartitionStatus struct {
	Id         model.PartitionId `json:"id"`
	Masters    []model.VertexId  `json:"masters"`
	NumReplica int               `json:"num_replicas"`
}

type VertexStatus struct {
	Id       model.VertexId      `json:"id"`
	Master   model.PartitionId   `json:"master"`
	Replicas []model.PartitionId `json:"replicas"`
	Friends  []model.VertexId    `json:"friends"`
}

type errorStatus struct {
	Error string `json:"error"`
}

type StatusServer struct {
	logName    string
	runner     *Runner
	port       int
	router     *mux.Router
	httpServer *http.Server
}

func NewStatusServer(logName string, runner *Runner, port int) *StatusServer {
	ans := &StatusServer{logName: logName, runner: runner, port: port}
	ans.router = mux.NewRouter().StrictSlash(true)
	ans.router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	ans.router.HandleFunc("/v1/stats", ans.stats).Methods("GET")
	ans.router.HandleFunc("/v1/partitions", ans.partitions).Methods("GET")
	ans.router.HandleFunc("/v1/vertex/{id}", ans.vertex).Methods("GET")
	ans.httpServer = &http.Server{Addr: fmt.Sprintf(":%v", port), Handler: ans.router}
	return ans
}

func (s *StatusServer) Handler() http.Handler {
	return s.router
}

func (s *StatusServer) writeJson(w http.ResponseWriter, status int, output interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		logging.Error("%s: marshal data error: %s", s.logName, err.Error())
		return
	}
	logging.Verbose(2, "%s: response data: %s", s.logName, string(data))
	w.Write(data)
}

func (s *StatusServer) stats(w http.ResponseWriter, r *http.Request) {
	s.writeJson(w, http.StatusOK, s.runner.Stats())
}

func (s *StatusServer) partitions(w http.ResponseWriter, r *http.Request) {
	var output []*PartitionStatus
	s.runner.Manager().Read(func(m *manager.PartitionManager) {
		for _, pid := range m.PartitionIds() {
			p := m.GetPartition(pid)
			output = append(output, &PartitionStatus{
				Id:         pid,
				Masters:    p.MasterIds.Sorted(),
				NumReplica: p.NumReplicas(),
			})
		}
	})
	s.writeJson(w, http.StatusOK, output)
}

func (s *StatusServer) vertex(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		s.writeJson(w, http.StatusBadRequest, &errorStatus{Error: err.Error()})
		return
	}
	var output *VertexStatus
	s.runner.Manager().Read(func(m *manager.PartitionManager) {
		v := m.GetVertex(model.VertexId(id))
		if v == nil {
			return
		}
		output = &VertexStatus{
			Id:       v.Id,
			Master:   v.MasterPid,
			Replicas: v.ReplicaPids.Sorted(),
			Friends:  v.FriendIds.Sorted(),
		}
	})
	if output == nil {
		s.writeJson(w, http.StatusNotFound, &errorStatus{Error: model.VertexNotFound(model.VertexId(id)).Error()})
		return
	}
	s.writeJson(w, http.StatusOK, output)
}

// Start blocks until the server is stopped.
func (s *StatusServer) Start() {
	logging.Info("%s: start to listening to port %v", s.logName, s.port)
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		logging.Error("%s: listen to http port %d failed: %s", s.logName, s.port, err.Error())
	}
}

func (s *StatusServer) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
