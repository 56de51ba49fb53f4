package sim

import (
	"encoding/json"
	"io/ioutil"

	"github.com/pkg/errors"

	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/logging"
)

type OpWeights struct {
	AddUser         int `json:"add_user"`
	RemoveUser      int `json:"remove_user"`
	Befriend        int `json:"befriend"`
	Unfriend        int `json:"unfriend"`
	AddPartition    int `json:"add_partition"`
	RemovePartition int `json:"remove_partition"`
}

func (w *OpWeights) total() int {
	return w.AddUser + w.RemoveUser + w.Befriend + w.Unfriend + w.AddPartition + w.RemovePartition
}

type Config struct {
	MinNumReplicas    int       `json:"min_num_replicas"`
	Seed              int64     `json:"seed"`
	InitialPartitions int       `json:"initial_partitions"`
	InitialUsers      int       `json:"initial_users"`
	AvgFriends        float64   `json:"avg_friends"`
	Steps             int       `json:"steps"`
	OpWeights         OpWeights `json:"op_weights"`
	VerboseLogLevel   int32     `json:"verbose_log_level"`
	// run the validity checker every so many steps, 0 disables
	CheckEvery int `json:"check_every"`
}

func DefaultConfig() *Config {
	return &Config{
		MinNumReplicas:    2,
		Seed:              1,
		InitialPartitions: 8,
		InitialUsers:      200,
		AvgFriends:        6,
		Steps:             1000,
		OpWeights: OpWeights{
			AddUser:         10,
			RemoveUser:      4,
			Befriend:        60,
			Unfriend:        20,
			AddPartition:    1,
			RemovePartition: 1,
		},
		VerboseLogLevel: 0,
		CheckEvery:      100,
	}
}

// LoadConfig overlays the json file at path on DefaultConfig. An empty path
// gives the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.MinNumReplicas < 0 {
		return errors.Errorf("min_num_replicas %d is negative", c.MinNumReplicas)
	}
	if c.InitialUsers < 0 || c.InitialPartitions < 0 {
		return errors.Errorf(
			"negative initial users %d or partitions %d", c.InitialUsers, c.InitialPartitions,
		)
	}
	if c.InitialUsers > 0 && c.InitialPartitions < c.MinNumReplicas+1 {
		return errors.Errorf(
			"%d initial partitions can't hold a master and %d replicas",
			c.InitialPartitions, c.MinNumReplicas,
		)
	}
	if c.AvgFriends < 0 {
		return errors.Errorf("avg_friends %v is negative", c.AvgFriends)
	}
	if c.Steps < 0 || c.CheckEvery < 0 {
		return errors.Errorf("negative steps %d or check_every %d", c.Steps, c.CheckEvery)
	}
	w := &c.OpWeights
	for _, weight := range []int{
		w.AddUser, w.RemoveUser, w.Befriend, w.Unfriend, w.AddPartition, w.RemovePartition,
	} {
		if weight < 0 {
			return errors.Errorf("negative op weight in %+v", *w)
		}
	}
	if c.Steps > 0 && w.total() == 0 {
		return errors.New("all op weights are 0")
	}
	return nil
}

func updateValue(cfg *Config) {
	logging.SetVerboseLevel(cfg.VerboseLogLevel)
}
