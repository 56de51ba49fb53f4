package sim

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/assert"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.NilError(t, err)
	assert.DeepEqual(t, cfg, DefaultConfig())
	assert.NilError(t, cfg.Validate())

	dir, err := ioutil.TempDir("", "spar_sim")
	assert.NilError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "config.json")
	content := `{"seed": 42, "steps": 10, "op_weights": {"befriend": 5}, "verbose_log_level": 1}`
	assert.NilError(t, ioutil.WriteFile(path, []byte(content), 0644))
	cfg, err = LoadConfig(path)
	assert.NilError(t, err)
	assert.Equal(t, cfg.Seed, int64(42))
	assert.Equal(t, cfg.Steps, 10)
	assert.Equal(t, cfg.OpWeights.Befriend, 5)
	assert.Equal(t, cfg.VerboseLogLevel, int32(1))
	// untouched fields keep defaults
	assert.Equal(t, cfg.MinNumReplicas, 2)
	assert.Equal(t, cfg.OpWeights.AddUser, 10)

	_, err = LoadConfig(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "read config")

	assert.NilError(t, ioutil.WriteFile(path, []byte("{"), 0644))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name   string
		modify func(c *Config)
		errMsg string
	}{
		{"negative replicas", func(c *Config) { c.MinNumReplicas = -1 }, "min_num_replicas"},
		{"few partitions", func(c *Config) { c.InitialPartitions = 2 }, "initial partitions"},
		{"negative friends", func(c *Config) { c.AvgFriends = -1 }, "avg_friends"},
		{"negative steps", func(c *Config) { c.Steps = -1 }, "negative steps"},
		{"negative weight", func(c *Config) { c.OpWeights.Unfriend = -1 }, "negative op weight"},
		{"no weights", func(c *Config) { c.OpWeights = OpWeights{} }, "all op weights are 0"},
	}
	for _, c := range cases {
		cfg := DefaultConfig()
		c.modify(cfg)
		assert.ErrorContains(t, cfg.Validate(), c.errMsg, c.name)
	}

	cfg := DefaultConfig()
	cfg.InitialUsers = 0
	cfg.InitialPartitions = 0
	assert.NilError(t, cfg.Validate())
}
