package main

import (
	"flag"

	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/logging"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/sim"
	"github.com/kuaishou/open_graph_partitioner/graph_partitioner/version"
)

var (
	flagConfigPath = flag.String("config_path", "", "json config of the simulation, empty for defaults")
	flagHttpPort   = flag.Int("http_port", 0, "port of the status server, 0 disables it")
	flagSeed       = flag.Int64("seed", 0, "overrides the seed in config if not 0")
	flagSteps      = flag.Int("steps", -1, "overrides the steps in config if not negative")
)

func main() {
	flag.Parse()
	version.MayPrintVersionAndExit()
	defer logging.Flush()

	cfg, err := sim.LoadConfig(*flagConfigPath)
	if err != nil {
		logging.Fatal("load config failed: %s", err.Error())
	}
	if *flagSeed != 0 {
		cfg.Seed = *flagSeed
	}
	if *flagSteps >= 0 {
		cfg.Steps = *flagSteps
	}

	runner, err := sim.NewRunner("spar_sim", cfg)
	if err != nil {
		logging.Fatal("create runner failed: %s", err.Error())
	}
	run := func() {
		if err := runner.Run(cfg.Steps); err != nil {
			logging.Fatal("simulation failed: %s", err.Error())
		}
		logging.Info("simulation finished after %d steps", cfg.Steps)
	}

	if *flagHttpPort == 0 {
		run()
		return
	}
	go run()
	sim.NewStatusServer("spar_sim", runner, *flagHttpPort).Start()
}
