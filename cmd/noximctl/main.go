// Command noximctl runs one NoC simulation from the command line.
//
// Usage:
//
//	noximctl -scenario=scenario.yaml -ticks=10000 -trace=run.trace
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/noxim-project/noxim/app"
	"github.com/noxim-project/noxim/config"
	"github.com/noxim-project/noxim/noc"
	"github.com/noxim-project/noxim/scheduler"
	"github.com/noxim-project/noxim/simerrors"
	"github.com/noxim-project/noxim/trace"
)

func main() {
	scenarioPath := flag.String("scenario", "", "path to a YAML scenario file (default: built-in defaults)")
	injectionProbability := flag.Float64("injection-probability", 0.1, "per-tick injection probability for every node's sync application")
	dataPacketSpeedup := flag.Int("data-packet-speedup", 0, "override the scenario's data packet speedup (0 = use scenario value)")
	ticks := flag.Int("ticks", 10000, "number of clock ticks to simulate")
	tracePath := flag.String("trace", "", "path to write an ASCII trace file (default: no trace)")
	flag.Parse()

	if err := run(*scenarioPath, *injectionProbability, *dataPacketSpeedup, *ticks, *tracePath); err != nil {
		fmt.Fprintf(os.Stderr, "noximctl: %s: %s\n", simerrors.Class(err), err)
		os.Exit(1)
	}
}

func run(scenarioPath string, injectionProbability float64, dataPacketSpeedup, ticks int, tracePath string) (err error) {
	cfg, err := loadConfig(scenarioPath, dataPacketSpeedup)
	if err != nil {
		return err
	}

	var closers closerStack
	defer func() {
		if closeErr := closers.closeAll(); closeErr != nil {
			err = closeErr
		}
	}()

	tracer := trace.New()
	if tracePath != "" {
		f, openErr := os.Create(tracePath)
		if openErr != nil {
			return fmt.Errorf("opening trace file: %w: %w", openErr, simerrors.ErrConfigInvalid)
		}
		closers.add(f)
		tracer.SubscribeAll(trace.NewLineWriter(f).Write)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	sched := scheduler.New(scheduler.Time(cfg.GlobalClock))

	topo, err := noc.Build(cfg, sched, tracer, logger)
	if err != nil {
		return err
	}

	installApplications(topo, sched, injectionProbability)

	sched.RunUntil(scheduler.Time(cfg.GlobalClock) * scheduler.Time(ticks))

	return nil
}

func loadConfig(scenarioPath string, dataPacketSpeedup int) (config.Registry, error) {
	var cfg config.Registry
	var err error
	if scenarioPath != "" {
		cfg, err = config.LoadFile(scenarioPath)
	} else {
		cfg = config.Default()
	}
	if err != nil {
		return config.Registry{}, err
	}

	if dataPacketSpeedup > 0 {
		cfg.DataPacketSpeedup = dataPacketSpeedup
	}
	if err := cfg.Validate(); err != nil {
		return config.Registry{}, err
	}
	return cfg, nil
}

// installApplications attaches a uniform-random [app.SyncApplication] to
// every node in topo, using injectionProbability for each.
func installApplications(topo *noc.Topology, sched *scheduler.Scheduler, injectionProbability float64) {
	for i := 0; i < topo.NodeCount(); i++ {
		h := noc.NodeHandle(i)
		syncCfg := app.SyncConfig{
			InjectionProbability: injectionProbability,
			Pattern:              app.UniformRandom,
			NumberOfFlits:        2,
		}
		a := app.NewSyncApplication(topo, h, sched, syncCfg, int64(topo.NodeID(h))+1)
		a.Start()
	}
}
