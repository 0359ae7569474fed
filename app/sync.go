// SPDX-License-Identifier: GPL-3.0-or-later

// Package app implements the two traffic-generator applications nodes run
// on top of a [noc.Topology]: [SyncApplication]'s stochastic per-tick
// injection, and [CtgApplication]'s task-graph, dependency-barrier-driven
// injection. Both mirror the shape of the original ns-3 NoC module's
// NocSyncApplication/NocCtgApplication (see DESIGN.md), adapted to this
// codebase's scheduler and topology APIs instead of ns-3's Application base
// class and attribute system.
package app

import (
	"math/rand"

	"github.com/noxim-project/noxim/noc"
	"github.com/noxim-project/noxim/scheduler"
)

// SyncConfig holds one [SyncApplication]'s attributes.
type SyncConfig struct {
	// InjectionProbability is the per-tick chance, in [0,1], of starting a
	// new packet when none is currently in flight from this node.
	InjectionProbability float64

	// Pattern selects how the destination is chosen.
	Pattern TrafficPattern

	// DestX, DestY are used only when Pattern is DestinationSpecified.
	DestX, DestY int

	// NumberOfFlits is how many flits compose one packet, head included.
	// Must be >= 2 (a packet always carries at least a head and a tail).
	NumberOfFlits int

	// MaxFlits caps the total number of flits this application injects
	// over its lifetime. Zero means unlimited.
	MaxFlits int

	// WarmupCycles is how many clock ticks elapse before injected-flit
	// statistics start counting.
	WarmupCycles int
}

// SyncApplication draws, once per clock tick, whether to inject a new
// packet from its node, per SPEC_FULL.md §4.8.
type SyncApplication struct {
	cfg   SyncConfig
	topo  *noc.Topology
	node  noc.NodeHandle
	sched *scheduler.Scheduler
	rng   *rand.Rand

	inFlight bool
	stopped  bool
	totFlits int

	// OnFlitInjected, if set, is called once per flit this application
	// injects, after WarmupCycles have elapsed.
	OnFlitInjected func()
}

// NewSyncApplication creates a [*SyncApplication] for node on topo, using
// seed to drive its injection-probability and uniform-random-destination
// draws.
func NewSyncApplication(topo *noc.Topology, node noc.NodeHandle, sched *scheduler.Scheduler, cfg SyncConfig, seed int64) *SyncApplication {
	if cfg.NumberOfFlits < 2 {
		cfg.NumberOfFlits = 2
	}
	return &SyncApplication{
		cfg:   cfg,
		topo:  topo,
		node:  node,
		sched: sched,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// Start begins the per-tick injection loop.
func (a *SyncApplication) Start() {
	a.tick()
}

// Stop halts further injection decisions. Packets already dispatched
// continue to traverse the topology.
func (a *SyncApplication) Stop() {
	a.stopped = true
}

func (a *SyncApplication) tick() {
	if a.stopped {
		return
	}

	clock := a.topo.Config().GlobalClock
	if !a.inFlight && a.withinBudget() && a.rng.Float64() < a.cfg.InjectionProbability {
		srcID := a.topo.NodeID(a.node)
		width := a.topo.Config().Width
		height := a.topo.Config().Height
		if destX, destY, ok := destinationFor(a.cfg.Pattern, srcID, width, height, a.cfg.DestX, a.cfg.DestY, a.rng); ok {
			a.inject(destX, destY)
		}
	}

	a.sched.Schedule(scheduler.Time(clock), a.tick)
}

func (a *SyncApplication) withinBudget() bool {
	return a.cfg.MaxFlits == 0 || a.totFlits < a.cfg.MaxFlits
}

// inject dispatches one packet's worth of flits and blocks further
// injection decisions until the whole packet has been handed to the
// topology, mirroring the original application's one-packet-in-flight rule.
func (a *SyncApplication) inject(destX, destY int) {
	n := a.cfg.NumberOfFlits
	if a.cfg.MaxFlits > 0 && a.totFlits+n > a.cfg.MaxFlits {
		n = a.cfg.MaxFlits - a.totFlits
		if n < 2 {
			return
		}
	}

	payloads := make([][]byte, n)
	for i := range payloads {
		payloads[i] = nil
	}

	a.inFlight = true
	a.totFlits += n
	a.topo.Inject(a.node, destX, destY, payloads)
	if a.warmedUp() && a.OnFlitInjected != nil {
		for i := 0; i < n; i++ {
			a.OnFlitInjected()
		}
	}

	cfg := a.topo.Config()
	perFlit := cfg.GlobalClock / int64(cfg.DataPacketSpeedup)
	if perFlit < 1 {
		perFlit = 1
	}
	span := cfg.GlobalClock + int64(n-2)*perFlit
	if span < cfg.GlobalClock {
		span = cfg.GlobalClock
	}
	a.sched.Schedule(scheduler.Time(span), func() { a.inFlight = false })
}

func (a *SyncApplication) warmedUp() bool {
	cfg := a.topo.Config()
	return a.sched.Now() >= scheduler.Time(cfg.GlobalClock)*scheduler.Time(a.cfg.WarmupCycles)
}
