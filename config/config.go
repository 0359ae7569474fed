// SPDX-License-Identifier: GPL-3.0-or-later

// Package config holds the NoC simulation's configuration registry: an
// explicit, validated bundle passed through the simulation rather than a
// process-wide mutable singleton (see SPEC_FULL.md §6).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/noxim-project/noxim/simerrors"
)

// TopologyShape names the supported topology builders.
type TopologyShape string

const (
	// Mesh2D is a 2-D mesh with no wrap-around.
	Mesh2D TopologyShape = "mesh2d"

	// Torus2D is a 2-D mesh with row/column wrap-around channels.
	Torus2D TopologyShape = "torus2d"

	// Irvine2D is a 2-D mesh whose routers use the split left/right
	// Irvine design, duplicating the N/S links.
	Irvine2D TopologyShape = "irvine2d"
)

// RoutingKind names the supported routing protocols.
type RoutingKind string

const (
	RoutingXY  RoutingKind = "xy"
	RoutingSLB RoutingKind = "slb"
	RoutingSO  RoutingKind = "so"
)

// SwitchingKind names the supported switching disciplines.
type SwitchingKind string

const (
	SwitchingWormhole SwitchingKind = "wormhole"
	SwitchingSAF      SwitchingKind = "saf"
	SwitchingVCT      SwitchingKind = "vct"
)

// Registry is the read-only-after-setup configuration bundle for one
// simulation run.
type Registry struct {
	// FlitSize is the size of one flit, in bits.
	FlitSize uint `yaml:"flit_size_bits"`

	// GlobalClock is the tick period, in picoseconds.
	GlobalClock int64 `yaml:"global_clock_ps"`

	// DataPacketSpeedup is how many data/tail flits a head flit's
	// per-hop time budget is divided by (integer >= 1).
	DataPacketSpeedup int `yaml:"data_packet_speedup"`

	// MessageLength is the nominal message size, in bits, used by the
	// SLB load formula's normalisation denominator.
	MessageLength uint `yaml:"message_length_bits"`

	// LoadThreshold biases SLB routing toward XY when every candidate
	// direction's load is below this value (0-100). SO routing has no
	// threshold and ignores it.
	LoadThreshold int `yaml:"load_threshold"`

	// InputQueueDepth is the number of flits each net-device's input
	// queue can hold. Must be >= 1.
	InputQueueDepth int `yaml:"input_queue_depth"`

	// Topology selects the topology builder shape.
	Topology TopologyShape `yaml:"topology"`

	// Width is the mesh/torus width (number of columns).
	Width int `yaml:"width"`

	// Height is the mesh/torus height (number of rows).
	Height int `yaml:"height"`

	// Routing selects the routing protocol.
	Routing RoutingKind `yaml:"routing"`

	// Switching selects the switching discipline.
	Switching SwitchingKind `yaml:"switching"`
}

// Default returns a Registry populated with the defaults documented in
// DESIGN.md's Open Question resolution: DataPacketSpeedup=1 and
// MessageLength = 4 * FlitSize (a 4-flit message, matching the example
// scenarios shipped with the original NoC module this spec was distilled
// from).
func Default() Registry {
	const flitSize = 32
	return Registry{
		FlitSize:          flitSize,
		GlobalClock:       1000,
		DataPacketSpeedup: 1,
		MessageLength:     4 * flitSize,
		LoadThreshold:     50,
		InputQueueDepth:   1,
		Topology:          Mesh2D,
		Width:             4,
		Height:            4,
		Routing:           RoutingXY,
		Switching:         SwitchingWormhole,
	}
}

// Validate reports a [simerrors.ErrConfigInvalid]-wrapped diagnostic if the
// registry cannot be used to build or run a simulation.
func (r *Registry) Validate() error {
	switch {
	case r.FlitSize == 0:
		return fmt.Errorf("flit size must be > 0 bits: %w", simerrors.ErrConfigInvalid)
	case r.GlobalClock <= 0:
		return fmt.Errorf("global clock must be > 0 ps: %w", simerrors.ErrConfigInvalid)
	case r.DataPacketSpeedup < 1:
		return fmt.Errorf("data packet speedup must be >= 1: %w", simerrors.ErrConfigInvalid)
	case r.InputQueueDepth < 1:
		return fmt.Errorf("input queue depth must be >= 1: %w", simerrors.ErrConfigInvalid)
	case r.Width <= 0 || r.Height <= 0:
		return fmt.Errorf("topology width and height must be > 0: %w", simerrors.ErrConfigInvalid)
	}
	switch r.Topology {
	case Mesh2D, Torus2D, Irvine2D:
	default:
		return fmt.Errorf("unknown topology shape %q: %w", r.Topology, simerrors.ErrConfigInvalid)
	}
	switch r.Routing {
	case RoutingXY, RoutingSLB, RoutingSO:
	default:
		return fmt.Errorf("unknown routing protocol %q: %w", r.Routing, simerrors.ErrConfigInvalid)
	}
	switch r.Switching {
	case SwitchingWormhole, SwitchingSAF, SwitchingVCT:
	default:
		return fmt.Errorf("unknown switching protocol %q: %w", r.Switching, simerrors.ErrConfigInvalid)
	}
	return nil
}

// DataRateBitsPerSecond derives the channel data rate that delivers exactly
// one flit per clock tick when there is no contention, per SPEC_FULL.md §4.6.
func (r *Registry) DataRateBitsPerSecond() float64 {
	const psPerSecond = 1e12
	return float64(r.FlitSize) * psPerSecond / float64(r.GlobalClock)
}

// LoadFile reads and validates a Registry from a YAML scenario file,
// starting from [Default] so the file only needs to override what it cares
// about.
func LoadFile(path string) (Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Registry{}, fmt.Errorf("reading scenario file: %w", err)
	}
	r := Default()
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Registry{}, fmt.Errorf("parsing scenario file: %w: %w", err, simerrors.ErrConfigInvalid)
	}
	if err := r.Validate(); err != nil {
		return Registry{}, err
	}
	return r, nil
}
