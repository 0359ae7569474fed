// SPDX-License-Identifier: GPL-3.0-or-later

package noc

import (
	"github.com/noxim-project/noxim/config"
	"github.com/noxim-project/noxim/direction"
)

// blendedLoad is the load component described in SPEC_FULL.md §4.7, shared
// by SLB and SO routing: a per-node recent-activity counter turned into a
// 0-100 local load, blended with neighbour-reported load for every
// direction but the one being evaluated. SLB and SO differ only in how
// often neighbour readings are refreshed (see Topology.pushLoad and its
// callers: the SLB-periodic one in StartLoadPush, the SO-immediate one in
// tryAdmit in forward.go), not in this formula.
type blendedLoad struct {
	cfg       config.Registry
	recent    int
	neighbour map[direction.Direction]int
}

func newBlendedLoad(cfg config.Registry) *blendedLoad {
	return &blendedLoad{cfg: cfg, neighbour: make(map[direction.Direction]int)}
}

// recordActivity counts one injected or forwarded flit toward this node's
// recent load.
func (b *blendedLoad) recordActivity() { b.recent++ }

// decay resets the recent-activity counter, called once per clock tick so
// "recent" means "since the last tick" rather than "ever".
func (b *blendedLoad) decay() { b.recent = 0 }

// Local returns this node's own utilisation, per the SLB formula in
// SPEC_FULL.md §4.7: load / (8 * (6*DataPacketSpeedup + MessageLength)),
// clamped to [0,100].
func (b *blendedLoad) Local() int {
	denom := 8 * (6*b.cfg.DataPacketSpeedup + int(b.cfg.MessageLength))
	if denom <= 0 {
		return 0
	}
	bits := b.recent * int(b.cfg.FlitSize)
	return clamp(bits/denom, 0, 100)
}

// receiveNeighbourLoad records the latest load reading pushed by the
// neighbour reachable through direction from.
func (b *blendedLoad) receiveNeighbourLoad(from direction.Direction, load int) {
	b.neighbour[from] = load
}

// ForDirection implements [routing.Context.Load]: this node's local load
// blended two-to-one with the mean of the other three cardinal directions'
// most recently received neighbour loads (missing readings default to 0).
func (b *blendedLoad) ForDirection(d direction.Direction) int {
	local := b.Local()
	sum, n := 0, 0
	for _, dir := range [...]direction.Direction{direction.North, direction.East, direction.South, direction.West} {
		if dir == d {
			continue
		}
		sum += b.neighbour[dir]
		n++
	}
	mean := 0
	if n > 0 {
		mean = sum / n
	}
	return clamp((2*local+mean)/3, 0, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
