// SPDX-License-Identifier: GPL-3.0-or-later

package routing

import (
	"github.com/noxim-project/noxim/direction"
	"github.com/noxim-project/noxim/flit"
)

// SLB is the Static-Load-Balanced adaptive routing protocol: among the
// directions that remain permissible (do not overshoot either axis), route
// toward whichever reports the lowest load, tie-broken E > W > S > N. When
// every permissible direction's load is below Threshold, SLB defers to the
// deterministic XY order instead, to avoid adaptive jitter under light
// load.
type SLB struct {
	// Threshold biases toward XY when all candidate loads are below it.
	Threshold int
}

// Name implements [Protocol].
func (s SLB) Name() string { return "slb" }

// RequestRoute implements [Protocol].
func (s SLB) RequestRoute(ctx Context, h *flit.Header, reply ReplyFunc) {
	candidates := permissibleCandidates(h)
	if len(candidates) == 0 {
		reply(Decision{Direction: direction.Local, Found: true})
		return
	}
	if len(candidates) == 1 {
		decrement(h, candidates[0])
		reply(Decision{Direction: candidates[0].dir, Found: true})
		return
	}

	allBelowThreshold := true
	for _, c := range candidates {
		if ctx.Load(c.dir) >= s.Threshold {
			allBelowThreshold = false
			break
		}
	}

	var chosen candidate
	if allBelowThreshold {
		// Defer to XY's preference for the X axis.
		chosen = candidates[0]
		for _, c := range candidates {
			if c.axis == axisX {
				chosen = c
				break
			}
		}
	} else {
		chosen = pickByLoad(ctx, candidates)
	}

	decrement(h, chosen)
	reply(Decision{Direction: chosen.dir, Found: true})
}
