// SPDX-License-Identifier: GPL-3.0-or-later

package routing

import (
	"github.com/noxim-project/noxim/direction"
	"github.com/noxim-project/noxim/flit"
)

// SO is the self-organising adaptive routing protocol. Its selection rule
// parallels [SLB] — route toward the permissible direction with the lowest
// load, tie-broken E > W > S > N — but it has no load threshold: it always
// adapts, drawing on continuously propagated (rather than once-per-tick)
// neighbour load readings supplied through [Context].
type SO struct{}

// Name implements [Protocol].
func (SO) Name() string { return "so" }

// RequestRoute implements [Protocol].
func (SO) RequestRoute(ctx Context, h *flit.Header, reply ReplyFunc) {
	candidates := permissibleCandidates(h)
	if len(candidates) == 0 {
		reply(Decision{Direction: direction.Local, Found: true})
		return
	}
	chosen := candidates[0]
	if len(candidates) > 1 {
		chosen = pickByLoad(ctx, candidates)
	}
	decrement(h, chosen)
	reply(Decision{Direction: chosen.dir, Found: true})
}
