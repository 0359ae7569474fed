// SPDX-License-Identifier: GPL-3.0-or-later

package routing

import (
	"github.com/noxim-project/noxim/direction"
	"github.com/noxim-project/noxim/flit"
)

// XY is the deterministic, deadlock-free dimension-order routing protocol:
// route the X axis to completion, then the Y axis, then deliver locally.
// Ported from the original ns-3 NoC module's NocRoutingProtocol algorithm
// (see DESIGN.md).
type XY struct{}

// Name implements [Protocol].
func (XY) Name() string { return "xy" }

// RequestRoute implements [Protocol].
func (XY) RequestRoute(_ Context, h *flit.Header, reply ReplyFunc) {
	candidates := permissibleCandidates(h)
	for _, c := range candidates {
		if c.axis == axisX {
			decrement(h, c)
			reply(Decision{Direction: c.dir, Found: true})
			return
		}
	}
	for _, c := range candidates {
		if c.axis == axisY {
			decrement(h, c)
			reply(Decision{Direction: c.dir, Found: true})
			return
		}
	}
	reply(Decision{Direction: direction.Local, Found: true})
}
