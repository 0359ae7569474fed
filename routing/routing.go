// SPDX-License-Identifier: GPL-3.0-or-later

// Package routing implements the NoC's routing protocols: pure functions
// from a head flit's header and a little local state to an outgoing
// [direction.Direction]. Per the "tagged variant dispatched by switch"
// design note in spec.md §9, the protocol set is closed and small, so each
// variant is a concrete type implementing the same small [Protocol]
// interface rather than a deeper class hierarchy.
package routing

import (
	"github.com/noxim-project/noxim/direction"
	"github.com/noxim-project/noxim/flit"
)

// Context is the local state a [Protocol] may consult: the blended load a
// router's load component reports for a candidate direction (0 when no
// load component is configured, per spec.md §4.3).
type Context interface {
	Load(d direction.Direction) int
}

// Decision is the result of a routing request.
type Decision struct {
	// Direction is the chosen output direction. Meaningful only if Found.
	Direction direction.Direction

	// Found reports whether a legal direction was produced. A
	// non-destination node that cannot find one is a [simerrors.ErrNoRoute].
	Found bool
}

// ReplyFunc is invoked exactly once by [Protocol.RequestRoute] with the
// routing decision. The call is synchronous in this synchronous simulator,
// but the signature permits asynchronous completion for extensibility
// (spec.md §4.4).
type ReplyFunc func(Decision)

// Protocol is the single entry point every routing variant implements.
type Protocol interface {
	// Name identifies the protocol for logs and trace annotations.
	Name() string

	// RequestRoute decides the outgoing direction for a head flit's
	// header, mutating the header's XDistance/YDistance in place to
	// reflect the hop just taken, and invokes reply exactly once.
	RequestRoute(ctx Context, header *flit.Header, reply ReplyFunc)
}

// candidate pairs a permissible output direction with the header field the
// hop it represents would decrement.
type candidate struct {
	dir  direction.Direction
	axis axis
}

type axis uint8

const (
	axisX axis = iota
	axisY
)

// permissibleCandidates lists the directions that move the header strictly
// closer to its destination without increasing Manhattan distance on any
// axis: the X direction while XDistance != 0, the Y direction while
// YDistance != 0.
func permissibleCandidates(h *flit.Header) []candidate {
	var out []candidate
	if h.XDistance != 0 {
		d := direction.East
		if h.XDistance < 0 {
			d = direction.West
		}
		out = append(out, candidate{dir: d, axis: axisX})
	}
	if h.YDistance != 0 {
		d := direction.South
		if h.YDistance < 0 {
			d = direction.North
		}
		out = append(out, candidate{dir: d, axis: axisY})
	}
	return out
}

// decrement moves the header one hop along c's axis, preserving sign until
// the magnitude reaches zero.
func decrement(h *flit.Header, c candidate) {
	switch c.axis {
	case axisX:
		if h.XDistance > 0 {
			h.XDistance--
		} else {
			h.XDistance++
		}
	case axisY:
		if h.YDistance > 0 {
			h.YDistance--
		} else {
			h.YDistance++
		}
	}
}

// priorityRank implements the static tie-break order E > W > S > N used by
// both SLB and SO when multiple candidate directions report equal load.
func priorityRank(d direction.Direction) int {
	switch d {
	case direction.East:
		return 0
	case direction.West:
		return 1
	case direction.South:
		return 2
	case direction.North:
		return 3
	default:
		return 4
	}
}

// pickByLoad returns the candidate with the lowest ctx.Load, breaking ties
// with [priorityRank].
func pickByLoad(ctx Context, candidates []candidate) candidate {
	best := candidates[0]
	bestLoad := ctx.Load(best.dir)
	for _, c := range candidates[1:] {
		l := ctx.Load(c.dir)
		if l < bestLoad || (l == bestLoad && priorityRank(c.dir) < priorityRank(best.dir)) {
			best, bestLoad = c, l
		}
	}
	return best
}
