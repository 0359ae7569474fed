// SPDX-License-Identifier: GPL-3.0-or-later

// Package switching implements the per-input-port switching disciplines that
// decide when a buffered flit may leave toward its chosen output: Wormhole,
// Store-and-Forward, and Virtual-Cut-Through. None of the three owns a
// channel or a routing table; each is driven by a caller (the router in
// package noc) that supplies a RouteFunc to resolve an output direction for
// a head flit and a ForwardFunc to attempt delivery along a chosen
// direction.
package switching

import (
	"github.com/google/uuid"

	"github.com/noxim-project/noxim/direction"
	"github.com/noxim-project/noxim/flit"
)

// State is the common per-input-port state machine described in spec §4.5.
type State uint8

const (
	// Idle: no packet is being forwarded through this input port.
	Idle State = iota

	// Reserved: a head flit has chosen an output direction but has not yet
	// left toward it (the output channel was busy when it tried, or, under
	// StoreAndForward, the rest of the packet is still being buffered).
	Reserved

	// Forwarding: the head flit has left and following data/tail flits are
	// expected, addressed to the same reserved output.
	Forwarding
)

// String returns the state's name, for trace/log messages.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Reserved:
		return "reserved"
	case Forwarding:
		return "forwarding"
	default:
		return "unknown"
	}
}

// PortState is the mutable state one input port carries across calls to a
// [Discipline]'s Admit. Zero value is Idle, ready for first use.
type PortState struct {
	State     State
	Dir       direction.Direction
	HeadUID   uuid.UUID
	Remaining int

	// buffered holds accumulated flits for disciplines (SAF, and VCT under
	// contention) that must see a whole packet before forwarding any of it.
	buffered []*flit.Flit

	// Buffering is set by [VirtualCutThrough] when contention has forced it
	// to fall back to store-and-forward behaviour for the packet currently
	// held in buffered.
	Buffering bool

	// bufferComplete marks that buffered ends with a packet's tail flit,
	// so draining it fully means the whole packet left and the port
	// returns to Idle; without it, draining fully only means contention
	// cleared and plain per-flit forwarding resumes.
	bufferComplete bool

	// pending is a flit [Wormhole] tried to forward and could not, held
	// for a later [Discipline.Retry] call. Never set by SAF or VCT, which
	// track pending work in buffered instead.
	pending *flit.Flit
}

// Buffered reports how many flits this port currently holds for
// store-and-forward-style accumulation. Exported for tests and metrics.
func (p *PortState) Buffered() int { return len(p.buffered) }

func (p *PortState) reset() {
	p.State = Idle
	p.Dir = direction.None
	p.HeadUID = uuid.UUID{}
	p.Remaining = 0
	p.buffered = nil
	p.Buffering = false
	p.bufferComplete = false
	p.pending = nil
}

// RouteFunc resolves the outgoing direction for a head flit's header,
// mutating it in place as [routing.Protocol.RequestRoute] does.
type RouteFunc func(h *flit.Header) direction.Direction

// ForwardFunc attempts to deliver f one hop along dir. It returns false if
// the chosen output channel is currently busy, in which case f must be
// retried later by the caller.
type ForwardFunc func(dir direction.Direction, f *flit.Flit) bool

// Discipline is the single entry point every switching variant implements.
type Discipline interface {
	// Name identifies the discipline for logs and trace annotations.
	Name() string

	// Admit offers a newly-arrived flit f at the input port described by
	// ps to the discipline, exactly once per flit. route resolves an
	// output direction for head flits; fwd attempts delivery. Admit
	// mutates ps in place and returns [simerrors.ErrChannelBusy] if the
	// output was busy (the flit itself is retained by ps; the caller must
	// invoke Retry, not re-submit f, once the output may have freed up),
	// or [simerrors.ErrDependencyViolation] if f arrives out of the order
	// the discipline requires (e.g. a data flit with no reservation).
	Admit(ps *PortState, f *flit.Flit, route RouteFunc, fwd ForwardFunc) error

	// Retry attempts to forward whatever work ps is holding back from a
	// prior [simerrors.ErrChannelBusy]. It is a no-op returning nil if ps
	// holds nothing pending.
	Retry(ps *PortState, fwd ForwardFunc) error
}
