// SPDX-License-Identifier: GPL-3.0-or-later

package switching

import (
	"github.com/noxim-project/noxim/flit"
	"github.com/noxim-project/noxim/simerrors"
)

// Wormhole is the pipelined switching discipline: a head flit reserves a
// path as soon as it is routed, and following data/tail flits stream along
// that same reservation without waiting for the whole packet to arrive. The
// tail releases the reservation on departure.
type Wormhole struct{}

// Name implements [Discipline].
func (Wormhole) Name() string { return "wormhole" }

// Admit implements [Discipline].
func (Wormhole) Admit(ps *PortState, f *flit.Flit, route RouteFunc, fwd ForwardFunc) error {
	if ps.pending != nil {
		return simerrors.ErrDependencyViolation
	}

	switch f.Kind {
	case flit.Head:
		if ps.State != Idle {
			return simerrors.ErrDependencyViolation
		}
		ps.Dir = route(f.Header)
		ps.HeadUID = f.PacketUID
		ps.Remaining = f.Header.RemainingDataFlits
		ps.State = Reserved

	case flit.Data, flit.Tail:
		if ps.State == Idle || f.PacketUID != ps.HeadUID {
			return simerrors.ErrDependencyViolation
		}

	default:
		return simerrors.ErrDependencyViolation
	}

	if !fwd(ps.Dir, f) {
		ps.pending = f
		return simerrors.ErrChannelBusy
	}
	advance(ps, f)
	return nil
}

// Retry implements [Discipline].
func (Wormhole) Retry(ps *PortState, fwd ForwardFunc) error {
	if ps.pending == nil {
		return nil
	}
	f := ps.pending
	if !fwd(ps.Dir, f) {
		return simerrors.ErrChannelBusy
	}
	ps.pending = nil
	advance(ps, f)
	return nil
}

// advance applies the state transition that follows f successfully leaving
// toward ps.Dir.
func advance(ps *PortState, f *flit.Flit) {
	switch f.Kind {
	case flit.Head:
		ps.State = Forwarding
	case flit.Data:
		ps.Remaining--
	case flit.Tail:
		ps.reset()
	}
}
