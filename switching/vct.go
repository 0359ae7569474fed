// SPDX-License-Identifier: GPL-3.0-or-later

package switching

import (
	"github.com/noxim-project/noxim/flit"
	"github.com/noxim-project/noxim/simerrors"
)

// VirtualCutThrough behaves exactly like [Wormhole] in the uncontended
// case — a flit cuts through to its output as soon as it arrives — but
// once contention forces any flit of a packet to wait, it falls back to
// [StoreAndForward]-style whole-packet buffering for the rest of that
// packet.
type VirtualCutThrough struct{}

// Name implements [Discipline].
func (VirtualCutThrough) Name() string { return "vct" }

// Admit implements [Discipline].
func (VirtualCutThrough) Admit(ps *PortState, f *flit.Flit, route RouteFunc, fwd ForwardFunc) error {
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

	if ps.Buffering {
		ps.buffered = append(ps.buffered, f)
		if f.Kind == flit.Tail {
			ps.bufferComplete = true
			ps.State = Forwarding
			return forwardAll(ps, fwd)
		}
		return nil
	}

	if !fwd(ps.Dir, f) {
		ps.Buffering = true
		ps.buffered = append(ps.buffered[:0], f)
		return simerrors.ErrChannelBusy
	}
	switch f.Kind {
	case flit.Head:
		ps.State = Forwarding
	case flit.Data:
		ps.Remaining--
	case flit.Tail:
		ps.reset()
	}
	return nil
}

// Retry implements [Discipline].
func (VirtualCutThrough) Retry(ps *PortState, fwd ForwardFunc) error {
	if !ps.Buffering && len(ps.buffered) == 0 {
		return nil
	}
	return forwardAll(ps, fwd)
}
