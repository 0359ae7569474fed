// SPDX-License-Identifier: GPL-3.0-or-later

package switching

import (
	"github.com/noxim-project/noxim/flit"
	"github.com/noxim-project/noxim/simerrors"
)

// StoreAndForward buffers an entire packet in the input port before
// forwarding any of it. Forwarding, once triggered by the tail's arrival,
// emits every buffered flit back-to-back; if the output is busy partway
// through, the remainder of the buffer is retried as a unit on [Retry].
type StoreAndForward struct{}

// Name implements [Discipline].
func (StoreAndForward) Name() string { return "saf" }

// Admit implements [Discipline].
func (StoreAndForward) Admit(ps *PortState, f *flit.Flit, route RouteFunc, fwd ForwardFunc) error {
	switch f.Kind {
	case flit.Head:
		if ps.State != Idle {
			return simerrors.ErrDependencyViolation
		}
		ps.Dir = route(f.Header)
		ps.HeadUID = f.PacketUID
		ps.State = Reserved
		ps.buffered = append(ps.buffered[:0], f)
		return nil

	case flit.Data:
		if ps.State != Reserved || f.PacketUID != ps.HeadUID {
			return simerrors.ErrDependencyViolation
		}
		ps.buffered = append(ps.buffered, f)
		return nil

	case flit.Tail:
		if ps.State != Reserved || f.PacketUID != ps.HeadUID {
			return simerrors.ErrDependencyViolation
		}
		ps.buffered = append(ps.buffered, f)
		ps.bufferComplete = true
		ps.State = Forwarding
		return forwardAll(ps, fwd)

	default:
		return simerrors.ErrDependencyViolation
	}
}

// Retry implements [Discipline].
func (StoreAndForward) Retry(ps *PortState, fwd ForwardFunc) error {
	if ps.State != Forwarding {
		return nil
	}
	return forwardAll(ps, fwd)
}

// forwardAll attempts to emit every buffered flit, in order, along ps.Dir.
// Flits already sent before a busy output is hit are not un-sent; the
// caller retries only the remaining tail of the buffer. Once the buffer
// fully drains, the port returns to Idle if the buffer held a complete
// packet (bufferComplete), or simply stops buffering and resumes
// cut-through forwarding otherwise (VCT, contention cleared before the
// tail arrived).
func forwardAll(ps *PortState, fwd ForwardFunc) error {
	for len(ps.buffered) > 0 {
		if !fwd(ps.Dir, ps.buffered[0]) {
			return simerrors.ErrChannelBusy
		}
		ps.buffered = ps.buffered[1:]
	}
	if ps.bufferComplete {
		ps.reset()
	} else {
		ps.Buffering = false
		ps.State = Forwarding
	}
	return nil
}
