// SPDX-License-Identifier: GPL-3.0-or-later

package noc

import (
	"errors"

	"github.com/google/uuid"

	"github.com/noxim-project/noxim/config"
	"github.com/noxim-project/noxim/direction"
	"github.com/noxim-project/noxim/flit"
	"github.com/noxim-project/noxim/routing"
	"github.com/noxim-project/noxim/scheduler"
	"github.com/noxim-project/noxim/simerrors"
	"github.com/noxim-project/noxim/switching"
	"github.com/noxim-project/noxim/trace"
)

// routingContext adapts one node's load component to [routing.Context].
type routingContext struct {
	load *blendedLoad
}

// Load implements [routing.Context].
func (c routingContext) Load(d direction.Direction) int {
	if c.load == nil {
		return 0
	}
	return c.load.ForDirection(d)
}

// Inject starts a new packet at node h, addressed to the node at
// (destX, destY). payloads holds one byte slice per flit: the first becomes
// the head's payload, the last the tail's, and anything in between becomes
// a data flit. Flits are scheduled onto the Local device at the spacing
// SPEC_FULL.md §4.5 describes: one head every GlobalClock ps, one
// data/tail flit every GlobalClock/DataPacketSpeedup ps thereafter. Every
// packet always carries at least a head and a tail — a tail-less packet
// would never release the switching discipline's reservation — so a single
// payload is split into an empty-payload head and a tail carrying it.
func (t *Topology) Inject(h NodeHandle, destX, destY int, payloads [][]byte) uuid.UUID {
	if len(payloads) < 2 {
		if len(payloads) == 1 {
			payloads = [][]byte{nil, payloads[0]}
		} else {
			payloads = [][]byte{nil, nil}
		}
	}
	ns := &t.nodes[h]
	uid := flit.NewPacketUID()
	header := flit.Header{
		SrcX:               ns.x,
		SrcY:               ns.y,
		XDistance:          destX - ns.x,
		YDistance:          destY - ns.y,
		RemainingDataFlits: len(payloads) - 1,
	}
	local := ns.localDevice

	head := flit.NewHead(uid, header, payloads[0])
	t.sched.Schedule(0, func() { t.admit(local, head) })

	perFlit := t.cfg.GlobalClock / int64(t.cfg.DataPacketSpeedup)
	if perFlit < 1 {
		perFlit = 1
	}
	offset := scheduler.Time(t.cfg.GlobalClock)
	for i := 1; i < len(payloads); i++ {
		var f *flit.Flit
		if i == len(payloads)-1 {
			f = flit.NewTail(uid, payloads[i])
		} else {
			f = flit.NewData(uid, payloads[i])
		}
		at := offset
		pending := f
		t.sched.Schedule(at, func() { t.admit(local, pending) })
		offset += scheduler.Time(perFlit)
	}
	return uid
}

// admitOutcome classifies the result of offering one flit to a device's
// switching discipline, for admit and drainQueue to act on.
type admitOutcome int

const (
	// admitAccepted: the discipline took f (possibly advancing or
	// resetting the port's state).
	admitAccepted admitOutcome = iota

	// admitRetryScheduled: f's chosen output channel was busy; the
	// discipline holds f and a retry has been scheduled.
	admitRetryScheduled

	// admitPortBusy: f is a new packet's head and the port is still
	// occupied by a different, already-admitted packet.
	admitPortBusy

	// admitDropped: f violated the discipline's admission order in a way
	// that isn't port contention (e.g. a data flit with no reservation)
	// — a genuine upstream bug, not backpressure.
	admitDropped
)

// tryAdmit offers f to dev's switching discipline exactly once and
// classifies what happened. It does not decide what to do with f
// afterward — callers do, since that differs for a flit that just arrived
// versus one that was already waiting in dev's input queue.
func (t *Topology) tryAdmit(dev DeviceHandle, f *flit.Flit) admitOutcome {
	d := &t.devices[dev]
	ns := &t.nodes[d.node]
	route := t.routeFuncFor(ns)
	fwd := t.forwardFuncFor(d.node, dev)

	err := ns.switching.Admit(&d.port, f, route, fwd)
	switch {
	case err == nil:
		ns.load.recordActivity()
		if t.cfg.Routing == config.RoutingSO {
			t.pushLoad(d.node)
		}
		return admitAccepted
	case errors.Is(err, simerrors.ErrChannelBusy):
		t.sched.Schedule(scheduler.Time(t.cfg.GlobalClock), func() { t.retry(dev) })
		return admitRetryScheduled
	case f.Kind == flit.Head && errors.Is(err, simerrors.ErrDependencyViolation) && d.port.State != switching.Idle:
		return admitPortBusy
	default:
		t.emit(trace.Drop, d.node, dev, f)
		if t.logger != nil {
			t.logger.Warn("flit dropped", "node", ns.id, "device", int(dev), "error", err)
		}
		return admitDropped
	}
}

// admit offers a newly arrived (or newly injected) flit to device dev. A
// flit continuing the packet already reserved at dev's port (same
// PacketUID) always goes straight to the switching discipline, matching
// [switching.Discipline]'s contract that only a head flit opens a new
// reservation. A head flit that finds the port idle, or dev's queue
// already empty, is also offered directly; any head that instead finds the
// port busy with another packet joins dev's bounded input queue (see
// SPEC_FULL.md §4.6/§7) rather than being treated as a protocol violation.
func (t *Topology) admit(dev DeviceHandle, f *flit.Flit) {
	d := &t.devices[dev]
	continuing := d.port.State != switching.Idle && f.PacketUID == d.port.HeadUID
	if continuing || len(d.queue) == 0 {
		if t.tryAdmit(dev, f) == admitPortBusy {
			t.enqueue(dev, f)
			return
		}
		t.drainQueue(dev)
		return
	}
	t.enqueue(dev, f)
}

// enqueue appends f to dev's bounded input queue (depth
// cfg.InputQueueDepth), tracing the arrival. A queue already at capacity
// means f is terminally dropped — the [simerrors.ErrQueueFull] case §7
// reserves for a genuinely saturated input port — but in practice
// sendOnChannel's canDeliver check stalls the upstream sender before the
// queue ever fills, so this path is a last-resort safety net rather than
// the normal backpressure signal.
func (t *Topology) enqueue(dev DeviceHandle, f *flit.Flit) {
	d := &t.devices[dev]
	ns := &t.nodes[d.node]
	if len(d.queue) >= t.cfg.InputQueueDepth {
		t.emit(trace.Drop, d.node, dev, f)
		if t.logger != nil {
			t.logger.Warn("input queue full", "node", ns.id, "device", int(dev), "error", simerrors.ErrQueueFull)
		}
		return
	}
	d.queue = append(d.queue, f)
	t.emit(trace.Enqueue, d.node, dev, f)
}

// drainQueue offers dev's oldest queued head to the switching discipline
// now that the port may have freed up (a preceding packet's tail just
// departed, or a pending retry just succeeded). Admitting it immediately
// re-occupies the port, so at most one head leaves the queue per call;
// further heads wait for the next free-up.
func (t *Topology) drainQueue(dev DeviceHandle) {
	d := &t.devices[dev]
	if len(d.queue) == 0 {
		return
	}
	f := d.queue[0]
	if t.tryAdmit(dev, f) == admitPortBusy {
		return
	}
	d.queue = d.queue[1:]
	t.emit(trace.Dequeue, d.node, dev, f)
}

// retry re-attempts forwarding whatever a prior ErrChannelBusy held back at
// device dev, without re-presenting the flit (see switching.Discipline.Retry).
// A successful retry may free dev's port, so it also gives the input queue
// a chance to advance.
func (t *Topology) retry(dev DeviceHandle) {
	d := &t.devices[dev]
	ns := &t.nodes[d.node]
	fwd := t.forwardFuncFor(d.node, dev)

	switch err := ns.switching.Retry(&d.port, fwd); {
	case errors.Is(err, simerrors.ErrChannelBusy):
		t.sched.Schedule(scheduler.Time(t.cfg.GlobalClock), func() { t.retry(dev) })
	case err == nil:
		t.drainQueue(dev)
	}
}

// routeFuncFor returns a [switching.RouteFunc] synchronously invoking ns's
// routing protocol.
func (t *Topology) routeFuncFor(ns *nodeState) switching.RouteFunc {
	return func(h *flit.Header) direction.Direction {
		var out direction.Direction
		ns.routing.RequestRoute(routingContext{ns.load}, h, func(dec routing.Decision) {
			out = dec.Direction
		})
		return out
	}
}

// forwardFuncFor returns a [switching.ForwardFunc] that resolves dir to an
// outgoing device (caching the resolution in d so later data/tail flits and
// retries reuse it) and attempts delivery: locally for [direction.Local],
// across a channel otherwise.
func (t *Topology) forwardFuncFor(node NodeHandle, dev DeviceHandle) switching.ForwardFunc {
	d := &t.devices[dev]
	return func(dir direction.Direction, f *flit.Flit) bool {
		if dir == direction.Local {
			t.deliverLocal(node, f)
			return true
		}

		var outDev DeviceHandle
		if f.Kind == flit.Head {
			resolved, ok := t.resolveOutput(node, dev, dir, f.Header.XDistance)
			if !ok {
				t.emit(trace.Drop, node, dev, f)
				if t.logger != nil {
					t.logger.Warn("no route", "node", t.nodes[node].id, "direction", dir.String())
				}
				return true // swallow: nothing more to retry toward.
			}
			d.reservedOutput = resolved
			d.hasReservedOutput = true
			outDev = resolved
		} else {
			if !d.hasReservedOutput {
				return true
			}
			outDev = d.reservedOutput
		}

		sent := t.sendOnChannel(node, dev, outDev, f)
		if sent && f.Kind == flit.Tail {
			d.hasReservedOutput = false
		}
		return sent
	}
}

// resolveOutput finds the output device on node's router matching dir. For
// a head flit entering through the Local port, the Irvine split router's
// injection rule (west destinations use the left sub-router, others the
// right) picks the preferred bank; for a head flit re-routed at an
// intermediate hop, the input device's own bank is preferred, falling back
// to the opposite bank, per SPEC_FULL.md §4.3.
func (t *Topology) resolveOutput(node NodeHandle, in DeviceHandle, dir direction.Direction, xDistance int) (DeviceHandle, bool) {
	ns := &t.nodes[node]
	preferred := t.devices[in].bank
	if in == ns.localDevice {
		preferred = bankRight
		if xDistance < 0 {
			preferred = bankLeft
		}
	}

	var fallback DeviceHandle
	hasFallback := false
	for _, dh := range ns.devices {
		dv := &t.devices[dh]
		if dv.dir != dir {
			continue
		}
		if dv.bank == preferred {
			return dh, true
		}
		fallback, hasFallback = dh, true
	}
	if hasFallback {
		return fallback, true
	}
	return 0, false
}

// sendOnChannel attempts to transmit f across outDev's channel. It fails if
// the channel is still busy finishing a previous transmission, or if the
// peer device can't yet accept f — either its port is free (or already
// reserved for f's own packet), or its input queue has a free slot; a
// head that would otherwise overflow the peer's queue is held back here,
// exactly like a busy channel, so backpressure stalls the sender instead
// of the flit being admitted only to be dropped downstream.
func (t *Topology) sendOnChannel(node NodeHandle, in, outDev DeviceHandle, f *flit.Flit) bool {
	d := &t.devices[outDev]
	if d.channel == invalidChannel {
		t.emit(trace.Drop, node, in, f)
		return true
	}
	ch := &t.channels[d.channel]
	now := t.sched.Now()
	if now < ch.busyUntil(outDev) {
		return false
	}
	peer := t.peerDevice(d.channel, outDev)
	if !t.canDeliver(peer, f) {
		return false
	}

	dur := t.transmissionDuration(f.Kind)
	ch.setBusyUntil(outDev, now+dur)

	t.emit(trace.Transmit, node, outDev, f)
	t.sched.Schedule(ch.delay+dur, func() {
		peerNode := t.devices[peer].node
		t.emit(trace.Receive, peerNode, peer, f)
		t.admit(peer, f)
	})
	return true
}

// canDeliver reports whether dest is ready to accept f: either f continues
// the packet already reserved at dest's port, the port is idle, or dest's
// bounded input queue still has a free slot to hold f's head until the
// port frees up.
func (t *Topology) canDeliver(dest DeviceHandle, f *flit.Flit) bool {
	d := &t.devices[dest]
	if d.port.State == switching.Idle || f.PacketUID == d.port.HeadUID {
		return true
	}
	return len(d.queue) < t.cfg.InputQueueDepth
}

// transmissionDuration returns how long one flit occupies a channel: a full
// clock period for head flits, one DataPacketSpeedup-th of it for data/tail
// flits, per SPEC_FULL.md §4.5's timing rule.
func (t *Topology) transmissionDuration(k flit.Kind) scheduler.Time {
	if k == flit.Head {
		return scheduler.Time(t.cfg.GlobalClock)
	}
	d := t.cfg.GlobalClock / int64(t.cfg.DataPacketSpeedup)
	if d < 1 {
		d = 1
	}
	return scheduler.Time(d)
}

// deliverLocal hands f to node's registered receive callback, if any, and
// traces the delivery.
func (t *Topology) deliverLocal(node NodeHandle, f *flit.Flit) {
	ns := &t.nodes[node]
	t.emit(trace.Receive, node, ns.localDevice, f)
	if ns.onReceive != nil {
		ns.onReceive(f)
	}
}

func (t *Topology) emit(kind trace.Kind, node NodeHandle, dev DeviceHandle, f *flit.Flit) {
	t.tracer.Emit(trace.Event{
		Time:       t.sched.Now(),
		Kind:       kind,
		NodeID:     t.nodes[node].id,
		DeviceIdx:  int(dev),
		Flit:       f,
		TailOfNote: f.Kind == flit.Tail,
	})
}
