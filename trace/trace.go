// SPDX-License-Identifier: GPL-3.0-or-later

// Package trace implements the NoC simulation's trace hooks: an
// observer-list registry keyed by (node, device, event kind), per the
// design note in spec.md §9 ("avoid string-path-based late binding in the
// core, keeping string paths only for the text trace writer").
package trace

import (
	"fmt"
	"io"

	"github.com/noxim-project/noxim/flit"
	"github.com/noxim-project/noxim/scheduler"
)

// Kind is the category of a traced event, matching the single-letter
// operations of SPEC_FULL.md §6's ASCII trace line format.
type Kind uint8

const (
	// Transmit ("t") marks a flit leaving a net-device onto its channel.
	Transmit Kind = iota

	// Receive ("r") marks a flit arriving at a net-device from its channel.
	Receive

	// Enqueue ("+") marks a flit entering a net-device's input queue.
	Enqueue

	// Dequeue ("-") marks a flit leaving a net-device's input queue.
	Dequeue

	// Drop ("d") marks a flit being terminally discarded.
	Drop
)

// op returns the single-letter trace-line operation code for k.
func (k Kind) op() string {
	switch k {
	case Transmit:
		return "t"
	case Receive:
		return "r"
	case Enqueue:
		return "+"
	case Dequeue:
		return "-"
	case Drop:
		return "d"
	default:
		return "?"
	}
}

// Event describes one traced occurrence.
type Event struct {
	Time       scheduler.Time
	Kind       Kind
	NodeID     int
	DeviceIdx  int
	Flit       *flit.Flit
	TailOfNote bool // set when Flit is the tail of its packet
}

// Path returns the topological locator for the event, of the form
// "/NodeList/<id>/DeviceList/<idx>/<EventName>", per SPEC_FULL.md §6.
func (e Event) Path() string {
	name := "Rx"
	switch e.Kind {
	case Transmit:
		name = "Tx"
	case Receive:
		name = "Rx"
	case Enqueue:
		name = "Enqueue"
	case Dequeue:
		name = "Dequeue"
	case Drop:
		name = "Drop"
	}
	return fmt.Sprintf("/NodeList/%d/DeviceList/%d/%s", e.NodeID, e.DeviceIdx, name)
}

// Line renders the event using the ASCII trace line format from
// SPEC_FULL.md §6.
func (e Event) Line() string {
	suffix := ""
	if e.TailOfNote {
		suffix = " (tail flit)"
	}
	summary := "<nil>"
	if e.Flit != nil {
		summary = e.Flit.String()
	}
	return fmt.Sprintf("%s %d %s %s%s", e.Kind.op(), e.Time, e.Path(), summary, suffix)
}

// Subscriber receives traced events as they occur.
type Subscriber func(Event)

// subscriberKey identifies one (node, device, kind) registration. A
// negative nodeID or deviceIdx passed to [Tracer.Subscribe] acts as a
// wildcard for that field; kind always matches exactly unless the key comes
// from [Tracer.SubscribeAll].
type subscriberKey struct {
	nodeID    int
	deviceIdx int
	kind      Kind
	anyNode   bool
	anyDevice bool
	anyKind   bool
}

// Tracer is the observer-list registry. The zero value has no subscribers
// and every Emit is a cheap no-op loop over an empty slice.
type Tracer struct {
	subs []struct {
		key subscriberKey
		fn  Subscriber
	}
}

// New creates an empty [*Tracer].
func New() *Tracer {
	return &Tracer{}
}

// Subscribe registers fn for events matching nodeID/deviceIdx/kind. Pass -1
// for nodeID or deviceIdx to match any node or device; a Kind cannot be
// negative, so use [Tracer.SubscribeAll] for a catch-all subscriber instead.
func (t *Tracer) Subscribe(nodeID, deviceIdx int, kind Kind, fn Subscriber) {
	t.add(subscriberKey{
		nodeID: nodeID, deviceIdx: deviceIdx, kind: kind,
		anyNode: nodeID < 0, anyDevice: deviceIdx < 0,
	}, fn)
}

// SubscribeAll registers fn for every event the tracer emits, regardless of
// node, device, or kind. This is how the ASCII [LineWriter] attaches itself.
func (t *Tracer) SubscribeAll(fn Subscriber) {
	t.add(subscriberKey{anyNode: true, anyDevice: true, anyKind: true}, fn)
}

func (t *Tracer) add(key subscriberKey, fn Subscriber) {
	t.subs = append(t.subs, struct {
		key subscriberKey
		fn  Subscriber
	}{key, fn})
}

// Emit delivers ev to every matching subscriber, in registration order.
func (t *Tracer) Emit(ev Event) {
	for _, s := range t.subs {
		k := s.key
		if !k.anyNode && k.nodeID != ev.NodeID {
			continue
		}
		if !k.anyDevice && k.deviceIdx != ev.DeviceIdx {
			continue
		}
		if !k.anyKind && k.kind != ev.Kind {
			continue
		}
		s.fn(ev)
	}
}

// LineWriter formats every event it receives as one ASCII trace line and
// writes it to the wrapped [io.Writer]. Attach it to a [*Tracer] with
// tracer.SubscribeAll(writer.Write).
type LineWriter struct {
	w io.Writer
}

// NewLineWriter creates a [*LineWriter] over w.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: w}
}

// Write implements [Subscriber].
func (lw *LineWriter) Write(ev Event) {
	fmt.Fprintln(lw.w, ev.Line())
}
