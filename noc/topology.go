// SPDX-License-Identifier: GPL-3.0-or-later

package noc

import (
	"log/slog"

	"github.com/noxim-project/noxim/config"
	"github.com/noxim-project/noxim/direction"
	"github.com/noxim-project/noxim/flit"
	"github.com/noxim-project/noxim/routing"
	"github.com/noxim-project/noxim/scheduler"
	"github.com/noxim-project/noxim/switching"
	"github.com/noxim-project/noxim/trace"
)

// netDevice is one per-port endpoint: a routing direction, the channel it is
// attached to (if any), the switching discipline's per-input-port state for
// traffic arriving on it, and — while a packet is mid-flight through it —
// the output device its head flit resolved to, so later data/tail flits and
// [switching.Discipline.Retry] calls reuse the same resolution.
//
// queue is the bounded input buffer (depth cfg.InputQueueDepth) holding the
// head flits of packets that arrived while port was already occupied by
// another packet; see forward.go's admit/drainQueue.
type netDevice struct {
	node    NodeHandle
	dir     direction.Direction
	bank    bank
	channel ChannelHandle // invalidChannel if none (the Local port)

	port  switching.PortState
	queue []*flit.Flit

	reservedOutput    DeviceHandle
	hasReservedOutput bool
}

// channelState is a point-to-point link between exactly two net-devices.
// Each direction of the link is an independent unidirectional channel with
// its own occupancy: a transmission from a to b never contends with one
// from b to a, per SPEC_FULL.md §1/§4.2.
type channelState struct {
	a, b       DeviceHandle
	delay      scheduler.Time
	dataRate   float64
	busyUntilA scheduler.Time // occupancy of the a->b direction
	busyUntilB scheduler.Time // occupancy of the b->a direction
}

// busyUntil returns the occupancy deadline for a transmission originating at
// device from (one of c.a or c.b).
func (c *channelState) busyUntil(from DeviceHandle) scheduler.Time {
	if from == c.a {
		return c.busyUntilA
	}
	return c.busyUntilB
}

// setBusyUntil records the occupancy deadline for a transmission originating
// at device from.
func (c *channelState) setBusyUntil(from DeviceHandle, until scheduler.Time) {
	if from == c.a {
		c.busyUntilA = until
	} else {
		c.busyUntilB = until
	}
}

// nodeState is one tile: its coordinates, its net-devices, and the routing
// protocol / switching discipline / load component its router runs.
type nodeState struct {
	id          int
	x, y        int
	devices     []DeviceHandle
	localDevice DeviceHandle

	routing   routing.Protocol
	switching switching.Discipline
	load      *blendedLoad

	onReceive func(*flit.Flit)
}

// Topology is the arena owning every node, net-device, and channel in one
// simulation run.
type Topology struct {
	cfg    config.Registry
	sched  *scheduler.Scheduler
	tracer *trace.Tracer
	logger *slog.Logger

	nodes    []nodeState
	devices  []netDevice
	channels []channelState
}

// New creates an empty [*Topology]. Builders in mesh.go populate it through
// the unexported addNode/addDevice/connect helpers.
func New(cfg config.Registry, sched *scheduler.Scheduler, tracer *trace.Tracer, logger *slog.Logger) *Topology {
	if tracer == nil {
		tracer = trace.New()
	}
	return &Topology{cfg: cfg, sched: sched, tracer: tracer, logger: logger}
}

// NodeCount returns the number of nodes in the topology.
func (t *Topology) NodeCount() int { return len(t.nodes) }

// Config returns the registry the topology was built from, for callers (such
// as traffic applications) that need GlobalClock, DataPacketSpeedup, or the
// mesh dimensions without duplicating them.
func (t *Topology) Config() config.Registry { return t.cfg }

// NodeAt returns the handle of the node at mesh coordinates (x, y), and
// false if none exists there.
func (t *Topology) NodeAt(x, y int) (NodeHandle, bool) {
	for i := range t.nodes {
		if t.nodes[i].x == x && t.nodes[i].y == y {
			return NodeHandle(i), true
		}
	}
	return 0, false
}

// NodeCoordinates returns the (x, y) coordinates of node h.
func (t *Topology) NodeCoordinates(h NodeHandle) (int, int) {
	n := &t.nodes[h]
	return n.x, n.y
}

// NodeID returns the dense integer identifier of node h, used in trace paths.
func (t *Topology) NodeID(h NodeHandle) int { return t.nodes[h].id }

// DeviceDirection returns the routing direction device h carries.
func (t *Topology) DeviceDirection(h DeviceHandle) direction.Direction {
	return t.devices[h].dir
}

// LocalDevice returns node h's Local injection/ejection device.
func (t *Topology) LocalDevice(h NodeHandle) DeviceHandle {
	return t.nodes[h].localDevice
}

// OnReceive registers the callback invoked whenever a flit is delivered
// locally at node h (i.e. routed to [direction.Local]). Only one callback
// may be registered per node; a later call replaces an earlier one.
func (t *Topology) OnReceive(h NodeHandle, cb func(*flit.Flit)) {
	t.nodes[h].onReceive = cb
}

// addNode creates a node at (x, y), wiring its routing protocol, switching
// discipline, and load component from cfg, plus its Local port.
func (t *Topology) addNode(x, y int) NodeHandle {
	id := len(t.nodes)
	n := nodeState{
		id:        id,
		x:         x,
		y:         y,
		routing:   newRoutingProtocol(t.cfg),
		switching: newSwitchingDiscipline(t.cfg),
		load:      newBlendedLoad(t.cfg),
	}
	h := NodeHandle(id)
	t.nodes = append(t.nodes, n)
	t.nodes[h].localDevice = t.addDevice(h, direction.Local, bankNone)
	return h
}

// addDevice appends a net-device to node h and returns its handle.
func (t *Topology) addDevice(h NodeHandle, dir direction.Direction, b bank) DeviceHandle {
	dh := DeviceHandle(len(t.devices))
	t.devices = append(t.devices, netDevice{node: h, dir: dir, bank: b, channel: invalidChannel})
	t.nodes[h].devices = append(t.nodes[h].devices, dh)
	return dh
}

// connect creates a channel between devices a and b, sealing both endpoints.
func (t *Topology) connect(a, b DeviceHandle) ChannelHandle {
	ch := ChannelHandle(len(t.channels))
	delay := scheduler.Time(0)
	t.channels = append(t.channels, channelState{
		a:        a,
		b:        b,
		delay:    delay,
		dataRate: t.cfg.DataRateBitsPerSecond(),
	})
	t.devices[a].channel = ch
	t.devices[b].channel = ch
	return ch
}

// peerDevice returns the device at the other end of channel ch from from.
func (t *Topology) peerDevice(ch ChannelHandle, from DeviceHandle) DeviceHandle {
	c := &t.channels[ch]
	if c.a == from {
		return c.b
	}
	return c.a
}

func newRoutingProtocol(cfg config.Registry) routing.Protocol {
	switch cfg.Routing {
	case config.RoutingSLB:
		return routing.SLB{Threshold: cfg.LoadThreshold}
	case config.RoutingSO:
		return routing.SO{}
	default:
		return routing.XY{}
	}
}

func newSwitchingDiscipline(cfg config.Registry) switching.Discipline {
	switch cfg.Switching {
	case config.SwitchingSAF:
		return switching.StoreAndForward{}
	case config.SwitchingVCT:
		return switching.VirtualCutThrough{}
	default:
		return switching.Wormhole{}
	}
}
