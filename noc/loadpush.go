// SPDX-License-Identifier: GPL-3.0-or-later

package noc

import (
	"github.com/noxim-project/noxim/config"
	"github.com/noxim-project/noxim/scheduler"
)

// pushLoad computes node h's current local load and delivers it to every
// neighbour it has a channel to, so that neighbour's [blendedLoad.ForDirection]
// sees a fresh reading for the direction pointing back at h.
func (t *Topology) pushLoad(h NodeHandle) {
	ns := &t.nodes[h]
	local := ns.load.Local()
	for _, dh := range ns.devices {
		d := &t.devices[dh]
		if d.channel == invalidChannel || !d.dir.Cardinal() {
			continue
		}
		peer := t.peerDevice(d.channel, dh)
		peerNode := &t.nodes[t.devices[peer].node]
		peerNode.load.receiveNeighbourLoad(d.dir.Opposite(), local)
	}
}

// StartLoadPush begins the per-tick load bookkeeping every routing protocol
// that consults load needs: the recent-activity counter behind
// [blendedLoad.Local] always decays once per tick, and — for SLB
// specifically — every node's load is broadcast to its neighbours once per
// tick (SPEC_FULL.md §4.7: "pushed... once per clock tick (SLB)"), whereas
// SO pushes immediately after every forwarding decision instead (see
// tryAdmit in forward.go). XY never consults load, so this is harmless but unused
// work for it; topology builders call it unconditionally after construction.
func (t *Topology) StartLoadPush() {
	slb := t.cfg.Routing == config.RoutingSLB
	var tick func()
	tick = func() {
		for i := range t.nodes {
			if slb {
				t.pushLoad(NodeHandle(i))
			}
			t.nodes[i].load.decay()
		}
		t.sched.Schedule(scheduler.Time(t.cfg.GlobalClock), tick)
	}
	tick()
}
