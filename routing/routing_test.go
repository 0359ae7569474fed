// SPDX-License-Identifier: GPL-3.0-or-later

package routing

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/noxim-project/noxim/direction"
	"github.com/noxim-project/noxim/flit"
)

// constLoad is a [Context] reporting a fixed load per direction, for tests.
type constLoad map[direction.Direction]int

func (c constLoad) Load(d direction.Direction) int { return c[d] }

func routeOnce(p Protocol, ctx Context, h *flit.Header) Decision {
	var got Decision
	calls := 0
	p.RequestRoute(ctx, h, func(d Decision) {
		calls++
		got = d
	})
	if calls != 1 {
		panic("RequestRoute must call reply exactly once")
	}
	return got
}

func TestXYRoutesXBeforeY(t *testing.T) {
	h := &flit.Header{XDistance: 2, YDistance: 3}
	d := routeOnce(XY{}, nil, h)
	assert.True(t, d.Found)
	assert.Equal(t, direction.East, d.Direction)
	assert.Equal(t, 1, h.XDistance)
	assert.Equal(t, 3, h.YDistance)
}

func TestXYNegativeXRoutesWest(t *testing.T) {
	h := &flit.Header{XDistance: -2, YDistance: 0}
	d := routeOnce(XY{}, nil, h)
	assert.Equal(t, direction.West, d.Direction)
	assert.Equal(t, -1, h.XDistance)
}

func TestXYFallsBackToYThenLocal(t *testing.T) {
	h := &flit.Header{XDistance: 0, YDistance: -1}
	d := routeOnce(XY{}, nil, h)
	assert.Equal(t, direction.North, d.Direction)
	assert.Equal(t, 0, h.YDistance)

	d = routeOnce(XY{}, nil, h)
	assert.Equal(t, direction.Local, d.Direction)
	assert.True(t, h.Done())
}

func TestXYFullPathHopCount(t *testing.T) {
	// from (0,0) to (3,2): 5 hops total (manhattan distance).
	h := &flit.Header{XDistance: 3, YDistance: 2}
	hops := 0
	for !h.Done() {
		routeOnce(XY{}, nil, h)
		hops++
		if hops > 10 {
			t.Fatal("routing did not converge")
		}
	}
	assert.Equal(t, 5, hops)
}

func TestXYHeaderDecrementIsMonotonic(t *testing.T) {
	h := &flit.Header{XDistance: 2, YDistance: 2}
	remaining := func() int {
		x, y := h.XDistance, h.YDistance
		if x < 0 {
			x = -x
		}
		if y < 0 {
			y = -y
		}
		return x + y
	}
	prev := remaining()
	for !h.Done() {
		routeOnce(XY{}, nil, h)
		cur := remaining()
		assert.Equal(t, prev-1, cur)
		prev = cur
	}
}

func TestSLBPrefersLowestLoad(t *testing.T) {
	h := &flit.Header{XDistance: 2, YDistance: 2}
	ctx := constLoad{direction.East: 80, direction.South: 10}
	d := routeOnce(SLB{Threshold: 5}, ctx, h)
	assert.Equal(t, direction.South, d.Direction)
	assert.Equal(t, 1, h.YDistance)
	assert.Equal(t, 2, h.XDistance)
}

func TestSLBDefersToXYBelowThreshold(t *testing.T) {
	h := &flit.Header{XDistance: 2, YDistance: 2}
	ctx := constLoad{direction.East: 10, direction.South: 20}
	d := routeOnce(SLB{Threshold: 50}, ctx, h)
	assert.Equal(t, direction.East, d.Direction)
}

func TestSLBTieBreaksEastOverSouth(t *testing.T) {
	h := &flit.Header{XDistance: 2, YDistance: 2}
	ctx := constLoad{direction.East: 50, direction.South: 50}
	d := routeOnce(SLB{Threshold: 0}, ctx, h)
	assert.Equal(t, direction.East, d.Direction)
}

func TestSOAdaptsWithoutThreshold(t *testing.T) {
	h := &flit.Header{XDistance: -1, YDistance: 1}
	ctx := constLoad{direction.West: 90, direction.South: 5}
	d := routeOnce(SO{}, ctx, h)
	assert.Equal(t, direction.South, d.Direction)
}

func TestHeaderCopyIsIndependent(t *testing.T) {
	h1 := flit.Header{XDistance: 1, YDistance: 1}
	h2 := h1
	routeOnce(XY{}, nil, &h2)
	if diff := cmp.Diff(1, h1.XDistance); diff != "" {
		t.Fatalf("original header mutated (-want +got):\n%s", diff)
	}
}
