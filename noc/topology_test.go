// SPDX-License-Identifier: GPL-3.0-or-later

package noc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noxim-project/noxim/config"
	"github.com/noxim-project/noxim/direction"
	"github.com/noxim-project/noxim/scheduler"
	"github.com/noxim-project/noxim/trace"
)

func newTestScheduler(cfg config.Registry) *scheduler.Scheduler {
	return scheduler.New(scheduler.Time(cfg.GlobalClock))
}

func TestBuildMesh2DNodeAndDeviceCounts(t *testing.T) {
	cfg := config.Default()
	cfg.Width, cfg.Height = 3, 2

	topo, err := Build(cfg, newTestScheduler(cfg), trace.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, 6, topo.NodeCount())

	// corner node (0,0) has Local + East + South only.
	n, ok := topo.NodeAt(0, 0)
	require.True(t, ok)
	dirs := map[direction.Direction]int{}
	for _, dh := range topo.nodes[n].devices {
		dirs[topo.DeviceDirection(dh)]++
	}
	assert.Equal(t, 1, dirs[direction.Local])
	assert.Equal(t, 1, dirs[direction.East])
	assert.Equal(t, 1, dirs[direction.South])
	assert.Equal(t, 0, dirs[direction.West])
	assert.Equal(t, 0, dirs[direction.North])

	// top-row node (1,0) has East, West and South (no North above it).
	n2, ok := topo.NodeAt(1, 0)
	require.True(t, ok)
	dirs2 := map[direction.Direction]int{}
	for _, dh := range topo.nodes[n2].devices {
		dirs2[topo.DeviceDirection(dh)]++
	}
	assert.Equal(t, 1, dirs2[direction.East])
	assert.Equal(t, 1, dirs2[direction.West])
	assert.Equal(t, 1, dirs2[direction.South])
}

func TestBuildTorus2DAddsWrapAroundChannels(t *testing.T) {
	cfg := config.Default()
	cfg.Width, cfg.Height = 2, 2
	cfg.Topology = config.Torus2D

	topo, err := Build(cfg, newTestScheduler(cfg), trace.New(), nil)
	require.NoError(t, err)

	n, _ := topo.NodeAt(0, 0)
	dirs := map[direction.Direction]int{}
	for _, dh := range topo.nodes[n].devices {
		dirs[topo.DeviceDirection(dh)]++
	}
	// in a 2x2 torus, every node has all four cardinal directions thanks
	// to wrap-around, even though it would be a corner on a plain mesh.
	assert.Equal(t, 1, dirs[direction.East])
	assert.Equal(t, 1, dirs[direction.West])
	assert.Equal(t, 1, dirs[direction.North])
	assert.Equal(t, 1, dirs[direction.South])
}

func TestBuildIrvine2DDuplicatesNorthSouthLinks(t *testing.T) {
	cfg := config.Default()
	cfg.Width, cfg.Height = 2, 2
	cfg.Topology = config.Irvine2D

	topo, err := Build(cfg, newTestScheduler(cfg), trace.New(), nil)
	require.NoError(t, err)

	n, _ := topo.NodeAt(0, 0)
	southCount := 0
	for _, dh := range topo.nodes[n].devices {
		if topo.DeviceDirection(dh) == direction.South {
			southCount++
		}
	}
	assert.Equal(t, 2, southCount, "Irvine mesh duplicates N/S links")
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.InputQueueDepth = 0

	_, err := Build(cfg, newTestScheduler(cfg), trace.New(), nil)
	require.Error(t, err)
}
