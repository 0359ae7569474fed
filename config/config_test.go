// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noxim-project/noxim/simerrors"
)

func TestDefaultValidates(t *testing.T) {
	r := Default()
	assert.NoError(t, r.Validate())
}

func TestZeroClockIsConfigInvalid(t *testing.T) {
	r := Default()
	r.GlobalClock = 0
	err := r.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, simerrors.ErrConfigInvalid))
}

func TestQueueDepthZeroIsConfigInvalid(t *testing.T) {
	r := Default()
	r.InputQueueDepth = 0
	err := r.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, simerrors.ErrConfigInvalid))
}

func TestUnknownTopologyIsConfigInvalid(t *testing.T) {
	r := Default()
	r.Topology = "hypercube"
	assert.True(t, errors.Is(r.Validate(), simerrors.ErrConfigInvalid))
}

func TestDataRateDeliversOneFlitPerTick(t *testing.T) {
	r := Default()
	// bits/s * (clock period in seconds) == flit size in bits
	periodSeconds := float64(r.GlobalClock) / 1e12
	assert.InDelta(t, float64(r.FlitSize), r.DataRateBitsPerSecond()*periodSeconds, 1e-9)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	contents := "topology: torus2d\nwidth: 8\nheight: 8\nrouting: slb\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	r, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Torus2D, r.Topology)
	assert.Equal(t, 8, r.Width)
	assert.Equal(t, RoutingSLB, r.Routing)
	// untouched fields keep their defaults
	assert.Equal(t, Default().FlitSize, r.FlitSize)
}

func TestLoadFileRejectsInvalidOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("global_clock_ps: 0\n"), 0o600))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, simerrors.ErrConfigInvalid))
}

func TestLoadFileMissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
