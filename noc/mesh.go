// SPDX-License-Identifier: GPL-3.0-or-later

package noc

import (
	"fmt"
	"log/slog"

	"github.com/noxim-project/noxim/config"
	"github.com/noxim-project/noxim/direction"
	"github.com/noxim-project/noxim/scheduler"
	"github.com/noxim-project/noxim/simerrors"
	"github.com/noxim-project/noxim/trace"
)

// Build constructs a [*Topology] for cfg's configured shape: Mesh2D,
// Torus2D, or Irvine2D. It runs [config.Registry.Validate] on cfg first and
// returns that error if cfg is invalid.
func Build(cfg config.Registry, sched *scheduler.Scheduler, tracer *trace.Tracer, logger *slog.Logger) (*Topology, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := New(cfg, sched, tracer, logger)
	switch cfg.Topology {
	case config.Mesh2D:
		buildGrid(t, cfg, false, false)
	case config.Torus2D:
		buildGrid(t, cfg, true, false)
	case config.Irvine2D:
		buildGrid(t, cfg, false, true)
	default:
		return nil, fmt.Errorf("unknown topology shape %q: %w", cfg.Topology, simerrors.ErrConfigInvalid)
	}
	t.StartLoadPush()
	return t, nil
}

// buildGrid lays out a Width x Height rectangular grid of nodes, row-major,
// per SPEC_FULL.md §4.6: row-wise East/West channels first, then
// column-wise South/North channels, with optional wrap-around (torus) and
// optional doubled N/S links (Irvine split router).
func buildGrid(t *Topology, cfg config.Registry, torus, irvine bool) {
	w, h := cfg.Width, cfg.Height

	nodes := make([]NodeHandle, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			nodes[y*w+x] = t.addNode(x, y)
		}
	}

	eastWestBanks := func() (bank, bank) {
		if irvine {
			return bankLeft, bankRight
		}
		return bankNone, bankNone
	}

	// Row-wise East/West channels.
	for y := 0; y < h; y++ {
		limit := w - 1
		if torus {
			limit = w
		}
		for x := 0; x < limit; x++ {
			left := nodes[y*w+x]
			right := nodes[y*w+(x+1)%w]
			lb, rb := eastWestBanks()
			east := t.addDevice(left, direction.East, lb)
			west := t.addDevice(right, direction.West, rb)
			t.connect(east, west)
		}
	}

	// Column-wise South/North channels, optionally doubled for Irvine.
	linksPerColumn := 1
	if irvine {
		linksPerColumn = 2
	}
	for x := 0; x < w; x++ {
		limit := h - 1
		if torus {
			limit = h
		}
		for y := 0; y < limit; y++ {
			upper := nodes[y*w+x]
			lower := nodes[((y+1)%h)*w+x]
			for i := 0; i < linksPerColumn; i++ {
				b := bankNone
				if irvine {
					if i == 0 {
						b = bankRight
					} else {
						b = bankLeft
					}
				}
				south := t.addDevice(upper, direction.South, b)
				north := t.addDevice(lower, direction.North, b)
				t.connect(south, north)
			}
		}
	}
}
