// SPDX-License-Identifier: GPL-3.0-or-later

package switching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noxim-project/noxim/direction"
	"github.com/noxim-project/noxim/flit"
	"github.com/noxim-project/noxim/simerrors"
)

// outbox is a test double for a single output channel that can be toggled
// busy/free and records what was sent through it.
type outbox struct {
	busy bool
	sent []*flit.Flit
}

func (o *outbox) forward(_ direction.Direction, f *flit.Flit) bool {
	if o.busy {
		return false
	}
	o.sent = append(o.sent, f)
	return true
}

func alwaysEast(*flit.Header) direction.Direction { return direction.East }

func packet(remaining int) (*flit.Flit, *flit.Flit, *flit.Flit) {
	uid := flit.NewPacketUID()
	head := flit.NewHead(uid, flit.Header{RemainingDataFlits: remaining}, nil)
	data := flit.NewData(uid, nil)
	tail := flit.NewTail(uid, nil)
	return head, data, tail
}

func TestWormholeForwardsImmediatelyWhenIdle(t *testing.T) {
	var ps PortState
	var ob outbox
	head, data, tail := packet(1)
	w := Wormhole{}

	require.NoError(t, w.Admit(&ps, head, alwaysEast, ob.forward))
	assert.Equal(t, Forwarding, ps.State)
	require.NoError(t, w.Admit(&ps, data, alwaysEast, ob.forward))
	require.NoError(t, w.Admit(&ps, tail, alwaysEast, ob.forward))
	assert.Equal(t, Idle, ps.State)
	assert.Len(t, ob.sent, 3)
}

func TestWormholeBusyOutputRetries(t *testing.T) {
	var ps PortState
	ob := outbox{busy: true}
	head, _, _ := packet(0)
	w := Wormhole{}

	err := w.Admit(&ps, head, alwaysEast, ob.forward)
	assert.ErrorIs(t, err, simerrors.ErrChannelBusy)
	assert.Equal(t, Reserved, ps.State)
	assert.Empty(t, ob.sent)

	ob.busy = false
	require.NoError(t, w.Retry(&ps, ob.forward))
	assert.Equal(t, Forwarding, ps.State)
	assert.Len(t, ob.sent, 1)
}

func TestWormholeDataBeforeHeadIsDependencyViolation(t *testing.T) {
	var ps PortState
	var ob outbox
	_, data, _ := packet(0)
	w := Wormhole{}

	err := w.Admit(&ps, data, alwaysEast, ob.forward)
	assert.ErrorIs(t, err, simerrors.ErrDependencyViolation)
}

func TestStoreAndForwardBuffersUntilTail(t *testing.T) {
	var ps PortState
	var ob outbox
	head, data, tail := packet(1)
	s := StoreAndForward{}

	require.NoError(t, s.Admit(&ps, head, alwaysEast, ob.forward))
	assert.Empty(t, ob.sent)
	require.NoError(t, s.Admit(&ps, data, alwaysEast, ob.forward))
	assert.Empty(t, ob.sent, "SAF must not forward before the tail arrives")

	require.NoError(t, s.Admit(&ps, tail, alwaysEast, ob.forward))
	assert.Len(t, ob.sent, 3)
	assert.Equal(t, Idle, ps.State)
}

func TestStoreAndForwardRetryDrainsRemainder(t *testing.T) {
	var ps PortState
	ob := outbox{busy: true}
	head, data, tail := packet(1)
	s := StoreAndForward{}

	require.NoError(t, s.Admit(&ps, head, alwaysEast, ob.forward))
	require.NoError(t, s.Admit(&ps, data, alwaysEast, ob.forward))
	err := s.Admit(&ps, tail, alwaysEast, ob.forward)
	assert.ErrorIs(t, err, simerrors.ErrChannelBusy)
	assert.Empty(t, ob.sent)

	ob.busy = false
	require.NoError(t, s.Retry(&ps, ob.forward))
	assert.Len(t, ob.sent, 3)
	assert.Equal(t, Idle, ps.State)
}

func TestVirtualCutThroughActsLikeWormholeWhenFree(t *testing.T) {
	var ps PortState
	var ob outbox
	head, data, tail := packet(1)
	v := VirtualCutThrough{}

	require.NoError(t, v.Admit(&ps, head, alwaysEast, ob.forward))
	assert.Len(t, ob.sent, 1, "head should cut through immediately")
	require.NoError(t, v.Admit(&ps, data, alwaysEast, ob.forward))
	require.NoError(t, v.Admit(&ps, tail, alwaysEast, ob.forward))
	assert.Equal(t, Idle, ps.State)
	assert.Len(t, ob.sent, 3)
}

func TestVirtualCutThroughFallsBackToBufferingUnderContention(t *testing.T) {
	var ps PortState
	ob := outbox{busy: true}
	head, data, tail := packet(1)
	v := VirtualCutThrough{}

	err := v.Admit(&ps, head, alwaysEast, ob.forward)
	assert.ErrorIs(t, err, simerrors.ErrChannelBusy)
	assert.True(t, ps.Buffering)

	// while still contended, data/tail accumulate rather than attempting
	// to cut through individually.
	require.NoError(t, v.Admit(&ps, data, alwaysEast, ob.forward))
	assert.Empty(t, ob.sent)

	err = v.Admit(&ps, tail, alwaysEast, ob.forward)
	assert.ErrorIs(t, err, simerrors.ErrChannelBusy)
	assert.Empty(t, ob.sent)

	ob.busy = false
	require.NoError(t, v.Retry(&ps, ob.forward))
	assert.Len(t, ob.sent, 3)
	assert.Equal(t, Idle, ps.State)
}

func TestVirtualCutThroughResumesCutThroughOnceContentionClears(t *testing.T) {
	var ps PortState
	ob := outbox{busy: true}
	head, data, tail := packet(1)
	v := VirtualCutThrough{}

	err := v.Admit(&ps, head, alwaysEast, ob.forward)
	assert.ErrorIs(t, err, simerrors.ErrChannelBusy)

	ob.busy = false
	require.NoError(t, v.Retry(&ps, ob.forward))
	assert.False(t, ps.Buffering)
	assert.Len(t, ob.sent, 1)

	require.NoError(t, v.Admit(&ps, data, alwaysEast, ob.forward))
	require.NoError(t, v.Admit(&ps, tail, alwaysEast, ob.forward))
	assert.Len(t, ob.sent, 3)
	assert.Equal(t, Idle, ps.State)
}

func TestStateStringCoversAllValues(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "reserved", Reserved.String())
	assert.Equal(t, "forwarding", Forwarding.String())
	assert.Equal(t, "unknown", State(99).String())
}
