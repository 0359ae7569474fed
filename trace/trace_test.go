// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noxim-project/noxim/flit"
)

func TestSubscribeFiltersByKey(t *testing.T) {
	tr := New()
	var got []Event
	tr.Subscribe(1, 2, Receive, func(ev Event) { got = append(got, ev) })

	tr.Emit(Event{NodeID: 1, DeviceIdx: 2, Kind: Receive})
	tr.Emit(Event{NodeID: 1, DeviceIdx: 2, Kind: Transmit})
	tr.Emit(Event{NodeID: 9, DeviceIdx: 2, Kind: Receive})

	assert.Len(t, got, 1)
}

func TestSubscribeAllSeesEverything(t *testing.T) {
	tr := New()
	count := 0
	tr.SubscribeAll(func(Event) { count++ })

	tr.Emit(Event{NodeID: 1, DeviceIdx: 0, Kind: Transmit})
	tr.Emit(Event{NodeID: 2, DeviceIdx: 1, Kind: Drop})

	assert.Equal(t, 2, count)
}

func TestLineWriterFormat(t *testing.T) {
	var buf bytes.Buffer
	lw := NewLineWriter(&buf)
	tr := New()
	tr.SubscribeAll(lw.Write)

	uid := flit.NewPacketUID()
	f := flit.NewTail(uid, []byte{1, 2, 3})
	tr.Emit(Event{Time: 3000, Kind: Receive, NodeID: 10, DeviceIdx: 1, Flit: f, TailOfNote: true})

	line := buf.String()
	assert.Contains(t, line, "r 3000 /NodeList/10/DeviceList/1/Rx")
	assert.Contains(t, line, "(tail flit)")
}

func TestEventPathNaming(t *testing.T) {
	assert.Equal(t, "/NodeList/0/DeviceList/0/Tx", (Event{Kind: Transmit}).Path())
	assert.Equal(t, "/NodeList/0/DeviceList/0/Drop", (Event{Kind: Drop}).Path())
}
