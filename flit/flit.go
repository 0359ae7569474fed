// SPDX-License-Identifier: GPL-3.0-or-later

// Package flit contains [Flit], [Header], and the related definitions that
// model the data that moves across a NoC channel.
package flit

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind is the position of a [Flit] within its packet.
type Kind uint8

const (
	// Head is the first flit of a packet. It carries the routing [Header].
	Head Kind = iota

	// Data is an intermediate flit. It carries payload only.
	Data

	// Tail is the last flit of a packet. It carries payload and, on
	// arrival at an intermediate router, releases any wormhole/VCT
	// reservation held for its packet.
	Tail
)

// String returns the kind's lower-case name ("head", "data" or "tail"), as
// used in trace lines.
func (k Kind) String() string {
	switch k {
	case Head:
		return "head"
	case Data:
		return "data"
	case Tail:
		return "tail"
	default:
		return "unknown"
	}
}

// Header is the routing header carried by a packet's head flit. The sign of
// XDistance/YDistance encodes the cardinal direction: negative XDistance
// means the destination is to the west, positive means east; negative
// YDistance means north, positive means south.
//
// A router decrements the magnitude of whichever axis it just routed on by
// one hop, never the sign, until that axis reaches zero.
type Header struct {
	// SrcX, SrcY are the coordinates of the injecting node.
	SrcX, SrcY int

	// XDistance is the signed number of hops remaining on the X axis.
	XDistance int

	// YDistance is the signed number of hops remaining on the Y axis.
	YDistance int

	// RemainingDataFlits is the number of data/tail flits still to follow
	// this head flit within the same packet.
	RemainingDataFlits int
}

// Done reports whether the header has been routed all the way to its
// destination (both axes exhausted).
func (h *Header) Done() bool {
	return h.XDistance == 0 && h.YDistance == 0
}

// Flit is the minimum unit of data forwarded across a channel in one hop.
type Flit struct {
	// Kind is this flit's position within its packet.
	Kind Kind

	// PacketUID is shared by every flit of the same packet.
	PacketUID uuid.UUID

	// Header is non-nil only for [Head] flits.
	Header *Header

	// Payload is the flit's data. Head flits may carry a short first
	// chunk of payload alongside the header; data/tail flits carry a
	// full flit's worth.
	Payload []byte
}

// NewPacketUID allocates a fresh packet identifier shared by every flit of
// one packet.
func NewPacketUID() uuid.UUID {
	return uuid.New()
}

// NewHead creates the head flit of a new packet.
func NewHead(uid uuid.UUID, header Header, payload []byte) *Flit {
	h := header
	return &Flit{Kind: Head, PacketUID: uid, Header: &h, Payload: payload}
}

// NewData creates an intermediate data flit for an existing packet.
func NewData(uid uuid.UUID, payload []byte) *Flit {
	return &Flit{Kind: Data, PacketUID: uid, Payload: payload}
}

// NewTail creates the last flit of a packet.
func NewTail(uid uuid.UUID, payload []byte) *Flit {
	return &Flit{Kind: Tail, PacketUID: uid, Payload: payload}
}

// String returns a human-readable one-line summary of the flit, suitable
// for use in trace lines and log messages.
func (f *Flit) String() string {
	if f.Header != nil {
		return fmt.Sprintf(
			"%s packet=%s dx=%d dy=%d len=%d",
			f.Kind, f.PacketUID, f.Header.XDistance, f.Header.YDistance, len(f.Payload),
		)
	}
	return fmt.Sprintf("%s packet=%s len=%d", f.Kind, f.PacketUID, len(f.Payload))
}
