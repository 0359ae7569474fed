// SPDX-License-Identifier: GPL-3.0-or-later

// Package noc is the simulation core's arena: [Topology] owns every node,
// net-device, and channel in one instance and hands out stable integer
// handles to refer to them instead of owning pointers. The router↔device↔
// channel↔device↔router object graph is cyclic by nature; an arena with
// handles resolved through Topology methods sidesteps the cycle without
// reference counting or weak pointers (see DESIGN.md).
package noc

// NodeHandle identifies one node within a [Topology].
type NodeHandle int

// DeviceHandle identifies one net-device within a [Topology].
type DeviceHandle int

// ChannelHandle identifies one channel within a [Topology].
type ChannelHandle int

// invalidChannel marks a net-device with no attached channel (the per-node
// Local injection/ejection port).
const invalidChannel ChannelHandle = -1

// bank identifies which Irvine split sub-router a net-device belongs to.
// Mesh2D and Torus2D topologies never assign anything but bankNone.
type bank uint8

const (
	bankNone bank = iota
	bankLeft
	bankRight
)
