// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package simerrors implements error classification for the NoC simulation core.

The general idea is to classify errors to a small, stable enum of strings
suitable for log fields, while preserving the original error for [errors.Is].

# Design Principles

1. Preserve the original error; never discard it.

2. Use [errors.Is] for classification.

3. Use string-based classification for readability in structured logs.

4. Map the nil error to an empty string.

# Error Kinds

- [ErrConfigInvalid] for bad sizes, zero clock, or invalid queue depth

- [ErrNoRoute] for a routing protocol that produced no legal direction

- [ErrChannelBusy] for a channel with a flit already in flight

- [ErrQueueFull] for a net-device whose input queue has no free slot

- [ErrPacketDrop] for a flit that is terminally discarded

- [ErrDependencyViolation] for a CTG barrier that received more bits than expected
*/
package simerrors

import "errors"

var (
	// ErrConfigInvalid reports a configuration that cannot be used to build
	// or run a simulation (bad sizes, zero clock, queue depth < 1, ...).
	ErrConfigInvalid = errors.New("config invalid")

	// ErrNoRoute reports that a routing protocol produced no legal output
	// direction at a non-destination node.
	ErrNoRoute = errors.New("no route")

	// ErrChannelBusy reports that a channel already has a flit in flight in
	// the requested direction. Transient: the caller should retry.
	ErrChannelBusy = errors.New("channel busy")

	// ErrQueueFull reports that a net-device's bounded input queue has no
	// free slot. Transient: induces upstream backpressure.
	ErrQueueFull = errors.New("queue full")

	// ErrPacketDrop reports that a flit was terminally discarded.
	ErrPacketDrop = errors.New("packet drop")

	// ErrDependencyViolation reports that a CTG barrier received more bits
	// than expected for the running iteration.
	ErrDependencyViolation = errors.New("dependency violation")
)

const (
	// ConfigInvalid is the classified name for [ErrConfigInvalid].
	ConfigInvalid = "ConfigInvalid"

	// NoRoute is the classified name for [ErrNoRoute].
	NoRoute = "NoRoute"

	// ChannelBusy is the classified name for [ErrChannelBusy].
	ChannelBusy = "ChannelBusy"

	// QueueFull is the classified name for [ErrQueueFull].
	QueueFull = "QueueFull"

	// PacketDrop is the classified name for [ErrPacketDrop].
	PacketDrop = "PacketDrop"

	// DependencyViolation is the classified name for [ErrDependencyViolation].
	DependencyViolation = "DependencyViolation"

	// Generic is the fallback classification for unrecognised errors.
	Generic = "Generic"
)

// classMap contains the errors classifiable with [errors.Is].
var classMap = map[error]string{
	ErrConfigInvalid:       ConfigInvalid,
	ErrNoRoute:             NoRoute,
	ErrChannelBusy:         ChannelBusy,
	ErrQueueFull:           QueueFull,
	ErrPacketDrop:          PacketDrop,
	ErrDependencyViolation: DependencyViolation,
}

// Class returns the classified name of err, or the empty string if err is nil.
func Class(err error) string {
	if err == nil {
		return ""
	}
	for candidate, class := range classMap {
		if errors.Is(err, candidate) {
			return class
		}
	}
	return Generic
}

// Fatal reports whether err should abort the simulation outright, as opposed
// to being handled locally by rescheduling (ChannelBusy, QueueFull) or
// terminating only the affected flit (NoRoute, PacketDrop).
func Fatal(err error) bool {
	return errors.Is(err, ErrConfigInvalid) || errors.Is(err, ErrDependencyViolation)
}

// Transient reports whether err is expected to clear on a later tick and
// should be handled by local retry rather than propagated as a failure.
func Transient(err error) bool {
	return errors.Is(err, ErrChannelBusy) || errors.Is(err, ErrQueueFull)
}
