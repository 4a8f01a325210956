// Package haltransport defines the external transport contract the session
// core consumes — connect/send/subscribe/receive primitives over a pair of
// sockets, one command-channel (request/reply-shaped) and one update-
// channel (publish/subscribe) — plus one concrete default Adapter built on
// WebSocket connections. The real deployment transport is a pair of
// nanomsg/ZeroMQ sockets with no direct Go binding in the retrieved pack;
// this package's interface is the primitive surface the core actually
// needs from it.
package haltransport

import "context"

// Handler callbacks are invoked by the adapter's own poller goroutine(s).
// The session is responsible for its own synchronization when these fire;
// all default Adapter implementations guarantee in-order delivery per
// channel and make no ordering guarantee between channels.
type Handlers struct {
	// OnCommand is invoked for each inbound command-channel frame.
	OnCommand func(payload []byte)
	// OnUpdate is invoked for each inbound update-channel frame, split
	// into its topic and payload per the two-part wire message shape.
	OnUpdate func(topic string, payload []byte)
	// OnSocketError is invoked when reading from either socket fails, or
	// when an update-channel frame cannot be parsed. Connect and send
	// failures are returned to the caller instead. The channel argument is
	// "command" or "update".
	OnSocketError func(channel string, err error)
}

// Adapter is the transport contract the session core depends on. A single
// Adapter instance handles exactly one session's pair of sockets.
type Adapter interface {
	// Connect opens both sockets. identity is applied to the command
	// socket only, to disambiguate reconnects ("<name>-<pid>").
	Connect(ctx context.Context, commandURI, updateURI, identity string, h Handlers) error

	// SendCommand writes payload on the command channel.
	SendCommand(payload []byte) error

	// Subscribe opens the update channel's subscription on topic.
	Subscribe(topic string) error

	// Unsubscribe tears down the update channel's subscription without
	// closing the underlying socket.
	Unsubscribe() error

	// Disconnect closes both sockets. Pending sends are discarded, not
	// flushed (lingering disabled). Idempotent.
	Disconnect()
}
