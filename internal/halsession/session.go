// Package halsession implements the Remote Component Session: the
// client-side connection lifecycle, two-socket protocol engine, pin
// registry wiring, bind/subscribe/update/heartbeat state machine, and
// error classification described by this repository's specification. It
// is the core this whole module exists to deliver; halpin, halregistry,
// halheartbeat, halwire, and haltransport are its collaborators.
package halsession

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/kay54068/halremote-go/internal/halheartbeat"
	"github.com/kay54068/halremote-go/internal/halpin"
	"github.com/kay54068/halremote-go/internal/halregistry"
	"github.com/kay54068/halremote-go/internal/haltransport"
	"github.com/kay54068/halremote-go/internal/halwire"
)

// Options configures a Session. CommandURI/UpdateURI/Name/HeartbeatPeriod
// correspond directly to spec.md §6's commandUri/updateUri/name/
// heartbeatPeriod options.
type Options struct {
	CommandURI      string
	UpdateURI       string
	Name            string
	HeartbeatPeriod time.Duration
	Logger          *log.Logger
}

// Session is the Remote Component Session. The zero value is not usable;
// construct with New. A Session is safe for concurrent use: every public
// method acquires an internal mutex, matching spec.md §5's single-mutex
// concurrency model.
type Session struct {
	mu sync.Mutex

	name            string
	commandURI      string
	updateURI       string
	heartbeatPeriod time.Duration
	logger          *log.Logger

	adapter  haltransport.Adapter
	codec    halwire.Codec
	registry *halregistry.Registry

	cmdHB *halheartbeat.Tracker
	subHB *halheartbeat.Tracker

	connectionState ConnectionState
	commandState    ChannelState
	subscribeState  ChannelState
	err             SessionError

	readyFlag       bool
	pinsInitialized bool
	started         bool

	pinSource halpin.Source

	onStateChange func(ConnectionState)
	onError       func(SessionError)
	onPinChange   func(name string, v halpin.Value)
}

// New constructs a Session bound to the given transport Adapter and wire
// Codec. Neither is connected until SetReady(true) and SetPinSource have
// both been called (spec.md §3: "inert until ready becomes true AND
// component initialization has completed, whichever is later").
func New(opts Options, adapter haltransport.Adapter, codec halwire.Codec) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Session{
		name:            opts.Name,
		commandURI:      opts.CommandURI,
		updateURI:       opts.UpdateURI,
		heartbeatPeriod: opts.HeartbeatPeriod,
		logger:          logger,
		adapter:         adapter,
		codec:           codec,
		registry:        halregistry.New(logger),
	}
	s.cmdHB = halheartbeat.New(opts.HeartbeatPeriod, s.onCommandHeartbeatTick)
	s.subHB = halheartbeat.New(0, s.onSubscribeHeartbeatTick)
	return s
}

// SetOnStateChange registers a callback invoked synchronously, under the
// session's lock, whenever ConnectionState changes.
func (s *Session) SetOnStateChange(fn func(ConnectionState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStateChange = fn
}

// SetOnError registers a callback invoked synchronously whenever a new
// error is latched.
func (s *Session) SetOnError(fn func(SessionError)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = fn
}

// SetOnPinChange registers a callback invoked synchronously whenever an
// inbound update applies a new value to a bound pin.
func (s *Session) SetOnPinChange(fn func(name string, v halpin.Value)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPinChange = fn
}

// SetPinSource supplies the iterable of pin descriptors the session
// registers at start. It is the "component initialization" half of the
// two-part start gate.
func (s *Session) SetPinSource(src halpin.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pinSource = src
	s.pinsInitialized = true
	s.maybeStartLocked()
}

// SetReady implements the ready option's rising/falling edge: rising
// starts the session (once pins are also initialized); falling tears it
// down immediately and idempotently.
func (s *Session) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ready == s.readyFlag {
		return
	}
	s.readyFlag = ready
	if ready {
		s.maybeStartLocked()
		return
	}
	if s.started {
		s.teardownLocked()
		s.started = false
	}
}

func (s *Session) maybeStartLocked() {
	if s.started || !s.readyFlag || !s.pinsInitialized {
		return
	}
	s.started = true
	s.enterConnectingLocked()
}

// enterConnectingLocked is the Connecting entry action of spec.md §4.3:
// open both sockets, populate the registry, emit Bind, set
// commandChannelState := Trying.
func (s *Session) enterConnectingLocked() {
	s.setConnectionState(Connecting)
	s.registry.Clear()
	for _, d := range s.pinSource.Pins() {
		s.registry.Add(d, s.onLocalPinChange)
	}

	identity := fmt.Sprintf("%s-%d", s.name, os.Getpid())
	err := s.adapter.Connect(context.Background(), s.commandURI, s.updateURI, identity, haltransport.Handlers{
		OnCommand:     s.handleCommandFrame,
		OnUpdate:      s.handleUpdateFrame,
		OnSocketError: s.handleSocketError,
	})
	if err != nil {
		s.enterErrorLocked(ErrSocket, err.Error())
		return
	}
	s.commandState = ChannelTrying
	s.emitBindLocked()
}

// teardownLocked is the Disconnected entry action: disconnect sockets,
// clear the registry, stop both heartbeats, clear error. Idempotent.
func (s *Session) teardownLocked() {
	s.cmdHB.Stop()
	s.subHB.Stop()
	s.adapter.Disconnect()
	s.registry.Clear()
	s.err = SessionError{}
	s.commandState = ChannelDown
	s.subscribeState = ChannelDown
	s.setConnectionState(Disconnected)
}

// enterErrorLocked is the Error entry action: stop both heartbeats, latch
// the error, transition.
func (s *Session) enterErrorLocked(kind ErrorKind, text string) {
	s.err = SessionError{Kind: kind, Text: text}
	s.cmdHB.Stop()
	s.subHB.Stop()
	s.setConnectionState(ConnError)
	if s.onError != nil {
		s.onError(s.err)
	}
}

// maybeEnterConnectedLocked is the Connected entry action, reachable once
// both channel sub-states have reached Up, in either order.
func (s *Session) maybeEnterConnectedLocked() {
	if s.connectionState == Connected {
		return
	}
	if s.commandState != ChannelUp || s.subscribeState != ChannelUp {
		return
	}
	s.err = SessionError{}
	s.setConnectionState(Connected)
	s.cmdHB.SetPeriod(s.heartbeatPeriod)
	s.cmdHB.Start()
}

// setConnectionState applies spec.md §4.3's "on any departure from
// Connected, markAllUnsynced" rule and notifies the registered callback.
func (s *Session) setConnectionState(next ConnectionState) {
	prev := s.connectionState
	if prev == next {
		return
	}
	if prev == Connected && next != Connected {
		s.registry.MarkAllUnsynced()
	}
	s.connectionState = next
	if s.onStateChange != nil {
		s.onStateChange(next)
	}
}

func (s *Session) handleSocketError(channel string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.logger.Printf("halsession: socket error on %s channel: %v", channel, err)
	s.enterErrorLocked(ErrSocket, fmt.Sprintf("%s channel: %v", channel, err))
}

func (s *Session) subscribeTopic() string { return s.name }

// ConnectionState returns the current user-visible state.
func (s *Session) ConnectionState() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectionState
}

// LastError returns the currently latched error.
func (s *Session) LastError() SessionError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// CommandChannelState returns the command channel's internal sub-state.
func (s *Session) CommandChannelState() ChannelState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commandState
}

// SubscribeChannelState returns the update channel's internal sub-state.
func (s *Session) SubscribeChannelState() ChannelState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribeState
}

// CommandPingOutstanding reports whether a command-channel ping is
// currently awaiting acknowledgement.
func (s *Session) CommandPingOutstanding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cmdHB.Outstanding()
}

// SubscribePingOutstanding reports the subscribe heartbeat's outstanding
// flag. Per spec.md §9's second Open Question, nothing in the dispatch
// logic reads this back; it is exposed purely for observability.
func (s *Session) SubscribePingOutstanding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subHB.Outstanding()
}

// PinSnapshot is a read-only copy of one registered pin's current state,
// returned by Snapshot for consumers like cmd/halmonitor that must not
// hold a live reference into the registry.
type PinSnapshot struct {
	Name      string
	Handle    uint32
	HasHandle bool
	Type      halpin.ValueType
	Direction halpin.Direction
	Value     halpin.Value
	Synced    bool
}

// Snapshot returns a point-in-time copy of every registered pin.
func (s *Session) Snapshot() []PinSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	pins := s.registry.All()
	out := make([]PinSnapshot, 0, len(pins))
	for _, d := range pins {
		handle, hasHandle := d.Handle()
		out = append(out, PinSnapshot{
			Name:      d.Name(),
			Handle:    handle,
			HasHandle: hasHandle,
			Type:      d.Type(),
			Direction: d.Direction(),
			Value:     d.Value(),
			Synced:    d.Synced(),
		})
	}
	return out
}
