package halsession

import (
	"github.com/kay54068/halremote-go/internal/halpin"
	"github.com/kay54068/halremote-go/internal/halregistry"
	"github.com/kay54068/halremote-go/internal/halwire"
)

// emitBindLocked sends the Bind frame that opens the command channel's
// handshake: one ComponentEntry carrying every registered pin, qualified
// "<component>.<local-name>" per the wire table, each with its current
// value (spec.md §4.6).
func (s *Session) emitBindLocked() {
	regPins := s.registry.All()
	entries := make([]halwire.PinEntry, 0, len(regPins))
	for _, d := range regPins {
		entries = append(entries, halwire.PinEntry{
			Name:      halregistry.QualifiedName(s.name, d.Name()),
			Type:      wireTypeOf(d.Type()),
			Direction: wireDirectionOf(d.Direction()),
			Value:     wireValueOf(d.Value()),
		})
	}
	s.sendCommandLocked(halwire.Message{
		Type: halwire.HalrcompBind,
		Components: []halwire.ComponentEntry{
			{Name: s.name, Pins: entries},
		},
	})
}

// emitSetLocked sends a Set frame for one pin's new value, if and only if
// the session is Connected, the pin's direction permits writing out, and a
// handle has already been assigned. Any other case is a silent no-op, per
// spec.md §4.6: an output change observed before the pin is live just never
// gets a frame.
func (s *Session) emitSetLocked(d halpin.Descriptor, v halpin.Value) {
	if s.connectionState != Connected || !d.Direction().WritesOut() {
		return
	}
	handle, ok := d.Handle()
	if !ok {
		return
	}
	s.sendCommandLocked(halwire.Message{
		Type: halwire.HalrcompSet,
		Pins: []halwire.PinEntry{
			{Handle: handle, HasHandle: true, Type: wireTypeOf(d.Type()), Value: wireValueOf(v)},
		},
	})
}

// emitPingLocked sends a bare Ping frame, either as the command heartbeat's
// periodic probe or as the one-shot recovery probe issued by a timeout
// handler.
func (s *Session) emitPingLocked() {
	s.sendCommandLocked(halwire.Message{Type: halwire.Ping})
}

// sendCommandLocked encodes msg and hands it to the transport adapter. An
// encode failure is logged and dropped (the frame never existed, so there
// is nothing for the state machine to react to); a transport failure is a
// socket error and forces the Error state, as Connect and Subscribe
// failures do elsewhere in this package.
func (s *Session) sendCommandLocked(msg halwire.Message) {
	payload, err := s.codec.Encode(msg)
	if err != nil {
		s.logger.Printf("halsession: encode %v: %v", msg.Type, err)
		return
	}
	if err := s.adapter.SendCommand(payload); err != nil {
		s.enterErrorLocked(ErrSocket, err.Error())
	}
}

// onLocalPinChange is the halpin.ChangeFunc every registered pin is
// subscribed to. It runs on whatever goroutine the host's pin write
// happened on, not necessarily the session's own — it takes the session
// lock itself rather than assuming it is already held.
func (s *Session) onLocalPinChange(name string, v halpin.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	d, ok := s.registry.LookupByName(name)
	if !ok {
		return
	}
	s.emitSetLocked(d, v)
}

// onCommandHeartbeatTick fires on every command-heartbeat period. A prior
// ping still outstanding means the remote missed a round trip: spec.md
// §4.5's command-channel timeout path — unsubscribe, latch Timeout, then
// still issue one recovery probe by hand, since the Tracker that would
// otherwise keep ticking has just been stopped by enterErrorLocked.
func (s *Session) onCommandHeartbeatTick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	if s.cmdHB.Outstanding() {
		s.commandState = ChannelTrying
		if err := s.adapter.Unsubscribe(); err != nil {
			s.logger.Printf("halsession: command heartbeat timeout: unsubscribe: %v", err)
		}
		s.enterErrorLocked(ErrTimeout, "command channel: ping not acknowledged")
		s.emitPingLocked()
		s.cmdHB.SetOutstanding(true)
		return
	}
	s.emitPingLocked()
	s.cmdHB.SetOutstanding(true)
}

// onSubscribeHeartbeatTick fires when the update channel has gone quiet for
// one subscribe-heartbeat period. The subscribe channel carries no
// ping/acknowledge pair of its own, so this is pure silence detection: per
// spec.md §4.5's literal wording, the timeout sets commandChannelState (not
// subscribeChannelState) to Trying, drops the subscribe sub-state to Down,
// and probes the command channel with a manual ping the same way the
// command-heartbeat timeout does.
func (s *Session) onSubscribeHeartbeatTick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.commandState = ChannelTrying
	s.subscribeState = ChannelDown
	if err := s.adapter.Unsubscribe(); err != nil {
		s.logger.Printf("halsession: subscribe heartbeat timeout: unsubscribe: %v", err)
	}
	s.enterErrorLocked(ErrTimeout, "update channel: silence timeout")
	s.emitPingLocked()
	s.subHB.SetOutstanding(true)
}

func wireDirectionOf(d halpin.Direction) halwire.Direction {
	switch d {
	case halpin.In:
		return halwire.DIn
	case halpin.Out:
		return halwire.DOut
	case halpin.InOut:
		return halwire.DInOut
	default:
		return halwire.DIn
	}
}

func wireValueOf(v halpin.Value) halwire.PinValue {
	switch v.Type {
	case halpin.Float64:
		return halwire.PinValue{Type: halwire.VFloat64, Float: v.Float}
	case halpin.Bool:
		return halwire.PinValue{Type: halwire.VBool, Bit: v.Bit}
	case halpin.Int32:
		return halwire.PinValue{Type: halwire.VInt32, Int32: v.Int32}
	case halpin.Uint32:
		return halwire.PinValue{Type: halwire.VUint32, Uint32: v.Uint32}
	default:
		return halwire.PinValue{}
	}
}
