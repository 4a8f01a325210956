package halsession

import (
	"strings"
	"time"

	"github.com/kay54068/halremote-go/internal/halpin"
	"github.com/kay54068/halremote-go/internal/halwire"
)

// handleCommandFrame classifies one inbound command-channel frame per
// spec.md §4.4's command-channel table. It is invoked by the transport
// Adapter's poller, on whatever goroutine that poller uses; the session
// lock serializes it against everything else.
func (s *Session) handleCommandFrame(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}

	msg, err := s.codec.Decode(payload)
	if err != nil {
		s.logger.Printf("halsession: command channel: decode error: %v", err)
		return
	}

	switch msg.Type {
	case halwire.PingAcknowledge:
		s.commandState = ChannelUp
		s.cmdHB.SetOutstanding(false)
		if s.connectionState == ConnError && s.err.Kind == ErrTimeout {
			s.err = SessionError{}
			s.setConnectionState(Connected)
			s.cmdHB.SetPeriod(s.heartbeatPeriod)
			s.cmdHB.Start()
			s.subscribeState = ChannelTrying
			if err := s.adapter.Subscribe(s.subscribeTopic()); err != nil {
				s.enterErrorLocked(ErrSocket, err.Error())
			}
			return
		}
		s.maybeEnterConnectedLocked()

	case halwire.HalrcompBindConfirm:
		s.commandState = ChannelUp
		s.subscribeState = ChannelTrying
		if err := s.adapter.Subscribe(s.subscribeTopic()); err != nil {
			s.enterErrorLocked(ErrSocket, err.Error())
			return
		}
		s.maybeEnterConnectedLocked()

	case halwire.HalrcompBindReject:
		s.commandState = ChannelDown
		s.enterErrorLocked(ErrBind, strings.Join(msg.Notes, "; "))

	case halwire.HalrcompSetReject:
		s.commandState = ChannelDown
		s.enterErrorLocked(ErrPinChange, strings.Join(msg.Notes, "; "))

	default:
		s.logger.Printf("halsession: command channel: unhandled message type %v", msg.Type)
	}
}

// handleUpdateFrame classifies one inbound update-channel frame per
// spec.md §4.4's update-channel table. topic is currently unused beyond
// having already been matched by the transport subscription; the session
// does not re-validate it against its own component name.
func (s *Session) handleUpdateFrame(_ string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}

	msg, err := s.codec.Decode(payload)
	if err != nil {
		s.logger.Printf("halsession: update channel: decode error: %v", err)
		return
	}

	switch msg.Type {
	case halwire.HalrcompFullUpdate:
		for _, comp := range msg.Components {
			for _, p := range comp.Pins {
				s.applyUpdatePin(strings.TrimPrefix(p.Name, comp.Name+"."), p)
			}
		}
		s.maybeSubscribeUpLocked()
		if msg.Params.HasKeepalive {
			s.subHB.SetPeriod(time.Duration(msg.Params.KeepaliveTimerMs) * time.Millisecond)
			s.subHB.Start()
		}

	case halwire.HalrcompIncrementalUpdate:
		for _, p := range msg.Pins {
			d, ok := s.registry.LookupByHandle(p.Handle)
			if !ok {
				s.logger.Printf("halsession: update channel: unknown handle %d", p.Handle)
				continue
			}
			s.applyPinValue(d, p)
		}
		s.maybeSubscribeUpLocked()
		s.subHB.Refresh()

	case halwire.Ping:
		s.subHB.Refresh()

	case halwire.HalrcommandError:
		s.subscribeState = ChannelDown
		s.enterErrorLocked(ErrCommand, strings.Join(msg.Notes, "; "))

	default:
		s.logger.Printf("halsession: update channel: unhandled message type %v", msg.Type)
	}
}

// applyUpdatePin resolves localName in the registry, binds its handle if
// present, and applies the carried value. An unknown suffix is a non-fatal
// log entry (spec.md §9's first Open Question), not a crash.
func (s *Session) applyUpdatePin(localName string, p halwire.PinEntry) {
	d, ok := s.registry.LookupByName(localName)
	if !ok {
		s.logger.Printf("halsession: full update: unknown pin suffix %q", localName)
		return
	}
	if p.HasHandle {
		s.registry.BindHandle(localName, p.Handle)
	}
	s.applyPinValue(d, p)
}

// applyPinValue checks the wire value's type tag against the pin's
// declared type before writing it, per spec.md §9's "dynamically-typed
// value" design note. A mismatch is reported as a Command error without
// forcing a state transition — the open question left this ambiguous, and
// this implementation prefers to keep the rest of the update intact
// rather than latch the whole session into Error over one bad field.
func (s *Session) applyPinValue(d halpin.Descriptor, p halwire.PinEntry) {
	if wireTypeOf(d.Type()) != p.Value.Type {
		s.err = SessionError{Kind: ErrCommand, Text: "pin " + d.Name() + ": wire value type does not match declared type"}
		s.logger.Printf("halsession: %s", s.err.Error())
		if s.onError != nil {
			s.onError(s.err)
		}
		return
	}
	d.SetValue(halpinValueOf(p.Value), halpin.Remote)
	d.SetSynced(true)
	if s.onPinChange != nil {
		s.onPinChange(d.Name(), d.Value())
	}
}

// maybeSubscribeUpLocked implements the "first-time-seen" transition
// shared by full and incremental updates: the first inbound payload after
// subscribe moves the subscribe sub-state to Up and clears any latched
// error, possibly completing the move to Connected.
func (s *Session) maybeSubscribeUpLocked() {
	if s.subscribeState == ChannelUp {
		return
	}
	s.err = SessionError{}
	s.subscribeState = ChannelUp
	s.maybeEnterConnectedLocked()
}

func wireTypeOf(t halpin.ValueType) halwire.ValueType {
	switch t {
	case halpin.Float64:
		return halwire.VFloat64
	case halpin.Bool:
		return halwire.VBool
	case halpin.Int32:
		return halwire.VInt32
	case halpin.Uint32:
		return halwire.VUint32
	default:
		return halwire.VFloat64
	}
}

func halpinValueOf(v halwire.PinValue) halpin.Value {
	switch v.Type {
	case halwire.VFloat64:
		return halpin.Value{Type: halpin.Float64, Float: v.Float}
	case halwire.VBool:
		return halpin.Value{Type: halpin.Bool, Bit: v.Bit}
	case halwire.VInt32:
		return halpin.Value{Type: halpin.Int32, Int32: v.Int32}
	case halwire.VUint32:
		return halpin.Value{Type: halpin.Uint32, Uint32: v.Uint32}
	default:
		return halpin.Value{}
	}
}
