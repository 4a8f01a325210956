package halsession

import (
	"testing"
	"time"

	"github.com/kay54068/halremote-go/internal/halpin"
	"github.com/kay54068/halremote-go/internal/haltransport"
	"github.com/kay54068/halremote-go/internal/halwire"
)

func newTestSession(hbPeriod time.Duration) (*Session, *haltransport.FakeAdapter) {
	adapter := &haltransport.FakeAdapter{}
	s := New(Options{
		CommandURI:      "ws://host/command",
		UpdateURI:       "ws://host/update",
		Name:            "mymachine",
		HeartbeatPeriod: hbPeriod,
	}, adapter, halwire.JSONCodec{})
	return s, adapter
}

func bindConfirm() []byte {
	m := halwire.Message{Type: halwire.HalrcompBindConfirm}
	b, _ := halwire.JSONCodec{}.Encode(m)
	return b
}

func fullUpdate(component string, pins []halwire.PinEntry) []byte {
	m := halwire.Message{
		Type:       halwire.HalrcompFullUpdate,
		Components: []halwire.ComponentEntry{{Name: component, Pins: pins}},
		Params:     halwire.Params{HasKeepalive: true, KeepaliveTimerMs: 0},
	}
	b, _ := halwire.JSONCodec{}.Encode(m)
	return b
}

func pingAck() []byte {
	b, _ := halwire.JSONCodec{}.Encode(halwire.Message{Type: halwire.PingAcknowledge})
	return b
}

// TestHappyPathBindSubscribeFullUpdate covers seed scenario 1: start ->
// Connecting -> Bind -> BindConfirm -> Subscribe -> first full update ->
// Connected, with the out pin's value applied from the wire.
func TestHappyPathBindSubscribeFullUpdate(t *testing.T) {
	s, adapter := newTestSession(0)
	out1 := halpin.New("out1", halpin.Float64, halpin.Out)
	out1.SetValue(halpin.Value{Type: halpin.Float64, Float: 7.25}, halpin.Local)
	s.SetPinSource(halpin.SliceSource{out1})
	s.SetReady(true)

	if s.ConnectionState() != Connecting {
		t.Fatalf("ConnectionState() = %v, want Connecting", s.ConnectionState())
	}
	if !adapter.Connected {
		t.Fatalf("expected adapter.Connect to have been called")
	}
	if len(adapter.SentCommands) != 1 {
		t.Fatalf("expected exactly one Bind frame sent, got %d", len(adapter.SentCommands))
	}

	bindMsg, err := halwire.JSONCodec{}.Decode(adapter.LastCommand())
	if err != nil {
		t.Fatalf("decode Bind frame: %v", err)
	}
	if len(bindMsg.Components) != 1 || len(bindMsg.Components[0].Pins) != 1 {
		t.Fatalf("unexpected Bind frame shape: %+v", bindMsg)
	}
	bindPin := bindMsg.Components[0].Pins[0]
	if bindPin.Name != "mymachine.out1" {
		t.Fatalf("Bind pin Name = %q, want %q", bindPin.Name, "mymachine.out1")
	}
	if bindPin.Value.Type != halwire.VFloat64 || bindPin.Value.Float != 7.25 {
		t.Fatalf("Bind pin Value = %+v, want float64 7.25 — the pin's value at bind time must round-trip", bindPin.Value)
	}

	adapter.DeliverCommand(bindConfirm())
	if s.CommandChannelState() != ChannelUp {
		t.Fatalf("CommandChannelState() = %v, want Up", s.CommandChannelState())
	}
	if !adapter.Subscribed || adapter.SubscribedTopic != "mymachine" {
		t.Fatalf("expected subscribe on topic mymachine, got subscribed=%v topic=%q", adapter.Subscribed, adapter.SubscribedTopic)
	}

	adapter.DeliverUpdate("mymachine", fullUpdate("mymachine", []halwire.PinEntry{
		{Name: "mymachine.out1", Handle: 1, HasHandle: true, Type: halwire.VFloat64, Value: halwire.PinValue{Type: halwire.VFloat64, Float: 3.5}},
	}))

	if s.ConnectionState() != Connected {
		t.Fatalf("ConnectionState() = %v, want Connected", s.ConnectionState())
	}
	if s.SubscribeChannelState() != ChannelUp {
		t.Fatalf("SubscribeChannelState() = %v, want Up", s.SubscribeChannelState())
	}
	if out1.Value().Float != 3.5 {
		t.Fatalf("out1.Value().Float = %v, want 3.5", out1.Value().Float)
	}
	if h, ok := out1.Handle(); !ok || h != 1 {
		t.Fatalf("out1.Handle() = (%d, %v), want (1, true)", h, ok)
	}
}

// TestLocalOutputChangeEmitsSet covers seed scenario 2: once Connected and
// handle-bound, a host-originated write to an Out pin produces exactly one
// Set frame.
func TestLocalOutputChangeEmitsSet(t *testing.T) {
	s, adapter := newTestSession(0)
	out1 := halpin.New("out1", halpin.Float64, halpin.Out)
	s.SetPinSource(halpin.SliceSource{out1})
	s.SetReady(true)
	adapter.DeliverCommand(bindConfirm())
	adapter.DeliverUpdate("mymachine", fullUpdate("mymachine", []halwire.PinEntry{
		{Name: "mymachine.out1", Handle: 9, HasHandle: true, Type: halwire.VFloat64, Value: halwire.PinValue{Type: halwire.VFloat64, Float: 0}},
	}))
	if s.ConnectionState() != Connected {
		t.Fatalf("setup: ConnectionState() = %v, want Connected", s.ConnectionState())
	}
	before := len(adapter.SentCommands)

	out1.SetValue(halpin.Value{Type: halpin.Float64, Float: 42}, halpin.Local)

	if len(adapter.SentCommands) != before+1 {
		t.Fatalf("expected exactly one additional Set frame, got %d new frames", len(adapter.SentCommands)-before)
	}
	msg, err := halwire.JSONCodec{}.Decode(adapter.LastCommand())
	if err != nil {
		t.Fatalf("decode Set frame: %v", err)
	}
	if msg.Type != halwire.HalrcompSet || len(msg.Pins) != 1 || msg.Pins[0].Handle != 9 {
		t.Fatalf("unexpected Set frame: %+v", msg)
	}
	if msg.Pins[0].Value.Float != 42 {
		t.Fatalf("Set frame value = %v, want 42", msg.Pins[0].Value.Float)
	}
}

// TestLocalInputChangeEmitsNoFrame covers seed scenario 3: a write to an In
// pin never originates a Set frame, regardless of connection state.
func TestLocalInputChangeEmitsNoFrame(t *testing.T) {
	s, adapter := newTestSession(0)
	in1 := halpin.New("in1", halpin.Bool, halpin.In)
	s.SetPinSource(halpin.SliceSource{in1})
	s.SetReady(true)
	adapter.DeliverCommand(bindConfirm())
	adapter.DeliverUpdate("mymachine", fullUpdate("mymachine", nil))
	before := len(adapter.SentCommands)

	in1.SetValue(halpin.Value{Type: halpin.Bool, Bit: true}, halpin.Local)

	if len(adapter.SentCommands) != before {
		t.Fatalf("expected no new frames for an In pin write, got %d", len(adapter.SentCommands)-before)
	}
}

// TestCommandHeartbeatTimeoutRecovers covers seed scenario 4: a missed
// command-channel ping round trip latches a Timeout error and re-probes;
// the next PingAcknowledge clears the error, restores Connected, and
// re-issues Subscribe, without waiting for the subscribe channel to have
// reached Up on its own first.
func TestCommandHeartbeatTimeoutRecovers(t *testing.T) {
	s, adapter := newTestSession(0)
	out1 := halpin.New("out1", halpin.Float64, halpin.Out)
	s.SetPinSource(halpin.SliceSource{out1})
	s.SetReady(true)
	adapter.DeliverCommand(bindConfirm())
	adapter.DeliverUpdate("mymachine", fullUpdate("mymachine", nil))
	if s.ConnectionState() != Connected {
		t.Fatalf("setup: ConnectionState() = %v, want Connected", s.ConnectionState())
	}

	s.onCommandHeartbeatTick() // simulate the first periodic ping going unanswered
	s.onCommandHeartbeatTick() // simulate the second tick finding it still outstanding

	if s.ConnectionState() != ConnError {
		t.Fatalf("ConnectionState() = %v, want Error after missed heartbeat", s.ConnectionState())
	}
	if s.LastError().Kind != ErrTimeout {
		t.Fatalf("LastError().Kind = %v, want ErrTimeout", s.LastError().Kind)
	}

	adapter.DeliverCommand(pingAck())

	if s.ConnectionState() != Connected {
		t.Fatalf("ConnectionState() = %v, want Connected after recovery ack", s.ConnectionState())
	}
	if s.LastError().Kind != ErrNone {
		t.Fatalf("LastError().Kind = %v, want ErrNone after recovery", s.LastError().Kind)
	}
	if !adapter.Subscribed {
		t.Fatalf("expected Subscribe to have been re-issued on recovery")
	}
}

// TestSubscribeHeartbeatTimeout covers seed scenario 5: update-channel
// silence declares a Timeout, drops the subscribe sub-state to Down, and
// moves the command sub-state back to Trying per the literal wording of
// the timeout table.
func TestSubscribeHeartbeatTimeout(t *testing.T) {
	s, adapter := newTestSession(0)
	out1 := halpin.New("out1", halpin.Float64, halpin.Out)
	s.SetPinSource(halpin.SliceSource{out1})
	s.SetReady(true)
	adapter.DeliverCommand(bindConfirm())
	adapter.DeliverUpdate("mymachine", fullUpdate("mymachine", nil))
	if s.ConnectionState() != Connected {
		t.Fatalf("setup: ConnectionState() = %v, want Connected", s.ConnectionState())
	}

	s.onSubscribeHeartbeatTick()

	if s.ConnectionState() != ConnError {
		t.Fatalf("ConnectionState() = %v, want Error", s.ConnectionState())
	}
	if s.LastError().Kind != ErrTimeout {
		t.Fatalf("LastError().Kind = %v, want ErrTimeout", s.LastError().Kind)
	}
	if s.SubscribeChannelState() != ChannelDown {
		t.Fatalf("SubscribeChannelState() = %v, want Down", s.SubscribeChannelState())
	}
	if s.CommandChannelState() != ChannelTrying {
		t.Fatalf("CommandChannelState() = %v, want Trying", s.CommandChannelState())
	}
	if !s.SubscribePingOutstanding() {
		t.Fatalf("expected SubscribePingOutstanding() to be true after timeout")
	}
}

// TestBindRejectedThenReadyToggleRetries covers seed scenario 6: a
// BindReject latches a Bind error, and toggling ready off then back on
// tears down and restarts the whole handshake from Connecting.
func TestBindRejectedThenReadyToggleRetries(t *testing.T) {
	s, adapter := newTestSession(0)
	out1 := halpin.New("out1", halpin.Float64, halpin.Out)
	s.SetPinSource(halpin.SliceSource{out1})
	s.SetReady(true)

	reject, _ := halwire.JSONCodec{}.Encode(halwire.Message{Type: halwire.HalrcompBindReject, Notes: []string{"unknown component"}})
	adapter.DeliverCommand(reject)

	if s.ConnectionState() != ConnError {
		t.Fatalf("ConnectionState() = %v, want Error", s.ConnectionState())
	}
	if s.LastError().Kind != ErrBind {
		t.Fatalf("LastError().Kind = %v, want ErrBind", s.LastError().Kind)
	}

	s.SetReady(false)
	if s.ConnectionState() != Disconnected {
		t.Fatalf("ConnectionState() = %v, want Disconnected after ready=false", s.ConnectionState())
	}
	if adapter.Disconnects == 0 {
		t.Fatalf("expected Disconnect to have been called")
	}

	s.SetReady(true)
	if s.ConnectionState() != Connecting {
		t.Fatalf("ConnectionState() = %v, want Connecting on retry", s.ConnectionState())
	}
	if len(adapter.SentCommands) == 0 {
		t.Fatalf("expected a fresh Bind frame on retry")
	}
}

// TestIncrementalUpdateTypeMismatchLatchesCommandError covers SPEC_FULL.md
// §6's supplemented "dynamically-typed value" behavior: a wire value whose
// type tag disagrees with the pin's declared type is reported as a Command
// error without forcing a state transition — the rest of the session stays
// exactly as it was.
func TestIncrementalUpdateTypeMismatchLatchesCommandError(t *testing.T) {
	s, adapter := newTestSession(0)
	out1 := halpin.New("out1", halpin.Float64, halpin.Out)
	s.SetPinSource(halpin.SliceSource{out1})
	s.SetReady(true)
	adapter.DeliverCommand(bindConfirm())
	adapter.DeliverUpdate("mymachine", fullUpdate("mymachine", []halwire.PinEntry{
		{Name: "mymachine.out1", Handle: 5, HasHandle: true, Type: halwire.VFloat64, Value: halwire.PinValue{Type: halwire.VFloat64, Float: 1}},
	}))
	if s.ConnectionState() != Connected {
		t.Fatalf("setup: ConnectionState() = %v, want Connected", s.ConnectionState())
	}

	incremental, _ := halwire.JSONCodec{}.Encode(halwire.Message{
		Type: halwire.HalrcompIncrementalUpdate,
		Pins: []halwire.PinEntry{
			{Handle: 5, HasHandle: true, Type: halwire.VBool, Value: halwire.PinValue{Type: halwire.VBool, Bit: true}},
		},
	})
	adapter.DeliverUpdate("mymachine", incremental)

	if s.ConnectionState() != Connected {
		t.Fatalf("ConnectionState() = %v, want Connected — a type mismatch must not force a transition", s.ConnectionState())
	}
	if s.LastError().Kind != ErrCommand {
		t.Fatalf("LastError().Kind = %v, want ErrCommand", s.LastError().Kind)
	}
	if out1.Value().Float != 1 {
		t.Fatalf("out1.Value().Float = %v, want unchanged 1 — the mismatched write must not have applied", out1.Value().Float)
	}
}

func TestSnapshotReflectsRegisteredPins(t *testing.T) {
	s, _ := newTestSession(0)
	out1 := halpin.New("out1", halpin.Float64, halpin.Out)
	s.SetPinSource(halpin.SliceSource{out1})
	s.SetReady(true)

	snap := s.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("Snapshot() returned %d entries, want 1", len(snap))
	}
	if snap[0].Name != "out1" {
		t.Fatalf("Snapshot()[0].Name = %q, want %q", snap[0].Name, "out1")
	}
}
