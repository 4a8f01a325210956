package halwire

import (
	"io"
	"testing"
)

func TestBindRoundTrip(t *testing.T) {
	msg := Message{
		Type: HalrcompBind,
		Components: []ComponentEntry{
			{
				Name: "c",
				Pins: []PinEntry{
					{Name: "c.out1", Type: VFloat64, Direction: DOut, Value: PinValue{Type: VFloat64, Float: 0.0}},
					{Name: "c.in1", Type: VBool, Direction: DIn, Value: PinValue{Type: VBool, Bit: false}},
				},
			},
		},
	}

	codec := JSONCodec{}
	payload, err := codec.Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := codec.Decode(payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got.Type != HalrcompBind {
		t.Fatalf("Type = %v, want HalrcompBind", got.Type)
	}
	if len(got.Components) != 1 || len(got.Components[0].Pins) != 2 {
		t.Fatalf("unexpected shape: %+v", got)
	}
	p0, p1 := got.Components[0].Pins[0], got.Components[0].Pins[1]
	if p0.Name != "c.out1" || p0.Type != VFloat64 || p0.Direction != DOut || p0.Value.Float != 0.0 {
		t.Fatalf("pin0 mismatch: %+v", p0)
	}
	if p1.Name != "c.in1" || p1.Type != VBool || p1.Direction != DIn || p1.Value.Bit != false {
		t.Fatalf("pin1 mismatch: %+v", p1)
	}
}

func TestFullUpdateWithParamsRoundTrip(t *testing.T) {
	msg := Message{
		Type: HalrcompFullUpdate,
		Components: []ComponentEntry{
			{Name: "c", Pins: []PinEntry{
				{Name: "out1", Handle: 7, HasHandle: true, Type: VFloat64, Value: PinValue{Type: VFloat64, Float: 1.5}},
			}},
		},
		Params: Params{KeepaliveTimerMs: 500, HasKeepalive: true},
	}

	codec := JSONCodec{}
	payload, err := codec.Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := codec.Decode(payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !got.Params.HasKeepalive || got.Params.KeepaliveTimerMs != 500 {
		t.Fatalf("Params mismatch: %+v", got.Params)
	}
	if got.Components[0].Pins[0].Handle != 7 {
		t.Fatalf("expected handle 7, got %+v", got.Components[0].Pins[0])
	}
}

func TestIncrementalUpdateByHandle(t *testing.T) {
	msg := Message{
		Type: HalrcompIncrementalUpdate,
		Pins: []PinEntry{
			{Handle: 7, HasHandle: true, Type: VFloat64, Value: PinValue{Type: VFloat64, Float: 2.25}},
		},
	}
	codec := JSONCodec{}
	payload, err := codec.Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := codec.Decode(payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Pins) != 1 || got.Pins[0].Handle != 7 || got.Pins[0].Value.Float != 2.25 {
		t.Fatalf("unexpected decode: %+v", got)
	}
}

func TestBindRejectNotes(t *testing.T) {
	msg := Message{Type: HalrcompBindReject, Notes: []string{"shape mismatch", "pin 'out1' unknown"}}
	codec := JSONCodec{}
	payload, err := codec.Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := codec.Decode(payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Notes) != 2 {
		t.Fatalf("expected 2 notes, got %v", got.Notes)
	}
}

func TestFramedRoundTrip(t *testing.T) {
	var buf fakeBuffer
	if err := WriteFramed(&buf, []byte("hello")); err != nil {
		t.Fatalf("WriteFramed: %v", err)
	}
	got, err := ReadFramed(&buf)
	if err != nil {
		t.Fatalf("ReadFramed: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}

// fakeBuffer is a minimal io.ReadWriter so the framing test does not need
// to depend on bytes.Buffer's zero-value semantics beyond what's needed.
type fakeBuffer struct {
	data []byte
}

func (b *fakeBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *fakeBuffer) Read(p []byte) (int, error) {
	if len(b.data) == 0 {
		return 0, io.EOF
	}
	n := copy(p, b.data)
	b.data = b.data[n:]
	return n, nil
}
