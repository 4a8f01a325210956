package halwire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// Codec encodes and decodes wire frames. The real deployment's codec is an
// external protobuf framework; this interface is the primitive surface the
// session core actually needs from it.
type Codec interface {
	Encode(m Message) ([]byte, error)
	Decode(payload []byte) (Message, error)
}

// JSONCodec is the one concrete default Codec, encoding each message as a
// JSON body. Encode adds no length prefix; WriteFramed/ReadFramed supply a
// 4-byte big-endian length prefix for stream transports. It exists so the
// default transport adapter has something real to send; it is not a stand-
// in for the production protobuf wire format, which this package never
// implements (see DESIGN.md).
type JSONCodec struct{}

type wireMessage struct {
	Type       string           `json:"type"`
	Components []wireComponent  `json:"components,omitempty"`
	Pins       []wirePin        `json:"pins,omitempty"`
	Params     *wireParams      `json:"params,omitempty"`
	Notes      []string         `json:"notes,omitempty"`
}

type wireComponent struct {
	Name string    `json:"name"`
	Pins []wirePin `json:"pins"`
}

type wirePin struct {
	Name      string `json:"name"`
	Handle    uint32 `json:"handle,omitempty"`
	HasHandle bool   `json:"hasHandle,omitempty"`
	Type      string `json:"type"`
	Direction string `json:"direction"`
	Float     *float64 `json:"halfloat,omitempty"`
	Bit       *bool    `json:"halbit,omitempty"`
	Int32     *int32   `json:"hals32,omitempty"`
	Uint32    *uint32  `json:"halu32,omitempty"`
}

type wireParams struct {
	KeepaliveTimerMs uint32 `json:"keepalive_timer"`
}

var typeToWire = map[Type]string{}
var wireToType = map[string]Type{}

func init() {
	for t, name := range typeNames {
		typeToWire[t] = name
		wireToType[name] = t
	}
}

var valueTypeNames = map[ValueType]string{
	VFloat64: "float64", VBool: "bool", VInt32: "int32", VUint32: "uint32",
}
var valueTypeFromName = map[string]ValueType{
	"float64": VFloat64, "bool": VBool, "int32": VInt32, "uint32": VUint32,
}

var directionNames = map[Direction]string{
	DIn: "in", DOut: "out", DInOut: "inout",
}
var directionFromName = map[string]Direction{
	"in": DIn, "out": DOut, "inout": DInOut,
}

func toWirePin(p PinEntry) wirePin {
	wp := wirePin{
		Name:      p.Name,
		Handle:    p.Handle,
		HasHandle: p.HasHandle,
		Type:      valueTypeNames[p.Type],
		Direction: directionNames[p.Direction],
	}
	switch p.Type {
	case VFloat64:
		v := p.Value.Float
		wp.Float = &v
	case VBool:
		v := p.Value.Bit
		wp.Bit = &v
	case VInt32:
		v := p.Value.Int32
		wp.Int32 = &v
	case VUint32:
		v := p.Value.Uint32
		wp.Uint32 = &v
	}
	return wp
}

func fromWirePin(wp wirePin) (PinEntry, error) {
	p := PinEntry{
		Name:      wp.Name,
		Handle:    wp.Handle,
		HasHandle: wp.HasHandle,
		Type:      valueTypeFromName[wp.Type],
		Direction: directionFromName[wp.Direction],
	}
	switch {
	case wp.Float != nil:
		p.Value = PinValue{Type: VFloat64, Float: *wp.Float}
	case wp.Bit != nil:
		p.Value = PinValue{Type: VBool, Bit: *wp.Bit}
	case wp.Int32 != nil:
		p.Value = PinValue{Type: VInt32, Int32: *wp.Int32}
	case wp.Uint32 != nil:
		p.Value = PinValue{Type: VUint32, Uint32: *wp.Uint32}
	default:
		return PinEntry{}, fmt.Errorf("halwire: pin %q carries no value field", wp.Name)
	}
	return p, nil
}

// Encode implements Codec.
func (JSONCodec) Encode(m Message) ([]byte, error) {
	wm := wireMessage{Type: typeToWire[m.Type], Notes: m.Notes}
	for _, c := range m.Components {
		wc := wireComponent{Name: c.Name}
		for _, p := range c.Pins {
			wc.Pins = append(wc.Pins, toWirePin(p))
		}
		wm.Components = append(wm.Components, wc)
	}
	for _, p := range m.Pins {
		wm.Pins = append(wm.Pins, toWirePin(p))
	}
	if m.Params.HasKeepalive {
		wm.Params = &wireParams{KeepaliveTimerMs: m.Params.KeepaliveTimerMs}
	}
	return json.Marshal(wm)
}

// Decode implements Codec.
func (JSONCodec) Decode(payload []byte) (Message, error) {
	var wm wireMessage
	if err := json.Unmarshal(payload, &wm); err != nil {
		return Message{}, fmt.Errorf("halwire: decode: %w", err)
	}
	m := Message{Type: wireToType[wm.Type], Notes: wm.Notes}
	for _, wc := range wm.Components {
		c := ComponentEntry{Name: wc.Name}
		for _, wp := range wc.Pins {
			p, err := fromWirePin(wp)
			if err != nil {
				return Message{}, err
			}
			c.Pins = append(c.Pins, p)
		}
		m.Components = append(m.Components, c)
	}
	for _, wp := range wm.Pins {
		p, err := fromWirePin(wp)
		if err != nil {
			return Message{}, err
		}
		m.Pins = append(m.Pins, p)
	}
	if wm.Params != nil {
		m.Params = Params{KeepaliveTimerMs: wm.Params.KeepaliveTimerMs, HasKeepalive: true}
	}
	return m, nil
}

// WriteFramed writes a length-prefixed frame: a 4-byte big-endian length
// followed by payload.
func WriteFramed(w io.Writer, payload []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFramed reads one length-prefixed frame written by WriteFramed.
func ReadFramed(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
