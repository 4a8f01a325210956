// Package halwire defines the wire-message contract the session core
// consumes from the (external) protocol codec, plus one concrete default
// codec. The real deployment's wire format is protobuf, produced by a
// generated message framework the spec explicitly treats as a collaborator
// outside this core's scope; this package supplies the minimal Go shape
// that lets the core encode/decode without depending on that framework.
package halwire

// Type discriminates a wire frame's purpose.
type Type int

const (
	TypeUnknown Type = iota

	// Outbound on the command channel.
	HalrcompBind
	HalrcompSet
	Ping

	// Inbound on the command channel.
	PingAcknowledge
	HalrcompBindConfirm
	HalrcompBindReject
	HalrcompSetReject

	// Inbound on the update channel.
	HalrcompFullUpdate
	HalrcompIncrementalUpdate
	HalrcommandError
)

var typeNames = map[Type]string{
	TypeUnknown:               "unknown",
	HalrcompBind:              "HALRCOMP_BIND",
	HalrcompSet:               "HALRCOMP_SET",
	Ping:                      "PING",
	PingAcknowledge:           "PING_ACKNOWLEDGE",
	HalrcompBindConfirm:       "HALRCOMP_BIND_CONFIRM",
	HalrcompBindReject:        "HALRCOMP_BIND_REJECT",
	HalrcompSetReject:         "HALRCOMP_SET_REJECT",
	HalrcompFullUpdate:        "HALRCOMP_FULL_UPDATE",
	HalrcompIncrementalUpdate: "HALRCOMP_INCREMENTAL_UPDATE",
	HalrcommandError:          "HALRCOMMAND_ERROR",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unknown"
}

// ValueType mirrors halpin.ValueType without importing it, so halwire stays
// independent of the pin package (it is, itself, an external contract).
type ValueType int

const (
	VFloat64 ValueType = iota
	VBool
	VInt32
	VUint32
)

// PinValue is exactly one of the four wire-representable fields, selected
// by Type — the halfloat/halbit/hals32/halu32 union from the wire table.
type PinValue struct {
	Type   ValueType
	Float  float64
	Bit    bool
	Int32  int32
	Uint32 uint32
}

// Direction mirrors halpin.Direction on the wire.
type Direction int

const (
	DIn Direction = iota
	DOut
	DInOut
)

// PinEntry is one pin's representation within a Bind, Set, or Update frame.
type PinEntry struct {
	Name      string // qualified "<component>.<local-name>" on Bind and FullUpdate; unused on handle-addressed Set/IncrementalUpdate
	Handle    uint32
	HasHandle bool
	Type      ValueType
	Direction Direction
	Value     PinValue
}

// ComponentEntry groups pins under a component name, as carried by Bind and
// FullUpdate frames.
type ComponentEntry struct {
	Name string
	Pins []PinEntry
}

// Params carries server-supplied protocol parameters, delivered on the
// first full update.
type Params struct {
	KeepaliveTimerMs uint32
	HasKeepalive     bool
}

// Message is the decoded shape of one frame, command or update channel.
type Message struct {
	Type       Type
	Components []ComponentEntry // Bind, FullUpdate
	Pins       []PinEntry       // Set, IncrementalUpdate (handle-addressed)
	Params     Params           // FullUpdate only
	Notes      []string         // BindReject, SetReject, HALRCOMMAND_ERROR
}
