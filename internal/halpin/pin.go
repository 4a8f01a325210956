// Package halpin defines the external pin-descriptor contract the session
// core consumes. The pin objects themselves — storage, change notification,
// declared identity — belong to the host application; this package only
// specifies the shape the core needs and supplies one in-memory reference
// implementation for tests and the demo dashboard.
package halpin

import "sync"

// ValueType identifies a pin's wire-compatible value type. A pin's type is
// fixed at construction and never changes.
type ValueType int

const (
	Float64 ValueType = iota
	Bool
	Int32
	Uint32
)

var valueTypeNames = map[ValueType]string{
	Float64: "float64",
	Bool:    "bool",
	Int32:   "int32",
	Uint32:  "uint32",
}

func (t ValueType) String() string {
	if s, ok := valueTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// Direction is a pin's data-flow direction relative to the host.
type Direction int

const (
	In Direction = iota
	Out
	InOut
)

var directionNames = map[Direction]string{
	In:    "in",
	Out:   "out",
	InOut: "inout",
}

func (d Direction) String() string {
	if s, ok := directionNames[d]; ok {
		return s
	}
	return "unknown"
}

// WritesOut reports whether a pin with this direction can originate a Set
// frame. Pins with direction In never do.
func (d Direction) WritesOut() bool {
	return d == Out || d == InOut
}

// Value is a tagged union over the four wire-representable pin value types.
// Exactly one field is meaningful, selected by Type.
type Value struct {
	Type   ValueType
	Float  float64
	Bit    bool
	Int32  int32
	Uint32 uint32
}

// ValueSource tags who originated a value write, so a remote-origin write
// can avoid re-entering the local-change notification path that feeds the
// outbound encoder.
type ValueSource int

const (
	Local ValueSource = iota
	Remote
)

// ChangeFunc is invoked whenever a pin's value changes due to a Local write.
type ChangeFunc func(name string, v Value)

// Descriptor is the contract the session core requires from a host-owned
// pin. Implementations are expected to be safe for concurrent use from the
// host's own threads in addition to the session thread, since the Session
// subscribes to change notifications and may itself write values back via
// SetValue(..., Remote).
type Descriptor interface {
	Name() string
	Type() ValueType
	Direction() Direction
	Enabled() bool

	Value() Value
	// SetValue assigns v. src distinguishes a host-originated write (which
	// must fire OnChange) from a remote-origin write applied by the
	// session (which must not).
	SetValue(v Value, src ValueSource)

	Synced() bool
	SetSynced(bool)

	Handle() (uint32, bool)
	SetHandle(uint32)

	// OnChange registers fn to be called after every Local SetValue.
	// Implementations must support exactly one active subscriber; a
	// second call replaces the first (the registry only ever subscribes
	// once per pin, on Add).
	OnChange(fn ChangeFunc)
}

// Source supplies pin descriptors at session start, playing the role of
// the declarative component tree in the original UI framework. A Source is
// consumed once per session start.
type Source interface {
	Pins() []Descriptor
}

// SliceSource adapts a plain slice of Descriptors into a Source.
type SliceSource []Descriptor

func (s SliceSource) Pins() []Descriptor { return []Descriptor(s) }

// Pin is a minimal in-memory Descriptor implementation, suitable as a test
// double and as the pin type used by cmd/halmonitor's demo component.
type Pin struct {
	mu        sync.Mutex
	name      string
	valueType ValueType
	direction Direction
	enabled   bool

	value   Value
	synced  bool
	handle  uint32
	hasHdl  bool
	onChange ChangeFunc
}

// New creates an enabled Pin with the given identity. Its initial value is
// the zero value of valueType; callers that need a specific starting value
// call SetValue afterward.
func New(name string, valueType ValueType, dir Direction) *Pin {
	return &Pin{
		name:      name,
		valueType: valueType,
		direction: dir,
		enabled:   true,
		value:     Value{Type: valueType},
	}
}

func (p *Pin) Name() string        { return p.name }
func (p *Pin) Type() ValueType     { return p.valueType }
func (p *Pin) Direction() Direction { return p.direction }
func (p *Pin) Enabled() bool       { return p.enabled }

// SetEnabled configures whether this pin participates in registration. Not
// part of the Descriptor interface; exposed for building test fixtures.
func (p *Pin) SetEnabled(enabled bool) { p.enabled = enabled }

func (p *Pin) Value() Value {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

func (p *Pin) SetValue(v Value, src ValueSource) {
	p.mu.Lock()
	p.value = v
	fn := p.onChange
	p.mu.Unlock()

	if src == Local && fn != nil {
		fn(p.name, v)
	}
}

func (p *Pin) Synced() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.synced
}

func (p *Pin) SetSynced(synced bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.synced = synced
}

func (p *Pin) Handle() (uint32, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handle, p.hasHdl
}

func (p *Pin) SetHandle(h uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handle = h
	p.hasHdl = true
}

func (p *Pin) OnChange(fn ChangeFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}
