package halsession

import (
	"encoding/json"
	"fmt"
)

// ConnectionState is the user-visible session state, spec.md §3.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
	ConnError
)

var connectionStateNames = map[ConnectionState]string{
	Disconnected: "disconnected",
	Connecting:   "connecting",
	Connected:    "connected",
	ConnError:    "error",
}

var connectionStateFromName = map[string]ConnectionState{
	"disconnected": Disconnected,
	"connecting":   Connecting,
	"connected":    Connected,
	"error":        ConnError,
}

func (s ConnectionState) String() string {
	if n, ok := connectionStateNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s ConnectionState) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *ConnectionState) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	v, ok := connectionStateFromName[name]
	if !ok {
		return fmt.Errorf("halsession: unknown connection state %q", name)
	}
	*s = v
	return nil
}

// ChannelState is the internal liveness sub-state of one of the two
// channels (command, subscribe), spec.md §3.
type ChannelState int

const (
	ChannelDown ChannelState = iota
	ChannelTrying
	ChannelUp
)

var channelStateNames = map[ChannelState]string{
	ChannelDown:   "down",
	ChannelTrying: "trying",
	ChannelUp:     "up",
}

var channelStateFromName = map[string]ChannelState{
	"down":   ChannelDown,
	"trying": ChannelTrying,
	"up":     ChannelUp,
}

func (s ChannelState) String() string {
	if n, ok := channelStateNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s ChannelState) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *ChannelState) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	v, ok := channelStateFromName[name]
	if !ok {
		return fmt.Errorf("halsession: unknown channel state %q", name)
	}
	*s = v
	return nil
}

// ErrorKind is the user-visible error taxonomy, spec.md §7.
type ErrorKind int

const (
	ErrNone ErrorKind = iota
	ErrBind
	ErrPinChange
	ErrCommand
	ErrTimeout
	ErrSocket
)

var errorKindNames = map[ErrorKind]string{
	ErrNone:      "none",
	ErrBind:      "bind",
	ErrPinChange: "pin_change",
	ErrCommand:   "command",
	ErrTimeout:   "timeout",
	ErrSocket:    "socket",
}

var errorKindFromName = map[string]ErrorKind{
	"none":       ErrNone,
	"bind":       ErrBind,
	"pin_change": ErrPinChange,
	"command":    ErrCommand,
	"timeout":    ErrTimeout,
	"socket":     ErrSocket,
}

func (k ErrorKind) String() string {
	if n, ok := errorKindNames[k]; ok {
		return n
	}
	return "unknown"
}

func (k ErrorKind) MarshalJSON() ([]byte, error) { return json.Marshal(k.String()) }

func (k *ErrorKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	v, ok := errorKindFromName[name]
	if !ok {
		return fmt.Errorf("halsession: unknown error kind %q", name)
	}
	*k = v
	return nil
}

// SessionError pairs an ErrorKind with a human-readable description.
type SessionError struct {
	Kind ErrorKind
	Text string
}

func (e SessionError) Error() string {
	if e.Text == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Text
}
