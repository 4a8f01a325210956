package haltransport

import (
	"context"
	"sync"
)

// FakeAdapter is an in-memory Adapter double for tests. It records sent
// frames and lets the test drive
// inbound frames directly, realizing the "test doubles become trivial"
// design intent for the transport collaborator.
type FakeAdapter struct {
	mu sync.Mutex
	h  Handlers

	Connected       bool
	CommandURI      string
	UpdateURI       string
	Identity        string
	SubscribedTopic string
	Subscribed      bool

	SentCommands byte2D
	Disconnects  int
}

type byte2D = [][]byte

// Connect implements Adapter.
func (f *FakeAdapter) Connect(_ context.Context, commandURI, updateURI, identity string, h Handlers) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Connected = true
	f.CommandURI = commandURI
	f.UpdateURI = updateURI
	f.Identity = identity
	f.h = h
	return nil
}

// SendCommand implements Adapter.
func (f *FakeAdapter) SendCommand(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	f.SentCommands = append(f.SentCommands, cp)
	return nil
}

// Subscribe implements Adapter.
func (f *FakeAdapter) Subscribe(topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Subscribed = true
	f.SubscribedTopic = topic
	return nil
}

// Unsubscribe implements Adapter.
func (f *FakeAdapter) Unsubscribe() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Subscribed = false
	return nil
}

// Disconnect implements Adapter.
func (f *FakeAdapter) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Connected = false
	f.Disconnects++
}

// DeliverCommand feeds an inbound command-channel frame to the registered
// handler, as the test's stand-in for the real socket's poller thread.
func (f *FakeAdapter) DeliverCommand(payload []byte) {
	f.mu.Lock()
	h := f.h
	f.mu.Unlock()
	if h.OnCommand != nil {
		h.OnCommand(payload)
	}
}

// DeliverUpdate feeds an inbound update-channel frame.
func (f *FakeAdapter) DeliverUpdate(topic string, payload []byte) {
	f.mu.Lock()
	h := f.h
	f.mu.Unlock()
	if h.OnUpdate != nil {
		h.OnUpdate(topic, payload)
	}
}

// DeliverSocketError simulates a socket-level failure on the named channel.
func (f *FakeAdapter) DeliverSocketError(channel string, err error) {
	f.mu.Lock()
	h := f.h
	f.mu.Unlock()
	if h.OnSocketError != nil {
		h.OnSocketError(channel, err)
	}
}

// LastCommand returns the most recently sent command-channel frame.
func (f *FakeAdapter) LastCommand() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.SentCommands) == 0 {
		return nil
	}
	return f.SentCommands[len(f.SentCommands)-1]
}
