package haltransport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// WSAdapter is the default Adapter, standing in for the pair of nanomsg
// sockets the real deployment uses: one WebSocket connection per logical
// channel, with the command channel's dial carrying an identity header and
// the update channel's "subscribe" modeled as a small control envelope
// sent over an otherwise plain duplex connection (WebSocket has no native
// pub/sub subscription primitive). Grounded on tui/internal/client/ws.go's
// single reconnecting connection, generalized to the two sockets this
// protocol needs; unlike that client, WSAdapter does not reconnect on its
// own — the session state machine owns reconnect policy via ready.
type WSAdapter struct {
	writeMu    sync.Mutex
	commandMu  sync.Mutex
	updateMu   sync.Mutex
	commandConn *websocket.Conn
	updateConn  *websocket.Conn
	cancel      context.CancelFunc
}

// NewWSAdapter constructs an unconnected adapter.
func NewWSAdapter() *WSAdapter {
	return &WSAdapter{}
}

type updateEnvelope struct {
	Topic       string          `json:"topic,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Subscribe   string          `json:"subscribe,omitempty"`
	Unsubscribe bool            `json:"unsubscribe,omitempty"`
}

// Connect implements Adapter.
func (a *WSAdapter) Connect(ctx context.Context, commandURI, updateURI, identity string, h Handlers) error {
	header := http.Header{}
	header.Set("X-HAL-Identity", identity)

	commandConn, _, err := websocket.DefaultDialer.DialContext(ctx, commandURI, header)
	if err != nil {
		return fmt.Errorf("haltransport: dial command channel: %w", err)
	}
	updateConn, _, err := websocket.DefaultDialer.DialContext(ctx, updateURI, nil)
	if err != nil {
		commandConn.Close()
		return fmt.Errorf("haltransport: dial update channel: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	a.commandMu.Lock()
	a.commandConn = commandConn
	a.commandMu.Unlock()
	a.updateMu.Lock()
	a.updateConn = updateConn
	a.updateMu.Unlock()
	a.cancel = cancel

	go a.readCommandLoop(runCtx, commandConn, h)
	go a.readUpdateLoop(runCtx, updateConn, h)

	return nil
}

func (a *WSAdapter) readCommandLoop(ctx context.Context, conn *websocket.Conn, h Handlers) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if h.OnSocketError != nil {
				h.OnSocketError("command", err)
			}
			return
		}
		if h.OnCommand != nil {
			h.OnCommand(data)
		}
	}
}

func (a *WSAdapter) readUpdateLoop(ctx context.Context, conn *websocket.Conn, h Handlers) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if h.OnSocketError != nil {
				h.OnSocketError("update", err)
			}
			return
		}
		var env updateEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			if h.OnSocketError != nil {
				h.OnSocketError("update", fmt.Errorf("haltransport: malformed update envelope: %w", err))
			}
			continue
		}
		if env.Topic == "" {
			continue // control ack frame, not a data frame
		}
		if h.OnUpdate != nil {
			h.OnUpdate(env.Topic, env.Payload)
		}
	}
}

// SendCommand implements Adapter.
func (a *WSAdapter) SendCommand(payload []byte) error {
	a.commandMu.Lock()
	conn := a.commandConn
	a.commandMu.Unlock()
	if conn == nil {
		return fmt.Errorf("haltransport: command channel not connected")
	}
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	return conn.WriteMessage(websocket.BinaryMessage, payload)
}

// Subscribe implements Adapter.
func (a *WSAdapter) Subscribe(topic string) error {
	return a.sendUpdateControl(updateEnvelope{Subscribe: topic})
}

// Unsubscribe implements Adapter.
func (a *WSAdapter) Unsubscribe() error {
	return a.sendUpdateControl(updateEnvelope{Unsubscribe: true})
}

func (a *WSAdapter) sendUpdateControl(env updateEnvelope) error {
	a.updateMu.Lock()
	conn := a.updateConn
	a.updateMu.Unlock()
	if conn == nil {
		return fmt.Errorf("haltransport: update channel not connected")
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Disconnect implements Adapter. Lingering is disabled: both sockets are
// closed immediately, discarding anything unsent, and is safe to call more
// than once.
func (a *WSAdapter) Disconnect() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.commandMu.Lock()
	if a.commandConn != nil {
		a.commandConn.Close()
		a.commandConn = nil
	}
	a.commandMu.Unlock()

	a.updateMu.Lock()
	if a.updateConn != nil {
		a.updateConn.Close()
		a.updateConn = nil
	}
	a.updateMu.Unlock()
}
