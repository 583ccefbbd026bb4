package broadcast

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/yggdrasil/internal/metrics"
)

const (
	writeDeadline = 5 * time.Second
	pingInterval  = 30 * time.Second
	pongDeadline  = 60 * time.Second
)

var errTransportClosed = errors.New("websocket transport closed")

// WebSocketTransport writes session messages to a gorilla WebSocket connection.
//
// Send is meant for a single writer goroutine (the session). A read pump consumes client frames so that
// control frames are processed, and a pinger keeps intermediaries from dropping idle connections.
// Either one failing cancels the context handed to Start.
type WebSocketTransport struct {
	connection  *websocket.Conn
	clock       clockwork.Clock
	doneChannel chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// NewWebSocketTransport wraps an upgraded connection.
func NewWebSocketTransport(connection *websocket.Conn, clock clockwork.Clock) *WebSocketTransport {
	return &WebSocketTransport{
		connection:  connection,
		clock:       clock,
		doneChannel: make(chan struct{}),
	}
}

// Start launches the read pump and pinger. It returns a context that is cancelled when the
// client goes away (read error, failed ping) or the transport is closed.
func (t *WebSocketTransport) Start(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	t.configurePongHandler()

	t.wg.Add(2)
	go t.readPump(cancel)
	go t.pingLoop(cancel)

	go func() {
		select {
		case <-t.doneChannel:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx
}

// Send writes one text frame.
func (t *WebSocketTransport) Send(data []byte) error {
	select {
	case <-t.doneChannel:
		return errTransportClosed
	default:
	}

	start := t.clock.Now()
	t.updateWriteDeadline()
	if err := t.connection.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	metrics.WebSocketMessageSendDuration.Observe(t.clock.Since(start).Seconds())
	return nil
}

// Close stops the helper goroutines, sends a close frame and closes the connection.
func (t *WebSocketTransport) Close() {
	t.stopOnce.Do(func() {
		close(t.doneChannel)

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = t.connection.WriteControl(websocket.CloseMessage, closeMsg, t.clock.Now().Add(writeDeadline))

		// Unblocks the read pump.
		_ = t.connection.Close()
	})
	t.wg.Wait()
}

func (t *WebSocketTransport) readPump(cancel context.CancelFunc) {
	defer t.wg.Done()
	defer cancel()

	for {
		if _, _, err := t.connection.ReadMessage(); err != nil {
			return
		}
	}
}

func (t *WebSocketTransport) pingLoop(cancel context.CancelFunc) {
	ticker := t.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer t.wg.Done()

	for {
		select {
		case <-ticker.Chan():
			deadline := t.clock.Now().Add(writeDeadline)
			if err := t.connection.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				metrics.WebSocketPingFailures.Inc()
				cancel()
				return
			}
		case <-t.doneChannel:
			return
		}
	}
}

func (t *WebSocketTransport) configurePongHandler() {
	t.updateReadDeadline()
	t.connection.SetPongHandler(func(string) error {
		t.updateReadDeadline()
		return nil
	})
}

func (t *WebSocketTransport) updateWriteDeadline() {
	_ = t.connection.SetWriteDeadline(t.clock.Now().Add(writeDeadline))
}

func (t *WebSocketTransport) updateReadDeadline() {
	_ = t.connection.SetReadDeadline(t.clock.Now().Add(pongDeadline))
}
