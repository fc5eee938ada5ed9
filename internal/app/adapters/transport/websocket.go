package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tmiclient/internal/app/ports"
	"tmiclient/pkg/logger"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 5 * time.Second
	closeGrace       = time.Second
)

// WebSocket dials chat servers over websocket with the "irc" subprotocol.
type WebSocket struct {
	log          logger.Logger
	dialer       *websocket.Dialer
	writeTimeout time.Duration
}

type Option func(*WebSocket)

// WithWriteTimeout bounds each frame write. The chat client writes while
// holding its lock, so this is also the longest a stalled socket can block it.
func WithWriteTimeout(d time.Duration) Option {
	return func(w *WebSocket) {
		if d > 0 {
			w.writeTimeout = d
		}
	}
}

// NewWebSocket reuses the dialer of client's transport, so a SOCKS5 proxy set
// up for HTTP applies to the socket too.
func NewWebSocket(log logger.Logger, client *http.Client, opts ...Option) *WebSocket {
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
		Subprotocols:     []string{"irc"},
	}

	if client != nil {
		if tr, ok := client.Transport.(*http.Transport); ok && tr.DialContext != nil {
			dialer.NetDialContext = tr.DialContext
			dialer.Proxy = tr.Proxy
		}
	}

	w := &WebSocket{log: log, dialer: dialer, writeTimeout: writeTimeout}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *WebSocket) Dial(ctx context.Context, url string) (ports.ConnPort, error) {
	w.log.Debug("Dialing websocket", slog.String("url", url))

	ws, resp, err := w.dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			if err := resp.Body.Close(); err != nil {
				w.log.Error("Failed to close response body", err)
			}
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	return &Conn{ws: ws, writeTimeout: w.writeTimeout}, nil
}

// Conn adapts a websocket connection to text frames. Writes are serialized;
// a single goroutine is expected to read.
type Conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func (c *Conn) ReadMessage() (string, error) {
	for {
		typ, data, err := c.ws.ReadMessage()
		if err != nil {
			return "", err
		}
		if typ == websocket.TextMessage || typ == websocket.BinaryMessage {
			return string(data), nil
		}
	}
}

func (c *Conn) WriteMessage(text string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, []byte(text))
}

// Close sends a close frame and closes the socket. The pending read fails.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		// WriteControl may run concurrently with WriteMessage.
		_ = c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeGrace),
		)

		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// Subprotocol returns the protocol negotiated during the handshake.
func (c *Conn) Subprotocol() string {
	return c.ws.Subprotocol()
}
