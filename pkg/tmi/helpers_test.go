package tmi_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tmiclient/internal/app/ports"
	"tmiclient/pkg/logger"
	"tmiclient/pkg/tmi"
)

const waitTimeout = 3 * time.Second

var errConnClosed = errors.New("use of closed connection")

// fakeServer is an in-memory transport. Each Dial hands a new connection to
// the test through conns.
type fakeServer struct {
	conns   chan *fakeConn
	dialErr error
}

func newFakeServer() *fakeServer {
	return &fakeServer{conns: make(chan *fakeConn, 8)}
}

func (s *fakeServer) Dial(_ context.Context, _ string) (ports.ConnPort, error) {
	if s.dialErr != nil {
		return nil, s.dialErr
	}

	conn := &fakeConn{
		in:     make(chan string, 64),
		out:    make(chan string, 1024),
		closed: make(chan struct{}),
	}
	s.conns <- conn
	return conn, nil
}

func (s *fakeServer) next(t *testing.T) *fakeConn {
	t.Helper()

	select {
	case conn := <-s.conns:
		return conn
	case <-time.After(waitTimeout):
		t.Fatal("client did not dial")
		return nil
	}
}

type fakeConn struct {
	in     chan string
	out    chan string
	closed chan struct{}
	once   sync.Once
}

func (c *fakeConn) ReadMessage() (string, error) {
	select {
	case text := <-c.in:
		return text, nil
	case <-c.closed:
		return "", io.EOF
	}
}

func (c *fakeConn) WriteMessage(text string) error {
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}
	c.out <- text
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// send delivers one payload from the server.
func (c *fakeConn) send(lines ...string) {
	c.in <- strings.Join(lines, "\r\n")
}

// expect skips written lines until want shows up.
func (c *fakeConn) expect(t *testing.T, want string) {
	t.Helper()

	deadline := time.After(waitTimeout)
	for {
		select {
		case line := <-c.out:
			if line == want {
				return
			}
		case <-deadline:
			t.Fatalf("client did not write %q", want)
		}
	}
}

// expectPrefix returns the next written line starting with prefix.
func (c *fakeConn) expectPrefix(t *testing.T, prefix string) string {
	t.Helper()

	deadline := time.After(waitTimeout)
	for {
		select {
		case line := <-c.out:
			if strings.HasPrefix(line, prefix) {
				return line
			}
		case <-deadline:
			t.Fatalf("client did not write a line starting with %q", prefix)
			return ""
		}
	}
}

// recorder keeps every event in order. Tests consume them with waitFor.
type recorder struct {
	mu     sync.Mutex
	events []tmi.Event
	cursor int
	notify chan struct{}
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan struct{}, 1)}
}

func (r *recorder) handle(ev tmi.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// mark returns the position of the next event.
func (r *recorder) mark() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func waitFor[T tmi.Event](t *testing.T, r *recorder, match func(T) bool) T {
	t.Helper()

	deadline := time.After(waitTimeout)
	for {
		r.mu.Lock()
		for r.cursor < len(r.events) {
			ev := r.events[r.cursor]
			r.cursor++
			if v, ok := ev.(T); ok && (match == nil || match(v)) {
				r.mu.Unlock()
				return v
			}
		}
		r.mu.Unlock()

		select {
		case <-r.notify:
		case <-deadline:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

// countSince counts events of type T emitted at or after from.
func countSince[T tmi.Event](r *recorder, from int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, ev := range r.events[from:] {
		if _, ok := ev.(T); ok {
			n++
		}
	}
	return n
}

func testConfig() tmi.Config {
	cfg := tmi.DefaultConfig()
	cfg.Identity = tmi.IdentityConfig{Username: "bot", Password: "oauth:secret"}
	cfg.Connection.ReconnectInterval = 10 * time.Millisecond
	cfg.Connection.MaxReconnectInterval = 50 * time.Millisecond
	return cfg
}

func quietLogger() logger.Logger {
	return logger.New(logger.WithLevel("fatal"), logger.WithWriter(io.Discard))
}

type harness struct {
	client *tmi.Client
	server *fakeServer
	conn   *fakeConn
	events *recorder
	nick   string
}

func newHarness(t *testing.T, cfg tmi.Config, opts ...tmi.Option) *harness {
	t.Helper()

	h := &harness{server: newFakeServer(), events: newRecorder()}
	opts = append([]tmi.Option{tmi.WithTransport(h.server), tmi.WithLogger(quietLogger())}, opts...)

	client, err := tmi.New(cfg, opts...)
	require.NoError(t, err)
	client.OnEvent(h.events.handle)
	t.Cleanup(func() { _ = client.Close() })

	h.client = client
	return h
}

// connect runs the handshake up to the welcome message.
func (h *harness) connect(t *testing.T) {
	t.Helper()

	done := make(chan error, 1)
	go func() {
		_, _, err := h.client.Connect(context.Background())
		done <- err
	}()

	h.conn = h.server.next(t)
	h.welcome(t, h.conn)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(waitTimeout):
		t.Fatal("Connect did not return")
	}
	waitFor[tmi.Connected](t, h.events, nil)
}

func (h *harness) welcome(t *testing.T, conn *fakeConn) {
	t.Helper()

	h.nick = strings.TrimPrefix(conn.expectPrefix(t, "NICK "), "NICK ")
	conn.send(
		":tmi.twitch.tv 001 "+h.nick+" :Welcome, GLHF!",
		":tmi.twitch.tv 376 "+h.nick+" :>",
	)
}

// sync round-trips a server PING so every line sent before it has been
// dispatched.
func (h *harness) sync(t *testing.T) {
	t.Helper()

	h.conn.send("PING :sync")
	h.conn.expect(t, "PONG :sync")
	waitFor[tmi.Ping](t, h.events, nil)
}
