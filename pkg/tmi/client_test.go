package tmi_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tmiclient/pkg/tmi"
)

func TestNewRequiresTransport(t *testing.T) {
	t.Parallel()

	_, err := tmi.New(tmi.DefaultConfig())
	assert.ErrorIs(t, err, tmi.ErrNoTransport)
}

func TestConnectHandshake(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cfg       func() tmi.Config
		wantLines []string
	}{
		{
			name: "Authenticated",
			cfg:  testConfig,
			wantLines: []string{
				"CAP REQ :twitch.tv/tags twitch.tv/commands twitch.tv/membership",
				"PASS oauth:secret",
				"NICK bot",
			},
		},
		{
			name: "Skip membership",
			cfg: func() tmi.Config {
				cfg := testConfig()
				cfg.Options.SkipMembership = true
				return cfg
			},
			wantLines: []string{
				"CAP REQ :twitch.tv/tags twitch.tv/commands",
				"PASS oauth:secret",
				"NICK bot",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, tt.cfg())

			done := make(chan error, 1)
			go func() {
				server, port, err := h.client.Connect(context.Background())
				if err == nil && (server != tmi.DefaultServer || port != 443) {
					err = errors.New("unexpected endpoint")
				}
				done <- err
			}()

			conn := h.server.next(t)
			for _, line := range tt.wantLines {
				assert.Equal(t, line, <-conn.out)
			}

			conn.send(":tmi.twitch.tv 001 bot :Welcome, GLHF!", ":tmi.twitch.tv 376 bot :>")
			require.NoError(t, <-done)

			waitFor[tmi.Connected](t, h.events, nil)
			assert.Equal(t, tmi.StateReady, h.client.State())
			assert.Equal(t, "OPEN", h.client.ReadyState())
			assert.Equal(t, "bot", h.client.Username())
		})
	}
}

func TestConnectAnonymous(t *testing.T) {
	t.Parallel()

	h := newHarness(t, tmi.DefaultConfig())

	go func() { _, _, _ = h.client.Connect(context.Background()) }()

	conn := h.server.next(t)
	assert.Equal(t, "CAP REQ :twitch.tv/tags twitch.tv/commands twitch.tv/membership", <-conn.out)
	assert.Equal(t, "PASS SCHMOOPIIE", <-conn.out)

	nick := strings.TrimPrefix(<-conn.out, "NICK ")
	assert.Regexp(t, `^justinfan\d+$`, nick)
}

func TestConnectTwice(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testConfig())
	h.connect(t)

	_, _, err := h.client.Connect(context.Background())
	assert.ErrorIs(t, err, tmi.ErrAlreadyConnected)
}

func TestConnectFatalLogin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		notice     string
		wantReason string
	}{
		{
			name:       "Authentication failed",
			notice:     ":tmi.twitch.tv NOTICE * :Login authentication failed",
			wantReason: "Login authentication failed",
		},
		{
			name:       "Improperly formatted auth",
			notice:     ":tmi.twitch.tv NOTICE * :Improperly formatted auth",
			wantReason: "Improperly formatted auth",
		},
		{
			name:       "Invalid NICK",
			notice:     ":tmi.twitch.tv NOTICE * :Invalid NICK",
			wantReason: "Invalid NICK.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, testConfig())

			done := make(chan error, 1)
			go func() {
				_, _, err := h.client.Connect(context.Background())
				done <- err
			}()

			conn := h.server.next(t)
			conn.expectPrefix(t, "NICK ")
			conn.send(tt.notice)

			var discErr *tmi.DisconnectError
			require.ErrorAs(t, <-done, &discErr)
			assert.Equal(t, tt.wantReason, discErr.Reason)

			ev := waitFor[tmi.Disconnected](t, h.events, nil)
			assert.Equal(t, tt.wantReason, ev.Reason)

			select {
			case <-h.server.conns:
				t.Fatal("client reconnected after a fatal login notice")
			case <-time.After(200 * time.Millisecond):
			}
			assert.Equal(t, tmi.StateDisconnected, h.client.State())
		})
	}
}

func TestCommandWhileDisconnected(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testConfig())
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{name: "Say", call: func() error { return h.client.Say(ctx, "#chan", "hello") }},
		{name: "Join", call: func() error { return h.client.Join(ctx, "chan") }},
		{name: "Ban", call: func() error { return h.client.Ban(ctx, "chan", "foo", "") }},
		{name: "Raw", call: func() error { return h.client.Raw(ctx, "PING") }},
		{name: "Ping", call: func() error {
			_, err := h.client.Ping(ctx)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			assert.ErrorIs(t, tt.call(), tmi.ErrNotConnected)
			assert.Less(t, time.Since(start), 100*time.Millisecond)
		})
	}
}

func TestDisconnect(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testConfig())
	h.connect(t)

	require.NoError(t, h.client.Disconnect(context.Background()))

	ev := waitFor[tmi.Disconnected](t, h.events, nil)
	assert.Equal(t, "Connection closed.", ev.Reason)
	assert.Equal(t, "CLOSED", h.client.ReadyState())

	select {
	case <-h.server.conns:
		t.Fatal("client reconnected after Disconnect")
	case <-time.After(100 * time.Millisecond):
	}

	assert.ErrorIs(t, h.client.Disconnect(context.Background()), tmi.ErrCannotDisconnect)
}

func TestReconnectAfterConnectionLoss(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Channels = []string{"Chan"}
	h := newHarness(t, cfg)
	h.connect(t)

	h.conn.expect(t, "JOIN #chan")
	h.conn.send(
		"@badges=;color=;display-name=bot;emote-sets=0;mod=0;subscriber=0;user-type= :tmi.twitch.tv USERSTATE #chan",
		"@emote-only=0;followers-only=-1;r9k=0;slow=0;subs-only=0 :tmi.twitch.tv ROOMSTATE #chan",
	)
	join := waitFor[tmi.Join](t, h.events, func(ev tmi.Join) bool { return ev.Self })
	assert.Equal(t, "#chan", join.Channel)

	_ = h.conn.Close()

	waitFor[tmi.Disconnected](t, h.events, nil)
	rc := waitFor[tmi.Reconnect](t, h.events, nil)
	assert.Equal(t, 1, rc.Attempt)
	assert.Empty(t, h.client.Channels())

	conn := h.server.next(t)
	h.welcome(t, conn)
	waitFor[tmi.Connected](t, h.events, nil)

	conn.expect(t, "JOIN #chan")
}

func TestServerReconnectRequest(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Connection.Reconnect = false
	cfg.Connection.ReconnectInterval = 200 * time.Millisecond
	cfg.Connection.MaxReconnectInterval = 200 * time.Millisecond
	h := newHarness(t, cfg)
	h.connect(t)

	h.conn.send(":tmi.twitch.tv RECONNECT")

	disc := waitFor[tmi.Disconnected](t, h.events, nil)
	assert.Equal(t, "Server requested reconnect.", disc.Reason)

	rec := waitFor[tmi.Reconnect](t, h.events, nil)
	assert.Equal(t, 1, rec.Attempt)
	assert.Equal(t, 200*time.Millisecond, rec.Delay)
	assert.Equal(t, tmi.StateReconnecting, h.client.State())

	conn := h.server.next(t)
	h.welcome(t, conn)
	waitFor[tmi.Connected](t, h.events, nil)
	assert.Equal(t, tmi.StateReady, h.client.State())
}

func TestMaxReconnectAttempts(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Connection.MaxReconnectAttempts = 2
	h := newHarness(t, cfg)
	h.server.dialErr = errors.New("connection refused")

	_, _, err := h.client.Connect(context.Background())
	var discErr *tmi.DisconnectError
	require.ErrorAs(t, err, &discErr)
	assert.Equal(t, "Unable to connect.", discErr.Reason)

	waitFor[tmi.MaxReconnect](t, h.events, nil)
	assert.Equal(t, 3, countSince[tmi.Disconnected](h.events, 0))
	assert.Equal(t, 2, countSince[tmi.Reconnect](h.events, 0))
}

func TestPingPong(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testConfig())
	h.connect(t)

	t.Run("Server ping", func(t *testing.T) {
		h.conn.send("PING :tmi.twitch.tv")
		h.conn.expect(t, "PONG :tmi.twitch.tv")
	})

	t.Run("Batched payload", func(t *testing.T) {
		h.conn.send("PING :a", "PING :b")
		h.conn.expect(t, "PONG :a")
		h.conn.expect(t, "PONG :b")
	})

	t.Run("Client ping", func(t *testing.T) {
		done := make(chan error, 1)
		go func() {
			_, err := h.client.Ping(context.Background())
			done <- err
		}()

		h.conn.expect(t, "PING")
		h.conn.send(":tmi.twitch.tv PONG tmi.twitch.tv :tmi.twitch.tv")

		require.NoError(t, <-done)
		waitFor[tmi.Pong](t, h.events, nil)
	})
}

func TestPingTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		interval time.Duration
		timeout  time.Duration
	}{
		{name: "Timeout shorter than interval", interval: 50 * time.Millisecond, timeout: 20 * time.Millisecond},
		{name: "Timeout longer than interval", interval: 30 * time.Millisecond, timeout: 40 * time.Millisecond},
		{name: "Timeout many intervals long", interval: 10 * time.Millisecond, timeout: 60 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig()
			cfg.Connection.PingInterval = tt.interval
			cfg.Connection.Timeout = tt.timeout
			h := newHarness(t, cfg)
			h.connect(t)

			h.conn.expect(t, "PING")

			disc := waitFor[tmi.Disconnected](t, h.events, nil)
			assert.Equal(t, "Ping timeout.", disc.Reason)
			rec := waitFor[tmi.Reconnect](t, h.events, nil)
			assert.Equal(t, 1, rec.Attempt)

			conn := h.server.next(t)
			h.welcome(t, conn)
			waitFor[tmi.Connected](t, h.events, nil)
		})
	}
}

func TestPongKeepsConnectionAlive(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Connection.PingInterval = 20 * time.Millisecond
	cfg.Connection.Timeout = 500 * time.Millisecond
	h := newHarness(t, cfg)
	h.connect(t)

	from := h.events.mark()
	for range 5 {
		h.conn.expect(t, "PING")
		h.conn.send(":tmi.twitch.tv PONG tmi.twitch.tv :tmi.twitch.tv")
		waitFor[tmi.Pong](t, h.events, nil)
	}

	assert.Zero(t, countSince[tmi.Disconnected](h.events, from))
	assert.Equal(t, tmi.StateReady, h.client.State())
}

func TestMalformedLinesAreDropped(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testConfig())
	h.connect(t)

	from := h.events.mark()
	h.conn.send("@tags-with-no-space", ":prefix-only", "")
	h.sync(t)

	// Only the sync PING is seen.
	assert.Equal(t, 1, countSince[tmi.RawMessage](h.events, from))
	assert.Equal(t, tmi.StateReady, h.client.State())
}
