// Package tmi is a Twitch chat client: it owns the websocket session, turns
// server lines into typed events and correlates commands with their replies.
package tmi

import (
	"context"
	"strings"
	"sync"
	"time"

	"tmiclient/internal/app/ports"
	"tmiclient/pkg/irc"
	"tmiclient/pkg/logger"
)

type State uint8

const (
	StateDisconnected State = iota
	StateConnecting
	StateAwaitingWelcome
	StateReady
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAwaitingWelcome:
		return "awaiting_welcome"
	case StateReady:
		return "ready"
	case StateReconnecting:
		return "reconnecting"
	}
	return "disconnected"
}

type Option func(*Client)

func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = logger.NewPrefixedLogger(l, "tmi") }
}

func WithTransport(t ports.TransportPort) Option {
	return func(c *Client) { c.transport = t }
}

func WithEmoteSets(api ports.EmoteSetsPort) Option {
	return func(c *Client) { c.emoteAPI = api }
}

func WithMetrics(m ports.MetricsPort) Option {
	return func(c *Client) { c.metrics = m }
}

// WithPasswordFunc supplies the token on every connection attempt instead of
// the static Identity.Password.
func WithPasswordFunc(fn func(ctx context.Context) (string, error)) Option {
	return func(c *Client) { c.passwordFn = fn }
}

type Client struct {
	cfg        Config
	log        logger.Logger
	transport  ports.TransportPort
	emoteAPI   ports.EmoteSetsPort
	metrics    ports.MetricsPort
	passwordFn func(ctx context.Context) (string, error)
	msgLevel   string

	events *emitter
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	state  State
	conn   ports.ConnPort
	// epoch changes whenever a connection is opened or lost. Readers and
	// timer callbacks carry the epoch they were started with and give up
	// when it no longer matches.
	epoch          uint64
	closing        bool
	wasCloseCalled bool
	reconnect      bool
	reason         string

	server string
	port   int
	secure bool

	backoff         *backoff
	reconnections   int
	reconnecting    bool
	serverReconnect bool

	sess    *session
	rejoin  []string
	pending map[pendingKey]*Pending

	latency  time.Duration
	pingSent time.Time

	pingLoop       *time.Timer
	pingTimeout    *time.Timer
	reconnectTimer *time.Timer
	emotesTimer    *time.Timer
	continuations  map[*time.Timer]struct{}
	joinCancel     context.CancelFunc

	connectWaiters    []chan error
	disconnectWaiters []chan struct{}
}

func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.normalize()

	c := &Client{
		cfg:       cfg,
		log:       logger.NewPrefixedLogger(logger.New(logger.WithLevel("error")), "tmi"),
		metrics:   nopMetrics{},
		msgLevel:  cfg.Options.MessagesLogLevel,
		reconnect: cfg.Connection.Reconnect,
		backoff: newBackoff(
			cfg.Connection.ReconnectInterval,
			cfg.Connection.MaxReconnectInterval,
			cfg.Connection.ReconnectDecay,
		),
		sess:          newSession(),
		pending:       make(map[pendingKey]*Pending),
		continuations: make(map[*time.Timer]struct{}),
	}
	c.server, c.port, c.secure = cfg.Connection.endpoint()

	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		return nil, ErrNoTransport
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.events = newEmitter()

	return c, nil
}

// OnEvent registers a handler. Handlers run one at a time, in emission
// order, on a goroutine owned by the client.
func (c *Client) OnEvent(h Handler) {
	c.events.subscribe(h)
}

// Connect opens the socket and blocks until the server's welcome, a failure
// of this attempt, or ctx. It returns the server and port in use.
func (c *Client) Connect(ctx context.Context) (string, int, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", 0, ErrClientClosed
	}
	if c.conn != nil || c.state == StateConnecting {
		c.mu.Unlock()
		return "", 0, ErrAlreadyConnected
	}

	wait := make(chan error, 1)
	c.connectWaiters = append(c.connectWaiters, wait)
	c.stopTimer(&c.reconnectTimer)
	c.reconnecting = false
	c.startConnectLocked()
	server, port := c.server, c.port
	c.mu.Unlock()

	select {
	case err := <-wait:
		if err != nil {
			return "", 0, err
		}
		return server, port, nil
	case <-ctx.Done():
		return "", 0, ctx.Err()
	}
}

func (c *Client) startConnectLocked() {
	c.server, c.port, c.secure = c.cfg.Connection.endpoint()
	c.backoff.Next()

	c.epoch++
	c.setStateLocked(StateConnecting)

	go c.dial(c.epoch, websocketURL(c.server, c.port, c.secure))
}

func (c *Client) dial(epoch uint64, url string) {
	conn, err := c.transport.Dial(c.ctx, url)

	c.mu.Lock()
	if epoch != c.epoch || c.closed {
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		c.log.Error("Unable to connect", err, "url", url)
		c.reason = "Unable to connect."
		c.connectionLostLocked(nil)
		c.mu.Unlock()
		return
	}

	c.conn = conn
	c.setStateLocked(StateAwaitingWelcome)
	c.sess.username = irc.Username(c.cfg.Identity.Username)
	if c.sess.username == "" {
		c.sess.username = irc.Justinfan()
	}
	username := c.sess.username

	c.log.Info("Connecting to server", "server", c.server, "port", c.port)
	c.emit(Connecting{Server: c.server, Port: c.port})
	c.mu.Unlock()

	go c.readLoop(epoch, conn)

	token, err := c.token(c.ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return
	}
	if err != nil {
		c.log.Error("Could not get a token", err)
		c.reason = "Could not get a token."
		c.closeConnLocked()
		return
	}

	c.log.Info("Sending authentication to server...")
	c.emit(Logon{})

	caps := []string{"twitch.tv/tags", "twitch.tv/commands"}
	if !c.cfg.Options.SkipMembership {
		caps = append(caps, "twitch.tv/membership")
	}
	c.writeLocked(irc.CapReq(caps...))

	if password := irc.Password(token); password != "" {
		c.writeLocked(irc.Pass(password))
	} else if irc.IsJustinfan(username) {
		c.writeLocked(irc.Pass("SCHMOOPIIE"))
	}
	c.writeLocked(irc.Nick(username))
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.passwordFn != nil {
		return c.passwordFn(ctx)
	}
	return c.cfg.Identity.Password, nil
}

func (c *Client) readLoop(epoch uint64, conn ports.ConnPort) {
	for {
		text, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if epoch == c.epoch {
				if !c.closing && c.reason == "" {
					c.log.Debug("Read failed", "error", err)
				}
				c.connectionLostLocked(conn)
			}
			c.mu.Unlock()
			return
		}

		for _, line := range strings.Split(strings.TrimSpace(text), "\r\n") {
			c.handleLine(epoch, line)
		}
	}
}

func (c *Client) handleLine(epoch uint64, line string) {
	if line == "" {
		return
	}

	msg, err := irc.Parse(line)
	if err != nil {
		c.metrics.IncParseFailure()
		c.log.Debug("Dropping malformed line", "line", line, "error", err)
		return
	}
	msg.Tags = irc.NormalizeTags(msg.Tags)

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		return
	}

	c.log.Trace("Received line", "line", line)
	c.metrics.IncLine(msg.Command)
	c.emit(RawMessage{Message: msg})
	c.dispatch(msg)
}

// connectionLostLocked tears the session down after the socket closed or
// could not be opened, then applies the reconnect policy.
func (c *Client) connectionLostLocked(conn ports.ConnPort) {
	c.epoch++
	if conn != nil {
		_ = conn.Close()
	}
	c.conn = nil
	c.closing = false

	c.rejoin = mergeChannels(c.rejoin, c.sess.reset())
	c.stopTimer(&c.pingLoop)
	c.stopTimer(&c.pingTimeout)
	c.stopTimer(&c.emotesTimer)
	c.stopContinuationsLocked()
	if c.joinCancel != nil {
		c.joinCancel()
		c.joinCancel = nil
	}
	c.failPendingLocked(ErrDisconnected)
	c.metrics.SetChannels(0)

	if c.wasCloseCalled {
		c.wasCloseCalled = false
		c.serverReconnect = false
		c.reason = ""
		reason := "Connection closed."
		c.log.Info(reason)
		c.setStateLocked(StateDisconnected)
		c.settleConnectLocked(&DisconnectError{Reason: reason})
		for _, w := range c.disconnectWaiters {
			close(w)
		}
		c.disconnectWaiters = nil
		c.emit(Disconnected{Reason: reason})
		return
	}

	reason := c.reason
	if reason == "" {
		reason = "Connection closed."
	}
	c.reason = ""

	c.setStateLocked(StateDisconnected)
	c.settleConnectLocked(&DisconnectError{Reason: reason})
	c.emit(Disconnected{Reason: reason})

	// A RECONNECT from the server is honoured even with reconnect disabled.
	if c.serverReconnect {
		c.serverReconnect = false
		if !c.closed && !c.reconnecting {
			c.log.Info("Reconnecting on server request", "delay", c.backoff.Current())
			c.armReconnectLocked()
		}
		return
	}
	c.scheduleReconnectLocked()
}

func (c *Client) scheduleReconnectLocked() {
	if !c.reconnect || c.closed || c.reconnecting {
		return
	}

	limit := c.cfg.Connection.MaxReconnectAttempts
	if limit > 0 && c.reconnections >= limit {
		c.log.Error("Maximum reconnection attempts reached.", nil)
		c.emit(MaxReconnect{})
		return
	}

	c.log.Error("Could not connect to server. Reconnecting", nil, "delay", c.backoff.Current(), "attempt", c.reconnections+1)
	c.armReconnectLocked()
}

func (c *Client) armReconnectLocked() {
	c.reconnecting = true
	c.reconnections++
	delay := c.backoff.Current()

	c.metrics.IncReconnect()
	c.setStateLocked(StateReconnecting)
	c.emit(Reconnect{Attempt: c.reconnections, Delay: delay})

	c.stopTimer(&c.reconnectTimer)
	c.reconnectTimer = time.AfterFunc(delay, c.reconnectNow)
}

func (c *Client) reconnectNow() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reconnecting = false
	if c.closed || c.conn != nil || c.state == StateConnecting {
		return
	}
	c.startConnectLocked()
}

// Disconnect closes the socket on the caller's request; no reconnection
// follows. It waits until the close has been processed.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn == nil || c.closing {
		c.mu.Unlock()
		c.log.Error("Cannot disconnect from server", ErrCannotDisconnect)
		return ErrCannotDisconnect
	}

	c.wasCloseCalled = true
	c.closing = true
	wait := make(chan struct{})
	c.disconnectWaiters = append(c.disconnectWaiters, wait)
	conn := c.conn
	c.mu.Unlock()

	c.log.Info("Disconnecting from server..")
	_ = conn.Close()

	select {
	case <-wait:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects if needed, cancels every timer and stops event
// delivery. The client cannot be reused. Close must not be called from an
// event handler.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.stopTimer(&c.reconnectTimer)
	c.stopContinuationsLocked()

	var wait chan struct{}
	conn := c.conn
	if conn != nil && !c.closing {
		c.wasCloseCalled = true
		c.closing = true
		wait = make(chan struct{})
		c.disconnectWaiters = append(c.disconnectWaiters, wait)
	}
	if conn == nil {
		c.epoch++
		c.settleConnectLocked(ErrClientClosed)
		c.setStateLocked(StateDisconnected)
	}
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if wait != nil {
		select {
		case <-wait:
		case <-time.After(5 * time.Second):
		}
	}

	c.cancel()
	c.events.close()
	return nil
}

// closeConnLocked closes the socket as an unexpected loss: the read loop
// observes the close and the reconnect policy applies.
func (c *Client) closeConnLocked() {
	if c.conn == nil || c.closing {
		return
	}
	c.wasCloseCalled = false
	c.closing = true
	_ = c.conn.Close()
}

// writeLocked holds c.mu for the whole write, so a stalled socket blocks
// the client until the transport's write deadline expires. Lines stay in
// order and never interleave with a close.
func (c *Client) writeLocked(line string) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	if err := c.conn.WriteMessage(line); err != nil {
		c.log.Error("Write failed", err)
		return err
	}
	return nil
}

func (c *Client) connectedLocked() bool {
	return c.conn != nil && !c.closing
}

func (c *Client) settleConnectLocked(err error) {
	for _, w := range c.connectWaiters {
		w <- err
	}
	c.connectWaiters = nil
}

func (c *Client) setStateLocked(s State) {
	c.state = s
	c.metrics.SetState(s.String())
}

func (c *Client) emit(ev Event) {
	c.events.emit(ev)
}

func (c *Client) stopTimer(t **time.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func (c *Client) stopContinuationsLocked() {
	for t := range c.continuations {
		t.Stop()
		delete(c.continuations, t)
	}
}

// onWelcome handles 376: the handshake is complete.
func (c *Client) onWelcomeLocked() {
	c.log.Info("Connected to server.")

	c.sess.userstate[c.cfg.Options.GlobalDefaultChannel] = irc.Tags{}
	c.setStateLocked(StateReady)
	c.reconnections = 0
	c.backoff.Reset()

	c.emit(Connected{Server: c.server, Port: c.port})
	c.settleConnectLocked(nil)

	c.armPingLoopLocked(c.epoch)

	channels := mergeChannels(c.cfg.Channels, c.rejoin)
	c.rejoin = nil
	if len(channels) > 0 {
		ctx, cancel := context.WithCancel(c.ctx)
		c.joinCancel = cancel
		go c.runJoinQueue(ctx, channels)
	}
}

func (c *Client) armPingLoopLocked(epoch uint64) {
	c.pingLoop = time.AfterFunc(c.cfg.Connection.PingInterval, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if epoch != c.epoch {
			return
		}
		if c.connectedLocked() {
			_ = c.writeLocked(irc.Ping())
		}
		c.pingSent = time.Now()
		c.armPingTimeoutLocked(epoch)
		c.armPingLoopLocked(epoch)
	})
}

// armPingTimeoutLocked starts the pong deadline unless one is already
// running; later pings never push it back.
func (c *Client) armPingTimeoutLocked(epoch uint64) {
	if c.pingTimeout != nil {
		return
	}
	c.pingTimeout = time.AfterFunc(c.cfg.Connection.Timeout, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if epoch != c.epoch || c.conn == nil {
			return
		}
		c.log.Error("Ping timeout.", nil)
		c.reason = "Ping timeout."
		c.stopTimer(&c.pingLoop)
		c.closeConnLocked()
	})
}

func (c *Client) failPendingLocked(err error) {
	for key, p := range c.pending {
		delete(c.pending, key)
		c.finish(p, Reply{}, err)
	}
}

func mergeChannels(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	for _, ch := range a {
		out = appendUnique(out, ch)
	}
	for _, ch := range b {
		out = appendUnique(out, ch)
	}
	return out
}

// Queries.

func (c *Client) Username() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.username
}

func (c *Client) Channels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sess.channels...)
}

func (c *Client) IsMod(channel, username string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.isMod(irc.Channel(channel), irc.Username(username))
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) Latency() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latency
}

func (c *Client) EmoteSets() ports.EmoteSets {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.emoteSets
}

// ReadyState mirrors the websocket ready states.
func (c *Client) ReadyState() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.state == StateConnecting:
		return "CONNECTING"
	case c.conn == nil:
		return "CLOSED"
	case c.closing:
		return "CLOSING"
	}
	return "OPEN"
}

type nopMetrics struct{}

func (nopMetrics) SetState(string)                              {}
func (nopMetrics) IncReconnect()                                {}
func (nopMetrics) IncLine(string)                               {}
func (nopMetrics) IncParseFailure()                             {}
func (nopMetrics) ObserveCommand(string, string, time.Duration) {}
func (nopMetrics) ObserveLatency(time.Duration)                 {}
func (nopMetrics) SetChannels(int)                              {}
