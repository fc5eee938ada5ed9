package tmi

import (
	"fmt"
	"time"

	"tmiclient/pkg/irc"
)

const (
	DefaultServer = "irc-ws.chat.twitch.tv"
	tmiDomain     = "tmi.twitch.tv"

	minJoinInterval   = 300 * time.Millisecond
	minCommandTimeout = 600 * time.Millisecond
	latencyMargin     = 100 * time.Millisecond
	hostTimeout       = 2 * time.Second
	lineLimit         = 500
	continuationDelay = 350 * time.Millisecond
)

type Config struct {
	Connection ConnectionConfig
	Identity   IdentityConfig
	Channels   []string
	Options    ClientOptions
}

type ConnectionConfig struct {
	Server string
	Port   int
	Secure bool

	Reconnect            bool
	MaxReconnectAttempts int // 0 means unlimited
	ReconnectInterval    time.Duration
	MaxReconnectInterval time.Duration
	ReconnectDecay       float64

	PingInterval time.Duration
	Timeout      time.Duration
}

type IdentityConfig struct {
	Username string
	Password string
}

type ClientOptions struct {
	GlobalDefaultChannel  string
	SkipMembership        bool
	SkipUpdatingEmotesets bool
	UpdateEmotesetsTimer  time.Duration // 0 disables the periodic refresh
	JoinInterval          time.Duration
	MessagesLogLevel      string
}

func DefaultConfig() Config {
	return Config{
		Connection: ConnectionConfig{
			Reconnect:            true,
			ReconnectInterval:    time.Second,
			MaxReconnectInterval: 30 * time.Second,
			ReconnectDecay:       1.5,
			PingInterval:         time.Minute,
			Timeout:              9999 * time.Millisecond,
		},
		Options: ClientOptions{
			GlobalDefaultChannel: "#tmijs",
			UpdateEmotesetsTimer: time.Minute,
			JoinInterval:         2 * time.Second,
			MessagesLogLevel:     "info",
		},
	}
}

// normalize fills the values that have no meaningful zero and canonicalizes
// channel names.
func (cfg Config) normalize() Config {
	def := DefaultConfig()

	if cfg.Connection.ReconnectInterval <= 0 {
		cfg.Connection.ReconnectInterval = def.Connection.ReconnectInterval
	}
	if cfg.Connection.MaxReconnectInterval <= 0 {
		cfg.Connection.MaxReconnectInterval = def.Connection.MaxReconnectInterval
	}
	if cfg.Connection.ReconnectDecay <= 0 {
		cfg.Connection.ReconnectDecay = def.Connection.ReconnectDecay
	}
	if cfg.Connection.PingInterval <= 0 {
		cfg.Connection.PingInterval = def.Connection.PingInterval
	}
	if cfg.Connection.Timeout <= 0 {
		cfg.Connection.Timeout = def.Connection.Timeout
	}
	if cfg.Options.GlobalDefaultChannel == "" {
		cfg.Options.GlobalDefaultChannel = def.Options.GlobalDefaultChannel
	}
	cfg.Options.GlobalDefaultChannel = irc.Channel(cfg.Options.GlobalDefaultChannel)
	if cfg.Options.JoinInterval <= 0 {
		cfg.Options.JoinInterval = def.Options.JoinInterval
	}
	if cfg.Options.JoinInterval < minJoinInterval {
		cfg.Options.JoinInterval = minJoinInterval
	}
	if cfg.Options.MessagesLogLevel == "" {
		cfg.Options.MessagesLogLevel = def.Options.MessagesLogLevel
	}

	channels := make([]string, 0, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		channels = appendUnique(channels, irc.Channel(ch))
	}
	cfg.Channels = channels

	return cfg
}

// endpoint resolves server, port and scheme. Without an explicit server and
// port the connection is secure; a secure connection always uses 443.
func (c ConnectionConfig) endpoint() (server string, port int, secure bool) {
	server, port = c.Server, c.Port
	secure = c.Secure || (c.Server == "" && c.Port == 0)

	if server == "" {
		server = DefaultServer
	}
	if port == 0 {
		port = 80
	}
	if secure {
		port = 443
	}
	if port == 443 {
		secure = true
	}
	return server, port, secure
}

func websocketURL(server string, port int, secure bool) string {
	scheme := "ws"
	if secure {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s:%d/", scheme, server, port)
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
