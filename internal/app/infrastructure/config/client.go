package config

import (
	"time"

	"tmiclient/pkg/tmi"
)

// ClientConfig converts the file representation into the chat client's
// configuration.
func (c *Config) ClientConfig() tmi.Config {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }

	return tmi.Config{
		Connection: tmi.ConnectionConfig{
			Server:               c.Connection.Server,
			Port:                 c.Connection.Port,
			Secure:               c.Connection.Secure,
			Reconnect:            c.Connection.Reconnect,
			MaxReconnectAttempts: c.Connection.MaxReconnectAttempts,
			ReconnectInterval:    ms(c.Connection.ReconnectInterval),
			MaxReconnectInterval: ms(c.Connection.MaxReconnectInterval),
			ReconnectDecay:       c.Connection.ReconnectDecay,
			PingInterval:         time.Duration(c.Connection.PingIntervalSecs) * time.Second,
			Timeout:              ms(c.Connection.Timeout),
		},
		Identity: tmi.IdentityConfig{
			Username: c.Identity.Username,
			Password: c.Identity.Password,
		},
		Channels: append([]string(nil), c.Channels...),
		Options: tmi.ClientOptions{
			GlobalDefaultChannel:  c.Options.GlobalDefaultChannel,
			SkipMembership:        c.Options.SkipMembership,
			SkipUpdatingEmotesets: c.Options.SkipUpdatingEmotesets,
			UpdateEmotesetsTimer:  time.Duration(c.Options.UpdateEmotesetsTimer) * time.Second,
			JoinInterval:          ms(c.Options.JoinInterval),
			MessagesLogLevel:      c.Options.MessagesLogLevel,
		},
	}
}
