package config

import (
	"errors"
	"fmt"
	"strings"
)

var validLevels = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}

func (m *Manager) validate(cfg *Config) error {
	// app
	if cfg.App.LogLevel != "" && !validLevels[cfg.App.LogLevel] {
		return fmt.Errorf("app.log_level must be one of trace, debug, info, warn, error; got %s", cfg.App.LogLevel)
	}
	if cfg.App.GinMode != "" && cfg.App.GinMode != "debug" && cfg.App.GinMode != "release" && cfg.App.GinMode != "test" {
		return fmt.Errorf("app.gin_mode must be debug, release or test; got %s", cfg.App.GinMode)
	}

	// proxy
	if cfg.Proxy != nil {
		if cfg.Proxy.Address == "" {
			return errors.New("proxy.address is required when proxy is set")
		}
		if cfg.Proxy.Port <= 0 || cfg.Proxy.Port > 65535 {
			return errors.New("proxy.port must be [1,65535]")
		}
	}

	// connection
	c := cfg.Connection
	if c.Port < 0 || c.Port > 65535 {
		return errors.New("connection.port must be [0,65535]")
	}
	if c.MaxReconnectAttempts < 0 {
		return errors.New("connection.max_reconnect_attempts must be >= 0")
	}
	if c.ReconnectInterval < 0 || c.MaxReconnectInterval < 0 {
		return errors.New("connection reconnect intervals must be >= 0")
	}
	if c.ReconnectInterval > 0 && c.MaxReconnectInterval > 0 && c.ReconnectInterval > c.MaxReconnectInterval {
		return errors.New("connection.reconnect_interval must not exceed connection.max_reconnect_interval")
	}
	if c.ReconnectDecay != 0 && c.ReconnectDecay < 1 {
		return errors.New("connection.reconnect_decay must be >= 1")
	}
	if c.PingIntervalSecs < 0 || c.Timeout < 0 {
		return errors.New("connection.ping_interval and connection.timeout must be >= 0")
	}

	// identity
	if (cfg.Identity.Username == "") != (cfg.Identity.Password == "") {
		return errors.New("identity.username and identity.password must both be set or both be empty")
	}

	// channels
	for _, ch := range cfg.Channels {
		if strings.TrimLeft(strings.TrimSpace(ch), "#") == "" {
			return errors.New("channels must not contain empty names")
		}
	}
	if cfg.Channels == nil {
		cfg.Channels = []string{}
	}

	// options
	if cfg.Options.UpdateEmotesetsTimer < 0 {
		return errors.New("options.update_emotesets_timer must be >= 0")
	}
	if cfg.Options.JoinInterval < 0 {
		return errors.New("options.join_interval must be >= 0")
	}
	if cfg.Options.MessagesLogLevel != "" && !validLevels[cfg.Options.MessagesLogLevel] {
		return fmt.Errorf("options.messages_log_level must be one of trace, debug, info, warn, error; got %s", cfg.Options.MessagesLogLevel)
	}

	return nil
}
