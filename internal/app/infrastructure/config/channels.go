package config

import (
	"slices"

	"tmiclient/pkg/irc"
)

// AddChannel appends channel to the saved list unless it is already there.
func (m *Manager) AddChannel(channel string) error {
	channel = irc.Channel(channel)

	return m.Update(func(cfg *Config) {
		if !slices.ContainsFunc(cfg.Channels, sameChannel(channel)) {
			cfg.Channels = append(cfg.Channels, channel)
		}
	})
}

func (m *Manager) RemoveChannel(channel string) error {
	channel = irc.Channel(channel)

	return m.Update(func(cfg *Config) {
		cfg.Channels = slices.DeleteFunc(cfg.Channels, sameChannel(channel))
	})
}

func sameChannel(channel string) func(string) bool {
	return func(ch string) bool { return irc.Channel(ch) == channel }
}
