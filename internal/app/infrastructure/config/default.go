package config

func (m *Manager) GetDefault() *Config {
	return &Config{
		App: App{
			LogLevel:    "info",
			GinMode:     "release",
			MetricsAddr: ":9090",
		},
		Connection: Connection{
			Reconnect:            true,
			ReconnectInterval:    1000,
			MaxReconnectInterval: 30000,
			ReconnectDecay:       1.5,
			PingIntervalSecs:     60,
			Timeout:              9999,
		},
		Channels: []string{},
		Options: Options{
			GlobalDefaultChannel: "#tmijs",
			UpdateEmotesetsTimer: 60,
			JoinInterval:         2000,
			MessagesLogLevel:     "info",
		},
	}
}
