package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreatesDefaultFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")

	m, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, "info", m.Get().App.LogLevel)
	assert.True(t, m.Get().Connection.Reconnect)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var onDisk Config
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Equal(t, m.Get().Options, onDisk.Options)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"channels":["foo"],"identity":{"username":"bot","password":"oauth:x"}}`), 0600))

	m, err := New(path)
	require.NoError(t, err)

	cfg := m.Get()
	assert.Equal(t, []string{"foo"}, cfg.Channels)
	assert.Equal(t, "bot", cfg.Identity.Username)
	assert.True(t, cfg.Connection.Reconnect)
	assert.Equal(t, 60, cfg.Options.UpdateEmotesetsTimer)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(cfg *Config)
		wantErr bool
	}{
		{name: "Defaults", modify: func(cfg *Config) {}},
		{name: "Bad log level", modify: func(cfg *Config) { cfg.App.LogLevel = "loud" }, wantErr: true},
		{name: "Bad gin mode", modify: func(cfg *Config) { cfg.App.GinMode = "fast" }, wantErr: true},
		{name: "Proxy without address", modify: func(cfg *Config) { cfg.Proxy = &Proxy{Port: 1080} }, wantErr: true},
		{name: "Proxy bad port", modify: func(cfg *Config) { cfg.Proxy = &Proxy{Address: "127.0.0.1", Port: 70000} }, wantErr: true},
		{name: "Proxy ok", modify: func(cfg *Config) { cfg.Proxy = &Proxy{Address: "127.0.0.1", Port: 1080} }},
		{name: "Username without password", modify: func(cfg *Config) { cfg.Identity.Username = "bot" }, wantErr: true},
		{name: "Empty channel", modify: func(cfg *Config) { cfg.Channels = []string{"#"} }, wantErr: true},
		{name: "Decay below one", modify: func(cfg *Config) { cfg.Connection.ReconnectDecay = 0.5 }, wantErr: true},
		{name: "Interval above max", modify: func(cfg *Config) { cfg.Connection.ReconnectInterval = 60000 }, wantErr: true},
		{name: "Negative emote timer", modify: func(cfg *Config) { cfg.Options.UpdateEmotesetsTimer = -1 }, wantErr: true},
		{name: "Bad messages level", modify: func(cfg *Config) { cfg.Options.MessagesLogLevel = "chatty" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := &Manager{}
			cfg := m.GetDefault()
			tt.modify(cfg)

			err := m.validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	m, err := New(path)
	require.NoError(t, err)

	require.NoError(t, m.Update(func(cfg *Config) {
		cfg.Channels = append(cfg.Channels, "#foo")
	}))

	err = m.Update(func(cfg *Config) { cfg.App.LogLevel = "loud" })
	require.Error(t, err)
	assert.Equal(t, "info", m.Get().App.LogLevel)

	reloaded, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"#foo"}, reloaded.Get().Channels)
}

func TestChannels(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"channels":["foo"]}`), 0600))
	m, err := New(path)
	require.NoError(t, err)

	tests := []struct {
		name    string
		modify  func() error
		want    []string
		wantErr bool
	}{
		{name: "Add", modify: func() error { return m.AddChannel("Bar") }, want: []string{"foo", "#bar"}},
		{name: "Add existing", modify: func() error { return m.AddChannel("#FOO") }, want: []string{"foo", "#bar"}},
		{name: "Remove entry saved without prefix", modify: func() error { return m.RemoveChannel("#foo") }, want: []string{"#bar"}},
		{name: "Remove missing", modify: func() error { return m.RemoveChannel("baz") }, want: []string{"#bar"}},
		{name: "Empty name is rejected", modify: func() error { return m.AddChannel("#") }, want: []string{"#bar"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.modify()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, m.Get().Channels)

			reloaded, err := New(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, reloaded.Get().Channels)
		})
	}
}

func TestReadInvalidFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"app":{"log_level":"loud"}}`), 0600))

	_, err := New(path)
	assert.Error(t, err)
}

func TestClientConfig(t *testing.T) {
	t.Parallel()

	m := &Manager{}
	cfg := m.GetDefault()
	cfg.Identity = Identity{Username: "bot", Password: "oauth:x"}
	cfg.Channels = []string{"foo"}

	got := cfg.ClientConfig()
	assert.Equal(t, time.Second, got.Connection.ReconnectInterval)
	assert.Equal(t, 30*time.Second, got.Connection.MaxReconnectInterval)
	assert.Equal(t, time.Minute, got.Connection.PingInterval)
	assert.Equal(t, 9999*time.Millisecond, got.Connection.Timeout)
	assert.Equal(t, time.Minute, got.Options.UpdateEmotesetsTimer)
	assert.Equal(t, 2*time.Second, got.Options.JoinInterval)
	assert.Equal(t, "bot", got.Identity.Username)
	assert.Equal(t, []string{"foo"}, got.Channels)
}
