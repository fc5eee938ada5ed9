package config

type Config struct {
	App        App        `json:"app"`
	Proxy      *Proxy     `json:"proxy"`
	Connection Connection `json:"connection"`
	Identity   Identity   `json:"identity"`
	Channels   []string   `json:"channels"`
	Options    Options    `json:"options"`
}

type App struct {
	LogLevel    string `json:"log_level"`
	LogFile     string `json:"log_file"`
	GinMode     string `json:"gin_mode"`
	MetricsAddr string `json:"metrics_addr"` // empty disables the HTTP server
	AuthToken   string `json:"auth_token"`
	ClientID    string `json:"client_id"`
	EmoteCache  string `json:"emote_cache"`
}

type Proxy struct {
	Address  string `json:"address"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type Connection struct {
	Server string `json:"server"`
	Port   int    `json:"port"`
	Secure bool   `json:"secure"`

	Reconnect            bool    `json:"reconnect"`
	MaxReconnectAttempts int     `json:"max_reconnect_attempts"`
	ReconnectInterval    int     `json:"reconnect_interval"`     // ms
	MaxReconnectInterval int     `json:"max_reconnect_interval"` // ms
	ReconnectDecay       float64 `json:"reconnect_decay"`
	PingIntervalSecs     int     `json:"ping_interval"`
	Timeout              int     `json:"timeout"` // ms
}

type Identity struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Options struct {
	GlobalDefaultChannel  string `json:"global_default_channel"`
	SkipMembership        bool   `json:"skip_membership"`
	SkipUpdatingEmotesets bool   `json:"skip_updating_emotesets"`
	UpdateEmotesetsTimer  int    `json:"update_emotesets_timer"` // secs, 0 disables
	JoinInterval          int    `json:"join_interval"`          // ms
	MessagesLogLevel      string `json:"messages_log_level"`
}
