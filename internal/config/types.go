package config

// Config is the file shape. Every field has a default (see Default) and most
// can be overridden from the environment (see ApplyEnv).
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Remote   RemoteConfig   `json:"remote"`
	Monitor  MonitorConfig  `json:"monitor"`
	Notifier NotifierConfig `json:"notifier"`
	Storage  StorageConfig  `json:"storage"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// AdminChatID receives log messages and may run /health. 0 disables both.
	AdminChatID int64 `json:"admin_chat_id"`
	// PollTimeout is the long-polling timeout for getUpdates.
	PollTimeout string `json:"poll_timeout"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// RemoteConfig points at the hospital queue site.
type RemoteConfig struct {
	BaseURL   string `json:"base_url"`
	Timeout   string `json:"timeout"` // per request
	UserAgent string `json:"user_agent,omitempty"`
}

type MonitorConfig struct {
	PollInterval  string `json:"poll_interval"`
	InitialDelay  string `json:"initial_delay"`
	ForceInterval string `json:"force_interval"`
	Concurrency   int    `json:"concurrency"`
	CheckTimeout  string `json:"check_timeout,omitempty"`
}

// NotifierConfig controls the outbound message pipeline.
type NotifierConfig struct {
	Workers       int    `json:"workers"`
	QueueSize     int    `json:"queue_size"`
	RatePerSec    int    `json:"rate_per_sec"`
	RetryMax      int    `json:"retry_max"`
	RetryBase     string `json:"retry_base"`
	RetryMaxDelay string `json:"retry_max_delay"`
}

// StorageConfig selects the subscription store.
//
// Example:
//
//	storage: { driver: file, path: ./subscriptions.json }
type StorageConfig struct {
	Driver      string      `json:"driver"`
	Path        string      `json:"path"`
	BusyTimeout string      `json:"busy_timeout,omitempty"` // sqlite
	Redis       RedisConfig `json:"redis"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db"`
	Key      string `json:"key,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Telegram: TelegramConfig{PollTimeout: "10s"},
		Logging: LoggingConfig{
			Level:    "INFO",
			Console:  true,
			File:     LoggingFile{Path: "./antrianbot.log"},
			Telegram: LoggingTelegram{MinLevel: "ERROR", RatePerSec: 1},
		},
		Remote: RemoteConfig{
			BaseURL: "https://antrian.rsuii.co.id/",
			Timeout: "25s",
		},
		Monitor: MonitorConfig{
			PollInterval:  "60s",
			InitialDelay:  "10s",
			ForceInterval: "600s",
			Concurrency:   4,
			CheckTimeout:  "90s",
		},
		Notifier: NotifierConfig{
			Workers:       2,
			QueueSize:     256,
			RatePerSec:    20,
			RetryMax:      3,
			RetryBase:     "500ms",
			RetryMaxDelay: "10s",
		},
		Storage: StorageConfig{
			Driver: "file",
			Path:   "subscriptions.json",
			Redis:  RedisConfig{Addr: "127.0.0.1:6379", Key: "antrianbot:subscriptions"},
		},
	}
}
