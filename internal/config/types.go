package config

import "time"

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Market   MarketConfig   `mapstructure:"market"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Pricing  PricingConfig  `mapstructure:"pricing"`
	Publish  PublishConfig  `mapstructure:"publish"`
	Inbox    InboxConfig    `mapstructure:"inbox"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Parser   ParserConfig   `mapstructure:"parser"`
}

type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type MarketConfig struct {
	Symbol       string `mapstructure:"symbol"`
	Timezone     string `mapstructure:"timezone"`
	SessionOpen  string `mapstructure:"session_open"`
	SessionClose string `mapstructure:"session_close"`
	// AlwaysOpen skips the session calendar entirely (24/7 venues).
	AlwaysOpen bool `mapstructure:"always_open"`
}

type MonitorConfig struct {
	ActiveInterval time.Duration `mapstructure:"active_interval"`
	IdleInterval   time.Duration `mapstructure:"idle_interval"`
	StaleAfter     time.Duration `mapstructure:"stale_after"`
	RunImmediately bool          `mapstructure:"run_immediately"`
}

type PricingConfig struct {
	Timeout   time.Duration    `mapstructure:"timeout"`
	Providers []ProviderConfig `mapstructure:"providers"`
}

type ProviderConfig struct {
	Type    string        `mapstructure:"type"`
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type PublishConfig struct {
	WarningThreshold int `mapstructure:"warning_threshold"`
}

type InboxConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

type NotifyConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Discord DiscordConfig `mapstructure:"discord"`
	Email   EmailConfig   `mapstructure:"email"`
}

type DiscordConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

type EmailConfig struct {
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

type ParserConfig struct {
	RulesPath string `mapstructure:"rules_path"`
}
