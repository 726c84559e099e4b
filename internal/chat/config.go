package chat

import "log/slog"

// Config holds runtime settings, read from CHAT_* environment variables.
type Config struct {
	Addr           string `envconfig:"ADDR" default:":8888"`
	MetricsAddr    string `envconfig:"METRICS_ADDR" default:":9090"`
	OutboundBuffer int    `envconfig:"OUTBOUND_BUFFER" default:"64"`
	MaxUsernameLen int    `envconfig:"MAX_USERNAME_LEN" default:"32"`
	MaxTextLen     int    `envconfig:"MAX_TEXT_LEN" default:"512"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":8888"
	}
	if c.OutboundBuffer <= 0 {
		c.OutboundBuffer = 64
	}
	if c.MaxUsernameLen <= 0 {
		c.MaxUsernameLen = 32
	}
	if c.MaxTextLen <= 0 {
		c.MaxTextLen = 512
	}
	return c
}

// SlogLevel maps the configured level name to a slog level, info on failure.
func (c Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
