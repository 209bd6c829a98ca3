package config

import (
	"encoding/json"
	"os"

	"github.com/Nekos-API/Nekos.Land/internal/flagx"
	"github.com/Nekos-API/Nekos.Land/internal/timex"
)

// JsonConfig is the on-disk form of Config. It uses timex.Duration for
// intervals, which accepts both "1s" strings and integer nanoseconds.
// The webhook URL is a secret and is only read from the environment.
type JsonConfig struct {
	ListenAddr      string         `json:"listen_addr"`
	DatabaseDSN     string         `json:"database_dsn"`
	APIBaseURL      string         `json:"api_base_url"`
	AdminURL        string         `json:"admin_url"`
	LogLevel        string         `json:"log_level"`
	WebhookRate     float64        `json:"webhook_rate"`
	WebhookBurst    int            `json:"webhook_burst"`
	TokenCacheTTL   timex.Duration `json:"token_cache_ttl"`
	RequestTimeout  timex.Duration `json:"request_timeout"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
}

// parseJson loads the file named by -c or -config, if any, and copies the
// fields it sets into config. Read and decode errors panic.
func parseJson(config *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.ListenAddr, c.ListenAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.APIBaseURL, c.APIBaseURL)
	setString(&config.AdminURL, c.AdminURL)
	setString(&config.LogLevel, c.LogLevel)
	if c.WebhookRate > 0 {
		config.WebhookRate = c.WebhookRate
	}
	if c.WebhookBurst > 0 {
		config.WebhookBurst = c.WebhookBurst
	}
	if c.TokenCacheTTL.Duration > 0 {
		config.TokenCacheTTL = c.TokenCacheTTL.Duration
	}
	if c.RequestTimeout.Duration > 0 {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.ShutdownTimeout.Duration > 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
