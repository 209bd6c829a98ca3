package config

import (
	"time"

	"github.com/Nekos-API/Nekos.Land/internal/common"
)

// Config holds runtime settings for the Nekos.Land terminal client.
type Config struct {
	APIBaseURL     string
	SiteURL        string
	ReportRelayURL string

	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string

	// SessionSecret encrypts the stored session. Without it the session
	// lives only as long as the process.
	SessionSecret string

	DataDir  string
	LogLevel string

	HTTPTimeout   time.Duration
	UsernameDelay time.Duration
	PageSize      int

	Archive ArchiveConfig
}

// ArchiveConfig is the optional S3-compatible image mirror.
type ArchiveConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = common.DefaultAPIBaseURL
	c.SiteURL = common.DefaultSiteURL
	c.AuthURL = common.DefaultAPIBaseURL + "/auth/authorize"
	c.TokenURL = common.DefaultAPIBaseURL + "/auth/token"
	c.RedirectURL = "http://127.0.0.1:8787/callback"
	c.LogLevel = "info"
	c.HTTPTimeout = 20 * time.Second
	c.UsernameDelay = time.Second
	c.PageSize = 24
	c.Archive.Region = "us-east-1"
	c.Archive.Prefix = "nekos-land"
}

// LoadConfig applies defaults, then the environment (optionally seeded from
// a dotenv file), then JSON, then flags. Later sources win.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
