package config

import (
	"encoding/json"
	"os"

	"github.com/Nekos-API/Nekos.Land/internal/flagx"
	"github.com/Nekos-API/Nekos.Land/internal/timex"
)

// JsonConfig is the on-disk form of Config. Secrets are not read from JSON;
// keep them in the environment. Empty fields leave the current value alone.
type JsonConfig struct {
	APIBaseURL     string         `json:"api_base_url"`
	SiteURL        string         `json:"site_url"`
	ReportRelayURL string         `json:"report_relay_url"`
	ClientID       string         `json:"client_id"`
	AuthURL        string         `json:"authorization_url"`
	TokenURL       string         `json:"token_url"`
	RedirectURL    string         `json:"redirect_url"`
	DataDir        string         `json:"data_dir"`
	LogLevel       string         `json:"log_level"`
	HTTPTimeout    timex.Duration `json:"http_timeout"`
	UsernameDelay  timex.Duration `json:"username_delay"`
	PageSize       int            `json:"page_size"`
	Archive        struct {
		Bucket   string `json:"bucket"`
		Region   string `json:"region"`
		Endpoint string `json:"endpoint"`
		Prefix   string `json:"prefix"`
	} `json:"archive"`
}

// parseJson overlays cfg with the JSON file named by -c or -config.
// It panics on read or decode errors.
func parseJson(cfg *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.SiteURL, jc.SiteURL)
	setString(&cfg.ReportRelayURL, jc.ReportRelayURL)
	setString(&cfg.ClientID, jc.ClientID)
	setString(&cfg.AuthURL, jc.AuthURL)
	setString(&cfg.TokenURL, jc.TokenURL)
	setString(&cfg.RedirectURL, jc.RedirectURL)
	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.Archive.Bucket, jc.Archive.Bucket)
	setString(&cfg.Archive.Region, jc.Archive.Region)
	setString(&cfg.Archive.Endpoint, jc.Archive.Endpoint)
	setString(&cfg.Archive.Prefix, jc.Archive.Prefix)

	if jc.HTTPTimeout.Duration > 0 {
		cfg.HTTPTimeout = jc.HTTPTimeout.Duration
	}
	if jc.UsernameDelay.Duration > 0 {
		cfg.UsernameDelay = jc.UsernameDelay.Duration
	}
	if jc.PageSize > 0 {
		cfg.PageSize = jc.PageSize
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
