package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/Nekos-API/Nekos.Land/internal/flagx"
	"github.com/joho/godotenv"
)

// Environment variable names. The OAuth ones match the web deployment so
// one .env serves both.
const (
	EnvClientID        = "NEKOS_API_CLIENT_ID"
	EnvClientSecret    = "NEKOS_API_CLIENT_SECRET"
	EnvAuthURL         = "NEKOS_API_OAUTH_AUTHORIZATION_URL"
	EnvTokenURL        = "NEKOS_API_OAUTH_TOKEN_URL"
	EnvRedirectURL     = "NEKOS_API_REDIRECT_URL"
	EnvSessionSecret   = "NEKOS_LAND_SESSION_SECRET"
	EnvAPIBaseURL      = "NEKOS_API_BASE_URL"
	EnvReportRelayURL  = "NEKOS_LAND_REPORT_RELAY_URL"
	EnvArchiveBucket   = "NEKOS_LAND_ARCHIVE_BUCKET"
	EnvArchiveRegion   = "NEKOS_LAND_ARCHIVE_REGION"
	EnvArchiveEndpoint = "NEKOS_LAND_ARCHIVE_ENDPOINT"
	EnvArchiveKeyID    = "NEKOS_LAND_ARCHIVE_ACCESS_KEY_ID"
	EnvArchiveSecret   = "NEKOS_LAND_ARCHIVE_SECRET_ACCESS_KEY"
)

// parseEnv overlays cfg with environment variables. A dotenv file named by
// -env is loaded first and must exist; otherwise ./.env is loaded when
// present. Variables already set in the process environment win over the
// file.
func parseEnv(cfg *Config) {
	if path := flagx.EnvFilePath(os.Args[1:]); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	for name, dst := range map[string]*string{
		EnvClientID:        &cfg.ClientID,
		EnvClientSecret:    &cfg.ClientSecret,
		EnvAuthURL:         &cfg.AuthURL,
		EnvTokenURL:        &cfg.TokenURL,
		EnvRedirectURL:     &cfg.RedirectURL,
		EnvSessionSecret:   &cfg.SessionSecret,
		EnvAPIBaseURL:      &cfg.APIBaseURL,
		EnvReportRelayURL:  &cfg.ReportRelayURL,
		EnvArchiveBucket:   &cfg.Archive.Bucket,
		EnvArchiveRegion:   &cfg.Archive.Region,
		EnvArchiveEndpoint: &cfg.Archive.Endpoint,
		EnvArchiveKeyID:    &cfg.Archive.AccessKeyID,
		EnvArchiveSecret:   &cfg.Archive.SecretAccessKey,
	} {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}
}
