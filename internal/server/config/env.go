package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/Nekos-API/Nekos.Land/internal/flagx"
	"github.com/joho/godotenv"
)

// Environment variable names, shared with the web deployment.
const (
	EnvWebhookURL  = "DISCORD_REPORT_IMAGES_WEBHOOK_URL"
	EnvDatabaseDSN = "DATABASE_URL"
	EnvAPIBaseURL  = "NEKOS_API_BASE_URL"
)

// parseEnv overlays cfg with environment variables, loading the -env file
// (which must exist) or ./.env when present.
func parseEnv(cfg *Config) {
	if path := flagx.EnvFilePath(os.Args[1:]); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	for name, dst := range map[string]*string{
		EnvWebhookURL:  &cfg.WebhookURL,
		EnvDatabaseDSN: &cfg.DatabaseDSN,
		EnvAPIBaseURL:  &cfg.APIBaseURL,
	} {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}
}
