package config

import (
	"flag"
	"os"

	"github.com/Nekos-API/Nekos.Land/internal/flagx"
)

// parseFlags overlays cfg with command-line flags:
//
//	-api string     Nekos API base URL
//	-relay string   report relay URL
//	-data string    data directory
//	-log string     log level (debug, info, warn, error)
//	-timeout dur    HTTP timeout
//
// Arguments meant for other layers are filtered out first.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-api", "-relay", "-data", "-log", "-timeout"})

	fs := flag.NewFlagSet("nekos-land", flag.ContinueOnError)
	fs.StringVar(&cfg.APIBaseURL, "api", cfg.APIBaseURL, "Nekos API base URL")
	fs.StringVar(&cfg.ReportRelayURL, "relay", cfg.ReportRelayURL, "report relay URL")
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.LogLevel, "log", cfg.LogLevel, "log level")
	fs.DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
