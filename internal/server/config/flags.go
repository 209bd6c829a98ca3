package config

import (
	"flag"
	"os"

	"github.com/Nekos-API/Nekos.Land/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-d string   PostgreSQL DSN ("" disables the report log)
//	-api string Nekos API base URL
//	-log string log level
//	-r float    webhook requests per second
//
// Arguments meant for other layers are filtered out first.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-api", "-log", "-r"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ListenAddr, "a", config.ListenAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.APIBaseURL, "api", config.APIBaseURL, "Nekos API base URL")
	fs.StringVar(&config.LogLevel, "log", config.LogLevel, "log level")
	fs.Float64Var(&config.WebhookRate, "r", config.WebhookRate, "webhook requests per second")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
