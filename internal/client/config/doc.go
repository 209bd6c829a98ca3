// Package config loads runtime configuration for the Nekos.Land terminal
// client.
//
// Sources, in increasing precedence:
//
//  1. Built-in defaults ((*Config).LoadDefaults).
//  2. The environment, seeded from the dotenv file named by -env or from
//     ./.env when it exists. OAuth client credentials and the session secret
//     come from here.
//  3. A JSON file named by -c or -config. Durations accept "3s" or integer
//     nanoseconds:
//
//     {
//     "api_base_url": "https://api.nekosapi.com/v2",
//     "report_relay_url": "https://nekos.land",
//     "http_timeout": "20s",
//     "username_delay": "1s",
//     "archive": {"bucket": "nekos", "endpoint": "http://127.0.0.1:9000"}
//     }
//
//  4. Flags: -api, -relay, -data, -log, -timeout.
package config
