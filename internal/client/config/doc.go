// Package config loads runtime configuration for the Exersio CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the API server
//	-i int      online status check interval (seconds)
//	-f string   path to the local SQLite database
//	-w int      request timeout (seconds)
//	-l string   log level
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "3s" or
// integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "http://127.0.0.1:8080",
//	  "online_check_interval": "3s",
//	  "database_path": "exersio.db",
//	  "request_timeout": "15s",
//	  "log_level": "info"
//	}
package config
