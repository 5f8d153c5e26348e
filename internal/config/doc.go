// Package config loads the delaystats-api configuration from the environment and an optional YAML file,
// validates it, and builds the PostgreSQL connection pools and OpenTelemetry providers from it.
//
// The required database keys keep their historical names (DBHOST, DBUSER, DBPASS, DBNAME).
// Environment values win over values from CONFIG_FILE.
package config
