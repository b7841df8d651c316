// Package config loads and validates the Harvco platform configuration.
//
// Configuration is read from a YAML file, merged over hardcoded defaults,
// and finally overridden by HARVCO_* environment variables. Both binaries
// (the REST API server and the MQTT ingestion service) share this package
// so that a single config file can drive the whole deployment.
package config
