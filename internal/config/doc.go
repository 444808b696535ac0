// Package config loads, normalizes, and validates cadence configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// AZURE_SPEECH_KEY and CADENCE_NATS_URL. The Config type is built once at
// startup and passed explicitly to every engine component; nothing in the
// engine reads configuration from globals.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
