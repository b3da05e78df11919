// Package config handles application configuration loading and validation.
//
// Configuration is loaded from environment variables (optionally seeded from a
// .env file) with sensible defaults. All values are validated at startup to
// fail fast if misconfigured.
package config
