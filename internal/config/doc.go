// Package config loads, validates, and defaults the TOML configuration that
// drives enumeration, selection, and transfer.
package config
