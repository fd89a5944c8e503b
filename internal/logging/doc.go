// Package logging provides slog-based logging helpers shared across retroref,
// including the console and JSON handlers and standardized attribute keys.
package logging
