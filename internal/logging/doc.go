// Package logging configures slog-based structured logging for docpress.
//
// It provides logger construction from config options, shared attribute
// helpers, standardized field-name constants, and context propagation of
// job-scoped fields so every component logs with consistent keys.
package logging
