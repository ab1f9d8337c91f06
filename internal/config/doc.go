// Package config loads, normalizes, and validates docpress configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PDFSERVICES_CLIENT_ID. The Config type centralizes every knob the CLI
// needs: collaborator credentials, polling budgets, template and asset
// directories, history retention, and log output.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
