// Package config loads, normalizes, and validates wordmill configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY and WORDMILL_BASE. The Config type centralizes every knob
// the pipeline and CLI need: capture paths, store backend, enrichment
// transport, sync target, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors.
package config
