// Package config loads, normalizes, and validates opendub configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HF_TOKEN and OPENAI_API_KEY. The Config type centralizes every knob the CLI
// and the dubbing pipeline need, so output directories, engine selection and
// external service credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical engine names, and clear validation errors.
package config
