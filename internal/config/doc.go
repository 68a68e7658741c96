// Package config loads, normalizes, and validates MediaKit configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MEDIAKIT_API_TOKEN and the AWS credential variables. Output, upload,
// transcript and scratch directories are derived from data_dir unless set
// explicitly, so a single knob relocates all state.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
