// Package services defines shared utilities consumed by the pipeline stages,
// the HTTP handlers, and the external tool clients.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify a
//     failure (bad input, tool failure, empty output, filesystem trouble)
//     without parsing messages.
//   - UserMessage, which strips the marker label from an error so the text is
//     safe to echo back for validation and empty-result failures.
//
// Use these helpers when wiring new capabilities so error handling and
// observability stay uniform across the toolkit.
package services
