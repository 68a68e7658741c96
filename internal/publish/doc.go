// Package publish mirrors finished artifacts to an S3-compatible bucket.
// Mirroring is best-effort: callers log failures and still return the local
// artifact.
package publish
