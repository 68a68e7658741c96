// Package sweep removes expired artifacts from the scratch directories
// (downloads, uploads, transcripts) on a fixed interval and prunes old job
// history. Job workspaces are not swept; they are released by their jobs.
package sweep
