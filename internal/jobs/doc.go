// Package jobs keeps a SQLite history of every download, transcription and
// boot animation build. The ledger is informational: callers record through a
// Recorder, which logs storage failures instead of returning them.
package jobs
