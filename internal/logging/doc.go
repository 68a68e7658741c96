// Package logging builds the slog loggers used by the daemon and the CLI.
//
// Two handlers are available. The console handler prints a header line
// (time, level, component, job subject, message) and a short humanized field
// list; the json handler emits one object per line. Context helpers tag lines
// with job, stage and request identifiers, and WarnWithContext and
// ErrorWithContext guarantee every problem report carries an event type and a
// hint. CleanupOldLogs prunes per-run daemon logs.
package logging
