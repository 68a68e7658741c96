// Package toolexec launches the external programs MediaKit depends on
// (yt-dlp, ffmpeg, python -m whisper) with a discrete argument vector, a
// wall-clock timeout, and bounded output capture.
//
// Every failure is returned as *Error, which matches services.ErrExternalTool
// through errors.Is (and services.ErrTimeout when the deadline fired) and
// carries the exit code plus a truncated stderr tail suitable for surfacing to
// callers. On Unix the child runs in its own process group so a timeout kills
// any grandchildren the tool spawned.
//
// Callers depend on the Runner interface so tests can substitute fakes that
// fabricate output files instead of running real tools.
package toolexec
