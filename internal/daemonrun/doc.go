// Package daemonrun is the process entry point behind "mediakit serve": it
// sets up per-run logging, records a pid file and runs the daemon until a
// termination signal arrives.
package daemonrun
