// Package daemon coordinates the long-running MediaKit process.
//
// NewComponents provisions directories once and builds the capability
// services. The Daemon then takes a flock-based lock so two processes never
// share a data directory, purges workspaces left by a previous crash before
// the API accepts requests, and runs the retention sweeper alongside the
// HTTP server until Stop.
package daemon
