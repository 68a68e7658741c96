// Package main hosts the MediaKit CLI entrypoint and command graph.
//
// The Cobra command tree exposes every capability of the toolkit from the
// terminal: running the HTTP daemon, previewing and downloading media,
// transcribing files or URLs, building boot animation modules, sweeping
// expired artifacts, and inspecting readiness and job history. One-shot
// commands build the same components the daemon uses, so their work lands
// in the shared job ledger and follows the same retention rules.
//
// Keep this package thin: capability logic belongs in the internal packages
// and commands only parse flags, wire components and render results.
package main
