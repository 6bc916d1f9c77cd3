// Package main hosts the packwatch CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the scan station in the foreground,
// translates terminal invocations into IPC calls against a running station,
// renders daily scan reports, and scaffolds configuration. It centralizes
// configuration resolution and socket discovery so subcommands can focus on
// user experience instead of wiring.
package main
