// Package daemon coordinates the long-running packwatch process and system
// integration points.
//
// It wires configuration, the scan log store, the manifest, the classifier,
// the stability gate, the recording orchestrator, and the camera into a
// single lifecycle with flock-based locking to prevent multiple instances.
// The udev camera monitor reports hotplug events; the frame loop drives each
// tick of the pipeline.
//
// Keep orchestration logic here: the per-tick decision rules live in the
// session package while the daemon focuses on startup, shutdown, and the
// frame loop.
package daemon
