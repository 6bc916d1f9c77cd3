// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management and the request/response DTOs. The
// server talks to the daemon through the Station interface rather than the
// concrete type so the protocol can be exercised without camera hardware.
package ipc
