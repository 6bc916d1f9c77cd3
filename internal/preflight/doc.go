// Package preflight provides startup checks for the filesystem paths and
// devices the scan station depends on.
//
// The checks run in two contexts:
//   - "packwatch run" executes Run before starting the daemon and refuses to
//     start when a directory or free-space check fails.
//   - The CLI "packwatch status" command reuses individual check functions to
//     display station health without starting a capture session.
package preflight
