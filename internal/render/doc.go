// Package render maps scan outcomes to overlay directives for the operator
// display. It owns the fixed status palette; the actual drawing happens in
// the daemon's presentation loop.
package render
