// Package stability implements the hold-to-confirm gate that keeps motion
// blur and partial glimpses of neighboring items from committing a match.
package stability
