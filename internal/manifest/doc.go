// Package manifest loads the order export and resolves decoded identifiers to
// invoice and recipient data.
//
// The manifest is read once before a scan session starts and treated as
// immutable afterwards. Values stay strings end to end so identifiers and
// invoice numbers keep their leading zeros.
package manifest
