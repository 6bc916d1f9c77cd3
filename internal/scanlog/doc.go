// Package scanlog persists the run's scan outcomes in SQLite.
//
// The log is append-mostly: rows are only ever inserted, except for the
// evidence column, which is patched once when a recording session closes. The
// patch is a single UPDATE statement so readers (the report command, the
// gallery view) never observe a partial row.
//
// Rows double as the restart ledger: TodaysSuccesses seeds the in-memory
// session ledger so an identifier committed before a same-day restart is still
// recognized as a duplicate.
package scanlog
