// Package ledger keeps a post-mortem record of harness runs in SQLite.
//
// Every session gets a row keyed by its id with the work directory, outcome
// and whether the directory was kept for inspection; every submitted job
// gets a row with its daemon id, filename and final history status. The CLI
// reads the ledger to list recent runs. The database runs in WAL mode and
// retries briefly on SQLITE_BUSY since parallel test binaries share it.
package ledger
