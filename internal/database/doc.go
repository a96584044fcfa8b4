// Package database provides SQLite-based run history for qualitycheck.
//
// Every audit run is recorded with its per-sheet counts and the task list
// it produced, so that two runs can be compared later. The database is a
// single file in the XDG data directory, accessed through the CGO-free
// modernc.org/sqlite driver.
package database
