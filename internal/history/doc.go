// Package history keeps a SQLite ledger of finished cleaning jobs.
package history
