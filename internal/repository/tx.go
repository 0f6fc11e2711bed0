// Package repository defines storage-layer contracts shared by the
// feature services and their PostgreSQL implementations.
package repository

// Transaction is a unit of work spanning one or more repository calls.
// All mutations performed through the *Tx repository variants with the same
// Transaction become visible together on Commit or not at all.
type Transaction interface {
	Commit() error
	Rollback() error
	// GetID returns an opaque identifier for correlating log entries.
	GetID() string
}
