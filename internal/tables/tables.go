// Package tables defines the interface for transactional table backends.
//
// A Manager owns a set of named tables, each a map from a noun key to a noun
// value. All reads and writes happen inside a transaction; nested use is
// expressed by passing the same Tx down the call stack. Every committed
// write is announced to subscribers of the written table, which is what the
// engine's blocking reads are built on.
package tables

import (
	"context"
	"errors"

	"github.com/Vinod798751/anoma/internal/noun"
)

var (
	// ErrTxAborted is returned when a transaction could not begin or commit,
	// for example because the backend detected a conflict. An error returned
	// by the callback itself is passed through unchanged.
	ErrTxAborted = errors.New("transaction aborted")

	// ErrTableExists is returned by CreateTable for a name already in use.
	ErrTableExists = errors.New("table already exists")

	// ErrNoTable is returned when an operation names a table that does not
	// exist.
	ErrNoTable = errors.New("no such table")

	// ErrClosed is returned by operations on a closed Manager.
	ErrClosed = errors.New("table manager closed")
)

// Row is one table entry.
type Row struct {
	Key   noun.Noun
	Value noun.Noun
}

// Event announces one committed write.
type Event struct {
	Table string
	Key   noun.Noun
	Value noun.Noun
}

// Tx is the handle passed to transaction callbacks.
//
// Reads observe the transaction's own uncommitted writes. A Tx is only valid
// for the duration of the callback it was passed to and must not be used
// from other goroutines.
type Tx interface {
	// Read returns the row stored under key, if any.
	Read(table string, key noun.Noun) (Row, bool, error)

	// Write stores value under key, replacing any existing row.
	Write(table string, key, value noun.Noun) error

	// Select returns every row whose key matches the pattern.
	Select(table string, pattern Pattern) ([]Row, error)
}

// Manager is a transactional table backend.
type Manager interface {
	// CreateTable creates an empty table. It returns ErrTableExists if the
	// name is already in use.
	CreateTable(ctx context.Context, name string) error

	// DeleteTable drops a table and its contents. It returns ErrNoTable if
	// the table does not exist.
	DeleteTable(ctx context.Context, name string) error

	// Update runs fn inside a read-write transaction. The transaction
	// commits when fn returns nil and rolls back otherwise; commit failures
	// are reported as ErrTxAborted. Subscribers of the written tables
	// receive one Event per write after a successful commit, in write
	// order.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// View runs fn inside a read-only transaction.
	View(ctx context.Context, fn func(tx Tx) error) error

	// Subscribe opens a write stream for one table. Events for writes
	// committed after Subscribe returns are never dropped while the
	// subscription is open.
	Subscribe(table string) (*Subscription, error)

	// Close releases the backend. Open subscriptions are closed.
	Close() error
}
