package storage

import "github.com/Vinod798751/anoma/internal/noun"

// Logical table roles used in deletion events.
const (
	TableQualified   = "qualified"
	TableOrdering    = "ordering"
	TableCommitments = "commitments"
)

// PutEvent announces a Put or Delete. Value is the absent result for
// deletions. Err carries the transaction outcome; nil means committed.
type PutEvent struct {
	Key   noun.Noun
	Value Result
	Err   error
}

// WriteEvent announces a WriteAtOrder.
type WriteEvent struct {
	Key     noun.Noun
	Value   noun.Noun
	Version uint64
	Err     error
}

// DeleteTableEvent announces the outcome of dropping one table during
// Remove. Table is one of the role constants above.
type DeleteTableEvent struct {
	Table string
	Err   error
}
