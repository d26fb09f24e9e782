// Package storage implements the versioned, namespaced key-value engine.
//
// Every key carries a monotonically increasing version counter in the order
// table, and every written value lives forever at its own (version, key)
// coordinate in the qualified table. Deletion writes a tombstone at a new
// version instead of removing anything. A third table backs the commitment
// accumulator. Multiple Storage handles may share the same tables as long
// as their namespaces differ.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Vinod798751/anoma/internal/commitment"
	"github.com/Vinod798751/anoma/internal/noun"
	"github.com/Vinod798751/anoma/internal/tables"
)

var (
	// ErrBadVersion is returned by BlockingRead for version zero, which is
	// never a written version.
	ErrBadVersion = errors.New("blocking read of version zero")

	// ErrBadShape is returned by BlockingRead when the qualified key is not
	// a [version, key | tail] cell chain.
	ErrBadShape = errors.New("malformed qualified key")

	// ErrNamespace is returned when a physical key does not carry this
	// handle's namespace prefix. It indicates the tables were written
	// outside this layer.
	ErrNamespace = errors.New("namespace prefix mismatch")
)

// Default physical table names, shared by every handle that does not
// override them.
const (
	DefaultOrderTable       = "storage_order"
	DefaultQualifiedTable   = "storage_qualified"
	DefaultCommitmentsTable = "storage_commitments"
)

// Sink receives published write events. Router topics satisfy it.
type Sink interface {
	Cast(msg any)
}

// Config carries the optional parts of a Storage handle.
type Config struct {
	// OrderTable, QualifiedTable and CommitmentsTable override the default
	// physical table names.
	OrderTable       string
	QualifiedTable   string
	CommitmentsTable string

	// Namespace is prepended element-wise to every key. Handles with
	// distinct namespaces may share tables safely.
	Namespace []noun.Noun

	// Topic, when set, receives a PutEvent, WriteEvent or DeleteTableEvent
	// after each write or table drop.
	Topic Sink

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Storage is a handle onto the shared tables. It owns no state of its own;
// everything lives in the table manager.
type Storage struct {
	tables      tables.Manager
	order       string
	qualified   string
	commitments string
	namespace   []noun.Noun
	topic       Sink
	log         *slog.Logger
	tree        *commitment.Tree
}

// New builds a handle over mgr and idempotently ensures the three tables
// exist, then binds the commitment accumulator over the commitments table.
func New(ctx context.Context, mgr tables.Manager, cfg Config) (*Storage, error) {
	s := &Storage{
		tables:      mgr,
		order:       cfg.OrderTable,
		qualified:   cfg.QualifiedTable,
		commitments: cfg.CommitmentsTable,
		namespace:   cfg.Namespace,
		topic:       cfg.Topic,
		log:         cfg.Logger,
	}
	if s.order == "" {
		s.order = DefaultOrderTable
	}
	if s.qualified == "" {
		s.qualified = DefaultQualifiedTable
	}
	if s.commitments == "" {
		s.commitments = DefaultCommitmentsTable
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if err := s.Setup(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure tables: %w", err)
	}
	s.tree = commitment.New(mgr, s.commitments)
	return s, nil
}

// Commitments returns the accumulator bound over the commitments table.
func (s *Storage) Commitments() *commitment.Tree { return s.tree }

// Result is the outcome of a read: a present value or the absent sentinel.
// The zero value is absent.
type Result struct {
	Present bool
	Value   noun.Noun
}

// Absent is the not-present read result.
var Absent = Result{}

// PresentValue wraps a value in a present result.
func PresentValue(v noun.Noun) Result {
	return Result{Present: true, Value: v}
}

// Stored-value encoding. Every present value is wrapped in a cell with a
// zero-atom head; the tombstone is a bare atom, so no user value can
// collide with it.
var tombstone = noun.Text("absent")

func wrapPresent(v noun.Noun) noun.Noun {
	return noun.Cell(noun.Uint(0), v)
}

func unwrapStored(stored noun.Noun) Result {
	if head, ok := stored.Head(); ok && head.Equal(noun.Uint(0)) {
		tail, _ := stored.Tail()
		return PresentValue(tail)
	}
	return Absent
}

// qualifiedKey builds the physical qualified-table key [version, nskey | 0].
func qualifiedKey(version uint64, nskey noun.Noun) noun.Noun {
	return noun.Cell(noun.Uint(version), noun.Cell(nskey, noun.Uint(0)))
}

// splitQualified takes apart a caller-supplied [version, key | tail] form.
// The improper terminal is returned as-is so it can be preserved.
func splitQualified(qkey noun.Noun) (version, key, tail noun.Noun, err error) {
	rest, ok := qkey.Tail()
	if !ok {
		return noun.Nil, noun.Nil, noun.Nil, fmt.Errorf("%w: not a cell", ErrBadShape)
	}
	version, _ = qkey.Head()
	key, ok = rest.Head()
	if !ok {
		return noun.Nil, noun.Nil, noun.Nil, fmt.Errorf("%w: missing key element", ErrBadShape)
	}
	tail, _ = rest.Tail()
	if tail.IsCell() {
		return noun.Nil, noun.Nil, noun.Nil, fmt.Errorf("%w: tail is not a terminal", ErrBadShape)
	}
	return version, key, tail, nil
}

func (s *Storage) publish(msg any) {
	if s.topic != nil {
		s.topic.Cast(msg)
	}
}
