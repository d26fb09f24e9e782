// Package memtable implements the table-manager contract in memory. It is
// the backend used by tests and by embedded nodes that do not need
// durability. Transactions are serialized by a single mutex; writes are
// buffered per transaction and applied on commit, so readers in other
// transactions never observe partial updates.
package memtable

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Vinod798751/anoma/internal/noun"
	"github.com/Vinod798751/anoma/internal/tables"
)

// Store is an in-memory table manager.
type Store struct {
	mu       sync.Mutex
	tables   map[string]map[string]tables.Row
	notifier *tables.Notifier
	closed   bool
}

// New returns an empty store.
func New() *Store {
	return &Store{
		tables:   make(map[string]map[string]tables.Row),
		notifier: tables.NewNotifier(),
	}
}

// CreateTable creates an empty table.
func (s *Store) CreateTable(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return tables.ErrClosed
	}
	if _, ok := s.tables[name]; ok {
		return fmt.Errorf("create %q: %w", name, tables.ErrTableExists)
	}
	s.tables[name] = make(map[string]tables.Row)
	return nil
}

// DeleteTable drops a table and its contents.
func (s *Store) DeleteTable(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return tables.ErrClosed
	}
	if _, ok := s.tables[name]; !ok {
		return fmt.Errorf("delete %q: %w", name, tables.ErrNoTable)
	}
	delete(s.tables, name)
	return nil
}

// Update runs fn in a read-write transaction. The store mutex is held for
// the whole transaction, so concurrent updates serialize. Committed writes
// are handed to the notifier before the mutex is released, which keeps event
// order equal to commit order.
func (s *Store) Update(ctx context.Context, fn func(tx tables.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", tables.ErrTxAborted, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return tables.ErrClosed
	}
	tx := &memTx{store: s, writes: make(map[string]map[string]tables.Row)}
	if err := fn(tx); err != nil {
		return err
	}
	var events []tables.Event
	for name, rows := range tx.writes {
		table, ok := s.tables[name]
		if !ok {
			return fmt.Errorf("%w: commit into missing table %q", tables.ErrTxAborted, name)
		}
		for key, row := range rows {
			table[key] = row
		}
	}
	for _, ev := range tx.order {
		events = append(events, ev)
	}
	s.notifier.Publish(events)
	return nil
}

// View runs fn in a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(tx tables.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", tables.ErrTxAborted, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return tables.ErrClosed
	}
	return fn(&memTx{store: s, readOnly: true})
}

// Subscribe opens a write stream for one table.
func (s *Store) Subscribe(table string) (*tables.Subscription, error) {
	return s.notifier.Subscribe(table)
}

// Close releases the store and terminates open subscriptions.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.notifier.Close()
	return nil
}

// memTx buffers writes until commit. Reads consult the buffer first so a
// transaction observes its own writes.
type memTx struct {
	store    *Store
	readOnly bool
	writes   map[string]map[string]tables.Row
	order    []tables.Event
}

func (tx *memTx) Read(table string, key noun.Noun) (tables.Row, bool, error) {
	k := noun.Key(key)
	if rows, ok := tx.writes[table]; ok {
		if row, ok := rows[k]; ok {
			return row, true, nil
		}
	}
	base, ok := tx.store.tables[table]
	if !ok {
		return tables.Row{}, false, fmt.Errorf("read %q: %w", table, tables.ErrNoTable)
	}
	row, ok := base[k]
	return row, ok, nil
}

func (tx *memTx) Write(table string, key, value noun.Noun) error {
	if tx.readOnly {
		return fmt.Errorf("write %q: read-only transaction", table)
	}
	if _, ok := tx.store.tables[table]; !ok {
		return fmt.Errorf("write %q: %w", table, tables.ErrNoTable)
	}
	rows, ok := tx.writes[table]
	if !ok {
		rows = make(map[string]tables.Row)
		tx.writes[table] = rows
	}
	rows[noun.Key(key)] = tables.Row{Key: key, Value: value}
	tx.order = append(tx.order, tables.Event{Table: table, Key: key, Value: value})
	return nil
}

func (tx *memTx) Select(table string, pattern tables.Pattern) ([]tables.Row, error) {
	base, ok := tx.store.tables[table]
	if !ok {
		return nil, fmt.Errorf("select %q: %w", table, tables.ErrNoTable)
	}
	merged := make(map[string]tables.Row, len(base))
	for k, row := range base {
		merged[k] = row
	}
	for k, row := range tx.writes[table] {
		merged[k] = row
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []tables.Row
	for _, k := range keys {
		row := merged[k]
		if pattern.Match(row.Key) {
			out = append(out, row)
		}
	}
	return out, nil
}
