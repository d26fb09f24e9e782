// Package sqlitetable implements the table-manager contract on sqlite.
//
// Each logical table maps to one sqlite table with BLOB key and value
// columns holding canonical noun encodings. Write transactions open with
// BEGIN IMMEDIATE so the write lock is taken up front; a transaction that
// cannot begin or commit is reported as tables.ErrTxAborted. Write
// notifications are delivered in-process, the same as the memory backend.
package sqlitetable

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/Vinod798751/anoma/internal/noun"
	"github.com/Vinod798751/anoma/internal/tables"
)

// tablePrefix keeps engine tables clearly separated from anything else that
// may share the database file.
const tablePrefix = "t_"

var nameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Store is a sqlite-backed table manager.
type Store struct {
	db       *sql.DB
	path     string
	notifier *tables.Notifier
}

// Open opens (creating if needed) the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := "file:" + path + "?_txlock=immediate" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes all transactions; sqlite allows a single
	// writer anyway, and a shared pool would let reads race table drops.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Store{db: db, path: path, notifier: tables.NewNotifier()}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func ident(name string) (string, error) {
	if !nameRe.MatchString(name) {
		return "", fmt.Errorf("invalid table name %q", name)
	}
	return `"` + tablePrefix + name + `"`, nil
}

func (s *Store) tableExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
		tablePrefix+name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check table %q: %w", name, err)
	}
	return n > 0, nil
}

// CreateTable creates an empty table.
func (s *Store) CreateTable(ctx context.Context, name string) error {
	id, err := ident(name)
	if err != nil {
		return err
	}
	exists, err := s.tableExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("create %q: %w", name, tables.ErrTableExists)
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(
		`CREATE TABLE %s (key BLOB PRIMARY KEY, value BLOB NOT NULL) WITHOUT ROWID`, id))
	if err != nil {
		return fmt.Errorf("failed to create table %q: %w", name, err)
	}
	return nil
}

// DeleteTable drops a table and its contents.
func (s *Store) DeleteTable(ctx context.Context, name string) error {
	id, err := ident(name)
	if err != nil {
		return err
	}
	exists, err := s.tableExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("delete %q: %w", name, tables.ErrNoTable)
	}
	if _, err := s.db.ExecContext(ctx, `DROP TABLE `+id); err != nil {
		return fmt.Errorf("failed to drop table %q: %w", name, err)
	}
	return nil
}

// Update runs fn inside a BEGIN IMMEDIATE transaction.
func (s *Store) Update(ctx context.Context, fn func(tx tables.Tx) error) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", tables.ErrTxAborted, err)
	}
	stx := &sqliteTx{ctx: ctx, tx: dbtx}
	if err := fn(stx); err != nil {
		_ = dbtx.Rollback()
		return err
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", tables.ErrTxAborted, err)
	}
	s.notifier.Publish(stx.events)
	return nil
}

// View runs fn inside a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(tx tables.Tx) error) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", tables.ErrTxAborted, err)
	}
	defer func() { _ = dbtx.Rollback() }()
	return fn(&sqliteTx{ctx: ctx, tx: dbtx, readOnly: true})
}

// Subscribe opens a write stream for one table.
func (s *Store) Subscribe(table string) (*tables.Subscription, error) {
	return s.notifier.Subscribe(table)
}

// Close closes the database and terminates open subscriptions.
func (s *Store) Close() error {
	s.notifier.Close()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

type sqliteTx struct {
	ctx      context.Context
	tx       *sql.Tx
	readOnly bool
	events   []tables.Event
}

func (t *sqliteTx) Read(table string, key noun.Noun) (tables.Row, bool, error) {
	id, err := ident(table)
	if err != nil {
		return tables.Row{}, false, err
	}
	var value []byte
	err = t.tx.QueryRowContext(t.ctx,
		`SELECT value FROM `+id+` WHERE key = ?`, noun.Encode(key)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return tables.Row{}, false, nil
	}
	if err != nil {
		if missingTable(err) {
			return tables.Row{}, false, fmt.Errorf("read %q: %w", table, tables.ErrNoTable)
		}
		return tables.Row{}, false, fmt.Errorf("failed to read %q: %w", table, err)
	}
	v, err := noun.Decode(value)
	if err != nil {
		return tables.Row{}, false, fmt.Errorf("failed to decode row in %q: %w", table, err)
	}
	return tables.Row{Key: key, Value: v}, true, nil
}

func (t *sqliteTx) Write(table string, key, value noun.Noun) error {
	if t.readOnly {
		return fmt.Errorf("write %q: read-only transaction", table)
	}
	id, err := ident(table)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(t.ctx, `
		INSERT INTO `+id+` (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, noun.Encode(key), noun.Encode(value))
	if err != nil {
		if missingTable(err) {
			return fmt.Errorf("write %q: %w", table, tables.ErrNoTable)
		}
		return fmt.Errorf("failed to write %q: %w", table, err)
	}
	t.events = append(t.events, tables.Event{Table: table, Key: key, Value: value})
	return nil
}

func (t *sqliteTx) Select(table string, pattern tables.Pattern) ([]tables.Row, error) {
	id, err := ident(table)
	if err != nil {
		return nil, err
	}
	rows, err := t.tx.QueryContext(t.ctx, `SELECT key, value FROM `+id+` ORDER BY key`)
	if err != nil {
		if missingTable(err) {
			return nil, fmt.Errorf("select %q: %w", table, tables.ErrNoTable)
		}
		return nil, fmt.Errorf("failed to select from %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var out []tables.Row
	for rows.Next() {
		var kb, vb []byte
		if err := rows.Scan(&kb, &vb); err != nil {
			return nil, fmt.Errorf("failed to scan row in %q: %w", table, err)
		}
		k, err := noun.Decode(kb)
		if err != nil {
			return nil, fmt.Errorf("failed to decode key in %q: %w", table, err)
		}
		if !pattern.Match(k) {
			continue
		}
		v, err := noun.Decode(vb)
		if err != nil {
			return nil, fmt.Errorf("failed to decode value in %q: %w", table, err)
		}
		out = append(out, tables.Row{Key: k, Value: v})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to select from %q: %w", table, err)
	}
	return out, nil
}

func missingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
