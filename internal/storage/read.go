package storage

import (
	"context"

	"github.com/Vinod798751/anoma/internal/noun"
	"github.com/Vinod798751/anoma/internal/tables"
)

// Get returns the current value of key: the qualified row at the key's
// latest version, or absent when the key has never been written or its
// latest version is a tombstone. A read that fails transactionally
// degrades to absent.
func (s *Storage) Get(ctx context.Context, key noun.Noun) Result {
	nskey := s.Namespace(key)
	var res Result
	err := s.tables.View(ctx, func(tx tables.Tx) error {
		var err error
		res, err = currentRead(tx, s.order, s.qualified, nskey)
		return err
	})
	if err != nil {
		s.log.Debug("get degraded to absent", "key", key.String(), "error", err)
		return Absent
	}
	return res
}

// currentRead resolves a namespaced key to its latest value inside tx.
func currentRead(tx tables.Tx, order, qualified string, nskey noun.Noun) (Result, error) {
	row, ok, err := tx.Read(order, nskey)
	if err != nil {
		return Absent, err
	}
	if !ok {
		return Absent, nil
	}
	version, ok := row.Value.AsUint()
	if !ok {
		return Absent, nil
	}
	qrow, ok, err := tx.Read(qualified, qualifiedKey(version, nskey))
	if err != nil {
		return Absent, err
	}
	if !ok {
		return Absent, nil
	}
	return unwrapStored(qrow.Value), nil
}

// ReadAtOrder returns the value written for key at exactly the given
// version, regardless of the key's current version.
func (s *Storage) ReadAtOrder(ctx context.Context, key noun.Noun, version uint64) Result {
	nskey := s.Namespace(key)
	var res Result
	err := s.tables.View(ctx, func(tx tables.Tx) error {
		qrow, ok, err := tx.Read(s.qualified, qualifiedKey(version, nskey))
		if err != nil {
			return err
		}
		if ok {
			res = unwrapStored(qrow.Value)
		}
		return nil
	})
	if err != nil {
		s.log.Debug("read-at-order degraded to absent", "key", key.String(), "version", version, "error", err)
		return Absent
	}
	return res
}

// ReadOrderTx returns the raw order rows for key (zero or one), with the
// key denamespaced.
func (s *Storage) ReadOrderTx(ctx context.Context, key noun.Noun) ([]tables.Row, error) {
	nskey := s.Namespace(key)
	var out []tables.Row
	err := s.tables.View(ctx, func(tx tables.Tx) error {
		row, ok, err := tx.Read(s.order, nskey)
		if err != nil {
			return err
		}
		if ok {
			out = append(out, tables.Row{Key: key, Value: row.Value})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadAtOrderTx returns the raw qualified rows for key at the given version
// (zero or one), in [version, key | 0] form with the key denamespaced.
func (s *Storage) ReadAtOrderTx(ctx context.Context, key noun.Noun, version uint64) ([]tables.Row, error) {
	nskey := s.Namespace(key)
	var out []tables.Row
	err := s.tables.View(ctx, func(tx tables.Tx) error {
		qrow, ok, err := tx.Read(s.qualified, qualifiedKey(version, nskey))
		if err != nil {
			return err
		}
		if ok {
			out = append(out, tables.Row{Key: qualifiedKey(version, key), Value: qrow.Value})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// KeyValue is one entry of a keyspace read, with the key denamespaced.
type KeyValue struct {
	Key   noun.Noun
	Value noun.Noun
}

// GetKeyspace returns the current value of every key under the given
// prefix. The result is all-or-nothing: if any matched key resolves to
// absent — missing or tombstoned — the whole call returns absent, because
// callers use it to materialize a coherent working set. The second result
// is false for absent.
func (s *Storage) GetKeyspace(ctx context.Context, prefix []noun.Noun) ([]KeyValue, bool) {
	combined := make([]noun.Noun, 0, len(s.namespace)+len(prefix))
	combined = append(combined, s.namespace...)
	combined = append(combined, prefix...)

	var out []KeyValue
	absent := false
	err := s.tables.View(ctx, func(tx tables.Tx) error {
		rows, err := tx.Select(s.order, tables.Prefix(combined...))
		if err != nil {
			return err
		}
		for _, row := range rows {
			res, err := currentRead(tx, s.order, s.qualified, row.Key)
			if err != nil {
				return err
			}
			if !res.Present {
				absent = true
				return nil
			}
			key, err := s.Denamespace(row.Key)
			if err != nil {
				return err
			}
			out = append(out, KeyValue{Key: key, Value: res.Value})
		}
		return nil
	})
	if err != nil {
		s.log.Debug("keyspace read degraded to absent", "error", err)
		return nil, false
	}
	if absent {
		return nil, false
	}
	return out, true
}
