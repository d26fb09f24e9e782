package storage

import (
	"context"
	"fmt"

	"github.com/Vinod798751/anoma/internal/noun"
	"github.com/Vinod798751/anoma/internal/tables"
)

// Snapshot is a point-in-time capture of the order map: which version of
// each key was current when the snapshot was taken. Because qualified rows
// are immutable once written, reads through a snapshot see the same values
// forever, no matter what is written afterwards.
type Snapshot struct {
	store   *Storage
	entries []SnapshotEntry
}

// SnapshotEntry is one captured order row. The key is in physical,
// namespaced form.
type SnapshotEntry struct {
	Key     noun.Noun
	Version uint64
}

// SnapshotOrder captures every order row in a single transaction.
func (s *Storage) SnapshotOrder(ctx context.Context) (*Snapshot, error) {
	var entries []SnapshotEntry
	err := s.tables.View(ctx, func(tx tables.Tx) error {
		rows, err := tx.Select(s.order, tables.Everything)
		if err != nil {
			return err
		}
		for _, row := range rows {
			version, ok := row.Value.AsUint()
			if !ok {
				return fmt.Errorf("order row %s has non-numeric version %s", row.Key, row.Value)
			}
			entries = append(entries, SnapshotEntry{Key: row.Key, Version: version})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot order table: %w", err)
	}
	return &Snapshot{store: s, entries: entries}, nil
}

// PutSnapshot captures a snapshot and stores it under key as an ordinary
// versioned put.
func (s *Storage) PutSnapshot(ctx context.Context, key noun.Noun) error {
	snap, err := s.SnapshotOrder(ctx)
	if err != nil {
		return err
	}
	return s.Put(ctx, key, snap.Noun())
}

// Entries returns the captured rows.
func (sn *Snapshot) Entries() []SnapshotEntry {
	return sn.entries
}

// In reports the version key was at when the snapshot was taken, searching
// linearly for the namespaced key. The second result is false when the key
// was not present.
func (sn *Snapshot) In(key noun.Noun) (uint64, bool) {
	nskey := sn.store.Namespace(key)
	for _, e := range sn.entries {
		if e.Key.Equal(nskey) {
			return e.Version, true
		}
	}
	return 0, false
}

// Get reads key as of the snapshot: the qualified row at the captured
// version, from the live table. Absent when the key was not in the
// snapshot or its captured row is a tombstone.
func (sn *Snapshot) Get(ctx context.Context, key noun.Noun) Result {
	version, ok := sn.In(key)
	if !ok {
		return Absent
	}
	return sn.store.ReadAtOrder(ctx, key, version)
}

// Noun renders the snapshot as a proper list of [nskey version] cells, the
// form PutSnapshot stores.
func (sn *Snapshot) Noun() noun.Noun {
	elems := make([]noun.Noun, len(sn.entries))
	for i, e := range sn.entries {
		elems[i] = noun.Cell(e.Key, noun.Uint(e.Version))
	}
	return noun.List(elems...)
}
