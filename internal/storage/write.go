package storage

import (
	"context"

	"github.com/Vinod798751/anoma/internal/noun"
	"github.com/Vinod798751/anoma/internal/tables"
)

// Put stores value under the next version of key. Both the order row and
// the qualified row are written in one transaction, so the two maps never
// disagree. The transaction outcome is published on the topic; the write is
// never retried here.
func (s *Storage) Put(ctx context.Context, key, value noun.Noun) error {
	err := s.putStored(ctx, key, wrapPresent(value))
	s.publish(PutEvent{Key: key, Value: PresentValue(value), Err: err})
	return err
}

// Delete records a deletion as a put of the tombstone: the version advances
// and the history of key is retained.
func (s *Storage) Delete(ctx context.Context, key noun.Noun) error {
	err := s.putStored(ctx, key, tombstone)
	s.publish(PutEvent{Key: key, Value: Absent, Err: err})
	return err
}

func (s *Storage) putStored(ctx context.Context, key, stored noun.Noun) error {
	nskey := s.Namespace(key)
	return s.tables.Update(ctx, func(tx tables.Tx) error {
		var cur uint64
		row, ok, err := tx.Read(s.order, nskey)
		if err != nil {
			return err
		}
		if ok {
			cur, _ = row.Value.AsUint()
		}
		next := cur + 1
		if err := tx.Write(s.order, nskey, noun.Uint(next)); err != nil {
			return err
		}
		return tx.Write(s.qualified, qualifiedKey(next, nskey), stored)
	})
}

// WriteAtOrder forces value in at a specific version, without reading the
// current counter first. It exists for replays; callers must supply
// strictly increasing versions or the order invariant is lost.
func (s *Storage) WriteAtOrder(ctx context.Context, key, value noun.Noun, version uint64) error {
	nskey := s.Namespace(key)
	err := s.tables.Update(ctx, func(tx tables.Tx) error {
		if err := tx.Write(s.order, nskey, noun.Uint(version)); err != nil {
			return err
		}
		return tx.Write(s.qualified, qualifiedKey(version, nskey), wrapPresent(value))
	})
	s.publish(WriteEvent{Key: key, Value: value, Version: version, Err: err})
	return err
}
