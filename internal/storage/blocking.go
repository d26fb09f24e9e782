package storage

import (
	"context"
	"fmt"

	"github.com/Vinod798751/anoma/internal/noun"
	"github.com/Vinod798751/anoma/internal/tables"
)

// BlockingRead returns the value at an exact (key, version) coordinate,
// waiting for the write if it has not happened yet. The caller supplies the
// qualified key [version, key | 0] directly.
//
// The subscription is opened before the transactional read. A write that
// commits before the subscription exists is seen by the read; one that
// commits after is announced on the subscription; so no wakeup is lost.
// There is no timeout here — cancel ctx to abandon the wait.
func (s *Storage) BlockingRead(ctx context.Context, qkey noun.Noun) (Result, error) {
	version, key, tail, err := splitQualified(qkey)
	if err != nil {
		return Absent, err
	}
	v, ok := version.AsUint()
	if !ok {
		return Absent, fmt.Errorf("%w: version is not an atom", ErrBadShape)
	}
	if v == 0 {
		return Absent, ErrBadVersion
	}

	sub, err := s.tables.Subscribe(s.qualified)
	if err != nil {
		return Absent, fmt.Errorf("failed to subscribe: %w", err)
	}
	defer sub.Close()

	nsq := s.namespaceQualified(version, key, tail)

	var res Result
	found := false
	err = s.tables.View(ctx, func(tx tables.Tx) error {
		row, ok, err := tx.Read(s.qualified, nsq)
		if err != nil {
			return err
		}
		if ok {
			res = unwrapStored(row.Value)
			found = true
		}
		return nil
	})
	if err != nil {
		return Absent, err
	}
	if found {
		return res, nil
	}

	for {
		select {
		case <-ctx.Done():
			return Absent, ctx.Err()
		case ev, ok := <-sub.Events():
			if !ok {
				return Absent, tables.ErrClosed
			}
			if ev.Key.Equal(nsq) {
				return unwrapStored(ev.Value), nil
			}
		}
	}
}
