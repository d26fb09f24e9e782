package storage

import (
	"context"
	"errors"

	"github.com/Vinod798751/anoma/internal/tables"
)

// Setup creates the three tables. Each creation is attempted independently
// and an already-existing table is not an error, so Setup is idempotent and
// a partial earlier setup is completed rather than reported.
func (s *Storage) Setup(ctx context.Context) error {
	var errs []error
	for _, name := range []string{s.order, s.qualified, s.commitments} {
		err := s.tables.CreateTable(ctx, name)
		if err != nil && !errors.Is(err, tables.ErrTableExists) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Remove drops the three tables, publishing a deletion event per table. A
// table that is already gone is treated as removed.
func (s *Storage) Remove(ctx context.Context) error {
	drops := []struct {
		name string
		role string
	}{
		{s.qualified, TableQualified},
		{s.order, TableOrdering},
		{s.commitments, TableCommitments},
	}
	var errs []error
	for _, d := range drops {
		err := s.tables.DeleteTable(ctx, d.name)
		if errors.Is(err, tables.ErrNoTable) {
			err = nil
		}
		if err != nil {
			errs = append(errs, err)
		}
		s.publish(DeleteTableEvent{Table: d.role, Err: err})
	}
	return errors.Join(errs...)
}

// EnsureNew drops and recreates the tables, leaving them empty.
func (s *Storage) EnsureNew(ctx context.Context) error {
	if err := s.Remove(ctx); err != nil {
		return err
	}
	return s.Setup(ctx)
}
