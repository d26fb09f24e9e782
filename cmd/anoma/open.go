package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Vinod798751/anoma/internal/config"
	"github.com/Vinod798751/anoma/internal/noun"
	"github.com/Vinod798751/anoma/internal/storage"
	"github.com/Vinod798751/anoma/internal/tables"
	"github.com/Vinod798751/anoma/internal/tables/memtable"
	"github.com/Vinod798751/anoma/internal/tables/sqlitetable"
)

// openStorage opens the configured backend and builds a storage handle over
// it, honoring the data directory's manifest when one exists. The returned
// close function releases the backend.
func openStorage(ctx context.Context, topic storage.Sink) (*storage.Storage, tables.Manager, func(), error) {
	dir := config.DataDir()

	manifest, err := config.LoadManifest(dir)
	if err != nil {
		return nil, nil, nil, err
	}
	if manifest == nil {
		manifest = &config.Manifest{
			EngineVersion: Version,
			Backend:       config.Backend(),
			Namespace:     config.Namespace(),
			Tables: config.ManifestTables{
				Order:       config.OrderTable(),
				Qualified:   config.QualifiedTable(),
				Commitments: config.CommitmentsTable(),
			},
		}
		if err := manifest.Write(dir); err != nil {
			return nil, nil, nil, err
		}
	} else if err := manifest.CheckVersion(Version); err != nil {
		return nil, nil, nil, err
	}

	var mgr tables.Manager
	switch manifest.Backend {
	case "memory":
		mgr = memtable.New()
	case "sqlite":
		mgr, err = sqlitetable.Open(ctx, filepath.Join(dir, "storage.db"))
		if err != nil {
			return nil, nil, nil, err
		}
	default:
		return nil, nil, nil, fmt.Errorf("unknown backend %q", manifest.Backend)
	}

	ns := make([]noun.Noun, len(manifest.Namespace))
	for i, e := range manifest.Namespace {
		ns[i] = noun.Text(e)
	}

	store, err := storage.New(ctx, mgr, storage.Config{
		OrderTable:       manifest.Tables.Order,
		QualifiedTable:   manifest.Tables.Qualified,
		CommitmentsTable: manifest.Tables.Commitments,
		Namespace:        ns,
		Topic:            topic,
	})
	if err != nil {
		_ = mgr.Close()
		return nil, nil, nil, err
	}
	return store, mgr, func() { _ = mgr.Close() }, nil
}
