package memtable

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Vinod798751/anoma/internal/noun"
	"github.com/Vinod798751/anoma/internal/tables"
)

func newTestStore(t *testing.T, names ...string) *Store {
	t.Helper()
	s := New()
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()
	for _, name := range names {
		if err := s.CreateTable(ctx, name); err != nil {
			t.Fatalf("CreateTable(%q) failed: %v", name, err)
		}
	}
	return s
}

func TestCreateDeleteTable(t *testing.T) {
	s := newTestStore(t, "orders")
	ctx := context.Background()

	if err := s.CreateTable(ctx, "orders"); !errors.Is(err, tables.ErrTableExists) {
		t.Fatalf("duplicate create = %v, want ErrTableExists", err)
	}
	if err := s.DeleteTable(ctx, "orders"); err != nil {
		t.Fatalf("DeleteTable failed: %v", err)
	}
	if err := s.DeleteTable(ctx, "orders"); !errors.Is(err, tables.ErrNoTable) {
		t.Fatalf("second delete = %v, want ErrNoTable", err)
	}
}

func TestUpdateCommitsAndViewReads(t *testing.T) {
	s := newTestStore(t, "kv")
	ctx := context.Background()
	key, value := noun.Text("k"), noun.Uint(7)

	err := s.Update(ctx, func(tx tables.Tx) error {
		if err := tx.Write("kv", key, value); err != nil {
			return err
		}
		// Read-your-writes inside the transaction.
		row, ok, err := tx.Read("kv", key)
		if err != nil || !ok {
			t.Fatalf("in-tx Read = (%v, %v)", ok, err)
		}
		if !row.Value.Equal(value) {
			t.Fatalf("in-tx value = %s", row.Value)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	err = s.View(ctx, func(tx tables.Tx) error {
		row, ok, err := tx.Read("kv", key)
		if err != nil || !ok {
			t.Fatalf("Read after commit = (%v, %v)", ok, err)
		}
		if !row.Value.Equal(value) {
			t.Fatalf("value after commit = %s", row.Value)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
}

func TestUpdateRollbackOnError(t *testing.T) {
	s := newTestStore(t, "kv")
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Update(ctx, func(tx tables.Tx) error {
		if err := tx.Write("kv", noun.Text("k"), noun.Uint(1)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update = %v, want boom", err)
	}

	_ = s.View(ctx, func(tx tables.Tx) error {
		if _, ok, _ := tx.Read("kv", noun.Text("k")); ok {
			t.Fatal("rolled-back write is visible")
		}
		return nil
	})
}

func TestWriteMissingTable(t *testing.T) {
	s := newTestStore(t)
	err := s.Update(context.Background(), func(tx tables.Tx) error {
		return tx.Write("nope", noun.Text("k"), noun.Uint(1))
	})
	if !errors.Is(err, tables.ErrNoTable) {
		t.Fatalf("write to missing table = %v, want ErrNoTable", err)
	}
}

func TestSelectPrefix(t *testing.T) {
	s := newTestStore(t, "kv")
	ctx := context.Background()

	put := func(key noun.Noun, v uint64) {
		t.Helper()
		if err := s.Update(ctx, func(tx tables.Tx) error {
			return tx.Write("kv", key, noun.Uint(v))
		}); err != nil {
			t.Fatalf("put failed: %v", err)
		}
	}
	put(noun.List(noun.Text("a"), noun.Text("1")), 1)
	put(noun.List(noun.Text("a"), noun.Text("2")), 2)
	put(noun.List(noun.Text("b"), noun.Text("1")), 3)
	put(noun.Text("atom-key"), 4)

	var got []tables.Row
	err := s.View(ctx, func(tx tables.Tx) error {
		var err error
		got, err = tx.Select("kv", tables.Prefix(noun.Text("a")))
		return err
	})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Select returned %d rows, want 2", len(got))
	}

	err = s.View(ctx, func(tx tables.Tx) error {
		all, err := tx.Select("kv", tables.Everything)
		if err != nil {
			return err
		}
		if len(all) != 4 {
			t.Fatalf("Everything returned %d rows, want 4", len(all))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
}

func TestSubscribeDeliversCommittedWrites(t *testing.T) {
	s := newTestStore(t, "kv")
	ctx := context.Background()

	sub, err := s.Subscribe("kv")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	key, value := noun.Text("k"), noun.Text("v")
	if err := s.Update(ctx, func(tx tables.Tx) error {
		return tx.Write("kv", key, value)
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	select {
	case ev := <-sub.Events():
		if ev.Table != "kv" || !ev.Key.Equal(key) || !ev.Value.Equal(value) {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event for committed write")
	}
}

func TestSubscribeSkipsRolledBackWrites(t *testing.T) {
	s := newTestStore(t, "kv")
	ctx := context.Background()

	sub, err := s.Subscribe("kv")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	_ = s.Update(ctx, func(tx tables.Tx) error {
		_ = tx.Write("kv", noun.Text("k"), noun.Uint(1))
		return errors.New("abort")
	})
	if err := s.Update(ctx, func(tx tables.Tx) error {
		return tx.Write("kv", noun.Text("k2"), noun.Uint(2))
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	select {
	case ev := <-sub.Events():
		if !ev.Key.Equal(noun.Text("k2")) {
			t.Fatalf("got event for rolled-back write: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event for committed write")
	}
}

func TestSubscribeOtherTableFiltered(t *testing.T) {
	s := newTestStore(t, "kv", "other")
	ctx := context.Background()

	sub, err := s.Subscribe("other")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	if err := s.Update(ctx, func(tx tables.Tx) error {
		return tx.Write("kv", noun.Text("k"), noun.Uint(1))
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	select {
	case ev := <-sub.Events():
		t.Fatalf("event leaked across tables: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}
