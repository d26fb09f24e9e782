package commitment

import (
	"bytes"
	"context"
	"crypto/sha256"
	"testing"

	"github.com/Vinod798751/anoma/internal/tables/memtable"
)

func newTestTree(t *testing.T) *Tree {
	t.Helper()
	ctx := context.Background()
	store := memtable.New()
	t.Cleanup(func() { _ = store.Close() })
	if err := store.CreateTable(ctx, "commitments"); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	return New(store, "commitments")
}

// zeroRoot computes the root of the all-empty tree independently.
func zeroRoot() []byte {
	h := make([]byte, DigestSize)
	for i := 0; i < Depth; i++ {
		sum := sha256.Sum256(append(append([]byte{}, h...), h...))
		h = sum[:]
	}
	return h
}

func TestEmptyRoot(t *testing.T) {
	tree := newTestTree(t)
	root, err := tree.Root(context.Background())
	if err != nil {
		t.Fatalf("Root failed: %v", err)
	}
	if !bytes.Equal(root, zeroRoot()) {
		t.Fatalf("empty root = %x, want zero-tree root %x", root, zeroRoot())
	}
}

func TestAddSingleLeaf(t *testing.T) {
	tree := newTestTree(t)
	ctx := context.Background()

	leaf := sha256.Sum256([]byte("commitment-1"))
	index, root, err := tree.Add(ctx, leaf[:])
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if index != 0 {
		t.Fatalf("first index = %d, want 0", index)
	}

	// Recompute the expected root: the leaf paired with zero hashes all the
	// way up.
	want := leaf[:]
	zero := make([]byte, DigestSize)
	for i := 0; i < Depth; i++ {
		sum := sha256.Sum256(append(append([]byte{}, want...), zero...))
		want = sum[:]
		next := sha256.Sum256(append(append([]byte{}, zero...), zero...))
		zero = next[:]
	}
	if !bytes.Equal(root, want) {
		t.Fatalf("root = %x, want %x", root, want)
	}
}

func TestAddAssignsSequentialIndexes(t *testing.T) {
	tree := newTestTree(t)
	ctx := context.Background()

	var roots [][]byte
	for i := 0; i < 4; i++ {
		leaf := sha256.Sum256([]byte{byte(i)})
		index, root, err := tree.Add(ctx, leaf[:])
		if err != nil {
			t.Fatalf("Add %d failed: %v", i, err)
		}
		if index != uint64(i) {
			t.Fatalf("index = %d, want %d", index, i)
		}
		roots = append(roots, root)
	}

	// Every append must change the root.
	for i := 1; i < len(roots); i++ {
		if bytes.Equal(roots[i-1], roots[i]) {
			t.Fatalf("root unchanged after append %d", i)
		}
	}

	size, err := tree.Size(ctx)
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if size != 4 {
		t.Fatalf("size = %d, want 4", size)
	}
}

func TestRebindReproducesRoot(t *testing.T) {
	ctx := context.Background()
	store := memtable.New()
	defer func() { _ = store.Close() }()
	if err := store.CreateTable(ctx, "commitments"); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	tree := New(store, "commitments")
	leaf := sha256.Sum256([]byte("persisted"))
	if _, _, err := tree.Add(ctx, leaf[:]); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	want, err := tree.Root(ctx)
	if err != nil {
		t.Fatalf("Root failed: %v", err)
	}

	// A fresh handle over the same table sees the same tree.
	rebound := New(store, "commitments")
	got, err := rebound.Root(ctx)
	if err != nil {
		t.Fatalf("Root after rebind failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("rebound root = %x, want %x", got, want)
	}
}

func TestAddRejectsWrongSize(t *testing.T) {
	tree := newTestTree(t)
	if _, _, err := tree.Add(context.Background(), []byte("short")); err == nil {
		t.Fatal("Add accepted a non-digest leaf")
	}
}
