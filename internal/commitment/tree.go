// Package commitment implements the append-only accumulator bound over the
// commitments table: a fixed-shape Merkle tree of depth 32 and arity 2 with
// SHA-256 digests. Leaves are stored in the table at their index, so a tree
// rebuilt over the same table reproduces the same root. Empty positions are
// padded with precomputed zero-subtree hashes.
package commitment

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/Vinod798751/anoma/internal/noun"
	"github.com/Vinod798751/anoma/internal/tables"
)

// Tree parameters are fixed by the accumulator's consumers.
const (
	Depth      = 32
	Arity      = 2
	DigestSize = sha256.Size
)

// sizeKey is the table row holding the leaf count. It is a cell, so it
// cannot collide with a leaf index, which is always a numeric atom.
var sizeKey = noun.List(noun.Text("size"))

// Tree is an accumulator handle. All state lives in the table; handles are
// cheap and stateless apart from the precomputed padding hashes.
type Tree struct {
	tables tables.Manager
	table  string
	zero   [Depth + 1][]byte
}

// New binds an accumulator over the named table.
func New(mgr tables.Manager, table string) *Tree {
	t := &Tree{tables: mgr, table: table}
	empty := make([]byte, DigestSize)
	t.zero[0] = empty
	for level := 1; level <= Depth; level++ {
		t.zero[level] = hashChildren(t.zero[level-1], t.zero[level-1])
	}
	return t
}

func hashChildren(left, right []byte) []byte {
	h := sha256.New()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

// Size returns the number of leaves appended so far.
func (t *Tree) Size(ctx context.Context) (uint64, error) {
	var size uint64
	err := t.tables.View(ctx, func(tx tables.Tx) error {
		row, ok, err := tx.Read(t.table, sizeKey)
		if err != nil {
			return err
		}
		if ok {
			size, _ = row.Value.AsUint()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read tree size: %w", err)
	}
	return size, nil
}

// Add appends a commitment at the next free index and returns that index
// together with the new root.
func (t *Tree) Add(ctx context.Context, leaf []byte) (uint64, []byte, error) {
	if len(leaf) != DigestSize {
		return 0, nil, fmt.Errorf("commitment must be %d bytes, got %d", DigestSize, len(leaf))
	}
	var index uint64
	var root []byte
	err := t.tables.Update(ctx, func(tx tables.Tx) error {
		row, ok, err := tx.Read(t.table, sizeKey)
		if err != nil {
			return err
		}
		if ok {
			index, _ = row.Value.AsUint()
		}
		if index>>Depth != 0 {
			return fmt.Errorf("tree is full at %d leaves", index)
		}
		if err := tx.Write(t.table, noun.Uint(index), noun.Atom(leaf)); err != nil {
			return err
		}
		if err := tx.Write(t.table, sizeKey, noun.Uint(index+1)); err != nil {
			return err
		}
		root, err = t.rootIn(tx, index+1)
		return err
	})
	if err != nil {
		return 0, nil, fmt.Errorf("failed to add commitment: %w", err)
	}
	return index, root, nil
}

// Root returns the current root, which is the zero-tree root while the
// accumulator is empty.
func (t *Tree) Root(ctx context.Context) ([]byte, error) {
	var root []byte
	err := t.tables.View(ctx, func(tx tables.Tx) error {
		row, ok, err := tx.Read(t.table, sizeKey)
		if err != nil {
			return err
		}
		var size uint64
		if ok {
			size, _ = row.Value.AsUint()
		}
		root, err = t.rootIn(tx, size)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute root: %w", err)
	}
	return root, nil
}

// rootIn folds the stored leaves up the fixed-depth tree inside tx. Only
// the populated prefix is materialized; everything to its right collapses
// into the per-level zero hash.
func (t *Tree) rootIn(tx tables.Tx, size uint64) ([]byte, error) {
	level := make([][]byte, size)
	for i := uint64(0); i < size; i++ {
		row, ok, err := tx.Read(t.table, noun.Uint(i))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("missing leaf %d", i)
		}
		leaf, _ := row.Value.Bytes()
		level[i] = leaf
	}
	for depth := 0; depth < Depth; depth++ {
		next := make([][]byte, (len(level)+1)/Arity)
		for i := range next {
			left := level[Arity*i]
			right := t.zero[depth]
			if Arity*i+1 < len(level) {
				right = level[Arity*i+1]
			}
			next[i] = hashChildren(left, right)
		}
		if len(next) == 0 {
			next = [][]byte{t.zero[depth+1]}
		}
		level = next
	}
	return level[0], nil
}
