// Package noun implements the opaque term format used for storage keys and
// values: a tagged sum of atoms (byte strings), cells (pairs), and the empty
// list. Proper lists are cell chains terminated by Nil; improper lists are
// cell chains terminated by a non-Nil atom, and every list operation in this
// package preserves that terminal.
package noun

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"unicode/utf8"
)

type kind uint8

const (
	kindNil kind = iota
	kindAtom
	kindCell
)

// Noun is an immutable term. The zero value is Nil, the empty list.
type Noun struct {
	kind kind
	data []byte
	head *Noun
	tail *Noun
}

// Nil is the empty list.
var Nil = Noun{}

// Atom returns an atom holding a copy of data. An empty atom is the zero
// number, distinct from Nil.
func Atom(data []byte) Noun {
	d := make([]byte, len(data))
	copy(d, data)
	return Noun{kind: kindAtom, data: d}
}

// Uint returns an atom holding the minimal big-endian encoding of u.
// Uint(0) is the empty atom.
func Uint(u uint64) Noun {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], u)
	i := 0
	for i < 8 && buf[i] == 0 {
		i++
	}
	return Noun{kind: kindAtom, data: append([]byte(nil), buf[i:]...)}
}

// Text returns an atom holding the bytes of s.
func Text(s string) Noun {
	return Noun{kind: kindAtom, data: []byte(s)}
}

// Cell returns the pair [head tail].
func Cell(head, tail Noun) Noun {
	h, t := head, tail
	return Noun{kind: kindCell, head: &h, tail: &t}
}

// List returns the proper list of elems, terminated by Nil.
func List(elems ...Noun) Noun {
	out := Nil
	for i := len(elems) - 1; i >= 0; i-- {
		out = Cell(elems[i], out)
	}
	return out
}

// IsNil reports whether n is the empty list.
func (n Noun) IsNil() bool { return n.kind == kindNil }

// IsAtom reports whether n is an atom.
func (n Noun) IsAtom() bool { return n.kind == kindAtom }

// IsCell reports whether n is a cell.
func (n Noun) IsCell() bool { return n.kind == kindCell }

// Head returns the head of a cell. The second result is false when n is not
// a cell.
func (n Noun) Head() (Noun, bool) {
	if n.kind != kindCell {
		return Nil, false
	}
	return *n.head, true
}

// Tail returns the tail of a cell. The second result is false when n is not
// a cell.
func (n Noun) Tail() (Noun, bool) {
	if n.kind != kindCell {
		return Nil, false
	}
	return *n.tail, true
}

// Bytes returns the payload of an atom. The second result is false when n is
// not an atom.
func (n Noun) Bytes() ([]byte, bool) {
	if n.kind != kindAtom {
		return nil, false
	}
	return append([]byte(nil), n.data...), true
}

// AsUint interprets an atom as a big-endian unsigned integer. The second
// result is false when n is not an atom or the value does not fit in 64 bits.
func (n Noun) AsUint() (uint64, bool) {
	if n.kind != kindAtom || len(n.data) > 8 {
		return 0, false
	}
	var u uint64
	for _, b := range n.data {
		u = u<<8 | uint64(b)
	}
	return u, true
}

// Equal reports structural equality.
func (n Noun) Equal(other Noun) bool {
	if n.kind != other.kind {
		return false
	}
	switch n.kind {
	case kindNil:
		return true
	case kindAtom:
		if len(n.data) != len(other.data) {
			return false
		}
		for i := range n.data {
			if n.data[i] != other.data[i] {
				return false
			}
		}
		return true
	default:
		return n.head.Equal(*other.head) && n.tail.Equal(*other.tail)
	}
}

// Elems returns the successive cell heads of n and the terminal it ends in.
// For a proper list the terminal is Nil; for an improper list it is the
// trailing atom; for an atom or Nil the element slice is empty.
func (n Noun) Elems() ([]Noun, Noun) {
	var elems []Noun
	cur := n
	for cur.kind == kindCell {
		elems = append(elems, *cur.head)
		cur = *cur.tail
	}
	return elems, cur
}

// Prepend returns the noun obtained by consing elems, in order, onto base.
// The shape of base, including any improper terminal, is preserved.
func Prepend(elems []Noun, base Noun) Noun {
	out := base
	for i := len(elems) - 1; i >= 0; i-- {
		out = Cell(elems[i], out)
	}
	return out
}

// String renders n for logs: atoms as quoted text when printable, hex
// otherwise; cells in bracketed head/tail form.
func (n Noun) String() string {
	switch n.kind {
	case kindNil:
		return "~"
	case kindAtom:
		if len(n.data) == 0 {
			return "0"
		}
		if utf8.Valid(n.data) && printable(n.data) {
			return strconv.Quote(string(n.data))
		}
		return "0x" + hex.EncodeToString(n.data)
	default:
		return fmt.Sprintf("[%s %s]", n.head, n.tail)
	}
}

func printable(data []byte) bool {
	for _, b := range data {
		if b < 0x20 || b == 0x7f {
			return false
		}
	}
	return true
}
