package noun

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Canonical encoding: a single tag byte per node, atoms length-prefixed with
// a uvarint. Two nouns encode to the same bytes iff they are structurally
// equal, so the encoding doubles as a physical table key.
const (
	tagNil  = 0x00
	tagAtom = 0x01
	tagCell = 0x02
)

// ErrCorrupt is returned by Decode when the input is not a valid encoding.
var ErrCorrupt = errors.New("corrupt noun encoding")

// Encode returns the canonical byte encoding of n.
func Encode(n Noun) []byte {
	return appendNoun(nil, n)
}

func appendNoun(buf []byte, n Noun) []byte {
	switch n.kind {
	case kindNil:
		return append(buf, tagNil)
	case kindAtom:
		buf = append(buf, tagAtom)
		buf = binary.AppendUvarint(buf, uint64(len(n.data)))
		return append(buf, n.data...)
	default:
		// Encode the cell spine iteratively so deep lists do not recurse.
		cur := n
		for cur.kind == kindCell {
			buf = append(buf, tagCell)
			buf = appendNoun(buf, *cur.head)
			cur = *cur.tail
		}
		return appendNoun(buf, cur)
	}
}

// Key returns the encoding of n as a string, for use as a map key.
func Key(n Noun) string {
	return string(Encode(n))
}

// Decode parses a canonical encoding produced by Encode. It fails if bytes
// remain after the first complete noun.
func Decode(data []byte) (Noun, error) {
	n, rest, err := decode(data)
	if err != nil {
		return Nil, err
	}
	if len(rest) != 0 {
		return Nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(rest))
	}
	return n, nil
}

func decode(data []byte) (Noun, []byte, error) {
	if len(data) == 0 {
		return Nil, nil, fmt.Errorf("%w: truncated", ErrCorrupt)
	}
	switch data[0] {
	case tagNil:
		return Nil, data[1:], nil
	case tagAtom:
		n, read := binary.Uvarint(data[1:])
		if read <= 0 {
			return Nil, nil, fmt.Errorf("%w: bad atom length", ErrCorrupt)
		}
		rest := data[1+read:]
		if uint64(len(rest)) < n {
			return Nil, nil, fmt.Errorf("%w: truncated atom", ErrCorrupt)
		}
		return Atom(rest[:n]), rest[n:], nil
	case tagCell:
		head, rest, err := decode(data[1:])
		if err != nil {
			return Nil, nil, err
		}
		tail, rest, err := decode(rest)
		if err != nil {
			return Nil, nil, err
		}
		return Cell(head, tail), rest, nil
	default:
		return Nil, nil, fmt.Errorf("%w: unknown tag 0x%02x", ErrCorrupt, data[0])
	}
}
