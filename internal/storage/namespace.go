package storage

import (
	"fmt"

	"github.com/Vinod798751/anoma/internal/noun"
)

// Namespace prepends the handle's namespace elements to key. An empty
// namespace returns the key unchanged. The key's own shape, including any
// improper terminal, is preserved.
func (s *Storage) Namespace(key noun.Noun) noun.Noun {
	return noun.Prepend(s.namespace, key)
}

// Denamespace strips the handle's exact namespace prefix from nskey. It
// fails with ErrNamespace when the prefix does not match element for
// element.
func (s *Storage) Denamespace(nskey noun.Noun) (noun.Noun, error) {
	cur := nskey
	for i, want := range s.namespace {
		head, ok := cur.Head()
		if !ok || !head.Equal(want) {
			return noun.Nil, fmt.Errorf("%w at element %d of %s", ErrNamespace, i, nskey)
		}
		cur, _ = cur.Tail()
	}
	return cur, nil
}

// namespaceQualified applies the namespace to the key element of a
// [version, key | tail] form, leaving the version head and the improper
// terminal untouched.
func (s *Storage) namespaceQualified(version, key, tail noun.Noun) noun.Noun {
	return noun.Cell(version, noun.Cell(s.Namespace(key), tail))
}

// denamespaceQualified strips the namespace from the key element of a
// physical [version, nskey | tail] form.
func (s *Storage) denamespaceQualified(qkey noun.Noun) (noun.Noun, error) {
	version, nskey, tail, err := splitQualified(qkey)
	if err != nil {
		return noun.Nil, err
	}
	key, err := s.Denamespace(nskey)
	if err != nil {
		return noun.Nil, err
	}
	return noun.Cell(version, noun.Cell(key, tail)), nil
}
