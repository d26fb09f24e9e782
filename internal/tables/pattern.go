package tables

import "github.com/Vinod798751/anoma/internal/noun"

// Pattern constrains list-shaped keys element by element. A pattern with n
// elements matches any key that is a cell chain whose first n heads are
// structurally equal to the pattern's elements; the remainder of the key,
// including any improper terminal, is unconstrained. The empty pattern
// matches every key.
type Pattern struct {
	elems []noun.Noun
}

// Everything matches every key.
var Everything = Pattern{}

// Prefix returns a pattern constraining the first len(elems) list elements.
func Prefix(elems ...noun.Noun) Pattern {
	return Pattern{elems: elems}
}

// Match reports whether key satisfies the pattern.
func (p Pattern) Match(key noun.Noun) bool {
	cur := key
	for _, want := range p.elems {
		head, ok := cur.Head()
		if !ok || !head.Equal(want) {
			return false
		}
		cur, _ = cur.Tail()
	}
	return true
}
