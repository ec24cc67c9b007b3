package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Step is one element of a Loc: either a field key or a list index.
type Step struct {
	Key     string
	Index   int
	IsIndex bool
}

// Key returns a field step.
func Key(name string) Step {
	return Step{Key: name}
}

// Index returns a list index step.
func Index(i int) Step {
	return Step{Index: i, IsIndex: true}
}

// Loc locates a value inside a nested document, e.g. bs[0].cs[2].code.
type Loc []Step

// String renders the location as bs[0].cs[2].code. The empty location
// renders as "".
func (l Loc) String() string {
	var b strings.Builder
	for i, s := range l {
		if s.IsIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.Key)
	}
	return b.String()
}

// Elems returns the location as a flat list of strings and ints,
// e.g. ["bs", 0, "cs", 2, "code"].
func (l Loc) Elems() []any {
	out := make([]any, len(l))
	for i, s := range l {
		if s.IsIndex {
			out[i] = s.Index
		} else {
			out[i] = s.Key
		}
	}
	return out
}

// Prepend returns a new location with steps placed before l.
func (l Loc) Prepend(steps ...Step) Loc {
	out := make(Loc, 0, len(steps)+len(l))
	out = append(out, steps...)
	return append(out, l...)
}

// Append returns a new location with steps placed after l.
// The receiver is never modified.
func (l Loc) Append(steps ...Step) Loc {
	out := make(Loc, 0, len(l)+len(steps))
	out = append(out, l...)
	return append(out, steps...)
}

// MarshalJSON encodes the location as its flat element list.
func (l Loc) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Elems())
}

// UnmarshalJSON decodes a flat element list written by MarshalJSON.
func (l *Loc) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	loc := make(Loc, 0, len(raw))
	for _, r := range raw {
		var key string
		if err := json.Unmarshal(r, &key); err == nil {
			loc = append(loc, Key(key))
			continue
		}
		var i int
		if err := json.Unmarshal(r, &i); err != nil {
			return fmt.Errorf("location element %s is neither a key nor an index", r)
		}
		loc = append(loc, Index(i))
	}
	*l = loc
	return nil
}

// locFromPath converts CUE error path selectors into a Loc.
// List indexes arrive as decimal strings; keys that are not identifiers
// arrive quoted.
func locFromPath(path []string) Loc {
	if len(path) == 0 {
		return nil
	}
	loc := make(Loc, 0, len(path))
	for _, sel := range path {
		sel = strings.TrimRight(sel, "?!")
		if n, err := strconv.Atoi(sel); err == nil {
			loc = append(loc, Index(n))
			continue
		}
		if strings.HasPrefix(sel, `"`) {
			if unq, err := strconv.Unquote(sel); err == nil {
				sel = unq
			}
		}
		loc = append(loc, Key(sel))
	}
	return loc
}
