package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

// Schema is a compiled set of field constraints.
//
// A Schema owns its CUE context; documents are built in the same context
// before unification. Check is safe for concurrent use.
type Schema struct {
	name string

	mu  sync.Mutex
	ctx *cue.Context
	val cue.Value
}

// Compile compiles CUE source into a Schema.
// The source describes the document's top-level struct, for example:
//
//	import "strings"
//
//	name!:        string & strings.MinRunes(1)
//	description?: string
//
// Fields not mentioned are allowed, so identity fields (v, id, ...) need
// not be repeated in every kind's schema.
func Compile(name, src string) (*Schema, error) {
	ctx := cuecontext.New()
	val := ctx.CompileString(src, cue.Filename(name))
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{name: name, ctx: ctx, val: val}, nil
}

// MustCompile is like Compile but panics on error.
// Intended for package-level schema variables.
func MustCompile(name, src string) *Schema {
	s, err := Compile(name, src)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the name the schema was compiled under.
func (s *Schema) Name() string {
	return s.name
}

// Check validates a JSON document and returns every violation found.
// A nil result means the document is valid.
func (s *Schema) Check(doc []byte) Violations {
	s.mu.Lock()
	defer s.mu.Unlock()

	expr, err := cuejson.Extract(s.name+".json", doc)
	if err != nil {
		return Violations{{Message: fmt.Sprintf("document is not valid JSON: %v", err), Code: CodeShape}}
	}
	docVal := s.ctx.BuildExpr(expr)
	if err := docVal.Err(); err != nil {
		return fromCUE(err)
	}

	unified := s.val.Unify(docVal)
	return fromCUE(unified.Validate(cue.Concrete(true), cue.All()))
}

// CheckValue marshals v to JSON and checks it.
func (s *Schema) CheckValue(v any) Violations {
	doc, err := json.Marshal(v)
	if err != nil {
		return Violations{{Message: fmt.Sprintf("value cannot be encoded: %v", err), Code: CodeShape}}
	}
	return s.Check(doc)
}

// fromCUE flattens a CUE error list into violations sorted by location.
// CUE may report the same failure once per conjunct; duplicates are dropped.
func fromCUE(err error) Violations {
	if err == nil {
		return nil
	}

	var out Violations
	seen := make(map[string]bool)
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		loc := locFromPath(e.Path())

		key := loc.String() + "\x00" + msg
		if seen[key] {
			continue
		}
		seen[key] = true

		out = append(out, Violation{Loc: loc, Message: msg, Code: CodeConstraint})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Loc.String() < out[j].Loc.String()
	})
	return out
}
