package schema

import (
	"fmt"
	"strings"
)

// Violation codes (E2xx).
const (
	CodeConstraint = "E201" // field fails its declared constraint
	CodeRule       = "E202" // cross-field or cross-entity rule failed
	CodeShape      = "E203" // value has the wrong shape (not an object, not a list, bad JSON)
)

// Violation is a single validation failure.
type Violation struct {
	Loc     Loc    `json:"loc"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (v Violation) Error() string {
	if len(v.Loc) == 0 {
		return fmt.Sprintf("[%s] %s", v.Code, v.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", v.Code, v.Loc, v.Message)
}

// Violations is an ordered list of failures.
type Violations []Violation

// Prefix returns a copy of vs with steps prepended to every location.
func (vs Violations) Prefix(steps ...Step) Violations {
	if len(vs) == 0 {
		return nil
	}
	out := make(Violations, len(vs))
	for i, v := range vs {
		v.Loc = v.Loc.Prepend(steps...)
		out[i] = v
	}
	return out
}

// String joins all violations, one per line.
func (vs Violations) String() string {
	lines := make([]string, len(vs))
	for i, v := range vs {
		lines[i] = v.Error()
	}
	return strings.Join(lines, "\n")
}

// At returns a violation at loc with the rule code.
func At(loc Loc, format string, args ...any) Violation {
	return Violation{Loc: loc, Message: fmt.Sprintf(format, args...), Code: CodeRule}
}
