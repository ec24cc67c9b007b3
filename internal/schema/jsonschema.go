package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
	"cuelang.org/go/encoding/jsonschema"
)

// ErrNotObjectSchema is returned when a JSON schema does not describe an
// object with properties.
var ErrNotObjectSchema = errors.New("JSON schema must be an object with properties")

// FromJSONSchema compiles JSON Schema text into a Schema.
//
// Only object schemas are accepted: the top level must declare
// "type": "object" and a "properties" member.
func FromJSONSchema(name, src string) (*Schema, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(src), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON schema %s: %w", name, err)
	}
	if raw["type"] != "object" {
		return nil, fmt.Errorf("%s: %w", name, ErrNotObjectSchema)
	}
	if _, ok := raw["properties"]; !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotObjectSchema)
	}

	ctx := cuecontext.New()
	expr, err := cuejson.Extract(name, []byte(src))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON schema %s: %w", name, err)
	}
	data := ctx.BuildExpr(expr)
	if err := data.Err(); err != nil {
		return nil, fmt.Errorf("invalid JSON schema %s: %w", name, err)
	}

	file, err := jsonschema.Extract(data, &jsonschema.Config{})
	if err != nil {
		return nil, fmt.Errorf("invalid JSON schema %s: %w", name, err)
	}
	val := ctx.BuildFile(file)
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("invalid JSON schema %s: %w", name, err)
	}

	return &Schema{name: name, ctx: ctx, val: val}, nil
}

// CheckJSONText validates text that is expected to hold a JSON document.
// Text that does not parse is reported as a single shape violation.
func (s *Schema) CheckJSONText(text string) Violations {
	if !json.Valid([]byte(text)) {
		return Violations{{Message: "value is not valid JSON", Code: CodeShape}}
	}
	return s.Check([]byte(text))
}
