package entity

import (
	"strings"
	"unicode"

	"github.com/roach88/kilnfs/internal/schema"
)

// FileExtension is appended to a kind's type tag to form its base filename.
const FileExtension = ".kiln"

// Kind describes one concrete entity type.
// Kinds are created once, at package initialization, and never mutated.
type Kind struct {
	name             string
	typeTag          string
	maxSchemaVersion int
	schema           *schema.Schema
	newFn            func() Entity
}

// KindOption configures a Kind.
type KindOption func(*Kind)

// WithMaxSchemaVersion sets the newest document version this code can read.
// Increment it for breaking format changes.
func WithMaxSchemaVersion(v int) KindOption {
	return func(k *Kind) {
		k.maxSchemaVersion = v
	}
}

// WithSchema attaches field constraints checked on validate and load.
func WithSchema(s *schema.Schema) KindOption {
	return func(k *Kind) {
		k.schema = s
	}
}

// NewKind declares a kind. newFn returns a value with kind-specific
// defaults applied; identity fields are stamped afterwards by Kind.New.
func NewKind[T Entity](name string, newFn func() T, opts ...KindOption) *Kind {
	k := &Kind{
		name:             name,
		typeTag:          TypeTag(name),
		maxSchemaVersion: 1,
		newFn:            func() Entity { return newFn() },
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Name returns the kind name, e.g. "TaskRequirement".
func (k *Kind) Name() string { return k.name }

// TypeTag returns the serialized type tag, e.g. "task_requirement".
func (k *Kind) TypeTag() string { return k.typeTag }

// BaseFilename returns the fixed filename every entity of this kind is
// stored under, e.g. "task_requirement.kiln".
func (k *Kind) BaseFilename() string { return k.typeTag + FileExtension }

// MaxSchemaVersion returns the newest readable document version.
func (k *Kind) MaxSchemaVersion() int { return k.maxSchemaVersion }

// Schema returns the kind's field constraints, or nil.
func (k *Kind) Schema() *schema.Schema { return k.schema }

// String returns the kind name.
func (k *Kind) String() string { return k.name }

// New returns a fresh entity with defaults and identity fields set.
func (k *Kind) New() Entity {
	e := k.newFn()
	Init(e)
	return e
}

// TypeTag renders a kind name as a lowercase, underscore-separated tag.
//
//	TypeTag("TaskRequirement") == "task_requirement"
//	TypeTag("ModelA")          == "model_a"
//	TypeTag("HTTPCall")        == "http_call"
func TypeTag(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		switch {
		case r == ' ' || r == '-' || r == '_':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			continue
		case unicode.IsUpper(r):
			if i > 0 && b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
