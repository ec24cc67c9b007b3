package entity

import (
	"fmt"
	"regexp"
	"time"

	"github.com/roach88/kilnfs/internal/schema"
)

// Entity is implemented by every persisted kind.
// Concrete types embed Base and declare their Kind.
type Entity interface {
	Kind() *Kind
	Meta() *Base
}

// Named is implemented by kinds with a human-readable name. The name is
// appended, truncated, to the entity's directory when a path is derived.
type Named interface {
	DisplayName() string
}

// Checker is implemented by kinds with rules that go beyond their field
// constraints, such as cross-field or cross-entity checks.
type Checker interface {
	Check() schema.Violations
}

// Base holds the identity fields shared by every entity.
// The storage path and the in-memory parent are never serialized.
type Base struct {
	V         int       `json:"v"`
	ID        string    `json:"id"`
	ModelType string    `json:"model_type"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`

	path   string
	fixed  bool
	parent Entity
}

// Meta returns the base itself; embedding Base satisfies half of Entity.
func (b *Base) Meta() *Base { return b }

// Path returns the storage location, or "" when none is set yet.
func (b *Base) Path() string { return b.path }

// SetPath assigns an explicit storage location.
// Once the entity has been written or loaded its location is fixed and
// only the same path may be assigned again.
func (b *Base) SetPath(path string) error {
	if b.fixed && path != b.path {
		return fmt.Errorf("cannot move %q from %s to %s: location is fixed once persisted", b.ID, b.path, path)
	}
	b.path = path
	return nil
}

// Persisted returns true once the entity has been written or loaded.
func (b *Base) Persisted() bool { return b.fixed }

// CachedParent returns the in-memory parent, or nil.
func (b *Base) CachedParent() Entity { return b.parent }

// CacheParent stores an in-memory parent reference.
// Kind checks are the caller's concern; see graph.Registry.SetParent.
func (b *Base) CacheParent(p Entity) { b.parent = p }

// fix records path as the permanent storage location.
func (b *Base) fix(path string) {
	b.path = path
	b.fixed = true
}

// Init stamps identity fields that are still empty: schema version, id,
// creation time and attribution. The type tag always follows the kind.
// Existing values are never replaced, so Init is safe to call repeatedly.
func Init(e Entity) {
	b := e.Meta()
	if b.V == 0 {
		b.V = 1
	}
	if b.ID == "" {
		b.ID = NewID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now()
	}
	if b.CreatedBy == "" {
		b.CreatedBy = CreatedBy()
	}
	b.ModelType = e.Kind().TypeTag()
}

// validID matches ids usable verbatim as one directory name.
var validID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidID reports whether id can name a directory: non-empty ASCII
// letters, digits, '_' and '-'.
func ValidID(id string) bool {
	return validID.MatchString(id)
}

// CheckIdentity validates the identity fields every document carries:
// v must lie between 1 and the kind's newest schema version, so a written
// document always loads back, and id must be usable as a directory name.
// An empty id is left to Init.
func CheckIdentity(e Entity) schema.Violations {
	b := e.Meta()
	var vs schema.Violations
	if newest := e.Kind().MaxSchemaVersion(); b.V < 1 || b.V > newest {
		vs = append(vs, schema.Violation{
			Loc:     schema.Loc{schema.Key("v")},
			Message: fmt.Sprintf("schema version %d is outside the supported range 1..%d", b.V, newest),
			Code:    schema.CodeConstraint,
		})
	}
	if b.ID != "" && !ValidID(b.ID) {
		vs = append(vs, schema.Violation{
			Loc:     schema.Loc{schema.Key("id")},
			Message: fmt.Sprintf("id %q may only contain letters, digits, '_' and '-'", b.ID),
			Code:    schema.CodeConstraint,
		})
	}
	return vs
}
