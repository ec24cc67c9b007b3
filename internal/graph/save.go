package graph

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/kilnfs/internal/entity"
	"github.com/roach88/kilnfs/internal/schema"
)

// Violations returns every field and rule violation of e, fields first.
// Rule checks only run when the fields are valid.
func Violations(e entity.Entity) schema.Violations {
	vs := entity.CheckFields(e)
	if len(vs) > 0 {
		return vs
	}
	if c, ok := e.(entity.Checker); ok {
		return c.Check()
	}
	return nil
}

// Validate returns a *entity.ValidationError listing every violation of
// e, or nil.
func Validate(e entity.Entity) error {
	if vs := Violations(e); len(vs) > 0 {
		return &entity.ValidationError{Kind: e.Kind().Name(), Violations: vs}
	}
	return nil
}

// IDConflicts reports a violation at "id" when e is not stored yet, its
// location is derived from its parent, and a sibling under the same
// relationship already uses its id. Saving e would otherwise overwrite
// that sibling or leave two documents with one id.
func (r *Registry) IDConflicts(e entity.Entity) schema.Violations {
	b := e.Meta()
	if b.Persisted() || b.Path() != "" || !entity.ValidID(b.ID) {
		return nil
	}
	path, ok, err := r.BuildPath(e)
	if err != nil || !ok {
		return nil
	}

	relDir := filepath.Dir(filepath.Dir(path))
	entries, err := os.ReadDir(relDir)
	if err != nil {
		return nil
	}
	for _, de := range entries {
		if !de.IsDir() || (de.Name() != b.ID && !strings.HasPrefix(de.Name(), b.ID+" - ")) {
			continue
		}
		existing := filepath.Join(relDir, de.Name(), e.Kind().BaseFilename())
		if _, err := os.Stat(existing); err == nil {
			return schema.Violations{schema.At(schema.Loc{schema.Key("id")},
				"%s %q already exists at %s", e.Kind().Name(), b.ID, existing)}
		}
	}
	return nil
}

// Save validates e and writes it to its explicit or derived location.
// Re-saving a persisted entity overwrites the same file.
func (r *Registry) Save(e entity.Entity) error {
	entity.Init(e)

	vs := entity.CheckIdentity(e)
	if len(vs) == 0 {
		vs = r.IDConflicts(e)
	}
	if len(vs) > 0 {
		return &entity.ValidationError{Kind: e.Kind().Name(), Violations: vs}
	}

	path, ok, err := r.BuildPath(e)
	if err != nil {
		return err
	}
	if !ok {
		return &entity.MissingLocationError{Kind: e.Kind().Name(), ID: e.Meta().ID}
	}

	if err := Validate(e); err != nil {
		return err
	}
	return entity.Write(e, path)
}

// LoadAny loads the document at path as whichever registered kind its
// type tag names.
func (r *Registry) LoadAny(path string) (entity.Entity, error) {
	h, _, err := entity.ReadHeader(path)
	if err != nil {
		return nil, err
	}
	k, ok := r.KindByTag(h.ModelType)
	if !ok {
		return nil, &entity.TypeMismatchError{Expected: "a registered kind", Actual: h.ModelType, Path: path, What: "document"}
	}
	return entity.Load(k, path)
}
