package graph

import (
	"fmt"
	"path/filepath"

	"github.com/roach88/kilnfs/internal/entity"
)

// ParentLocation derives where child's parent document should be, from
// the child's own path alone: three directories up (child file, child
// directory, relationship directory) and the parent kind's base filename.
//
// ok is false for root kinds and for entities with no path yet.
func (r *Registry) ParentLocation(child entity.Entity) (kind *entity.Kind, path string, ok bool) {
	parentKind, isChild := r.ParentKind(child.Kind())
	if !isChild {
		return nil, "", false
	}
	childPath := child.Meta().Path()
	if childPath == "" {
		return nil, "", false
	}

	childDir := filepath.Dir(childPath)
	relDir := filepath.Dir(childDir)
	parentDir := filepath.Dir(relDir)
	return parentKind, filepath.Join(parentDir, parentKind.BaseFilename()), true
}

// Parent returns e's parent, loading and caching it on first access.
//
// A parent set in memory, or resolved earlier, is returned as is. An
// entity without a path, or of a root kind, has no parent: (nil, nil).
// Load failures are propagated.
func (r *Registry) Parent(e entity.Entity) (entity.Entity, error) {
	if p := e.Meta().CachedParent(); p != nil {
		return p, nil
	}

	kind, path, ok := r.ParentLocation(e)
	if !ok {
		return nil, nil
	}

	parent, err := entity.Load(kind, path)
	if err != nil {
		return nil, fmt.Errorf("resolve parent of %s %q: %w", e.Kind().Name(), e.Meta().ID, err)
	}
	e.Meta().CacheParent(parent)
	return parent, nil
}

// ParentAs is Parent with the result asserted to T.
// A missing parent returns the zero T and no error.
func ParentAs[T entity.Entity](r *Registry, e entity.Entity) (T, error) {
	var zero T
	p, err := r.Parent(e)
	if err != nil || p == nil {
		return zero, err
	}
	t, ok := p.(T)
	if !ok {
		return zero, &entity.TypeMismatchError{Expected: fmt.Sprintf("%T", zero), Actual: fmt.Sprintf("%T", p), What: "parent"}
	}
	return t, nil
}

// SetParent attaches parent to child in memory. Path derivation and
// parent reads use it without touching disk. A nil parent clears it.
//
// Fails with TypeMismatchError when parent is not of child's declared
// parent kind.
func (r *Registry) SetParent(child, parent entity.Entity) error {
	if parent == nil {
		child.Meta().CacheParent(nil)
		return nil
	}

	want, ok := r.ParentKind(child.Kind())
	if !ok {
		return &entity.TypeMismatchError{Expected: "(no parent)", Actual: parent.Kind().TypeTag(), What: "parent"}
	}
	if parent.Kind() != want {
		return &entity.TypeMismatchError{Expected: want.TypeTag(), Actual: parent.Kind().TypeTag(), What: "parent"}
	}
	child.Meta().CacheParent(parent)
	return nil
}
