package graph

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/roach88/kilnfs/internal/entity"
)

// AllChildrenOf loads every childKind document stored under the parent
// document at parentPath.
//
// An empty parentPath, or a missing relationship directory, yields no
// children. Any file whose name equals the child kind's base filename is a
// child, however deep it sits. The parent is loaded once and attached to
// every child. The first child that fails to load aborts the scan.
//
// Results are in directory walk order, which is lexical by path.
func (r *Registry) AllChildrenOf(childKind *entity.Kind, parentPath string) ([]entity.Entity, error) {
	if parentPath == "" {
		return nil, nil
	}
	rel, ok := r.RelationshipOf(childKind)
	if !ok {
		return nil, &ConfigError{Problems: []string{fmt.Sprintf("%s is not a child kind", childKind.Name())}}
	}

	parent, err := entity.Load(rel.Parent, parentPath)
	if err != nil {
		return nil, err
	}
	return r.scan(rel, parent)
}

// Children loads the children of parent held under relationship name.
// The in-memory parent is attached to each child without being reloaded.
// A parent that has never been persisted has no children.
func (r *Registry) Children(parent entity.Entity, name string) ([]entity.Entity, error) {
	rel, err := r.lookup(parent.Kind(), name)
	if err != nil {
		return nil, err
	}
	if parent.Meta().Path() == "" {
		return nil, nil
	}
	return r.scan(rel, parent)
}

// ChildrenAs is Children with every result asserted to T.
func ChildrenAs[T entity.Entity](r *Registry, parent entity.Entity, name string) ([]T, error) {
	all, err := r.Children(parent, name)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(all))
	for _, e := range all {
		t, ok := e.(T)
		if !ok {
			var zero T
			return nil, &entity.TypeMismatchError{
				Expected: fmt.Sprintf("%T", zero),
				Actual:   fmt.Sprintf("%T", e),
				Path:     e.Meta().Path(),
				What:     "document",
			}
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *Registry) scan(rel Relationship, parent entity.Entity) ([]entity.Entity, error) {
	relDir := filepath.Join(filepath.Dir(parent.Meta().Path()), rel.Name)
	info, err := os.Stat(relDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", relDir, err)
	}
	if !info.IsDir() {
		return nil, nil
	}

	base := rel.Child.BaseFilename()
	var children []entity.Entity
	err = filepath.WalkDir(relDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != base {
			return nil
		}
		child, err := entity.Load(rel.Child, path)
		if err != nil {
			return err
		}
		child.Meta().CacheParent(parent)
		children = append(children, child)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return children, nil
}
