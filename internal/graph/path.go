package graph

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/kilnfs/internal/entity"
)

// MaxNameSuffix is the maximum number of characters of an entity's name
// appended to its directory.
const MaxNameSuffix = 32

// ChildDirName returns the directory name for a child: its id, followed by
// " - " and a sanitized, truncated name when one is given.
func ChildDirName(id, name string) (string, error) {
	if id == "" {
		return "", &MissingIDError{}
	}
	if !entity.ValidID(id) {
		return "", &InvalidIDError{ID: id}
	}
	suffix := sanitizeName(name)
	if suffix == "" {
		return id, nil
	}
	return id + " - " + suffix, nil
}

// sanitizeName makes name safe as part of a directory name: NFC
// normalized, path separators and control or reserved characters replaced
// with '_', truncated to MaxNameSuffix characters and trimmed.
func sanitizeName(name string) string {
	name = norm.NFC.String(name)
	runes := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case unicode.IsControl(r), strings.ContainsRune(`/\:*?"<>|`, r):
			runes = append(runes, '_')
		default:
			runes = append(runes, r)
		}
	}
	if len(runes) > MaxNameSuffix {
		runes = runes[:MaxNameSuffix]
	}
	return strings.Trim(string(runes), " .")
}

// BuildPath returns the storage location of e.
//
// Resolution order, first match wins:
//  1. A location already set on e, from a load, save or explicit
//     assignment, is returned unchanged.
//  2. Without a resolvable parent, the location is undeterminable
//     (ok == false, err == nil).
//  3. If the parent's own location is undeterminable, so is e's.
//  4. Otherwise the location is
//     dir(parent path)/<relationship>/<id>[ - <name>]/<base filename>.
//
// An entity without an id fails with MissingIDError, one whose id is not a
// single safe path segment with InvalidIDError. Errors loading the
// parent are propagated.
func (r *Registry) BuildPath(e entity.Entity) (path string, ok bool, err error) {
	if p := e.Meta().Path(); p != "" {
		return p, true, nil
	}

	parent, err := r.Parent(e)
	if err != nil {
		return "", false, err
	}
	if parent == nil {
		return "", false, nil
	}

	parentPath, ok, err := r.BuildPath(parent)
	if err != nil || !ok {
		return "", false, err
	}

	rel, found := r.RelationshipOf(e.Kind())
	if !found {
		return "", false, nil
	}

	var name string
	if n, isNamed := e.(entity.Named); isNamed {
		name = n.DisplayName()
	}
	dir, err := ChildDirName(e.Meta().ID, name)
	switch err := err.(type) {
	case nil:
	case *MissingIDError:
		err.Kind = e.Kind().Name()
		return "", false, err
	case *InvalidIDError:
		err.Kind = e.Kind().Name()
		return "", false, err
	default:
		return "", false, err
	}

	return filepath.Join(filepath.Dir(parentPath), rel.Name, dir, e.Kind().BaseFilename()), true, nil
}
