package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/roach88/kilnfs/internal/schema"
)

// Header is the part of a document read before the kind-specific body.
type Header struct {
	V         *int   `json:"v"`
	ID        string `json:"id"`
	ModelType string `json:"model_type"`
}

// Version returns the stored schema version, defaulting to 1 when absent.
func (h Header) Version() int {
	if h.V == nil {
		return 1
	}
	return *h.V
}

// ReadHeader reads only the identity header of the document at path.
// Used to dispatch a file of unknown kind.
func ReadHeader(path string) (Header, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Header{}, nil, &NotFoundError{Kind: "document", Path: path, Err: err}
		}
		return Header{}, nil, fmt.Errorf("read %s: %w", path, err)
	}

	var h Header
	if err := json.Unmarshal(data, &h); err != nil {
		return Header{}, nil, &DecodeError{Kind: "document", Path: path, Err: err}
	}
	return h, data, nil
}

// Load reads the document at path as kind k.
//
// Checks run in a fixed order and the first failure wins: existence,
// header decode, schema version, type tag, full decode, field constraints.
// On failure no entity is returned. On success the entity's storage
// location is fixed to path.
func Load(k *Kind, path string) (Entity, error) {
	h, data, err := ReadHeader(path)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			nf.Kind = k.Name()
		}
		var de *DecodeError
		if errors.As(err, &de) {
			de.Kind = k.Name()
		}
		return nil, err
	}

	if v := h.Version(); v < 1 {
		return nil, &DecodeError{Kind: k.Name(), Path: path, Err: &ValidationError{Kind: k.Name(), Violations: schema.Violations{{
			Loc:     schema.Loc{schema.Key("v")},
			Message: fmt.Sprintf("schema version %d must be a positive integer", v),
			Code:    schema.CodeConstraint,
		}}}}
	}

	if h.Version() > k.MaxSchemaVersion() {
		return nil, &SchemaVersionError{
			Kind:    k.Name(),
			ID:      h.ID,
			Path:    path,
			Version: h.Version(),
			Max:     k.MaxSchemaVersion(),
		}
	}

	if h.ModelType != k.TypeTag() {
		return nil, &TypeMismatchError{
			Expected: k.TypeTag(),
			Actual:   h.ModelType,
			Path:     path,
			What:     "document",
		}
	}

	e := k.newFn()
	if err := json.Unmarshal(data, e); err != nil {
		return nil, &DecodeError{Kind: k.Name(), Path: path, Err: err}
	}
	if s := k.Schema(); s != nil {
		if vs := s.Check(data); len(vs) > 0 {
			return nil, &DecodeError{Kind: k.Name(), Path: path, Err: &ValidationError{Kind: k.Name(), Violations: vs}}
		}
	}

	Init(e)
	e.Meta().fix(path)
	return e, nil
}

// LoadAs is Load with the result asserted to T.
func LoadAs[T Entity](k *Kind, path string) (T, error) {
	var zero T
	e, err := Load(k, path)
	if err != nil {
		return zero, err
	}
	t, ok := e.(T)
	if !ok {
		return zero, &TypeMismatchError{Expected: fmt.Sprintf("%T", zero), Actual: fmt.Sprintf("%T", e), Path: path, What: "document"}
	}
	return t, nil
}

// Encode renders e as its on-disk document: 4-space indented JSON with a
// trailing newline and the type tag of its kind.
func Encode(e Entity) ([]byte, error) {
	Init(e)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(e); err != nil {
		return nil, fmt.Errorf("encode %s %q: %w", e.Kind().Name(), e.Meta().ID, err)
	}
	return buf.Bytes(), nil
}

// CheckFields validates e's identity fields and its kind's field
// constraints.
func CheckFields(e Entity) schema.Violations {
	Init(e)
	vs := CheckIdentity(e)
	s := e.Kind().Schema()
	if s == nil {
		return vs
	}
	doc, err := Encode(e)
	if err != nil {
		return append(vs, schema.Violation{Message: err.Error(), Code: schema.CodeShape})
	}
	return append(vs, s.Check(doc)...)
}

// Write stores e at path, creating missing directories, and fixes the
// entity's storage location. Only the identity fields are checked, so
// nothing is written that Load would refuse on version or id; field
// constraints and rules are left to graph.Registry.Save.
func Write(e Entity, path string) error {
	b := e.Meta()
	if b.fixed && b.path != path {
		return fmt.Errorf("cannot write %s %q to %s: stored at %s", e.Kind().Name(), b.ID, path, b.path)
	}

	Init(e)
	if vs := CheckIdentity(e); len(vs) > 0 {
		return &ValidationError{Kind: e.Kind().Name(), Violations: vs}
	}

	data, err := Encode(e)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s %q: %w", e.Kind().Name(), b.ID, err)
	}

	b.fix(path)
	return nil
}

// Save writes e to its explicitly assigned path.
// It fails with MissingLocationError when no path is set.
func Save(e Entity) error {
	b := e.Meta()
	if b.path == "" {
		return &MissingLocationError{Kind: e.Kind().Name(), ID: b.ID}
	}
	return Write(e, b.path)
}

// writeFileAtomic writes through a temp file in the target directory and
// renames it into place. Temp names never equal a base filename.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
