package entity

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kilnfs/internal/schema"
)

type namedExample struct {
	Base
	Name string `json:"name,omitempty"`
}

var namedExampleKind = NewKind("NamedExample", func() *namedExample { return &namedExample{} },
	WithSchema(schema.MustCompile("named_example", `
import "strings"

name?: string & strings.MinRunes(1)
`)),
)

func (e *namedExample) Kind() *Kind { return namedExampleKind }

type otherExample struct {
	Base
}

var otherExampleKind = NewKind("OtherExample", func() *otherExample { return &otherExample{} })

func (e *otherExample) Kind() *Kind { return otherExampleKind }

func writeRaw(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// =============================================================================
// Kind
// =============================================================================

func TestTypeTag(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Project", "project"},
		{"TaskRequirement", "task_requirement"},
		{"KilnBaseModel", "kiln_base_model"},
		{"ModelA", "model_a"},
		{"HTTPCall", "http_call"},
		{"Task2Run", "task2_run"},
		{"base_parent_example", "base_parent_example"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeTag(tt.name))
		})
	}
}

func TestKindMetadata(t *testing.T) {
	assert.Equal(t, "NamedExample", namedExampleKind.Name())
	assert.Equal(t, "named_example", namedExampleKind.TypeTag())
	assert.Equal(t, "named_example.kiln", namedExampleKind.BaseFilename())
	assert.Equal(t, 1, namedExampleKind.MaxSchemaVersion())
	assert.NotNil(t, namedExampleKind.Schema())
	assert.Nil(t, otherExampleKind.Schema())

	k := NewKind("Versioned", func() *otherExample { return &otherExample{} }, WithMaxSchemaVersion(3))
	assert.Equal(t, 3, k.MaxSchemaVersion())
}

func TestKindNewStampsIdentity(t *testing.T) {
	before := time.Now().UTC()
	e := namedExampleKind.New()
	b := e.Meta()

	assert.Equal(t, 1, b.V)
	assert.Len(t, b.ID, IDLength)
	assert.Equal(t, "named_example", b.ModelType)
	assert.WithinDuration(t, before, b.CreatedAt, 2*time.Second)
	assert.NotEmpty(t, b.CreatedBy)
	assert.Empty(t, b.Path())
	assert.False(t, b.Persisted())
}

func TestInitKeepsExistingValues(t *testing.T) {
	e := &namedExample{}
	e.ID = "keepme"
	e.CreatedBy = "bob"
	Init(e)
	Init(e)

	assert.Equal(t, "keepme", e.ID)
	assert.Equal(t, "bob", e.CreatedBy)
}

func TestUseCreatedBy(t *testing.T) {
	defer UseCreatedBy("carol")()
	assert.Equal(t, "carol", namedExampleKind.New().Meta().CreatedBy)
}

// =============================================================================
// Write / Load
// =============================================================================

func TestWriteAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "dir", namedExampleKind.BaseFilename())

	e := namedExampleKind.New().(*namedExample)
	e.Name = "Child"
	require.NoError(t, Write(e, path))
	assert.Equal(t, path, e.Path())
	assert.True(t, e.Persisted())

	loaded, err := LoadAs[*namedExample](namedExampleKind, path)
	require.NoError(t, err)
	assert.Equal(t, e.ID, loaded.ID)
	assert.Equal(t, "Child", loaded.Name)
	assert.Equal(t, path, loaded.Path())
	assert.True(t, e.CreatedAt.Equal(loaded.CreatedAt))
	assert.Equal(t, e.CreatedBy, loaded.CreatedBy)
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, namedExampleKind.BaseFilename())

	e := namedExampleKind.New()
	require.NoError(t, Write(e, path))
	require.NoError(t, Write(e, path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "named_example.kiln", entries[0].Name())
}

func TestResaveKeepsIDAndPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), namedExampleKind.BaseFilename())

	e := namedExampleKind.New().(*namedExample)
	id := e.ID
	require.NoError(t, e.SetPath(path))
	require.NoError(t, Save(e))

	e.Name = "Renamed"
	require.NoError(t, Save(e))
	require.NoError(t, Save(e))

	assert.Equal(t, id, e.ID)
	assert.Equal(t, path, e.Path())

	loaded, err := LoadAs[*namedExample](namedExampleKind, path)
	require.NoError(t, err)
	assert.Equal(t, id, loaded.ID)
	assert.Equal(t, "Renamed", loaded.Name)
}

func TestSetPathFixedAfterSave(t *testing.T) {
	dir := t.TempDir()
	e := namedExampleKind.New()

	require.NoError(t, e.Meta().SetPath(filepath.Join(dir, "a.kiln")))
	require.NoError(t, e.Meta().SetPath(filepath.Join(dir, "b.kiln")), "reassigning before first save is allowed")
	require.NoError(t, Save(e))

	assert.Error(t, e.Meta().SetPath(filepath.Join(dir, "c.kiln")))
	assert.NoError(t, e.Meta().SetPath(filepath.Join(dir, "b.kiln")))
	assert.Error(t, Write(e, filepath.Join(dir, "c.kiln")))
}

func TestSaveWithoutPath(t *testing.T) {
	err := Save(namedExampleKind.New())
	require.Error(t, err)

	var ml *MissingLocationError
	require.True(t, errors.As(err, &ml))
	assert.Equal(t, "NamedExample", ml.Kind)
	assert.Equal(t, CodeMissingLocation, CodeOf(err))
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(namedExampleKind, filepath.Join(t.TempDir(), "missing.kiln"))
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, CodeNotFound, CodeOf(err))
	assert.Contains(t, err.Error(), "NamedExample")
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "named_example.kiln")
	writeRaw(t, path, `{"v": 1, "model_type": `)

	_, err := Load(namedExampleKind, path)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, CodeDecode, CodeOf(err))
}

func TestLoadWrongFieldType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "named_example.kiln")
	writeRaw(t, path, `{"v": 1, "model_type": "named_example", "name": 42}`)

	_, err := Load(namedExampleKind, path)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
}

func TestLoadConstraintViolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "named_example.kiln")
	writeRaw(t, path, `{"v": 1, "model_type": "named_example", "name": ""}`)

	_, err := Load(namedExampleKind, path)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.True(t, IsValidation(err))
}

func TestLoadTypeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "named_example.kiln")
	writeRaw(t, path, `{"v": 1, "model_type": "other_example"}`)

	_, err := Load(namedExampleKind, path)
	require.Error(t, err)
	assert.True(t, IsTypeMismatch(err))

	var tm *TypeMismatchError
	require.True(t, errors.As(err, &tm))
	assert.Equal(t, "named_example", tm.Expected)
	assert.Equal(t, "other_example", tm.Actual)
}

func TestLoadMissingTypeTag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "named_example.kiln")
	writeRaw(t, path, `{"v": 1}`)

	_, err := Load(namedExampleKind, path)
	assert.True(t, IsTypeMismatch(err))
}

func TestLoadNewerSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "named_example.kiln")
	writeRaw(t, path, `{"v": 99}`)

	e, err := Load(namedExampleKind, path)
	assert.Nil(t, e, "no partially populated result")
	require.Error(t, err)
	assert.True(t, IsSchemaVersion(err))

	var sv *SchemaVersionError
	require.True(t, errors.As(err, &sv))
	assert.Equal(t, 99, sv.Version)
	assert.Equal(t, 1, sv.Max)
	assert.Contains(t, err.Error(), "upgrade required")
}

func TestLoadNonPositiveSchemaVersion(t *testing.T) {
	for _, v := range []string{"0", "-3"} {
		t.Run("v="+v, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "named_example.kiln")
			writeRaw(t, path, `{"v": `+v+`, "model_type": "named_example"}`)

			e, err := Load(namedExampleKind, path)
			assert.Nil(t, e)
			var de *DecodeError
			require.ErrorAs(t, err, &de)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			require.Len(t, ve.Violations, 1)
			assert.Equal(t, "v", ve.Violations[0].Loc.String())
		})
	}
}

func TestWriteRejectsUnloadableIdentity(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(b *Base)
		wantLoc string
	}{
		{"newer version", func(b *Base) { b.V = 99 }, "v"},
		{"negative version", func(b *Base) { b.V = -1 }, "v"},
		{"path traversal id", func(b *Base) { b.ID = "../../.." }, "id"},
		{"nested id", func(b *Base) { b.ID = "a/b" }, "id"},
		{"spaced id", func(b *Base) { b.ID = "a - b" }, "id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			e := namedExampleKind.New().(*namedExample)
			tt.mutate(e.Meta())

			err := Write(e, filepath.Join(dir, "named_example.kiln"))
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			require.Len(t, ve.Violations, 1)
			assert.Equal(t, tt.wantLoc, ve.Violations[0].Loc.String())
			assert.False(t, e.Persisted())

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries, "nothing written")
		})
	}
}

func TestCheckIdentity(t *testing.T) {
	e := otherExampleKind.New()
	assert.Empty(t, CheckIdentity(e))

	e.Meta().V = 2
	e.Meta().ID = "x y"
	vs := CheckIdentity(e)
	require.Len(t, vs, 2)
	assert.Equal(t, "v", vs[0].Loc.String())
	assert.Equal(t, "id", vs[1].Loc.String())

	assert.Len(t, CheckFields(e), 2, "identity is part of the field check")
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID("5f0c2a9e7b11"))
	assert.True(t, ValidID("000000000001"))
	assert.True(t, ValidID("a_b-C"))
	assert.False(t, ValidID(""))
	assert.False(t, ValidID(".."))
	assert.False(t, ValidID("a/b"))
	assert.False(t, ValidID("é"))
}

func TestLoadMinimalDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other_example.kiln")
	writeRaw(t, path, `{"v": 1, "model_type": "other_example"}`)

	e, err := Load(otherExampleKind, path)
	require.NoError(t, err)
	assert.Equal(t, 1, e.Meta().V)
	assert.Len(t, e.Meta().ID, IDLength, "missing id is generated")
	assert.Equal(t, path, e.Meta().Path())
}

func TestLoadAsWrongType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other_example.kiln")
	writeRaw(t, path, `{"v": 1, "model_type": "other_example"}`)

	_, err := LoadAs[*namedExample](otherExampleKind, path)
	assert.True(t, IsTypeMismatch(err))
}

func TestReadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.kiln")
	writeRaw(t, path, `{"v": 2, "id": "abc", "model_type": "task"}`)

	h, _, err := ReadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Version())
	assert.Equal(t, "abc", h.ID)
	assert.Equal(t, "task", h.ModelType)
	assert.Equal(t, 1, Header{}.Version())
}

// =============================================================================
// Format
// =============================================================================

func TestEncodeExcludesPath(t *testing.T) {
	e := namedExampleKind.New()
	require.NoError(t, e.Meta().SetPath("/somewhere/named_example.kiln"))

	data, err := Encode(e)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "somewhere")
	assert.NotContains(t, string(data), `"path"`)
}

func TestEncodeGolden(t *testing.T) {
	defer UseIDGenerator(NewFixedIDGenerator("a1b2c3d4e5f6"))()
	defer UseClock(FixedClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))()
	defer UseCreatedBy("alice")()

	e := namedExampleKind.New().(*namedExample)
	e.Name = "Example <one> & two"

	data, err := Encode(e)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "document", data)
}

func TestCheckFields(t *testing.T) {
	e := namedExampleKind.New().(*namedExample)
	assert.Empty(t, CheckFields(e), "omitted optional name is valid")
	assert.Empty(t, CheckFields(otherExampleKind.New()), "kinds without schema always pass")
}

func TestFixedIDGeneratorExhausted(t *testing.T) {
	g := NewFixedIDGenerator("one")
	assert.Equal(t, "one", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

func TestRandomIDGenerator(t *testing.T) {
	g := RandomIDGenerator{}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := g.Generate()
		require.Len(t, id, IDLength)
		require.False(t, seen[id])
		seen[id] = true
	}
}
