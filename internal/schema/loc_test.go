package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocString(t *testing.T) {
	loc := Loc{Key("bs"), Index(0), Key("cs"), Index(2), Key("code")}
	assert.Equal(t, "bs[0].cs[2].code", loc.String())
	assert.Equal(t, "", Loc(nil).String())
	assert.Equal(t, "[3]", Loc{Index(3)}.String())
}

func TestLocPrependDoesNotAlias(t *testing.T) {
	base := Loc{Key("code")}
	a := base.Prepend(Key("cs"), Index(1))
	b := base.Prepend(Key("cs"), Index(2))

	assert.Equal(t, "cs[1].code", a.String())
	assert.Equal(t, "cs[2].code", b.String())
	assert.Equal(t, "code", base.String())
}

func TestLocAppendDoesNotAlias(t *testing.T) {
	base := make(Loc, 0, 8)
	base = append(base, Key("bs"))
	a := base.Append(Index(0))
	b := base.Append(Index(1))

	assert.Equal(t, "bs[0]", a.String())
	assert.Equal(t, "bs[1]", b.String())
}

func TestLocMarshalJSON(t *testing.T) {
	data, err := json.Marshal(Loc{Key("bs"), Index(0), Key("value")})
	require.NoError(t, err)
	assert.JSONEq(t, `["bs", 0, "value"]`, string(data))
}

func TestLocUnmarshalJSON(t *testing.T) {
	var loc Loc
	require.NoError(t, json.Unmarshal([]byte(`["bs", 0, "cs", 2, "code"]`), &loc))
	assert.Equal(t, "bs[0].cs[2].code", loc.String())

	assert.Error(t, json.Unmarshal([]byte(`[true]`), &loc))
}

func TestLocFromPath(t *testing.T) {
	loc := locFromPath([]string{"requirement_ratings", `"a b"`, "rating"})
	assert.Equal(t, Loc{Key("requirement_ratings"), Key("a b"), Key("rating")}, loc)

	loc = locFromPath([]string{"cs", "2", "code"})
	assert.Equal(t, "cs[2].code", loc.String())

	assert.Nil(t, locFromPath(nil))
}

func TestViolationsPrefix(t *testing.T) {
	vs := Violations{
		{Loc: Loc{Key("code")}, Message: "bad", Code: CodeConstraint},
		{Message: "root level", Code: CodeRule},
	}

	out := vs.Prefix(Key("cs"), Index(2))
	require.Len(t, out, 2)
	assert.Equal(t, "cs[2].code", out[0].Loc.String())
	assert.Equal(t, "cs[2]", out[1].Loc.String())
	assert.Equal(t, "code", vs[0].Loc.String(), "original untouched")

	assert.Nil(t, Violations(nil).Prefix(Key("x")))
}

func TestViolationError(t *testing.T) {
	v := At(Loc{Key("source_properties")}, "missing %s", "creator")
	assert.Equal(t, "[E202] source_properties: missing creator", v.Error())

	root := Violation{Message: "broken", Code: CodeShape}
	assert.Equal(t, "[E203] broken", root.Error())
}
