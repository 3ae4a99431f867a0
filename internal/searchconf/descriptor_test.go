package searchconf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemexbase/gemex/pkg/model"
)

func TestDescriptor_CopyOnOverride(t *testing.T) {
	base := Descriptor{Type: ItemList{Item: "tags"}, Label: "Tags", Default: []int64{1, 2}}

	derived := base.WithLabel("Mots-clés")
	assert.Equal(t, "Tags", base.Label)
	assert.Equal(t, "Mots-clés", derived.Label)

	derived.Default.([]int64)[0] = 99
	assert.Equal(t, []int64{1, 2}, base.Default, "derived descriptor must not alias the base default")

	v := base.DefaultValue().([]int64)
	v[1] = 42
	assert.Equal(t, []int64{1, 2}, base.Default)

	typed := base.WithType(ItemRef{Entity: "users"})
	assert.Equal(t, ItemList{Item: "tags"}, base.Type)
	assert.Equal(t, ItemRef{Entity: "users"}, typed.Type)
}

func TestDefaultLabel(t *testing.T) {
	tests := map[string]string{
		"date_creation": "Date creation",
		"tags":          "Tag",
		"is_active":     "Is active",
		"nb_elements":   "Nb element",
		"adress":        "Adress",
		"bus":           "Bus",
		"nom":           "Nom",
	}
	for in, want := range tests {
		assert.Equal(t, want, DefaultLabel(in), in)
	}
}

func TestFieldTypes(t *testing.T) {
	assert.True(t, IsRanged(NumberOperator{}))
	assert.True(t, IsRanged(TimeDelta{}))
	assert.False(t, IsRanged(Number{}))

	assert.True(t, IsPartialDate(Date{Strict: false}))
	assert.False(t, IsPartialDate(Date{Strict: true}))
	assert.False(t, IsPartialDate(Text{}))

	ref, ok := ReferencedEntity(ItemRef{Entity: "users"})
	assert.True(t, ok)
	assert.Equal(t, "users", ref)
	ref, ok = ReferencedEntity(ItemList{Item: "tags"})
	assert.True(t, ok)
	assert.Equal(t, "tags", ref)
	_, ok = ReferencedEntity(Boolean{})
	assert.False(t, ok)
}

func TestParseType(t *testing.T) {
	ft, err := parseType("date", "", true)
	require.NoError(t, err)
	assert.Equal(t, Date{Strict: true}, ft)

	_, err = parseType("ref", "", false)
	assert.Error(t, err)
	_, err = parseType("color", "", false)
	assert.Error(t, err)
}

func TestNormalizeDefault(t *testing.T) {
	v, err := normalizeDefault(Number{}, 3)
	require.NoError(t, err)
	assert.Equal(t, float64(3), v)

	v, err = normalizeDefault(ItemList{Item: "tags"}, []interface{}{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, v)

	v, err = normalizeDefault(Date{}, map[string]interface{}{"year": 2024})
	require.NoError(t, err)
	assert.Equal(t, model.PartialDate{Year: 2024}, v)

	v, err = normalizeDefault(Date{Strict: true}, "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", v)

	_, err = normalizeDefault(Boolean{}, "yes")
	assert.Error(t, err)
	_, err = normalizeDefault(Date{Strict: true}, "15/03/2024")
	assert.ErrorIs(t, err, model.ErrInvalidValue)

	v, err = normalizeDefault(Text{}, nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}
