package searchconf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemexbase/gemex/pkg/model"
)

func defaultRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Default()
	require.NoError(t, err)
	return r
}

func TestDefault_Entities(t *testing.T) {
	r := defaultRegistry(t)

	assert.Equal(t, []string{"users", "tags", "expositions", "elements", "fiches", "constats", "inventaire"}, r.Entities())
	for _, name := range r.Entities() {
		e, err := r.Entity(name)
		require.NoError(t, err)
		if e.DefaultSearchParam != "" {
			assert.True(t, e.HasField(e.DefaultSearchParam), name)
		}
		for _, f := range e.ResultFields {
			assert.True(t, e.HasField(f), name+"."+f)
		}
	}
}

func TestRegistry_UnknownEntity(t *testing.T) {
	r := defaultRegistry(t)

	_, err := r.Entity("vitrines")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUnknownEntity)
	assert.True(t, model.IsConfigurationError(err))

	assert.False(t, r.Has("vitrines"))
	assert.Panics(t, func() { r.MustEntity("vitrines") })
	assert.NotPanics(t, func() { r.MustEntity("fiches") })
}

func TestRegistry_Field(t *testing.T) {
	r := defaultRegistry(t)

	d, err := r.Field("fiches", "created_by")
	require.NoError(t, err)
	assert.Equal(t, ItemRef{Entity: "users"}, d.Type)
	assert.Equal(t, "Auteur", d.Label)

	d, err = r.Field("elements", "quantite")
	require.NoError(t, err)
	assert.Equal(t, NumberOperator{}, d.Type)
	assert.Equal(t, float64(0), d.Default)
	require.NotNil(t, d.MinValue)
	assert.Equal(t, float64(0), *d.MinValue)

	d, err = r.Field("fiches", "age")
	require.NoError(t, err)
	assert.Equal(t, TimeDelta{}, d.Type)
	assert.Equal(t, "Age (jours)", d.Label)

	_, err = r.Field("fiches", "couleur")
	assert.ErrorIs(t, err, model.ErrUnknownField)
	_, err = r.Field("vitrines", "nom")
	assert.ErrorIs(t, err, model.ErrUnknownEntity)
}

func TestEntityConfig_FilterFields(t *testing.T) {
	r := defaultRegistry(t)

	users := r.MustEntity("users")
	assert.NotContains(t, users.FilterFields(), "username")
	assert.Len(t, users.FilterFields(), len(users.Fields)-1)

	constats := r.MustEntity("constats")
	assert.Equal(t, "", constats.DefaultSearchParam)
	assert.Equal(t, constats.Fields, constats.FilterFields())
}

func TestEntityConfig_DateParts(t *testing.T) {
	r := defaultRegistry(t)
	fiches := r.MustEntity("fiches")

	parts, ok := fiches.DateParts("date_creation")
	require.True(t, ok)
	assert.Equal(t, DateParts{Year: "annee_creation", Month: "mois_creation", Day: "jour_creation"}, parts)

	_, ok = fiches.DateParts("date_echeance")
	assert.False(t, ok, "strict dates have no siblings")

	field, part, ok := fiches.DateSibling("mois_creation")
	require.True(t, ok)
	assert.Equal(t, "date_creation", field)
	assert.Equal(t, PartMonth, part)

	_, _, ok = fiches.DateSibling("date_creation")
	assert.False(t, ok)
}

func TestEntityConfig_Companion(t *testing.T) {
	r := defaultRegistry(t)
	elements := r.MustEntity("elements")

	field, ok := elements.CompanionField("quantite_operator")
	require.True(t, ok)
	assert.Equal(t, "quantite", field)

	_, ok = elements.CompanionField("valeur_operator")
	assert.False(t, ok, "plain numbers have no operator")

	d := elements.CompanionDescriptor("quantite")
	assert.Equal(t, OperatorCompanion{Field: "quantite"}, d.Type)
	assert.Equal(t, model.OpEq, d.Default)
}

func TestNewRegistry_Invariants(t *testing.T) {
	tests := []struct {
		name   string
		entity *EntityConfig
	}{
		{
			name: "default search param missing",
			entity: &EntityConfig{
				Name: "a", URL: "a", DefaultSearchParam: "nom",
				Fields: []string{"titre"},
				Params: map[string]Descriptor{"titre": {Type: Text{}}},
			},
		},
		{
			name: "result field missing",
			entity: &EntityConfig{
				Name: "a", URL: "a", ResultFields: []string{"user"},
				Fields: []string{"titre"},
				Params: map[string]Descriptor{"titre": {Type: Text{}}},
			},
		},
		{
			name: "partial date without date in name",
			entity: &EntityConfig{
				Name: "a", URL: "a",
				Fields: []string{"creation"},
				Params: map[string]Descriptor{"creation": {Type: Date{}}},
			},
		},
		{
			name: "sibling collides with field",
			entity: &EntityConfig{
				Name: "a", URL: "a",
				Fields: []string{"date_x", "annee_x"},
				Params: map[string]Descriptor{"date_x": {Type: Date{}}, "annee_x": {Type: Number{}}},
			},
		},
		{
			name: "missing type",
			entity: &EntityConfig{
				Name: "a", URL: "a",
				Fields: []string{"x"},
				Params: map[string]Descriptor{"x": {}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.entity)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrInvalidSchema)
			assert.True(t, model.IsConfigurationError(err))
		})
	}
}

func TestNewRegistry_DuplicateEntity(t *testing.T) {
	mk := func() *EntityConfig {
		return &EntityConfig{Name: "a", URL: "a", Fields: []string{"x"}, Params: map[string]Descriptor{"x": {Type: Text{}}}}
	}
	_, err := NewRegistry(mk(), mk())
	assert.ErrorIs(t, err, model.ErrInvalidSchema)
}

func TestNewRegistry_DefaultLabel(t *testing.T) {
	r, err := NewRegistry(&EntityConfig{
		Name: "a", URL: "a",
		Fields: []string{"date_creation", "tags"},
		Params: map[string]Descriptor{
			"date_creation": {Type: Date{}},
			"tags":          {Type: ItemList{Item: "tags"}},
		},
	})
	require.NoError(t, err)
	d, _ := r.Field("a", "date_creation")
	assert.Equal(t, "Date creation", d.Label)
	d, _ = r.Field("a", "tags")
	assert.Equal(t, "Tag", d.Label)
}
