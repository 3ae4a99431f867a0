package metadata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gemexbase/gemex/internal/searchconf"
	"github.com/gemexbase/gemex/pkg/model"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) GetByID(ctx context.Context, entity string, id int64) (model.Record, error) {
	args := m.Called(ctx, entity, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.Record), args.Error(1)
}

func user(id int64, first, last string) model.Record {
	return model.Record{"id": id, "first_name": first, "last_name": last}
}

func newResolver(t *testing.T, f Fetcher) *Resolver {
	t.Helper()
	reg, err := searchconf.Default()
	require.NoError(t, err)
	return NewResolver(reg, f, Config{Concurrency: 4}, nil)
}

func TestResolve_IndexAlignment(t *testing.T) {
	f := new(MockFetcher)
	// 7 answers last, 9 first.
	f.On("GetByID", mock.Anything, "users", int64(7)).After(60*time.Millisecond).Return(user(7, "Jeanne", "Dupont"), nil)
	f.On("GetByID", mock.Anything, "users", int64(3)).After(30*time.Millisecond).Return(user(3, "Paul", "Martin"), nil)
	f.On("GetByID", mock.Anything, "users", int64(9)).Return(user(9, "Ana", "Silva"), nil)

	r := newResolver(t, f)
	records := []model.Record{
		{"id": 1, "created_by": 7},
		{"id": 2, "created_by": 3},
		{"id": 3, "created_by": 7},
		{"id": 4, "created_by": 9},
	}

	table, err := r.Resolve(context.Background(), "fiches", records)
	require.NoError(t, err)

	lookup := table["created_by"]
	assert.Equal(t, []int64{7, 3, 9}, lookup.IDs)
	assert.Equal(t, []string{"Jeanne Dupont", "Paul Martin", "Ana Silva"}, lookup.Values)
	f.AssertNumberOfCalls(t, "GetByID", 3)
}

func TestResolve_PartialFailure(t *testing.T) {
	f := new(MockFetcher)
	f.On("GetByID", mock.Anything, "users", int64(7)).Return(user(7, "Jeanne", "Dupont"), nil)
	f.On("GetByID", mock.Anything, "users", int64(3)).Return(nil, model.ErrNotFound)
	f.On("GetByID", mock.Anything, "users", int64(9)).Return(user(9, "Ana", "Silva"), nil)

	r := newResolver(t, f)
	records := []model.Record{{"created_by": 7}, {"created_by": 3}, {"created_by": 7}, {"created_by": 9}}

	table, err := r.Resolve(context.Background(), "fiches", records)
	require.NoError(t, err)
	assert.Equal(t, Lookup{IDs: []int64{7, 3, 9}, Values: []string{"Jeanne Dupont", "", "Ana Silva"}}, table["created_by"])
}

func TestResolve_TransportErrorDoesNotAbort(t *testing.T) {
	f := new(MockFetcher)
	f.On("GetByID", mock.Anything, "expositions", int64(1)).Return(nil, errors.New("connection reset"))
	f.On("GetByID", mock.Anything, "expositions", int64(2)).Return(model.Record{"id": 2, "nom": "Les Glaciers"}, nil)
	f.On("GetByID", mock.Anything, "elements", int64(5)).Return(model.Record{"id": 5, "nom": "Maquette", "numero": "E-12"}, nil)

	r := newResolver(t, f)
	records := []model.Record{
		{"exposition": 1, "element": 5},
		{"exposition": 2, "element": nil},
	}

	table, err := r.Resolve(context.Background(), "fiches", records)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "Les Glaciers"}, table["exposition"].Values)
	assert.Equal(t, Lookup{IDs: []int64{5}, Values: []string{"Maquette – E-12"}}, table["element"])
	assert.Equal(t, Lookup{IDs: []int64{}, Values: []string{}}, table["assigned_user"])
}

func TestResolve_ItemListFlattened(t *testing.T) {
	f := new(MockFetcher)
	f.On("GetByID", mock.Anything, "tags", int64(1)).Return(model.Record{"id": 1, "nom": "fragile"}, nil)
	f.On("GetByID", mock.Anything, "tags", int64(2)).Return(model.Record{"id": 2, "nom": "extérieur"}, nil)
	f.On("GetByID", mock.Anything, "lieux", int64(4)).Return(model.Record{"id": 4, "nom": "Hall B"}, nil)

	r := newResolver(t, f)
	records := []model.Record{
		{"lieu": map[string]interface{}{"id": 4}, "tags": []interface{}{2, 1}},
		{"lieu": 4, "tags": []interface{}{1}},
	}

	table, err := r.Resolve(context.Background(), "expositions", records)
	require.NoError(t, err)
	assert.Equal(t, Lookup{IDs: []int64{2, 1}, Values: []string{"extérieur", "fragile"}}, table["tags"])
	assert.Equal(t, Lookup{IDs: []int64{4}, Values: []string{"Hall B"}}, table["lieu"])
}

func TestResolve_UsesCache(t *testing.T) {
	f := new(MockFetcher)
	f.On("GetByID", mock.Anything, "users", int64(7)).Return(user(7, "Jeanne", "Dupont"), nil).Once()

	r := newResolver(t, f)
	records := []model.Record{{"evaluateur": 7}}

	for i := 0; i < 3; i++ {
		table, err := r.Resolve(context.Background(), "constats", records)
		require.NoError(t, err)
		assert.Equal(t, []string{"Jeanne Dupont"}, table["evaluateur"].Values)
	}
	f.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestResolve_UnknownEntity(t *testing.T) {
	r := newResolver(t, new(MockFetcher))
	_, err := r.Resolve(context.Background(), "vitrines", nil)
	assert.ErrorIs(t, err, model.ErrUnknownEntity)
}

func TestResolve_Canceled(t *testing.T) {
	f := new(MockFetcher)
	f.On("GetByID", mock.Anything, "users", int64(7)).Return(nil, context.Canceled)

	r := newResolver(t, f)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, "fiches", []model.Record{{"created_by": 7}})
	assert.ErrorIs(t, err, model.ErrCanceled)
}

func TestLabel(t *testing.T) {
	r := newResolver(t, new(MockFetcher))

	tests := []struct {
		entity string
		rec    model.Record
		want   string
	}{
		{"users", user(1, "Jeanne", "Dupont"), "Jeanne Dupont"},
		{"users", model.Record{"first_name": "Jeanne"}, "Jeanne"},
		{"elements", model.Record{"nom": "Maquette", "numero": "12"}, "Maquette – 12"},
		{"saisons", model.Record{"nom": "Hiver 2024"}, "Hiver 2024"},
		{"expositions", model.Record{"nom": "Les Glaciers"}, "Les Glaciers"},
		{"users", model.Record{"username": "jd"}, ""},
		{"constats", model.Record{"nom": "Constat 4"}, "Constat 4"},
		{"tags", model.Record{"nom": "fragile"}, "fragile"},
	}
	for _, tt := range tests {
		t.Run(tt.entity, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Label(tt.entity, tt.rec))
		})
	}
}

func TestCollectIDs(t *testing.T) {
	records := []model.Record{
		{"ref": 7}, {"ref": nil}, {"ref": "3"}, {"ref": 7.0}, {"ref": []int64{9, 3}}, {},
	}
	assert.Equal(t, []int64{7, 3, 9}, CollectIDs(records, "ref"))
	assert.Empty(t, CollectIDs(nil, "ref"))
}

func TestLookupLabel(t *testing.T) {
	l := Lookup{IDs: []int64{7, 3}, Values: []string{"a", ""}}
	got, ok := l.Label(3)
	assert.True(t, ok)
	assert.Equal(t, "", got)
	_, ok = l.Label(4)
	assert.False(t, ok)
}
