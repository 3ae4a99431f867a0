package searchconf

import (
	_ "embed"
	"fmt"

	"github.com/gemexbase/gemex/pkg/model"
)

//go:embed gemex.yaml
var defaultSchema []byte

// Registry maps entity types to their search configuration.
// It is immutable once built and safe for concurrent use.
type Registry struct {
	entities map[string]*EntityConfig
	order    []string
}

// NewRegistry indexes and validates the given entity configurations.
func NewRegistry(entities ...*EntityConfig) (*Registry, error) {
	return newRegistry(entities, nil)
}

func newRegistry(entities []*EntityConfig, parts map[string]map[string]DateParts) (*Registry, error) {
	r := &Registry{entities: make(map[string]*EntityConfig, len(entities))}
	for _, e := range entities {
		if _, dup := r.entities[e.Name]; dup {
			return nil, &model.ConfigurationError{
				Entity: e.Name,
				Err:    fmt.Errorf("%w: entity declared twice", model.ErrInvalidSchema),
			}
		}
		if err := e.index(parts[e.Name]); err != nil {
			return nil, err
		}
		r.entities[e.Name] = e
		r.order = append(r.order, e.Name)
	}
	return r, nil
}

// Default returns the registry built from the embedded GEMEX schema.
func Default() (*Registry, error) {
	return Load(defaultSchema)
}

// Entity returns the configuration of an entity type.
func (r *Registry) Entity(name string) (*EntityConfig, error) {
	e, ok := r.entities[name]
	if !ok {
		return nil, model.UnknownEntity(name)
	}
	return e, nil
}

// MustEntity is Entity for statically known names; it panics on an unknown type.
func (r *Registry) MustEntity(name string) *EntityConfig {
	e, err := r.Entity(name)
	if err != nil {
		panic(err)
	}
	return e
}

// Field returns the descriptor of one field of an entity type.
func (r *Registry) Field(entity, field string) (Descriptor, error) {
	e, err := r.Entity(entity)
	if err != nil {
		return Descriptor{}, err
	}
	return e.Field(field)
}

// Has reports whether an entity type is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.entities[name]
	return ok
}

// Entities lists registered entity types in declaration order.
func (r *Registry) Entities() []string {
	return append([]string(nil), r.order...)
}
