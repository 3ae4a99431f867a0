package searchconf

import (
	"fmt"

	"github.com/gemexbase/gemex/pkg/model"
)

// EntityConfig is the search configuration of one entity type.
// Instances handed out by a Registry are shared and must be treated as read-only.
type EntityConfig struct {
	Name string
	// URL is the backend resource path.
	URL string
	// DefaultSearchParam is the quick-search text field, "" when the entity has none.
	DefaultSearchParam string
	// Fields lists field names in declaration order.
	Fields []string
	Params map[string]Descriptor
	// ResultFields need metadata resolution for result display.
	ResultFields []string

	dateParts   map[string]DateParts
	siblingOf   map[string]siblingRef
	companionOf map[string]string
}

type siblingRef struct {
	field string
	part  DatePart
}

// DatePart identifies one component of a partial date.
type DatePart int

const (
	PartYear DatePart = iota
	PartMonth
	PartDay
)

// Field returns the descriptor of name.
func (e *EntityConfig) Field(name string) (Descriptor, error) {
	d, ok := e.Params[name]
	if !ok {
		return Descriptor{}, model.UnknownField(e.Name, name)
	}
	return d, nil
}

// HasField reports whether name is a field of the entity.
func (e *EntityConfig) HasField(name string) bool {
	_, ok := e.Params[name]
	return ok
}

// FilterFields lists the fields shown in the filter panel: every field except
// the quick-search one.
func (e *EntityConfig) FilterFields() []string {
	out := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f == e.DefaultSearchParam {
			continue
		}
		out = append(out, f)
	}
	return out
}

// DateParts returns the wire sibling names of a partial date field.
func (e *EntityConfig) DateParts(field string) (DateParts, bool) {
	p, ok := e.dateParts[field]
	return p, ok
}

// DateSibling resolves a year/month/day parameter name to its field.
func (e *EntityConfig) DateSibling(param string) (string, DatePart, bool) {
	ref, ok := e.siblingOf[param]
	return ref.field, ref.part, ok
}

// CompanionField resolves "<field>_operator" to its ranged field.
func (e *EntityConfig) CompanionField(key string) (string, bool) {
	f, ok := e.companionOf[key]
	return f, ok
}

// CompanionDescriptor is the synthetic descriptor of field's operator entry.
func (e *EntityConfig) CompanionDescriptor(field string) Descriptor {
	return Descriptor{
		Type:    OperatorCompanion{Field: field},
		Label:   e.Params[field].Label,
		Default: model.OpEq,
	}
}

// index builds the explicit lookup tables and checks the entity invariants.
func (e *EntityConfig) index(explicitParts map[string]DateParts) error {
	if e.Name == "" {
		return fmt.Errorf("%w: entity without name", model.ErrInvalidSchema)
	}
	if e.Params == nil {
		e.Params = make(map[string]Descriptor)
	}
	if len(e.Fields) != len(e.Params) {
		return e.invalid("field order does not match field set")
	}
	for _, f := range e.Fields {
		if _, ok := e.Params[f]; !ok {
			return e.invalid("field %q listed but not described", f)
		}
	}
	if e.DefaultSearchParam != "" && !e.HasField(e.DefaultSearchParam) {
		return e.invalid("default search param %q is not a field", e.DefaultSearchParam)
	}
	for _, f := range e.ResultFields {
		if !e.HasField(f) {
			return e.invalid("result field %q is not a field", f)
		}
	}

	e.dateParts = make(map[string]DateParts)
	e.siblingOf = make(map[string]siblingRef)
	e.companionOf = make(map[string]string)
	for _, f := range e.Fields {
		d := e.Params[f]
		if d.Type == nil {
			return e.invalid("field %q has no type", f)
		}
		if d.Label == "" {
			d.Label = DefaultLabel(f)
			e.Params[f] = d
		}
		switch {
		case IsPartialDate(d.Type):
			parts, ok := explicitParts[f]
			if !ok {
				var err error
				if parts, err = derivedDateParts(f); err != nil {
					return e.invalid("%v", err)
				}
			}
			for i, name := range parts.Names() {
				if name == "" {
					return e.invalid("partial date %q has an empty part name", f)
				}
				if e.HasField(name) {
					return e.invalid("partial date %q part %q collides with a field", f, name)
				}
				if _, dup := e.siblingOf[name]; dup {
					return e.invalid("partial date part %q declared twice", name)
				}
				e.siblingOf[name] = siblingRef{field: f, part: DatePart(i)}
			}
			e.dateParts[f] = parts
		case IsRanged(d.Type):
			key := model.OperatorKey(f)
			if e.HasField(key) {
				return e.invalid("operator companion %q collides with a field", key)
			}
			e.companionOf[key] = f
		}
	}
	return nil
}

func (e *EntityConfig) invalid(format string, args ...interface{}) error {
	return &model.ConfigurationError{
		Entity: e.Name,
		Err:    fmt.Errorf("%w: %s", model.ErrInvalidSchema, fmt.Sprintf(format, args...)),
	}
}
