package filter

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/gemexbase/gemex/internal/searchconf"
	"github.com/gemexbase/gemex/pkg/model"
)

// ActiveFlagField names the boolean filter that starts switched on, so that
// lists show active items only until the user says otherwise.
const ActiveFlagField = "is_active"

// ActiveByDefault is the single place deciding which filters start checked.
func ActiveByDefault(field string, d searchconf.Descriptor) bool {
	_, isBool := d.Type.(searchconf.Boolean)
	return isBool && field == ActiveFlagField
}

// Entry is the runtime state of one filter.
type Entry struct {
	Value   interface{}
	Conf    searchconf.Descriptor
	Checked bool
}

// State is the filter panel of one entity type. It is immutable: Patch and
// Toggle return a modified copy.
type State struct {
	entity  *searchconf.EntityConfig
	entries map[string]Entry
}

// BuildDefault materialises the filter panel of an entity with every filter at
// its default value and unchecked, except those selected by ActiveByDefault.
// The quick-search field is not part of the panel.
func BuildDefault(reg *searchconf.Registry, entity string) (*State, error) {
	conf, err := reg.Entity(entity)
	if err != nil {
		return nil, err
	}
	s := &State{
		entity:  conf,
		entries: make(map[string]Entry, len(conf.Fields)),
	}
	for _, name := range conf.FilterFields() {
		d := conf.Params[name]
		s.entries[name] = Entry{
			Value:   d.DefaultValue(),
			Conf:    d,
			Checked: ActiveByDefault(name, d),
		}
	}
	return s, nil
}

// Decoder reads filter values out of incoming query parameters.
// *codec.Codec implements it.
type Decoder interface {
	Decode(entity string, params url.Values) (*State, error)
}

// ApplyIncoming restores the filter panel of entity from a URL query: the
// default panel with every field found in params set and checked.
func ApplyIncoming(dec Decoder, entity string, params url.Values) (*State, error) {
	s, err := dec.Decode(entity, params)
	if err != nil {
		return nil, err
	}
	if s.Entity() != entity {
		return nil, fmt.Errorf("decoder returned %q state for %q", s.Entity(), entity)
	}
	return s, nil
}

// Entity returns the entity type the state was built for.
func (s *State) Entity() string {
	return s.entity.Name
}

// Config returns the entity's search configuration.
func (s *State) Config() *searchconf.EntityConfig {
	return s.entity
}

// Get returns the entry of a field or operator companion.
func (s *State) Get(name string) (Entry, bool) {
	e, ok := s.entries[name]
	if ok {
		e.Value = searchconf.CloneValue(e.Value)
	}
	return e, ok
}

// Operator returns the operator of a ranged field, "=" when none was set.
func (s *State) Operator(field string) model.Operator {
	if e, ok := s.entries[model.OperatorKey(field)]; ok {
		if op, ok := e.Value.(model.Operator); ok {
			return op
		}
	}
	return model.OpEq
}

// Keys lists the entries in schema order, each operator companion right after
// its field.
func (s *State) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for _, name := range s.entity.Fields {
		if _, ok := s.entries[name]; !ok {
			continue
		}
		keys = append(keys, name)
		if _, ok := s.entries[model.OperatorKey(name)]; ok {
			keys = append(keys, model.OperatorKey(name))
		}
	}
	return keys
}

// Checked lists the checked fields in schema order.
func (s *State) Checked() []string {
	var out []string
	for _, name := range s.Keys() {
		if e := s.entries[name]; e.Checked {
			out = append(out, name)
		}
	}
	return out
}

// Patch returns a copy of s where only the value of name is replaced.
// The checked flag is left alone; use Toggle for that.
func (s *State) Patch(name string, value interface{}) (*State, error) {
	entry, err := s.entryFor(name)
	if err != nil {
		return nil, err
	}
	v, err := Coerce(entry.Conf.Type, value)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", s.entity.Name, name, err)
	}
	entry.Value = v
	out := s.clone()
	out.entries[name] = entry
	return out, nil
}

// Toggle returns a copy of s where only the checked flag of name is replaced.
func (s *State) Toggle(name string, checked bool) (*State, error) {
	entry, err := s.entryFor(name)
	if err != nil {
		return nil, err
	}
	entry.Checked = checked
	out := s.clone()
	out.entries[name] = entry
	return out, nil
}

// entryFor resolves a panel field or the operator companion of a ranged field.
func (s *State) entryFor(name string) (Entry, error) {
	if e, ok := s.entries[name]; ok {
		return e, nil
	}
	if field, ok := s.entity.CompanionField(name); ok {
		if _, panel := s.entries[field]; panel {
			d := s.entity.CompanionDescriptor(field)
			return Entry{Value: d.Default, Conf: d}, nil
		}
	}
	return Entry{}, model.UnknownField(s.entity.Name, name)
}

func (s *State) clone() *State {
	out := &State{
		entity:  s.entity,
		entries: make(map[string]Entry, len(s.entries)),
	}
	for k, e := range s.entries {
		e.Value = searchconf.CloneValue(e.Value)
		out.entries[k] = e
	}
	return out
}

type entryJSON struct {
	Value   interface{} `json:"value"`
	Checked bool        `json:"checked"`
	Type    string      `json:"type"`
	Label   string      `json:"label"`
	Item    string      `json:"item,omitempty"`
}

type stateJSON struct {
	Entity  string               `json:"entity"`
	Order   []string             `json:"order"`
	Filters map[string]entryJSON `json:"filters"`
}

// MarshalJSON renders the state for API clients.
func (s *State) MarshalJSON() ([]byte, error) {
	out := stateJSON{
		Entity:  s.entity.Name,
		Order:   s.Keys(),
		Filters: make(map[string]entryJSON, len(s.entries)),
	}
	for name, e := range s.entries {
		item, _ := searchconf.ReferencedEntity(e.Conf.Type)
		out.Filters[name] = entryJSON{
			Value:   e.Value,
			Checked: e.Checked,
			Type:    e.Conf.Type.Tag(),
			Label:   e.Conf.Label,
			Item:    item,
		}
	}
	return json.Marshal(out)
}
