// Package codec converts filter states to and from flat URL query parameters.
//
// The parameter names are a compatibility surface shared with bookmarked
// search URLs and the backend search endpoints:
//
//   - ranged fields encode their operator in the name: quantite, quantite_inf,
//     quantite_inf_eg, quantite_sup, quantite_sup_eg;
//   - partial dates travel as year/month/day siblings (date_creation becomes
//     annee_creation, mois_creation, jour_creation);
//   - item lists repeat the parameter once per id;
//   - every query carries the entity type under "item".
package codec

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/gemexbase/gemex/internal/filter"
	"github.com/gemexbase/gemex/internal/metrics"
	"github.com/gemexbase/gemex/internal/searchconf"
	"github.com/gemexbase/gemex/pkg/model"
)

// ItemParam carries the entity type in every encoded query.
const ItemParam = "item"

// Codec encodes and decodes filter states for the entity types of a registry.
type Codec struct {
	registry *searchconf.Registry
	logger   *slog.Logger
}

// New creates a Codec.
func New(registry *searchconf.Registry, logger *slog.Logger) *Codec {
	if logger == nil {
		logger = slog.Default()
	}
	return &Codec{
		registry: registry,
		logger:   logger.With("component", "codec"),
	}
}

// Registry returns the schema registry the codec works with.
func (c *Codec) Registry() *searchconf.Registry {
	return c.registry
}

// EntityOf returns the entity type named by a query's item parameter.
func EntityOf(params url.Values) string {
	return params.Get(ItemParam)
}

// Decode builds the filter state of entity from incoming parameters: the
// default state, with every field found in params set and checked.
// Parameters that map to no field (pagination, quick search, unknown keys)
// are ignored. Empty values count as absent.
func (c *Codec) Decode(entity string, params url.Values) (*filter.State, error) {
	s, err := filter.BuildDefault(c.registry, entity)
	if err != nil {
		return nil, err
	}
	conf := s.Config()

	for _, name := range conf.FilterFields() {
		d := conf.Params[name]
		switch ft := d.Type.(type) {
		case searchconf.Text, searchconf.Number, searchconf.Boolean, searchconf.ItemRef:
			raw, ok := single(params, name)
			if !ok {
				continue
			}
			if s, err = checkValue(s, name, raw); err != nil {
				return nil, err
			}

		case searchconf.ItemList:
			raw := nonEmpty(params[name])
			if len(raw) == 0 {
				continue
			}
			if s, err = checkValue(s, name, raw); err != nil {
				return nil, err
			}

		case searchconf.Date:
			if ft.Strict {
				raw, ok := single(params, name)
				if !ok {
					continue
				}
				if s, err = checkValue(s, name, raw); err != nil {
					return nil, err
				}
				continue
			}
			pd, present, err := decodePartialDate(conf, name, params)
			if err != nil {
				return nil, err
			}
			if !present {
				continue
			}
			if s, err = checkValue(s, name, pd); err != nil {
				return nil, err
			}

		case searchconf.NumberOperator, searchconf.TimeDelta:
			op, raw, ok := c.decodeOperator(entity, name, params)
			if !ok {
				continue
			}
			if s, err = checkValue(s, name, raw); err != nil {
				return nil, err
			}
			if s, err = s.Patch(model.OperatorKey(name), op); err != nil {
				return nil, err
			}

		case searchconf.OperatorCompanion:
			// Companions are never schema fields.

		default:
			panic(fmt.Sprintf("codec: unhandled field type %T", d.Type))
		}
	}
	return s, nil
}

// decodeOperator finds which operator variant of field is present. Only one
// should be; when several are, the first in model.DecodeOrder wins.
func (c *Codec) decodeOperator(entity, field string, params url.Values) (model.Operator, string, bool) {
	var found []string
	var op model.Operator
	var raw string
	for _, candidate := range model.DecodeOrder() {
		v, ok := single(params, candidate.ParamName(field))
		if !ok {
			continue
		}
		found = append(found, candidate.ParamName(field))
		if len(found) == 1 {
			op, raw = candidate, v
		}
	}
	if len(found) == 0 {
		return "", "", false
	}
	if len(found) > 1 {
		metrics.DecodeAmbiguities.WithLabelValues(entity, field).Inc()
		c.logger.Warn("Conflicting operator parameters, keeping the first by precedence",
			"entity", entity,
			"field", field,
			"params", found,
			"kept", found[0],
		)
	}
	return op, raw, true
}

func decodePartialDate(conf *searchconf.EntityConfig, field string, params url.Values) (model.PartialDate, bool, error) {
	var pd model.PartialDate
	parts, ok := conf.DateParts(field)
	if !ok {
		return pd, false, &model.ConfigurationError{Entity: conf.Name, Field: field, Err: model.ErrInvalidSchema}
	}
	present := false
	targets := []*int{&pd.Year, &pd.Month, &pd.Day}
	for i, name := range parts.Names() {
		raw, ok := single(params, name)
		if !ok {
			continue
		}
		n, err := model.ParseDateComponent(raw)
		if err != nil {
			return pd, false, fmt.Errorf("%s.%s: %w", conf.Name, name, err)
		}
		*targets[i] = n
		present = true
	}
	return pd, present, nil
}

func checkValue(s *filter.State, name string, value interface{}) (*filter.State, error) {
	s, err := s.Patch(name, value)
	if err != nil {
		return nil, err
	}
	return s.Toggle(name, true)
}

func single(params url.Values, key string) (string, bool) {
	for _, v := range params[key] {
		if v != "" {
			return v, true
		}
	}
	return "", false
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Encode flattens the checked filters of s into query parameters, seeded with
// the entity type. Unchecked filters and checked filters without a value are
// not emitted. The quick-search text is carried over from current.
func (c *Codec) Encode(s *filter.State, current url.Values) (url.Values, error) {
	conf := s.Config()
	out := url.Values{}
	out.Set(ItemParam, conf.Name)

	for _, name := range conf.FilterFields() {
		e, ok := s.Get(name)
		if !ok || !e.Checked || filter.IsEmpty(e.Value) {
			continue
		}
		if err := encodeEntry(out, conf, s, name, e); err != nil {
			return nil, err
		}
	}

	if dsp := conf.DefaultSearchParam; dsp != "" {
		if q := current.Get(dsp); q != "" {
			out.Set(dsp, q)
		}
	}
	return out, nil
}

func encodeEntry(out url.Values, conf *searchconf.EntityConfig, s *filter.State, name string, e filter.Entry) error {
	mismatch := func() error {
		return fmt.Errorf("%w: %s.%s holds %T for a %s field", model.ErrInvalidValue, conf.Name, name, e.Value, e.Conf.Type.Tag())
	}

	switch ft := e.Conf.Type.(type) {
	case searchconf.Text:
		v, ok := e.Value.(string)
		if !ok {
			return mismatch()
		}
		out.Set(name, v)

	case searchconf.Number:
		v, ok := e.Value.(float64)
		if !ok {
			return mismatch()
		}
		out.Set(name, formatNumber(v))

	case searchconf.Boolean:
		v, ok := e.Value.(bool)
		if !ok {
			return mismatch()
		}
		out.Set(name, strconv.FormatBool(v))

	case searchconf.ItemRef:
		v, ok := e.Value.(int64)
		if !ok {
			return mismatch()
		}
		out.Set(name, strconv.FormatInt(v, 10))

	case searchconf.ItemList:
		ids, ok := e.Value.([]int64)
		if !ok {
			return mismatch()
		}
		for _, id := range ids {
			out.Add(name, strconv.FormatInt(id, 10))
		}

	case searchconf.Date:
		if ft.Strict {
			v, ok := e.Value.(string)
			if !ok {
				return mismatch()
			}
			out.Set(name, v)
			return nil
		}
		pd, ok := e.Value.(model.PartialDate)
		if !ok {
			return mismatch()
		}
		parts, ok := conf.DateParts(name)
		if !ok {
			return &model.ConfigurationError{Entity: conf.Name, Field: name, Err: model.ErrInvalidSchema}
		}
		for i, n := range []int{pd.Year, pd.Month, pd.Day} {
			if n != 0 {
				out.Set(parts.Names()[i], strconv.Itoa(n))
			}
		}

	case searchconf.NumberOperator, searchconf.TimeDelta:
		v, ok := e.Value.(float64)
		if !ok {
			return mismatch()
		}
		out.Set(s.Operator(name).ParamName(name), formatNumber(v))

	case searchconf.OperatorCompanion:
		// Emitted through the field's parameter name.

	default:
		panic(fmt.Sprintf("codec: unhandled field type %T", e.Conf.Type))
	}
	return nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
