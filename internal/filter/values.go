package filter

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/gemexbase/gemex/internal/searchconf"
	"github.com/gemexbase/gemex/pkg/model"
)

// Coerce converts v into the canonical Go representation of field type t:
//
//	text            string
//	number, ranged  float64
//	boolean         bool
//	strict date     string (yyyy-MM-dd)
//	partial date    model.PartialDate
//	ref             int64
//	itemList        []int64
//	operator        model.Operator
//
// nil is accepted for every type and clears the value.
func Coerce(t searchconf.FieldType, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch ft := t.(type) {
	case searchconf.Text:
		s, ok := v.(string)
		if !ok {
			return nil, invalid(t, v)
		}
		return s, nil
	case searchconf.Number, searchconf.NumberOperator, searchconf.TimeDelta:
		return toFloat(t, v)
	case searchconf.Boolean:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return nil, invalid(t, v)
			}
			return parsed, nil
		}
		return nil, invalid(t, v)
	case searchconf.Date:
		if ft.Strict {
			s, ok := v.(string)
			if !ok {
				return nil, invalid(t, v)
			}
			return model.ParseStrictDate(s)
		}
		return toPartialDate(v)
	case searchconf.ItemRef:
		id, ok := model.IDOf(v)
		if !ok {
			return nil, invalid(t, v)
		}
		return id, nil
	case searchconf.ItemList:
		return toIDList(t, v)
	case searchconf.OperatorCompanion:
		switch op := v.(type) {
		case model.Operator:
			if !op.IsValid() {
				return nil, invalid(t, v)
			}
			return op, nil
		case string:
			return model.ParseOperator(op)
		}
		return nil, invalid(t, v)
	default:
		panic(fmt.Sprintf("filter: unhandled field type %T", t))
	}
}

func invalid(t searchconf.FieldType, v interface{}) error {
	return fmt.Errorf("%w: %v (%T) for %s field", model.ErrInvalidValue, v, v, t.Tag())
}

func toFloat(t searchconf.FieldType, v interface{}) (interface{}, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil, invalid(t, v)
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return nil, invalid(t, v)
		}
		f = parsed
	default:
		return nil, invalid(t, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, invalid(t, v)
	}
	return f, nil
}

func toIDList(t searchconf.FieldType, v interface{}) (interface{}, error) {
	switch items := v.(type) {
	case []int64:
		return searchconf.CloneValue(items), nil
	case []interface{}:
		ids := make([]int64, 0, len(items))
		for _, it := range items {
			id, ok := model.IDOf(it)
			if !ok {
				return nil, invalid(t, v)
			}
			ids = append(ids, id)
		}
		return ids, nil
	case []string:
		ids := make([]int64, 0, len(items))
		for _, it := range items {
			id, ok := model.IDOf(it)
			if !ok {
				return nil, invalid(t, v)
			}
			ids = append(ids, id)
		}
		return ids, nil
	}
	// A lone id is a one-element list.
	if id, ok := model.IDOf(v); ok {
		return []int64{id}, nil
	}
	return nil, invalid(t, v)
}

func toPartialDate(v interface{}) (interface{}, error) {
	var pd model.PartialDate
	switch d := v.(type) {
	case model.PartialDate:
		pd = d
	case map[string]interface{}:
		for key, dst := range map[string]*int{"year": &pd.Year, "month": &pd.Month, "day": &pd.Day} {
			raw, ok := d[key]
			if !ok || raw == nil {
				continue
			}
			n, ok := model.IDOf(raw)
			if !ok {
				return nil, fmt.Errorf("%w: partial date %s %v", model.ErrInvalidValue, key, raw)
			}
			*dst = int(n)
		}
	default:
		return nil, fmt.Errorf("%w: %v (%T) for partial date field", model.ErrInvalidValue, v, v)
	}
	if err := pd.Validate(); err != nil {
		return nil, err
	}
	return pd, nil
}

// IsEmpty reports whether a value carries nothing worth sending: nil, an empty
// string, an empty list or a zero partial date.
func IsEmpty(v interface{}) bool {
	switch vv := v.(type) {
	case nil:
		return true
	case string:
		return vv == ""
	case []int64:
		return len(vv) == 0
	case model.PartialDate:
		return vv.IsZero()
	}
	return false
}
