package searchconf

import (
	"fmt"
	"strings"

	"github.com/gemexbase/gemex/pkg/model"
)

// Descriptor describes one searchable attribute of an entity type.
// It is a value: derive variants with the With* methods, which copy.
type Descriptor struct {
	Type     FieldType
	Label    string
	Default  interface{}
	MinValue *float64
	Required bool
}

// WithLabel returns a copy of d carrying label.
func (d Descriptor) WithLabel(label string) Descriptor {
	d.Default = CloneValue(d.Default)
	d.Label = label
	return d
}

// WithDefault returns a copy of d carrying v as default value.
func (d Descriptor) WithDefault(v interface{}) Descriptor {
	d.Default = CloneValue(v)
	return d
}

// WithType returns a copy of d with another field type.
func (d Descriptor) WithType(t FieldType) Descriptor {
	d.Default = CloneValue(d.Default)
	d.Type = t
	return d
}

// DefaultValue returns a private copy of the default value.
func (d Descriptor) DefaultValue() interface{} {
	return CloneValue(d.Default)
}

// CloneValue copies slice values so that filter entries never alias a
// descriptor's default.
func CloneValue(v interface{}) interface{} {
	switch vv := v.(type) {
	case []int64:
		if vv == nil {
			return vv
		}
		out := make([]int64, len(vv))
		copy(out, vv)
		return out
	case []string:
		if vv == nil {
			return vv
		}
		out := make([]string, len(vv))
		copy(out, vv)
		return out
	case *float64:
		if vv == nil {
			return vv
		}
		f := *vv
		return &f
	}
	return v
}

// DateParts names the three wire parameters of a partial date field.
type DateParts struct {
	Year  string `json:"year" yaml:"year"`
	Month string `json:"month" yaml:"month"`
	Day   string `json:"day" yaml:"day"`
}

// Names returns the sibling parameter names in year, month, day order.
func (p DateParts) Names() []string {
	return []string{p.Year, p.Month, p.Day}
}

// derivedDateParts applies the legacy naming convention once, at load time:
// the first "date" in the field name becomes annee, mois or jour.
func derivedDateParts(field string) (DateParts, error) {
	if !strings.Contains(field, "date") {
		return DateParts{}, fmt.Errorf("partial date field %q has no \"date\" in its name and no explicit parts", field)
	}
	return DateParts{
		Year:  strings.Replace(field, "date", "annee", 1),
		Month: strings.Replace(field, "date", "mois", 1),
		Day:   strings.Replace(field, "date", "jour", 1),
	}, nil
}

// DefaultLabel humanises a field name: underscores become spaces, the first
// letter is capitalised and a plural last word is singularised.
func DefaultLabel(field string) string {
	words := strings.Fields(strings.ReplaceAll(field, "_", " "))
	if len(words) == 0 {
		return field
	}
	last := words[len(words)-1]
	if len(last) > 3 && strings.HasSuffix(last, "s") && !strings.HasSuffix(last, "ss") {
		words[len(words)-1] = strings.TrimSuffix(last, "s")
	}
	label := strings.Join(words, " ")
	return strings.ToUpper(label[:1]) + label[1:]
}

// normalizeDefault coerces a YAML-decoded default to the Go type the codec
// uses for the field type.
func normalizeDefault(t FieldType, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch ft := t.(type) {
	case Text:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("default %v is not text", v)
		}
		return s, nil
	case Boolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("default %v is not a boolean", v)
		}
		return b, nil
	case Number, NumberOperator, TimeDelta:
		switch n := v.(type) {
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case float64:
			return n, nil
		}
		return nil, fmt.Errorf("default %v is not a number", v)
	case ItemRef:
		id, ok := model.IDOf(v)
		if !ok {
			return nil, fmt.Errorf("default %v is not an id", v)
		}
		return id, nil
	case ItemList:
		if ids, ok := v.([]int64); ok {
			return CloneValue(ids), nil
		}
		items, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("default %v is not a list", v)
		}
		ids := make([]int64, 0, len(items))
		for _, it := range items {
			id, ok := model.IDOf(it)
			if !ok {
				return nil, fmt.Errorf("default list item %v is not an id", it)
			}
			ids = append(ids, id)
		}
		return ids, nil
	case Date:
		if ft.Strict {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("default %v is not an ISO date", v)
			}
			return model.ParseStrictDate(s)
		}
		if pd, ok := v.(model.PartialDate); ok {
			return pd, pd.Validate()
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("default %v is not a partial date", v)
		}
		var pd model.PartialDate
		pd.Year, _ = m["year"].(int)
		pd.Month, _ = m["month"].(int)
		pd.Day, _ = m["day"].(int)
		if err := pd.Validate(); err != nil {
			return nil, err
		}
		return pd, nil
	case OperatorCompanion:
		switch op := v.(type) {
		case model.Operator:
			return op, nil
		case string:
			return model.ParseOperator(op)
		}
		return nil, fmt.Errorf("default %v is not an operator", v)
	default:
		panic(fmt.Sprintf("searchconf: unhandled field type %T", t))
	}
}
