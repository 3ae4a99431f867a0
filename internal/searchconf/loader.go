package searchconf

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/gemexbase/gemex/pkg/model"
)

var validate = validator.New()

type schemaFile struct {
	Bases    map[string]fieldSpec `yaml:"bases" validate:"dive"`
	Entities []entitySpec         `yaml:"entities" validate:"required,min=1,dive"`
}

type entitySpec struct {
	Name               string      `yaml:"name" validate:"required"`
	URL                string      `yaml:"url" validate:"required"`
	DefaultSearchParam string      `yaml:"default_search_param"`
	ResultFields       []string    `yaml:"result_fields"`
	Fields             []fieldSpec `yaml:"fields" validate:"required,min=1,dive"`
}

type fieldSpec struct {
	Name     string      `yaml:"name"`
	Base     string      `yaml:"base"`
	Type     string      `yaml:"type" validate:"omitempty,oneof=text number boolean date timeDelta itemList ref numberOperator"`
	Label    string      `yaml:"label"`
	Default  interface{} `yaml:"default"`
	Strict   *bool       `yaml:"strict"`
	Item     string      `yaml:"item"`
	MinValue *float64    `yaml:"min_value"`
	Required *bool       `yaml:"required"`
	Parts    *DateParts  `yaml:"parts"`
}

// LoadFile reads a YAML schema document from disk.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	r, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("schema file %s: %w", path, err)
	}
	return r, nil
}

// Load parses a YAML schema document and builds a Registry.
func Load(data []byte) (*Registry, error) {
	var doc schemaFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &model.ConfigurationError{Err: fmt.Errorf("%w: %v", model.ErrInvalidSchema, err)}
	}
	if err := validate.Struct(doc); err != nil {
		return nil, &model.ConfigurationError{Err: fmt.Errorf("%w: %s", model.ErrInvalidSchema, describeValidation(err))}
	}

	bases := make(map[string]Descriptor, len(doc.Bases))
	for name, spec := range doc.Bases {
		if spec.Base != "" {
			return nil, &model.ConfigurationError{Err: fmt.Errorf("%w: base %q cannot extend another base", model.ErrInvalidSchema, name)}
		}
		d, err := spec.compose(Descriptor{})
		if err != nil {
			return nil, &model.ConfigurationError{Err: fmt.Errorf("%w: base %q: %v", model.ErrInvalidSchema, name, err)}
		}
		bases[name] = d
	}

	entities := make([]*EntityConfig, 0, len(doc.Entities))
	parts := make(map[string]map[string]DateParts)
	for _, es := range doc.Entities {
		e := &EntityConfig{
			Name:               es.Name,
			URL:                es.URL,
			DefaultSearchParam: es.DefaultSearchParam,
			ResultFields:       es.ResultFields,
			Params:             make(map[string]Descriptor, len(es.Fields)),
		}
		for _, fs := range es.Fields {
			if fs.Name == "" {
				return nil, e.invalid("field without name")
			}
			if _, dup := e.Params[fs.Name]; dup {
				return nil, e.invalid("field %q declared twice", fs.Name)
			}
			var base Descriptor
			if fs.Base != "" {
				b, ok := bases[fs.Base]
				if !ok {
					return nil, e.invalid("field %q extends unknown base %q", fs.Name, fs.Base)
				}
				base = b
			}
			d, err := fs.compose(base)
			if err != nil {
				return nil, e.invalid("field %q: %v", fs.Name, err)
			}
			e.Fields = append(e.Fields, fs.Name)
			e.Params[fs.Name] = d
			if fs.Parts != nil {
				if parts[e.Name] == nil {
					parts[e.Name] = make(map[string]DateParts)
				}
				parts[e.Name][fs.Name] = *fs.Parts
			}
		}
		entities = append(entities, e)
	}
	return newRegistry(entities, parts)
}

// compose overrides base with the attributes set on the spec. base is a
// value, so the shared base descriptor is never modified.
func (fs fieldSpec) compose(base Descriptor) (Descriptor, error) {
	d := base.WithDefault(base.Default)

	tag, item, strict := "", "", false
	if d.Type != nil {
		tag = d.Type.Tag()
		item, _ = ReferencedEntity(d.Type)
		if dt, ok := d.Type.(Date); ok {
			strict = dt.Strict
		}
	}
	if fs.Type != "" {
		tag = fs.Type
	}
	if fs.Item != "" {
		item = fs.Item
	}
	if fs.Strict != nil {
		strict = *fs.Strict
	}
	if tag == "" {
		return Descriptor{}, errors.New("no type and no base")
	}
	t, err := parseType(tag, item, strict)
	if err != nil {
		return Descriptor{}, err
	}
	d = d.WithType(t)

	if fs.Label != "" {
		d = d.WithLabel(fs.Label)
	}
	if fs.MinValue != nil {
		v := *fs.MinValue
		d.MinValue = &v
	}
	if fs.Required != nil {
		d.Required = *fs.Required
	}
	if fs.Parts != nil && !IsPartialDate(t) {
		return Descriptor{}, errors.New("parts only apply to partial dates")
	}

	raw := fs.Default
	if raw == nil {
		raw = d.Default
	}
	def, err := normalizeDefault(t, raw)
	if err != nil {
		return Descriptor{}, err
	}
	return d.WithDefault(def), nil
}

func describeValidation(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}
