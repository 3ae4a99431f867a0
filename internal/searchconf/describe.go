package searchconf

// FieldView is the client-facing description of one field.
type FieldView struct {
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Label    string      `json:"label"`
	Default  interface{} `json:"default,omitempty"`
	MinValue *float64    `json:"min_value,omitempty"`
	Required bool        `json:"required,omitempty"`
	Item     string      `json:"item,omitempty"`
	Strict   bool        `json:"strict,omitempty"`
	Ranged   bool        `json:"ranged,omitempty"`
	Parts    *DateParts  `json:"parts,omitempty"`
}

// EntityView is the client-facing description of an entity type.
type EntityView struct {
	Name               string      `json:"name"`
	URL                string      `json:"url"`
	DefaultSearchParam string      `json:"default_search_param,omitempty"`
	ResultFields       []string    `json:"result_fields,omitempty"`
	Fields             []FieldView `json:"fields"`
}

// Describe lists the fields of e in declaration order.
func (e *EntityConfig) Describe() EntityView {
	view := EntityView{
		Name:               e.Name,
		URL:                e.URL,
		DefaultSearchParam: e.DefaultSearchParam,
		ResultFields:       e.ResultFields,
		Fields:             make([]FieldView, 0, len(e.Fields)),
	}
	for _, name := range e.Fields {
		d := e.Params[name]
		f := FieldView{
			Name:     name,
			Type:     d.Type.Tag(),
			Label:    d.Label,
			Default:  d.DefaultValue(),
			MinValue: d.MinValue,
			Required: d.Required,
			Ranged:   IsRanged(d.Type),
		}
		f.Item, _ = ReferencedEntity(d.Type)
		if date, ok := d.Type.(Date); ok {
			f.Strict = date.Strict
		}
		if parts, ok := e.DateParts(name); ok {
			f.Parts = &parts
		}
		view.Fields = append(view.Fields, f)
	}
	return view
}
