package searchconf

import "fmt"

// Type tags as written in schema files.
const (
	TagText           = "text"
	TagNumber         = "number"
	TagBoolean        = "boolean"
	TagDate           = "date"
	TagTimeDelta      = "timeDelta"
	TagItemList       = "itemList"
	TagRef            = "ref"
	TagNumberOperator = "numberOperator"
)

// FieldType is the closed set of field kinds. The unexported method keeps
// implementations inside this package so type switches over it stay exhaustive.
type FieldType interface {
	Tag() string
	fieldType()
}

// Text is a free text field.
type Text struct{}

// Number is a plain numeric field, always matched with equality.
type Number struct{}

// Boolean is a yes/no flag.
type Boolean struct{}

// Date is a calendar field. Strict dates carry one ISO value; partial dates
// are split into year/month/day sibling parameters on the wire.
type Date struct {
	Strict bool
}

// TimeDelta is a duration in days compared with an operator.
type TimeDelta struct{}

// NumberOperator is a number compared with an operator.
type NumberOperator struct{}

// ItemList is a multi-valued reference to records of another entity type.
type ItemList struct {
	Item string
}

// ItemRef is a single foreign key to a record of another entity type.
type ItemRef struct {
	Entity string
}

// OperatorCompanion is the synthetic type of a "<field>_operator" entry.
type OperatorCompanion struct {
	Field string
}

func (Text) Tag() string              { return TagText }
func (Number) Tag() string            { return TagNumber }
func (Boolean) Tag() string           { return TagBoolean }
func (Date) Tag() string              { return TagDate }
func (TimeDelta) Tag() string         { return TagTimeDelta }
func (NumberOperator) Tag() string    { return TagNumberOperator }
func (ItemList) Tag() string          { return TagItemList }
func (ItemRef) Tag() string           { return TagRef }
func (OperatorCompanion) Tag() string { return "operator" }

func (Text) fieldType()              {}
func (Number) fieldType()            {}
func (Boolean) fieldType()           {}
func (Date) fieldType()              {}
func (TimeDelta) fieldType()         {}
func (NumberOperator) fieldType()    {}
func (ItemList) fieldType()          {}
func (ItemRef) fieldType()           {}
func (OperatorCompanion) fieldType() {}

// IsRanged reports whether values of t travel with an operator suffix.
func IsRanged(t FieldType) bool {
	switch t.(type) {
	case NumberOperator, TimeDelta:
		return true
	}
	return false
}

// IsPartialDate reports whether t is a non-strict date.
func IsPartialDate(t FieldType) bool {
	d, ok := t.(Date)
	return ok && !d.Strict
}

// ReferencedEntity returns the entity type a relational field points to.
func ReferencedEntity(t FieldType) (string, bool) {
	switch ft := t.(type) {
	case ItemRef:
		return ft.Entity, true
	case ItemList:
		return ft.Item, true
	}
	return "", false
}

// parseType builds a FieldType from its schema file representation.
func parseType(tag, item string, strict bool) (FieldType, error) {
	switch tag {
	case TagText:
		return Text{}, nil
	case TagNumber:
		return Number{}, nil
	case TagBoolean:
		return Boolean{}, nil
	case TagDate:
		return Date{Strict: strict}, nil
	case TagTimeDelta:
		return TimeDelta{}, nil
	case TagNumberOperator:
		return NumberOperator{}, nil
	case TagItemList:
		if item == "" {
			return nil, fmt.Errorf("type %s requires item", tag)
		}
		return ItemList{Item: item}, nil
	case TagRef:
		if item == "" {
			return nil, fmt.Errorf("type %s requires item", tag)
		}
		return ItemRef{Entity: item}, nil
	}
	return nil, fmt.Errorf("unknown field type %q", tag)
}
