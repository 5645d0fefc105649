package gbnf

import (
	"bytes"
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// PropertyMap holds a schema's "properties" keyword. It preserves JSON
// object key order so the object-rule builder can factor required and
// optional properties in the schema's own declaration order.
type PropertyMap = *orderedmap.OrderedMap[string, *Schema]

// Schema is the subset of a JSON Schema document the compiler understands.
type Schema struct {
	// Boolean JSON Schemas: {} and []/{} aside, "true" and "false" are
	// themselves valid schemas. When set, every other field is zero.
	Boolean *bool `json:"-"`

	ID    string      `json:"$id,omitempty"`
	Ref   string       `json:"$ref,omitempty"`
	Defs  map[string]*Schema `json:"$defs,omitempty"`

	AllOf []*Schema `json:"allOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`
	OneOf []*Schema `json:"oneOf,omitempty"`

	Type  SchemaType  `json:"type,omitempty"`
	Const *ConstValue `json:"const,omitempty"`
	Enum  []any       `json:"enum,omitempty"`

	Properties           PropertyMap `json:"-"`
	Required             []string    `json:"required,omitempty"`
	AdditionalProperties *Schema     `json:"additionalProperties,omitempty"`

	Items       *Schema   `json:"items,omitempty"`
	PrefixItems []*Schema `json:"prefixItems,omitempty"`
	MinItems    *float64  `json:"minItems,omitempty"`
	MaxItems    *float64  `json:"maxItems,omitempty"`

	Pattern   *string  `json:"pattern,omitempty"`
	Format    *string  `json:"format,omitempty"`
	MinLength *float64 `json:"minLength,omitempty"`
	MaxLength *float64 `json:"maxLength,omitempty"`
}

// UnmarshalJSON parses a raw JSON Schema document. Boolean schemas
// ("true"/"false") are detected before falling back to the object form,
// and "properties" is decoded separately to preserve key order, which
// the default map-based unmarshaling of the aliased struct would lose.
func (s *Schema) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch string(trimmed) {
	case "true":
		b := true
		s.Boolean = &b
		return nil
	case "false":
		b := false
		s.Boolean = &b
		return nil
	}

	type schemaAlias Schema
	aux := (*schemaAlias)(s)
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	var raw map[string]jsontext.Value
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if propsRaw, ok := raw["properties"]; ok {
		props, err := decodeOrderedProperties([]byte(propsRaw))
		if err != nil {
			return err
		}
		s.Properties = props
	}

	return nil
}

// decodeOrderedProperties walks a "properties" object's tokens in
// document order, unmarshaling each value into a *Schema as it goes.
func decodeOrderedProperties(data []byte) (PropertyMap, error) {
	om := orderedmap.New[string, *Schema]()
	dec := jsontext.NewDecoder(bytes.NewReader(data))

	start, err := dec.ReadToken()
	if err != nil {
		return nil, err
	}
	if start.Kind() != '{' {
		return nil, fmt.Errorf("%w: properties must be an object", ErrUnrecognizedSchema)
	}

	for dec.PeekKind() != '}' {
		keyTok, err := dec.ReadToken()
		if err != nil {
			return nil, err
		}
		val, err := dec.ReadValue()
		if err != nil {
			return nil, err
		}

		propSchema := &Schema{}
		if err := json.Unmarshal(val, propSchema); err != nil {
			return nil, err
		}
		om.Set(keyTok.String(), propSchema)
	}

	if _, err := dec.ReadToken(); err != nil {
		return nil, err
	}

	return om, nil
}

// parseSchema decodes a raw JSON Schema document.
func parseSchema(raw []byte) (*Schema, error) {
	schema := &Schema{}
	if err := json.Unmarshal(raw, schema); err != nil {
		return nil, err
	}
	return schema, nil
}

// IsEmpty reports whether the schema carries no keywords at all, the
// "anything goes" schema equivalent to the "value" primitive.
func (s *Schema) IsEmpty() bool {
	if s == nil {
		return true
	}
	return s.Boolean == nil && s.Ref == "" && len(s.AllOf) == 0 && len(s.AnyOf) == 0 &&
		len(s.OneOf) == 0 && len(s.Type) == 0 && s.Const == nil && s.Enum == nil &&
		(s.Properties == nil || s.Properties.Len() == 0) && s.AdditionalProperties == nil &&
		s.Items == nil && len(s.PrefixItems) == 0 && s.Pattern == nil && s.Format == nil &&
		s.MinLength == nil && s.MaxLength == nil
}

// SchemaType holds a schema's "type" keyword, accepting either a single
// string or an array of strings.
type SchemaType []string

func (st SchemaType) MarshalJSON() ([]byte, error) {
	if len(st) == 1 {
		return json.Marshal(st[0])
	}
	return json.Marshal([]string(st))
}

func (st *SchemaType) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*st = SchemaType{single}
		return nil
	}

	var multi []string
	if err := json.Unmarshal(data, &multi); err != nil {
		return err
	}
	*st = SchemaType(multi)
	return nil
}

// ConstValue represents a schema's "const" keyword. IsSet distinguishes
// "const" being present with a JSON null value from "const" being absent.
type ConstValue struct {
	Value any
	IsSet bool
}

func (cv *ConstValue) UnmarshalJSON(data []byte) error {
	cv.IsSet = true
	if string(bytes.TrimSpace(data)) == "null" {
		cv.Value = nil
		return nil
	}
	return json.Unmarshal(data, &cv.Value)
}

func (cv ConstValue) MarshalJSON() ([]byte, error) {
	if cv.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(cv.Value)
}
