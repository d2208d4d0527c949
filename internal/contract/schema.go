package contract

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// RuleKind selects how a field is validated and normalized.
type RuleKind int

const (
	RuleEnum RuleKind = iota + 1
	RuleText
	RuleStringList
	RuleObject
	RuleNumber
	RulePassthrough
)

func (k RuleKind) String() string {
	switch k {
	case RuleEnum:
		return "enum"
	case RuleText:
		return "text"
	case RuleStringList:
		return "string_list"
	case RuleObject:
		return "object"
	case RuleNumber:
		return "number"
	case RulePassthrough:
		return "passthrough"
	default:
		return fmt.Sprintf("rule(%d)", int(k))
	}
}

// JSONKind is the type of a decoded JSON value.
type JSONKind string

const (
	JSONObject JSONKind = "object"
	JSONArray  JSONKind = "array"
	JSONString JSONKind = "string"
	JSONNumber JSONKind = "number"
	JSONBool   JSONKind = "boolean"
	JSONNull   JSONKind = "null"
)

// Field is a single declared field of a schema and the rule applied to it.
type Field struct {
	Name string
	Rule RuleKind

	// Allowed lists enum labels from the strongest tier to the weakest.
	Allowed []string
	// Length is the exact element count of a string list.
	Length int
	// Schema validates a nested object.
	Schema *Schema
	// Min and Max bound a number.
	Min, Max float64
	// Kind is the JSON type accepted by a passthrough field.
	Kind JSONKind

	// Reason marks the text field that carries the fallback reason.
	Reason   bool
	Optional bool
	// Description is shown to the model in the output format section.
	Description string
}

// Enum declares a field that must equal one of allowed, listed strongest first.
func Enum(name string, allowed ...string) Field {
	return Field{Name: name, Rule: RuleEnum, Allowed: allowed}
}

// Text declares a string field that must be non-empty after trimming.
func Text(name string) Field {
	return Field{Name: name, Rule: RuleText}
}

// StringList declares an array of exactly n non-empty trimmed strings.
func StringList(name string, n int) Field {
	return Field{Name: name, Rule: RuleStringList, Length: n}
}

// Object declares a nested object validated by schema.
func Object(name string, schema *Schema) Field {
	return Field{Name: name, Rule: RuleObject, Schema: schema}
}

// Number declares a number within [min, max].
func Number(name string, min, max float64) Field {
	return Field{Name: name, Rule: RuleNumber, Min: min, Max: max}
}

// Passthrough declares a field forwarded as-is once its JSON kind matches.
func Passthrough(name string, kind JSONKind) Field {
	return Field{Name: name, Rule: RulePassthrough, Kind: kind}
}

// Describe sets the model-facing description.
func (f Field) Describe(description string) Field {
	f.Description = description
	return f
}

// AsReason marks the field as the carrier of the fallback reason.
func (f Field) AsReason() Field {
	f.Reason = true
	return f
}

// AsOptional lets the field be absent from the model output.
func (f Field) AsOptional() Field {
	f.Optional = true
	return f
}

// Weakest returns the last allowed enum label.
func (f Field) Weakest() string {
	if len(f.Allowed) == 0 {
		return ""
	}
	return f.Allowed[len(f.Allowed)-1]
}

func (f Field) validate(path string) error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%s: field name is empty", path)
	}

	switch f.Rule {
	case RuleEnum:
		if len(f.Allowed) == 0 {
			return fmt.Errorf("%s: enum has no allowed values", path)
		}
	case RuleText:
	case RuleStringList:
		if f.Length <= 0 {
			return fmt.Errorf("%s: string list length must be positive", path)
		}
	case RuleObject:
		if f.Schema == nil {
			return fmt.Errorf("%s: object has no schema", path)
		}
		return f.Schema.validate(path)
	case RuleNumber:
		if f.Min > f.Max {
			return fmt.Errorf("%s: number range is empty", path)
		}
	case RulePassthrough:
		switch f.Kind {
		case JSONObject, JSONArray, JSONString, JSONNumber, JSONBool:
		default:
			return fmt.Errorf("%s: unsupported passthrough kind %q", path, f.Kind)
		}
	default:
		return fmt.Errorf("%s: unknown rule %s", path, f.Rule)
	}

	if f.Reason && f.Rule != RuleText {
		return fmt.Errorf("%s: only text fields can carry the reason", path)
	}
	return nil
}

// Schema is an ordered set of field rules.
type Schema struct {
	Fields []Field
}

// NewSchema declares a schema; field order is the canonical output order.
func NewSchema(fields ...Field) *Schema {
	return &Schema{Fields: fields}
}

// Field returns the declared field with the given name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (s *Schema) validate(prefix string) error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("%s: schema has no fields", prefix)
	}

	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		path := joinPath(prefix, f.Name)
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%s: duplicate field", path)
		}
		seen[f.Name] = struct{}{}

		if err := f.validate(path); err != nil {
			return err
		}
	}
	return nil
}

// Variant is a named output contract.
type Variant struct {
	Name        string
	Aliases     []string
	Description string
	Schema      *Schema

	document *gojsonschema.Schema
}

// NewVariant declares a variant over schema.
func NewVariant(name, description string, schema *Schema, aliases ...string) *Variant {
	return &Variant{
		Name:        name,
		Aliases:     aliases,
		Description: description,
		Schema:      schema,
	}
}

// WithDocumentSchema adds a JSON Schema that the parsed object must satisfy
// before the field rules run.
func (v *Variant) WithDocumentSchema(document string) (*Variant, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(document))
	if err != nil {
		return nil, fmt.Errorf("compile document schema for variant %s: %w", v.Name, err)
	}
	v.document = compiled
	return v, nil
}

// ReasonField returns the name of the field carrying the fallback reason.
func (v *Variant) ReasonField() string {
	for _, f := range v.Schema.Fields {
		if f.Reason {
			return f.Name
		}
	}
	return ""
}

// Validate checks the variant declaration itself.
func (v *Variant) Validate() error {
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("variant name is empty")
	}
	if v.Schema == nil {
		return fmt.Errorf("variant %s has no schema", v.Name)
	}
	if err := v.Schema.validate(v.Name); err != nil {
		return err
	}
	if v.ReasonField() == "" {
		return fmt.Errorf("variant %s has no reason field", v.Name)
	}
	return nil
}

func (v *Variant) checkDocument(obj map[string]any) error {
	if v.document == nil {
		return nil
	}

	result, err := v.document.Validate(gojsonschema.NewGoLoader(obj))
	if err != nil {
		return &NormalizationError{Variant: v.Name, Message: fmt.Sprintf("document schema: %v", err)}
	}
	if result.Valid() {
		return nil
	}

	desc := result.Errors()[0]
	field := desc.Field()
	if field == "(root)" {
		field = ""
	}
	return &NormalizationError{Variant: v.Name, Field: field, Message: desc.Description()}
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
