package table

import (
	"strconv"
	"strings"

	"github.com/eduviz/eduviz/pkg/errors"
)

// FieldType identifies the scalar type of a column.
type FieldType string

const (
	// FieldTypeString represents textual values
	FieldTypeString FieldType = "string"
	// FieldTypeInt represents 64-bit integer values
	FieldTypeInt FieldType = "integer"
	// FieldTypeFloat represents 64-bit floating point values
	FieldTypeFloat FieldType = "float"
	// FieldTypeBool represents boolean values
	FieldTypeBool FieldType = "boolean"
)

// Field describes a single named column of a table.
type Field struct {
	// Name is the column identifier
	Name string `json:"name"`

	// Type specifies the scalar type of the column
	Type FieldType `json:"type"`

	// Nullable indicates whether cells of this column may be null
	Nullable bool `json:"nullable"`
}

// Schema defines the ordered column structure of a table.
type Schema struct {
	// Name identifies the schema (usually derived from the source file)
	Name string `json:"name"`

	// Fields defines the columns, in order
	Fields []Field `json:"fields"`

	// Version tracks schema changes
	Version int `json:"version"`
}

// NewSchema creates a schema from ordered fields.
func NewSchema(name string, fields []Field) *Schema {
	return &Schema{
		Name:    name,
		Fields:  fields,
		Version: 1,
	}
}

// FieldIndex returns the position of the named field, or -1 when absent.
func (s *Schema) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// ColumnNames returns the ordered column names.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Clone returns a deep copy of the schema.
func (s *Schema) Clone() *Schema {
	fields := make([]Field, len(s.Fields))
	copy(fields, s.Fields)
	return &Schema{Name: s.Name, Fields: fields, Version: s.Version}
}

// Equal reports whether two schemas have the same column names and types
// in the same order.
func (s *Schema) Equal(other *Schema) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.Fields) != len(other.Fields) {
		return false
	}
	for i, f := range s.Fields {
		if f.Name != other.Fields[i].Name || f.Type != other.Fields[i].Type {
			return false
		}
	}
	return true
}

// InferFieldType detects the narrowest field type able to represent the
// given raw value. Empty values carry no type information and default to
// string.
func InferFieldType(value string) FieldType {
	value = strings.TrimSpace(value)

	if value == "" {
		return FieldTypeString
	}

	// Try integer
	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return FieldTypeInt
	}

	// Try float
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return FieldTypeFloat
	}

	// Try boolean
	if isBoolLiteral(value) {
		return FieldTypeBool
	}

	return FieldTypeString
}

// InferSchema builds a schema from a header row and sample data rows.
// The type of each column is the dominant type across the samples; columns
// with mixed numeric samples widen to float, anything else widens to string.
func InferSchema(name string, headers []string, samples [][]string) *Schema {
	fields := make([]Field, len(headers))

	for i, header := range headers {
		fieldType := FieldTypeString
		seen := false

		for _, row := range samples {
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				continue
			}
			t := InferFieldType(row[i])
			if !seen {
				fieldType = t
				seen = true
				continue
			}
			fieldType = widen(fieldType, t)
		}

		fields[i] = Field{
			Name:     header,
			Type:     fieldType,
			Nullable: true,
		}
	}

	return NewSchema(name, fields)
}

// widen merges two observed types into the narrowest common type.
func widen(a, b FieldType) FieldType {
	if a == b {
		return a
	}
	if (a == FieldTypeInt && b == FieldTypeFloat) || (a == FieldTypeFloat && b == FieldTypeInt) {
		return FieldTypeFloat
	}
	return FieldTypeString
}

// ParseValue coerces a raw textual value to the given field type. An empty
// string is the explicit null marker and yields nil for every type.
//
// Coercion rules: integers parse in base 10; floats accept standard Go
// float syntax; booleans accept true/false in any case plus 1 and 0.
func ParseValue(raw string, fieldType FieldType) (interface{}, error) {
	value := strings.TrimSpace(raw)

	if value == "" {
		return nil, nil
	}

	switch fieldType {
	case FieldTypeInt:
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, errors.Newf(errors.ErrorTypeParse, "cannot coerce %q to integer", value)
		}
		return intVal, nil
	case FieldTypeFloat:
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, errors.Newf(errors.ErrorTypeParse, "cannot coerce %q to float", value)
		}
		return floatVal, nil
	case FieldTypeBool:
		if !isBoolLiteral(value) {
			return nil, errors.Newf(errors.ErrorTypeParse, "cannot coerce %q to boolean", value)
		}
		switch strings.ToLower(value) {
		case "true", "1":
			return true, nil
		default:
			return false, nil
		}
	case FieldTypeString:
		return value, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeParse, "unknown field type %q", fieldType)
	}
}

// FormatValue renders a typed cell back to its textual form. Null renders
// as the empty string, the inverse of ParseValue.
func FormatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func isBoolLiteral(value string) bool {
	switch strings.ToLower(value) {
	case "true", "false", "1", "0":
		return true
	}
	return false
}
