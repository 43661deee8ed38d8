package jsonschema

import (
	"context"
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	flexschema "github.com/flexdata/flexschema"
)

// Type names used by this backend.
const (
	TypeBoolean = "boolean"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeString  = "string"
	TypeArray   = "array"

	FormatDateTime = "date-time"
)

// Binding is the JSON-Schema instantiation of flexschema.Binding.
type Binding = flexschema.Binding[*Document, *Table, PropertyType]

// Bind binds a declaration to the JSON-Schema backend.
func Bind(decl *flexschema.Declaration) (*Binding, error) {
	return flexschema.Bind[*Document, *Table, PropertyType](decl, Backend{})
}

// Backend implements the flexschema backend contract over JSON Schema
// documents and column-major JSON tables. It is stateless; a single value may
// be shared freely.
type Backend struct{}

// NewBackend returns the JSON-Schema backend.
func NewBackend() Backend { return Backend{} }

var _ flexschema.Backend[*Document, *Table, PropertyType] = Backend{}

// Name implements flexschema.Backend.
func (Backend) Name() string { return "jsonschema" }

// MapType maps logical types onto JSON Schema primitives. Timestamps become
// RFC3339 strings with the date-time format qualifier. Native types accept a
// PropertyType or a bare primitive name.
func (Backend) MapType(t flexschema.Type) (PropertyType, error) {
	switch t.Kind() {
	case flexschema.KindBool:
		return PropertyType{Type: TypeBoolean}, nil
	case flexschema.KindInt64:
		return PropertyType{Type: TypeInteger}, nil
	case flexschema.KindFloat64:
		return PropertyType{Type: TypeNumber}, nil
	case flexschema.KindString:
		return PropertyType{Type: TypeString}, nil
	case flexschema.KindTimestamp:
		return PropertyType{Type: TypeString, Format: FormatDateTime}, nil
	case flexschema.KindList:
		return PropertyType{Type: TypeArray}, nil
	case flexschema.KindNative:
		switch v := t.Native().(type) {
		case PropertyType:
			return v, nil
		case string:
			return PropertyType{Type: v}, nil
		}
	}
	return PropertyType{}, &flexschema.UnsupportedTypeError{Backend: "jsonschema", Type: t}
}

// TypeEqual implements flexschema.Backend; PropertyType is comparable.
func (Backend) TypeEqual(a, b PropertyType) bool { return a == b }

// SchemaColumns implements flexschema.Backend.
func (Backend) SchemaColumns(doc *Document) []string { return doc.PropertyNames() }

// SchemaColumnType implements flexschema.Backend.
func (Backend) SchemaColumnType(doc *Document, name string) (PropertyType, error) {
	p, ok := doc.Property(name)
	if !ok {
		return PropertyType{}, fmt.Errorf("jsonschema: document has no property %q", name)
	}
	return p.RawType(), nil
}

// TableSchema derives a document from observed value types: the first
// non-null value of each column decides its property type. This is the single
// best-effort type-from-value pass; columns with only nulls fall back to
// "string" like every other unrecognized shape.
func (Backend) TableSchema(ctx context.Context, tbl *Table) (*Document, error) {
	_ = ctx
	doc := NewDocument()
	doc.AdditionalProperties = true
	for _, name := range tbl.Columns() {
		values, _ := tbl.Column(name)
		pt := inferType(values)
		doc.SetProperty(name, &Property{Type: pt.Type, Format: pt.Format})
		doc.Required = append(doc.Required, name)
	}
	return doc, nil
}

// Reorder implements flexschema.Backend as a pure projection.
func (Backend) Reorder(ctx context.Context, tbl *Table, order []string) (*Table, error) {
	_ = ctx
	return tbl.project(order)
}

// CastColumn converts one column to the target type. Only lossless
// conversions succeed; anything ambiguous or narrowing is a CastError.
func (Backend) CastColumn(ctx context.Context, tbl *Table, name string, to PropertyType) (*Table, error) {
	_ = ctx
	values, ok := tbl.Column(name)
	if !ok {
		return nil, &flexschema.CastError{Column: name, To: to, Cause: fmt.Errorf("column not present")}
	}
	out := make([]any, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		cv, err := castValue(v, to)
		if err != nil {
			return nil, &flexschema.CastError{Column: name, To: to, Cause: fmt.Errorf("row %d: %w", i, err)}
		}
		out[i] = cv
	}
	return tbl.withColumn(name, out), nil
}

// IsRawSchema recognizes *Document values and object-schema shaped JSON maps.
func (Backend) IsRawSchema(v any) (*Document, bool) {
	switch x := v.(type) {
	case *Document:
		return x, true
	case Document:
		return &x, true
	case map[string]any:
		if t, _ := x["type"].(string); t == "object" {
			if _, ok := x["properties"]; ok {
				data, err := json.Marshal(x)
				if err != nil {
					return nil, false
				}
				doc, err := ParseDocument(data)
				if err != nil {
					return nil, false
				}
				return doc, true
			}
		}
	}
	return nil, false
}

// Export projects a declaration into a JSON Schema document: properties in
// declaration order, required column names in the required list, declared
// defaults carried onto properties, and additionalProperties mirroring the
// extra-columns policy.
func Export(decl *flexschema.Declaration) (*Document, error) {
	b := Backend{}
	doc := NewDocument()
	doc.AdditionalProperties = decl.ExtraColumnsAllowed()
	for _, c := range decl.Columns() {
		pt, err := b.MapType(c.Type())
		if err != nil {
			return nil, err
		}
		p := &Property{Type: pt.Type, Format: pt.Format}
		if elem, ok := c.Type().Elem(); ok {
			et, err := b.MapType(elem)
			if err != nil {
				return nil, err
			}
			p.Items = &Property{Type: et.Type, Format: et.Format}
		}
		if def, ok := c.Default(); ok {
			p.Default = def
		}
		doc.SetProperty(c.Name(), p)
		if c.IsRequired() {
			doc.Required = append(doc.Required, c.Name())
		}
	}
	return doc, nil
}

func inferType(values []any) PropertyType {
	for _, v := range values {
		if v == nil {
			continue
		}
		switch x := v.(type) {
		case bool:
			return PropertyType{Type: TypeBoolean}
		case string:
			if _, err := time.Parse(time.RFC3339, x); err == nil {
				return PropertyType{Type: TypeString, Format: FormatDateTime}
			}
			return PropertyType{Type: TypeString}
		case json.Number:
			if _, err := strconv.ParseInt(x.String(), 10, 64); err == nil {
				return PropertyType{Type: TypeInteger}
			}
			return PropertyType{Type: TypeNumber}
		case int, int32, int64:
			return PropertyType{Type: TypeInteger}
		case float32:
			return PropertyType{Type: TypeNumber}
		case float64:
			if x == float64(int64(x)) {
				return PropertyType{Type: TypeInteger}
			}
			return PropertyType{Type: TypeNumber}
		case time.Time:
			return PropertyType{Type: TypeString, Format: FormatDateTime}
		case []any:
			return PropertyType{Type: TypeArray}
		}
	}
	return PropertyType{Type: TypeString}
}

func castValue(v any, to PropertyType) (any, error) {
	switch to.Type {
	case TypeInteger:
		return castInteger(v)
	case TypeNumber:
		return castNumber(v)
	case TypeString:
		if to.Format == FormatDateTime {
			return castDateTime(v)
		}
		if s, ok := v.(string); ok {
			return s, nil
		}
		return nil, fmt.Errorf("cannot cast %T to string", v)
	case TypeBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("cannot cast %T to boolean", v)
	case TypeArray:
		if a, ok := v.([]any); ok {
			return a, nil
		}
		return nil, fmt.Errorf("cannot cast %T to array", v)
	default:
		return nil, fmt.Errorf("unknown target type %q", to.Type)
	}
}

func castInteger(v any) (any, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case json.Number:
		if n, err := strconv.ParseInt(x.String(), 10, 64); err == nil {
			return n, nil
		}
		return nil, fmt.Errorf("value %q is not integral", x.String())
	case float64:
		if x == float64(int64(x)) {
			return int64(x), nil
		}
		return nil, fmt.Errorf("value %v is not integral", x)
	case string:
		if n, err := strconv.ParseInt(x, 10, 64); err == nil {
			return n, nil
		}
		return nil, fmt.Errorf("string %q does not parse as an integer", x)
	default:
		return nil, fmt.Errorf("cannot cast %T to integer", v)
	}
}

func castNumber(v any) (any, error) {
	switch x := v.(type) {
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f, nil
		}
		return nil, fmt.Errorf("value %q does not parse as a number", x.String())
	case string:
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return f, nil
		}
		return nil, fmt.Errorf("string %q does not parse as a number", x)
	default:
		return nil, fmt.Errorf("cannot cast %T to number", v)
	}
}

func castDateTime(v any) (any, error) {
	switch x := v.(type) {
	case string:
		if _, err := time.Parse(time.RFC3339, x); err == nil {
			return x, nil
		}
		return nil, fmt.Errorf("string %q is not RFC3339", x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), nil
	default:
		return nil, fmt.Errorf("cannot cast %T to date-time string", v)
	}
}
