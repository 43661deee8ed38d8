// Package schemafile loads and renders schema declarations as YAML or JSON
// documents, so a declaration can live next to the data it validates instead
// of in code.
//
// Document shape:
//
//	name: event
//	allow_extra_columns: false
//	columns:
//	  - name: subject_id
//	    type: int64
//	    required: true
//	  - name: numeric_value
//	    type: float64
//	    default: null
//	    nullable: some
//
// A column is optional unless marked required; a default together with
// required is rejected. nullable accepts a bool or one of "none", "some",
// "all" (flexschema.ParseNullability).
package schemafile

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	flexschema "github.com/flexdata/flexschema"
)

// File is the document form of a declaration.
type File struct {
	Name              string       `yaml:"name,omitempty" json:"name,omitempty"`
	AllowExtraColumns *bool        `yaml:"allow_extra_columns,omitempty" json:"allow_extra_columns,omitempty"`
	Columns           []ColumnSpec `yaml:"columns" json:"columns"`
}

// ColumnSpec is one column entry. DefaultSet distinguishes an explicit null
// default from no default at all.
type ColumnSpec struct {
	Name       string
	Type       string
	Required   bool
	Default    any
	DefaultSet bool
	Nullable   any // bool, token string, or absent
}

type columnSpecDoc struct {
	Name     string `yaml:"name" json:"name"`
	Type     string `yaml:"type" json:"type"`
	Required bool   `yaml:"required,omitempty" json:"required,omitempty"`
	Default  any    `yaml:"default,omitempty" json:"default,omitempty"`
	Nullable any    `yaml:"nullable,omitempty" json:"nullable,omitempty"`
}

// UnmarshalYAML decodes a column entry, tracking whether the default key was
// present at all.
func (c *ColumnSpec) UnmarshalYAML(value *yaml.Node) error {
	var doc columnSpecDoc
	if err := value.Decode(&doc); err != nil {
		return err
	}
	c.Name = doc.Name
	c.Type = doc.Type
	c.Required = doc.Required
	c.Default = doc.Default
	c.Nullable = doc.Nullable
	c.DefaultSet = false
	for i := 0; i+1 < len(value.Content); i += 2 {
		if value.Content[i].Value == "default" {
			c.DefaultSet = true
		}
	}
	return nil
}

// UnmarshalJSON mirrors UnmarshalYAML for JSON documents.
func (c *ColumnSpec) UnmarshalJSON(data []byte) error {
	var doc columnSpecDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	c.Name = doc.Name
	c.Type = doc.Type
	c.Required = doc.Required
	c.Default = doc.Default
	c.Nullable = doc.Nullable
	_, c.DefaultSet = keys["default"]
	return nil
}

// columnSpecNullDefault keeps the default key in the output even when the
// default is an explicit null; omitempty would otherwise drop it and change
// the column's derived nullability on the next parse.
type columnSpecNullDefault struct {
	Name     string `yaml:"name" json:"name"`
	Type     string `yaml:"type" json:"type"`
	Required bool   `yaml:"required,omitempty" json:"required,omitempty"`
	Default  any    `yaml:"default" json:"default"`
	Nullable any    `yaml:"nullable,omitempty" json:"nullable,omitempty"`
}

// MarshalYAML renders a column entry.
func (c ColumnSpec) MarshalYAML() (any, error) {
	return c.doc(), nil
}

// MarshalJSON renders a column entry.
func (c ColumnSpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.doc())
}

func (c ColumnSpec) doc() any {
	if c.DefaultSet && c.Default == nil {
		return columnSpecNullDefault{
			Name:     c.Name,
			Type:     c.Type,
			Required: c.Required,
			Default:  nil,
			Nullable: c.Nullable,
		}
	}
	return columnSpecDoc{
		Name:     c.Name,
		Type:     c.Type,
		Required: c.Required,
		Default:  c.Default,
		Nullable: c.Nullable,
	}
}

// ParseType parses a type token: bool, int64, float64, string, timestamp, or
// list<elem>.
func ParseType(s string) (flexschema.Type, error) {
	s = strings.TrimSpace(s)
	if inner, ok := strings.CutPrefix(s, "list<"); ok {
		inner, ok = strings.CutSuffix(inner, ">")
		if !ok {
			return flexschema.Type{}, fmt.Errorf("schemafile: malformed list type %q", s)
		}
		elem, err := ParseType(inner)
		if err != nil {
			return flexschema.Type{}, err
		}
		return flexschema.ListOf(elem), nil
	}
	switch s {
	case "bool":
		return flexschema.Bool(), nil
	case "int64":
		return flexschema.Int64(), nil
	case "float64":
		return flexschema.Float64(), nil
	case "string":
		return flexschema.String(), nil
	case "timestamp":
		return flexschema.Timestamp(), nil
	}
	return flexschema.Type{}, fmt.Errorf("schemafile: unknown type %q", s)
}

// FormatType renders a logical type back into its document token.
func FormatType(t flexschema.Type) (string, error) {
	switch t.Kind() {
	case flexschema.KindBool, flexschema.KindInt64, flexschema.KindFloat64,
		flexschema.KindString, flexschema.KindTimestamp:
		return t.Kind().String(), nil
	case flexschema.KindList:
		elem, ok := t.Elem()
		if !ok {
			return "", fmt.Errorf("schemafile: list type without element")
		}
		es, err := FormatType(elem)
		if err != nil {
			return "", err
		}
		return "list<" + es + ">", nil
	}
	return "", fmt.Errorf("schemafile: type %s has no document form", t)
}

// Compile turns a parsed File into a declaration.
func (f *File) Compile() (*flexschema.Declaration, error) {
	cols := make([]flexschema.Column, 0, len(f.Columns))
	for _, spec := range f.Columns {
		c, err := compileColumn(spec)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	allow := true
	if f.AllowExtraColumns != nil {
		allow = *f.AllowExtraColumns
	}
	return flexschema.NewDeclaration(cols, flexschema.AllowExtraColumns(allow))
}

func compileColumn(spec ColumnSpec) (flexschema.Column, error) {
	typ, err := ParseType(spec.Type)
	if err != nil {
		return flexschema.Column{}, fmt.Errorf("column %q: %w", spec.Name, err)
	}

	var opts []flexschema.ColumnOption
	if spec.Nullable != nil {
		n, err := flexschema.ParseNullability(spec.Nullable)
		if err != nil {
			return flexschema.Column{}, fmt.Errorf("column %q: %w", spec.Name, err)
		}
		opts = append(opts, flexschema.WithNullability(n))
	}
	if spec.DefaultSet {
		opts = append(opts, flexschema.WithDefault(spec.Default))
	}

	if spec.Required {
		// A default on a required column surfaces the construction error here.
		return flexschema.RequiredColumn(spec.Name, typ, opts...)
	}
	return flexschema.OptionalColumn(spec.Name, typ, opts...)
}

// ParseYAML parses a YAML declaration document.
func ParseYAML(data []byte) (*flexschema.Declaration, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f.Compile()
}

// ParseJSON parses a JSON declaration document.
func ParseJSON(data []byte) (*flexschema.Declaration, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f.Compile()
}

// Parse detects the document format: JSON when the payload decodes as JSON,
// YAML otherwise (every JSON document is also YAML, so JSON is tried first).
func Parse(data []byte) (*flexschema.Declaration, error) {
	var probe any
	if err := json.Unmarshal(data, &probe); err == nil {
		return ParseJSON(data)
	}
	return ParseYAML(data)
}

// Render converts a declaration back into its document form. Derived
// nullability is not frozen into the document; only explicit policies are
// rendered.
func Render(decl *flexschema.Declaration, name string) (*File, error) {
	allow := decl.ExtraColumnsAllowed()
	f := &File{Name: name, AllowExtraColumns: &allow}
	for _, c := range decl.Columns() {
		ts, err := FormatType(c.Type())
		if err != nil {
			return nil, err
		}
		spec := ColumnSpec{Name: c.Name(), Type: ts, Required: c.IsRequired()}
		if def, ok := c.Default(); ok {
			spec.Default = def
			spec.DefaultSet = true
		}
		if n, ok := c.DeclaredNullability(); ok {
			spec.Nullable = n.String()
		}
		f.Columns = append(f.Columns, spec)
	}
	return f, nil
}

// RenderYAML renders a declaration as a YAML document.
func RenderYAML(decl *flexschema.Declaration, name string) ([]byte, error) {
	f, err := Render(decl, name)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(f)
}

// RenderJSON renders a declaration as a JSON document.
func RenderJSON(decl *flexschema.Declaration, name string) ([]byte, error) {
	f, err := Render(decl, name)
	if err != nil {
		return nil, err
	}
	return json.Marshal(f)
}
