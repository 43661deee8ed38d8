// Package dsl provides the fluent builder for schema declarations.
//
// Example:
//
//	decl, err := dsl.Declaration().
//		Field("subject_id", flexschema.Int64()).Required().
//		Field("time", flexschema.Timestamp()).Required().
//		Field("code", flexschema.String()).Required().
//		Field("numeric_value", flexschema.Float64()).Optional().
//		AllowExtra(false).
//		Build()
package dsl

import (
	flexschema "github.com/flexdata/flexschema"
)

type pendingField struct {
	name     string
	typ      flexschema.Type
	optional bool
	def      any
	hasDef   bool
	nullable flexschema.Nullability
	err      error
}

type declarationBuilder struct {
	fields     []*pendingField
	allowExtra bool
	err        error
}

type fieldStep struct {
	b *declarationBuilder
	f *pendingField
}

// Declaration creates a new declaration builder. Extra columns are allowed by
// default; fields are required by default.
func Declaration() *declarationBuilder {
	return &declarationBuilder{allowExtra: true}
}

// Field registers a field with its logical type and returns a step for
// configuring it. Fields keep their registration order within their
// required/optional group.
func (b *declarationBuilder) Field(name string, typ flexschema.Type) *fieldStep {
	f := &pendingField{name: name, typ: typ}
	b.fields = append(b.fields, f)
	return &fieldStep{b: b, f: f}
}

// AllowExtra sets whether undeclared columns are tolerated in raw schemas and
// tables.
func (b *declarationBuilder) AllowExtra(allow bool) *declarationBuilder {
	b.allowExtra = allow
	return b
}

// Build compiles the declaration. The first field-level error encountered is
// returned; nothing is validated lazily after Build.
func (b *declarationBuilder) Build() (*flexschema.Declaration, error) {
	if b.err != nil {
		return nil, b.err
	}
	cols := make([]flexschema.Column, 0, len(b.fields))
	for _, f := range b.fields {
		if f.err != nil {
			return nil, f.err
		}
		c, err := f.compile()
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return flexschema.NewDeclaration(cols, flexschema.AllowExtraColumns(b.allowExtra))
}

// MustBuild is Build panicking on error.
func (b *declarationBuilder) MustBuild() *flexschema.Declaration {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}

func (f *pendingField) compile() (flexschema.Column, error) {
	var opts []flexschema.ColumnOption
	if f.nullable != flexschema.NullsUnset {
		opts = append(opts, flexschema.WithNullability(f.nullable))
	}
	if f.hasDef {
		opts = append(opts, flexschema.WithDefault(f.def))
	}
	if f.optional {
		return flexschema.OptionalColumn(f.name, f.typ, opts...)
	}
	return flexschema.RequiredColumn(f.name, f.typ, opts...)
}

// Required marks the field as required (the default) and returns the builder.
func (s *fieldStep) Required() *declarationBuilder {
	s.f.optional = false
	return s.b
}

// Optional marks the field as optional and returns the builder.
func (s *fieldStep) Optional() *declarationBuilder {
	s.f.optional = true
	return s.b
}

// Default sets a default value for the field, which also marks it optional
// (required columns cannot default).
func (s *fieldStep) Default(v any) *fieldStep {
	s.f.def = v
	s.f.hasDef = true
	s.f.optional = true
	return s
}

// Nullable sets the field's nullability policy. It accepts the same flexible
// inputs as flexschema.ParseNullability: a Nullability value, a bool, or one
// of the tokens "none", "some", "all".
func (s *fieldStep) Nullable(v any) *fieldStep {
	n, err := flexschema.ParseNullability(v)
	if err != nil && s.f.err == nil {
		s.f.err = err
	}
	s.f.nullable = n
	return s
}

// Field registers the next field, closing out this one as required unless it
// was marked otherwise.
func (s *fieldStep) Field(name string, typ flexschema.Type) *fieldStep {
	return s.b.Field(name, typ)
}

// AllowExtra passes through to the builder.
func (s *fieldStep) AllowExtra(allow bool) *declarationBuilder { return s.b.AllowExtra(allow) }

// Build passes through to the builder.
func (s *fieldStep) Build() (*flexschema.Declaration, error) { return s.b.Build() }

// MustBuild passes through to the builder.
func (s *fieldStep) MustBuild() *flexschema.Declaration { return s.b.MustBuild() }
