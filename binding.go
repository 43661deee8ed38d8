package flexschema

import (
	"context"
	"fmt"

	"github.com/samber/lo"
)

// Binding pairs a declaration with a backend. Every declared column's logical
// type is mapped through the backend exactly once, at Bind time; validation
// and alignment reuse the cached raw types. Bindings are immutable and safe
// for concurrent use.
type Binding[S, T, D any] struct {
	decl    *Declaration
	backend Backend[S, T, D]
	types   map[string]D
}

// Bind compiles a declaration against a backend, failing fast with
// *UnsupportedTypeError when any declared logical type has no raw
// representation in the backend.
func Bind[S, T, D any](decl *Declaration, backend Backend[S, T, D]) (*Binding[S, T, D], error) {
	types := make(map[string]D, decl.Len())
	for _, c := range decl.Columns() {
		raw, err := backend.MapType(c.Type())
		if err != nil {
			return nil, err
		}
		types[c.Name()] = raw
	}
	return &Binding[S, T, D]{decl: decl, backend: backend, types: types}, nil
}

// MustBind is Bind panicking on error.
func MustBind[S, T, D any](decl *Declaration, backend Backend[S, T, D]) *Binding[S, T, D] {
	b, err := Bind(decl, backend)
	if err != nil {
		panic(err)
	}
	return b
}

// Declaration returns the bound declaration.
func (b *Binding[S, T, D]) Declaration() *Declaration { return b.decl }

// Backend returns the bound backend.
func (b *Binding[S, T, D]) Backend() Backend[S, T, D] { return b.backend }

// ColumnType returns the backend raw type mapped for a declared column.
func (b *Binding[S, T, D]) ColumnType(name string) (D, error) {
	raw, ok := b.types[name]
	if !ok {
		var zero D
		return zero, fmt.Errorf("flexschema: column %q is not declared", name)
	}
	return raw, nil
}

// ValidateSchema classifies the raw schema against the declaration and
// returns one aggregate *ValidationError when anything mismatches.
//
// The three categories are independent and always computed together:
//   - disallowed extras: raw columns absent from the declaration, only when the
//     declaration disallows extras; never reported as mistyped.
//   - missing required: required columns absent from the raw schema; absent
//     columns are never reported as mistyped, and absent optional columns are
//     simply ignored.
//   - mistyped: columns present in both whose raw type differs from the
//     declared mapped type.
func (b *Binding[S, T, D]) ValidateSchema(ctx context.Context, schema S) error {
	_ = ctx
	ve := b.classify(schema)
	if ve.Any() {
		return ve
	}
	return nil
}

func (b *Binding[S, T, D]) classify(schema S) *ValidationError {
	rawCols := b.backend.SchemaColumns(schema)
	rawSet := lo.SliceToMap(rawCols, func(c string) (string, struct{}) { return c, struct{}{} })

	ve := &ValidationError{}

	if !b.decl.ExtraColumnsAllowed() {
		ve.DisallowedExtra = lo.Filter(rawCols, func(c string, _ int) bool {
			return !b.decl.Has(c)
		})
	}

	ve.MissingRequired = lo.Filter(b.decl.RequiredColumnNames(), func(c string, _ int) bool {
		_, present := rawSet[c]
		return !present
	})

	for _, c := range b.decl.Columns() {
		if _, present := rawSet[c.Name()]; !present {
			continue
		}
		want := b.types[c.Name()]
		got, err := b.backend.SchemaColumnType(schema, c.Name())
		if err != nil {
			// Present per SchemaColumns but unreadable; surface as mistyped
			// with an unknown actual type rather than dropping the column.
			ve.Mistyped = append(ve.Mistyped, Mistype{Column: c.Name(), Want: want, Got: fmt.Sprintf("unreadable (%v)", err)})
			continue
		}
		if !b.backend.TypeEqual(want, got) {
			ve.Mistyped = append(ve.Mistyped, Mistype{Column: c.Name(), Want: want, Got: got})
		}
	}

	return ve
}

// ValidateTable derives the table's schema through the backend and validates
// it. Failures are wrapped in *TableValidationError so callers can distinguish
// "a schema object was invalid" from "a concrete table's inferred schema was
// invalid"; the inner *ValidationError stays reachable via errors.As.
func (b *Binding[S, T, D]) ValidateTable(ctx context.Context, tbl T) error {
	schema, err := b.backend.TableSchema(ctx, tbl)
	if err != nil {
		return &TableValidationError{Err: err}
	}
	if err := b.ValidateSchema(ctx, schema); err != nil {
		return &TableValidationError{Err: err}
	}
	return nil
}

// Validate is the convenience dispatcher over ValidateSchema and
// ValidateTable. It asks the backend's IsRawSchema probe whether v looks like
// a raw schema and otherwise requires v to be a raw table. The probe is
// best-effort and may misclassify ambiguous inputs; prefer the explicit entry
// points.
func (b *Binding[S, T, D]) Validate(ctx context.Context, v any) error {
	if schema, ok := b.backend.IsRawSchema(v); ok {
		return b.ValidateSchema(ctx, schema)
	}
	tbl, ok := v.(T)
	if !ok {
		return &TableValidationError{Err: fmt.Errorf("flexschema: %s backend cannot validate a value of type %T", b.backend.Name(), v)}
	}
	return b.ValidateTable(ctx, tbl)
}

// Align non-destructively conforms a raw table to the declaration: it
// reorders columns into the declared order and casts mistyped columns to
// their declared raw types.
//
// Only a pure mistyped-columns failure is correctable. Missing required or
// disallowed extra columns fail exactly as validation does: alignment never
// fabricates required data and never drops columns on the caller's behalf.
// When any cast is rejected by the backend the full mistyped list is
// re-reported and no partially cast table escapes.
//
// The result's column order is: required columns in declaration order, then
// optional columns actually present in the input in declaration order, then,
// when extras are allowed, the remaining input columns in their original
// relative order. Missing optional columns are not synthesized here; that is
// backend-level convenience (see the arrowschema FillMissing helper).
//
// Align is idempotent: aligning an already aligned table changes nothing.
func (b *Binding[S, T, D]) Align(ctx context.Context, tbl T) (T, error) {
	var zero T

	schema, err := b.backend.TableSchema(ctx, tbl)
	if err != nil {
		return zero, &TableValidationError{Err: err}
	}

	var mistyped []Mistype
	if ve := b.classify(schema); ve.Any() {
		if len(ve.MissingRequired) > 0 || len(ve.DisallowedExtra) > 0 {
			// Not correctable; re-raise without the mistyped list, which would
			// otherwise suggest casting could help.
			return zero, &ValidationError{
				DisallowedExtra: ve.DisallowedExtra,
				MissingRequired: ve.MissingRequired,
			}
		}
		mistyped = ve.Mistyped
	}

	tableCols := b.backend.SchemaColumns(schema)
	tableSet := lo.SliceToMap(tableCols, func(c string) (string, struct{}) { return c, struct{}{} })

	order := make([]string, 0, len(tableCols))
	for _, c := range b.decl.Columns() {
		_, present := tableSet[c.Name()]
		if c.IsRequired() || present {
			order = append(order, c.Name())
		}
	}
	if b.decl.ExtraColumnsAllowed() {
		placed := lo.SliceToMap(order, func(c string) (string, struct{}) { return c, struct{}{} })
		for _, c := range tableCols {
			if _, ok := placed[c]; !ok {
				order = append(order, c)
			}
		}
	}

	out, err := b.backend.Reorder(ctx, tbl, order)
	if err != nil {
		return zero, &TableValidationError{Err: err}
	}

	for _, m := range mistyped {
		want, ok := m.Want.(D)
		if !ok {
			want = b.types[m.Column]
		}
		out, err = b.backend.CastColumn(ctx, out, m.Column, want)
		if err != nil {
			return zero, &ValidationError{Mistyped: mistyped, cause: err}
		}
	}

	return out, nil
}
