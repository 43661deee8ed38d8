// Package arrowschema implements the columnar backend over Apache Arrow: raw
// schemas are *arrow.Schema values and raw tables are arrow.Record batches.
// Casts go through the Arrow compute kernels in safe mode, so alignment never
// truncates or wraps values silently.
package arrowschema

import (
	"context"
	"fmt"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/compute"
	"github.com/apache/arrow/go/v14/arrow/memory"

	flexschema "github.com/flexdata/flexschema"
)

// Binding is the arrow instantiation of flexschema.Binding.
type Binding = flexschema.Binding[*arrow.Schema, arrow.Record, arrow.DataType]

// Bind binds a declaration to the arrow backend.
func Bind(decl *flexschema.Declaration) (*Binding, error) {
	return flexschema.Bind[*arrow.Schema, arrow.Record, arrow.DataType](decl, Backend{})
}

// Backend implements the flexschema backend contract for Arrow. It is
// stateless; a single value may be shared freely.
type Backend struct{}

// NewBackend returns the arrow backend.
func NewBackend() Backend { return Backend{} }

var _ flexschema.Backend[*arrow.Schema, arrow.Record, arrow.DataType] = Backend{}

// Name implements flexschema.Backend.
func (Backend) Name() string { return "arrow" }

// MapType maps logical types onto Arrow data types. Timestamps are
// microsecond precision in UTC. Native types accept any arrow.DataType.
func (b Backend) MapType(t flexschema.Type) (arrow.DataType, error) {
	switch t.Kind() {
	case flexschema.KindBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case flexschema.KindInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case flexschema.KindFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case flexschema.KindString:
		return arrow.BinaryTypes.String, nil
	case flexschema.KindTimestamp:
		return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}, nil
	case flexschema.KindList:
		elem, ok := t.Elem()
		if !ok {
			break
		}
		et, err := b.MapType(elem)
		if err != nil {
			return nil, err
		}
		return arrow.ListOf(et), nil
	case flexschema.KindNative:
		if dt, ok := t.Native().(arrow.DataType); ok {
			return dt, nil
		}
	}
	return nil, &flexschema.UnsupportedTypeError{Backend: "arrow", Type: t}
}

// TypeEqual implements flexschema.Backend via arrow.TypeEqual; arrow data
// types are interface values and must not be compared with ==.
func (Backend) TypeEqual(a, b arrow.DataType) bool { return arrow.TypeEqual(a, b) }

// SchemaColumns implements flexschema.Backend; Arrow schemas preserve field
// order.
func (Backend) SchemaColumns(schema *arrow.Schema) []string {
	fields := schema.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

// SchemaColumnType implements flexschema.Backend.
func (Backend) SchemaColumnType(schema *arrow.Schema, name string) (arrow.DataType, error) {
	idxs := schema.FieldIndices(name)
	if len(idxs) == 0 {
		return nil, fmt.Errorf("arrowschema: schema has no field %q", name)
	}
	return schema.Field(idxs[0]).Type, nil
}

// TableSchema implements flexschema.Backend; records carry their schema.
func (Backend) TableSchema(ctx context.Context, rec arrow.Record) (*arrow.Schema, error) {
	_ = ctx
	return rec.Schema(), nil
}

// Reorder projects the record's columns into the given order without copying
// any array data.
func (Backend) Reorder(ctx context.Context, rec arrow.Record, order []string) (arrow.Record, error) {
	_ = ctx
	schema := rec.Schema()
	fields := make([]arrow.Field, 0, len(order))
	cols := make([]arrow.Array, 0, len(order))
	for _, name := range order {
		idxs := schema.FieldIndices(name)
		if len(idxs) == 0 {
			return nil, fmt.Errorf("arrowschema: record has no column %q", name)
		}
		fields = append(fields, schema.Field(idxs[0]))
		cols = append(cols, rec.Column(idxs[0]))
	}
	return array.NewRecord(arrow.NewSchema(fields, nil), cols, rec.NumRows()), nil
}

// CastColumn casts one column through the compute kernels in safe mode; any
// value that would be truncated or overflow fails the cast.
func (Backend) CastColumn(ctx context.Context, rec arrow.Record, name string, to arrow.DataType) (arrow.Record, error) {
	schema := rec.Schema()
	idxs := schema.FieldIndices(name)
	if len(idxs) == 0 {
		return nil, &flexschema.CastError{Column: name, To: to, Cause: fmt.Errorf("column not present")}
	}
	idx := idxs[0]

	cast, err := compute.CastArray(ctx, rec.Column(idx), compute.SafeCastOptions(to))
	if err != nil {
		return nil, &flexschema.CastError{Column: name, To: to, Cause: err}
	}

	fields := make([]arrow.Field, schema.NumFields())
	cols := make([]arrow.Array, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		fields[i] = schema.Field(i)
		cols[i] = rec.Column(i)
	}
	fields[idx].Type = to
	cols[idx] = cast
	return array.NewRecord(arrow.NewSchema(fields, nil), cols, rec.NumRows()), nil
}

// IsRawSchema recognizes *arrow.Schema values.
func (Backend) IsRawSchema(v any) (*arrow.Schema, bool) {
	s, ok := v.(*arrow.Schema)
	return s, ok
}

// FillMissing appends a null-filled column for every declared column absent
// from the record, so FillMissing followed by Binding.Align reproduces a full
// normalize pass. This is adapter-level convenience; the core alignment engine
// never synthesizes columns.
func FillMissing(ctx context.Context, b *Binding, rec arrow.Record) (arrow.Record, error) {
	_ = ctx
	schema := rec.Schema()
	fields := append([]arrow.Field(nil), schema.Fields()...)
	cols := make([]arrow.Array, 0, len(fields))
	for i := 0; i < schema.NumFields(); i++ {
		cols = append(cols, rec.Column(i))
	}

	for _, c := range b.Declaration().Columns() {
		if schema.HasField(c.Name()) {
			continue
		}
		dt, err := b.ColumnType(c.Name())
		if err != nil {
			return nil, err
		}
		fields = append(fields, arrow.Field{Name: c.Name(), Type: dt, Nullable: true})
		cols = append(cols, array.MakeArrayOfNull(memory.DefaultAllocator, dt, int(rec.NumRows())))
	}

	return array.NewRecord(arrow.NewSchema(fields, nil), cols, rec.NumRows()), nil
}
