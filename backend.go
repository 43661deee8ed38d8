package flexschema

import "context"

// Backend is the contract a concrete schema backend satisfies. S is the raw
// schema representation, T the raw table representation, and D the backend's
// raw column type. The core constructs and mutates raw values only through
// these operations and never retains them across calls.
type Backend[S, T, D any] interface {
	// Name identifies the backend in error messages.
	Name() string

	// MapType maps a logical type to the backend raw type. It must be pure and
	// total over the supported kinds, returning *UnsupportedTypeError otherwise.
	MapType(t Type) (D, error)

	// TypeEqual reports whether two raw types are the same. Raw types may be
	// interface values without meaningful == semantics, so equality belongs to
	// the backend.
	TypeEqual(a, b D) bool

	// SchemaColumns lists the raw schema's column names. Order must reflect the
	// schema's own column order when the backend preserves one, and be
	// deterministic otherwise.
	SchemaColumns(schema S) []string

	// SchemaColumnType returns the raw type of a named column, failing when the
	// column is absent.
	SchemaColumnType(schema S, name string) (D, error)

	// TableSchema derives a raw schema purely from a table's structure (and,
	// for weakly typed backends, from observed value types).
	TableSchema(ctx context.Context, tbl T) (S, error)

	// Reorder returns the table with columns projected into the given order.
	// It must be a pure reindex with no data mutation.
	Reorder(ctx context.Context, tbl T, order []string) (T, error)

	// CastColumn returns the table with one column cast to the target raw
	// type, returning *CastError when values cannot be converted losslessly.
	CastColumn(ctx context.Context, tbl T, name string, to D) (T, error)

	// IsRawSchema is the best-effort probe behind the convenience Validate
	// dispatcher: it reports whether v is recognizably a raw schema for this
	// backend. Ambiguous inputs may be misclassified; the explicit
	// ValidateSchema/ValidateTable entry points are the primary API.
	IsRawSchema(v any) (S, bool)
}
