package flexschema

import (
	"github.com/samber/lo"
)

// Declaration is the immutable, ordered set of columns defining a schema
// shape. It is compiled once by NewDeclaration and read-only thereafter, so a
// single declaration is safe for unsynchronized concurrent use.
type Declaration struct {
	required   []Column
	optional   []Column
	byName     map[string]Column
	allowExtra bool
}

// DeclarationOption configures a declaration at construction time.
type DeclarationOption func(*Declaration)

// AllowExtraColumns controls whether raw schemas and tables may carry columns
// absent from the declaration. The default is true; extras pass through
// validation and are kept (after the declared columns) by alignment.
func AllowExtraColumns(allow bool) DeclarationOption {
	return func(d *Declaration) { d.allowExtra = allow }
}

// NewDeclaration compiles columns into a declaration. Column names must be
// pairwise distinct. The stable column ordering is required columns first,
// then optional columns, each group in the order given here.
func NewDeclaration(cols []Column, opts ...DeclarationOption) (*Declaration, error) {
	d := &Declaration{
		byName:     make(map[string]Column, len(cols)),
		allowExtra: true,
	}
	for _, opt := range opts {
		opt(d)
	}

	for _, c := range cols {
		if c.name == "" {
			return nil, &DeclarationError{Message: "declaration contains an unnamed column; build columns with the package constructors"}
		}
		if _, dup := d.byName[c.name]; dup {
			return nil, &DeclarationError{Column: c.name, Message: "duplicate column name"}
		}
		d.byName[c.name] = c
		if c.IsRequired() {
			d.required = append(d.required, c)
		} else {
			d.optional = append(d.optional, c)
		}
	}
	return d, nil
}

// MustNewDeclaration is NewDeclaration panicking on error.
func MustNewDeclaration(cols []Column, opts ...DeclarationOption) *Declaration {
	d, err := NewDeclaration(cols, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// RequiredColumns returns the required columns in declaration order.
func (d *Declaration) RequiredColumns() []Column {
	return append([]Column(nil), d.required...)
}

// OptionalColumns returns the optional columns in declaration order.
func (d *Declaration) OptionalColumns() []Column {
	return append([]Column(nil), d.optional...)
}

// Columns returns every column, required first then optional, each group in
// declaration order.
func (d *Declaration) Columns() []Column {
	out := make([]Column, 0, len(d.required)+len(d.optional))
	out = append(out, d.required...)
	return append(out, d.optional...)
}

// ColumnNames returns the names of Columns in the same order.
func (d *Declaration) ColumnNames() []string {
	return lo.Map(d.Columns(), func(c Column, _ int) string { return c.name })
}

// RequiredColumnNames returns the required column names in declaration order.
func (d *Declaration) RequiredColumnNames() []string {
	return lo.Map(d.required, func(c Column, _ int) string { return c.name })
}

// Column looks a column up by name.
func (d *Declaration) Column(name string) (Column, bool) {
	c, ok := d.byName[name]
	return c, ok
}

// Has reports whether a column with the given name is declared.
func (d *Declaration) Has(name string) bool {
	_, ok := d.byName[name]
	return ok
}

// Len returns the number of declared columns.
func (d *Declaration) Len() int { return len(d.required) + len(d.optional) }

// ExtraColumnsAllowed reports whether undeclared columns are tolerated.
func (d *Declaration) ExtraColumnsAllowed() bool { return d.allowExtra }
