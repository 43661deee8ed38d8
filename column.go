package flexschema

// Column is one declared field of a schema: name, logical type, required or
// optional, default value, nullability policy. Columns are immutable after
// construction; there are no setters.
type Column struct {
	name     string
	typ      Type
	optional bool
	def      any
	hasDef   bool
	nullable Nullability // explicit policy; NullsUnset means derived
}

// ColumnOption configures a column at construction time.
type ColumnOption func(*columnConfig) error

type columnConfig struct {
	def         any
	hasDef      bool
	nullable    Nullability
	optional    bool
	setOptional bool
}

// WithDefault sets the column's default value. Only optional columns may carry
// a default; NewColumn rejects the combination with a required column.
func WithDefault(v any) ColumnOption {
	return func(c *columnConfig) error {
		c.def = v
		c.hasDef = true
		return nil
	}
}

// WithNullability sets an explicit nullability policy, overriding derivation.
func WithNullability(n Nullability) ColumnOption {
	return func(c *columnConfig) error {
		c.nullable = n
		return nil
	}
}

// Optional marks the column optional. Valid only with NewColumn; the fixed
// RequiredColumn and OptionalColumn variants reject it.
func Optional() ColumnOption {
	return func(c *columnConfig) error {
		c.optional = true
		c.setOptional = true
		return nil
	}
}

// NewColumn builds a column. Columns are required unless Optional() is given.
func NewColumn(name string, typ Type, opts ...ColumnOption) (Column, error) {
	return newColumn(name, typ, true, false, opts)
}

// RequiredColumn builds a required column. It does not accept the Optional()
// option; passing it is a construction error.
func RequiredColumn(name string, typ Type, opts ...ColumnOption) (Column, error) {
	return newColumn(name, typ, false, false, opts)
}

// OptionalColumn builds an optional column. It does not accept the Optional()
// option; the flag is fixed by the variant.
func OptionalColumn(name string, typ Type, opts ...ColumnOption) (Column, error) {
	return newColumn(name, typ, false, true, opts)
}

// MustRequiredColumn is RequiredColumn panicking on error, for declarations
// assembled in package-level variables.
func MustRequiredColumn(name string, typ Type, opts ...ColumnOption) Column {
	c, err := RequiredColumn(name, typ, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// MustOptionalColumn is OptionalColumn panicking on error.
func MustOptionalColumn(name string, typ Type, opts ...ColumnOption) Column {
	c, err := OptionalColumn(name, typ, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func newColumn(name string, typ Type, allowOptionalOpt, optional bool, opts []ColumnOption) (Column, error) {
	if name == "" {
		return Column{}, &DeclarationError{Message: "column name must not be empty"}
	}

	cfg := columnConfig{optional: optional}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return Column{}, err
		}
	}

	if cfg.setOptional && !allowOptionalOpt {
		return Column{}, &DeclarationError{Column: name, Message: "Optional() is not a valid option for a fixed required/optional column variant"}
	}
	if cfg.hasDef && !cfg.optional {
		return Column{}, &DeclarationError{Column: name, Message: "required columns cannot have a default value"}
	}

	return Column{
		name:     name,
		typ:      typ,
		optional: cfg.optional,
		def:      cfg.def,
		hasDef:   cfg.hasDef,
		nullable: cfg.nullable,
	}, nil
}

// Name returns the column name.
func (c Column) Name() string { return c.name }

// Type returns the declared logical type.
func (c Column) Type() Type { return c.typ }

// IsOptional reports whether the column is optional.
func (c Column) IsOptional() bool { return c.optional }

// IsRequired reports whether the column is required.
func (c Column) IsRequired() bool { return !c.optional }

// Default returns the default value and whether one was declared.
func (c Column) Default() (any, bool) { return c.def, c.hasDef }

// HasDefault reports whether a default was declared.
func (c Column) HasDefault() bool { return c.hasDef }

// DeclaredNullability returns the explicit policy and whether one was set.
// Tooling that round-trips declarations uses this to avoid freezing a derived
// policy into an explicit one.
func (c Column) DeclaredNullability() (Nullability, bool) {
	return c.nullable, c.nullable != NullsUnset
}

// Nullability returns the effective policy. When none was set explicitly it is
// derived: optional with a default is NullsSome, optional without is NullsAll,
// required is NullsSome (a backend may still tighten required columns).
func (c Column) Nullability() Nullability {
	if c.nullable != NullsUnset {
		return c.nullable
	}
	if c.optional {
		if c.hasDef {
			return NullsSome
		}
		return NullsAll
	}
	return NullsSome
}
