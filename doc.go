package flexschema

// Package flexschema provides:
//
// - A declared tabular schema model: named, typed columns that are required or
//   optional, with defaults and a declarative nullability policy
// - A backend-agnostic validation engine that classifies a raw schema into
//   missing-required / disallowed-extra / mistyped columns and reports all three
//   in a single aggregate error
// - An alignment engine that non-destructively reorders and safely casts a raw
//   table to conform to a declaration
// - A stable error model via ValidationError / TableValidationError
//
// Design policy:
// - Keep only public APIs in the root package; backends live in their own
//   subpackages (jsonschema, arrowschema) behind the Backend contract.
// - Declarations are compiled once and immutable; validation and alignment are
//   pure functions of (binding, input) and safe for concurrent use.
// - Place the fluent builder under dsl/, declaration files under schemafile/,
//   and the CLI under cmd/flexschema.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	decl := flexschema.MustNewDeclaration([]flexschema.Column{
//		flexschema.MustRequiredColumn("subject_id", flexschema.Int64()),
//		flexschema.MustRequiredColumn("time", flexschema.Timestamp()),
//		flexschema.MustOptionalColumn("numeric_value", flexschema.Float64()),
//	})
//
//	b, err := jsonschema.Bind(decl)
//	err = b.ValidateTable(ctx, tbl)
//	aligned, err := b.Align(ctx, tbl)
