package flexschema_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	flexschema "github.com/flexdata/flexschema"
)

// memSchema and memTable form a minimal in-memory backend used to exercise the
// engine without pulling in a concrete backend package.
type memSchema struct {
	cols  []string
	types map[string]string
}

type memTable struct {
	cols  []string
	types map[string]string
	// columns whose cast the backend refuses
	uncastable map[string]bool
}

func (t memTable) clone() memTable {
	types := make(map[string]string, len(t.types))
	for k, v := range t.types {
		types[k] = v
	}
	return memTable{cols: append([]string(nil), t.cols...), types: types, uncastable: t.uncastable}
}

// memBackend maps logical kinds to short type tokens.
type memBackend struct {
	mapCalls *int
}

var _ flexschema.Backend[memSchema, memTable, string] = memBackend{}

func (memBackend) Name() string { return "mem" }

func (b memBackend) MapType(t flexschema.Type) (string, error) {
	if b.mapCalls != nil {
		*b.mapCalls++
	}
	switch t.Kind() {
	case flexschema.KindBool:
		return "bool", nil
	case flexschema.KindInt64:
		return "int", nil
	case flexschema.KindFloat64:
		return "float", nil
	case flexschema.KindString:
		return "str", nil
	case flexschema.KindTimestamp:
		return "ts", nil
	default:
		return "", &flexschema.UnsupportedTypeError{Backend: "mem", Type: t}
	}
}

func (memBackend) TypeEqual(a, b string) bool { return a == b }

func (memBackend) SchemaColumns(s memSchema) []string { return s.cols }

func (memBackend) SchemaColumnType(s memSchema, name string) (string, error) {
	ty, ok := s.types[name]
	if !ok {
		return "", fmt.Errorf("mem: no column %q", name)
	}
	return ty, nil
}

func (memBackend) TableSchema(ctx context.Context, t memTable) (memSchema, error) {
	return memSchema{cols: t.cols, types: t.types}, nil
}

func (memBackend) Reorder(ctx context.Context, t memTable, order []string) (memTable, error) {
	out := t.clone()
	out.cols = append([]string(nil), order...)
	return out, nil
}

func (memBackend) CastColumn(ctx context.Context, t memTable, name, to string) (memTable, error) {
	if t.uncastable[name] {
		return memTable{}, &flexschema.CastError{Column: name, To: to, Cause: errors.New("unsafe")}
	}
	out := t.clone()
	out.types[name] = to
	return out, nil
}

func (memBackend) IsRawSchema(v any) (memSchema, bool) {
	s, ok := v.(memSchema)
	return s, ok
}

func memBind(t *testing.T, opts ...flexschema.DeclarationOption) *flexschema.Binding[memSchema, memTable, string] {
	t.Helper()
	b, err := flexschema.Bind[memSchema, memTable, string](testDecl(t, opts...), memBackend{})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	return b
}

func conformingSchema() memSchema {
	return memSchema{
		cols: []string{"time", "subject_id", "code", "numeric_value"},
		types: map[string]string{
			"time":          "ts",
			"subject_id":    "int",
			"code":          "str",
			"numeric_value": "float",
		},
	}
}

func TestBind_MapsTypesOnce(t *testing.T) {
	calls := 0
	b, err := flexschema.Bind[memSchema, memTable, string](testDecl(t), memBackend{mapCalls: &calls})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if calls != 5 {
		t.Fatalf("MapType calls at Bind: got %d want 5", calls)
	}

	ty, err := b.ColumnType("subject_id")
	if err != nil || ty != "int" {
		t.Fatalf("ColumnType: ty=%q err=%v", ty, err)
	}
	if _, err := b.ColumnType("nope"); err == nil {
		t.Fatalf("expected error for undeclared column")
	}
	if calls != 5 {
		t.Fatalf("ColumnType must hit the cache, got %d MapType calls", calls)
	}
}

func TestBind_FailsFastOnUnsupportedType(t *testing.T) {
	decl := flexschema.MustNewDeclaration([]flexschema.Column{
		flexschema.MustRequiredColumn("geom", flexschema.ListOf(flexschema.String())),
	})
	_, err := flexschema.Bind[memSchema, memTable, string](decl, memBackend{})
	var ute *flexschema.UnsupportedTypeError
	if !errors.As(err, &ute) {
		t.Fatalf("expected UnsupportedTypeError, got %v", err)
	}
}

func TestValidateSchema_Conforming(t *testing.T) {
	b := memBind(t)
	if err := b.ValidateSchema(context.Background(), conformingSchema()); err != nil {
		t.Fatalf("conforming schema must validate, got %v", err)
	}
}

func TestValidateSchema_MissingRequiredOnly(t *testing.T) {
	b := memBind(t)
	s := conformingSchema()
	s.cols = []string{"time", "code", "numeric_value"}
	delete(s.types, "subject_id")

	err := b.ValidateSchema(context.Background(), s)
	ve, ok := flexschema.AsValidationError(err)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !reflect.DeepEqual(ve.MissingRequired, []string{"subject_id"}) {
		t.Fatalf("missing required: got %v", ve.MissingRequired)
	}
	if len(ve.DisallowedExtra) != 0 || len(ve.Mistyped) != 0 {
		t.Fatalf("no other category may be populated: %v", ve)
	}
}

func TestValidateSchema_OptionalAbsentIsFine(t *testing.T) {
	b := memBind(t)
	s := memSchema{
		cols:  []string{"subject_id", "time", "code"},
		types: map[string]string{"subject_id": "int", "time": "ts", "code": "str"},
	}
	if err := b.ValidateSchema(context.Background(), s); err != nil {
		t.Fatalf("absent optional columns must be ignored, got %v", err)
	}
}

func TestValidateSchema_DisallowedExtra(t *testing.T) {
	b := memBind(t, flexschema.AllowExtraColumns(false))
	s := conformingSchema()
	s.cols = append(s.cols, "foo")
	s.types["foo"] = "str"

	err := b.ValidateSchema(context.Background(), s)
	ve, ok := flexschema.AsValidationError(err)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !reflect.DeepEqual(ve.DisallowedExtra, []string{"foo"}) {
		t.Fatalf("disallowed extra: got %v", ve.DisallowedExtra)
	}
	if len(ve.MissingRequired) != 0 || len(ve.Mistyped) != 0 {
		t.Fatalf("extra column must never be reported as mistyped or missing: %v", ve)
	}

	// With extras allowed (the default) the same schema passes.
	if err := memBind(t).ValidateSchema(context.Background(), s); err != nil {
		t.Fatalf("extras allowed: got %v", err)
	}
}

func TestValidateSchema_Mistyped(t *testing.T) {
	b := memBind(t)
	s := conformingSchema()
	s.types["subject_id"] = "str"

	err := b.ValidateSchema(context.Background(), s)
	ve, ok := flexschema.AsValidationError(err)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := []flexschema.Mistype{{Column: "subject_id", Want: "int", Got: "str"}}
	if !reflect.DeepEqual(ve.Mistyped, want) {
		t.Fatalf("mistyped: got %v want %v", ve.Mistyped, want)
	}
	if len(ve.MissingRequired) != 0 || len(ve.DisallowedExtra) != 0 {
		t.Fatalf("no other category may be populated: %v", ve)
	}
}

func TestValidateSchema_AllCategoriesAggregated(t *testing.T) {
	b := memBind(t, flexschema.AllowExtraColumns(false))
	s := memSchema{
		cols: []string{"time", "code", "numeric_value", "foo"},
		types: map[string]string{
			"time":          "ts",
			"code":          "int", // mistyped
			"numeric_value": "float",
			"foo":           "str", // extra
			// subject_id missing
		},
	}
	err := b.ValidateSchema(context.Background(), s)
	ve, ok := flexschema.AsValidationError(err)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !reflect.DeepEqual(ve.DisallowedExtra, []string{"foo"}) ||
		!reflect.DeepEqual(ve.MissingRequired, []string{"subject_id"}) ||
		len(ve.Mistyped) != 1 || ve.Mistyped[0].Column != "code" {
		t.Fatalf("aggregate must report all three categories together: %+v", ve)
	}

	msg := ve.Error()
	for _, frag := range []string{"foo", "subject_id", "code"} {
		if !strings.Contains(msg, frag) {
			t.Fatalf("error message must name %q: %s", frag, msg)
		}
	}
}

func TestValidateTable_WrapsInTableError(t *testing.T) {
	b := memBind(t)
	tbl := memTable{
		cols:  []string{"time", "code"},
		types: map[string]string{"time": "ts", "code": "str"},
	}
	err := b.ValidateTable(context.Background(), tbl)
	var tve *flexschema.TableValidationError
	if !errors.As(err, &tve) {
		t.Fatalf("expected TableValidationError, got %T: %v", err, err)
	}
	// The inner aggregate stays reachable.
	ve, ok := flexschema.AsValidationError(err)
	if !ok || !reflect.DeepEqual(ve.MissingRequired, []string{"subject_id"}) {
		t.Fatalf("inner ValidationError: %v ok=%v", ve, ok)
	}

	// Schema validation failures are not table-wrapped.
	s := conformingSchema()
	s.cols = s.cols[1:]
	delete(s.types, "time")
	err = b.ValidateSchema(context.Background(), s)
	if errors.As(err, &tve) {
		t.Fatalf("schema path must not produce TableValidationError")
	}
}

func TestValidate_Dispatch(t *testing.T) {
	b := memBind(t)
	ctx := context.Background()

	if err := b.Validate(ctx, conformingSchema()); err != nil {
		t.Fatalf("schema dispatch: %v", err)
	}
	tbl := memTable{cols: conformingSchema().cols, types: conformingSchema().types}
	if err := b.Validate(ctx, tbl); err != nil {
		t.Fatalf("table dispatch: %v", err)
	}
	if err := b.Validate(ctx, 42); err == nil {
		t.Fatalf("unrecognizable input must fail")
	}
}
