package flexschema_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	flexschema "github.com/flexdata/flexschema"
)

func TestAlign_ReordersToDeclarationOrder(t *testing.T) {
	b := memBind(t)
	tbl := memTable{
		cols:  []string{"time", "subject_id", "code"},
		types: map[string]string{"time": "ts", "subject_id": "int", "code": "str"},
	}

	out, err := b.Align(context.Background(), tbl)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	// numeric_value and text_value are optional and absent; they are omitted,
	// never synthesized.
	want := []string{"subject_id", "time", "code"}
	if !reflect.DeepEqual(out.cols, want) {
		t.Fatalf("aligned order: got %v want %v", out.cols, want)
	}
}

func TestAlign_OptionalPresentKeepsDeclarationOrder(t *testing.T) {
	b := memBind(t)
	tbl := memTable{
		cols: []string{"text_value", "numeric_value", "code", "time", "subject_id"},
		types: map[string]string{
			"text_value": "str", "numeric_value": "float",
			"code": "str", "time": "ts", "subject_id": "int",
		},
	}
	out, err := b.Align(context.Background(), tbl)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	want := []string{"subject_id", "time", "code", "numeric_value", "text_value"}
	if !reflect.DeepEqual(out.cols, want) {
		t.Fatalf("aligned order: got %v want %v", out.cols, want)
	}
}

func TestAlign_ExtrasKeepOriginalRelativeOrder(t *testing.T) {
	b := memBind(t) // extras allowed by default
	tbl := memTable{
		cols: []string{"zeta", "time", "subject_id", "alpha", "code"},
		types: map[string]string{
			"zeta": "str", "time": "ts", "subject_id": "int", "alpha": "int", "code": "str",
		},
	}
	out, err := b.Align(context.Background(), tbl)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	want := []string{"subject_id", "time", "code", "zeta", "alpha"}
	if !reflect.DeepEqual(out.cols, want) {
		t.Fatalf("extras must trail in original relative order: got %v want %v", out.cols, want)
	}
}

func TestAlign_MissingRequiredNotCorrectable(t *testing.T) {
	b := memBind(t)
	tbl := memTable{
		cols:  []string{"time", "code"},
		types: map[string]string{"time": "ts", "code": "int"}, // code also mistyped
	}
	_, err := b.Align(context.Background(), tbl)
	ve, ok := flexschema.AsValidationError(err)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !reflect.DeepEqual(ve.MissingRequired, []string{"subject_id"}) {
		t.Fatalf("missing required: got %v", ve.MissingRequired)
	}
	// The re-raise mirrors validation but drops the mistyped list: casting
	// cannot help when required data is absent.
	if len(ve.Mistyped) != 0 {
		t.Fatalf("mistyped must be dropped on uncorrectable failure: %v", ve.Mistyped)
	}
}

func TestAlign_DisallowedExtraNotCorrectable(t *testing.T) {
	b := memBind(t, flexschema.AllowExtraColumns(false))
	tbl := memTable{
		cols: []string{"subject_id", "time", "code", "foo"},
		types: map[string]string{
			"subject_id": "int", "time": "ts", "code": "str", "foo": "str",
		},
	}
	_, err := b.Align(context.Background(), tbl)
	ve, ok := flexschema.AsValidationError(err)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !reflect.DeepEqual(ve.DisallowedExtra, []string{"foo"}) {
		t.Fatalf("alignment must not drop disallowed extras: %v", ve)
	}
}

func TestAlign_CastsMistypedColumns(t *testing.T) {
	b := memBind(t)
	tbl := memTable{
		cols:  []string{"subject_id", "time", "code"},
		types: map[string]string{"subject_id": "str", "time": "ts", "code": "str"},
	}
	out, err := b.Align(context.Background(), tbl)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if out.types["subject_id"] != "int" {
		t.Fatalf("subject_id must be cast to int, got %q", out.types["subject_id"])
	}
}

func TestAlign_CastFailureReportsFullMistypedList(t *testing.T) {
	b := memBind(t)
	tbl := memTable{
		cols: []string{"subject_id", "time", "code"},
		types: map[string]string{
			"subject_id": "str", // castable
			"time":       "str", // backend refuses
			"code":       "str",
		},
		uncastable: map[string]bool{"time": true},
	}
	_, err := b.Align(context.Background(), tbl)
	ve, ok := flexschema.AsValidationError(err)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	cols := []string{}
	for _, m := range ve.Mistyped {
		cols = append(cols, m.Column)
	}
	if !reflect.DeepEqual(cols, []string{"subject_id", "time"}) {
		t.Fatalf("cast failure must re-report the full mistyped list, got %v", cols)
	}
	var ce *flexschema.CastError
	if !errors.As(err, &ce) {
		t.Fatalf("cast cause must stay chained, got %v", err)
	}
}

func TestAlign_Idempotent(t *testing.T) {
	b := memBind(t)
	tbl := memTable{
		cols:  []string{"time", "subject_id", "code", "numeric_value"},
		types: map[string]string{"time": "ts", "subject_id": "str", "code": "str", "numeric_value": "float"},
	}
	once, err := b.Align(context.Background(), tbl)
	if err != nil {
		t.Fatalf("first align: %v", err)
	}
	twice, err := b.Align(context.Background(), once)
	if err != nil {
		t.Fatalf("second align: %v", err)
	}
	if !reflect.DeepEqual(once.cols, twice.cols) || !reflect.DeepEqual(once.types, twice.types) {
		t.Fatalf("align must be a fixed point: %v/%v vs %v/%v", once.cols, once.types, twice.cols, twice.types)
	}
}
