package flexschema_test

import (
	"errors"
	"testing"

	flexschema "github.com/flexdata/flexschema"
)

func TestColumn_RequiredCannotDefault(t *testing.T) {
	_, err := flexschema.RequiredColumn("code", flexschema.String(), flexschema.WithDefault("x"))
	if err == nil {
		t.Fatalf("expected construction error for required column with default")
	}
	var de *flexschema.DeclarationError
	if !errors.As(err, &de) {
		t.Fatalf("expected DeclarationError, got %T: %v", err, err)
	}
	if de.Column != "code" {
		t.Fatalf("expected offending column %q, got %q", "code", de.Column)
	}

	_, err = flexschema.NewColumn("code", flexschema.String(), flexschema.WithDefault("x"))
	if err == nil {
		t.Fatalf("NewColumn without Optional() is required; default must be rejected")
	}
}

func TestColumn_FixedVariantsRejectOptionalOption(t *testing.T) {
	if _, err := flexschema.RequiredColumn("a", flexschema.Int64(), flexschema.Optional()); err == nil {
		t.Fatalf("expected error passing Optional() to RequiredColumn")
	}
	if _, err := flexschema.OptionalColumn("a", flexschema.Int64(), flexschema.Optional()); err == nil {
		t.Fatalf("expected error passing Optional() to OptionalColumn")
	}
	// NewColumn accepts it.
	c, err := flexschema.NewColumn("a", flexschema.Int64(), flexschema.Optional())
	if err != nil || !c.IsOptional() {
		t.Fatalf("NewColumn with Optional(): c=%v err=%v", c, err)
	}
}

func TestColumn_NullabilityDerivation(t *testing.T) {
	req := flexschema.MustRequiredColumn("a", flexschema.Int64())
	if got := req.Nullability(); got != flexschema.NullsSome {
		t.Fatalf("required column: want some, got %v", got)
	}

	opt := flexschema.MustOptionalColumn("b", flexschema.Float64())
	if got := opt.Nullability(); got != flexschema.NullsAll {
		t.Fatalf("optional without default: want all, got %v", got)
	}

	optDef := flexschema.MustOptionalColumn("c", flexschema.Float64(), flexschema.WithDefault(nil))
	if got := optDef.Nullability(); got != flexschema.NullsSome {
		t.Fatalf("optional with default: want some, got %v", got)
	}

	explicit := flexschema.MustOptionalColumn("d", flexschema.Float64(), flexschema.WithNullability(flexschema.NullsNone))
	if got := explicit.Nullability(); got != flexschema.NullsNone {
		t.Fatalf("explicit policy must win, got %v", got)
	}
	if n, ok := explicit.DeclaredNullability(); !ok || n != flexschema.NullsNone {
		t.Fatalf("DeclaredNullability: n=%v ok=%v", n, ok)
	}
	if _, ok := opt.DeclaredNullability(); ok {
		t.Fatalf("derived policy must not report as declared")
	}
}

func TestColumn_DefaultValue(t *testing.T) {
	c := flexschema.MustOptionalColumn("v", flexschema.Float64(), flexschema.WithDefault(nil))
	if !c.HasDefault() {
		t.Fatalf("explicit null default must count as a default")
	}
	def, ok := c.Default()
	if !ok || def != nil {
		t.Fatalf("want null default, got %v (ok=%v)", def, ok)
	}

	c2 := flexschema.MustOptionalColumn("w", flexschema.Int64(), flexschema.WithDefault(int64(42)))
	def2, _ := c2.Default()
	if def2 != int64(42) {
		t.Fatalf("want default 42, got %v", def2)
	}
}

func TestParseNullability(t *testing.T) {
	cases := []struct {
		in   any
		want flexschema.Nullability
	}{
		{true, flexschema.NullsAll},
		{false, flexschema.NullsNone},
		{"none", flexschema.NullsNone},
		{"some", flexschema.NullsSome},
		{"all", flexschema.NullsAll},
		{flexschema.NullsSome, flexschema.NullsSome},
	}
	for _, tc := range cases {
		got, err := flexschema.ParseNullability(tc.in)
		if err != nil || got != tc.want {
			t.Fatalf("ParseNullability(%v): got %v err=%v, want %v", tc.in, got, err, tc.want)
		}
	}

	if _, err := flexschema.ParseNullability("sometimes"); err == nil {
		t.Fatalf("expected error for unknown token")
	}
	if _, err := flexschema.ParseNullability(3.14); err == nil {
		t.Fatalf("expected error for unsupported input type")
	}
}

func TestType_EqualAndString(t *testing.T) {
	if !flexschema.Int64().Equal(flexschema.Int64()) {
		t.Fatalf("int64 must equal int64")
	}
	if flexschema.Int64().Equal(flexschema.Float64()) {
		t.Fatalf("int64 must not equal float64")
	}
	ls := flexschema.ListOf(flexschema.String())
	if !ls.Equal(flexschema.ListOf(flexschema.String())) {
		t.Fatalf("list<string> must equal list<string>")
	}
	if ls.Equal(flexschema.ListOf(flexschema.Int64())) {
		t.Fatalf("list<string> must not equal list<int64>")
	}
	if got := ls.String(); got != "list<string>" {
		t.Fatalf("list type token: got %q", got)
	}
	if got := flexschema.Timestamp().String(); got != "timestamp" {
		t.Fatalf("timestamp token: got %q", got)
	}

	nt := flexschema.NativeType("decimal(38,9)")
	if !nt.Equal(flexschema.NativeType("decimal(38,9)")) {
		t.Fatalf("identical native types must be equal")
	}
	if nt.Equal(flexschema.NativeType("decimal(10,2)")) {
		t.Fatalf("different native types must not be equal")
	}
}
