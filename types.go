package flexschema

import (
	"fmt"
	"reflect"
)

// Kind enumerates the closed set of logical column types understood by every
// backend. KindNative is the escape hatch for backend-native raw types the core
// treats as opaque.
type Kind int

const (
	KindBool Kind = iota
	KindInt64
	KindFloat64
	KindString
	KindTimestamp
	KindList
	KindNative
)

// String returns the token used for the kind in declaration files and error
// messages.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindTimestamp:
		return "timestamp"
	case KindList:
		return "list"
	case KindNative:
		return "native"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Type is the logical type of a declared column. Values are immutable; build
// them with the constructors below.
type Type struct {
	kind   Kind
	elem   *Type // element type, KindList only
	native any   // backend-native raw type, KindNative only
}

// Bool returns the boolean logical type.
func Bool() Type { return Type{kind: KindBool} }

// Int64 returns the 64-bit integer logical type.
func Int64() Type { return Type{kind: KindInt64} }

// Float64 returns the 64-bit float logical type.
func Float64() Type { return Type{kind: KindFloat64} }

// String returns the string logical type.
func String() Type { return Type{kind: KindString} }

// Timestamp returns the microsecond-precision UTC timestamp logical type.
func Timestamp() Type { return Type{kind: KindTimestamp} }

// ListOf returns the list logical type with the given element type.
func ListOf(elem Type) Type {
	e := elem
	return Type{kind: KindList, elem: &e}
}

// NativeType wraps a backend-native raw type value. The core never interprets
// it; the owning backend's MapType receives it verbatim.
func NativeType(v any) Type { return Type{kind: KindNative, native: v} }

// Kind reports the logical kind.
func (t Type) Kind() Kind { return t.kind }

// Elem returns the element type of a list and whether one is present.
func (t Type) Elem() (Type, bool) {
	if t.kind != KindList || t.elem == nil {
		return Type{}, false
	}
	return *t.elem, true
}

// Native returns the wrapped backend-native raw type for KindNative types.
func (t Type) Native() any { return t.native }

// Equal reports whether two logical types are identical. Native types compare
// by deep equality because backends may use non-comparable raw type values.
func (t Type) Equal(o Type) bool {
	if t.kind != o.kind {
		return false
	}
	switch t.kind {
	case KindList:
		te, tok := t.Elem()
		oe, ook := o.Elem()
		return tok && ook && te.Equal(oe)
	case KindNative:
		return reflect.DeepEqual(t.native, o.native)
	default:
		return true
	}
}

func (t Type) String() string {
	switch t.kind {
	case KindList:
		if e, ok := t.Elem(); ok {
			return fmt.Sprintf("list<%s>", e)
		}
		return "list"
	case KindNative:
		return fmt.Sprintf("native(%v)", t.native)
	default:
		return t.kind.String()
	}
}
