package flexschema

import "fmt"

// Nullability classifies how many nulls a declared column may contain. It is
// declarative metadata consumed by backends and tooling; the engine never
// checks it against actual null counts.
type Nullability int

const (
	// NullsUnset means no explicit policy was given; the effective policy is
	// derived from the column's optionality and default (see Column.Nullability).
	NullsUnset Nullability = iota
	// NullsNone: no value in the column may be null.
	NullsNone
	// NullsSome: some, but not all, values may be null.
	NullsSome
	// NullsAll: any value up to and including all values may be null.
	NullsAll
)

func (n Nullability) String() string {
	switch n {
	case NullsNone:
		return "none"
	case NullsSome:
		return "some"
	case NullsAll:
		return "all"
	case NullsUnset:
		return "unset"
	default:
		return fmt.Sprintf("nullability(%d)", int(n))
	}
}

// ParseNullability coerces the flexible inputs accepted by declaration files
// and the DSL into a Nullability. Accepted: a Nullability value, a bool
// (true means all, false means none), or one of the tokens "none", "some",
// "all". Anything else is an error.
func ParseNullability(v any) (Nullability, error) {
	switch x := v.(type) {
	case Nullability:
		return x, nil
	case bool:
		if x {
			return NullsAll, nil
		}
		return NullsNone, nil
	case string:
		switch x {
		case "none":
			return NullsNone, nil
		case "some":
			return NullsSome, nil
		case "all":
			return NullsAll, nil
		}
		return NullsUnset, fmt.Errorf("flexschema: invalid nullability token %q, want one of \"none\", \"some\", \"all\"", x)
	default:
		return NullsUnset, fmt.Errorf("flexschema: invalid nullability value of type %T, want bool, string token, or Nullability", v)
	}
}
