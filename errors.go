package flexschema

import (
	"errors"
	"fmt"
	"strings"
)

// DeclarationError reports a malformed column or declaration definition. It is
// fatal at build time; nothing recovers from it at validation time.
type DeclarationError struct {
	Column  string // offending column name, when known
	Message string
}

func (e *DeclarationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("flexschema: column %q: %s", e.Column, e.Message)
	}
	return "flexschema: " + e.Message
}

// Mistype records one column whose raw type disagrees with the declared
// mapped type. Want and Got carry backend raw types and are rendered with %v.
type Mistype struct {
	Column string
	Want   any
	Got    any
}

// ValidationError aggregates every schema mismatch found in a single
// validation pass. All three category lists are always computed together; the
// error is returned iff at least one is non-empty.
type ValidationError struct {
	DisallowedExtra []string
	MissingRequired []string
	Mistyped        []Mistype

	cause error
}

// Any reports whether any category is populated.
func (e *ValidationError) Any() bool {
	return len(e.DisallowedExtra) > 0 || len(e.MissingRequired) > 0 || len(e.Mistyped) > 0
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.DisallowedExtra) > 0 {
		parts = append(parts, "disallowed extra columns: "+strings.Join(e.DisallowedExtra, ", "))
	}
	if len(e.MissingRequired) > 0 {
		parts = append(parts, "missing required columns: "+strings.Join(e.MissingRequired, ", "))
	}
	if len(e.Mistyped) > 0 {
		cols := make([]string, 0, len(e.Mistyped))
		for _, m := range e.Mistyped {
			cols = append(cols, fmt.Sprintf("%s (want %v, got %v)", m.Column, m.Want, m.Got))
		}
		parts = append(parts, "mistyped columns: "+strings.Join(cols, ", "))
	}
	if len(parts) == 0 {
		return "flexschema: schema validation failed"
	}
	return "flexschema: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return e.cause }

// AsValidationError extracts a *ValidationError from an error chain using
// errors.As internally.
func AsValidationError(err error) (*ValidationError, bool) {
	if err == nil {
		return nil, false
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// TableValidationError wraps a validation failure whose input was a raw table
// rather than a raw schema, so callers can distinguish the two surfaces. The
// inner error remains reachable through errors.As.
type TableValidationError struct {
	Err error
}

func (e *TableValidationError) Error() string {
	if e.Err == nil {
		return "flexschema: table validation failed"
	}
	return "flexschema: table validation failed: " + e.Err.Error()
}

func (e *TableValidationError) Unwrap() error { return e.Err }

// UnsupportedTypeError is returned by a backend's MapType when a logical type
// has no raw representation in that backend.
type UnsupportedTypeError struct {
	Backend string
	Type    Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("flexschema: backend %s does not support logical type %s", e.Backend, e.Type)
}

// CastError is returned by a backend's CastColumn when values cannot be
// converted losslessly to the target raw type.
type CastError struct {
	Column string
	To     any
	Cause  error
}

func (e *CastError) Error() string {
	msg := fmt.Sprintf("flexschema: cannot cast column %q to %v", e.Column, e.To)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *CastError) Unwrap() error { return e.Cause }
