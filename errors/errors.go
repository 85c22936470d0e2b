package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseSchema   Phase = "schema"   // layout construction
	PhaseStore    Phase = "store"    // message/array mutation
	PhaseDispatch Phase = "dispatch" // handler traversal
	PhaseLoad     Phase = "load"     // schema/data file loading
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch   Kind = "type_mismatch"
	KindUnknownKind    Kind = "unknown_kind"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindInvalidData    Kind = "invalid_data"
	KindUnsupported    Kind = "unsupported"
	KindFieldUnknown   Kind = "field_unknown"
	KindDuplicateField Kind = "duplicate_field"
	KindNotFinalized   Kind = "not_finalized"
	KindNotFound       Kind = "not_found"
	KindInvalidInput   Kind = "invalid_input"
	KindRefcount       Kind = "refcount"
	KindDepthExceeded  Kind = "depth_exceeded"
	KindAborted        Kind = "aborted"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value     any
	Cause     error
	Phase     Phase
	Kind      Kind
	ValueType string
	FieldType string
	Detail    string
	Path      []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.ValueType != "" || e.FieldType != "" {
		b.WriteString(": ")
		if e.ValueType != "" && e.FieldType != "" {
			b.WriteString("value type ")
			b.WriteString(e.ValueType)
			b.WriteString(", field type ")
			b.WriteString(e.FieldType)
		} else if e.ValueType != "" {
			b.WriteString("value type ")
			b.WriteString(e.ValueType)
		} else {
			b.WriteString("field type ")
			b.WriteString(e.FieldType)
		}
	}

	if e.Detail != "" {
		if e.ValueType != "" || e.FieldType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// ValueType sets the in-memory value type name
func (b *Builder) ValueType(t string) *Builder {
	b.err.ValueType = t
	return b
}

// FieldType sets the declared field type name
func (b *Builder) FieldType(t string) *Builder {
	b.err.FieldType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, valueType, fieldType string) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindTypeMismatch,
		Path:      path,
		ValueType: valueType,
		FieldType: fieldType,
	}
}

// UnknownKind creates an error for a value type that internal dispatch cannot handle
func UnknownKind(phase Phase, typeName string) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindUnknownKind,
		ValueType: typeName,
		Detail:    "no ownership handling for this type",
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// FieldUnknown creates an unknown field error
func FieldUnknown(phase Phase, path []string, number int32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldUnknown,
		Path:   path,
		Detail: fmt.Sprintf("unknown field number %d", number),
		Value:  number,
	}
}

// DuplicateField creates an error for a field number declared twice
func DuplicateField(phase Phase, message string, number int32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDuplicateField,
		Path:   []string{message},
		Detail: fmt.Sprintf("field number %d declared twice", number),
		Value:  number,
	}
}

// NotFinalized creates an error for a layout used before its offsets were computed
func NotFinalized(phase Phase, message string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFinalized,
		Path:   []string{message},
		Detail: "layout not finalized",
	}
}

// Refcount creates an ownership count violation error
func Refcount(detail string) *Error {
	return &Error{
		Phase:  PhaseStore,
		Kind:   KindRefcount,
		Detail: detail,
	}
}

// DepthExceeded creates a nesting depth error
func DepthExceeded(phase Phase, limit int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDepthExceeded,
		Detail: fmt.Sprintf("nesting deeper than %d", limit),
		Value:  limit,
	}
}

// Aborted creates an error recording that a consumer stopped a traversal
func Aborted(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAborted,
		Detail: detail,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Load creates a file loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}
