// Package errors provides structured error types for the msg-runtime library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the field path, the value type involved, the declared field
// type, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseStore, errors.KindTypeMismatch).
//		Path("Person", "3").
//		ValueType("string").
//		FieldType("int32").
//		Detail("set with wrong value type").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TypeMismatch(errors.PhaseStore, path, "string", "int32")
//	err := errors.DepthExceeded(errors.PhaseDispatch, 64)
//
// Programming errors (contract violations by the caller or the schema) are raised
// with panic(*Error); recoverable conditions are returned.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
