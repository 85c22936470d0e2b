// Package handlers defines the visitor protocol a message traversal drives:
// handler sets keyed by field number, the flow signals handlers return, and
// the Dispatcher that tracks closures and nesting while a traversal runs.
//
// # Protocol
//
// A traversal emits, in depth-first pre-order:
//
//	StartMessage
//	  Value(field, v)              scalar and string fields, array elements
//	  StartSubmessage(field)       entering a nested message
//	    ...                        nested message's fields
//	  EndSubmessage(field)
//	EndMessage(status)
//
// Only fields with a registered FieldHandlers entry are emitted. A field with
// no entry is skipped silently.
//
// # Flow
//
// Every callback except EndMessage returns a Flow:
//
//	Continue        proceed normally
//	SkipSubmessage  from StartSubmessage only: do not enter this sub-message,
//	                continue with the parent's next value
//	Abort           stop the whole traversal
//
// SkipSubmessage is absorbed where it is returned. Any other non-Continue
// result propagates as Abort. EndMessage always runs and receives a Status
// telling whether the traversal completed.
//
// # Closures
//
// Each callback receives the closure of the message being visited. The
// closure passed to Dispatcher.Reset belongs to the top-level message;
// StartSubmessage returns the closure for the nested message, so a consumer
// can descend into its own nested state (a builder descends into the nested
// message it is filling).
package handlers
