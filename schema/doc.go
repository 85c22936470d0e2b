// Package schema describes message layouts: which fields a message type has,
// how each field is stored, and what it reads as when unset.
//
// A MessageDef is built once and then finalized, which assigns every field its
// storage location:
//
//	┌──────────────────────── data block (Size bytes) ──────────────────────┐
//	│ presence bitmap (1 bit per field) │ pad │ scalar slots, aligned │ pad │
//	└───────────────────────────────────────────────────────────────────────┘
//	handle slots (Handles entries): sub-messages, strings, arrays
//
// Scalar fields use Offset as a byte offset into the data block. Fields whose
// values are refcounted handles (strings, bytes, sub-messages and every
// repeated field) use Offset as an index into the handle slots. Offsets are
// fixed at Finalize and never recomputed.
//
// Layouts are immutable after Finalize and may be shared by any number of
// message instances and goroutines.
//
// # Loading
//
// Layouts can be declared in TOML and loaded into a Registry:
//
//	[[message]]
//	name = "Person"
//
//	  [[message.field]]
//	  number = 1
//	  name = "id"
//	  type = "int32"
//	  default = 7
//
//	  [[message.field]]
//	  number = 2
//	  type = "message"
//	  message = "Address"
//	  repeated = true
//
// Field names are descriptive only; fields are addressed by number.
package schema
