// Package msgruntime is the in-memory object model and traversal engine for
// a protobuf-style message runtime.
//
// It stores decoded message data compactly, shares nested objects through
// reference counting and pushes a message's contents into consumer handler
// sets. Wire encoding and decoding live outside this module; they drive the
// write surface (msg.Message.Set, Append, AppendMessage, Recycle) and the
// read surface (msg.RunHandlers) respectively.
//
// # Architecture Overview
//
//	msgruntime/
//	├── schema/          Message layouts: fields, offsets, presence bits, defaults; TOML loader
//	├── msg/             Message and Array storage, ownership, recycling, traversal, copy
//	├── handlers/        Handler sets, flow signals, dispatcher frames, traversal status
//	├── refcount/        Atomic ownership count shared by every heap object
//	├── str/             Refcounted byte strings
//	├── value/           Tagged value union: scalar bits or a refcounted handle
//	├── errors/          Structured error types
//	├── internal/        Text rendering, TOML data mapping, bit helpers
//	└── cmd/msgview/     CLI to inspect TOML data through a schema
//
// # Quick Start
//
// Build a layout, fill a message and walk it:
//
//	person := schema.NewMessageDef("Person")
//	id := &schema.Field{Name: "id", Number: 1, Kind: protoreflect.Int64Kind}
//	if err := person.AddField(id); err != nil {
//	    log.Fatal(err)
//	}
//	person.Finalize()
//
//	m := msg.New(person)
//	defer m.Unref()
//	m.Set(id, value.Int64(42))
//
//	h := handlers.New()
//	h.Register(1, &handlers.FieldHandlers{
//	    Value: func(_ any, f *schema.Field, v value.Value) handlers.Flow {
//	        fmt.Println(f.Name, v.Int64())
//	        return handlers.Continue
//	    },
//	})
//	if st := msg.RunHandlers(m, h, nil); !st.OK() {
//	    log.Fatal(st.Err())
//	}
//
// # Ownership
//
// Messages, arrays and strings carry an atomic count. Storing a handle into a
// field or array element takes a reference; overwriting or freeing the holder
// releases it. An object is torn down exactly when its count reaches zero.
//
// # Thread Safety
//
// Counts are atomic, so read-only objects may be shared across goroutines.
// Mutating a message or array requires a single writer. Recycle checks for
// sole ownership before any in-place reuse.
package msgruntime
