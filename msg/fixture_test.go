package msg

import (
	"sync"
	"testing"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/wippyai/msg-runtime/errors"
	"github.com/wippyai/msg-runtime/refcount"
	"github.com/wippyai/msg-runtime/schema"
	"github.com/wippyai/msg-runtime/str"
	"github.com/wippyai/msg-runtime/value"
)

// testSchema is a small schema graph exercising every storage shape:
//
//	Inner { 1: int32 id; 2: string name }
//	Outer { 1: int32 a; 2: int64 b; 3: repeated int32 nums; 4: string s;
//	        5: Inner child; 6: repeated Inner children; 7: repeated string tags;
//	        8: double d = 1.5; 9: bool flag }
//	Node  { 1: int32 val; 2: Node next }
type testSchema struct {
	inner, outer, node *schema.MessageDef

	innerID, innerName *schema.Field

	a, b, nums, s, child, children, tags, d, flag *schema.Field

	nodeVal, nodeNext *schema.Field
}

func addField(t *testing.T, d *schema.MessageDef, f *schema.Field) *schema.Field {
	t.Helper()
	if err := d.AddField(f); err != nil {
		t.Fatalf("AddField(%s.%d): %v", d.Name(), f.Number, err)
	}
	return f
}

func newTestSchema(t *testing.T) *testSchema {
	t.Helper()
	ts := &testSchema{
		inner: schema.NewMessageDef("Inner"),
		outer: schema.NewMessageDef("Outer"),
		node:  schema.NewMessageDef("Node"),
	}

	ts.innerID = addField(t, ts.inner, &schema.Field{Name: "id", Number: 1, Kind: protoreflect.Int32Kind})
	ts.innerName = addField(t, ts.inner, &schema.Field{Name: "name", Number: 2, Kind: protoreflect.StringKind})
	ts.inner.Finalize()

	ts.a = addField(t, ts.outer, &schema.Field{Name: "a", Number: 1, Kind: protoreflect.Int32Kind})
	ts.b = addField(t, ts.outer, &schema.Field{Name: "b", Number: 2, Kind: protoreflect.Int64Kind})
	ts.nums = addField(t, ts.outer, &schema.Field{Name: "nums", Number: 3, Kind: protoreflect.Int32Kind, Repeated: true})
	ts.s = addField(t, ts.outer, &schema.Field{Name: "s", Number: 4, Kind: protoreflect.StringKind})
	ts.child = addField(t, ts.outer, &schema.Field{Name: "child", Number: 5, Kind: protoreflect.MessageKind, Message: ts.inner})
	ts.children = addField(t, ts.outer, &schema.Field{Name: "children", Number: 6, Kind: protoreflect.MessageKind, Message: ts.inner, Repeated: true})
	ts.tags = addField(t, ts.outer, &schema.Field{Name: "tags", Number: 7, Kind: protoreflect.StringKind, Repeated: true})
	ts.d = addField(t, ts.outer, &schema.Field{Name: "d", Number: 8, Kind: protoreflect.DoubleKind, Default: value.Double(1.5)})
	ts.flag = addField(t, ts.outer, &schema.Field{Name: "flag", Number: 9, Kind: protoreflect.BoolKind})
	ts.outer.Finalize()

	ts.nodeVal = addField(t, ts.node, &schema.Field{Name: "val", Number: 1, Kind: protoreflect.Int32Kind})
	ts.nodeNext = addField(t, ts.node, &schema.Field{Name: "next", Number: 2, Kind: protoreflect.MessageKind, Message: ts.node})
	ts.node.Finalize()

	return ts
}

// populate fills every field of an Outer message.
func (ts *testSchema) populate(t *testing.T) *Message {
	t.Helper()
	m := New(ts.outer)
	m.Set(ts.a, value.Int32(-7))
	m.Set(ts.b, value.Int64(1<<40))
	for _, n := range []int32{3, 1, 4} {
		m.Append(ts.nums, value.Int32(n))
	}
	m.Append(ts.s, strValue("hello"))

	c := m.AppendMessage(ts.child)
	c.Set(ts.innerID, value.Int32(1))
	c.Append(ts.innerName, strValue("first"))

	for i, name := range []string{"x", "y"} {
		e := m.AppendMessage(ts.children)
		e.Set(ts.innerID, value.Int32(int32(10+i)))
		e.Append(ts.innerName, strValue(name))
	}
	m.Append(ts.tags, strValue("red"))
	m.Append(ts.tags, strValue("blue"))
	m.Set(ts.d, value.Double(2.25))
	m.Set(ts.flag, value.Bool(true))
	return m
}

func strValue(s string) value.Value {
	return str.New(s).Value()
}

func strOf(v value.Value) *str.Str {
	s, _ := v.Handle().(*str.Str)
	return s
}

// recorder collects storage lifecycle events for one test.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnStoreEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) count(t EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

// frees returns how many times o was reported freed.
func (r *recorder) frees(o refcount.Object) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == EventFree && e.Object == o {
			n++
		}
	}
	return n
}

func record(t *testing.T) *recorder {
	t.Helper()
	r := &recorder{}
	Subscribe(r)
	t.Cleanup(func() { Unsubscribe(r) })
	return r
}

func expectPanic(t *testing.T, kind errors.Kind, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		err, ok := r.(*errors.Error)
		if !ok {
			t.Fatalf("panic = %v, want *errors.Error of kind %s", r, kind)
		}
		if err.Kind != kind {
			t.Fatalf("panic kind = %s, want %s (%v)", err.Kind, kind, err)
		}
	}()
	fn()
}
