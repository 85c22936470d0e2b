package msg

import (
	"sync"
	"sync/atomic"

	"github.com/wippyai/msg-runtime/refcount"
)

// EventType identifies a storage lifecycle event.
type EventType uint8

const (
	EventAlloc EventType = iota
	EventFree
	EventRecycle
)

func (t EventType) String() string {
	switch t {
	case EventAlloc:
		return "alloc"
	case EventFree:
		return "free"
	case EventRecycle:
		return "recycle"
	default:
		return "unknown"
	}
}

// Event reports an allocation, free or in-place reuse of a Message, Array or
// string.
type Event struct {
	Object refcount.Object
	Type   EventType
}

// Observer receives storage lifecycle events. Observers are called
// synchronously on the goroutine doing the work.
type Observer interface {
	OnStoreEvent(Event)
}

var observers struct {
	list []Observer
	mu   sync.RWMutex
	n    atomic.Int32
}

// Subscribe adds an observer for lifecycle events.
func Subscribe(o Observer) {
	observers.mu.Lock()
	defer observers.mu.Unlock()
	observers.list = append(observers.list, o)
	observers.n.Store(int32(len(observers.list)))
}

// Unsubscribe removes an observer.
func Unsubscribe(o Observer) {
	observers.mu.Lock()
	defer observers.mu.Unlock()
	for i, obs := range observers.list {
		if obs == o {
			observers.list = append(observers.list[:i], observers.list[i+1:]...)
			break
		}
	}
	observers.n.Store(int32(len(observers.list)))
}

func notify(t EventType, o refcount.Object) {
	if observers.n.Load() == 0 {
		return
	}
	observers.mu.RLock()
	defer observers.mu.RUnlock()
	e := Event{Type: t, Object: o}
	for _, obs := range observers.list {
		obs.OnStoreEvent(e)
	}
}
