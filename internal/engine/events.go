package engine

import (
	"fmt"
	"sync"

	"github.com/roach88/tripleq/internal/ir"
)

// EventType distinguishes session notifications.
type EventType int

const (
	// EventDatasetReplaced follows Replace and Close.
	EventDatasetReplaced EventType = iota + 1
	// EventPatternChanged follows every accepted SetSearchPattern.
	EventPatternChanged
	// EventCountUpdated reports the count after each drain slice.
	EventCountUpdated
	// EventCountFinalized reports that the count will not change for this generation.
	EventCountFinalized
)

// String returns the snake_case event name used in logs and traces.
func (t EventType) String() string {
	switch t {
	case EventDatasetReplaced:
		return "dataset_replaced"
	case EventPatternChanged:
		return "pattern_changed"
	case EventCountUpdated:
		return "count_updated"
	case EventCountFinalized:
		return "count_finalized"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}

// Event is a session notification.
type Event struct {
	Type       EventType
	SessionID  string
	Generation int64

	// Count is the result count at the time of the event.
	Count uint64

	// Final reports whether Count is final for this generation.
	Final bool

	// Pattern is the textual pattern in effect.
	Pattern ir.TripleString
}

// Listener receives session events synchronously.
//
// Listeners may read session state but must not call methods that change
// it; a listener that does will deadlock the session.
type Listener func(Event)

type listenerSet struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]Listener
	order     []int
}

func newListenerSet() *listenerSet {
	return &listenerSet{listeners: make(map[int]Listener)}
}

func (ls *listenerSet) add(l Listener) func() {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	ls.nextID++
	id := ls.nextID
	ls.listeners[id] = l
	ls.order = append(ls.order, id)

	var once sync.Once
	return func() {
		once.Do(func() { ls.remove(id) })
	}
}

func (ls *listenerSet) remove(id int) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	delete(ls.listeners, id)
	for i, v := range ls.order {
		if v == id {
			ls.order = append(ls.order[:i], ls.order[i+1:]...)
			break
		}
	}
}

// snapshot returns the listeners in registration order.
func (ls *listenerSet) snapshot() []Listener {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	out := make([]Listener, 0, len(ls.order))
	for _, id := range ls.order {
		out = append(out, ls.listeners[id])
	}
	return out
}

func (ls *listenerSet) deliver(events []Event) {
	if len(events) == 0 {
		return
	}
	listeners := ls.snapshot()
	for _, ev := range events {
		for _, l := range listeners {
			l(ev)
		}
	}
}
