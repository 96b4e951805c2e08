package kernel

import (
	"container/heap"
	"sort"
)

// Event is the kernel's immutable unit of scheduling: {source, dest,
// send_time, fire_time, tag, payload}. Serial is a monotonic per-kernel
// counter assigned at Send time and used purely as a tiebreak so that two
// events scheduled in order with identical fire times are delivered in
// that same order (spec.md §3 "Ordering guarantee").
type Event struct {
	Source   EntityID
	Dest     EntityID
	SendTime float64
	FireTime float64
	Tag      string
	Payload  any
	Serial   uint64
}

// eventQueue is a heap.Interface ordering events by (FireTime, Serial)
// ascending. Grounded on sim/cluster/event_heap.go's EventHeap, which
// orders by (timestamp, type priority, event ID); this kernel drops the
// type-priority tier because spec.md's ordering guarantee is defined purely
// in terms of (fire_time, serial_number).
type eventQueue struct {
	events []*Event
}

func newEventQueue() *eventQueue {
	q := &eventQueue{events: make([]*Event, 0)}
	heap.Init(q)
	return q
}

func (q *eventQueue) Len() int { return len(q.events) }

func (q *eventQueue) Less(i, j int) bool {
	ei, ej := q.events[i], q.events[j]
	if ei.FireTime != ej.FireTime {
		return ei.FireTime < ej.FireTime
	}
	return ei.Serial < ej.Serial
}

func (q *eventQueue) Swap(i, j int) { q.events[i], q.events[j] = q.events[j], q.events[i] }

func (q *eventQueue) Push(x any) {
	q.events = append(q.events, x.(*Event))
}

func (q *eventQueue) Pop() any {
	old := q.events
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	q.events = old[:n-1]
	return item
}

// schedule inserts an event into the queue.
func (q *eventQueue) schedule(e *Event) {
	heap.Push(q, e)
}

// popNext removes and returns the earliest event, or nil if empty.
func (q *eventQueue) popNext() *Event {
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(q).(*Event)
}

// peek returns the earliest event without removing it.
func (q *eventQueue) peek() *Event {
	if q.Len() == 0 {
		return nil
	}
	return q.events[0]
}

// removeWhere removes and returns events matching pred, earliest first by
// (FireTime, Serial), up to limit events (limit <= 0 means unlimited). It
// rebuilds the heap after removal since arbitrary-index deletion breaks
// the heap invariant.
func (q *eventQueue) removeWhere(pred func(*Event) bool, limit int) []*Event {
	var removed []*Event
	for _, e := range q.events {
		if pred(e) {
			removed = append(removed, e)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return q.less(removed[i], removed[j]) })
	if limit > 0 && len(removed) > limit {
		removed = removed[:limit]
	}
	drop := make(map[*Event]bool, len(removed))
	for _, e := range removed {
		drop[e] = true
	}
	kept := make([]*Event, 0, len(q.events))
	for _, e := range q.events {
		if !drop[e] {
			kept = append(kept, e)
		}
	}
	q.events = kept
	heap.Init(q)
	return removed
}

// findFirst returns the first event (heap order) matching pred without
// removing it, or nil.
func (q *eventQueue) findFirst(pred func(*Event) bool) *Event {
	var best *Event
	for _, e := range q.events {
		if !pred(e) {
			continue
		}
		if best == nil || q.less(e, best) {
			best = e
		}
	}
	return best
}

func (q *eventQueue) less(a, b *Event) bool {
	if a.FireTime != b.FireTime {
		return a.FireTime < b.FireTime
	}
	return a.Serial < b.Serial
}

// all returns a snapshot slice of queued events (undefined order beyond
// heap-internal layout); used only for diagnostics/tests.
func (q *eventQueue) all() []*Event {
	out := make([]*Event, len(q.events))
	copy(out, q.events)
	return out
}
