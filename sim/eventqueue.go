package sim

import (
	"container/heap"
	"sync"
)

// EventQueue is a queue of events ordered by the time of the events.
type EventQueue interface {
	Push(evt Event)
	Pop() Event
	Len() int
	Peek() Event
}

// EventQueueImpl provides a thread-safe event queue.
type EventQueueImpl struct {
	sync.Mutex
	events eventHeap
	seq    uint64
}

// NewEventQueue creates and returns a newly created EventQueue.
func NewEventQueue() *EventQueueImpl {
	q := new(EventQueueImpl)
	q.events = make([]heapEntry, 0)
	heap.Init(&q.events)

	return q
}

// Push adds an event to the event queue.
func (q *EventQueueImpl) Push(evt Event) {
	q.Lock()
	q.seq++
	heap.Push(&q.events, heapEntry{evt: evt, seq: q.seq})
	q.Unlock()
}

// Pop returns the next earliest event.
func (q *EventQueueImpl) Pop() Event {
	q.Lock()
	e := heap.Pop(&q.events).(heapEntry)
	q.Unlock()

	return e.evt
}

// Len returns the number of events in the queue.
func (q *EventQueueImpl) Len() int {
	q.Lock()
	l := q.events.Len()
	q.Unlock()

	return l
}

// Peek returns the event in front of the queue without removing it from the
// queue.
func (q *EventQueueImpl) Peek() Event {
	q.Lock()
	evt := q.events[0].evt
	q.Unlock()

	return evt
}

// heapEntry remembers the insertion order so that same-time events are
// handled in the order they are scheduled. Clocked models rely on this to be
// deterministic.
type heapEntry struct {
	evt Event
	seq uint64
}

type eventHeap []heapEntry

func (h eventHeap) Len() int {
	return len(h)
}

func (h eventHeap) Less(i, j int) bool {
	if h[i].evt.Time() == h[j].evt.Time() {
		return h[i].seq < h[j].seq
	}

	return h[i].evt.Time() < h[j].evt.Time()
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(heapEntry))
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[0 : n-1]

	return entry
}
