package sim

import (
	"container/heap"
	"sync"
)

// EventQueue is a queue of events ordered by time.
type EventQueue interface {
	Push(evt Event)
	Pop() Event
	Len() int
	Peek() Event
}

// EventQueueImpl is a thread-safe EventQueue backed by a binary heap.
type EventQueueImpl struct {
	sync.Mutex
	events eventHeap
}

// NewEventQueue creates an empty EventQueue.
func NewEventQueue() *EventQueueImpl {
	q := &EventQueueImpl{}
	heap.Init(&q.events)

	return q
}

// Push adds an event.
func (q *EventQueueImpl) Push(evt Event) {
	q.Lock()
	defer q.Unlock()

	q.events.seq++
	heap.Push(&q.events, queuedEvent{evt: evt, seq: q.events.seq})
}

// Pop removes and returns the earliest event.
func (q *EventQueueImpl) Pop() Event {
	q.Lock()
	defer q.Unlock()

	return heap.Pop(&q.events).(queuedEvent).evt
}

// Len returns the number of events.
func (q *EventQueueImpl) Len() int {
	q.Lock()
	defer q.Unlock()

	return q.events.Len()
}

// Peek returns the earliest event without removing it.
func (q *EventQueueImpl) Peek() Event {
	q.Lock()
	defer q.Unlock()

	return q.events.items[0].evt
}

// queuedEvent keeps the insertion order so that same-time events are handled
// in the order they were scheduled.
type queuedEvent struct {
	evt Event
	seq uint64
}

type eventHeap struct {
	items []queuedEvent
	seq   uint64
}

func (h eventHeap) Len() int {
	return len(h.items)
}

func (h eventHeap) Less(i, j int) bool {
	ti, tj := h.items[i].evt.Time(), h.items[j].evt.Time()
	if ti != tj {
		return ti < tj
	}

	return h.items[i].seq < h.items[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
}

func (h *eventHeap) Push(x interface{}) {
	h.items = append(h.items, x.(queuedEvent))
}

func (h *eventHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]

	return item
}
