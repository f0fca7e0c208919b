// Package queueing provides the bounded FIFO used by every ring station.
//
// A Buffer follows the two-phase discipline of the ring: Push and Pop only
// stage changes during a cycle. Peek and Size keep reporting the state at
// the beginning of the cycle until Commit applies the staged changes.
package queueing

import (
	"log"

	"github.com/sarchlab/tmu/sim"
)

// HookPosBufPush marks when an element is pushed into the buffer.
var HookPosBufPush = &sim.HookPos{Name: "Buffer Push"}

// HookPosBufPop marks when an element is popped from the buffer.
var HookPosBufPop = &sim.HookPos{Name: "Buffer Pop"}

// A Buffer is a bounded two-phase FIFO.
type Buffer interface {
	sim.Named
	sim.Hookable

	// CanPush tells if one more element can be pushed in this cycle. Pops
	// staged in the same cycle do not free space.
	CanPush() bool
	Push(e interface{})

	// Pop stages the removal of the head and returns it. At most one pop is
	// allowed per cycle.
	Pop() interface{}
	Peek() interface{}
	Capacity() int
	Size() int
	Clear()

	// Commit applies the changes staged in this cycle.
	Commit()
}

// NewBuffer creates a Buffer with the given capacity.
func NewBuffer(name string, capacity int) Buffer {
	sim.NameMustBeValid(name)

	if capacity <= 0 {
		log.Panicf("buffer %s must have a positive capacity", name)
	}

	return &bufferImpl{
		name:     name,
		capacity: capacity,
	}
}

type bufferImpl struct {
	sim.HookableBase

	name     string
	capacity int
	elements []interface{}
	pushed   []interface{}
	popped   bool
}

func (b *bufferImpl) Name() string {
	return b.name
}

func (b *bufferImpl) CanPush() bool {
	return len(b.elements)+len(b.pushed) < b.capacity
}

func (b *bufferImpl) Push(e interface{}) {
	if !b.CanPush() {
		log.Panicf("buffer %s overflow", b.name)
	}

	b.pushed = append(b.pushed, e)

	b.InvokeHook(sim.HookCtx{
		Domain: b,
		Pos:    HookPosBufPush,
		Item:   e,
	})
}

func (b *bufferImpl) Pop() interface{} {
	if b.popped {
		log.Panicf("buffer %s popped twice in one cycle", b.name)
	}

	if len(b.elements) == 0 {
		return nil
	}

	b.popped = true
	e := b.elements[0]

	b.InvokeHook(sim.HookCtx{
		Domain: b,
		Pos:    HookPosBufPop,
		Item:   e,
	})

	return e
}

func (b *bufferImpl) Peek() interface{} {
	if len(b.elements) == 0 {
		return nil
	}

	return b.elements[0]
}

func (b *bufferImpl) Capacity() int {
	return b.capacity
}

func (b *bufferImpl) Size() int {
	return len(b.elements)
}

func (b *bufferImpl) Clear() {
	b.elements = nil
	b.pushed = nil
	b.popped = false
}

func (b *bufferImpl) Commit() {
	if b.popped {
		b.elements[0] = nil
		b.elements = b.elements[1:]
		b.popped = false
	}

	b.elements = append(b.elements, b.pushed...)
	b.pushed = b.pushed[:0]
}
