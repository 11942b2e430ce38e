package request

import "github.com/comsys-lab/PIM-NDP-Sim/internal/simerrors"

// Buffer is a bounded FIFO of pending Requests. It is not safe for
// concurrent use — every buffer lives on the single simulation thread,
// per the controller's cooperative, non-reentrant tick.
type Buffer struct {
	items    []Request
	capacity int
}

// NewBuffer returns an empty Buffer holding at most capacity Requests.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{capacity: capacity}
}

// Push enqueues r, returning simerrors.ResourceExhausted if the buffer is
// already at capacity — the caller (controller.send) is expected to
// retry on a later cycle rather than treat this as fatal.
func (b *Buffer) Push(r Request) error {
	if len(b.items) >= b.capacity {
		return simerrors.New("Buffer.Push", simerrors.ResourceExhausted, "buffer at capacity")
	}
	b.items = append(b.items, r)
	return nil
}

// Len reports how many requests are currently queued.
func (b *Buffer) Len() int { return len(b.items) }

// Full reports whether Push would currently fail.
func (b *Buffer) Full() bool { return len(b.items) >= b.capacity }

// Empty reports whether the buffer holds no requests.
func (b *Buffer) Empty() bool { return len(b.items) == 0 }

// At returns the i-th queued request without removing it.
func (b *Buffer) At(i int) Request { return b.items[i] }

// Remove deletes the i-th queued request, preserving arrival order among
// the rest.
func (b *Buffer) Remove(i int) {
	b.items = append(b.items[:i], b.items[i+1:]...)
}

// Each calls fn for every currently-queued request, in arrival order.
// Modifying the buffer from within fn is not supported; callers that need
// to remove entries collect indices first and call Remove afterward.
func (b *Buffer) Each(fn func(i int, r Request)) {
	for i, r := range b.items {
		fn(i, r)
	}
}
