package request

import "testing"

func TestBufferPushPopOrder(t *testing.T) {
	b := NewBuffer(2)
	if err := b.Push(Request{Seq: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.Push(Request{Seq: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.Push(Request{Seq: 3}); err == nil {
		t.Fatalf("expected ResourceExhausted once at capacity")
	}
	if b.At(0).Seq != 1 || b.At(1).Seq != 2 {
		t.Fatalf("FIFO order not preserved")
	}
	b.Remove(0)
	if b.Len() != 1 || b.At(0).Seq != 2 {
		t.Fatalf("Remove did not compact correctly")
	}
}

func TestBufferEmptyFull(t *testing.T) {
	b := NewBuffer(1)
	if !b.Empty() {
		t.Fatalf("fresh buffer should be empty")
	}
	_ = b.Push(Request{})
	if !b.Full() {
		t.Fatalf("buffer at capacity should report full")
	}
}
