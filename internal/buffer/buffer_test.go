package buffer

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestAppendOrder(t *testing.T) {
	b := New(32)
	defer b.Close()

	for _, r := range "hello" {
		b.Append(r)
	}

	if got := b.Snapshot(); got != "hello" {
		t.Errorf("Snapshot() = %q, want %q", got, "hello")
	}
}

func TestOverflowDropsOldest(t *testing.T) {
	b := New(4)
	defer b.Close()

	for _, r := range "abcdefg" {
		b.Append(r)
	}

	if got := b.Snapshot(); got != "defg" {
		t.Errorf("Snapshot() = %q, want %q", got, "defg")
	}
}

func TestClear(t *testing.T) {
	b := New(16)
	defer b.Close()

	for _, r := range "abc" {
		b.Append(r)
	}
	b.Clear()

	if got := b.Snapshot(); got != "" {
		t.Errorf("Snapshot() after Clear = %q, want empty", got)
	}

	// Appends after a clear still work.
	b.Append('x')
	if got := b.Snapshot(); got != "x" {
		t.Errorf("Snapshot() = %q, want %q", got, "x")
	}
}

func TestSnapshotObservesPriorAppends(t *testing.T) {
	b := New(128)
	defer b.Close()

	for i := 0; i < 100; i++ {
		b.Append('a')
	}
	snap := b.Snapshot()
	if len(snap) != 100 {
		t.Errorf("Snapshot() length = %d, want 100", len(snap))
	}
	if snap != strings.Repeat("a", 100) {
		t.Errorf("Snapshot() contents corrupted: %q", snap)
	}
}

func TestConcurrentAppendSnapshot(t *testing.T) {
	b := New(64)
	defer b.Close()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				b.Append('a')
			}
		}
	}()

	for i := 0; i < 100; i++ {
		snap := b.Snapshot()
		if len(snap) > 64 {
			t.Errorf("snapshot exceeds capacity: %d", len(snap))
		}
		for _, r := range snap {
			if r != 'a' {
				t.Fatalf("unexpected rune %q in snapshot", r)
			}
		}
	}

	close(stop)
	wg.Wait()
}

func TestOperationsAfterCloseAreNoOps(t *testing.T) {
	b := New(8)
	b.Append('a')
	b.Close()
	b.Close() // idempotent

	b.Append('b')
	b.Clear()
	if got := b.Snapshot(); got != "" {
		t.Errorf("Snapshot() after Close = %q, want empty", got)
	}
}

func TestAppendNeverBlocks(t *testing.T) {
	b := New(8)
	b.Close() // owner goroutine gone, queue will fill

	done := make(chan struct{})
	go func() {
		for i := 0; i < queueDepth*2; i++ {
			b.Append('x')
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Append blocked with a stalled owner goroutine")
	}
}
