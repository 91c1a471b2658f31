// Package buffer maintains the rolling window of recently typed characters.
//
// A single owner goroutine serializes every mutation: the capture callback
// only ever sends a message, it never takes a lock it could contend on.
// Append is fire-and-forget and drops (with a counter) when the queue is
// full rather than stalling the caller, because the caller is the OS event
// callback and must return within microseconds.
package buffer

import (
	"sync"
	"sync/atomic"
)

// DefaultCapacity bounds the window when the caller does not configure one.
// It only needs to cover the longest registered trigger plus a little
// preceding context for the word-boundary check.
const DefaultCapacity = 64

const queueDepth = 256

type opKind int

const (
	opAppend opKind = iota
	opClear
	opSnapshot
)

type op struct {
	kind  opKind
	r     rune
	reply chan string
}

// Buffer is a capacity-bounded rolling character buffer owned by a worker
// goroutine. Appends apply in send order; Snapshot returns a point-in-time
// copy; on overflow the oldest characters are discarded.
type Buffer struct {
	ops     chan op
	quit    chan struct{}
	max     int
	closed  atomic.Bool
	dropped atomic.Uint64
	once    sync.Once
}

// New creates a buffer holding at most max characters and starts its owner
// goroutine.
func New(max int) *Buffer {
	if max <= 0 {
		max = DefaultCapacity
	}
	b := &Buffer{
		ops:  make(chan op, queueDepth),
		quit: make(chan struct{}),
		max:  max,
	}
	go b.loop()
	return b
}

func (b *Buffer) loop() {
	data := make([]rune, 0, b.max)
	for {
		select {
		case <-b.quit:
			return
		case o := <-b.ops:
			switch o.kind {
			case opAppend:
				data = append(data, o.r)
				if len(data) > b.max {
					n := copy(data, data[len(data)-b.max:])
					data = data[:n]
				}
			case opClear:
				data = data[:0]
			case opSnapshot:
				o.reply <- string(data)
			}
		}
	}
}

// Append queues a character without blocking. If the owner goroutine is
// backed up the character is dropped and counted; the capture callback is
// never stalled.
func (b *Buffer) Append(r rune) {
	if b.closed.Load() {
		return
	}
	select {
	case b.ops <- op{kind: opAppend, r: r}:
	default:
		b.dropped.Add(1)
	}
}

// Clear empties the buffer. Safe to call from any goroutine.
func (b *Buffer) Clear() {
	if b.closed.Load() {
		return
	}
	select {
	case b.ops <- op{kind: opClear}:
	case <-b.quit:
	}
}

// Snapshot returns a point-in-time copy of the buffer contents. The
// snapshot reflects every Append sent before the Snapshot call on the same
// goroutine.
func (b *Buffer) Snapshot() string {
	if b.closed.Load() {
		return ""
	}
	reply := make(chan string, 1)
	select {
	case b.ops <- op{kind: opSnapshot, reply: reply}:
	case <-b.quit:
		return ""
	}
	select {
	case s := <-reply:
		return s
	case <-b.quit:
		return ""
	}
}

// Dropped reports how many appends were discarded because the queue was
// full.
func (b *Buffer) Dropped() uint64 {
	return b.dropped.Load()
}

// Close stops the owner goroutine. Subsequent operations are no-ops.
func (b *Buffer) Close() {
	b.once.Do(func() {
		b.closed.Store(true)
		close(b.quit)
	})
}
