// Package timerwheel implements a single-level timing wheel for tracking the
// expiration of many live objects (sessions, connections) with O(1) insert,
// refresh and removal, and O(1)-amortized batch expiry.
//
//	              cursor
//	                │
//	                ▼
//	 ┌─────┬─────┬─────┬─────┬─────┬─────┐
//	 │  0  │  1  │  2  │  3  │ ... │ N-1 │   slots
//	 └─────┴─────┴──┬──┴─────┴─────┴─────┘
//	                │
//	                ▼
//	            [node] ⇄ [node] ⇄ [node]      expiring on this tick
//
// # Single timeout duration
//
// Every node expires exactly one revolution after its last Update: with N
// slots it is returned by the N-th Tick following the Update. The slot under
// the cursor is always "now", so with a tick of d a node lives at least
// (N-1)·d and at most N·d of wall time. Per-node timeouts are not supported;
// size the wheel for the one timeout you need (see Timeout).
//
// # Intrusive nodes
//
// The wheel never allocates. Callers embed a Node in their own struct and
// hand the wheel a pointer to it:
//
//	type session struct {
//	    id    string
//	    timer timerwheel.Node[*session]
//	}
//
//	s := &session{id: id}
//	s.timer.Value = s
//	wheel.Update(&s.timer)
//
// A node sits in at most one slot. Callers Unlink a node before discarding its
// owner so the wheel stops reporting it.
//
// # Concurrency
//
// A Wheel does no locking. Callers serialize every operation on a wheel, and
// on the nodes linked into it, themselves.
//
// Within a slot the list is LIFO: the most recently updated node comes first.
// Do not rely on any expiry order within a tick.
package timerwheel

import (
	"time"
)

const DefaultTick = time.Second

// detached marks a node handed out by Tick.
const detached = -1

// Node is a list element embedded in the caller's object. Value typically
// points back to that object.
type Node[T any] struct {
	Value T

	prev *Node[T]
	next *Node[T]
	slot int
}

// Next returns the following node of a list returned by Tick, or nil.
func (n *Node[T]) Next() *Node[T] {
	return n.next
}

type Wheel[T any] struct {
	slots    []*Node[T]
	current  int
	tick     time.Duration
	lastTick time.Time
	now      func() time.Time
	linked   int
}

type Option func(*options)

type options struct {
	tick time.Duration
	now  func() time.Time
}

// WithTick sets the duration of one tick. Non-positive values are ignored.
func WithTick(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.tick = d
		}
	}
}

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates a wheel of the given number of slots. It panics if slots is
// less than one.
func New[T any](slots int, opts ...Option) *Wheel[T] {
	if slots < 1 {
		panic("timerwheel: slot count must be positive")
	}
	o := options{tick: DefaultTick, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Wheel[T]{
		slots:    make([]*Node[T], slots),
		tick:     o.tick,
		now:      o.now,
		lastTick: o.now(),
	}
}

// Update links n one full revolution ahead of the cursor, unlinking it from
// its current slot first if needed.
func (w *Wheel[T]) Update(n *Node[T]) {
	w.Unlink(n)

	slot := (w.current + len(w.slots) - 1) % len(w.slots)
	n.slot = slot
	n.prev = nil
	n.next = w.slots[slot]
	if n.next != nil {
		n.next.prev = n
	}
	w.slots[slot] = n
	w.linked++
}

// Unlink removes n from its slot. Unlinking a node that is not linked is a
// no-op.
func (w *Wheel[T]) Unlink(n *Node[T]) {
	if !w.Linked(n) {
		return
	}
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if w.slots[n.slot] == n {
		w.slots[n.slot] = n.next
	}
	n.prev = nil
	n.next = nil
	w.linked--
}

// Linked reports whether n is currently in one of the wheel's slots.
//
// A node alone in its slot has no neighbours, so slot-head identity is checked
// as well as the links.
func (w *Wheel[T]) Linked(n *Node[T]) bool {
	if n.slot < 0 || n.slot >= len(w.slots) {
		return false
	}
	if n.prev != nil || n.next != nil {
		return true
	}
	return w.slots[n.slot] == n
}

// Tick detaches and returns the list of nodes in the slot under the cursor,
// then advances the cursor and the last-tick time by exactly one tick.
//
// The returned nodes are no longer part of the wheel but are still chained to
// each other; walk them with Next before relinking any of them. ProcessExpired
// is usually more convenient.
func (w *Wheel[T]) Tick() *Node[T] {
	expired := w.slots[w.current]
	w.slots[w.current] = nil
	for n := expired; n != nil; n = n.next {
		n.slot = detached
		w.linked--
	}

	w.current = (w.current + 1) % len(w.slots)
	w.lastTick = w.lastTick.Add(w.tick)
	return expired
}

// ProcessExpired ticks once and calls fn for every expired node. Each node's
// links are cleared before fn sees it, so fn may Update it again.
func (w *Wheel[T]) ProcessExpired(fn func(n *Node[T])) {
	n := w.Tick()
	for n != nil {
		next := n.next
		n.prev = nil
		n.next = nil
		fn(n)
		n = next
	}
}

// TimeToNextTick returns how long until the next Tick is due, or zero if it
// is already overdue.
func (w *Wheel[T]) TimeToNextTick() time.Duration {
	elapsed := w.now().Sub(w.lastTick)
	if elapsed >= w.tick {
		return 0
	}
	return w.tick - elapsed
}

// Len returns the number of linked nodes.
func (w *Wheel[T]) Len() int {
	return w.linked
}

func (w *Wheel[T]) Slots() int {
	return len(w.slots)
}

func (w *Wheel[T]) TickDuration() time.Duration {
	return w.tick
}

// Timeout returns the guaranteed minimum lifetime of a node after Update.
func (w *Wheel[T]) Timeout() time.Duration {
	return time.Duration(len(w.slots)-1) * w.tick
}
