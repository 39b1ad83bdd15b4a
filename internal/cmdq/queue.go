package cmdq

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

var queueSeq atomic.Int64

// Target is the bound execution context of the active command, filled in by
// Command.Bind.
type Target struct {
	Client  Client
	Session Session
	Window  Window
	Pane    Pane
}

type hookPhase int

const (
	phaseNone hookPhase = iota
	phaseBefore
	phaseAfter
)

func (p hookPhase) String() string {
	switch p {
	case phaseBefore:
		return "before"
	case phaseAfter:
		return "after"
	}
	return "none"
}

// Item wraps one queued command list.
type Item struct {
	list *List
}

// Queue is one execution context: a FIFO of command lists plus the cursor,
// per-command hook bookkeeping and guard-line sequencing for the command
// currently being driven.
type Queue struct {
	id   string
	refs int
	dead bool

	client Client
	env    *Env

	items []*Item
	item  *Item // active item; always the FIFO head when set
	pos   int   // index of the active command within item's list
	cmd   *Entry

	state   State
	resumed hookPhase // set by a hook continuation before re-entering Continue
	noHooks bool      // hook queues never consult hooks themselves

	// per-command bookkeeping, reset when the cursor moves to a new command
	beforeRan bool
	afterRan  bool
	guarded   bool
	result    Result
	hookSrc   HookSource // scope resolved from the pre-hook binding

	time time.Time
	seq  uint32

	target Target

	exit    int // -1 unset, 0 no exit, >0 exit
	drainFn func(*Queue)
}

// New creates a queue owned by client (nil for clientless contexts), with one
// reference held by the caller.
func New(client Client, env *Env) *Queue {
	if env == nil {
		env = &Env{}
	}
	q := &Queue{
		id:     fmt.Sprintf("q%d", queueSeq.Add(1)),
		refs:   1,
		client: client,
		env:    env,
		exit:   -1,
		state:  StateIdle,
	}
	qLog.Debug("queue_created", slog.String("queue", q.id), slog.Bool("client", client != nil))
	return q
}

// ID returns the queue's log identifier.
func (q *Queue) ID() string { return q.id }

// Client returns the owning client, which may be nil.
func (q *Queue) Client() Client { return q.client }

// State returns the engine state.
func (q *Queue) State() State { return q.state }

// Dead reports whether the queue may no longer be resumed.
func (q *Queue) Dead() bool { return q.dead }

// Refs returns the current reference count.
func (q *Queue) Refs() int { return q.refs }

// Seq returns the sequence number of the current command, starting at 1 for
// the first command attempted on this queue.
func (q *Queue) Seq() uint32 { return q.seq }

// Target returns the bound execution context for Command.Bind to fill in.
func (q *Queue) Target() *Target { return &q.target }

// Env returns the queue's capability handles.
func (q *Queue) Env() *Env { return q.env }

// SetDrainFunc installs the completion callback invoked every time the queue
// drains. The callback may release the queue; the engine touches nothing
// after invoking it.
func (q *Queue) SetDrainFunc(fn func(*Queue)) { q.drainFn = fn }

// SetExit records the queue's exit disposition: a code greater than zero
// marks the owning client for termination when the queue drains.
func (q *Queue) SetExit(code int) { q.exit = code }

// Retain adds a reference, keeping the queue alive for a second owner such as
// a running hook child.
func (q *Queue) Retain() { q.refs++ }

// Release drops one reference. The release that brings the count to zero
// flushes all remaining items and marks the queue dead; earlier releases
// destroy nothing. Reports whether the queue can no longer be resumed.
func (q *Queue) Release() bool {
	if q.refs <= 0 {
		qLog.Error("release of destroyed queue", slog.String("queue", q.id))
		return true
	}
	q.refs--
	if q.refs > 0 {
		return q.dead
	}
	q.Flush()
	q.dead = true
	qLog.Debug("queue_destroyed", slog.String("queue", q.id))
	return true
}

// MarkDead prevents further resumption without dropping references. Used by
// an owner tearing down while a hook child still holds the queue.
func (q *Queue) MarkDead() { q.dead = true }

// Append adds a command list to the queue tail, taking a list reference.
func (q *Queue) Append(list *List) {
	list.Retain()
	q.items = append(q.items, &Item{list: list})
}

// Run appends list and, if the queue is idle, starts the engine from the
// first command of the appended list.
func (q *Queue) Run(list *List) {
	q.Append(list)
	if q.item == nil && q.state != StateAwaitingHook {
		q.cmd = nil
		q.Continue()
	}
}

// Flush discards every queued item, releases their lists and clears the
// cursor. Safe to call on an empty queue any number of times.
func (q *Queue) Flush() {
	for _, it := range q.items {
		it.list.Release()
	}
	q.items = nil
	q.item = nil
	q.cmd = nil
	q.pos = 0
}

// Empty reports whether no items are queued.
func (q *Queue) Empty() bool { return len(q.items) == 0 }
