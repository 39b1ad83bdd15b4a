// Package cmdq sequences the execution of parsed command lists. A Queue owns
// a FIFO of command lists and drives them through a reentrant state machine:
// each command is bracketed by before/after hooks (expanded into child queues
// whose completion resumes the parent) and, for control-mode clients, by
// %begin/%end/%error guard lines. Queues are reference counted so a hook
// child can keep its parent alive after the original owner lets go.
package cmdq

import (
	"time"

	"github.com/asheshgoplani/muxd/internal/logging"
)

var qLog = logging.ForComponent(logging.CompQueue)

// Result is what a command's execution entry point reports back to the
// engine.
type Result int

const (
	// ResultNormal advances to the next command.
	ResultNormal Result = iota
	// ResultError abandons the rest of the current command list.
	ResultError
	// ResultWait suspends the queue until an external Continue call.
	ResultWait
	// ResultStop discards the whole queue.
	ResultStop
)

func (r Result) String() string {
	switch r {
	case ResultNormal:
		return "normal"
	case ResultError:
		return "error"
	case ResultWait:
		return "wait"
	case ResultStop:
		return "stop"
	}
	return "unknown"
}

// State is the engine state of a queue.
type State int

const (
	// StateIdle means no item is active.
	StateIdle State = iota
	// StateRunning means the engine is stepping commands.
	StateRunning
	// StateAwaitingHook means a hook child queue is executing; only its
	// continuation may resume this queue.
	StateAwaitingHook
	// StateDraining means the queue emptied and the completion callback is
	// being invoked.
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateAwaitingHook:
		return "awaiting-hook"
	case StateDraining:
		return "draining"
	}
	return "unknown"
}

// Flags describe static command properties.
type Flags uint

const (
	// FlagControlRestricted marks commands that are not permitted to run
	// unrestricted for control-mode clients; guard lines report it as 1.
	FlagControlRestricted Flags = 1 << iota
)

// Command is one parsed operation. Bind resolves the command's abstract
// target into the queue's bound target and may fail; Exec performs the
// operation.
type Command interface {
	Name() string
	Flags() Flags
	Bind(q *Queue) error
	Exec(q *Queue) Result
}

// Entry pairs a command with its source position from the parser.
type Entry struct {
	Cmd  Command
	File string
	Line int
}

// List is a reference-counted ordered command sequence. A list can be owned
// by several queued items and by the hook registry at the same time; it goes
// away when the last owner releases it.
type List struct {
	refs    int
	entries []*Entry
}

// NewList creates a list holding entries, with one reference owned by the
// caller.
func NewList(entries ...*Entry) *List {
	return &List{refs: 1, entries: entries}
}

// Entries returns the commands in order.
func (l *List) Entries() []*Entry { return l.entries }

// Retain adds an owner.
func (l *List) Retain() { l.refs++ }

// Release drops an owner; the last release clears the list.
func (l *List) Release() {
	if l.refs <= 0 {
		qLog.Error("release of freed command list")
		return
	}
	l.refs--
	if l.refs == 0 {
		l.entries = nil
	}
}

// Refs returns the current reference count.
func (l *List) Refs() int { return l.refs }

func (l *List) entry(i int) *Entry {
	if i < 0 || i >= len(l.entries) {
		return nil
	}
	return l.entries[i]
}

// Client is the engine's view of the owning client. A nil Client means a
// clientless (startup/background) context.
type Client interface {
	// Control reports whether the client consumes machine-readable control
	// mode output.
	Control() bool
	// Session returns the attached session, or nil for a headless client.
	Session() Session
	// AppendStdout appends to the output buffer and marks it for flushing.
	AppendStdout(text string)
	// AppendStderr appends to the error buffer and marks it for flushing.
	AppendStderr(text string)
	// SetExitStatus records the client's exit status.
	SetExitStatus(code int)
	// MarkExiting asks the client to terminate once buffers drain.
	MarkExiting()
	// ShowStatus presents a transient status line message.
	ShowStatus(msg string)
}

// Session is the engine's view of a session.
type Session interface {
	CurrentWindow() Window
	Hooks() HookSource
}

// Window is the engine's view of a window.
type Window interface {
	ActivePane() Pane
	Hooks() HookSource
}

// Pane is the engine's view of a pane, reduced to the transient text overlay
// used for command output on interactive clients.
type Pane interface {
	InOverlay() bool
	EnterOverlay()
	OverlayWrite(text string)
}

// HookSource resolves a hook name ("before-<command>", "after-<command>") to
// a command list, or nil when no hook is registered.
type HookSource interface {
	Find(name string) *List
}

// Notifier is the process-wide notification side-channel toggle. Disable and
// Enable nest; delivery resumes when the pause depth returns to zero.
type Notifier interface {
	Disable()
	Enable()
}

// CauseSink collects errors from clientless contexts, tagged with the failing
// command's source location, for later batch reporting.
type CauseSink interface {
	Add(file string, line int, msg string)
}

// Attempt describes one command execution attempt for the audit log.
type Attempt struct {
	Queue    string
	Seq      uint32
	Command  string
	Result   Result
	Time     time.Time
	Duration time.Duration
}

// Recorder observes every command attempt.
type Recorder interface {
	Record(a Attempt)
}

// Env carries the capability handles the engine consults. One Env is shared
// by a queue and every hook queue it spawns. Any field may be nil.
type Env struct {
	Hooks    HookSource // global hook registry
	Notify   Notifier
	Causes   CauseSink
	Recorder Recorder
}
