// Package command defines the server's command set and the parser that turns
// input lines into executable command lists.
package command

import (
	"errors"
	"fmt"

	"github.com/asheshgoplani/muxd/internal/cmdq"
	"github.com/asheshgoplani/muxd/internal/hooks"
	"github.com/asheshgoplani/muxd/internal/logging"
	"github.com/asheshgoplani/muxd/internal/state"
)

var cmdLog = logging.ForComponent(logging.CompCommand)

// Table binds the command set to the server it operates on. All command
// execution happens on the server loop; Post is how background work gets
// back onto it.
type Table struct {
	// Session is the fallback session for clientless queues and detached
	// clients.
	Session *state.Session

	// Global is the server-wide hook registry.
	Global *hooks.Registry

	// Notify is the state-change side channel, may be nil.
	Notify *state.Notify

	// Post schedules a closure on the server loop. Required for commands
	// that finish asynchronously.
	Post func(fn func())

	// Shutdown stops the server. Invoked by kill-server before the queue is
	// discarded.
	Shutdown func()
}

type constructor func(t *Table, args []string) (cmdq.Command, error)

var constructors = map[string]constructor{
	"display-message": newDisplayMessage,
	"new-window":      newNewWindow,
	"select-window":   newSelectWindow,
	"set-hook":        newSetHook,
	"remove-hook":     newRemoveHook,
	"show-hooks":      newShowHooks,
	"run-shell":       newRunShell,
	"detach-client":   newDetachClient,
	"kill-server":     newKillServer,
}

// Names returns every command name the table knows, unordered.
func Names() []string {
	out := make([]string, 0, len(constructors))
	for name := range constructors {
		out = append(out, name)
	}
	return out
}

// bindDefault resolves the queue's target from its client, falling back to
// the table's session for clientless contexts. The current window and its
// pane are bound when the session has one.
func (t *Table) bindDefault(q *cmdq.Queue) (*state.Session, error) {
	tgt := q.Target()
	*tgt = cmdq.Target{Client: q.Client()}

	var s *state.Session
	if c, ok := q.Client().(*state.Client); ok {
		s = c.AttachedSession()
	}
	if s == nil {
		s = t.Session
	}
	if s == nil {
		return nil, errors.New("no current session")
	}
	tgt.Session = s
	if w := s.Current(); w != nil {
		tgt.Window = w
		tgt.Pane = w.ActivePane()
	}
	return s, nil
}

func (t *Table) emit(typ, target string) {
	if t.Notify != nil {
		t.Notify.Emit(state.Event{Type: typ, Target: target})
	}
}

func unknownCommand(name string) error {
	return fmt.Errorf("unknown command: %s", name)
}
