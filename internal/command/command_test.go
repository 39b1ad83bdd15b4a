package command

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asheshgoplani/muxd/internal/cmdq"
	"github.com/asheshgoplani/muxd/internal/hooks"
	"github.com/asheshgoplani/muxd/internal/state"
)

type fixture struct {
	tbl    *Table
	sess   *state.Session
	global *hooks.Registry
	notify *state.Notify
	posted chan func()
	env    *cmdq.Env
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		global: hooks.NewRegistry(nil),
		notify: state.NewNotify(),
		posted: make(chan func(), 8),
	}
	f.sess = state.NewSession("main", f.global)
	f.tbl = &Table{
		Session: f.sess,
		Global:  f.global,
		Notify:  f.notify,
		Post:    func(fn func()) { f.posted <- fn },
	}
	f.env = &cmdq.Env{Hooks: f.global, Notify: f.notify}
	return f
}

// run parses line and executes it on a fresh queue for client.
func (f *fixture) run(t *testing.T, client cmdq.Client, line string) *cmdq.Queue {
	t.Helper()
	list, err := f.tbl.Parse(line, "test-input", 1)
	require.NoError(t, err)
	require.NotNil(t, list)
	q := cmdq.New(client, f.env)
	q.Run(list)
	list.Release()
	return q
}

func (f *fixture) runPosted(t *testing.T) {
	t.Helper()
	select {
	case fn := <-f.posted:
		fn()
	case <-time.After(5 * time.Second):
		t.Fatal("no work posted")
	}
}

func TestParseSplitsCommandsAndQuotes(t *testing.T) {
	f := newFixture(t)

	list, err := f.tbl.Parse(`display-message "hello; world"; new-window logs`, "test-input", 3)
	require.NoError(t, err)
	require.NotNil(t, list)
	defer list.Release()

	entries := list.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "display-message", entries[0].Cmd.Name())
	assert.Equal(t, "hello; world", entries[0].Cmd.(*displayMessage).message)
	assert.Equal(t, "new-window", entries[1].Cmd.Name())
	assert.Equal(t, "test-input", entries[0].File)
	assert.Equal(t, 3, entries[0].Line)
}

func TestParseBlankAndComment(t *testing.T) {
	f := newFixture(t)
	for _, line := range []string{"", "   ", "# a comment", "display-message hi # trailing"} {
		list, err := f.tbl.Parse(line, "test-input", 1)
		require.NoError(t, err, "line %q", line)
		if line == "display-message hi # trailing" {
			require.NotNil(t, list)
			assert.Len(t, list.Entries(), 1)
			list.Release()
		} else {
			assert.Nil(t, list, "line %q", line)
		}
	}
}

func TestParseErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.tbl.Parse("no-such-command", "test-input", 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test-input:4")
	assert.Contains(t, err.Error(), "unknown command")

	_, err = f.tbl.Parse(`display-message "open`, "test-input", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unterminated quote")

	_, err = f.tbl.Parse("select-window notanumber", "test-input", 6)
	assert.Error(t, err)
}

func TestDisplayMessagePrints(t *testing.T) {
	f := newFixture(t)
	c := state.NewClient("c0", false) // headless: output goes to the buffer

	f.run(t, c, "display-message hello world")
	assert.Equal(t, "hello world\n", string(c.TakeStdout()))
}

func TestNewWindowCreatesAndNotifies(t *testing.T) {
	f := newFixture(t)

	var events []state.Event
	f.notify.Observe(func(ev state.Event) { events = append(events, ev) })

	f.run(t, nil, "new-window editor; new-window logs")

	require.Len(t, f.sess.Windows(), 2)
	assert.Equal(t, "editor", f.sess.Windows()[0].Name())
	assert.Equal(t, "logs", f.sess.Current().Name())

	// Events are held back while the engine runs and drain afterwards.
	require.Len(t, events, 2)
	assert.Equal(t, "window_created", events[0].Type)
	assert.Equal(t, "main:1", events[1].Target)
}

func TestSelectWindow(t *testing.T) {
	f := newFixture(t)
	f.sess.AddWindow("editor")
	f.sess.AddWindow("logs")

	f.run(t, nil, "select-window 0")
	assert.Equal(t, "editor", f.sess.Current().Name())
}

func TestSelectWindowBadIndexAbandonsList(t *testing.T) {
	f := newFixture(t)
	f.sess.AddWindow("editor")
	c := state.NewClient("c0", false)

	f.run(t, c, "select-window 9; display-message never")

	assert.Contains(t, string(c.TakeStderr()), "no such window: 9")
	assert.Equal(t, 1, c.ExitStatus())
	assert.Empty(t, string(c.TakeStdout()))
}

func TestSetHookRunsOnMatchingCommand(t *testing.T) {
	f := newFixture(t)
	c := state.NewClient("c0", false)

	f.run(t, c, `set-hook after-new-window "display-message window ready"`)
	require.NotNil(t, f.global.Find("after-new-window"))

	f.run(t, c, "new-window editor")
	assert.Equal(t, "window ready\n", string(c.TakeStdout()))
}

func TestSetHookWindowScope(t *testing.T) {
	f := newFixture(t)
	f.sess.AddWindow("editor")
	f.sess.AddWindow("logs")
	c := state.NewClient("c0", false)

	// Hook only on window 0; select-window binds the named window, so the
	// hook fires for it and not for window 1.
	f.run(t, c, "select-window 0")
	f.run(t, c, `set-hook -w after-select-window "display-message back to editor"`)

	f.run(t, c, "select-window 1")
	assert.Empty(t, string(c.TakeStdout()))

	f.run(t, c, "select-window 0")
	assert.Equal(t, "back to editor\n", string(c.TakeStdout()))
}

func TestShowAndRemoveHooks(t *testing.T) {
	f := newFixture(t)
	c := state.NewClient("c0", false)

	f.run(t, c, `set-hook alpha "display-message a"; set-hook beta "display-message b"`)
	f.run(t, c, "show-hooks")
	assert.Equal(t, "alpha\nbeta\n", string(c.TakeStdout()))

	f.run(t, c, "remove-hook alpha")
	f.run(t, c, "show-hooks")
	assert.Equal(t, "beta\n", string(c.TakeStdout()))
}

func TestRunShellSuspendsAndResumes(t *testing.T) {
	f := newFixture(t)
	c := state.NewClient("c0", false)

	var drains int
	q := cmdq.New(c, f.env)
	q.SetDrainFunc(func(*cmdq.Queue) { drains++ })

	list, err := f.tbl.Parse(`run-shell "echo from-shell"; display-message after`, "test-input", 1)
	require.NoError(t, err)
	q.Run(list)
	list.Release()

	// Suspended: the trailing command has not run yet.
	assert.Zero(t, drains)
	assert.Empty(t, string(c.TakeStdout()))

	f.runPosted(t)
	assert.Equal(t, 1, drains)
	assert.Equal(t, "from-shell\nafter\n", string(c.TakeStdout()))
}

func TestRunShellFailureReportsError(t *testing.T) {
	f := newFixture(t)
	c := state.NewClient("c0", false)

	f.run(t, c, `run-shell "exit 3"`)
	f.runPosted(t)

	assert.Contains(t, string(c.TakeStderr()), "exit 3")
	assert.Equal(t, 1, c.ExitStatus())
}

func TestDetachClientMarksExiting(t *testing.T) {
	f := newFixture(t)
	c := state.NewClient("c0", true)

	f.run(t, c, "detach-client")
	assert.True(t, c.Exiting())

	// Restricted commands carry flag 1 in their guard lines.
	out := string(c.TakeStdout())
	assert.Contains(t, out, "%begin")
	assert.Contains(t, out, " 1 1\n")
}

func TestKillServerStopsQueue(t *testing.T) {
	f := newFixture(t)
	c := state.NewClient("c0", false)

	var shutdown bool
	f.tbl.Shutdown = func() { shutdown = true }

	q := f.run(t, c, "kill-server; display-message never")
	assert.True(t, shutdown)
	assert.True(t, q.Empty())
	assert.Empty(t, string(c.TakeStdout()))
}
