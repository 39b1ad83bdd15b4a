package cmdq

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// test doubles for the collaborator interfaces

type fakePane struct {
	overlay bool
	lines   []string
}

func (p *fakePane) InOverlay() bool          { return p.overlay }
func (p *fakePane) EnterOverlay()            { p.overlay = true }
func (p *fakePane) OverlayWrite(text string) { p.lines = append(p.lines, text) }

type fakeWindow struct {
	pane  *fakePane
	hooks HookSource
}

func (w *fakeWindow) ActivePane() Pane {
	if w.pane == nil {
		return nil
	}
	return w.pane
}
func (w *fakeWindow) Hooks() HookSource { return w.hooks }

type fakeSession struct {
	win   *fakeWindow
	hooks HookSource
}

func (s *fakeSession) CurrentWindow() Window {
	if s.win == nil {
		return nil
	}
	return s.win
}
func (s *fakeSession) Hooks() HookSource { return s.hooks }

type fakeClient struct {
	control bool
	session *fakeSession

	stdout     strings.Builder
	stderr     strings.Builder
	exitStatus int
	exiting    bool
	status     []string
}

func (c *fakeClient) Control() bool { return c.control }
func (c *fakeClient) Session() Session {
	if c.session == nil {
		return nil
	}
	return c.session
}
func (c *fakeClient) AppendStdout(text string) { c.stdout.WriteString(text) }
func (c *fakeClient) AppendStderr(text string) { c.stderr.WriteString(text) }
func (c *fakeClient) SetExitStatus(code int)   { c.exitStatus = code }
func (c *fakeClient) MarkExiting()             { c.exiting = true }
func (c *fakeClient) ShowStatus(msg string)    { c.status = append(c.status, msg) }

type mapHooks map[string]*List

func (m mapHooks) Find(name string) *List { return m[name] }

type countNotify struct {
	depth    int
	maxDepth int
	enables  int
	disables int
}

func (n *countNotify) Disable() {
	n.disables++
	n.depth++
	if n.depth > n.maxDepth {
		n.maxDepth = n.depth
	}
}
func (n *countNotify) Enable() {
	n.enables++
	n.depth--
}

type memRecorder struct {
	attempts []Attempt
}

func (r *memRecorder) Record(a Attempt) { r.attempts = append(r.attempts, a) }

type testCmd struct {
	name    string
	flags   Flags
	bindErr error
	binds   int
	result  Result
	exec    func(q *Queue) Result
	log     *[]string
}

func (c *testCmd) Name() string { return c.name }
func (c *testCmd) Flags() Flags { return c.flags }

func (c *testCmd) Bind(q *Queue) error {
	c.binds++
	if c.bindErr != nil {
		return c.bindErr
	}
	t := q.Target()
	*t = Target{Client: q.Client()}
	if cl := q.Client(); cl != nil && cl.Session() != nil {
		t.Session = cl.Session()
		t.Window = t.Session.CurrentWindow()
		if t.Window != nil {
			t.Pane = t.Window.ActivePane()
		}
	}
	return nil
}

func (c *testCmd) Exec(q *Queue) Result {
	if c.log != nil {
		*c.log = append(*c.log, c.name)
	}
	if c.exec != nil {
		return c.exec(q)
	}
	return c.result
}

func newCmd(name string, log *[]string) *testCmd {
	return &testCmd{name: name, log: log}
}

func mklist(cmds ...Command) *List {
	entries := make([]*Entry, len(cmds))
	for i, c := range cmds {
		entries[i] = &Entry{Cmd: c, File: "test.conf", Line: i + 1}
	}
	return NewList(entries...)
}

func TestNewQueueReferenceOne(t *testing.T) {
	q := New(nil, nil)
	assert.Equal(t, 1, q.Refs())
	assert.Equal(t, StateIdle, q.State())
	assert.False(t, q.Dead())
	assert.True(t, q.Empty())
}

func TestReleaseWithOutstandingRefsKeepsQueue(t *testing.T) {
	q := New(nil, nil)
	list := mklist(newCmd("a", nil))
	q.Append(list)
	require.Equal(t, 2, list.Refs())

	q.Retain()
	require.Equal(t, 2, q.Refs())

	gone := q.Release()
	assert.False(t, gone, "queue with outstanding references must stay usable")
	assert.False(t, q.Dead())
	assert.False(t, q.Empty(), "no items may be flushed before the last release")
	assert.Equal(t, 2, list.Refs())

	gone = q.Release()
	assert.True(t, gone)
	assert.True(t, q.Dead())
	assert.True(t, q.Empty())
	assert.Equal(t, 1, list.Refs(), "the last release must flush the item")
}

func TestDoubleReleaseIsHarmless(t *testing.T) {
	q := New(nil, nil)
	assert.True(t, q.Release())
	assert.True(t, q.Release())
	assert.True(t, q.Dead())
}

func TestMarkDeadPreventsResumption(t *testing.T) {
	var log []string
	q := New(nil, nil)
	q.Append(mklist(newCmd("a", &log)))

	q.MarkDead()
	assert.True(t, q.Dead())
	assert.Equal(t, 1, q.Refs(), "marking dead drops no references")

	assert.True(t, q.Continue())
	assert.Empty(t, log, "a dead queue must not execute commands")
}

func TestFlushEmptyQueueIdempotent(t *testing.T) {
	q := New(nil, nil)
	q.Flush()
	q.Flush()
	assert.True(t, q.Empty())

	list := mklist(newCmd("a", nil))
	q.Append(list)
	q.Flush()
	assert.True(t, q.Empty())
	assert.Equal(t, 1, list.Refs())
	q.Flush()
	assert.Equal(t, 1, list.Refs())
}

func TestAppendRetainsList(t *testing.T) {
	q := New(nil, nil)
	list := mklist(newCmd("a", nil))
	require.Equal(t, 1, list.Refs())
	q.Append(list)
	assert.Equal(t, 2, list.Refs())
	q.Append(list)
	assert.Equal(t, 3, list.Refs())
}

func TestListReleaseClears(t *testing.T) {
	list := mklist(newCmd("a", nil))
	list.Retain()
	list.Release()
	assert.Len(t, list.Entries(), 1)
	list.Release()
	assert.Nil(t, list.Entries())
	// over-release must not underflow
	list.Release()
	assert.Equal(t, 0, list.Refs())
}
