package cmdq

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Print shows command output on the owning client: straight to the output
// buffer for control-mode and headless clients, through a pane text overlay
// for attached interactive clients. Clientless queues discard output.
func (q *Queue) Print(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	c := q.client

	switch {
	case c == nil:
		// nothing
	case c.Session() == nil || c.Control():
		c.AppendStdout(text + "\n")
	default:
		w := c.Session().CurrentWindow()
		if w == nil {
			return
		}
		p := w.ActivePane()
		if p == nil {
			return
		}
		if !p.InOverlay() {
			p.EnterOverlay()
		}
		p.OverlayWrite(text)
	}
}

// Error reports a command failure: into the batch cause list for clientless
// contexts, the error buffer plus a failure exit status for control-mode and
// headless clients, or the status line for attached interactive clients.
func (q *Queue) Error(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c := q.client

	switch {
	case c == nil:
		if q.env.Causes != nil && q.cmd != nil {
			q.env.Causes.Add(q.cmd.File, q.cmd.Line, msg)
		}
	case c.Session() == nil || c.Control():
		c.AppendStderr(msg + "\n")
		c.SetExitStatus(1)
	default:
		if msg != "" {
			r, size := utf8.DecodeRuneInString(msg)
			msg = string(unicode.ToUpper(r)) + msg[size:]
		}
		c.ShowStatus(msg)
	}
}

// Guard writes a control-mode guard line ("%begin <unix-time> <seq> <flags>")
// to the client's output buffer. Reports whether a line was written; clients
// not in control mode get nothing.
func (q *Queue) Guard(name string, flags int) bool {
	c := q.client
	if c == nil || !c.Control() {
		return false
	}
	c.AppendStdout(fmt.Sprintf("%%%s %d %d %d\n", name, q.time.Unix(), q.seq, flags))
	return true
}
