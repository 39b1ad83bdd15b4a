package state

import (
	"bytes"
	"sync"

	"github.com/asheshgoplani/muxd/internal/cmdq"
)

// Client represents one attached client. Output is buffered under a mutex
// and a capacity-1 channel coalesces flush wakeups, so command execution
// never blocks on a slow reader.
type Client struct {
	name    string
	control bool

	mu      sync.Mutex
	session *Session
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	flushC  chan struct{}

	exitStatus int
	exiting    bool
	status     string
}

// NewClient creates a detached client. Control clients receive raw output
// and guard lines instead of overlays.
func NewClient(name string, control bool) *Client {
	return &Client{name: name, control: control, flushC: make(chan struct{}, 1)}
}

// Name returns the client name.
func (c *Client) Name() string { return c.name }

// Control implements cmdq.Client.
func (c *Client) Control() bool { return c.control }

// Attach binds the client to a session. Passing nil detaches it.
func (c *Client) Attach(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

// Session implements cmdq.Client. It returns untyped nil when detached so
// interface nil checks behave.
func (c *Client) Session() cmdq.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	return c.session
}

// AttachedSession returns the concrete session, or nil when detached.
func (c *Client) AttachedSession() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// AppendStdout implements cmdq.Client.
func (c *Client) AppendStdout(text string) {
	c.mu.Lock()
	c.stdout.WriteString(text)
	c.mu.Unlock()
	c.signal()
}

// AppendStderr implements cmdq.Client.
func (c *Client) AppendStderr(text string) {
	c.mu.Lock()
	c.stderr.WriteString(text)
	c.mu.Unlock()
	c.signal()
}

func (c *Client) signal() {
	select {
	case c.flushC <- struct{}{}:
	default:
	}
}

// FlushC returns a channel that receives a coalesced wakeup whenever output
// is appended.
func (c *Client) FlushC() <-chan struct{} { return c.flushC }

// TakeStdout drains and returns buffered stdout.
func (c *Client) TakeStdout() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stdout.Len() == 0 {
		return nil
	}
	out := make([]byte, c.stdout.Len())
	copy(out, c.stdout.Bytes())
	c.stdout.Reset()
	return out
}

// TakeStderr drains and returns buffered stderr.
func (c *Client) TakeStderr() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stderr.Len() == 0 {
		return nil
	}
	out := make([]byte, c.stderr.Len())
	copy(out, c.stderr.Bytes())
	c.stderr.Reset()
	return out
}

// SetExitStatus implements cmdq.Client.
func (c *Client) SetExitStatus(code int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exitStatus = code
}

// ExitStatus returns the recorded exit status.
func (c *Client) ExitStatus() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exitStatus
}

// MarkExiting implements cmdq.Client.
func (c *Client) MarkExiting() {
	c.mu.Lock()
	c.exiting = true
	c.mu.Unlock()
	stateLog.Debug("client_exiting", "client", c.name)
	c.signal()
}

// Exiting reports whether the client has been told to exit.
func (c *Client) Exiting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exiting
}

// ShowStatus implements cmdq.Client.
func (c *Client) ShowStatus(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = msg
}

// Status returns the last status-line message.
func (c *Client) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}
