package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/asheshgoplani/muxd/internal/cmdq"
	"github.com/asheshgoplani/muxd/internal/state"
)

// display-message prints its arguments on the owning client.
type displayMessage struct {
	tbl     *Table
	message string
}

func newDisplayMessage(t *Table, args []string) (cmdq.Command, error) {
	return &displayMessage{tbl: t, message: strings.Join(args, " ")}, nil
}

func (c *displayMessage) Name() string      { return "display-message" }
func (c *displayMessage) Flags() cmdq.Flags { return 0 }

func (c *displayMessage) Bind(q *cmdq.Queue) error {
	_, err := c.tbl.bindDefault(q)
	return err
}

func (c *displayMessage) Exec(q *cmdq.Queue) cmdq.Result {
	q.Print("%s", c.message)
	return cmdq.ResultNormal
}

// new-window creates a window in the bound session and makes it current.
type newWindow struct {
	tbl  *Table
	name string
	sess *state.Session
}

func newNewWindow(t *Table, args []string) (cmdq.Command, error) {
	name := "shell"
	if len(args) > 0 {
		name = args[0]
	}
	return &newWindow{tbl: t, name: name}, nil
}

func (c *newWindow) Name() string      { return "new-window" }
func (c *newWindow) Flags() cmdq.Flags { return 0 }

func (c *newWindow) Bind(q *cmdq.Queue) error {
	s, err := c.tbl.bindDefault(q)
	if err != nil {
		return err
	}
	c.sess = s
	return nil
}

func (c *newWindow) Exec(q *cmdq.Queue) cmdq.Result {
	w := c.sess.AddWindow(c.name)
	cmdLog.Info("window_created",
		"session", c.sess.Name(),
		"window", w.Index(),
		"name", w.Name(),
	)
	c.tbl.emit("window_created", fmt.Sprintf("%s:%d", c.sess.Name(), w.Index()))
	return cmdq.ResultNormal
}

// select-window makes the window at the given index current. Binding fails
// when the index does not exist, which abandons the rest of the list.
type selectWindow struct {
	tbl    *Table
	index  int
	sess   *state.Session
	window *state.Window
}

func newSelectWindow(t *Table, args []string) (cmdq.Command, error) {
	if len(args) != 1 {
		return nil, errors.New("usage: select-window index")
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, fmt.Errorf("bad window index: %s", args[0])
	}
	return &selectWindow{tbl: t, index: index}, nil
}

func (c *selectWindow) Name() string      { return "select-window" }
func (c *selectWindow) Flags() cmdq.Flags { return 0 }

func (c *selectWindow) Bind(q *cmdq.Queue) error {
	s, err := c.tbl.bindDefault(q)
	if err != nil {
		return err
	}
	w, err := s.WindowByIndex(c.index)
	if err != nil {
		return err
	}
	c.sess = s
	c.window = w

	// Hooks for this command resolve against the named window, not the
	// currently selected one.
	tgt := q.Target()
	tgt.Window = w
	tgt.Pane = w.ActivePane()
	return nil
}

func (c *selectWindow) Exec(q *cmdq.Queue) cmdq.Result {
	c.sess.Select(c.window)
	c.tbl.emit("window_selected", fmt.Sprintf("%s:%d", c.sess.Name(), c.window.Index()))
	return cmdq.ResultNormal
}

// detach-client asks the owning client to disconnect once its queue drains.
type detachClient struct {
	tbl *Table
}

func newDetachClient(t *Table, args []string) (cmdq.Command, error) {
	return &detachClient{tbl: t}, nil
}

func (c *detachClient) Name() string      { return "detach-client" }
func (c *detachClient) Flags() cmdq.Flags { return cmdq.FlagControlRestricted }

func (c *detachClient) Bind(q *cmdq.Queue) error {
	if q.Client() == nil {
		return errors.New("no client")
	}
	_, err := c.tbl.bindDefault(q)
	return err
}

func (c *detachClient) Exec(q *cmdq.Queue) cmdq.Result {
	q.SetExit(1)
	c.tbl.emit("client_detached", "")
	return cmdq.ResultNormal
}

// kill-server stops the server and discards the queue.
type killServer struct {
	tbl *Table
}

func newKillServer(t *Table, args []string) (cmdq.Command, error) {
	return &killServer{tbl: t}, nil
}

func (c *killServer) Name() string      { return "kill-server" }
func (c *killServer) Flags() cmdq.Flags { return cmdq.FlagControlRestricted }

func (c *killServer) Bind(q *cmdq.Queue) error {
	_, err := c.tbl.bindDefault(q)
	return err
}

func (c *killServer) Exec(q *cmdq.Queue) cmdq.Result {
	cmdLog.Info("server_shutdown_requested")
	if c.tbl.Shutdown != nil {
		c.tbl.Shutdown()
	}
	return cmdq.ResultStop
}
