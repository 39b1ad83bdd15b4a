package command

import (
	"errors"

	"github.com/asheshgoplani/muxd/internal/cmdq"
	"github.com/asheshgoplani/muxd/internal/hooks"
	"github.com/asheshgoplani/muxd/internal/state"
)

type hookScope int

const (
	scopeGlobal hookScope = iota
	scopeSession
	scopeWindow
)

// parseHookScope strips a leading -g, -s or -w from args. Global is the
// default.
func parseHookScope(args []string) (hookScope, []string) {
	if len(args) == 0 {
		return scopeGlobal, args
	}
	switch args[0] {
	case "-g":
		return scopeGlobal, args[1:]
	case "-s":
		return scopeSession, args[1:]
	case "-w":
		return scopeWindow, args[1:]
	}
	return scopeGlobal, args
}

// scopedCmd resolves a hook scope flag to a concrete registry at bind time.
type scopedCmd struct {
	tbl      *Table
	scope    hookScope
	registry *hooks.Registry
}

func (c *scopedCmd) bind(q *cmdq.Queue) error {
	s, err := c.tbl.bindDefault(q)
	if err != nil {
		return err
	}
	switch c.scope {
	case scopeSession:
		c.registry = s.HookRegistry()
	case scopeWindow:
		w, ok := q.Target().Window.(*state.Window)
		if !ok {
			return errors.New("no current window")
		}
		c.registry = w.HookRegistry()
	default:
		if c.tbl.Global == nil {
			return errors.New("no global hook registry")
		}
		c.registry = c.tbl.Global
	}
	return nil
}

// set-hook registers a command list under a hook name in the chosen scope.
type setHook struct {
	scopedCmd
	hook    string
	cmdline string
}

func newSetHook(t *Table, args []string) (cmdq.Command, error) {
	scope, rest := parseHookScope(args)
	if len(rest) != 2 {
		return nil, errors.New("usage: set-hook [-g|-s|-w] name command")
	}
	return &setHook{
		scopedCmd: scopedCmd{tbl: t, scope: scope},
		hook:      rest[0],
		cmdline:   rest[1],
	}, nil
}

func (c *setHook) Name() string             { return "set-hook" }
func (c *setHook) Flags() cmdq.Flags        { return 0 }
func (c *setHook) Bind(q *cmdq.Queue) error { return c.bind(q) }

func (c *setHook) Exec(q *cmdq.Queue) cmdq.Result {
	list, err := c.tbl.Parse(c.cmdline, "<set-hook>", 0)
	if err != nil {
		q.Error("%s", err)
		return cmdq.ResultError
	}
	if list == nil {
		q.Error("empty hook command")
		return cmdq.ResultError
	}
	c.registry.Set(c.hook, list)
	list.Release()
	cmdLog.Info("hook_set", "hook", c.hook)
	return cmdq.ResultNormal
}

// remove-hook unregisters a hook from the chosen scope.
type removeHook struct {
	scopedCmd
	hook string
}

func newRemoveHook(t *Table, args []string) (cmdq.Command, error) {
	scope, rest := parseHookScope(args)
	if len(rest) != 1 {
		return nil, errors.New("usage: remove-hook [-g|-s|-w] name")
	}
	return &removeHook{scopedCmd: scopedCmd{tbl: t, scope: scope}, hook: rest[0]}, nil
}

func (c *removeHook) Name() string             { return "remove-hook" }
func (c *removeHook) Flags() cmdq.Flags        { return 0 }
func (c *removeHook) Bind(q *cmdq.Queue) error { return c.bind(q) }

func (c *removeHook) Exec(q *cmdq.Queue) cmdq.Result {
	c.registry.Remove(c.hook)
	return cmdq.ResultNormal
}

// show-hooks prints the hook names registered in the chosen scope.
type showHooks struct {
	scopedCmd
}

func newShowHooks(t *Table, args []string) (cmdq.Command, error) {
	scope, rest := parseHookScope(args)
	if len(rest) != 0 {
		return nil, errors.New("usage: show-hooks [-g|-s|-w]")
	}
	return &showHooks{scopedCmd: scopedCmd{tbl: t, scope: scope}}, nil
}

func (c *showHooks) Name() string             { return "show-hooks" }
func (c *showHooks) Flags() cmdq.Flags        { return 0 }
func (c *showHooks) Bind(q *cmdq.Queue) error { return c.bind(q) }

func (c *showHooks) Exec(q *cmdq.Queue) cmdq.Result {
	for _, name := range c.registry.Names() {
		q.Print("%s", name)
	}
	return cmdq.ResultNormal
}
