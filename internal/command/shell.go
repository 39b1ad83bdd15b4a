package command

import (
	"errors"
	"os/exec"
	"strings"

	"github.com/asheshgoplani/muxd/internal/cmdq"
)

// run-shell executes a script via /bin/sh off the loop, suspends its queue
// and resumes it when the script finishes, printing any output first.
type runShell struct {
	tbl    *Table
	script string
}

func newRunShell(t *Table, args []string) (cmdq.Command, error) {
	if len(args) != 1 {
		return nil, errors.New("usage: run-shell script")
	}
	return &runShell{tbl: t, script: args[0]}, nil
}

func (c *runShell) Name() string      { return "run-shell" }
func (c *runShell) Flags() cmdq.Flags { return 0 }

func (c *runShell) Bind(q *cmdq.Queue) error {
	_, err := c.tbl.bindDefault(q)
	return err
}

func (c *runShell) Exec(q *cmdq.Queue) cmdq.Result {
	if c.tbl.Post == nil {
		q.Error("run-shell: no scheduler available")
		return cmdq.ResultError
	}

	script := c.script
	go func() {
		out, err := exec.Command("/bin/sh", "-c", script).CombinedOutput()
		c.tbl.Post(func() {
			for _, line := range strings.Split(string(out), "\n") {
				if line != "" {
					q.Print("%s", line)
				}
			}
			if err != nil {
				q.Error("'%s' returned error: %v", script, err)
			}
			cmdLog.Debug("shell_job_finished", "queue", q.ID(), "failed", err != nil)
			q.Continue()
		})
	}()
	return cmdq.ResultWait
}
