package config

import (
	"fmt"

	"github.com/asheshgoplani/muxd/internal/logging"
)

var cfgLog = logging.ForComponent(logging.CompConfig)

// Causes collects errors from clientless command execution, tagged with
// their source location, for batch reporting once startup finishes.
type Causes struct {
	msgs []string
}

// Add implements cmdq.CauseSink.
func (c *Causes) Add(file string, line int, msg string) {
	c.msgs = append(c.msgs, fmt.Sprintf("%s:%d: %s", file, line, msg))
}

// List returns the collected messages in order.
func (c *Causes) List() []string { return c.msgs }

// Report logs every collected message and clears the list. Reports whether
// anything had been collected.
func (c *Causes) Report() bool {
	if len(c.msgs) == 0 {
		return false
	}
	for _, msg := range c.msgs {
		cfgLog.Error("startup_command_failed", "cause", msg)
	}
	c.msgs = nil
	return true
}
