// Package server runs the single goroutine that owns all session state.
// Everything that touches the model — parsed input, shell-job completions,
// hook-file reloads — is posted here as a closure, which is what lets the
// command engine stay lock-free.
package server

import (
	"context"

	"github.com/asheshgoplani/muxd/internal/logging"
)

var srvLog = logging.ForComponent(logging.CompServer)

// Loop serializes work onto one goroutine.
type Loop struct {
	funcs chan func()
}

// NewLoop returns a loop ready to run.
func NewLoop() *Loop {
	return &Loop{funcs: make(chan func(), 256)}
}

// Post schedules fn on the loop goroutine. It blocks if the backlog is full.
func (l *Loop) Post(fn func()) {
	l.funcs <- fn
}

// TryPost schedules fn without blocking and reports whether it was accepted.
func (l *Loop) TryPost(fn func()) bool {
	select {
	case l.funcs <- fn:
		return true
	default:
		return false
	}
}

// Run executes posted closures in order until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	srvLog.Info("loop_started")
	for {
		select {
		case <-ctx.Done():
			srvLog.Info("loop_stopped")
			return ctx.Err()
		case fn := <-l.funcs:
			fn()
		}
	}
}
