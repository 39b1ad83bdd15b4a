package cmdq

import (
	"log/slog"
	"time"
)

type stepOutcome int

const (
	stepNext stepOutcome = iota
	stepBreak
	stepSuspend
	stepWait
	stepStop
)

// Continue drives the queue until it drains, suspends for a hook, or a
// command returns Wait. Notification delivery is paused for the span of the
// invocation. Reports true when the queue finished drained, false when it is
// suspended and must be continued again later.
func (q *Queue) Continue() bool {
	if n := q.env.Notify; n != nil {
		n.Disable()
		defer n.Enable()
	}

	if q.dead {
		qLog.Warn("continue_on_dead_queue", slog.String("queue", q.id))
		return true
	}
	if q.state == StateAwaitingHook && q.resumed == phaseNone {
		// A hook child is still running; only its continuation resumes us.
		return false
	}

	if len(q.items) == 0 {
		q.drain()
		return true
	}

	resumed := q.resumed
	q.resumed = phaseNone
	q.state = StateRunning

	// Unless resuming from a hook, move the cursor: to the first command of
	// the head item if none is active, otherwise to the successor.
	if resumed == phaseNone {
		q.advanceCursor()
	}

	for q.item != nil {
		for q.cmd != nil {
			outcome := q.step(resumed)
			resumed = phaseNone
			switch outcome {
			case stepSuspend:
				// The hook child may already have completed synchronously
				// and reentered Continue; the queue must not be touched.
				return false
			case stepWait:
				return false
			case stepStop:
				q.Flush()
				q.drain()
				return true
			case stepBreak:
				q.cmd = nil // abandon the rest of this item
			case stepNext:
				q.pos++
				q.cmd = q.item.list.entry(q.pos)
			}
		}
		q.finishItem()
	}

	q.drain()
	return true
}

// step runs the active command through one engine pass: guard, bind, before
// hook, execution, after hook, closing guard, result routing. resumed tells
// it which parts already happened in an earlier invocation.
func (q *Queue) step(resumed hookPhase) stepOutcome {
	entry := q.cmd
	cmd := entry.Cmd

	flags := 0
	if cmd.Flags()&FlagControlRestricted != 0 {
		flags = 1
	}

	if resumed == phaseAfter {
		// Command already executed; its result was parked on the queue.
		return q.settle(flags)
	}

	if resumed == phaseNone {
		q.time = time.Now()
		q.seq++
		q.beforeRan = false
		q.afterRan = false
		q.guarded = false
		q.result = ResultNormal
		q.hookSrc = nil

		qLog.Debug("run_command",
			slog.String("queue", q.id),
			slog.String("command", cmd.Name()),
			slog.Uint64("seq", uint64(q.seq)),
		)

		q.guarded = q.Guard("begin", flags)

		if err := cmd.Bind(q); err != nil {
			q.Error("%s", err)
			if q.guarded {
				q.Guard("error", flags)
			}
			q.record(entry, ResultError, 0)
			return stepBreak
		}

		// The hook scope comes from this binding and is held for both
		// phases: the rebinding after the before-hook is a separate step
		// and must not move the after-hook to a different scope.
		q.hookSrc = q.hookScope()
		if !q.noHooks && !q.beforeRan {
			if q.dispatchHook(q.hookSrc, phaseBefore) {
				return stepSuspend
			}
			q.beforeRan = true
		}
	}

	// Hook commands may have altered bound state; bind again before
	// executing.
	var res Result
	started := time.Now()
	if err := cmd.Bind(q); err != nil {
		q.Error("%s", err)
		res = ResultError
	} else {
		res = cmd.Exec(q)
	}
	q.result = res
	q.record(entry, res, time.Since(started))

	if res == ResultError {
		if q.guarded {
			q.Guard("error", flags)
			q.guarded = false
		}
		return stepBreak
	}

	if !q.noHooks && !q.afterRan {
		if q.dispatchHook(q.hookSrc, phaseAfter) {
			return stepSuspend
		}
		q.afterRan = true
	}

	return q.settle(flags)
}

// settle closes out a finished command: the end guard and the routing of its
// parked result.
func (q *Queue) settle(flags int) stepOutcome {
	if q.guarded {
		q.Guard("end", flags)
		q.guarded = false
	}
	switch q.result {
	case ResultWait:
		return stepWait
	case ResultStop:
		return stepStop
	default:
		return stepNext
	}
}

func (q *Queue) advanceCursor() {
	if q.item == nil {
		q.item = q.items[0]
		q.pos = 0
	} else {
		q.pos++
	}
	q.cmd = q.item.list.entry(q.pos)
}

// finishItem removes the exhausted head item, releases its list and moves to
// the next item if any.
func (q *Queue) finishItem() {
	q.item.list.Release()
	q.items = q.items[1:]
	if len(q.items) > 0 {
		q.item = q.items[0]
		q.pos = 0
		q.cmd = q.item.list.entry(q.pos)
	} else {
		q.item = nil
		q.cmd = nil
	}
}

// drain finishes an emptied queue: the exit disposition is applied to the
// owning client and the completion callback runs. The callback may destroy
// the queue, so nothing on it is touched afterwards.
func (q *Queue) drain() {
	q.state = StateDraining
	if q.exit > 0 && q.client != nil {
		q.client.MarkExiting()
	}
	q.state = StateIdle
	if fn := q.drainFn; fn != nil {
		fn(q)
	}
}

func (q *Queue) record(entry *Entry, res Result, d time.Duration) {
	if r := q.env.Recorder; r != nil {
		r.Record(Attempt{
			Queue:    q.id,
			Seq:      q.seq,
			Command:  entry.Cmd.Name(),
			Result:   res,
			Time:     q.time,
			Duration: d,
		})
	}
}
