package cmdq

import "log/slog"

// hookScope resolves which hook registry applies to the active command: the
// bound window's, else the bound session's, else the global registry.
func (q *Queue) hookScope() HookSource {
	if q.target.Window != nil {
		if h := q.target.Window.Hooks(); h != nil {
			return h
		}
	}
	if q.target.Session != nil {
		if h := q.target.Session.Hooks(); h != nil {
			return h
		}
	}
	return q.env.Hooks
}

// dispatchHook looks up "<phase>-<name>" for the active command and, when a
// hook is registered, runs its command list on a child queue whose completion
// resumes this queue. Reports whether a hook queue was started; when it
// reports false the phase counts as consulted and the engine proceeds
// synchronously.
func (q *Queue) dispatchHook(src HookSource, phase hookPhase) bool {
	if src == nil {
		return false
	}
	name := phase.String() + "-" + q.cmd.Cmd.Name()
	list := src.Find(name)
	if list == nil {
		return false
	}

	qLog.Debug("hook_dispatch",
		slog.String("queue", q.id),
		slog.String("hook", name),
	)

	child := New(q.client, q.env)
	child.noHooks = true

	// The child holds a reference so this queue outlives the hook even if
	// the original owner releases it meanwhile.
	q.Retain()
	q.state = StateAwaitingHook
	child.drainFn = func(c *Queue) { q.resumeFromHook(c, phase) }

	child.Run(list)
	return true
}

// resumeFromHook is the continuation fired when a hook child drains: the
// child's exit disposition is propagated, the child's reference on this queue
// is dropped and, if the queue is still live, the engine resumes where it
// suspended.
func (q *Queue) resumeFromHook(child *Queue, phase hookPhase) {
	if child.exit >= 0 {
		q.exit = child.exit
	}

	if !q.Release() {
		switch phase {
		case phaseBefore:
			q.beforeRan = true
		case phaseAfter:
			q.afterRan = true
		}
		q.resumed = phase
		q.Continue()
	}

	child.Release()
}
