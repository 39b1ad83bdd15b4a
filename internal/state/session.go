// Package state holds the concrete session, window, pane and client model
// the command engine drives. The engine itself only sees these through the
// narrow interfaces in the cmdq package.
package state

import (
	"fmt"

	"github.com/asheshgoplani/muxd/internal/cmdq"
	"github.com/asheshgoplani/muxd/internal/hooks"
	"github.com/asheshgoplani/muxd/internal/logging"
)

var stateLog = logging.ForComponent(logging.CompState)

// Session is a named collection of windows with its own hook scope, parented
// to the global registry.
type Session struct {
	name      string
	windows   []*Window
	current   *Window
	hooks     *hooks.Registry
	nextIndex int
	nextPane  int
}

// NewSession creates an empty session whose hook registry is parented to
// globalHooks (which may be nil).
func NewSession(name string, globalHooks *hooks.Registry) *Session {
	return &Session{name: name, hooks: hooks.NewRegistry(globalHooks)}
}

// Name returns the session name.
func (s *Session) Name() string { return s.name }

// AddWindow creates a window with one pane at the next free index and makes
// it current.
func (s *Session) AddWindow(name string) *Window {
	w := &Window{
		index:   s.nextIndex,
		name:    name,
		session: s,
		hooks:   hooks.NewRegistry(s.hooks),
		pane:    &Pane{id: s.nextPane},
	}
	s.nextIndex++
	s.nextPane++
	s.windows = append(s.windows, w)
	s.current = w
	return w
}

// WindowByIndex returns the window at index, or an error.
func (s *Session) WindowByIndex(index int) (*Window, error) {
	for _, w := range s.windows {
		if w.index == index {
			return w, nil
		}
	}
	return nil, fmt.Errorf("no such window: %d", index)
}

// Windows returns every window in creation order.
func (s *Session) Windows() []*Window { return s.windows }

// Current returns the current window, which may be nil for an empty session.
func (s *Session) Current() *Window { return s.current }

// Select makes w the current window.
func (s *Session) Select(w *Window) { s.current = w }

// CurrentWindow implements cmdq.Session.
func (s *Session) CurrentWindow() cmdq.Window {
	if s.current == nil {
		return nil
	}
	return s.current
}

// Hooks implements cmdq.Session.
func (s *Session) Hooks() cmdq.HookSource { return s.hooks }

// HookRegistry returns the concrete per-session registry.
func (s *Session) HookRegistry() *hooks.Registry { return s.hooks }

// Window is one window of a session, holding a single active pane and its
// own hook scope.
type Window struct {
	index   int
	name    string
	session *Session
	pane    *Pane
	hooks   *hooks.Registry
}

// Index returns the window index within its session.
func (w *Window) Index() int { return w.index }

// Name returns the window name.
func (w *Window) Name() string { return w.name }

// SetName renames the window.
func (w *Window) SetName(name string) { w.name = name }

// Pane returns the concrete active pane.
func (w *Window) Pane() *Pane { return w.pane }

// ActivePane implements cmdq.Window.
func (w *Window) ActivePane() cmdq.Pane {
	if w.pane == nil {
		return nil
	}
	return w.pane
}

// Hooks implements cmdq.Window.
func (w *Window) Hooks() cmdq.HookSource { return w.hooks }

// HookRegistry returns the concrete per-window registry.
func (w *Window) HookRegistry() *hooks.Registry { return w.hooks }

// Pane is a terminal pane, reduced here to the transient text overlay that
// command output is shown in for interactive clients.
type Pane struct {
	id           int
	overlay      bool
	overlayLines []string
}

// ID returns the pane id.
func (p *Pane) ID() int { return p.id }

// InOverlay implements cmdq.Pane.
func (p *Pane) InOverlay() bool { return p.overlay }

// EnterOverlay implements cmdq.Pane.
func (p *Pane) EnterOverlay() {
	p.overlay = true
	p.overlayLines = nil
}

// OverlayWrite implements cmdq.Pane.
func (p *Pane) OverlayWrite(text string) {
	p.overlayLines = append(p.overlayLines, text)
}

// ExitOverlay leaves overlay mode and discards its contents.
func (p *Pane) ExitOverlay() {
	p.overlay = false
	p.overlayLines = nil
}

// OverlayLines returns the overlay contents.
func (p *Pane) OverlayLines() []string { return p.overlayLines }
