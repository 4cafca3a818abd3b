package loop

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/yashiki/yashikid/internal/ipc"
	"github.com/yashiki/yashikid/internal/platform"
	"github.com/yashiki/yashikid/internal/wm"
)

// TickInterval is the periodic timer's period (§4.1 wake source 3:
// "display list polling, re-checking apps without AX observers,
// committing deferred hotkey-tap rebuilds").
const TickInterval = 50 * time.Millisecond

// HotkeyManager is the narrow subset of internal/hotkey.Manager's
// methods the loop needs.
type HotkeyManager interface {
	Bind(chord, command string) error
	Unbind(chord string) error
	Bindings() map[string]string
	Lookup(chord string) (string, bool)
	Events() <-chan string
	RebuildIfDirty(ctx context.Context) error
}

// IPCManager is the narrow subset of internal/ipc.Manager's methods the
// loop needs.
type IPCManager interface {
	Commands() <-chan ipc.IncomingCommand
	Publish(events []wm.StateEvent)
	SetSnapshotSource(fn func() *wm.Snapshot)
}

// Loop is C10: the single goroutine that owns wm.State and serialises
// every mutation through it, per §4.1's "no locks on core state" model.
// Grounded on internal/desktop/application_launcher.go's logger/tracer
// shape; Start/Stop are intentionally absent here because the loop's
// lifetime is its Run call, not a background goroutine this type
// manages itself — the caller (cmd/yashikid) owns that.
type Loop struct {
	logger *logrus.Logger
	tracer trace.Tracer

	state *wm.State

	ws       platform.WindowSystem
	executor *Executor
	layouts  LayoutClient
	hotkeys  HotkeyManager
	ipcMgr   IPCManager

	tickInterval time.Duration
}

// New builds a Loop over an already-populated initial state (displays
// discovered once at startup, typically) and the four I/O boundaries it
// wires together.
func New(
	logger *logrus.Logger,
	state *wm.State,
	ws platform.WindowSystem,
	manipulator platform.WindowManipulator,
	layouts LayoutClient,
	hotkeys HotkeyManager,
	ipcMgr IPCManager,
) *Loop {
	return &Loop{
		logger:       logger,
		tracer:       otel.Tracer("core-loop"),
		state:        state,
		ws:           ws,
		executor:     NewExecutor(logger, manipulator, layouts),
		layouts:      layouts,
		hotkeys:      hotkeys,
		ipcMgr:       ipcMgr,
		tickInterval: TickInterval,
	}
}

// Run is the core loop: it blocks, servicing the three wake sources
// from §4.1, until ctx is cancelled or a quit command is dispatched.
func (l *Loop) Run(ctx context.Context) error {
	l.ipcMgr.SetSnapshotSource(l.snapshot)

	ticker := time.NewTicker(l.tickInterval)
	defer ticker.Stop()

	l.logger.Info("core loop started")

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("core loop stopping: context cancelled")
			return ctx.Err()

		case incoming, ok := <-l.ipcMgr.Commands():
			if !ok {
				continue
			}
			resp, quit := l.handleCommand(ctx, incoming.Cmd)
			incoming.Reply <- resp
			if quit {
				l.logger.Info("core loop stopping: quit command")
				return nil
			}

		case chord, ok := <-l.hotkeys.Events():
			if !ok {
				continue
			}
			l.handleHotkeyChord(ctx, chord)

		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

func (l *Loop) handleHotkeyChord(ctx context.Context, chord string) {
	cmdLine, ok := l.hotkeys.Lookup(chord)
	if !ok {
		return
	}
	cmd, err := ipc.DecodeCommand([]byte(cmdLine))
	if err != nil {
		l.logger.WithError(err).WithField("chord", chord).Warn("bound command failed to decode")
		return
	}
	_, quit := l.handleCommand(ctx, cmd)
	if quit {
		l.logger.Info("hotkey bound to quit, exiting")
	}
}

// handleCommand is the single mutation entry point (§4.8): it resolves
// the two command types Dispatch itself deliberately stays decoupled
// from (bind/unbind live in internal/hotkey; exec-path set/add and
// exec-path query live in internal/layout), calls Dispatch, executes
// the resulting effects, and publishes the diff as events.
func (l *Loop) handleCommand(ctx context.Context, cmd wm.Command) (wm.Response, bool) {
	ctx, span := l.tracer.Start(ctx, "loop.Loop.handleCommand")
	defer span.End()

	if resp, handled := l.preHandle(cmd); handled {
		return resp, false
	}

	before := l.state.Clone()
	resp, effects := l.state.Dispatch(cmd, time.Now(), l.hotkeys.Bindings())

	switch cmd.Type {
	case wm.CmdSetExecPath:
		l.layouts.SetExecPath([]string{cmd.ExecPathEntry})
		effects = dropExecPathEffect(effects)
	case wm.CmdExecPath:
		resp.ExecPath = l.layouts.ExecPath()
	}

	quit := false
	for _, eff := range effects {
		if eff.Kind == wm.EffQuit {
			quit = true
		}
	}

	l.executor.Execute(ctx, l.state, effects)

	events := wm.DiffEvents(before, l.state)
	l.ipcMgr.Publish(events)

	return resp, quit
}

// preHandle intercepts CmdBind/CmdUnbind, whose binding-table mutation
// Dispatch deliberately leaves to internal/hotkey (dispatch.go: "core
// only validates here"). A bind/unbind failure short-circuits before
// Dispatch runs, so a bad chord/command never produces a spurious Ok.
func (l *Loop) preHandle(cmd wm.Command) (wm.Response, bool) {
	switch cmd.Type {
	case wm.CmdBind:
		if err := l.hotkeys.Bind(cmd.HotkeyChord, cmd.HotkeyCmd); err != nil {
			return wm.Response{Error: err.Error()}, true
		}
	case wm.CmdUnbind:
		if err := l.hotkeys.Unbind(cmd.HotkeyChord); err != nil {
			return wm.Response{Error: err.Error()}, true
		}
	}
	return wm.Response{}, false
}

func dropExecPathEffect(effects []wm.Effect) []wm.Effect {
	out := effects[:0]
	for _, eff := range effects {
		if eff.Kind == wm.EffUpdateLayoutExecPath {
			continue
		}
		out = append(out, eff)
	}
	return out
}

func (l *Loop) snapshot() *wm.Snapshot {
	resp, _ := l.state.Dispatch(wm.Command{Type: wm.CmdGetState}, time.Now(), l.hotkeys.Bindings())
	return resp.State
}

// tick runs the periodic reconciliation pass: display list, window
// list, re-hide moves, new-window placement, hotkey rebuild, and the
// polling-based external-focus check (§4.4's "external" focus kind, for
// apps with no AX focus observer wired — see §4.1 wake source 3).
func (l *Loop) tick(ctx context.Context) {
	ctx, span := l.tracer.Start(ctx, "loop.Loop.tick")
	defer span.End()

	before := l.state.Clone()

	l.reconcileDisplays(ctx)
	l.reconcileWindows(ctx)
	l.checkExternalFocus(ctx)

	if err := l.hotkeys.RebuildIfDirty(ctx); err != nil {
		l.logger.WithError(err).Warn("hotkey rebuild failed")
	}

	events := wm.DiffEvents(before, l.state)
	l.ipcMgr.Publish(events)
}

func (l *Loop) reconcileDisplays(ctx context.Context) {
	observed, err := l.ws.Displays(ctx)
	if err != nil {
		l.logger.WithError(err).Warn("display query failed")
		return
	}

	result := l.state.HandleDisplayChange(observed)

	if result.RetileAll {
		for _, id := range l.state.SortedDisplayIDs() {
			if err := l.executor.RetileDisplay(ctx, l.state, id); err != nil {
				l.logger.WithError(err).WithField("display", uint32(id)).Warn("retile after display change failed")
			}
		}
		return
	}

	retiled := make(map[wm.DisplayID]bool)
	for _, id := range result.Reassigned {
		w, ok := l.state.Windows[id]
		if !ok || retiled[w.DisplayID] {
			continue
		}
		retiled[w.DisplayID] = true
		if err := l.executor.RetileDisplay(ctx, l.state, w.DisplayID); err != nil {
			l.logger.WithError(err).WithField("display", uint32(w.DisplayID)).Warn("retile after display reassignment failed")
		}
	}
}

func (l *Loop) reconcileWindows(ctx context.Context) {
	observed, err := l.ws.Windows(ctx)
	if err != nil {
		l.logger.WithError(err).Warn("window query failed")
		return
	}

	obsByID := make(map[wm.WindowID]wm.WindowObservation, len(observed))
	for _, o := range observed {
		obsByID[o.ID] = o
	}

	now := time.Now()
	result := l.state.Sync(observed, l.ws, l.ws, func(w *wm.Window) bool {
		return l.state.ShouldSuppressRehide(w, now)
	})

	if len(result.Moves) > 0 {
		l.executor.Execute(ctx, l.state, []wm.Effect{{Kind: wm.EffApplyWindowMoves, Moves: result.Moves}})
	}

	if !result.Changed {
		return
	}

	retiled := make(map[wm.DisplayID]bool)
	for _, id := range result.NewWindowIDs {
		w, ok := l.state.Windows[id]
		if !ok {
			continue
		}
		l.applyRuleFrameOverride(ctx, w, obsByID[id])
		if retiled[w.DisplayID] {
			continue
		}
		retiled[w.DisplayID] = true
		if err := l.executor.RetileDisplay(ctx, l.state, w.DisplayID); err != nil {
			l.logger.WithError(err).WithField("display", uint32(w.DisplayID)).Warn("retile after sync failed")
		}
	}
}

// applyRuleFrameOverride issues the physical move/resize for a
// newly-managed window whose rule-assigned position and/or dimensions
// (applied to state in createManagedWindow) differ from its as-observed
// OS frame. EffMoveWindowToPosition and EffSetWindowDimensions exist
// precisely for this split: a rule may override only one axis.
func (l *Loop) applyRuleFrameOverride(ctx context.Context, w *wm.Window, observed wm.WindowObservation) {
	posChanged := w.CurrentFrame.X != observed.Frame.X || w.CurrentFrame.Y != observed.Frame.Y
	dimChanged := w.CurrentFrame.W != observed.Frame.W || w.CurrentFrame.H != observed.Frame.H
	if !posChanged && !dimChanged {
		return
	}
	var effects []wm.Effect
	if posChanged {
		effects = append(effects, wm.Effect{Kind: wm.EffMoveWindowToPosition, WindowID: w.ID, X: w.CurrentFrame.X, Y: w.CurrentFrame.Y})
	}
	if dimChanged {
		effects = append(effects, wm.Effect{Kind: wm.EffSetWindowDimensions, WindowID: w.ID, W: w.CurrentFrame.W, H: w.CurrentFrame.H})
	}
	l.executor.Execute(ctx, l.state, effects)
}

// checkExternalFocus polls the OS-reported frontmost window and
// dispatches a window-focus command when it differs from state's
// current focus, applying the focus-intent suppression rule from §4.4
// so a deliberate core-initiated focus isn't immediately overridden by
// a stale OS report of the window it just left.
func (l *Loop) checkExternalFocus(ctx context.Context) {
	id, has, err := l.ws.FrontmostWindow(ctx)
	if err != nil {
		l.logger.WithError(err).Debug("frontmost window query failed")
		return
	}
	if !has {
		return
	}
	w, ok := l.state.Windows[id]
	if !ok {
		return
	}
	if l.state.HasFocusedWindow && l.state.FocusedWindowID == w.ID {
		return
	}

	target := w
	if redirectID, suppress := l.state.ShouldSuppressExternalFocus(w, time.Now()); suppress {
		redirect, ok := l.state.Windows[redirectID]
		if !ok {
			return
		}
		target = redirect
	}

	l.handleCommand(ctx, wm.Command{Type: wm.CmdWindowFocus, WindowID: target.ID})
}
