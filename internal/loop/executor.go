// Package loop implements C9 (the effect executor) and C10 (the core
// event loop) that wire internal/wm's pure state model to the platform,
// layout and hotkey I/O boundaries.
package loop

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/yashiki/yashikid/internal/platform"
	"github.com/yashiki/yashikid/internal/wm"
)

// LayoutClient is the narrow subset of internal/layout.Manager's methods
// the executor needs, so tests can substitute a fake instead of
// spawning real engine subprocesses.
type LayoutClient interface {
	Tile(ctx context.Context, req wm.TileRequest) ([]wm.Placement, error)
	Command(ctx context.Context, engineName, cmd string, args []string) (needsRetile bool, err error)
	NotifyFocusChanged(ctx context.Context, engineName string, id wm.WindowID) (needsRetile bool, err error)
	SetExecPath(path []string)
	AddExecPath(dir string)
	ExecPath() []string
}

// Executor is C9: it interprets the ordered Effect list Dispatch
// returns, issuing platform calls and layout-engine round trips, and
// folds tiling results back into state. Grounded on
// internal/desktop/application_launcher.go's logger/tracer fields; it
// carries no mutex/running of its own since it only ever runs on the
// single core-loop goroutine.
type Executor struct {
	logger      *logrus.Logger
	tracer      trace.Tracer
	manipulator platform.WindowManipulator
	layouts     LayoutClient
}

// NewExecutor builds an Executor.
func NewExecutor(logger *logrus.Logger, manipulator platform.WindowManipulator, layouts LayoutClient) *Executor {
	return &Executor{
		logger:      logger,
		tracer:      otel.Tracer("loop-executor"),
		manipulator: manipulator,
		layouts:     layouts,
	}
}

// Execute runs effects, in order, against state. A failure on one effect
// is logged and execution continues with the rest — one engine crash or
// one failed AX call must not drop the remaining effects in the batch
// (§5's "no locks, strictly serialised" model still expects forward
// progress across a single command's effect list).
func (e *Executor) Execute(ctx context.Context, state *wm.State, effects []wm.Effect) {
	for _, eff := range effects {
		if err := e.executeOne(ctx, state, eff); err != nil {
			e.logger.WithError(err).WithField("effect", int(eff.Kind)).Warn("effect execution failed")
		}
	}
}

func (e *Executor) executeOne(ctx context.Context, state *wm.State, eff wm.Effect) error {
	ctx, span := e.tracer.Start(ctx, "loop.Executor.executeOne")
	defer span.End()

	switch eff.Kind {
	case wm.EffApplyWindowMoves:
		state.ApplyMoves(eff.Moves)
		for _, m := range eff.Moves {
			w, ok := state.Windows[m.ID]
			if !ok {
				continue
			}
			if err := e.manipulator.MoveResize(ctx, m.ID, w.PID, m.Frame); err != nil {
				return fmt.Errorf("move-resize window %d: %w", m.ID, err)
			}
		}
		return nil

	case wm.EffFocusWindow:
		if err := e.manipulator.Raise(ctx, eff.WindowID, eff.PID, eff.IsOutputChange); err != nil {
			return fmt.Errorf("raise window %d: %w", eff.WindowID, err)
		}
		return e.notifyFocusAndMaybeRetile(ctx, state, eff.WindowID)

	case wm.EffMoveWindowToPosition:
		w, ok := state.Windows[eff.WindowID]
		if !ok {
			return nil
		}
		w.CurrentFrame.X, w.CurrentFrame.Y = eff.X, eff.Y
		return e.manipulator.MoveResize(ctx, eff.WindowID, w.PID, w.CurrentFrame)

	case wm.EffSetWindowDimensions:
		w, ok := state.Windows[eff.WindowID]
		if !ok {
			return nil
		}
		w.CurrentFrame.W, w.CurrentFrame.H = eff.W, eff.H
		return e.manipulator.MoveResize(ctx, eff.WindowID, w.PID, w.CurrentFrame)

	case wm.EffRetile:
		for _, id := range state.SortedDisplayIDs() {
			if err := e.retileDisplay(ctx, state, id); err != nil {
				e.logger.WithError(err).WithField("display", uint32(id)).Warn("retile failed")
			}
		}
		return nil

	case wm.EffRetileDisplays:
		for _, id := range eff.DisplayIDs {
			if err := e.retileDisplay(ctx, state, id); err != nil {
				e.logger.WithError(err).WithField("display", uint32(id)).Warn("retile failed")
			}
		}
		return nil

	case wm.EffSendLayoutCommand:
		needsRetile, err := e.layouts.Command(ctx, eff.Layout, eff.Cmd, eff.Args)
		if err != nil {
			return fmt.Errorf("layout command %q: %w", eff.Cmd, err)
		}
		if needsRetile {
			e.logger.WithField("layout", eff.Layout).Debug("engine requested retile on a named-layout command, ignoring per spec")
		}
		return nil

	case wm.EffExecCommand:
		if eff.Cmd == "close" {
			return e.manipulator.Close(ctx, eff.WindowID, eff.PID)
		}
		return e.manipulator.Exec(ctx, eff.ExecCommand)

	case wm.EffUpdateLayoutExecPath:
		e.layouts.AddExecPath(eff.ExecPath)
		return nil

	case wm.EffFocusVisibleWindowIfNeeded:
		e.logger.Debug("output focus landed on an empty display, nothing to raise")
		return nil

	case wm.EffWarpCursor:
		return e.manipulator.WarpCursor(ctx, eff.WindowID)

	case wm.EffQuit:
		return nil // handled by the core loop itself, which watches for this kind before calling Execute on the rest

	default:
		return fmt.Errorf("unhandled effect kind %d", eff.Kind)
	}
}

// notifyFocusAndMaybeRetile sends the focus-changed notification to the
// affected display's layout engine and retiles if it replies
// NeedsRetile (§4.3 "Focus notifications").
func (e *Executor) notifyFocusAndMaybeRetile(ctx context.Context, state *wm.State, id wm.WindowID) error {
	w, ok := state.Windows[id]
	if !ok {
		return nil
	}
	d, ok := state.Displays[w.DisplayID]
	if !ok {
		return nil
	}
	engine := state.EngineForDisplay(d)
	needsRetile, err := e.layouts.NotifyFocusChanged(ctx, engine, id)
	if err != nil {
		return fmt.Errorf("notify focus changed: %w", err)
	}
	if needsRetile {
		return e.retileDisplay(ctx, state, d.ID)
	}
	return nil
}

// RetileDisplay is the exported entry point internal/loop's tick handler
// uses to retile a display reconciliation found changed, without going
// through the Effect list (sync's "changed" result is a direct retile
// obligation, not an effect, per §4.2).
func (e *Executor) RetileDisplay(ctx context.Context, state *wm.State, id wm.DisplayID) error {
	return e.retileDisplay(ctx, state, id)
}

func (e *Executor) retileDisplay(ctx context.Context, state *wm.State, id wm.DisplayID) error {
	d, ok := state.Displays[id]
	if !ok {
		return nil
	}

	fullscreen, req, ok := state.PlanTile(d)
	if fullscreen != nil {
		state.ApplyMoves([]wm.WindowMove{*fullscreen})
		w, found := state.Windows[fullscreen.ID]
		if !found {
			return nil
		}
		return e.manipulator.MoveResize(ctx, fullscreen.ID, w.PID, fullscreen.Frame)
	}
	if !ok {
		return nil
	}

	placements, err := e.layouts.Tile(ctx, req)
	if err != nil {
		return fmt.Errorf("tile display %d via %q: %w", id, req.Engine, err)
	}

	rect := state.TileableRect(d)
	moves := wm.TranslatePlacements(wm.Point{X: rect.X, Y: rect.Y}, placements)
	state.ApplyMoves(moves)
	for _, m := range moves {
		w, found := state.Windows[m.ID]
		if !found {
			continue
		}
		if err := e.manipulator.MoveResize(ctx, m.ID, w.PID, m.Frame); err != nil {
			e.logger.WithError(err).WithField("window", uint32(m.ID)).Warn("move-resize after tiling failed")
		}
	}
	return nil
}
