// Package platform defines the two capability boundaries the core never
// crosses directly (C1): WindowSystem for queries and WindowManipulator for
// effects. Every OS call the daemon makes funnels through an implementation
// of one of these two interfaces, following the same "manager wraps the
// underlying subsystem behind a narrow interface" shape the teacher daemon
// uses for its AI service clients (internal/desktop/window_manager.go's
// nlpService/cvService fields).
package platform

import (
	"context"

	"github.com/yashiki/yashikid/internal/wm"
)

// WindowSystem is the read side of C1: everything the core needs to learn
// about the state of the real window system.
type WindowSystem interface {
	// Windows returns every on-screen window, enriched with the extended
	// AX attributes sync needs for windows not yet managed or ignored.
	Windows(ctx context.Context) ([]wm.WindowObservation, error)

	// Displays returns the current display list.
	Displays(ctx context.Context) ([]wm.DisplayObservation, error)

	// FrontmostWindow reports the OS-reported focused window, used as the
	// fallback source of truth for apps that refuse AX focus (§4.4).
	FrontmostWindow(ctx context.Context) (wm.WindowID, bool, error)

	// ProcessAccessible and WindowStillInAX implement wm.AXLiveness; kept
	// here too so WindowSystem alone satisfies sync's liveness gate.
	ProcessAccessible(pid int) bool
	WindowStillInAX(pid int, id wm.WindowID) bool

	// DisplayContaining implements wm.DisplayLookup for newly observed
	// windows that have no prior display assignment.
	DisplayContaining(p wm.Point) (wm.DisplayID, bool)
}

// WindowManipulator is the write side of C1: every effect the executor
// (C9) may issue against the real window system.
type WindowManipulator interface {
	// MoveResize applies a window move/resize in one call; the OS only
	// offers one instantaneous placement anyway.
	MoveResize(ctx context.Context, id wm.WindowID, pid int, frame wm.Rect) error

	// Raise performs an activate-process call followed by an AX raise on
	// the window, per §4.3 "Raising a window". isOutputChange is passed
	// through so implementations that warp the cursor on raise (rather
	// than via a separate WarpCursor call) can gate on it.
	Raise(ctx context.Context, id wm.WindowID, pid int, isOutputChange bool) error

	// WarpCursor moves the pointer to the given window's centre.
	WarpCursor(ctx context.Context, id wm.WindowID) error

	// Close requests the window's owning application close it.
	Close(ctx context.Context, id wm.WindowID, pid int) error

	// Exec runs an arbitrary shell command, detached from the daemon.
	Exec(ctx context.Context, command string) error
}
