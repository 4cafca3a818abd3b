package platform

import (
	"context"
	"os/exec"

	"github.com/sirupsen/logrus"

	"github.com/yashiki/yashikid/internal/wm"
)

// NoopWindowSystem is a WindowSystem that reports an empty window system:
// no windows, no displays, nothing ever in front. It is the default used
// where no platform-specific binding is wired in (the same role
// internal/hotkey.NoopTap plays for the hotkey boundary), so the daemon
// still starts and its IPC surface is reachable without a real AX/window
// backend compiled in.
type NoopWindowSystem struct {
	logger *logrus.Logger
}

// NewNoopWindowSystem returns a WindowSystem with nothing to report.
func NewNoopWindowSystem(logger *logrus.Logger) *NoopWindowSystem {
	return &NoopWindowSystem{logger: logger}
}

func (n *NoopWindowSystem) Windows(ctx context.Context) ([]wm.WindowObservation, error) {
	return nil, nil
}

func (n *NoopWindowSystem) Displays(ctx context.Context) ([]wm.DisplayObservation, error) {
	return nil, nil
}

func (n *NoopWindowSystem) FrontmostWindow(ctx context.Context) (wm.WindowID, bool, error) {
	return 0, false, nil
}

func (n *NoopWindowSystem) ProcessAccessible(pid int) bool { return false }

func (n *NoopWindowSystem) WindowStillInAX(pid int, id wm.WindowID) bool { return false }

func (n *NoopWindowSystem) DisplayContaining(p wm.Point) (wm.DisplayID, bool) { return 0, false }

// NoopWindowManipulator is a WindowManipulator whose window-targeted
// effects (move, raise, warp, close) are logged no-ops, since acting on a
// real window handle requires the platform-specific binding NoopWindowSystem
// stands in for. Exec is genuinely implemented: launching a detached
// process is plain os/exec, not an AX operation, the same way
// internal/desktop/application_launcher.go starts applications.
type NoopWindowManipulator struct {
	logger *logrus.Logger
}

// NewNoopWindowManipulator returns a WindowManipulator backed by no real
// window system.
func NewNoopWindowManipulator(logger *logrus.Logger) *NoopWindowManipulator {
	return &NoopWindowManipulator{logger: logger}
}

func (n *NoopWindowManipulator) MoveResize(ctx context.Context, id wm.WindowID, pid int, frame wm.Rect) error {
	n.logger.WithFields(logrus.Fields{"window": uint32(id), "pid": pid, "frame": frame}).Debug("noop move-resize")
	return nil
}

func (n *NoopWindowManipulator) Raise(ctx context.Context, id wm.WindowID, pid int, isOutputChange bool) error {
	n.logger.WithFields(logrus.Fields{"window": uint32(id), "pid": pid}).Debug("noop raise")
	return nil
}

func (n *NoopWindowManipulator) WarpCursor(ctx context.Context, id wm.WindowID) error {
	n.logger.WithField("window", uint32(id)).Debug("noop warp cursor")
	return nil
}

func (n *NoopWindowManipulator) Close(ctx context.Context, id wm.WindowID, pid int) error {
	n.logger.WithFields(logrus.Fields{"window": uint32(id), "pid": pid}).Debug("noop close")
	return nil
}

func (n *NoopWindowManipulator) Exec(ctx context.Context, command string) error {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
