package hotkey

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Manager owns the binding table and the tap it drives (C4). Grounded
// on internal/desktop/application_launcher.go's logger/tracer/mutex/
// running/Start/Stop shape, the idiom the teacher uses for every
// manager that owns an external resource — here, the native tap.
type Manager struct {
	logger *logrus.Logger
	tracer trace.Tracer

	mu      sync.Mutex
	running bool

	table *Table
	tap   Tap
}

// NewManager builds a hotkey manager around tap. Pass hotkey.NewNoopTap()
// where no platform-specific tap implementation is linked in.
func NewManager(logger *logrus.Logger, tap Tap) *Manager {
	return &Manager{
		logger: logger,
		tracer: otel.Tracer("hotkey-manager"),
		table:  NewTable(),
		tap:    tap,
	}
}

// Start marks the manager ready. The tap itself is rebuilt lazily, on
// the first dirty timer tick, rather than eagerly here, since a fresh
// table has no bindings to install.
func (m *Manager) Start(ctx context.Context) error {
	ctx, span := m.tracer.Start(ctx, "hotkey.Manager.Start")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return fmt.Errorf("hotkey manager is already running")
	}
	m.running = true
	m.logger.Info("hotkey manager started")
	return nil
}

// Stop uninstalls the tap.
func (m *Manager) Stop(ctx context.Context) error {
	ctx, span := m.tracer.Start(ctx, "hotkey.Manager.Stop")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return nil
	}
	if err := m.tap.Close(); err != nil {
		m.logger.WithError(err).Warn("error closing hotkey tap")
	}
	m.running = false
	m.logger.Info("hotkey manager stopped")
	return nil
}

// Bind installs chord -> command (the "bind" IPC command).
func (m *Manager) Bind(chord, command string) error {
	if err := m.table.Bind(chord, command); err != nil {
		return err
	}
	m.logger.WithField("chord", chord).WithField("command", command).Debug("hotkey bound")
	return nil
}

// Unbind removes chord (the "unbind" IPC command).
func (m *Manager) Unbind(chord string) error {
	if err := m.table.Unbind(chord); err != nil {
		return err
	}
	m.logger.WithField("chord", chord).Debug("hotkey unbound")
	return nil
}

// Bindings returns every current chord -> command mapping
// (list-bindings).
func (m *Manager) Bindings() map[string]string {
	return m.table.List()
}

// Lookup resolves a matched chord (read off Events) to its command
// verb, for the core loop to translate into a wm.Command.
func (m *Manager) Lookup(chord string) (string, bool) {
	return m.table.Lookup(chord)
}

// Events is the core loop's hotkey wake source (§5 "a source handle
// used to wake the core loop immediately on key match").
func (m *Manager) Events() <-chan string {
	return m.tap.Events()
}

// RebuildIfDirty reinstalls the tap's watched chord set if the table
// changed since the last call, and is a no-op otherwise. Called from
// the core loop's timer tick, coalescing any number of intervening
// bind/unbind calls into at most one tap rebuild per tick (§5).
func (m *Manager) RebuildIfDirty(ctx context.Context) error {
	if !m.table.TakeDirty() {
		return nil
	}
	ctx, span := m.tracer.Start(ctx, "hotkey.Manager.RebuildIfDirty")
	defer span.End()

	chords := m.table.Chords()
	if err := m.tap.Rebuild(chords); err != nil {
		m.logger.WithError(err).Warn("failed to rebuild hotkey tap")
		return err
	}
	m.logger.WithField("chord_count", len(chords)).Debug("hotkey tap rebuilt")
	return nil
}
