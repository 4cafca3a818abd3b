package layout

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/time/rate"

	"github.com/yashiki/yashikid/internal/wm"
)

// Transport is the line-framed read/write boundary a layout engine
// process (or a test double) presents. One Transport backs one spawned
// engine for its lifetime.
type Transport interface {
	Send(line []byte) error
	Recv(ctx context.Context) ([]byte, error)
	Close() error
}

// processTransport frames JSON lines over a spawned engine's stdio.
// Grounded on internal/desktop/application_launcher.go's use of
// os/exec for external processes; the line-delimited-JSON framing
// itself has no pack analogue, so it is built directly on bufio/os/exec
// rather than borrowed from elsewhere in the corpus (see DESIGN.md).
type processTransport struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	lines  chan []byte
	errs   chan error
	closed chan struct{}
}

func startProcessTransport(ctx context.Context, path string) (*processTransport, error) {
	cmd := exec.CommandContext(ctx, path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("layout: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("layout: stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("layout: start %s: %w", path, err)
	}

	t := &processTransport{
		cmd:    cmd,
		stdin:  stdin,
		lines:  make(chan []byte, 8),
		errs:   make(chan error, 1),
		closed: make(chan struct{}),
	}

	go t.readLoop(stdout)
	return t, nil
}

func (t *processTransport) readLoop(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := append([]byte(nil), scanner.Bytes()...)
		select {
		case t.lines <- line:
		case <-t.closed:
			return
		}
	}
	if err := scanner.Err(); err != nil {
		select {
		case t.errs <- err:
		default:
		}
	} else {
		select {
		case t.errs <- io.EOF:
		default:
		}
	}
}

func (t *processTransport) Send(line []byte) error {
	_, err := t.stdin.Write(append(line, '\n'))
	return err
}

func (t *processTransport) Recv(ctx context.Context) ([]byte, error) {
	select {
	case line := <-t.lines:
		return line, nil
	case err := <-t.errs:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *processTransport) Close() error {
	close(t.closed)
	_ = t.stdin.Close()
	if t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
	}
	return t.cmd.Wait()
}

// RoundTripDeadline bounds a single write-then-read exchange with an
// engine (§5 "Suspension points" (a)).
const RoundTripDeadline = 500 * time.Millisecond

// engine is one named layout engine's live subprocess plus its
// respawn bookkeeping.
type engine struct {
	name      string
	path      string
	transport Transport
	fingerprint [32]byte
}

// Manager spawns, multiplexes, and outlives individual layout-engine
// subprocesses (C2). It is the one place in the tree that manages
// engine processes; the core only ever calls Tile/Notify/Command and
// reads back a Reply. Grounded on application_launcher.go's
// logger/tracer/mutex/running/stopCh shape — the idiom the teacher uses
// for every manager that owns external OS resources.
type Manager struct {
	logger *logrus.Logger
	tracer trace.Tracer

	mu      sync.Mutex
	running bool

	engines  map[string]*engine
	execPath []string

	respawnLimiters map[string]*rate.Limiter
	lastFingerprint map[string][32]byte
	newTransport    func(ctx context.Context, path string) (Transport, error)
	resolveFn       func(engineName string) (string, error)
	fingerprintFn   func(path string) ([32]byte, error)
}

// NewManager builds a layout engine manager. execPath is searched in
// order to resolve "yashiki-layout-<name>" binaries; per §6 the default
// is the daemon's own directory followed by the OS PATH, and callers may
// prepend/append to it via set-exec-path/add-exec-path.
func NewManager(logger *logrus.Logger, execPath []string) *Manager {
	m := &Manager{
		logger:          logger,
		tracer:          otel.Tracer("layout-manager"),
		engines:         make(map[string]*engine),
		execPath:        execPath,
		respawnLimiters: make(map[string]*rate.Limiter),
		lastFingerprint: make(map[string][32]byte),
		newTransport: func(ctx context.Context, path string) (Transport, error) {
			return startProcessTransport(ctx, path)
		},
		fingerprintFn: fingerprint,
	}
	m.resolveFn = m.resolve
	return m
}

// Start marks the manager ready to lazily spawn engines. There is
// nothing to initialize eagerly: engines start on first use (§6
// "lazy-starts engines on first use").
func (m *Manager) Start(ctx context.Context) error {
	ctx, span := m.tracer.Start(ctx, "layout.Manager.Start")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return fmt.Errorf("layout manager is already running")
	}
	m.running = true
	m.logger.Info("layout manager started")
	return nil
}

// Stop kills every live engine subprocess.
func (m *Manager) Stop(ctx context.Context) error {
	ctx, span := m.tracer.Start(ctx, "layout.Manager.Stop")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return nil
	}
	for name, e := range m.engines {
		if err := e.transport.Close(); err != nil {
			m.logger.WithError(err).WithField("engine", name).Warn("error closing layout engine")
		}
	}
	m.engines = make(map[string]*engine)
	m.running = false
	m.logger.Info("layout manager stopped")
	return nil
}

// SetExecPath replaces the search path wholesale (set-exec-path).
func (m *Manager) SetExecPath(path []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.execPath = path
}

// AddExecPath appends a directory to the search path (add-exec-path).
func (m *Manager) AddExecPath(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.execPath = append(m.execPath, dir)
}

// ExecPath returns the current search path (exec-path query command).
func (m *Manager) ExecPath() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.execPath))
	copy(out, m.execPath)
	return out
}

func binaryName(engineName string) string {
	return "yashiki-layout-" + engineName
}

func (m *Manager) resolve(engineName string) (string, error) {
	name := binaryName(engineName)
	for _, dir := range m.execPath {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("layout: engine binary %q not found on exec path %v", name, m.execPath)
}

func fingerprint(path string) ([32]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return [32]byte{}, err
	}
	return blake2b.Sum256(data), nil
}

// ensure lazily resolves and spawns engineName's subprocess, reusing the
// live one if present. Respawns (after a prior Close/crash) are logged
// at Debug when the binary's fingerprint is unchanged from the last
// spawn, and at Info when it has changed (§2 "golang.org/x/crypto
// blake2b" DOMAIN STACK entry).
func (m *Manager) ensure(ctx context.Context, engineName string) (*engine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.engines[engineName]; ok {
		return e, nil
	}

	limiter, ok := m.respawnLimiters[engineName]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(time.Second), 3)
		m.respawnLimiters[engineName] = limiter
	}
	if !limiter.Allow() {
		return nil, fmt.Errorf("layout: engine %q is respawning too quickly, throttled", engineName)
	}

	path, err := m.resolveFn(engineName)
	if err != nil {
		return nil, err
	}
	fp, err := m.fingerprintFn(path)
	if err != nil {
		return nil, fmt.Errorf("layout: fingerprinting %s: %w", path, err)
	}

	logField := m.logger.WithField("engine", engineName).WithField("path", path)
	if prev, ok := m.lastFingerprint[engineName]; ok && prev == fp {
		logField.Debug("respawning layout engine, binary unchanged")
	} else {
		logField.Info("spawning layout engine")
	}
	m.lastFingerprint[engineName] = fp

	t, err := m.newTransport(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("layout: spawning %s: %w", path, err)
	}

	e := &engine{name: engineName, path: path, transport: t, fingerprint: fp}
	m.engines[engineName] = e
	return e, nil
}

// forget drops a dead engine so the next call to ensure respawns it.
func (m *Manager) forget(engineName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.engines[engineName]; ok {
		_ = e.transport.Close()
		delete(m.engines, engineName)
	}
}

// roundTrip sends line to engineName and waits for one reply, bounded
// by RoundTripDeadline. On timeout or transport error the engine is
// killed and removed so the next call respawns it (§5 "Cancellation /
// timeouts").
func (m *Manager) roundTrip(ctx context.Context, engineName string, line []byte) (Reply, error) {
	e, err := m.ensure(ctx, engineName)
	if err != nil {
		return Reply{}, err
	}

	if err := e.transport.Send(line); err != nil {
		m.forget(engineName)
		return Reply{}, fmt.Errorf("layout: sending to %q: %w", engineName, err)
	}

	rctx, cancel := context.WithTimeout(ctx, RoundTripDeadline)
	defer cancel()
	resp, err := e.transport.Recv(rctx)
	if err != nil {
		m.forget(engineName)
		return Reply{}, fmt.Errorf("layout: no reply from %q: %w", engineName, err)
	}

	reply, err := decodeReply(resp)
	if err != nil {
		return Reply{}, err
	}
	return reply, nil
}

// Tile sends a Layout request to req's engine and returns the engine's
// placements (§4.3 step 3, §6).
func (m *Manager) Tile(ctx context.Context, req wm.TileRequest) ([]wm.Placement, error) {
	ctx, span := m.tracer.Start(ctx, "layout.Manager.Tile")
	defer span.End()

	line, err := encodeLayoutRequest(req)
	if err != nil {
		return nil, err
	}
	reply, err := m.roundTrip(ctx, req.Engine, line)
	if err != nil {
		return nil, err
	}
	if reply.Kind == ReplyError {
		return nil, fmt.Errorf("layout: engine %q reported: %s", req.Engine, reply.ErrorMessage)
	}
	if reply.Kind != ReplyLayout {
		return nil, fmt.Errorf("layout: engine %q replied %d to a Layout request", req.Engine, reply.Kind)
	}
	return reply.Placements, nil
}

// Command sends an engine command (e.g. "focus-changed") and reports
// whether the engine asked for a subsequent retile.
func (m *Manager) Command(ctx context.Context, engineName, cmd string, args []string) (needsRetile bool, err error) {
	ctx, span := m.tracer.Start(ctx, "layout.Manager.Command")
	defer span.End()

	line, err := encodeCommand(cmd, args)
	if err != nil {
		return false, err
	}
	reply, err := m.roundTrip(ctx, engineName, line)
	if err != nil {
		return false, err
	}
	switch reply.Kind {
	case ReplyOk:
		return false, nil
	case ReplyNeedsRetile:
		return true, nil
	case ReplyError:
		return false, fmt.Errorf("layout: engine %q reported: %s", engineName, reply.ErrorMessage)
	default:
		return false, fmt.Errorf("layout: engine %q replied with a Layout message to a Command", engineName)
	}
}

// NotifyFocusChanged sends the required "focus-changed <id>" command to
// engineName (§4.1 "Focus notifications").
func (m *Manager) NotifyFocusChanged(ctx context.Context, engineName string, id wm.WindowID) (needsRetile bool, err error) {
	return m.Command(ctx, engineName, "focus-changed", []string{fmt.Sprintf("%d", id)})
}
