package ipc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/yashiki/yashikid/internal/wm"
)

// IncomingCommand is one decoded command forwarded from a command-socket
// connection to the core loop, paired with the channel the loop must
// reply on exactly once.
type IncomingCommand struct {
	ID    string
	Cmd   wm.Command
	Reply chan wm.Response
}

// subscriber is one live event-socket connection.
type subscriber struct {
	id        string
	filter    EventFilter
	lines     chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (s *subscriber) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Config controls the two Unix-domain-socket paths and the command
// rate limit (§5 "golang.org/x/time/rate ... how fast one IPC
// connection may issue commands").
type Config struct {
	CommandSocketPath string
	EventSocketPath   string
	CommandRatePerSec float64
	CommandBurst      int
}

// Manager is C3: it owns both Unix-domain-socket listeners, fans
// outbound events to subscribers, and forwards inbound commands to the
// core loop. Grounded on internal/desktop/application_launcher.go's
// logger/tracer/mutex/running/Start/Stop shape.
type Manager struct {
	logger *logrus.Logger
	tracer trace.Tracer

	cfg Config

	mu      sync.Mutex
	running bool

	cmdListener   net.Listener
	eventListener net.Listener

	commands chan IncomingCommand

	subsMu sync.Mutex
	subs   map[string]*subscriber

	limiter *rate.Limiter

	snapshotFn func() *wm.Snapshot

	wg     sync.WaitGroup
	stopCh chan struct{}
}

// NewManager builds an IPC manager. cfg.CommandRatePerSec/CommandBurst
// default to a generous 50/10 when left zero.
func NewManager(logger *logrus.Logger, cfg Config) *Manager {
	if cfg.CommandRatePerSec <= 0 {
		cfg.CommandRatePerSec = 50
	}
	if cfg.CommandBurst <= 0 {
		cfg.CommandBurst = 10
	}
	return &Manager{
		logger:   logger,
		tracer:   otel.Tracer("ipc-manager"),
		cfg:      cfg,
		commands: make(chan IncomingCommand, 32),
		subs:     make(map[string]*subscriber),
		limiter:  rate.NewLimiter(rate.Limit(cfg.CommandRatePerSec), cfg.CommandBurst),
		stopCh:   make(chan struct{}),
	}
}

// Commands is the core loop's IPC wake source: one IncomingCommand per
// accepted command-socket connection.
func (m *Manager) Commands() <-chan IncomingCommand {
	return m.commands
}

// Start opens both Unix-domain-socket listeners and begins accepting
// connections on helper goroutines. Per §5's scheduling model, these
// goroutines never touch core state directly; they only write to
// m.commands and read from subscriber channels this Manager owns.
func (m *Manager) Start(ctx context.Context) error {
	ctx, span := m.tracer.Start(ctx, "ipc.Manager.Start")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return fmt.Errorf("ipc manager is already running")
	}

	_ = os.Remove(m.cfg.CommandSocketPath)
	cmdLn, err := net.Listen("unix", m.cfg.CommandSocketPath)
	if err != nil {
		return fmt.Errorf("ipc: listening on command socket %s: %w", m.cfg.CommandSocketPath, err)
	}

	_ = os.Remove(m.cfg.EventSocketPath)
	evLn, err := net.Listen("unix", m.cfg.EventSocketPath)
	if err != nil {
		cmdLn.Close()
		return fmt.Errorf("ipc: listening on event socket %s: %w", m.cfg.EventSocketPath, err)
	}

	m.cmdListener = cmdLn
	m.eventListener = evLn
	m.stopCh = make(chan struct{})
	m.running = true

	m.wg.Add(2)
	go m.acceptCommands()
	go m.acceptEvents()

	m.logger.WithFields(logrus.Fields{
		"command_socket": m.cfg.CommandSocketPath,
		"event_socket":   m.cfg.EventSocketPath,
	}).Info("ipc manager started")
	return nil
}

// Stop closes both listeners and every live subscriber connection.
func (m *Manager) Stop(ctx context.Context) error {
	ctx, span := m.tracer.Start(ctx, "ipc.Manager.Stop")
	defer span.End()

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	close(m.stopCh)
	if m.cmdListener != nil {
		m.cmdListener.Close()
	}
	if m.eventListener != nil {
		m.eventListener.Close()
	}
	m.mu.Unlock()

	m.subsMu.Lock()
	for id, s := range m.subs {
		s.close()
		delete(m.subs, id)
	}
	m.subsMu.Unlock()

	m.wg.Wait()
	m.logger.Info("ipc manager stopped")
	return nil
}

func (m *Manager) acceptCommands() {
	defer m.wg.Done()
	for {
		conn, err := m.cmdListener.Accept()
		if err != nil {
			select {
			case <-m.stopCh:
				return
			default:
				m.logger.WithError(err).Warn("command socket accept failed")
				return
			}
		}
		m.wg.Add(1)
		go m.handleCommandConn(conn)
	}
}

// handleCommandConn reads exactly one JSON command from conn, forwards
// it to the core loop, writes back the response, then closes the
// connection (§6 "one JSON command per connection and returns one JSON
// response").
func (m *Manager) handleCommandConn(conn net.Conn) {
	defer m.wg.Done()
	defer conn.Close()

	id := uuid.NewString()
	logField := m.logger.WithField("conn_id", id)

	reader := bufio.NewReader(conn)
	line, err := reader.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		if err != io.EOF {
			logField.WithError(err).Warn("failed reading command")
		}
		return
	}

	if !m.limiter.Allow() {
		resp := wm.Response{Error: "command rate limit exceeded"}
		m.writeResponse(conn, logField, resp)
		return
	}

	cmd, err := DecodeCommand(line)
	if err != nil {
		m.writeResponse(conn, logField, wm.Response{Error: err.Error()})
		return
	}

	reply := make(chan wm.Response, 1)
	select {
	case m.commands <- IncomingCommand{ID: id, Cmd: cmd, Reply: reply}:
	case <-m.stopCh:
		return
	}

	select {
	case resp := <-reply:
		m.writeResponse(conn, logField, resp)
	case <-m.stopCh:
	}
}

func (m *Manager) writeResponse(conn net.Conn, logField *logrus.Entry, resp wm.Response) {
	line, err := EncodeResponse(resp)
	if err != nil {
		logField.WithError(err).Error("failed encoding response")
		return
	}
	line = append(line, '\n')
	if _, err := conn.Write(line); err != nil {
		logField.WithError(err).Debug("failed writing response, client likely disconnected")
	}
}

func (m *Manager) acceptEvents() {
	defer m.wg.Done()
	for {
		conn, err := m.eventListener.Accept()
		if err != nil {
			select {
			case <-m.stopCh:
				return
			default:
				m.logger.WithError(err).Warn("event socket accept failed")
				return
			}
		}
		m.wg.Add(1)
		go m.handleEventConn(conn)
	}
}

// handleEventConn reads the subscription envelope, registers a
// subscriber, optionally sends a Snapshot, then streams filtered
// events until the client disconnects (treated as cancellation, not
// error, per §5 "Cancellation / timeouts").
func (m *Manager) handleEventConn(conn net.Conn) {
	defer m.wg.Done()
	defer conn.Close()

	id := uuid.NewString()
	logField := m.logger.WithField("conn_id", id)

	reader := bufio.NewReader(conn)
	line, err := reader.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return
	}
	sub, err := DecodeSubscription(line)
	if err != nil {
		logField.WithError(err).Warn("malformed subscription")
		return
	}

	s := &subscriber{id: id, filter: sub.Filter, lines: make(chan []byte, 64), done: make(chan struct{})}
	m.subsMu.Lock()
	m.subs[id] = s
	m.subsMu.Unlock()
	defer func() {
		m.subsMu.Lock()
		delete(m.subs, id)
		m.subsMu.Unlock()
	}()

	logField.Debug("event subscriber connected")

	if sub.Snapshot && m.snapshotFn != nil {
		if line, err := EncodeSnapshot(m.snapshotFn()); err == nil {
			if _, err := conn.Write(append(line, '\n')); err != nil {
				return
			}
		}
	}

	go m.drainConnCloseSignal(conn, s)

	for {
		select {
		case line := <-s.lines:
			if _, err := conn.Write(append(line, '\n')); err != nil {
				return
			}
		case <-s.done:
			return
		case <-m.stopCh:
			return
		}
	}
}

// drainConnCloseSignal blocks on a read from conn purely to detect EOF
// (the client disconnecting or sending unexpected data), and signals
// handleEventConn's loop to stop.
func (m *Manager) drainConnCloseSignal(conn net.Conn, s *subscriber) {
	buf := make([]byte, 1)
	for {
		if _, err := conn.Read(buf); err != nil {
			s.close()
			return
		}
	}
}

// snapshotFn, if set, supplies the Snapshot payload for subscriptions
// requesting one. Set via SetSnapshotSource before Start.
func (m *Manager) SetSnapshotSource(fn func() *wm.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshotFn = fn
}

// Publish fans events out to every subscriber whose filter allows each
// one (§4.7: "fanning events to all current subscribers and honouring
// per-connection filters"). Called by the core loop after every
// DiffEvents pass.
func (m *Manager) Publish(events []wm.StateEvent) {
	if len(events) == 0 {
		return
	}
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for _, ev := range events {
		line, err := EncodeEvent(ev)
		if err != nil {
			m.logger.WithError(err).Error("failed encoding event")
			continue
		}
		for _, s := range m.subs {
			if !s.filter.Allows(ev.Kind) {
				continue
			}
			select {
			case s.lines <- line:
			default:
				m.logger.WithField("conn_id", s.id).Warn("event subscriber too slow, dropping event")
			}
		}
	}
}

// CommandSocketPath and EventSocketPath are used by cmd/yashikid for
// PID-file-adjacent placement and for logging.
func (m *Manager) CommandSocketPath() string { return m.cfg.CommandSocketPath }
func (m *Manager) EventSocketPath() string   { return m.cfg.EventSocketPath }
