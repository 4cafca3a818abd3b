package ipc

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yashiki/yashikid/pkg/utils"
)

// DebugConfig controls the optional loopback-only debug HTTP surface
// (§6: "/metrics, /healthz, and a /debug/events websocket mirror of the
// event stream, disabled by default, loopback-only when enabled").
type DebugConfig struct {
	Enabled bool
	Addr    string // must resolve to a loopback address; enforced in NewDebugServer
}

// DebugServer is the optional debug HTTP surface, grounded on
// cmd/aios-daemon/main.go's mux+promhttp metrics-server pattern.
type DebugServer struct {
	logger *logrus.Logger
	cfg    DebugConfig
	srv    *http.Server

	upgrader websocket.Upgrader

	ipc *Manager

	mirrorMu sync.Mutex
	mirrors  map[string]chan []byte
}

// NewDebugServer wires a DebugServer on top of an already-constructed
// ipc.Manager, whose Publish calls are mirrored to any connected
// /debug/events websocket client.
func NewDebugServer(logger *logrus.Logger, cfg DebugConfig, ipcMgr *Manager) (*DebugServer, error) {
	if cfg.Enabled {
		host, _, err := net.SplitHostPort(cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("ipc: invalid debug addr %q: %w", cfg.Addr, err)
		}
		if host != "" && host != "127.0.0.1" && host != "localhost" && host != "::1" {
			return nil, fmt.Errorf("ipc: debug server must bind loopback, got host %q", host)
		}
	}

	return &DebugServer{
		logger:   logger,
		cfg:      cfg,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		ipc:      ipcMgr,
		mirrors:  make(map[string]chan []byte),
	}, nil
}

// Start begins serving the debug HTTP surface. A no-op when disabled.
func (d *DebugServer) Start(ctx context.Context) error {
	if !d.cfg.Enabled {
		return nil
	}

	router := mux.NewRouter()
	router.Use(utils.RecoveryMiddleware(d.logger))
	router.Use(utils.LoggingMiddleware(d.logger))
	router.Use(otelhttp.NewMiddleware("yashikid-debug"))
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/healthz", d.handleHealthz)
	router.HandleFunc("/debug/events", d.handleDebugEvents)

	d.srv = &http.Server{
		Addr:         d.cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		d.logger.WithField("addr", d.cfg.Addr).Info("debug http server starting")
		if err := d.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			d.logger.WithError(err).Error("debug http server failed")
		}
	}()
	return nil
}

// Stop shuts the debug server down. A no-op when it was never started.
func (d *DebugServer) Stop(ctx context.Context) error {
	if d.srv == nil {
		return nil
	}
	return d.srv.Shutdown(ctx)
}

func (d *DebugServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleDebugEvents mirrors the event stream to a websocket client,
// following the read/write-pump split from
// internal/mcp/enhanced/streaming_handler.go: one goroutine drains the
// connection purely to notice it close, the handler goroutine itself
// pumps mirrored lines out.
func (d *DebugServer) handleDebugEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.logger.WithError(err).Warn("debug websocket upgrade failed")
		return
	}
	defer conn.Close()

	id := fmt.Sprintf("%p", conn)
	ch := make(chan []byte, 64)
	d.mirrorMu.Lock()
	d.mirrors[id] = ch
	d.mirrorMu.Unlock()
	defer func() {
		d.mirrorMu.Lock()
		delete(d.mirrors, id)
		d.mirrorMu.Unlock()
	}()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case line := <-ch:
			if err := conn.WriteMessage(websocket.TextMessage, line); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

// MirrorEvent fans a single already-encoded event line out to every
// connected /debug/events client. The core loop's Publish wrapper calls
// this alongside ipc.Manager.Publish when a DebugServer is configured.
func (d *DebugServer) MirrorEvent(line []byte) {
	d.mirrorMu.Lock()
	defer d.mirrorMu.Unlock()
	for _, ch := range d.mirrors {
		select {
		case ch <- line:
		default:
		}
	}
}
