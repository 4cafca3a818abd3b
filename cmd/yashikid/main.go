package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/yashiki/yashikid/internal/hotkey"
	"github.com/yashiki/yashikid/internal/ipc"
	"github.com/yashiki/yashikid/internal/layout"
	"github.com/yashiki/yashikid/internal/loop"
	"github.com/yashiki/yashikid/internal/platform"
	"github.com/yashiki/yashikid/internal/wm"
	"github.com/yashiki/yashikid/pkg/config"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Daemon owns every long-lived component Run constructs, so
// WaitForShutdown can stop them in the right order.
type Daemon struct {
	logger *logrus.Logger
	tracer trace.Tracer

	cfg *config.Config

	ipcMgr   *ipc.Manager
	debug    *ipc.DebugServer
	layouts  *layout.Manager
	hotkeys  *hotkey.Manager
	coreLoop *loop.Loop

	cancel context.CancelFunc
	done   chan struct{}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "yashikid",
		Short: "yashikid tiling window manager daemon",
		Long:  "yashikid is a single-process tiling window manager daemon: it owns window/display state, drives an external layout engine per display, and exposes a Unix-socket command/event protocol.",
		Run:   runDaemon,
	}

	rootCmd.Flags().String("config", "", "config file (default: searches ./configs, ., /etc/yashikid, $HOME/.yashikid)")
	rootCmd.Flags().String("environment", "development", "environment name, also selects <environment>.yaml")
	rootCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().String("command-socket", "", "override ipc.command_socket")
	rootCmd.Flags().String("event-socket", "", "override ipc.event_socket")
	rootCmd.Flags().Bool("debug-http", false, "enable the loopback debug HTTP surface (/metrics, /healthz, /debug/events)")
	rootCmd.Flags().String("debug-addr", "", "override debug.addr")

	if err := viper.BindPFlags(rootCmd.Flags()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	logger := initLogger(cfg)
	logger.WithFields(logrus.Fields{
		"version": Version,
		"commit":  Commit,
		"built":   BuildTime,
	}).Info("yashikid starting")

	d, err := New(logger, cfg)
	if err != nil {
		logger.WithError(err).Fatal("failed to build daemon")
	}

	if err := d.Start(); err != nil {
		logger.WithError(err).Fatal("failed to start daemon")
	}

	d.WaitForShutdown()
}

func loadConfig() *config.Config {
	environment := viper.GetString("environment")
	if environment == "" {
		environment = "development"
	}

	mgr := config.NewManager(environment, viper.GetString("config"))
	cfg, err := mgr.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if v := viper.GetString("command-socket"); v != "" {
		cfg.IPC.CommandSocketPath = v
	}
	if v := viper.GetString("event-socket"); v != "" {
		cfg.IPC.EventSocketPath = v
	}
	if viper.GetBool("debug-http") {
		cfg.Debug.Enabled = true
	}
	if v := viper.GetString("debug-addr"); v != "" {
		cfg.Debug.Addr = v
	}
	if v := viper.GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}

	mgr.WatchConfig(func() {
		logrus.StandardLogger().Warn("config file changed on disk; restart yashikid to apply it")
	})

	return cfg
}

func initLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	}

	return logger
}

// New wires every component the core loop needs, without starting any
// of them.
func New(logger *logrus.Logger, cfg *config.Config) (*Daemon, error) {
	ws := platform.NewNoopWindowSystem(logger)
	manipulator := platform.NewNoopWindowManipulator(logger)

	layouts := layout.NewManager(logger, cfg.Layout.ExecPath)
	hotkeys := hotkey.NewManager(logger, hotkey.NewNoopTap())

	ipcMgr := ipc.NewManager(logger, ipc.Config{
		CommandSocketPath: cfg.IPC.CommandSocketPath,
		EventSocketPath:   cfg.IPC.EventSocketPath,
		CommandRatePerSec: cfg.IPC.CommandRatePerSec,
		CommandBurst:      cfg.IPC.CommandBurst,
	})

	debug, err := ipc.NewDebugServer(logger, ipc.DebugConfig{
		Enabled: cfg.Debug.Enabled,
		Addr:    cfg.Debug.Addr,
	}, ipcMgr)
	if err != nil {
		return nil, fmt.Errorf("build debug server: %w", err)
	}

	state := wm.NewState()
	state.DefaultLayout = cfg.Layout.DefaultLayout
	state.OuterGap = wm.Gap{
		Top:    cfg.WM.OuterGap.Top,
		Right:  cfg.WM.OuterGap.Right,
		Bottom: cfg.WM.OuterGap.Bottom,
		Left:   cfg.WM.OuterGap.Left,
	}
	state.CursorWarp = parseCursorWarp(cfg.WM.CursorWarp)

	coreLoop := loop.New(logger, state, ws, manipulator, layouts, hotkeys, &mirroringIPC{Manager: ipcMgr, debug: debug, logger: logger})

	return &Daemon{
		logger:   logger,
		tracer:   otel.Tracer("yashikid"),
		cfg:      cfg,
		ipcMgr:   ipcMgr,
		debug:    debug,
		layouts:  layouts,
		hotkeys:  hotkeys,
		coreLoop: coreLoop,
		done:     make(chan struct{}),
	}, nil
}

// mirroringIPC wraps ipc.Manager so every published event is also
// fanned out to the debug server's /debug/events websocket mirror,
// when the debug surface is enabled.
type mirroringIPC struct {
	*ipc.Manager
	debug  *ipc.DebugServer
	logger *logrus.Logger
}

func (m *mirroringIPC) Publish(events []wm.StateEvent) {
	m.Manager.Publish(events)
	for _, ev := range events {
		line, err := ipc.EncodeEvent(ev)
		if err != nil {
			m.logger.WithError(err).Warn("failed to encode event for debug mirror")
			continue
		}
		m.debug.MirrorEvent(line)
	}
}

func parseCursorWarp(mode string) wm.CursorWarpMode {
	switch mode {
	case "on-output-change":
		return wm.CursorWarpOnOutputChange
	case "on-focus-change":
		return wm.CursorWarpOnFocusChange
	default:
		return wm.CursorWarpDisabled
	}
}

// Start brings every component up, in dependency order, and runs the
// core loop on its own goroutine.
func (d *Daemon) Start() error {
	ctx := context.Background()

	if err := writePIDFile(d.cfg.PIDFile); err != nil {
		d.logger.WithError(err).Warn("failed to write pid file")
	}

	if err := d.layouts.Start(ctx); err != nil {
		return fmt.Errorf("start layout manager: %w", err)
	}
	if err := d.hotkeys.Start(ctx); err != nil {
		return fmt.Errorf("start hotkey manager: %w", err)
	}
	if err := d.ipcMgr.Start(ctx); err != nil {
		return fmt.Errorf("start ipc manager: %w", err)
	}
	if err := d.debug.Start(ctx); err != nil {
		return fmt.Errorf("start debug server: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go func() {
		defer close(d.done)
		if err := d.coreLoop.Run(loopCtx); err != nil && err != context.Canceled {
			d.logger.WithError(err).Warn("core loop exited with error")
		}
	}()

	d.logger.WithFields(logrus.Fields{
		"command_socket": d.cfg.IPC.CommandSocketPath,
		"event_socket":   d.cfg.IPC.EventSocketPath,
	}).Info("yashikid started successfully")
	return nil
}

// WaitForShutdown blocks until SIGINT/SIGTERM, then tears everything
// down in reverse start order.
func (d *Daemon) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	d.logger.Info("shutting down yashikid...")

	ctx, cancelTimeout := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelTimeout()

	d.cancel()
	select {
	case <-d.done:
	case <-ctx.Done():
		d.logger.Warn("core loop did not stop within the shutdown deadline")
	}

	if err := d.debug.Stop(ctx); err != nil {
		d.logger.WithError(err).Error("failed to stop debug server")
	}
	if err := d.ipcMgr.Stop(ctx); err != nil {
		d.logger.WithError(err).Error("failed to stop ipc manager")
	}
	if err := d.hotkeys.Stop(ctx); err != nil {
		d.logger.WithError(err).Error("failed to stop hotkey manager")
	}
	if err := d.layouts.Stop(ctx); err != nil {
		d.logger.WithError(err).Error("failed to stop layout manager")
	}

	_ = os.Remove(d.cfg.PIDFile)
	d.logger.Info("yashikid shutdown complete")
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}
