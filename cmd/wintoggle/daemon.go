package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/1broseidon/wintoggle/internal/config"
	"github.com/1broseidon/wintoggle/internal/daemon"
	"github.com/1broseidon/wintoggle/internal/hotkeys"
	"github.com/1broseidon/wintoggle/internal/ipc"
	"github.com/1broseidon/wintoggle/internal/notify"
	"github.com/1broseidon/wintoggle/internal/palette"
	"github.com/1broseidon/wintoggle/internal/platform"
	"github.com/1broseidon/wintoggle/internal/storage"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the toggle daemon in the foreground",
	Long: `Run the toggle daemon in the foreground.

The daemon tracks windows on the X display, keeps each window's title
preface in sync with its toggles, grabs the configured hotkeys and serves
the IPC socket the other commands talk to.

SIGHUP reloads settings and config. SIGINT and SIGTERM stop the daemon.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func openStore(cfg *config.Config) (storage.Store, func(), error) {
	path := cfg.DatabasePath()
	if path == config.MemoryDatabase {
		return storage.NewMemory(), func() {}, nil
	}
	store, err := storage.OpenSQLite(path)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

func applyDisplayEnv(cfg *config.Config) {
	if cfg.Display != "" {
		os.Setenv("DISPLAY", cfg.Display)
	}
	if cfg.XAuthority != "" {
		os.Setenv("XAUTHORITY", cfg.XAuthority)
	}
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	res, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := res.Config
	logger := newLogger(os.Stderr, cfg.SlogLevel())
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "path", res.Path, "files", len(res.Files), "database", cfg.DatabasePath())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeStore()

	applyDisplayEnv(cfg)
	backend, err := platform.NewLinuxBackendFromDisplay(logger)
	if err != nil {
		return fmt.Errorf("failed to connect to display: %w", err)
	}
	defer backend.Disconnect()

	notifier, err := notify.New(notify.Options{
		Backend:   cfg.Notifications.Backend,
		AppName:   cfg.Notifications.AppName,
		TimeoutMS: cfg.Notifications.TimeoutMS,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	if c, ok := notifier.(io.Closer); ok {
		defer c.Close()
	}

	var popup daemon.Popup
	if pb, err := palette.NewBackend(cfg.PaletteBackend); err != nil {
		logger.Warn("popup unavailable; clicks with several toggles will fail", "error", err)
	} else {
		popup = palette.NewTogglePopup(pb)
	}

	svc, loaded, err := daemon.New(ctx, daemon.Options{
		Store:              store,
		WindowManager:      backend,
		Notifier:           notifier,
		Publisher:          backend,
		Popup:              popup,
		PersistWindowState: cfg.PersistWindowState,
		Logger:             logger,
	})
	if err != nil {
		return fmt.Errorf("failed to start toggle service: %w", err)
	}
	if loaded.FirstRun {
		logger.Info("settings initialized with defaults; run 'wintoggle setup' to edit them")
	}

	events := svc.Events(ctx)
	if err := backend.Watch(events); err != nil {
		return fmt.Errorf("failed to watch windows: %w", err)
	}
	svc.Start(ctx)

	hotkeyHandler := hotkeys.NewHandler(backend)
	dispatch := func(command string) {
		if command == hotkeys.ButtonCommand {
			if _, err := svc.Click(ctx); err != nil {
				logger.Warn("button failed", "error", err)
			}
			return
		}
		if _, _, err := svc.ApplyCommand(ctx, command, nil); err != nil {
			logger.Warn("hotkey command failed", "command", command, "error", err)
		}
	}
	bindHotkeys := func(cfg *config.Config) {
		bindings := hotkeys.Build(cfg.ButtonHotkey, cfg.ClearHotkey, cfg.Hotkeys)
		if err := hotkeyHandler.Bind(bindings, dispatch); err != nil {
			logger.Warn("some hotkeys were not registered", "error", err)
		}
		logger.Info("hotkeys registered", "count", len(hotkeyHandler.Active()))
	}
	bindHotkeys(cfg)

	reloadChan := make(chan struct{}, 1)
	ipcServer, err := ipc.NewServer(svc, reloadChan, logger)
	if err != nil {
		return fmt.Errorf("failed to create IPC server: %w", err)
	}
	if err := ipcServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start IPC server: %w", err)
	}
	defer ipcServer.Stop()

	// Restored rows may belong to windows that closed while the daemon was down.
	reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
		Interval: time.Duration(cfg.ReconcileIntervalSeconds) * time.Second,
		Logger:   logger,
	}, svc, events)
	reconciler.ReconcileNow()
	if cfg.ReconcileIntervalSeconds > 0 {
		go reconciler.Run(ctx)
	}

	configChanged := make(chan struct{}, 1)
	if cfg.WatchConfig {
		watcher, err := config.NewWatcher(res.Path, 0, func() {
			select {
			case configChanged <- struct{}{}:
			default:
			}
		}, logger)
		if err != nil {
			logger.Warn("config watching disabled", "error", err)
		} else {
			go watcher.Run(ctx)
		}
	}

	reloadConfig := func() {
		next, err := config.LoadFromPath(res.Path)
		if err != nil {
			logger.Error("config reload failed", "error", err)
			return
		}
		if next.Config.DatabasePath() != cfg.DatabasePath() || next.Config.PaletteBackend != cfg.PaletteBackend {
			logger.Warn("database and palette_backend changes take effect after a restart")
		}
		cfg = next.Config
		bindHotkeys(cfg)
		logger.Info("config reloaded")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	go func() {
		for {
			select {
			case sig := <-sigCh:
				if sig == syscall.SIGHUP {
					logger.Info("received SIGHUP, reloading")
					if err := svc.Reload(ctx); err != nil {
						logger.Error("settings reload failed", "error", err)
					}
					reloadConfig()
					continue
				}
				logger.Info("shutting down", "signal", sig.String())
				cancel()
				backend.Quit()
				return
			case <-reloadChan:
				reloadConfig()
			case <-configChanged:
				reloadConfig()
			case <-ctx.Done():
				return
			}
		}
	}()

	logger.Info("entering event loop")
	backend.EventLoop()
	return nil
}
