package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/wintoggle/internal/platform"
)

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically compares the state table with the live client
// list. Destroy and focus events can be missed (e.g. while the daemon was
// down), which leaves stale rows behind.
type Reconciler struct {
	interval time.Duration
	svc      *Service
	events   platform.WindowEvents
	logger   *slog.Logger
}

// NewReconciler creates a reconciler. events receives the synthesized
// destroy and focus events.
func NewReconciler(cfg ReconcilerConfig, svc *Service, events platform.WindowEvents) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		interval: interval,
		svc:      svc,
		events:   events,
		logger:   logger,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile()
		}
	}
}

// reconcile performs a single reconciliation pass.
func (r *Reconciler) reconcile() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	windows, err := r.svc.wm.ListWindows()
	if err != nil {
		r.logger.Error("reconciler: failed to list windows", "error", err)
		return
	}

	live := make(map[platform.WindowID]bool, len(windows))
	for _, w := range windows {
		live[w.ID] = true
	}

	for _, id := range r.svc.table.IDs() {
		if !live[id] {
			r.logger.Info("reconciler: dropping state of vanished window", "window_id", id)
			r.events.WindowDestroyed(id)
		}
	}

	active, err := r.svc.wm.CurrentWindow()
	if err != nil || active.ID == platform.NoWindow {
		return
	}
	if current, ok := r.svc.table.Current(); !ok || current != active.ID || !r.svc.table.Has(active.ID) {
		r.events.FocusChanged(active.ID)
	}
}

// ReconcileNow triggers an immediate reconciliation pass.
func (r *Reconciler) ReconcileNow() {
	r.reconcile()
}
