// Package notify shows toggle changes to the user.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Title heads every toggle notification.
const Title = "Window style toggle"

// Notification is a single message.
type Notification struct {
	Title   string
	Message string
}

// Notifier displays notifications. id groups related notifications so a new
// one replaces the previous one with the same id where the backend allows it.
type Notifier interface {
	Notify(ctx context.Context, id string, n Notification) error
}

// Options configures New.
type Options struct {
	// Backend is "auto", "dbus" or "log".
	Backend   string
	AppName   string
	TimeoutMS int
	Logger    *slog.Logger
}

// New returns the notifier selected by opts.Backend. "auto" tries the desktop
// notification service and falls back to the log.
func New(opts Options) (Notifier, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", "auto":
		n, err := NewDBus(opts.AppName, opts.TimeoutMS)
		if err != nil {
			opts.Logger.Info("desktop notifications unavailable, logging instead", "error", err)
			return NewLog(opts.Logger), nil
		}
		return n, nil
	case "dbus":
		return NewDBus(opts.AppName, opts.TimeoutMS)
	case "log":
		return NewLog(opts.Logger), nil
	default:
		return nil, fmt.Errorf("unknown notification backend: %s", opts.Backend)
	}
}

// Log writes notifications to a logger.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Notify(ctx context.Context, id string, n Notification) error {
	l.logger.InfoContext(ctx, n.Message, "notification", id, "title", n.Title)
	return nil
}
