package watch

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/thebtf/lifelog/internal/recorder"
)

// WindowInfo describes the currently focused window.
type WindowInfo struct {
	App   string
	Title string
	URL   string
}

// Inspector reads the currently focused window from the desktop environment.
type Inspector interface {
	ActiveWindow(ctx context.Context) (WindowInfo, error)
}

// WindowWatcher polls the inspector and records a window focus event for
// every sample with a focused window, repeats included. The aggregation
// layer counts poll samples, so each tick contributes one record.
type WindowWatcher struct {
	inspector Inspector
	sink      Sink
	log       zerolog.Logger
	interval  time.Duration
}

// NewWindowWatcher creates a poller with the given sample interval.
func NewWindowWatcher(inspector Inspector, sink Sink, interval time.Duration, log zerolog.Logger) *WindowWatcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &WindowWatcher{
		inspector: inspector,
		sink:      sink,
		log:       log.With().Str("component", "window_watcher").Logger(),
		interval:  interval,
	}
}

// Run polls until ctx is cancelled.
func (w *WindowWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info().Dur("interval", w.interval).Msg("watching window focus")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.sample(ctx)
		}
	}
}

func (w *WindowWatcher) sample(ctx context.Context) {
	info, err := w.inspector.ActiveWindow(ctx)
	if err != nil {
		w.log.Debug().Err(err).Msg("failed to inspect active window")
		return
	}
	if info.App == "" {
		return
	}

	ev := recorder.WindowFocusEvent{App: info.App, Title: info.Title, URL: info.URL}
	if _, err := w.sink.Record(ctx, ev); err != nil {
		w.log.Error().Err(err).Str("app", info.App).Msg("failed to record focus change")
	}
}
