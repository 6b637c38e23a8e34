// Package watch observes the desktop: filesystem changes under the monitored
// directory and foreground window focus changes.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/thebtf/lifelog/internal/recorder"
	"github.com/thebtf/lifelog/pkg/models"
)

// Sink receives observed activity events.
type Sink interface {
	Record(ctx context.Context, ev recorder.Event) (*models.ActivityRecord, error)
}

// FileWatcher watches a directory tree and reports file creations and
// modifications as file edit events. Every notification becomes one event;
// editors that write in bursts produce one record per write.
type FileWatcher struct {
	root    string
	sink    Sink
	watcher *fsnotify.Watcher
	log     zerolog.Logger
}

// NewFileWatcher creates a watcher rooted at dir. The tree is walked and
// every subdirectory registered; directories created later are registered as
// they appear.
func NewFileWatcher(dir string, sink Sink, log zerolog.Logger) (*FileWatcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &FileWatcher{
		root:    dir,
		sink:    sink,
		watcher: fsw,
		log:     log.With().Str("component", "file_watcher").Logger(),
	}
	if err := w.addTree(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *FileWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.log.Warn().Err(err).Str("path", path).Msg("skipping unreadable path")
			return nil
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				w.log.Warn().Err(err).Str("path", path).Msg("failed to watch directory")
			}
		}
		return nil
	})
}

// Run processes filesystem events until ctx is cancelled.
func (w *FileWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	w.log.Info().Str("dir", w.root).Msg("watching for file changes")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *FileWatcher) handle(ctx context.Context, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(ev.Name)
	if err != nil {
		return // deleted or moved before we got here
	}

	if info.IsDir() {
		if ev.Has(fsnotify.Create) {
			if err := w.addTree(ev.Name); err != nil {
				w.log.Warn().Err(err).Str("path", ev.Name).Msg("failed to watch new directory")
			}
		}
		return
	}

	if _, err := w.sink.Record(ctx, recorder.FileEditEvent{Path: ev.Name}); err != nil {
		w.log.Error().Err(err).Str("path", ev.Name).Msg("failed to record file edit")
	}
}
