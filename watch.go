package strata

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchQuietPeriod = 50 * time.Millisecond

// A Watcher tracks a durably written document and reloads it when the file
// is replaced. In-progress and backup siblings (P~1, P~2) are ignored, so
// only a completed replace triggers a reload.
type Watcher struct {
	path    string
	opts    []Option
	fsw     *fsnotify.Watcher
	log     *slog.Logger
	updates chan *Section
	done    chan struct{}
}

// Watch starts watching path. Fresh trees are delivered on Updates until ctx
// is canceled or Close is called. Reload failures are logged and skipped; a
// later successful replace delivers again.
func Watch(ctx context.Context, path string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("strata: create watcher: %w", err)
	}
	// Watch the directory: the replace protocol renames over the file, which
	// drops a watch placed on the file itself.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("strata: watch %s: %w", path, err)
	}

	w := &Watcher{
		path:    path,
		opts:    opts,
		fsw:     fsw,
		log:     slog.Default().With("component", "strata.watcher", "path", path),
		updates: make(chan *Section, 1),
		done:    make(chan struct{}),
	}
	go w.run(ctx)
	return w, nil
}

// Updates delivers reloaded trees. The channel closes when the watcher
// stops.
func (w *Watcher) Updates() <-chan *Section {
	return w.updates
}

// Close stops the watcher and releases its filesystem handle.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	defer close(w.updates)

	var quiet *time.Timer
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			w.fsw.Close()
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			// Debounce: a replace emits several events back to back.
			if quiet == nil {
				quiet = time.NewTimer(watchQuietPeriod)
			} else {
				quiet.Reset(watchQuietPeriod)
			}
			pending = quiet.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "err", err)
		case <-pending:
			pending = nil
			w.reload()
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Name != w.path {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename)
}

func (w *Watcher) reload() {
	sec, err := ReadFile(w.path, w.opts...)
	if err != nil {
		w.log.Warn("reload failed", "err", err)
		return
	}
	// Keep only the freshest tree when the consumer lags.
	select {
	case <-w.updates:
	default:
	}
	w.updates <- sec
}
