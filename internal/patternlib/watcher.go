package patternlib

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ledgerline/covtrace/internal/logging"
	"github.com/ledgerline/covtrace/internal/temporal"
)

// ReloadCallback is called when the pattern file is successfully
// reloaded. A callback error is logged but the watcher keeps watching.
type ReloadCallback func(patterns []temporal.CausalPattern) error

// WatcherConfig holds configuration for the pattern file watcher.
type WatcherConfig struct {
	// FilePath is the pattern YAML file to watch.
	FilePath string

	// DebounceMillis coalesces bursts of file change events (editor save
	// sequences, atomic writes) into a single reload. Default 500ms.
	DebounceMillis int
}

// Watcher watches the pattern library file and triggers reload callbacks
// with debouncing. An invalid file during reload is logged and skipped;
// the previously loaded library stays active.
type Watcher struct {
	config   WatcherConfig
	callback ReloadCallback
	logger   *logging.Logger
	cancel   context.CancelFunc
	stopped  chan struct{}
	ready    chan struct{}
	mu       sync.Mutex

	debounceTimer *time.Timer
}

// NewWatcher creates a watcher for the given pattern file.
func NewWatcher(config WatcherConfig, callback ReloadCallback) (*Watcher, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("FilePath cannot be empty")
	}
	if callback == nil {
		return nil, fmt.Errorf("callback cannot be nil")
	}
	if config.DebounceMillis == 0 {
		config.DebounceMillis = 500
	}

	return &Watcher{
		config:   config,
		callback: callback,
		logger:   logging.GetLogger("patternlib.watcher"),
		stopped:  make(chan struct{}),
		ready:    make(chan struct{}),
	}, nil
}

// Start loads the initial library, invokes the callback with it, and then
// watches for file changes until Stop is called or the context ends.
// It returns once the underlying file watch is established.
func (w *Watcher) Start(ctx context.Context) error {
	initial, err := Load(w.config.FilePath)
	if err != nil {
		return fmt.Errorf("failed to load initial pattern library: %w", err)
	}
	if err := w.callback(initial); err != nil {
		return fmt.Errorf("initial callback failed: %w", err)
	}

	w.logger.Info("loaded %d patterns from %s", len(initial), w.config.FilePath)

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	go w.watchLoop(watchCtx)

	select {
	case <-w.ready:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for file watcher to initialize")
	}
	return nil
}

// Stop cancels the watch loop and waits for it to exit.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	<-w.stopped
}

// signalReady closes the ready channel exactly once.
func (w *Watcher) signalReady() {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.ready:
	default:
		close(w.ready)
	}
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.stopped)
	defer w.signalReady()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(w.config.FilePath); err != nil {
		w.logger.Error("failed to watch %s: %v", w.config.FilePath, err)
		return
	}

	w.logger.Info("watching %s for changes (debounce: %dms)", w.config.FilePath, w.config.DebounceMillis)
	w.signalReady()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}

			// Atomic writes unlink the old file before renaming the new
			// one into place; the watch follows the old inode and must be
			// re-added.
			if event.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				time.Sleep(50 * time.Millisecond)
				if err := watcher.Add(w.config.FilePath); err != nil {
					w.logger.Warn("failed to re-add watch after %s: %v", event.Op, err)
				}
			}
			w.handleFileChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error: %v", err)
		}
	}
}

// handleFileChange debounces by resetting a timer on each event.
func (w *Watcher) handleFileChange() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(
		time.Duration(w.config.DebounceMillis)*time.Millisecond,
		w.reload,
	)
}

// reload re-reads the pattern file and calls the callback on success.
func (w *Watcher) reload() {
	patterns, err := Load(w.config.FilePath)
	if err != nil {
		w.logger.Warn("failed to reload pattern library (keeping previous): %v", err)
		return
	}

	if err := w.callback(patterns); err != nil {
		w.logger.Error("reload callback failed: %v", err)
		return
	}

	w.logger.Info("reloaded %d patterns from %s", len(patterns), w.config.FilePath)
}
