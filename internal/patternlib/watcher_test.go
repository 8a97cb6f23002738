package patternlib

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/covtrace/internal/temporal"
)

const watcherFixture = `
patterns:
  - id: pat-1
    name: At-risk deterioration
    entryState: at_risk
    expectedOutcome: negative
    severity: high
    meanDurationDays: 20
    completionProbability: 80
`

// callbackRecorder collects watcher callback invocations.
type callbackRecorder struct {
	mu    sync.Mutex
	calls [][]temporal.CausalPattern
}

func (r *callbackRecorder) record(patterns []temporal.CausalPattern) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, patterns)
	return nil
}

func (r *callbackRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *callbackRecorder) last() []temporal.CausalPattern {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

func TestNewWatcherValidation(t *testing.T) {
	_, err := NewWatcher(WatcherConfig{}, func([]temporal.CausalPattern) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FilePath")

	_, err = NewWatcher(WatcherConfig{FilePath: "patterns.yaml"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "callback")
}

func TestWatcherInitialLoad(t *testing.T) {
	path := writePatterns(t, watcherFixture)
	rec := &callbackRecorder{}

	w, err := NewWatcher(WatcherConfig{FilePath: path, DebounceMillis: 50}, rec.record)
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.Equal(t, 1, rec.count())
	require.Len(t, rec.last(), 1)
	assert.Equal(t, "pat-1", rec.last()[0].ID)
}

func TestWatcherStartFailsOnInvalidFile(t *testing.T) {
	path := writePatterns(t, "patterns: [unclosed")
	rec := &callbackRecorder{}

	w, err := NewWatcher(WatcherConfig{FilePath: path}, rec.record)
	require.NoError(t, err)

	err = w.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial pattern library")
	assert.Zero(t, rec.count())
}

func TestWatcherReloadOnChange(t *testing.T) {
	path := writePatterns(t, watcherFixture)
	rec := &callbackRecorder{}

	w, err := NewWatcher(WatcherConfig{FilePath: path, DebounceMillis: 20}, rec.record)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	updated := watcherFixture + `
  - id: pat-2
    name: Waiver recovery
    entryState: waived
    expectedOutcome: positive
    meanDurationDays: 45
    completionProbability: 60
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	require.Eventually(t, func() bool {
		return rec.count() >= 2 && len(rec.last()) == 2
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatcherKeepsPreviousOnInvalidReload(t *testing.T) {
	path := writePatterns(t, watcherFixture)
	rec := &callbackRecorder{}

	w, err := NewWatcher(WatcherConfig{FilePath: path, DebounceMillis: 20}, rec.record)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("patterns: [unclosed"), 0o644))

	// The invalid write never reaches the callback.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestWatcherStop(t *testing.T) {
	path := writePatterns(t, watcherFixture)
	rec := &callbackRecorder{}

	w, err := NewWatcher(WatcherConfig{FilePath: path}, rec.record)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}
