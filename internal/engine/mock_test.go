package engine

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edvin/mirrord/internal/model"
)

// fakeRunner returns canned results and records invocation order. A non-zero
// delay simulates a long copy that still honors cancellation.
type fakeRunner struct {
	mu      sync.Mutex
	calls   []string
	results map[string]model.RunResult
	delay   time.Duration

	// When set, each invocation asserts the single-Running invariant.
	store *StateStore
	t     *testing.T
}

func (f *fakeRunner) Run(ctx context.Context, pair model.BackupPair, opts model.CopyOptions) model.RunResult {
	f.mu.Lock()
	f.calls = append(f.calls, pair.ID)
	f.mu.Unlock()

	if f.store != nil {
		if got := f.store.RunningCount(); got != 1 {
			f.t.Errorf("expected exactly 1 running pair during a copy, got %d", got)
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return model.RunResult{
				PairID:    pair.ID,
				Outcome:   model.OutcomeCancelled,
				ExitCode:  -1,
				StartedAt: time.Now(),
				Message:   "stopped by user",
			}
		}
	}

	if res, ok := f.results[pair.ID]; ok {
		res.PairID = pair.ID
		res.StartedAt = time.Now()
		return res
	}
	return model.RunResult{
		PairID:      pair.ID,
		Outcome:     model.OutcomeSuccess,
		ExitCode:    1,
		FilesCopied: 1,
		BytesCopied: 100,
		StartedAt:   time.Now(),
	}
}

func (f *fakeRunner) callOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeNotifier records engine events.
type fakeNotifier struct {
	mu        sync.Mutex
	summaries []model.RunSummary
	failures  []string
	started   int
	stopped   int
}

func (f *fakeNotifier) PassCompleted(s model.RunSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, s)
}

func (f *fakeNotifier) PairFailed(p model.BackupPair, _ model.RunResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, p.ID)
}

func (f *fakeNotifier) DaemonStarted(time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
}

func (f *fakeNotifier) DaemonStopped() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
}

func (f *fakeNotifier) passCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.summaries)
}

func (f *fakeNotifier) lastSummary() (model.RunSummary, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.summaries) == 0 {
		return model.RunSummary{}, false
	}
	return f.summaries[len(f.summaries)-1], true
}

func (f *fakeNotifier) startedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

func (f *fakeNotifier) stoppedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func (f *fakeNotifier) failedPairs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.failures...)
}

// testPair creates a pair whose source directory really exists so the
// pipeline's fast-fail check passes.
func testPair(t *testing.T, id string, priority int, enabled bool) model.BackupPair {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(src, 0755))
	return model.BackupPair{
		ID:          id,
		Source:      src,
		Destination: filepath.Join(root, "dst"),
		Enabled:     enabled,
		Priority:    priority,
	}
}
