package notify

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/mirrord/internal/model"
)

type recordingNotifier struct {
	mu        sync.Mutex
	summaries []model.RunSummary
	failures  []string
	started   int
	stopped   int
	delay     time.Duration
}

func (r *recordingNotifier) PassCompleted(s model.RunSummary) {
	time.Sleep(r.delay)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, s)
}

func (r *recordingNotifier) PairFailed(p model.BackupPair, res model.RunResult) {
	time.Sleep(r.delay)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, p.ID)
}

func (r *recordingNotifier) DaemonStarted(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}

func (r *recordingNotifier) DaemonStopped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped++
}

func TestLogNotifier_PassCompletedLevels(t *testing.T) {
	tests := []struct {
		name    string
		summary model.RunSummary
		level   string
	}{
		{"all succeeded", model.RunSummary{Attempted: 2, Succeeded: 2}, "info"},
		{"warnings", model.RunSummary{Attempted: 2, Succeeded: 1, Warned: 1}, "warn"},
		{"failures", model.RunSummary{Attempted: 2, Failed: 1}, "error"},
		{"cancelled", model.RunSummary{Attempted: 2, Cancelled: 1}, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			n := NewLogNotifier(zerolog.New(&buf))
			n.PassCompleted(tt.summary)
			assert.Contains(t, buf.String(), `"level":"`+tt.level+`"`)
			assert.Contains(t, buf.String(), "backup pass completed")
		})
	}
}

func TestLogNotifier_PairFailed(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))
	n.PairFailed(
		model.BackupPair{ID: "p1", Name: "documents"},
		model.RunResult{ExitCode: 16, Message: "copy failed (exit code 16)"},
	)
	assert.Contains(t, buf.String(), `"pair":"p1"`)
	assert.Contains(t, buf.String(), "documents")
	assert.Contains(t, buf.String(), "backup pair failed")
}

func TestAsync_DeliversInOrder(t *testing.T) {
	rec := &recordingNotifier{}
	a := NewAsync(zerolog.Nop(), rec, 16)

	a.DaemonStarted(time.Minute)
	a.PairFailed(model.BackupPair{ID: "p1"}, model.RunResult{})
	a.PassCompleted(model.RunSummary{Attempted: 1})
	a.DaemonStopped()
	a.Close()

	require.Len(t, rec.summaries, 1)
	assert.Equal(t, 1, rec.summaries[0].Attempted)
	assert.Equal(t, []string{"p1"}, rec.failures)
	assert.Equal(t, 1, rec.started)
	assert.Equal(t, 1, rec.stopped)
}

func TestAsync_NeverBlocksWhenSinkIsSlow(t *testing.T) {
	rec := &recordingNotifier{delay: time.Second}
	a := NewAsync(zerolog.Nop(), rec, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			a.PassCompleted(model.RunSummary{Attempted: i})
		}
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("enqueue blocked on a slow sink")
	}
}
