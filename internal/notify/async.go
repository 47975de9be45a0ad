package notify

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/mirrord/internal/model"
)

// Async decouples a slow or unavailable sink from the pipeline. Events are
// buffered and delivered by a dedicated goroutine; when the buffer is full
// the event is dropped with a warning rather than blocking the caller.
type Async struct {
	logger zerolog.Logger
	next   Notifier
	events chan func()
	done   chan struct{}
}

// NewAsync wraps next with a buffered asynchronous delivery queue.
func NewAsync(logger zerolog.Logger, next Notifier, buffer int) *Async {
	a := &Async{
		logger: logger.With().Str("component", "notify-queue").Logger(),
		next:   next,
		events: make(chan func(), buffer),
		done:   make(chan struct{}),
	}
	go a.deliver()
	return a
}

func (a *Async) deliver() {
	defer close(a.done)
	for fn := range a.events {
		fn()
	}
}

// Close drains pending events and stops the delivery goroutine.
func (a *Async) Close() {
	close(a.events)
	<-a.done
}

func (a *Async) enqueue(fn func()) {
	select {
	case a.events <- fn:
	default:
		a.logger.Warn().Msg("notification queue full, event dropped")
	}
}

func (a *Async) PassCompleted(summary model.RunSummary) {
	a.enqueue(func() { a.next.PassCompleted(summary) })
}

func (a *Async) PairFailed(pair model.BackupPair, result model.RunResult) {
	a.enqueue(func() { a.next.PairFailed(pair, result) })
}

func (a *Async) DaemonStarted(interval time.Duration) {
	a.enqueue(func() { a.next.DaemonStarted(interval) })
}

func (a *Async) DaemonStopped() {
	a.enqueue(func() { a.next.DaemonStopped() })
}
