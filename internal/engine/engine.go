package engine

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/mirrord/internal/config"
	"github.com/edvin/mirrord/internal/model"
	"github.com/edvin/mirrord/internal/notify"
)

// Commands accepted on the engine's command bus.
const (
	cmdStartDaemon = "start_daemon"
	cmdStopDaemon  = "stop_daemon"
	cmdRunNow      = "run_now"
	cmdReload      = "reload_config"
	cmdShutdown    = "shutdown"
)

const commandBuffer = 16

// Engine owns the daemon scheduler and the execution pipeline. A single
// control goroutine consumes the command bus and the interval timer, so
// timer-fired and user-triggered passes never race; at most one pass is in
// flight at any time. All command methods are non-blocking and safe to call
// from any goroutine.
type Engine struct {
	logger     zerolog.Logger
	notifier   notify.Notifier
	loadConfig func() (*config.Config, error)

	store    *StateStore
	pipeline *Pipeline
	commands chan string

	mu       sync.Mutex
	cfg      *config.Config
	running  bool
	inPass   bool
	nextFire time.Time
}

// New creates an engine over the given configuration snapshot. loadConfig is
// invoked on ReloadConfig commands; a failed reload keeps the previous
// configuration.
func New(
	logger zerolog.Logger,
	cfg *config.Config,
	runner PairRunner,
	notifier notify.Notifier,
	loadConfig func() (*config.Config, error),
) *Engine {
	store := NewStateStore()
	store.Reset(cfg.Pairs)

	return &Engine{
		logger:     logger.With().Str("component", "engine").Logger(),
		notifier:   notifier,
		loadConfig: loadConfig,
		store:      store,
		pipeline:   NewPipeline(logger, runner, store, notifier),
		commands:   make(chan string, commandBuffer),
		cfg:        cfg,
	}
}

// StartDaemon arms the background scheduler.
func (e *Engine) StartDaemon() { e.send(cmdStartDaemon) }

// StopDaemon disarms the scheduler and aborts an in-flight pass.
func (e *Engine) StopDaemon() { e.send(cmdStopDaemon) }

// RunNow triggers an immediate pass. A no-op while a pass is in flight.
func (e *Engine) RunNow() { e.send(cmdRunNow) }

// ReloadConfig re-reads the configuration. Applied after the current pass
// completes; an in-flight pass keeps its snapshot.
func (e *Engine) ReloadConfig() { e.send(cmdReload) }

// Shutdown aborts any in-flight pass and makes Run return.
func (e *Engine) Shutdown() { e.send(cmdShutdown) }

func (e *Engine) send(cmd string) {
	select {
	case e.commands <- cmd:
	default:
		// A full bus means equivalent commands are already queued.
		e.logger.Warn().Str("command", cmd).Msg("command bus full, command dropped")
	}
}

// Store exposes the state store's read API.
func (e *Engine) Store() *StateStore { return e.store }

// Config returns the current configuration snapshot. The returned value is
// never mutated in place; reloads swap the pointer.
func (e *Engine) Config() *config.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// DaemonState reports the scheduler state for display.
func (e *Engine) DaemonState() model.DaemonState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return model.DaemonState{
		Running:  e.running,
		InPass:   e.inPass,
		Interval: e.cfg.Interval(),
		NextFire: e.nextFire,
	}
}

// PairView joins a configured pair with its live status.
type PairView struct {
	Pair   model.BackupPair `json:"pair"`
	Status model.PairStatus `json:"status"`
}

// Statuses lists all configured pairs with their statuses, in configured
// order.
func (e *Engine) Statuses() []PairView {
	cfg := e.Config()
	views := make([]PairView, 0, len(cfg.Pairs))
	for _, pair := range cfg.Pairs {
		st, ok := e.store.Status(pair.ID)
		if !ok {
			continue
		}
		views = append(views, PairView{Pair: pair, Status: st})
	}
	return views
}

// Status returns one pair's view by ID.
func (e *Engine) Status(id string) (PairView, bool) {
	cfg := e.Config()
	for _, pair := range cfg.Pairs {
		if pair.ID != id {
			continue
		}
		if st, ok := e.store.Status(id); ok {
			return PairView{Pair: pair, Status: st}, true
		}
	}
	return PairView{}, false
}

// Run is the control loop. It blocks until ctx is cancelled or a Shutdown
// command arrives, cancelling any in-flight pass on the way out.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info().Msg("control loop started")

	timer := time.NewTimer(time.Hour)
	stopTimer(timer)
	defer timer.Stop()

	var passDone chan model.RunSummary
	var passCancel context.CancelFunc
	pendingReload := false

	abortPass := func() {
		if passCancel == nil {
			return
		}
		passCancel()
		<-passDone
		passDone, passCancel = nil, nil
		e.setInPass(false)
	}

	for {
		select {
		case <-ctx.Done():
			abortPass()
			e.logger.Info().Msg("control loop stopped")
			return

		case cmd := <-e.commands:
			switch cmd {
			case cmdStartDaemon:
				if e.isRunning() {
					e.logger.Debug().Msg("daemon already running")
					continue
				}
				e.setRunning(true)
				daemonRunning.Set(1)
				interval := e.Config().Interval()
				e.armTimer(timer, interval)
				e.logger.Info().Dur("interval", interval).Msg("daemon started")
				e.notifier.DaemonStarted(interval)

			case cmdStopDaemon:
				if !e.isRunning() && passDone == nil {
					e.logger.Debug().Msg("daemon not running")
					continue
				}
				e.setRunning(false)
				daemonRunning.Set(0)
				stopTimer(timer)
				e.setNextFire(time.Time{})
				if passCancel != nil {
					passCancel()
				}
				e.logger.Info().Msg("daemon stopped")
				e.notifier.DaemonStopped()

			case cmdRunNow:
				if passDone != nil {
					e.logger.Debug().Msg("pass already in flight, run-now coalesced")
					continue
				}
				passDone, passCancel = e.startPass(ctx)

			case cmdReload:
				if passDone != nil {
					// Snapshot-at-start semantics: the active pass keeps
					// its configuration; the reload lands afterwards.
					pendingReload = true
					continue
				}
				e.reload(timer)

			case cmdShutdown:
				abortPass()
				e.logger.Info().Msg("shutdown requested, control loop stopped")
				return
			}

		case <-timer.C:
			e.setNextFire(time.Time{})
			if !e.isRunning() {
				continue
			}
			if passDone != nil {
				e.logger.Debug().Msg("interval elapsed during active pass, trigger coalesced")
				continue
			}
			passDone, passCancel = e.startPass(ctx)

		case <-passDone:
			passDone, passCancel = nil, nil
			e.setInPass(false)
			if pendingReload {
				pendingReload = false
				e.reload(timer)
			} else if e.isRunning() {
				e.armTimer(timer, e.Config().Interval())
			}
		}
	}
}

// startPass snapshots the configuration and runs the pipeline on a worker
// goroutine so the control loop keeps observing commands, Stop in
// particular, while a copy is in flight.
func (e *Engine) startPass(parent context.Context) (chan model.RunSummary, context.CancelFunc) {
	cfg := e.Config()
	pairs := slices.Clone(cfg.Pairs)
	opts := cfg.Copy

	passCtx, cancel := context.WithCancel(parent)
	done := make(chan model.RunSummary, 1)
	e.setInPass(true)

	go func() {
		defer cancel()
		done <- e.pipeline.Run(passCtx, pairs, opts)
	}()

	return done, cancel
}

func (e *Engine) reload(timer *time.Timer) {
	cfg, err := e.loadConfig()
	if err != nil {
		e.logger.Error().Err(err).Msg("config reload failed, keeping previous configuration")
		return
	}

	e.mu.Lock()
	e.cfg = cfg
	e.mu.Unlock()
	e.store.Reset(cfg.Pairs)

	e.logger.Info().
		Int("pairs", len(cfg.Pairs)).
		Dur("interval", cfg.Interval()).
		Msg("configuration reloaded")

	if e.isRunning() {
		e.armTimer(timer, cfg.Interval())
	}
}

func (e *Engine) armTimer(timer *time.Timer, d time.Duration) {
	stopTimer(timer)
	timer.Reset(d)
	e.setNextFire(time.Now().Add(d))
}

func stopTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}

func (e *Engine) isRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) setRunning(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = v
}

func (e *Engine) setInPass(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inPass = v
}

func (e *Engine) setNextFire(t time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextFire = t
}
