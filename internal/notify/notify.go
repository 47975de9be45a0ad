package notify

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/mirrord/internal/model"
)

// Notifier receives engine events for surfacing to the user. Implementations
// must tolerate being called from the pipeline goroutine; slow sinks should
// be wrapped in Async so they never stall a pass.
type Notifier interface {
	PassCompleted(summary model.RunSummary)
	PairFailed(pair model.BackupPair, result model.RunResult)
	DaemonStarted(interval time.Duration)
	DaemonStopped()
}

// LogNotifier surfaces events as structured log lines. It stands in for the
// tray balloon sink on headless installs.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notifier").Logger()}
}

func (n *LogNotifier) PassCompleted(summary model.RunSummary) {
	evt := n.logger.Info()
	if summary.Failed > 0 || summary.Cancelled > 0 {
		evt = n.logger.Error()
	} else if summary.Warned > 0 {
		evt = n.logger.Warn()
	}
	evt.Int("attempted", summary.Attempted).
		Int("succeeded", summary.Succeeded).
		Int("warned", summary.Warned).
		Int("failed", summary.Failed).
		Int("cancelled", summary.Cancelled).
		Int64("bytes", summary.Bytes).
		Dur("duration", summary.Duration).
		Msg("backup pass completed")
}

func (n *LogNotifier) PairFailed(pair model.BackupPair, result model.RunResult) {
	n.logger.Error().
		Str("pair", pair.ID).
		Str("name", pair.DisplayName()).
		Int("exit_code", result.ExitCode).
		Str("message", result.Message).
		Msg("backup pair failed")
}

func (n *LogNotifier) DaemonStarted(interval time.Duration) {
	n.logger.Info().Dur("interval", interval).Msg("automatic backups enabled")
}

func (n *LogNotifier) DaemonStopped() {
	n.logger.Info().Msg("automatic backups disabled")
}
