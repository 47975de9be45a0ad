package engine

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/mirrord/internal/model"
	"github.com/edvin/mirrord/internal/notify"
)

// PairRunner executes the external copy tool for one pair. Satisfied by
// runner.Runner; tests substitute a fake.
type PairRunner interface {
	Run(ctx context.Context, pair model.BackupPair, opts model.CopyOptions) model.RunResult
}

// Pipeline runs all enabled pairs of a pass strictly one after another. No
// pair failure aborts the pass; only cancellation does. Sequential execution
// is deliberate: the tool is internally multithreaded and concurrent
// invocations across pairs would contend for disk I/O unpredictably.
type Pipeline struct {
	logger   zerolog.Logger
	runner   PairRunner
	store    *StateStore
	notifier notify.Notifier
}

// NewPipeline creates a Pipeline writing into store and reporting to
// notifier.
func NewPipeline(logger zerolog.Logger, runner PairRunner, store *StateStore, notifier notify.Notifier) *Pipeline {
	return &Pipeline{
		logger:   logger.With().Str("component", "pipeline").Logger(),
		runner:   runner,
		store:    store,
		notifier: notifier,
	}
}

// Run executes one full pass over the given configuration snapshot and
// returns its summary. Cancellation is observed before each pair and inside
// the runner; pairs never started by a cancelled pass keep their previous
// status.
func (p *Pipeline) Run(ctx context.Context, pairs []model.BackupPair, opts model.CopyOptions) model.RunSummary {
	start := time.Now()
	summary := model.RunSummary{StartedAt: start}

	ordered := sortEnabled(pairs)
	p.logger.Info().Int("pairs", len(ordered)).Msg("starting backup pass")

	for _, pair := range ordered {
		if ctx.Err() != nil {
			p.logger.Warn().Str("pair", pair.ID).Msg("pass cancelled, remaining pairs skipped")
			break
		}

		summary.Attempted++
		p.store.MarkRunning(pair.ID)

		res := p.runPair(ctx, pair, opts)
		p.store.RecordResult(pair.ID, res)
		pairRunsTotal.WithLabelValues(res.Outcome).Inc()

		switch res.Outcome {
		case model.OutcomeSuccess:
			summary.Succeeded++
		case model.OutcomeWarning:
			summary.Warned++
		case model.OutcomeCancelled:
			summary.Cancelled++
		default:
			summary.Failed++
		}
		summary.Bytes += res.BytesCopied
		bytesCopiedTotal.Add(float64(res.BytesCopied))

		if res.Outcome == model.OutcomeError || res.Outcome == model.OutcomeCancelled {
			p.notifier.PairFailed(pair, res)
		}
	}

	summary.Duration = time.Since(start)
	passDuration.Observe(summary.Duration.Seconds())
	passTotal.WithLabelValues(passResult(summary)).Inc()

	p.notifier.PassCompleted(summary)

	p.logger.Info().
		Int("attempted", summary.Attempted).
		Int("succeeded", summary.Succeeded).
		Int("warned", summary.Warned).
		Int("failed", summary.Failed).
		Int("cancelled", summary.Cancelled).
		Dur("duration", summary.Duration).
		Msg("backup pass finished")

	return summary
}

// runPair fast-fails a pair whose source vanished since configuration time;
// the tool is never spawned in that case. Retry stays delegated to the
// tool's own /R and /W flags.
func (p *Pipeline) runPair(ctx context.Context, pair model.BackupPair, opts model.CopyOptions) model.RunResult {
	if info, err := os.Stat(pair.Source); err != nil || !info.IsDir() {
		p.logger.Error().Str("pair", pair.ID).Str("source", pair.Source).Msg("source directory missing")
		return model.RunResult{
			PairID:    pair.ID,
			Outcome:   model.OutcomeError,
			ExitCode:  -1,
			StartedAt: time.Now(),
			Message:   "source directory does not exist: " + pair.Source,
		}
	}
	return p.runner.Run(ctx, pair, opts)
}

// sortEnabled filters out disabled pairs and orders the rest by priority,
// ties keeping configured order.
func sortEnabled(pairs []model.BackupPair) []model.BackupPair {
	ordered := make([]model.BackupPair, 0, len(pairs))
	for _, pair := range pairs {
		if pair.Enabled {
			ordered = append(ordered, pair)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})
	return ordered
}

func passResult(s model.RunSummary) string {
	switch {
	case s.Cancelled > 0:
		return "cancelled"
	case s.Failed > 0:
		return "failure"
	case s.Warned > 0:
		return "warning"
	default:
		return "success"
	}
}
