package runner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/mirrord/internal/model"
)

// Runner invokes the external copy tool for one pair and classifies the
// result. It touches no shared state; the pipeline consumes the returned
// RunResult.
type Runner struct {
	logger zerolog.Logger
	tool   string
}

// New creates a Runner for the given tool binary (normally robocopy).
func New(logger zerolog.Logger, tool string) *Runner {
	return &Runner{
		logger: logger.With().Str("component", "runner").Logger(),
		tool:   tool,
	}
}

// Run executes one copy operation. The call blocks until the tool exits or
// ctx is cancelled; cancellation kills the child process and yields a
// Cancelled result rather than an error.
func (r *Runner) Run(ctx context.Context, pair model.BackupPair, opts model.CopyOptions) model.RunResult {
	start := time.Now()
	res := model.RunResult{PairID: pair.ID, StartedAt: start}

	if err := os.MkdirAll(pair.Destination, 0755); err != nil {
		res.Outcome = model.OutcomeError
		res.ExitCode = -1
		res.Message = fmt.Sprintf("create destination: %v", err)
		res.Duration = time.Since(start)
		return res
	}

	args := append([]string{pair.Source, pair.Destination}, opts.Args()...)
	cmd := exec.CommandContext(ctx, r.tool, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Bound the wait for the child after a kill so Stop stays responsive.
	cmd.WaitDelay = 10 * time.Second
	hideConsoleWindow(cmd)

	r.logger.Debug().
		Str("pair", pair.ID).
		Str("tool", r.tool).
		Strs("args", args).
		Msg("invoking copy tool")

	err := cmd.Run()
	res.Duration = time.Since(start)

	stats := ParseSummary(stdout.String())
	res.FilesCopied = stats.FilesCopied
	res.BytesCopied = stats.BytesCopied

	if ctx.Err() != nil {
		res.Outcome = model.OutcomeCancelled
		res.ExitCode = -1
		res.Message = "stopped by user"
		r.logger.Warn().Str("pair", pair.ID).Msg("copy cancelled, child process terminated")
		return res
	}

	switch e := err.(type) {
	case nil:
		res.ExitCode = 0
	case *exec.ExitError:
		res.ExitCode = e.ExitCode()
	default:
		res.Outcome = model.OutcomeError
		res.ExitCode = -1
		res.Message = fmt.Sprintf("launch %s: %v", r.tool, err)
		r.logger.Error().Str("pair", pair.ID).Err(err).Msg("copy tool failed to launch")
		return res
	}

	res.Outcome = Classify(res.ExitCode)
	res.Message = DescribeExitCode(res.ExitCode)
	if res.Outcome == model.OutcomeError {
		if line := firstLine(stderr.String()); line != "" {
			res.Message = fmt.Sprintf("%s: %s", res.Message, line)
		}
	}

	evt := r.logger.Info()
	switch res.Outcome {
	case model.OutcomeWarning:
		evt = r.logger.Warn()
	case model.OutcomeError:
		evt = r.logger.Error()
	}
	evt.Str("pair", pair.ID).
		Int("exit_code", res.ExitCode).
		Str("outcome", res.Outcome).
		Int64("files", res.FilesCopied).
		Int64("bytes", res.BytesCopied).
		Dur("duration", res.Duration).
		Msg("copy finished")

	return res
}

// Classify maps a copy tool exit code to an outcome tier. The partition is a
// wire contract with the tool: 0-3 success, 4-7 warning, everything else
// (including launch failures reported as -1) error.
func Classify(code int) string {
	switch {
	case code >= 0 && code <= 3:
		return model.OutcomeSuccess
	case code >= 4 && code <= 7:
		return model.OutcomeWarning
	default:
		return model.OutcomeError
	}
}

// DescribeExitCode renders the tool's bitmask exit code as a short message.
// Bit 1 = files copied, 2 = extra entries in destination, 4 = mismatches,
// 8+ = failures.
func DescribeExitCode(code int) string {
	if code < 0 {
		return "copy tool did not run"
	}
	if code == 0 {
		return "no changes"
	}
	if code >= 8 {
		return fmt.Sprintf("copy failed (exit code %d)", code)
	}

	var parts []string
	if code&1 != 0 {
		parts = append(parts, "files copied")
	}
	if code&2 != 0 {
		parts = append(parts, "extra files in destination")
	}
	if code&4 != 0 {
		parts = append(parts, "mismatched files")
	}
	return strings.Join(parts, ", ")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
