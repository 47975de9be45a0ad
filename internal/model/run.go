package model

import "time"

// RunResult is the immutable outcome of one copy invocation for one pair.
type RunResult struct {
	PairID      string        `json:"pair_id"`
	Outcome     string        `json:"outcome"`
	ExitCode    int           `json:"exit_code"`
	FilesCopied int64         `json:"files_copied"`
	BytesCopied int64         `json:"bytes_copied"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	Message     string        `json:"message,omitempty"`
}

// PairStatus is the live per-pair state held in the state store. Runs and
// Successes are cumulative since daemon startup; only the latest result is
// retained.
type PairStatus struct {
	State     string     `json:"state"`
	Last      *RunResult `json:"last,omitempty"`
	Runs      int64      `json:"runs"`
	Successes int64      `json:"successes"`
	LastRun   time.Time  `json:"last_run,omitzero"`
}

// RunSummary aggregates one full pipeline pass over all enabled pairs.
type RunSummary struct {
	Attempted int           `json:"attempted"`
	Succeeded int           `json:"succeeded"`
	Warned    int           `json:"warned"`
	Failed    int           `json:"failed"`
	Cancelled int           `json:"cancelled"`
	Bytes     int64         `json:"bytes"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// DaemonState describes the background scheduler for display purposes.
type DaemonState struct {
	Running  bool          `json:"running"`
	InPass   bool          `json:"in_pass"`
	Interval time.Duration `json:"interval"`
	NextFire time.Time     `json:"next_fire,omitzero"`
}
