package model

import (
	"fmt"
	"strings"
)

// CopyOptions configures the external copy tool invocation. Bounds follow the
// tool's own limits and are enforced at configuration load time.
type CopyOptions struct {
	// Mirror makes the destination an exact replica of the source,
	// including deletions (/MIR).
	Mirror bool `json:"mirror" yaml:"mirror"`
	// Threads is the tool's internal copy thread count (/MT, 1-128).
	Threads int `json:"threads" yaml:"threads" validate:"min=1,max=128"`
	// FATTiming enables FAT/exFAT-compatible timestamp comparison (/FFT).
	FATTiming bool `json:"fat_timing" yaml:"fat_timing"`
	// Retries is the per-file retry count delegated to the tool (/R).
	Retries int `json:"retries" yaml:"retries" validate:"min=0,max=1000000"`
	// RetryWait is the wait between retries in seconds (/W, 0-300).
	RetryWait int `json:"retry_wait" yaml:"retry_wait" validate:"min=0,max=300"`
	// ExtraFlags are appended verbatim and unvalidated.
	ExtraFlags []string `json:"extra_flags,omitempty" yaml:"extra_flags,omitempty"`
}

// DefaultCopyOptions returns the recommended defaults: mirror on, 8 threads,
// FAT timing on, 3 retries with a 2 second wait.
func DefaultCopyOptions() CopyOptions {
	return CopyOptions{
		Mirror:    true,
		Threads:   8,
		FATTiming: true,
		Retries:   3,
		RetryWait: 2,
	}
}

// Args builds the flag list passed after the positional source and
// destination. /NP and /NDL keep the output parseable.
func (o CopyOptions) Args() []string {
	args := make([]string, 0, 8+len(o.ExtraFlags))
	if o.Mirror {
		args = append(args, "/MIR")
	}
	args = append(args, fmt.Sprintf("/MT:%d", o.Threads))
	if o.FATTiming {
		args = append(args, "/FFT")
	}
	args = append(args,
		fmt.Sprintf("/R:%d", o.Retries),
		fmt.Sprintf("/W:%d", o.RetryWait),
		"/NP",
		"/NDL",
	)
	args = append(args, o.ExtraFlags...)
	return args
}

// Preview renders the full command line for display in the control API.
func (o CopyOptions) Preview(tool, source, destination string) string {
	parts := append([]string{tool, quoteArg(source), quoteArg(destination)}, o.Args()...)
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	if strings.ContainsAny(s, " \t") {
		return `"` + s + `"`
	}
	return s
}
