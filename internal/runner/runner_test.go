package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/mirrord/internal/model"
)

// fakeTool writes a shell script standing in for the copy tool and returns
// its path.
func fakeTool(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake copy tool requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fakecopy")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

func testPair(t *testing.T) model.BackupPair {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(src, 0755))
	return model.BackupPair{
		ID:          "pair-1",
		Source:      src,
		Destination: filepath.Join(root, "dst"),
		Enabled:     true,
	}
}

func TestRun_SuccessParsesSummary(t *testing.T) {
	tool := fakeTool(t, `cat <<'EOF'
    Files:        10         5         5         0         0         0
    Bytes:      1024       512       512         0         0         0
EOF
exit 1
`)
	r := New(zerolog.Nop(), tool)
	res := r.Run(context.Background(), testPair(t), model.DefaultCopyOptions())

	assert.Equal(t, model.OutcomeSuccess, res.Outcome)
	assert.Equal(t, 1, res.ExitCode)
	assert.Equal(t, int64(5), res.FilesCopied)
	assert.Equal(t, int64(512), res.BytesCopied)
	assert.Equal(t, "files copied", res.Message)
	assert.False(t, res.StartedAt.IsZero())
}

func TestRun_WarningExitCode(t *testing.T) {
	tool := fakeTool(t, "exit 5\n")
	r := New(zerolog.Nop(), tool)
	res := r.Run(context.Background(), testPair(t), model.DefaultCopyOptions())

	assert.Equal(t, model.OutcomeWarning, res.Outcome)
	assert.Equal(t, 5, res.ExitCode)
	assert.Equal(t, "files copied, mismatched files", res.Message)
}

func TestRun_ErrorExitCodeKeepsStderr(t *testing.T) {
	tool := fakeTool(t, "echo 'access denied' >&2\nexit 16\n")
	r := New(zerolog.Nop(), tool)
	res := r.Run(context.Background(), testPair(t), model.DefaultCopyOptions())

	assert.Equal(t, model.OutcomeError, res.Outcome)
	assert.Equal(t, 16, res.ExitCode)
	assert.Contains(t, res.Message, "exit code 16")
	assert.Contains(t, res.Message, "access denied")
}

func TestRun_LaunchFailure(t *testing.T) {
	r := New(zerolog.Nop(), filepath.Join(t.TempDir(), "no-such-tool"))
	res := r.Run(context.Background(), testPair(t), model.DefaultCopyOptions())

	assert.Equal(t, model.OutcomeError, res.Outcome)
	assert.Equal(t, -1, res.ExitCode)
	assert.Contains(t, res.Message, "launch")
}

func TestRun_CancellationKillsChild(t *testing.T) {
	tool := fakeTool(t, "sleep 30\n")
	r := New(zerolog.Nop(), tool)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	res := r.Run(ctx, testPair(t), model.DefaultCopyOptions())

	assert.Equal(t, model.OutcomeCancelled, res.Outcome)
	assert.Equal(t, "stopped by user", res.Message)
	assert.Less(t, time.Since(start), 15*time.Second)
}

func TestRun_CreatesDestinationDirectory(t *testing.T) {
	tool := fakeTool(t, "exit 0\n")
	r := New(zerolog.Nop(), tool)
	p := testPair(t)

	res := r.Run(context.Background(), p, model.DefaultCopyOptions())
	require.Equal(t, model.OutcomeSuccess, res.Outcome)

	info, err := os.Stat(p.Destination)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRun_ArgumentOrder(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	tool := fakeTool(t, fmt.Sprintf("printf '%%s\\n' \"$@\" > %s\nexit 0\n", argsFile))
	r := New(zerolog.Nop(), tool)
	p := testPair(t)

	opts := model.DefaultCopyOptions()
	opts.ExtraFlags = []string{"/XD", "node_modules"}
	res := r.Run(context.Background(), p, opts)
	require.Equal(t, model.OutcomeSuccess, res.Outcome)

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t,
		p.Source+"\n"+p.Destination+"\n/MIR\n/MT:8\n/FFT\n/R:3\n/W:2\n/NP\n/NDL\n/XD\nnode_modules\n",
		string(data))
}

func TestClassify_ExhaustivePartition(t *testing.T) {
	for code := 0; code <= 3; code++ {
		assert.Equal(t, model.OutcomeSuccess, Classify(code), "code %d", code)
	}
	for code := 4; code <= 7; code++ {
		assert.Equal(t, model.OutcomeWarning, Classify(code), "code %d", code)
	}
	for _, code := range []int{8, 9, 15, 16, 100, -1} {
		assert.Equal(t, model.OutcomeError, Classify(code), "code %d", code)
	}
}

func TestDescribeExitCode(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{0, "no changes"},
		{1, "files copied"},
		{2, "extra files in destination"},
		{3, "files copied, extra files in destination"},
		{4, "mismatched files"},
		{7, "files copied, extra files in destination, mismatched files"},
		{8, "copy failed (exit code 8)"},
		{-1, "copy tool did not run"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DescribeExitCode(tt.code), "code %d", tt.code)
	}
}
