package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pairDirs creates a source and destination directory pair under a temp root.
func pairDirs(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	require.NoError(t, os.MkdirAll(src, 0755))
	require.NoError(t, os.MkdirAll(dst, 0755))
	return src, dst
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "mirrord.yaml"))
	require.NoError(t, err)

	assert.Empty(t, cfg.Pairs)
	assert.Equal(t, int64(3600), cfg.IntervalSeconds)
	assert.Equal(t, "robocopy", cfg.ToolPath)
	assert.Equal(t, 8, cfg.Copy.Threads)
	assert.True(t, cfg.Copy.Mirror)
	assert.True(t, cfg.Copy.FATTiming)
	assert.Equal(t, 3, cfg.Copy.Retries)
	assert.Equal(t, 2, cfg.Copy.RetryWait)
}

func TestParse_AssignsPairIDs(t *testing.T) {
	src, dst := pairDirs(t)

	cfg, err := Parse([]byte(fmt.Sprintf(`
pairs:
  - source: %s
    destination: %s
    enabled: true
`, src, dst)))
	require.NoError(t, err)

	require.Len(t, cfg.Pairs, 1)
	assert.NotEmpty(t, cfg.Pairs[0].ID)
}

func TestParse_KeepsExistingPairIDs(t *testing.T) {
	src, dst := pairDirs(t)

	cfg, err := Parse([]byte(fmt.Sprintf(`
pairs:
  - id: pair-1
    source: %s
    destination: %s
    enabled: true
`, src, dst)))
	require.NoError(t, err)

	require.Len(t, cfg.Pairs, 1)
	assert.Equal(t, "pair-1", cfg.Pairs[0].ID)
}

func TestParse_MigratesLegacySinglePair(t *testing.T) {
	src, dst := pairDirs(t)

	cfg, err := Parse([]byte(fmt.Sprintf(`
source: %s
destination: %s
`, src, dst)))
	require.NoError(t, err)

	require.Len(t, cfg.Pairs, 1)
	assert.Equal(t, src, cfg.Pairs[0].Source)
	assert.Equal(t, dst, cfg.Pairs[0].Destination)
	assert.True(t, cfg.Pairs[0].Enabled)
	assert.NotEmpty(t, cfg.Pairs[0].ID)
	assert.Empty(t, cfg.Source)
	assert.Empty(t, cfg.Destination)
}

func TestParse_LegacyFieldsIgnoredWhenPairsPresent(t *testing.T) {
	src, dst := pairDirs(t)

	cfg, err := Parse([]byte(fmt.Sprintf(`
source: /nonexistent/legacy
destination: /nonexistent/backup
pairs:
  - source: %s
    destination: %s
    enabled: true
`, src, dst)))
	require.NoError(t, err)
	require.Len(t, cfg.Pairs, 1)
	assert.Equal(t, src, cfg.Pairs[0].Source)
}

func TestParse_IntervalBounds(t *testing.T) {
	_, err := Parse([]byte("interval_seconds: 0\n"))
	require.Error(t, err)

	_, err = Parse([]byte("interval_seconds: 100000000\n"))
	require.Error(t, err)

	cfg, err := Parse([]byte("interval_seconds: 1\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), cfg.IntervalSeconds)
}

func TestParse_CopyOptionBounds(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"threads too low", "copy: {threads: 0, retries: 3, retry_wait: 2}"},
		{"threads too high", "copy: {threads: 129, retries: 3, retry_wait: 2}"},
		{"retries too high", "copy: {threads: 8, retries: 1000001, retry_wait: 2}"},
		{"retry wait too high", "copy: {threads: 8, retries: 3, retry_wait: 301}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("pairs: [malformed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	src, dst := pairDirs(t)
	path := filepath.Join(t.TempDir(), "mirrord.yaml")

	cfg := Default()
	cfg.Pairs = append(cfg.Pairs, pair("pair-1", src, dst, true, 5))
	cfg.IntervalSeconds = 600
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(600), loaded.IntervalSeconds)
	require.Len(t, loaded.Pairs, 1)
	assert.Equal(t, "pair-1", loaded.Pairs[0].ID)
	assert.Equal(t, 5, loaded.Pairs[0].Priority)
}

func TestInterval(t *testing.T) {
	cfg := Default()
	cfg.IntervalSeconds = 90
	assert.Equal(t, "1m30s", cfg.Interval().String())
}
