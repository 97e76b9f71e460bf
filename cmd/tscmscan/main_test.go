package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/RMahshie/tscmscan/pkg/models"
)

const toneLog = `2024-03-01, 12:00:00, 100000000, 130000000, 10000000, 16, 10, 10, 20, 10
2024-03-01, 12:00:01, 100000000, 130000000, 10000000, 16, 10, 10, 20, 10
`

const raggedLog = `2024-03-01, 12:00:00, 100000000, 130000000, 10000000, 16, 10, 10, 20, 10
2024-03-01, 12:00:01, 100000000, 130000000, 10000000, 16, 10, 10
`

var small = []string{"--width", "400", "--height", "200"}

func invoke(t *testing.T, args ...string) int {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	return run(context.Background(), append(args, small...))
}

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_NoCommand(t *testing.T) {
	assert.Equal(t, 1, invoke(t))
}

func TestRun_UnknownCommand(t *testing.T) {
	assert.Equal(t, 1, invoke(t, "scan"))
}

func TestRun_Help(t *testing.T) {
	assert.Equal(t, 0, invoke(t, "--help"))
}

func TestRun_InvalidConfig(t *testing.T) {
	assert.Equal(t, 1, invoke(t, "--reducer", "max", "file", "x.csv"))
}

func TestRun_FileMode(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "band.csv", toneLog)

	require.Equal(t, 0, invoke(t, "file", path))

	table, err := os.ReadFile(filepath.Join(dir, "band_candidates.csv"))
	require.NoError(t, err)
	assert.Equal(t, "freq_hz,median_db\n120000000.0,20.0\n", string(table))
	assert.FileExists(t, filepath.Join(dir, "band_heatmap.png"))
}

func TestRun_FileModeMissing(t *testing.T) {
	assert.Equal(t, 1, invoke(t, "file", filepath.Join(t.TempDir(), "missing.csv")))
}

func TestRun_FileModeMalformed(t *testing.T) {
	path := writeLog(t, t.TempDir(), "ragged.csv", raggedLog)
	assert.Equal(t, 1, invoke(t, "file", path))
}

func TestRun_BatchContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "a.csv", raggedLog)
	writeLog(t, dir, "b.csv", toneLog)
	summaryPath := filepath.Join(t.TempDir(), "summary.yaml")
	metricsPath := filepath.Join(t.TempDir(), "tscm.prom")

	code := invoke(t, "batch", dir, "--summary-file", summaryPath, "--metrics-file", metricsPath)
	require.Equal(t, 0, code)

	assert.FileExists(t, filepath.Join(dir, "b_heatmap.png"))
	assert.FileExists(t, filepath.Join(dir, "b_candidates.csv"))
	assert.NoFileExists(t, filepath.Join(dir, "a_candidates.csv"))

	data, err := os.ReadFile(summaryPath)
	require.NoError(t, err)
	var summary models.BatchSummary
	require.NoError(t, yaml.Unmarshal(data, &summary))
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Files, 2)
	assert.Equal(t, "malformed_input", summary.Files[0].ErrorKind)

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "tscm_files_processed_total")
}

func TestRun_BatchDiscoversLatestFolder(t *testing.T) {
	root := t.TempDir()
	older := filepath.Join(root, "tscm_test_20240101")
	newer := filepath.Join(root, "tscm_test_20240202")
	writeLog(t, older, "band.csv", toneLog)
	writeLog(t, newer, "band.csv", toneLog)

	require.Equal(t, 0, invoke(t, "batch", "--search-root", root))

	assert.FileExists(t, filepath.Join(newer, "band_candidates.csv"))
	assert.NoFileExists(t, filepath.Join(older, "band_candidates.csv"))
}

func TestRun_BatchNoFolder(t *testing.T) {
	assert.Equal(t, 1, invoke(t, "batch", "--search-root", t.TempDir()))
}

func TestRun_BatchEmptyFolder(t *testing.T) {
	assert.Equal(t, 1, invoke(t, "batch", t.TempDir()))
}
