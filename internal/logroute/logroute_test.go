package logroute_test

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"codeberg.org/mutker/sysmond/internal/errors"
	"codeberg.org/mutker/sysmond/internal/logroute"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendCreatesStreamLazily(t *testing.T) {
	dir := t.TempDir()
	r, err := logroute.NewRegistry(dir)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Append("cpu.log", "INFO", "CPU Usage: 42%"))

	data, err := os.ReadFile(filepath.Join(dir, "cpu.log"))
	require.NoError(t, err)

	lineRe := regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} - cpu\.log - INFO - CPU Usage: 42%\n$`)
	assert.Regexp(t, lineRe, string(data))
}

func TestDuplicateAttachFails(t *testing.T) {
	dir := t.TempDir()
	r, err := logroute.NewRegistry(dir, "cpu.log")
	require.NoError(t, err)
	defer r.Close()

	err = r.Attach("cpu.log")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrDuplicateLogRoute))
}

func TestDuplicateInEagerSetFails(t *testing.T) {
	dir := t.TempDir()

	_, err := logroute.NewRegistry(dir, "ram.log", "ram.log")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrDuplicateLogRoute))
}

func TestAppendDoesNotDuplicateError(t *testing.T) {
	dir := t.TempDir()
	r, err := logroute.NewRegistry(dir, "misc.log")
	require.NoError(t, err)
	defer r.Close()

	// Appending to an already-attached stream reuses the handler.
	require.NoError(t, r.Append("misc.log", "INFO", "first"))
	require.NoError(t, r.Append("misc.log", "CRITICAL", "second"))

	data, err := os.ReadFile(filepath.Join(dir, "misc.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "INFO - first")
	assert.Contains(t, string(data), "CRITICAL - second")
}

func TestPathPrefixStripped(t *testing.T) {
	dir := t.TempDir()
	r, err := logroute.NewRegistry(dir)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Append("logs/swap_mem.log", "INFO", "Swap: 12%"))

	_, err = os.Stat(filepath.Join(dir, "swap_mem.log"))
	assert.NoError(t, err, "stream name should be the final path element")
}
