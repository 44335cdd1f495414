package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/epw-merge/internal/testutil/epwgen"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func weatherDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, epwgen.WriteFile(filepath.Join(dir, "alpha.epw"), epwgen.Options{Seed: 1}))
	require.NoError(t, epwgen.WriteFile(filepath.Join(dir, "beta.epw"), epwgen.Options{Seed: 2, MissingDryBulbEvery: 1000}))
	return dir
}

func TestRootCommandMetadata(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "epwmerge", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["merge"])
	assert.True(t, names["validate"])
	assert.True(t, names["inspect"])
}

func TestMergeCommand_Strict(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := weatherDir(t)
	out := filepath.Join(t.TempDir(), "merged.parquet")

	stdout, err := execute(t, "merge", dir, "--strict", "-o", out, "--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, stdout, "17520 rows from 2 files")
	assert.NotContains(t, stdout, "utci")
	_, err = os.Stat(out)
	require.NoError(t, err)
}

func TestMergeCommand_ComfortAndTextfile(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := weatherDir(t)
	prom := filepath.Join(t.TempDir(), "epwmerge.prom")

	stdout, err := execute(t, "merge", dir, "--emit-tabular-copy", "--metrics-textfile", prom, "--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, stdout, filepath.Join(dir, "merged", filepath.Base(dir)+".parquet"))
	assert.Contains(t, stdout, ".csv")
	assert.Contains(t, stdout, "utci")
	assert.Contains(t, stdout, "normal_effective_temperature")

	data, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(data), "epwmerge_files_parsed_total 2")
	assert.Contains(t, string(data), "epwmerge_rows_written_total 17520")
}

func TestMergeCommand_NoInputs(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := execute(t, "merge")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no inputs")
}

func TestMergeCommand_InvalidFlagValue(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := execute(t, "merge", weatherDir(t), "--on-file-error", "ignore")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "on_file_error")
}

func TestValidateCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Run("all valid", func(t *testing.T) {
		stdout, err := execute(t, "validate", weatherDir(t), "--log-level", "error")
		require.NoError(t, err)
		assert.Contains(t, stdout, "alpha.epw")
		assert.Contains(t, stdout, "Testville, USA")
		assert.Contains(t, stdout, "8760")
	})

	t.Run("incomplete file", func(t *testing.T) {
		dir := weatherDir(t)
		require.NoError(t, epwgen.WriteFile(filepath.Join(dir, "short.epw"), epwgen.Options{DropRecords: 24}))

		stdout, err := execute(t, "validate", dir, "--log-level", "error")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 3 files invalid")
		assert.Contains(t, stdout, "incomplete")
		assert.Contains(t, stdout, "8736")
	})

	t.Run("out of order rows", func(t *testing.T) {
		dir := weatherDir(t)
		path := filepath.Join(dir, "swapped.epw")
		require.NoError(t, epwgen.WriteFile(path, epwgen.Options{}))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		lines := strings.Split(string(data), "\n")
		lines[30], lines[31] = lines[31], lines[30]
		require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644))

		stdout, err := execute(t, "validate", dir, "--log-level", "error")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 3 files invalid")
		assert.Contains(t, stdout, "does not follow")
	})
}

func TestInspectCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := weatherDir(t)
	out := filepath.Join(t.TempDir(), "merged.parquet")

	_, err := execute(t, "merge", dir, "-o", out, "--log-level", "error")
	require.NoError(t, err)

	stdout, err := execute(t, "inspect", out, "--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, stdout, "17520 rows")
	assert.Contains(t, stdout, "alpha.epw")
	assert.Contains(t, stdout, "beta.epw")
	assert.Contains(t, stdout, "utci")
}

func TestInspectCommand_RequiresPath(t *testing.T) {
	_, err := execute(t, "inspect")
	require.Error(t, err)
}
