package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/astdiff/pkg/config"
	"github.com/Sumatoshi-tech/astdiff/pkg/observability"
	"github.com/Sumatoshi-tech/astdiff/pkg/report"
)

const counterV1 = `package demo;

class Counter {
    int count;

    int bump(int by) {
        count += by;
        return count;
    }
}
`

const counterV2 = `package demo;

class Counter {
    long count;

    int bump(int by) {
        count += by * 2;
        return (int) count;
    }
}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// execute runs the root command with an empty config file.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgPath := writeEmptyConfig(t)

	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfgPath, "--quiet"}, args...))

	err := cmd.Execute()

	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "astdiff dev")
}

func TestDiffCmd_JSON(t *testing.T) {
	dir := t.TempDir()
	before, after := filepath.Join(dir, "v1"), filepath.Join(dir, "v2")
	writeFile(t, filepath.Join(before, "demo", "Counter.java"), counterV1)
	writeFile(t, filepath.Join(after, "demo", "Counter.java"), counterV2)

	out, err := execute(t, "diff", "-f", "json", "--validate", before, after)
	require.NoError(t, err)
	require.NoError(t, report.Validate([]byte(out)))

	var r report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	require.Len(t, r.Files, 1)
	assert.Equal(t, "demo/Counter.java", r.Files[0].Src)
	assert.Equal(t, "demo/Counter.java", r.Files[0].Dst)
	assert.Positive(t, r.Files[0].Mappings)
	assert.NotEmpty(t, r.Files[0].Actions)
}

func TestDiffCmd_OutputAndMetricsFiles(t *testing.T) {
	dir := t.TempDir()
	before, after := filepath.Join(dir, "A.java"), filepath.Join(dir, "next", "A.java")
	writeFile(t, before, counterV1)
	writeFile(t, after, counterV2)

	outPath := filepath.Join(dir, "report.yaml")
	metricsPath := filepath.Join(dir, "astdiff.prom")

	out, err := execute(t, "diff", "-f", "yaml", "-o", outPath, "--metrics-file", metricsPath, before, after)
	require.NoError(t, err)
	assert.Empty(t, out)

	written, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(written), "src: A.java")

	metrics, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "astdiff_runs")
}

func TestDiffCmd_Errors(t *testing.T) {
	t.Run("missing_argument", func(t *testing.T) {
		_, err := execute(t, "diff", "only-one")
		require.Error(t, err)
	})

	t.Run("missing_path", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "A.java"), counterV1)

		_, err := execute(t, "diff", filepath.Join(dir, "absent"), filepath.Join(dir, "A.java"))
		require.Error(t, err)
	})

	t.Run("bad_format", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "A.java"), counterV1)

		_, err := execute(t, "diff", "-f", "xml", filepath.Join(dir, "A.java"), filepath.Join(dir, "A.java"))
		require.Error(t, err)
	})
}

func TestInputFilter_Collect(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "A.java"), counterV1)
	writeFile(t, filepath.Join(dir, "src", "notes.txt"), "not java")
	writeFile(t, filepath.Join(dir, "vendor", "lib", "V.java"), counterV1)
	writeFile(t, filepath.Join(dir, ".hidden", "H.java"), counterV1)
	writeFile(t, filepath.Join(dir, "big", "Big.java"), counterV1+counterV1)

	filter := inputFilter{
		extensions:  []string{".java"},
		maxFileSize: uint64(len(counterV1)),
		logger:      observability.Discard(),
	}

	t.Run("directory", func(t *testing.T) {
		t.Parallel()

		files, err := filter.collect(dir)
		require.NoError(t, err)
		assert.Equal(t, map[string][]byte{"src/A.java": []byte(counterV1)}, files)
	})

	t.Run("single_file", func(t *testing.T) {
		t.Parallel()

		files, err := filter.collect(filepath.Join(dir, "src", "A.java"))
		require.NoError(t, err)
		assert.Contains(t, files, "A.java")
	})

	t.Run("empty_directory", func(t *testing.T) {
		t.Parallel()

		_, err := filter.collect(t.TempDir())
		require.ErrorIs(t, err, ErrNoInput)
	})

	t.Run("bad_paths", func(t *testing.T) {
		t.Parallel()

		_, err := filter.collect(" ")
		require.ErrorIs(t, err, ErrEmptyPath)

		_, err = filter.collect("a\x00b")
		require.ErrorIs(t, err, ErrPathContainsNUL)
	})
}

func TestDiffCmd_WorkersFlagHelp(t *testing.T) {
	t.Parallel()

	flag := diffCmd(&rootFlags{}).Flags().Lookup("workers")
	require.NotNil(t, flag)
	assert.Contains(t, flag.Usage, "0 = unbounded")
}

func TestWriteReport_OutputFile(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeEmptyConfig(t))
	require.NoError(t, err)

	r := report.New(nil)

	t.Run("written_and_closed", func(t *testing.T) {
		t.Parallel()

		outPath := filepath.Join(t.TempDir(), "report.json")
		flags := &diffFlags{output: outPath}
		cfg := *cfg
		cfg.Output.Format = report.FormatJSON

		require.NoError(t, writeReport(&bytes.Buffer{}, &cfg, flags, r))

		written, readErr := os.ReadFile(outPath)
		require.NoError(t, readErr)
		require.NoError(t, report.Validate(written))
	})

	t.Run("missing_directory", func(t *testing.T) {
		t.Parallel()

		flags := &diffFlags{output: filepath.Join(t.TempDir(), "absent", "report.json")}

		require.Error(t, writeReport(&bytes.Buffer{}, cfg, flags, r))
	})
}

func writeEmptyConfig(t *testing.T) string {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), ".astdiff.yaml")
	writeFile(t, cfgPath, "")

	return cfgPath
}
