package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/minlog/endian"
	"github.com/arloliu/minlog/format"
	"github.com/arloliu/minlog/internal/wiretest"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()

	return stdout.String(), stderr.String(), err
}

func writeStream(t *testing.T, path string, raw []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, raw, 0o600))
}

func TestExpandCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "a", "app.bin")
	nested := filepath.Join(dir, "b", "c", "svc.bin")
	writeStream(t, good, wiretest.New(nil).Record(100, "n=%d\n", wiretest.Int32(7)).Bytes())
	writeStream(t, nested, wiretest.New(nil).Record(100, "svc up\n").Bytes())

	stdout, _, err := runCLI(t, "expand", "--log-level", "error", filepath.Join(dir, "**", "*.bin"))
	require.NoError(t, err)
	require.Contains(t, stdout, "2 files, 0 failed")

	got, err := os.ReadFile(good + ".txt")
	require.NoError(t, err)
	require.Equal(t, "n=7\n", string(got))

	got, err = os.ReadFile(nested + ".txt")
	require.NoError(t, err)
	require.Equal(t, "svc up\n", string(got))
}

func TestExpandCommandContinuesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "1-bad.bin")
	good := filepath.Join(dir, "2-good.bin")
	writeStream(t, bad, []byte("not a log"))
	writeStream(t, good, wiretest.New(nil).Record(100, "fine\n").Bytes())

	metricsPath := filepath.Join(dir, "minlog.prom")
	_, stderr, err := runCLI(t, "expand", "-q", "-e", ".out",
		"--metrics-textfile", metricsPath,
		bad, good, filepath.Join(dir, "missing.bin"))
	require.ErrorContains(t, err, "2 of 3 files failed")
	require.Contains(t, stderr, "FAIL")
	require.Contains(t, stderr, "1-bad.bin")

	got, readErr := os.ReadFile(good + ".out")
	require.NoError(t, readErr)
	require.Equal(t, "fine\n", string(got))

	prom, readErr := os.ReadFile(metricsPath)
	require.NoError(t, readErr)
	require.Contains(t, string(prom), `minlog_sessions_total{outcome="done"} 1`)
	require.Contains(t, string(prom), `minlog_sessions_total{outcome="invalid_header"} 1`)
	require.Contains(t, string(prom), `minlog_sessions_total{outcome="open_failed"} 1`)
}

func TestExpandCommandBigEndianCompressedOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "be.bin")
	writeStream(t, in, wiretest.New(endian.GetBigEndianEngine()).Record(100, "%u\n", wiretest.Uint32(258)).Bytes())

	_, _, err := runCLI(t, "expand", "-q", "--byte-order", "big", "--output-compression", "gzip", in)
	require.NoError(t, err)

	_, err = os.Stat(in + ".txt" + format.CompressionGzip.Extension())
	require.NoError(t, err)
}

func TestExpandCommandConfigFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "app.bin")
	writeStream(t, in, wiretest.New(nil).Record(100, "cfg\n").Bytes())

	cfgPath := filepath.Join(dir, "minlog.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("extension: .log\nlogging:\n  level: error\n"), 0o600))

	_, _, err := runCLI(t, "expand", "-c", cfgPath, in)
	require.NoError(t, err)

	got, err := os.ReadFile(in + ".log")
	require.NoError(t, err)
	require.Equal(t, "cfg\n", string(got))
}

func TestExpandCommandRejectsBadSettings(t *testing.T) {
	_, _, err := runCLI(t, "expand", "--byte-order", "middle", "x.bin")
	require.Error(t, err)

	_, _, err = runCLI(t, "expand", "-q", "--output-compression", "rar", "x.bin")
	require.ErrorContains(t, err, "unknown output compression")

	_, _, err = runCLI(t, "expand")
	require.Error(t, err)
}

func TestFormatsCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "app.bin")
	writeStream(t, in, wiretest.New(nil).
		Record(format.PrefixFormatID, "[%s] ", wiretest.String("INFO")).
		Record(100, "took %.3f ms\n", wiretest.Float64(1.25)).
		Bytes())

	stdout, _, err := runCLI(t, "formats", "-q", in)
	require.NoError(t, err)
	require.Contains(t, stdout, "FINGERPRINT")
	require.Contains(t, stdout, "1*")
	require.Contains(t, stdout, "String")
	require.Contains(t, stdout, `"took %.3f ms\n"`)
}

func TestResolveInputs(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "x", "a.bin")
	writeStream(t, a, nil)

	files, err := resolveInputs([]string{filepath.Join(dir, "**", "*.bin"), a, filepath.Join(dir, "none-*.bin")})
	require.NoError(t, err)
	require.Equal(t, []string{a, filepath.Join(dir, "none-*.bin")}, files)

	_, err = resolveInputs([]string{"[unclosed"})
	require.Error(t, err)
}
