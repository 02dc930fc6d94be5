package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/moffa90/go-ihex/ihex"
)

const fixture = "testdata/linear.hex"

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRecordsGolden(t *testing.T) {
	out, _, err := runCLI(t, "records", fixture)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "records", []byte(out))
}

func TestRecordsCompressed(t *testing.T) {
	plain, err := os.ReadFile(fixture)
	require.NoError(t, err)

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(plain)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	path := filepath.Join(t.TempDir(), "linear.hex.xz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	want, _, err := runCLI(t, "records", fixture)
	require.NoError(t, err)
	got, _, err := runCLI(t, "records", path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	out, _, err := runCLI(t, "verify", path)
	require.NoError(t, err)
	assert.Contains(t, out, ": ok (5 records, 8 B)")
}

func TestRecordsParseError(t *testing.T) {
	path := writeFile(t, "bad.hex", ":0400000001020304FF\n:00000001FF\n")

	_, _, err := runCLI(t, "records", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ihex.ErrChecksumMismatch)
}

func TestVerify(t *testing.T) {
	bad := writeFile(t, "truncated.hex", ":0400000001020304F2\n")

	out, _, err := runCLI(t, "verify", fixture)
	require.NoError(t, err)
	assert.Equal(t, fixture+": ok (5 records, 8 B)\n", out)

	out, _, err = runCLI(t, "verify", fixture, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed verification")
	assert.Contains(t, out, bad+": FAIL: line 1: unexpected end of stream")
}

func TestVerifyTrailingPolicy(t *testing.T) {
	path := writeFile(t, "trailing.hex", ":00000001FF\n:0400000001020304F2\n")

	_, _, err := runCLI(t, "verify", path)
	require.Error(t, err)

	out, _, err := runCLI(t, "--trailing=warn", "verify", path)
	require.NoError(t, err)
	assert.Contains(t, out, "warning: line 2: trailing data")
}

func TestTrailingWarningsOnStderr(t *testing.T) {
	path := writeFile(t, "trailing.hex", ":0400000001020304F2\n:00000001FF\ngarbage\n")

	for _, args := range [][]string{
		{"--trailing=warn", "info", path},
		{"--trailing=warn", "bin", path, "-o", filepath.Join(t.TempDir(), "out.bin")},
		{"--trailing=warn", "normalize", path},
		{"--trailing=warn", "apply", path},
	} {
		t.Run(args[1], func(t *testing.T) {
			out, stderr, err := runCLI(t, args...)
			require.NoError(t, err)
			assert.Contains(t, stderr, path+": warning: line 3: trailing data")
			assert.NotContains(t, out, "warning")
		})
	}
}

func TestInfo(t *testing.T) {
	out, _, err := runCLI(t, "info", fixture)
	require.NoError(t, err)

	assert.Contains(t, out, "records:   5\n")
	assert.Contains(t, out, "data:      8 B (8 bytes)\n")
	assert.Contains(t, out, "segments:  2\n")
	assert.Contains(t, out, "  0x08000000-0x08000003  4 B\n")
	assert.Contains(t, out, "  0x08000010-0x08000013  4 B\n")
	assert.Contains(t, out, "start:     0x12345678\n")
	assert.Contains(t, out, "span:      20 B\n")
	assert.Regexp(t, `blake3:    [0-9a-f]{64}\n`, out)
}

func TestBin(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.bin")

	out, _, err := runCLI(t, "bin", fixture, "-o", dst, "--pad", "0x00")
	require.NoError(t, err)
	assert.Equal(t, "wrote 20 B (0x08000000-0x08000013) to "+dst+"\n", out)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	want := make([]byte, 20)
	copy(want, []byte{0x01, 0x02, 0x03, 0x04})
	copy(want[16:], []byte{0xAA, 0xBB, 0xCC, 0xDD})
	assert.Equal(t, want, got)

	_, _, err = runCLI(t, "bin", fixture, "-o", dst, "--pad", "0x100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be at most 0xFF")

	_, _, err = runCLI(t, "bin", fixture, "-o", dst, "--pad", "zz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid pad "zz"`)
	assert.Contains(t, err.Error(), "invalid syntax")
}

func TestNormalize(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "norm.hex")

	_, _, err := runCLI(t, "normalize", fixture, "-o", dst, "--line-length", "2")
	require.NoError(t, err)

	orig, err := ihex.Parse(fixture)
	require.NoError(t, err)
	norm, err := ihex.Parse(dst)
	require.NoError(t, err)

	assert.Equal(t, orig.DataSize(), norm.DataSize())
	for _, r := range norm.Records() {
		assert.LessOrEqual(t, int(r.ByteCount), 4)
	}
}

func TestApply(t *testing.T) {
	out, _, err := runCLI(t, "apply", fixture, "--chunk", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "blocks:    2\n")
	assert.Contains(t, out, "written:   8 B\n")
	assert.Contains(t, out, "start:     0x12345678\n")

	_, _, err = runCLI(t, "apply", fixture, "--max", "0x08000003")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestLogFlags(t *testing.T) {
	_, stderr, err := runCLI(t, "--log-level=debug", "--log-format=json", "verify", fixture)
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"parsed intel hex"`)

	_, _, err = runCLI(t, "--log-level=loud", "verify", fixture)
	assert.Error(t, err)
}
