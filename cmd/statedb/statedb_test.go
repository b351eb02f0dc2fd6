package main_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	statedb "github.com/NethermindEth/statedb/cmd/statedb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const diff0 = `
deployed_contracts:
  - address: "0x1"
    class_hash: "0xc1"
storage_diffs:
  - address: "0x1"
    entries:
      - key: "0x2"
        value: "0x3"
declared_classes:
  - class_hash: "0xc2"
    compiled_class_hash: "0xcc2"
nonces:
  - address: "0x1"
    nonce: "0x5"
`

const diff1 = `
storage_diffs:
  - address: "0x1"
    entries:
      - key: "0x2"
        value: "0x4"
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := new(bytes.Buffer)
	cmd := statedb.NewCmd()
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "statedb dev (storage version 1.0)\n", out)
}

func TestAppendReadRevert(t *testing.T) {
	dbPath := t.TempDir()
	diffs := t.TempDir()
	db := []string{"--db-path", dbPath, "--log-level", "error"}
	cmd := func(args ...string) []string {
		return append(args, db...)
	}

	out, err := run(t, cmd("append", "--block", "0", "--file", writeFile(t, diffs, "0.yaml", diff0))...)
	require.NoError(t, err)
	assert.Equal(t, "appended block 0 (4 entries)\n", out)

	_, err = run(t, cmd("append", "--block", "0", "--file", writeFile(t, diffs, "1.yaml", diff1))...)
	require.ErrorContains(t, err, "marker mismatch")

	out, err = run(t, cmd("append", "--block", "1", "--file", filepath.Join(diffs, "1.yaml"))...)
	require.NoError(t, err)
	assert.Equal(t, "appended block 1 (1 entries)\n", out)

	t.Run("point reads", func(t *testing.T) {
		tests := []struct {
			args []string
			want string
		}{
			{[]string{"storage", "--address", "0x1", "--key", "0x2"}, "0x4\n"},
			{[]string{"storage", "--address", "0x1", "--key", "0x2", "--block", "0"}, "0x3\n"},
			{[]string{"storage", "--address", "0x9", "--key", "0x2"}, "0x0\n"},
			{[]string{"nonce", "--address", "0x1"}, "0x5\n"},
			{[]string{"nonce", "--address", "0x9"}, "not deployed\n"},
			{[]string{"class-hash", "--address", "0x1", "--block", "1"}, "0xc1\n"},
		}
		for _, test := range tests {
			out, err := run(t, cmd(test.args...)...)
			require.NoError(t, err, test.args)
			assert.Equal(t, test.want, out, test.args)
		}

		_, err := run(t, cmd("nonce", "--address", "not-a-felt")...)
		require.Error(t, err)
	})

	t.Run("state diff", func(t *testing.T) {
		out, err := run(t, cmd("state-diff", "--block", "1")...)
		require.NoError(t, err)
		assert.Contains(t, out, "storage_diffs:")
		assert.Contains(t, out, `key: "0x2"`)
		assert.Contains(t, out, `value: "0x4"`)
		assert.NotContains(t, out, "deployed_contracts")

		out, err = run(t, cmd("state-diff", "--block", "0", "--dump")...)
		require.NoError(t, err)
		assert.Contains(t, out, "StateDiff")

		_, err = run(t, cmd("state-diff", "--block", "7")...)
		require.ErrorContains(t, err, "no state diff stored for block 7")
	})

	t.Run("markers", func(t *testing.T) {
		out, err := run(t, cmd("markers")...)
		require.NoError(t, err)
		assert.Contains(t, out, "MARKER")
		assert.Contains(t, out, "OFFSET")
	})

	t.Run("revert", func(t *testing.T) {
		out, err := run(t, cmd("revert", "--block", "0")...)
		require.NoError(t, err)
		assert.Equal(t, "block 0 is not the last stored block, nothing reverted\n", out)

		out, err = run(t, cmd("revert", "--block", "1")...)
		require.NoError(t, err)
		assert.Contains(t, out, "state_diff:")
		assert.Contains(t, out, `value: "0x4"`)

		out, err = run(t, cmd("storage", "--address", "0x1", "--key", "0x2")...)
		require.NoError(t, err)
		assert.Equal(t, "0x3\n", out)
	})
}

func TestReplayAndVerify(t *testing.T) {
	dbPath := t.TempDir()
	diffs := t.TempDir()
	writeFile(t, diffs, "0.yaml", diff0)
	writeFile(t, diffs, "1.yaml", diff1)
	writeFile(t, diffs, "notes.txt", "ignored")

	out, err := run(t, "replay", "--dir", diffs, "--db-path", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "appended 2 blocks, state marker at 2\n", out)

	// already stored blocks are skipped
	out, err = run(t, "replay", "--dir", diffs, "--db-path", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "appended 0 blocks, state marker at 2\n", out)

	writeFile(t, diffs, "3.yaml", diff1)
	_, err = run(t, "replay", "--dir", diffs, "--db-path", dbPath)
	require.ErrorContains(t, err, "missing state diff file for block 2")

	out, err = run(t, "verify", "--workers", "2", "--db-path", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "2 blocks verified, no issues found\n", out)
}

func TestReplayWithMetricsClosesCleanly(t *testing.T) {
	dbPath := t.TempDir()
	diffs := t.TempDir()
	writeFile(t, diffs, "0.yaml", diff0)

	out, err := run(t, "replay", "--dir", diffs, "--db-path", dbPath, "--metrics", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Equal(t, "appended 1 blocks, state marker at 1\n", out)

	// the storage was closed, so a later command opens it again
	out, err = run(t, "markers", "--db-path", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "State")
}

func TestConfigPrecedence(t *testing.T) {
	_, err := run(t, "markers")
	require.ErrorContains(t, err, "Path")

	t.Run("environment", func(t *testing.T) {
		t.Setenv("STATEDB_DB_PATH", t.TempDir())
		_, err := run(t, "markers")
		require.NoError(t, err)
	})

	t.Run("config file", func(t *testing.T) {
		dir := t.TempDir()
		config := writeFile(t, dir, "config.yaml", "db-path: "+filepath.Join(dir, "db")+"\nengine: leveldb\n")
		_, err := run(t, "markers", "--config", config)
		require.NoError(t, err)
		assert.DirExists(t, filepath.Join(dir, "db", "blobs"))
	})

	t.Run("flag wins over file", func(t *testing.T) {
		dir := t.TempDir()
		config := writeFile(t, dir, "config.yaml", "engine: rocksdb\n")
		_, err := run(t, "markers", "--config", config, "--engine", "memory", "--db-path", dir)
		require.NoError(t, err)
	})

	t.Run("invalid engine", func(t *testing.T) {
		_, err := run(t, "markers", "--engine", "rocksdb", "--db-path", t.TempDir())
		require.ErrorContains(t, err, "invalid storage config")
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := run(t, "markers", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})
}
