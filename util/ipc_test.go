package util

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipWithoutShell(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
}

func TestRunProcess(t *testing.T) {
	t.Run("collects outputs", func(t *testing.T) {
		skipWithoutShell(t)

		resp, err := RunProcess(context.Background(), &ProcessRequest{
			Name: "/bin/sh",
			Args: []string{"-c", "echo out; echo err >&2"},
		})
		require.NoError(t, err)
		assert.Equal(t, "out\n", string(resp.Stdout))
		assert.Equal(t, "err\n", string(resp.Stderr))
		assert.Equal(t, 0, resp.ExitCode)
	})

	t.Run("working directory and environment", func(t *testing.T) {
		skipWithoutShell(t)
		dir := t.TempDir()

		resp, err := RunProcess(context.Background(), &ProcessRequest{
			Name: "/bin/sh",
			Args: []string{"-c", "pwd; echo $GREETING"},
			Dir:  dir,
			Env:  []string{"GREETING=hello"},
		})
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(string(resp.Stdout)), "\n")
		require.Len(t, lines, 2)

		expected, err := filepath.EvalSymlinks(dir)
		require.NoError(t, err)
		actual, err := filepath.EvalSymlinks(lines[0])
		require.NoError(t, err)
		assert.Equal(t, expected, actual)
		assert.Equal(t, "hello", lines[1])
	})

	t.Run("exit code is not an error", func(t *testing.T) {
		skipWithoutShell(t)

		resp, err := RunProcess(context.Background(), &ProcessRequest{
			Name: "/bin/sh",
			Args: []string{"-c", "exit 7"},
		})
		require.NoError(t, err)
		assert.Equal(t, 7, resp.ExitCode)
	})

	t.Run("timeout", func(t *testing.T) {
		skipWithoutShell(t)

		start := time.Now()
		_, err := RunProcess(context.Background(), &ProcessRequest{
			Name:    "/bin/sh",
			Args:    []string{"-c", "exec sleep 10"},
			Timeout: 100 * time.Millisecond,
		})
		assert.ErrorIs(t, err, ErrTimeout)
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("cancelled", func(t *testing.T) {
		skipWithoutShell(t)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := RunProcess(ctx, &ProcessRequest{
			Name:    "/bin/sh",
			Args:    []string{"-c", "exec sleep 10"},
			Timeout: time.Minute,
		})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("missing executable", func(t *testing.T) {
		_, err := RunProcess(context.Background(), &ProcessRequest{
			Name: filepath.Join(t.TempDir(), "nope"),
		})
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrTimeout)
	})
}

func TestLookupExecutable(t *testing.T) {
	t.Run("configured path wins", func(t *testing.T) {
		path, err := LookupExecutable("/opt/bun/bin/bun", "bun")
		require.NoError(t, err)
		assert.Equal(t, "/opt/bun/bin/bun", path)
	})

	t.Run("home fallback", func(t *testing.T) {
		skipWithoutShell(t)
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Setenv("PATH", t.TempDir())

		bin := filepath.Join(home, ".bun", "bin")
		require.NoError(t, os.MkdirAll(bin, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(bin, "bun"), []byte("#!/bin/sh\n"), 0755))

		path, err := LookupExecutable("", "bun")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(bin, "bun"), path)
	})

	t.Run("not found", func(t *testing.T) {
		skipWithoutShell(t)
		t.Setenv("HOME", t.TempDir())
		t.Setenv("PATH", t.TempDir())

		_, err := LookupExecutable("", "bun")
		assert.Error(t, err)
	})
}

func TestExpandHome(t *testing.T) {
	t.Run("expands tilde", func(t *testing.T) {
		skipWithoutShell(t)
		t.Setenv("HOME", "/home/replay")

		path, err := ExpandHome("~/.config/solana/id.json")
		require.NoError(t, err)
		assert.Equal(t, "/home/replay/.config/solana/id.json", path)
	})

	t.Run("leaves other paths", func(t *testing.T) {
		path, err := ExpandHome("keys/~id.json")
		require.NoError(t, err)
		assert.Equal(t, "keys/~id.json", path)
	})
}
