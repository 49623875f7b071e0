package util


import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)


// Returned by `RunProcess` when the process outlived its own timeout.
//
var ErrTimeout = errors.New("process timed out")


// A one shot invocation of an external program.
//
type ProcessRequest struct {
	Name     string         // executable path
	Args     []string
	Dir      string         // working directory, current one if empty
	Env      []string       // full environment, inherited if nil
	Timeout  time.Duration  // no deadline if zero
}

type ProcessResponse struct {
	Stdout    []byte
	Stderr    []byte
	ExitCode  int
}


// Run the requested process to completion and collect its outputs.
// A process that exits with a non zero code is not an error: the code is
// reported in the response. The error is `ErrTimeout` if the request timeout
// elapsed, the context error if `ctx` is done, and the start error if the
// process could not be started.
//
func RunProcess(ctx context.Context, req *ProcessRequest) (*ProcessResponse, error) {
	var stdout, stderr bytes.Buffer
	var exitErr *exec.ExitError
	var cancel context.CancelFunc
	var pctx context.Context
	var cmd *exec.Cmd
	var err error

	if req.Timeout > 0 {
		pctx, cancel = context.WithTimeout(ctx, req.Timeout)
	} else {
		pctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	cmd = exec.CommandContext(pctx, req.Name, req.Args...)
	cmd.Dir = req.Dir
	cmd.Env = req.Env
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err = cmd.Run()

	if pctx.Err() != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrTimeout
	}

	if err != nil {
		if errors.As(err, &exitErr) {
			return &ProcessResponse{
				Stdout: stdout.Bytes(),
				Stderr: stderr.Bytes(),
				ExitCode: exitErr.ExitCode(),
			}, nil
		}
		return nil, fmt.Errorf("run %s: %w", req.Name, err)
	}

	return &ProcessResponse{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
		ExitCode: 0,
	}, nil
}


// Find the executable to run the compiler with.
// A non empty `configured` path is returned as is. Otherwise `name` is looked
// up in the PATH, then in the `~/.bun/bin` directory.
//
func LookupExecutable(configured, name string) (string, error) {
	var home, path string
	var err error

	if configured != "" {
		return configured, nil
	}

	path, err = exec.LookPath(name)
	if err == nil {
		return path, nil
	}

	home, err = os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot find %s in PATH", name)
	}

	path = filepath.Join(home, ".bun", "bin", name)
	if _, err = os.Stat(path); err != nil {
		return "", fmt.Errorf("cannot find %s in PATH or %s", name,
			filepath.Dir(path))
	}

	return path, nil
}

// Expand a leading "~" into the home directory of the current user.
//
func ExpandHome(path string) (string, error) {
	var home string
	var err error

	if (path != "~") && !((len(path) > 1) && (path[:2] == "~/")) {
		return path, nil
	}

	home, err = os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, path[1:]), nil
}
