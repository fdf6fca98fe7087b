// Package external wraps the five opaque subprocess tools the build
// pipeline shells out to: signtool, pdbcopy, makensis, 7-zip, and pandoc.
// Each wrapper owns only argument construction and exit-status
// interpretation; none of them touch filesystem state beyond what the
// underlying tool does, so tests can substitute a fake CommandRunner
// without touching disk.
package external

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// CommandRunner executes an external program and captures its output. The
// production implementation shells out via os/exec; tests supply a fake.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (stdout, stderr string, err error)
}

// execRunner is the real CommandRunner, backed by os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// DefaultRunner is the CommandRunner used when a wrapper is constructed
// without one explicitly supplied.
var DefaultRunner CommandRunner = execRunner{}

// exitCode extracts the process exit code from an *exec.ExitError, or -1 if
// err isn't one (e.g. the binary itself couldn't be started).
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		return exitErr.ExitCode()
	}
	return -1
}

func asExitError(err error, target **exec.ExitError) bool {
	for err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			*target = ee
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// trimStripPrefix strips a leading Windows "\\?\" verbatim-path prefix, if
// present, since some tools reject verbatim paths on their command line.
func trimStripPrefix(path string) string {
	return strings.TrimPrefix(path, `\\?\`)
}
