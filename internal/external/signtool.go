package external

import (
	"context"
	"strings"

	"github.com/obsproject/obs-updater-builder/internal/errors"
)

// signtoolBenignExitCode is a Windows status code observed to be returned by
// signtool after a successful sign; it is treated as a warning rather than a
// failure.
const signtoolBenignExitCode = 0xC0000374

// SignTool wraps the Windows code-signing tool. It does no platform check
// of its own; Preparator.Codesign checks GOOS and skips calling it on
// non-Windows platforms.
type SignTool struct {
	Path   string
	Runner CommandRunner
}

// NewSignTool constructs a SignTool using the default CommandRunner.
func NewSignTool(path string) *SignTool {
	return &SignTool{Path: path, Runner: DefaultRunner}
}

// SignOptions carries the certificate selection and timestamp server used
// for one signtool invocation.
type SignOptions struct {
	Digest       string
	CertName     string
	TimestampURL string
}

// SignBatch signs every file in one signtool invocation, amortising
// certificate lookup across the batch.
func (s *SignTool) SignBatch(ctx context.Context, files []string, opts SignOptions) error {
	if len(files) == 0 {
		return nil
	}

	args := []string{"sign", "/fd", opts.Digest, "/n", opts.CertName, "/t", opts.TimestampURL}
	for _, f := range files {
		args = append(args, trimStripPrefix(f))
	}

	stdout, stderr, err := s.Runner.Run(ctx, "", s.Path, args...)
	if err != nil {
		if exitCode(err) == signtoolBenignExitCode {
			return nil
		}
		return errors.NewToolExecutionError("signtool", wrapOutput(err, stdout, stderr))
	}
	return nil
}

func wrapOutput(err error, stdout, stderr string) error {
	out := strings.TrimSpace(stdout + "\n" + stderr)
	if out == "" {
		return err
	}
	return errors.Wrap(err, out, errors.ExitToolError)
}
