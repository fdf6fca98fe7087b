package errors

import (
	"fmt"
)

// CodecError is raised when a patch codec fails to encode or decode a delta.
type CodecError struct {
	*BuildError
}

// NewCodecError creates a new codec error.
func NewCodecError(codec, reason string, cause error) *CodecError {
	return &CodecError{
		BuildError: &BuildError{
			Message: fmt.Sprintf("%s codec failed: %s", codec, reason),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "patch generation",
				Component: codec,
				Details: map[string]interface{}{
					"codec": codec,
				},
				Suggestions: []string{
					"re-run with --debug for the full diff trace",
					"check that the old and new files are not truncated",
				},
			},
			ExitCode: ExitCodecError,
		},
	}
}

// ToolExecutionError is raised when an external collaborator process
// (signtool, pdbcopy, makensis, 7z, pandoc) exits non-zero or cannot start.
type ToolExecutionError struct {
	*BuildError
}

// NewToolExecutionError creates a new external tool execution error.
func NewToolExecutionError(tool string, cause error) *ToolExecutionError {
	return &ToolExecutionError{
		BuildError: &BuildError{
			Message: fmt.Sprintf("%s execution failed", tool),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "running external tool",
				Component: tool,
				Details: map[string]interface{}{
					"tool": tool,
				},
				Suggestions: []string{
					"check the tool's own stderr output above",
					"verify the configured path to the tool is correct",
				},
			},
			ExitCode: ExitToolError,
		},
	}
}

// SignError is raised when signing a file or manifest fails.
type SignError struct {
	*BuildError
}

// NewSignError creates a new signing error.
func NewSignError(target string, cause error) *SignError {
	return &SignError{
		BuildError: &BuildError{
			Message: fmt.Sprintf("failed to sign %s", target),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "signing",
				Component: "signer",
				Details: map[string]interface{}{
					"target": target,
				},
				Suggestions: []string{
					"run the check-key command to validate the configured private key",
					"verify UPDATER_PRIVATE_KEY or package.updater.private_key is set correctly",
				},
			},
			ExitCode: ExitSignError,
		},
	}
}

// IOError is raised for filesystem operations (copy, mkdir, walk) that fail
// outside of the more specific prerequisite/validation cases above.
type IOError struct {
	*BuildError
}

// NewIOError creates a new I/O error.
func NewIOError(operation, path string, cause error) *IOError {
	return &IOError{
		BuildError: &BuildError{
			Message: fmt.Sprintf("%s failed for %s", operation, path),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: operation,
				Component: "filesystem",
				Details: map[string]interface{}{
					"path": path,
				},
				Suggestions: []string{
					"check file permissions",
					"verify sufficient disk space",
				},
			},
			ExitCode: ExitIOError,
		},
	}
}
