package errors

import (
	"fmt"
)

// PrereqError is raised when a required precondition for the build is not met
// (missing previous build, missing notes file, missing key, etc).
type PrereqError struct {
	*BuildError
}

// NewPrereqError creates a new prerequisite error.
func NewPrereqError(message string) *PrereqError {
	return &PrereqError{
		BuildError: &BuildError{
			Message:  message,
			ExitCode: ExitPrereqError,
		},
	}
}

// MissingFileError is raised when a required file is not found.
type MissingFileError struct {
	*BuildError
}

// NewMissingFileError creates a new missing file error.
func NewMissingFileError(filePath string) *MissingFileError {
	return &MissingFileError{
		BuildError: &BuildError{
			Message: fmt.Sprintf("required file not found: %s", filePath),
			Context: &ErrorContext{
				Operation: "file validation",
				Component: "filesystem",
				Details: map[string]interface{}{
					"file_path": filePath,
				},
				Suggestions: []string{
					"check that the file exists",
					"verify the path in the config is correct",
				},
			},
			ExitCode: ExitPrereqError,
		},
	}
}

// InvalidPathError is raised when a configured path is invalid.
type InvalidPathError struct {
	*BuildError
}

// NewInvalidPathError creates a new invalid path error.
func NewInvalidPathError(path string, reason string) *InvalidPathError {
	return &InvalidPathError{
		BuildError: &BuildError{
			Message: fmt.Sprintf("invalid path: %s", path),
			Context: &ErrorContext{
				Operation: "path validation",
				Component: "filesystem",
				Details: map[string]interface{}{
					"path":   path,
					"reason": reason,
				},
				Suggestions: []string{
					"check that the path exists",
					"verify the path is a directory where one is expected",
					"use an absolute path if the relative path fails to resolve",
				},
			},
			ExitCode: ExitPrereqError,
		},
	}
}

// MissingPreviousBuildError is raised when Generator needs an old build tree
// that was never found (no previous version configured and none discovered).
type MissingPreviousBuildError struct {
	*BuildError
}

// NewMissingPreviousBuildError creates a new missing-previous-build error.
func NewMissingPreviousBuildError(searchDir string) *MissingPreviousBuildError {
	return &MissingPreviousBuildError{
		BuildError: &BuildError{
			Message: fmt.Sprintf("no previous build found under %s", searchDir),
			Context: &ErrorContext{
				Operation: "locating previous build",
				Component: "preparator",
				Details: map[string]interface{}{
					"search_dir": searchDir,
				},
				Suggestions: []string{
					"set env.previous_dir explicitly in the config",
					"pass --previous-dir on the command line",
					"populate the previous-builds directory before running",
				},
			},
			ExitCode: ExitPrereqError,
		},
	}
}
