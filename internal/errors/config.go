package errors

import (
	"fmt"
)

// ConfigError is raised when configuration is invalid or missing.
type ConfigError struct {
	*BuildError
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string) *ConfigError {
	return &ConfigError{
		BuildError: &BuildError{
			Message:  message,
			ExitCode: ExitConfigError,
		},
	}
}

// ConfigFileError is raised when a configuration file cannot be read or parsed.
type ConfigFileError struct {
	*BuildError
}

// NewConfigFileError creates a new config file error.
func NewConfigFileError(filePath string, cause error) *ConfigFileError {
	return &ConfigFileError{
		BuildError: &BuildError{
			Message: fmt.Sprintf("failed to load configuration file: %s", filePath),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "loading configuration",
				Component: "config file",
				Details: map[string]interface{}{
					"file_path": filePath,
				},
				Suggestions: []string{
					"check that the file exists and is readable",
					"validate YAML syntax",
				},
			},
			ExitCode: ExitConfigError,
		},
	}
}

// MissingBinaryError is raised when a required external tool is not on PATH.
type MissingBinaryError struct {
	*BuildError
}

// NewMissingBinaryError creates a new missing-external-tool error.
func NewMissingBinaryError(name, path string) *MissingBinaryError {
	return &MissingBinaryError{
		BuildError: &BuildError{
			Message: fmt.Sprintf("external tool %q not found", name),
			Context: &ErrorContext{
				Operation: "validating configuration",
				Component: "external tools",
				Details: map[string]interface{}{
					"tool":           name,
					"configured_path": path,
				},
				Suggestions: []string{
					fmt.Sprintf("set env.%s_path in the config file", name),
					fmt.Sprintf("install %s and ensure it is on PATH", name),
				},
			},
			ExitCode: ExitConfigError,
		},
	}
}

// NoCatchallPackageError is raised when no configured package lacks include_files.
func NewNoCatchallPackageError() *ConfigError {
	return NewConfigError("no catchall package defined: at least one package must omit include_files")
}

// NoPackagesError is raised when the config defines zero packages.
func NewNoPackagesError() *ConfigError {
	return NewConfigError("no packages defined in config")
}
