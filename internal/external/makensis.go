package external

import (
	"context"

	"github.com/obsproject/obs-updater-builder/internal/errors"
)

// MakeNSIS wraps the NSIS installer compiler.
type MakeNSIS struct {
	Path   string
	Runner CommandRunner
}

// NewMakeNSIS constructs a MakeNSIS using the default CommandRunner.
func NewMakeNSIS(path string) *MakeNSIS {
	return &MakeNSIS{Path: path, Runner: DefaultRunner}
}

// Defines are the /D preprocessor defines passed to the NSIS script: the
// package tag, the short version string, and the full version string.
type Defines struct {
	Tag     string
	Short   string
	Full    string
	BuildDir string
}

// Build invokes makensis against scriptPath with the tag/short/full version
// defines and the absolute build directory, stripping a leading Windows
// "\\?\" verbatim-path prefix from BuildDir if present.
func (m *MakeNSIS) Build(ctx context.Context, scriptPath string, d Defines) error {
	args := []string{
		"/DPRODUCT_TAG=" + d.Tag,
		"/DPRODUCT_VERSION_SHORT=" + d.Short,
		"/DPRODUCT_VERSION_FULL=" + d.Full,
		"/DBUILD_DIR=" + trimStripPrefix(d.BuildDir),
		scriptPath,
	}

	stdout, stderr, err := m.Runner.Run(ctx, "", m.Path, args...)
	if err != nil {
		return errors.NewToolExecutionError("makensis", wrapOutput(err, stdout, stderr))
	}
	return nil
}
