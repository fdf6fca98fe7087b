package external

import (
	"context"

	"github.com/obsproject/obs-updater-builder/internal/errors"
)

// SevenZip wraps the external 7-zip archiver used to build distributable
// ZIP packages.
type SevenZip struct {
	Path   string
	Runner CommandRunner
}

// NewSevenZip constructs a SevenZip using the default CommandRunner.
func NewSevenZip(path string) *SevenZip {
	return &SevenZip{Path: path, Runner: DefaultRunner}
}

// CreateZip archives every file under sourceDir into a new archive at
// archivePath.
func (z *SevenZip) CreateZip(ctx context.Context, archivePath, sourceDir string) error {
	args := []string{"a", "-tzip", "-mx=9", archivePath, "."}
	stdout, stderr, err := z.Runner.Run(ctx, sourceDir, z.Path, args...)
	if err != nil {
		return errors.NewToolExecutionError("7z", wrapOutput(err, stdout, stderr))
	}
	return nil
}
