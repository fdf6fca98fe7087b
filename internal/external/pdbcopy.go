package external

import (
	"context"

	"github.com/obsproject/obs-updater-builder/internal/errors"
)

// PDBCopy wraps the pdbcopy tool, which writes a public-symbol-only copy of
// a PDB (stripping private symbol information before it ships).
type PDBCopy struct {
	Path   string
	Runner CommandRunner
}

// NewPDBCopy constructs a PDBCopy using the default CommandRunner.
func NewPDBCopy(path string) *PDBCopy {
	return &PDBCopy{Path: path, Runner: DefaultRunner}
}

// Strip writes a public-symbols-only copy of srcPDB to dstPDB.
func (p *PDBCopy) Strip(ctx context.Context, srcPDB, dstPDB string) error {
	stdout, stderr, err := p.Runner.Run(ctx, "", p.Path, srcPDB, dstPDB, "-p")
	if err != nil {
		return errors.NewToolExecutionError("pdbcopy", wrapOutput(err, stdout, stderr))
	}
	return nil
}
