package external

import (
	"context"

	"github.com/obsproject/obs-updater-builder/internal/errors"
)

// Pandoc wraps the external pandoc tool used to render release notes from
// Markdown/RST into the HTML embedded in the manifest.
type Pandoc struct {
	Path   string
	Runner CommandRunner
}

// NewPandoc constructs a Pandoc using the default CommandRunner.
func NewPandoc(path string) *Pandoc {
	return &Pandoc{Path: path, Runner: DefaultRunner}
}

// ToHTML renders notesFile to HTML and returns the rendered document.
func (p *Pandoc) ToHTML(ctx context.Context, notesFile string) (string, error) {
	stdout, stderr, err := p.Runner.Run(ctx, "", p.Path, notesFile, "-t", "html")
	if err != nil {
		return "", errors.NewToolExecutionError("pandoc", wrapOutput(err, stdout, stderr))
	}
	return stdout, nil
}
