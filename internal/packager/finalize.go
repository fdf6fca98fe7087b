package packager

import (
	"context"
	"os"
	"path/filepath"

	"github.com/obsproject/obs-updater-builder/internal/errors"
	"github.com/obsproject/obs-updater-builder/internal/hashengine"
	"github.com/obsproject/obs-updater-builder/internal/logging"
	"github.com/obsproject/obs-updater-builder/internal/manifest"
)

// manifestFilename returns "manifest.json" for the stable branch (or an
// unconfigured branch), and "manifest_<branch>.json" otherwise.
func manifestFilename(branch string) string {
	if branch == "" || branch == "stable" {
		return "manifest.json"
	}
	return "manifest_" + branch + ".json"
}

// ManifestFilename exposes manifestFilename for callers outside the package
// that need to locate a manifest on disk, e.g. the unfinished one written by
// a standalone generate command and read back by the package command.
func ManifestFilename(branch string) string {
	return manifestFilename(branch)
}

// FinaliseManifest fills in the fields the Generator left blank - the VC
// redistributable's hash and the release notes rendered to HTML - then
// serialises the manifest to <output>/manifest[_<branch>].json, copies the
// raw notes file alongside as notes.rst, and returns the manifest path.
func (p *Packager) FinaliseManifest(ctx context.Context, m manifest.Manifest) (string, error) {
	opts := p.cfg.Package.Updater

	if opts.VCRedistPath != "" {
		info, err := hashengine.HashFile(opts.VCRedistPath)
		if err != nil {
			return "", err
		}
		m.VC2019RedistX64 = info.Hash
		m.VC2019RedistX86 = info.Hash
	}

	if opts.NotesFile != "" {
		html, err := p.pandoc.ToHTML(ctx, opts.NotesFile)
		if err != nil {
			return "", err
		}
		m.Notes = html

		notesCopy := filepath.Join(p.cfg.Env.OutputDir, "notes.rst")
		raw, err := os.ReadFile(opts.NotesFile)
		if err != nil {
			return "", errors.NewIOError("read", opts.NotesFile, err)
		}
		if err := os.WriteFile(notesCopy, raw, 0644); err != nil {
			return "", errors.NewIOError("write", notesCopy, err)
		}
	}

	data, err := m.Marshal(opts.PrettyJSON)
	if err != nil {
		return "", errors.Wrap(err, "marshalling manifest", errors.ExitGeneralError)
	}

	manifestPath := filepath.Join(p.cfg.Env.OutputDir, manifestFilename(p.cfg.Env.Branch))
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return "", errors.NewIOError("write", manifestPath, err)
	}

	p.log.Info("wrote manifest", logging.String("path", manifestPath))
	return manifestPath, nil
}
