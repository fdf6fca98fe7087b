// Package preparator builds the clean install/ and pdbs/ trees from a raw
// build output directory: copying the shippable subset of files, folding in
// overrides, code-signing, stripping private PDB data, and reclaiming
// binaries from the previous build when their code is unchanged.
//
// The phase sequence is a state machine: fresh -> copied -> analysed ->
// signed -> stripped -> reclaimed. Each phase reads the current on-disk
// state of install/ left by the one before it, so Run executes them
// strictly in order.
package preparator

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/obsproject/obs-updater-builder/internal/config"
	"github.com/obsproject/obs-updater-builder/internal/errors"
	"github.com/obsproject/obs-updater-builder/internal/external"
	"github.com/obsproject/obs-updater-builder/internal/logging"
	"github.com/obsproject/obs-updater-builder/internal/obsversion"
)

// shippablePrefixes are the only top-level directories copied out of the
// raw input build.
var shippablePrefixes = []string{"bin/", "data/", "obs-plugins/"}

// Preparator runs the install/pdbs tree preparation phases for one build.
type Preparator struct {
	cfg *config.Config
	log *logging.Logger

	signTool *external.SignTool
	pdbCopy  *external.PDBCopy
}

// New constructs a Preparator from the loaded config.
func New(cfg *config.Config, log *logging.Logger) *Preparator {
	return &Preparator{
		cfg:      cfg,
		log:      log,
		signTool: external.NewSignTool(cfg.Env.SignToolPath),
		pdbCopy:  external.NewPDBCopy(cfg.Env.PdbCopyPath),
	}
}

// Run executes the full phase sequence for the given new version, returning
// the exclusion set produced by code analysis (always non-nil) and the
// previous version reclaimed from, if any.
func (p *Preparator) Run(ctx context.Context, deleteOld bool, newVersion obsversion.Version) (excluded map[string]bool, previous *obsversion.Version, err error) {
	if err := p.EnsureOutputDir(deleteOld); err != nil {
		return nil, nil, err
	}
	if err := p.Copy(); err != nil {
		return nil, nil, err
	}

	previous, err = p.FindPrevious(newVersion)
	if err != nil {
		return nil, nil, err
	}

	excluded = map[string]bool{}
	if previous != nil {
		excluded, err = p.CodeAnalysis(ctx, *previous)
		if err != nil {
			return nil, nil, err
		}
	}

	if err := p.Codesign(ctx); err != nil {
		return nil, nil, err
	}
	if err := p.StripPDBs(ctx); err != nil {
		return nil, nil, err
	}
	if previous != nil && len(excluded) > 0 {
		if err := p.CopyPrevious(*previous, excluded); err != nil {
			return nil, nil, err
		}
	}

	return excluded, previous, nil
}

func (p *Preparator) installDir() string { return filepath.Join(p.cfg.Env.OutputDir, "install") }
func (p *Preparator) pdbsDir() string    { return filepath.Join(p.cfg.Env.OutputDir, "pdbs") }

// EnsureOutputDir wipes (if configured and non-empty) or rejects a
// non-empty output directory, then (re)creates it.
func (p *Preparator) EnsureOutputDir(deleteOld bool) error {
	out := p.cfg.Env.OutputDir

	entries, err := os.ReadDir(out)
	if err == nil && len(entries) > 0 {
		if !deleteOld && !p.cfg.Prepare.EmptyOutputDir {
			return errors.NewInvalidPathError(out, "output directory is not empty")
		}
		p.log.Info("deleting previous output dir", logging.String("path", out))
		if err := os.RemoveAll(out); err != nil {
			return errors.NewIOError("remove", out, err)
		}
	} else if err != nil && !os.IsNotExist(err) {
		return errors.NewIOError("read", out, err)
	}

	if err := os.MkdirAll(out, 0755); err != nil {
		return errors.NewIOError("mkdir", out, err)
	}
	return nil
}

// Copy walks the raw input tree and copies the shippable subset into
// install/, honoring never_copy substrings and override destinations, then
// overlays the configured override files.
func (p *Preparator) Copy() error {
	in := p.cfg.Env.InputDir
	out := p.installDir()
	opts := p.cfg.Prepare.Copy

	p.log.Info("copying build", logging.String("from", in), logging.String("to", out))

	if err := os.MkdirAll(out, 0755); err != nil {
		return errors.NewIOError("mkdir", out, err)
	}

	overrideDest := make(map[string]bool, len(opts.Overrides))
	for dest := range opts.Overrides {
		overrideDest[filepath.ToSlash(dest)] = true
	}

	err := filepath.Walk(in, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(in, path)
		if err != nil {
			return err
		}
		relSlash := filepath.ToSlash(rel)

		if !hasShippablePrefix(relSlash) {
			return nil
		}
		if overrideDest[relSlash] {
			return nil
		}
		for _, never := range opts.NeverCopy {
			if strings.Contains(relSlash, never) {
				return nil
			}
		}

		dest := filepath.Join(out, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		return copyFile(path, dest)
	})
	if err != nil {
		return errors.NewIOError("walk", in, err)
	}

	for dest, src := range opts.Overrides {
		if _, err := os.Stat(src); err != nil {
			return errors.NewMissingFileError(src)
		}
		destPath := filepath.Join(out, filepath.FromSlash(dest))
		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return errors.NewIOError("mkdir", destPath, err)
		}
		if err := copyFile(src, destPath); err != nil {
			return errors.NewIOError("copy", src, err)
		}
	}

	return nil
}

func hasShippablePrefix(relSlash string) bool {
	for _, prefix := range shippablePrefixes {
		if strings.HasPrefix(relSlash, prefix) {
			return true
		}
	}
	return false
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

// Codesign signs every eligible file under install/ in one batch. It is a
// no-op on non-Windows platforms and when skip_sign is set.
func (p *Preparator) Codesign(ctx context.Context) error {
	if p.cfg.Prepare.Codesign.SkipSign {
		return nil
	}
	if runtime.GOOS != "windows" {
		p.log.Info("codesigning is not supported on this platform, skipping")
		return nil
	}

	in := p.installDir()
	var toSign []string
	err := filepath.Walk(in, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		for _, ext := range p.cfg.Prepare.Codesign.SignExts {
			if strings.HasSuffix(path, ext) {
				toSign = append(toSign, path)
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return errors.NewIOError("walk", in, err)
	}

	p.log.Info("signing files", logging.Int("count", len(toSign)))
	return p.signTool.SignBatch(ctx, toSign, external.SignOptions{
		Digest:       p.cfg.Prepare.Codesign.SignDigest,
		CertName:     p.cfg.Prepare.Codesign.SignName,
		TimestampURL: p.cfg.Prepare.Codesign.SignTSServ,
	})
}

// StripPDBs moves every *.pdb under install/ into the mirrored path under
// pdbs/ - the full PDB always ends up there - then writes a
// public-symbol-only copy back into install/, unless the path matches the
// exclude list, in which case install/ is left with no PDB at all.
func (p *Preparator) StripPDBs(ctx context.Context) error {
	in := p.installDir()
	out := p.pdbsDir()
	opts := p.cfg.Prepare.StripPDBs

	p.log.Info("copying/stripping PDBs", logging.String("from", in), logging.String("to", out))

	var pdbs []string
	err := filepath.Walk(in, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".pdb") {
			return nil
		}
		pdbs = append(pdbs, path)
		return nil
	})
	if err != nil {
		return errors.NewIOError("walk", in, err)
	}

	for _, path := range pdbs {
		rel, err := filepath.Rel(in, path)
		if err != nil {
			return err
		}
		relSlash := filepath.ToSlash(rel)
		dest := filepath.Join(out, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return errors.NewIOError("mkdir", dest, err)
		}

		excluded := false
		for _, x := range opts.Exclude {
			if strings.Contains(relSlash, x) {
				excluded = true
				break
			}
		}

		if err := os.Rename(path, dest); err != nil {
			return errors.NewIOError("rename", path, err)
		}
		if excluded {
			continue
		}
		if err := p.pdbCopy.Strip(ctx, dest, path); err != nil {
			return err
		}
	}

	return nil
}
