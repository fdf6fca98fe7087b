// Package driver wires the Preparator, Generator and Packager phases into
// the single pipeline the CLI commands drive, and implements the Post step
// that archives a finished build for the next run to diff against.
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/obsproject/obs-updater-builder/internal/config"
	"github.com/obsproject/obs-updater-builder/internal/errors"
	"github.com/obsproject/obs-updater-builder/internal/generator"
	"github.com/obsproject/obs-updater-builder/internal/logging"
	"github.com/obsproject/obs-updater-builder/internal/manifest"
	"github.com/obsproject/obs-updater-builder/internal/metrics"
	"github.com/obsproject/obs-updater-builder/internal/obsversion"
	"github.com/obsproject/obs-updater-builder/internal/packager"
	"github.com/obsproject/obs-updater-builder/internal/preparator"
)

// Options controls which of the otherwise-mandatory phases and sub-steps
// are skipped for a given run, mirroring the original tool's CLI flags.
// Codesigning is not a separate field here: --skip-codesigning is applied
// by loadConfig as a config.Overrides entry, so by the time Run sees cfg,
// Prepare.Codesign.SkipSign and Package.Installer.SkipSign already reflect
// it for every phase that checks them.
type Options struct {
	ClearOutput         bool
	SkipPrepare         bool
	SkipPatches         bool
	SkipInstaller       bool
	SkipZips            bool
	SkipManifestSigning bool
	UpdaterDataOnly     bool
}

// Result is what a full pipeline run produced, for the caller to log or
// report on.
type Result struct {
	Manifest     manifest.Manifest
	ManifestPath string
	Previous     *obsversion.Version
}

// Run executes the full build pipeline: Preparator, Generator, Packager,
// then the Post archival step, honoring opts' skip flags. UpdaterDataOnly
// short-circuits after the Generator, skipping Packager and Post entirely -
// it exists for CI jobs that only need the delta/manifest data, not signed
// installers.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger, version obsversion.Version, opts Options) (*Result, error) {
	metrics.SetBuildInfo(version.ShortString(), cfg.Env.Branch)

	ranPrep := false
	var previous *obsversion.Version

	if !opts.SkipPrepare {
		start := time.Now()
		prep := preparator.New(cfg, log)
		_, prev, err := prep.Run(ctx, opts.ClearOutput, version)
		metrics.ObservePhase(metrics.PhasePrepare, time.Since(start))
		if err != nil {
			return nil, err
		}
		previous = prev
		ranPrep = true
	} else if err := os.MkdirAll(cfg.Env.OutputDir, 0755); err != nil {
		return nil, errors.NewIOError("mkdir", cfg.Env.OutputDir, err)
	}

	start := time.Now()
	gen := generator.New(cfg, log, version, ranPrep)
	m, err := gen.Run(ctx, opts.SkipPatches)
	metrics.ObservePhase(metrics.PhaseGenerate, time.Since(start))
	if err != nil {
		return nil, err
	}

	result := &Result{Manifest: m, Previous: previous}

	if opts.UpdaterDataOnly {
		log.Info("updater-data-only run, skipping packager and post step")
		return result, nil
	}

	start = time.Now()
	pkg := packager.New(cfg, log, version)
	manifestPath, err := pkg.Run(ctx, m, opts.SkipInstaller, opts.SkipZips, opts.SkipManifestSigning)
	metrics.ObservePhase(metrics.PhasePackage, time.Since(start))
	if err != nil {
		return nil, err
	}
	result.ManifestPath = manifestPath

	start = time.Now()
	err = Post(cfg, log, version)
	metrics.ObservePhase(metrics.PhasePost, time.Since(start))
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Post archives the just-built install/ and pdbs/ trees under
// previous/builds/<version>/ and previous/pdbs/<version>/ so the next run's
// Generator can diff against them, when cfg.Post.CopyToOld is set.
func Post(cfg *config.Config, log *logging.Logger, version obsversion.Version) error {
	if !cfg.Post.CopyToOld {
		return nil
	}

	dir := versionDirName(version)
	jobs := []struct{ src, dst string }{
		{filepath.Join(cfg.Env.OutputDir, "install"), filepath.Join(cfg.Env.PreviousDir, "builds", dir)},
		{filepath.Join(cfg.Env.OutputDir, "pdbs"), filepath.Join(cfg.Env.PreviousDir, "pdbs", dir)},
	}

	for _, j := range jobs {
		if _, err := os.Stat(j.src); err != nil {
			continue
		}
		log.Info("archiving build for future diffs", logging.String("from", j.src), logging.String("to", j.dst))
		if err := copyTree(j.src, j.dst); err != nil {
			return err
		}
	}
	return nil
}

// versionDirName is the directory-name form of a version, matching what
// Preparator.FindPrevious parses back out of previous/builds/*.
func versionDirName(v obsversion.Version) string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	switch {
	case v.Beta > 0:
		s += fmt.Sprintf("-beta%d", v.Beta)
	case v.RC > 0:
		s += fmt.Sprintf("-rc%d", v.RC)
	case v.Commit != "":
		s += "-g" + v.Commit
	}
	return s
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.NewIOError("read", path, err)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return errors.NewIOError("mkdir", filepath.Dir(target), err)
		}
		if err := os.WriteFile(target, data, info.Mode()); err != nil {
			return errors.NewIOError("write", target, err)
		}
		return nil
	})
}
