// Package generator implements the update-package builder's central
// algorithm: hashing the new build against every archived previous
// version, classifying every path as added/changed/unchanged/removed,
// routing files into packages, assembling the manifest, and emitting both
// the full-copy updater tree and the delta patches between old and new.
package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/obsproject/obs-updater-builder/internal/codec"
	"github.com/obsproject/obs-updater-builder/internal/codec/bidiff"
	"github.com/obsproject/obs-updater-builder/internal/codec/bsdiff"
	"github.com/obsproject/obs-updater-builder/internal/codec/zstdiff"
	"github.com/obsproject/obs-updater-builder/internal/config"
	"github.com/obsproject/obs-updater-builder/internal/errors"
	"github.com/obsproject/obs-updater-builder/internal/logging"
	"github.com/obsproject/obs-updater-builder/internal/manifest"
	"github.com/obsproject/obs-updater-builder/internal/obsversion"
	"github.com/obsproject/obs-updater-builder/internal/progress"
	"github.com/obsproject/obs-updater-builder/internal/workerpool"
)

// Generator runs the analysis/routing/manifest/emission pipeline for one
// build. Unlike the source this is grounded on, it never stashes its
// analysis behind a lazily-filled, unwrap-guarded field: every phase past
// analyse takes the *analysis it needs as an explicit parameter, so the
// type system rules out calling a later phase before analysis has run.
type Generator struct {
	cfg *config.Config
	log *logging.Logger

	inputDir string
	oldDir   string
	outDir   string
	version  obsversion.Version
	codec    codec.Codec
}

// New constructs a Generator. When ranPrep is true, the input tree is the
// Preparator's install/ output instead of the raw input directory.
func New(cfg *config.Config, log *logging.Logger, version obsversion.Version, ranPrep bool) *Generator {
	inputDir := cfg.Env.InputDir
	if ranPrep {
		inputDir = filepath.Join(cfg.Env.OutputDir, "install")
	}

	return &Generator{
		cfg:      cfg,
		log:      log,
		inputDir: inputDir,
		oldDir:   filepath.Join(cfg.Env.PreviousDir, "builds"),
		outDir:   cfg.Env.OutputDir,
		version:  version,
		codec:    selectCodec(cfg.Generate.Codec),
	}
}

// selectCodec maps the configured codec name to an implementation,
// defaulting to bsdiff+LZMA when unset or unrecognised.
func selectCodec(name string) codec.Codec {
	switch name {
	case "zstd":
		return zstdiff.Codec{}
	case "bidiff":
		return bidiff.Codec{}
	default:
		return bsdiff.Codec{}
	}
}

// Run executes the full pipeline: analyse, route into packages, copy the
// new build into the updater layout, assemble the manifest, and (unless
// skipped or empty) generate delta patches.
func (g *Generator) Run(ctx context.Context, skipPatches bool) (manifest.Manifest, error) {
	a, err := g.analyse(ctx, skipPatches)
	if err != nil {
		return manifest.Manifest{}, err
	}
	g.fillPackageMap(a)

	if err := g.copyBuild(ctx, a); err != nil {
		return manifest.Manifest{}, err
	}

	m := g.createManifest(a)

	if skipPatches || len(a.patchList) == 0 {
		g.log.Info("no patches to create or patch generation skipped")
		return m, nil
	}

	if err := g.createPatches(ctx, a); err != nil {
		return manifest.Manifest{}, err
	}

	return m, nil
}

// CreatePatches runs analysis and patch generation only, without copying
// the build or assembling a manifest - for standalone delta generation
// against an already-published build.
func (g *Generator) CreatePatches(ctx context.Context) error {
	a, err := g.analyse(ctx, false)
	if err != nil {
		return err
	}
	g.fillPackageMap(a)
	return g.createPatches(ctx, a)
}

type copyResult struct{}

// copyBuild walks the new build's input map in parallel, copying each file
// into updater/update_studio/<branch>/<package>/<relpath>.
func (g *Generator) copyBuild(ctx context.Context, a *analysis) error {
	if err := os.MkdirAll(g.outDir, 0755); err != nil {
		return errors.NewIOError("mkdir", g.outDir, err)
	}

	branch := g.cfg.Env.Branch
	names := make([]string, 0, len(a.inputMap))
	for name := range a.inputMap {
		names = append(names, name)
	}

	prog := progress.New("copy build", nil)
	prog.Start(len(names))
	defer prog.Done()

	var totalBytes uint64
	for _, name := range names {
		totalBytes += a.inputMap[name].Size
	}
	g.log.Info("copying new build to updater structure",
		logging.Int("files", len(names)),
		logging.String("size", humanize.Bytes(totalBytes)))

	pool := workerpool.New[copyResult](0)
	tasks := make([]workerpool.Task[copyResult], len(names))
	for i, name := range names {
		name := name
		tasks[i] = func(ctx context.Context) (copyResult, error) {
			pkg := packageFor(a, name)
			dest := filepath.Join(g.outDir, "updater", "update_studio", branch, pkg, filepath.FromSlash(name))
			if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
				return copyResult{}, err
			}
			src := filepath.Join(g.inputDir, filepath.FromSlash(name))
			if err := copyFile(src, dest); err != nil {
				return copyResult{}, err
			}
			prog.Increment()
			return copyResult{}, nil
		}
	}

	for _, res := range pool.Run(ctx, tasks) {
		if res.Error != nil {
			return errors.NewIOError("copy", g.inputDir, res.Error)
		}
	}
	return nil
}

// createPatches partitions the patch list into a parallel batch and a
// serial batch (matched against exclude_from_parallel), runs the parallel
// batch across a worker pool, then the serial batch single-threaded.
func (g *Generator) createPatches(ctx context.Context, a *analysis) error {
	if err := os.MkdirAll(g.outDir, 0755); err != nil {
		return errors.NewIOError("mkdir", g.outDir, err)
	}

	var parallelBatch, serialBatch []patch
	for _, p := range a.patchList {
		if containsAny(p.name, g.cfg.Generate.ExcludeFromParallel) {
			serialBatch = append(serialBatch, p)
		} else {
			parallelBatch = append(parallelBatch, p)
		}
	}

	branch := g.cfg.Env.Branch

	g.log.Info("creating delta-patches", logging.Int("count", len(parallelBatch)))
	prog := progress.New("patches", nil)
	prog.Start(len(parallelBatch))

	pool := workerpool.New[copyResult](0)
	tasks := make([]workerpool.Task[copyResult], len(parallelBatch))
	for i, p := range parallelBatch {
		p := p
		tasks[i] = func(ctx context.Context) (copyResult, error) {
			err := g.createOnePatch(a, branch, p)
			prog.Increment()
			return copyResult{}, err
		}
	}
	for _, res := range pool.Run(ctx, tasks) {
		if res.Error != nil {
			prog.Done()
			return res.Error
		}
	}
	prog.Done()

	if len(serialBatch) == 0 {
		return nil
	}

	g.log.Info("creating non-parallel delta-patches", logging.Int("count", len(serialBatch)))
	prog = progress.New("patches (serial)", nil)
	prog.Start(len(serialBatch))
	defer prog.Done()
	for _, p := range serialBatch {
		if err := g.createOnePatch(a, branch, p); err != nil {
			return err
		}
		prog.Increment()
	}
	return nil
}

func (g *Generator) createOnePatch(a *analysis, branch string, p patch) error {
	pkg := packageFor(a, p.name)
	outfile := filepath.Join(g.outDir, "updater", "patches_studio", branch, pkg, filepath.FromSlash(p.name), p.hash)
	if err := os.MkdirAll(filepath.Dir(outfile), 0755); err != nil {
		return errors.NewIOError("mkdir", filepath.Dir(outfile), err)
	}
	if _, err := g.codec.CreatePatch(p.oldFile, p.newFile, outfile); err != nil {
		return errors.NewCodecError(g.cfg.Generate.Codec, fmt.Sprintf("creating delta patch for %s", p.name), err)
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
