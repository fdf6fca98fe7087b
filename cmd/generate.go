package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/obsproject/obs-updater-builder/internal/errors"
	"github.com/obsproject/obs-updater-builder/internal/generator"
	"github.com/obsproject/obs-updater-builder/internal/logging"
	"github.com/obsproject/obs-updater-builder/internal/packager"
)

func newGenerateCmd() *cobra.Command {
	opts := &commonOptions{}
	var skipPatches bool
	var rawInput bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Diff a build against previous versions and emit the updater manifest and patches",
		Long: `Hash the new build and every archived previous version, classify each
file as added/changed/unchanged/removed, route files into packages, write
the full-copy updater tree and the updater manifest, and generate delta
patches for every changed file unless --skip-patches is set.

By default the new build is read from the output directory's install/ tree,
as left by a prior "prepare" run. Pass --raw-input to read directly from
--input-dir instead, for a standalone delta-only run against an
already-published build.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts, skipPatches, rawInput)
		},
	}
	opts.registerFlags(cmd)
	cmd.Flags().BoolVar(&skipPatches, "skip-patches", false, "Skip delta patch generation")
	cmd.Flags().BoolVar(&rawInput, "raw-input", false, "Read the new build from --input-dir instead of the output directory's install/ tree")

	return cmd
}

func init() {
	rootCmd.AddCommand(newGenerateCmd())
}

func runGenerate(cmd *cobra.Command, opts *commonOptions, skipPatches, rawInput bool) error {
	cfg, log, err := loadConfig(opts.overrides())
	if err != nil {
		return handleCommandError(err)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(false); err != nil {
		return handleCommandError(err)
	}

	stopMetrics := maybeServeMetrics(cmd.Context(), cfg, log)
	defer stopMetrics()

	gen := generator.New(cfg, log, cfg.Version(), !rawInput)
	m, err := gen.Run(cmd.Context(), skipPatches)
	if err != nil {
		return handleCommandError(err)
	}

	data, err := m.Marshal(cfg.Package.Updater.PrettyJSON)
	if err != nil {
		return handleCommandError(errors.Wrap(err, "marshalling manifest", errors.ExitGeneralError))
	}
	manifestPath := filepath.Join(cfg.Env.OutputDir, packager.ManifestFilename(cfg.Env.Branch))
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return handleCommandError(errors.NewIOError("write", manifestPath, err))
	}

	log.Info("generation complete", logging.Int("packages", len(m.Packages)))
	return nil
}
