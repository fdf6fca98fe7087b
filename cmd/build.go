package cmd

import (
	"github.com/spf13/cobra"

	"github.com/obsproject/obs-updater-builder/internal/driver"
	"github.com/obsproject/obs-updater-builder/internal/logging"
)

func newBuildCmd() *cobra.Command {
	opts := &commonOptions{}
	var (
		skipPrepare     bool
		skipPatches     bool
		skipInstaller   bool
		skipZips        bool
		updaterDataOnly bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run the full pipeline: prepare, generate, package",
		Long: `Run prepare, generate and package in sequence against a single build,
then (if post.copy_to_old is configured) archive the result under
--previous-dir for the next run to diff against.

--updater-data-only stops after generate, skipping the installer, zips and
manifest signing entirely - for CI jobs that only need the delta/manifest
data.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts, skipPrepare, skipPatches, skipInstaller, skipZips, updaterDataOnly)
		},
	}
	opts.registerFlags(cmd)
	cmd.Flags().BoolVar(&skipPrepare, "skip-prepare", false, "Skip the prepare phase (install/pdbs must already exist)")
	cmd.Flags().BoolVar(&skipPatches, "skip-patches", false, "Skip delta patch generation")
	cmd.Flags().BoolVar(&skipInstaller, "skip-installer", false, "Skip building the NSIS installer")
	cmd.Flags().BoolVar(&skipZips, "skip-zips", false, "Skip building the full-build and PDB zip archives")
	cmd.Flags().BoolVar(&updaterDataOnly, "updater-data-only", false, "Stop after generate: skip installer, zips, manifest signing and the post step")

	return cmd
}

func init() {
	rootCmd.AddCommand(newBuildCmd())
}

func runBuild(cmd *cobra.Command, opts *commonOptions, skipPrepare, skipPatches, skipInstaller, skipZips, updaterDataOnly bool) error {
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

	result, err := driver.Run(cmd.Context(), cfg, log, cfg.Version(), driver.Options{
		ClearOutput:         opts.clearOutput,
		SkipPrepare:         skipPrepare,
		SkipPatches:         skipPatches,
		SkipInstaller:       skipInstaller,
		SkipZips:            skipZips,
		SkipManifestSigning: opts.skipManifestSigning,
		UpdaterDataOnly:     updaterDataOnly,
	})
	if err != nil {
		return handleCommandError(err)
	}

	log.Info("build complete",
		logging.Int("packages", len(result.Manifest.Packages)),
		logging.String("manifest", result.ManifestPath))
	return nil
}
