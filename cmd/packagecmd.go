package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/obsproject/obs-updater-builder/internal/errors"
	"github.com/obsproject/obs-updater-builder/internal/logging"
	"github.com/obsproject/obs-updater-builder/internal/manifest"
	"github.com/obsproject/obs-updater-builder/internal/packager"
)

func newPackageCmd() *cobra.Command {
	opts := &commonOptions{}
	var skipInstaller, skipZips bool

	cmd := &cobra.Command{
		Use:   "package",
		Short: "Build the installer and zip archives and finalise the signed manifest",
		Long: `Build the NSIS installer and the full-build/PDB zip archives from the
output directory's install/pdbs trees, fill in the release notes and
redistributable hash left blank by "generate", and write the finalised,
signed updater manifest.

Reads the manifest previously written by "generate" (or "build") from the
output directory, so it must run after one of those has populated
install/, pdbs/ and the unfinished manifest JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackage(cmd, opts, skipInstaller, skipZips)
		},
	}
	opts.registerFlags(cmd)
	cmd.Flags().BoolVar(&skipInstaller, "skip-installer", false, "Skip building the NSIS installer")
	cmd.Flags().BoolVar(&skipZips, "skip-zips", false, "Skip building the full-build and PDB zip archives")

	return cmd
}

func init() {
	rootCmd.AddCommand(newPackageCmd())
}

func runPackage(cmd *cobra.Command, opts *commonOptions, skipInstaller, skipZips bool) error {
	cfg, log, err := loadConfig(opts.overrides())
	if err != nil {
		return handleCommandError(err)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(false); err != nil {
		return handleCommandError(err)
	}

	manifestPath := filepath.Join(cfg.Env.OutputDir, packager.ManifestFilename(cfg.Env.Branch))
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return handleCommandError(errors.NewMissingFileError(manifestPath))
	}
	var m manifest.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return handleCommandError(errors.NewIOError("parse", manifestPath, err))
	}

	pkg := packager.New(cfg, log, cfg.Version())
	outPath, err := pkg.Run(cmd.Context(), m, skipInstaller, skipZips, opts.skipManifestSigning)
	if err != nil {
		return handleCommandError(err)
	}

	log.Info("packaging complete", logging.String("manifest", outPath))
	return nil
}
