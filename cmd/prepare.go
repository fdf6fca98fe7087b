package cmd

import (
	"github.com/spf13/cobra"

	"github.com/obsproject/obs-updater-builder/internal/preparator"
)

func newPrepareCmd() *cobra.Command {
	opts := &commonOptions{}

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Build the clean install/ and pdbs/ trees from a raw build output",
		Long: `Copy the shippable subset of the raw build output into install/ and
pdbs/, code-sign the binaries, strip private PDB contents, and reclaim
binaries from the previous build whose code section is unchanged.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrepare(cmd, opts)
		},
	}
	opts.registerFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(newPrepareCmd())
}

func runPrepare(cmd *cobra.Command, opts *commonOptions) error {
	cfg, log, err := loadConfig(opts.overrides())
	if err != nil {
		return handleCommandError(err)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(false); err != nil {
		return handleCommandError(err)
	}

	prep := preparator.New(cfg, log)
	_, previous, err := prep.Run(cmd.Context(), opts.clearOutput, cfg.Version())
	if err != nil {
		return handleCommandError(err)
	}

	if previous != nil {
		log.Info("reclaimed unchanged binaries from previous build")
	}
	return nil
}
