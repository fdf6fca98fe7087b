package cmd

import (
	"github.com/spf13/cobra"

	"github.com/obsproject/obs-updater-builder/internal/config"
	"github.com/obsproject/obs-updater-builder/internal/signer"
)

func newCheckKeyCmd() *cobra.Command {
	var privateKey string

	cmd := &cobra.Command{
		Use:   "check-key",
		Short: "Validate the manifest-signing private key and required binaries resolve",
		Long: `Load the configured private key and verify it parses as a valid
RSA key (PKCS#1 or PKCS#8 PEM), and confirm every external tool (makensis, 7z, pandoc,
signtool, pdbcopy) configured for this platform resolves on PATH or at
its configured absolute path. Exits non-zero without touching the
filesystem otherwise, for use as a pre-flight CI check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckKey(cmd, privateKey)
		},
	}
	cmd.Flags().StringVar(&privateKey, "private-key", "", "Path to the signing private key (overrides config)")

	return cmd
}

func init() {
	rootCmd.AddCommand(newCheckKeyCmd())
}

func runCheckKey(cmd *cobra.Command, privateKey string) error {
	ov := &config.Overrides{PrivateKeyPath: privateKey}
	cfg, log, err := loadConfig(ov)
	if err != nil {
		return handleCommandError(err)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(true); err != nil {
		return handleCommandError(err)
	}

	s := signer.New(cfg.Package.Updater.PrivateKey)
	if err := s.CheckKey(); err != nil {
		return handleCommandError(err)
	}

	log.Info("private key and external tools check out")
	return nil
}
