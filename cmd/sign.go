package cmd

import (
	"github.com/spf13/cobra"

	"github.com/obsproject/obs-updater-builder/internal/config"
	"github.com/obsproject/obs-updater-builder/internal/logging"
	"github.com/obsproject/obs-updater-builder/internal/signer"
)

func newSignCmd() *cobra.Command {
	var privateKey, file string

	cmd := &cobra.Command{
		Use:   "sign <file>",
		Short: "Produce a detached RSA (PKCS#1 v1.5, SHA-512) signature for a single file",
		Long: `Sign a single file with the configured (or --private-key overridden)
manifest-signing key, writing the detached signature alongside it with a
.sig extension appended after the file's own extension
(manifest.json -> manifest.json.sig).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file = args[0]
			return runSign(cmd, privateKey, file)
		},
	}
	cmd.Flags().StringVar(&privateKey, "private-key", "", "Path to the signing private key (overrides config)")

	return cmd
}

func init() {
	rootCmd.AddCommand(newSignCmd())
}

func runSign(cmd *cobra.Command, privateKey, file string) error {
	ov := &config.Overrides{PrivateKeyPath: privateKey}
	cfg, log, err := loadConfig(ov)
	if err != nil {
		return handleCommandError(err)
	}
	defer func() { _ = log.Sync() }()

	s := signer.New(cfg.Package.Updater.PrivateKey)
	if err := s.SignFile(file); err != nil {
		return handleCommandError(err)
	}

	log.Info("signed file", logging.String("path", file))
	return nil
}
