package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/obsproject/obs-updater-builder/internal/config"
	"github.com/obsproject/obs-updater-builder/internal/errors"
	"github.com/obsproject/obs-updater-builder/internal/logging"
	"github.com/obsproject/obs-updater-builder/internal/metrics"
)

// commonOptions holds the CLI flags shared by every pipeline subcommand:
// the version identity and the paths/overrides that feed config.Overrides.
type commonOptions struct {
	version             string
	beta                uint8
	rc                  uint8
	branch              string
	commit              string
	inputDir            string
	previousDir         string
	outputDir           string
	notesFile           string
	privateKey          string
	metricsAddr         string
	clearOutput         bool
	skipCodesigning     bool
	skipManifestSigning bool
}

func (o *commonOptions) registerFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.version, "version", "", "Build version (M.m.p[-beta<N>|-rc<N>])")
	f.Uint8Var(&o.beta, "beta", 0, "Beta number override")
	f.Uint8Var(&o.rc, "rc", 0, "Release-candidate number override")
	f.StringVar(&o.branch, "branch", "", "Update branch (default: config's, usually \"stable\")")
	f.StringVar(&o.commit, "commit", "", "Commit hash for this build")
	f.StringVar(&o.inputDir, "input-dir", "", "Raw build output directory")
	f.StringVar(&o.previousDir, "previous-dir", "", "Directory holding previously published builds")
	f.StringVar(&o.outputDir, "output-dir", "", "Directory to write build artefacts into")
	f.StringVar(&o.notesFile, "notes-file", "", "Path to the release notes source file")
	f.StringVar(&o.privateKey, "private-key", "", "Path to the manifest-signing private key")
	f.StringVar(&o.metricsAddr, "metrics-addr", "", "Address to serve Prometheus metrics on (empty disables)")
	f.BoolVar(&o.clearOutput, "clear-output", false, "Remove the output directory's existing contents before building")
	f.BoolVar(&o.skipCodesigning, "skip-codesigning", false, "Skip Authenticode signing of binaries and the installer")
	f.BoolVar(&o.skipManifestSigning, "skip-manifest-signing", false, "Skip signing the updater manifest")
}

func (o *commonOptions) overrides() *config.Overrides {
	return &config.Overrides{
		Version:             o.version,
		Beta:                o.beta,
		RC:                  o.rc,
		Branch:              o.branch,
		Commit:              o.commit,
		InputDir:            o.inputDir,
		PreviousDir:         o.previousDir,
		OutputDir:           o.outputDir,
		NotesFile:           o.notesFile,
		PrivateKeyPath:      o.privateKey,
		MetricsAddr:         o.metricsAddr,
		ClearOutput:         o.clearOutput,
		SkipCodesigning:     o.skipCodesigning,
		SkipManifestSigning: o.skipManifestSigning,
	}
}

// loadConfig reads the build config (bound via the persistent --config flag)
// with the given overrides applied, then initializes a logger from the
// resulting Logging section, with --debug/--verbose raising the console
// level regardless of what the file configures.
func loadConfig(ov *config.Overrides) (*config.Config, *logging.Logger, error) {
	loader := config.NewLoader()
	cfg, err := loader.Load(configFlag, ov, nil)
	if err != nil {
		return nil, nil, err
	}

	logCfg := logging.DefaultConfig()
	if cfg.Logging.LogDir != "" {
		logCfg.LogDir = cfg.Logging.LogDir
	}
	if cfg.Logging.FileLevel != "" {
		logCfg.FileLevel = logging.LevelFromString(cfg.Logging.FileLevel)
	}
	logCfg.ConsoleLevel = logging.LevelFromString(cfg.Logging.ConsoleLevel)
	logCfg.PlainConsole = cfg.Logging.PlainConsole
	if debugFlag || verboseFlag {
		logCfg.ConsoleLevel = logging.LevelFromString("debug")
	}

	log, err := logging.NewLogger(logCfg)
	if err != nil {
		return cfg, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log = log.With(logging.String("run_id", uuid.New().String()))

	return cfg, log, nil
}

// maybeServeMetrics starts the Prometheus endpoint when cfg.Env.MetricsAddr
// is set, returning a cancel func the caller should defer. It is a no-op
// when no address is configured.
func maybeServeMetrics(ctx context.Context, cfg *config.Config, log *logging.Logger) func() {
	if cfg.Env.MetricsAddr == "" {
		return func() {}
	}
	serveCtx, cancel := context.WithCancel(ctx)
	log.Info("serving metrics", logging.String("addr", cfg.Env.MetricsAddr))
	metrics.Serve(serveCtx, cfg.Env.MetricsAddr)
	return cancel
}

// handleCommandError rewraps a BuildError as a plain error carrying its
// full user-facing message (including context), for cobra/Execute to print.
func handleCommandError(err error) error {
	if err == nil {
		return nil
	}
	if buildErr, ok := err.(*errors.BuildError); ok {
		return fmt.Errorf("%s", buildErr.GetUserMessage())
	}
	return err
}
