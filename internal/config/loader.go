package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/obsproject/obs-updater-builder/internal/errors"
	"github.com/obsproject/obs-updater-builder/internal/logging"
	"github.com/obsproject/obs-updater-builder/internal/obsversion"
)

// Loader reads the YAML build config plus environment variables and CLI
// overrides, in that precedence order (CLI highest, env next, file lowest).
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader and loads a .env file from
// the current directory if one is present.
func NewLoader() *Loader {
	_ = godotenv.Load()

	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvPrefix("BOUF")
	v.SetEnvKeyReplacer(strings.NewReplacer("::", "_"))

	return &Loader{v: v}
}

// Overrides holds the subset of CLI flags that can override config file
// values, mirroring the original tool's MainArgs.
type Overrides struct {
	Version              string
	Beta                 uint8
	RC                    uint8
	Branch                string
	Commit                string
	InputDir              string
	PreviousDir           string
	OutputDir             string
	NotesFile             string
	PrivateKeyPath        string
	MetricsAddr           string
	ClearOutput           bool
	SkipCodesigning       bool
	SkipManifestSigning   bool
}

// Load reads configPath (if non-empty) into a Config, applies overrides and
// environment variables, migrates deprecated keys, and returns the result.
// It does not call Validate — callers decide when to validate (e.g. the
// check-key command validates before doing anything else).
func (l *Loader) Load(configPath string, ov *Overrides, log *logging.Logger) (*Config, error) {
	if configPath != "" {
		l.v.SetConfigFile(configPath)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigFileError(configPath, err)
		}
	}

	cfg := Default()
	decoderConfig := &mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           cfg,
		TagName:          "mapstructure",
	}
	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create config decoder: %w", err)
	}
	if err := decoder.Decode(l.v.AllSettings()); err != nil {
		return nil, errors.NewConfigFileError(configPath, err)
	}

	migrateDeprecatedKeys(cfg, log)

	if ov != nil {
		applyOverrides(cfg, ov)
	}

	return cfg, nil
}

// migrateDeprecatedKeys copies values from old key names to their new
// equivalents (prepare.copy.excludes -> prepare.copy.never_copy,
// prepare.copy.overrides_sign -> prepare.copy.overrides), warning once per
// deprecated key actually in use.
func migrateDeprecatedKeys(cfg *Config, log *logging.Logger) {
	copyOpts := &cfg.Prepare.Copy
	if len(copyOpts.ExcludesDeprecated) > 0 {
		if log != nil {
			log.Warn("config key prepare.copy.excludes is deprecated, use prepare.copy.never_copy")
		}
		copyOpts.NeverCopy = append(copyOpts.NeverCopy, copyOpts.ExcludesDeprecated...)
		copyOpts.ExcludesDeprecated = nil
	}
	if len(copyOpts.OverridesSignDeprecated) > 0 {
		if log != nil {
			log.Warn("config key prepare.copy.overrides_sign is deprecated, use prepare.copy.overrides")
		}
		if copyOpts.Overrides == nil {
			copyOpts.Overrides = make(map[string]string, len(copyOpts.OverridesSignDeprecated))
		}
		for k, v := range copyOpts.OverridesSignDeprecated {
			copyOpts.Overrides[k] = v
		}
		copyOpts.OverridesSignDeprecated = nil
	}
}

// applyOverrides mirrors Config.apply_args: CLI flags win over file values.
func applyOverrides(cfg *Config, ov *Overrides) {
	if ov.Version != "" {
		ver, err := obsversion.Parse(ov.Version)
		if err == nil {
			cfg.ObsVersion.VersionStr = ver.ShortString()
			cfg.ObsVersion.VersionMajor = ver.Major
			cfg.ObsVersion.VersionMinor = ver.Minor
			cfg.ObsVersion.VersionPatch = ver.Patch
			if ov.Beta > 0 {
				cfg.ObsVersion.Beta = ov.Beta
			} else {
				cfg.ObsVersion.Beta = ver.Beta
			}
			if ov.RC > 0 {
				cfg.ObsVersion.RC = ov.RC
			} else {
				cfg.ObsVersion.RC = ver.RC
			}
		}
	}
	if ov.InputDir != "" {
		cfg.Env.InputDir = ov.InputDir
	}
	if ov.OutputDir != "" {
		cfg.Env.OutputDir = ov.OutputDir
	}
	if ov.PreviousDir != "" {
		cfg.Env.PreviousDir = ov.PreviousDir
	}
	if ov.Branch != "" {
		cfg.Env.Branch = ov.Branch
	}
	if ov.Commit != "" {
		cfg.ObsVersion.Commit = strings.TrimPrefix(ov.Commit, "g")
	}
	if ov.MetricsAddr != "" {
		cfg.Env.MetricsAddr = ov.MetricsAddr
	}
	if ov.NotesFile != "" {
		cfg.Package.Updater.NotesFile = ov.NotesFile
	}
	if ov.PrivateKeyPath != "" {
		cfg.Package.Updater.PrivateKey = ov.PrivateKeyPath
	}

	cfg.Prepare.EmptyOutputDir = ov.ClearOutput || cfg.Prepare.EmptyOutputDir
	cfg.Prepare.Codesign.SkipSign = ov.SkipCodesigning || cfg.Prepare.Codesign.SkipSign
	cfg.Package.Installer.SkipSign = ov.SkipCodesigning || cfg.Package.Installer.SkipSign
	cfg.Package.Updater.SkipSign = ov.SkipManifestSigning || cfg.Package.Updater.SkipSign
}

// Validate checks that the config is internally consistent before the
// pipeline touches the filesystem: at least one package, at least one
// catchall package, and (when checkBinaries is set) that every configured
// external tool resolves on PATH.
func (c *Config) Validate(checkBinaries bool) error {
	if len(c.Generate.Packages) < 1 {
		return errors.NewNoPackagesError()
	}

	catchalls := 0
	for _, pkg := range c.Generate.Packages {
		if pkg.IsCatchall() {
			catchalls++
		}
	}
	if catchalls < 1 {
		return errors.NewNoCatchallPackageError()
	}

	if checkBinaries {
		for _, tool := range []struct{ name, path string }{
			{"pdbcopy", c.Env.PdbCopyPath},
			{"makensis", c.Env.MakeNSISPath},
			{"7z", c.Env.SevenZipPath},
			{"pandoc", c.Env.PandocPath},
			{"signtool", c.Env.SignToolPath},
		} {
			if _, err := resolveBinary(tool.path); err != nil {
				return errors.NewMissingBinaryError(tool.name, tool.path)
			}
		}
	}

	return nil
}

// resolveBinary returns the absolute path to a configured tool, checking
// PATH when the configured value has no directory component.
func resolveBinary(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("no path configured")
	}
	if filepath.Base(path) == path {
		return exec.LookPath(path)
	}
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}
