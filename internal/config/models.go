package config

import "github.com/obsproject/obs-updater-builder/internal/obsversion"

// EnvOptions holds environment-level paths: input/output/previous build
// trees and the external tool locations consulted by Preparator/Packager.
type EnvOptions struct {
	Branch        string `mapstructure:"branch" yaml:"branch"`
	InputDir      string `mapstructure:"input_dir" yaml:"input_dir"`
	OutputDir     string `mapstructure:"output_dir" yaml:"output_dir"`
	PreviousDir   string `mapstructure:"previous_dir" yaml:"previous_dir"`
	SevenZipPath  string `mapstructure:"sevenzip_path" yaml:"sevenzip_path"`
	MakeNSISPath  string `mapstructure:"makensis_path" yaml:"makensis_path"`
	PandocPath    string `mapstructure:"pandoc_path" yaml:"pandoc_path"`
	PdbCopyPath   string `mapstructure:"pdbcopy_path" yaml:"pdbcopy_path"`
	SignToolPath  string `mapstructure:"signtool_path" yaml:"signtool_path"`
	MetricsAddr   string `mapstructure:"metrics_addr" yaml:"metrics_addr"`
}

// CopyOptions controls the full-tree copy step of Preparator.
type CopyOptions struct {
	NeverCopy []string          `mapstructure:"never_copy" yaml:"never_copy"`
	Overrides map[string]string `mapstructure:"overrides" yaml:"overrides"`

	// Deprecated aliases, migrated in Load with a warning.
	ExcludesDeprecated      []string          `mapstructure:"excludes" yaml:"excludes,omitempty"`
	OverridesSignDeprecated map[string]string `mapstructure:"overrides_sign" yaml:"overrides_sign,omitempty"`
}

// CodesignOptions controls Authenticode signing of the prepared tree.
type CodesignOptions struct {
	SkipSign    bool     `mapstructure:"skip_sign" yaml:"skip_sign"`
	SignName    string   `mapstructure:"sign_name" yaml:"sign_name"`
	SignDigest  string   `mapstructure:"sign_digest" yaml:"sign_digest"`
	SignTSServ  string   `mapstructure:"sign_ts_serv" yaml:"sign_ts_serv"`
	SignExts    []string `mapstructure:"sign_exts" yaml:"sign_exts"`
}

// StripPDBOptions controls removal of private PDB contents before packaging.
type StripPDBOptions struct {
	Exclude             []string `mapstructure:"exclude" yaml:"exclude"`
	SkipForPrerelease   bool     `mapstructure:"skip_for_prerelease" yaml:"skip_for_prerelease"`
}

// PreparationOptions holds the Preparator phase's configuration.
type PreparationOptions struct {
	EmptyOutputDir bool            `mapstructure:"empty_output_dir" yaml:"empty_output_dir"`
	Copy           CopyOptions     `mapstructure:"copy" yaml:"copy"`
	Codesign       CodesignOptions `mapstructure:"codesign" yaml:"codesign"`
	StripPDBs      StripPDBOptions `mapstructure:"strip_pdbs" yaml:"strip_pdbs"`
}

// ManifestPackageOptions describes one output package and the file patterns
// routed into it. A package with a nil IncludeFiles is the catchall package.
type ManifestPackageOptions struct {
	Name         string   `mapstructure:"name" yaml:"name"`
	IncludeFiles []string `mapstructure:"include_files" yaml:"include_files,omitempty"`
}

// IsCatchall reports whether this package has no filter and therefore
// receives every file not claimed by an earlier package.
func (p *ManifestPackageOptions) IsCatchall() bool {
	return p.IncludeFiles == nil
}

// GenerationOptions holds the Generator phase's configuration.
type GenerationOptions struct {
	SkipForPrerelease   bool                     `mapstructure:"skip_for_prerelease" yaml:"skip_for_prerelease"`
	RemovedFiles        []string                 `mapstructure:"removed_files" yaml:"removed_files"`
	ExcludeFromParallel []string                 `mapstructure:"exclude_from_parallel" yaml:"exclude_from_parallel"`
	ExcludeFromRemoval  []string                 `mapstructure:"exclude_from_removal" yaml:"exclude_from_removal"`
	Packages            []ManifestPackageOptions `mapstructure:"packages" yaml:"packages"`

	// Codec selects the delta encoder used for the patch batches:
	// "bsdiff_lzma" (default) or "zstd". "bidiff" is also accepted, kept
	// around for benchmarking against bsdiff rather than for production use.
	Codec string `mapstructure:"codec" yaml:"codec"`
}

// InstallerOptions controls NSIS installer generation and signing.
type InstallerOptions struct {
	NSISScript string `mapstructure:"nsis_script" yaml:"nsis_script"`
	Name       string `mapstructure:"name" yaml:"name"`
	SkipSign   bool   `mapstructure:"skip_sign" yaml:"skip_sign"`
}

// ZipOptions controls full-build and PDB zip archive naming.
type ZipOptions struct {
	Name                  string `mapstructure:"name" yaml:"name"`
	PDBName               string `mapstructure:"pdb_name" yaml:"pdb_name"`
	SkipPDBsForPrerelease bool   `mapstructure:"skip_pdbs_for_prerelease" yaml:"skip_pdbs_for_prerelease"`
}

// UpdaterOptions controls manifest signing and output layout.
type UpdaterOptions struct {
	SkipSign     bool   `mapstructure:"skip_sign" yaml:"skip_sign"`
	PrettyJSON   bool   `mapstructure:"pretty_json" yaml:"pretty_json"`
	NotesFile    string `mapstructure:"notes_file" yaml:"notes_file"`
	UpdaterPath  string `mapstructure:"updater_path" yaml:"updater_path"`
	PrivateKey   string `mapstructure:"private_key" yaml:"private_key,omitempty"`
	VCRedistPath string `mapstructure:"vc_redist_path" yaml:"vc_redist_path"`
}

// PackageOptions holds the Packager phase's configuration.
type PackageOptions struct {
	Installer InstallerOptions `mapstructure:"installer" yaml:"installer"`
	Zip       ZipOptions       `mapstructure:"zip" yaml:"zip"`
	Updater   UpdaterOptions   `mapstructure:"updater" yaml:"updater"`
}

// PostOptions controls the post-build archival step.
type PostOptions struct {
	CopyToOld bool `mapstructure:"copy_to_old" yaml:"copy_to_old"`
}

// ObsVersion holds the parsed/resolved version identity for this run.
type ObsVersion struct {
	Commit        string `mapstructure:"commit" yaml:"commit"`
	VersionStr    string `mapstructure:"version_str" yaml:"version_str"`
	VersionMajor  uint8  `mapstructure:"version_major" yaml:"version_major"`
	VersionMinor  uint8  `mapstructure:"version_minor" yaml:"version_minor"`
	VersionPatch  uint8  `mapstructure:"version_patch" yaml:"version_patch"`
	Beta          uint8  `mapstructure:"beta" yaml:"beta"`
	RC            uint8  `mapstructure:"rc" yaml:"rc"`
}

// MetricsConfig holds the optional Prometheus endpoint configuration.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
}

// LoggingConfig holds logging configuration, mirroring the teacher's shape.
type LoggingConfig struct {
	LogDir       string `mapstructure:"log_dir" yaml:"log_dir"`
	FileLevel    string `mapstructure:"file_level" yaml:"file_level"`
	ConsoleLevel string `mapstructure:"console_level" yaml:"console_level"`
	PlainConsole bool   `mapstructure:"plain_console" yaml:"plain_console"`
}

// CurrentConfigVersion is the current schema version for config files.
const CurrentConfigVersion = 1

// Config is the top-level build configuration, loaded from a YAML file plus
// CLI overrides and environment variables.
type Config struct {
	Version    int                 `mapstructure:"version" yaml:"version"`
	Env        EnvOptions          `mapstructure:"env" yaml:"env"`
	Prepare    PreparationOptions  `mapstructure:"prepare" yaml:"prepare"`
	Generate   GenerationOptions   `mapstructure:"generate" yaml:"generate"`
	Package    PackageOptions      `mapstructure:"package" yaml:"package"`
	Post       PostOptions         `mapstructure:"post" yaml:"post"`
	ObsVersion ObsVersion          `mapstructure:"obs_version" yaml:"obs_version"`
	Metrics    MetricsConfig       `mapstructure:"metrics" yaml:"metrics"`
	Logging    LoggingConfig       `mapstructure:"logging" yaml:"logging"`
}

// Default returns a Config with the same baseline defaults the original
// tool ships (stable branch, pretty JSON manifests, PDB stripping enabled).
func Default() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Env: EnvOptions{
			Branch: "stable",
		},
		Generate: GenerationOptions{
			Codec: "bsdiff_lzma",
		},
		Package: PackageOptions{
			Updater: UpdaterOptions{
				PrettyJSON: true,
			},
		},
		Logging: LoggingConfig{
			FileLevel:    "info",
			ConsoleLevel: "info",
		},
	}
}

// Version converts the loaded ObsVersion fields into an obsversion.Version,
// for callers that need the comparable/formattable type rather than the
// flat config fields it was parsed from.
func (c *Config) Version() obsversion.Version {
	return obsversion.Version{
		Major:  c.ObsVersion.VersionMajor,
		Minor:  c.ObsVersion.VersionMinor,
		Patch:  c.ObsVersion.VersionPatch,
		Beta:   c.ObsVersion.Beta,
		RC:     c.ObsVersion.RC,
		Commit: c.ObsVersion.Commit,
	}
}
