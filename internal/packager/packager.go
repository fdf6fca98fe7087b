// Package packager drives the installer build, the full-build/PDB ZIP
// archives, and the manifest finalisation (release notes, redistributable
// hash, JSON serialisation, detached signature) that turn a Generator's
// output into the artefacts actually shipped to users.
package packager

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/obsproject/obs-updater-builder/internal/config"
	"github.com/obsproject/obs-updater-builder/internal/errors"
	"github.com/obsproject/obs-updater-builder/internal/external"
	"github.com/obsproject/obs-updater-builder/internal/logging"
	"github.com/obsproject/obs-updater-builder/internal/manifest"
	"github.com/obsproject/obs-updater-builder/internal/obsversion"
	"github.com/obsproject/obs-updater-builder/internal/signer"
)

// Packager assembles the end-user-facing artefacts from the Preparator's
// install/pdbs trees: the NSIS installer, the full-build and PDB ZIPs, and
// the finalised, signed updater manifest.
type Packager struct {
	cfg     *config.Config
	log     *logging.Logger
	version obsversion.Version

	makeNSIS *external.MakeNSIS
	signTool *external.SignTool
	sevenZip *external.SevenZip
	pandoc   *external.Pandoc
	signer   *signer.Signer
}

// New constructs a Packager from the loaded config.
func New(cfg *config.Config, log *logging.Logger, version obsversion.Version) *Packager {
	return &Packager{
		cfg:      cfg,
		log:      log,
		version:  version,
		makeNSIS: external.NewMakeNSIS(cfg.Env.MakeNSISPath),
		signTool: external.NewSignTool(cfg.Env.SignToolPath),
		sevenZip: external.NewSevenZip(cfg.Env.SevenZipPath),
		pandoc:   external.NewPandoc(cfg.Env.PandocPath),
		signer:   signer.New(cfg.Package.Updater.PrivateKey),
	}
}

func (p *Packager) installDir() string { return filepath.Join(p.cfg.Env.OutputDir, "install") }
func (p *Packager) pdbsDir() string    { return filepath.Join(p.cfg.Env.OutputDir, "pdbs") }

// installerPath is the path the NSIS script and the signer agree on for the
// produced installer: OBS-Studio-<short-version>-Full-Installer-x64.exe
// under the output directory.
func (p *Packager) installerPath() string {
	name := "OBS-Studio-" + obsversion.FilenameVersion(p.version, true) + "-Full-Installer-x64.exe"
	return filepath.Join(p.cfg.Env.OutputDir, name)
}

// BuildInstaller invokes makensis against the configured script, then
// codesigns the result unless installer signing is disabled. It is a no-op
// on non-Windows platforms, matching the original tool's Linux behaviour.
func (p *Packager) BuildInstaller(ctx context.Context) error {
	if runtime.GOOS != "windows" {
		p.log.Info("installer creation is not supported on this platform, skipping")
		return nil
	}

	opts := p.cfg.Package.Installer
	tag := obsversion.FilenameVersion(p.version, false)
	short := obsversion.FilenameVersion(p.version, true)

	p.log.Info("building installer", logging.String("script", opts.NSISScript))
	if err := p.makeNSIS.Build(ctx, opts.NSISScript, external.Defines{
		Tag:      tag,
		Short:    short,
		Full:     p.version.ShortString(),
		BuildDir: p.installDir(),
	}); err != nil {
		return err
	}

	if opts.SkipSign || p.cfg.Prepare.Codesign.SkipSign {
		return nil
	}

	p.log.Info("signing installer", logging.String("path", p.installerPath()))
	return p.signTool.SignBatch(ctx, []string{p.installerPath()}, external.SignOptions{
		Digest:       p.cfg.Prepare.Codesign.SignDigest,
		CertName:     p.cfg.Prepare.Codesign.SignName,
		TimestampURL: p.cfg.Prepare.Codesign.SignTSServ,
	})
}

// BuildZips archives install/ and pdbs/ into the configured ZIP names, with
// the {version} placeholder substituted by the short version string. The
// PDB archive is skipped when configured to do so for a prerelease build.
func (p *Packager) BuildZips(ctx context.Context) error {
	short := obsversion.FilenameVersion(p.version, true)
	opts := p.cfg.Package.Zip

	zipName := strings.ReplaceAll(opts.Name, "{version}", short)
	zipPath := filepath.Join(p.cfg.Env.OutputDir, zipName)
	p.log.Info("creating full-build zip", logging.String("path", zipPath))
	if err := p.sevenZip.CreateZip(ctx, zipPath, p.installDir()); err != nil {
		return err
	}

	if opts.SkipPDBsForPrerelease && p.version.IsPrerelease() {
		p.log.Info("skipping PDB zip for prerelease build")
		return nil
	}

	pdbZipName := strings.ReplaceAll(opts.PDBName, "{version}", short)
	pdbZipPath := filepath.Join(p.cfg.Env.OutputDir, pdbZipName)
	p.log.Info("creating pdb zip", logging.String("path", pdbZipPath))
	return p.sevenZip.CreateZip(ctx, pdbZipPath, p.pdbsDir())
}

// SignManifest produces a detached signature alongside manifestPath unless
// manifest signing is disabled.
func (p *Packager) SignManifest(manifestPath string) error {
	if p.cfg.Package.Updater.SkipSign {
		return nil
	}
	return p.signer.SignFile(manifestPath)
}

// Run executes the packager's independently-skippable phases in sequence:
// installer, zips, manifest finalisation, and manifest signing.
func (p *Packager) Run(ctx context.Context, m manifest.Manifest, skipInstaller, skipZips, skipManifestSigning bool) (string, error) {
	if !skipInstaller {
		if err := p.BuildInstaller(ctx); err != nil {
			return "", errors.Wrap(err, "building installer", errors.ExitToolError)
		}
	}
	if !skipZips {
		if err := p.BuildZips(ctx); err != nil {
			return "", errors.Wrap(err, "building zip archives", errors.ExitToolError)
		}
	}

	manifestPath, err := p.FinaliseManifest(ctx, m)
	if err != nil {
		return "", err
	}

	if !skipManifestSigning {
		if err := p.SignManifest(manifestPath); err != nil {
			return "", err
		}
	}

	return manifestPath, nil
}
