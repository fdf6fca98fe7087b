package packager

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/obsproject/obs-updater-builder/internal/config"
	"github.com/obsproject/obs-updater-builder/internal/external"
	"github.com/obsproject/obs-updater-builder/internal/logging"
	"github.com/obsproject/obs-updater-builder/internal/manifest"
	"github.com/obsproject/obs-updater-builder/internal/obsversion"
)

type fakeRunner struct {
	gotDir  string
	gotName string
	gotArgs []string
	stdout  string
}

func (f *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	f.gotDir = dir
	f.gotName = name
	f.gotArgs = args
	return f.stdout, "", nil
}

func newTestPackager(t *testing.T) (*Packager, *config.Config) {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.Env.OutputDir = filepath.Join(root, "out")
	cfg.Env.Branch = "stable"
	cfg.Package.Updater.PrettyJSON = true
	if err := os.MkdirAll(filepath.Join(cfg.Env.OutputDir, "install"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(cfg.Env.OutputDir, "pdbs"), 0755); err != nil {
		t.Fatal(err)
	}

	v, err := obsversion.Parse("31.0.1")
	if err != nil {
		t.Fatal(err)
	}

	p := New(cfg, logging.NewNopLogger(), v)
	return p, cfg
}

func TestManifestFilenameOmitsSuffixForStableAndEmptyBranch(t *testing.T) {
	if got := manifestFilename("stable"); got != "manifest.json" {
		t.Errorf("expected manifest.json for stable branch, got %q", got)
	}
	if got := manifestFilename(""); got != "manifest.json" {
		t.Errorf("expected manifest.json for empty branch, got %q", got)
	}
	if got := manifestFilename("beta"); got != "manifest_beta.json" {
		t.Errorf("expected manifest_beta.json for beta branch, got %q", got)
	}
}

func TestFinaliseManifestWritesNotesAndJSON(t *testing.T) {
	p, cfg := newTestPackager(t)
	fr := &fakeRunner{stdout: "<p>release notes</p>"}
	p.pandoc = &external.Pandoc{Path: "pandoc", Runner: fr}

	notesFile := filepath.Join(cfg.Env.OutputDir, "notes.rst.src")
	if err := os.WriteFile(notesFile, []byte("Release notes"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg.Package.Updater.NotesFile = notesFile

	m := manifest.New(p.version)
	path, err := p.FinaliseManifest(context.Background(), m)
	if err != nil {
		t.Fatalf("FinaliseManifest: %v", err)
	}
	if filepath.Base(path) != "manifest.json" {
		t.Errorf("expected manifest.json, got %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got manifest.Manifest
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}
	if got.Notes != "<p>release notes</p>" {
		t.Errorf("expected rendered notes in manifest, got %q", got.Notes)
	}

	if _, err := os.Stat(filepath.Join(cfg.Env.OutputDir, "notes.rst")); err != nil {
		t.Error("expected notes.rst to be copied alongside the manifest")
	}
}

func TestBuildZipsSubstitutesVersionPlaceholder(t *testing.T) {
	p, cfg := newTestPackager(t)
	fr := &fakeRunner{}
	p.sevenZip = &external.SevenZip{Path: "7z", Runner: fr}
	cfg.Package.Zip.Name = "OBS-Studio-{version}-Windows.zip"
	cfg.Package.Zip.PDBName = "OBS-Studio-{version}-pdbs-Windows.zip"

	if err := p.BuildZips(context.Background()); err != nil {
		t.Fatalf("BuildZips: %v", err)
	}

	wantPath := filepath.Join(cfg.Env.OutputDir, "OBS-Studio-31.0.1-pdbs-Windows.zip")
	if fr.gotArgs[len(fr.gotArgs)-2] != wantPath {
		t.Errorf("expected version placeholder substituted in pdb zip path, got %q", fr.gotArgs[len(fr.gotArgs)-2])
	}
}
