package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/obsproject/obs-updater-builder/internal/config"
	"github.com/obsproject/obs-updater-builder/internal/logging"
	"github.com/obsproject/obs-updater-builder/internal/obsversion"
)

func TestPostSkippedWhenCopyToOldDisabled(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Env.OutputDir = filepath.Join(root, "out")
	cfg.Env.PreviousDir = filepath.Join(root, "previous")

	v, err := obsversion.Parse("31.0.1")
	if err != nil {
		t.Fatal(err)
	}

	if err := Post(cfg, logging.NewNopLogger(), v); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Env.PreviousDir, "builds")); !os.IsNotExist(err) {
		t.Error("expected no archival when copy_to_old is disabled")
	}
}

func TestPostArchivesInstallAndPDBsUnderVersionDir(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Env.OutputDir = filepath.Join(root, "out")
	cfg.Env.PreviousDir = filepath.Join(root, "previous")
	cfg.Post.CopyToOld = true

	mustWrite(t, filepath.Join(cfg.Env.OutputDir, "install", "bin", "obs64.exe"), []byte("payload"))
	mustWrite(t, filepath.Join(cfg.Env.OutputDir, "pdbs", "bin", "obs64.pdb"), []byte("debug"))

	v, err := obsversion.Parse("31.0.1-beta2")
	if err != nil {
		t.Fatal(err)
	}

	if err := Post(cfg, logging.NewNopLogger(), v); err != nil {
		t.Fatalf("Post: %v", err)
	}

	wantExe := filepath.Join(cfg.Env.PreviousDir, "builds", "31.0.1-beta2", "bin", "obs64.exe")
	got, err := os.ReadFile(wantExe)
	if err != nil {
		t.Fatalf("expected archived install file at %s: %v", wantExe, err)
	}
	if string(got) != "payload" {
		t.Errorf("unexpected content: %q", got)
	}

	wantPdb := filepath.Join(cfg.Env.PreviousDir, "pdbs", "31.0.1-beta2", "bin", "obs64.pdb")
	if _, err := os.Stat(wantPdb); err != nil {
		t.Errorf("expected archived pdb file at %s: %v", wantPdb, err)
	}
}

func mustWrite(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}
