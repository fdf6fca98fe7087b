package generator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/obsproject/obs-updater-builder/internal/config"
	"github.com/obsproject/obs-updater-builder/internal/logging"
	"github.com/obsproject/obs-updater-builder/internal/obsversion"
)

func mustWrite(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func newTestGenerator(t *testing.T) (*Generator, *config.Config) {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.Env.InputDir = filepath.Join(root, "install")
	cfg.Env.OutputDir = filepath.Join(root, "out")
	cfg.Env.PreviousDir = filepath.Join(root, "previous")
	cfg.Generate.Packages = []config.ManifestPackageOptions{
		{Name: "browser", IncludeFiles: []string{"obs-browser"}},
		{Name: "core"},
	}

	v, err := obsversion.Parse("31.0.1")
	if err != nil {
		t.Fatal(err)
	}

	g := New(cfg, logging.NewNopLogger(), v, false)
	return g, cfg
}

func TestAnalyseClassifiesAddedChangedUnchangedRemoved(t *testing.T) {
	g, cfg := newTestGenerator(t)

	mustWrite(t, filepath.Join(cfg.Env.InputDir, "bin", "same.exe"), []byte("same-bytes"))
	mustWrite(t, filepath.Join(cfg.Env.InputDir, "bin", "changed.exe"), []byte("new-content"))
	mustWrite(t, filepath.Join(cfg.Env.InputDir, "bin", "added.exe"), []byte("brand-new"))

	mustWrite(t, filepath.Join(cfg.Env.PreviousDir, "builds", "30.0.0", "bin", "same.exe"), []byte("same-bytes"))
	mustWrite(t, filepath.Join(cfg.Env.PreviousDir, "builds", "30.0.0", "bin", "changed.exe"), []byte("old-content"))
	mustWrite(t, filepath.Join(cfg.Env.PreviousDir, "builds", "30.0.0", "bin", "gone.exe"), []byte("removed-content"))

	if err := os.MkdirAll(cfg.Env.OutputDir, 0755); err != nil {
		t.Fatal(err)
	}

	a, err := g.analyse(context.Background(), false)
	if err != nil {
		t.Fatalf("analyse: %v", err)
	}

	if !a.unchangedFiles["bin/same.exe"] {
		t.Error("expected bin/same.exe to be unchanged")
	}
	if !a.changedFiles["bin/changed.exe"] {
		t.Error("expected bin/changed.exe to be changed")
	}
	if !a.addedFiles["bin/added.exe"] {
		t.Error("expected bin/added.exe to be added")
	}
	if !a.removedFiles["bin/gone.exe"] {
		t.Error("expected bin/gone.exe to be removed")
	}
	if len(a.patchList) != 1 || a.patchList[0].name != "bin/changed.exe" {
		t.Fatalf("expected exactly one patch for bin/changed.exe, got %+v", a.patchList)
	}

	for _, name := range []string{"added.txt", "removed.txt", "changed.txt", "unchanged.txt"} {
		if _, err := os.Stat(filepath.Join(cfg.Env.OutputDir, name)); err != nil {
			t.Errorf("expected %s to be written: %v", name, err)
		}
	}
}

func TestAnalyseStripsBackCompatPrefixes(t *testing.T) {
	g, cfg := newTestGenerator(t)

	mustWrite(t, filepath.Join(cfg.Env.InputDir, "obs-plugins", "frontend-tools.dll"), []byte("v2"))
	mustWrite(t, filepath.Join(cfg.Env.PreviousDir, "builds", "30.0.0", "core", "obs-plugins", "frontend-tools.dll"), []byte("v1"))
	if err := os.MkdirAll(cfg.Env.OutputDir, 0755); err != nil {
		t.Fatal(err)
	}

	a, err := g.analyse(context.Background(), false)
	if err != nil {
		t.Fatalf("analyse: %v", err)
	}
	if !a.changedFiles["obs-plugins/frontend-tools.dll"] {
		t.Errorf("expected core/ prefix to be stripped so the path matches, got changed=%v removed=%v",
			a.changedFiles, a.removedFiles)
	}
}

func TestFillPackageMapRoutesByPattern(t *testing.T) {
	g, cfg := newTestGenerator(t)
	mustWrite(t, filepath.Join(cfg.Env.InputDir, "bin", "obs64.exe"), []byte("x"))
	mustWrite(t, filepath.Join(cfg.Env.InputDir, "obs-plugins", "obs-browser", "plugin.dll"), []byte("x"))
	if err := os.MkdirAll(cfg.Env.OutputDir, 0755); err != nil {
		t.Fatal(err)
	}

	a, err := g.analyse(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	g.fillPackageMap(a)

	if packageFor(a, "bin/obs64.exe") != "core" {
		t.Errorf("expected bin/obs64.exe to route to core, got %s", packageFor(a, "bin/obs64.exe"))
	}
	if packageFor(a, "obs-plugins/obs-browser/plugin.dll") != "browser" {
		t.Errorf("expected browser plugin to route to browser, got %s",
			packageFor(a, "obs-plugins/obs-browser/plugin.dll"))
	}
}

func TestCreateManifestSortsPackagesAndFiles(t *testing.T) {
	g, cfg := newTestGenerator(t)
	mustWrite(t, filepath.Join(cfg.Env.InputDir, "bin", "Zeta.exe"), []byte("x"))
	mustWrite(t, filepath.Join(cfg.Env.InputDir, "bin", "alpha.exe"), []byte("x"))
	if err := os.MkdirAll(cfg.Env.OutputDir, 0755); err != nil {
		t.Fatal(err)
	}

	a, err := g.analyse(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	g.fillPackageMap(a)
	m := g.createManifest(a)

	if len(m.Packages) != 2 || m.Packages[0].Name != "browser" || m.Packages[1].Name != "core" {
		t.Fatalf("expected packages sorted case-insensitively [browser, core], got %+v", m.Packages)
	}
	core := m.Packages[1]
	if len(core.Files) != 2 || core.Files[0].Name != "bin/alpha.exe" || core.Files[1].Name != "bin/Zeta.exe" {
		t.Fatalf("expected core files sorted case-insensitively, got %+v", core.Files)
	}
}

func TestCopyBuildEmitsUpdaterLayout(t *testing.T) {
	g, cfg := newTestGenerator(t)
	mustWrite(t, filepath.Join(cfg.Env.InputDir, "bin", "obs64.exe"), []byte("payload"))
	if err := os.MkdirAll(cfg.Env.OutputDir, 0755); err != nil {
		t.Fatal(err)
	}

	a, err := g.analyse(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	g.fillPackageMap(a)
	if err := g.copyBuild(context.Background(), a); err != nil {
		t.Fatalf("copyBuild: %v", err)
	}

	want := filepath.Join(cfg.Env.OutputDir, "updater", "update_studio", "stable", "core", "bin", "obs64.exe")
	got, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("expected updater layout file at %s: %v", want, err)
	}
	if string(got) != "payload" {
		t.Errorf("unexpected content: %q", got)
	}
}
