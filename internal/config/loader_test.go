package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/obsproject/obs-updater-builder/internal/logging"
)

func TestLoadAppliesDefaultsWithNoFile(t *testing.T) {
	cfg, err := NewLoader().Load("", nil, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env.Branch != "stable" {
		t.Errorf("expected default branch stable, got %q", cfg.Env.Branch)
	}
	if !cfg.Package.Updater.PrettyJSON {
		t.Error("expected pretty_json to default true")
	}
}

func TestLoadReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bouf.yaml")
	yaml := `
env:
  branch: beta
  output_dir: /tmp/out
generate:
  codec: zstd
  packages:
    - name: core
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader().Load(path, nil, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env.Branch != "beta" {
		t.Errorf("expected branch beta, got %q", cfg.Env.Branch)
	}
	if cfg.Env.OutputDir != "/tmp/out" {
		t.Errorf("expected output_dir /tmp/out, got %q", cfg.Env.OutputDir)
	}
	if cfg.Generate.Codec != "zstd" {
		t.Errorf("expected codec zstd, got %q", cfg.Generate.Codec)
	}
}

func TestLoadReturnsConfigFileErrorForMissingFile(t *testing.T) {
	_, err := NewLoader().Load("/nonexistent/bouf.yaml", nil, nil)
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestApplyOverridesWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bouf.yaml")
	if err := os.WriteFile(path, []byte("env:\n  branch: beta\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ov := &Overrides{Branch: "stable", ClearOutput: true, SkipCodesigning: true}
	cfg, err := NewLoader().Load(path, ov, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env.Branch != "stable" {
		t.Errorf("expected override branch stable to win over file's beta, got %q", cfg.Env.Branch)
	}
	if !cfg.Prepare.EmptyOutputDir {
		t.Error("expected clear-output override to set empty_output_dir")
	}
	if !cfg.Prepare.Codesign.SkipSign || !cfg.Package.Installer.SkipSign {
		t.Error("expected skip-codesigning override to set both codesign skip flags")
	}
}

func TestApplyOverridesParsesVersionString(t *testing.T) {
	ov := &Overrides{Version: "31.0.1-beta2"}
	cfg, err := NewLoader().Load("", ov, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ObsVersion.VersionMajor != 31 || cfg.ObsVersion.VersionMinor != 0 || cfg.ObsVersion.VersionPatch != 1 {
		t.Errorf("expected 31.0.1, got %d.%d.%d",
			cfg.ObsVersion.VersionMajor, cfg.ObsVersion.VersionMinor, cfg.ObsVersion.VersionPatch)
	}
	if cfg.ObsVersion.Beta != 2 {
		t.Errorf("expected beta 2, got %d", cfg.ObsVersion.Beta)
	}
	if v := cfg.Version(); v.ShortString() != "31.0.1" {
		t.Errorf("expected Version() to round-trip to 31.0.1, got %s", v.ShortString())
	}
}

func TestMigrateDeprecatedKeysMovesValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bouf.yaml")
	yaml := `
prepare:
  copy:
    excludes:
      - "*.tmp"
    overrides_sign:
      foo.dll: bar
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader().Load(path, nil, logging.NewNopLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Prepare.Copy.NeverCopy) != 1 || cfg.Prepare.Copy.NeverCopy[0] != "*.tmp" {
		t.Errorf("expected excludes migrated into never_copy, got %+v", cfg.Prepare.Copy.NeverCopy)
	}
	if cfg.Prepare.Copy.Overrides["foo.dll"] != "bar" {
		t.Errorf("expected overrides_sign migrated into overrides, got %+v", cfg.Prepare.Copy.Overrides)
	}
}
