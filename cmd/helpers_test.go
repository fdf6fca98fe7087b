package cmd

import (
	"fmt"
	"testing"
)

func TestCommonOptionsOverridesMapsAllFields(t *testing.T) {
	o := &commonOptions{
		version:             "31.0.1-beta2",
		beta:                2,
		rc:                  0,
		branch:              "beta",
		commit:              "abc123",
		inputDir:            "/in",
		previousDir:         "/prev",
		outputDir:           "/out",
		notesFile:           "/notes.md",
		privateKey:          "/key.pem",
		metricsAddr:         ":9090",
		clearOutput:         true,
		skipCodesigning:     true,
		skipManifestSigning: true,
	}

	ov := o.overrides()
	switch {
	case ov.Version != o.version:
		t.Errorf("Version: got %q, want %q", ov.Version, o.version)
	case ov.Beta != o.beta:
		t.Errorf("Beta: got %d, want %d", ov.Beta, o.beta)
	case ov.RC != o.rc:
		t.Errorf("RC: got %d, want %d", ov.RC, o.rc)
	case ov.Branch != o.branch:
		t.Errorf("Branch: got %q, want %q", ov.Branch, o.branch)
	case ov.Commit != o.commit:
		t.Errorf("Commit: got %q, want %q", ov.Commit, o.commit)
	case ov.InputDir != o.inputDir:
		t.Errorf("InputDir: got %q, want %q", ov.InputDir, o.inputDir)
	case ov.PreviousDir != o.previousDir:
		t.Errorf("PreviousDir: got %q, want %q", ov.PreviousDir, o.previousDir)
	case ov.OutputDir != o.outputDir:
		t.Errorf("OutputDir: got %q, want %q", ov.OutputDir, o.outputDir)
	case ov.NotesFile != o.notesFile:
		t.Errorf("NotesFile: got %q, want %q", ov.NotesFile, o.notesFile)
	case ov.PrivateKeyPath != o.privateKey:
		t.Errorf("PrivateKeyPath: got %q, want %q", ov.PrivateKeyPath, o.privateKey)
	case ov.MetricsAddr != o.metricsAddr:
		t.Errorf("MetricsAddr: got %q, want %q", ov.MetricsAddr, o.metricsAddr)
	case !ov.ClearOutput:
		t.Error("expected ClearOutput to carry through")
	case !ov.SkipCodesigning:
		t.Error("expected SkipCodesigning to carry through")
	case !ov.SkipManifestSigning:
		t.Error("expected SkipManifestSigning to carry through")
	}
}

func TestRegisterFlagsBindsEveryCommonFlag(t *testing.T) {
	o := &commonOptions{}
	cmd := newPrepareCmd()
	_ = o

	for _, name := range []string{
		"version", "beta", "rc", "branch", "commit",
		"input-dir", "previous-dir", "output-dir", "notes-file",
		"private-key", "metrics-addr", "clear-output",
		"skip-codesigning", "skip-manifest-signing",
	} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected --%s to be registered", name)
		}
	}
}

func TestHandleCommandErrorPassesThroughPlainErrors(t *testing.T) {
	if handleCommandError(nil) != nil {
		t.Error("expected nil to pass through as nil")
	}
	plain := fmt.Errorf("plain failure")
	if got := handleCommandError(plain); got != plain {
		t.Errorf("expected a plain error to pass through unchanged, got %v", got)
	}
}
