package bsdiff

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRoundTripSmallEdit(t *testing.T) {
	dir := t.TempDir()
	old := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 200)
	new := append([]byte{}, old...)
	copy(new[100:120], []byte("INSERTED CHANGE HERE"))
	new = append(new, []byte(" trailing addition")...)

	oldPath := writeTemp(t, dir, "old.bin", old)
	newPath := writeTemp(t, dir, "new.bin", new)
	patchPath := filepath.Join(dir, "patch.bsdiff")
	outPath := filepath.Join(dir, "out.bin")

	var c Codec
	if _, err := c.CreatePatch(oldPath, newPath, patchPath); err != nil {
		t.Fatalf("CreatePatch: %v", err)
	}
	if _, err := c.ApplyPatch(oldPath, outPath, patchPath); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, new) {
		t.Fatalf("patched output does not match new file: got %d bytes, want %d", len(got), len(new))
	}
}

func TestRoundTripNoCommonData(t *testing.T) {
	dir := t.TempDir()
	r := rand.New(rand.NewSource(1))
	old := make([]byte, 4096)
	new := make([]byte, 4096)
	r.Read(old)
	r.Read(new)

	oldPath := writeTemp(t, dir, "old.bin", old)
	newPath := writeTemp(t, dir, "new.bin", new)
	patchPath := filepath.Join(dir, "patch.bsdiff")
	outPath := filepath.Join(dir, "out.bin")

	var c Codec
	if _, err := c.CreatePatch(oldPath, newPath, patchPath); err != nil {
		t.Fatalf("CreatePatch: %v", err)
	}
	if _, err := c.ApplyPatch(oldPath, outPath, patchPath); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, new) {
		t.Fatal("patched output does not match new file for fully-unrelated inputs")
	}
}

func TestRoundTripEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	oldPath := writeTemp(t, dir, "old.bin", nil)
	newPath := writeTemp(t, dir, "new.bin", nil)
	patchPath := filepath.Join(dir, "patch.bsdiff")
	outPath := filepath.Join(dir, "out.bin")

	var c Codec
	if _, err := c.CreatePatch(oldPath, newPath, patchPath); err != nil {
		t.Fatalf("CreatePatch: %v", err)
	}
	if _, err := c.ApplyPatch(oldPath, outPath, patchPath); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty output, got %d bytes", len(got))
	}
}

func TestDiffAndApplyDirectly(t *testing.T) {
	old := []byte("0123456789abcdefghijklmnopqrstuvwxyz0123456789abcdefghijklmnopqrstuvwxyz")
	new := []byte("0123456789abcdefghijXXXXXmnopqrstuvwxyz0123456789abcdefghijklmnopqrstuvwxyzTAIL")

	controls, diffBytes, extraBytes := diff(old, new)
	out, err := apply(old, controls, diffBytes, extraBytes, int64(len(new)))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !bytes.Equal(out, new) {
		t.Fatalf("apply(diff(old,new)) != new:\ngot:  %q\nwant: %q", out, new)
	}
}
