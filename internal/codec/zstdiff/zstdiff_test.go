package zstdiff

import (
	"bytes"
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

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	old := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 500)
	new := append([]byte{}, old...)
	copy(new[1000:1020], []byte("INSERTED CHANGE HERE"))
	new = append(new, []byte(" trailing addition")...)

	oldPath := writeTemp(t, dir, "old.bin", old)
	newPath := writeTemp(t, dir, "new.bin", new)
	patchPath := filepath.Join(dir, "patch.zst")
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

func TestRoundTripEmptyOld(t *testing.T) {
	dir := t.TempDir()
	old := []byte{}
	new := []byte("brand new content with no prior version to diff against")

	oldPath := writeTemp(t, dir, "old.bin", old)
	newPath := writeTemp(t, dir, "new.bin", new)
	patchPath := filepath.Join(dir, "patch.zst")
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
		t.Fatal("patched output does not match new file when old is empty")
	}
}
