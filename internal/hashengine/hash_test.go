package hashengine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(path, []byte("hello world\n"), 0644); err != nil {
		t.Fatal(err)
	}

	info, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if len(info.Hash) != 40 {
		t.Errorf("expected 40 hex chars (20 bytes), got %d: %s", len(info.Hash), info.Hash)
	}
	if info.Size != 12 {
		t.Errorf("expected size 12, got %d", info.Size)
	}

	again, err := HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if again.Hash != info.Hash {
		t.Error("hash is not deterministic across repeated reads")
	}
}

func TestHashDirSkipsTopLevelFiles(t *testing.T) {
	root := t.TempDir()

	if err := os.WriteFile(filepath.Join(root, "toplevel.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "v1.0.0")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "app.exe"), []byte("binary-content"), 0644); err != nil {
		t.Fatal(err)
	}

	hashes, err := HashDir(context.Background(), root, nil, 2, nil)
	if err != nil {
		t.Fatalf("HashDir: %v", err)
	}

	if _, ok := hashes["toplevel.txt"]; ok {
		t.Error("direct child of root should be excluded by min_depth=2")
	}
	if _, ok := hashes["v1.0.0/app.exe"]; !ok {
		t.Error("nested file should be present")
	}
}

func TestHashDirAdoptsCacheByPath(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "pkg")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "file.bin"), []byte("real content"), 0644); err != nil {
		t.Fatal(err)
	}

	fakeCache := HashMap{"pkg/file.bin": FileInfo{Hash: "deadbeef", Size: 999}}
	hashes, err := HashDir(context.Background(), root, fakeCache, 2, nil)
	if err != nil {
		t.Fatal(err)
	}

	got := hashes["pkg/file.bin"]
	if got.Hash != "deadbeef" || got.Size != 999 {
		t.Errorf("cached entry should be adopted verbatim (path-only trust), got %+v", got)
	}
}

func TestHashDirCachedRoundTrip(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "pkg")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "file.bin"), []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}

	first, err := HashDirCached(context.Background(), root, 2, nil, nil)
	if err != nil {
		t.Fatalf("first HashDirCached: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "cache.json")); err != nil {
		t.Fatalf("expected cache.json to be written: %v", err)
	}

	second, err := HashDirCached(context.Background(), root, 2, nil, nil)
	if err != nil {
		t.Fatalf("second HashDirCached: %v", err)
	}
	if first["pkg/file.bin"].Hash != second["pkg/file.bin"].Hash {
		t.Error("cached hash should be stable across runs")
	}
}
