package external

import (
	"context"
	"testing"
)

type fakeRunner struct {
	gotDir  string
	gotName string
	gotArgs []string
	stdout  string
	stderr  string
	err     error
}

func (f *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	f.gotDir = dir
	f.gotName = name
	f.gotArgs = args
	return f.stdout, f.stderr, f.err
}

func TestSignToolSignBatch(t *testing.T) {
	fr := &fakeRunner{}
	st := &SignTool{Path: "signtool.exe", Runner: fr}

	opts := SignOptions{Digest: "sha256", CertName: "OBS Project", TimestampURL: "http://timestamp.digicert.com"}
	if err := st.SignBatch(context.Background(), []string{`\\?\C:\build\app.exe`, "lib.dll"}, opts); err != nil {
		t.Fatalf("SignBatch: %v", err)
	}
	if fr.gotArgs[len(fr.gotArgs)-2] != `C:\build\app.exe` {
		t.Errorf("expected verbatim prefix stripped, got %q", fr.gotArgs[len(fr.gotArgs)-2])
	}
}

func TestSignToolEmptyBatchIsNoop(t *testing.T) {
	fr := &fakeRunner{}
	st := &SignTool{Path: "signtool.exe", Runner: fr}
	if err := st.SignBatch(context.Background(), nil, SignOptions{}); err != nil {
		t.Fatalf("expected no-op for empty batch, got %v", err)
	}
	if fr.gotName != "" {
		t.Error("runner should not have been invoked for an empty batch")
	}
}

func TestMakeNSISBuild(t *testing.T) {
	fr := &fakeRunner{}
	m := &MakeNSIS{Path: "makensis", Runner: fr}

	err := m.Build(context.Background(), "installer.nsi", Defines{
		Tag: "obs-studio", Short: "30.0.0", Full: "30.0.0-rc1", BuildDir: `\\?\C:\out`,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	found := false
	for _, a := range fr.gotArgs {
		if a == "/DBUILD_DIR=C:\\out" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected stripped build dir define in args, got %v", fr.gotArgs)
	}
}

func TestPandocToHTML(t *testing.T) {
	fr := &fakeRunner{stdout: "<p>notes</p>"}
	p := &Pandoc{Path: "pandoc", Runner: fr}

	html, err := p.ToHTML(context.Background(), "notes.md")
	if err != nil {
		t.Fatalf("ToHTML: %v", err)
	}
	if html != "<p>notes</p>" {
		t.Errorf("unexpected HTML: %q", html)
	}
}

func TestSevenZipCreateZip(t *testing.T) {
	fr := &fakeRunner{}
	z := &SevenZip{Path: "7z", Runner: fr}

	if err := z.CreateZip(context.Background(), "out.zip", "/build/install"); err != nil {
		t.Fatalf("CreateZip: %v", err)
	}
	if fr.gotDir != "/build/install" {
		t.Errorf("expected archiver to run with cwd set to sourceDir, got %q", fr.gotDir)
	}
}

func TestPDBCopyStrip(t *testing.T) {
	fr := &fakeRunner{}
	pc := &PDBCopy{Path: "pdbcopy", Runner: fr}

	if err := pc.Strip(context.Background(), "full.pdb", "public.pdb"); err != nil {
		t.Fatalf("Strip: %v", err)
	}
}
