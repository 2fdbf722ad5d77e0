package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/standardbeagle/prismd/internal/index"
	"github.com/standardbeagle/prismd/internal/version"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	store := index.New("/project", version.SnapshotVersion)
	store.InsertOrReplaceFile("main.go", []byte("package main\n\nfunc main() {}\n"))
	store.InsertOrReplaceFile("util.go", []byte("package main\n\nfunc helper() {}\n"))

	if err := Save(store, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	restored := index.New("/project", version.SnapshotVersion)
	loaded, err := Load(path, restored)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !loaded {
		t.Fatal("expected Load to report loaded=true")
	}

	if restored.FileCount() != 2 {
		t.Errorf("FileCount() = %d, want 2", restored.FileCount())
	}
	if _, ok := restored.GetFile("main.go"); !ok {
		t.Error("expected main.go to survive round-trip")
	}
}

func TestLoadMissingFileReturnsFalseNoError(t *testing.T) {
	dir := t.TempDir()
	store := index.New("/project", version.SnapshotVersion)
	loaded, err := Load(filepath.Join(dir, FileName), store)
	if err != nil {
		t.Fatalf("unexpected error for missing snapshot: %v", err)
	}
	if loaded {
		t.Error("expected loaded=false for missing file")
	}
}

func TestLoadCorruptFileReturnsFalseWithError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte{headerPlain, '{', 'n', 'o', 't', 'j', 's', 'o', 'n'}, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store := index.New("/project", version.SnapshotVersion)
	loaded, err := Load(path, store)
	if loaded {
		t.Error("expected loaded=false for corrupt file")
	}
	if err == nil {
		t.Fatal("expected non-nil error for corrupt file")
	}
}

func TestLoadStaleVersionReturnsFalseWithError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	store := index.New("/project", "0.1")
	store.InsertOrReplaceFile("a.go", []byte("package a\n"))
	if err := Save(store, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	fresh := index.New("/project", version.SnapshotVersion)
	loaded, err := Load(path, fresh)
	if loaded {
		t.Error("expected loaded=false for stale version")
	}
	if err == nil {
		t.Fatal("expected non-nil error for stale version")
	}
}

func TestSaveCompressesLargeSnapshots(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	store := index.New("/project", version.SnapshotVersion)
	bigContent := strings.Repeat("this is a line with enough unique words to inflate the index\n", 500)
	store.InsertOrReplaceFile("big.go", []byte(bigContent))

	if err := Save(store, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if raw[0] != headerGzip {
		t.Errorf("expected gzip header for large snapshot, got %d", raw[0])
	}

	restored := index.New("/project", version.SnapshotVersion)
	loaded, err := Load(path, restored)
	if err != nil || !loaded {
		t.Fatalf("Load of compressed snapshot failed: loaded=%v err=%v", loaded, err)
	}
}

func TestLoadUnrecognizedHeaderFallsBackToPlainParse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	// A JSON document that happens to start with '{' (0x7B), a byte
	// that is neither headerPlain nor headerGzip. Per §8, Load must
	// still parse it successfully rather than declaring it corrupt on
	// the unrecognized leading byte alone.
	wire := `{"v":"` + version.SnapshotVersion + `","root":"/project","files":[],"hashes":{}}`
	if err := os.WriteFile(path, []byte(wire), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store := index.New("/project", version.SnapshotVersion)
	loaded, err := Load(path, store)
	if err != nil {
		t.Fatalf("expected a header-less plain snapshot to parse, got error: %v", err)
	}
	if !loaded {
		t.Fatal("expected loaded=true")
	}
}

func TestLoadUnrecognizedHeaderThatDoesNotParseIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	if err := os.WriteFile(path, []byte{0x7F, 'n', 'o', 't', ' ', 'j', 's', 'o', 'n'}, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store := index.New("/project", version.SnapshotVersion)
	loaded, err := Load(path, store)
	if loaded {
		t.Error("expected loaded=false for unparseable unknown-header snapshot")
	}
	if err == nil {
		t.Fatal("expected non-nil error")
	}
}

func TestSaveWritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	store := index.New("/project", version.SnapshotVersion)
	store.InsertOrReplaceFile("a.go", []byte("package a\n"))
	if err := Save(store, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp") {
			t.Errorf("leftover temp file after Save: %s", e.Name())
		}
	}
}
