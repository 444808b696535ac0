package fileutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.bin")
	if err := WriteFileAtomic(path, []byte("payload"), 0o600); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "payload" {
		t.Fatalf("unexpected content %q (%v)", data, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("unexpected mode %v", info.Mode().Perm())
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp file to be renamed away, found %d entries", len(entries))
	}
}

func TestWriteJSONAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := WriteJSONAtomic(path, map[string]int{"a": 1}); err != nil {
		t.Fatalf("WriteJSONAtomic: %v", err)
	}
	var decoded map[string]int
	data, _ := os.ReadFile(path)
	if err := json.Unmarshal(data, &decoded); err != nil || decoded["a"] != 1 {
		t.Fatalf("unexpected json %q (%v)", data, err)
	}
}

func TestExistsAndNonEmpty(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	full := filepath.Join(dir, "full")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !Exists(empty) || NonEmpty(empty) {
		t.Fatal("empty file: expected exists without content")
	}
	if !NonEmpty(full) {
		t.Fatal("expected full file to be non-empty")
	}
	if Exists(dir) || Exists(filepath.Join(dir, "missing")) {
		t.Fatal("directories and missing paths are not files")
	}
}

func TestRemoveFilesIgnoresMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "part")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := RemoveFiles(path, filepath.Join(dir, "missing"), ""); err != nil {
		t.Fatalf("RemoveFiles: %v", err)
	}
	if Exists(path) {
		t.Fatal("expected file removed")
	}
}
