package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dtatools/transferlog/internal/testutil"
)

// TestSniffFormats tests magic-byte detection for every recognized format
func TestSniffFormats(t *testing.T) {
	dir := t.TempDir()

	zipPath := testutil.CreateTestZip(t, dir, "a.zip", []testutil.ArchiveMember{
		{Name: "x.txt", Content: []byte("x")},
	})
	tarPath := testutil.CreateTestTar(t, dir, "b.tar", []testutil.ArchiveMember{
		{Name: "y.txt", Content: []byte("y")},
	}, false)
	gzPath := testutil.CreateTestGzip(t, dir, "c.gz", "c.txt", []byte("zzz"))
	plainPath := testutil.CreateTestFile(t, dir, "plain.txt", []byte("just text"))

	tests := []struct {
		path string
		want Format
	}{
		{zipPath, FormatZip},
		{tarPath, FormatTar},
		{gzPath, FormatGzip},
		{plainPath, FormatUnknown},
	}

	for _, tt := range tests {
		got, err := Sniff(tt.path)
		if err != nil {
			t.Fatalf("Sniff(%s) failed: %v", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("Sniff(%s) = %v, want %v", filepath.Base(tt.path), got, tt.want)
		}
	}
}

// TestSniffIgnoresExtension tests that detection follows content, not names
func TestSniffIgnoresExtension(t *testing.T) {
	dir := t.TempDir()

	// A plain text file masquerading as a zip
	fake := testutil.CreateTestFile(t, dir, "fake.zip", []byte("not an archive"))

	got, err := Sniff(fake)
	if err != nil {
		t.Fatalf("Sniff failed: %v", err)
	}
	if got != FormatUnknown {
		t.Errorf("Sniff(fake.zip) = %v, want FormatUnknown", got)
	}
}

// TestInspectZip tests zip member listing
func TestInspectZip(t *testing.T) {
	dir := t.TempDir()
	modTime := time.Date(2025, time.January, 2, 3, 4, 0, 0, time.UTC)

	path := testutil.CreateTestZip(t, dir, "docs.zip", []testutil.ArchiveMember{
		{Name: "readme.md", Content: []byte("hello"), ModTime: modTime},
		{Name: "sub/data.bin", Content: []byte("12345678"), ModTime: modTime},
	})

	entries, recognized, err := NewInspector().Inspect(path)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if !recognized {
		t.Fatal("expected zip to be recognized")
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	if entries[0].Name != "readme.md" || entries[0].Size != 5 {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].Name != "sub/data.bin" || entries[1].Size != 8 {
		t.Errorf("entry 1 = %+v", entries[1])
	}
}

// TestInspectTar tests tar member listing
func TestInspectTar(t *testing.T) {
	dir := t.TempDir()
	modTime := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	path := testutil.CreateTestTar(t, dir, "bundle.tar", []testutil.ArchiveMember{
		{Name: "one.txt", Content: []byte("aaa"), ModTime: modTime},
		{Name: "two.txt", Content: []byte("bbbb"), ModTime: modTime},
	}, false)

	entries, recognized, err := NewInspector().Inspect(path)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if !recognized {
		t.Fatal("expected tar to be recognized")
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Name != "one.txt" || entries[0].Size != 3 {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if !entries[1].ModTime.Equal(modTime) {
		t.Errorf("entry 1 mod time = %v, want %v", entries[1].ModTime, modTime)
	}
}

// TestInspectTarGz tests gzip-wrapped tar listing
func TestInspectTarGz(t *testing.T) {
	dir := t.TempDir()

	path := testutil.CreateTestTar(t, dir, "bundle.tar.gz", []testutil.ArchiveMember{
		{Name: "inner/a.txt", Content: []byte("alpha")},
		{Name: "inner/b.txt", Content: []byte("beta")},
	}, true)

	entries, recognized, err := NewInspector().Inspect(path)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if !recognized {
		t.Fatal("expected tar.gz to be recognized")
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Name != "inner/a.txt" || entries[0].Size != 5 {
		t.Errorf("entry 0 = %+v", entries[0])
	}
}

// TestInspectBareGzip tests single-member gzip listing
func TestInspectBareGzip(t *testing.T) {
	dir := t.TempDir()

	path := testutil.CreateTestGzip(t, dir, "notes.txt.gz", "notes.txt", []byte("0123456789"))

	entries, recognized, err := NewInspector().Inspect(path)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if !recognized {
		t.Fatal("expected gzip to be recognized")
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Name != "notes.txt" {
		t.Errorf("name = %q, want notes.txt", entries[0].Name)
	}
	if entries[0].Size != 10 {
		t.Errorf("size = %d, want 10 (uncompressed)", entries[0].Size)
	}
}

// TestInspectCorruptArchive tests that a corrupt archive reports an error
// without being mistaken for a non-archive
func TestInspectCorruptArchive(t *testing.T) {
	dir := t.TempDir()

	// Valid zip magic, garbage central directory
	corrupt := filepath.Join(dir, "broken.zip")
	if err := os.WriteFile(corrupt, []byte("PK\x03\x04 this is not really a zip file"), 0644); err != nil {
		t.Fatalf("write corrupt fixture: %v", err)
	}

	entries, recognized, err := NewInspector().Inspect(corrupt)
	if err == nil {
		t.Fatal("expected error for corrupt archive, got nil")
	}
	if !recognized {
		t.Error("corrupt archive should still be recognized as zip")
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

// TestInspectNonArchive tests that plain files are not errors
func TestInspectNonArchive(t *testing.T) {
	dir := t.TempDir()
	path := testutil.CreateTestFile(t, dir, "a.txt", []byte("plain"))

	entries, recognized, err := NewInspector().Inspect(path)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if recognized {
		t.Error("plain file should not be recognized as archive")
	}
	if entries != nil {
		t.Errorf("expected nil entries, got %v", entries)
	}
}

// TestZipSkipsDirectories tests that directory markers are not listed
func TestZipSkipsDirectories(t *testing.T) {
	dir := t.TempDir()

	path := testutil.CreateTestZip(t, dir, "withdirs.zip", []testutil.ArchiveMember{
		{Name: "folder/", Content: nil},
		{Name: "folder/file.txt", Content: []byte("f")},
	})

	entries, _, err := NewInspector().Inspect(path)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Name != "folder/file.txt" {
		t.Errorf("entry = %q", entries[0].Name)
	}
}
