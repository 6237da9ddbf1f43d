package testutil

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// CreateTestFile creates a test file with the given content
func CreateTestFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create parent dirs: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	return path
}

// CreateTestDir creates a directory (including parents) under dir
func CreateTestDir(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatalf("failed to create test dir: %v", err)
	}

	return path
}

// ArchiveMember describes one file to place into a fixture archive
type ArchiveMember struct {
	Name    string
	Content []byte
	ModTime time.Time
}

// CreateTestZip creates a zip fixture containing the given members
func CreateTestZip(t *testing.T, dir, name string, members []ArchiveMember) string {
	t.Helper()

	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create zip fixture: %v", err)
	}
	defer file.Close()

	zw := zip.NewWriter(file)
	for _, m := range members {
		header := &zip.FileHeader{Name: m.Name, Method: zip.Deflate}
		if !m.ModTime.IsZero() {
			header.Modified = m.ModTime
		}
		w, err := zw.CreateHeader(header)
		if err != nil {
			t.Fatalf("failed to add zip member %s: %v", m.Name, err)
		}
		if _, err := w.Write(m.Content); err != nil {
			t.Fatalf("failed to write zip member %s: %v", m.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finalize zip fixture: %v", err)
	}

	return path
}

// CreateTestTar creates a tar fixture, gzip-compressed when gzipped is true
func CreateTestTar(t *testing.T, dir, name string, members []ArchiveMember, gzipped bool) string {
	t.Helper()

	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create tar fixture: %v", err)
	}
	defer file.Close()

	var tw *tar.Writer
	var gz *gzip.Writer
	if gzipped {
		gz = gzip.NewWriter(file)
		tw = tar.NewWriter(gz)
	} else {
		tw = tar.NewWriter(file)
	}

	for _, m := range members {
		modTime := m.ModTime
		if modTime.IsZero() {
			modTime = time.Now()
		}
		header := &tar.Header{
			Name:     m.Name,
			Mode:     0644,
			Size:     int64(len(m.Content)),
			ModTime:  modTime,
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(header); err != nil {
			t.Fatalf("failed to add tar member %s: %v", m.Name, err)
		}
		if _, err := tw.Write(m.Content); err != nil {
			t.Fatalf("failed to write tar member %s: %v", m.Name, err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("failed to finalize tar fixture: %v", err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			t.Fatalf("failed to finalize gzip fixture: %v", err)
		}
	}

	return path
}

// CreateTestGzip creates a bare gzip fixture wrapping the given content
func CreateTestGzip(t *testing.T, dir, name string, memberName string, content []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create gzip fixture: %v", err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	gz.Header.Name = memberName
	if _, err := gz.Write(content); err != nil {
		t.Fatalf("failed to write gzip fixture: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("failed to finalize gzip fixture: %v", err)
	}

	return path
}
