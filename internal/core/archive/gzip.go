package archive

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dtatools/transferlog/internal/domain"
)

// gzipReader lists the content of a gzip file. A gzip-wrapped tar is
// listed member by member; a bare gzip yields a single pseudo-entry for
// the compressed payload.
type gzipReader struct{}

func (g *gzipReader) List(path string) ([]domain.ArchiveEntry, error) {
	// First pass: try to read the decompressed stream as a tar
	entries, err := g.listAsTar(path)
	if err == nil {
		return entries, nil
	}

	// Not a tar inside: list the single decompressed member
	return g.listSingle(path)
}

func (g *gzipReader) listAsTar(path string) ([]domain.ArchiveEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gzip %s: %w", path, err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("read gzip %s: %w", path, err)
	}
	defer gz.Close()

	entries, err := listTar(gz)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		// A valid but empty tar is indistinguishable from short junk;
		// treat it as not-a-tar and fall back to single-member listing
		return nil, fmt.Errorf("no tar members in %s", path)
	}
	return entries, nil
}

// listSingle reports the decompressed payload as one entry. The stream
// is counted through io.Discard, so nothing is extracted to disk.
func (g *gzipReader) listSingle(path string) ([]domain.ArchiveEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gzip %s: %w", path, err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("read gzip %s: %w", path, err)
	}
	defer gz.Close()

	size, err := io.Copy(io.Discard, gz)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", path, err)
	}

	name := gz.Header.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), ".gz")
	}

	modTime := gz.Header.ModTime
	if modTime.IsZero() {
		if info, statErr := file.Stat(); statErr == nil {
			modTime = info.ModTime()
		}
	}

	return []domain.ArchiveEntry{{
		Name:    name,
		Size:    size,
		ModTime: modTime,
	}}, nil
}
