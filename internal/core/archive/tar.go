package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dtatools/transferlog/internal/domain"
)

// tarReader lists tar members from the stream's headers
type tarReader struct{}

func (t *tarReader) List(path string) ([]domain.ArchiveEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tar %s: %w", path, err)
	}
	defer file.Close()

	entries, err := listTar(file)
	if err != nil {
		return nil, fmt.Errorf("read tar %s: %w", path, err)
	}
	return entries, nil
}

// listTar walks tar headers from r. Member payloads are skipped by the
// tar reader, never buffered or written out.
func listTar(r io.Reader) ([]domain.ArchiveEntry, error) {
	tr := tar.NewReader(r)

	var entries []domain.ArchiveEntry
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if header.Typeflag != tar.TypeReg {
			continue // skip directories and special files
		}

		entries = append(entries, domain.ArchiveEntry{
			Name:    header.Name,
			Size:    header.Size,
			ModTime: header.ModTime,
		})
	}

	return entries, nil
}
