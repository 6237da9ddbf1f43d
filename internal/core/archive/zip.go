package archive

import (
	"archive/zip"
	"fmt"
	"strings"

	"github.com/dtatools/transferlog/internal/domain"
)

// zipReader lists zip members from the central directory
type zipReader struct{}

func (z *zipReader) List(path string) ([]domain.ArchiveEntry, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip %s: %w", path, err)
	}
	defer r.Close()

	entries := make([]domain.ArchiveEntry, 0, len(r.File))
	for _, f := range r.File {
		// Directory markers carry no payload
		if strings.HasSuffix(f.Name, "/") {
			continue
		}

		entries = append(entries, domain.ArchiveEntry{
			Name:    f.Name,
			Size:    int64(f.UncompressedSize64),
			ModTime: f.Modified,
		})
	}

	return entries, nil
}
