// Package archive lists the contents of zip, tar and gzip files without
// extracting member payloads to disk. Format detection uses magic bytes,
// not file extensions.
package archive

import (
	"github.com/gabriel-vasile/mimetype"

	"github.com/dtatools/transferlog/internal/domain"
)

// Format identifies a recognized archive container format
type Format int

const (
	FormatUnknown Format = iota
	FormatZip
	FormatTar
	FormatGzip
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatTar:
		return "tar"
	case FormatGzip:
		return "gzip"
	default:
		return "unknown"
	}
}

// Reader lists the members of one archive format
type Reader interface {
	// List returns the archive's members in stored order. Payload bytes
	// are never written to disk.
	List(path string) ([]domain.ArchiveEntry, error)
}

// Sniff detects the archive format of a file from its magic bytes.
// Non-archive files return FormatUnknown with a nil error.
func Sniff(path string) (Format, error) {
	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return FormatUnknown, err
	}

	switch {
	case mime.Is("application/zip"):
		return FormatZip, nil
	case mime.Is("application/x-tar"):
		return FormatTar, nil
	case mime.Is("application/gzip"):
		return FormatGzip, nil
	default:
		return FormatUnknown, nil
	}
}

// Inspector dispatches archive listing to per-format readers
type Inspector struct {
	readers map[Format]Reader
}

// NewInspector creates an inspector covering all recognized formats
func NewInspector() *Inspector {
	return &Inspector{
		readers: map[Format]Reader{
			FormatZip:  &zipReader{},
			FormatTar:  &tarReader{},
			FormatGzip: &gzipReader{},
		},
	}
}

// Inspect sniffs the file and, when it is a recognized archive, lists
// its members. The second return value reports whether the file was
// recognized as an archive at all; non-archives are not an error.
func (i *Inspector) Inspect(path string) ([]domain.ArchiveEntry, bool, error) {
	format, err := Sniff(path)
	if err != nil {
		return nil, false, err
	}
	if format == FormatUnknown {
		return nil, false, nil
	}

	entries, err := i.readers[format].List(path)
	if err != nil {
		return nil, true, err
	}
	return entries, true, nil
}
