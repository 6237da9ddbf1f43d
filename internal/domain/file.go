package domain

import "time"

// EntryKind represents the type of an inventoried filesystem entry
type EntryKind int

const (
	EntryKindFile EntryKind = iota
	EntryKindDirectory
)

// ArchiveEntry is one member listed from inside an archive file.
// Members are informational metadata attached to their containing
// FileEntry; they are never promoted to top-level FileEntry records.
type ArchiveEntry struct {
	// Name is the member path as stored in the archive
	Name string

	// Size is the uncompressed size in bytes
	Size int64

	// ModTime is the modification time recorded in the archive header
	ModTime time.Time
}

// FileEntry represents one inventoried file or directory
type FileEntry struct {
	// Path is the absolute path of the entry
	Path string

	// DisplayPath is the path relative to the scan root it was found under;
	// equals Path for entries given directly as inputs
	DisplayPath string

	// Kind indicates if this is a file or a directory placeholder
	Kind EntryKind

	// Size in bytes (0 for directories)
	Size int64

	// ModTime is the last modification time
	ModTime time.Time

	// Permissions is the platform-reported permission string (best-effort)
	Permissions string

	// Checksum is the lowercase hex SHA-256 digest; empty for directories
	// and when checksum generation is disabled
	Checksum string

	// ArchiveContents lists the archive's members when the entry is a
	// recognized archive and inspection is enabled
	ArchiveContents []ArchiveEntry

	// ChecksumErr records a checksum failure for this entry
	ChecksumErr string

	// ArchiveErr records an archive inspection failure for this entry
	ArchiveErr string

	// StatErr records a metadata read failure for this entry
	StatErr string
}

// IsDir returns true if this is a directory placeholder
func (e FileEntry) IsDir() bool {
	return e.Kind == EntryKindDirectory
}

// IsArchive returns true if archive inspection produced any members
func (e FileEntry) IsArchive() bool {
	return len(e.ArchiveContents) > 0
}

// HasErrors returns true if any per-entry error marker is set
func (e FileEntry) HasErrors() bool {
	return e.ChecksumErr != "" || e.ArchiveErr != "" || e.StatErr != ""
}

// Inventory is the ordered result of a filesystem walk
type Inventory struct {
	// Entries in deterministic walk order
	Entries []FileEntry

	// Warnings are non-fatal events recorded during the walk
	// (depth limits, skipped symlink cycles)
	Warnings []string
}

// FileCount returns the number of regular files in the inventory
func (inv Inventory) FileCount() int {
	n := 0
	for _, e := range inv.Entries {
		if !e.IsDir() {
			n++
		}
	}
	return n
}

// TotalSize returns the sum of all entry sizes in bytes
func (inv Inventory) TotalSize() int64 {
	var total int64
	for _, e := range inv.Entries {
		total += e.Size
	}
	return total
}
