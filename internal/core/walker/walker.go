// Package walker builds file inventories from lists of file and folder
// inputs. Collection is best-effort: unreadable entries are recorded
// with error markers and the walk always returns every reachable entry.
package walker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dtatools/transferlog/internal/domain"
)

// Options configures inventory collection
type Options struct {
	// MaxDepth limits recursion below each folder input; contents deeper
	// than this are skipped with a warning. 0 means only the folder's
	// direct children.
	MaxDepth int

	// IncludeEmptyFolders emits placeholder entries for folders that
	// contain nothing
	IncludeEmptyFolders bool
}

// Walker enumerates files under the given input paths
type Walker struct {
	opts Options
}

// New creates a walker with the given options
func New(opts Options) *Walker {
	return &Walker{opts: opts}
}

// Walk produces an ordered inventory for the input paths. File inputs
// emit one entry each; folder inputs are enumerated recursively in
// lexicographic order. Each file appears at most once per inventory,
// even when reachable through several inputs or symlinks. The context
// is checked between entries; a cancelled walk returns the context
// error.
func (w *Walker) Walk(ctx context.Context, inputs []string) (domain.Inventory, error) {
	inv := domain.Inventory{}

	// Visited set of resolved real paths, so symlink cycles terminate
	// and duplicate inputs collapse to one entry
	visited := make(map[string]bool)

	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return inv, err
		}

		abs, err := filepath.Abs(input)
		if err != nil {
			abs = input
		}

		info, err := os.Stat(abs)
		if err != nil {
			if visited[abs] {
				inv.Warnings = append(inv.Warnings, fmt.Sprintf("skipping duplicate input %s", input))
				continue
			}
			visited[abs] = true
			inv.Entries = append(inv.Entries, domain.FileEntry{
				Path:        abs,
				DisplayPath: filepath.ToSlash(filepath.Base(abs)),
				Kind:        domain.EntryKindFile,
				StatErr:     err.Error(),
			})
			continue
		}

		if info.IsDir() {
			if err := w.walkDir(ctx, abs, abs, 0, visited, &inv); err != nil {
				return inv, err
			}
			continue
		}

		real := resolvePath(abs)
		if visited[real] {
			inv.Warnings = append(inv.Warnings, fmt.Sprintf("skipping duplicate input %s", input))
			continue
		}
		visited[real] = true

		inv.Entries = append(inv.Entries, fileEntry(abs, filepath.Base(abs), info))
	}

	return inv, nil
}

// walkDir enumerates one directory level. root is the folder input this
// directory was reached from; display paths are relative to it.
func (w *Walker) walkDir(ctx context.Context, root, dir string, depth int, visited map[string]bool, inv *domain.Inventory) error {
	real := resolvePath(dir)
	if visited[real] {
		inv.Warnings = append(inv.Warnings, fmt.Sprintf("skipping already-visited path %s (symlink cycle)", dir))
		return nil
	}
	visited[real] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unreadable directory: partial entry, walk continues
		inv.Entries = append(inv.Entries, domain.FileEntry{
			Path:        dir,
			DisplayPath: displayPath(root, dir),
			Kind:        domain.EntryKindDirectory,
			StatErr:     err.Error(),
		})
		return nil
	}

	if len(entries) == 0 {
		if w.opts.IncludeEmptyFolders {
			entry := domain.FileEntry{
				Path:        dir,
				DisplayPath: displayPath(root, dir),
				Kind:        domain.EntryKindDirectory,
			}
			if info, statErr := os.Stat(dir); statErr == nil {
				entry.ModTime = info.ModTime()
				entry.Permissions = info.Mode().String()
			}
			inv.Entries = append(inv.Entries, entry)
		}
		return nil
	}

	// os.ReadDir returns entries sorted by name, which keeps the
	// inventory order deterministic
	for _, de := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		childPath := filepath.Join(dir, de.Name())

		if de.IsDir() || isSymlinkToDir(childPath, de) {
			if depth >= w.opts.MaxDepth {
				inv.Warnings = append(inv.Warnings,
					fmt.Sprintf("max depth %d exceeded, skipping %s", w.opts.MaxDepth, childPath))
				continue
			}
			if err := w.walkDir(ctx, root, childPath, depth+1, visited, inv); err != nil {
				return err
			}
			continue
		}

		realChild := resolvePath(childPath)
		if visited[realChild] {
			inv.Warnings = append(inv.Warnings, fmt.Sprintf("skipping already-recorded path %s", childPath))
			continue
		}
		visited[realChild] = true

		var info os.FileInfo
		var err error
		if de.Type()&os.ModeSymlink != 0 {
			// Follow file symlinks to their target metadata
			info, err = os.Stat(childPath)
		} else {
			info, err = de.Info()
		}
		if err != nil {
			inv.Entries = append(inv.Entries, domain.FileEntry{
				Path:        childPath,
				DisplayPath: displayPath(root, childPath),
				Kind:        domain.EntryKindFile,
				StatErr:     err.Error(),
			})
			continue
		}

		inv.Entries = append(inv.Entries, fileEntry(childPath, displayPath(root, childPath), info))
	}

	return nil
}

// resolvePath returns the symlink-resolved real path, falling back to
// the given path when resolution fails (broken links, missing files)
func resolvePath(path string) string {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		return path
	}
	return real
}

// isSymlinkToDir reports whether the entry is a symlink whose target is
// a directory. Symlinked files are treated as plain files.
func isSymlinkToDir(path string, de os.DirEntry) bool {
	if de.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// displayPath renders a path relative to its folder input, prefixed with
// the input's base name, using forward slashes
func displayPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return filepath.ToSlash(filepath.Base(path))
	}
	return filepath.ToSlash(filepath.Join(filepath.Base(root), rel))
}

func fileEntry(path, display string, info os.FileInfo) domain.FileEntry {
	return domain.FileEntry{
		Path:        path,
		DisplayPath: filepath.ToSlash(display),
		Kind:        domain.EntryKindFile,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		Permissions: info.Mode().String(),
	}
}
