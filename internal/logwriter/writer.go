// Package logwriter formats and appends the two log artifacts of one
// operation: the per-operation detail CSV and the annual summary row.
package logwriter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dtatools/transferlog/internal/config"
	"github.com/dtatools/transferlog/internal/core/nametemplate"
	"github.com/dtatools/transferlog/internal/domain"
)

// maxCounter bounds the collision probe; exceeding it fails the
// operation before any write
const maxCounter = 9999

const (
	timestampLayout = "2006-01-02 15:04:05"
	dateLayout      = "2006-01-02"
)

// detailHeader is the column set of every detail file
var detailHeader = []string{"Level", "Container", "FullName", "Size", "Modified", "Permissions", "FileHash"}

// transferHeader is the annual transfer summary column set
var transferHeader = []string{
	"Timestamp", "Transfer Date", "Username", "Computer Name",
	"Media Type", "Media ID", "Transfer Type", "Source",
	"Destination", "Direction", "File Count", "Total Size", "File Log",
}

// requestHeader is the annual request summary column set
var requestHeader = []string{
	"Timestamp", "Request Date", "Requestor", "Computer Name",
	"Purpose", "File Count", "Total Size", "File Log",
}

// Result describes the artifacts produced by one write
type Result struct {
	// DetailPath is the detail CSV that was created
	DetailPath string

	// SummaryPath is the annual summary file that was appended to
	SummaryPath string

	// Counter is the collision counter value the detail name used
	Counter int
}

// Writer appends operation records to the configured output directory
type Writer struct {
	cfg *config.Config
}

// New creates a writer against the given configuration
func New(cfg *config.Config) *Writer {
	return &Writer{cfg: cfg}
}

// Write creates the detail file and appends the summary row for one
// finalized inventory. The detail file is written first; if the summary
// append then fails, the error names the orphaned detail file and the
// detail file is left in place for manual reconciliation.
func (w *Writer) Write(tc domain.TransferContext, inv domain.Inventory, now time.Time) (*Result, error) {
	outputDir, err := w.ensureOutputDir(tc)
	if err != nil {
		return nil, err
	}

	nameCtx := w.nameContext(tc, now)

	detailPath, counter, err := w.probeDetailPath(tc, outputDir, nameCtx)
	if err != nil {
		return nil, err
	}
	nameCtx.Counter = counter

	if err := w.writeDetailFile(detailPath, tc, inv); err != nil {
		return nil, err
	}

	summaryPath, err := w.appendSummary(tc, inv, outputDir, nameCtx, now, detailPath)
	if err != nil {
		return nil, &domain.PartialWriteError{DetailPath: detailPath, Err: err}
	}

	return &Result{
		DetailPath:  detailPath,
		SummaryPath: summaryPath,
		Counter:     counter,
	}, nil
}

func (w *Writer) ensureOutputDir(tc domain.TransferContext) (string, error) {
	dir := tc.OutputDir
	if dir == "" {
		if tc.IsRequest() {
			dir = w.cfg.Requests.OutputFolder
		} else {
			dir = w.cfg.Logging.OutputFolder
		}
	}
	dir = config.ExpandPath(dir)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrOutputUnwritable, dir, err)
	}
	return dir, nil
}

// nameContext builds the token values for one operation. Request
// operations expose only the request-eligible subset, so transfer-only
// tokens stay verbatim in request templates.
func (w *Writer) nameContext(tc domain.TransferContext, now time.Time) nametemplate.Context {
	values := map[string]string{
		"computername": tc.ComputerName,
	}

	if tc.IsRequest() {
		values["username"] = tc.Requestor
	} else {
		values["username"] = tc.Username
		values["transfertype"] = tc.TransferTypeAbbr
		values["source"] = tc.Source
		values["destination"] = tc.Destination
		values["direction"] = string(tc.Direction)
		values["mediatype"] = tc.MediaType
		values["mediaid"] = tc.MediaID
	}

	return nametemplate.Context{
		Now:        now,
		Values:     values,
		Counter:    1,
		DateFormat: w.cfg.Logging.DateFormat,
		TimeFormat: w.cfg.Logging.TimeFormat,
	}
}

// probeDetailPath resolves the detail template with counter = 1 and
// increments until a free name is found. Monotonic probing, bounded by
// maxCounter.
func (w *Writer) probeDetailPath(tc domain.TransferContext, outputDir string, nameCtx nametemplate.Context) (string, int, error) {
	templateStr := w.cfg.Logging.FileListName
	if tc.IsRequest() {
		templateStr = w.cfg.Requests.FileListName
	}
	tmpl := nametemplate.Parse(templateStr)

	for counter := 1; counter <= maxCounter; counter++ {
		nameCtx.Counter = counter
		name := tmpl.Resolve(nameCtx)
		path := filepath.Join(outputDir, name)

		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, counter, nil
		}

		if !tmpl.HasToken("counter") {
			// Without a counter token every probe resolves identically
			return "", 0, fmt.Errorf("%w: %s exists and template %q has no {counter} token",
				domain.ErrNamingExhausted, name, templateStr)
		}
	}

	return "", 0, fmt.Errorf("%w: no free name after %d attempts", domain.ErrNamingExhausted, maxCounter)
}

// writeDetailFile writes one row per inventory entry plus one row per
// listed archive member. A partial file is removed on write failure.
func (w *Writer) writeDetailFile(path string, tc domain.TransferContext, inv domain.Inventory) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", domain.ErrOutputUnwritable, path, err)
	}

	cw := csv.NewWriter(file)
	writeErr := w.writeDetailRows(cw, inv)
	cw.Flush()
	if writeErr == nil {
		writeErr = cw.Error()
	}
	closeErr := file.Close()

	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(path)
		return fmt.Errorf("write detail file %s: %w", path, writeErr)
	}
	return nil
}

func (w *Writer) writeDetailRows(cw *csv.Writer, inv domain.Inventory) error {
	if err := cw.Write(detailHeader); err != nil {
		return err
	}

	for _, e := range inv.Entries {
		if err := cw.Write(entryRow(e)); err != nil {
			return err
		}

		container := filepath.Base(e.Path)
		for _, m := range e.ArchiveContents {
			row := []string{
				"1",
				container,
				m.Name,
				strconv.FormatInt(m.Size, 10),
				formatModTime(m.ModTime),
				"",
				"",
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}

		if e.ArchiveErr != "" {
			row := []string{"1", container, "", "ERROR", "", "", "ERROR: " + e.ArchiveErr}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	return nil
}

// entryRow renders one top-level inventory entry. Failed fields carry
// error markers instead of silently emptying out.
func entryRow(e domain.FileEntry) []string {
	size := strconv.FormatInt(e.Size, 10)
	hash := e.Checksum

	if e.StatErr != "" {
		size = "ERROR"
		hash = "ERROR: " + e.StatErr
	} else if e.ChecksumErr != "" {
		hash = "ERROR: " + e.ChecksumErr
	}

	return []string{
		"0",
		"",
		filepath.ToSlash(e.Path),
		size,
		formatModTime(e.ModTime),
		e.Permissions,
		hash,
	}
}

func formatModTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timestampLayout)
}

// appendSummary appends one row to the annual summary file, creating it
// with a header row on first use
func (w *Writer) appendSummary(tc domain.TransferContext, inv domain.Inventory, outputDir string, nameCtx nametemplate.Context, now time.Time, detailPath string) (string, error) {
	templateStr := w.cfg.Logging.TransferLogName
	if tc.IsRequest() {
		templateStr = w.cfg.Requests.RequestLogName
	}

	name := nametemplate.Resolve(templateStr, nameCtx)
	path := filepath.Join(outputDir, name)

	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("open summary %s: %w", path, err)
	}

	cw := csv.NewWriter(file)

	if isNew {
		header := transferHeader
		if tc.IsRequest() {
			header = requestHeader
		}
		if err := cw.Write(header); err != nil {
			file.Close()
			return "", fmt.Errorf("write summary header: %w", err)
		}
	}

	if err := cw.Write(summaryRow(tc, inv, now, detailPath)); err != nil {
		file.Close()
		return "", fmt.Errorf("write summary row: %w", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		file.Close()
		return "", fmt.Errorf("flush summary: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close summary: %w", err)
	}

	return path, nil
}

func summaryRow(tc domain.TransferContext, inv domain.Inventory, now time.Time, detailPath string) []string {
	fileCount := strconv.Itoa(inv.FileCount())
	totalSize := strconv.FormatInt(inv.TotalSize(), 10)
	detailName := filepath.Base(detailPath)

	if tc.IsRequest() {
		return []string{
			now.Format(timestampLayout),
			tc.TransferDate.Format(dateLayout),
			tc.Requestor,
			tc.ComputerName,
			tc.Purpose,
			fileCount,
			totalSize,
			detailName,
		}
	}

	return []string{
		now.Format(timestampLayout),
		tc.TransferDate.Format(dateLayout),
		tc.Username,
		tc.ComputerName,
		tc.MediaType,
		tc.MediaID,
		tc.TransferType,
		tc.Source,
		tc.Destination,
		string(tc.Direction),
		fileCount,
		totalSize,
		detailName,
	}
}
