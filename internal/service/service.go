// Package service orchestrates one logging operation end to end:
// validation, inventory collection, checksum and archive enrichment,
// and the final dual-record write.
package service

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/dtatools/transferlog/internal/config"
	"github.com/dtatools/transferlog/internal/core/archive"
	"github.com/dtatools/transferlog/internal/core/checksum"
	"github.com/dtatools/transferlog/internal/core/walker"
	"github.com/dtatools/transferlog/internal/domain"
	"github.com/dtatools/transferlog/internal/lock"
	"github.com/dtatools/transferlog/internal/logger"
	"github.com/dtatools/transferlog/internal/logwriter"
	"github.com/dtatools/transferlog/internal/progress"
	"github.com/dtatools/transferlog/internal/state"
)

// Params carries the operator-supplied inputs of one operation before
// validation. Derived fields (direction, abbreviation) are filled in by
// BuildContext, never accepted from the caller.
type Params struct {
	Kind         domain.OperationKind
	MediaType    string
	MediaID      string
	TransferType string
	Source       string
	Destination  string
	Requestor    string
	Purpose      string
	TransferDate time.Time
	Username     string
	ComputerName string
	OutputDir    string

	// Checksum and InspectArchives override the configured defaults
	// when non-nil
	Checksum        *bool
	InspectArchives *bool
}

// Result describes a completed operation
type Result struct {
	// DetailPath is the detail CSV that was created
	DetailPath string

	// SummaryPath is the annual summary file that was appended to
	SummaryPath string

	// Counter is the collision counter the detail name used
	Counter int

	// FileCount is the number of regular files recorded
	FileCount int

	// TotalBytes is the total recorded size
	TotalBytes int64

	// Warnings are non-fatal events from the walk
	Warnings []string

	// EntryErrors counts entries recorded with error markers
	EntryErrors int

	// HistoryID is the operation history record id, empty when history
	// is disabled
	HistoryID string
}

// ConfirmFunc decides whether to proceed with an inventory larger than
// the configured confirmation threshold
type ConfirmFunc func(fileCount int) bool

// Service orchestrates logging operations
type Service struct {
	cfg       *config.Config
	calc      checksum.Calculator
	inspector *archive.Inspector
	writer    *logwriter.Writer
	history   *state.Manager
	reporter  progress.Reporter
	confirm   ConfirmFunc
}

// New creates a new service against the given configuration
func New(cfg *config.Config) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	return &Service{
		cfg:       cfg,
		calc:      checksum.NewDefaultCalculator(),
		inspector: archive.NewInspector(),
		writer:    logwriter.New(cfg),
	}, nil
}

// SetProgressReporter sets the progress reporter for operations
func (s *Service) SetProgressReporter(reporter progress.Reporter) {
	s.reporter = reporter
}

// SetHistory enables operation history recording
func (s *Service) SetHistory(manager *state.Manager) {
	s.history = manager
}

// SetConfirm installs a prompt for inventories above the configured
// file count threshold. Without one, large inventories proceed.
func (s *Service) SetConfirm(fn ConfirmFunc) {
	s.confirm = fn
}

// getReporter returns the current progress reporter or a null reporter
func (s *Service) getReporter() progress.Reporter {
	if s.reporter != nil {
		return s.reporter
	}
	return progress.NullReporter{}
}

// BuildContext validates the parameters against the configuration and
// derives the remaining context fields. Validation is fail-fast: no
// filesystem work happens until the whole context is accepted.
func (s *Service) BuildContext(p Params) (domain.TransferContext, error) {
	tc := domain.TransferContext{
		Kind:         p.Kind,
		MediaType:    p.MediaType,
		MediaID:      p.MediaID,
		TransferType: p.TransferType,
		Source:       p.Source,
		Destination:  p.Destination,
		Requestor:    p.Requestor,
		Purpose:      p.Purpose,
		TransferDate: p.TransferDate,
		Username:     p.Username,
		ComputerName: p.ComputerName,
		OutputDir:    p.OutputDir,
	}

	if !tc.Kind.IsValid() {
		return tc, fmt.Errorf("unknown operation kind: %q", tc.Kind)
	}

	if tc.TransferDate.IsZero() {
		tc.TransferDate = time.Now()
	}
	if tc.Username == "" {
		tc.Username = currentUsername()
	}
	if tc.ComputerName == "" {
		tc.ComputerName, _ = os.Hostname()
	}

	tc.ChecksumEnabled = s.cfg.Scan.Checksum
	if p.Checksum != nil {
		tc.ChecksumEnabled = *p.Checksum
	}
	tc.InspectArchives = s.cfg.Scan.InspectArchives
	if p.InspectArchives != nil {
		tc.InspectArchives = *p.InspectArchives
	}

	if tc.IsRequest() {
		if strings.TrimSpace(tc.Requestor) == "" {
			return tc, fmt.Errorf("%w: requestor", domain.ErrMissingField)
		}
		if strings.TrimSpace(tc.Purpose) == "" {
			return tc, fmt.Errorf("%w: purpose", domain.ErrMissingField)
		}
		return tc, nil
	}

	if strings.TrimSpace(tc.MediaID) == "" {
		return tc, fmt.Errorf("%w: media id", domain.ErrMissingField)
	}
	if tc.MediaType != "" && !s.cfg.HasMediaType(tc.MediaType) {
		return tc, fmt.Errorf("%w: %s", domain.ErrUnknownMediaType, tc.MediaType)
	}
	if !s.cfg.HasNetwork(tc.Source) {
		return tc, fmt.Errorf("%w: source %q", domain.ErrUnknownNetwork, tc.Source)
	}
	if !s.cfg.HasNetwork(tc.Destination) {
		return tc, fmt.Errorf("%w: destination %q", domain.ErrUnknownNetwork, tc.Destination)
	}

	abbr, err := s.cfg.TransferTypeAbbr(tc.TransferType)
	if err != nil {
		return tc, err
	}
	tc.TransferTypeAbbr = abbr
	tc.Direction = s.cfg.Direction(tc.Source, tc.Destination)

	return tc, nil
}

// Run executes one operation: walk the inputs, enrich the inventory,
// and write both log records under the output directory lock. Per-entry
// failures become error markers in the detail file; only validation,
// lock and write failures abort the operation.
func (s *Service) Run(ctx context.Context, tc domain.TransferContext, inputs []string) (*Result, error) {
	if len(inputs) == 0 {
		return nil, domain.ErrNoInputs
	}

	log := logger.Get().With("kind", string(tc.Kind))
	log.Info("starting operation",
		"inputs", len(inputs),
		"checksum", tc.ChecksumEnabled,
		"inspect_archives", tc.InspectArchives,
	)

	outputDir := tc.OutputDir
	if outputDir == "" {
		if tc.IsRequest() {
			outputDir = s.cfg.Requests.OutputFolder
		} else {
			outputDir = s.cfg.Logging.OutputFolder
		}
	}
	outputDir = config.ExpandPath(outputDir)

	dirLock, err := lock.New(outputDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrOutputUnwritable, outputDir, err)
	}
	if err := dirLock.Acquire(string(tc.Kind)); err != nil {
		log.Error("failed to acquire output lock", "dir", outputDir, "error", err)
		return nil, err
	}
	defer func() {
		if err := dirLock.Release(); err != nil {
			log.Warn("failed to release output lock", "dir", outputDir, "error", err)
		}
	}()

	inv, err := s.collect(ctx, tc, inputs)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	writeRes, err := s.writer.Write(tc, inv, now)
	if err != nil {
		log.Error("write failed", "error", err)
		s.record(tc, inv, now, "", "failed", err.Error())
		return nil, err
	}

	result := &Result{
		DetailPath:  writeRes.DetailPath,
		SummaryPath: writeRes.SummaryPath,
		Counter:     writeRes.Counter,
		FileCount:   inv.FileCount(),
		TotalBytes:  inv.TotalSize(),
		Warnings:    inv.Warnings,
	}
	for _, e := range inv.Entries {
		if e.HasErrors() {
			result.EntryErrors++
		}
	}

	status := "success"
	if result.EntryErrors > 0 {
		status = "partial"
	}
	result.HistoryID = s.record(tc, inv, now, writeRes.DetailPath, status, "")

	log.Info("operation complete",
		"detail_file", writeRes.DetailPath,
		"files", result.FileCount,
		"bytes", result.TotalBytes,
		"entry_errors", result.EntryErrors,
		"status", status,
	)

	return result, nil
}

// collect walks the inputs and enriches file entries with checksums and
// archive listings according to the context toggles
func (s *Service) collect(ctx context.Context, tc domain.TransferContext, inputs []string) (domain.Inventory, error) {
	w := walker.New(walker.Options{
		MaxDepth:            s.cfg.Scan.MaxDepth,
		IncludeEmptyFolders: s.cfg.Scan.IncludeEmptyFolders,
	})

	reporter := s.getReporter()

	inv, err := w.Walk(ctx, inputs)
	if err != nil {
		return inv, err
	}

	threshold := s.cfg.Scan.MaxFilesBeforeConfirm
	if s.confirm != nil && threshold > 0 && inv.FileCount() > threshold {
		if !s.confirm(inv.FileCount()) {
			return inv, fmt.Errorf("operation cancelled: inventory of %d files not confirmed", inv.FileCount())
		}
	}

	reporter.SetTotal(inv.FileCount(), inv.TotalSize())

	for i := range inv.Entries {
		if err := ctx.Err(); err != nil {
			return inv, err
		}

		e := &inv.Entries[i]
		if e.IsDir() || e.StatErr != "" {
			continue
		}

		if tc.ChecksumEnabled {
			reporter.StartFile(progress.StageChecksum, e.DisplayPath, e.Size)
			sum, err := s.calc.CalculateFile(ctx, e.Path)
			if err != nil {
				if ctx.Err() != nil {
					return inv, ctx.Err()
				}
				e.ChecksumErr = err.Error()
				reporter.FileError(e.DisplayPath, err)
				logger.Get().Warn("checksum failed", "path", e.Path, "error", err)
			} else {
				e.Checksum = sum
			}
			reporter.FileDone()
		}

		if tc.InspectArchives {
			members, recognized, err := s.inspector.Inspect(e.Path)
			if err != nil && recognized {
				e.ArchiveErr = err.Error()
				reporter.FileError(e.DisplayPath, err)
				logger.Get().Warn("archive inspection failed", "path", e.Path, "error", err)
			} else if recognized {
				e.ArchiveContents = members
			}
		}
	}

	return inv, nil
}

// record appends the operation to the history store when one is
// configured. History failures are logged, never fatal.
func (s *Service) record(tc domain.TransferContext, inv domain.Inventory, now time.Time, detailPath, status, errText string) string {
	if s.history == nil {
		return ""
	}

	id, err := s.history.SaveOperation(state.OperationRecord{
		Kind:         string(tc.Kind),
		Timestamp:    now,
		MediaType:    tc.MediaType,
		MediaID:      tc.MediaID,
		TransferType: tc.TransferType,
		Source:       tc.Source,
		Destination:  tc.Destination,
		Direction:    string(tc.Direction),
		Requestor:    tc.Requestor,
		Purpose:      tc.Purpose,
		FileCount:    inv.FileCount(),
		TotalBytes:   inv.TotalSize(),
		DetailFile:   detailPath,
		Status:       status,
		Error:        errText,
	})
	if err != nil {
		logger.Get().Warn("failed to record operation history", "error", err)
		return ""
	}
	return id
}

func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		// Strip the DOMAIN\ prefix Windows includes
		name := u.Username
		if i := strings.LastIndexByte(name, '\\'); i >= 0 {
			name = name[i+1:]
		}
		return name
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return os.Getenv("USERNAME")
}
