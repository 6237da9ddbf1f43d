package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Stage identifies which phase of an operation a progress update
// belongs to
type Stage int

const (
	StageScan Stage = iota
	StageChecksum
	StageInspect
	StageWrite
)

// String returns the display name of the stage
func (s Stage) String() string {
	switch s {
	case StageScan:
		return "scanning"
	case StageChecksum:
		return "checksumming"
	case StageInspect:
		return "inspecting"
	case StageWrite:
		return "writing"
	default:
		return "unknown"
	}
}

// Reporter receives progress events from a running operation
type Reporter interface {
	// SetTotal sets the total number of files and bytes after scanning
	SetTotal(totalFiles int, totalBytes int64)
	// StartFile begins tracking one file within a stage
	StartFile(stage Stage, path string, size int64)
	// FileDone marks the current file as processed
	FileDone()
	// FileError reports a per-file error without aborting the operation
	FileError(path string, err error)
}

// Callback is a function that receives progress updates
type Callback func(update Update)

// Update represents a progress update
type Update struct {
	Type           UpdateType
	Stage          Stage
	CurrentFile    string
	CurrentSize    int64
	FilesCompleted int
	FilesTotal     int
	BytesCompleted int64
	BytesTotal     int64
	BytesPerSecond float64
	Error          error
}

// UpdateType indicates the type of progress update
type UpdateType int

const (
	UpdateTotal UpdateType = iota
	UpdateStart
	UpdateDone
	UpdateError
)

// CallbackReporter implements Reporter with a callback function
type CallbackReporter struct {
	callback       Callback
	mu             sync.Mutex
	stage          Stage
	currentFile    string
	currentSize    int64
	filesTotal     int
	bytesTotal     int64
	filesCompleted int
	bytesCompleted int64
	startTime      time.Time
}

// NewCallbackReporter creates a new CallbackReporter
func NewCallbackReporter(callback Callback) *CallbackReporter {
	return &CallbackReporter{
		callback: callback,
	}
}

// SetTotal sets the total number of files and bytes to process
func (r *CallbackReporter) SetTotal(totalFiles int, totalBytes int64) {
	r.mu.Lock()
	r.filesTotal = totalFiles
	r.bytesTotal = totalBytes

	update := Update{
		Type:       UpdateTotal,
		FilesTotal: totalFiles,
		BytesTotal: totalBytes,
	}
	callback := r.callback
	r.mu.Unlock()

	// Call callback outside lock to prevent deadlock
	if callback != nil {
		callback(update)
	}
}

// StartFile begins tracking one file within a stage
func (r *CallbackReporter) StartFile(stage Stage, path string, size int64) {
	r.mu.Lock()
	r.stage = stage
	r.currentFile = path
	r.currentSize = size
	r.startTime = time.Now()

	update := Update{
		Type:           UpdateStart,
		Stage:          stage,
		CurrentFile:    path,
		CurrentSize:    size,
		FilesCompleted: r.filesCompleted,
		FilesTotal:     r.filesTotal,
		BytesCompleted: r.bytesCompleted,
		BytesTotal:     r.bytesTotal,
	}
	callback := r.callback
	r.mu.Unlock()

	if callback != nil {
		callback(update)
	}
}

// FileDone marks the current file as processed
func (r *CallbackReporter) FileDone() {
	r.mu.Lock()
	r.filesCompleted++
	r.bytesCompleted += r.currentSize

	var bytesPerSecond float64
	elapsed := time.Since(r.startTime).Seconds()
	if elapsed > 0 {
		bytesPerSecond = float64(r.currentSize) / elapsed
	}

	update := Update{
		Type:           UpdateDone,
		Stage:          r.stage,
		CurrentFile:    r.currentFile,
		CurrentSize:    r.currentSize,
		FilesCompleted: r.filesCompleted,
		FilesTotal:     r.filesTotal,
		BytesCompleted: r.bytesCompleted,
		BytesTotal:     r.bytesTotal,
		BytesPerSecond: bytesPerSecond,
	}
	callback := r.callback
	r.mu.Unlock()

	if callback != nil {
		callback(update)
	}
}

// FileError reports a per-file error without aborting the operation
func (r *CallbackReporter) FileError(path string, err error) {
	r.mu.Lock()
	update := Update{
		Type:           UpdateError,
		Stage:          r.stage,
		CurrentFile:    path,
		FilesCompleted: r.filesCompleted,
		FilesTotal:     r.filesTotal,
		BytesCompleted: r.bytesCompleted,
		BytesTotal:     r.bytesTotal,
		Error:          err,
	}
	callback := r.callback
	r.mu.Unlock()

	if callback != nil {
		callback(update)
	}
}

// NullReporter is a no-op reporter
type NullReporter struct{}

func (NullReporter) SetTotal(totalFiles int, totalBytes int64)       {}
func (NullReporter) StartFile(stage Stage, path string, size int64)  {}
func (NullReporter) FileDone()                                       {}
func (NullReporter) FileError(path string, err error)                {}

// FormatBytes formats bytes into a human-readable string
func FormatBytes(bytes int64) string {
	return humanize.IBytes(uint64(bytes))
}

// FormatSpeed formats bytes per second into a human-readable string
func FormatSpeed(bytesPerSecond float64) string {
	return FormatBytes(int64(bytesPerSecond)) + "/s"
}

// FormatProgress returns a progress bar string
func FormatProgress(current, total int64, width int) string {
	if total == 0 {
		return ""
	}

	percent := float64(current) / float64(total)
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}

	bar := make([]byte, width)
	for i := 0; i < width; i++ {
		if i < filled {
			bar[i] = '='
		} else if i == filled {
			bar[i] = '>'
		} else {
			bar[i] = ' '
		}
	}

	return fmt.Sprintf("[%s] %5.1f%%", string(bar), percent*100)
}
