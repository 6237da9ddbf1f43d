package domain

import (
	"errors"
	"fmt"
)

// Validation errors - rejected before any filesystem work begins
var (
	// ErrUnknownTransferType indicates the transfer type is not configured
	ErrUnknownTransferType = errors.New("unknown transfer type")

	// ErrUnknownNetwork indicates the network is not in the configured list
	ErrUnknownNetwork = errors.New("unknown network")

	// ErrUnknownMediaType indicates the media type is not configured
	ErrUnknownMediaType = errors.New("unknown media type")

	// ErrMissingField indicates a required operation field is empty
	ErrMissingField = errors.New("missing required field")

	// ErrNoInputs indicates no file or folder paths were supplied
	ErrNoInputs = errors.New("no input paths")
)

// Writer errors - fatal for the current operation
var (
	// ErrNamingExhausted indicates the collision counter search exceeded
	// its bound without finding a free detail file name
	ErrNamingExhausted = errors.New("file naming counter exhausted")

	// ErrOutputUnwritable indicates the output directory cannot be
	// created or written to
	ErrOutputUnwritable = errors.New("output directory not writable")
)

// Config errors
var (
	// ErrConfigNotFound indicates config file not found
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates config file is malformed or inconsistent
	ErrConfigInvalid = errors.New("invalid config")
)

// Lock errors
var (
	// ErrOperationInProgress indicates another operation holds the
	// output directory lock
	ErrOperationInProgress = errors.New("operation already in progress")
)

// PartialWriteError reports a detail file that was written successfully
// before the summary append failed. The detail file is not rolled back;
// the path is surfaced so an operator can reconcile manually.
type PartialWriteError struct {
	// DetailPath is the orphaned detail file
	DetailPath string

	// Err is the summary append failure
	Err error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("summary append failed after detail file was written (orphaned detail file: %s): %v",
		e.DetailPath, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}
