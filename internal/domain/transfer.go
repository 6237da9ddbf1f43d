package domain

import "time"

// OperationKind distinguishes transfer logging from request generation
type OperationKind string

const (
	// OperationTransfer logs a completed media transfer
	OperationTransfer OperationKind = "transfer"

	// OperationRequest records a transfer request (no direction fields)
	OperationRequest OperationKind = "request"
)

// IsValid checks if the operation kind is a known value
func (k OperationKind) IsValid() bool {
	switch k {
	case OperationTransfer, OperationRequest:
		return true
	}
	return false
}

// Direction classifies a transfer relative to the configured local network
type Direction string

const (
	DirectionOutgoing Direction = "Outgoing"
	DirectionIncoming Direction = "Incoming"

	// DirectionUnknown is used when neither side matches the local
	// network; it is never guessed
	DirectionUnknown Direction = ""
)

// TransferContext carries the parameters of one logging operation.
// Direction and the transfer type abbreviation are derived from
// configuration lookups, never user-supplied.
type TransferContext struct {
	// Kind selects transfer or request semantics
	Kind OperationKind

	// MediaType is the physical media kind (Flash, HDD, ...)
	MediaType string

	// MediaID is the media identifier / control number
	MediaID string

	// TransferType is the full transfer type name ("Low to High")
	TransferType string

	// TransferTypeAbbr is the configured abbreviation ("L2H")
	TransferTypeAbbr string

	// Source network/system name
	Source string

	// Destination network/system name
	Destination string

	// Direction derived from LocalNetwork comparison
	Direction Direction

	// Requestor is the requesting person (request operations)
	Requestor string

	// Purpose of the requested transfer (request operations)
	Purpose string

	// TransferDate is the operator-supplied transfer or request date
	TransferDate time.Time

	// Username of the operator
	Username string

	// ComputerName of the logging workstation
	ComputerName string

	// ChecksumEnabled toggles SHA-256 generation
	ChecksumEnabled bool

	// InspectArchives toggles archive content listing
	InspectArchives bool

	// OutputDir overrides the configured output folder when set
	OutputDir string
}

// IsRequest returns true for request operations
func (c TransferContext) IsRequest() bool {
	return c.Kind == OperationRequest
}
