package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dtatools/transferlog/internal/domain"
)

// TransferType pairs a full transfer type name with its abbreviation
type TransferType struct {
	// Name is the full name ("Low to High")
	Name string `mapstructure:"name"`

	// Abbr is the short form used in file names ("L2H")
	Abbr string `mapstructure:"abbr"`
}

// Logging configures output locations and file name templates for
// transfer operations
type Logging struct {
	// OutputFolder is where summary and detail files are written
	OutputFolder string `mapstructure:"output_folder"`

	// TransferLogName is the annual summary file name template
	TransferLogName string `mapstructure:"transfer_log_name"`

	// FileListName is the per-transfer detail file name template
	FileListName string `mapstructure:"file_list_name"`

	// DateFormat is the default pattern for the {date} token
	DateFormat string `mapstructure:"date_format"`

	// TimeFormat is the default pattern for the {time} token
	TimeFormat string `mapstructure:"time_format"`
}

// Requests configures output locations and templates for request
// operations
type Requests struct {
	// OutputFolder is where request summaries and detail files are written
	OutputFolder string `mapstructure:"output_folder"`

	// RequestLogName is the annual request summary file name template
	RequestLogName string `mapstructure:"request_log_name"`

	// FileListName is the per-request detail file name template
	FileListName string `mapstructure:"file_list_name"`
}

// Scan configures inventory collection behavior
type Scan struct {
	// MaxDepth limits folder recursion; entries below it are skipped
	// with a warning
	MaxDepth int `mapstructure:"max_depth"`

	// IncludeEmptyFolders emits placeholder entries for empty folders
	IncludeEmptyFolders bool `mapstructure:"include_empty_folders"`

	// Checksum enables SHA-256 generation by default
	Checksum bool `mapstructure:"checksum"`

	// InspectArchives enables archive content listing by default
	InspectArchives bool `mapstructure:"inspect_archives"`

	// MaxFilesBeforeConfirm is the threshold above which interactive
	// callers ask for confirmation before processing
	MaxFilesBeforeConfirm int `mapstructure:"max_files_before_confirm"`
}

// Config represents the complete configuration for transferlog
type Config struct {
	// MediaTypes are the selectable media kinds
	MediaTypes []string `mapstructure:"media_types"`

	// TransferTypes are the selectable transfer types with abbreviations
	TransferTypes []TransferType `mapstructure:"transfer_types"`

	// Networks are the selectable source/destination networks
	Networks []string `mapstructure:"networks"`

	// LocalNetwork determines transfer direction; must appear in Networks
	LocalNetwork string `mapstructure:"local_network"`

	// MediaIDs pre-populate the media id field for interactive callers
	MediaIDs []string `mapstructure:"media_ids"`

	Logging  Logging  `mapstructure:"logging"`
	Requests Requests `mapstructure:"requests"`
	Scan     Scan     `mapstructure:"scan"`
}

// Validate checks if the configuration is complete and consistent
func (c *Config) Validate() error {
	for _, m := range c.MediaTypes {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("%w: media type cannot be empty", domain.ErrConfigInvalid)
		}
	}

	typeNames := make(map[string]bool)
	for _, t := range c.TransferTypes {
		if t.Name == "" {
			return fmt.Errorf("%w: transfer type name cannot be empty", domain.ErrConfigInvalid)
		}
		if t.Abbr == "" {
			return fmt.Errorf("%w: transfer type %s has no abbreviation", domain.ErrConfigInvalid, t.Name)
		}
		if typeNames[t.Name] {
			return fmt.Errorf("%w: duplicate transfer type: %s", domain.ErrConfigInvalid, t.Name)
		}
		typeNames[t.Name] = true
	}

	networkNames := make(map[string]bool)
	for _, n := range c.Networks {
		if strings.TrimSpace(n) == "" {
			return fmt.Errorf("%w: network name cannot be empty", domain.ErrConfigInvalid)
		}
		if networkNames[n] {
			return fmt.Errorf("%w: duplicate network: %s", domain.ErrConfigInvalid, n)
		}
		networkNames[n] = true
	}

	if c.LocalNetwork != "" && !networkNames[c.LocalNetwork] {
		return fmt.Errorf("%w: local network %q is not in the network list",
			domain.ErrConfigInvalid, c.LocalNetwork)
	}

	if c.Scan.MaxDepth < 0 {
		return fmt.Errorf("%w: max_depth cannot be negative", domain.ErrConfigInvalid)
	}

	return nil
}

// TransferTypeAbbr returns the abbreviation for a transfer type name
func (c *Config) TransferTypeAbbr(name string) (string, error) {
	for _, t := range c.TransferTypes {
		if t.Name == name {
			return t.Abbr, nil
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrUnknownTransferType, name)
}

// HasNetwork checks if a network is in the configured list
func (c *Config) HasNetwork(name string) bool {
	for _, n := range c.Networks {
		if n == name {
			return true
		}
	}
	return false
}

// HasMediaType checks if a media type is in the configured list
func (c *Config) HasMediaType(name string) bool {
	for _, m := range c.MediaTypes {
		if m == name {
			return true
		}
	}
	return false
}

// Direction derives the transfer direction from the local network.
// Outgoing when source matches, Incoming when destination matches,
// unknown when neither does.
func (c *Config) Direction(source, destination string) domain.Direction {
	if c.LocalNetwork == "" {
		return domain.DirectionUnknown
	}
	if source == c.LocalNetwork {
		return domain.DirectionOutgoing
	}
	if destination == c.LocalNetwork {
		return domain.DirectionIncoming
	}
	return domain.DirectionUnknown
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			if len(path) > 1 && (path[1] == '/' || path[1] == filepath.Separator) {
				path = filepath.Join(home, path[2:])
			} else if len(path) == 1 {
				path = home
			}
		}
	}
	path = os.ExpandEnv(path)
	return filepath.Clean(path)
}
