package config

import (
	"errors"
	"testing"

	"github.com/dtatools/transferlog/internal/domain"
)

// TestDefaults verifies the shipped defaults load and validate
func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}

	if cfg.LocalNetwork != "Intranet" {
		t.Errorf("LocalNetwork = %q, want Intranet", cfg.LocalNetwork)
	}
	if cfg.Logging.TransferLogName != DefaultTransferLogName {
		t.Errorf("TransferLogName = %q, want %q", cfg.Logging.TransferLogName, DefaultTransferLogName)
	}
	if !cfg.Scan.Checksum {
		t.Error("expected checksum enabled by default")
	}
}

// TestLoadFromString verifies YAML parsing and defaults merging
func TestLoadFromString(t *testing.T) {
	yaml := `
networks:
  - Intranet
  - Customer
local_network: Intranet
transfer_types:
  - name: Low to High
    abbr: L2H
logging:
  output_folder: /tmp/xferlogs
scan:
  max_depth: 3
  include_empty_folders: true
`
	cfg, err := LoadFromString(yaml)
	if err != nil {
		t.Fatalf("LoadFromString failed: %v", err)
	}

	if cfg.Logging.OutputFolder != "/tmp/xferlogs" {
		t.Errorf("OutputFolder = %q", cfg.Logging.OutputFolder)
	}
	if cfg.Scan.MaxDepth != 3 {
		t.Errorf("MaxDepth = %d, want 3", cfg.Scan.MaxDepth)
	}
	if !cfg.Scan.IncludeEmptyFolders {
		t.Error("expected IncludeEmptyFolders true")
	}
	// Defaults still apply for unset keys
	if cfg.Logging.FileListName != DefaultFileListName {
		t.Errorf("FileListName = %q, want default", cfg.Logging.FileListName)
	}
}

// TestValidateRejectsInconsistent covers the config-inconsistent cases
func TestValidateRejectsInconsistent(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{
			name: "duplicate transfer type",
			cfg: Config{
				TransferTypes: []TransferType{
					{Name: "Low to High", Abbr: "L2H"},
					{Name: "Low to High", Abbr: "L2H"},
				},
			},
		},
		{
			name: "transfer type without abbreviation",
			cfg: Config{
				TransferTypes: []TransferType{{Name: "Low to High"}},
			},
		},
		{
			name: "local network not in list",
			cfg: Config{
				Networks:     []string{"Intranet"},
				LocalNetwork: "Elsewhere",
			},
		},
		{
			name: "duplicate network",
			cfg: Config{
				Networks: []string{"Intranet", "Intranet"},
			},
		},
		{
			name: "negative max depth",
			cfg: Config{
				Scan: Scan{MaxDepth: -1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !errors.Is(err, domain.ErrConfigInvalid) {
				t.Errorf("expected ErrConfigInvalid, got %v", err)
			}
		})
	}
}

// TestTransferTypeAbbr verifies abbreviation lookup
func TestTransferTypeAbbr(t *testing.T) {
	cfg := Default()

	abbr, err := cfg.TransferTypeAbbr("Low to High")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if abbr != "L2H" {
		t.Errorf("abbr = %q, want L2H", abbr)
	}

	_, err = cfg.TransferTypeAbbr("Sideways")
	if !errors.Is(err, domain.ErrUnknownTransferType) {
		t.Errorf("expected ErrUnknownTransferType, got %v", err)
	}
}

// TestDirection verifies direction derivation against LocalNetwork
func TestDirection(t *testing.T) {
	cfg := &Config{
		Networks:     []string{"Intranet", "Customer"},
		LocalNetwork: "Intranet",
	}

	tests := []struct {
		source, dest string
		want         domain.Direction
	}{
		{"Intranet", "Customer", domain.DirectionOutgoing},
		{"Customer", "Intranet", domain.DirectionIncoming},
		{"Customer", "Customer", domain.DirectionUnknown},
	}

	for _, tt := range tests {
		got := cfg.Direction(tt.source, tt.dest)
		if got != tt.want {
			t.Errorf("Direction(%s, %s) = %q, want %q", tt.source, tt.dest, got, tt.want)
		}
	}

	// No local network configured: never guessed
	noLocal := &Config{Networks: []string{"A", "B"}}
	if got := noLocal.Direction("A", "B"); got != domain.DirectionUnknown {
		t.Errorf("Direction without local network = %q, want unknown", got)
	}
}
