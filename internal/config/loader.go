package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/dtatools/transferlog/internal/domain"
)

// Default file name templates, matching the documented token surface
const (
	DefaultTransferLogName     = "TransferLog_{year}.log"
	DefaultFileListName        = "{date}_{username}_{transfertype}_{source}-{destination}_{counter}.csv"
	DefaultRequestLogName      = "RequestLog_{year}.log"
	DefaultRequestFileListName = "{date}_{username}_Request_{counter}.csv"
	DefaultDateFormat          = "yyyyMMdd"
	DefaultTimeFormat          = "HHmmss"
)

// DefaultConfigPaths returns the default paths to search for config files
func DefaultConfigPaths() []string {
	paths := []string{
		".",
		"./configs",
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "transferlog"))
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "transferlog"))
		paths = append(paths, filepath.Join(homeDir, ".transferlog"))
	}

	return paths
}

// Load reads and parses a configuration file.
// If path is empty, searches default locations for config.yaml
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, p := range DefaultConfigPaths() {
			v.AddConfigPath(p)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, domain.ErrConfigNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromString parses configuration from a YAML string
func LoadFromString(yamlContent string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadConfig(strings.NewReader(yamlContent)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a configuration equivalent to the shipped defaults,
// used when no config file exists
func Default() *Config {
	cfg, _ := LoadFromString("{}")
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("media_types", []string{
		"Apricorn", "Blu-ray", "CD", "DVD", "Flash", "HDD", "microSD", "SD", "SSD",
	})
	v.SetDefault("transfer_types", []map[string]string{
		{"name": "Low to High", "abbr": "L2H"},
		{"name": "High to High", "abbr": "H2H"},
		{"name": "High to Low", "abbr": "H2L"},
	})
	v.SetDefault("networks", []string{"Intranet", "Customer", "IS001", "System 99"})
	v.SetDefault("local_network", "Intranet")

	v.SetDefault("logging.output_folder", "./logs")
	v.SetDefault("logging.transfer_log_name", DefaultTransferLogName)
	v.SetDefault("logging.file_list_name", DefaultFileListName)
	v.SetDefault("logging.date_format", DefaultDateFormat)
	v.SetDefault("logging.time_format", DefaultTimeFormat)

	v.SetDefault("requests.output_folder", "./requests")
	v.SetDefault("requests.request_log_name", DefaultRequestLogName)
	v.SetDefault("requests.file_list_name", DefaultRequestFileListName)

	v.SetDefault("scan.max_depth", 16)
	v.SetDefault("scan.include_empty_folders", false)
	v.SetDefault("scan.checksum", true)
	v.SetDefault("scan.inspect_archives", true)
	v.SetDefault("scan.max_files_before_confirm", 1000)
}
