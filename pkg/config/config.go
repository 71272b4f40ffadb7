// Package config provides configuration management for memscope.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/memscope/pkg/compression"
)

// EnvPrefix prefixes environment overrides, e.g. MEMSCOPE_SCAN_SIZE.
const EnvPrefix = "MEMSCOPE"

// Config holds all configuration for the application.
type Config struct {
	Platform PlatformConfig `mapstructure:"platform"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Log      LogConfig      `mapstructure:"log"`
}

// PlatformConfig holds the ABI constants of the scanned program. The
// defaults describe 32-bit MSVC; other targets must supply every offset.
type PlatformConfig struct {
	Name              string `mapstructure:"name"`
	WordSize          int    `mapstructure:"word_size"`
	Stride            uint64 `mapstructure:"stride"`
	RTTIBackOffset    uint64 `mapstructure:"rtti_back_offset"`
	SignatureOffset   uint64 `mapstructure:"signature_offset"`
	ExpectedSignature uint32 `mapstructure:"expected_signature"`
	DescriptorOffset  uint64 `mapstructure:"descriptor_offset"`
	NameOffset        uint64 `mapstructure:"name_offset"`
	MaxNameLength     int    `mapstructure:"max_name_length"`

	StringSizeOffset     uint64 `mapstructure:"string_size_offset"`
	StringCapacityOffset uint64 `mapstructure:"string_capacity_offset"`
	InlineCapacity       uint64 `mapstructure:"inline_capacity"`
	MaxCapacity          uint64 `mapstructure:"max_capacity"`
	PreviewLength        int    `mapstructure:"preview_length"`
}

// ScanConfig holds defaults for scan requests.
type ScanConfig struct {
	Size        int64  `mapstructure:"size"`
	Source      string `mapstructure:"source"` // self, image or wasm
	ImageBase   string `mapstructure:"image_base"`
	ReportDir   string `mapstructure:"report_dir"`
	Compression string `mapstructure:"compression"` // none, gzip or zstd
}

// DatabaseConfig holds scan history database configuration.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Type     string `mapstructure:"type"` // sqlite, mysql or postgres
	Path     string `mapstructure:"path"` // for sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// StorageConfig holds report storage configuration.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // cos or local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`     // e.g., "myqcloud.com"
	Scheme    string `mapstructure:"scheme"`     // e.g., "https" or "http"
	Prefix    string `mapstructure:"prefix"`     // key prefix for uploaded reports
	LocalPath string `mapstructure:"local_path"` // for local storage
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"` // empty means stderr
}

// Load reads configuration from the specified file path. An empty path
// searches the standard locations; a missing file falls back to defaults.
func Load(configPath string) (*Config, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("memscope")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "memscope"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config in the search path, use defaults.
		} else if os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Config file %s not found, using defaults\n", configPath)
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromReader loads configuration from content (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return decode(v)
}

// Default returns the configuration made of defaults and environment
// overrides only.
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		// Defaults always validate; an invalid environment override is
		// reported by Load instead.
		return &Config{}
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Platform defaults: 32-bit MSVC
	v.SetDefault("platform.name", "msvc-x86")
	v.SetDefault("platform.word_size", 4)
	v.SetDefault("platform.stride", 4)
	v.SetDefault("platform.rtti_back_offset", 4)
	v.SetDefault("platform.signature_offset", 0)
	v.SetDefault("platform.expected_signature", 0)
	v.SetDefault("platform.descriptor_offset", 12)
	v.SetDefault("platform.name_offset", 8)
	v.SetDefault("platform.max_name_length", 512)
	v.SetDefault("platform.string_size_offset", 16)
	v.SetDefault("platform.string_capacity_offset", 20)
	v.SetDefault("platform.inline_capacity", 15)
	v.SetDefault("platform.max_capacity", 100_000_000)
	v.SetDefault("platform.preview_length", 30)

	// Scan defaults
	v.SetDefault("scan.size", 0x100)
	v.SetDefault("scan.source", "self")
	v.SetDefault("scan.image_base", "0x0")
	v.SetDefault("scan.report_dir", "./reports")
	v.SetDefault("scan.compression", "none")

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "./memscope.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.max_conns", 10)

	// Storage defaults
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./storage")
	v.SetDefault("storage.prefix", "memscope/reports")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Platform.WordSize != 4 && c.Platform.WordSize != 8 {
		return fmt.Errorf("unsupported platform word size: %d", c.Platform.WordSize)
	}
	if c.Platform.Stride == 0 {
		return fmt.Errorf("platform stride must be positive")
	}

	if c.Scan.Size < 0 {
		return fmt.Errorf("scan size must not be negative")
	}
	switch c.Scan.Source {
	case "self", "image", "wasm":
	default:
		return fmt.Errorf("unsupported scan source: %s", c.Scan.Source)
	}
	if _, err := compression.ParseType(c.Scan.Compression); err != nil {
		return err
	}

	if c.Database.Enabled {
		switch c.Database.Type {
		case "sqlite":
			if c.Database.Path == "" {
				return fmt.Errorf("database path is required for sqlite")
			}
		case "mysql", "postgres":
			if c.Database.Host == "" {
				return fmt.Errorf("database host is required")
			}
		default:
			return fmt.Errorf("unsupported database type: %s", c.Database.Type)
		}
	}

	// Storage config validation is delegated to storage package

	return nil
}

// EnsureReportDir creates the report directory if it doesn't exist.
func (c *Config) EnsureReportDir() error {
	if c.Scan.ReportDir == "" {
		return nil
	}
	return os.MkdirAll(c.Scan.ReportDir, 0755)
}

// ReportPath returns the export path of a run's report.
func (c *Config) ReportPath(runID string) string {
	t, _ := compression.ParseType(c.Scan.Compression)
	return filepath.Join(c.Scan.ReportDir, runID+".json"+t.Extension())
}
