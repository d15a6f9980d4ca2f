// Package config provides XML-based configuration management.
package config

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/bytes"
	"github.com/rcm-webdev/insight-lens/internal/intake"
	"github.com/rcm-webdev/insight-lens/internal/models"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"InsightLens"`

	Server   ServerConfig   `xml:"Server"`
	Storage  StorageConfig  `xml:"Storage"`
	Upload   UploadConfig   `xml:"Upload"`
	Catalog  CatalogConfig  `xml:"Catalog"`
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port              int    `xml:"Port"`
	BindAddress       string `xml:"BindAddress"`
	EnableCORS        bool   `xml:"EnableCORS"`
	AllowOrigins      string `xml:"AllowOrigins"`
	ReadTimeout       int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout      int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout       int    `xml:"IdleTimeoutSeconds"`
	BodyLimit         string `xml:"BodyLimit"`
	EnableCompression bool   `xml:"EnableCompression"`
	CompressionLevel  int    `xml:"CompressionLevel"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory    string `xml:"DataDirectory"`
	UploadsDirectory string `xml:"UploadsDirectory"`
	AuditDatabase    string `xml:"AuditDatabase"` // empty keeps the audit log in memory
}

// UploadConfig contains the admission policy and queue settings
type UploadConfig struct {
	MaxFileSizeBytes       int64  `xml:"MaxFileSizeBytes"`
	MaxFiles               int    `xml:"MaxFiles"`
	AcceptedTypes          string `xml:"AcceptedTypes"`
	AcceptedExtensions     string `xml:"AcceptedExtensions"`
	RemoveOnSuccess        bool   `xml:"RemoveOnSuccess"`
	QueueTimeoutMinutes    int    `xml:"QueueTimeoutMinutes"`
	CleanupIntervalMinutes int    `xml:"CleanupIntervalMinutes"`
}

// CatalogConfig selects the model catalog source
type CatalogConfig struct {
	FixturePath string `xml:"FixturePath"` // empty uses the built-in sample catalog
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
	DuckDBThreads        int    `xml:"DuckDBThreads"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	policy := intake.DefaultUploadConfig()
	return &AppConfig{
		Server: ServerConfig{
			Port:              8090,
			BindAddress:       "0.0.0.0",
			EnableCORS:        true,
			AllowOrigins:      "*",
			ReadTimeout:       30,
			WriteTimeout:      30,
			IdleTimeout:       120,
			BodyLimit:         "64M",
			EnableCompression: true,
			CompressionLevel:  5,
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			AuditDatabase:    "./data/audit.duckdb",
		},
		Upload: UploadConfig{
			MaxFileSizeBytes:       policy.MaxFileSize,
			MaxFiles:               policy.MaxFiles,
			AcceptedTypes:          strings.Join(policy.AcceptedTypes, ","),
			AcceptedExtensions:     strings.Join(policy.AcceptedExtensions, ","),
			RemoveOnSuccess:        false,
			QueueTimeoutMinutes:    60,
			CleanupIntervalMinutes: 5,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
			DuckDBThreads:        2,
		},
	}
}

// LoadConfig loads configuration from an XML file, creating it with defaults
// when missing. A .env file in the working directory is loaded first so
// its variables can override file values.
func LoadConfig(configPath string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Unable to load .env file", "err", err)
	}

	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnvironmentOverrides()
	config.resolvePaths(filepath.Dir(configPath))

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// multipartOverhead is the share of the body limit kept for multipart
// headers and form fields around the file part.
const multipartOverhead = 64 * 1024

func (c *AppConfig) validate() error {
	policy := c.UploadPolicy()
	if err := intake.CheckPolicy(policy); err != nil {
		return fmt.Errorf("invalid <Upload> section: %w", err)
	}
	if c.Upload.QueueTimeoutMinutes <= 0 {
		return fmt.Errorf("invalid <Upload> section: QueueTimeoutMinutes must be positive")
	}
	if c.Upload.CleanupIntervalMinutes <= 0 {
		return fmt.Errorf("invalid <Upload> section: CleanupIntervalMinutes must be positive")
	}

	ceiling, err := c.MaxUploadSize()
	if err != nil {
		return err
	}
	if policy.MaxFileSize > ceiling {
		return fmt.Errorf("invalid <Upload> section: %w: MaxFileSizeBytes %d exceeds the %s body limit", intake.ErrInvalidPolicy, policy.MaxFileSize, c.Server.BodyLimit)
	}
	return nil
}

// MaxUploadSize returns the largest file a single multipart request can
// carry under Server.BodyLimit.
func (c *AppConfig) MaxUploadSize() (int64, error) {
	limit, err := bytes.Parse(c.Server.BodyLimit)
	if err != nil {
		return 0, fmt.Errorf("invalid <Server> BodyLimit %q: %w", c.Server.BodyLimit, err)
	}
	if limit <= multipartOverhead {
		return 0, fmt.Errorf("invalid <Server> BodyLimit %q: must exceed %d bytes", c.Server.BodyLimit, multipartOverhead)
	}
	return limit - multipartOverhead, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- InsightLens Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
		c.Storage.UploadsDirectory = filepath.Join(dataDir, "uploads")
	}

	if catalog := os.Getenv("INSIGHTLENS_CATALOG"); catalog != "" {
		c.Catalog.FixturePath = catalog
	}

	if auditDB, ok := os.LookupEnv("INSIGHTLENS_AUDIT_DB"); ok {
		c.Storage.AuditDatabase = auditDB
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	resolve := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
	resolve(&c.Storage.DataDirectory)
	resolve(&c.Storage.UploadsDirectory)
	resolve(&c.Storage.AuditDatabase)
	resolve(&c.Catalog.FixturePath)
}

// UploadPolicy returns the admission policy described by the <Upload> section
func (c *AppConfig) UploadPolicy() models.UploadConfig {
	return intake.Normalize(models.UploadConfig{
		MaxFileSize:        c.Upload.MaxFileSizeBytes,
		MaxFiles:           c.Upload.MaxFiles,
		AcceptedTypes:      splitList(c.Upload.AcceptedTypes),
		AcceptedExtensions: splitList(c.Upload.AcceptedExtensions),
	})
}

// LogLevel parses Advanced.LogLevel, defaulting to info
func (c *AppConfig) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Advanced.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetUploadDir returns the absolute uploads directory path
func (c *AppConfig) GetUploadDir() string {
	return c.Storage.UploadsDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
	}
	if c.Storage.AuditDatabase != "" {
		dirs = append(dirs, filepath.Dir(c.Storage.AuditDatabase))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
