package core

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jo-hoe/photobrowser/internal/backend/cache"
	"github.com/jo-hoe/photobrowser/internal/backend/commandstructure"
	"github.com/jo-hoe/photobrowser/internal/backend/wallpaper"
	"github.com/jo-hoe/photobrowser/internal/unsplash"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = 8080
	defaultThumbnailWidth = 320
	defaultMediaStoreType = "sqlite"
	defaultMediaStoreConn = "photobrowser.db"
)

type MediaStore struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
}

type ServiceConfig struct {
	Port              int                              `yaml:"port"`
	LogLevel          string                           `yaml:"logLevel"`
	ThumbnailWidth    int                              `yaml:"thumbnailWidth"`
	Unsplash          unsplash.Config                  `yaml:"unsplash"`
	MediaStore        MediaStore                       `yaml:"mediaStore"`
	BatchStore        cache.Config                     `yaml:"batchStore"`
	Wallpaper         wallpaper.Config                 `yaml:"wallpaper"`
	WallpaperCommands []commandstructure.CommandConfig `yaml:"wallpaperCommands"`
}

// envOverrides are applied on top of the file so secrets can stay out of it.
type envOverrides struct {
	AccessKey     string `envconfig:"unsplash_access_key"`
	LogLevel      string `envconfig:"log_level"`
	Port          int    `envconfig:"port"`
	RedisPassword string `envconfig:"redis_password"`
}

// LoadConfig loads configuration from the specified YAML file, applies
// environment overrides and defaults, then validates the result.
func LoadConfig(configPath string) (*ServiceConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	config, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	return config, nil
}

// ParseConfig is LoadConfig for config bytes.
func ParseConfig(data []byte) (*ServiceConfig, error) {
	var config ServiceConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

func (c *ServiceConfig) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("failed to read environment overrides: %w", err)
	}
	if env.AccessKey != "" {
		c.Unsplash.AccessKey = env.AccessKey
	}
	if env.LogLevel != "" {
		c.LogLevel = env.LogLevel
	}
	if env.Port != 0 {
		c.Port = env.Port
	}
	if env.RedisPassword != "" {
		c.BatchStore.Password = env.RedisPassword
	}
	return nil
}

func (c *ServiceConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.ThumbnailWidth == 0 {
		c.ThumbnailWidth = defaultThumbnailWidth
	}
	if c.Unsplash.Count == 0 {
		c.Unsplash.Count = unsplash.DefaultCount
	}
	if c.MediaStore.Type == "" {
		c.MediaStore.Type = defaultMediaStoreType
	}
	if c.MediaStore.ConnectionString == "" && c.MediaStore.Type == defaultMediaStoreType {
		c.MediaStore.ConnectionString = defaultMediaStoreConn
	}
}

func (c *ServiceConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.ThumbnailWidth < 1 {
		return fmt.Errorf("thumbnailWidth must be positive, got %d", c.ThumbnailWidth)
	}
	if strings.TrimSpace(c.Unsplash.AccessKey) == "" {
		return errors.New("unsplash.accessKey is required (or set UNSPLASH_ACCESS_KEY)")
	}
	if c.Unsplash.Count < 1 || c.Unsplash.Count > unsplash.MaxCount {
		return fmt.Errorf("unsplash.count must be between 1 and %d, got %d", unsplash.MaxCount, c.Unsplash.Count)
	}
	switch c.MediaStore.Type {
	case "sqlite", "directory":
	default:
		return fmt.Errorf("unsupported mediaStore.type: %s", c.MediaStore.Type)
	}
	if c.MediaStore.ConnectionString == "" {
		return fmt.Errorf("mediaStore.connectionString is required for type %s", c.MediaStore.Type)
	}
	switch c.BatchStore.Type {
	case "", "memory", "redis":
	default:
		return fmt.Errorf("unsupported batchStore.type: %s", c.BatchStore.Type)
	}
	switch c.Wallpaper.Type {
	case "", "frame", "file", "none":
	default:
		return fmt.Errorf("unsupported wallpaper.type: %s", c.Wallpaper.Type)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if err := validateCommands(c.WallpaperCommands); err != nil {
		return fmt.Errorf("invalid wallpaper command configuration: %w", err)
	}
	return nil
}

// validateCommands ensures all command configurations have required fields
func validateCommands(commands []commandstructure.CommandConfig) error {
	seenNames := make(map[string]bool)

	for i, cmd := range commands {
		if cmd.Name == "" {
			return fmt.Errorf("command at index %d has empty name", i)
		}
		if seenNames[cmd.Name] {
			return fmt.Errorf("duplicate command name: %s", cmd.Name)
		}
		seenNames[cmd.Name] = true
	}
	return nil
}

// ParseLogLevel maps debug|info|warn|error to a slog level; empty means info.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}
