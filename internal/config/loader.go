package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/openregistry/registry-go/internal/store"
)

// LoaderOptions controls how configuration is loaded.
type LoaderOptions struct {
	// ConfigPath is the path to a TOML config file (optional).
	// If provided but file is missing or invalid, loading fails.
	ConfigPath string

	// FlagOverrides are CLI flag values that override config file values.
	FlagOverrides FlagOverrides

	// Logger is used for warning messages (e.g., undecoded keys).
	// If nil, slog.Default() is used.
	Logger *slog.Logger
}

// FlagOverrides holds CLI flag values that override config file values.
type FlagOverrides struct {
	ListenAddr  *string
	LogLevel    *string
	StoreDriver *string
	DataDir     *string
	IndexURL    *string
}

// fileConfig mirrors Config for TOML decoding. The sections are
// captured raw and decoded with mapstructure so their structs own
// their key names and defaults.
type fileConfig struct {
	ListenAddr string `toml:"listen_addr"`
	LogLevel   string `toml:"log_level"`

	Store     map[string]any `toml:"store"`
	Index     map[string]any `toml:"index"`
	Teams     map[string]any `toml:"teams"`
	RateLimit map[string]any `toml:"ratelimit"`
}

// Load loads configuration with the following precedence:
//  1. Start from defaults
//  2. Overlay TOML config file values
//  3. Overlay CLI flags
//  4. Validate enum fields
//
// If ConfigPath is provided but the file is missing, unreadable, or
// invalid TOML, Load returns an error (fail fast). Unknown TOML keys
// produce a warning but do not fail the load.
func Load(opts LoaderOptions) (*Config, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg := DefaultConfig()

	if opts.ConfigPath != "" {
		var fc fileConfig
		data, err := os.ReadFile(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigPath, err)
		}
		md, err := toml.Decode(string(data), &fc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", opts.ConfigPath, err)
		}

		// Keys inside the raw sections are checked by their own decoders.
		var undecoded []string
		for _, k := range md.Undecoded() {
			key := k.String()
			if strings.HasPrefix(key, "store.") || strings.HasPrefix(key, "index.") ||
				strings.HasPrefix(key, "teams.") || strings.HasPrefix(key, "ratelimit.") {
				continue
			}
			undecoded = append(undecoded, key)
		}
		if len(undecoded) > 0 {
			logger.Warn("config file contains undecoded keys", "path", opts.ConfigPath, "keys", undecoded)
		}

		if err := overlayFileConfig(cfg, &fc, logger); err != nil {
			return nil, err
		}
	}

	overlayFlags(cfg, opts.FlagOverrides)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overlayFileConfig(cfg *Config, fc *fileConfig, logger *slog.Logger) error {
	if fc.ListenAddr != "" {
		cfg.ListenAddr = fc.ListenAddr
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.Store != nil {
		unused, err := DecodeWithUnused(fc.Store, &cfg.Store)
		if err != nil {
			return fmt.Errorf("invalid [store] section: %w", err)
		}
		if len(unused) > 0 {
			logger.Warn("unused keys in [store] section", "keys", unused)
		}
	}
	if fc.Index != nil {
		unused, err := DecodeWithUnused(fc.Index, &cfg.Index)
		if err != nil {
			return fmt.Errorf("invalid [index] section: %w", err)
		}
		if len(unused) > 0 {
			logger.Warn("unused keys in [index] section", "keys", unused)
		}
	}
	if fc.Teams != nil {
		unused, err := DecodeWithUnused(fc.Teams, &cfg.Teams)
		if err != nil {
			return fmt.Errorf("invalid [teams] section: %w", err)
		}
		if len(unused) > 0 {
			logger.Warn("unused keys in [teams] section", "keys", unused)
		}
	}
	if fc.RateLimit != nil {
		unused, err := DecodeWithUnused(fc.RateLimit, &cfg.RateLimit)
		if err != nil {
			return fmt.Errorf("invalid [ratelimit] section: %w", err)
		}
		if len(unused) > 0 {
			logger.Warn("unused keys in [ratelimit] section", "keys", unused)
		}
	}
	return nil
}

func overlayFlags(cfg *Config, flags FlagOverrides) {
	if flags.ListenAddr != nil && *flags.ListenAddr != "" {
		cfg.ListenAddr = *flags.ListenAddr
	}
	if flags.LogLevel != nil && *flags.LogLevel != "" {
		cfg.LogLevel = *flags.LogLevel
	}
	if flags.StoreDriver != nil && *flags.StoreDriver != "" {
		cfg.Store.Driver = *flags.StoreDriver
	}
	if flags.DataDir != nil && *flags.DataDir != "" {
		cfg.Store.DataDir = *flags.DataDir
	}
	if flags.IndexURL != nil && *flags.IndexURL != "" {
		cfg.Index.BaseURL = *flags.IndexURL
	}
}

func validate(cfg *Config) error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q: must be one of debug, info, warn, error", cfg.LogLevel)
	}
	if !slices.Contains(store.AvailableDrivers(), cfg.Store.Driver) {
		return fmt.Errorf("invalid store driver %q: available drivers are %v",
			cfg.Store.Driver, store.AvailableDrivers())
	}
	return nil
}

// ParseLogLevel converts the config log level to a slog.Level.
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
