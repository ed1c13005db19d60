// Package config provides layered configuration: defaults, TOML file, environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/verte-zerg/concerto/internal/catalog"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CONCERTO_"

// Config is the merged application configuration.
type Config struct {
	Catalog  CatalogConfig  `koanf:"catalog"`
	Storage  StorageConfig  `koanf:"storage"`
	Log      LogConfig      `koanf:"log"`
	Serve    ServeConfig    `koanf:"serve"`
	Coverage CoverageConfig `koanf:"coverage"`
}

// CatalogConfig locates the concert dataset.
type CatalogConfig struct {
	Path    string        `koanf:"path"`
	Columns ColumnsConfig `koanf:"columns"`
}

// ColumnsConfig maps dataset column names to catalog fields.
type ColumnsConfig struct {
	ProgramID string `koanf:"program_id"`
	WorkOrder string `koanf:"work_order"`
	Title     string `koanf:"title"`
	Composer  string `koanf:"composer"`
	Conductor string `koanf:"conductor"`
	Session   string `koanf:"session"`
	Series    string `koanf:"series"`
	Weekday   string `koanf:"weekday"`
	Month     string `koanf:"month"`
}

// Catalog returns the column mapping in the form the catalog loader takes.
func (c ColumnsConfig) Catalog() catalog.Columns {
	return catalog.Columns(c)
}

// StorageConfig locates the identity store and rating files.
type StorageConfig struct {
	DB         string `koanf:"db"`
	RatingsDir string `koanf:"ratings_dir"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	File   string `koanf:"file"`
}

// ServeConfig maps web surface settings.
type ServeConfig struct {
	Addr            string        `koanf:"addr"`
	LoginRateLimit  int           `koanf:"login_rate_limit"`
	LoginRateWindow time.Duration `koanf:"login_rate_window"`
}

// CoverageConfig maps the series score weights per rating level.
type CoverageConfig struct {
	Weight3 float64 `koanf:"weight_3"`
	Weight2 float64 `koanf:"weight_2"`
	Weight1 float64 `koanf:"weight_1"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Catalog: CatalogConfig{
			Path:    DefaultCatalogPath(),
			Columns: ColumnsConfig(catalog.DefaultColumns()),
		},
		Storage: StorageConfig{
			DB:         DefaultDBPath(),
			RatingsDir: DefaultRatingsDir(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			File:   DefaultLogPath(),
		},
		Serve: ServeConfig{
			Addr:            "127.0.0.1:8501",
			LoginRateLimit:  10,
			LoginRateWindow: time.Minute,
		},
		Coverage: CoverageConfig{Weight3: 5, Weight2: 3, Weight1: 1},
	}
}

// Load layers defaults, the TOML file at path and CONCERTO_* variables.
// A missing file is not an error.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, fmt.Errorf("config path is empty")
	}
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), TOML()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to stat config: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var envSections = []string{"catalog_columns", "catalog", "storage", "log", "serve", "coverage"}

// envTransform maps CONCERTO_STORAGE_RATINGS_DIR to storage.ratings_dir.
// Unknown sections return "" so koanf skips them.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	for _, section := range envSections {
		rest, ok := strings.CutPrefix(key, section+"_")
		if !ok || rest == "" {
			continue
		}
		return strings.ReplaceAll(section, "_", ".") + "." + rest
	}
	return ""
}

// Validate checks values that would otherwise fail later and less clearly.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Catalog.Path) == "" {
		return fmt.Errorf("catalog.path must not be empty")
	}
	if strings.TrimSpace(c.Storage.DB) == "" {
		return fmt.Errorf("storage.db must not be empty")
	}
	if strings.TrimSpace(c.Storage.RatingsDir) == "" {
		return fmt.Errorf("storage.ratings_dir must not be empty")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	if c.Serve.LoginRateLimit < 0 {
		return fmt.Errorf("serve.login_rate_limit must be >= 0")
	}
	if c.Serve.LoginRateLimit > 0 && c.Serve.LoginRateWindow <= 0 {
		return fmt.Errorf("serve.login_rate_window must be > 0")
	}
	if c.Coverage.Weight1 < 0 || c.Coverage.Weight2 < 0 || c.Coverage.Weight3 < 0 {
		return fmt.Errorf("coverage weights must be >= 0")
	}
	if c.Coverage.Weight1 == 0 && c.Coverage.Weight2 == 0 && c.Coverage.Weight3 == 0 {
		return fmt.Errorf("at least one coverage weight must be > 0")
	}
	return nil
}
