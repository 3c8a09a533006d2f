package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ntoujavaproject/store-strategist/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Upstream    UpstreamConfig    `yaml:"upstream" mapstructure:"upstream"`
	Grid        GridConfig        `yaml:"grid" mapstructure:"grid"`
	Reviews     ReviewsConfig     `yaml:"reviews" mapstructure:"reviews"`
	Pool        PoolConfig        `yaml:"pool" mapstructure:"pool"`
	Retry       RetryConfig       `yaml:"retry" mapstructure:"retry"`
	Firestore   FirestoreConfig   `yaml:"firestore" mapstructure:"firestore"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	SearchIndex SearchIndexConfig `yaml:"search_index" mapstructure:"search_index"`
	Metrics     MetricsConfig     `yaml:"metrics" mapstructure:"metrics"`
	Snapshot    SnapshotConfig    `yaml:"snapshot" mapstructure:"snapshot"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// UpstreamConfig configures the maps web backend client.
type UpstreamConfig struct {
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent     string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	Burst         int     `yaml:"burst" mapstructure:"burst"`
}

// GridConfig is the default discovery area.
type GridConfig struct {
	Lat         float64  `yaml:"lat" mapstructure:"lat"`
	Lon         float64  `yaml:"lon" mapstructure:"lon"`
	RadiusM     float64  `yaml:"radius_m" mapstructure:"radius_m"`
	CellRadiusM float64  `yaml:"cell_radius_m" mapstructure:"cell_radius_m"`
	Facets      []string `yaml:"facets" mapstructure:"facets"`
}

// ReviewsConfig configures review pagination.
type ReviewsConfig struct {
	MaxPages    int    `yaml:"max_pages" mapstructure:"max_pages"`
	Sort        string `yaml:"sort" mapstructure:"sort"`
	PageDelayMs int    `yaml:"page_delay_ms" mapstructure:"page_delay_ms"`
}

// PoolConfig bounds per-unit concurrency.
type PoolConfig struct {
	Size int `yaml:"size" mapstructure:"size"`
}

// RetryConfig holds one policy per error class.
type RetryConfig struct {
	Network RetryClassConfig `yaml:"network" mapstructure:"network"`
	Sink    RetryClassConfig `yaml:"sink" mapstructure:"sink"`
}

// RetryClassConfig is the tunable part of a retry policy.
type RetryClassConfig struct {
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelayMs int `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
}

// FirestoreConfig configures the document sink.
type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id" mapstructure:"project_id"`
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
}

// StoreConfig configures the local run catalog.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// SearchIndexConfig configures the Algolia mirror.
type SearchIndexConfig struct {
	AppID     string `yaml:"app_id" mapstructure:"app_id"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	Index     string `yaml:"index" mapstructure:"index"`
	BatchSize int    `yaml:"batch_size" mapstructure:"batch_size"`
}

// MetricsConfig configures the Prometheus endpoint. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// SnapshotConfig locates the local snapshot file.
type SnapshotConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("STRATEGIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("upstream.base_url", "https://www.google.com.tw")
	v.SetDefault("upstream.user_agent", "")
	v.SetDefault("upstream.timeout_secs", 15)
	v.SetDefault("upstream.rate_per_second", 10.0)
	v.SetDefault("upstream.burst", 10)
	v.SetDefault("grid.lat", 25.0330)
	v.SetDefault("grid.lon", 121.5654)
	v.SetDefault("grid.radius_m", 1000.0)
	v.SetDefault("grid.cell_radius_m", 300.0)
	v.SetDefault("grid.facets", []string{})
	v.SetDefault("reviews.max_pages", 2000)
	v.SetDefault("reviews.sort", "newest")
	v.SetDefault("reviews.page_delay_ms", 100)
	v.SetDefault("pool.size", 10)
	v.SetDefault("retry.network.max_attempts", 3)
	v.SetDefault("retry.network.base_delay_ms", 1000)
	v.SetDefault("retry.sink.max_attempts", 5)
	v.SetDefault("retry.sink.base_delay_ms", 1000)
	v.SetDefault("firestore.project_id", "")
	v.SetDefault("firestore.credentials_file", "firebase-credentials.json")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("search_index.app_id", "")
	v.SetDefault("search_index.api_key", "")
	v.SetDefault("search_index.index", "restaurants")
	v.SetDefault("search_index.batch_size", 1000)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("snapshot.path", "restaurants.json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are
// "discover", "collect", "upload", "sync-index" and "status".
func (c *Config) Validate(mode string) error {
	var problems []string

	needGrid := mode == "discover" || mode == "collect"
	needSink := mode == "discover" || mode == "collect" || mode == "upload" || mode == "sync-index"

	switch mode {
	case "discover", "collect", "upload", "sync-index", "status":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if needGrid {
		if c.Grid.CellRadiusM <= 0 {
			problems = append(problems, "grid.cell_radius_m must be positive")
		}
		if c.Grid.RadiusM < 0 {
			problems = append(problems, "grid.radius_m must not be negative")
		}
		if c.Grid.Lat <= -90 || c.Grid.Lat >= 90 {
			problems = append(problems, "grid.lat must be within (-90, 90)")
		}
		if c.Grid.Lon < -180 || c.Grid.Lon > 180 {
			problems = append(problems, "grid.lon must be within [-180, 180]")
		}
	}
	if mode == "collect" {
		if c.Reviews.MaxPages < 1 {
			problems = append(problems, "reviews.max_pages must be at least 1")
		}
		if _, err := model.ParseSortMode(c.Reviews.Sort); err != nil {
			problems = append(problems, "reviews.sort must be one of relevance, newest, highest, lowest")
		}
	}
	if needSink && c.Firestore.ProjectID == "" {
		problems = append(problems, "firestore.project_id is required")
	}
	if mode == "sync-index" {
		if c.SearchIndex.AppID == "" {
			problems = append(problems, "search_index.app_id is required")
		}
		if c.SearchIndex.APIKey == "" {
			problems = append(problems, "search_index.api_key is required")
		}
	}
	if c.Pool.Size < 1 || c.Pool.Size > 100 {
		problems = append(problems, "pool.size must be between 1 and 100")
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required for the postgres driver")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
