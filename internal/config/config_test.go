package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// No config.yaml in a fresh temp dir
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "https://www.google.com.tw", cfg.Upstream.BaseURL)
	assert.Equal(t, 15, cfg.Upstream.TimeoutSecs)
	assert.InDelta(t, 10.0, cfg.Upstream.RatePerSecond, 0.001)
	assert.InDelta(t, 25.0330, cfg.Grid.Lat, 0.00001)
	assert.InDelta(t, 121.5654, cfg.Grid.Lon, 0.00001)
	assert.InDelta(t, 1000.0, cfg.Grid.RadiusM, 0.001)
	assert.InDelta(t, 300.0, cfg.Grid.CellRadiusM, 0.001)
	assert.Equal(t, 2000, cfg.Reviews.MaxPages)
	assert.Equal(t, "newest", cfg.Reviews.Sort)
	assert.Equal(t, 100, cfg.Reviews.PageDelayMs)
	assert.Equal(t, 10, cfg.Pool.Size)
	assert.Equal(t, 3, cfg.Retry.Network.MaxAttempts)
	assert.Equal(t, 1000, cfg.Retry.Network.BaseDelayMs)
	assert.Equal(t, 5, cfg.Retry.Sink.MaxAttempts)
	assert.Equal(t, "restaurants", cfg.SearchIndex.Index)
	assert.Equal(t, 1000, cfg.SearchIndex.BatchSize)
	assert.Equal(t, "restaurants.json", cfg.Snapshot.Path)
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
grid:
  lat: 24.15
  lon: 120.67
  radius_m: 500
  facets: ["Restaurants", "Bars"]
pool:
  size: 4
firestore:
  project_id: strategist-dev
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.InDelta(t, 24.15, cfg.Grid.Lat, 0.00001)
	assert.InDelta(t, 500.0, cfg.Grid.RadiusM, 0.001)
	assert.Equal(t, []string{"Restaurants", "Bars"}, cfg.Grid.Facets)
	assert.Equal(t, 4, cfg.Pool.Size)
	assert.Equal(t, "strategist-dev", cfg.Firestore.ProjectID)
	// Defaults still apply for unset values
	assert.InDelta(t, 300.0, cfg.Grid.CellRadiusM, 0.001)
	assert.Equal(t, 2000, cfg.Reviews.MaxPages)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("STRATEGIST_STORE_DRIVER", "postgres")
	t.Setenv("STRATEGIST_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("STRATEGIST_POOL_SIZE", "25")
	t.Setenv("STRATEGIST_REVIEWS_SORT", "highest")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Pool.Size)
	assert.Equal(t, "highest", cfg.Reviews.Sort)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults mirrors the values Load fills in, plus a project id.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Grid.Lat = 25.0330
	cfg.Grid.Lon = 121.5654
	cfg.Grid.RadiusM = 1000
	cfg.Grid.CellRadiusM = 300
	cfg.Reviews.MaxPages = 2000
	cfg.Reviews.Sort = "newest"
	cfg.Pool.Size = 10
	cfg.Firestore.ProjectID = "strategist-dev"
	return cfg
}

func TestValidateDiscover_Valid(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("discover"))
}

func TestValidateDiscover_BadGrid(t *testing.T) {
	cfg := validDefaults()
	cfg.Grid.CellRadiusM = 0
	cfg.Grid.Lat = 90

	err := cfg.Validate("discover")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grid.cell_radius_m must be positive")
	assert.Contains(t, err.Error(), "grid.lat")
}

func TestValidateCollect_BadSort(t *testing.T) {
	cfg := validDefaults()
	cfg.Reviews.Sort = "oldest"

	err := cfg.Validate("collect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reviews.sort")
}

func TestValidateUpload_NeedsProject(t *testing.T) {
	cfg := validDefaults()
	cfg.Firestore.ProjectID = ""

	err := cfg.Validate("upload")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "firestore.project_id is required")
}

func TestValidateSyncIndex_NeedsAlgolia(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("sync-index")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search_index.app_id is required")
	assert.Contains(t, err.Error(), "search_index.api_key is required")

	cfg.SearchIndex.AppID = "APP"
	cfg.SearchIndex.APIKey = "key"
	assert.NoError(t, cfg.Validate("sync-index"))
}

func TestValidateStatus_IgnoresSink(t *testing.T) {
	cfg := validDefaults()
	cfg.Firestore.ProjectID = ""

	assert.NoError(t, cfg.Validate("status"))
}

func TestValidatePostgresNeedsURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate("status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url")
}

func TestValidatePoolBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Pool.Size = 0
	assert.Error(t, cfg.Validate("status"))

	cfg.Pool.Size = 101
	assert.Error(t, cfg.Validate("status"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
