package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rohmanhakim/scrapeorch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDefaultMatchesDocumentedDefaults(t *testing.T) {
	cfg, err := config.WithDefault().Build()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.CityConcurrency())
	assert.Equal(t, 5, cfg.DetailConcurrency())
	assert.Equal(t, 8, cfg.PoolMaxPages())
	assert.Equal(t, 45*time.Second, cfg.SearchNavTimeout())
	assert.Equal(t, 25*time.Second, cfg.DetailNavTimeout())
	assert.Equal(t, 60*time.Second, cfg.BrowserSessionMax())
	assert.Equal(t, 3*time.Second, cfg.BrowserSessionDrain())
	assert.Equal(t, 1, cfg.BrowserSessionRetryCap())
	assert.Equal(t, 180*time.Second, cfg.TaskStuckTimeout())
	assert.Equal(t, 50, cfg.ZoneBatchSize())
	assert.Equal(t, 2500, cfg.MaxTotalZones())
	assert.Equal(t, 90*time.Minute, cfg.JobTimeout())
	assert.Equal(t, 10*time.Minute, cfg.StuckRecordsTimeout())
	assert.Equal(t, 5*time.Minute, cfg.StuckPercentageTimeout())
	assert.Equal(t, 30*time.Second, cfg.StuckJobGracePeriod())
	assert.Equal(t, 2, cfg.ScrapeAPIMaxRetries())
	assert.Equal(t, 3, cfg.ScrapeAPIConcurrency())
	assert.Equal(t, 365*24*time.Hour, cfg.RedisURLTTL())
	assert.True(t, cfg.BlockHeavyResources())
}

func TestBuildRejectsNonPositiveConcurrency(t *testing.T) {
	_, err := config.WithDefault().WithCityConcurrency(0).Build()
	require.Error(t, err)

	_, err = config.WithDefault().WithDetailConcurrency(-1).Build()
	require.Error(t, err)

	_, err = config.WithDefault().WithPoolMaxPages(0).Build()
	require.Error(t, err)
}

func TestChainedBuilderOverridesOnlyTouchedFields(t *testing.T) {
	cfg, err := config.WithDefault().
		WithCityConcurrency(4).
		WithDetailConcurrency(10).
		Build()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.CityConcurrency())
	assert.Equal(t, 10, cfg.DetailConcurrency())
	assert.Equal(t, 8, cfg.PoolMaxPages(), "untouched fields keep their default")
}

func TestFromEnvAppliesOverrides(t *testing.T) {
	t.Setenv("CITY_CONCURRENCY", "7")
	t.Setenv("DETAIL_CONCURRENCY", "9")
	t.Setenv("BLOCK_HEAVY_RESOURCES", "false")
	t.Setenv("REDIS_URL_TTL_DAYS", "30")

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.CityConcurrency())
	assert.Equal(t, 9, cfg.DetailConcurrency())
	assert.False(t, cfg.BlockHeavyResources())
	assert.Equal(t, 30*24*time.Hour, cfg.RedisURLTTL())
}

func TestFromEnvIgnoresUnsetVars(t *testing.T) {
	cfg, err := config.FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.CityConcurrency())
}

func TestWithConfigFileLoadsJSONOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"cityConcurrency": 6, "zoneBatchSize": 25}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := config.WithConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.CityConcurrency())
	assert.Equal(t, 25, cfg.ZoneBatchSize())
	assert.Equal(t, 8, cfg.PoolMaxPages(), "fields absent from the file keep their default")
}

func TestWithConfigFileMissingFile(t *testing.T) {
	_, err := config.WithConfigFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
