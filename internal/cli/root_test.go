package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildJobParamsRequiresKeyword(t *testing.T) {
	ResetFlags()
	defer ResetFlags()

	countryCode = "US"
	_, err := buildJobParams()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keyword")
}

func TestBuildJobParamsRequiresCountryCode(t *testing.T) {
	ResetFlags()
	defer ResetFlags()

	keyword = "coffee"
	_, err := buildJobParams()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "country-code")
}

func TestBuildJobParamsAppliesFlags(t *testing.T) {
	ResetFlags()
	defer ResetFlags()

	keyword = "coffee shop"
	countryCode = "US"
	stateCode = "IL"
	city = "Springfield"
	maxRecords = 50
	ratingFilterOp = "gte"
	ratingFilterValue = 4.0
	avoidDuplicate = true
	userID = "user-1"
	jobID = "job-42"

	params, err := buildJobParams()
	require.NoError(t, err)
	assert.Equal(t, "coffee shop", params.Keyword)
	assert.Equal(t, "US", params.CountryCode)
	assert.Equal(t, "IL", params.StateCode)
	assert.Equal(t, "Springfield", params.City)
	assert.Equal(t, 50, params.MaxRecords)
	require.NotNil(t, params.RatingFilter)
	assert.Equal(t, 4.0, params.RatingFilter.Value)
	assert.True(t, params.AvoidDuplicate)
	assert.Equal(t, "job-42", params.JobID)
}

func TestBuildJobParamsGeneratesJobIDWhenUnset(t *testing.T) {
	ResetFlags()
	defer ResetFlags()

	keyword = "coffee"
	countryCode = "US"

	params, err := buildJobParams()
	require.NoError(t, err)
	assert.NotEmpty(t, params.JobID)
}

func TestRangeFilterFromEmptyOperatorReturnsNil(t *testing.T) {
	assert.Nil(t, rangeFilterFrom("", 4.0))
}

func TestRangeFilterFromBuildsFilter(t *testing.T) {
	f := rangeFilterFrom("gt", 3.5)
	require.NotNil(t, f)
	assert.EqualValues(t, "gt", f.Operator)
	assert.Equal(t, 3.5, f.Value)
}

func TestLoadConfigFromConfigFile(t *testing.T) {
	ResetFlags()
	defer ResetFlags()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cityConcurrency":4,"detailConcurrency":6}`), 0o644))

	cfgFile = path
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.CityConcurrency())
	assert.Equal(t, 6, cfg.DetailConcurrency())
}

func TestLoadConfigFromEnvWhenNoFileSpecified(t *testing.T) {
	ResetFlags()
	defer ResetFlags()

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cfg.CityConcurrency(), 1)
}

func TestLoadSelectorOverridesEmptyPathReturnsZeroValue(t *testing.T) {
	overrides, err := loadSelectorOverrides("")
	require.NoError(t, err)
	assert.Zero(t, overrides)
}

func TestLoadSelectorOverridesParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "selectors.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Name":"h1.custom"}`), 0o644))

	overrides, err := loadSelectorOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, "h1.custom", overrides.Name)
	assert.Empty(t, overrides.Phone)
}
