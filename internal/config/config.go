package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config holds every tunable named in the environment-variable surface,
// built with the chained WithDefault().WithX().Build() idiom so a caller
// only ever overrides the fields it cares about.
type Config struct {
	cityConcurrency   int
	detailConcurrency int
	poolMaxPages      int

	searchNavTimeout       time.Duration
	detailNavTimeout       time.Duration
	browserSessionMax      time.Duration
	browserSessionDrain    time.Duration
	browserSessionRetryCap int

	taskStuckTimeout time.Duration
	zoneBatchSize    int
	maxTotalZones    int
	jobTimeout       time.Duration

	stuckRecordsTimeout    time.Duration
	stuckPercentageTimeout time.Duration
	stuckJobGracePeriod    time.Duration

	scrapeAPIMaxRetries   int
	scrapeAPIConcurrency  int
	scrapeAPIBaseURL      string
	redisURLTTL           time.Duration
	blockHeavyResources   bool

	randomSeed int64
	userAgent  string
	outputDir  string
}

type configDTO struct {
	CityConcurrency        int  `json:"cityConcurrency,omitempty"`
	DetailConcurrency      int  `json:"detailConcurrency,omitempty"`
	PoolMaxPages           int  `json:"poolMaxPages,omitempty"`
	SearchNavTimeoutMs     int  `json:"searchNavTimeoutMs,omitempty"`
	DetailNavTimeoutMs     int  `json:"detailNavTimeoutMs,omitempty"`
	BrowserSessionMaxMs    int  `json:"browserSessionMaxMs,omitempty"`
	BrowserSessionDrainMs  int  `json:"browserSessionDrainTimeoutMs,omitempty"`
	BrowserSessionRetryCap int  `json:"browserSessionRetryLimit,omitempty"`
	TaskStuckTimeoutMs     int  `json:"taskStuckTimeoutMs,omitempty"`
	ZoneBatchSize          int  `json:"zoneBatchSize,omitempty"`
	MaxTotalZones          int  `json:"maxTotalZones,omitempty"`
	JobTimeoutMs           int  `json:"jobTimeoutMs,omitempty"`
	StuckRecordsTimeoutMs  int  `json:"stuckRecordsTimeoutMs,omitempty"`
	StuckPercentageTimeout int  `json:"stuckPercentageTimeoutMs,omitempty"`
	StuckJobGracePeriodMs  int  `json:"stuckJobGracePeriodMs,omitempty"`
	ScrapeAPIMaxRetries    int  `json:"scrapeApiMaxRetries,omitempty"`
	ScrapeAPIConcurrency   int  `json:"scrapeApiConcurrency,omitempty"`
	ScrapeAPIBaseURL       string `json:"scrapeApiBaseUrl,omitempty"`
	RedisURLTTLDays        int  `json:"redisUrlTtlDays,omitempty"`
	BlockHeavyResources    *bool `json:"blockHeavyResources,omitempty"`
	RandomSeed             int64  `json:"randomSeed,omitempty"`
	UserAgent              string `json:"userAgent,omitempty"`
	OutputDir              string `json:"outputDir,omitempty"`
}

// WithDefault creates a Config populated with every spec default.
func WithDefault() *Config {
	return &Config{
		cityConcurrency:        2,
		detailConcurrency:      5,
		poolMaxPages:           8,
		searchNavTimeout:       45 * time.Second,
		detailNavTimeout:       25 * time.Second,
		browserSessionMax:      60 * time.Second,
		browserSessionDrain:    3 * time.Second,
		browserSessionRetryCap: 1,
		taskStuckTimeout:       180 * time.Second,
		zoneBatchSize:          50,
		maxTotalZones:          2500,
		jobTimeout:             90 * time.Minute,
		stuckRecordsTimeout:    10 * time.Minute,
		stuckPercentageTimeout: 5 * time.Minute,
		stuckJobGracePeriod:    30 * time.Second,
		scrapeAPIMaxRetries:    2,
		scrapeAPIConcurrency:   3,
		redisURLTTL:            365 * 24 * time.Hour,
		blockHeavyResources:    true,
		randomSeed:             time.Now().UnixNano(),
		userAgent:              "scrapeorch/1.0",
		outputDir:              "output",
	}
}

func (c *Config) WithCityConcurrency(n int) *Config        { c.cityConcurrency = n; return c }
func (c *Config) WithDetailConcurrency(n int) *Config      { c.detailConcurrency = n; return c }
func (c *Config) WithPoolMaxPages(n int) *Config           { c.poolMaxPages = n; return c }
func (c *Config) WithSearchNavTimeout(d time.Duration) *Config { c.searchNavTimeout = d; return c }
func (c *Config) WithDetailNavTimeout(d time.Duration) *Config { c.detailNavTimeout = d; return c }
func (c *Config) WithBrowserSessionMax(d time.Duration) *Config {
	c.browserSessionMax = d
	return c
}
func (c *Config) WithBrowserSessionDrain(d time.Duration) *Config {
	c.browserSessionDrain = d
	return c
}
func (c *Config) WithBrowserSessionRetryCap(n int) *Config { c.browserSessionRetryCap = n; return c }
func (c *Config) WithTaskStuckTimeout(d time.Duration) *Config { c.taskStuckTimeout = d; return c }
func (c *Config) WithZoneBatchSize(n int) *Config          { c.zoneBatchSize = n; return c }
func (c *Config) WithMaxTotalZones(n int) *Config          { c.maxTotalZones = n; return c }
func (c *Config) WithJobTimeout(d time.Duration) *Config   { c.jobTimeout = d; return c }
func (c *Config) WithStuckRecordsTimeout(d time.Duration) *Config {
	c.stuckRecordsTimeout = d
	return c
}
func (c *Config) WithStuckPercentageTimeout(d time.Duration) *Config {
	c.stuckPercentageTimeout = d
	return c
}
func (c *Config) WithStuckJobGracePeriod(d time.Duration) *Config {
	c.stuckJobGracePeriod = d
	return c
}
func (c *Config) WithScrapeAPIMaxRetries(n int) *Config  { c.scrapeAPIMaxRetries = n; return c }
func (c *Config) WithScrapeAPIConcurrency(n int) *Config { c.scrapeAPIConcurrency = n; return c }
func (c *Config) WithScrapeAPIBaseURL(url string) *Config { c.scrapeAPIBaseURL = url; return c }
func (c *Config) WithRedisURLTTL(d time.Duration) *Config { c.redisURLTTL = d; return c }
func (c *Config) WithBlockHeavyResources(b bool) *Config { c.blockHeavyResources = b; return c }
func (c *Config) WithRandomSeed(seed int64) *Config      { c.randomSeed = seed; return c }
func (c *Config) WithUserAgent(agent string) *Config     { c.userAgent = agent; return c }
func (c *Config) WithOutputDir(dir string) *Config       { c.outputDir = dir; return c }

func (c *Config) Build() (Config, error) {
	if c.cityConcurrency < 1 || c.detailConcurrency < 1 {
		return Config{}, fmt.Errorf("%w: concurrency values must be >= 1", ErrInvalidConfig)
	}
	if c.poolMaxPages < 1 {
		return Config{}, fmt.Errorf("%w: poolMaxPages must be >= 1", ErrInvalidConfig)
	}
	return *c, nil
}

// WithConfigFile loads a JSON override file on top of the package defaults.
func WithConfigFile(path string) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	var dto configDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}
	return applyDTO(WithDefault(), dto).Build()
}

// FromEnv loads the package defaults with every environment-variable
// tunable named in the external interfaces applied as an override.
func FromEnv() (Config, error) {
	c := WithDefault()
	if v, ok := envInt("CITY_CONCURRENCY"); ok {
		c.WithCityConcurrency(v)
	}
	if v, ok := envInt("DETAIL_CONCURRENCY"); ok {
		c.WithDetailConcurrency(v)
	}
	if v, ok := envInt("POOL_MAX_PAGES"); ok {
		c.WithPoolMaxPages(v)
	}
	if v, ok := envMillis("SEARCH_NAV_TIMEOUT_MS"); ok {
		c.WithSearchNavTimeout(v)
	}
	if v, ok := envMillis("DETAIL_NAV_TIMEOUT_MS"); ok {
		c.WithDetailNavTimeout(v)
	}
	if v, ok := envMillis("BROWSER_SESSION_MAX_MS"); ok {
		c.WithBrowserSessionMax(v)
	}
	if v, ok := envMillis("BROWSER_SESSION_DRAIN_TIMEOUT_MS"); ok {
		c.WithBrowserSessionDrain(v)
	}
	if v, ok := envInt("BROWSER_SESSION_RETRY_LIMIT"); ok {
		c.WithBrowserSessionRetryCap(v)
	}
	if v, ok := envMillis("TASK_STUCK_TIMEOUT_MS"); ok {
		c.WithTaskStuckTimeout(v)
	}
	if v, ok := envInt("ZONE_BATCH_SIZE"); ok {
		c.WithZoneBatchSize(v)
	}
	if v, ok := envInt("MAX_TOTAL_ZONES"); ok {
		c.WithMaxTotalZones(v)
	}
	if v, ok := envMillis("JOB_TIMEOUT_MS"); ok {
		c.WithJobTimeout(v)
	}
	if v, ok := envMillis("STUCK_RECORDS_TIMEOUT_MS"); ok {
		c.WithStuckRecordsTimeout(v)
	}
	if v, ok := envMillis("STUCK_PERCENTAGE_TIMEOUT_MS"); ok {
		c.WithStuckPercentageTimeout(v)
	}
	if v, ok := envMillis("STUCK_JOB_GRACE_PERIOD_MS"); ok {
		c.WithStuckJobGracePeriod(v)
	}
	if v, ok := envInt("SCRAPE_API_MAX_RETRIES"); ok {
		c.WithScrapeAPIMaxRetries(v)
	}
	if v, ok := envInt("SCRAPE_API_CONCURRENCY"); ok {
		c.WithScrapeAPIConcurrency(v)
	}
	if v, ok := os.LookupEnv("SCRAPE_API_BASE_URL"); ok {
		c.WithScrapeAPIBaseURL(v)
	}
	if v, ok := envInt("REDIS_URL_TTL_DAYS"); ok {
		c.WithRedisURLTTL(time.Duration(v) * 24 * time.Hour)
	}
	if v, ok := envBool("BLOCK_HEAVY_RESOURCES"); ok {
		c.WithBlockHeavyResources(v)
	}
	return c.Build()
}

func applyDTO(c *Config, dto configDTO) *Config {
	if dto.CityConcurrency != 0 {
		c.WithCityConcurrency(dto.CityConcurrency)
	}
	if dto.DetailConcurrency != 0 {
		c.WithDetailConcurrency(dto.DetailConcurrency)
	}
	if dto.PoolMaxPages != 0 {
		c.WithPoolMaxPages(dto.PoolMaxPages)
	}
	if dto.SearchNavTimeoutMs != 0 {
		c.WithSearchNavTimeout(time.Duration(dto.SearchNavTimeoutMs) * time.Millisecond)
	}
	if dto.DetailNavTimeoutMs != 0 {
		c.WithDetailNavTimeout(time.Duration(dto.DetailNavTimeoutMs) * time.Millisecond)
	}
	if dto.BrowserSessionMaxMs != 0 {
		c.WithBrowserSessionMax(time.Duration(dto.BrowserSessionMaxMs) * time.Millisecond)
	}
	if dto.BrowserSessionDrainMs != 0 {
		c.WithBrowserSessionDrain(time.Duration(dto.BrowserSessionDrainMs) * time.Millisecond)
	}
	if dto.BrowserSessionRetryCap != 0 {
		c.WithBrowserSessionRetryCap(dto.BrowserSessionRetryCap)
	}
	if dto.TaskStuckTimeoutMs != 0 {
		c.WithTaskStuckTimeout(time.Duration(dto.TaskStuckTimeoutMs) * time.Millisecond)
	}
	if dto.ZoneBatchSize != 0 {
		c.WithZoneBatchSize(dto.ZoneBatchSize)
	}
	if dto.MaxTotalZones != 0 {
		c.WithMaxTotalZones(dto.MaxTotalZones)
	}
	if dto.JobTimeoutMs != 0 {
		c.WithJobTimeout(time.Duration(dto.JobTimeoutMs) * time.Millisecond)
	}
	if dto.StuckRecordsTimeoutMs != 0 {
		c.WithStuckRecordsTimeout(time.Duration(dto.StuckRecordsTimeoutMs) * time.Millisecond)
	}
	if dto.StuckPercentageTimeout != 0 {
		c.WithStuckPercentageTimeout(time.Duration(dto.StuckPercentageTimeout) * time.Millisecond)
	}
	if dto.StuckJobGracePeriodMs != 0 {
		c.WithStuckJobGracePeriod(time.Duration(dto.StuckJobGracePeriodMs) * time.Millisecond)
	}
	if dto.ScrapeAPIMaxRetries != 0 {
		c.WithScrapeAPIMaxRetries(dto.ScrapeAPIMaxRetries)
	}
	if dto.ScrapeAPIConcurrency != 0 {
		c.WithScrapeAPIConcurrency(dto.ScrapeAPIConcurrency)
	}
	if dto.ScrapeAPIBaseURL != "" {
		c.WithScrapeAPIBaseURL(dto.ScrapeAPIBaseURL)
	}
	if dto.RedisURLTTLDays != 0 {
		c.WithRedisURLTTL(time.Duration(dto.RedisURLTTLDays) * 24 * time.Hour)
	}
	if dto.BlockHeavyResources != nil {
		c.WithBlockHeavyResources(*dto.BlockHeavyResources)
	}
	if dto.RandomSeed != 0 {
		c.WithRandomSeed(dto.RandomSeed)
	}
	if dto.UserAgent != "" {
		c.WithUserAgent(dto.UserAgent)
	}
	if dto.OutputDir != "" {
		c.WithOutputDir(dto.OutputDir)
	}
	return c
}

func envInt(name string) (int, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	var v int
	if _, err := fmt.Sscanf(raw, "%d", &v); err != nil {
		return 0, false
	}
	return v, true
}

func envMillis(name string) (time.Duration, bool) {
	v, ok := envInt(name)
	if !ok {
		return 0, false
	}
	return time.Duration(v) * time.Millisecond, true
}

func envBool(name string) (bool, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return false, false
	}
	switch raw {
	case "true", "1", "TRUE", "True":
		return true, true
	case "false", "0", "FALSE", "False":
		return false, true
	default:
		return false, false
	}
}

func (c Config) CityConcurrency() int                  { return c.cityConcurrency }
func (c Config) DetailConcurrency() int                { return c.detailConcurrency }
func (c Config) PoolMaxPages() int                     { return c.poolMaxPages }
func (c Config) SearchNavTimeout() time.Duration       { return c.searchNavTimeout }
func (c Config) DetailNavTimeout() time.Duration       { return c.detailNavTimeout }
func (c Config) BrowserSessionMax() time.Duration      { return c.browserSessionMax }
func (c Config) BrowserSessionDrain() time.Duration    { return c.browserSessionDrain }
func (c Config) BrowserSessionRetryCap() int           { return c.browserSessionRetryCap }
func (c Config) TaskStuckTimeout() time.Duration       { return c.taskStuckTimeout }
func (c Config) ZoneBatchSize() int                    { return c.zoneBatchSize }
func (c Config) MaxTotalZones() int                    { return c.maxTotalZones }
func (c Config) JobTimeout() time.Duration             { return c.jobTimeout }
func (c Config) StuckRecordsTimeout() time.Duration    { return c.stuckRecordsTimeout }
func (c Config) StuckPercentageTimeout() time.Duration { return c.stuckPercentageTimeout }
func (c Config) StuckJobGracePeriod() time.Duration    { return c.stuckJobGracePeriod }
func (c Config) ScrapeAPIMaxRetries() int              { return c.scrapeAPIMaxRetries }
func (c Config) ScrapeAPIConcurrency() int             { return c.scrapeAPIConcurrency }
func (c Config) ScrapeAPIBaseURL() string               { return c.scrapeAPIBaseURL }
func (c Config) RedisURLTTL() time.Duration            { return c.redisURLTTL }
func (c Config) BlockHeavyResources() bool             { return c.blockHeavyResources }
func (c Config) RandomSeed() int64                     { return c.randomSeed }
func (c Config) UserAgent() string                     { return c.userAgent }
func (c Config) OutputDir() string                     { return c.outputDir }
