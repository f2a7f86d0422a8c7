package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/rohmanhakim/scrapeorch/internal/browserpool"
	"github.com/rohmanhakim/scrapeorch/internal/config"
	"github.com/rohmanhakim/scrapeorch/internal/dedup"
	"github.com/rohmanhakim/scrapeorch/internal/emailenrich"
	"github.com/rohmanhakim/scrapeorch/internal/extractor"
	"github.com/rohmanhakim/scrapeorch/internal/fetcher"
	"github.com/rohmanhakim/scrapeorch/internal/geocode"
	"github.com/rohmanhakim/scrapeorch/internal/metadata"
	"github.com/rohmanhakim/scrapeorch/internal/resultsink"
	"github.com/rohmanhakim/scrapeorch/internal/scheduler"
	"github.com/rohmanhakim/scrapeorch/internal/validate"
	"github.com/rohmanhakim/scrapeorch/internal/zone"
	"github.com/rohmanhakim/scrapeorch/pkg/hashutil"
	"github.com/rohmanhakim/scrapeorch/pkg/limiter"
	"github.com/rohmanhakim/scrapeorch/pkg/retry"
	"github.com/rohmanhakim/scrapeorch/pkg/timeutil"
)

var (
	cfgFile     string
	redisAddr   string
	outputDir   string

	keyword                string
	countryCode            string
	stateCode              string
	city                   string
	maxRecords             int
	ratingFilterOp         string
	ratingFilterValue      float64
	reviewFilterOp         string
	reviewFilterValue      float64
	reviewTimeRangeYears   int
	isExtractEmail         bool
	isValidate             bool
	extractNegativeReviews bool
	avoidDuplicate         bool
	onlyWithoutWebsite     bool
	userID                 string
	jobID                  string
	locale                 string
	selectorOverridesFile  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scrapeorch",
	Short: "A local business listing scraping and enrichment engine.",
	Long: `scrapeorch is a CLI application that runs a single business-listing
scraping job end to end: zone discovery over a city, state, or country,
listing discovery, detail extraction, optional email enrichment and
contactability validation, and deduplicated output.

A run executes exactly one job and exits; it does not serve a queue.`,
	RunE: runJob,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis-addr", "", "redis address for URL deduplication (empty disables dedup)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "output", "directory written records are persisted under")

	rootCmd.Flags().StringVar(&keyword, "keyword", "", "search keyword, e.g. \"coffee shop\" (required)")
	rootCmd.Flags().StringVar(&countryCode, "country-code", "", "ISO-3166-1 alpha-2 country code, e.g. US (required)")
	rootCmd.Flags().StringVar(&stateCode, "state-code", "", "state/province code, e.g. IL")
	rootCmd.Flags().StringVar(&city, "city", "", "city name")
	rootCmd.Flags().IntVar(&maxRecords, "max-records", 100, "maximum number of records to collect")
	rootCmd.Flags().StringVar(&ratingFilterOp, "rating-filter-op", "", "rating filter operator: gt, gte, lt, lte")
	rootCmd.Flags().Float64Var(&ratingFilterValue, "rating-filter-value", 0, "rating filter threshold")
	rootCmd.Flags().StringVar(&reviewFilterOp, "review-filter-op", "", "review-count filter operator: gt, gte, lt, lte")
	rootCmd.Flags().Float64Var(&reviewFilterValue, "review-filter-value", 0, "review-count filter threshold")
	rootCmd.Flags().IntVar(&reviewTimeRangeYears, "review-time-range-years", 0, "only collect reviews within this many years (0 disables)")
	rootCmd.Flags().BoolVar(&isExtractEmail, "extract-email", false, "enrich each record with an email address from its website")
	rootCmd.Flags().BoolVar(&isValidate, "validate", false, "drop records with no phone, website, or email")
	rootCmd.Flags().BoolVar(&extractNegativeReviews, "extract-negative-reviews", false, "collect low-rated reviews during detail extraction")
	rootCmd.Flags().BoolVar(&avoidDuplicate, "avoid-duplicate", false, "skip URLs already seen for this user (requires --redis-addr and --user-id)")
	rootCmd.Flags().BoolVar(&onlyWithoutWebsite, "only-without-website", false, "keep only businesses with no listed website")
	rootCmd.Flags().StringVar(&userID, "user-id", "", "user ID the job and its dedup state are scoped to")
	rootCmd.Flags().StringVar(&jobID, "job-id", "", "job ID used in logs and progress reporting")
	rootCmd.Flags().StringVar(&locale, "locale", "en", "locale for search results")
	rootCmd.Flags().StringVar(&selectorOverridesFile, "selector-overrides-file", "", "JSON file of per-field CSS selector overrides layered onto the default Google Maps table")
}

func runJob(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	params, err := buildJobParams()
	if err != nil {
		return fmt.Errorf("invalid job parameters: %w", err)
	}

	metadataSink := metadata.NewRecorder(params.JobID)

	ctx := context.Background()
	session := browserpool.NewSession(ctx, browserpool.SessionConfig{
		MaxPages:            cfg.PoolMaxPages(),
		UserAgent:           cfg.UserAgent(),
		BlockHeavyResources: cfg.BlockHeavyResources(),
		SessionMax:          cfg.BrowserSessionMax(),
		DrainTimeout:        cfg.BrowserSessionDrain(),
		RetryLimit:          cfg.BrowserSessionRetryCap(),
	})

	selectorOverrides, err := loadSelectorOverrides(selectorOverridesFile)
	if err != nil {
		return fmt.Errorf("error loading selector overrides: %w", err)
	}
	selectors := extractor.ResolveSelectors(selectorOverrides)
	tierA := scheduler.NewGoogleMapsTierA(session, selectors, "")

	detailParser := extractor.NewDetailParser(metadataSink)

	var tierB scheduler.TierBExtractor
	if cfg.ScrapeAPIBaseURL() != "" {
		tierB = buildAPITierB(cfg, selectors, detailParser, metadataSink)
	} else {
		pageExtractor := extractor.NewPagePathExtractor(session, detailParser, cfg.DetailNavTimeout())
		tierB = scheduler.NewPagePathTierB(pageExtractor, selectors, extractor.PageExtractionParams{
			ReviewTimeRangeYears:   params.ReviewTimeRangeYears,
			HasReviewTimeRange:     params.ReviewTimeRangeYears > 0,
			ExtractNegativeReviews: params.ExtractNegativeReviews,
		})
	}

	var dedupStore dedup.Store
	if redisAddr != "" {
		dedupStore = buildDedupStore(cfg, metadataSink)
	}

	var emailEnricher *emailenrich.Enricher
	enrichRetryParam := retry.NewRetryParam(
		500*time.Millisecond, 250*time.Millisecond, cfg.RandomSeed(), 3,
		timeutil.NewBackoffParam(500*time.Millisecond, 2.0, 5*time.Second),
	)
	if params.IsExtractEmail {
		htmlFetcher := fetcher.NewHtmlFetcher(metadataSink)
		enricher := emailenrich.NewEnricher(&htmlFetcher, metadataSink, cfg.UserAgent())
		emailEnricher = &enricher
	}

	validator := validate.NewValidator(metadataSink)

	// No geocoding-backed city/population dataset is wired in; scope
	// selection always falls through to the direct zone grid for a
	// state/country-only job rather than bucketizing known cities.
	zoneGenerator := zone.NewGenerator(geocode.NewNominatimResolver(cfg.UserAgent()), metadataSink)

	sched := scheduler.New(
		cfg,
		metadataSink,
		metadataSink,
		nil, // no external job-record store; this run's JobHandle polling is a no-op
		dedupStore,
		zoneGenerator,
		nil, // no LocationIndex: bucketized scope selection is unavailable without a city dataset
		nil, // no PopulationResolver for the same reason
		validator,
		tierA,
		tierB,
		session,
		emailEnricher,
		enrichRetryParam,
	)

	result, runErr := sched.Run(ctx, params)
	if runErr != nil {
		return fmt.Errorf("run failed: %w", runErr)
	}

	fmt.Printf("Job %s finished with status %s: %d records\n", params.JobID, result.FinalStatus, len(result.Records))

	sink := resultsink.NewLocalSink(metadataSink)
	for _, record := range result.Records {
		if _, err := sink.Write(outputDir, record, hashutil.HashAlgoBLAKE3); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to write record for %s: %v\n", record.URL, err)
		}
	}

	return nil
}

func loadConfig() (config.Config, error) {
	if cfgFile != "" {
		return config.WithConfigFile(cfgFile)
	}
	return config.FromEnv()
}

func buildDedupStore(cfg config.Config, metadataSink metadata.MetadataSink) dedup.Store {
	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	store := dedup.NewRedisStore(client, cfg.RedisURLTTL(), metadataSink)
	return dedup.NewBloomPrefilteredStore(store, 1_000_000, 0.01)
}

// buildAPITierB wires the C7(a) no-page path: a REST scrape API gated by
// its own concurrency limiter and retry policy, independent of the
// browser-backed detail limiter used by the page path.
func buildAPITierB(cfg config.Config, selectors extractor.Selectors, detailParser extractor.DetailParser, metadataSink metadata.MetadataSink) scheduler.TierBExtractor {
	api := fetcher.NewRESTDetailScrapeAPI(cfg.ScrapeAPIBaseURL())
	apiLimiter := limiter.New(cfg.ScrapeAPIConcurrency())
	retryParam := retry.NewRetryParam(
		500*time.Millisecond, 250*time.Millisecond, cfg.RandomSeed(), cfg.ScrapeAPIMaxRetries(),
		timeutil.NewBackoffParam(2*time.Second, 2.0, 8*time.Second),
	)
	apiFetcher := fetcher.NewDetailAPIFetcher(api, apiLimiter, retryParam, metadataSink)
	return scheduler.NewAPITierB(apiFetcher, detailParser, selectors)
}

// loadSelectorOverrides reads an optional JSON file of per-field CSS
// selector overrides; an empty path returns the zero value, which
// ResolveSelectors treats as "no overrides, use the defaults".
func loadSelectorOverrides(path string) (extractor.Selectors, error) {
	if path == "" {
		return extractor.Selectors{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return extractor.Selectors{}, err
	}
	var overrides extractor.Selectors
	if err := json.Unmarshal(raw, &overrides); err != nil {
		return extractor.Selectors{}, fmt.Errorf("parse selector overrides: %w", err)
	}
	return overrides, nil
}

func buildJobParams() (validate.JobParams, error) {
	if keyword == "" {
		return validate.JobParams{}, fmt.Errorf("--keyword is required")
	}
	if countryCode == "" {
		return validate.JobParams{}, fmt.Errorf("--country-code is required")
	}
	if jobID == "" {
		jobID = fmt.Sprintf("job-%d", time.Now().UnixNano())
	}

	params := validate.JobParams{
		Keyword:                keyword,
		CountryCode:            countryCode,
		StateCode:              stateCode,
		City:                   city,
		MaxRecords:             maxRecords,
		RatingFilter:           rangeFilterFrom(ratingFilterOp, ratingFilterValue),
		ReviewFilter:           rangeFilterFrom(reviewFilterOp, reviewFilterValue),
		ReviewTimeRangeYears:   reviewTimeRangeYears,
		IsExtractEmail:         isExtractEmail,
		IsValidate:             isValidate,
		ExtractNegativeReviews: extractNegativeReviews,
		AvoidDuplicate:         avoidDuplicate,
		OnlyWithoutWebsite:     onlyWithoutWebsite,
		UserID:                 userID,
		JobID:                  jobID,
		Locale:                 locale,
	}
	return params, nil
}

func rangeFilterFrom(op string, value float64) *validate.RangeFilter {
	if op == "" {
		return nil
	}
	return &validate.RangeFilter{Operator: validate.FilterOperator(op), Value: value}
}

func ResetFlags() {
	cfgFile = ""
	redisAddr = ""
	outputDir = "output"
	keyword = ""
	countryCode = ""
	stateCode = ""
	city = ""
	maxRecords = 0
	ratingFilterOp = ""
	ratingFilterValue = 0
	reviewFilterOp = ""
	reviewFilterValue = 0
	reviewTimeRangeYears = 0
	isExtractEmail = false
	isValidate = false
	extractNegativeReviews = false
	avoidDuplicate = false
	onlyWithoutWebsite = false
	userID = ""
	jobID = ""
	locale = "en"
	selectorOverridesFile = ""
}
