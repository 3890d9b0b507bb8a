package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"opportunity_user" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"opportunity_password" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"opportunity_harvester" description:"Database name"`

	// Application configuration
	SourcesFile       string `long:"sources-file" env:"SOURCES_FILE" default:"./sources.yaml" description:"YAML registry of scraping sources seeded at startup"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for campaign processing"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"30" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Scraping configuration
	UserAgent      string `long:"user-agent" env:"USER_AGENT" default:"OpportunityHarvester/1.0 (+https://github.com/shubhamdixena/opportunity-harvester)" description:"User agent string for HTTP requests"`
	FetchTimeout   int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Per-fetch timeout in seconds"`
	DomainRateRPS  int    `long:"domain-rate-rps" env:"DOMAIN_RATE_RPS" default:"2" description:"Max requests per second per source domain"`
	DrainBatchSize int    `long:"drain-batch-size" env:"DRAIN_BATCH_SIZE" default:"10" description:"Queue items claimed per drain call"`

	// AI configuration
	AnthropicAPIKey     string  `long:"anthropic-api-key" env:"ANTHROPIC_API_KEY" description:"Anthropic API key (AI extraction disabled when empty)"`
	AIModel             string  `long:"ai-model" env:"AI_MODEL" default:"claude-sonnet-4-20250514" description:"Model used for opportunity extraction"`
	ConfidenceThreshold float64 `long:"confidence-threshold" env:"CONFIDENCE_THRESHOLD" default:"0.1" description:"Minimum extraction confidence for opportunity creation"`

	// Run supervision
	StaleRunTimeout int `long:"stale-run-timeout" env:"STALE_RUN_TIMEOUT" default:"1800" description:"Seconds after which a running campaign run is marked failed"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:              raw.DBHost,
		DBPort:              raw.DBPort,
		DBUser:              raw.DBUser,
		DBPassword:          raw.DBPassword,
		DBName:              raw.DBName,
		SourcesFile:         raw.SourcesFile,
		Port:                raw.Port,
		WorkerCount:         raw.WorkerCount,
		SchedulerInterval:   raw.SchedulerInterval,
		APIAccessKey:        raw.APIAccessKey,
		UserAgent:           raw.UserAgent,
		FetchTimeout:        raw.FetchTimeout,
		DomainRateRPS:       raw.DomainRateRPS,
		DrainBatchSize:      raw.DrainBatchSize,
		AnthropicAPIKey:     raw.AnthropicAPIKey,
		AIModel:             raw.AIModel,
		ConfidenceThreshold: raw.ConfidenceThreshold,
		StaleRunTimeout:     raw.StaleRunTimeout,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
