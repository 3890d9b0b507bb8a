package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Application configuration
	SourcesFile       string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Scraping configuration
	UserAgent      string
	FetchTimeout   int
	DomainRateRPS  int
	DrainBatchSize int

	// AI configuration
	AnthropicAPIKey     string
	AIModel             string
	ConfidenceThreshold float64

	// Run supervision
	StaleRunTimeout int

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
