package database

import (
	"time"
)

// Campaign run statuses. Terminal states are final; a run never re-enters
// the running state.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
	RunStatusCancelled = "cancelled"
)

// Scraping queue item statuses. Completed, failed and cancelled are
// terminal; ClaimBatch only selects queued and retrying items.
const (
	QueueStatusQueued     = "queued"
	QueueStatusProcessing = "processing"
	QueueStatusCompleted  = "completed"
	QueueStatusFailed     = "failed"
	QueueStatusRetrying   = "retrying"
	QueueStatusCancelled  = "cancelled"
)

// Content item statuses.
const (
	ContentStatusPending    = "pending"
	ContentStatusProcessing = "processing"
	ContentStatusScheduled  = "scheduled"
	ContentStatusPublished  = "published"
	ContentStatusFailed     = "failed"
)

type Source struct {
	ID                 string
	Name               string
	RootDomain         string
	IsActive           bool
	Keywords           []string
	LastScrapedAt      *time.Time
	SuccessRate        float64
	TotalAttempts      int
	SuccessfulAttempts int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type CampaignFilters struct {
	MinLength      int
	MaxLength      int
	RequiredWords  []string
	BannedWords    []string
	SkipDuplicates bool
}

type CampaignAISettings struct {
	Rewrite      bool
	QualityCheck bool
	SEOOptimize  bool
	TranslateTo  string
}

type Campaign struct {
	ID            string
	Name          string
	SourceIDs     []string
	Keywords      []string
	Frequency     int
	FrequencyUnit string // minutes, hours, days
	IsActive      bool
	MaxPosts      int
	CurrentPosts  int
	Filters       CampaignFilters
	AISettings    CampaignAISettings
	LastRunAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type CampaignRun struct {
	ID               string
	CampaignID       string
	Status           string
	StartedAt        time.Time
	CompletedAt      *time.Time
	SourcesProcessed int
	ItemsFound       int
	ItemsCreated     int
	ErrorsCount      int
	ErrorDetails     []string
	ExecutionTimeMs  *int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type QueueItem struct {
	ID           string
	CampaignID   string
	SourceID     string
	URL          string
	Priority     int
	Status       string
	Attempts     int
	MaxAttempts  int
	ScheduledFor time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	ErrorMessage string
	Metadata     map[string]interface{}
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ScrapingLog struct {
	ID             string
	CampaignRunID  string
	SourceID       string
	URL            string
	Status         string // success, failed
	ResponseTimeMs int64
	ContentLength  *int
	ErrorMessage   string
	Metadata       map[string]interface{}
	CreatedAt      time.Time
}

type ContentItem struct {
	ID                   string
	Title                string
	Content              string
	SourceName           string
	SourceURL            string
	CampaignID           *string
	Status               string
	AIProcessed          bool
	ExtractionConfidence *float64
	AIModelVersion       string
	OpportunityID        *string
	ContentHash          string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type Opportunity struct {
	ID                  string
	Title               string
	Organization        string
	Description         string
	Category            string
	Location            string
	Deadline            string
	DeadlineAt          *time.Time
	Amount              string
	Tags                []string
	URL                 string
	Featured            bool
	AboutOpportunity    string
	Requirements        string
	HowToApply          string
	WhatYouGet          string
	ApplicationDeadline string
	PostedDate          *time.Time
	ContactEmail        string
	FundingType         string
	EligibleCountries   []string
	MinAmount           float64
	MaxAmount           float64
	Status              string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
