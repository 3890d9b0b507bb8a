package database

import (
	"time"
)

type SourceRepository interface {
	GetSource(id string) (*Source, error)
	GetActiveSources(ids []string) ([]Source, error)
	ListSources() ([]Source, error)
	CreateSource(name, rootDomain string, keywords []string) (string, error)
	UpdateSource(id, name, rootDomain string, keywords []string, isActive bool) error
	DeleteSource(id string) error
	UpsertSourceByDomain(name, rootDomain string, keywords []string) (string, error)
	RecordAttempt(id string, success bool) error
	GetSourceCount() (int, error)
}

type CampaignRepository interface {
	GetCampaign(id string) (*Campaign, error)
	ListCampaigns() ([]Campaign, error)
	GetDueCampaigns(now time.Time) ([]Campaign, error)
	SetCampaignActive(id string, active bool) error
	IncrementCurrentPosts(id string) error
	MarkCampaignRan(id string, at time.Time) error

	CreateRun(campaignID string) (*CampaignRun, error)
	GetRun(id string) (*CampaignRun, error)
	GetActiveRun(campaignID string) (*CampaignRun, error)
	ListRuns(campaignID string, limit int) ([]CampaignRun, error)
	AccumulateRunStats(runID string, itemsFound, itemsCreated, errorsCount int, errorDetail string) error
	SetSourcesProcessed(runID string, count int) error
	FinalizeRun(runID, status string) error
	CompleteDrainedRuns() (int, error)
	MarkStaleRunsFailed(olderThan time.Duration) (int, error)
	GetRunCounts() (running int, completed int, failed int, err error)
}

type QueueRepository interface {
	BulkInsert(items []QueueItem) (int, error)
	ClaimBatch(limit int) ([]QueueItem, error)
	MarkCompleted(id string) error
	MarkRetrying(id, errorMessage string, scheduledFor time.Time) error
	MarkFailed(id, errorMessage string) error
	CancelPendingByRun(runID string) (int, error)
	GetItem(id string) (*QueueItem, error)
	GetQueueStats() (map[string]int, error)
	PendingCount() (int, error)
}

type ContentRepository interface {
	CreateContentItem(item ContentItem) (string, error)
	CheckDuplicate(contentHash string) (bool, *string, error)
	UpdateAfterAI(id string, confidence float64, modelVersion string, aiProcessed bool) error
	LinkOpportunity(contentItemID, opportunityID string) error
	MarkContentFailed(id string) error
	GetContentItem(id string) (*ContentItem, error)
	GetContentItemCount() (int, error)

	CreateOpportunity(opp Opportunity) (string, error)
	GetOpportunityCount() (int, error)

	InsertLog(log ScrapingLog) error
}
