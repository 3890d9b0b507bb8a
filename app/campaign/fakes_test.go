package campaign

import (
	"context"
	"time"

	"github.com/shubhamdixena/opportunity-harvester/app/database"
)

// In-memory fakes recording the calls the pipeline makes. Only the methods
// the code under test exercises carry behavior; the rest return zero values.

type fakeSourceRepo struct {
	sources  []database.Source
	attempts []bool
}

func (f *fakeSourceRepo) GetSource(id string) (*database.Source, error) { return nil, nil }
func (f *fakeSourceRepo) GetActiveSources(ids []string) ([]database.Source, error) {
	return f.sources, nil
}
func (f *fakeSourceRepo) ListSources() ([]database.Source, error) { return f.sources, nil }
func (f *fakeSourceRepo) CreateSource(name, rootDomain string, keywords []string) (string, error) {
	return "", nil
}
func (f *fakeSourceRepo) UpdateSource(id, name, rootDomain string, keywords []string, isActive bool) error {
	return nil
}
func (f *fakeSourceRepo) DeleteSource(id string) error { return nil }
func (f *fakeSourceRepo) UpsertSourceByDomain(name, rootDomain string, keywords []string) (string, error) {
	return "", nil
}
func (f *fakeSourceRepo) RecordAttempt(id string, success bool) error {
	f.attempts = append(f.attempts, success)
	return nil
}
func (f *fakeSourceRepo) GetSourceCount() (int, error) { return len(f.sources), nil }

type runStats struct {
	itemsFound   int
	itemsCreated int
	errorsCount  int
	errorDetails []string
}

type fakeCampaignRepo struct {
	campaign       *database.Campaign
	run            *database.CampaignRun
	stats          runStats
	currentPosts   int
	drainedCalls   int
	staleCalls     int
	finalizedWith  string
	sourcesCounted int
}

func (f *fakeCampaignRepo) GetCampaign(id string) (*database.Campaign, error) {
	if f.campaign == nil || f.campaign.ID != id {
		return nil, nil
	}
	return f.campaign, nil
}
func (f *fakeCampaignRepo) ListCampaigns() ([]database.Campaign, error) { return nil, nil }
func (f *fakeCampaignRepo) GetDueCampaigns(now time.Time) ([]database.Campaign, error) {
	return nil, nil
}
func (f *fakeCampaignRepo) SetCampaignActive(id string, active bool) error { return nil }
func (f *fakeCampaignRepo) IncrementCurrentPosts(id string) error {
	f.currentPosts++
	return nil
}
func (f *fakeCampaignRepo) MarkCampaignRan(id string, at time.Time) error { return nil }

func (f *fakeCampaignRepo) CreateRun(campaignID string) (*database.CampaignRun, error) {
	f.run = &database.CampaignRun{
		ID:         "run-1",
		CampaignID: campaignID,
		Status:     database.RunStatusRunning,
		StartedAt:  time.Now().UTC(),
	}
	return f.run, nil
}
func (f *fakeCampaignRepo) GetRun(id string) (*database.CampaignRun, error) { return f.run, nil }
func (f *fakeCampaignRepo) GetActiveRun(campaignID string) (*database.CampaignRun, error) {
	return nil, nil
}
func (f *fakeCampaignRepo) ListRuns(campaignID string, limit int) ([]database.CampaignRun, error) {
	return nil, nil
}
func (f *fakeCampaignRepo) AccumulateRunStats(runID string, itemsFound, itemsCreated, errorsCount int, errorDetail string) error {
	if f.run != nil && f.run.ID == runID && f.run.Status != database.RunStatusRunning {
		return nil
	}
	f.stats.itemsFound += itemsFound
	f.stats.itemsCreated += itemsCreated
	f.stats.errorsCount += errorsCount
	if errorDetail != "" {
		f.stats.errorDetails = append(f.stats.errorDetails, errorDetail)
	}
	return nil
}
func (f *fakeCampaignRepo) SetSourcesProcessed(runID string, count int) error {
	f.sourcesCounted = count
	return nil
}
func (f *fakeCampaignRepo) FinalizeRun(runID, status string) error {
	f.finalizedWith = status
	if f.run != nil {
		f.run.Status = status
	}
	return nil
}
func (f *fakeCampaignRepo) CompleteDrainedRuns() (int, error) {
	f.drainedCalls++
	return 0, nil
}
func (f *fakeCampaignRepo) MarkStaleRunsFailed(olderThan time.Duration) (int, error) {
	f.staleCalls++
	return 0, nil
}
func (f *fakeCampaignRepo) GetRunCounts() (int, int, int, error) { return 0, 0, 0, nil }

type fakeQueueRepo struct {
	inserted    []database.QueueItem
	claimable   []database.QueueItem
	completed   []string
	cancelled   []string
	retried     map[string]time.Time
	retryErrors map[string]string
	failed      map[string]string
}

func newFakeQueueRepo() *fakeQueueRepo {
	return &fakeQueueRepo{
		retried:     make(map[string]time.Time),
		retryErrors: make(map[string]string),
		failed:      make(map[string]string),
	}
}

func (f *fakeQueueRepo) BulkInsert(items []database.QueueItem) (int, error) {
	f.inserted = append(f.inserted, items...)
	return len(items), nil
}
func (f *fakeQueueRepo) ClaimBatch(limit int) ([]database.QueueItem, error) {
	if len(f.claimable) == 0 {
		return nil, nil
	}
	if limit > len(f.claimable) {
		limit = len(f.claimable)
	}
	batch := f.claimable[:limit]
	f.claimable = f.claimable[limit:]
	return batch, nil
}
func (f *fakeQueueRepo) MarkCompleted(id string) error {
	f.completed = append(f.completed, id)
	return nil
}
func (f *fakeQueueRepo) MarkRetrying(id, errorMessage string, scheduledFor time.Time) error {
	f.retried[id] = scheduledFor
	f.retryErrors[id] = errorMessage
	return nil
}
func (f *fakeQueueRepo) MarkFailed(id, errorMessage string) error {
	f.failed[id] = errorMessage
	return nil
}
func (f *fakeQueueRepo) CancelPendingByRun(runID string) (int, error) {
	var kept []database.QueueItem
	for _, item := range f.claimable {
		if id, _ := item.Metadata["campaign_run_id"].(string); id == runID {
			f.cancelled = append(f.cancelled, item.ID)
			continue
		}
		kept = append(kept, item)
	}
	f.claimable = kept
	return len(f.cancelled), nil
}
func (f *fakeQueueRepo) GetItem(id string) (*database.QueueItem, error) { return nil, nil }
func (f *fakeQueueRepo) GetQueueStats() (map[string]int, error)         { return nil, nil }
func (f *fakeQueueRepo) PendingCount() (int, error)                     { return len(f.claimable), nil }

type fakeContentRepo struct {
	contentItems  []database.ContentItem
	opportunities []database.Opportunity
	logs          []database.ScrapingLog
	linked        map[string]string
	aiUpdates     map[string]float64
	duplicates    map[string]bool
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{
		linked:     make(map[string]string),
		aiUpdates:  make(map[string]float64),
		duplicates: make(map[string]bool),
	}
}

func (f *fakeContentRepo) CreateContentItem(item database.ContentItem) (string, error) {
	item.ID = "content-1"
	f.contentItems = append(f.contentItems, item)
	return item.ID, nil
}
func (f *fakeContentRepo) CheckDuplicate(contentHash string) (bool, *string, error) {
	return f.duplicates[contentHash], nil, nil
}
func (f *fakeContentRepo) UpdateAfterAI(id string, confidence float64, modelVersion string, aiProcessed bool) error {
	f.aiUpdates[id] = confidence
	return nil
}
func (f *fakeContentRepo) LinkOpportunity(contentItemID, opportunityID string) error {
	f.linked[contentItemID] = opportunityID
	return nil
}
func (f *fakeContentRepo) MarkContentFailed(id string) error { return nil }
func (f *fakeContentRepo) GetContentItem(id string) (*database.ContentItem, error) {
	return nil, nil
}
func (f *fakeContentRepo) GetContentItemCount() (int, error) { return len(f.contentItems), nil }

func (f *fakeContentRepo) CreateOpportunity(opp database.Opportunity) (string, error) {
	opp.ID = "opp-1"
	f.opportunities = append(f.opportunities, opp)
	return opp.ID, nil
}
func (f *fakeContentRepo) GetOpportunityCount() (int, error) { return len(f.opportunities), nil }

func (f *fakeContentRepo) InsertLog(logRow database.ScrapingLog) error {
	f.logs = append(f.logs, logRow)
	return nil
}

// stubGenerator satisfies ai.Generator without network access.
type stubGenerator struct {
	response string
	err      error
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.response, g.err
}

func (g *stubGenerator) ModelVersion() string { return "stub-model" }
