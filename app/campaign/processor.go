package campaign

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/shubhamdixena/opportunity-harvester/app/ai"
	"github.com/shubhamdixena/opportunity-harvester/app/database"
	"github.com/shubhamdixena/opportunity-harvester/app/scrape"
)

// Processor executes one claimed queue item: fetch, extract, AI-enrich,
// persist. Per-item errors are captured into the queue item and run stats;
// they never escape to the caller.
type Processor struct {
	fetcher     *scrape.Fetcher
	fields      *scrape.FieldExtractor
	sections    *scrape.SectionExtractor
	aiExtractor *ai.Extractor
	sourceRepo  database.SourceRepository
	campRepo    database.CampaignRepository
	queueRepo   database.QueueRepository
	contentRepo database.ContentRepository

	confidenceThreshold float64

	domainRPS int
	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
	nowFn     func() time.Time
}

func NewProcessor(fetcher *scrape.Fetcher, aiExtractor *ai.Extractor,
	sourceRepo database.SourceRepository, campRepo database.CampaignRepository,
	queueRepo database.QueueRepository, contentRepo database.ContentRepository,
	confidenceThreshold float64, domainRPS int) *Processor {

	return &Processor{
		fetcher:             fetcher,
		fields:              scrape.NewFieldExtractor(),
		sections:            scrape.NewSectionExtractor(),
		aiExtractor:         aiExtractor,
		sourceRepo:          sourceRepo,
		campRepo:            campRepo,
		queueRepo:           queueRepo,
		contentRepo:         contentRepo,
		confidenceThreshold: confidenceThreshold,
		domainRPS:           domainRPS,
		limiters:            make(map[string]*rate.Limiter),
		nowFn:               func() time.Time { return time.Now().UTC() },
	}
}

// ProcessItem handles a single claimed queue item. The item must already be
// in processing state with its attempt counter incremented by the claim.
func (p *Processor) ProcessItem(ctx context.Context, item database.QueueItem) {
	runID := metadataString(item.Metadata, "campaign_run_id")

	campaign, err := p.campRepo.GetCampaign(item.CampaignID)
	if err != nil || campaign == nil {
		p.failItem(item, runID, fmt.Errorf("campaign %s unavailable: %w", item.CampaignID, err))
		return
	}

	if err := p.waitForDomain(ctx, item.URL); err != nil {
		p.failItem(item, runID, fmt.Errorf("rate limit wait aborted: %w", err))
		return
	}

	start := p.nowFn()
	body, err := p.fetcher.FetchHTML(ctx, item.URL)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		p.logFetch(runID, item, elapsed, 0, err)
		p.recordSourceAttempt(item.SourceID, false)
		p.failItem(item, runID, err)
		return
	}

	extracted, err := p.fields.Run(string(body), item.URL)
	if err != nil {
		// Empty extraction retries like a fetch failure.
		p.logFetch(runID, item, elapsed, len(body), err)
		p.recordSourceAttempt(item.SourceID, false)
		p.failItem(item, runID, err)
		return
	}

	p.logFetch(runID, item, elapsed, len(body), nil)
	p.recordSourceAttempt(item.SourceID, true)

	p.enrichFromSections(extracted, string(body))
	scraped := p.buildScrapedContent(extracted, item.URL)

	created := p.persistContent(ctx, campaign, item, runID, extracted, scraped)

	if err := p.queueRepo.MarkCompleted(item.ID); err != nil {
		slog.Error("Failed to mark queue item completed", "item_id", item.ID, "error", err)
	}

	itemsCreated := 0
	if created {
		itemsCreated = 1
	}
	if err := p.campRepo.AccumulateRunStats(runID, 1, itemsCreated, 0, ""); err != nil {
		slog.Error("Failed to accumulate run stats", "run_id", runID, "error", err)
	}
}

// persistContent stores the content item and, when extraction confidence
// clears the threshold, the opportunity. Returns whether an opportunity was
// created. Persistence failures are logged and counted but never retried;
// retrying a write that may have partially succeeded risks duplicates.
func (p *Processor) persistContent(ctx context.Context, campaign *database.Campaign,
	item database.QueueItem, runID string, extracted *scrape.Extracted, scraped *scrape.ScrapedContent) bool {

	contentHash := ContentHash(extracted.Title, item.URL)

	if reason := p.applyCampaignFilters(campaign, extracted, contentHash); reason != "" {
		slog.Debug("Item filtered by campaign rules", "url", item.URL, "reason", reason)
		return false
	}

	campaignID := item.CampaignID
	contentID, err := p.contentRepo.CreateContentItem(database.ContentItem{
		Title:       extracted.Title,
		Content:     extracted.Content,
		SourceName:  metadataString(item.Metadata, "source_name"),
		SourceURL:   item.URL,
		CampaignID:  &campaignID,
		ContentHash: contentHash,
	})
	if err != nil {
		p.recordPersistenceError(runID, item.URL, err)
		return false
	}

	if p.aiExtractor == nil {
		return false
	}

	result := p.aiExtractor.Run(ctx, extracted.Title, extracted.Content, item.URL)

	if !result.Success {
		slog.Warn("AI extraction failed, using metadata fallback", "url", item.URL, "error", result.Error)
		fallback := ai.FallbackFromScraped(scraped)
		return p.createOpportunity(campaign, contentID, runID, item.URL, fallback)
	}

	if err := p.contentRepo.UpdateAfterAI(contentID, result.Confidence, p.aiExtractor.ModelVersion(), true); err != nil {
		p.recordPersistenceError(runID, item.URL, err)
	}

	if result.Confidence < p.confidenceThreshold {
		slog.Debug("Extraction confidence below threshold, item stays pending",
			"url", item.URL, "confidence", result.Confidence, "threshold", p.confidenceThreshold)
		return false
	}

	return p.createOpportunity(campaign, contentID, runID, item.URL, result.Data)
}

func (p *Processor) createOpportunity(campaign *database.Campaign, contentID, runID, itemURL string, data *ai.OpportunityData) bool {
	if campaign.MaxPosts > 0 && campaign.CurrentPosts >= campaign.MaxPosts {
		slog.Debug("Campaign post cap reached, skipping opportunity creation",
			"campaign_id", campaign.ID, "max_posts", campaign.MaxPosts)
		return false
	}

	oppID, err := p.contentRepo.CreateOpportunity(OpportunityFromData(data))
	if err != nil {
		p.recordPersistenceError(runID, itemURL, err)
		return false
	}

	if err := p.contentRepo.LinkOpportunity(contentID, oppID); err != nil {
		p.recordPersistenceError(runID, itemURL, err)
	}

	if err := p.campRepo.IncrementCurrentPosts(campaign.ID); err != nil {
		slog.Error("Failed to increment campaign posts", "campaign_id", campaign.ID, "error", err)
	}

	slog.Info("Opportunity created", "opportunity_id", oppID, "url", itemURL, "title", data.Title)
	return true
}

// applyCampaignFilters returns a non-empty reason when the extracted content
// violates the campaign's filters.
func (p *Processor) applyCampaignFilters(campaign *database.Campaign, extracted *scrape.Extracted, contentHash string) string {
	filters := campaign.Filters

	if filters.MinLength > 0 && len(extracted.Content) < filters.MinLength {
		return fmt.Sprintf("content shorter than %d characters", filters.MinLength)
	}
	if filters.MaxLength > 0 && len(extracted.Content) > filters.MaxLength {
		return fmt.Sprintf("content longer than %d characters", filters.MaxLength)
	}

	haystack := strings.ToLower(extracted.Title + " " + extracted.Content)
	for _, word := range filters.RequiredWords {
		if !strings.Contains(haystack, strings.ToLower(word)) {
			return fmt.Sprintf("missing required word '%s'", word)
		}
	}
	for _, word := range filters.BannedWords {
		if strings.Contains(haystack, strings.ToLower(word)) {
			return fmt.Sprintf("contains banned word '%s'", word)
		}
	}

	if filters.SkipDuplicates {
		isDuplicate, _, err := p.contentRepo.CheckDuplicate(contentHash)
		if err != nil {
			slog.Error("Duplicate check failed", "error", err)
		} else if isDuplicate {
			return "duplicate content"
		}
	}

	return ""
}

// failItem marks the item retrying with linear backoff, or failed once its
// attempt ceiling is reached. Failed is terminal; the item is never
// re-queued.
func (p *Processor) failItem(item database.QueueItem, runID string, cause error) {
	message := cause.Error()

	if item.Attempts < item.MaxAttempts {
		scheduledFor := NextAttempt(item.Attempts, p.nowFn())
		if err := p.queueRepo.MarkRetrying(item.ID, message, scheduledFor); err != nil {
			slog.Error("Failed to mark queue item retrying", "item_id", item.ID, "error", err)
		}
		slog.Warn("Queue item retry scheduled", "item_id", item.ID, "url", item.URL,
			"attempts", item.Attempts, "max_attempts", item.MaxAttempts, "scheduled_for", scheduledFor)
	} else {
		if err := p.queueRepo.MarkFailed(item.ID, message); err != nil {
			slog.Error("Failed to mark queue item failed", "item_id", item.ID, "error", err)
		}
		slog.Error("Queue item failed permanently", "item_id", item.ID, "url", item.URL,
			"attempts", item.Attempts, "error", message)
	}

	if runID != "" {
		detail := fmt.Sprintf("%s: %s", item.URL, message)
		if err := p.campRepo.AccumulateRunStats(runID, 0, 0, 1, detail); err != nil {
			slog.Error("Failed to accumulate run error stats", "run_id", runID, "error", err)
		}
	}
}

func (p *Processor) recordPersistenceError(runID, itemURL string, cause error) {
	slog.Error("Persistence error during item processing", "url", itemURL, "error", cause)
	if runID != "" {
		detail := fmt.Sprintf("%s: persistence: %s", itemURL, cause.Error())
		if err := p.campRepo.AccumulateRunStats(runID, 0, 0, 1, detail); err != nil {
			slog.Error("Failed to accumulate run error stats", "run_id", runID, "error", err)
		}
	}
}

func (p *Processor) recordSourceAttempt(sourceID string, success bool) {
	if err := p.sourceRepo.RecordAttempt(sourceID, success); err != nil {
		slog.Error("Failed to record source attempt", "source_id", sourceID, "error", err)
	}
}

func (p *Processor) logFetch(runID string, item database.QueueItem, elapsedMs int64, contentLength int, cause error) {
	logRow := database.ScrapingLog{
		CampaignRunID:  runID,
		SourceID:       item.SourceID,
		URL:            item.URL,
		Status:         "success",
		ResponseTimeMs: elapsedMs,
	}

	if contentLength > 0 {
		logRow.ContentLength = &contentLength
	}
	if cause != nil {
		logRow.Status = "failed"
		logRow.ErrorMessage = cause.Error()
	}

	if err := p.contentRepo.InsertLog(logRow); err != nil {
		slog.Error("Failed to insert scraping log", "url", item.URL, "error", err)
	}
}

// waitForDomain enforces the per-source-domain rate limit.
func (p *Processor) waitForDomain(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}

	p.limiterMu.Lock()
	limiter, ok := p.limiters[parsed.Host]
	if !ok {
		rps := p.domainRPS
		if rps <= 0 {
			rps = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rps), rps)
		p.limiters[parsed.Host] = limiter
	}
	p.limiterMu.Unlock()

	return limiter.Wait(ctx)
}

func (p *Processor) enrichFromSections(extracted *scrape.Extracted, rawHTML string) {
	sections := p.sections.Run(rawHTML)
	if len(sections) == 0 {
		return
	}

	if extracted.Requirements == "" {
		extracted.Requirements = sections[scrape.SectionEligibility]
	}
	if extracted.ApplyInfo == "" {
		extracted.ApplyInfo = sections[scrape.SectionHowToApply]
	}
	if extracted.Deadline == "" {
		extracted.Deadline = sections[scrape.SectionDeadline]
	}
	if extracted.Amount == "" {
		extracted.Amount = sections[scrape.SectionSalary]
	}
	if extracted.Organization == "" {
		extracted.Organization = sections[scrape.SectionOrganization]
	}
	if extracted.Location == "" {
		extracted.Location = sections[scrape.SectionLocation]
	}
}

func (p *Processor) buildScrapedContent(extracted *scrape.Extracted, sourceURL string) *scrape.ScrapedContent {
	return &scrape.ScrapedContent{
		Title:   extracted.Title,
		URL:     sourceURL,
		Content: extracted.Content,
		Metadata: scrape.ScrapedMetadata{
			Organization: extracted.Organization,
			Deadline:     extracted.Deadline,
			Location:     extracted.Location,
			Amount:       extracted.Amount,
			Requirements: extracted.Requirements,
			ScrapedAt:    p.nowFn(),
			SourceURL:    sourceURL,
		},
	}
}

// ContentHash hashes title and URL for duplicate detection. Description
// changes alone do not create a new identity.
func ContentHash(title, url string) string {
	sum := sha256.Sum256([]byte(title + "|" + url))
	return hex.EncodeToString(sum[:])
}

func metadataString(metadata map[string]interface{}, key string) string {
	if metadata == nil {
		return ""
	}
	if value, ok := metadata[key].(string); ok {
		return value
	}
	return ""
}
