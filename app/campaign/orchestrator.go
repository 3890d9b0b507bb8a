package campaign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shubhamdixena/opportunity-harvester/app/database"
	"github.com/shubhamdixena/opportunity-harvester/app/discovery"
)

var (
	// ErrCampaignNotFound is the only hard, caller-visible failure of
	// StartRun besides ErrCampaignInactive; everything downstream is
	// captured into run stats.
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrCampaignInactive = errors.New("campaign is not active")
)

// Orchestrator owns the campaign run lifecycle: resolve sources, discover
// URLs, enqueue work, drain the queue in batches.
type Orchestrator struct {
	sourceRepo database.SourceRepository
	campRepo   database.CampaignRepository
	queueRepo  database.QueueRepository
	discoverer *discovery.Discoverer
	processor  *Processor
	batchSize  int
}

func NewOrchestrator(sourceRepo database.SourceRepository, campRepo database.CampaignRepository,
	queueRepo database.QueueRepository, discoverer *discovery.Discoverer,
	processor *Processor, batchSize int) *Orchestrator {

	if batchSize <= 0 {
		batchSize = 10
	}

	return &Orchestrator{
		sourceRepo: sourceRepo,
		campRepo:   campRepo,
		queueRepo:  queueRepo,
		discoverer: discoverer,
		processor:  processor,
		batchSize:  batchSize,
	}
}

// StartRun creates a running campaign run, discovers URLs for every active
// source of the campaign and enqueues one queue item per discovered URL.
// Discovery exhaustion on a source is non-fatal; the source is skipped.
func (o *Orchestrator) StartRun(ctx context.Context, campaignID string) (*database.CampaignRun, error) {
	campaign, err := o.campRepo.GetCampaign(campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}
	if !campaign.IsActive {
		return nil, ErrCampaignInactive
	}

	run, err := o.campRepo.CreateRun(campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create campaign run: %w", err)
	}

	sources, err := o.sourceRepo.GetActiveSources(campaign.SourceIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve campaign sources: %w", err)
	}

	var queueItems []database.QueueItem
	for _, source := range sources {
		select {
		case <-ctx.Done():
			return run, ctx.Err()
		default:
		}

		result := o.discoverer.Run(ctx, discovery.SiteRootURL(source.RootDomain))
		if !result.Success {
			slog.Warn("Discovery exhausted for source, skipping",
				"source", source.Name, "domain", source.RootDomain)
			continue
		}

		slog.Info("Discovered candidate URLs",
			"source", source.Name, "strategy", result.Source, "count", len(result.URLs))

		for _, discoveredURL := range result.URLs {
			queueItems = append(queueItems, database.QueueItem{
				CampaignID:  campaign.ID,
				SourceID:    source.ID,
				URL:         discoveredURL,
				Priority:    0,
				MaxAttempts: 3,
				Metadata: map[string]interface{}{
					"campaign_run_id":  run.ID,
					"source_name":      source.Name,
					"source_keywords":  source.Keywords,
					"discovery_source": result.Source,
				},
			})
		}
	}

	inserted, err := o.queueRepo.BulkInsert(queueItems)
	if err != nil {
		return run, fmt.Errorf("failed to enqueue discovered URLs: %w", err)
	}

	if err := o.campRepo.SetSourcesProcessed(run.ID, len(sources)); err != nil {
		slog.Error("Failed to set sources processed", "run_id", run.ID, "error", err)
	}
	if err := o.campRepo.MarkCampaignRan(campaign.ID, run.StartedAt); err != nil {
		slog.Error("Failed to mark campaign ran", "campaign_id", campaign.ID, "error", err)
	}

	slog.Info("Campaign run started", "run_id", run.ID, "campaign", campaign.Name,
		"sources", len(sources), "queued", inserted)

	return run, nil
}

// Drain claims one batch of due queue items and processes them
// sequentially. Returns the number of items processed; zero means the queue
// has nothing due. One item's failure never aborts the batch.
func (o *Orchestrator) Drain(ctx context.Context) (int, error) {
	items, err := o.queueRepo.ClaimBatch(o.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to claim queue batch: %w", err)
	}

	for _, item := range items {
		select {
		case <-ctx.Done():
			return len(items), ctx.Err()
		default:
		}

		o.processor.ProcessItem(ctx, item)
	}

	return len(items), nil
}

// RunCampaign starts a run and drains batches until the queue yields
// nothing due. Items rescheduled for a future retry are left to the
// periodic drain; the run completes once its campaign has no pending items.
func (o *Orchestrator) RunCampaign(ctx context.Context, campaignID string) (*database.CampaignRun, error) {
	run, err := o.StartRun(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	for {
		processed, err := o.Drain(ctx)
		if err != nil {
			slog.Error("Queue drain aborted", "run_id", run.ID, "error", err)
			break
		}
		if processed == 0 {
			break
		}
	}

	if _, err := o.FinalizeDrainedRuns(); err != nil {
		return run, err
	}

	return o.campRepo.GetRun(run.ID)
}

// FinalizeDrainedRuns completes every running run whose campaign has no
// queued, processing or retrying items left.
func (o *Orchestrator) FinalizeDrainedRuns() (int, error) {
	count, err := o.campRepo.CompleteDrainedRuns()
	if err != nil {
		return 0, fmt.Errorf("failed to complete drained runs: %w", err)
	}

	if count > 0 {
		slog.Info("Campaign runs completed", "count", count)
	}

	return count, nil
}

// CancelRun transitions a running run to cancelled and cancels its queued
// and retrying items so later drains have nothing left to claim for it.
// Items mid-processing finish their current attempt; the status guard on
// run stats keeps them from mutating the cancelled run.
func (o *Orchestrator) CancelRun(runID string) error {
	if err := o.campRepo.FinalizeRun(runID, database.RunStatusCancelled); err != nil {
		return fmt.Errorf("failed to cancel run: %w", err)
	}

	cancelled, err := o.queueRepo.CancelPendingByRun(runID)
	if err != nil {
		return fmt.Errorf("failed to cancel pending queue items: %w", err)
	}

	slog.Info("Campaign run cancelled", "run_id", runID, "items_cancelled", cancelled)
	return nil
}

// MarkStaleRuns force-fails running runs older than the staleness window so
// a crash mid-drain cannot leave a run in running forever.
func (o *Orchestrator) MarkStaleRuns(olderThan time.Duration) (int, error) {
	count, err := o.campRepo.MarkStaleRunsFailed(olderThan)
	if err != nil {
		return 0, err
	}

	if count > 0 {
		slog.Warn("Marked stale campaign runs failed", "count", count, "older_than", olderThan.String())
	}

	return count, nil
}
