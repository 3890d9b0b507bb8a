package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shubhamdixena/opportunity-harvester/app/campaign"
)

type RunCampaignTask struct {
	Task
	CampaignID   string
	orchestrator *campaign.Orchestrator
}

func NewRunCampaignTask(campaignName, campaignID string, orchestrator *campaign.Orchestrator) *RunCampaignTask {
	return &RunCampaignTask{
		Task:         NewTask(TaskTypeRunCampaign, campaignName),
		CampaignID:   campaignID,
		orchestrator: orchestrator,
	}
}

func (t *RunCampaignTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	run, err := t.orchestrator.RunCampaign(ctx, t.CampaignID)
	if err != nil {
		if errors.Is(err, campaign.ErrCampaignInactive) {
			slog.Debug("Campaign inactive, skipping", "campaign", t.Subject)
			return nil
		}
		return fmt.Errorf("failed to run campaign: %w", err)
	}

	slog.Info("Task completed",
		"type", "RunCampaign",
		"campaign", t.Subject,
		"duration", t.GetDuration(),
		"run_id", run.ID,
		"status", run.Status,
		"items_found", run.ItemsFound,
		"items_created", run.ItemsCreated,
		"errors", run.ErrorsCount)

	return nil
}
