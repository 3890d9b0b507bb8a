package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shubhamdixena/opportunity-harvester/app/campaign"
)

type DrainQueueTask struct {
	Task
	orchestrator *campaign.Orchestrator
}

func NewDrainQueueTask(orchestrator *campaign.Orchestrator) *DrainQueueTask {
	return &DrainQueueTask{
		Task:         NewTask(TaskTypeDrainQueue, "queue"),
		orchestrator: orchestrator,
	}
}

// Execute drains due queue batches until empty, picking up retries whose
// backoff has elapsed, then completes any runs that are fully drained.
func (t *DrainQueueTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	total := 0
	for {
		processed, err := t.orchestrator.Drain(ctx)
		if err != nil {
			return fmt.Errorf("failed to drain queue: %w", err)
		}

		total += processed
		if processed == 0 {
			break
		}
	}

	if _, err := t.orchestrator.FinalizeDrainedRuns(); err != nil {
		return err
	}

	if total > 0 {
		slog.Info("Task completed",
			"type", "DrainQueue",
			"duration", t.GetDuration(),
			"processed", total)
	}

	return nil
}
