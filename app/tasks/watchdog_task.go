package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shubhamdixena/opportunity-harvester/app/campaign"
)

type WatchdogTask struct {
	Task
	orchestrator *campaign.Orchestrator
	staleTimeout time.Duration
}

func NewWatchdogTask(orchestrator *campaign.Orchestrator, staleTimeout time.Duration) *WatchdogTask {
	return &WatchdogTask{
		Task:         NewTask(TaskTypeWatchdog, "runs"),
		orchestrator: orchestrator,
		staleTimeout: staleTimeout,
	}
}

// Execute fails campaign runs stuck in running beyond the staleness window.
func (t *WatchdogTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	count, err := t.orchestrator.MarkStaleRuns(t.staleTimeout)
	if err != nil {
		return fmt.Errorf("failed to check stale runs: %w", err)
	}

	if count > 0 {
		slog.Info("Task completed",
			"type", "Watchdog",
			"duration", t.GetDuration(),
			"stale_runs_failed", count)
	}

	return nil
}
