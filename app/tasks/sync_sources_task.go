package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shubhamdixena/opportunity-harvester/app/config"
	"github.com/shubhamdixena/opportunity-harvester/app/database"
)

type SyncSourcesTask struct {
	Task
	loader     *config.Loader
	sourceRepo database.SourceRepository
}

func NewSyncSourcesTask(loader *config.Loader, sourceRepo database.SourceRepository) *SyncSourcesTask {
	return &SyncSourcesTask{
		Task:       NewTask(TaskTypeSyncSources, "sources"),
		loader:     loader,
		sourceRepo: sourceRepo,
	}
}

// Execute upserts the seed source registry into the database, keyed by root
// domain so re-running never duplicates sources.
func (t *SyncSourcesTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	sources, err := t.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load source registry: %w", err)
	}

	synced := 0
	for _, source := range sources {
		if _, err := t.sourceRepo.UpsertSourceByDomain(source.Name, source.RootDomain, source.Keywords); err != nil {
			return fmt.Errorf("failed to upsert source %s: %w", source.RootDomain, err)
		}
		synced++
	}

	slog.Info("Task completed",
		"type", "SyncSources",
		"duration", t.GetDuration(),
		"synced", synced)

	return nil
}
