package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shubhamdixena/opportunity-harvester/app/campaign"
	"github.com/shubhamdixena/opportunity-harvester/app/cfg"
	"github.com/shubhamdixena/opportunity-harvester/app/config"
	"github.com/shubhamdixena/opportunity-harvester/app/database"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	orchestrator *campaign.Orchestrator
	campRepo     database.CampaignRepository
	sourceRepo   database.SourceRepository
	sourceLoader *config.Loader
	interval     time.Duration
	staleTimeout time.Duration
	workerCount  int
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	taskQueue    chan TaskInterface
}

func NewScheduler(orchestrator *campaign.Orchestrator, campRepo database.CampaignRepository,
	sourceRepo database.SourceRepository, sourceLoader *config.Loader) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		orchestrator: orchestrator,
		campRepo:     campRepo,
		sourceRepo:   sourceRepo,
		sourceLoader: sourceLoader,
		interval:     time.Duration(cfg.SchedulerInterval) * time.Second,
		staleTimeout: time.Duration(cfg.StaleRunTimeout) * time.Second,
		workerCount:  cfg.WorkerCount,
		ctx:          ctx,
		cancel:       cancel,
		taskQueue:    make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()

}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// enqueueStartupTasks syncs the seed source registry and drains whatever the
// previous process left in the queue.
func (s *Scheduler) enqueueStartupTasks() {
	syncTask := NewSyncSourcesTask(s.sourceLoader, s.sourceRepo)
	if err := s.EnqueueTask(syncTask); err != nil {
		slog.Warn("Failed to enqueue SyncSourcesTask", "error", err)
	}

	drainTask := NewDrainQueueTask(s.orchestrator)
	if err := s.EnqueueTask(drainTask); err != nil {
		slog.Warn("Failed to enqueue DrainQueueTask", "error", err)
	}
}

func (s *Scheduler) enqueueTasks() {
	watchdogTask := NewWatchdogTask(s.orchestrator, s.staleTimeout)
	if err := s.EnqueueTask(watchdogTask); err != nil {
		slog.Warn("Failed to enqueue WatchdogTask", "error", err)
	}

	drainTask := NewDrainQueueTask(s.orchestrator)
	if err := s.EnqueueTask(drainTask); err != nil {
		slog.Warn("Failed to enqueue DrainQueueTask", "error", err)
	}

	campaigns, err := s.campRepo.GetDueCampaigns(time.Now().UTC())
	if err != nil {
		slog.Warn("Failed to get due campaigns", "error", err)
		return
	}
	if len(campaigns) == 0 {
		slog.Debug("No campaigns due for a run")
		return
	}

	slog.Debug("Scheduling due campaigns", "count", len(campaigns))

	for _, dueCampaign := range campaigns {
		active, err := s.campRepo.GetActiveRun(dueCampaign.ID)
		if err != nil {
			slog.Warn("Failed to check active run, skipping", "campaign", dueCampaign.Name, "error", err)
			continue
		}
		if active != nil {
			slog.Debug("Campaign already has a running run, skipping", "campaign", dueCampaign.Name, "run_id", active.ID)
			continue
		}

		runTask := NewRunCampaignTask(dueCampaign.Name, dueCampaign.ID, s.orchestrator)
		if err := s.EnqueueTask(runTask); err != nil {
			slog.Warn("Failed to enqueue RunCampaignTask", "campaign", dueCampaign.Name, "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 15*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
