package tasks

// TaskSchedulerInterface defines the interface for background task
// scheduling. Used by the main application and the API server to hand work
// to the worker pool.
// Example usage:
//
//	scheduler := NewScheduler(orchestrator, sourceRepo, campaignRepo, sourceLoader)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewRunCampaignTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
