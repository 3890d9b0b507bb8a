package api

import (
	"github.com/shubhamdixena/opportunity-harvester/app/campaign"
	"github.com/shubhamdixena/opportunity-harvester/app/database"
	"github.com/shubhamdixena/opportunity-harvester/app/tasks"
)

type Handler struct {
	sourceRepo   database.SourceRepository
	campRepo     database.CampaignRepository
	queueRepo    database.QueueRepository
	contentRepo  database.ContentRepository
	orchestrator *campaign.Orchestrator
	scheduler    tasks.TaskSchedulerInterface
}

type sourceRequest struct {
	Name       string   `json:"name"`
	RootDomain string   `json:"root_domain" binding:"required"`
	Keywords   []string `json:"keywords"`
	IsActive   *bool    `json:"is_active"`
}
