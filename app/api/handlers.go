package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shubhamdixena/opportunity-harvester/app/campaign"
	"github.com/shubhamdixena/opportunity-harvester/app/database"
	"github.com/shubhamdixena/opportunity-harvester/app/tasks"
)

func NewHandler(sourceRepo database.SourceRepository, campRepo database.CampaignRepository,
	queueRepo database.QueueRepository, contentRepo database.ContentRepository,
	orchestrator *campaign.Orchestrator, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		sourceRepo:   sourceRepo,
		campRepo:     campRepo,
		queueRepo:    queueRepo,
		contentRepo:  contentRepo,
		orchestrator: orchestrator,
		scheduler:    scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if sourceCount, err := h.sourceRepo.GetSourceCount(); err == nil {
		health["sources"] = sourceCount
	}

	if pending, err := h.queueRepo.PendingCount(); err == nil {
		health["queue_pending"] = pending
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if queueStats, err := h.queueRepo.GetQueueStats(); err == nil {
		stats["queue"] = queueStats
	}

	if running, completed, failed, err := h.campRepo.GetRunCounts(); err == nil {
		stats["runs"] = map[string]int{
			"running":   running,
			"completed": completed,
			"failed":    failed,
		}
	}

	if contentCount, err := h.contentRepo.GetContentItemCount(); err == nil {
		stats["content_items"] = contentCount
	}

	if opportunityCount, err := h.contentRepo.GetOpportunityCount(); err == nil {
		stats["opportunities"] = opportunityCount
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListSources(c *gin.Context) {
	sources, err := h.sourceRepo.ListSources()
	if err != nil {
		slog.Error("Database error", "operation", "list_sources", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	list := make([]map[string]interface{}, 0, len(sources))
	for _, source := range sources {
		list = append(list, map[string]interface{}{
			"id":              source.ID,
			"name":            source.Name,
			"root_domain":     source.RootDomain,
			"keywords":        source.Keywords,
			"is_active":       source.IsActive,
			"success_rate":    source.SuccessRate,
			"total_attempts":  source.TotalAttempts,
			"last_scraped_at": source.LastScrapedAt,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sources": list,
		"total":   len(list),
	})
}

func (h *Handler) APICreateSource(c *gin.Context) {
	var req sourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if req.Name == "" {
		req.Name = req.RootDomain
	}

	id, err := h.sourceRepo.CreateSource(req.Name, req.RootDomain, req.Keywords)
	if err != nil {
		slog.Error("Database error", "operation", "create_source", "domain", req.RootDomain, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create source"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) APIUpdateSource(c *gin.Context) {
	id := c.Param("id")

	source, err := h.sourceRepo.GetSource(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_source", "source_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if source == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}

	var req sourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if req.Name == "" {
		req.Name = source.Name
	}
	isActive := source.IsActive
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	if err := h.sourceRepo.UpdateSource(id, req.Name, req.RootDomain, req.Keywords, isActive); err != nil {
		slog.Error("Database error", "operation", "update_source", "source_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update source"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) APIDeleteSource(c *gin.Context) {
	id := c.Param("id")

	if err := h.sourceRepo.DeleteSource(id); err != nil {
		slog.Error("Database error", "operation", "delete_source", "source_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete source"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) APIListCampaigns(c *gin.Context) {
	campaigns, err := h.campRepo.ListCampaigns()
	if err != nil {
		slog.Error("Database error", "operation", "list_campaigns", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	list := make([]map[string]interface{}, 0, len(campaigns))
	for _, item := range campaigns {
		list = append(list, map[string]interface{}{
			"id":             item.ID,
			"name":           item.Name,
			"is_active":      item.IsActive,
			"sources":        len(item.SourceIDs),
			"frequency":      item.Frequency,
			"frequency_unit": item.FrequencyUnit,
			"max_posts":      item.MaxPosts,
			"current_posts":  item.CurrentPosts,
			"last_run_at":    item.LastRunAt,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"campaigns": list,
		"total":     len(list),
	})
}

func (h *Handler) APIGetCampaignDetails(c *gin.Context) {
	id := c.Param("id")

	item, err := h.campRepo.GetCampaign(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_campaign", "campaign_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		return
	}

	limit := 10
	if raw := c.Query("runs"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	details := map[string]interface{}{
		"id":             item.ID,
		"name":           item.Name,
		"is_active":      item.IsActive,
		"source_ids":     item.SourceIDs,
		"keywords":       item.Keywords,
		"frequency":      item.Frequency,
		"frequency_unit": item.FrequencyUnit,
		"max_posts":      item.MaxPosts,
		"current_posts":  item.CurrentPosts,
		"last_run_at":    item.LastRunAt,
		"filters": map[string]interface{}{
			"min_length":      item.Filters.MinLength,
			"max_length":      item.Filters.MaxLength,
			"required_words":  item.Filters.RequiredWords,
			"banned_words":    item.Filters.BannedWords,
			"skip_duplicates": item.Filters.SkipDuplicates,
		},
	}

	if runs, err := h.campRepo.ListRuns(id, limit); err == nil {
		runList := make([]map[string]interface{}, 0, len(runs))
		for _, run := range runs {
			runList = append(runList, map[string]interface{}{
				"id":                run.ID,
				"status":            run.Status,
				"started_at":        run.StartedAt,
				"completed_at":      run.CompletedAt,
				"items_found":       run.ItemsFound,
				"items_created":     run.ItemsCreated,
				"errors_count":      run.ErrorsCount,
				"execution_time_ms": run.ExecutionTimeMs,
			})
		}
		details["runs"] = runList
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) APIStartCampaign(c *gin.Context) {
	id := c.Param("id")

	item, err := h.campRepo.GetCampaign(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_campaign", "campaign_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		return
	}
	if !item.IsActive {
		c.JSON(http.StatusConflict, gin.H{"error": "Campaign is not active"})
		return
	}

	if active, err := h.campRepo.GetActiveRun(id); err == nil && active != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "Campaign already has a running run",
			"run_id": active.ID,
		})
		return
	}

	runTask := tasks.NewRunCampaignTask(item.Name, item.ID, h.orchestrator)
	if err := h.scheduler.EnqueueTask(runTask); err != nil {
		slog.Error("Error enqueueing run task", "campaign", item.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue campaign run",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Campaign run enqueued",
		"task": gin.H{
			"id":   runTask.ID,
			"type": runTask.Type,
		},
	})
}

func (h *Handler) APIActivateCampaign(c *gin.Context) {
	h.setCampaignActive(c, true)
}

func (h *Handler) APIDeactivateCampaign(c *gin.Context) {
	h.setCampaignActive(c, false)
}

func (h *Handler) setCampaignActive(c *gin.Context, active bool) {
	id := c.Param("id")

	item, err := h.campRepo.GetCampaign(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_campaign", "campaign_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		return
	}

	if err := h.campRepo.SetCampaignActive(id, active); err != nil {
		slog.Error("Database error", "operation", "set_campaign_active", "campaign_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update campaign"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "is_active": active})
}

func (h *Handler) APIGetRun(c *gin.Context) {
	id := c.Param("id")

	run, err := h.campRepo.GetRun(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_run", "run_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"id":                run.ID,
		"campaign_id":       run.CampaignID,
		"status":            run.Status,
		"started_at":        run.StartedAt,
		"completed_at":      run.CompletedAt,
		"sources_processed": run.SourcesProcessed,
		"items_found":       run.ItemsFound,
		"items_created":     run.ItemsCreated,
		"errors_count":      run.ErrorsCount,
		"error_details":     run.ErrorDetails,
		"execution_time_ms": run.ExecutionTimeMs,
	})
}

func (h *Handler) APICancelRun(c *gin.Context) {
	id := c.Param("id")

	run, err := h.campRepo.GetRun(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_run", "run_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}

	if err := h.orchestrator.CancelRun(id); err != nil {
		if errors.Is(err, campaign.ErrCampaignNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
			return
		}
		slog.Error("Error cancelling run", "run_id", id, "error", err)
		c.JSON(http.StatusConflict, gin.H{"error": "Run is not running", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
