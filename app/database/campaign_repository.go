package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

type campaignRepository struct {
	db *DB
}

func NewCampaignRepository(db *DB) CampaignRepository {
	return &campaignRepository{db: db}
}

const campaignColumns = `id, name, source_ids, keywords, frequency, frequency_unit, is_active,
	max_posts, current_posts, min_length, max_length, required_words, banned_words,
	skip_duplicates, ai_rewrite, ai_quality_check, ai_seo_optimize, ai_translate_to,
	last_run_at, created_at, updated_at`

func (r *campaignRepository) scanCampaign(row interface{ Scan(...interface{}) error }) (*Campaign, error) {
	var c Campaign
	err := row.Scan(
		&c.ID, &c.Name, pq.Array(&c.SourceIDs), pq.Array(&c.Keywords),
		&c.Frequency, &c.FrequencyUnit, &c.IsActive,
		&c.MaxPosts, &c.CurrentPosts,
		&c.Filters.MinLength, &c.Filters.MaxLength,
		pq.Array(&c.Filters.RequiredWords), pq.Array(&c.Filters.BannedWords),
		&c.Filters.SkipDuplicates,
		&c.AISettings.Rewrite, &c.AISettings.QualityCheck, &c.AISettings.SEOOptimize,
		&c.AISettings.TranslateTo,
		&c.LastRunAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *campaignRepository) GetCampaign(id string) (*Campaign, error) {
	row := r.db.QueryRow(`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)

	campaign, err := r.scanCampaign(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return campaign, nil
}

func (r *campaignRepository) ListCampaigns() ([]Campaign, error) {
	rows, err := r.db.Query(`SELECT ` + campaignColumns + ` FROM campaigns ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []Campaign
	for rows.Next() {
		campaign, err := r.scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign row: %w", err)
		}
		campaigns = append(campaigns, *campaign)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaign rows: %w", err)
	}

	return campaigns, nil
}

// GetDueCampaigns returns active campaigns whose last run is older than their
// configured frequency. Campaigns that never ran are always due.
func (r *campaignRepository) GetDueCampaigns(now time.Time) ([]Campaign, error) {
	rows, err := r.db.Query(`
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE is_active = TRUE
		  AND (last_run_at IS NULL
		       OR last_run_at + (frequency * CASE frequency_unit
		           WHEN 'minutes' THEN INTERVAL '1 minute'
		           WHEN 'hours' THEN INTERVAL '1 hour'
		           ELSE INTERVAL '1 day'
		         END) <= $1)
		ORDER BY last_run_at NULLS FIRST
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get due campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []Campaign
	for rows.Next() {
		campaign, err := r.scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign row: %w", err)
		}
		campaigns = append(campaigns, *campaign)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaign rows: %w", err)
	}

	return campaigns, nil
}

func (r *campaignRepository) SetCampaignActive(id string, active bool) error {
	_, err := r.db.Exec(`
		UPDATE campaigns SET is_active = $2, updated_at = NOW() WHERE id = $1
	`, id, active)
	if err != nil {
		return fmt.Errorf("failed to set campaign active status: %w", err)
	}

	return nil
}

func (r *campaignRepository) IncrementCurrentPosts(id string) error {
	_, err := r.db.Exec(`
		UPDATE campaigns SET current_posts = current_posts + 1, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to increment campaign posts: %w", err)
	}

	return nil
}

func (r *campaignRepository) MarkCampaignRan(id string, at time.Time) error {
	_, err := r.db.Exec(`
		UPDATE campaigns SET last_run_at = $2, updated_at = NOW() WHERE id = $1
	`, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark campaign ran: %w", err)
	}

	return nil
}

const runColumns = `id, campaign_id, status, started_at, completed_at, sources_processed,
	items_found, items_created, errors_count, error_details, execution_time_ms,
	created_at, updated_at`

func (r *campaignRepository) scanRun(row interface{ Scan(...interface{}) error }) (*CampaignRun, error) {
	var run CampaignRun
	err := row.Scan(
		&run.ID, &run.CampaignID, &run.Status, &run.StartedAt, &run.CompletedAt,
		&run.SourcesProcessed, &run.ItemsFound, &run.ItemsCreated, &run.ErrorsCount,
		pq.Array(&run.ErrorDetails), &run.ExecutionTimeMs,
		&run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *campaignRepository) CreateRun(campaignID string) (*CampaignRun, error) {
	row := r.db.QueryRow(`
		INSERT INTO campaign_runs (campaign_id, status)
		VALUES ($1, $2)
		RETURNING `+runColumns+`
	`, campaignID, RunStatusRunning)

	run, err := r.scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create campaign run: %w", err)
	}

	return run, nil
}

func (r *campaignRepository) GetRun(id string) (*CampaignRun, error) {
	row := r.db.QueryRow(`SELECT `+runColumns+` FROM campaign_runs WHERE id = $1`, id)

	run, err := r.scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign run: %w", err)
	}

	return run, nil
}

func (r *campaignRepository) GetActiveRun(campaignID string) (*CampaignRun, error) {
	row := r.db.QueryRow(`
		SELECT `+runColumns+`
		FROM campaign_runs
		WHERE campaign_id = $1 AND status = $2
		ORDER BY started_at DESC
		LIMIT 1
	`, campaignID, RunStatusRunning)

	run, err := r.scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active campaign run: %w", err)
	}

	return run, nil
}

func (r *campaignRepository) ListRuns(campaignID string, limit int) ([]CampaignRun, error) {
	rows, err := r.db.Query(`
		SELECT `+runColumns+`
		FROM campaign_runs
		WHERE campaign_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, campaignID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign runs: %w", err)
	}
	defer rows.Close()

	var runs []CampaignRun
	for rows.Next() {
		run, err := r.scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign run row: %w", err)
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaign run rows: %w", err)
	}

	return runs, nil
}

// AccumulateRunStats applies per-item counter deltas atomically. Concurrent
// drain invocations share one run row, so read-modify-write is not safe here.
// The status guard keeps terminal runs immutable: a drain racing a cancel
// must not keep mutating counters on a run that is already over.
func (r *campaignRepository) AccumulateRunStats(runID string, itemsFound, itemsCreated, errorsCount int, errorDetail string) error {
	var details []string
	if errorDetail != "" {
		details = append(details, errorDetail)
	}

	_, err := r.db.Exec(`
		UPDATE campaign_runs
		SET items_found = items_found + $2,
			items_created = items_created + $3,
			errors_count = errors_count + $4,
			error_details = error_details || $5,
			updated_at = NOW()
		WHERE id = $1 AND status = $6
	`, runID, itemsFound, itemsCreated, errorsCount, pq.Array(details), RunStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to accumulate run stats: %w", err)
	}

	return nil
}

func (r *campaignRepository) SetSourcesProcessed(runID string, count int) error {
	_, err := r.db.Exec(`
		UPDATE campaign_runs SET sources_processed = $2, updated_at = NOW() WHERE id = $1
	`, runID, count)
	if err != nil {
		return fmt.Errorf("failed to set sources processed: %w", err)
	}

	return nil
}

// FinalizeRun transitions a running run to a terminal status and records the
// execution time. The status guard keeps terminal states final.
func (r *campaignRepository) FinalizeRun(runID, status string) error {
	result, err := r.db.Exec(`
		UPDATE campaign_runs
		SET status = $2,
			completed_at = NOW(),
			execution_time_ms = (EXTRACT(EPOCH FROM (NOW() - started_at)) * 1000)::BIGINT,
			updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, runID, status, RunStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to finalize campaign run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("campaign run %s is not running", runID)
	}

	return nil
}

// CompleteDrainedRuns transitions running runs to completed once their
// campaign has no pending queue items left. Runs with retrying items stay
// running until the retries resolve.
func (r *campaignRepository) CompleteDrainedRuns() (int, error) {
	result, err := r.db.Exec(`
		UPDATE campaign_runs
		SET status = $1,
			completed_at = NOW(),
			execution_time_ms = (EXTRACT(EPOCH FROM (NOW() - started_at)) * 1000)::BIGINT,
			updated_at = NOW()
		WHERE status = $2
		  AND NOT EXISTS (
			SELECT 1 FROM scraping_queue
			WHERE scraping_queue.campaign_id = campaign_runs.campaign_id
			  AND scraping_queue.status IN ($3, $4, $5)
		  )
	`, RunStatusCompleted, RunStatusRunning,
		QueueStatusQueued, QueueStatusProcessing, QueueStatusRetrying)
	if err != nil {
		return 0, fmt.Errorf("failed to complete drained runs: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count completed runs: %w", err)
	}

	return int(affected), nil
}

// MarkStaleRunsFailed transitions running runs older than the given age to
// failed. Covers runs orphaned by a crash mid-drain.
func (r *campaignRepository) MarkStaleRunsFailed(olderThan time.Duration) (int, error) {
	result, err := r.db.Exec(`
		UPDATE campaign_runs
		SET status = $1,
			completed_at = NOW(),
			error_details = error_details || ARRAY['run exceeded staleness timeout'],
			updated_at = NOW()
		WHERE status = $2 AND started_at < NOW() - ($3 * INTERVAL '1 second')
	`, RunStatusFailed, RunStatusRunning, int(olderThan.Seconds()))
	if err != nil {
		return 0, fmt.Errorf("failed to mark stale runs: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count stale runs: %w", err)
	}

	return int(affected), nil
}

func (r *campaignRepository) GetRunCounts() (int, int, int, error) {
	var running, completed, failed int
	err := r.db.QueryRow(`
		SELECT
			COUNT(*) FILTER (WHERE status = $1),
			COUNT(*) FILTER (WHERE status = $2),
			COUNT(*) FILTER (WHERE status = $3)
		FROM campaign_runs
	`, RunStatusRunning, RunStatusCompleted, RunStatusFailed).Scan(&running, &completed, &failed)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to get run counts: %w", err)
	}

	return running, completed, failed, nil
}
