package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type queueRepository struct {
	db *DB
}

func NewQueueRepository(db *DB) QueueRepository {
	return &queueRepository{db: db}
}

const queueColumns = `id, campaign_id, source_id, url, priority, status, attempts, max_attempts,
	scheduled_for, started_at, completed_at, error_message, metadata, created_at, updated_at`

func (r *queueRepository) scanItem(row interface{ Scan(...interface{}) error }) (*QueueItem, error) {
	var item QueueItem
	var metadata []byte
	err := row.Scan(
		&item.ID, &item.CampaignID, &item.SourceID, &item.URL, &item.Priority,
		&item.Status, &item.Attempts, &item.MaxAttempts, &item.ScheduledFor,
		&item.StartedAt, &item.CompletedAt, &item.ErrorMessage, &metadata,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &item.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode queue item metadata: %w", err)
		}
	}

	return &item, nil
}

func (r *queueRepository) BulkInsert(items []QueueItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin queue insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO scraping_queue (campaign_id, source_id, url, priority, status, max_attempts, scheduled_for, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare queue insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, item := range items {
		metadata, err := json.Marshal(item.Metadata)
		if err != nil {
			return 0, fmt.Errorf("failed to encode queue item metadata: %w", err)
		}

		status := item.Status
		if status == "" {
			status = QueueStatusQueued
		}
		maxAttempts := item.MaxAttempts
		if maxAttempts == 0 {
			maxAttempts = 3
		}
		scheduledFor := item.ScheduledFor
		if scheduledFor.IsZero() {
			scheduledFor = time.Now().UTC()
		}

		if _, err := stmt.Exec(item.CampaignID, item.SourceID, item.URL, item.Priority,
			status, maxAttempts, scheduledFor, metadata); err != nil {
			return 0, fmt.Errorf("failed to insert queue item: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit queue insert: %w", err)
	}

	return inserted, nil
}

// ClaimBatch atomically claims up to limit due items, transitioning them to
// processing and incrementing their attempt counter in the same statement.
// The at-most-one-claimer guarantee rests entirely on postgres row locking
// (FOR UPDATE SKIP LOCKED); concurrent drains coordinate through the
// database, never in process.
func (r *queueRepository) ClaimBatch(limit int) ([]QueueItem, error) {
	rows, err := r.db.Query(`
		UPDATE scraping_queue
		SET status = $1,
			attempts = attempts + 1,
			started_at = NOW(),
			updated_at = NOW()
		WHERE id IN (
			SELECT id FROM scraping_queue
			WHERE status IN ($2, $3) AND scheduled_for <= NOW()
			ORDER BY priority DESC, created_at ASC
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+queueColumns,
		QueueStatusProcessing, QueueStatusQueued, QueueStatusRetrying, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim queue batch: %w", err)
	}
	defer rows.Close()

	var items []QueueItem
	for rows.Next() {
		item, err := r.scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claimed queue item: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating claimed queue items: %w", err)
	}

	return items, nil
}

func (r *queueRepository) MarkCompleted(id string) error {
	_, err := r.db.Exec(`
		UPDATE scraping_queue
		SET status = $2, completed_at = NOW(), error_message = '', updated_at = NOW()
		WHERE id = $1
	`, id, QueueStatusCompleted)
	if err != nil {
		return fmt.Errorf("failed to mark queue item completed: %w", err)
	}

	return nil
}

func (r *queueRepository) MarkRetrying(id, errorMessage string, scheduledFor time.Time) error {
	_, err := r.db.Exec(`
		UPDATE scraping_queue
		SET status = $2, error_message = $3, scheduled_for = $4, updated_at = NOW()
		WHERE id = $1
	`, id, QueueStatusRetrying, errorMessage, scheduledFor)
	if err != nil {
		return fmt.Errorf("failed to mark queue item retrying: %w", err)
	}

	return nil
}

// MarkFailed is terminal: scheduled_for is left untouched and the item is
// never selected by ClaimBatch again.
func (r *queueRepository) MarkFailed(id, errorMessage string) error {
	_, err := r.db.Exec(`
		UPDATE scraping_queue
		SET status = $2, error_message = $3, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, id, QueueStatusFailed, errorMessage)
	if err != nil {
		return fmt.Errorf("failed to mark queue item failed: %w", err)
	}

	return nil
}

// CancelPendingByRun cancels every queued and retrying item enqueued for a
// campaign run. Items already in processing finish their current attempt;
// cancelled is terminal like failed.
func (r *queueRepository) CancelPendingByRun(runID string) (int, error) {
	result, err := r.db.Exec(`
		UPDATE scraping_queue
		SET status = $2, completed_at = NOW(), updated_at = NOW()
		WHERE metadata->>'campaign_run_id' = $1 AND status IN ($3, $4)
	`, runID, QueueStatusCancelled, QueueStatusQueued, QueueStatusRetrying)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel pending queue items: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cancelled queue items: %w", err)
	}

	return int(affected), nil
}

func (r *queueRepository) GetItem(id string) (*QueueItem, error) {
	row := r.db.QueryRow(`SELECT `+queueColumns+` FROM scraping_queue WHERE id = $1`, id)

	item, err := r.scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue item: %w", err)
	}

	return item, nil
}

func (r *queueRepository) GetQueueStats() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM scraping_queue GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to get queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan queue stats row: %w", err)
		}
		stats[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queue stats rows: %w", err)
	}

	return stats, nil
}

func (r *queueRepository) PendingCount() (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM scraping_queue WHERE status IN ($1, $2)
	`, QueueStatusQueued, QueueStatusRetrying).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get pending queue count: %w", err)
	}

	return count, nil
}
