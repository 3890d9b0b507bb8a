package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

type contentRepository struct {
	db *DB
}

func NewContentRepository(db *DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) CreateContentItem(item ContentItem) (string, error) {
	status := item.Status
	if status == "" {
		status = ContentStatusPending
	}

	var id string
	err := r.db.QueryRow(`
		INSERT INTO content_items (title, content, source_name, source_url, campaign_id, status, content_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, item.Title, item.Content, item.SourceName, item.SourceURL, item.CampaignID, status, item.ContentHash).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create content item: %w", err)
	}

	return id, nil
}

// CheckDuplicate checks if a content item with the given content hash already exists
func (r *contentRepository) CheckDuplicate(contentHash string) (bool, *string, error) {
	var duplicateID sql.NullString
	err := r.db.QueryRow(`
		SELECT id FROM content_items WHERE content_hash = $1 LIMIT 1
	`, contentHash).Scan(&duplicateID)
	if err == sql.ErrNoRows {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("failed to check duplicate: %w", err)
	}

	id := duplicateID.String
	return true, &id, nil
}

func (r *contentRepository) UpdateAfterAI(id string, confidence float64, modelVersion string, aiProcessed bool) error {
	_, err := r.db.Exec(`
		UPDATE content_items
		SET extraction_confidence = $2, ai_model_version = $3, ai_processed = $4, updated_at = NOW()
		WHERE id = $1
	`, id, confidence, modelVersion, aiProcessed)
	if err != nil {
		return fmt.Errorf("failed to update content item after AI extraction: %w", err)
	}

	return nil
}

// LinkOpportunity attaches the persisted opportunity and flips the content
// item to its terminal published status.
func (r *contentRepository) LinkOpportunity(contentItemID, opportunityID string) error {
	_, err := r.db.Exec(`
		UPDATE content_items
		SET opportunity_id = $2, status = $3, updated_at = NOW()
		WHERE id = $1
	`, contentItemID, opportunityID, ContentStatusPublished)
	if err != nil {
		return fmt.Errorf("failed to link opportunity: %w", err)
	}

	return nil
}

func (r *contentRepository) MarkContentFailed(id string) error {
	_, err := r.db.Exec(`
		UPDATE content_items SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, ContentStatusFailed)
	if err != nil {
		return fmt.Errorf("failed to mark content item failed: %w", err)
	}

	return nil
}

func (r *contentRepository) GetContentItem(id string) (*ContentItem, error) {
	var item ContentItem
	err := r.db.QueryRow(`
		SELECT id, title, content, source_name, source_url, campaign_id, status,
			ai_processed, extraction_confidence, ai_model_version, opportunity_id,
			content_hash, created_at, updated_at
		FROM content_items
		WHERE id = $1
	`, id).Scan(
		&item.ID, &item.Title, &item.Content, &item.SourceName, &item.SourceURL,
		&item.CampaignID, &item.Status, &item.AIProcessed, &item.ExtractionConfidence,
		&item.AIModelVersion, &item.OpportunityID, &item.ContentHash,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content item: %w", err)
	}

	return &item, nil
}

func (r *contentRepository) GetContentItemCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM content_items`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get content item count: %w", err)
	}
	return count, nil
}

func (r *contentRepository) CreateOpportunity(opp Opportunity) (string, error) {
	status := opp.Status
	if status == "" {
		status = "draft"
	}

	var id string
	err := r.db.QueryRow(`
		INSERT INTO opportunities (
			title, organization, description, category, location, deadline, deadline_at,
			amount, tags, url, featured, about_opportunity, requirements, how_to_apply,
			what_you_get, application_deadline, posted_date, contact_email, funding_type,
			eligible_countries, min_amount, max_amount, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING id
	`, opp.Title, opp.Organization, opp.Description, opp.Category, opp.Location,
		opp.Deadline, opp.DeadlineAt, opp.Amount, pq.Array(opp.Tags), opp.URL,
		opp.Featured, opp.AboutOpportunity, opp.Requirements, opp.HowToApply,
		opp.WhatYouGet, opp.ApplicationDeadline, opp.PostedDate, opp.ContactEmail,
		opp.FundingType, pq.Array(opp.EligibleCountries), opp.MinAmount, opp.MaxAmount,
		status).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create opportunity: %w", err)
	}

	return id, nil
}

func (r *contentRepository) GetOpportunityCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM opportunities`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get opportunity count: %w", err)
	}
	return count, nil
}

// InsertLog appends a scraping log row. Rows are never mutated after insert.
func (r *contentRepository) InsertLog(log ScrapingLog) error {
	metadata, err := json.Marshal(log.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode scraping log metadata: %w", err)
	}
	if log.Metadata == nil {
		metadata = []byte("{}")
	}

	_, err = r.db.Exec(`
		INSERT INTO scraping_logs (campaign_run_id, source_id, url, status, response_time_ms, content_length, error_message, metadata)
		VALUES (NULLIF($1, '')::UUID, NULLIF($2, '')::UUID, $3, $4, $5, $6, $7, $8)
	`, log.CampaignRunID, log.SourceID, log.URL, log.Status, log.ResponseTimeMs,
		log.ContentLength, log.ErrorMessage, metadata)
	if err != nil {
		return fmt.Errorf("failed to insert scraping log: %w", err)
	}

	return nil
}
