package database

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

type sourceRepository struct {
	db *DB
}

func NewSourceRepository(db *DB) SourceRepository {
	return &sourceRepository{db: db}
}

const sourceColumns = `id, name, root_domain, is_active, keywords, last_scraped_at,
	success_rate, total_attempts, successful_attempts, created_at, updated_at`

func (r *sourceRepository) scanSource(row interface{ Scan(...interface{}) error }) (*Source, error) {
	var s Source
	err := row.Scan(
		&s.ID, &s.Name, &s.RootDomain, &s.IsActive, pq.Array(&s.Keywords),
		&s.LastScrapedAt, &s.SuccessRate, &s.TotalAttempts, &s.SuccessfulAttempts,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sourceRepository) GetSource(id string) (*Source, error) {
	row := r.db.QueryRow(`SELECT `+sourceColumns+` FROM sources WHERE id = $1`, id)

	source, err := r.scanSource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	return source, nil
}

func (r *sourceRepository) GetActiveSources(ids []string) ([]Source, error) {
	rows, err := r.db.Query(`
		SELECT `+sourceColumns+`
		FROM sources
		WHERE is_active = TRUE AND id = ANY($1)
		ORDER BY name
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get active sources: %w", err)
	}
	defer rows.Close()

	return r.collectSources(rows)
}

func (r *sourceRepository) ListSources() ([]Source, error) {
	rows, err := r.db.Query(`SELECT ` + sourceColumns + ` FROM sources ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	return r.collectSources(rows)
}

func (r *sourceRepository) collectSources(rows *sql.Rows) ([]Source, error) {
	var sources []Source
	for rows.Next() {
		source, err := r.scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, *source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}

func (r *sourceRepository) CreateSource(name, rootDomain string, keywords []string) (string, error) {
	var id string
	err := r.db.QueryRow(`
		INSERT INTO sources (name, root_domain, keywords)
		VALUES ($1, $2, $3)
		RETURNING id
	`, name, rootDomain, pq.Array(keywords)).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create source: %w", err)
	}

	return id, nil
}

func (r *sourceRepository) UpdateSource(id, name, rootDomain string, keywords []string, isActive bool) error {
	_, err := r.db.Exec(`
		UPDATE sources
		SET name = $2, root_domain = $3, keywords = $4, is_active = $5, updated_at = NOW()
		WHERE id = $1
	`, id, name, rootDomain, pq.Array(keywords), isActive)
	if err != nil {
		return fmt.Errorf("failed to update source: %w", err)
	}

	return nil
}

func (r *sourceRepository) DeleteSource(id string) error {
	_, err := r.db.Exec(`DELETE FROM sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}

	return nil
}

func (r *sourceRepository) UpsertSourceByDomain(name, rootDomain string, keywords []string) (string, error) {
	var id string
	err := r.db.QueryRow(`
		INSERT INTO sources (name, root_domain, keywords)
		VALUES ($1, $2, $3)
		ON CONFLICT (root_domain) DO UPDATE SET
			name = EXCLUDED.name,
			keywords = EXCLUDED.keywords,
			updated_at = NOW()
		RETURNING id
	`, name, rootDomain, pq.Array(keywords)).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to upsert source: %w", err)
	}

	return id, nil
}

// RecordAttempt updates attempt counters and the derived success rate with a
// single atomic statement so concurrent drains never lose increments.
func (r *sourceRepository) RecordAttempt(id string, success bool) error {
	successIncrement := 0
	if success {
		successIncrement = 1
	}

	_, err := r.db.Exec(`
		UPDATE sources
		SET total_attempts = total_attempts + 1,
			successful_attempts = successful_attempts + $2,
			success_rate = (successful_attempts + $2)::REAL / (total_attempts + 1),
			last_scraped_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
	`, id, successIncrement)
	if err != nil {
		return fmt.Errorf("failed to record source attempt: %w", err)
	}

	return nil
}

func (r *sourceRepository) GetSourceCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM sources`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get source count: %w", err)
	}
	return count, nil
}
