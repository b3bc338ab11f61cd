package history

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a PostgreSQL assessment repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const assessmentColumns = `
	id, subject_id, latitude, longitude,
	pm25, duration_minutes, activity_level, travel_mode,
	score, level, created_at
`

// Get retrieves an assessment by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE id = $1`

	var a Assessment
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.SubjectID,
		&a.Latitude,
		&a.Longitude,
		&a.PM25,
		&a.DurationMinutes,
		&a.ActivityLevel,
		&a.TravelMode,
		&a.Score,
		&a.Level,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssessmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

// ListBySubject retrieves assessments for a subject, newest first.
func (r *PostgresRepository) ListBySubject(ctx context.Context, subjectID string, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	// Fetch one extra row to detect whether more pages exist.
	fetchLimit := limit + 1

	query := `
		SELECT ` + assessmentColumns + `
		FROM assessments
		WHERE subject_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	args := []any{subjectID, fetchLimit}

	if opts.Cursor != "" {
		query = `
			SELECT ` + assessmentColumns + `
			FROM assessments
			WHERE subject_id = $1
			  AND id < $3
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`
		args = append(args, opts.Cursor)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Assessment
	for rows.Next() {
		var a Assessment
		err := rows.Scan(
			&a.ID,
			&a.SubjectID,
			&a.Latitude,
			&a.Longitude,
			&a.PM25,
			&a.DurationMinutes,
			&a.ActivityLevel,
			&a.TravelMode,
			&a.Score,
			&a.Level,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &ListResult{Items: items}
	if len(items) > limit {
		result.Items = items[:limit]
		result.NextCursor = items[limit-1].ID
	}

	return result, nil
}

// Create stores a new assessment.
func (r *PostgresRepository) Create(ctx context.Context, a *Assessment) error {
	query := `
		INSERT INTO assessments (
			id, subject_id, latitude, longitude,
			pm25, duration_minutes, activity_level, travel_mode,
			score, level, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		a.ID,
		a.SubjectID,
		a.Latitude,
		a.Longitude,
		a.PM25,
		a.DurationMinutes,
		a.ActivityLevel,
		a.TravelMode,
		a.Score,
		a.Level,
		a.CreatedAt,
	)
	return err
}

var _ Repository = (*PostgresRepository)(nil)
