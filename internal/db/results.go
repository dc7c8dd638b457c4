package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/job-elevator/internal/types"
)

// -----------------------------------------------------------------------------
// Result Methods
// -----------------------------------------------------------------------------

// ResultFilters holds optional filters for listing results
type ResultFilters struct {
	PostingID string
	Limit     int
}

// CompleteResult stores a result and marks its posting processed in one
// transaction. Either both writes land or neither does, and a posting that is
// already processed is rejected so it never gets a second result.
func (db *DB) CompleteResult(ctx context.Context, result *types.ElevatedJob) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := insertResult(ctx, tx, result); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE postings SET processed = TRUE, result_ref = $2, updated_at = NOW()
		 WHERE id = $1 AND processed IS NOT TRUE`,
		result.OriginalPostingID, result.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark posting %s processed: %w", result.OriginalPostingID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("posting not found or already processed: %s", result.OriginalPostingID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit result for %s: %w", result.OriginalPostingID, err)
	}
	return nil
}

func insertResult(ctx context.Context, tx pgx.Tx, result *types.ElevatedJob) error {
	if result == nil || result.StructuredJob == nil || result.QualityAssessment == nil {
		return fmt.Errorf("result requires a structured job and a quality assessment")
	}

	jobJSON, err := json.Marshal(result.StructuredJob)
	if err != nil {
		return fmt.Errorf("failed to marshal structured job: %w", err)
	}
	assessmentJSON, err := json.Marshal(result.QualityAssessment)
	if err != nil {
		return fmt.Errorf("failed to marshal quality assessment: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO results (id, original_posting_id, structured_job, quality_assessment, attempts, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		result.ID, result.OriginalPostingID, jobJSON, assessmentJSON, result.Attempts, result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save result for %s: %w", result.OriginalPostingID, err)
	}
	return nil
}

// ResetPosting clears the processed flag so the posting is elevated again
func (db *DB) ResetPosting(ctx context.Context, postingID string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE postings SET processed = FALSE, result_ref = NULL, updated_at = NOW() WHERE id = $1`,
		postingID,
	)
	if err != nil {
		return fmt.Errorf("failed to reset posting %s: %w", postingID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("posting not found: %s", postingID)
	}
	return nil
}

// GetResult retrieves a result by id, or nil when it does not exist
func (db *DB) GetResult(ctx context.Context, id uuid.UUID) (*types.ElevatedJob, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT id, original_posting_id, structured_job, quality_assessment, attempts, created_at
		 FROM results WHERE id = $1`,
		id,
	)
	r, err := scanResult(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return r, nil
}

// ListResults retrieves results newest first
func (db *DB) ListResults(ctx context.Context, filters ResultFilters) ([]types.ElevatedJob, error) {
	query, args := resultsQuery(filters)
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []types.ElevatedJob
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return results, nil
}

func resultsQuery(filters ResultFilters) (string, []any) {
	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	query := `SELECT id, original_posting_id, structured_job, quality_assessment, attempts, created_at
		FROM results WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.PostingID != "" {
		query += fmt.Sprintf(" AND original_posting_id = $%d", argNum)
		args = append(args, filters.PostingID)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)
	return query, args
}

func scanResult(row pgx.Row) (*types.ElevatedJob, error) {
	var r types.ElevatedJob
	var jobJSON, assessmentJSON []byte
	if err := row.Scan(&r.ID, &r.OriginalPostingID, &jobJSON, &assessmentJSON, &r.Attempts, &r.CreatedAt); err != nil {
		return nil, err
	}

	r.StructuredJob = &types.StructuredJobDescription{}
	if err := json.Unmarshal(jobJSON, r.StructuredJob); err != nil {
		return nil, fmt.Errorf("failed to decode structured job for %s: %w", r.ID, err)
	}
	r.QualityAssessment = &types.QualityAssessment{}
	if err := json.Unmarshal(assessmentJSON, r.QualityAssessment); err != nil {
		return nil, fmt.Errorf("failed to decode quality assessment for %s: %w", r.ID, err)
	}
	return &r, nil
}
