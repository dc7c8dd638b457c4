package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jonathan/job-elevator/internal/types"
)

// -----------------------------------------------------------------------------
// Posting Methods
// -----------------------------------------------------------------------------

// UpsertPosting stores a raw posting, replacing the raw document of an
// existing row with the same id. The processed flag of an existing row is
// kept. Reports whether a new row was inserted.
func (db *DB) UpsertPosting(ctx context.Context, p *types.Posting) (bool, error) {
	if p == nil || p.ID == "" {
		return false, fmt.Errorf("posting id is required")
	}

	rawJSON, err := json.Marshal(p.Raw)
	if err != nil {
		return false, fmt.Errorf("failed to marshal posting %s: %w", p.ID, err)
	}

	var inserted bool
	err = db.pool.QueryRow(ctx,
		`INSERT INTO postings (id, title, company_name, raw)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
		     title = $2,
		     company_name = $3,
		     raw = $4,
		     updated_at = NOW()
		 RETURNING (xmax = 0)`,
		p.ID, p.Title, p.CompanyName, rawJSON,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert posting %s: %w", p.ID, err)
	}
	return inserted, nil
}

// GetPosting retrieves a posting by id, or nil when it does not exist
func (db *DB) GetPosting(ctx context.Context, id string) (*types.Posting, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT id, title, company_name, raw, processed, result_ref, ingested_at
		 FROM postings WHERE id = $1`,
		id,
	)
	p, err := scanPosting(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get posting %s: %w", id, err)
	}
	return p, nil
}

// CountPostings returns the number of stored postings, processed or not
func (db *DB) CountPostings(ctx context.Context) (int, error) {
	var count int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM postings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count postings: %w", err)
	}
	return count, nil
}

// ListPendingPostings returns up to limit unprocessed postings, newest first.
// A non-empty titles list restricts the result to exact title matches.
func (db *DB) ListPendingPostings(ctx context.Context, limit int, titles []string) ([]types.Posting, error) {
	query, args := pendingQuery(limit, titles)
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending postings: %w", err)
	}
	defer rows.Close()

	var postings []types.Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan posting: %w", err)
		}
		postings = append(postings, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list pending postings: %w", err)
	}
	return postings, nil
}

func pendingQuery(limit int, titles []string) (string, []any) {
	query := `SELECT id, title, company_name, raw, processed, result_ref, ingested_at
		FROM postings WHERE processed IS NOT TRUE`
	args := []any{}
	argNum := 1

	if len(titles) > 0 {
		query += fmt.Sprintf(" AND title = ANY($%d)", argNum)
		args = append(args, titles)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY ingested_at DESC, id DESC LIMIT $%d", argNum)
	args = append(args, limit)
	return query, args
}

func scanPosting(row pgx.Row) (*types.Posting, error) {
	var p types.Posting
	var rawJSON []byte
	if err := row.Scan(&p.ID, &p.Title, &p.CompanyName, &rawJSON, &p.Processed, &p.ResultRef, &p.IngestedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rawJSON, &p.Raw); err != nil {
		return nil, fmt.Errorf("failed to decode raw posting %s: %w", p.ID, err)
	}
	return &p, nil
}
