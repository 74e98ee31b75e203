package meta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hotosm/odmcatalog/app/db"
)

// Publication records a task made public through the catalog service
type Publication struct {
	ID             int64           `json:"id"`
	ProjectID      int             `json:"project_id"`
	TaskID         string          `json:"task_id"`
	RunID          string          `json:"run_id"`
	UpstreamStatus int             `json:"upstream_status"`
	TaskSnapshot   json.RawMessage `json:"task_snapshot,omitempty"`
	PublishedAt    time.Time       `json:"published_at"`
}

type Store struct {
	db *db.DB
}

func NewStore(db *db.DB) *Store {
	return &Store{db: db}
}

const publicationColumns = `id, project_id, task_id, run_id::text, upstream_status, task_snapshot, published_at`

// RecordPublication stores a publication and returns it as saved
func (s *Store) RecordPublication(ctx context.Context, p Publication) (*Publication, error) {
	var snapshot []byte
	if len(p.TaskSnapshot) > 0 {
		snapshot = p.TaskSnapshot
	}

	query := `
		INSERT INTO odmcatalog_publications
		(project_id, task_id, run_id, upstream_status, task_snapshot)
		VALUES ($1, $2, $3::uuid, $4, $5)
		RETURNING ` + publicationColumns

	saved, err := scanPublication(s.db.Pool.QueryRow(ctx, query, p.ProjectID, p.TaskID, p.RunID, p.UpstreamStatus, snapshot))
	if err != nil {
		return nil, fmt.Errorf("failed to record publication: %w", err)
	}
	return saved, nil
}

// LatestPublication returns the most recent publication of a task, nil if none
func (s *Store) LatestPublication(ctx context.Context, projectID int, taskID string) (*Publication, error) {
	query := `
		SELECT ` + publicationColumns + `
		FROM odmcatalog_publications
		WHERE project_id = $1 AND task_id = $2
		ORDER BY published_at DESC, id DESC
		LIMIT 1
	`

	p, err := scanPublication(s.db.Pool.QueryRow(ctx, query, projectID, taskID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get publication: %w", err)
	}
	return p, nil
}

// ListPublications returns publications newest first. projectID 0 lists
// every project, limit 0 means no limit.
func (s *Store) ListPublications(ctx context.Context, projectID int, limit int) ([]*Publication, error) {
	query := `
		SELECT ` + publicationColumns + `
		FROM odmcatalog_publications
		WHERE 1=1
	`
	args := []any{}
	argCount := 0

	if projectID != 0 {
		argCount++
		query += fmt.Sprintf(" AND project_id = $%d", argCount)
		args = append(args, projectID)
	}

	query += " ORDER BY published_at DESC, id DESC"

	if limit > 0 {
		argCount++
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, limit)
	}

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list publications: %w", err)
	}
	defer rows.Close()

	publications := []*Publication{}
	for rows.Next() {
		p, err := scanPublication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan publication: %w", err)
		}
		publications = append(publications, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list publications: %w", err)
	}
	return publications, nil
}

// PrunePublications deletes publications older than cutoff
func (s *Store) PrunePublications(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.Pool.Exec(ctx, `DELETE FROM odmcatalog_publications WHERE published_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune publications: %w", err)
	}
	return result.RowsAffected(), nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

func scanPublication(row pgx.Row) (*Publication, error) {
	p := &Publication{}
	var snapshot []byte
	err := row.Scan(&p.ID, &p.ProjectID, &p.TaskID, &p.RunID, &p.UpstreamStatus, &snapshot, &p.PublishedAt)
	if err != nil {
		return nil, err
	}
	if len(snapshot) > 0 {
		p.TaskSnapshot = snapshot
	}
	return p, nil
}
