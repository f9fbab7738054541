package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/endemicgrants/grant-discovery/internal/core/domain/grant"
	"github.com/endemicgrants/grant-discovery/internal/core/ports"
	"github.com/endemicgrants/grant-discovery/internal/infrastructure/db"
)

// GrantRepository implements the workspace grant repository over Postgres.
type GrantRepository struct {
	db *db.Database
}

// NewGrantRepository creates a new grant repository
func NewGrantRepository(database *db.Database) ports.GrantRepository {
	return &GrantRepository{
		db: database,
	}
}

// Create stores a new grant record
func (r *GrantRepository) Create(ctx context.Context, g *grant.Grant) error {
	query := `
		INSERT INTO grants (id, title, organization, url, description, category, priority_score, source_url, deadline, status, discovered_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.DB.ExecContext(ctx, query,
		g.ID, g.Title, g.Organization, g.URL, g.Description, g.Category,
		g.PriorityScore, g.SourceURL, g.Deadline, g.Status, g.DiscoveredAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create grant: %w", err)
	}

	return nil
}

// GetByID retrieves a grant by ID. Absence is reported as (nil, nil) so
// callers can distinguish "not found" from a failing database.
func (r *GrantRepository) GetByID(ctx context.Context, id uuid.UUID) (*grant.Grant, error) {
	var g grant.Grant
	query := `
		SELECT id, title, organization, url, description, category, priority_score, source_url, deadline, status, discovered_at, updated_at
		FROM grants
		WHERE id = $1`

	err := r.db.DB.GetContext(ctx, &g, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get grant by ID: %w", err)
	}

	return &g, nil
}

// GetByURL retrieves a grant by its canonical URL, or (nil, nil) when the
// URL is not in the workspace yet.
func (r *GrantRepository) GetByURL(ctx context.Context, url string) (*grant.Grant, error) {
	var g grant.Grant
	query := `
		SELECT id, title, organization, url, description, category, priority_score, source_url, deadline, status, discovered_at, updated_at
		FROM grants
		WHERE url = $1`

	err := r.db.DB.GetContext(ctx, &g, query, url)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get grant by URL: %w", err)
	}

	return &g, nil
}

// List retrieves grants matching the filter, highest priority first.
func (r *GrantRepository) List(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	query := `
		SELECT id, title, organization, url, description, category, priority_score, source_url, deadline, status, discovered_at, updated_at
		FROM grants
		WHERE 1=1`
	args := []any{}
	argn := 1

	if filter.Status != nil {
		query += ` AND status = $` + strconv.Itoa(argn)
		args = append(args, *filter.Status)
		argn++
	}
	if filter.Category != nil {
		query += ` AND category = $` + strconv.Itoa(argn)
		args = append(args, *filter.Category)
		argn++
	}
	if filter.MinScore > 0 {
		query += ` AND priority_score >= $` + strconv.Itoa(argn)
		args = append(args, filter.MinScore)
		argn++
	}

	query += ` ORDER BY priority_score DESC, discovered_at DESC`
	query += ` LIMIT $` + strconv.Itoa(argn) + ` OFFSET $` + strconv.Itoa(argn+1)
	args = append(args, filter.Limit, filter.Offset)

	var grants []*grant.Grant
	err := r.db.DB.SelectContext(ctx, &grants, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}

	return grants, nil
}

// UpdateStatus moves a grant to a new workflow status.
func (r *GrantRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status grant.Status) error {
	query := `UPDATE grants SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update grant status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("grant with ID %s not found", id)
	}

	return nil
}

// Count returns the total number of grants in the workspace.
func (r *GrantRepository) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM grants`

	err := r.db.DB.GetContext(ctx, &count, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count grants: %w", err)
	}

	return count, nil
}
