package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/endemicgrants/grant-discovery/internal/core/domain/grant"
)

// GrantRepository defines the interface for workspace grant storage.
type GrantRepository interface {
	Create(ctx context.Context, g *grant.Grant) error
	GetByID(ctx context.Context, id uuid.UUID) (*grant.Grant, error)
	GetByURL(ctx context.Context, url string) (*grant.Grant, error)
	List(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status grant.Status) error
	Count(ctx context.Context) (int, error)
}

// GrantService defines the interface for grant publishing business logic.
type GrantService interface {
	// Publish stores a verified candidate in the workspace. The bool reports
	// whether a new record was created (false when the URL was already known).
	Publish(ctx context.Context, c *grant.Candidate, v *grant.VerificationResult) (*grant.Grant, bool, error)
	GetGrant(ctx context.Context, id uuid.UUID) (*grant.Grant, error)
	ListGrants(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, int, error)
}

// Verifier checks a candidate's fields before it is published.
type Verifier interface {
	VerifyCandidate(c *grant.Candidate) *grant.VerificationResult
}
