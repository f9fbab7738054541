package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/endemicgrants/grant-discovery/internal/core/domain/grant"
	"github.com/endemicgrants/grant-discovery/internal/core/ports"
)

const defaultListLimit = 50

// GrantServiceImpl publishes verified candidates into the workspace
// repository and serves read queries.
type GrantServiceImpl struct {
	repo   ports.GrantRepository
	logger *logrus.Logger
}

func NewGrantService(repo ports.GrantRepository, logger *logrus.Logger) *GrantServiceImpl {
	return &GrantServiceImpl{repo: repo, logger: logger}
}

// Publish stores a candidate. A URL already in the workspace is not stored
// again; the existing record is returned with created=false. Candidates that
// failed verification are stored as rejected so a re-run does not rediscover
// them.
func (s *GrantServiceImpl) Publish(ctx context.Context, c *grant.Candidate, v *grant.VerificationResult) (*grant.Grant, bool, error) {
	if c == nil {
		return nil, false, fmt.Errorf("candidate is required")
	}

	existing, err := s.repo.GetByURL(ctx, c.URL)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check for existing grant: %w", err)
	}
	if existing != nil {
		s.logger.WithFields(logrus.Fields{
			"url":      c.URL,
			"grant_id": existing.ID,
		}).Debug("grant already in workspace, skipping")
		return existing, false, nil
	}

	status := grant.StatusDiscovered
	if v != nil {
		if v.Valid {
			status = grant.StatusVerified
		} else {
			status = grant.StatusRejected
		}
	}

	now := time.Now()
	g := &grant.Grant{
		ID:            uuid.New(),
		Title:         c.Title,
		Organization:  c.Organization,
		URL:           c.URL,
		Description:   c.Description,
		Category:      c.Category,
		PriorityScore: c.PriorityScore,
		SourceURL:     c.SourceURL,
		Status:        status,
		DiscoveredAt:  now,
		UpdatedAt:     now,
	}
	if c.Deadline != "" {
		if deadline, ok := ParseDeadline(c.Deadline); ok {
			g.Deadline = &deadline
		}
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return nil, false, fmt.Errorf("failed to store grant: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"grant_id": g.ID,
		"title":    g.Title,
		"status":   g.Status,
	}).Info("published grant to workspace")

	return g, true, nil
}

func (s *GrantServiceImpl) GetGrant(ctx context.Context, id uuid.UUID) (*grant.Grant, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get grant: %w", err)
	}
	if g == nil {
		return nil, fmt.Errorf("grant not found")
	}
	return g, nil
}

func (s *GrantServiceImpl) ListGrants(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, int, error) {
	if filter == nil {
		filter = &grant.ListFilter{}
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}

	grants, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list grants: %w", err)
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count grants: %w", err)
	}

	return grants, total, nil
}

var _ ports.GrantService = (*GrantServiceImpl)(nil)
