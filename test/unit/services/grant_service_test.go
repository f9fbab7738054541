package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	impl "github.com/endemicgrants/grant-discovery/internal/application/services"
	"github.com/endemicgrants/grant-discovery/internal/core/domain/grant"
	"github.com/endemicgrants/grant-discovery/test/mocks"
)

func candidate() *grant.Candidate {
	return &grant.Candidate{
		Title:        "CAREER: Faculty Early Career Development Program",
		Organization: "National Science Foundation",
		URL:          "https://www.nsf.gov/funding/opportunities/career",
		Description:  "Supports early-career faculty.",
		SourceURL:    "https://www.nsf.gov/funding",
	}
}

func TestPublish_NewVerifiedGrant(t *testing.T) {
	var created *grant.Grant
	repo := &mocks.GrantRepositoryMock{
		CreateFn: func(ctx context.Context, g *grant.Grant) error {
			created = g
			return nil
		},
	}
	svc := impl.NewGrantService(repo, testLogger())

	g, wasCreated, err := svc.Publish(context.Background(), candidate(), &grant.VerificationResult{Valid: true, Score: 10})
	require.NoError(t, err)
	assert.True(t, wasCreated)
	require.NotNil(t, created)
	assert.Equal(t, created, g)
	assert.Equal(t, grant.StatusVerified, g.Status)
	assert.NotEqual(t, uuid.Nil, g.ID)
	assert.False(t, g.DiscoveredAt.IsZero())
}

func TestPublish_RejectedCandidateStoredAsRejected(t *testing.T) {
	repo := &mocks.GrantRepositoryMock{}
	svc := impl.NewGrantService(repo, testLogger())

	v := &grant.VerificationResult{}
	v.AddError("deadline 2020-01-01 is in the past")

	g, created, err := svc.Publish(context.Background(), candidate(), v)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, grant.StatusRejected, g.Status)
}

func TestPublish_NoVerificationMeansDiscovered(t *testing.T) {
	svc := impl.NewGrantService(&mocks.GrantRepositoryMock{}, testLogger())

	g, _, err := svc.Publish(context.Background(), candidate(), nil)
	require.NoError(t, err)
	assert.Equal(t, grant.StatusDiscovered, g.Status)
}

func TestPublish_KnownURLIsNotDuplicated(t *testing.T) {
	existing := &grant.Grant{ID: uuid.New(), URL: candidate().URL}
	createCalled := false
	repo := &mocks.GrantRepositoryMock{
		GetByURLFn: func(ctx context.Context, url string) (*grant.Grant, error) {
			return existing, nil
		},
		CreateFn: func(ctx context.Context, g *grant.Grant) error {
			createCalled = true
			return nil
		},
	}
	svc := impl.NewGrantService(repo, testLogger())

	g, created, err := svc.Publish(context.Background(), candidate(), nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing, g)
	assert.False(t, createCalled)
}

func TestPublish_ParsesDeadline(t *testing.T) {
	svc := impl.NewGrantService(&mocks.GrantRepositoryMock{}, testLogger())

	c := candidate()
	c.Deadline = "October 15, 2026"
	g, _, err := svc.Publish(context.Background(), c, nil)
	require.NoError(t, err)
	require.NotNil(t, g.Deadline)
	assert.Equal(t, time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC), g.Deadline.UTC())

	c = candidate()
	c.Deadline = "rolling basis"
	g, _, err = svc.Publish(context.Background(), c, nil)
	require.NoError(t, err)
	assert.Nil(t, g.Deadline)
}

func TestPublish_RepositoryErrorSurfaces(t *testing.T) {
	repo := &mocks.GrantRepositoryMock{
		CreateFn: func(ctx context.Context, g *grant.Grant) error {
			return errors.New("unique constraint violation")
		},
	}
	svc := impl.NewGrantService(repo, testLogger())

	_, _, err := svc.Publish(context.Background(), candidate(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to store grant")
}

func TestGetGrant_NotFound(t *testing.T) {
	svc := impl.NewGrantService(&mocks.GrantRepositoryMock{}, testLogger())

	_, err := svc.GetGrant(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListGrants_AppliesDefaultLimit(t *testing.T) {
	var gotFilter *grant.ListFilter
	repo := &mocks.GrantRepositoryMock{
		ListFn: func(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
			gotFilter = filter
			return []*grant.Grant{{ID: uuid.New()}}, nil
		},
		CountFn: func(ctx context.Context) (int, error) { return 42, nil },
	}
	svc := impl.NewGrantService(repo, testLogger())

	grants, total, err := svc.ListGrants(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, grants, 1)
	assert.Equal(t, 42, total)
	require.NotNil(t, gotFilter)
	assert.Equal(t, 50, gotFilter.Limit)
}
