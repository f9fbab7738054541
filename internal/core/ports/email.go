package ports

import (
	"context"

	"github.com/endemicgrants/grant-discovery/internal/core/domain/grant"
)

// DigestSender delivers a summary of newly published grants.
type DigestSender interface {
	SendDiscoveryDigest(ctx context.Context, grants []*grant.Grant) error
}
