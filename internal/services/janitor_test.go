package services

import (
	"context"
	"testing"
	"time"

	"marketplace-auction/internal/domain"
	"marketplace-auction/internal/infrastructure/memory"
	"marketplace-auction/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJanitorSweep(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()

	require.NoError(t, repo.AddAuction(ctx, &domain.Auction{UID: "a1", PostToken: "post-1"}))
	require.NoError(t, repo.AddBid(ctx, &domain.Bid{UID: "b1", AuctionID: "a1", BidderID: "bidder-1"}))
	require.NoError(t, repo.AddBid(ctx, &domain.Bid{UID: "b2", AuctionID: "gone", BidderID: "bidder-2"}))

	// nil leader election means this instance always sweeps.
	janitor := NewJanitor(repo, nil, "test-instance", time.Minute, logger.NewNop())
	janitor.Sweep(ctx)

	orphan, err := repo.ReadBidByID(ctx, "b2")
	require.NoError(t, err)
	assert.Nil(t, orphan)

	kept, err := repo.ReadBidByID(ctx, "b1")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

type deniedLeader struct{}

func (deniedLeader) BecomeLeader(ctx context.Context, instanceID string) (bool, error) {
	return false, nil
}
func (deniedLeader) IsLeader(ctx context.Context, instanceID string) (bool, error) {
	return false, nil
}
func (deniedLeader) ReleaseLeadership(ctx context.Context, instanceID string) error { return nil }

func TestJanitorSkipsWhenNotLeader(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	require.NoError(t, repo.AddBid(ctx, &domain.Bid{UID: "b1", AuctionID: "gone", BidderID: "bidder-1"}))

	janitor := NewJanitor(repo, deniedLeader{}, "test-instance", time.Minute, logger.NewNop())
	janitor.Sweep(ctx)

	orphan, err := repo.ReadBidByID(ctx, "b1")
	require.NoError(t, err)
	assert.NotNil(t, orphan)
}
