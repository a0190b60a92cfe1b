package services

import (
	"context"
	"testing"

	"marketplace-auction/internal/domain"
	"marketplace-auction/internal/infrastructure/marketplace"
	"marketplace-auction/internal/infrastructure/memory"
	"marketplace-auction/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sellerID    = "seller-1"
	sellerToken = "seller-1-token"
	postToken   = "post-A"
)

func newTestService(t *testing.T) (*AuctionService, *memory.Repository, *marketplace.StubClient) {
	t.Helper()

	repo := memory.NewRepository()
	client := marketplace.NewStubClient()
	client.AddPost(postToken, "Vintage bicycle", sellerToken)

	svc := NewAuctionService(repo, client, nil, NewBidValidator(), logger.NewNop())
	return svc, repo, client
}

func startAuction(t *testing.T, svc *AuctionService, startingPrice int64) *domain.Auction {
	t.Helper()

	auction, err := svc.StartAuction(context.Background(), sellerID, sellerToken, postToken, startingPrice)
	require.NoError(t, err)
	require.NotNil(t, auction)
	return auction
}

func TestStartAuction(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, repo, client := newTestService(t)

		auction := startAuction(t, svc, 1000)
		assert.NotEmpty(t, auction.UID)
		assert.Equal(t, postToken, auction.PostToken)
		assert.Equal(t, sellerID, auction.SellerID)
		assert.Equal(t, "Vintage bicycle", auction.PostTitle)
		assert.Equal(t, domain.AuctionOpen, auction.State())

		stored, err := repo.ReadAuctionByPostToken(ctx, postToken)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, auction.UID, stored.UID)

		assert.Equal(t, []string{postToken}, client.CreatedWidgets)
	})

	t.Run("unknown post", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.StartAuction(ctx, sellerID, sellerToken, "no-such-post", 1000)
		assert.ErrorIs(t, err, domain.ErrPostNotFound)
	})

	t.Run("post not owned by caller", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.StartAuction(ctx, "someone-else", "other-token", postToken, 1000)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("second auction on the same post", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		startAuction(t, svc, 1000)

		_, err := svc.StartAuction(ctx, sellerID, sellerToken, postToken, 2000)
		assert.ErrorIs(t, err, domain.ErrAuctionAlreadyStarted)
	})
}

func TestAuctionIntro(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown post reads as missing auction", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.AuctionIntro(ctx, "no-such-post")
		assert.ErrorIs(t, err, domain.ErrAuctionNotFound)
	})

	t.Run("known post without auction", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		auction, err := svc.AuctionIntro(ctx, postToken)
		require.NoError(t, err)
		assert.Nil(t, auction)
	})

	t.Run("running auction", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		started := startAuction(t, svc, 1000)

		auction, err := svc.AuctionIntro(ctx, postToken)
		require.NoError(t, err)
		require.NotNil(t, auction)
		assert.Equal(t, started.UID, auction.UID)
	})
}

func TestBidderView(t *testing.T) {
	ctx := context.Background()

	t.Run("seller can not open the bidding page", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		startAuction(t, svc, 1000)

		_, err := svc.BidderView(ctx, sellerID, postToken)
		assert.ErrorIs(t, err, domain.ErrBidFromSellerNotAllowed)
	})

	t.Run("no auction", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.BidderView(ctx, "bidder-1", postToken)
		assert.ErrorIs(t, err, domain.ErrAuctionNotFound)
	})

	t.Run("view reflects own bid and top bids", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		startAuction(t, svc, 1000)

		amounts := map[string]int64{
			"bidder-1": 1000 + 1*500000,
			"bidder-2": 1000 + 4*500000,
			"bidder-3": 1000 + 2*500000,
			"bidder-4": 1000 + 3*500000,
		}
		for bidder, amount := range amounts {
			_, err := svc.PlaceBid(ctx, bidder, postToken, amount)
			require.NoError(t, err)
		}

		view, err := svc.BidderView(ctx, "bidder-3", postToken)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), view.StartingPrice)
		assert.Equal(t, domain.MinRaiseFloor, view.MinRaiseAmount)
		assert.Equal(t, 4, view.BidsCount)
		assert.Equal(t, amounts["bidder-3"], view.LastBid)

		require.Len(t, view.TopBids, domain.TopBidsCount)
		assert.Equal(t, amounts["bidder-2"], view.TopBids[0].Amount)
		assert.Equal(t, amounts["bidder-4"], view.TopBids[1].Amount)
		assert.Equal(t, amounts["bidder-3"], view.TopBids[2].Amount)
	})

	t.Run("no own bid yet", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		startAuction(t, svc, 1000)

		view, err := svc.BidderView(ctx, "bidder-1", postToken)
		require.NoError(t, err)
		assert.Zero(t, view.LastBid)
	})
}

func TestSellerView(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	startAuction(t, svc, 1000)

	_, err := svc.PlaceBid(ctx, "bidder-1", postToken, 501000)
	require.NoError(t, err)

	t.Run("seller sees bids", func(t *testing.T) {
		auction, err := svc.SellerView(ctx, sellerID, postToken)
		require.NoError(t, err)
		assert.Equal(t, 1, auction.BidsCount)
		require.Len(t, auction.Bids, 1)
		assert.Equal(t, "bidder-1", auction.Bids[0].BidderID)
	})

	t.Run("other users are rejected", func(t *testing.T) {
		_, err := svc.SellerView(ctx, "bidder-1", postToken)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestPlaceBid(t *testing.T) {
	ctx := context.Background()

	t.Run("seller can not bid", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		startAuction(t, svc, 1000)

		_, err := svc.PlaceBid(ctx, sellerID, postToken, 501000)
		assert.ErrorIs(t, err, domain.ErrBidFromSellerNotAllowed)
	})

	t.Run("invalid amounts", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		startAuction(t, svc, 1000)

		_, err := svc.PlaceBid(ctx, "bidder-1", postToken, 999)
		assert.ErrorIs(t, err, domain.ErrBidTooLow)

		_, err = svc.PlaceBid(ctx, "bidder-1", postToken, 1500)
		assert.ErrorIs(t, err, domain.ErrInvalidBidAmount)
	})

	t.Run("rebidding replaces the bid in place", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		auction := startAuction(t, svc, 1000)

		first, err := svc.PlaceBid(ctx, "bidder-1", postToken, 501000)
		require.NoError(t, err)

		second, err := svc.PlaceBid(ctx, "bidder-1", postToken, 1001000)
		require.NoError(t, err)

		assert.Equal(t, first.UID, second.UID)
		assert.Equal(t, int64(1001000), second.Amount)

		stored, err := repo.ReadAuctionByID(ctx, auction.UID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.BidsCount)
	})

	t.Run("changing a selected bid clears the selection", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		auction := startAuction(t, svc, 1000)

		bid, err := svc.PlaceBid(ctx, "bidder-1", postToken, 501000)
		require.NoError(t, err)

		_, err = svc.SelectBid(ctx, sellerID, sellerToken, bid.UID)
		require.NoError(t, err)

		_, err = svc.PlaceBid(ctx, "bidder-1", postToken, 1001000)
		require.NoError(t, err)

		stored, err := repo.ReadAuctionByID(ctx, auction.UID)
		require.NoError(t, err)
		assert.Empty(t, stored.SelectedBid)
		assert.Equal(t, domain.AuctionOpen, stored.State())
	})

	t.Run("no auction on the post", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.PlaceBid(ctx, "bidder-1", postToken, 501000)
		assert.ErrorIs(t, err, domain.ErrAuctionNotFound)
	})
}

func TestRemoveBid(t *testing.T) {
	ctx := context.Background()

	t.Run("withdraw own bid", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		auction := startAuction(t, svc, 1000)

		_, err := svc.PlaceBid(ctx, "bidder-1", postToken, 501000)
		require.NoError(t, err)

		require.NoError(t, svc.RemoveBid(ctx, "bidder-1", postToken))

		stored, err := repo.ReadAuctionByID(ctx, auction.UID)
		require.NoError(t, err)
		assert.Zero(t, stored.BidsCount)
	})

	t.Run("withdrawing the selected bid reopens the auction", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		auction := startAuction(t, svc, 1000)

		bid, err := svc.PlaceBid(ctx, "bidder-1", postToken, 501000)
		require.NoError(t, err)
		_, err = svc.SelectBid(ctx, sellerID, sellerToken, bid.UID)
		require.NoError(t, err)

		require.NoError(t, svc.RemoveBid(ctx, "bidder-1", postToken))

		stored, err := repo.ReadAuctionByID(ctx, auction.UID)
		require.NoError(t, err)
		assert.Empty(t, stored.SelectedBid)
	})

	t.Run("nothing to withdraw", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		startAuction(t, svc, 1000)

		err := svc.RemoveBid(ctx, "bidder-1", postToken)
		assert.ErrorIs(t, err, domain.ErrBidNotFound)
	})
}

func TestSelectBid(t *testing.T) {
	ctx := context.Background()

	t.Run("select a winner", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		started := startAuction(t, svc, 1000)

		low, err := svc.PlaceBid(ctx, "bidder-1", postToken, 501000)
		require.NoError(t, err)
		_, err = svc.PlaceBid(ctx, "bidder-2", postToken, 1001000)
		require.NoError(t, err)

		// Any bid may win, not only the highest.
		auction, err := svc.SelectBid(ctx, sellerID, sellerToken, low.UID)
		require.NoError(t, err)
		assert.Equal(t, started.UID, auction.UID)
		assert.Equal(t, low.UID, auction.SelectedBid)

		stored, err := repo.ReadAuctionByID(ctx, started.UID)
		require.NoError(t, err)
		assert.Equal(t, domain.AuctionAwarded, stored.State())
	})

	t.Run("caller does not own the post", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		startAuction(t, svc, 1000)

		bid, err := svc.PlaceBid(ctx, "bidder-1", postToken, 501000)
		require.NoError(t, err)

		_, err = svc.SelectBid(ctx, "intruder", "intruder-token", bid.UID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("unknown bid", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.SelectBid(ctx, sellerID, sellerToken, "no-such-bid")
		assert.ErrorIs(t, err, domain.ErrBidNotFound)
	})
}

func TestRemoveAuction(t *testing.T) {
	ctx := context.Background()

	t.Run("removes auction and bids", func(t *testing.T) {
		svc, repo, client := newTestService(t)
		started := startAuction(t, svc, 1000)

		_, err := svc.PlaceBid(ctx, "bidder-1", postToken, 501000)
		require.NoError(t, err)

		removed, err := svc.RemoveAuction(ctx, sellerID, postToken)
		require.NoError(t, err)
		assert.Equal(t, started.UID, removed.UID)
		assert.Equal(t, []string{postToken}, client.RemovedWidgets)

		auction, err := repo.ReadAuctionByPostToken(ctx, postToken)
		require.NoError(t, err)
		assert.Nil(t, auction)

		orphans, err := repo.RemoveOrphanedBids(ctx)
		require.NoError(t, err)
		assert.Zero(t, orphans)
	})

	t.Run("widget removal failure keeps everything", func(t *testing.T) {
		svc, repo, client := newTestService(t)
		started := startAuction(t, svc, 1000)
		client.FailWidgetRemoval = true

		_, err := svc.RemoveAuction(ctx, sellerID, postToken)
		assert.ErrorIs(t, err, domain.ErrAuctionRemoveFailure)

		auction, err := repo.ReadAuctionByID(ctx, started.UID)
		require.NoError(t, err)
		assert.NotNil(t, auction)
	})

	t.Run("only the seller may remove", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		startAuction(t, svc, 1000)

		_, err := svc.RemoveAuction(ctx, "bidder-1", postToken)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("post can host a new auction afterwards", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		startAuction(t, svc, 1000)

		_, err := svc.RemoveAuction(ctx, sellerID, postToken)
		require.NoError(t, err)

		_, err = svc.StartAuction(ctx, sellerID, sellerToken, postToken, 2000)
		assert.NoError(t, err)
	})
}
