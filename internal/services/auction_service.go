package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-auction/internal/domain"
	"marketplace-auction/pkg/logger"

	"github.com/google/uuid"
)

// AuctionService enforces the auction/bid business rules on top of the
// repository and the marketplace client. It is the only writer of auction
// state; handlers never touch the repository directly.
type AuctionService struct {
	repo        domain.AuctionRepository
	marketplace domain.MarketplaceClient
	eventPub    domain.EventPublisher
	validator   *BidValidator
	log         logger.Logger
}

func NewAuctionService(
	repo domain.AuctionRepository,
	marketplace domain.MarketplaceClient,
	eventPub domain.EventPublisher,
	validator *BidValidator,
	log logger.Logger,
) *AuctionService {
	return &AuctionService{
		repo:        repo,
		marketplace: marketplace,
		eventPub:    eventPub,
		validator:   validator,
		log:         log,
	}
}

// StartAuction opens an auction on a post the seller owns. The promotional
// widget is best effort: its failure is logged but does not undo the
// auction.
func (s *AuctionService) StartAuction(ctx context.Context, sellerID, accessToken, postToken string, startingPrice int64) (*domain.Auction, error) {
	existing, err := s.repo.ReadAuctionByPostToken(ctx, postToken)
	if err != nil {
		return nil, fmt.Errorf("read auction for post %s: %w", postToken, err)
	}
	if existing != nil {
		return nil, domain.ErrAuctionAlreadyStarted
	}

	if _, err := s.marketplace.ValidatePost(ctx, postToken); err != nil {
		return nil, err
	}

	post, err := s.marketplace.FindPostOwnedBy(ctx, postToken, accessToken)
	if err != nil {
		return nil, fmt.Errorf("resolve post ownership for %s: %w", postToken, err)
	}
	if post == nil {
		return nil, domain.ErrForbidden
	}

	auction := &domain.Auction{
		UID:           uuid.NewString(),
		PostToken:     postToken,
		SellerID:      sellerID,
		PostTitle:     post.Title,
		StartingPrice: startingPrice,
		CreatedAt:     time.Now().UTC(),
	}

	// The storage uniqueness constraint closes the race between the read
	// above and this insert.
	if err := s.repo.AddAuction(ctx, auction); err != nil {
		if errors.Is(err, domain.ErrAuctionAlreadyStarted) {
			return nil, err
		}
		return nil, fmt.Errorf("add auction for post %s: %w", postToken, err)
	}

	if err := s.marketplace.CreatePromotionalWidget(ctx, accessToken, postToken, startingPrice); err != nil {
		s.log.Error("Failed to create promotional widget", "post_token", postToken, "error", err)
	}

	s.publishEvent(ctx, &domain.AuctionEvent{
		Type:      domain.EventAuctionStarted,
		PostToken: postToken,
		AuctionID: auction.UID,
		ActorID:   sellerID,
		Amount:    startingPrice,
	})

	s.log.Info("Auction started", "auction_id", auction.UID, "post_token", postToken, "seller_id", sellerID)
	return auction, nil
}

// AuctionIntro returns the auction on a post, or nil when none is running.
// An unknown post reads as a missing auction so visitors can not probe
// which tokens exist.
func (s *AuctionService) AuctionIntro(ctx context.Context, postToken string) (*domain.Auction, error) {
	if _, err := s.marketplace.ValidatePost(ctx, postToken); err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, err
	}
	auction, err := s.repo.ReadAuctionByPostToken(ctx, postToken)
	if err != nil {
		return nil, fmt.Errorf("read auction for post %s: %w", postToken, err)
	}
	return auction, nil
}

// BidderView assembles the bidding page data for a non-seller user.
func (s *AuctionService) BidderView(ctx context.Context, bidderID, postToken string) (*domain.AuctionBidderView, error) {
	auction, err := s.repo.ReadAuctionByPostToken(ctx, postToken)
	if err != nil {
		return nil, fmt.Errorf("read auction for post %s: %w", postToken, err)
	}
	if auction == nil {
		return nil, domain.ErrAuctionNotFound
	}
	if auction.SellerID == bidderID {
		return nil, domain.ErrBidFromSellerNotAllowed
	}

	var lastBid int64
	if bid, err := s.repo.FindBid(ctx, auction.UID, bidderID); err != nil {
		return nil, fmt.Errorf("find bid on auction %s: %w", auction.UID, err)
	} else if bid != nil {
		lastBid = bid.Amount
	}

	return &domain.AuctionBidderView{
		AuctionID:      auction.UID,
		PostToken:      auction.PostToken,
		PostTitle:      auction.PostTitle,
		StartingPrice:  auction.StartingPrice,
		BidsCount:      auction.BidsCount,
		LastBid:        lastBid,
		MinRaiseAmount: auction.MinRaiseAmount(),
		TopBids:        auction.TopBids(),
	}, nil
}

// SellerView returns the auction for its seller, bids included.
func (s *AuctionService) SellerView(ctx context.Context, sellerID, postToken string) (*domain.Auction, error) {
	auction, err := s.repo.ReadAuctionByPostToken(ctx, postToken)
	if err != nil {
		return nil, fmt.Errorf("read auction for post %s: %w", postToken, err)
	}
	if auction == nil {
		return nil, domain.ErrAuctionNotFound
	}
	if auction.SellerID != sellerID {
		return nil, domain.ErrForbidden
	}
	return auction, nil
}

// PlaceBid records or replaces the bidder's single bid on the auction.
// Replacing the amount of a selected bid clears the seller's selection.
func (s *AuctionService) PlaceBid(ctx context.Context, bidderID, postToken string, amount int64) (*domain.Bid, error) {
	auction, err := s.repo.ReadAuctionByPostToken(ctx, postToken)
	if err != nil {
		return nil, fmt.Errorf("read auction for post %s: %w", postToken, err)
	}
	if auction == nil {
		return nil, domain.ErrAuctionNotFound
	}

	if _, err := s.marketplace.ValidatePost(ctx, postToken); err != nil {
		return nil, err
	}

	if auction.SellerID == bidderID {
		return nil, domain.ErrBidFromSellerNotAllowed
	}

	if err := s.validator.ValidateBidAmount(auction, amount); err != nil {
		return nil, err
	}

	bid, err := s.upsertBid(ctx, auction, bidderID, amount)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, &domain.AuctionEvent{
		Type:      domain.EventBidPlaced,
		PostToken: postToken,
		AuctionID: auction.UID,
		ActorID:   bidderID,
		Amount:    amount,
	})

	s.log.Info("Bid placed", "auction_id", auction.UID, "bidder_id", bidderID, "amount", amount)
	return bid, nil
}

func (s *AuctionService) upsertBid(ctx context.Context, auction *domain.Auction, bidderID string, amount int64) (*domain.Bid, error) {
	last, err := s.repo.FindBid(ctx, auction.UID, bidderID)
	if err != nil {
		return nil, fmt.Errorf("find bid on auction %s: %w", auction.UID, err)
	}
	if last != nil {
		return s.replaceBidAmount(ctx, last, amount)
	}

	bid := &domain.Bid{
		UID:       uuid.NewString(),
		AuctionID: auction.UID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
	err = s.repo.AddBid(ctx, bid)
	if errors.Is(err, domain.ErrDuplicateBid) {
		// Lost a race against another request from the same bidder; fall
		// back to updating the row that won.
		last, err = s.repo.FindBid(ctx, auction.UID, bidderID)
		if err != nil {
			return nil, fmt.Errorf("find bid on auction %s: %w", auction.UID, err)
		}
		if last == nil {
			return nil, domain.ErrBidNotFound
		}
		return s.replaceBidAmount(ctx, last, amount)
	}
	if err != nil {
		return nil, fmt.Errorf("add bid on auction %s: %w", auction.UID, err)
	}
	return bid, nil
}

// replaceBidAmount keeps the bid row and id, changes the amount and drops
// any selection pointing at it: a changed amount always needs a fresh
// seller decision.
func (s *AuctionService) replaceBidAmount(ctx context.Context, bid *domain.Bid, amount int64) (*domain.Bid, error) {
	if err := s.repo.ChangeBidAmount(ctx, bid.UID, amount); err != nil {
		return nil, fmt.Errorf("change amount of bid %s: %w", bid.UID, err)
	}
	if err := s.repo.RemoveSelectedBid(ctx, bid.UID); err != nil {
		return nil, fmt.Errorf("clear selection of bid %s: %w", bid.UID, err)
	}
	bid.Amount = amount
	return bid, nil
}

// RemoveBid withdraws the caller's bid. Withdrawing a selected bid clears
// the selection, mirroring the amount-change rule.
func (s *AuctionService) RemoveBid(ctx context.Context, bidderID, postToken string) error {
	auction, err := s.repo.ReadAuctionByPostToken(ctx, postToken)
	if err != nil {
		return fmt.Errorf("read auction for post %s: %w", postToken, err)
	}
	if auction == nil {
		return domain.ErrAuctionNotFound
	}

	bid, err := s.repo.FindBid(ctx, auction.UID, bidderID)
	if err != nil {
		return fmt.Errorf("find bid on auction %s: %w", auction.UID, err)
	}
	if bid == nil {
		return domain.ErrBidNotFound
	}

	if auction.SelectedBid == bid.UID {
		if err := s.repo.RemoveSelectedBid(ctx, bid.UID); err != nil {
			return fmt.Errorf("clear selection of bid %s: %w", bid.UID, err)
		}
	}

	if err := s.repo.RemoveBid(ctx, bid.UID); err != nil {
		return fmt.Errorf("remove bid %s: %w", bid.UID, err)
	}

	s.log.Info("Bid removed", "auction_id", auction.UID, "bidder_id", bidderID)
	return nil
}

// SelectBid marks a bid as the winner. Ownership is checked against the
// marketplace through the access token, not the stored seller id, and any
// bid on the auction may be selected, not only a top one.
func (s *AuctionService) SelectBid(ctx context.Context, sellerID, accessToken, bidID string) (*domain.Auction, error) {
	bid, err := s.repo.ReadBidByID(ctx, bidID)
	if err != nil {
		return nil, fmt.Errorf("read bid %s: %w", bidID, err)
	}
	if bid == nil {
		return nil, domain.ErrBidNotFound
	}

	auction, err := s.repo.ReadAuctionByID(ctx, bid.AuctionID)
	if err != nil {
		return nil, fmt.Errorf("read auction %s: %w", bid.AuctionID, err)
	}
	if auction == nil {
		return nil, domain.ErrAuctionNotFound
	}

	owned, err := s.marketplace.FindPostOwnedBy(ctx, auction.PostToken, accessToken)
	if err != nil {
		return nil, fmt.Errorf("resolve post ownership for %s: %w", auction.PostToken, err)
	}
	if owned == nil {
		return nil, domain.ErrForbidden
	}

	if err := s.repo.SelectBid(ctx, auction.UID, bid.UID); err != nil {
		return nil, fmt.Errorf("select bid %s: %w", bid.UID, err)
	}
	auction.SelectedBid = bid.UID

	s.publishEvent(ctx, &domain.AuctionEvent{
		Type:      domain.EventBidSelected,
		PostToken: auction.PostToken,
		AuctionID: auction.UID,
		ActorID:   sellerID,
		Amount:    bid.Amount,
	})

	s.log.Info("Bid selected", "auction_id", auction.UID, "bid_id", bid.UID)
	return auction, nil
}

// RemoveAuction deletes the auction and its bids. The widget comes off the
// post first; when that fails nothing local is deleted, so the marketplace
// never advertises an auction that is gone (nor the other way around).
func (s *AuctionService) RemoveAuction(ctx context.Context, sellerID, postToken string) (*domain.Auction, error) {
	auction, err := s.repo.ReadAuctionByPostToken(ctx, postToken)
	if err != nil {
		return nil, fmt.Errorf("read auction for post %s: %w", postToken, err)
	}
	if auction == nil {
		return nil, domain.ErrAuctionNotFound
	}
	if auction.SellerID != sellerID {
		return nil, domain.ErrForbidden
	}

	if err := s.marketplace.RemovePromotionalWidget(ctx, postToken); err != nil {
		s.log.Error("Failed to remove promotional widget", "post_token", postToken, "error", err)
		return nil, domain.ErrAuctionRemoveFailure
	}

	if err := s.repo.RemoveAuction(ctx, auction.UID); err != nil {
		return nil, fmt.Errorf("remove auction %s: %w", auction.UID, err)
	}
	if err := s.repo.RemoveBidsByAuctionID(ctx, auction.UID); err != nil {
		return nil, fmt.Errorf("remove bids of auction %s: %w", auction.UID, err)
	}

	s.publishEvent(ctx, &domain.AuctionEvent{
		Type:      domain.EventAuctionRemoved,
		PostToken: postToken,
		AuctionID: auction.UID,
		ActorID:   sellerID,
	})

	s.log.Info("Auction removed", "auction_id", auction.UID, "post_token", postToken)
	return auction, nil
}

func (s *AuctionService) publishEvent(ctx context.Context, event *domain.AuctionEvent) {
	if s.eventPub == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	if err := s.eventPub.PublishAuctionEvent(ctx, event); err != nil {
		s.log.Error("Failed to publish auction event", "type", event.Type,
			"auction_id", event.AuctionID, "error", err)
	}
}
