package memory

import (
	"context"
	"sync"

	"marketplace-auction/internal/domain"
)

// Repository is a concurrency-safe in-memory AuctionRepository. State is
// scoped to the instance, so tests and dev servers get isolated stores.
type Repository struct {
	mu           sync.RWMutex
	auctions     map[string]*domain.Auction // auction UID -> auction
	auctionByTok map[string]string          // post token -> auction UID
	bids         map[string]*domain.Bid     // bid UID -> bid
}

func NewRepository() *Repository {
	return &Repository{
		auctions:     make(map[string]*domain.Auction),
		auctionByTok: make(map[string]string),
		bids:         make(map[string]*domain.Bid),
	}
}

func (r *Repository) AddAuction(ctx context.Context, auction *domain.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.auctionByTok[auction.PostToken]; exists {
		return domain.ErrAuctionAlreadyStarted
	}
	stored := *auction
	stored.Bids = nil
	r.auctions[auction.UID] = &stored
	r.auctionByTok[auction.PostToken] = auction.UID
	return nil
}

func (r *Repository) RemoveAuction(ctx context.Context, auctionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	auction, exists := r.auctions[auctionID]
	if !exists {
		return nil
	}
	delete(r.auctionByTok, auction.PostToken)
	delete(r.auctions, auctionID)
	return nil
}

func (r *Repository) ReadAuctionByPostToken(ctx context.Context, postToken string) (*domain.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auctionID, exists := r.auctionByTok[postToken]
	if !exists {
		return nil, nil
	}
	return r.auctionView(auctionID), nil
}

func (r *Repository) ReadAuctionByID(ctx context.Context, auctionID string) (*domain.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.auctions[auctionID]; !exists {
		return nil, nil
	}
	return r.auctionView(auctionID), nil
}

// auctionView copies the auction and recomputes the bid list and count.
// Callers must hold at least the read lock.
func (r *Repository) auctionView(auctionID string) *domain.Auction {
	stored := r.auctions[auctionID]
	view := *stored
	view.Bids = nil
	for _, bid := range r.bids {
		if bid.AuctionID == auctionID {
			b := *bid
			view.Bids = append(view.Bids, &b)
		}
	}
	view.BidsCount = len(view.Bids)
	return &view
}

func (r *Repository) AddBid(ctx context.Context, bid *domain.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.bids {
		if existing.AuctionID == bid.AuctionID && existing.BidderID == bid.BidderID {
			return domain.ErrDuplicateBid
		}
	}
	stored := *bid
	r.bids[bid.UID] = &stored
	return nil
}

func (r *Repository) FindBid(ctx context.Context, auctionID, bidderID string) (*domain.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, bid := range r.bids {
		if bid.AuctionID == auctionID && bid.BidderID == bidderID {
			found := *bid
			return &found, nil
		}
	}
	return nil, nil
}

func (r *Repository) ReadBidByID(ctx context.Context, bidID string) (*domain.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bid, exists := r.bids[bidID]
	if !exists {
		return nil, nil
	}
	found := *bid
	return &found, nil
}

func (r *Repository) ChangeBidAmount(ctx context.Context, bidID string, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bid, exists := r.bids[bidID]
	if !exists {
		return domain.ErrBidNotFound
	}
	bid.Amount = amount
	return nil
}

func (r *Repository) RemoveBid(ctx context.Context, bidID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.bids, bidID)
	return nil
}

func (r *Repository) RemoveBidsByAuctionID(ctx context.Context, auctionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for uid, bid := range r.bids {
		if bid.AuctionID == auctionID {
			delete(r.bids, uid)
		}
	}
	return nil
}

func (r *Repository) SelectBid(ctx context.Context, auctionID, bidID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	auction, exists := r.auctions[auctionID]
	if !exists {
		return domain.ErrAuctionNotFound
	}
	auction.SelectedBid = bidID
	return nil
}

func (r *Repository) RemoveSelectedBid(ctx context.Context, bidID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, auction := range r.auctions {
		if auction.SelectedBid == bidID {
			auction.SelectedBid = ""
		}
	}
	return nil
}

// RemoveOrphanedBids deletes bids whose auction is gone. Janitor support.
func (r *Repository) RemoveOrphanedBids(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for uid, bid := range r.bids {
		if _, exists := r.auctions[bid.AuctionID]; !exists {
			delete(r.bids, uid)
			removed++
		}
	}
	return removed, nil
}

// RemoveDanglingSelections clears selections pointing at deleted bids.
func (r *Repository) RemoveDanglingSelections(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cleared int64
	for _, auction := range r.auctions {
		if auction.SelectedBid == "" {
			continue
		}
		if _, exists := r.bids[auction.SelectedBid]; !exists {
			auction.SelectedBid = ""
			cleared++
		}
	}
	return cleared, nil
}
