package domain

import (
	"sort"
	"time"
)

// Monetary amounts are integers in the smallest currency unit.
const (
	// MinRaiseFloor is the lowest allowed raise step regardless of price.
	MinRaiseFloor int64 = 500000

	// TopBidsCount is how many leading bids are shown to bidders.
	TopBidsCount = 3
)

type Auction struct {
	UID           string
	PostToken     string
	SellerID      string
	PostTitle     string
	StartingPrice int64
	BidsCount     int
	SelectedBid   string // bid UID, empty while the auction is open
	Bids          []*Bid
	CreatedAt     time.Time
}

type Bid struct {
	UID       string
	AuctionID string
	BidderID  string
	Amount    int64
	CreatedAt time.Time
}

type AuctionState int

const (
	AuctionOpen AuctionState = iota
	AuctionAwarded
)

func (s AuctionState) String() string {
	switch s {
	case AuctionOpen:
		return "open"
	case AuctionAwarded:
		return "awarded"
	default:
		return "unknown"
	}
}

// State derives the auction state from the selected bid reference.
func (a *Auction) State() AuctionState {
	if a.SelectedBid == "" {
		return AuctionOpen
	}
	return AuctionAwarded
}

// MinRaiseAmount is the only valid bid step above the starting price:
// max(MinRaiseFloor, 5% of the starting price), integer arithmetic.
func (a *Auction) MinRaiseAmount() int64 {
	raiseMin := a.StartingPrice * 5 / 100
	if raiseMin < MinRaiseFloor {
		return MinRaiseFloor
	}
	return raiseMin
}

// TopBids returns the highest bids sorted descending by amount, truncated
// to TopBidsCount. Ties keep insertion order.
func (a *Auction) TopBids() []*Bid {
	top := make([]*Bid, len(a.Bids))
	copy(top, a.Bids)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Amount > top[j].Amount
	})
	if len(top) > TopBidsCount {
		top = top[:TopBidsCount]
	}
	return top
}

// AuctionBidderView is what a bidder sees on the bidding page.
type AuctionBidderView struct {
	AuctionID      string `json:"auction_id"`
	PostToken      string `json:"post_token"`
	PostTitle      string `json:"post_title"`
	StartingPrice  int64  `json:"starting_price"`
	BidsCount      int    `json:"bids_count"`
	LastBid        int64  `json:"last_bid"`
	MinRaiseAmount int64  `json:"min_raise_amount"`
	TopBids        []*Bid `json:"top_bids"`
}
