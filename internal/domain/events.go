package domain

import "time"

type AuctionEventType string

const (
	EventAuctionStarted AuctionEventType = "auction_started"
	EventBidPlaced      AuctionEventType = "bid_placed"
	EventBidSelected    AuctionEventType = "bid_selected"
	EventAuctionRemoved AuctionEventType = "auction_removed"
)

// AuctionEvent is published after a successful state change. Consumers get
// the post token so live pages can subscribe without knowing auction ids.
type AuctionEvent struct {
	Type      AuctionEventType `json:"type"`
	PostToken string           `json:"post_token"`
	AuctionID string           `json:"auction_id"`
	ActorID   string           `json:"actor_id,omitempty"`
	Amount    int64            `json:"amount,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
