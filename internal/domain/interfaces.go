package domain

import "context"

// AuctionRepository is durable storage for auctions and bids. It performs
// no business validation; lookups return (nil, nil) when nothing matches.
type AuctionRepository interface {
	AddAuction(ctx context.Context, auction *Auction) error
	RemoveAuction(ctx context.Context, auctionID string) error
	ReadAuctionByPostToken(ctx context.Context, postToken string) (*Auction, error)
	ReadAuctionByID(ctx context.Context, auctionID string) (*Auction, error)

	AddBid(ctx context.Context, bid *Bid) error
	FindBid(ctx context.Context, auctionID, bidderID string) (*Bid, error)
	ReadBidByID(ctx context.Context, bidID string) (*Bid, error)
	ChangeBidAmount(ctx context.Context, bidID string, amount int64) error
	RemoveBid(ctx context.Context, bidID string) error
	RemoveBidsByAuctionID(ctx context.Context, auctionID string) error

	SelectBid(ctx context.Context, auctionID, bidID string) error
	// RemoveSelectedBid clears the selection on whichever auction currently
	// points at this bid id.
	RemoveSelectedBid(ctx context.Context, bidID string) error
}

// Post is a classified-ad listing on the external marketplace.
type Post struct {
	Token string `json:"token"`
	Title string `json:"title"`
}

// MarketplaceClient talks to the external marketplace platform that owns
// posts, user identity and promotional widgets.
type MarketplaceClient interface {
	// ValidatePost confirms the post exists and is published.
	// Returns ErrPostNotFound otherwise.
	ValidatePost(ctx context.Context, postToken string) (*Post, error)
	// FindPostOwnedBy returns the post when it belongs to the user behind
	// the access token, (nil, nil) when it does not.
	FindPostOwnedBy(ctx context.Context, postToken, accessToken string) (*Post, error)
	CreatePromotionalWidget(ctx context.Context, accessToken, postToken string, startingPrice int64) error
	RemovePromotionalWidget(ctx context.Context, postToken string) error
}

// Event interfaces
type EventPublisher interface {
	PublishAuctionEvent(ctx context.Context, event *AuctionEvent) error
}

type EventHandler func(event *AuctionEvent) error

type EventSubscriber interface {
	SubscribeToAuctionEvents(ctx context.Context, handler EventHandler) error
}

// Leader election interface
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

// WebSocket interfaces
type WebSocketConnection interface {
	Send(message interface{}) error
	Close() error
	UserID() string
	PostToken() string
}

type ConnectionManager interface {
	RegisterConnection(userID, postToken string, conn WebSocketConnection) error
	UnregisterConnection(userID, postToken string) error
	GetConnectionsForPost(postToken string) []WebSocketConnection
	BroadcastToPost(postToken string, message interface{}) error
	CloseAndUnregisterConnections(postToken string) error
}
