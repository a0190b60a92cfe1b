package domain

import "errors"

// Lookup failures
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrBidNotFound     = errors.New("bid not found")
	ErrPostNotFound    = errors.New("post not found")
)

// Precondition and authorization failures
var (
	ErrAuctionAlreadyStarted   = errors.New("an auction is already started for this post")
	ErrBidFromSellerNotAllowed = errors.New("the seller can not bid on their own auction")
	ErrForbidden               = errors.New("forbidden")
)

// Bid economics failures
var (
	ErrBidTooLow        = errors.New("bid amount can not be lower than the starting price")
	ErrInvalidBidAmount = errors.New("bid amount must be the starting price plus a multiple of the minimum raise amount")
)

// ErrDuplicateBid is the storage-level signal that a bid from this bidder
// already exists on this auction. Callers fall back to an amount update.
var ErrDuplicateBid = errors.New("a bid from this bidder already exists on this auction")

// ErrAuctionRemoveFailure means the promotional widget could not be removed
// from the marketplace, so the auction was left untouched.
var ErrAuctionRemoveFailure = errors.New("auction removal failed, the promotional widget could not be removed")
