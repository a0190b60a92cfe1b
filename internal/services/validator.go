package services

import (
	"marketplace-auction/internal/domain"
)

// BidValidator checks bid economics against an auction. Amounts are only
// valid when they land exactly on the starting price plus a whole number
// of minimum raises; amounts between steps are rejected, not rounded.
type BidValidator struct{}

func NewBidValidator() *BidValidator {
	return &BidValidator{}
}

func (v *BidValidator) ValidateBidAmount(auction *domain.Auction, amount int64) error {
	if amount < auction.StartingPrice {
		return domain.ErrBidTooLow
	}
	if (amount-auction.StartingPrice)%auction.MinRaiseAmount() != 0 {
		return domain.ErrInvalidBidAmount
	}
	return nil
}

// MinimumValidBid is the lowest amount that beats the given one, used to
// hint bidders in views.
func (v *BidValidator) MinimumValidBid(auction *domain.Auction, current int64) int64 {
	if current < auction.StartingPrice {
		return auction.StartingPrice
	}
	step := auction.MinRaiseAmount()
	raises := (current-auction.StartingPrice)/step + 1
	return auction.StartingPrice + raises*step
}
