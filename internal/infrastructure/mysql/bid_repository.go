package mysql

import (
	"context"
	"database/sql"
	"errors"

	"marketplace-auction/internal/domain"
)

func (r *MySQLAuctionRepository) AddBid(ctx context.Context, bid *domain.Bid) error {
	query := `
        INSERT INTO bids (uid, auction_id, bidder_id, amount, created_at)
        VALUES (?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		bid.UID, bid.AuctionID, bid.BidderID, bid.Amount, bid.CreatedAt)
	if isDuplicateEntry(err) {
		return domain.ErrDuplicateBid
	}
	return err
}

func (r *MySQLAuctionRepository) FindBid(ctx context.Context, auctionID, bidderID string) (*domain.Bid, error) {
	query := `
        SELECT uid, auction_id, bidder_id, amount, created_at
        FROM bids WHERE auction_id = ? AND bidder_id = ?
    `

	var bid domain.Bid
	err := r.db.QueryRowContext(ctx, query, auctionID, bidderID).Scan(
		&bid.UID, &bid.AuctionID, &bid.BidderID, &bid.Amount, &bid.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func (r *MySQLAuctionRepository) ReadBidByID(ctx context.Context, bidID string) (*domain.Bid, error) {
	query := `
        SELECT uid, auction_id, bidder_id, amount, created_at
        FROM bids WHERE uid = ?
    `

	var bid domain.Bid
	err := r.db.QueryRowContext(ctx, query, bidID).Scan(
		&bid.UID, &bid.AuctionID, &bid.BidderID, &bid.Amount, &bid.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func (r *MySQLAuctionRepository) ChangeBidAmount(ctx context.Context, bidID string, amount int64) error {
	query := `UPDATE bids SET amount = ? WHERE uid = ?`
	_, err := r.db.ExecContext(ctx, query, amount, bidID)
	return err
}

func (r *MySQLAuctionRepository) RemoveBid(ctx context.Context, bidID string) error {
	query := `DELETE FROM bids WHERE uid = ?`
	_, err := r.db.ExecContext(ctx, query, bidID)
	return err
}

func (r *MySQLAuctionRepository) RemoveBidsByAuctionID(ctx context.Context, auctionID string) error {
	query := `DELETE FROM bids WHERE auction_id = ?`
	_, err := r.db.ExecContext(ctx, query, auctionID)
	return err
}

func (r *MySQLAuctionRepository) readBidsByAuctionID(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	query := `
        SELECT uid, auction_id, bidder_id, amount, created_at
        FROM bids WHERE auction_id = ?
        ORDER BY created_at ASC
    `

	rows, err := r.db.QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		var bid domain.Bid
		err := rows.Scan(&bid.UID, &bid.AuctionID, &bid.BidderID, &bid.Amount, &bid.CreatedAt)
		if err != nil {
			return nil, err
		}
		bids = append(bids, &bid)
	}

	return bids, rows.Err()
}
