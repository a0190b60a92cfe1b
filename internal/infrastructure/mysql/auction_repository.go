package mysql

import (
	"context"
	"database/sql"
	"errors"

	"marketplace-auction/internal/domain"

	"github.com/go-sql-driver/mysql"
)

const duplicateEntryErrNo = 1062

type MySQLAuctionRepository struct {
	db *sql.DB
}

func NewMySQLAuctionRepository(db *sql.DB) *MySQLAuctionRepository {
	return &MySQLAuctionRepository{db: db}
}

// EnsureSchema creates the auction tables when they do not exist yet.
// Uniqueness of post_token and of (auction_id, bidder_id) lives here so
// concurrent check-then-act callers can not slip duplicate rows in.
func (r *MySQLAuctionRepository) EnsureSchema(ctx context.Context) error {
	auctions := `
        CREATE TABLE IF NOT EXISTS auctions (
            uid CHAR(36) NOT NULL,
            post_token VARCHAR(64) NOT NULL,
            seller_id VARCHAR(64) NOT NULL,
            post_title VARCHAR(255) NOT NULL DEFAULT '',
            starting_price BIGINT NOT NULL,
            selected_bid CHAR(36) NULL,
            created_at DATETIME NOT NULL,
            PRIMARY KEY (uid),
            UNIQUE KEY uniq_auctions_post_token (post_token)
        )
    `
	bids := `
        CREATE TABLE IF NOT EXISTS bids (
            uid CHAR(36) NOT NULL,
            auction_id CHAR(36) NOT NULL,
            bidder_id VARCHAR(64) NOT NULL,
            amount BIGINT NOT NULL,
            created_at DATETIME NOT NULL,
            PRIMARY KEY (uid),
            UNIQUE KEY uniq_bids_auction_bidder (auction_id, bidder_id),
            KEY idx_bids_auction (auction_id)
        )
    `
	if _, err := r.db.ExecContext(ctx, auctions); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, bids)
	return err
}

func (r *MySQLAuctionRepository) AddAuction(ctx context.Context, auction *domain.Auction) error {
	query := `
        INSERT INTO auctions (uid, post_token, seller_id, post_title, starting_price, selected_bid, created_at)
        VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		auction.UID, auction.PostToken, auction.SellerID, auction.PostTitle,
		auction.StartingPrice, auction.SelectedBid, auction.CreatedAt)
	if isDuplicateEntry(err) {
		return domain.ErrAuctionAlreadyStarted
	}
	return err
}

func (r *MySQLAuctionRepository) RemoveAuction(ctx context.Context, auctionID string) error {
	query := `DELETE FROM auctions WHERE uid = ?`
	_, err := r.db.ExecContext(ctx, query, auctionID)
	return err
}

func (r *MySQLAuctionRepository) ReadAuctionByPostToken(ctx context.Context, postToken string) (*domain.Auction, error) {
	query := `
        SELECT uid, post_token, seller_id, post_title, starting_price, COALESCE(selected_bid, ''), created_at
        FROM auctions WHERE post_token = ?
    `
	return r.readAuction(ctx, query, postToken)
}

func (r *MySQLAuctionRepository) ReadAuctionByID(ctx context.Context, auctionID string) (*domain.Auction, error) {
	query := `
        SELECT uid, post_token, seller_id, post_title, starting_price, COALESCE(selected_bid, ''), created_at
        FROM auctions WHERE uid = ?
    `
	return r.readAuction(ctx, query, auctionID)
}

func (r *MySQLAuctionRepository) readAuction(ctx context.Context, query string, arg interface{}) (*domain.Auction, error) {
	var auction domain.Auction

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&auction.UID, &auction.PostToken, &auction.SellerID, &auction.PostTitle,
		&auction.StartingPrice, &auction.SelectedBid, &auction.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	bids, err := r.readBidsByAuctionID(ctx, auction.UID)
	if err != nil {
		return nil, err
	}
	auction.Bids = bids
	auction.BidsCount = len(bids)
	return &auction, nil
}

func (r *MySQLAuctionRepository) SelectBid(ctx context.Context, auctionID, bidID string) error {
	query := `UPDATE auctions SET selected_bid = ? WHERE uid = ?`
	_, err := r.db.ExecContext(ctx, query, bidID, auctionID)
	return err
}

func (r *MySQLAuctionRepository) RemoveSelectedBid(ctx context.Context, bidID string) error {
	query := `UPDATE auctions SET selected_bid = NULL WHERE selected_bid = ?`
	_, err := r.db.ExecContext(ctx, query, bidID)
	return err
}

// RemoveDanglingSelections clears selected_bid values whose bid row is gone.
// Used by the janitor sweep.
func (r *MySQLAuctionRepository) RemoveDanglingSelections(ctx context.Context) (int64, error) {
	query := `
        UPDATE auctions SET selected_bid = NULL
        WHERE selected_bid IS NOT NULL
          AND NOT EXISTS (SELECT 1 FROM bids WHERE bids.uid = auctions.selected_bid)
    `
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RemoveOrphanedBids deletes bids whose auction row is gone, e.g. after a
// crash between the two-step auction delete. Used by the janitor sweep.
func (r *MySQLAuctionRepository) RemoveOrphanedBids(ctx context.Context) (int64, error) {
	query := `
        DELETE FROM bids
        WHERE NOT EXISTS (SELECT 1 FROM auctions WHERE auctions.uid = bids.auction_id)
    `
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == duplicateEntryErrNo
}
