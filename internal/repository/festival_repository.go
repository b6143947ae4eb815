package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Moost999/BidUI/internal/model"
)

// ErrFestivalNotFound is returned when a festival id is unknown.
var ErrFestivalNotFound = errors.New("festival not found")

// ErrAuctionNotFound is returned when an auction id is unknown.
var ErrAuctionNotFound = errors.New("auction not found")

// FestivalRepo provides data access to festivals, auctions and their
// option line-ups. Line-ups are immutable once published: options are
// inserted together with their auction in one transaction and never
// updated afterwards, which keeps the engine's in-memory catalog and the
// stored line-up trivially consistent.
type FestivalRepo struct{ DB *sql.DB }

func NewFestivalRepo(db *sql.DB) *FestivalRepo { return &FestivalRepo{DB: db} }

// CreateFestival inserts a festival and returns its ID.
func (r *FestivalRepo) CreateFestival(ctx context.Context, name, slogan string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO festivals (name, slogan) VALUES (?,?)", name, slogan)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// CreateAuction publishes an auction with its option line-up in one
// transaction. Option keys must be unique within the auction; a duplicate
// or an unknown festival id yields ErrConflict.
func (r *FestivalRepo) CreateAuction(ctx context.Context, festivalID uint64, title string, capacity int, options []model.AuctionOption) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var exists uint64
	err = tx.QueryRowContext(ctx, "SELECT id FROM festivals WHERE id=? LIMIT 1", festivalID).Scan(&exists)
	if err == sql.ErrNoRows {
		return 0, ErrFestivalNotFound
	}
	if err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO auctions (festival_id, title, capacity, status) VALUES (?,?,?,'OPEN')",
		festivalID, title, capacity)
	if err != nil {
		return 0, err
	}
	auctionID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, opt := range options {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO auction_options (auction_id, option_key, label) VALUES (?,?,?)",
			auctionID, opt.OptionKey, opt.Label); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "1062") {
				return 0, ErrConflict
			}
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return uint64(auctionID), nil
}

// ListFestivals returns all festivals ordered by creation.
func (r *FestivalRepo) ListFestivals(ctx context.Context) ([]model.Festival, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id,name,slogan,created_at FROM festivals ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Festival
	for rows.Next() {
		var f model.Festival
		if err := rows.Scan(&f.ID, &f.Name, &f.Slogan, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// GetAuction fetches one auction by id.
func (r *FestivalRepo) GetAuction(ctx context.Context, auctionID uint64) (model.Auction, error) {
	var a model.Auction
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,festival_id,title,capacity,status,created_at,updated_at FROM auctions WHERE id=? LIMIT 1",
		auctionID).Scan(&a.ID, &a.FestivalID, &a.Title, &a.Capacity, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return a, ErrAuctionNotFound
	}
	return a, err
}

// ListAuctionsByFestival returns the festival's auctions ordered by id.
func (r *FestivalRepo) ListAuctionsByFestival(ctx context.Context, festivalID uint64) ([]model.Auction, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,festival_id,title,capacity,status,created_at,updated_at FROM auctions WHERE festival_id=? ORDER BY id",
		festivalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuctions(rows)
}

// ListAuctions returns every auction. Used at startup to rebuild the
// engine's catalog from the published line-ups.
func (r *FestivalRepo) ListAuctions(ctx context.Context) ([]model.Auction, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,festival_id,title,capacity,status,created_at,updated_at FROM auctions ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuctions(rows)
}

func scanAuctions(rows *sql.Rows) ([]model.Auction, error) {
	var out []model.Auction
	for rows.Next() {
		var a model.Auction
		if err := rows.Scan(&a.ID, &a.FestivalID, &a.Title, &a.Capacity, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListOptions returns the auction's line-up in insertion order.
func (r *FestivalRepo) ListOptions(ctx context.Context, auctionID uint64) ([]model.AuctionOption, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,auction_id,option_key,label FROM auction_options WHERE auction_id=? ORDER BY id",
		auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.AuctionOption
	for rows.Next() {
		var o model.AuctionOption
		if err := rows.Scan(&o.ID, &o.AuctionID, &o.OptionKey, &o.Label); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// MarkClosed records the OPEN→CLOSED transition. The engine is the
// authority on the transition itself; this only mirrors it durably.
func (r *FestivalRepo) MarkClosed(ctx context.Context, auctionID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE auctions SET status='CLOSED' WHERE id=?", auctionID)
	return err
}
