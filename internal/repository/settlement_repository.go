package repository

import (
	"context"
	"database/sql"

	"github.com/Moost999/BidUI/internal/model"
)

// SettlementRepo persists settled rankings so results survive restarts of
// the in-memory engine and stay auditable.
type SettlementRepo struct{ DB *sql.DB }

func NewSettlementRepo(db *sql.DB) *SettlementRepo { return &SettlementRepo{DB: db} }

// InsertResults stores the winners of one settled option in a single
// transaction. Settlement in the engine happens exactly once per option,
// so rows are only ever inserted, never updated.
func (r *SettlementRepo) InsertResults(ctx context.Context, results []model.Settlement) error {
	if len(results) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, s := range results {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO settlements (auction_id, option_key, user_id, amount, `rank`) VALUES (?,?,?,?,?)",
			s.AuctionID, s.OptionKey, s.UserID, s.Amount, s.Rank); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ListByAuction returns all persisted results for an auction ordered by
// option and rank, for the results page.
func (r *SettlementRepo) ListByAuction(ctx context.Context, auctionID uint64) ([]model.Settlement, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,auction_id,option_key,user_id,amount,`rank`,settled_at FROM settlements WHERE auction_id=? ORDER BY option_key, `rank`",
		auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Settlement
	for rows.Next() {
		var s model.Settlement
		if err := rows.Scan(&s.ID, &s.AuctionID, &s.OptionKey, &s.UserID, &s.Amount, &s.Rank, &s.SettledAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// HasResults reports whether the option already has persisted results.
func (r *SettlementRepo) HasResults(ctx context.Context, auctionID uint64, optionKey string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM settlements WHERE auction_id=? AND option_key=? LIMIT 1",
		auctionID, optionKey).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
