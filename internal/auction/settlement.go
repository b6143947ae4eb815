package auction

import "fmt"

// SettlementResult is one winning bid in rank order.
type SettlementResult struct {
	Rank   int    `json:"rank"`
	UserID uint64 `json:"user_id"`
	Amount int64  `json:"amount"`
}

// Settle closes the auction if it is still open, ranks all bids on the
// option and settles the outcome exactly once:
//
//   - Bids are ranked by amount descending; ties go to the earlier
//     placement sequence, a deliberate policy choice so equal amounts
//     never settle non-deterministically.
//   - The top winnerSlots bids win and their reservations are permanently
//     spent; every remaining bid is released back to its owner.
//   - Fewer bids than slots is valid and simply yields fewer winners.
//
// The ledger effects are buffered and applied as one batch, so a failure
// (ErrSettlementFailed) leaves no partial state and the call can be
// retried. Settling the same option twice fails with ErrAlreadySettled.
// The exclusive auction lock is held throughout, so no placement or
// withdrawal interleaves with ranking.
func (e *Engine) Settle(auctionID uint64, optionKey string, winnerSlots int) ([]SettlementResult, error) {
	if winnerSlots <= 0 {
		return nil, fmt.Errorf("winner slots must be positive, got %d", winnerSlots)
	}
	a, err := e.catalog.get(auctionID)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	book, err := a.book(optionKey)
	if err != nil {
		return nil, err
	}
	if book.settled {
		return nil, ErrAlreadySettled
	}
	ranked := book.ranked()
	winners := make([]SettlementResult, 0, winnerSlots)
	ops := make([]ledgerOp, 0, len(ranked))
	for i, bid := range ranked {
		if i < winnerSlots {
			winners = append(winners, SettlementResult{Rank: i + 1, UserID: bid.UserID, Amount: bid.Amount})
			ops = append(ops, ledgerOp{userID: bid.UserID, amount: bid.Amount, settle: true})
		} else {
			ops = append(ops, ledgerOp{userID: bid.UserID, amount: bid.Amount, settle: false})
		}
	}
	if err := e.ledger.applySettlement(ops); err != nil {
		// Nothing was applied and the auction keeps its current status, so
		// the caller can retry the call as-is.
		return nil, err
	}
	// The close is atomic with the ranking: the exclusive lock held since
	// entry means no bid was placed after ranking began, and from here on
	// the status rejects new placements outright.
	a.closed = true
	// Bids stay in the book after settlement so the ranking remains
	// auditable and recomputable.
	book.settled = true
	return winners, nil
}
