package auction

import "sort"

// Bid is one user's active bid on an option. A user holds at most one bid
// per option; a later bid by the same user replaces the earlier one. The
// placement sequence is a monotonically increasing counter issued by the
// engine and breaks ties deterministically at settlement (earlier wins).
type Bid struct {
	UserID      uint64 `json:"user_id"`
	Amount      int64  `json:"amount"`
	PlacedAtSeq uint64 `json:"placed_at_seq"`
}

// BidBook holds all active bids for a single option. Outbid bids are never
// removed: settlement ranks the full bid pool, not just the current
// leader, so the book is append-only keyed by user with replace-on-resubmit
// semantics. Locking is provided by the owning auction; the book itself is
// not safe for concurrent use.
type BidBook struct {
	bids    map[uint64]*Bid
	settled bool
}

func newBidBook() *BidBook {
	return &BidBook{bids: make(map[uint64]*Bid)}
}

// leading returns the highest bid amount in the book, 0 when empty.
func (b *BidBook) leading() int64 {
	var max int64
	for _, bid := range b.bids {
		if bid.Amount > max {
			max = bid.Amount
		}
	}
	return max
}

// leadingExcluding returns the highest amount among bids not owned by
// userID. This is the effective leading amount a placer must exceed, so
// that a user raising their own leading bid is not blocked by it.
func (b *BidBook) leadingExcluding(userID uint64) int64 {
	var max int64
	for _, bid := range b.bids {
		if bid.UserID == userID {
			continue
		}
		if bid.Amount > max {
			max = bid.Amount
		}
	}
	return max
}

// leader returns the current leading bid, nil when the book is empty.
func (b *BidBook) leader() *Bid {
	var top *Bid
	for _, bid := range b.bids {
		if top == nil || bid.Amount > top.Amount ||
			(bid.Amount == top.Amount && bid.PlacedAtSeq < top.PlacedAtSeq) {
			top = bid
		}
	}
	return top
}

// place validates and records a bid according to the placement protocol:
//
//  1. The amount must exceed the leading amount among other users' bids.
//  2. A replacement must also raise the user's own prior bid, keeping the
//     option's leading amount non-decreasing.
//  3. The prior reservation, if any, is exchanged for the new amount in a
//     single atomic ledger operation, so raising a bid only charges the
//     delta and a rejected placement mutates nothing. The ledger is shared
//     across auctions, so the prior points must never be transiently
//     released where a concurrent bid elsewhere could consume them.
//
// On success the bid is recorded with the given placement sequence and the
// option's new leading amount (the bid's amount) is returned.
func (b *BidBook) place(ledger *Ledger, userID uint64, amount int64, seq uint64) (int64, error) {
	if amount <= b.leadingExcluding(userID) {
		return 0, ErrBidTooLow
	}
	var prior int64
	if existing, ok := b.bids[userID]; ok {
		if amount <= existing.Amount {
			return 0, ErrBidTooLow
		}
		prior = existing.Amount
	}
	if err := ledger.swapReservation(userID, prior, amount); err != nil {
		return 0, err
	}
	b.bids[userID] = &Bid{UserID: userID, Amount: amount, PlacedAtSeq: seq}
	return amount, nil
}

// withdraw removes the user's bid and releases its reservation. Fails with
// ErrNoSuchBid when the user holds no bid on this option.
func (b *BidBook) withdraw(ledger *Ledger, userID uint64) error {
	bid, ok := b.bids[userID]
	if !ok {
		return ErrNoSuchBid
	}
	ledger.Release(userID, bid.Amount)
	delete(b.bids, userID)
	return nil
}

// has reports whether the user holds a bid on this option.
func (b *BidBook) has(userID uint64) bool {
	_, ok := b.bids[userID]
	return ok
}

// ranked returns all bids ordered by amount descending, ties broken by
// placement sequence ascending. The returned slice is a copy; the book is
// untouched, so settlement stays recomputable from the retained history.
func (b *BidBook) ranked() []Bid {
	out := make([]Bid, 0, len(b.bids))
	for _, bid := range b.bids {
		out = append(out, *bid)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].PlacedAtSeq < out[j].PlacedAtSeq
	})
	return out
}
