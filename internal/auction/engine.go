package auction

import "sync/atomic"

// Engine is the facade the presentation layer talks to. It wires the
// catalog and the points ledger together and issues the global placement
// sequence used for deterministic tie-breaking.
type Engine struct {
	ledger  *Ledger
	catalog *Catalog
	seq     atomic.Uint64
}

// Placement reports the outcome of an accepted bid: the option's new
// leading amount and, when another user lost the lead because of this bid,
// who was displaced. The notification channel uses the displaced leader to
// deliver an outbid toast; the displaced bid itself stays in the book.
type Placement struct {
	Leading      int64
	OutbidUserID uint64 // 0 when no other user was leading
	OutbidAmount int64
}

// NewEngine returns an engine over the given ledger with an empty catalog.
func NewEngine(ledger *Ledger) *Engine {
	return &Engine{ledger: ledger, catalog: NewCatalog()}
}

// Ledger exposes the engine's points ledger for grants and balance reads.
func (e *Engine) Ledger() *Ledger { return e.ledger }

// Catalog exposes the auction registry for seeding and browsing.
func (e *Engine) Catalog() *Catalog { return e.catalog }

// PlaceBid runs the full placement protocol for one bid: closed check,
// capacity check, leading-amount validation and ledger reservation, all
// under the auction's exclusive lock so two racing bids on the same option
// can never both observe the same stale leading amount. A failed placement
// leaves balances, the leading amount and the bid set unchanged.
func (e *Engine) PlaceBid(auctionID uint64, optionKey string, userID uint64, amount int64) (Placement, error) {
	if amount <= 0 {
		return Placement{}, ErrBidTooLow
	}
	a, err := e.catalog.get(auctionID)
	if err != nil {
		return Placement{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return Placement{}, ErrAuctionClosed
	}
	book, err := a.book(optionKey)
	if err != nil {
		return Placement{}, err
	}
	// Raising an existing bid never counts against capacity; only a bid on
	// a new option claims a slot.
	if !book.has(userID) && a.heldOptions(userID) >= a.capacity {
		return Placement{}, ErrCapacityExceeded
	}
	prevLeader := book.leader()
	leading, err := book.place(e.ledger, userID, amount, e.seq.Add(1))
	if err != nil {
		return Placement{}, err
	}
	p := Placement{Leading: leading}
	if prevLeader != nil && prevLeader.UserID != userID {
		p.OutbidUserID = prevLeader.UserID
		p.OutbidAmount = prevLeader.Amount
	}
	return p, nil
}

// WithdrawBid removes the user's bid on an option and releases its held
// points. Withdrawal is only allowed while the auction is open.
func (e *Engine) WithdrawBid(auctionID uint64, optionKey string, userID uint64) error {
	a, err := e.catalog.get(auctionID)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrAuctionClosed
	}
	book, err := a.book(optionKey)
	if err != nil {
		return err
	}
	return book.withdraw(e.ledger, userID)
}

// Leading returns the option's current leading amount, 0 when no bids
// exist. Pure read; concurrent with mutations on other auctions.
func (e *Engine) Leading(auctionID uint64, optionKey string) (int64, error) {
	a, err := e.catalog.get(auctionID)
	if err != nil {
		return 0, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	book, err := a.book(optionKey)
	if err != nil {
		return 0, err
	}
	return book.leading(), nil
}

// Bids returns the option's current bid set ranked for display: amount
// descending, earlier placement first on ties.
func (e *Engine) Bids(auctionID uint64, optionKey string) ([]Bid, error) {
	a, err := e.catalog.get(auctionID)
	if err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	book, err := a.book(optionKey)
	if err != nil {
		return nil, err
	}
	return book.ranked(), nil
}

// HeldOptions reports how many distinct options the user holds bids on
// within the auction, against the auction's capacity.
func (e *Engine) HeldOptions(auctionID, userID uint64) (held, capacity int, err error) {
	a, err := e.catalog.get(auctionID)
	if err != nil {
		return 0, 0, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.heldOptions(userID), a.capacity, nil
}

// Balance returns the user's spendable point balance.
func (e *Engine) Balance(userID uint64) int64 {
	return e.ledger.Balance(userID)
}

// CloseAuction transitions the auction to CLOSED; see Catalog.Close.
func (e *Engine) CloseAuction(auctionID uint64) error {
	return e.catalog.Close(auctionID)
}
