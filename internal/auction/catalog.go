package auction

import (
	"sort"
	"sync"
)

// Status of an auction. An auction transitions OPEN→CLOSED exactly once,
// at close or settlement, and never reopens.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// DefaultCapacity is the maximum number of distinct options a user may
// simultaneously hold bids on within one auction when no explicit
// capacity is configured.
const DefaultCapacity = 4

// Auction groups the bid books of one festival auction and enforces the
// per-user capacity limit across them. All mutating operations on the
// auction serialize under its mutex; reads take the shared lock so status
// and leading-amount queries proceed concurrently with each other.
type Auction struct {
	mu         sync.RWMutex
	id         uint64
	festivalID uint64
	capacity   int
	closed     bool
	books      map[string]*BidBook
	optionKeys []string // line-up in published order
}

// Catalog is the registry of all known auctions.
type Catalog struct {
	mu       sync.RWMutex
	auctions map[uint64]*Auction
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{auctions: make(map[uint64]*Auction)}
}

// Register publishes an auction with its option line-up. Registering an
// existing id is a no-op so the catalog can be re-seeded from the store.
// A non-positive capacity falls back to DefaultCapacity.
func (c *Catalog) Register(auctionID, festivalID uint64, capacity int, optionKeys []string) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.auctions[auctionID]; ok {
		return
	}
	a := &Auction{
		id:         auctionID,
		festivalID: festivalID,
		capacity:   capacity,
		books:      make(map[string]*BidBook, len(optionKeys)),
	}
	for _, key := range optionKeys {
		if _, dup := a.books[key]; dup {
			continue
		}
		a.books[key] = newBidBook()
		a.optionKeys = append(a.optionKeys, key)
	}
	c.auctions[auctionID] = a
}

// get returns the auction for id, or ErrNoSuchAuction.
func (c *Catalog) get(auctionID uint64) (*Auction, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.auctions[auctionID]
	if !ok {
		return nil, ErrNoSuchAuction
	}
	return a, nil
}

// IDs returns all registered auction ids in ascending order.
func (c *Catalog) IDs() []uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]uint64, 0, len(c.auctions))
	for id := range c.auctions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Status returns the auction's current status.
func (c *Catalog) Status(auctionID uint64) (Status, error) {
	a, err := c.get(auctionID)
	if err != nil {
		return "", err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return StatusClosed, nil
	}
	return StatusOpen, nil
}

// Close transitions the auction to CLOSED. Closing an already-closed
// auction fails with ErrAlreadyClosed; the first close wins and no bid can
// be placed afterwards.
func (c *Catalog) Close(auctionID uint64) error {
	a, err := c.get(auctionID)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrAlreadyClosed
	}
	a.closed = true
	return nil
}

// book returns the bid book for an option key. Callers must hold a.mu.
func (a *Auction) book(optionKey string) (*BidBook, error) {
	b, ok := a.books[optionKey]
	if !ok {
		return nil, ErrNoSuchOption
	}
	return b, nil
}

// heldOptions counts the distinct options within the auction on which the
// user currently holds a bid. Callers must hold a.mu.
func (a *Auction) heldOptions(userID uint64) int {
	n := 0
	for _, b := range a.books {
		if b.has(userID) {
			n++
		}
	}
	return n
}

// OptionKeys returns the auction's line-up in published order.
func (c *Catalog) OptionKeys(auctionID uint64) ([]string, error) {
	a, err := c.get(auctionID)
	if err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, len(a.optionKeys))
	copy(out, a.optionKeys)
	return out, nil
}
