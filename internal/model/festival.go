package model

import "time"

// Festival groups the auctions of one event edition (e.g. "Rock in Rio").
//
// Fields:
//  ID        – primary key identifier.
//  Name      – festival name, unique.
//  Slogan    – marketing line shown on the festival card.
//  CreatedAt – creation timestamp.
type Festival struct {
	ID        uint64    // festivals.id
	Name      string    // festivals.name
	Slogan    string    // festivals.slogan
	CreatedAt time.Time // festivals.created_at
}

// Auction is one ticket auction within a festival. It is created when the
// festival's line-up is published and transitions OPEN→CLOSED exactly once
// at settlement. Capacity limits how many distinct options a single user
// may hold bids on at the same time.
//
// Fields:
//  ID         – primary key identifier.
//  FestivalID – owning festival.
//  Title      – auction title (e.g. "Main Stage Weekend 1").
//  Capacity   – max simultaneous held bid slots per user.
//  Status     – OPEN or CLOSED.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Auction struct {
	ID         uint64    // auctions.id
	FestivalID uint64    // auctions.festival_id
	Title      string    // auctions.title
	Capacity   int       // auctions.capacity
	Status     string    // auctions.status
	CreatedAt  time.Time // auctions.created_at
	UpdatedAt  time.Time // auctions.updated_at
}

// AuctionOption is a show or ticket tier users bid on, identified within
// its auction by OptionKey (e.g. the headliner slug). The leading amount
// is not stored here; it is derived live from the engine's bid book.
//
// Fields:
//  ID        – primary key identifier.
//  AuctionID – owning auction.
//  OptionKey – stable key unique within the auction.
//  Label     – display name (e.g. "Iron Maiden").
type AuctionOption struct {
	ID        uint64 // auction_options.id
	AuctionID uint64 // auction_options.auction_id
	OptionKey string // auction_options.option_key
	Label     string // auction_options.label
}

// Settlement records one winning bid of a settled option, persisted for
// the results page and auditing. Rank 1 is the top bid.
//
// Fields:
//  ID        – primary key identifier.
//  AuctionID – auction the option belongs to.
//  OptionKey – settled option.
//  UserID    – winning bidder.
//  Amount    – points permanently spent.
//  Rank      – position in the settled ranking.
//  SettledAt – settlement timestamp.
type Settlement struct {
	ID        uint64    // settlements.id
	AuctionID uint64    // settlements.auction_id
	OptionKey string    // settlements.option_key
	UserID    uint64    // settlements.user_id
	Amount    int64     // settlements.amount
	Rank      int       // settlements.rank
	SettledAt time.Time // settlements.settled_at
}
