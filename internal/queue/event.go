// Package queue defines message payloads exchanged over the message broker.
package queue

// BidEventQueue is the durable queue carrying bid lifecycle events. The
// presentation layer consumes it to surface toasts (bid accepted, outbid,
// auction settled) without polling the API.
const BidEventQueue = "bid.events"

// Event kinds carried in BidEvent.Kind.
const (
	KindBidPlaced      = "bid_placed"
	KindBidOutbid      = "bid_outbid"
	KindAuctionClosed  = "auction_closed"
	KindAuctionSettled = "auction_settled"
)

// BidEvent is published on every bid placement. When the placement
// displaced another user's leading bid, OutbidUserID/OutbidAmount identify
// who should receive the outbid toast; the displaced bid itself stays in
// the running.
type BidEvent struct {
	Kind         string `json:"kind"`
	AuctionID    uint64 `json:"auction_id"`
	OptionKey    string `json:"option_key"`
	UserID       uint64 `json:"user_id"`
	Amount       int64  `json:"amount"`
	Leading      int64  `json:"leading"`
	OutbidUserID uint64 `json:"outbid_user_id,omitempty"`
	OutbidAmount int64  `json:"outbid_amount,omitempty"`
	OccurredAt   string `json:"occurred_at"`
}

// SettledWinner is one ranked winner inside an AuctionSettledEvent.
type SettledWinner struct {
	Rank   int    `json:"rank"`
	UserID uint64 `json:"user_id"`
	Amount int64  `json:"amount"`
}

// AuctionSettledEvent is published once per settled option with the final
// ranking, so downstream consumers can notify winners and losers without
// querying the primary database.
type AuctionSettledEvent struct {
	Kind       string          `json:"kind"`
	AuctionID  uint64          `json:"auction_id"`
	OptionKey  string          `json:"option_key"`
	Winners    []SettledWinner `json:"winners"`
	SettledAt  string          `json:"settled_at"`
	TotalSpent int64           `json:"total_spent"`
}
