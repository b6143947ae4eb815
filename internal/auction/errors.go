// Package auction implements the points-based ticket auction engine: the
// points ledger, per-option bid books, the auction catalog and settlement.
// The engine owns all live bid state in memory; persistence, identity and
// notifications are collaborators wired in by the surrounding service. All
// business-rule violations are reported as the sentinel errors below so
// that handlers can translate them into HTTP responses and toast codes.
package auction

import "errors"

// ErrInsufficientPoints is returned when a reservation would exceed the
// user's spendable balance. The bid, including any prior bid being raised,
// is left untouched.
var ErrInsufficientPoints = errors.New("insufficient points")

// ErrBidTooLow is returned when a bid does not exceed the option's leading
// amount (excluding the placer's own prior bid) or does not raise the
// placer's own prior bid on the option.
var ErrBidTooLow = errors.New("bid too low")

// ErrAuctionClosed is returned when placing or withdrawing a bid on an
// auction that has already transitioned to CLOSED.
var ErrAuctionClosed = errors.New("auction closed")

// ErrAlreadyClosed is returned by Close when the auction was closed before.
var ErrAlreadyClosed = errors.New("auction already closed")

// ErrAlreadySettled is returned when settling an option a second time.
var ErrAlreadySettled = errors.New("option already settled")

// ErrCapacityExceeded is returned when a user who already holds bids on the
// maximum number of distinct options within an auction bids on a new one.
var ErrCapacityExceeded = errors.New("bid capacity exceeded")

// ErrNoSuchBid is returned when withdrawing a bid that does not exist.
var ErrNoSuchBid = errors.New("no such bid")

// ErrSettlementFailed signals that the ledger could not apply a settlement.
// No partial state change is observable; the caller may retry.
var ErrSettlementFailed = errors.New("settlement failed")

// ErrNoSuchAuction is returned when the auction id is unknown.
var ErrNoSuchAuction = errors.New("no such auction")

// ErrNoSuchOption is returned when the option key is not part of the
// auction's published line-up.
var ErrNoSuchOption = errors.New("no such option")
