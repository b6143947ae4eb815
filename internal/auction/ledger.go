package auction

import (
	"fmt"
	"sync"
)

// Account is a read-only snapshot of one user's point bookkeeping. The
// ledger maintains the conservation invariant
//
//	Balance + Reserved + Spent == Granted
//
// for every account at every observation point. Points reserved on a bid
// are withheld from the spendable balance but not yet spent; settlement
// converts a reservation into a permanent spend, release returns it.
type Account struct {
	Granted  int64 // total points ever granted to the user
	Balance  int64 // spendable points
	Reserved int64 // points held against active bids
	Spent    int64 // points permanently consumed by won auctions
}

// Ledger is the authoritative point balance bookkeeper. All operations on
// a given user serialize under the ledger mutex, so two concurrent
// reservations can never both observe the same stale balance.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[uint64]*Account
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{accounts: make(map[uint64]*Account)}
}

// Grant credits newly issued points to the user, creating the account on
// first use. Grants come from the identity provider (registration bonus,
// promotions); the engine itself never mints points.
func (l *Ledger) Grant(userID uint64, points int64) {
	if points <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	acc := l.account(userID)
	acc.Granted += points
	acc.Balance += points
}

// Reserve withholds amount from the user's spendable balance. It fails with
// ErrInsufficientPoints when the balance does not cover the amount, in
// which case nothing changes.
func (l *Ledger) Reserve(userID uint64, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reserveLocked(userID, amount)
}

func (l *Ledger) reserveLocked(userID uint64, amount int64) error {
	acc := l.account(userID)
	if amount > acc.Balance {
		return fmt.Errorf("reserve %d for user %d: %w", amount, userID, ErrInsufficientPoints)
	}
	acc.Balance -= amount
	acc.Reserved += amount
	return nil
}

// Release returns a previously reserved amount to the spendable balance.
// Used when a bid is raised, withdrawn, or loses at settlement. Pairing
// release with an earlier reserve is the caller's responsibility; the
// ledger guards against draining more than is reserved.
func (l *Ledger) Release(userID uint64, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releaseLocked(userID, amount)
}

func (l *Ledger) releaseLocked(userID uint64, amount int64) {
	acc := l.account(userID)
	if amount > acc.Reserved {
		amount = acc.Reserved
	}
	acc.Reserved -= amount
	acc.Balance += amount
}

// swapReservation atomically exchanges a reservation of prior points for
// one of amount points under a single lock acquisition. The check that the
// spendable balance plus the freed prior reservation covers the new amount
// happens before any mutation, so a failed swap changes nothing — the
// prior points never become transiently spendable, not even for the same
// user's bids in other auctions. With prior == 0 it is equivalent to
// Reserve.
func (l *Ledger) swapReservation(userID uint64, prior, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc := l.account(userID)
	if prior > acc.Reserved {
		prior = acc.Reserved
	}
	if amount > acc.Balance+prior {
		return fmt.Errorf("reserve %d for user %d: %w", amount, userID, ErrInsufficientPoints)
	}
	acc.Balance += prior - amount
	acc.Reserved += amount - prior
	return nil
}

// Settle permanently consumes a reservation for a winning bid. The balance
// does not change; the amount was already withheld at reserve time. The
// transition is recorded so audits can distinguish held from spent points.
func (l *Ledger) Settle(userID uint64, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settleLocked(userID, amount)
}

func (l *Ledger) settleLocked(userID uint64, amount int64) {
	acc := l.account(userID)
	if amount > acc.Reserved {
		amount = acc.Reserved
	}
	acc.Reserved -= amount
	acc.Spent += amount
}

// Balance returns the user's spendable balance. Unknown users report 0.
func (l *Ledger) Balance(userID uint64) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if acc, ok := l.accounts[userID]; ok {
		return acc.Balance
	}
	return 0
}

// Snapshot returns a copy of the user's account for auditing and tests.
func (l *Ledger) Snapshot(userID uint64) (Account, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acc, ok := l.accounts[userID]
	if !ok {
		return Account{}, false
	}
	return *acc, true
}

// ledgerOp is one buffered settlement effect: settle a winner's
// reservation or release a loser's.
type ledgerOp struct {
	userID uint64
	amount int64
	settle bool
}

// applySettlement validates and applies a batch of settle/release effects
// under a single lock acquisition, so a settlement is all-or-nothing. If
// any effect would exceed the user's reserved points the ledger is
// corrupt with respect to the bid book and nothing is applied.
func (l *Ledger) applySettlement(ops []ledgerOp) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, op := range ops {
		acc, ok := l.accounts[op.userID]
		if !ok || op.amount > acc.Reserved {
			return fmt.Errorf("reservation mismatch for user %d: %w", op.userID, ErrSettlementFailed)
		}
	}
	for _, op := range ops {
		if op.settle {
			l.settleLocked(op.userID, op.amount)
		} else {
			l.releaseLocked(op.userID, op.amount)
		}
	}
	return nil
}

// account returns the user's account, creating a zero account on first use.
// Callers must hold l.mu.
func (l *Ledger) account(userID uint64) *Account {
	acc, ok := l.accounts[userID]
	if !ok {
		acc = &Account{}
		l.accounts[userID] = acc
	}
	return acc
}
