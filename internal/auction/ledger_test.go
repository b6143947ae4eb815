package auction

import (
	"errors"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"pgregory.net/rapid"
)

func TestLedger_GrantAndBalance(t *testing.T) {
	l := NewLedger()
	check.Equal(t, int64(0), l.Balance(1))

	l.Grant(1, 2000)
	check.Equal(t, int64(2000), l.Balance(1))

	l.Grant(1, 500)
	check.Equal(t, int64(2500), l.Balance(1))

	// Non-positive grants are ignored.
	l.Grant(1, 0)
	l.Grant(1, -100)
	check.Equal(t, int64(2500), l.Balance(1))
}

func TestLedger_ReserveReleaseSettle(t *testing.T) {
	l := NewLedger()
	l.Grant(7, 1000)

	assert.NoError(t, l.Reserve(7, 600))
	check.Equal(t, int64(400), l.Balance(7))

	acc, ok := l.Snapshot(7)
	assert.True(t, ok)
	check.Equal(t, int64(600), acc.Reserved)
	check.Equal(t, int64(0), acc.Spent)

	l.Release(7, 200)
	check.Equal(t, int64(600), l.Balance(7))

	l.Settle(7, 400)
	check.Equal(t, int64(600), l.Balance(7))
	acc, _ = l.Snapshot(7)
	check.Equal(t, int64(0), acc.Reserved)
	check.Equal(t, int64(400), acc.Spent)
	check.Equal(t, acc.Granted, acc.Balance+acc.Reserved+acc.Spent)
}

func TestLedger_InsufficientPoints(t *testing.T) {
	l := NewLedger()
	l.Grant(3, 100)

	err := l.Reserve(3, 101)
	check.True(t, errors.Is(err, ErrInsufficientPoints))
	// A failed reservation changes nothing.
	check.Equal(t, int64(100), l.Balance(3))
	acc, _ := l.Snapshot(3)
	check.Equal(t, int64(0), acc.Reserved)

	// Unknown users have no balance to reserve against.
	err = l.Reserve(99, 1)
	check.True(t, errors.Is(err, ErrInsufficientPoints))
}

func TestLedger_SwapReservation(t *testing.T) {
	l := NewLedger()
	l.Grant(5, 600)
	assert.NoError(t, l.Reserve(5, 500))

	// A raise within the allowance charges only the delta.
	assert.NoError(t, l.swapReservation(5, 500, 550))
	acc, _ := l.Snapshot(5)
	check.Equal(t, int64(50), acc.Balance)
	check.Equal(t, int64(550), acc.Reserved)

	// A swap the allowance cannot cover fails before any mutation: the
	// prior reservation is never freed, not even transiently, so nothing
	// else can consume it.
	err := l.swapReservation(5, 550, 700)
	check.True(t, errors.Is(err, ErrInsufficientPoints))
	acc, _ = l.Snapshot(5)
	check.Equal(t, int64(50), acc.Balance)
	check.Equal(t, int64(550), acc.Reserved)
	check.Equal(t, acc.Granted, acc.Balance+acc.Reserved+acc.Spent)

	// With no prior reservation the swap degenerates to a plain reserve.
	assert.NoError(t, l.swapReservation(5, 0, 50))
	check.Equal(t, int64(0), l.Balance(5))
}

func TestLedger_ApplySettlementAllOrNothing(t *testing.T) {
	l := NewLedger()
	l.Grant(1, 500)
	l.Grant(2, 500)
	assert.NoError(t, l.Reserve(1, 300))
	assert.NoError(t, l.Reserve(2, 200))

	// One op exceeds user 2's reservation: the whole batch must be refused.
	err := l.applySettlement([]ledgerOp{
		{userID: 1, amount: 300, settle: true},
		{userID: 2, amount: 250, settle: false},
	})
	check.True(t, errors.Is(err, ErrSettlementFailed))

	acc1, _ := l.Snapshot(1)
	acc2, _ := l.Snapshot(2)
	check.Equal(t, int64(300), acc1.Reserved)
	check.Equal(t, int64(0), acc1.Spent)
	check.Equal(t, int64(200), acc2.Reserved)

	// The corrected batch applies in full.
	assert.NoError(t, l.applySettlement([]ledgerOp{
		{userID: 1, amount: 300, settle: true},
		{userID: 2, amount: 200, settle: false},
	}))
	acc1, _ = l.Snapshot(1)
	acc2, _ = l.Snapshot(2)
	check.Equal(t, int64(300), acc1.Spent)
	check.Equal(t, int64(500), acc2.Balance)
}

// TestLedger_Conservation drives random grant/reserve/release/settle
// sequences and checks that granted points are always fully accounted for
// and no account ever goes negative.
func TestLedger_Conservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		l := NewLedger()
		users := rapid.IntRange(1, 4).Draw(t, "users")
		reserved := make(map[uint64]int64)

		steps := rapid.IntRange(1, 50).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			uid := uint64(rapid.IntRange(1, users).Draw(t, "uid"))
			amount := int64(rapid.IntRange(1, 500).Draw(t, "amount"))
			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0:
				l.Grant(uid, amount)
			case 1:
				if err := l.Reserve(uid, amount); err == nil {
					reserved[uid] += amount
				}
			case 2:
				if reserved[uid] > 0 {
					rel := amount % reserved[uid]
					if rel == 0 {
						rel = reserved[uid]
					}
					l.Release(uid, rel)
					reserved[uid] -= rel
				}
			case 3:
				if reserved[uid] > 0 {
					st := amount % reserved[uid]
					if st == 0 {
						st = reserved[uid]
					}
					l.Settle(uid, st)
					reserved[uid] -= st
				}
			}
		}

		for uid := uint64(1); uid <= uint64(users); uid++ {
			acc, ok := l.Snapshot(uid)
			if !ok {
				continue
			}
			if acc.Balance < 0 || acc.Reserved < 0 || acc.Spent < 0 {
				t.Fatalf("user %d has a negative component: %+v", uid, acc)
			}
			if got := acc.Balance + acc.Reserved + acc.Spent; got != acc.Granted {
				t.Fatalf("user %d: balance(%d)+reserved(%d)+spent(%d)=%d != granted(%d)",
					uid, acc.Balance, acc.Reserved, acc.Spent, got, acc.Granted)
			}
			if acc.Reserved != reserved[uid] {
				t.Fatalf("user %d: ledger reserved %d, model reserved %d", uid, acc.Reserved, reserved[uid])
			}
		}
	})
}
