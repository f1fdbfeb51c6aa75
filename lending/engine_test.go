package lending

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lendingFixture registers an owner with one item at 10/day and a borrower
// holding 200 credits from two registrations of their own.
func lendingFixture(t *testing.T, store Store) (mgr *Manager, owner, borrower Member, item Item) {
	t.Helper()
	mgr = newTestManager(t, store, 4)
	owner = mustMember(t, mgr, "Olive Owner", "555-0100", "olive@example.com")
	borrower = mustMember(t, mgr, "Bert Borrower", "555-0200", "bert@example.com")
	item = mustItem(t, mgr, owner.ID, "Ladder", 10)
	mustItem(t, mgr, borrower.ID, "Tent", 3)
	mustItem(t, mgr, borrower.ID, "Kayak", 20)
	require.Equal(t, WholeCredits(200), credit(t, mgr, borrower.ID))
	require.Equal(t, WholeCredits(100), credit(t, mgr, owner.ID))
	return mgr, owner, borrower, item
}

func TestCreateContractTransfersCost(t *testing.T) {
	store := NewMemoryStore()
	mgr, owner, borrower, item := lendingFixture(t, store)
	ctx := context.Background()
	today := mgr.Today()

	c, err := mgr.Borrow(ctx, borrower.ID, item.ID, today, today+2)
	require.NoError(t, err)

	assert.True(t, c.Valid)
	assert.Equal(t, WholeCredits(30), c.TotalCost)
	assert.Equal(t, 3, c.Days())
	assert.Equal(t, WholeCredits(170), credit(t, mgr, borrower.ID))
	assert.Equal(t, WholeCredits(130), credit(t, mgr, owner.ID))

	got, _ := mgr.GetItem(item.ID)
	require.Len(t, got.Contracts, 1)
	assert.Equal(t, c, got.Contracts[0])

	stored, err := store.LoadContracts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Contract{c}, stored)

	members, err := store.LoadMembers(ctx)
	require.NoError(t, err)
	for _, m := range members {
		switch m.ID {
		case borrower.ID:
			assert.Equal(t, WholeCredits(170), m.Credit)
		case owner.ID:
			assert.Equal(t, WholeCredits(130), m.Credit)
		}
	}
}

func TestCreateContractInsufficientCredit(t *testing.T) {
	mgr, owner, borrower, item := lendingFixture(t, NewMemoryStore())
	require.NoError(t, mgr.members.setCredit(borrower.ID, WholeCredits(10)))
	today := mgr.Today()

	_, err := mgr.Borrow(context.Background(), borrower.ID, item.ID, today, today+2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotAdmitted)
	var ae *AdmissionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, RejectCredit, ae.Reason)

	assert.Equal(t, WholeCredits(10), credit(t, mgr, borrower.ID))
	assert.Equal(t, WholeCredits(100), credit(t, mgr, owner.ID))
	got, _ := mgr.GetItem(item.ID)
	assert.Empty(t, got.Contracts)
}

func TestCreateContractRejectsOverlap(t *testing.T) {
	mgr, owner, borrower, item := lendingFixture(t, NewMemoryStore())
	ctx := context.Background()
	today := mgr.Today()

	_, err := mgr.Borrow(ctx, borrower.ID, item.ID, today+1, today+3)
	require.NoError(t, err)

	_, err = mgr.Borrow(ctx, borrower.ID, item.ID, today+3, today+5)
	var ae *AdmissionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, RejectUnavailable, ae.Reason)
	assert.Equal(t, WholeCredits(170), credit(t, mgr, borrower.ID))
	assert.Equal(t, WholeCredits(130), credit(t, mgr, owner.ID))

	_, err = mgr.Borrow(ctx, borrower.ID, item.ID, today+4, today+4)
	assert.NoError(t, err)
}

func TestCreateContractRejectsRetroactiveStart(t *testing.T) {
	mgr, _, borrower, item := lendingFixture(t, NewMemoryStore())
	today := mgr.Today()

	_, err := mgr.Borrow(context.Background(), borrower.ID, item.ID, today-1, today+1)
	var ae *AdmissionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, RejectRetroactive, ae.Reason)
}

func TestSelfLoanIsFree(t *testing.T) {
	store := NewMemoryStore()
	mgr := newTestManager(t, store, 0)
	owner := mustMember(t, mgr, "Sam Self", "555-0300", "sam@example.com")
	item := mustItem(t, mgr, owner.ID, "Piano", 500)
	require.Equal(t, WholeCredits(100), credit(t, mgr, owner.ID))

	c, err := mgr.Borrow(context.Background(), owner.ID, item.ID, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, WholeCredits(1000), c.TotalCost)
	assert.Equal(t, WholeCredits(100), credit(t, mgr, owner.ID))

	got, _ := mgr.GetItem(item.ID)
	assert.Len(t, got.Contracts, 1)
}

func TestCreateContractOwnerMismatch(t *testing.T) {
	mgr, _, borrower, item := lendingFixture(t, NewMemoryStore())

	_, err := mgr.CreateContract(context.Background(), Request{
		BorrowerID: borrower.ID,
		OwnerID:    borrower.ID,
		ItemID:     item.ID,
		StartDay:   mgr.Today(),
		EndDay:     mgr.Today(),
	}, nil)
	assert.ErrorIs(t, err, ErrOwnerMismatch)
}

func TestCreateContractUnknownIDs(t *testing.T) {
	mgr, _, borrower, item := lendingFixture(t, NewMemoryStore())
	ctx := context.Background()

	_, err := mgr.Borrow(ctx, "NOPE00", item.ID, mgr.Today(), mgr.Today())
	assert.ErrorIs(t, err, ErrMemberNotFound)

	_, err = mgr.Borrow(ctx, borrower.ID, "NOPE00", mgr.Today(), mgr.Today())
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestCreateContractWithStrategy(t *testing.T) {
	mgr, _, borrower, item := lendingFixture(t, NewMemoryStore())
	today := mgr.Today()

	c, err := mgr.CreateContract(context.Background(), Request{
		BorrowerID: borrower.ID,
		ItemID:     item.ID,
		StartDay:   today,
		EndDay:     today + 6,
	}, WeeklyDiscount{})
	require.NoError(t, err)
	assert.Equal(t, WholeCredits(60), c.TotalCost)
	assert.Equal(t, WholeCredits(140), credit(t, mgr, borrower.ID))
}

func TestCreateContractRollsBackOnStoreFailure(t *testing.T) {
	for _, tc := range []struct {
		name string
		fail func(s *flakyStore)
	}{
		{"contracts", func(s *flakyStore) { s.failContracts = true }},
		{"members", func(s *flakyStore) { s.failMembers = true }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			store := newFlakyStore()
			mgr, owner, borrower, item := lendingFixture(t, store)
			ctx := context.Background()
			before, err := store.LoadMembers(ctx)
			require.NoError(t, err)

			tc.fail(store)
			_, err = mgr.Borrow(ctx, borrower.ID, item.ID, mgr.Today(), mgr.Today()+2)
			require.Error(t, err)

			var te *TransferError
			require.True(t, errors.As(err, &te))
			assert.ErrorIs(t, err, errBoom)
			assert.NotErrorIs(t, err, ErrNotAdmitted)

			assert.Equal(t, WholeCredits(200), credit(t, mgr, borrower.ID))
			assert.Equal(t, WholeCredits(100), credit(t, mgr, owner.ID))
			got, _ := mgr.GetItem(item.ID)
			assert.Empty(t, got.Contracts)

			*store = flakyStore{inner: store.inner}
			contracts, err := store.LoadContracts(ctx)
			require.NoError(t, err)
			assert.Empty(t, contracts)
			after, err := store.LoadMembers(ctx)
			require.NoError(t, err)
			assert.Equal(t, before, after)

			// The item is still lendable once the store recovers.
			_, err = mgr.Borrow(ctx, borrower.ID, item.ID, mgr.Today(), mgr.Today()+2)
			assert.NoError(t, err)
		})
	}
}

func TestContractIDsAreUnique(t *testing.T) {
	mgr, _, borrower, item := lendingFixture(t, NewMemoryStore())
	ctx := context.Background()
	seen := map[string]bool{}
	for d := 0; d < 5; d++ {
		c, err := mgr.Borrow(ctx, borrower.ID, item.ID, mgr.Today()+d, mgr.Today()+d)
		require.NoError(t, err)
		assert.Len(t, c.ID, idLength)
		assert.False(t, seen[c.ID], "duplicate contract id %s", c.ID)
		seen[c.ID] = true
	}
}

func TestCreateContractRejectsUnpayablePeriod(t *testing.T) {
	store := NewMemoryStore()
	mgr := newTestManager(t, store, 0)
	owner := mustMember(t, mgr, "Olive Owner", "555-0100", "olive@example.com")
	borrower := mustMember(t, mgr, "Nell Nocredit", "555-0400", "nell@example.com")
	item := mustItem(t, mgr, owner.ID, "Tractor", 100)
	ctx := context.Background()

	_, err := mgr.Borrow(ctx, borrower.ID, item.ID, 0, 1e15-1)
	var ae *AdmissionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, RejectCredit, ae.Reason)

	// The owner is refused too, even though self-loans are free.
	_, err = mgr.Borrow(ctx, owner.ID, item.ID, 0, 1e15-1)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, RejectCredit, ae.Reason)

	assert.Equal(t, Credits(0), credit(t, mgr, borrower.ID))
	assert.Equal(t, WholeCredits(100), credit(t, mgr, owner.ID))
	got, _ := mgr.GetItem(item.ID)
	assert.Empty(t, got.Contracts)
	contracts, err := store.LoadContracts(ctx)
	require.NoError(t, err)
	assert.Empty(t, contracts)
}

// hookClock runs hook the first time the engine reads the day, which is
// after it has taken its member snapshots.
type hookClock struct {
	*DayCounter
	hook func()
}

func (c *hookClock) CurrentDay() int {
	if c.hook != nil {
		h := c.hook
		c.hook = nil
		h()
	}
	return c.DayCounter.CurrentDay()
}

func TestCreateContractRollsBackFailedTransfer(t *testing.T) {
	tests := []struct {
		name    string
		wantErr error
		hook    func(t *testing.T, mgr *Manager, owner, borrower Member) (undo func())
	}{
		{
			name:    "deduction",
			wantErr: ErrInsufficientCredit,
			hook: func(t *testing.T, mgr *Manager, _, borrower Member) func() {
				require.NoError(t, mgr.members.setCredit(borrower.ID, 0))
				return func() {}
			},
		},
		{
			name:    "credit after deduction",
			wantErr: ErrMemberNotFound,
			hook: func(_ *testing.T, mgr *Manager, owner, _ Member) func() {
				p := mgr.members.members[owner.ID]
				delete(mgr.members.members, owner.ID)
				return func() { mgr.members.members[owner.ID] = p }
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			mgr, owner, borrower, item := lendingFixture(t, store)
			ctx := context.Background()
			before, err := store.LoadMembers(ctx)
			require.NoError(t, err)

			var undo func()
			clock := &hookClock{DayCounter: NewDayCounter(mgr.Today())}
			clock.hook = func() { undo = tt.hook(t, mgr, owner, borrower) }
			engine := NewEngine(clock, store, mgr.members, mgr.items, &SequentialIDs{Prefix: "C"}, quietLogger())

			_, err = engine.CreateContract(ctx, Request{
				BorrowerID: borrower.ID,
				ItemID:     item.ID,
				StartDay:   mgr.Today(),
				EndDay:     mgr.Today() + 2,
			}, FlatRate{})
			require.NotNil(t, undo, "hook did not run")
			undo()

			var te *TransferError
			require.ErrorAs(t, err, &te)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NotErrorIs(t, err, ErrNotAdmitted)

			assert.Equal(t, WholeCredits(200), credit(t, mgr, borrower.ID))
			assert.Equal(t, WholeCredits(100), credit(t, mgr, owner.ID))
			got, _ := mgr.GetItem(item.ID)
			assert.Empty(t, got.Contracts)

			contracts, err := store.LoadContracts(ctx)
			require.NoError(t, err)
			assert.Empty(t, contracts)
			after, err := store.LoadMembers(ctx)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}
