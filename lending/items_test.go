package lending

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddItemAwardsBonus(t *testing.T) {
	store := NewMemoryStore()
	mgr := newTestManager(t, store, 2)
	ctx := context.Background()
	ada := mustMember(t, mgr, "Ada", "555-0001", "ada@example.com")
	require.Equal(t, Credits(0), ada.Credit)

	it := mustItem(t, mgr, ada.ID, "Drill", 5)
	assert.Equal(t, WholeCredits(100), credit(t, mgr, ada.ID))
	assert.Equal(t, ada.ID, it.OwnerID)
	assert.Equal(t, 2, it.CreatedDay)
	assert.Empty(t, it.Contracts)

	m, _ := mgr.GetMember(ada.ID)
	assert.Equal(t, []string{it.ID}, m.ItemIDs)

	items, err := store.LoadItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	members, err := store.LoadMembers(ctx)
	require.NoError(t, err)
	assert.Equal(t, WholeCredits(100), members[0].Credit)
}

func TestItemFieldsAreTrimmed(t *testing.T) {
	store := NewMemoryStore()
	mgr := newTestManager(t, store, 0)
	ctx := context.Background()
	ada := mustMember(t, mgr, "Ada", "555-0001", "ada@example.com")

	it, err := mgr.AddItem(ctx, ada.ID, ItemInput{Name: "  Drill ", Category: CategoryTool, Description: "\tcordless\n", CostPerDay: WholeCredits(5)})
	require.NoError(t, err)
	assert.Equal(t, "Drill", it.Name)
	assert.Equal(t, "cordless", it.Description)

	ok, err := mgr.UpdateItem(ctx, it.ID, ItemInput{Name: " Hammer", Category: CategoryTool, Description: "claw  ", CostPerDay: WholeCredits(2)})
	require.NoError(t, err)
	require.True(t, ok)
	stored, err := store.LoadItems(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Hammer", stored[0].Name)
	assert.Equal(t, "claw", stored[0].Description)
}

func TestAddItemValidation(t *testing.T) {
	mgr := newTestManager(t, NewMemoryStore(), 0)
	ctx := context.Background()
	ada := mustMember(t, mgr, "Ada", "555-0001", "ada@example.com")

	valid := ItemInput{Name: "Drill", Category: CategoryTool, Description: "cordless", CostPerDay: WholeCredits(5)}

	in := valid
	in.Name = " "
	_, err := mgr.AddItem(ctx, ada.ID, in)
	assert.ErrorIs(t, err, ErrNameRequired)

	in = valid
	in.Category = "spaceship"
	_, err = mgr.AddItem(ctx, ada.ID, in)
	assert.ErrorIs(t, err, ErrInvalidCategory)

	in = valid
	in.Description = ""
	_, err = mgr.AddItem(ctx, ada.ID, in)
	assert.ErrorIs(t, err, ErrDescriptionRequired)

	in = valid
	in.CostPerDay = -1
	_, err = mgr.AddItem(ctx, ada.ID, in)
	assert.ErrorIs(t, err, ErrNegativeCost)

	_, err = mgr.AddItem(ctx, "NOPE00", valid)
	assert.ErrorIs(t, err, ErrMemberNotFound)

	assert.Empty(t, mgr.Items())
	assert.Equal(t, Credits(0), credit(t, mgr, ada.ID))
}

func TestAddItemRollsBackOnSaveError(t *testing.T) {
	store := newFlakyStore()
	mgr := newTestManager(t, store, 0)
	ada := mustMember(t, mgr, "Ada", "555-0001", "ada@example.com")

	store.failMembers = true
	_, err := mgr.AddItem(context.Background(), ada.ID, ItemInput{
		Name: "Drill", Category: CategoryTool, Description: "cordless", CostPerDay: WholeCredits(5),
	})
	require.ErrorIs(t, err, errBoom)

	assert.Empty(t, mgr.Items())
	m, _ := mgr.GetMember(ada.ID)
	assert.Equal(t, Credits(0), m.Credit)
	assert.Empty(t, m.ItemIDs)

	items, err := store.LoadItems(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpdateItem(t *testing.T) {
	mgr := newTestManager(t, NewMemoryStore(), 0)
	ctx := context.Background()
	ada := mustMember(t, mgr, "Ada", "555-0001", "ada@example.com")
	it := mustItem(t, mgr, ada.ID, "Drill", 5)

	ok, err := mgr.UpdateItem(ctx, it.ID, ItemInput{
		Name: "Hammer Drill", Category: CategoryTool, Description: "corded", CostPerDay: 750,
	})
	require.NoError(t, err)
	assert.True(t, ok)
	got, _ := mgr.GetItem(it.ID)
	assert.Equal(t, "Hammer Drill", got.Name)
	assert.Equal(t, Credits(750), got.CostPerDay)

	ok, err = mgr.UpdateItem(ctx, "NOPE00", ItemInput{})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = mgr.UpdateItem(ctx, it.ID, ItemInput{Name: "x", Category: "bad", Description: "y"})
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestDeleteItemWithActiveContract(t *testing.T) {
	store := NewMemoryStore()
	mgr, owner, borrower, item := lendingFixture(t, store)
	ctx := context.Background()

	_, err := mgr.Borrow(ctx, borrower.ID, item.ID, mgr.Today(), mgr.Today()+2)
	require.NoError(t, err)

	ok, err := mgr.DeleteItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, found := mgr.GetItem(item.ID)
	assert.False(t, found)
	m, _ := mgr.GetMember(owner.ID)
	assert.NotContains(t, m.ItemIDs, item.ID)
	// Neither the bonus nor the payment is reversed.
	assert.Equal(t, WholeCredits(130), m.Credit)
	assert.Equal(t, WholeCredits(170), credit(t, mgr, borrower.ID))

	contracts, err := store.LoadContracts(ctx)
	require.NoError(t, err)
	assert.Empty(t, contracts)

	ok, err = mgr.DeleteItem(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteItemRollsBackOnSaveError(t *testing.T) {
	store := newFlakyStore()
	mgr, owner, _, item := lendingFixture(t, store)

	store.failItems = true
	_, err := mgr.DeleteItem(context.Background(), item.ID)
	require.ErrorIs(t, err, errBoom)

	_, found := mgr.GetItem(item.ID)
	assert.True(t, found)
	m, _ := mgr.GetMember(owner.ID)
	assert.Contains(t, m.ItemIDs, item.ID)
	assert.Equal(t, item.ID, mgr.Items()[0].ID)
}

func TestCancelContractDoesNotRefund(t *testing.T) {
	store := NewMemoryStore()
	mgr, owner, borrower, item := lendingFixture(t, store)
	ctx := context.Background()

	c, err := mgr.Borrow(ctx, borrower.ID, item.ID, mgr.Today(), mgr.Today()+2)
	require.NoError(t, err)

	require.NoError(t, mgr.CancelContract(ctx, item.ID, c.ID))
	got, _ := mgr.GetItem(item.ID)
	assert.Empty(t, got.Contracts)
	assert.Equal(t, WholeCredits(170), credit(t, mgr, borrower.ID))
	assert.Equal(t, WholeCredits(130), credit(t, mgr, owner.ID))

	contracts, err := store.LoadContracts(ctx)
	require.NoError(t, err)
	assert.Empty(t, contracts)

	assert.ErrorIs(t, mgr.CancelContract(ctx, item.ID, c.ID), ErrContractNotFound)
	assert.ErrorIs(t, mgr.CancelContract(ctx, "NOPE00", c.ID), ErrItemNotFound)

	// The period is free again.
	ok, err := mgr.IsAvailable(item.ID, mgr.Today(), mgr.Today()+2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCancelContractRestoresOnSaveError(t *testing.T) {
	store := newFlakyStore()
	mgr, _, borrower, item := lendingFixture(t, store)
	ctx := context.Background()

	first, err := mgr.Borrow(ctx, borrower.ID, item.ID, mgr.Today(), mgr.Today())
	require.NoError(t, err)
	second, err := mgr.Borrow(ctx, borrower.ID, item.ID, mgr.Today()+1, mgr.Today()+1)
	require.NoError(t, err)

	store.failContracts = true
	require.ErrorIs(t, mgr.CancelContract(ctx, item.ID, first.ID), errBoom)

	got, _ := mgr.GetItem(item.ID)
	assert.Equal(t, []Contract{first, second}, got.Contracts)
}

func TestContractIsReturned(t *testing.T) {
	c := Contract{StartDay: 3, EndDay: 5}
	assert.False(t, c.IsReturned(4))
	assert.False(t, c.IsReturned(5))
	assert.True(t, c.IsReturned(6))
}
