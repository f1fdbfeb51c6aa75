package lending

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var errBoom = errors.New("boom")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestManager builds a Manager on store with deterministic IDs and a
// cheap bcrypt cost.
func newTestManager(t *testing.T, store Store, today int) *Manager {
	t.Helper()
	mgr, err := NewManager(context.Background(), store, Options{
		Clock:  NewDayCounter(today),
		IDs:    &SequentialIDs{Prefix: "T"},
		Logger: quietLogger(),
	})
	require.NoError(t, err)
	mgr.members.pinCost = bcrypt.MinCost
	return mgr
}

func mustMember(t *testing.T, mgr *Manager, name, phone, email string) Member {
	t.Helper()
	m, err := mgr.AddMember(context.Background(), name, phone, email)
	require.NoError(t, err)
	return m
}

func mustItem(t *testing.T, mgr *Manager, ownerID, name string, costPerDay int64) Item {
	t.Helper()
	it, err := mgr.AddItem(context.Background(), ownerID, ItemInput{
		Name:        name,
		Category:    CategoryTool,
		Description: name + " for lending",
		CostPerDay:  WholeCredits(costPerDay),
	})
	require.NoError(t, err)
	return it
}

func credit(t *testing.T, mgr *Manager, id string) Credits {
	t.Helper()
	m, ok := mgr.GetMember(id)
	require.True(t, ok, "member %s", id)
	return m.Credit
}

// flakyStore wraps a MemoryStore without exposing its transactions, so
// writes go through the snapshot fallback. Each flag fails the matching Save.
type flakyStore struct {
	inner *MemoryStore

	failMembers   bool
	failItems     bool
	failContracts bool
}

func newFlakyStore() *flakyStore { return &flakyStore{inner: NewMemoryStore()} }

func (s *flakyStore) LoadMembers(ctx context.Context) ([]Member, error) {
	return s.inner.LoadMembers(ctx)
}

func (s *flakyStore) SaveMembers(ctx context.Context, members []Member) error {
	if s.failMembers {
		return errBoom
	}
	return s.inner.SaveMembers(ctx, members)
}

func (s *flakyStore) LoadItems(ctx context.Context) ([]Item, error) {
	return s.inner.LoadItems(ctx)
}

func (s *flakyStore) SaveItems(ctx context.Context, items []Item) error {
	if s.failItems {
		return errBoom
	}
	return s.inner.SaveItems(ctx, items)
}

func (s *flakyStore) LoadContracts(ctx context.Context) ([]Contract, error) {
	return s.inner.LoadContracts(ctx)
}

func (s *flakyStore) SaveContracts(ctx context.Context, contracts []Contract) error {
	if s.failContracts {
		return errBoom
	}
	return s.inner.SaveContracts(ctx, contracts)
}
