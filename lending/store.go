package lending

import (
	"context"
	"slices"
	"sync"
)

// Store persists the three collections. Every Save replaces the whole
// collection; every Load returns a copy the caller may modify freely.
type Store interface {
	LoadMembers(ctx context.Context) ([]Member, error)
	SaveMembers(ctx context.Context, members []Member) error
	LoadItems(ctx context.Context) ([]Item, error)
	SaveItems(ctx context.Context, items []Item) error
	LoadContracts(ctx context.Context) ([]Contract, error)
	SaveContracts(ctx context.Context, contracts []Contract) error
}

// Transactor is implemented by stores that can apply several saves as one
// unit. fn receives a Store bound to the transaction.
type Transactor interface {
	Atomically(ctx context.Context, fn func(tx Store) error) error
}

// DayStore is implemented by stores that remember the clock between runs.
type DayStore interface {
	LoadDay(ctx context.Context) (day int, ok bool, err error)
	SaveDay(ctx context.Context, day int) error
}

// atomically runs fn as one unit on s. Stores without transactions get a
// snapshot of all collections that is written back if fn fails.
func atomically(ctx context.Context, s Store, fn func(tx Store) error) error {
	if t, ok := s.(Transactor); ok {
		return t.Atomically(ctx, fn)
	}
	members, err := s.LoadMembers(ctx)
	if err != nil {
		return err
	}
	items, err := s.LoadItems(ctx)
	if err != nil {
		return err
	}
	contracts, err := s.LoadContracts(ctx)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		// Best effort; fn's error is the one to report.
		_ = s.SaveMembers(ctx, members)
		_ = s.SaveItems(ctx, items)
		_ = s.SaveContracts(ctx, contracts)
		return err
	}
	return nil
}

// MemoryStore keeps the collections in process memory.
type MemoryStore struct {
	mu        sync.Mutex
	members   []Member
	items     []Item
	contracts []Contract
	day       *int
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) LoadMembers(context.Context) ([]Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMembers(s.members), nil
}

func (s *MemoryStore) SaveMembers(_ context.Context, members []Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = cloneMembers(members)
	return nil
}

func (s *MemoryStore) LoadItems(context.Context) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items), nil
}

func (s *MemoryStore) SaveItems(_ context.Context, items []Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = cloneItems(items)
	return nil
}

func (s *MemoryStore) LoadContracts(context.Context) ([]Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.contracts), nil
}

func (s *MemoryStore) SaveContracts(_ context.Context, contracts []Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts = slices.Clone(contracts)
	return nil
}

// Atomically applies fn to a scratch copy and swaps it in on success.
func (s *MemoryStore) Atomically(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	scratch := &MemoryStore{
		members:   cloneMembers(s.members),
		items:     cloneItems(s.items),
		contracts: slices.Clone(s.contracts),
	}
	s.mu.Unlock()

	if err := fn(scratch); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.members, s.items, s.contracts = scratch.members, scratch.items, scratch.contracts
	return nil
}

func (s *MemoryStore) LoadDay(context.Context) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.day == nil {
		return 0, false, nil
	}
	return *s.day, true, nil
}

func (s *MemoryStore) SaveDay(_ context.Context, day int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.day = &day
	return nil
}

func cloneMembers(in []Member) []Member {
	if in == nil {
		return nil
	}
	out := make([]Member, len(in))
	for i, m := range in {
		out[i] = m.clone()
	}
	return out
}

func cloneItems(in []Item) []Item {
	if in == nil {
		return nil
	}
	out := make([]Item, len(in))
	for i, it := range in {
		out[i] = it.clone()
	}
	return out
}
