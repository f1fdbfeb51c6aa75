package lending

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Options configures a Manager. Zero values pick production defaults.
type Options struct {
	Clock    Clock
	StartDay int
	IDs      IDGenerator
	Strategy CostStrategy
	Logger   *slog.Logger
}

// Manager is a façade over the registries and the engine, keeping CLI code
// simple. Every method holds one lock for its whole duration, so the
// validate-then-transfer sequence never interleaves with another call.
type Manager struct {
	mu sync.Mutex

	store    Store
	clock    Clock
	members  *MemberRegistry
	items    *ItemRegistry
	engine   *Engine
	strategy CostStrategy
	log      *slog.Logger
}

// NewManager loads all collections from store. The clock resumes from the
// store's saved day when it has one.
func NewManager(ctx context.Context, store Store, opts Options) (*Manager, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.IDs == nil {
		opts.IDs = RandomIDs{}
	}
	if opts.Strategy == nil {
		opts.Strategy = FlatRate{}
	}
	if opts.Clock == nil {
		start := opts.StartDay
		if ds, ok := store.(DayStore); ok {
			day, found, err := ds.LoadDay(ctx)
			if err != nil {
				return nil, fmt.Errorf("load day: %w", err)
			}
			if found {
				start = day
			}
		}
		opts.Clock = NewDayCounter(start)
	}

	members, err := NewMemberRegistry(ctx, store, opts.Clock, opts.IDs)
	if err != nil {
		return nil, err
	}
	items, err := NewItemRegistry(ctx, store, opts.Clock, opts.IDs, members)
	if err != nil {
		return nil, err
	}
	return &Manager{
		store:    store,
		clock:    opts.Clock,
		members:  members,
		items:    items,
		engine:   NewEngine(opts.Clock, store, members, items, opts.IDs, opts.Logger),
		strategy: opts.Strategy,
		log:      opts.Logger,
	}, nil
}

// Close closes the underlying store if it holds resources.
func (m *Manager) Close() error {
	if c, ok := m.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ------------------ Clock ------------------

func (m *Manager) Today() int { return m.clock.CurrentDay() }

// AdvanceDay moves the clock one day forward, persisting the new day first
// when the store supports that. The clock does not move if the save fails.
func (m *Manager) AdvanceDay(ctx context.Context) (from, to int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	from = m.clock.CurrentDay()
	to = from + 1
	if ds, ok := m.store.(DayStore); ok {
		if err := ds.SaveDay(ctx, to); err != nil {
			return from, from, fmt.Errorf("save day: %w", err)
		}
	}
	m.clock.AdvanceDay()
	return from, m.clock.CurrentDay(), nil
}

// ------------------ Members ------------------

func (m *Manager) AddMember(ctx context.Context, name, phone, email string) (Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members.Create(ctx, name, phone, email)
}

func (m *Manager) GetMember(id string) (Member, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members.Get(id)
}

func (m *Manager) Members() []Member {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members.All()
}

func (m *Manager) UpdateMember(ctx context.Context, id, name, phone, email string) (Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members.Update(ctx, id, name, phone, email)
}

func (m *Manager) DeleteMember(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members.Delete(ctx, id)
}

func (m *Manager) SetPin(ctx context.Context, id, pin string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members.SetPin(ctx, id, pin)
}

// Authenticate checks a member's PIN. Members without a PIN always pass.
func (m *Manager) Authenticate(id, pin string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members.CheckPin(id, pin)
}

// ------------------ Items ------------------

func (m *Manager) AddItem(ctx context.Context, ownerID string, in ItemInput) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items.Create(ctx, ownerID, in)
}

func (m *Manager) GetItem(id string) (Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items.Get(id)
}

func (m *Manager) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items.All()
}

// ItemsOwnedBy returns the member's items in the order they were registered.
func (m *Manager) ItemsOwnedBy(memberID string) []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem, ok := m.members.Get(memberID)
	if !ok {
		return nil
	}
	out := make([]Item, 0, len(mem.ItemIDs))
	for _, id := range mem.ItemIDs {
		if it, ok := m.items.Get(id); ok {
			out = append(out, it)
		}
	}
	return out
}

func (m *Manager) UpdateItem(ctx context.Context, id string, in ItemInput) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items.Update(ctx, id, in)
}

func (m *Manager) DeleteItem(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items.Delete(ctx, id)
}

func (m *Manager) IsAvailable(itemID string, start, end int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items.Available(itemID, start, end)
}

// ------------------ Contracts ------------------

// Borrow lends itemID to borrowerID under the configured cost strategy.
func (m *Manager) Borrow(ctx context.Context, borrowerID, itemID string, start, end int) (Contract, error) {
	return m.CreateContract(ctx, Request{
		BorrowerID: borrowerID,
		ItemID:     itemID,
		StartDay:   start,
		EndDay:     end,
	}, nil)
}

// CreateContract runs the engine; a nil strategy uses the configured one.
func (m *Manager) CreateContract(ctx context.Context, req Request, strategy CostStrategy) (Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if strategy == nil {
		strategy = m.strategy
	}
	return m.engine.CreateContract(ctx, req, strategy)
}

// CancelContract removes a contract from its item without refunding it.
func (m *Manager) CancelContract(ctx context.Context, itemID, contractID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items.RemoveContract(ctx, itemID, contractID)
}

func (m *Manager) Contracts(ctx context.Context) ([]Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.Contracts(ctx)
}

// ------------------ Sample data ------------------

// Seed adds two members and one item each when there are no members yet.
// It reports whether anything was added.
func (m *Manager) Seed(ctx context.Context) (bool, error) {
	if len(m.Members()) > 0 {
		return false, nil
	}
	john, err := m.AddMember(ctx, "John Doe", "1234567890", "john@example.com")
	if err != nil {
		return false, err
	}
	jane, err := m.AddMember(ctx, "Jane Smith", "0987654321", "jane@example.com")
	if err != nil {
		return false, err
	}
	if _, err := m.AddItem(ctx, john.ID, ItemInput{
		Name:        "Power Drill",
		Category:    CategoryTool,
		Description: "A powerful cordless drill",
		CostPerDay:  WholeCredits(5),
	}); err != nil {
		return false, err
	}
	if _, err := m.AddItem(ctx, jane.ID, ItemInput{
		Name:        "Mountain Bike",
		Category:    CategorySport,
		Description: "High-quality mountain bike",
		CostPerDay:  WholeCredits(15),
	}); err != nil {
		return false, err
	}
	m.log.Info("sample data seeded")
	return true, nil
}
