package lending

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// ItemInput carries the editable fields of an item.
type ItemInput struct {
	Name        string
	Category    Category
	Description string
	CostPerDay  Credits
}

func (in ItemInput) normalize() ItemInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	return in
}

func (in ItemInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrNameRequired
	}
	if !in.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, in.Category)
	}
	if strings.TrimSpace(in.Description) == "" {
		return ErrDescriptionRequired
	}
	if in.CostPerDay < 0 {
		return ErrNegativeCost
	}
	return nil
}

// ItemRegistry owns item records and each item's contract list.
// It is not safe for concurrent use; Manager serialises access.
type ItemRegistry struct {
	store   Store
	clock   Clock
	ids     IDGenerator
	members *MemberRegistry
	items   map[string]*Item
	order   []string
}

// NewItemRegistry loads items and re-attaches their stored contracts.
func NewItemRegistry(ctx context.Context, store Store, clock Clock, ids IDGenerator, members *MemberRegistry) (*ItemRegistry, error) {
	stored, err := store.LoadItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	contracts, err := store.LoadContracts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load contracts: %w", err)
	}
	r := &ItemRegistry{
		store:   store,
		clock:   clock,
		ids:     ids,
		members: members,
		items:   make(map[string]*Item, len(stored)),
	}
	for _, it := range stored {
		it.Contracts = nil
		r.items[it.ID] = &it
		r.order = append(r.order, it.ID)
	}
	for _, c := range contracts {
		if it, ok := r.items[c.ItemID]; ok {
			it.Contracts = append(it.Contracts, c)
		}
	}
	return r, nil
}

// Create registers an item under ownerID and awards the owner
// ItemRegistrationBonus. Items and members are persisted together.
func (r *ItemRegistry) Create(ctx context.Context, ownerID string, in ItemInput) (Item, error) {
	in = in.normalize()
	if err := in.validate(); err != nil {
		return Item{}, err
	}
	owner, ok := r.members.Get(ownerID)
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrMemberNotFound, ownerID)
	}

	id := uniqueID(r.ids, func(id string) bool { _, ok := r.items[id]; return ok })
	it := &Item{
		ID:          id,
		Name:        in.Name,
		Category:    in.Category,
		Description: in.Description,
		CostPerDay:  in.CostPerDay,
		CreatedDay:  r.clock.CurrentDay(),
		OwnerID:     ownerID,
	}
	r.items[id] = it
	r.order = append(r.order, id)
	if err := r.members.addItem(ownerID, id); err != nil {
		r.forget(id)
		return Item{}, err
	}

	err := atomically(ctx, r.store, func(tx Store) error {
		if err := r.save(ctx, tx); err != nil {
			return err
		}
		return r.members.save(ctx, tx)
	})
	if err != nil {
		r.forget(id)
		r.members.restore(owner)
		return Item{}, fmt.Errorf("save item: %w", err)
	}
	return it.clone(), nil
}

// Get returns a snapshot of the item including its contracts.
func (r *ItemRegistry) Get(id string) (Item, bool) {
	it, ok := r.items[id]
	if !ok {
		return Item{}, false
	}
	return it.clone(), true
}

// All returns every item in registration order.
func (r *ItemRegistry) All() []Item {
	out := make([]Item, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id].clone())
	}
	return out
}

// Update replaces the editable fields. It reports false when there is no
// such item.
func (r *ItemRegistry) Update(ctx context.Context, id string, in ItemInput) (bool, error) {
	it, ok := r.items[id]
	if !ok {
		return false, nil
	}
	in = in.normalize()
	if err := in.validate(); err != nil {
		return false, err
	}
	prev := it.clone()
	it.Name, it.Category, it.Description, it.CostPerDay = in.Name, in.Category, in.Description, in.CostPerDay
	if err := r.save(ctx, r.store); err != nil {
		*it = prev
		return false, fmt.Errorf("save items: %w", err)
	}
	return true, nil
}

// Delete removes the item, its contracts and the owner's reference to it.
// Deletion is allowed even while contracts on the item are still running;
// credits already transferred for them stay where they are.
func (r *ItemRegistry) Delete(ctx context.Context, id string) (bool, error) {
	it, ok := r.items[id]
	if !ok {
		return false, nil
	}
	owner, hadOwner := r.members.Get(it.OwnerID)
	idx := slices.Index(r.order, id)
	r.forget(id)
	r.members.removeItem(it.OwnerID, id)

	err := atomically(ctx, r.store, func(tx Store) error {
		contracts, err := tx.LoadContracts(ctx)
		if err != nil {
			return err
		}
		contracts = slices.DeleteFunc(contracts, func(c Contract) bool { return c.ItemID == id })
		if err := tx.SaveContracts(ctx, contracts); err != nil {
			return err
		}
		if err := r.save(ctx, tx); err != nil {
			return err
		}
		return r.members.save(ctx, tx)
	})
	if err != nil {
		r.items[id] = it
		r.order = slices.Insert(r.order, idx, id)
		if hadOwner {
			r.members.restore(owner)
		}
		return false, fmt.Errorf("delete item: %w", err)
	}
	return true, nil
}

// RemoveContract detaches a contract from its item. This is the only way to
// cancel a contract and it does not refund anything.
func (r *ItemRegistry) RemoveContract(ctx context.Context, itemID, contractID string) error {
	it, ok := r.items[itemID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	gone, ok := r.detach(itemID, contractID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrContractNotFound, contractID)
	}
	err := atomically(ctx, r.store, func(tx Store) error {
		contracts, err := tx.LoadContracts(ctx)
		if err != nil {
			return err
		}
		contracts = slices.DeleteFunc(contracts, func(c Contract) bool { return c.ID == contractID })
		return tx.SaveContracts(ctx, contracts)
	})
	if err != nil {
		it.Contracts = slices.Insert(it.Contracts, gone.index, gone.Contract)
		return fmt.Errorf("save contracts: %w", err)
	}
	return nil
}

// Available reports whether the item is free for the whole of [start,end].
func (r *ItemRegistry) Available(id string, start, end int) (bool, error) {
	it, ok := r.items[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return IsAvailable(it.Contracts, start, end), nil
}

func (r *ItemRegistry) attach(itemID string, c Contract) error {
	it, ok := r.items[itemID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	it.Contracts = append(it.Contracts, c)
	return nil
}

type detached struct {
	Contract
	index int
}

func (r *ItemRegistry) detach(itemID, contractID string) (detached, bool) {
	it, ok := r.items[itemID]
	if !ok {
		return detached{}, false
	}
	i := slices.IndexFunc(it.Contracts, func(c Contract) bool { return c.ID == contractID })
	if i < 0 {
		return detached{}, false
	}
	c := it.Contracts[i]
	it.Contracts = slices.Delete(it.Contracts, i, i+1)
	return detached{Contract: c, index: i}, true
}

func (r *ItemRegistry) forget(id string) {
	delete(r.items, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
}

// save writes items without their contract lists; contracts have their own
// collection.
func (r *ItemRegistry) save(ctx context.Context, s Store) error {
	items := make([]Item, 0, len(r.order))
	for _, id := range r.order {
		it := *r.items[id]
		it.Contracts = nil
		items = append(items, it)
	}
	return s.SaveItems(ctx, items)
}
