package lending

import (
	"context"
	"fmt"
	"log/slog"
)

// Engine forms contracts and moves credits between borrower and owner.
// It is not safe for concurrent use; Manager serialises access.
type Engine struct {
	clock   Clock
	store   Store
	members *MemberRegistry
	items   *ItemRegistry
	ids     IDGenerator
	log     *slog.Logger
}

func NewEngine(clock Clock, store Store, members *MemberRegistry, items *ItemRegistry, ids IDGenerator, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		clock:   clock,
		store:   store,
		members: members,
		items:   items,
		ids:     ids,
		log:     logger,
	}
}

// CreateContract admits req under strategy and, when admitted, moves the
// effective cost from borrower to owner, attaches the contract to the item
// and persists contracts and members as one unit.
//
// A rejected request returns an *AdmissionError and changes nothing. A
// failure after admission returns a *TransferError; balances, the item's
// contract list and the store are left as they were before the call.
func (e *Engine) CreateContract(ctx context.Context, req Request, strategy CostStrategy) (Contract, error) {
	borrower, ok := e.members.Get(req.BorrowerID)
	if !ok {
		return Contract{}, fmt.Errorf("borrower %w: %s", ErrMemberNotFound, req.BorrowerID)
	}
	item, ok := e.items.Get(req.ItemID)
	if !ok {
		return Contract{}, fmt.Errorf("%w: %s", ErrItemNotFound, req.ItemID)
	}
	if req.OwnerID == "" {
		req.OwnerID = item.OwnerID
	} else if req.OwnerID != item.OwnerID {
		return Contract{}, fmt.Errorf("%w: %s does not own %s", ErrOwnerMismatch, req.OwnerID, item.ID)
	}
	owner, ok := e.members.Get(req.OwnerID)
	if !ok {
		return Contract{}, fmt.Errorf("owner %w: %s", ErrMemberNotFound, req.OwnerID)
	}
	if strategy == nil {
		strategy = FlatRate{}
	}

	selfLoan := borrower.ID == owner.ID
	d := Evaluate(req, Admission{
		Today:          e.clock.CurrentDay(),
		Item:           item,
		BorrowerCredit: borrower.Credit,
		SelfLoan:       selfLoan,
		Strategy:       strategy,
	})
	if !d.Valid {
		e.log.Debug("contract rejected",
			slog.String("borrower", borrower.ID),
			slog.String("item", item.ID),
			slog.String("reason", string(d.Reason)))
		return Contract{}, d.Err()
	}

	c := Contract{
		ID:         uniqueID(e.ids, e.contractTaken),
		BorrowerID: borrower.ID,
		ItemID:     item.ID,
		StartDay:   req.StartDay,
		EndDay:     req.EndDay,
		Valid:      true,
		TotalCost:  d.Cost,
	}
	effective := d.Cost
	if selfLoan {
		effective = 0
	}

	if err := e.commit(ctx, borrower, owner, c, effective); err != nil {
		e.log.Warn("contract rolled back",
			slog.String("contract", c.ID),
			slog.String("borrower", borrower.ID),
			slog.String("owner", owner.ID),
			slog.String("error", err.Error()))
		return Contract{}, &TransferError{Err: err}
	}

	e.log.Info("contract created",
		slog.String("contract", c.ID),
		slog.String("item", item.ID),
		slog.String("borrower", borrower.ID),
		slog.Int("start", c.StartDay),
		slog.Int("end", c.EndDay),
		slog.String("cost", effective.String()))
	return c, nil
}

// commit performs transfer, attachment and persistence. On error every
// in-memory effect is undone; the store is protected by atomically.
func (e *Engine) commit(ctx context.Context, borrower, owner Member, c Contract, cost Credits) (err error) {
	attached := false
	defer func() {
		if err == nil {
			return
		}
		// Snapshots were read from the registry, so they are never negative.
		_ = e.members.setCredit(borrower.ID, borrower.Credit)
		_ = e.members.setCredit(owner.ID, owner.Credit)
		if attached {
			e.items.detach(c.ItemID, c.ID)
		}
	}()

	if cost > 0 {
		if err := e.members.deduct(borrower.ID, cost); err != nil {
			return err
		}
		if err := e.members.increase(owner.ID, cost); err != nil {
			return err
		}
	}

	if err := e.items.attach(c.ItemID, c); err != nil {
		return err
	}
	attached = true

	return atomically(ctx, e.store, func(tx Store) error {
		contracts, err := tx.LoadContracts(ctx)
		if err != nil {
			return fmt.Errorf("load contracts: %w", err)
		}
		if err := tx.SaveContracts(ctx, append(contracts, c)); err != nil {
			return fmt.Errorf("save contracts: %w", err)
		}
		if err := e.members.save(ctx, tx); err != nil {
			return fmt.Errorf("save members: %w", err)
		}
		return nil
	})
}

// Contracts returns every persisted contract.
func (e *Engine) Contracts(ctx context.Context) ([]Contract, error) {
	return e.store.LoadContracts(ctx)
}

func (e *Engine) contractTaken(id string) bool {
	for _, it := range e.items.items {
		for _, c := range it.Contracts {
			if c.ID == id {
				return true
			}
		}
	}
	return false
}
