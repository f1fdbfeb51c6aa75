package lending

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MemberRegistry owns member records and every credit mutation.
// It is not safe for concurrent use; Manager serialises access.
type MemberRegistry struct {
	store   Store
	clock   Clock
	ids     IDGenerator
	members map[string]*Member
	order   []string

	pinCost int
}

// NewMemberRegistry loads the members currently in store.
func NewMemberRegistry(ctx context.Context, store Store, clock Clock, ids IDGenerator) (*MemberRegistry, error) {
	stored, err := store.LoadMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	r := &MemberRegistry{
		store:   store,
		clock:   clock,
		ids:     ids,
		members: make(map[string]*Member, len(stored)),
		pinCost: bcrypt.DefaultCost,
	}
	for _, m := range stored {
		r.members[m.ID] = &m
		r.order = append(r.order, m.ID)
	}
	return r, nil
}

// Create registers a member with zero credit on the current day.
func (r *MemberRegistry) Create(ctx context.Context, name, phone, email string) (Member, error) {
	name, phone, email = strings.TrimSpace(name), strings.TrimSpace(phone), strings.TrimSpace(email)
	if err := validateMember(name, phone, email); err != nil {
		return Member{}, err
	}
	if r.emailTaken(email, "") {
		return Member{}, ErrDuplicateEmail
	}
	if r.phoneTaken(phone, "") {
		return Member{}, ErrDuplicatePhone
	}

	id := uniqueID(r.ids, func(id string) bool { _, ok := r.members[id]; return ok })
	m := &Member{
		ID:         id,
		Name:       name,
		Email:      email,
		Phone:      phone,
		CreatedDay: r.clock.CurrentDay(),
	}
	r.members[id] = m
	r.order = append(r.order, id)

	if err := r.save(ctx, r.store); err != nil {
		delete(r.members, id)
		r.order = r.order[:len(r.order)-1]
		return Member{}, fmt.Errorf("save members: %w", err)
	}
	return m.clone(), nil
}

// Get returns a snapshot of the member; ok is false when there is none.
func (r *MemberRegistry) Get(id string) (m Member, ok bool) {
	p, ok := r.members[id]
	if !ok {
		return Member{}, false
	}
	return p.clone(), true
}

// All returns every member in registration order.
func (r *MemberRegistry) All() []Member {
	out := make([]Member, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.members[id].clone())
	}
	return out
}

// Update replaces name, phone and email. Uniqueness is only checked for
// values that actually change.
func (r *MemberRegistry) Update(ctx context.Context, id, name, phone, email string) (Member, error) {
	m, ok := r.members[id]
	if !ok {
		return Member{}, fmt.Errorf("%w: %s", ErrMemberNotFound, id)
	}
	name, phone, email = strings.TrimSpace(name), strings.TrimSpace(phone), strings.TrimSpace(email)
	if err := validateMember(name, phone, email); err != nil {
		return Member{}, err
	}
	if email != m.Email && r.emailTaken(email, id) {
		return Member{}, ErrDuplicateEmail
	}
	if phone != m.Phone && r.phoneTaken(phone, id) {
		return Member{}, ErrDuplicatePhone
	}

	prev := m.clone()
	m.Name, m.Phone, m.Email = name, phone, email
	if err := r.save(ctx, r.store); err != nil {
		*m = prev
		return Member{}, fmt.Errorf("save members: %w", err)
	}
	return m.clone(), nil
}

// Delete removes the member. Items they own are left in place.
func (r *MemberRegistry) Delete(ctx context.Context, id string) (bool, error) {
	m, ok := r.members[id]
	if !ok {
		return false, nil
	}
	idx := slices.Index(r.order, id)
	delete(r.members, id)
	r.order = slices.Delete(r.order, idx, idx+1)

	if err := r.save(ctx, r.store); err != nil {
		r.members[id] = m
		r.order = slices.Insert(r.order, idx, id)
		return false, fmt.Errorf("save members: %w", err)
	}
	return true, nil
}

// SetPin stores a bcrypt hash of pin for the member.
func (r *MemberRegistry) SetPin(ctx context.Context, id, pin string) error {
	m, ok := r.members[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMemberNotFound, id)
	}
	if strings.TrimSpace(pin) == "" {
		return ErrPinRequired
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), r.pinCost)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}
	prev := m.PinHash
	m.PinHash = string(hash)
	if err := r.save(ctx, r.store); err != nil {
		m.PinHash = prev
		return fmt.Errorf("save members: %w", err)
	}
	return nil
}

// CheckPin verifies pin for a member. Members without a PIN always pass.
func (r *MemberRegistry) CheckPin(id, pin string) error {
	m, ok := r.members[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMemberNotFound, id)
	}
	if m.PinHash == "" {
		return nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(m.PinHash), []byte(pin))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidPin
	}
	return err
}

func (r *MemberRegistry) emailTaken(email, except string) bool {
	for id, m := range r.members {
		if id != except && m.Email == email {
			return true
		}
	}
	return false
}

func (r *MemberRegistry) phoneTaken(phone, except string) bool {
	for id, m := range r.members {
		if id != except && m.Phone == phone {
			return true
		}
	}
	return false
}

func validateMember(name, phone, email string) error {
	if name == "" {
		return ErrNameRequired
	}
	if phone == "" {
		return ErrPhoneRequired
	}
	if strings.Count(email, "@") != 1 {
		return ErrInvalidEmail
	}
	return nil
}

// ---------------------------------------------------------------------------
// Credit mutations. Every one keeps credit >= 0.
// ---------------------------------------------------------------------------

func (r *MemberRegistry) setCredit(id string, c Credits) error {
	if c < 0 {
		return ErrNegativeCredit
	}
	m, ok := r.members[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMemberNotFound, id)
	}
	m.Credit = c
	return nil
}

func (r *MemberRegistry) deduct(id string, amount Credits) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	m, ok := r.members[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMemberNotFound, id)
	}
	if m.Credit < amount {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientCredit, id, m.Credit, amount)
	}
	m.Credit -= amount
	return nil
}

func (r *MemberRegistry) increase(id string, amount Credits) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	m, ok := r.members[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMemberNotFound, id)
	}
	if m.Credit > MaxCredits-amount {
		return fmt.Errorf("%w: %s", ErrCreditOverflow, id)
	}
	m.Credit += amount
	return nil
}

// addItem records itemID as owned by the member and awards the
// registration bonus.
func (r *MemberRegistry) addItem(id, itemID string) error {
	m, ok := r.members[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMemberNotFound, id)
	}
	if m.Credit > MaxCredits-ItemRegistrationBonus {
		return fmt.Errorf("%w: %s", ErrCreditOverflow, id)
	}
	m.ItemIDs = append(m.ItemIDs, itemID)
	m.Credit += ItemRegistrationBonus
	return nil
}

func (r *MemberRegistry) removeItem(id, itemID string) {
	m, ok := r.members[id]
	if !ok {
		return
	}
	if i := slices.Index(m.ItemIDs, itemID); i >= 0 {
		m.ItemIDs = slices.Delete(m.ItemIDs, i, i+1)
	}
}

func (r *MemberRegistry) restore(m Member) {
	if p, ok := r.members[m.ID]; ok {
		*p = m.clone()
	}
}

func (r *MemberRegistry) save(ctx context.Context, s Store) error {
	return s.SaveMembers(ctx, r.All())
}
