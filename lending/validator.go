package lending

import "math"

// Request is a candidate loan of ItemID to BorrowerID over [StartDay,EndDay].
// OwnerID may be left empty, in which case the item's owner is used.
type Request struct {
	BorrowerID string
	OwnerID    string
	ItemID     string
	StartDay   int
	EndDay     int
}

// Days is the inclusive length of the requested period. It is 0 when the
// period is inverted or too long to count.
func (r Request) Days() int {
	if r.StartDay > r.EndDay {
		return 0
	}
	n := r.EndDay - r.StartDay
	if n < 0 || n == math.MaxInt {
		return 0
	}
	return n + 1
}

// Decision is the once-only outcome of admission. Cost is the strategy price
// of the period and is zero when the request was rejected.
type Decision struct {
	Valid  bool
	Cost   Credits
	Reason Rejection
}

// Err returns the admission error for a rejected decision, nil otherwise.
func (d Decision) Err() error {
	if d.Valid {
		return nil
	}
	return &AdmissionError{Reason: d.Reason}
}

// Admission holds everything the rules read. It is a snapshot; Evaluate
// never looks anything up by itself.
type Admission struct {
	Today          int
	Item           Item
	BorrowerCredit Credits
	SelfLoan       bool
	Strategy       CostStrategy
}

// Evaluate runs the admission rules in order and stops at the first failure:
// no retroactive start, start not after end, item free for the whole period,
// and the borrower able to pay (skipped for self-loans). A period whose
// length or price does not fit in an int64 fails the credit rule, self-loans
// included.
func Evaluate(req Request, in Admission) Decision {
	if req.StartDay < in.Today {
		return Decision{Reason: RejectRetroactive}
	}
	if req.StartDay > req.EndDay {
		return Decision{Reason: RejectInvertedSpan}
	}
	if !IsAvailable(in.Item.Contracts, req.StartDay, req.EndDay) {
		return Decision{Reason: RejectUnavailable}
	}
	days := req.Days()
	if days == 0 {
		return Decision{Reason: RejectCredit}
	}
	cost := in.Strategy.LendingCost(in.Item, days)
	if cost < 0 || cost == MaxCredits {
		return Decision{Reason: RejectCredit}
	}
	if !in.SelfLoan && in.BorrowerCredit < cost {
		return Decision{Reason: RejectCredit}
	}
	return Decision{Valid: true, Cost: cost}
}
