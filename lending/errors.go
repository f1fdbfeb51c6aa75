package lending

import (
	"errors"
	"fmt"
)

// Member errors
var (
	ErrMemberNotFound     = errors.New("member not found")
	ErrDuplicateEmail     = errors.New("email is already in use")
	ErrDuplicatePhone     = errors.New("phone is already in use")
	ErrInvalidEmail       = errors.New("invalid email, needs to contain '@'")
	ErrNameRequired       = errors.New("name cannot be empty")
	ErrPhoneRequired      = errors.New("phone cannot be empty")
	ErrNegativeCredit     = errors.New("credits cannot be negative")
	ErrInvalidAmount      = errors.New("amount must be greater than 0")
	ErrInsufficientCredit = errors.New("insufficient credit")
	ErrCreditOverflow     = errors.New("credit would exceed the maximum balance")
	ErrInvalidPin         = errors.New("invalid PIN")
	ErrPinRequired        = errors.New("PIN cannot be empty")
)

// Item errors
var (
	ErrItemNotFound        = errors.New("item not found")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrDescriptionRequired = errors.New("description cannot be empty")
	ErrNegativeCost        = errors.New("cost per day cannot be negative")
	ErrContractNotFound    = errors.New("contract not found")
)

// Contract errors
var (
	ErrNotAdmitted   = errors.New("cannot establish contract due to invalid conditions")
	ErrOwnerMismatch = errors.New("owner does not own the item")
)

// Rejection names the admission rule a candidate contract failed.
type Rejection string

const (
	RejectRetroactive  Rejection = "timing: start day is in the past"
	RejectInvertedSpan Rejection = "timing: start day is after end day"
	RejectUnavailable  Rejection = "availability: item is already lent for part of the period"
	RejectCredit       Rejection = "credit: borrower cannot afford the contract"
)

// Category is the coarse failure class: timing, availability or credit.
func (r Rejection) Category() string {
	switch r {
	case RejectRetroactive, RejectInvertedSpan:
		return "timing"
	case RejectUnavailable:
		return "availability"
	case RejectCredit:
		return "credit"
	}
	return ""
}

// AdmissionError is returned when a contract fails an admission rule.
// Nothing has been mutated when it is returned.
type AdmissionError struct {
	Reason Rejection
}

func (e *AdmissionError) Error() string {
	return fmt.Sprintf("%s (%s)", ErrNotAdmitted, e.Reason)
}

func (e *AdmissionError) Is(target error) bool { return target == ErrNotAdmitted }

// TransferError is returned when contract creation failed after admission.
// Both member balances are back at their values from before the call.
type TransferError struct {
	Err error
}

func (e *TransferError) Error() string { return "contract creation failed: " + e.Err.Error() }

func (e *TransferError) Unwrap() error { return e.Err }
