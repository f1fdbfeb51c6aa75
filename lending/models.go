package lending

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Credits is a fixed-point amount in hundredths of a credit.
type Credits int64

// CreditUnit is one whole credit.
const CreditUnit Credits = 100

// ItemRegistrationBonus is awarded to a member for every item they register.
const ItemRegistrationBonus Credits = 100 * CreditUnit

// WholeCredits converts a whole number of credits.
func WholeCredits(n int64) Credits { return Credits(n) * CreditUnit }

func (c Credits) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MaxCredits is the largest representable amount. Cost strategies return it
// when a price does not fit.
const MaxCredits Credits = math.MaxInt64

// times multiplies c by n, saturating at MaxCredits.
func (c Credits) times(n int) Credits {
	if c <= 0 || n <= 0 {
		return c * Credits(n)
	}
	if int64(n) > int64(MaxCredits/c) {
		return MaxCredits
	}
	return c * Credits(n)
}

// ParseCredits parses "12", "12.5" or "12.50", optionally with a leading
// minus. More than two decimals is an error.
func ParseCredits(s string) (Credits, error) {
	s = strings.TrimSpace(s)
	digits, neg := strings.CutPrefix(s, "-")
	whole, frac, hasFrac := strings.Cut(digits, ".")
	if (whole == "" && !hasFrac) || !allDigits(whole) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if hasFrac && (len(frac) == 0 || len(frac) > 2 || !allDigits(frac)) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	var w, f int64
	if whole != "" {
		var err error
		if w, err = strconv.ParseInt(whole, 10, 64); err != nil || w > (math.MaxInt64-99)/100 {
			return 0, fmt.Errorf("amount %q is out of range", s)
		}
	}
	if hasFrac {
		if len(frac) == 1 {
			frac += "0"
		}
		f, _ = strconv.ParseInt(frac, 10, 64)
	}
	c := Credits(w*100 + f)
	if neg {
		c = -c
	}
	return c, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Category classifies an item.
type Category string

const (
	CategoryTool    Category = "tool"
	CategoryVehicle Category = "vehicle"
	CategoryGame    Category = "game"
	CategoryToy     Category = "toy"
	CategorySport   Category = "sport"
	CategoryOther   Category = "other"
)

// Categories lists every valid category in display order.
var Categories = []Category{CategoryTool, CategoryVehicle, CategoryGame, CategoryToy, CategorySport, CategoryOther}

// ParseCategory accepts any casing of a category name.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

func (c Category) Valid() bool { return slices.Contains(Categories, c) }

// Member is a registered lender/borrower.
type Member struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Credit     Credits  `json:"credit"`
	CreatedDay int      `json:"created_day"`
	ItemIDs    []string `json:"item_ids"`
	PinHash    string   `json:"-"` // Never serialised
}

// HasPin reports whether borrowing on behalf of the member needs a PIN.
func (m Member) HasPin() bool { return m.PinHash != "" }

func (m Member) clone() Member {
	m.ItemIDs = slices.Clone(m.ItemIDs)
	return m
}

// Item is something a member lends out. Contracts is ordered by insertion
// and is rebuilt from the contract collection when loaded from a store.
type Item struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Category    Category   `json:"category"`
	Description string     `json:"description"`
	CostPerDay  Credits    `json:"cost_per_day"`
	CreatedDay  int        `json:"created_day"`
	OwnerID     string     `json:"owner_id"`
	Contracts   []Contract `json:"-"`
}

func (it Item) clone() Item {
	it.Contracts = slices.Clone(it.Contracts)
	return it
}

// Contract is an immutable lending agreement.
type Contract struct {
	ID         string  `json:"id"`
	BorrowerID string  `json:"borrower_id"`
	ItemID     string  `json:"item_id"`
	StartDay   int     `json:"start_day"`
	EndDay     int     `json:"end_day"`
	Valid      bool    `json:"valid"`
	TotalCost  Credits `json:"total_cost"`
}

// Days is the inclusive length of the contract.
func (c Contract) Days() int { return c.EndDay - c.StartDay + 1 }

// IsReturned reports whether the lending period is over on day today.
func (c Contract) IsReturned(today int) bool { return today > c.EndDay }
