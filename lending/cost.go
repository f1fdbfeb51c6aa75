package lending

import "fmt"

// CostStrategy prices a loan of item for days days. Implementations must be
// pure: no clock, no global state. A price too large to represent is
// reported as MaxCredits.
type CostStrategy interface {
	LendingCost(item Item, days int) Credits
}

// CostFunc adapts a plain function to CostStrategy.
type CostFunc func(item Item, days int) Credits

func (f CostFunc) LendingCost(item Item, days int) Credits { return f(item, days) }

// FlatRate charges the item's cost per day for every day.
type FlatRate struct{}

func (FlatRate) LendingCost(item Item, days int) Credits {
	return item.CostPerDay.times(days)
}

// WeeklyDiscount bills every full seven days as six.
type WeeklyDiscount struct{}

func (WeeklyDiscount) LendingCost(item Item, days int) Credits {
	billable := days - days/7
	return item.CostPerDay.times(billable)
}

// StrategyByName resolves the configured strategy name.
func StrategyByName(name string) (CostStrategy, error) {
	switch name {
	case "", "flat":
		return FlatRate{}, nil
	case "weekly":
		return WeeklyDiscount{}, nil
	}
	return nil, fmt.Errorf("unknown cost strategy %q", name)
}
