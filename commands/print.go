package commands

import (
	"fmt"
	"io"
	"strings"

	"stuff-lending/lending"
)

func printMembers(w io.Writer, mgr *lending.Manager, verbose bool) {
	members := mgr.Members()
	if len(members) == 0 {
		fmt.Fprintln(w, "No members registered.")
		return
	}

	if !verbose {
		fmt.Fprintf(w, "%-8s %-25s %-30s %10s %6s\n", "ID", "Name", "Email", "Credits", "Items")
		fmt.Fprintln(w, strings.Repeat("-", 83))
		for _, m := range members {
			fmt.Fprintf(w, "%-8s %-25s %-30s %10s %6d\n",
				m.ID, truncateString(m.Name, 25), truncateString(m.Email, 30), m.Credit, len(m.ItemIDs))
		}
		return
	}

	today := mgr.Today()
	for i, m := range members {
		if i > 0 {
			fmt.Fprintln(w, "---")
		}
		printMember(w, m)
		for _, it := range mgr.ItemsOwnedBy(m.ID) {
			fmt.Fprintf(w, "  * %s [%s] %s/day (%s)\n", it.Name, it.Category, it.CostPerDay, it.ID)
			for _, c := range it.Contracts {
				fmt.Fprintf(w, "      lent to %s, days %d-%d, %s%s\n",
					borrowerName(mgr, c.BorrowerID), c.StartDay, c.EndDay, c.TotalCost, returnedSuffix(c, today))
			}
		}
	}
}

func printMember(w io.Writer, m lending.Member) {
	fmt.Fprintf(w, "Member ID: %s\n", m.ID)
	fmt.Fprintf(w, "Name: %s\n", m.Name)
	fmt.Fprintf(w, "Email: %s\n", m.Email)
	fmt.Fprintf(w, "Phone: %s\n", m.Phone)
	fmt.Fprintf(w, "Credits: %s\n", m.Credit)
	fmt.Fprintf(w, "Created: Day %d\n", m.CreatedDay)
	fmt.Fprintf(w, "Owned Items: %d\n", len(m.ItemIDs))
	if m.HasPin() {
		fmt.Fprintln(w, "PIN: set")
	}
}

func printItems(w io.Writer, mgr *lending.Manager) {
	items := mgr.Items()
	if len(items) == 0 {
		fmt.Fprintln(w, "No items found.")
		return
	}
	fmt.Fprintf(w, "%-8s %-25s %-8s %10s %-20s %9s\n", "ID", "Name", "Category", "Cost/day", "Owner", "Contracts")
	fmt.Fprintln(w, strings.Repeat("-", 85))
	for _, it := range items {
		fmt.Fprintf(w, "%-8s %-25s %-8s %10s %-20s %9d\n",
			it.ID, truncateString(it.Name, 25), it.Category, it.CostPerDay,
			truncateString(borrowerName(mgr, it.OwnerID), 20), len(it.Contracts))
	}
}

func printItem(w io.Writer, mgr *lending.Manager, it lending.Item) {
	fmt.Fprintf(w, "Item ID: %s\n", it.ID)
	fmt.Fprintf(w, "Name: %s\n", it.Name)
	fmt.Fprintf(w, "Category: %s\n", it.Category)
	fmt.Fprintf(w, "Description: %s\n", it.Description)
	fmt.Fprintf(w, "Cost/day: %s\n", it.CostPerDay)
	fmt.Fprintf(w, "Owner: %s\n", borrowerName(mgr, it.OwnerID))
	fmt.Fprintf(w, "Created: Day %d\n", it.CreatedDay)

	fmt.Fprintln(w, "\nContract History:")
	if len(it.Contracts) == 0 {
		fmt.Fprintln(w, "No contracts found for this item.")
		return
	}
	today := mgr.Today()
	for _, c := range it.Contracts {
		fmt.Fprintf(w, "  %s: %s, days %d-%d, %s%s\n",
			c.ID, borrowerName(mgr, c.BorrowerID), c.StartDay, c.EndDay, c.TotalCost, returnedSuffix(c, today))
	}
}

func printContract(w io.Writer, mgr *lending.Manager, c lending.Contract) {
	fmt.Fprintf(w, "Contract ID: %s\n", c.ID)
	fmt.Fprintf(w, "Item: %s\n", itemName(mgr, c.ItemID))
	fmt.Fprintf(w, "Borrower: %s\n", borrowerName(mgr, c.BorrowerID))
	fmt.Fprintf(w, "Start Date: Day %d\n", c.StartDay)
	fmt.Fprintf(w, "End Date: Day %d\n", c.EndDay)
	fmt.Fprintf(w, "Total Cost: %s\n", c.TotalCost)
	valid := "No"
	if c.Valid {
		valid = "Yes"
	}
	fmt.Fprintf(w, "Valid: %s\n", valid)
}

func printContracts(w io.Writer, mgr *lending.Manager, contracts []lending.Contract) {
	if len(contracts) == 0 {
		fmt.Fprintln(w, "No contracts found.")
		return
	}
	today := mgr.Today()
	fmt.Fprintf(w, "%-8s %-25s %-20s %6s %6s %10s %-9s\n", "ID", "Item", "Borrower", "Start", "End", "Cost", "Status")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, c := range contracts {
		status := "active"
		if c.IsReturned(today) {
			status = "returned"
		} else if c.StartDay > today {
			status = "upcoming"
		}
		fmt.Fprintf(w, "%-8s %-25s %-20s %6d %6d %10s %-9s\n",
			c.ID, truncateString(itemName(mgr, c.ItemID), 25), truncateString(borrowerName(mgr, c.BorrowerID), 20),
			c.StartDay, c.EndDay, c.TotalCost, status)
	}
}

func borrowerName(mgr *lending.Manager, id string) string {
	if m, ok := mgr.GetMember(id); ok {
		return fmt.Sprintf("%s (%s)", m.Name, m.ID)
	}
	return fmt.Sprintf("ID: %s", id)
}

func itemName(mgr *lending.Manager, id string) string {
	if it, ok := mgr.GetItem(id); ok {
		return it.Name
	}
	return fmt.Sprintf("ID: %s", id)
}

func returnedSuffix(c lending.Contract, today int) string {
	if c.IsReturned(today) {
		return " (returned)"
	}
	return ""
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength-3] + "..."
}
