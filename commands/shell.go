package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"stuff-lending/lending"
)

func ShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive lending shell",
		RunE:  runShell,
	}
}

func runShell(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	mgr, cfg, err := OpenManager(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	if cfg.DaySchedule != "" {
		sched, err := lending.NewDayScheduler(mgr, cfg.DaySchedule, cfg.NewLogger())
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	src := cmd.InOrStdin()
	sh := &shell{ctx: ctx, mgr: mgr, src: src, in: bufio.NewScanner(src), out: cmd.OutOrStdout()}
	sh.run()
	return nil
}

type shell struct {
	ctx context.Context
	mgr *lending.Manager
	src io.Reader
	in  *bufio.Scanner
	out io.Writer
}

func (s *shell) run() {
	fmt.Fprintln(s.out, "Welcome to the Stuff Lending System!")
	s.help()

	for {
		fmt.Fprintf(s.out, "\n[day %d]> ", s.mgr.Today())
		if !s.in.Scan() {
			break
		}
		cmd := strings.TrimSpace(s.in.Text())

		switch cmd {
		case "":
		case "add member":
			s.addMember()
		case "list members":
			printMembers(s.out, s.mgr, false)
		case "list members verbose":
			printMembers(s.out, s.mgr, true)
		case "show member":
			s.showMember()
		case "edit member":
			s.editMember()
		case "delete member":
			s.deleteMember()
		case "set pin":
			s.setPin()
		case "add item":
			s.addItem()
		case "list items":
			printItems(s.out, s.mgr)
		case "show item":
			s.showItem()
		case "edit item":
			s.editItem()
		case "delete item":
			s.deleteItem()
		case "borrow":
			s.borrow()
		case "list contracts":
			s.listContracts()
		case "cancel contract":
			s.cancelContract()
		case "day":
			fmt.Fprintf(s.out, "Current day: %d\n", s.mgr.Today())
		case "advance day":
			s.advanceDay()
		case "help":
			s.help()
		case "exit", "quit":
			fmt.Fprintln(s.out, "Goodbye!")
			return
		default:
			fmt.Fprintln(s.out, "Unknown command. Type 'help' to see the available commands.")
		}
	}
}

func (s *shell) help() {
	fmt.Fprintln(s.out, "Available commands:")
	fmt.Fprintln(s.out, "  Members: add member, list members, list members verbose, show member, edit member, delete member, set pin")
	fmt.Fprintln(s.out, "  Items: add item, list items, show item, edit item, delete item")
	fmt.Fprintln(s.out, "  Lending: borrow, list contracts, cancel contract")
	fmt.Fprintln(s.out, "  Time: day, advance day")
	fmt.Fprintln(s.out, "  System: help, exit")
}

// ask prints label and reads one trimmed line. ok is false on end of input.
func (s *shell) ask(label string) (string, bool) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

// askDefault is ask with the current value shown and kept on empty input.
func (s *shell) askDefault(label, current string) (string, bool) {
	v, ok := s.ask(fmt.Sprintf("%s [%s]: ", label, current))
	if v == "" {
		v = current
	}
	return v, ok
}

func (s *shell) askDay(label string) (int, bool) {
	raw, ok := s.ask(label)
	if !ok {
		return 0, false
	}
	d, err := parseDay(raw)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return 0, false
	}
	return d, true
}

func (s *shell) addMember() {
	name, ok := s.ask("Name: ")
	if !ok {
		return
	}
	phone, ok := s.ask("Phone: ")
	if !ok {
		return
	}
	email, ok := s.ask("Email: ")
	if !ok {
		return
	}
	m, err := s.mgr.AddMember(s.ctx, name, phone, email)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Added member '%s' with ID %s\n", m.Name, m.ID)
}

func (s *shell) showMember() {
	id, ok := s.ask("Member ID: ")
	if !ok {
		return
	}
	m, found := s.mgr.GetMember(id)
	if !found {
		fmt.Fprintf(s.out, "Error: Member with ID %s not found\n", id)
		return
	}
	printMember(s.out, m)
}

func (s *shell) editMember() {
	id, ok := s.ask("Member ID: ")
	if !ok {
		return
	}
	m, found := s.mgr.GetMember(id)
	if !found {
		fmt.Fprintf(s.out, "Error: Member with ID %s not found\n", id)
		return
	}
	name, ok := s.askDefault("Name", m.Name)
	if !ok {
		return
	}
	phone, ok := s.askDefault("Phone", m.Phone)
	if !ok {
		return
	}
	email, ok := s.askDefault("Email", m.Email)
	if !ok {
		return
	}
	if _, err := s.mgr.UpdateMember(s.ctx, id, name, phone, email); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Updated member %s\n", id)
}

func (s *shell) deleteMember() {
	id, ok := s.ask("Member ID: ")
	if !ok {
		return
	}
	deleted, err := s.mgr.DeleteMember(s.ctx, id)
	switch {
	case err != nil:
		fmt.Fprintf(s.out, "Error: %v\n", err)
	case !deleted:
		fmt.Fprintf(s.out, "Error: Member with ID %s not found\n", id)
	default:
		fmt.Fprintf(s.out, "Deleted member %s\n", id)
	}
}

func (s *shell) setPin() {
	id, ok := s.ask("Member ID: ")
	if !ok {
		return
	}
	m, found := s.mgr.GetMember(id)
	if !found {
		fmt.Fprintf(s.out, "Error: Member with ID %s not found\n", id)
		return
	}
	pin, err := readSecret(s.src, s.in, s.out, fmt.Sprintf("Enter new PIN for %s: ", m.Name))
	if err != nil {
		fmt.Fprintf(s.out, "Error reading PIN: %v\n", err)
		return
	}
	if err := s.mgr.SetPin(s.ctx, id, pin); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "PIN set for %s\n", m.Name)
}

// readItemInput prompts for every item field, keeping base values on empty input.
func (s *shell) readItemInput(base lending.ItemInput) (lending.ItemInput, bool) {
	in := base
	var ok bool
	if in.Name, ok = s.askDefault("Name", base.Name); !ok {
		return in, false
	}
	fmt.Fprintf(s.out, "Categories: %v\n", lending.Categories)
	raw, ok := s.askDefault("Category", string(base.Category))
	if !ok {
		return in, false
	}
	cat, err := lending.ParseCategory(raw)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return in, false
	}
	in.Category = cat
	if in.Description, ok = s.askDefault("Description", base.Description); !ok {
		return in, false
	}
	raw, ok = s.askDefault("Cost per day", base.CostPerDay.String())
	if !ok {
		return in, false
	}
	cost, err := lending.ParseCredits(raw)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return in, false
	}
	in.CostPerDay = cost
	return in, true
}

func (s *shell) addItem() {
	owner, ok := s.ask("Owner member ID: ")
	if !ok {
		return
	}
	if _, found := s.mgr.GetMember(owner); !found {
		fmt.Fprintf(s.out, "Error: Member with ID %s not found\n", owner)
		return
	}
	in, ok := s.readItemInput(lending.ItemInput{})
	if !ok {
		return
	}
	it, err := s.mgr.AddItem(s.ctx, owner, in)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Added item '%s' with ID %s\n", it.Name, it.ID)
}

func (s *shell) showItem() {
	id, ok := s.ask("Item ID: ")
	if !ok {
		return
	}
	it, found := s.mgr.GetItem(id)
	if !found {
		fmt.Fprintf(s.out, "Error: Item with ID %s not found\n", id)
		return
	}
	printItem(s.out, s.mgr, it)
}

func (s *shell) editItem() {
	id, ok := s.ask("Item ID: ")
	if !ok {
		return
	}
	it, found := s.mgr.GetItem(id)
	if !found {
		fmt.Fprintf(s.out, "Error: Item with ID %s not found\n", id)
		return
	}
	in, ok := s.readItemInput(lending.ItemInput{
		Name:        it.Name,
		Category:    it.Category,
		Description: it.Description,
		CostPerDay:  it.CostPerDay,
	})
	if !ok {
		return
	}
	if _, err := s.mgr.UpdateItem(s.ctx, id, in); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Updated item %s\n", id)
}

func (s *shell) deleteItem() {
	id, ok := s.ask("Item ID: ")
	if !ok {
		return
	}
	deleted, err := s.mgr.DeleteItem(s.ctx, id)
	switch {
	case err != nil:
		fmt.Fprintf(s.out, "Error: %v\n", err)
	case !deleted:
		fmt.Fprintf(s.out, "Error: Item with ID %s not found\n", id)
	default:
		fmt.Fprintf(s.out, "Deleted item %s\n", id)
	}
}

func (s *shell) borrow() {
	borrower, ok := s.ask("Borrower member ID: ")
	if !ok {
		return
	}
	itemID, ok := s.ask("Item ID: ")
	if !ok {
		return
	}
	start, ok := s.askDay("Start day: ")
	if !ok {
		return
	}
	end, ok := s.askDay("End day: ")
	if !ok {
		return
	}
	if err := confirmBorrower(s.mgr, s.src, s.in, s.out, borrower, "", false); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	if err := borrow(s.ctx, s.mgr, s.out, borrower, itemID, start, end); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
}

func (s *shell) listContracts() {
	contracts, err := s.mgr.Contracts(s.ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	printContracts(s.out, s.mgr, contracts)
}

func (s *shell) cancelContract() {
	itemID, ok := s.ask("Item ID: ")
	if !ok {
		return
	}
	contractID, ok := s.ask("Contract ID: ")
	if !ok {
		return
	}
	if err := s.mgr.CancelContract(s.ctx, itemID, contractID); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Cancelled contract %s. No credits were refunded.\n", contractID)
}

func (s *shell) advanceDay() {
	from, to, err := s.mgr.AdvanceDay(s.ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Advanced from day %d to day %d\n", from, to)
}
