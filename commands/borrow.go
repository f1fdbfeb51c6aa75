package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"stuff-lending/lending"
)

func BorrowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "borrow",
		Short: "Borrow an item for a range of days",
		RunE: func(cmd *cobra.Command, args []string) error {
			borrower, _ := cmd.Flags().GetString("borrower")
			itemID, _ := cmd.Flags().GetString("item")
			start, _ := cmd.Flags().GetInt("start")
			end, _ := cmd.Flags().GetInt("end")

			return withManager(cmd.Context(), func(mgr *lending.Manager) error {
				src := cmd.InOrStdin()
				pin, _ := cmd.Flags().GetString("pin")
				if err := confirmBorrower(mgr, src, bufio.NewScanner(src), cmd.OutOrStdout(), borrower, pin, cmd.Flags().Changed("pin")); err != nil {
					return err
				}
				return borrow(cmd.Context(), mgr, cmd.OutOrStdout(), borrower, itemID, start, end)
			})
		},
	}
	cmd.Flags().String("borrower", "", "borrowing member ID")
	cmd.Flags().String("item", "", "item ID")
	cmd.Flags().Int("start", 0, "first day of the loan")
	cmd.Flags().Int("end", 0, "last day of the loan, inclusive")
	cmd.Flags().String("pin", "", "borrower PIN; prompted for when omitted")
	for _, f := range []string{"borrower", "item", "start", "end"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

// confirmBorrower asks for the borrower's PIN when one is set.
func confirmBorrower(mgr *lending.Manager, src io.Reader, in *bufio.Scanner, out io.Writer, borrowerID, pin string, havePin bool) error {
	m, ok := mgr.GetMember(borrowerID)
	if !ok {
		return lending.ErrMemberNotFound
	}
	if !m.HasPin() {
		return nil
	}
	if !havePin {
		var err error
		if pin, err = readSecret(src, in, out, "Enter PIN: "); err != nil {
			return err
		}
	}
	return mgr.Authenticate(borrowerID, pin)
}

func borrow(ctx context.Context, mgr *lending.Manager, out io.Writer, borrowerID, itemID string, start, end int) error {
	c, err := mgr.Borrow(ctx, borrowerID, itemID, start, end)
	var rejected *lending.AdmissionError
	switch {
	case errors.As(err, &rejected):
		return fmt.Errorf("contract rejected (%s): %w", rejected.Reason.Category(), err)
	case err != nil:
		return err
	}
	fmt.Fprintln(out, "Contract created successfully.")
	printContract(out, mgr, c)
	return nil
}
