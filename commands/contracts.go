package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"stuff-lending/lending"
)

func ContractsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contracts",
		Short: "List contracts",
		RunE: func(cmd *cobra.Command, args []string) error {
			item, _ := cmd.Flags().GetString("item")
			return withManager(cmd.Context(), func(mgr *lending.Manager) error {
				if item != "" {
					it, ok := mgr.GetItem(item)
					if !ok {
						return lending.ErrItemNotFound
					}
					printContracts(cmd.OutOrStdout(), mgr, it.Contracts)
					return nil
				}
				contracts, err := mgr.Contracts(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to load contracts: %w", err)
				}
				printContracts(cmd.OutOrStdout(), mgr, contracts)
				return nil
			})
		},
	}
	cmd.Flags().String("item", "", "only show contracts for this item")
	cmd.AddCommand(contractCancelCmd())
	return cmd
}

func contractCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <item-id> <contract-id>",
		Short: "Remove a contract from an item; credits are not refunded",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd.Context(), func(mgr *lending.Manager) error {
				if err := mgr.CancelContract(cmd.Context(), args[0], args[1]); err != nil {
					return fmt.Errorf("failed to cancel contract: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cancelled contract %s\n", args[1])
				return nil
			})
		},
	}
}
