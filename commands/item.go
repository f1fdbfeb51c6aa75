package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"stuff-lending/lending"
)

func ItemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage items offered for lending",
	}
	cmd.AddCommand(
		itemAddCmd(),
		itemListCmd(),
		itemShowCmd(),
		itemEditCmd(),
		itemDeleteCmd(),
		itemAvailableCmd(),
	)
	return cmd
}

func itemFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "item name")
	cmd.Flags().String("category", "", "one of tool, vehicle, game, toy, sport, other")
	cmd.Flags().String("description", "", "short description")
	cmd.Flags().String("cost", "", "cost per day in credits, e.g. 10 or 2.50")
}

// itemInput overlays changed flags on base.
func itemInput(cmd *cobra.Command, base lending.ItemInput) (lending.ItemInput, error) {
	in := base
	if cmd.Flags().Changed("name") {
		in.Name, _ = cmd.Flags().GetString("name")
	}
	if cmd.Flags().Changed("category") {
		raw, _ := cmd.Flags().GetString("category")
		c, err := lending.ParseCategory(raw)
		if err != nil {
			return in, err
		}
		in.Category = c
	}
	if cmd.Flags().Changed("description") {
		in.Description, _ = cmd.Flags().GetString("description")
	}
	if cmd.Flags().Changed("cost") {
		raw, _ := cmd.Flags().GetString("cost")
		c, err := lending.ParseCredits(raw)
		if err != nil {
			return in, err
		}
		in.CostPerDay = c
	}
	return in, nil
}

func itemAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register an item for a member",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, _ := cmd.Flags().GetString("owner")
			in, err := itemInput(cmd, lending.ItemInput{})
			if err != nil {
				return err
			}
			return withManager(cmd.Context(), func(mgr *lending.Manager) error {
				it, err := mgr.AddItem(cmd.Context(), owner, in)
				if err != nil {
					return fmt.Errorf("failed to add item: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added item %s with ID %s\n", it.Name, it.ID)
				return nil
			})
		},
	}
	cmd.Flags().String("owner", "", "owning member ID")
	itemFlags(cmd)
	for _, f := range []string{"owner", "name", "category", "description", "cost"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func itemListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd.Context(), func(mgr *lending.Manager) error {
				printItems(cmd.OutOrStdout(), mgr)
				return nil
			})
		},
	}
}

func itemShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <item-id>",
		Short: "Show an item and its contract history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd.Context(), func(mgr *lending.Manager) error {
				it, ok := mgr.GetItem(args[0])
				if !ok {
					return lending.ErrItemNotFound
				}
				printItem(cmd.OutOrStdout(), mgr, it)
				return nil
			})
		},
	}
}

func itemEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <item-id>",
		Short: "Change an item's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd.Context(), func(mgr *lending.Manager) error {
				it, ok := mgr.GetItem(args[0])
				if !ok {
					return lending.ErrItemNotFound
				}
				in, err := itemInput(cmd, lending.ItemInput{
					Name:        it.Name,
					Category:    it.Category,
					Description: it.Description,
					CostPerDay:  it.CostPerDay,
				})
				if err != nil {
					return err
				}
				if _, err := mgr.UpdateItem(cmd.Context(), it.ID, in); err != nil {
					return fmt.Errorf("failed to update item: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated item %s\n", it.ID)
				return nil
			})
		},
	}
	itemFlags(cmd)
	return cmd
}

func itemDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <item-id>",
		Short: "Remove an item and its contracts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd.Context(), func(mgr *lending.Manager) error {
				ok, err := mgr.DeleteItem(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("failed to delete item: %w", err)
				}
				if !ok {
					return lending.ErrItemNotFound
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted item %s\n", args[0])
				return nil
			})
		},
	}
}

func itemAvailableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "available <item-id> <start-day> <end-day>",
		Short: "Check whether an item is free over a day range",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDay(args[1])
			if err != nil {
				return err
			}
			end, err := parseDay(args[2])
			if err != nil {
				return err
			}
			return withManager(cmd.Context(), func(mgr *lending.Manager) error {
				ok, err := mgr.IsAvailable(args[0], start, end)
				if err != nil {
					return err
				}
				if ok {
					fmt.Fprintf(cmd.OutOrStdout(), "Item %s is available for days %d-%d\n", args[0], start, end)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Item %s is not available for days %d-%d\n", args[0], start, end)
				}
				return nil
			})
		},
	}
}
