package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"stuff-lending/lending"
)

func DayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "day",
		Short: "Show the current day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd.Context(), func(mgr *lending.Manager) error {
				fmt.Fprintf(cmd.OutOrStdout(), "Current day: %d\n", mgr.Today())
				return nil
			})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "advance",
		Short: "Move the clock forward one day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd.Context(), func(mgr *lending.Manager) error {
				from, to, err := mgr.AdvanceDay(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Advanced from day %d to day %d\n", from, to)
				return nil
			})
		},
	})
	return cmd
}
