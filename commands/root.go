package commands

import "github.com/spf13/cobra"

// RootCmd builds the lending CLI. Without a subcommand it opens the shell.
func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lending",
		Short:         "Peer-to-peer stuff lending",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runShell,
	}
	rootCmd.AddCommand(
		MemberCmd(),
		ItemCmd(),
		BorrowCmd(),
		ContractsCmd(),
		DayCmd(),
		ShellCmd(),
	)
	return rootCmd
}
