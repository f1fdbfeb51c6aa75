package commands

import (
	"bufio"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"stuff-lending/lending"
)

func MemberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage members",
	}
	cmd.AddCommand(
		memberAddCmd(),
		memberListCmd(),
		memberShowCmd(),
		memberEditCmd(),
		memberDeleteCmd(),
		memberSetPinCmd(),
	)
	return cmd
}

func memberAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new member",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			phone, _ := cmd.Flags().GetString("phone")
			email, _ := cmd.Flags().GetString("email")

			return withManager(cmd.Context(), func(mgr *lending.Manager) error {
				m, err := mgr.AddMember(cmd.Context(), name, phone, email)
				if err != nil {
					return fmt.Errorf("failed to add member: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added member %s with ID %s\n", m.Name, m.ID)
				return nil
			})
		},
	}
	cmd.Flags().String("name", "", "member name")
	cmd.Flags().String("phone", "", "phone number")
	cmd.Flags().String("email", "", "email address")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func memberListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List members",
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			return withManager(cmd.Context(), func(mgr *lending.Manager) error {
				printMembers(cmd.OutOrStdout(), mgr, verbose)
				return nil
			})
		},
	}
	cmd.Flags().BoolP("verbose", "v", false, "include owned items and their contracts")
	return cmd
}

func memberShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <member-id>",
		Short: "Show a member's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd.Context(), func(mgr *lending.Manager) error {
				m, ok := mgr.GetMember(args[0])
				if !ok {
					return lending.ErrMemberNotFound
				}
				printMember(cmd.OutOrStdout(), m)
				return nil
			})
		},
	}
}

func memberEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <member-id>",
		Short: "Change a member's name, phone or email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd.Context(), func(mgr *lending.Manager) error {
				current, ok := mgr.GetMember(args[0])
				if !ok {
					return lending.ErrMemberNotFound
				}
				name, phone, email := current.Name, current.Phone, current.Email
				if cmd.Flags().Changed("name") {
					name, _ = cmd.Flags().GetString("name")
				}
				if cmd.Flags().Changed("phone") {
					phone, _ = cmd.Flags().GetString("phone")
				}
				if cmd.Flags().Changed("email") {
					email, _ = cmd.Flags().GetString("email")
				}
				m, err := mgr.UpdateMember(cmd.Context(), current.ID, name, phone, email)
				if err != nil {
					return fmt.Errorf("failed to update member: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated member %s\n", m.ID)
				return nil
			})
		},
	}
	cmd.Flags().String("name", "", "new name")
	cmd.Flags().String("phone", "", "new phone number")
	cmd.Flags().String("email", "", "new email address")
	return cmd
}

func memberDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <member-id>",
		Short: "Remove a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd.Context(), func(mgr *lending.Manager) error {
				ok, err := mgr.DeleteMember(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("failed to delete member: %w", err)
				}
				if !ok {
					return lending.ErrMemberNotFound
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted member %s\n", args[0])
				return nil
			})
		},
	}
}

func memberSetPinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-pin <member-id>",
		Short: "Set the PIN a member confirms borrowing with",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := cmd.InOrStdin()
			in := bufio.NewScanner(src)
			pin, err := readSecret(src, in, cmd.OutOrStdout(), "New PIN: ")
			if err != nil {
				return err
			}
			confirm, err := readSecret(src, in, cmd.OutOrStdout(), "Confirm PIN: ")
			if err != nil {
				return err
			}
			if pin != confirm {
				return errors.New("PINs do not match")
			}
			return withManager(cmd.Context(), func(mgr *lending.Manager) error {
				if err := mgr.SetPin(cmd.Context(), args[0], pin); err != nil {
					return fmt.Errorf("failed to set PIN: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "PIN updated.")
				return nil
			})
		},
	}
}
