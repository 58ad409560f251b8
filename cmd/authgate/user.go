package main

import (
	"encoding/json"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users of the configured identity provider",
	}
	cmd.AddCommand(newUserGetCmd(), newUserVerifyCmd(), newUserDeleteCmd())
	return cmd
}

// withProvider opens the configured provider for a management command.
func withProvider(cmd *cobra.Command, fn func(b *backend) error) error {
	b := &backend{}
	defer b.Close()
	if err := b.openProvider(cmd.Context()); err != nil {
		return err
	}
	return fn(b)
}

func newUserGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <username>",
		Short: "Look up a user by username or email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProvider(cmd, func(b *backend) error {
				user, err := b.provider.FindUser(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(user)
			})
		},
	}
}

func newUserVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <subject>",
		Short: "Confirm a user out of band",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProvider(cmd, func(b *backend) error {
				if err := b.provider.VerifyUser(cmd.Context(), args[0]); err != nil {
					return err
				}
				color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "verified %s\n", args[0])
				return nil
			})
		},
	}
}

func newUserDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id-or-email>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProvider(cmd, func(b *backend) error {
				if err := b.provider.DeleteUser(cmd.Context(), args[0]); err != nil {
					return err
				}
				color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}
}
