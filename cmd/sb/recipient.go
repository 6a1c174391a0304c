package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/signalbox/internal/messaging"
	"github.com/zulandar/signalbox/internal/models"
)

func newRecipientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipient",
		Short: "Read receipt commands",
	}

	cmd.AddCommand(newRecipientAddCmd())
	cmd.AddCommand(newRecipientReadCmd())
	return cmd
}

func newRecipientAddCmd() *cobra.Command {
	var (
		configPath string
		read       bool
	)

	cmd := &cobra.Command{
		Use:   "add <message-id> <agent-id>",
		Short: "Address a message to an agent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			r, err := messaging.AddRecipient(gormDB, messaging.RecipientOpts{
				MessageID:   args[0],
				RecipientID: args[1],
				IsRead:      &read,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s as recipient of %s (read: %t)\n", r.RecipientID, r.MessageID, r.Read())
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&read, "read", false, "create the receipt already read")
	return cmd
}

func newRecipientReadCmd() *cobra.Command {
	var (
		configPath string
		unread     bool
	)

	cmd := &cobra.Command{
		Use:   "read <message-id> <agent-id>",
		Short: "Mark one receipt read or unread",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			isRead := !unread
			r, err := messaging.UpdateRecipient(gormDB,
				models.RecipientKey{MessageID: args[0], RecipientID: args[1]},
				messaging.RecipientUpdate{IsRead: &isRead})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Receipt %s/%s read: %t (at %s)\n",
				r.MessageID, r.RecipientID, r.Read(), formatTimePtr(r.ReadAt))
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&unread, "unread", false, "mark unread instead")
	return cmd
}
