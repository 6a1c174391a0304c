package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/signalbox/internal/conversation"
)

func newConversationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conversation",
		Short: "Conversation commands",
	}

	cmd.AddCommand(newConversationCreateCmd())
	cmd.AddCommand(newConversationListCmd())
	cmd.AddCommand(newConversationShowCmd())
	return cmd
}

func newConversationCreateCmd() *cobra.Command {
	var (
		configPath  string
		title       string
		description string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			var opts conversation.CreateOpts
			if cmd.Flags().Changed("title") {
				opts.Title = &title
			}
			if cmd.Flags().Changed("description") {
				opts.Description = &description
			}
			c, err := conversation.Create(gormDB, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created conversation %s\n", c.ID)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&title, "title", "", "conversation title")
	cmd.Flags().StringVar(&description, "description", "", "conversation description")
	return cmd
}

func newConversationListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conversations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			convs, err := conversation.List(gormDB)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(convs) == 0 {
				fmt.Fprintln(out, "No conversations found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tARCHIVED\tCREATED")
			for _, c := range convs {
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", c.ID, truncate(orDash(c.Title), 40), c.Archived, formatTime(c.CreatedAt))
			}
			w.Flush()
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newConversationShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a conversation with its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			d, err := conversation.GetDetails(gormDB, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:        %s\n", d.ID)
			fmt.Fprintf(out, "Title:     %s\n", orDash(d.Title))
			fmt.Fprintf(out, "Archived:  %t\n", d.Archived)
			fmt.Fprintf(out, "Messages:  %d (%d unread receipts)\n", d.TotalMessages, d.UnreadCount)
			fmt.Fprintf(out, "Agents:   ")
			for _, a := range d.UniqueAgents {
				fmt.Fprintf(out, " %s", a.AgentName)
			}
			fmt.Fprintln(out)

			if len(d.Messages) == 0 {
				return nil
			}
			fmt.Fprintln(out)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SENT\tFROM\tCONTENT")
			for _, m := range d.Messages {
				fmt.Fprintf(w, "%s\t%s\t%s\n", formatTime(m.SentAt), orDash(m.SenderID), truncate(m.Content, 60))
			}
			w.Flush()
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}
