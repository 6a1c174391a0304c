package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/signalbox/internal/agent"
	"github.com/zulandar/signalbox/internal/config"
	"github.com/zulandar/signalbox/internal/logging"
	"github.com/zulandar/signalbox/internal/messaging"
	"github.com/zulandar/signalbox/internal/models"
	"github.com/zulandar/signalbox/internal/notify"
	"github.com/zulandar/signalbox/internal/schedule"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newMessageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Messaging commands",
	}

	cmd.AddCommand(newMessageSendCmd())
	cmd.AddCommand(newMessageShowCmd())
	cmd.AddCommand(newMessageInboxCmd())
	cmd.AddCommand(newMessageUnreadCmd())
	cmd.AddCommand(newMessageMarkReadCmd())
	cmd.AddCommand(newMessageMetadataCmd())
	return cmd
}

func newMessageSendCmd() *cobra.Command {
	var (
		configPath   string
		from         string
		to           []string
		content      string
		conversation string
		parent       string
		msgType      string
		importance   int
		status       string
		metadata     string
		at           string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a message",
		Long: `Creates a message and a read receipt for each --to agent.

--at schedules delivery: an RFC3339 time, a relative offset such as +90m,
or a five-field cron expression (the next matching minute).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			opts := messaging.CreateOpts{Content: content}
			flags := cmd.Flags()
			if flags.Changed("from") {
				opts.SenderID = &from
			}
			if flags.Changed("conversation") {
				opts.ConversationID = &conversation
			}
			if flags.Changed("parent") {
				opts.ParentMessageID = &parent
			}
			if flags.Changed("type") {
				opts.MessageType = &msgType
			}
			if flags.Changed("importance") {
				opts.Importance = &importance
			}
			if flags.Changed("status") {
				opts.Status = &status
			}
			if metadata != "" {
				opts.Metadata = datatypes.JSON(metadata)
			}
			if at != "" {
				sendAt, err := schedule.Resolve(at, time.Now())
				if err != nil {
					return err
				}
				opts.ScheduleAt = &sendAt
			}

			msg, err := sendMessage(gormDB, opts, to)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sent message %s to %d recipient(s)\n", msg.ID, len(to))
			if msg.Timed != nil {
				fmt.Fprintf(out, "Scheduled for %s\n", formatTime(msg.Timed.SendAt))
			}
			announce(cmd, cfg, gormDB, msg)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&from, "from", "", "sender agent ID")
	cmd.Flags().StringSliceVar(&to, "to", nil, "recipient agent ID (repeatable)")
	cmd.Flags().StringVar(&content, "content", "", "message content (required)")
	cmd.Flags().StringVar(&conversation, "conversation", "", "conversation ID")
	cmd.Flags().StringVar(&parent, "parent", "", "parent message ID")
	cmd.Flags().StringVar(&msgType, "type", "", "message type")
	cmd.Flags().IntVar(&importance, "importance", 0, "importance (0-10)")
	cmd.Flags().StringVar(&status, "status", "", "message status")
	cmd.Flags().StringVar(&metadata, "metadata", "", "JSON object stored with the message")
	cmd.Flags().StringVar(&at, "at", "", "schedule delivery (RFC3339, +duration or cron)")
	cmd.MarkFlagRequired("content")
	return cmd
}

// sendMessage creates the message and its receipts in one transaction.
func sendMessage(gormDB *gorm.DB, opts messaging.CreateOpts, recipients []string) (*models.Message, error) {
	var msg *models.Message
	err := gormDB.Transaction(func(tx *gorm.DB) error {
		var err error
		msg, err = messaging.Create(tx, opts)
		if err != nil {
			return err
		}
		for _, r := range recipients {
			if _, err := messaging.AddRecipient(tx, messaging.RecipientOpts{MessageID: msg.ID, RecipientID: r}); err != nil {
				return err
			}
		}
		return nil
	})
	return msg, err
}

// announce pushes important messages to the configured webhooks. Failures
// are logged, never returned.
func announce(cmd *cobra.Command, cfg *config.Config, gormDB *gorm.DB, msg *models.Message) {
	log, err := logging.New(cfg.Log.Development)
	if err != nil {
		return
	}
	defer log.Sync()

	d, err := notify.FromConfig(cfg.Notify, log)
	if err != nil {
		log.Warnw("notify: configure", "error", err)
		return
	}
	if !d.Enabled() || !d.ShouldNotify(msg) {
		return
	}
	var sender string
	if msg.SenderID != nil {
		if a, err := agent.Get(gormDB, *msg.SenderID); err == nil {
			sender = a.AgentName
		}
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	d.MessageCreated(ctx, msg, sender)
}

func newMessageShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show message details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			m, err := messaging.Get(gormDB, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:            %s\n", m.ID)
			fmt.Fprintf(out, "From:          %s\n", orDash(m.SenderID))
			fmt.Fprintf(out, "Sent:          %s\n", formatTime(m.SentAt))
			if m.Timed != nil {
				fmt.Fprintf(out, "Scheduled:     %s\n", formatTime(m.Timed.SendAt))
			}
			fmt.Fprintf(out, "Conversation:  %s\n", orDash(m.ConversationID))
			fmt.Fprintf(out, "Parent:        %s\n", orDash(m.ParentMessageID))
			fmt.Fprintf(out, "Type:          %s\n", orDash(m.MessageType))
			if m.Importance != nil {
				fmt.Fprintf(out, "Importance:    %d\n", *m.Importance)
			}
			fmt.Fprintf(out, "Status:        %s\n", orDash(m.Status))
			if len(m.Metadata) > 0 {
				fmt.Fprintf(out, "Metadata:      %s\n", string(m.Metadata))
			}
			fmt.Fprintf(out, "\n%s\n", m.Content)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newMessageInboxCmd() *cobra.Command {
	var (
		configPath string
		agentID    string
	)

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "List messages delivered to an agent",
		Long:  "Lists every message the agent can currently see, newest first. Scheduled messages appear once their send time has passed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			ds, err := messaging.ListForAgent(gormDB, agentID, time.Now())
			if err != nil {
				return err
			}
			printDeliveries(cmd.OutOrStdout(), agentID, ds)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&agentID, "agent", "", "agent ID (required)")
	cmd.MarkFlagRequired("agent")
	return cmd
}

func newMessageUnreadCmd() *cobra.Command {
	var (
		configPath string
		agentID    string
	)

	cmd := &cobra.Command{
		Use:   "unread",
		Short: "List an agent's unread messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			ds, err := messaging.ListUnread(gormDB, agentID, time.Now())
			if err != nil {
				return err
			}
			printDeliveries(cmd.OutOrStdout(), agentID, ds)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&agentID, "agent", "", "agent ID (required)")
	cmd.MarkFlagRequired("agent")
	return cmd
}

func printDeliveries(out io.Writer, agentID string, ds []messaging.Delivery) {
	if len(ds) == 0 {
		fmt.Fprintf(out, "No messages for %s\n", agentID)
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFROM\tTYPE\tIMP\tREAD\tSENT\tCONTENT")
	for _, d := range ds {
		imp := "-"
		if d.Importance != nil {
			imp = fmt.Sprintf("%d", *d.Importance)
		}
		read := "no"
		if d.IsRead {
			read = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, orDash(d.SenderID), orDash(d.MessageType), imp, read,
			formatTime(d.SentAt), truncate(strings.ReplaceAll(d.Content, "\n", " "), 50))
	}
	w.Flush()
}

func newMessageMarkReadCmd() *cobra.Command {
	var (
		configPath string
		agentID    string
		before     string
	)

	cmd := &cobra.Command{
		Use:   "mark-read",
		Short: "Mark an agent's messages as read",
		Long:  "Marks every visible unread message sent at or before --before (default: now) as read.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			now := time.Now()
			cutoff := now
			if before != "" {
				if cutoff, err = schedule.Resolve(before, now); err != nil {
					return err
				}
			}
			n, err := messaging.MarkRead(gormDB, agentID, cutoff, now)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %d messages as read\n", n)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&agentID, "agent", "", "agent ID (required)")
	cmd.Flags().StringVar(&before, "before", "", "cutoff time (RFC3339)")
	cmd.MarkFlagRequired("agent")
	return cmd
}

func newMessageMetadataCmd() *cobra.Command {
	var (
		configPath string
		agentID    string
		add        []string
	)

	cmd := &cobra.Command{
		Use:   "metadata <message-id>",
		Short: "Show or attach message metadata",
		Long: `Without --add, lists the message's metadata as visible to --agent, which
must be the sender or a recipient. With --add key=value, attaches items.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(add) > 0 {
				for _, kv := range add {
					key, value, _ := strings.Cut(kv, "=")
					md, err := messaging.AddMetadata(gormDB, messaging.MetadataOpts{MessageID: args[0], Key: key, Value: &value})
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Added metadata %s (%s)\n", md.ID, md.Key)
				}
				return nil
			}

			if agentID == "" {
				return fmt.Errorf("--agent is required to read metadata")
			}
			access, err := messaging.MetadataForAgent(gormDB, args[0], agentID)
			if err != nil {
				return err
			}
			if len(access.MetadataItems) == 0 {
				fmt.Fprintf(out, "No metadata for message %s\n", args[0])
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKEY\tVALUE\tCREATED")
			for _, md := range access.MetadataItems {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", md.ID, md.Key, orDash(md.Value), formatTime(md.CreatedAt))
			}
			w.Flush()
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&agentID, "agent", "", "agent requesting the metadata")
	cmd.Flags().StringArrayVar(&add, "add", nil, "attach key=value (repeatable)")
	return cmd
}
