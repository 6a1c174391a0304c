package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/signalbox/internal/config"
	"github.com/zulandar/signalbox/internal/ingest"
	"github.com/zulandar/signalbox/internal/logging"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Issues file ingestion commands",
	}

	cmd.AddCommand(newIngestListCmd())
	cmd.AddCommand(newIngestProcessCmd())
	cmd.AddCommand(newIngestProcessAllCmd())
	cmd.AddCommand(newIngestAssignCmd())
	cmd.AddCommand(newIngestPullCmd())
	return cmd
}

// newProcessorFromConfig connects to the database and returns a processor over
// the configured issues directory. The returned func flushes the logger.
func newProcessorFromConfig(configPath string) (*ingest.Processor, func(), error) {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	dir, err := ingest.NewDir(cfg.Ingest.IssuesDir)
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Log.Development)
	if err != nil {
		return nil, nil, err
	}
	return ingest.NewProcessor(gormDB, dir, log), func() { log.Sync() }, nil
}

func newIngestListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List files waiting in the issues directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			dir, err := ingest.NewDir(cfg.Ingest.IssuesDir)
			if err != nil {
				return err
			}
			files, err := dir.List()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintf(out, "No files in %s\n", dir.Root())
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "FILE\tTYPE\tSIZE\tMODIFIED")
			for _, f := range files {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", f.Filename, f.FileType, f.Size, formatTime(f.Modified))
			}
			w.Flush()
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newIngestProcessCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "process <filename>",
		Short: "Record one issues file as a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, done, err := newProcessorFromConfig(configPath)
			if err != nil {
				return err
			}
			defer done()

			res, err := proc.ProcessFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Processed %s as message %s\n", res.Filename, res.MessageID)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newIngestProcessAllCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "process-all",
		Short: "Record every issues file as a message",
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, done, err := newProcessorFromConfig(configPath)
			if err != nil {
				return err
			}
			defer done()

			b, err := proc.ProcessAll()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range b.Processed {
				fmt.Fprintf(out, "Processed %s as message %s\n", p.Filename, p.MessageID)
			}
			for _, e := range b.Errors {
				fmt.Fprintf(out, "Failed %s: %s\n", e.Filename, e.Error)
			}
			fmt.Fprintf(out, "%d processed, %d failed\n", b.TotalProcessed, len(b.Errors))
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newIngestAssignCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign the newest issues file as a task",
		Long:  "Sends the most recent file as a task_assignment message from $AGENT_NAME (default task_assigner) to another agent, then deletes the file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, done, err := newProcessorFromConfig(configPath)
			if err != nil {
				return err
			}
			defer done()

			a, err := proc.AssignLatest()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Assigned %s from %s to %s\n", a.Filename, a.SenderAgent, a.RecipientAgent)
			fmt.Fprintf(out, "Message:       %s\n", a.MessageID)
			fmt.Fprintf(out, "Conversation:  %s\n", a.ConversationID)
			if !a.FileDeleted {
				fmt.Fprintf(out, "Warning: %s could not be deleted\n", a.Filename)
			}
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newIngestPullCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "pull <key>",
		Short: "Download a report from S3 into the issues directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Ingest.S3.Bucket == "" {
				return fmt.Errorf("ingest.s3.bucket is not configured")
			}
			dir, err := ingest.NewDir(cfg.Ingest.IssuesDir)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			puller, err := newS3Puller(ctx, cfg, dir)
			if err != nil {
				return err
			}
			p, err := puller.Pull(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pulled %s as %s (%d bytes)\n", p.OriginalFilename, p.LocalFilename, p.FileSize)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}
