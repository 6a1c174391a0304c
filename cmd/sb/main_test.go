package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestVersionCmd(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "sb dev") {
		t.Errorf("expected output to contain 'sb dev', got: %s", out)
	}
	if !strings.Contains(out, "commit: none") {
		t.Errorf("expected output to contain 'commit: none', got: %s", out)
	}
}

func TestVersionCmdWithCustomValues(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = "1.2.0", "f00dcafe", "2026-10-01"
	defer func() { Version, Commit, Date = origVersion, origCommit, origDate }()

	cmd := newVersionCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.Run(cmd, nil)

	want := "sb 1.2.0 (commit: f00dcafe, built: 2026-10-01)\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRootCmdHelp(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("help command failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Signalbox") {
		t.Errorf("expected help output to contain 'Signalbox', got: %s", out)
	}
	for _, sub := range []string{"version", "db", "serve", "agent", "message", "recipient", "conversation", "ingest"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help output to list %q subcommand, got: %s", sub, out)
		}
	}
}

func TestRootCmdNoArgs(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("root command with no args failed: %v", err)
	}
}

func TestExecuteSuccess(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"version"})
	if code := execute(cmd); code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
}

func TestExecuteError(t *testing.T) {
	cmd := &cobra.Command{
		Use:           "failing",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("intentional error")
		},
	}
	cmd.SetArgs([]string{})
	if code := execute(cmd); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}

func TestSubcommandHelp(t *testing.T) {
	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"db", "init", "--help"}, []string{"migrates all tables", "--config"}},
		{[]string{"serve", "--help"}, []string{"--port", "--config"}},
		{[]string{"agent", "--help"}, []string{"create", "list", "show", "update"}},
		{[]string{"agent", "create", "--help"}, []string{"--name", "--ip", "--port"}},
		{[]string{"message", "--help"}, []string{"Messaging commands", "send", "show", "inbox", "unread", "mark-read", "metadata"}},
		{[]string{"message", "send", "--help"}, []string{"--from", "--to", "--content", "--conversation", "--parent", "--type", "--importance", "--status", "--metadata", "--at", "--config"}},
		{[]string{"message", "inbox", "--help"}, []string{"--agent"}},
		{[]string{"message", "mark-read", "--help"}, []string{"--agent", "--before"}},
		{[]string{"message", "metadata", "--help"}, []string{"--agent", "--add"}},
		{[]string{"recipient", "--help"}, []string{"add", "read"}},
		{[]string{"recipient", "read", "--help"}, []string{"--unread"}},
		{[]string{"conversation", "--help"}, []string{"create", "list", "show"}},
		{[]string{"ingest", "--help"}, []string{"list", "process", "process-all", "assign", "pull"}},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			cmd := newRootCmd()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(tt.args)

			if err := cmd.Execute(); err != nil {
				t.Fatalf("%v failed: %v", tt.args, err)
			}
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("expected help to contain %q, got: %s", w, out)
				}
			}
		})
	}
}

func TestNewMessageSendCmd_RequiredFlags(t *testing.T) {
	cmd := newMessageSendCmd()
	f := cmd.Flags().Lookup("content")
	if f == nil {
		t.Fatal("expected --content flag")
	}
	if _, ok := f.Annotations[cobra.BashCompOneRequiredFlag]; !ok {
		t.Error("--content should be required")
	}
	if def := cmd.Flags().Lookup("config").DefValue; def != defaultConfigPath {
		t.Errorf("--config default = %q, want %q", def, defaultConfigPath)
	}
}

func TestCommands_MissingConfig(t *testing.T) {
	missing := "/nonexistent/signalbox.yaml"
	tests := [][]string{
		{"db", "init", "-c", missing},
		{"agent", "list", "-c", missing},
		{"message", "inbox", "--agent", "a1", "-c", missing},
		{"conversation", "list", "-c", missing},
		{"ingest", "list", "-c", missing},
		{"serve", "-c", missing},
	}

	for _, args := range tests {
		t.Run(strings.Join(args[:2], " "), func(t *testing.T) {
			cmd := newRootCmd()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(args)

			err := cmd.Execute()
			if err == nil {
				t.Fatal("expected error for missing config")
			}
			if !strings.Contains(err.Error(), "load config") {
				t.Errorf("error = %q, want it to mention load config", err)
			}
		})
	}
}
