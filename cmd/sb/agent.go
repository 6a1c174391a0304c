package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/signalbox/internal/agent"
	"github.com/zulandar/signalbox/internal/models"
)

func newAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Agent management commands",
	}

	cmd.AddCommand(newAgentCreateCmd())
	cmd.AddCommand(newAgentListCmd())
	cmd.AddCommand(newAgentShowCmd())
	cmd.AddCommand(newAgentUpdateCmd())
	return cmd
}

func newAgentCreateCmd() *cobra.Command {
	var (
		configPath string
		name       string
		ip         string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			opts := agent.CreateOpts{AgentName: name}
			if cmd.Flags().Changed("ip") {
				opts.IPAddress = &ip
			}
			if cmd.Flags().Changed("port") {
				opts.Port = &port
			}
			a, err := agent.Create(gormDB, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created agent %s (%s)\n", a.ID, a.AgentName)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&name, "name", "", "agent name (required)")
	cmd.Flags().StringVar(&ip, "ip", "", "agent IP address")
	cmd.Flags().IntVar(&port, "port", 0, "agent port (1-65535)")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newAgentListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			agents, err := agent.List(gormDB)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(agents) == 0 {
				fmt.Fprintln(out, "No agents found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tADDRESS\tCREATED")
			for _, a := range agents {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.AgentName, address(&a), formatTime(a.CreatedAt))
			}
			w.Flush()
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newAgentShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show agent details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			a, err := agent.Get(gormDB, args[0])
			if err != nil {
				return err
			}
			printAgent(cmd, a)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newAgentUpdateCmd() *cobra.Command {
	var (
		configPath string
		name       string
		ip         string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update agent fields",
		Long:  "Changes only the fields whose flags are given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			var opts agent.UpdateOpts
			if cmd.Flags().Changed("name") {
				opts.AgentName = &name
			}
			if cmd.Flags().Changed("ip") {
				opts.IPAddress = &ip
			}
			if cmd.Flags().Changed("port") {
				opts.Port = &port
			}
			a, err := agent.Update(gormDB, args[0], opts)
			if err != nil {
				return err
			}
			printAgent(cmd, a)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&name, "name", "", "new agent name")
	cmd.Flags().StringVar(&ip, "ip", "", "new IP address")
	cmd.Flags().IntVar(&port, "port", 0, "new port")
	return cmd
}

func printAgent(cmd *cobra.Command, a *models.Agent) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:       %s\n", a.ID)
	fmt.Fprintf(out, "Name:     %s\n", a.AgentName)
	fmt.Fprintf(out, "Address:  %s\n", address(a))
	fmt.Fprintf(out, "Created:  %s\n", formatTime(a.CreatedAt))
}

func address(a *models.Agent) string {
	host := orDash(a.IPAddress)
	if a.Port == nil {
		return host
	}
	return host + ":" + strconv.Itoa(*a.Port)
}
