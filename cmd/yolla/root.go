package main

import (
	"fmt"

	"yolla/internal/version"

	"github.com/spf13/cobra"
)

// newRootCmd creates the root yolla command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "yolla",
		Short:         "Yolla conversational task conductor",
		Long:          "yolla runs a conversational conductor that extracts task directives\nfrom model output and drives specialist agents through their lifecycle.",
		Version:       fmt.Sprintf("yolla %s", version.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.AddCommand(
		newRunCmd(),
		newPipeCmd(),
		newStatusCmd(),
		newLogsCmd(),
		newAgentsCmd(),
		newDashCmd(),
	)

	return cmd
}
