package main

import (
	"fmt"
	"strings"

	"yolla/pkg/roster"

	"github.com/spf13/cobra"
)

// newAgentsCmd creates the "yolla agents" subcommand.
func newAgentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List agent profiles from the roster",
		Long:  "Displays all agent profiles loaded from the profiles directory:\nid, name, role, and declared skills.",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}

			ros, err := roster.Load(paths.ProfilesDir)
			if err != nil {
				return fmt.Errorf("load roster: %w", err)
			}

			w := cmd.OutOrStdout()
			profiles := ros.List()
			if len(profiles) == 0 {
				fmt.Fprintf(w, "no agent profiles in %s\n", paths.ProfilesDir)
				return nil
			}

			for _, p := range profiles {
				line := fmt.Sprintf("%-16s %-20s %s", p.ID, p.Name, p.Role)
				if len(p.Skills) > 0 {
					line += "  [" + strings.Join(p.Skills, ", ") + "]"
				}
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}
}
