// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"fmt"

	"github.com/spf13/cobra"

	gate "github.com/canopyhq/canopy/internal/canopy/fetch"
	"github.com/canopyhq/canopy/internal/core/config"
	"github.com/canopyhq/canopy/internal/core/models"
	"github.com/canopyhq/canopy/internal/engine"
	"github.com/canopyhq/canopy/internal/prompt"
	"github.com/canopyhq/canopy/internal/render"
	"github.com/canopyhq/canopy/internal/telemetry"
	"github.com/canopyhq/canopy/internal/workspace"
)

// GetFetchCmd builds the `canopy fetch` command.
func GetFetchCmd() *cobra.Command {
	fetchCmd := &cobra.Command{
		Use:   "fetch [changeset-file]",
		Short: "Pull remote changes through approval into the workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changesetFile := args[0]
			force, _ := cmd.Flags().GetBool("force")
			interactive, _ := cmd.Flags().GetBool("interactive")
			stateOnly, _ := cmd.Flags().GetBool("state-only")
			reportSize, _ := cmd.Flags().GetBool("report-size")
			modeFlag, _ := cmd.Flags().GetString("mode")
			filter, _ := cmd.Flags().GetString("filter")
			services, _ := cmd.Flags().GetStringSlice("services")
			environment, _ := cmd.Flags().GetString("environment")
			dir, _ := cmd.Flags().GetString("workspace")

			mode, err := models.ParseMode(modeFlag)
			if err != nil {
				return err
			}
			if !interactive && !force && filter == "" {
				return fmt.Errorf("non-interactive fetch needs --force or --filter to approve changes")
			}

			store, err := workspace.Open(dir)
			if err != nil {
				return err
			}
			if environment != "" {
				if err := store.SwitchEnvironment(environment); err != nil {
					return err
				}
			}

			profiles, err := config.LoadProfiles(config.ProfilesPath(dir))
			if err != nil {
				return err
			}
			active, err := profiles.Resolve(services)
			if err != nil {
				return err
			}

			prompter := prompt.NewTerminal()
			if !stateOnly {
				// The alignment decision is made once, before the gate runs.
				advisor := gate.NewAdvisor(store, prompter)
				mode, err = advisor.Resolve(force, mode, active)
				if err != nil {
					return err
				}
			}

			g := gate.NewGate(engine.NewFileEngine("", "", changesetFile), store, prompter,
				render.NewPrinter(), telemetry.FromEnv(store.Name()))
			return g.Run(gate.Options{
				Force:      force,
				StateOnly:  stateOnly,
				ReportSize: reportSize,
				Mode:       mode,
				Filter:     filter,
				Services:   active,
			})
		},
	}

	fetchCmd.Flags().BoolP("force", "f", false, "Approve all fetched changes without asking")
	fetchCmd.Flags().BoolP("interactive", "i", true, "Select the approved subset interactively")
	fetchCmd.Flags().Bool("state-only", false, "Only refresh environment-local state metadata")
	fetchCmd.Flags().Bool("report-size", false, "Report total workspace size to telemetry")
	fetchCmd.Flags().StringP("mode", "m", "default", "Commit mode: default, align, override or isolated")
	fetchCmd.Flags().String("filter", "", "CEL expression selecting changes to approve (non-interactive)")
	fetchCmd.Flags().StringSliceP("services", "s", nil, "Services to fetch from (default: all profiled)")
	fetchCmd.Flags().StringP("environment", "e", "", "Target environment (default: workspace's current)")

	return fetchCmd
}
