// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"fmt"

	"github.com/spf13/cobra"

	deployer "github.com/canopyhq/canopy/internal/canopy/deploy"
	"github.com/canopyhq/canopy/internal/core/config"
	"github.com/canopyhq/canopy/internal/engine"
	"github.com/canopyhq/canopy/internal/prompt"
	"github.com/canopyhq/canopy/internal/render"
	"github.com/canopyhq/canopy/internal/telemetry"
	"github.com/canopyhq/canopy/internal/workspace"
)

// GetDeployCmd builds the `canopy deploy` command.
func GetDeployCmd() *cobra.Command {
	deployCmd := &cobra.Command{
		Use:   "deploy [plan-file]",
		Short: "Apply a computed plan to the managed services",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			planFile := args[0]
			force, _ := cmd.Flags().GetBool("force")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			detailed, _ := cmd.Flags().GetBool("detailed-plan")
			services, _ := cmd.Flags().GetStringSlice("services")
			environment, _ := cmd.Flags().GetString("environment")
			resultFile, _ := cmd.Flags().GetString("result")
			dir, _ := cmd.Flags().GetString("workspace")

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

			eng := engine.NewFileEngine(planFile, resultFile, "")
			plan, err := eng.Preview(store, active)
			if err != nil {
				return fmt.Errorf("error loading plan: %w", err)
			}

			driver := deployer.NewDriver(eng, store, prompt.NewTerminal(),
				render.NewPrinter(), telemetry.FromEnv(store.Name()))
			_, err = driver.Run(plan, deployer.Options{
				Force:        force,
				DryRun:       dryRun,
				DetailedPlan: detailed,
				Services:     active,
			})
			return err
		},
	}

	deployCmd.Flags().BoolP("force", "f", false, "Deploy without asking for confirmation")
	deployCmd.Flags().BoolP("dry-run", "d", false, "Show what would be deployed without executing")
	deployCmd.Flags().Bool("detailed-plan", false, "List every plan item instead of a summary")
	deployCmd.Flags().StringSliceP("services", "s", nil, "Services to deploy to (default: all profiled)")
	deployCmd.Flags().StringP("environment", "e", "", "Target environment (default: workspace's current)")
	deployCmd.Flags().String("result", "", "Recorded deploy result to replay (testing/offline)")

	return deployCmd
}
