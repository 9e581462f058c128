// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	deploycmd "github.com/canopyhq/canopy/cmd/canopy/cmd/deploy"
	fetchcmd "github.com/canopyhq/canopy/cmd/canopy/cmd/fetch"
	"github.com/canopyhq/canopy/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "canopy",
	Short: "Canopy - Multi-Environment Configuration Deployment Orchestrator",
	Long: `Canopy coordinates applying externally computed configuration changes to a
managed multi-environment workspace: deploy pushes a computed plan to
services, fetch pulls remote changes through approval into the workspace.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version.Version, version.Commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "Workspace directory")
	rootCmd.AddCommand(deploycmd.GetDeployCmd())
	rootCmd.AddCommand(fetchcmd.GetFetchCmd())
}
